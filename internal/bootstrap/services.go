package bootstrap

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/grievance-api/internal/llm"
	"github.com/noah-isme/grievance-api/internal/messaging"
	"github.com/noah-isme/grievance-api/internal/models"
	"github.com/noah-isme/grievance-api/internal/repository"
	"github.com/noah-isme/grievance-api/internal/scheduler"
	"github.com/noah-isme/grievance-api/internal/service"
	"github.com/noah-isme/grievance-api/pkg/config"
	"github.com/noah-isme/grievance-api/pkg/jobs"
	"github.com/noah-isme/grievance-api/pkg/textsim"
)

// Services is the wired service graph.
type Services struct {
	Registry       *models.DepartmentRegistry
	Metrics        *service.MetricsService
	Classification *service.ClassificationService
	Similarity     *service.SimilarityService
	TrackingIDs    *service.TrackingIDAllocator
	Notifications  *service.NotificationService
	Grievances     *service.GrievanceService
	Reminders      *service.ReminderService
	Scheduler      *scheduler.ReminderScheduler

	async     *service.AsyncNotifier
	publisher *messaging.Publisher
}

// BuildServices wires every service over the opened backend. redisClient may be nil.
func BuildServices(cfg *config.Config, registry *models.DepartmentRegistry, stores repository.Stores, redisClient *redis.Client, metrics *service.MetricsService, logger *zap.Logger) (*Services, error) {
	var oracleCache llm.Cache
	if redisClient != nil {
		oracleCache = service.NewCacheService(repository.NewCacheRepository(redisClient), metrics, cfg.Classifier.CacheTTL, logger)
	}
	oracle := llm.NewCachedOracle(llm.NewOracle(cfg.Classifier, logger), oracleCache, cfg.Classifier.CacheTTL, logger)

	publisher, err := messaging.NewPublisher(cfg.Notifications.KafkaBrokers, cfg.Notifications.KafkaTopic, logger)
	if err != nil {
		return nil, err
	}

	svc := &Services{
		Registry:       registry,
		Metrics:        metrics,
		Classification: service.NewClassificationService(oracle, registry, metrics, logger),
		Similarity: service.NewSimilarityService(stores.Grievances, registry, textsim.Config{
			MaxFeatures: cfg.Similarity.MaxFeatures,
		}, cfg.Similarity.Threshold, logger),
		TrackingIDs:   service.NewTrackingIDAllocator(stores.Grievances, logger),
		Notifications: service.NewNotificationService(stores.Notifications, publisher, metrics, logger),
		publisher:     publisher,
	}

	var notifier service.Notifier = svc.Notifications
	if cfg.Notifications.Async {
		svc.async = service.NewAsyncNotifier(svc.Notifications, jobs.QueueConfig{
			Workers:    cfg.Notifications.Workers,
			BufferSize: cfg.Notifications.BufferSize,
			MaxRetries: cfg.Notifications.MaxRetries,
			RetryDelay: cfg.Notifications.RetryDelay,
		}, metrics, logger)
		notifier = svc.async
	}

	svc.Grievances = service.NewGrievanceService(stores.Grievances, svc.Similarity, svc.TrackingIDs, notifier, registry,
		service.GrievanceServiceConfig{SimilarityThreshold: cfg.Similarity.Threshold}, validator.New(), metrics, logger)
	svc.Reminders = service.NewReminderService(stores.Grievances, stores.Reminders, registry, service.ReminderConfig{
		StaleAfter: cfg.Reminders.StaleAfter,
		Cooldown:   cfg.Reminders.Cooldown,
	}, metrics, logger)

	var specs []string
	if cfg.Reminders.Enabled {
		for _, spec := range []string{cfg.Reminders.DailySpec, cfg.Reminders.IntervalSpec} {
			if spec != "" {
				specs = append(specs, spec)
			}
		}
	}
	svc.Scheduler, err = scheduler.New(svc.Reminders, scheduler.Config{
		Specs:    specs,
		Timezone: cfg.Reminders.Timezone,
		Timeout:  cfg.Reminders.ScanTimeout,
	}, metrics, logger)
	if err != nil {
		return nil, err
	}
	return svc, nil
}

// Start launches background workers and the reminder cron.
func (s *Services) Start(ctx context.Context) {
	if s.async != nil {
		s.async.Start(ctx)
	}
	s.Scheduler.Start()
}

// Stop halts background work and flushes the event publisher.
func (s *Services) Stop(ctx context.Context) error {
	s.Scheduler.Stop(ctx)
	if s.async != nil {
		s.async.Stop()
	}
	return s.publisher.Close()
}
