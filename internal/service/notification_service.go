package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/noah-isme/grievance-api/internal/messaging"
	"github.com/noah-isme/grievance-api/internal/models"
	appErrors "github.com/noah-isme/grievance-api/pkg/errors"
	"github.com/noah-isme/grievance-api/pkg/jobs"
)

const (
	defaultLogLimit = 50
	trackURL        = "portal.tn.gov.in/track"
	// publishTimeout bounds the event publish so a slow broker cannot hold a status update.
	publishTimeout = 2 * time.Second
)

type notificationStore interface {
	Insert(ctx context.Context, n *models.NotificationLog) error
	List(ctx context.Context, limit int) ([]models.NotificationLog, error)
}

type eventPublisher interface {
	PublishStatusChanged(ctx context.Context, event messaging.StatusChangedEvent) error
}

// Notifier informs a petitioner that their grievance changed status.
type Notifier interface {
	Notify(ctx context.Context, g *models.Grievance, oldStatus, newStatus models.GrievanceStatus) bool
}

// NotificationService renders and records status change notifications.
type NotificationService struct {
	store          notificationStore
	publisher      eventPublisher
	publishTimeout time.Duration
	metrics        *MetricsService
	logger         *zap.Logger
	now            func() time.Time
}

// NewNotificationService constructs a NotificationService. publisher may be nil.
func NewNotificationService(store notificationStore, publisher eventPublisher, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		store:          store,
		publisher:      publisher,
		publishTimeout: publishTimeout,
		metrics:        metrics,
		logger:         logger,
		now:            time.Now,
	}
}

// Notify records SMS and email content for the transition. It reports false when
// the log could not be written and never returns an error.
func (s *NotificationService) Notify(ctx context.Context, g *models.Grievance, oldStatus, newStatus models.GrievanceStatus) (sent bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("notification panicked", zap.Any("panic", r))
			s.metrics.RecordNotification("failed")
			sent = false
		}
	}()
	if g == nil {
		return false
	}

	now := s.now()
	entry := &models.NotificationLog{
		ID:               ulid.Make().String(),
		GrievanceID:      g.TrackingID,
		RecipientName:    g.Name,
		RecipientPhone:   g.Phone,
		NotificationType: models.NotificationTypeStatusUpdate,
		OldStatus:        oldStatus,
		NewStatus:        newStatus,
		SentAt:           now,
		SMSContent:       FormatSMS(g, oldStatus, newStatus),
		EmailContent:     FormatEmail(g, oldStatus, newStatus, now),
	}

	s.logger.Info("sms notification",
		zap.String("tracking_id", g.TrackingID),
		zap.String("phone", g.Phone),
		zap.String("old_status", string(oldStatus)),
		zap.String("new_status", string(newStatus)),
	)

	if err := s.store.Insert(ctx, entry); err != nil {
		s.logger.Error("failed to record notification", zap.String("tracking_id", g.TrackingID), zap.Error(err))
		s.metrics.RecordNotification("failed")
		return false
	}

	if s.publisher != nil {
		pubCtx, cancel := context.WithTimeout(ctx, s.publishTimeout)
		err := s.publisher.PublishStatusChanged(pubCtx, messaging.StatusChangedEvent{
			TrackingID: g.TrackingID,
			Department: g.Department,
			OldStatus:  string(oldStatus),
			NewStatus:  string(newStatus),
			Phone:      g.Phone,
			SMS:        entry.SMSContent,
			OccurredAt: now,
		})
		cancel()
		if err != nil {
			s.logger.Warn("status event not published", zap.String("tracking_id", g.TrackingID), zap.Error(err))
		}
	}

	s.metrics.RecordNotification("sent")
	return true
}

// Logs returns the newest notification records; limit <= 0 uses 50.
func (s *NotificationService) Logs(ctx context.Context, limit int) ([]models.NotificationLog, error) {
	if limit <= 0 {
		limit = defaultLogLimit
	}
	logs, err := s.store.List(ctx, limit)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to load notification logs")
	}
	return logs, nil
}

// FormatSMS renders the short status update message.
func FormatSMS(g *models.Grievance, oldStatus, newStatus models.GrievanceStatus) string {
	return fmt.Sprintf(`Tamil Nadu Grievance Portal - Status Update

Dear %s,

Your grievance %s has been updated:
Subject: %s
Status: %s → %s

Track your grievance at: %s

Regards,
TN Grievance Portal`,
		orNA(g.Name), orNA(g.TrackingID), orNA(g.Subject),
		strings.ToUpper(string(oldStatus)), strings.ToUpper(string(newStatus)), trackURL)
}

// FormatEmail renders the long status update message.
func FormatEmail(g *models.Grievance, oldStatus, newStatus models.GrievanceStatus, at time.Time) string {
	return fmt.Sprintf(`Subject: Grievance Status Update - %s

Dear %s,

This is to inform you that your grievance has been updated:

Tracking ID: %s
Subject: %s
Previous Status: %s
Current Status: %s
Updated On: %s

You can track your grievance status at: %s

Best regards,
Tamil Nadu Grievance Portal Team`,
		orNA(g.TrackingID), orNA(g.Name), orNA(g.TrackingID), orNA(g.Subject),
		strings.ToUpper(string(oldStatus)), strings.ToUpper(string(newStatus)),
		at.Format(models.TimelineDateLayout+" "+models.TimelineTimeLayout), trackURL)
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

type notificationJob struct {
	grievance models.Grievance
	oldStatus models.GrievanceStatus
	newStatus models.GrievanceStatus
}

// AsyncNotifier hands notifications to a background queue.
type AsyncNotifier struct {
	queue   *jobs.Queue
	metrics *MetricsService
	logger  *zap.Logger
}

// NewAsyncNotifier builds the queue around next. Start the returned notifier before use.
func NewAsyncNotifier(next Notifier, cfg jobs.QueueConfig, metrics *MetricsService, logger *zap.Logger) *AsyncNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.Logger = logger
	cfg.OnGiveUp = func(job jobs.Job, err error) {
		metrics.RecordNotification("dropped")
		logger.Warn("notification dropped", zap.String("tracking_id", job.ID), zap.Error(err))
	}
	handler := func(ctx context.Context, job jobs.Job) error {
		payload, ok := job.Payload.(notificationJob)
		if !ok {
			return nil
		}
		if !next.Notify(ctx, &payload.grievance, payload.oldStatus, payload.newStatus) {
			return fmt.Errorf("notification for %s not recorded", job.ID)
		}
		return nil
	}
	return &AsyncNotifier{
		queue:   jobs.NewQueue("notifications", handler, cfg),
		metrics: metrics,
		logger:  logger,
	}
}

// Start launches the workers.
func (n *AsyncNotifier) Start(ctx context.Context) { n.queue.Start(ctx) }

// Stop halts the workers, discarding queued notifications.
func (n *AsyncNotifier) Stop() { n.queue.Stop() }

// Notify enqueues without blocking; false means the notification was dropped.
func (n *AsyncNotifier) Notify(ctx context.Context, g *models.Grievance, oldStatus, newStatus models.GrievanceStatus) bool {
	if g == nil {
		return false
	}
	err := n.queue.TryEnqueue(jobs.Job{
		ID:      g.TrackingID,
		Type:    models.NotificationTypeStatusUpdate,
		Payload: notificationJob{grievance: *g, oldStatus: oldStatus, newStatus: newStatus},
	})
	if err != nil {
		n.metrics.RecordNotification("dropped")
		n.logger.Warn("notification not queued", zap.String("tracking_id", g.TrackingID), zap.Error(err))
		return false
	}
	return true
}
