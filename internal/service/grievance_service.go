package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/grievance-api/internal/dto"
	"github.com/noah-isme/grievance-api/internal/models"
	appErrors "github.com/noah-isme/grievance-api/pkg/errors"
)

const (
	submissionComment = "Grievance submitted successfully"
	maxInsertAttempts = 10
)

type grievanceStore interface {
	Insert(ctx context.Context, g *models.Grievance) error
	Get(ctx context.Context, partition, trackingID string) (*models.Grievance, error)
	Find(ctx context.Context, trackingID string) (*models.Grievance, error)
	List(ctx context.Context, partition string, filter models.GrievanceFilter) ([]models.Grievance, error)
	AppendStatus(ctx context.Context, partition, trackingID string, status models.GrievanceStatus, entry models.TimelineEntry) (bool, error)
}

type similarityFinder interface {
	FindSimilar(ctx context.Context, text, department string, threshold float64) ([]dto.SimilarGrievance, error)
}

type trackingIDAllocator interface {
	Allocate(ctx context.Context) (string, error)
}

// GrievanceService owns submission, status transitions and petitioner lookups.
type GrievanceService struct {
	store     grievanceStore
	similar   similarityFinder
	ids       trackingIDAllocator
	notifier  Notifier
	registry  *models.DepartmentRegistry
	threshold float64
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	now       func() time.Time
}

// GrievanceServiceConfig tunes the lifecycle manager.
type GrievanceServiceConfig struct {
	SimilarityThreshold float64
}

// NewGrievanceService constructs a GrievanceService.
func NewGrievanceService(
	store grievanceStore,
	similar similarityFinder,
	ids trackingIDAllocator,
	notifier Notifier,
	registry *models.DepartmentRegistry,
	cfg GrievanceServiceConfig,
	validate *validator.Validate,
	metrics *MetricsService,
	logger *zap.Logger,
) *GrievanceService {
	if registry == nil {
		registry = models.DefaultDepartmentRegistry()
	}
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GrievanceService{
		store:     store,
		similar:   similar,
		ids:       ids,
		notifier:  notifier,
		registry:  registry,
		threshold: cfg.SimilarityThreshold,
		validator: validate,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// Submit stores a new grievance and reports likely duplicates.
func (s *GrievanceService) Submit(ctx context.Context, req dto.SubmitGrievanceRequest) (*dto.SubmitGrievanceResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	department, ok := s.registry.Canonical(req.Department)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrInvalidDepartment, fmt.Sprintf("invalid department %q", req.Department))
	}
	partition, _ := s.registry.PartitionKey(department)

	text := req.Subject + " " + req.Description
	priority := DetectPriority(text)

	similar, err := s.similar.FindSimilar(ctx, text, department, s.threshold)
	if err != nil {
		return nil, err
	}
	related := make(models.StringList, 0, len(similar))
	for _, m := range similar {
		related = append(related, m.TrackingID)
	}

	now := s.now()
	g := &models.Grievance{
		PartitionKey:       partition,
		Department:         department,
		Status:             models.StatusPending,
		Priority:           priority,
		PetitionType:       req.PetitionType,
		Name:               req.Name,
		Phone:              strings.TrimSpace(req.Phone),
		Address:            req.Address,
		Subject:            req.Subject,
		Description:        req.Description,
		RelatedTo:          related,
		SimilarityDetected: len(similar) > 0,
		Timeline:           []models.TimelineEntry{models.NewTimelineEntry(now, models.StatusPending, submissionComment, models.UpdateSubmission)},
		CreatedAt:          now,
		LastUpdated:        now,
	}

	if err := s.insertWithFreshID(ctx, g); err != nil {
		return nil, err
	}

	s.metrics.RecordSubmission(string(priority), len(similar))
	s.logger.Info("grievance submitted",
		zap.String("tracking_id", g.TrackingID),
		zap.String("department", department),
		zap.String("priority", string(priority)),
		zap.Int("similar", len(similar)),
	)

	resp := &dto.SubmitGrievanceResponse{
		TrackingID:             g.TrackingID,
		Department:             department,
		Priority:               string(priority),
		SimilarityDetected:     g.SimilarityDetected,
		SimilarGrievancesCount: len(similar),
		SimilarGrievances:      similar,
	}
	if len(similar) > 0 {
		resp.SimilarityMessage = fmt.Sprintf("Found %d similar grievance(s). Your issue may be related to existing cases.", len(similar))
	}
	return resp, nil
}

func (s *GrievanceService) insertWithFreshID(ctx context.Context, g *models.Grievance) error {
	for attempt := 1; attempt <= maxInsertAttempts; attempt++ {
		id, err := s.ids.Allocate(ctx)
		if err != nil {
			return appErrors.Storage(err, "failed to allocate tracking id")
		}
		g.TrackingID = id

		err = s.store.Insert(ctx, g)
		if err == nil {
			return nil
		}
		if !errors.Is(err, appErrors.ErrDuplicateTrackingID) {
			return appErrors.Storage(err, "failed to store grievance")
		}
		s.logger.Warn("tracking id taken at insert, retrying", zap.String("tracking_id", id), zap.Int("attempt", attempt))
	}
	return appErrors.Storage(appErrors.ErrDuplicateTrackingID, "failed to store grievance")
}

// UpdateStatus moves a grievance to status, appends a timeline entry and
// notifies the petitioner when the status actually changed.
func (s *GrievanceService) UpdateStatus(ctx context.Context, trackingID, department, status, comment string) (*dto.UpdateStatusResponse, error) {
	newStatus, ok := models.ParseStatus(status)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrInvalidStatus, fmt.Sprintf("invalid status %q", status))
	}
	partition, ok := s.registry.PartitionKey(department)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrInvalidDepartment, fmt.Sprintf("invalid department %q", department))
	}
	trackingID = strings.ToUpper(strings.TrimSpace(trackingID))

	current, err := s.store.Get(ctx, partition, trackingID)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to load grievance")
	}
	if current == nil {
		return nil, appErrors.Clone(appErrors.ErrGrievanceNotFound, "Grievance not found with the provided tracking ID")
	}

	comment = strings.TrimSpace(comment)
	if comment == "" {
		comment = "Status updated to " + string(newStatus)
	}
	now := s.now()
	entry := models.NewTimelineEntry(now, newStatus, comment, models.UpdateStatusChange)

	updated, err := s.store.AppendStatus(ctx, partition, trackingID, newStatus, entry)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to update status")
	}
	if !updated {
		return nil, appErrors.Clone(appErrors.ErrGrievanceNotFound, "Grievance not found with the provided tracking ID")
	}

	oldStatus := current.Status
	notified := false
	if oldStatus != newStatus && s.notifier != nil {
		snapshot := *current
		snapshot.Status = newStatus
		notified = s.notifier.Notify(ctx, &snapshot, oldStatus, newStatus)
		if !notified {
			s.logger.Warn("status notification not sent", zap.String("tracking_id", trackingID))
		}
	}

	s.logger.Info("grievance status updated",
		zap.String("tracking_id", trackingID),
		zap.String("old_status", string(oldStatus)),
		zap.String("new_status", string(newStatus)),
	)

	return &dto.UpdateStatusResponse{
		TrackingID: trackingID,
		Status:     string(newStatus),
		TimelineUpdate: dto.TimelineUpdate{
			Date:        entry.Date,
			Title:       "Status Updated to " + newStatus.Title(),
			Description: comment,
		},
		NotificationSent: notified,
	}, nil
}

// GetTimeline returns the stored timeline in insertion order.
func (s *GrievanceService) GetTimeline(ctx context.Context, trackingID, department string) ([]models.TimelineEntry, error) {
	partition, ok := s.registry.PartitionKey(department)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrInvalidDepartment, fmt.Sprintf("invalid department %q", department))
	}
	g, err := s.store.Get(ctx, partition, strings.ToUpper(strings.TrimSpace(trackingID)))
	if err != nil {
		return nil, appErrors.Storage(err, "failed to load grievance")
	}
	if g == nil {
		return nil, appErrors.Clone(appErrors.ErrGrievanceNotFound, "Grievance not found with the provided tracking ID")
	}
	if g.Timeline == nil {
		return []models.TimelineEntry{}, nil
	}
	return g.Timeline, nil
}

// Track looks a grievance up for its petitioner. A wrong phone yields
// ErrPhoneMismatch, an unknown ID ErrGrievanceNotFound.
func (s *GrievanceService) Track(ctx context.Context, trackingID, phone string) (*dto.TrackedGrievance, error) {
	trackingID = strings.ToUpper(strings.TrimSpace(trackingID))
	phone = strings.TrimSpace(phone)
	if trackingID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Please enter a tracking ID.")
	}
	if phone == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Please enter the phone number used to file the grievance.")
	}

	g, err := s.store.Find(ctx, trackingID)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to look up grievance")
	}
	if g == nil {
		// other tracking IDs filed under this phone are not listed
		return nil, appErrors.ErrGrievanceNotFound
	}
	if strings.TrimSpace(g.Phone) != phone {
		return nil, appErrors.ErrPhoneMismatch
	}
	return s.trackedView(g), nil
}

func (s *GrievanceService) trackedView(g *models.Grievance) *dto.TrackedGrievance {
	created := g.CreatedAt.Format(models.TimelineDateLayout)
	updates := []dto.TrackUpdate{
		{Date: created, Title: "Grievance Received", Description: "Your grievance has been received and registered in the system."},
		{Date: created, Title: "Assigned to Department", Description: "Your grievance has been assigned to " + g.Department + "."},
	}
	changed := g.LastUpdated.Format(models.TimelineDateLayout)
	switch g.Status {
	case models.StatusInProgress:
		updates = append(updates, dto.TrackUpdate{Date: changed, Title: "Under Review", Description: "Your grievance is currently being reviewed by the department."})
	case models.StatusResolved:
		updates = append(updates, dto.TrackUpdate{Date: changed, Title: "Resolved", Description: "Your grievance has been resolved."})
	case models.StatusRejected:
		updates = append(updates, dto.TrackUpdate{Date: changed, Title: "Rejected", Description: "Your grievance has been reviewed and rejected."})
	}

	return &dto.TrackedGrievance{
		TrackingID:   g.TrackingID,
		Department:   g.Department,
		Status:       string(g.Status),
		Priority:     string(g.Priority),
		PetitionType: g.PetitionType,
		Subject:      g.Subject,
		Description:  g.Description,
		SubmittedAt:  g.CreatedAt,
		LastUpdated:  g.LastUpdated,
		Updates:      updates,
	}
}

// List returns a department's grievances newest first, optionally by priority.
func (s *GrievanceService) List(ctx context.Context, department, priority string) ([]models.Grievance, error) {
	partition, ok := s.registry.PartitionKey(department)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrInvalidDepartment, fmt.Sprintf("invalid department %q", department))
	}
	filter := models.GrievanceFilter{}
	if strings.TrimSpace(priority) != "" {
		p, ok := models.ParsePriority(priority)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid priority %q", priority))
		}
		filter.Priority = p
	}
	items, err := s.store.List(ctx, partition, filter)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to list grievances")
	}
	if items == nil {
		items = []models.Grievance{}
	}
	return items, nil
}

// Departments lists the registry in order.
func (s *GrievanceService) Departments() []models.Department {
	return s.registry.All()
}
