package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/grievance-api/internal/dto"
	"github.com/noah-isme/grievance-api/internal/models"
	appErrors "github.com/noah-isme/grievance-api/pkg/errors"
	"github.com/noah-isme/grievance-api/pkg/export"
)

const (
	reminderReason       = "No status update in 3 days"
	defaultReminderAfter = 72 * time.Hour
	statsWindow          = 7 * 24 * time.Hour
)

type reminderGrievanceStore interface {
	Find(ctx context.Context, trackingID string) (*models.Grievance, error)
	List(ctx context.Context, partition string, filter models.GrievanceFilter) ([]models.Grievance, error)
	MarkReminded(ctx context.Context, partition, trackingID string, at time.Time) error
}

type reminderStore interface {
	Insert(ctx context.Context, r *models.Reminder) error
	List(ctx context.Context, limit int) ([]models.Reminder, error)
	Stats(ctx context.Context, since time.Time) (*models.ReminderStats, error)
}

// ReminderConfig sets how long a grievance may sit idle and how often an officer is nudged.
type ReminderConfig struct {
	StaleAfter time.Duration
	Cooldown   time.Duration
}

// ReminderService finds idle grievances and records officer reminders.
type ReminderService struct {
	grievances reminderGrievanceStore
	reminders  reminderStore
	registry   *models.DepartmentRegistry
	cfg        ReminderConfig
	metrics    *MetricsService
	logger     *zap.Logger
	now        func() time.Time
}

// NewReminderService constructs a ReminderService.
func NewReminderService(grievances reminderGrievanceStore, reminders reminderStore, registry *models.DepartmentRegistry, cfg ReminderConfig, metrics *MetricsService, logger *zap.Logger) *ReminderService {
	if registry == nil {
		registry = models.DefaultDepartmentRegistry()
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = defaultReminderAfter
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = defaultReminderAfter
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReminderService{
		grievances: grievances,
		reminders:  reminders,
		registry:   registry,
		cfg:        cfg,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// wholeDays counts complete days between from and to, flooring like calendar arithmetic.
func wholeDays(from, to time.Time) int {
	return int(math.Floor(to.Sub(from).Hours() / 24))
}

// ReminderEligible reports whether g is active, idle for at least stale and
// not reminded within cooldown. Both spans are compared in whole days.
func ReminderEligible(g *models.Grievance, now time.Time, stale, cooldown time.Duration) bool {
	if g == nil || !g.Status.Active() {
		return false
	}
	if wholeDays(g.LastActivity(), now) < int(stale/(24*time.Hour)) {
		return false
	}
	if g.LastRemindedAt != nil && wholeDays(*g.LastRemindedAt, now) < int(cooldown/(24*time.Hour)) {
		return false
	}
	return true
}

func (s *ReminderService) candidateFilter(now time.Time) models.GrievanceFilter {
	cutoff := now.Add(-s.cfg.Cooldown)
	return models.GrievanceFilter{
		Statuses:       []models.GrievanceStatus{models.StatusPending, models.StatusInProgress},
		RemindedBefore: &cutoff,
	}
}

// RunScan walks every department partition and reminds officers about idle
// grievances. A failing partition is logged and skipped; its error is returned
// alongside the count of reminders written.
func (s *ReminderService) RunScan(ctx context.Context) (int, error) {
	now := s.now()
	filter := s.candidateFilter(now)
	total := 0
	var errs []error

	for _, dept := range s.registry.All() {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		items, err := s.grievances.List(ctx, dept.PartitionKey, filter)
		if err != nil {
			s.logger.Error("reminder scan failed for department", zap.String("department", dept.Name), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", dept.PartitionKey, err))
			continue
		}
		sent := 0
		for i := range items {
			g := &items[i]
			if !ReminderEligible(g, now, s.cfg.StaleAfter, s.cfg.Cooldown) {
				continue
			}
			if _, err := s.remind(ctx, g, dept, now); err != nil {
				s.logger.Error("reminder not recorded", zap.String("tracking_id", g.TrackingID), zap.Error(err))
				continue
			}
			sent++
		}
		if sent > 0 {
			s.logger.Info("reminders sent", zap.String("department", dept.Name), zap.Int("count", sent))
		}
		total += sent
	}

	s.metrics.RecordReminders(total)
	s.logger.Info("reminder scan completed", zap.Int("reminders_sent", total))
	if len(errs) > 0 {
		return total, appErrors.Storage(errors.Join(errs...), "reminder scan incomplete")
	}
	return total, nil
}

func (s *ReminderService) remind(ctx context.Context, g *models.Grievance, dept models.Department, now time.Time) (*models.Reminder, error) {
	reminder := &models.Reminder{
		ID:              uuid.NewString(),
		GrievanceID:     g.TrackingID,
		Department:      dept.Name,
		OfficerID:       models.OfficerIDFor(dept.Name),
		SentAt:          now,
		Reason:          reminderReason,
		PetitionSubject: orNA(g.Subject),
		DaysPending:     wholeDays(g.LastActivity(), now),
	}
	if err := s.reminders.Insert(ctx, reminder); err != nil {
		return nil, fmt.Errorf("insert reminder: %w", err)
	}
	if err := s.grievances.MarkReminded(ctx, dept.PartitionKey, g.TrackingID, now); err != nil {
		return nil, fmt.Errorf("mark reminded: %w", err)
	}
	s.logger.Info("reminder sent to officer", zap.String("officer_id", reminder.OfficerID), zap.String("tracking_id", g.TrackingID))
	return reminder, nil
}

// SendReminder reminds the officer about one active grievance now. The idle
// and cooldown windows gate only the scan; a manual reminder ignores them.
func (s *ReminderService) SendReminder(ctx context.Context, trackingID string) (*dto.SendReminderResponse, error) {
	trackingID = strings.ToUpper(strings.TrimSpace(trackingID))
	if trackingID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "tracking id is required")
	}
	g, err := s.grievances.Find(ctx, trackingID)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to look up grievance")
	}
	if g == nil {
		return nil, appErrors.Clone(appErrors.ErrGrievanceNotFound, "Grievance not found")
	}
	partition, ok := s.registry.PartitionKey(g.Department)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrInvalidDepartment, fmt.Sprintf("grievance %s has unknown department %q", trackingID, g.Department))
	}

	now := s.now()
	resp := &dto.SendReminderResponse{TrackingID: trackingID, DaysPending: wholeDays(g.LastActivity(), now)}
	if !g.Status.Active() {
		resp.Message = "Grievance is already " + string(g.Status)
		return resp, nil
	}
	dept := models.Department{Name: g.Department, PartitionKey: partition}
	if _, err := s.remind(ctx, g, dept, now); err != nil {
		return nil, appErrors.Storage(err, "failed to send reminder")
	}
	s.metrics.RecordReminders(1)
	resp.Sent = true
	resp.Message = "Individual reminder sent successfully"
	return resp, nil
}

// Candidates lists a department's grievances that the next scan would remind about.
func (s *ReminderService) Candidates(ctx context.Context, department string) ([]dto.ReminderCandidate, error) {
	name, ok := s.registry.Canonical(department)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrInvalidDepartment, fmt.Sprintf("invalid department %q", department))
	}
	partition, _ := s.registry.PartitionKey(name)
	now := s.now()
	items, err := s.grievances.List(ctx, partition, s.candidateFilter(now))
	if err != nil {
		return nil, appErrors.Storage(err, "failed to load reminder candidates")
	}
	out := make([]dto.ReminderCandidate, 0, len(items))
	for i := range items {
		g := &items[i]
		if !ReminderEligible(g, now, s.cfg.StaleAfter, s.cfg.Cooldown) {
			continue
		}
		out = append(out, dto.ReminderCandidate{
			TrackingID:     g.TrackingID,
			Department:     name,
			Subject:        orNA(g.Subject),
			Status:         string(g.Status),
			Priority:       string(g.Priority),
			DaysPending:    wholeDays(g.LastActivity(), now),
			LastRemindedAt: g.LastRemindedAt,
		})
	}
	return out, nil
}

// History returns the newest reminders; limit <= 0 uses 50.
func (s *ReminderService) History(ctx context.Context, limit int) ([]models.Reminder, error) {
	if limit <= 0 {
		limit = defaultLogLimit
	}
	items, err := s.reminders.List(ctx, limit)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to load reminders")
	}
	if items == nil {
		items = []models.Reminder{}
	}
	return items, nil
}

// Stats summarises reminder volume overall, for the last week and per department.
func (s *ReminderService) Stats(ctx context.Context) (*models.ReminderStats, error) {
	stats, err := s.reminders.Stats(ctx, s.now().Add(-statsWindow))
	if err != nil {
		return nil, appErrors.Storage(err, "failed to load reminder statistics")
	}
	if stats.ByDepartment == nil {
		stats.ByDepartment = []models.DepartmentCount{}
	}
	return stats, nil
}

var reminderExportHeaders = []string{"Grievance ID", "Department", "Officer", "Sent At", "Days Pending", "Subject", "Reason"}

// Export renders the full reminder log as CSV or PDF.
func (s *ReminderService) Export(ctx context.Context, format export.Format) ([]byte, string, error) {
	items, err := s.reminders.List(ctx, 0)
	if err != nil {
		return nil, "", appErrors.Storage(err, "failed to load reminders")
	}
	data := export.Dataset{
		Title:   "Officer Reminders",
		Headers: reminderExportHeaders,
		Rows:    make([]map[string]string, 0, len(items)),
	}
	for _, r := range items {
		data.Rows = append(data.Rows, map[string]string{
			"Grievance ID": r.GrievanceID,
			"Department":   r.Department,
			"Officer":      r.OfficerID,
			"Sent At":      r.SentAt.Format(models.TimelineDateLayout + " " + models.TimelineTimeLayout),
			"Days Pending": strconv.Itoa(r.DaysPending),
			"Subject":      r.PetitionSubject,
			"Reason":       r.Reason,
		})
	}
	payload, err := export.Render(data, format)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render reminder export")
	}
	filename := fmt.Sprintf("reminders_%s.%s", s.now().Format("20060102_150405"), format)
	return payload, filename, nil
}
