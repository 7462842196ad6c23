// Package memstore keeps every store in process memory. It backs local runs
// and tests when no database is configured.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/noah-isme/grievance-api/internal/models"
	"github.com/noah-isme/grievance-api/internal/repository"
	appErrors "github.com/noah-isme/grievance-api/pkg/errors"
)

// Store implements the grievance, reminder and notification stores.
type Store struct {
	mu            sync.RWMutex
	partitions    map[string]map[string]*models.Grievance
	owners        map[string]string
	reminders     []models.Reminder
	notifications []models.NotificationLog
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		partitions: make(map[string]map[string]*models.Grievance),
		owners:     make(map[string]string),
	}
}

// Stores exposes s through the repository bundle.
func (s *Store) Stores() repository.Stores {
	return repository.Stores{
		Grievances:    s,
		Reminders:     reminderView{s},
		Notifications: notificationView{s},
		Close:         func(context.Context) error { return nil },
	}
}

func clone(g *models.Grievance) *models.Grievance {
	out := *g
	out.RelatedTo = append(models.StringList(nil), g.RelatedTo...)
	out.Timeline = append([]models.TimelineEntry(nil), g.Timeline...)
	if g.LastRemindedAt != nil {
		at := *g.LastRemindedAt
		out.LastRemindedAt = &at
	}
	return &out
}

// Insert stores g, rejecting tracking IDs used in any partition.
func (s *Store) Insert(_ context.Context, g *models.Grievance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.owners[g.TrackingID]; taken {
		return fmt.Errorf("insert grievance %s: %w", g.TrackingID, appErrors.ErrDuplicateTrackingID)
	}
	part, ok := s.partitions[g.PartitionKey]
	if !ok {
		part = make(map[string]*models.Grievance)
		s.partitions[g.PartitionKey] = part
	}
	part[g.TrackingID] = clone(g)
	s.owners[g.TrackingID] = g.PartitionKey
	return nil
}

// Get returns a copy of the grievance in partition.
func (s *Store) Get(_ context.Context, partition, trackingID string) (*models.Grievance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.partitions[partition][trackingID]
	if !ok {
		return nil, nil
	}
	return clone(g), nil
}

// Find returns a copy of the grievance wherever it is stored.
func (s *Store) Find(ctx context.Context, trackingID string) (*models.Grievance, error) {
	s.mu.RLock()
	partition, ok := s.owners[trackingID]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return s.Get(ctx, partition, trackingID)
}

// Exists reports whether trackingID is in use.
func (s *Store) Exists(_ context.Context, trackingID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.owners[trackingID]
	return ok, nil
}

// List returns matching grievances newest first.
func (s *Store) List(_ context.Context, partition string, filter models.GrievanceFilter) ([]models.Grievance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Grievance, 0, len(s.partitions[partition]))
	for _, g := range s.partitions[partition] {
		if filter.Matches(g) {
			out = append(out, *clone(g))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].TrackingID > out[j].TrackingID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// AppendStatus sets status and appends entry.
func (s *Store) AppendStatus(_ context.Context, partition, trackingID string, status models.GrievanceStatus, entry models.TimelineEntry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.partitions[partition][trackingID]
	if !ok {
		return false, nil
	}
	g.Status = status
	g.Timeline = append(g.Timeline, entry)
	g.LastUpdated = entry.Timestamp
	return true, nil
}

// MarkReminded stamps the last reminder time.
func (s *Store) MarkReminded(_ context.Context, partition, trackingID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.partitions[partition][trackingID]; ok {
		g.LastRemindedAt = &at
	}
	return nil
}

type reminderView struct{ s *Store }

func (v reminderView) Insert(_ context.Context, r *models.Reminder) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	v.s.reminders = append(v.s.reminders, *r)
	return nil
}

func (v reminderView) List(_ context.Context, limit int) ([]models.Reminder, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	out := append([]models.Reminder(nil), v.s.reminders...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].SentAt.After(out[j].SentAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (v reminderView) Stats(_ context.Context, since time.Time) (*models.ReminderStats, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	stats := &models.ReminderStats{Total: len(v.s.reminders)}
	counts := make(map[string]int)
	for _, r := range v.s.reminders {
		if !r.SentAt.Before(since) {
			stats.LastWeek++
		}
		counts[r.Department]++
	}
	for dept, n := range counts {
		stats.ByDepartment = append(stats.ByDepartment, models.DepartmentCount{Department: dept, Count: n})
	}
	sort.Slice(stats.ByDepartment, func(i, j int) bool {
		a, b := stats.ByDepartment[i], stats.ByDepartment[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Department < b.Department
	})
	return stats, nil
}

type notificationView struct{ s *Store }

func (v notificationView) Insert(_ context.Context, n *models.NotificationLog) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	v.s.notifications = append(v.s.notifications, *n)
	return nil
}

func (v notificationView) List(_ context.Context, limit int) ([]models.NotificationLog, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	out := append([]models.NotificationLog(nil), v.s.notifications...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].SentAt.After(out[j].SentAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
