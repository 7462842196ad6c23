package repository

import (
	"context"
	"time"

	"github.com/noah-isme/grievance-api/internal/models"
)

// GrievanceStore persists grievances per department partition. Lookups return
// nil, nil when no record matches.
type GrievanceStore interface {
	// Insert returns ErrDuplicateTrackingID when the tracking ID is taken in any partition.
	Insert(ctx context.Context, g *models.Grievance) error
	Get(ctx context.Context, partition, trackingID string) (*models.Grievance, error)
	// Find locates a grievance in any partition.
	Find(ctx context.Context, trackingID string) (*models.Grievance, error)
	Exists(ctx context.Context, trackingID string) (bool, error)
	// List returns the partition's grievances newest first.
	List(ctx context.Context, partition string, filter models.GrievanceFilter) ([]models.Grievance, error)
	// AppendStatus sets the status and appends entry; false when nothing matched.
	AppendStatus(ctx context.Context, partition, trackingID string, status models.GrievanceStatus, entry models.TimelineEntry) (bool, error)
	MarkReminded(ctx context.Context, partition, trackingID string, at time.Time) error
}

// ReminderStore keeps the write-once reminder log.
type ReminderStore interface {
	Insert(ctx context.Context, r *models.Reminder) error
	// List returns the newest reminders first; limit <= 0 returns all.
	List(ctx context.Context, limit int) ([]models.Reminder, error)
	Stats(ctx context.Context, since time.Time) (*models.ReminderStats, error)
}

// NotificationStore keeps the write-once notification log.
type NotificationStore interface {
	Insert(ctx context.Context, n *models.NotificationLog) error
	List(ctx context.Context, limit int) ([]models.NotificationLog, error)
}

// Stores bundles one backend's stores.
type Stores struct {
	Grievances    GrievanceStore
	Reminders     ReminderStore
	Notifications NotificationStore
	Close         func(ctx context.Context) error
}
