package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/grievance-api/internal/models"
	appErrors "github.com/noah-isme/grievance-api/pkg/errors"
)

const uniqueViolation = "23505"

const grievanceColumns = `tracking_id, partition_key, department, status, priority, petition_type, name, phone, address,
subject, description, related_to, similarity_detected, last_reminded_at, created_at, last_updated`

// GrievanceRepository stores grievances in a single table keyed by partition.
type GrievanceRepository struct {
	db *sqlx.DB
}

// NewGrievanceRepository constructs a GrievanceRepository.
func NewGrievanceRepository(db *sqlx.DB) *GrievanceRepository {
	return &GrievanceRepository{db: db}
}

// Insert writes the grievance and its initial timeline in one transaction.
func (r *GrievanceRepository) Insert(ctx context.Context, g *models.Grievance) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin grievance transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO grievances (` + grievanceColumns + `)
VALUES (:tracking_id, :partition_key, :department, :status, :priority, :petition_type, :name, :phone, :address,
:subject, :description, :related_to, :similarity_detected, :last_reminded_at, :created_at, :last_updated)`
	if _, err = tx.NamedExecContext(ctx, query, g); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return fmt.Errorf("insert grievance %s: %w", g.TrackingID, appErrors.ErrDuplicateTrackingID)
		}
		return fmt.Errorf("insert grievance: %w", err)
	}
	for _, entry := range g.Timeline {
		if err = insertTimeline(ctx, tx, g.TrackingID, entry); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit grievance: %w", err)
	}
	return nil
}

func insertTimeline(ctx context.Context, tx *sqlx.Tx, trackingID string, entry models.TimelineEntry) error {
	const query = `INSERT INTO grievance_timeline (tracking_id, occurred_at, date_label, time_label, status, comment, update_type)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := tx.ExecContext(ctx, query, trackingID, entry.Timestamp, entry.Date, entry.Time, entry.Status, entry.Comment, entry.UpdateType); err != nil {
		return fmt.Errorf("insert timeline entry: %w", err)
	}
	return nil
}

// Get loads a grievance from one partition.
func (r *GrievanceRepository) Get(ctx context.Context, partition, trackingID string) (*models.Grievance, error) {
	query := `SELECT ` + grievanceColumns + ` FROM grievances WHERE partition_key = $1 AND tracking_id = $2`
	return r.getOne(ctx, query, partition, trackingID)
}

// Find loads a grievance from whichever partition holds it.
func (r *GrievanceRepository) Find(ctx context.Context, trackingID string) (*models.Grievance, error) {
	query := `SELECT ` + grievanceColumns + ` FROM grievances WHERE tracking_id = $1`
	return r.getOne(ctx, query, trackingID)
}

func (r *GrievanceRepository) getOne(ctx context.Context, query string, args ...interface{}) (*models.Grievance, error) {
	var g models.Grievance
	if err := r.db.GetContext(ctx, &g, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get grievance: %w", err)
	}
	timeline, err := r.timeline(ctx, g.TrackingID)
	if err != nil {
		return nil, err
	}
	g.Timeline = timeline
	return &g, nil
}

func (r *GrievanceRepository) timeline(ctx context.Context, trackingID string) ([]models.TimelineEntry, error) {
	const query = `SELECT occurred_at, date_label, time_label, status, comment, update_type
FROM grievance_timeline WHERE tracking_id = $1 ORDER BY id`
	var entries []models.TimelineEntry
	if err := r.db.SelectContext(ctx, &entries, query, trackingID); err != nil {
		return nil, fmt.Errorf("list timeline: %w", err)
	}
	return entries, nil
}

// Exists reports whether any partition holds trackingID.
func (r *GrievanceRepository) Exists(ctx context.Context, trackingID string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM grievances WHERE tracking_id = $1)`, trackingID); err != nil {
		return false, fmt.Errorf("check tracking id: %w", err)
	}
	return exists, nil
}

// List returns the partition's grievances newest first, with timelines attached.
func (r *GrievanceRepository) List(ctx context.Context, partition string, filter models.GrievanceFilter) ([]models.Grievance, error) {
	args := []interface{}{partition}
	conditions := []string{"partition_key = $1"}

	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", len(args)+1))
		args = append(args, pq.Array(statuses))
	}
	if filter.Priority != "" {
		conditions = append(conditions, fmt.Sprintf("priority = $%d", len(args)+1))
		args = append(args, filter.Priority)
	}
	if filter.RemindedBefore != nil {
		conditions = append(conditions, fmt.Sprintf("(last_reminded_at IS NULL OR last_reminded_at < $%d)", len(args)+1))
		args = append(args, *filter.RemindedBefore)
	}

	query := fmt.Sprintf(`SELECT %s FROM grievances WHERE %s ORDER BY created_at DESC`, grievanceColumns, strings.Join(conditions, " AND "))
	var grievances []models.Grievance
	if err := r.db.SelectContext(ctx, &grievances, query, args...); err != nil {
		return nil, fmt.Errorf("list grievances: %w", err)
	}
	if len(grievances) == 0 {
		return grievances, nil
	}

	ids := make([]string, len(grievances))
	index := make(map[string]int, len(grievances))
	for i, g := range grievances {
		ids[i] = g.TrackingID
		index[g.TrackingID] = i
	}
	var rows []struct {
		TrackingID string `db:"tracking_id"`
		models.TimelineEntry
	}
	const timelineQuery = `SELECT tracking_id, occurred_at, date_label, time_label, status, comment, update_type
FROM grievance_timeline WHERE tracking_id = ANY($1) ORDER BY id`
	if err := r.db.SelectContext(ctx, &rows, timelineQuery, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list timelines: %w", err)
	}
	for _, row := range rows {
		i := index[row.TrackingID]
		grievances[i].Timeline = append(grievances[i].Timeline, row.TimelineEntry)
	}
	return grievances, nil
}

// AppendStatus updates the status and appends entry atomically.
func (r *GrievanceRepository) AppendStatus(ctx context.Context, partition, trackingID string, status models.GrievanceStatus, entry models.TimelineEntry) (ok bool, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin status transaction: %w", err)
	}
	defer func() {
		if err != nil || !ok {
			_ = tx.Rollback()
		}
	}()

	const query = `UPDATE grievances SET status = $1, last_updated = $2 WHERE partition_key = $3 AND tracking_id = $4`
	res, err := tx.ExecContext(ctx, query, status, entry.Timestamp, partition, trackingID)
	if err != nil {
		return false, fmt.Errorf("update grievance status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("status rows affected: %w", err)
	}
	if affected == 0 {
		return false, nil
	}
	if err = insertTimeline(ctx, tx, trackingID, entry); err != nil {
		return false, err
	}
	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("commit status update: %w", err)
	}
	return true, nil
}

// MarkReminded stamps the last reminder time.
func (r *GrievanceRepository) MarkReminded(ctx context.Context, partition, trackingID string, at time.Time) error {
	const query = `UPDATE grievances SET last_reminded_at = $1 WHERE partition_key = $2 AND tracking_id = $3`
	if _, err := r.db.ExecContext(ctx, query, at, partition, trackingID); err != nil {
		return fmt.Errorf("mark reminded: %w", err)
	}
	return nil
}
