package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/grievance-api/internal/models"
)

// ReminderRepository persists the reminder log.
type ReminderRepository struct {
	db *sqlx.DB
}

// NewReminderRepository constructs a ReminderRepository.
func NewReminderRepository(db *sqlx.DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

// Insert records a reminder.
func (r *ReminderRepository) Insert(ctx context.Context, reminder *models.Reminder) error {
	const query = `INSERT INTO reminders (id, grievance_id, department, officer_id, sent_at, reason, petition_subject, days_pending)
VALUES (:id, :grievance_id, :department, :officer_id, :sent_at, :reason, :petition_subject, :days_pending)`
	if _, err := r.db.NamedExecContext(ctx, query, reminder); err != nil {
		return fmt.Errorf("insert reminder: %w", err)
	}
	return nil
}

// List returns reminders newest first.
func (r *ReminderRepository) List(ctx context.Context, limit int) ([]models.Reminder, error) {
	query := `SELECT id, grievance_id, department, officer_id, sent_at, reason, petition_subject, days_pending
FROM reminders ORDER BY sent_at DESC`
	if limit > 0 {
		query = fmt.Sprintf("%s LIMIT %d", query, limit)
	}
	var reminders []models.Reminder
	if err := r.db.SelectContext(ctx, &reminders, query); err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	return reminders, nil
}

// Stats counts all reminders, those sent since, and reminders per department.
func (r *ReminderRepository) Stats(ctx context.Context, since time.Time) (*models.ReminderStats, error) {
	stats := &models.ReminderStats{}
	if err := r.db.GetContext(ctx, &stats.Total, `SELECT COUNT(*) FROM reminders`); err != nil {
		return nil, fmt.Errorf("count reminders: %w", err)
	}
	if err := r.db.GetContext(ctx, &stats.LastWeek, `SELECT COUNT(*) FROM reminders WHERE sent_at >= $1`, since); err != nil {
		return nil, fmt.Errorf("count recent reminders: %w", err)
	}
	const grouped = `SELECT department, COUNT(*) AS count FROM reminders GROUP BY department ORDER BY count DESC, department`
	if err := r.db.SelectContext(ctx, &stats.ByDepartment, grouped); err != nil {
		return nil, fmt.Errorf("group reminders: %w", err)
	}
	return stats, nil
}
