package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/grievance-api/internal/models"
)

// NotificationRepository persists notification logs.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs a NotificationRepository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Insert records a sent notification.
func (r *NotificationRepository) Insert(ctx context.Context, n *models.NotificationLog) error {
	const query = `INSERT INTO notification_logs (id, grievance_id, recipient_name, recipient_phone, notification_type, old_status, new_status, sent_at, sms_content, email_content)
VALUES (:id, :grievance_id, :recipient_name, :recipient_phone, :notification_type, :old_status, :new_status, :sent_at, :sms_content, :email_content)`
	if _, err := r.db.NamedExecContext(ctx, query, n); err != nil {
		return fmt.Errorf("insert notification log: %w", err)
	}
	return nil
}

// List returns notification logs newest first.
func (r *NotificationRepository) List(ctx context.Context, limit int) ([]models.NotificationLog, error) {
	query := `SELECT id, grievance_id, recipient_name, recipient_phone, notification_type, old_status, new_status, sent_at, sms_content, email_content
FROM notification_logs ORDER BY sent_at DESC`
	if limit > 0 {
		query = fmt.Sprintf("%s LIMIT %d", query, limit)
	}
	var logs []models.NotificationLog
	if err := r.db.SelectContext(ctx, &logs, query); err != nil {
		return nil, fmt.Errorf("list notification logs: %w", err)
	}
	return logs, nil
}
