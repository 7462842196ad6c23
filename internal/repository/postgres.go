package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// NewPostgresStores wires the sqlx repositories over one connection pool.
func NewPostgresStores(db *sqlx.DB) Stores {
	return Stores{
		Grievances:    NewGrievanceRepository(db),
		Reminders:     NewReminderRepository(db),
		Notifications: NewNotificationRepository(db),
		Close: func(context.Context) error {
			return db.Close()
		},
	}
}
