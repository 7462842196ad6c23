package dto

import "time"

// ReminderScanResponse reports how many reminders a scan wrote.
type ReminderScanResponse struct {
	RemindersSent int       `json:"reminders_sent"`
	ScannedAt     time.Time `json:"scanned_at"`
}

// ReminderCandidate is a grievance eligible for an officer reminder.
type ReminderCandidate struct {
	TrackingID     string     `json:"tracking_id"`
	Department     string     `json:"department"`
	Subject        string     `json:"subject"`
	Status         string     `json:"status"`
	Priority       string     `json:"priority"`
	DaysPending    int        `json:"days_pending"`
	LastRemindedAt *time.Time `json:"last_reminded_at,omitempty"`
}

// SendReminderResponse reports a manual reminder.
type SendReminderResponse struct {
	TrackingID  string `json:"tracking_id"`
	Sent        bool   `json:"sent"`
	DaysPending int    `json:"days_pending"`
	Message     string `json:"message"`
}
