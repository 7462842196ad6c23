package models

import (
	"strings"
	"time"
)

// Reminder records that an officer was nudged about a stale grievance.
type Reminder struct {
	ID              string    `db:"id" json:"id" bson:"_id"`
	GrievanceID     string    `db:"grievance_id" json:"grievance_id" bson:"grievance_id"`
	Department      string    `db:"department" json:"department" bson:"department"`
	OfficerID       string    `db:"officer_id" json:"officer_id" bson:"officer_id"`
	SentAt          time.Time `db:"sent_at" json:"sent_at" bson:"sent_at"`
	Reason          string    `db:"reason" json:"reason" bson:"reason"`
	PetitionSubject string    `db:"petition_subject" json:"petition_subject" bson:"petition_subject"`
	DaysPending     int       `db:"days_pending" json:"days_pending" bson:"days_pending"`
}

// OfficerIDFor derives the notional officer responsible for a department.
func OfficerIDFor(department string) string {
	return "officer_" + strings.ReplaceAll(strings.ToLower(department), " ", "_")
}

// DepartmentCount is a grouped reminder tally.
type DepartmentCount struct {
	Department string `db:"department" json:"department" bson:"_id"`
	Count      int    `db:"count" json:"count" bson:"count"`
}

// ReminderStats summarises reminder activity.
type ReminderStats struct {
	Total        int               `json:"total_reminders"`
	LastWeek     int               `json:"recent_reminders_7_days"`
	ByDepartment []DepartmentCount `json:"reminders_by_department"`
}
