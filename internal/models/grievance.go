package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// GrievanceStatus is the lifecycle state of a grievance.
type GrievanceStatus string

const (
	StatusPending    GrievanceStatus = "pending"
	StatusInProgress GrievanceStatus = "in_progress"
	StatusResolved   GrievanceStatus = "resolved"
	StatusRejected   GrievanceStatus = "rejected"
)

// ParseStatus accepts one of the four lifecycle states, case-insensitively.
func ParseStatus(raw string) (GrievanceStatus, bool) {
	s := GrievanceStatus(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case StatusPending, StatusInProgress, StatusResolved, StatusRejected:
		return s, true
	}
	return "", false
}

// Active reports whether the grievance still awaits an outcome.
func (s GrievanceStatus) Active() bool {
	return s == StatusPending || s == StatusInProgress
}

// Title renders the status for humans, e.g. "In Progress".
func (s GrievanceStatus) Title() string {
	parts := strings.Split(string(s), "_")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}

// Priority is the urgency tier assigned at submission.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// ParsePriority matches a priority name case-insensitively.
func ParsePriority(raw string) (Priority, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "high":
		return PriorityHigh, true
	case "medium":
		return PriorityMedium, true
	case "low":
		return PriorityLow, true
	}
	return "", false
}

// UpdateType labels a timeline entry.
type UpdateType string

const (
	UpdateSubmission   UpdateType = "submission"
	UpdateStatusChange UpdateType = "status_update"
	UpdateReminder     UpdateType = "reminder"
)

// Timeline date and time layouts.
const (
	TimelineDateLayout = "02-Jan-2006"
	TimelineTimeLayout = "15:04:05"
)

// TimelineEntry is one append-only history record of a grievance.
type TimelineEntry struct {
	Timestamp  time.Time       `db:"occurred_at" json:"timestamp" bson:"timestamp"`
	Date       string          `db:"date_label" json:"date" bson:"date"`
	Time       string          `db:"time_label" json:"time" bson:"time"`
	Status     GrievanceStatus `db:"status" json:"status" bson:"status"`
	Comment    string          `db:"comment" json:"comment" bson:"comment"`
	UpdateType UpdateType      `db:"update_type" json:"update_type" bson:"update_type"`
}

// NewTimelineEntry stamps an entry with the date and time labels of at.
func NewTimelineEntry(at time.Time, status GrievanceStatus, comment string, kind UpdateType) TimelineEntry {
	return TimelineEntry{
		Timestamp:  at,
		Date:       at.Format(TimelineDateLayout),
		Time:       at.Format(TimelineTimeLayout),
		Status:     status,
		Comment:    comment,
		UpdateType: kind,
	}
}

// Grievance is a citizen petition routed to one department.
type Grievance struct {
	TrackingID         string          `db:"tracking_id" json:"tracking_id" bson:"tracking_id"`
	PartitionKey       string          `db:"partition_key" json:"-" bson:"-"`
	Department         string          `db:"department" json:"department" bson:"department"`
	Status             GrievanceStatus `db:"status" json:"status" bson:"status"`
	Priority           Priority        `db:"priority" json:"priority" bson:"priority"`
	PetitionType       string          `db:"petition_type" json:"petition_type" bson:"petition_type"`
	Name               string          `db:"name" json:"name" bson:"name"`
	Phone              string          `db:"phone" json:"phone" bson:"phone"`
	Address            string          `db:"address" json:"address" bson:"address"`
	Subject            string          `db:"subject" json:"subject" bson:"subject"`
	Description        string          `db:"description" json:"description" bson:"description"`
	RelatedTo          StringList      `db:"related_to" json:"related_to" bson:"related_to"`
	SimilarityDetected bool            `db:"similarity_detected" json:"similarity_detected" bson:"similarity_detected"`
	Timeline           []TimelineEntry `db:"-" json:"timeline" bson:"timeline"`
	LastRemindedAt     *time.Time      `db:"last_reminded_at" json:"last_reminded_at,omitempty" bson:"last_reminded_at,omitempty"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at" bson:"created_at"`
	LastUpdated        time.Time       `db:"last_updated" json:"last_updated" bson:"last_updated"`
}

// LastActivity returns the timestamp of the newest timeline entry, or CreatedAt.
func (g *Grievance) LastActivity() time.Time {
	latest := time.Time{}
	for _, e := range g.Timeline {
		if e.Timestamp.After(latest) {
			latest = e.Timestamp
		}
	}
	if latest.IsZero() {
		return g.CreatedAt
	}
	return latest
}

// GrievanceFilter narrows partition queries.
type GrievanceFilter struct {
	Statuses []GrievanceStatus
	Priority Priority
	// RemindedBefore keeps grievances never reminded or last reminded before it.
	RemindedBefore *time.Time
}

// Matches applies the filter to an in-memory grievance.
func (f GrievanceFilter) Matches(g *Grievance) bool {
	if len(f.Statuses) > 0 {
		ok := false
		for _, s := range f.Statuses {
			if g.Status == s {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if f.Priority != "" && g.Priority != f.Priority {
		return false
	}
	if f.RemindedBefore != nil && g.LastRemindedAt != nil && !g.LastRemindedAt.Before(*f.RemindedBefore) {
		return false
	}
	return true
}

// StringList persists as a JSON array.
type StringList []string

// Value marshals the list to JSON, storing nil as an empty array.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	data, err := json.Marshal([]string(l))
	if err != nil {
		return nil, fmt.Errorf("marshal string list: %w", err)
	}
	return data, nil
}

// Scan unmarshals a JSON array.
func (l *StringList) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*l = StringList{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for StringList", value)
	}
	if len(data) == 0 {
		*l = StringList{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("unmarshal string list: %w", err)
	}
	*l = out
	return nil
}
