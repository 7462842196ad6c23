package dto

import "time"

// ClassifyRequest asks the resolver to route petition text.
type ClassifyRequest struct {
	Text string `json:"text" validate:"required,max=10000"`
}

// ClassifyResponse carries the resolved department.
type ClassifyResponse struct {
	Department string `json:"department"`
}

// SubmitGrievanceRequest is a citizen petition addressed to a department.
type SubmitGrievanceRequest struct {
	Name         string `json:"name" validate:"required,max=200"`
	Phone        string `json:"phone" validate:"required,max=20"`
	Address      string `json:"address" validate:"required,max=500"`
	PetitionType string `json:"petition_type" validate:"required,max=100"`
	Subject      string `json:"subject" validate:"required,max=300"`
	Description  string `json:"description" validate:"required,max=10000"`
	Department   string `json:"department" validate:"required"`
}

// SimilarGrievance is a prior grievance scored against a new petition.
type SimilarGrievance struct {
	TrackingID  string  `json:"tracking_id"`
	Score       float64 `json:"similarity_score"`
	Subject     string  `json:"subject"`
	Description string  `json:"description"`
}

// SubmitGrievanceResponse acknowledges a stored grievance.
type SubmitGrievanceResponse struct {
	TrackingID             string             `json:"tracking_id"`
	Department             string             `json:"department"`
	Priority               string             `json:"priority"`
	SimilarityDetected     bool               `json:"similarity_detected"`
	SimilarGrievancesCount int                `json:"similar_grievances_count"`
	SimilarGrievances      []SimilarGrievance `json:"similar_grievances"`
	SimilarityMessage      string             `json:"similarity_message,omitempty"`
}

// SimilarityRequest checks a draft petition for duplicates.
type SimilarityRequest struct {
	Text       string  `json:"text" validate:"required"`
	Department string  `json:"department" validate:"required"`
	Threshold  float64 `json:"threshold" validate:"omitempty,gt=0,lte=1"`
}

// UpdateStatusRequest moves a grievance to a new status.
type UpdateStatusRequest struct {
	Status  string `json:"status" validate:"required"`
	Comment string `json:"comment" validate:"max=2000"`
}

// TimelineUpdate is the timeline delta returned after a status change.
type TimelineUpdate struct {
	Date        string `json:"date"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// UpdateStatusResponse reports a status transition.
type UpdateStatusResponse struct {
	TrackingID       string         `json:"tracking_id"`
	Status           string         `json:"status"`
	TimelineUpdate   TimelineUpdate `json:"timeline_update"`
	NotificationSent bool           `json:"notification_sent"`
}

// TrackRequest identifies a grievance by tracking ID and filer phone.
type TrackRequest struct {
	TrackingID string `json:"tracking_id"`
	Phone      string `json:"phone"`
}

// TrackUpdate is one milestone shown to the petitioner.
type TrackUpdate struct {
	Date        string `json:"date"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// TrackedGrievance is the petitioner's view of a grievance.
type TrackedGrievance struct {
	TrackingID   string        `json:"tracking_id"`
	Department   string        `json:"department"`
	Status       string        `json:"status"`
	Priority     string        `json:"priority"`
	PetitionType string        `json:"petition_type"`
	Subject      string        `json:"subject"`
	Description  string        `json:"description"`
	SubmittedAt  time.Time     `json:"submitted_at"`
	LastUpdated  time.Time     `json:"last_updated"`
	Updates      []TrackUpdate `json:"updates"`
}

// TrackResponse wraps a lookup result; Found is false with a Message on failure.
type TrackResponse struct {
	Found     bool              `json:"found"`
	Message   string            `json:"message,omitempty"`
	Grievance *TrackedGrievance `json:"grievance,omitempty"`
}
