package service

import (
	"strings"

	"github.com/noah-isme/grievance-api/internal/models"
)

var highPriorityKeywords = []string{
	"urgent", "emergency", "critical", "immediate", "life threatening",
	"danger", "death", "accident", "fire", "flood", "earthquake",
	"medical emergency", "hospital", "ambulance", "police", "violence",
	"harassment", "threat", "safety",
}

// DetectPriority returns High when text mentions an urgency keyword, Medium otherwise.
func DetectPriority(text string) models.Priority {
	if containsAny(strings.ToLower(text), highPriorityKeywords) {
		return models.PriorityHigh
	}
	return models.PriorityMedium
}
