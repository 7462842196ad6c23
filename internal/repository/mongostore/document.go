package mongostore

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"

	"github.com/noah-isme/grievance-api/internal/models"
)

// Layouts seen in petitions written before dates were stored as BSON dates.
var legacyTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"02-Jan-2006 15:04:05",
	"02-Jan-2006",
	"2006-01-02",
	"02/01/2006",
}

// legacyTime reads a BSON date or one of the legacy string layouts.
func legacyTime(v bson.RawValue) (time.Time, bool) {
	switch v.Type {
	case bsontype.DateTime:
		return v.Time().UTC(), true
	case bsontype.String:
		raw := strings.TrimSpace(v.StringValue())
		for _, layout := range legacyTimeLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t.UTC(), true
			}
		}
	}
	return time.Time{}, false
}

type timelineDocument struct {
	Timestamp  bson.RawValue `bson:"timestamp"`
	Date       string        `bson:"date"`
	Time       string        `bson:"time"`
	Status     string        `bson:"status"`
	Comment    string        `bson:"comment"`
	UpdateType string        `bson:"update_type"`
}

// grievanceDocument decodes both current documents and petitions written by
// the earlier portal, which used petition_* field names and string dates.
type grievanceDocument struct {
	TrackingID          string             `bson:"tracking_id"`
	Department          string             `bson:"department"`
	Status              string             `bson:"status"`
	Priority            string             `bson:"priority"`
	PetitionType        string             `bson:"petition_type"`
	Name                string             `bson:"name"`
	Phone               string             `bson:"phone"`
	Address             string             `bson:"address"`
	Subject             string             `bson:"subject"`
	Description         string             `bson:"description"`
	PetitionSubject     string             `bson:"petition_subject"`
	PetitionDescription string             `bson:"petition_description"`
	RelatedTo           []string           `bson:"related_to"`
	SimilarityDetected  bool               `bson:"similarity_detected"`
	Timeline            []timelineDocument `bson:"timeline"`
	LastRemindedAt      bson.RawValue      `bson:"last_reminded_at"`
	CreatedAt           bson.RawValue      `bson:"created_at"`
	LastUpdated         bson.RawValue      `bson:"last_updated"`
}

func (d *grievanceDocument) model(partition string) *models.Grievance {
	g := &models.Grievance{
		TrackingID:         d.TrackingID,
		PartitionKey:       partition,
		Department:         d.Department,
		Status:             normalisedStatus(d.Status),
		Priority:           models.PriorityMedium,
		PetitionType:       d.PetitionType,
		Name:               d.Name,
		Phone:              d.Phone,
		Address:            d.Address,
		Subject:            d.Subject,
		Description:        d.Description,
		RelatedTo:          append(models.StringList{}, d.RelatedTo...),
		SimilarityDetected: d.SimilarityDetected,
	}
	if p, ok := models.ParsePriority(d.Priority); ok {
		g.Priority = p
	}
	if g.Subject == "" {
		g.Subject = d.PetitionSubject
	}
	if g.Description == "" {
		g.Description = d.PetitionDescription
	}
	if t, ok := legacyTime(d.CreatedAt); ok {
		g.CreatedAt = t
	}
	g.LastUpdated = g.CreatedAt
	if t, ok := legacyTime(d.LastUpdated); ok {
		g.LastUpdated = t
	}
	if t, ok := legacyTime(d.LastRemindedAt); ok {
		g.LastRemindedAt = &t
	}

	g.Timeline = make([]models.TimelineEntry, 0, len(d.Timeline))
	for _, e := range d.Timeline {
		ts, ok := legacyTime(e.Timestamp)
		if !ok {
			continue
		}
		entry := models.NewTimelineEntry(ts, normalisedStatus(e.Status), e.Comment, models.UpdateType(e.UpdateType))
		if e.Date != "" {
			entry.Date = e.Date
		}
		if e.Time != "" {
			entry.Time = e.Time
		}
		if entry.UpdateType == "" {
			entry.UpdateType = models.UpdateStatusChange
		}
		g.Timeline = append(g.Timeline, entry)
	}
	return g
}
