package mongostore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/noah-isme/grievance-api/internal/models"
	appErrors "github.com/noah-isme/grievance-api/pkg/errors"
)

const maxBackfillAttempts = 10

// BackfillResult counts the work done for one department collection.
type BackfillResult struct {
	Department string `json:"department"`
	Assigned   int    `json:"assigned"`
	Reserved   int    `json:"reserved"`
	Normalised int    `json:"normalised"`
}

type legacyPetition struct {
	ID                  primitive.ObjectID `bson:"_id"`
	TrackingID          string             `bson:"tracking_id,omitempty"`
	Status              string             `bson:"status,omitempty"`
	Priority            string             `bson:"priority,omitempty"`
	Subject             string             `bson:"subject,omitempty"`
	PetitionSubject     string             `bson:"petition_subject,omitempty"`
	PetitionDescription string             `bson:"petition_description,omitempty"`
	CreatedAt           bson.RawValue      `bson:"created_at"`
	LastUpdated         bson.RawValue      `bson:"last_updated"`
}

// normalisation returns the $set and $rename documents that bring a legacy
// petition to the current shape. Both are empty for current documents.
func normalisation(doc legacyPetition, department string, now time.Time) (bson.M, bson.M) {
	set := bson.M{}
	rename := bson.M{}

	if status := normalisedStatus(doc.Status); string(status) != doc.Status {
		set["status"] = status
	}
	if p, ok := models.ParsePriority(doc.Priority); !ok {
		set["priority"] = models.PriorityMedium
	} else if string(p) != doc.Priority {
		set["priority"] = p
	}
	if doc.Subject == "" && (doc.PetitionSubject != "" || doc.PetitionDescription != "") {
		rename["petition_subject"] = "subject"
		rename["petition_description"] = "description"
	}

	created, ok := legacyTime(doc.CreatedAt)
	switch {
	case !ok:
		created = now
		set["created_at"] = created
	case doc.CreatedAt.Type == bsontype.String:
		set["created_at"] = created
	}
	if t, ok := legacyTime(doc.LastUpdated); !ok {
		set["last_updated"] = created
	} else if doc.LastUpdated.Type == bsontype.String {
		set["last_updated"] = t
	}
	if doc.TrackingID == "" {
		set["department"] = department
	}
	return set, rename
}

// BackfillTrackingIDs assigns tracking IDs to documents created before they
// existed and reserves IDs already present but never recorded. Legacy fields
// are normalised on the way: petition_* text fields are renamed, string dates
// become BSON dates and status and priority take their canonical spelling.
func (s *Store) BackfillTrackingIDs(ctx context.Context, registry *models.DepartmentRegistry, newID func(context.Context) (string, error)) ([]BackfillResult, error) {
	results := make([]BackfillResult, 0, registry.Len())
	for _, dept := range registry.All() {
		res, err := s.backfillPartition(ctx, dept, newID)
		if err != nil {
			return results, fmt.Errorf("backfill %s: %w", dept.Name, err)
		}
		if res.Assigned > 0 || res.Reserved > 0 || res.Normalised > 0 {
			s.logger.Info("tracking ids backfilled",
				zap.String("department", dept.Name), zap.Int("assigned", res.Assigned),
				zap.Int("reserved", res.Reserved), zap.Int("normalised", res.Normalised))
		}
		results = append(results, res)
	}
	return results, nil
}

func (s *Store) backfillPartition(ctx context.Context, dept models.Department, newID func(context.Context) (string, error)) (BackfillResult, error) {
	res := BackfillResult{Department: dept.Name}
	coll := s.db.Collection(dept.PartitionKey)

	cur, err := coll.Find(ctx, bson.M{})
	if err != nil {
		return res, err
	}
	var docs []legacyPetition
	if err := cur.All(ctx, &docs); err != nil {
		return res, err
	}

	now := time.Now().UTC()
	for _, doc := range docs {
		set, rename := normalisation(doc, dept.Name, now)

		if doc.TrackingID != "" {
			exists, err := s.Exists(ctx, doc.TrackingID)
			if err != nil {
				return res, err
			}
			if !exists {
				if err := s.reserve(ctx, doc.TrackingID, dept.PartitionKey); err != nil {
					return res, err
				}
				res.Reserved++
			}
		} else {
			id, err := s.reserveFresh(ctx, dept.PartitionKey, newID)
			if err != nil {
				return res, err
			}
			set["tracking_id"] = id
			res.Assigned++
		}

		update := bson.M{}
		if len(set) > 0 {
			update["$set"] = set
		}
		if len(rename) > 0 {
			update["$rename"] = rename
		}
		if len(update) == 0 {
			continue
		}
		if _, err := coll.UpdateOne(ctx, bson.M{"_id": doc.ID}, update); err != nil {
			return res, err
		}
		res.Normalised++
	}
	return res, nil
}

func (s *Store) reserveFresh(ctx context.Context, partition string, newID func(context.Context) (string, error)) (string, error) {
	for attempt := 0; attempt < maxBackfillAttempts; attempt++ {
		id, err := newID(ctx)
		if err != nil {
			return "", err
		}
		err = s.reserve(ctx, id, partition)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, appErrors.ErrDuplicateTrackingID) {
			return "", err
		}
	}
	return "", appErrors.ErrDuplicateTrackingID
}

func normalisedStatus(raw string) models.GrievanceStatus {
	if s, ok := models.ParseStatus(strings.ReplaceAll(raw, " ", "_")); ok {
		return s
	}
	return models.StatusPending
}
