// Package mongostore persists grievances in one MongoDB collection per
// department, with a shared collection reserving tracking IDs.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/noah-isme/grievance-api/internal/models"
	"github.com/noah-isme/grievance-api/internal/repository"
	appErrors "github.com/noah-isme/grievance-api/pkg/errors"
)

const (
	trackingIDsCollection   = "tracking_ids"
	remindersCollection     = "reminders"
	notificationsCollection = "notification_logs"
)

type reservation struct {
	TrackingID string    `bson:"_id"`
	Partition  string    `bson:"partition"`
	ReservedAt time.Time `bson:"reserved_at"`
}

// Store implements the repository stores over a MongoDB database.
type Store struct {
	client     *mongo.Client
	db         *mongo.Database
	partitions []string
	logger     *zap.Logger
}

// New returns a Store over db. partitions lists every department collection.
func New(client *mongo.Client, db *mongo.Database, partitions []string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{client: client, db: db, partitions: partitions, logger: logger}
}

// Stores exposes s through the repository bundle.
func (s *Store) Stores() repository.Stores {
	return repository.Stores{
		Grievances:    s,
		Reminders:     reminderStore{s.db.Collection(remindersCollection)},
		Notifications: notificationStore{s.db.Collection(notificationsCollection)},
		Close: func(ctx context.Context) error {
			if s.client == nil {
				return nil
			}
			return s.client.Disconnect(ctx)
		},
	}
}

// EnsureIndexes creates the lookup indexes used by every query.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	for _, p := range s.partitions {
		_, err := s.db.Collection(p).Indexes().CreateMany(ctx, []mongo.IndexModel{
			{Keys: bson.D{{Key: "tracking_id", Value: 1}}, Options: options.Index().SetSparse(true)},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "last_reminded_at", Value: 1}}},
		})
		if err != nil {
			return fmt.Errorf("index %s: %w", p, err)
		}
	}
	if _, err := s.db.Collection(remindersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "sent_at", Value: -1}}}); err != nil {
		return fmt.Errorf("index reminders: %w", err)
	}
	if _, err := s.db.Collection(notificationsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "sent_at", Value: -1}}}); err != nil {
		return fmt.Errorf("index notification logs: %w", err)
	}
	return nil
}

func (s *Store) reserve(ctx context.Context, trackingID, partition string) error {
	_, err := s.db.Collection(trackingIDsCollection).InsertOne(ctx, reservation{
		TrackingID: trackingID,
		Partition:  partition,
		ReservedAt: time.Now().UTC(),
	})
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("reserve %s: %w", trackingID, appErrors.ErrDuplicateTrackingID)
	}
	if err != nil {
		return fmt.Errorf("reserve %s: %w", trackingID, err)
	}
	return nil
}

// Insert reserves the tracking ID and then writes the grievance document.
func (s *Store) Insert(ctx context.Context, g *models.Grievance) error {
	if err := s.reserve(ctx, g.TrackingID, g.PartitionKey); err != nil {
		return err
	}
	if _, err := s.db.Collection(g.PartitionKey).InsertOne(ctx, g); err != nil {
		if _, derr := s.db.Collection(trackingIDsCollection).DeleteOne(ctx, bson.M{"_id": g.TrackingID}); derr != nil {
			s.logger.Warn("release tracking id", zap.String("tracking_id", g.TrackingID), zap.Error(derr))
		}
		return fmt.Errorf("insert grievance: %w", err)
	}
	return nil
}

// Get loads a grievance from one department collection.
func (s *Store) Get(ctx context.Context, partition, trackingID string) (*models.Grievance, error) {
	var doc grievanceDocument
	err := s.db.Collection(partition).FindOne(ctx, bson.M{"tracking_id": trackingID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get grievance: %w", err)
	}
	return doc.model(partition), nil
}

// Find resolves the owning collection through the reservation and loads the grievance.
func (s *Store) Find(ctx context.Context, trackingID string) (*models.Grievance, error) {
	var r reservation
	err := s.db.Collection(trackingIDsCollection).FindOne(ctx, bson.M{"_id": trackingID}).Decode(&r)
	if err == nil {
		return s.Get(ctx, r.Partition, trackingID)
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("find reservation: %w", err)
	}
	for _, p := range s.partitions {
		g, err := s.Get(ctx, p, trackingID)
		if err != nil || g != nil {
			return g, err
		}
	}
	return nil, nil
}

// Exists reports whether trackingID is reserved.
func (s *Store) Exists(ctx context.Context, trackingID string) (bool, error) {
	n, err := s.db.Collection(trackingIDsCollection).CountDocuments(ctx, bson.M{"_id": trackingID}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("check tracking id: %w", err)
	}
	return n > 0, nil
}

func filterDocument(filter models.GrievanceFilter) bson.M {
	doc := bson.M{}
	if len(filter.Statuses) > 0 {
		doc["status"] = bson.M{"$in": filter.Statuses}
	}
	if filter.Priority != "" {
		doc["priority"] = filter.Priority
	}
	if filter.RemindedBefore != nil {
		doc["$or"] = bson.A{
			bson.M{"last_reminded_at": bson.M{"$exists": false}},
			bson.M{"last_reminded_at": nil},
			bson.M{"last_reminded_at": bson.M{"$lt": *filter.RemindedBefore}},
		}
	}
	return doc
}

// List returns the collection's grievances newest first. Legacy petitions
// whose created_at is still a string sort after dated ones until backfilled.
func (s *Store) List(ctx context.Context, partition string, filter models.GrievanceFilter) ([]models.Grievance, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.db.Collection(partition).Find(ctx, filterDocument(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("list grievances: %w", err)
	}
	var docs []grievanceDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode grievances: %w", err)
	}
	out := make([]models.Grievance, 0, len(docs))
	for i := range docs {
		out = append(out, *docs[i].model(partition))
	}
	return out, nil
}

// AppendStatus sets the status and pushes entry in one update.
func (s *Store) AppendStatus(ctx context.Context, partition, trackingID string, status models.GrievanceStatus, entry models.TimelineEntry) (bool, error) {
	res, err := s.db.Collection(partition).UpdateOne(ctx,
		bson.M{"tracking_id": trackingID},
		bson.M{
			"$set":  bson.M{"status": status, "last_updated": entry.Timestamp},
			"$push": bson.M{"timeline": entry},
		})
	if err != nil {
		return false, fmt.Errorf("update grievance status: %w", err)
	}
	return res.MatchedCount > 0, nil
}

// MarkReminded stamps the last reminder time.
func (s *Store) MarkReminded(ctx context.Context, partition, trackingID string, at time.Time) error {
	_, err := s.db.Collection(partition).UpdateOne(ctx,
		bson.M{"tracking_id": trackingID},
		bson.M{"$set": bson.M{"last_reminded_at": at}})
	if err != nil {
		return fmt.Errorf("mark reminded: %w", err)
	}
	return nil
}

type reminderStore struct{ coll *mongo.Collection }

func (r reminderStore) Insert(ctx context.Context, reminder *models.Reminder) error {
	if _, err := r.coll.InsertOne(ctx, reminder); err != nil {
		return fmt.Errorf("insert reminder: %w", err)
	}
	return nil
}

func (r reminderStore) List(ctx context.Context, limit int) ([]models.Reminder, error) {
	opts := options.Find().SetSort(bson.D{{Key: "sent_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	var out []models.Reminder
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode reminders: %w", err)
	}
	return out, nil
}

func (r reminderStore) Stats(ctx context.Context, since time.Time) (*models.ReminderStats, error) {
	total, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("count reminders: %w", err)
	}
	recent, err := r.coll.CountDocuments(ctx, bson.M{"sent_at": bson.M{"$gte": since}})
	if err != nil {
		return nil, fmt.Errorf("count recent reminders: %w", err)
	}
	cur, err := r.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: "$department"}, {Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}}}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("group reminders: %w", err)
	}
	stats := &models.ReminderStats{Total: int(total), LastWeek: int(recent)}
	if err := cur.All(ctx, &stats.ByDepartment); err != nil {
		return nil, fmt.Errorf("decode reminder groups: %w", err)
	}
	return stats, nil
}

type notificationStore struct{ coll *mongo.Collection }

func (n notificationStore) Insert(ctx context.Context, log *models.NotificationLog) error {
	if _, err := n.coll.InsertOne(ctx, log); err != nil {
		return fmt.Errorf("insert notification log: %w", err)
	}
	return nil
}

func (n notificationStore) List(ctx context.Context, limit int) ([]models.NotificationLog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "sent_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := n.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list notification logs: %w", err)
	}
	var out []models.NotificationLog
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode notification logs: %w", err)
	}
	return out, nil
}
