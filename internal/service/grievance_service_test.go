package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/grievance-api/internal/dto"
	"github.com/noah-isme/grievance-api/internal/models"
	appErrors "github.com/noah-isme/grievance-api/pkg/errors"
)

type grievanceStoreStub struct {
	items      map[string]*models.Grievance
	insertErrs []error
	inserted   []models.Grievance
	getErr     error
	appended   []models.TimelineEntry
	listFilter models.GrievanceFilter
}

func newGrievanceStoreStub(items ...*models.Grievance) *grievanceStoreStub {
	s := &grievanceStoreStub{items: map[string]*models.Grievance{}}
	for _, g := range items {
		s.items[g.TrackingID] = g
	}
	return s
}

func (s *grievanceStoreStub) Insert(ctx context.Context, g *models.Grievance) error {
	if len(s.insertErrs) > 0 {
		err := s.insertErrs[0]
		s.insertErrs = s.insertErrs[1:]
		if err != nil {
			return err
		}
	}
	cp := *g
	s.items[g.TrackingID] = &cp
	s.inserted = append(s.inserted, cp)
	return nil
}

func (s *grievanceStoreStub) Get(ctx context.Context, partition, id string) (*models.Grievance, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	g, ok := s.items[id]
	if !ok || g.PartitionKey != partition {
		return nil, nil
	}
	cp := *g
	return &cp, nil
}

func (s *grievanceStoreStub) Find(ctx context.Context, id string) (*models.Grievance, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	g, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	cp := *g
	return &cp, nil
}

func (s *grievanceStoreStub) List(ctx context.Context, partition string, filter models.GrievanceFilter) ([]models.Grievance, error) {
	s.listFilter = filter
	var out []models.Grievance
	for _, g := range s.items {
		if g.PartitionKey == partition && filter.Matches(g) {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (s *grievanceStoreStub) AppendStatus(ctx context.Context, partition, id string, status models.GrievanceStatus, entry models.TimelineEntry) (bool, error) {
	g, ok := s.items[id]
	if !ok || g.PartitionKey != partition {
		return false, nil
	}
	g.Status = status
	g.LastUpdated = entry.Timestamp
	g.Timeline = append(g.Timeline, entry)
	s.appended = append(s.appended, entry)
	return true, nil
}

type similarStub struct {
	matches []dto.SimilarGrievance
	err     error
	text    string
}

func (s *similarStub) FindSimilar(ctx context.Context, text, department string, threshold float64) ([]dto.SimilarGrievance, error) {
	s.text = text
	return s.matches, s.err
}

type allocatorStub struct {
	ids []string
	i   int
}

func (a *allocatorStub) Allocate(ctx context.Context) (string, error) {
	id := a.ids[a.i%len(a.ids)]
	a.i++
	return id, nil
}

type notifierStub struct {
	calls int
	ok    bool
	last  models.GrievanceStatus
}

func (n *notifierStub) Notify(ctx context.Context, g *models.Grievance, oldStatus, newStatus models.GrievanceStatus) bool {
	n.calls++
	n.last = newStatus
	return n.ok
}

var fixedNow = time.Date(2025, 7, 10, 11, 30, 0, 0, time.UTC)

func newGrievanceService(store *grievanceStoreStub, similar *similarStub, notifier Notifier, ids ...string) *GrievanceService {
	if len(ids) == 0 {
		ids = []string{"GR-2025-AAAAAA"}
	}
	svc := NewGrievanceService(store, similar, &allocatorStub{ids: ids}, notifier, models.DefaultDepartmentRegistry(),
		GrievanceServiceConfig{}, nil, NewMetricsService(), zap.NewNop())
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func validSubmission() dto.SubmitGrievanceRequest {
	return dto.SubmitGrievanceRequest{
		Name:         "Arun",
		Phone:        " 9000000001 ",
		Address:      "12 Gandhi Street",
		PetitionType: "complaint",
		Subject:      "Road damaged",
		Description:  "Accident risk because of a large pothole",
		Department:   "public works department",
	}
}

func TestSubmitStoresPendingGrievance(t *testing.T) {
	store := newGrievanceStoreStub()
	similar := &similarStub{matches: []dto.SimilarGrievance{{TrackingID: "GR-2025-OLD001", Score: 0.91}}}
	svc := newGrievanceService(store, similar, nil)

	resp, err := svc.Submit(context.Background(), validSubmission())
	require.NoError(t, err)

	assert.Equal(t, "GR-2025-AAAAAA", resp.TrackingID)
	assert.Equal(t, "Public Works Department", resp.Department)
	assert.Equal(t, "High", resp.Priority)
	assert.True(t, resp.SimilarityDetected)
	assert.Equal(t, 1, resp.SimilarGrievancesCount)
	assert.Equal(t, "Found 1 similar grievance(s). Your issue may be related to existing cases.", resp.SimilarityMessage)
	assert.Equal(t, "Road damaged Accident risk because of a large pothole", similar.text)

	require.Len(t, store.inserted, 1)
	stored := store.inserted[0]
	assert.Equal(t, "petitions_pwd", stored.PartitionKey)
	assert.Equal(t, models.StatusPending, stored.Status)
	assert.Equal(t, "9000000001", stored.Phone)
	assert.Equal(t, models.StringList{"GR-2025-OLD001"}, stored.RelatedTo)
	require.Len(t, stored.Timeline, 1)
	assert.Equal(t, models.UpdateSubmission, stored.Timeline[0].UpdateType)
	assert.Equal(t, "Grievance submitted successfully", stored.Timeline[0].Comment)
	assert.Equal(t, "10-Jul-2025", stored.Timeline[0].Date)
}

func TestSubmitWithoutDuplicatesHasNoMessage(t *testing.T) {
	svc := newGrievanceService(newGrievanceStoreStub(), &similarStub{}, nil)
	req := validSubmission()
	req.Description = "Pothole"
	resp, err := svc.Submit(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, resp.SimilarityDetected)
	assert.Empty(t, resp.SimilarityMessage)
	assert.Equal(t, "Medium", resp.Priority)
}

func TestSubmitRejectsUnknownDepartmentWithoutSideEffects(t *testing.T) {
	store := newGrievanceStoreStub()
	similar := &similarStub{}
	svc := newGrievanceService(store, similar, nil)
	req := validSubmission()
	req.Department = "Ministry of Magic"

	_, err := svc.Submit(context.Background(), req)
	assert.ErrorIs(t, err, appErrors.ErrInvalidDepartment)
	assert.Empty(t, store.inserted)
	assert.Empty(t, similar.text)
}

func TestSubmitValidatesFields(t *testing.T) {
	svc := newGrievanceService(newGrievanceStoreStub(), &similarStub{}, nil)
	req := validSubmission()
	req.Subject = ""
	_, err := svc.Submit(context.Background(), req)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestSubmitRetriesDuplicateTrackingID(t *testing.T) {
	store := newGrievanceStoreStub()
	store.insertErrs = []error{appErrors.ErrDuplicateTrackingID, nil}
	svc := newGrievanceService(store, &similarStub{}, nil, "GR-2025-AAAAAA", "GR-2025-BBBBBB")

	resp, err := svc.Submit(context.Background(), validSubmission())
	require.NoError(t, err)
	assert.Equal(t, "GR-2025-BBBBBB", resp.TrackingID)
}

func TestSubmitMapsStorageFailure(t *testing.T) {
	store := newGrievanceStoreStub()
	store.insertErrs = []error{errors.New("connection refused")}
	svc := newGrievanceService(store, &similarStub{}, nil)

	_, err := svc.Submit(context.Background(), validSubmission())
	assert.ErrorIs(t, err, appErrors.ErrStorageUnavailable)
}

func pendingGrievance() *models.Grievance {
	created := fixedNow.Add(-48 * time.Hour)
	return &models.Grievance{
		TrackingID:   "GR-2025-AAAAAA",
		PartitionKey: "petitions_pwd",
		Department:   "Public Works Department",
		Status:       models.StatusPending,
		Priority:     models.PriorityMedium,
		Phone:        "9000000001",
		Subject:      "Road damaged",
		CreatedAt:    created,
		LastUpdated:  created,
		Timeline:     []models.TimelineEntry{models.NewTimelineEntry(created, models.StatusPending, submissionComment, models.UpdateSubmission)},
	}
}

func TestUpdateStatusAppendsTimelineAndNotifies(t *testing.T) {
	store := newGrievanceStoreStub(pendingGrievance())
	notifier := &notifierStub{ok: true}
	svc := newGrievanceService(store, &similarStub{}, notifier)

	resp, err := svc.UpdateStatus(context.Background(), "gr-2025-aaaaaa", "Public Works Department", "IN_PROGRESS", "")
	require.NoError(t, err)

	assert.Equal(t, "in_progress", resp.Status)
	assert.Equal(t, "10-Jul-2025", resp.TimelineUpdate.Date)
	assert.Equal(t, "Status Updated to In Progress", resp.TimelineUpdate.Title)
	assert.Equal(t, "Status updated to in_progress", resp.TimelineUpdate.Description)
	assert.True(t, resp.NotificationSent)
	assert.Equal(t, 1, notifier.calls)

	stored := store.items["GR-2025-AAAAAA"]
	require.Len(t, stored.Timeline, 2)
	assert.Equal(t, models.UpdateStatusChange, stored.Timeline[1].UpdateType)
	assert.Equal(t, fixedNow, stored.LastUpdated)
}

func TestUpdateStatusSameStatusSkipsNotification(t *testing.T) {
	store := newGrievanceStoreStub(pendingGrievance())
	notifier := &notifierStub{ok: true}
	svc := newGrievanceService(store, &similarStub{}, notifier)

	resp, err := svc.UpdateStatus(context.Background(), "GR-2025-AAAAAA", "Public Works Department", "pending", "still waiting on contractor")
	require.NoError(t, err)
	assert.False(t, resp.NotificationSent)
	assert.Zero(t, notifier.calls)
	assert.Equal(t, "still waiting on contractor", resp.TimelineUpdate.Description)
	assert.Len(t, store.appended, 1)
}

func TestUpdateStatusNotificationFailureIsNotFatal(t *testing.T) {
	store := newGrievanceStoreStub(pendingGrievance())
	svc := newGrievanceService(store, &similarStub{}, &notifierStub{ok: false})

	resp, err := svc.UpdateStatus(context.Background(), "GR-2025-AAAAAA", "Public Works Department", "resolved", "")
	require.NoError(t, err)
	assert.False(t, resp.NotificationSent)
	assert.Equal(t, models.StatusResolved, store.items["GR-2025-AAAAAA"].Status)
}

func TestUpdateStatusValidationOrder(t *testing.T) {
	store := newGrievanceStoreStub(pendingGrievance())
	svc := newGrievanceService(store, &similarStub{}, nil)

	_, err := svc.UpdateStatus(context.Background(), "GR-2025-AAAAAA", "Nowhere", "closed", "")
	assert.ErrorIs(t, err, appErrors.ErrInvalidStatus)

	_, err = svc.UpdateStatus(context.Background(), "GR-2025-AAAAAA", "Nowhere", "resolved", "")
	assert.ErrorIs(t, err, appErrors.ErrInvalidDepartment)

	_, err = svc.UpdateStatus(context.Background(), "GR-2025-ZZZZZZ", "Public Works Department", "resolved", "")
	assert.ErrorIs(t, err, appErrors.ErrGrievanceNotFound)

	_, err = svc.UpdateStatus(context.Background(), "GR-2025-AAAAAA", "Finance Department", "resolved", "")
	assert.ErrorIs(t, err, appErrors.ErrGrievanceNotFound)
	assert.Empty(t, store.appended)
}

func TestTerminalStatusCanBeReopened(t *testing.T) {
	g := pendingGrievance()
	g.Status = models.StatusResolved
	store := newGrievanceStoreStub(g)
	svc := newGrievanceService(store, &similarStub{}, &notifierStub{ok: true})

	resp, err := svc.UpdateStatus(context.Background(), g.TrackingID, g.Department, "pending", "")
	require.NoError(t, err)
	assert.Equal(t, "pending", resp.Status)
}

func TestGetTimelinePreservesOrder(t *testing.T) {
	store := newGrievanceStoreStub(pendingGrievance())
	svc := newGrievanceService(store, &similarStub{}, nil)
	_, err := svc.UpdateStatus(context.Background(), "GR-2025-AAAAAA", "Public Works Department", "in_progress", "")
	require.NoError(t, err)

	timeline, err := svc.GetTimeline(context.Background(), "GR-2025-AAAAAA", "Public Works Department")
	require.NoError(t, err)
	require.Len(t, timeline, 2)
	assert.Equal(t, models.UpdateSubmission, timeline[0].UpdateType)
	assert.Equal(t, models.StatusInProgress, timeline[1].Status)

	_, err = svc.GetTimeline(context.Background(), "GR-2025-AAAAAA", "bogus")
	assert.ErrorIs(t, err, appErrors.ErrInvalidDepartment)
}

func TestTrackOutcomes(t *testing.T) {
	g := pendingGrievance()
	g.Status = models.StatusResolved
	g.LastUpdated = fixedNow
	svc := newGrievanceService(newGrievanceStoreStub(g), &similarStub{}, nil)
	ctx := context.Background()

	tracked, err := svc.Track(ctx, " gr-2025-aaaaaa ", " 9000000001")
	require.NoError(t, err)
	require.Len(t, tracked.Updates, 3)
	assert.Equal(t, "Grievance Received", tracked.Updates[0].Title)
	assert.Equal(t, "Your grievance has been assigned to Public Works Department.", tracked.Updates[1].Description)
	assert.Equal(t, "Resolved", tracked.Updates[2].Title)
	assert.Equal(t, "10-Jul-2025", tracked.Updates[2].Date)

	_, err = svc.Track(ctx, "GR-2025-AAAAAA", "9999999999")
	assert.ErrorIs(t, err, appErrors.ErrPhoneMismatch)

	_, err = svc.Track(ctx, "GR-2025-ZZZZZZ", "9000000001")
	assert.ErrorIs(t, err, appErrors.ErrGrievanceNotFound)

	_, err = svc.Track(ctx, "", "9000000001")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	_, err = svc.Track(ctx, "GR-2025-AAAAAA", " ")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestTrackPendingHasTwoUpdates(t *testing.T) {
	svc := newGrievanceService(newGrievanceStoreStub(pendingGrievance()), &similarStub{}, nil)
	tracked, err := svc.Track(context.Background(), "GR-2025-AAAAAA", "9000000001")
	require.NoError(t, err)
	assert.Len(t, tracked.Updates, 2)
}

func TestListFiltersByPriority(t *testing.T) {
	high := pendingGrievance()
	high.TrackingID = "GR-2025-HIGH01"
	high.Priority = models.PriorityHigh
	store := newGrievanceStoreStub(pendingGrievance(), high)
	svc := newGrievanceService(store, &similarStub{}, nil)

	items, err := svc.List(context.Background(), "Public Works Department", "high")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "GR-2025-HIGH01", items[0].TrackingID)

	_, err = svc.List(context.Background(), "Public Works Department", "extreme")
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	items, err = svc.List(context.Background(), "Finance Department", "")
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}
