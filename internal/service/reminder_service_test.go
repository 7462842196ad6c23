package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/grievance-api/internal/models"
	appErrors "github.com/noah-isme/grievance-api/pkg/errors"
	"github.com/noah-isme/grievance-api/pkg/export"
)

type reminderGrievanceStub struct {
	byPartition map[string][]models.Grievance
	failOn      string
	marked      map[string]time.Time
	filters     []models.GrievanceFilter
}

func (s *reminderGrievanceStub) Find(ctx context.Context, id string) (*models.Grievance, error) {
	for _, items := range s.byPartition {
		for i := range items {
			if items[i].TrackingID == id {
				g := items[i]
				return &g, nil
			}
		}
	}
	return nil, nil
}

func (s *reminderGrievanceStub) List(ctx context.Context, partition string, filter models.GrievanceFilter) ([]models.Grievance, error) {
	if partition == s.failOn {
		return nil, errors.New("partition offline")
	}
	s.filters = append(s.filters, filter)
	var out []models.Grievance
	for _, g := range s.byPartition[partition] {
		g := g
		if filter.Matches(&g) {
			out = append(out, g)
		}
	}
	return out, nil
}

func (s *reminderGrievanceStub) MarkReminded(ctx context.Context, partition, id string, at time.Time) error {
	if s.marked == nil {
		s.marked = map[string]time.Time{}
	}
	s.marked[id] = at
	return nil
}

type reminderStoreStub struct {
	inserted []models.Reminder
	err      error
	limit    int
	since    time.Time
}

func (s *reminderStoreStub) Insert(ctx context.Context, r *models.Reminder) error {
	if s.err != nil {
		return s.err
	}
	s.inserted = append(s.inserted, *r)
	return nil
}

func (s *reminderStoreStub) List(ctx context.Context, limit int) ([]models.Reminder, error) {
	s.limit = limit
	return s.inserted, s.err
}

func (s *reminderStoreStub) Stats(ctx context.Context, since time.Time) (*models.ReminderStats, error) {
	s.since = since
	return &models.ReminderStats{Total: len(s.inserted)}, s.err
}

var scanNow = time.Date(2025, 8, 20, 9, 0, 0, 0, time.UTC)

func grievanceAt(id, dept string, status models.GrievanceStatus, lastActivity time.Time) models.Grievance {
	return models.Grievance{
		TrackingID: id,
		Department: dept,
		Status:     status,
		Subject:    "Subject " + id,
		CreatedAt:  lastActivity,
		Timeline:   []models.TimelineEntry{models.NewTimelineEntry(lastActivity, status, "", models.UpdateSubmission)},
	}
}

func newReminderService(g *reminderGrievanceStub, r *reminderStoreStub) *ReminderService {
	svc := NewReminderService(g, r, models.DefaultDepartmentRegistry(), ReminderConfig{}, NewMetricsService(), zap.NewNop())
	svc.now = func() time.Time { return scanNow }
	return svc
}

func TestReminderEligible(t *testing.T) {
	stale := 72 * time.Hour
	fourDaysAgo := scanNow.Add(-96 * time.Hour)
	twoDaysAgo := scanNow.Add(-48 * time.Hour)

	g := grievanceAt("A", "Energy Department", models.StatusPending, fourDaysAgo)
	assert.True(t, ReminderEligible(&g, scanNow, stale, stale))

	g.LastRemindedAt = &twoDaysAgo
	assert.False(t, ReminderEligible(&g, scanNow, stale, stale))

	g.LastRemindedAt = &fourDaysAgo
	assert.True(t, ReminderEligible(&g, scanNow, stale, stale))

	fresh := grievanceAt("B", "Energy Department", models.StatusInProgress, twoDaysAgo)
	assert.False(t, ReminderEligible(&fresh, scanNow, stale, stale))

	closed := grievanceAt("C", "Energy Department", models.StatusResolved, fourDaysAgo)
	assert.False(t, ReminderEligible(&closed, scanNow, stale, stale))

	almost := grievanceAt("D", "Energy Department", models.StatusPending, scanNow.Add(-71*time.Hour))
	assert.False(t, ReminderEligible(&almost, scanNow, stale, stale))
}

func TestReminderEligibleUsesLatestTimelineEntry(t *testing.T) {
	g := grievanceAt("A", "Energy Department", models.StatusInProgress, scanNow.Add(-10*24*time.Hour))
	g.Timeline = append(g.Timeline, models.NewTimelineEntry(scanNow.Add(-24*time.Hour), models.StatusInProgress, "", models.UpdateStatusChange))
	assert.False(t, ReminderEligible(&g, scanNow, 72*time.Hour, 72*time.Hour))
}

func TestRunScanRemindsStaleGrievances(t *testing.T) {
	old := scanNow.Add(-5 * 24 * time.Hour)
	gs := &reminderGrievanceStub{byPartition: map[string][]models.Grievance{
		"petitions_pwd": {
			grievanceAt("GR-2025-STALE1", "Public Works Department", models.StatusPending, old),
			grievanceAt("GR-2025-FRESH1", "Public Works Department", models.StatusPending, scanNow.Add(-time.Hour)),
			grievanceAt("GR-2025-DONE01", "Public Works Department", models.StatusResolved, old),
		},
		"petitions_energy": {
			grievanceAt("GR-2025-STALE2", "Energy Department", models.StatusInProgress, old),
		},
	}}
	rs := &reminderStoreStub{}
	svc := newReminderService(gs, rs)

	sent, err := svc.RunScan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	require.Len(t, rs.inserted, 2)

	energy := rs.inserted[0]
	assert.Equal(t, "GR-2025-STALE2", energy.GrievanceID)
	assert.Equal(t, "officer_energy_department", energy.OfficerID)
	assert.Equal(t, "No status update in 3 days", energy.Reason)
	assert.Equal(t, 5, energy.DaysPending)
	assert.NotEmpty(t, energy.ID)

	assert.Equal(t, scanNow, gs.marked["GR-2025-STALE1"])
	assert.Equal(t, scanNow, gs.marked["GR-2025-STALE2"])
	require.NotEmpty(t, gs.filters)
	assert.Equal(t, scanNow.Add(-72*time.Hour), *gs.filters[0].RemindedBefore)
}

func TestRunScanIsIdempotentWithinCooldown(t *testing.T) {
	old := scanNow.Add(-5 * 24 * time.Hour)
	reminded := scanNow.Add(-time.Hour)
	g := grievanceAt("GR-2025-STALE1", "Public Works Department", models.StatusPending, old)
	g.LastRemindedAt = &reminded
	gs := &reminderGrievanceStub{byPartition: map[string][]models.Grievance{"petitions_pwd": {g}}}
	rs := &reminderStoreStub{}

	sent, err := newReminderService(gs, rs).RunScan(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestRunScanContinuesPastFailingPartition(t *testing.T) {
	old := scanNow.Add(-5 * 24 * time.Hour)
	gs := &reminderGrievanceStub{
		failOn: "petitions_adi_dravidar_tribal_welfare",
		byPartition: map[string][]models.Grievance{
			"petitions_pwd": {grievanceAt("GR-2025-STALE1", "Public Works Department", models.StatusPending, old)},
		},
	}
	sent, err := newReminderService(gs, &reminderStoreStub{}).RunScan(context.Background())
	assert.Equal(t, 1, sent)
	assert.ErrorIs(t, err, appErrors.ErrStorageUnavailable)
}

func TestSendReminderIgnoresIdleWindow(t *testing.T) {
	old := scanNow.Add(-4 * 24 * time.Hour)
	reminded := scanNow.Add(-time.Hour)
	recent := grievanceAt("GR-2025-RECENT", "Public Works Department", models.StatusPending, scanNow)
	recent.LastRemindedAt = &reminded
	gs := &reminderGrievanceStub{byPartition: map[string][]models.Grievance{
		"petitions_pwd": {
			grievanceAt("GR-2025-STALE1", "Public Works Department", models.StatusPending, old),
			grievanceAt("GR-2025-FRESH1", "Public Works Department", models.StatusInProgress, scanNow),
			recent,
			grievanceAt("GR-2025-CLOSED", "Public Works Department", models.StatusResolved, old),
		},
	}}
	rs := &reminderStoreStub{}
	svc := newReminderService(gs, rs)

	resp, err := svc.SendReminder(context.Background(), "gr-2025-stale1")
	require.NoError(t, err)
	assert.True(t, resp.Sent)
	assert.Equal(t, 4, resp.DaysPending)
	require.Len(t, rs.inserted, 1)

	resp, err = svc.SendReminder(context.Background(), "GR-2025-FRESH1")
	require.NoError(t, err)
	assert.True(t, resp.Sent)
	assert.Equal(t, 0, resp.DaysPending)

	resp, err = svc.SendReminder(context.Background(), "GR-2025-RECENT")
	require.NoError(t, err)
	assert.True(t, resp.Sent)
	require.Len(t, rs.inserted, 3)
	assert.Equal(t, "GR-2025-RECENT", rs.inserted[2].GrievanceID)

	resp, err = svc.SendReminder(context.Background(), "GR-2025-CLOSED")
	require.NoError(t, err)
	assert.False(t, resp.Sent)
	assert.Len(t, rs.inserted, 3)

	_, err = svc.SendReminder(context.Background(), "GR-2025-NOPE00")
	assert.ErrorIs(t, err, appErrors.ErrGrievanceNotFound)
}

func TestCandidatesForDepartment(t *testing.T) {
	old := scanNow.Add(-4 * 24 * time.Hour)
	gs := &reminderGrievanceStub{byPartition: map[string][]models.Grievance{
		"petitions_pwd": {
			grievanceAt("GR-2025-STALE1", "Public Works Department", models.StatusPending, old),
			grievanceAt("GR-2025-FRESH1", "Public Works Department", models.StatusPending, scanNow),
		},
	}}
	svc := newReminderService(gs, &reminderStoreStub{})

	items, err := svc.Candidates(context.Background(), "public works department")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "GR-2025-STALE1", items[0].TrackingID)
	assert.Equal(t, "Public Works Department", items[0].Department)

	_, err = svc.Candidates(context.Background(), "nope")
	assert.ErrorIs(t, err, appErrors.ErrInvalidDepartment)
}

func TestHistoryStatsAndExport(t *testing.T) {
	rs := &reminderStoreStub{inserted: []models.Reminder{{
		GrievanceID: "GR-2025-STALE1",
		Department:  "Public Works Department",
		OfficerID:   "officer_public_works_department",
		SentAt:      scanNow,
		Reason:      reminderReason,
		DaysPending: 4,
	}}}
	svc := newReminderService(&reminderGrievanceStub{}, rs)

	_, err := svc.History(context.Background(), -1)
	require.NoError(t, err)
	assert.Equal(t, 50, rs.limit)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, scanNow.Add(-7*24*time.Hour), rs.since)
	assert.NotNil(t, stats.ByDepartment)

	body, name, err := svc.Export(context.Background(), export.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "reminders_20250820_090000.csv", name)
	assert.True(t, bytes.HasPrefix(body, []byte("Grievance ID,Department,Officer,Sent At,Days Pending,Subject,Reason\n")))
	assert.Contains(t, string(body), "GR-2025-STALE1,Public Works Department,officer_public_works_department,20-Aug-2025 09:00:00,4,,No status update in 3 days")
	assert.Equal(t, 0, rs.limit)
}
