package bootstrap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/grievance-api/internal/dto"
	"github.com/noah-isme/grievance-api/internal/models"
	"github.com/noah-isme/grievance-api/pkg/config"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Database:   config.DatabaseConfig{Driver: config.DriverMemory},
		Similarity: config.SimilarityConfig{Threshold: 0.8, MaxFeatures: 1000},
		Reminders: config.ReminderConfig{
			Enabled:      true,
			DailySpec:    "0 9 * * *",
			IntervalSpec: "0 */6 * * *",
			Timezone:     "Asia/Kolkata",
		},
		Notifications: config.NotificationConfig{Async: true, Workers: 1, BufferSize: 4},
	}
}

func TestOpenBackendRejectsUnknownDriver(t *testing.T) {
	cfg := memoryConfig()
	cfg.Database.Driver = "sqlite"
	_, err := OpenBackend(context.Background(), cfg, models.DefaultDepartmentRegistry(), zap.NewNop())
	assert.Error(t, err)
}

func TestMemoryBackendServesSubmitAndTrack(t *testing.T) {
	ctx := context.Background()
	cfg := memoryConfig()
	registry := models.DefaultDepartmentRegistry()

	backend, err := OpenBackend(ctx, cfg, registry, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, backend.Ping(ctx))

	svc, err := BuildServices(cfg, registry, backend.Stores, nil, nil, zap.NewNop())
	require.NoError(t, err)
	svc.Start(ctx)
	defer func() { require.NoError(t, svc.Stop(ctx)) }()

	resp, err := svc.Grievances.Submit(ctx, dto.SubmitGrievanceRequest{
		Name: "Kavitha", Phone: "9876543210", Address: "Madurai", PetitionType: "Complaint",
		Subject: "Water leakage", Description: "Pipeline burst near the temple street",
		Department: "tamil nadu water supply and drainage board",
	})
	require.NoError(t, err)
	assert.Equal(t, "Tamil Nadu Water Supply and Drainage Board", resp.Department)

	tracked, err := svc.Grievances.Track(ctx, resp.TrackingID, "9876543210")
	require.NoError(t, err)
	assert.Equal(t, string(models.StatusPending), tracked.Status)

	dept, err := svc.Classification.Classify(ctx, "drinking water pipeline broken")
	require.NoError(t, err)
	assert.Equal(t, "Tamil Nadu Water Supply and Drainage Board", dept)

	assert.Len(t, svc.Scheduler.Entries(), 2)
}

func TestMemoryBackendUrgentSubmissionOnEmptyPartition(t *testing.T) {
	ctx := context.Background()
	cfg := memoryConfig()
	registry := models.DefaultDepartmentRegistry()

	backend, err := OpenBackend(ctx, cfg, registry, zap.NewNop())
	require.NoError(t, err)
	svc, err := BuildServices(cfg, registry, backend.Stores, nil, nil, zap.NewNop())
	require.NoError(t, err)

	const department = "Tamil Nadu Water Supply and Drainage Board"
	resp, err := svc.Grievances.Submit(ctx, dto.SubmitGrievanceRequest{
		Name: "Selvi", Phone: "9123456780", Address: "Trichy", PetitionType: "Complaint",
		Subject: "Pipeline hazard", Description: "Urgent: fire near school water pipeline",
		Department: department,
	})
	require.NoError(t, err)
	assert.Equal(t, string(models.PriorityHigh), resp.Priority)
	assert.Equal(t, department, resp.Department)
	assert.False(t, resp.SimilarityDetected)
	assert.Zero(t, resp.SimilarGrievancesCount)
	assert.Empty(t, resp.SimilarGrievances)

	timeline, err := svc.Grievances.GetTimeline(ctx, resp.TrackingID, department)
	require.NoError(t, err)
	require.Len(t, timeline, 1)
	assert.Equal(t, models.UpdateSubmission, timeline[0].UpdateType)
	assert.Equal(t, models.StatusPending, timeline[0].Status)

	partition, _ := registry.PartitionKey(department)
	stored, err := backend.Stores.Grievances.Get(ctx, partition, resp.TrackingID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, department, stored.Department)
	assert.Equal(t, models.PriorityHigh, stored.Priority)
	assert.False(t, stored.SimilarityDetected)
	assert.Empty(t, stored.RelatedTo)
}
