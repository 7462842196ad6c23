package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/grievance-api/internal/models"
	appErrors "github.com/noah-isme/grievance-api/pkg/errors"
	"github.com/noah-isme/grievance-api/pkg/textsim"
)

type failingLister struct{}

func (failingLister) List(ctx context.Context, partition string, filter models.GrievanceFilter) ([]models.Grievance, error) {
	return nil, errors.New("connection refused")
}

func pwdGrievance(id, subject, description string) *models.Grievance {
	return &models.Grievance{
		TrackingID:   id,
		PartitionKey: "petitions_pwd",
		Department:   "Public Works Department",
		Subject:      subject,
		Description:  description,
		Status:       models.StatusPending,
		CreatedAt:    time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestFindSimilarFlagsNearDuplicate(t *testing.T) {
	store := newGrievanceStoreStub(
		pwdGrievance("GR-2025-DUP001", "Road damaged", "The main road near the bus stand is badly damaged with deep potholes"),
		pwdGrievance("GR-2025-OTH001", "Bridge painting", "Request to repaint the old railway overbridge railings"),
	)
	svc := NewSimilarityService(store, nil, textsim.DefaultConfig(), 0, nil)

	matches, err := svc.FindSimilar(context.Background(),
		"Road damaged The main road near the bus stand is badly damaged with deep potholes", "public works department", 0)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "GR-2025-DUP001", matches[0].TrackingID)
	assert.GreaterOrEqual(t, matches[0].Score, DefaultSimilarityThreshold)
	assert.True(t, strings.HasSuffix(matches[0].Description, "..."))
}

func TestFindSimilarEmptyDepartment(t *testing.T) {
	svc := NewSimilarityService(newGrievanceStoreStub(), nil, textsim.DefaultConfig(), 0, nil)

	matches, err := svc.FindSimilar(context.Background(), "street light broken", "Energy Department", 0)
	require.NoError(t, err)
	assert.NotNil(t, matches)
	assert.Empty(t, matches)
}

func TestFindSimilarStopWordsOnlyReturnsEmpty(t *testing.T) {
	store := newGrievanceStoreStub(pwdGrievance("GR-2025-AAA001", "the", "and of it"))
	svc := NewSimilarityService(store, nil, textsim.DefaultConfig(), 0, nil)

	matches, err := svc.FindSimilar(context.Background(), "is it the", "Public Works Department", 0)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestFindSimilarUnknownDepartment(t *testing.T) {
	svc := NewSimilarityService(newGrievanceStoreStub(), nil, textsim.DefaultConfig(), 0, nil)

	_, err := svc.FindSimilar(context.Background(), "text", "Ministry of Magic", 0)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidDepartment))
}

func TestFindSimilarStorageFailure(t *testing.T) {
	svc := NewSimilarityService(failingLister{}, nil, textsim.DefaultConfig(), 0, nil)

	_, err := svc.FindSimilar(context.Background(), "text", "Public Works Department", 0)
	assert.True(t, errors.Is(err, appErrors.ErrStorageUnavailable))
}

func TestSnippetAlwaysAppendsEllipsis(t *testing.T) {
	assert.Equal(t, "short...", snippet("short"))
	long := strings.Repeat("x", 150)
	assert.Equal(t, strings.Repeat("x", 100)+"...", snippet(long))
}
