package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/grievance-api/internal/dto"
	"github.com/noah-isme/grievance-api/internal/models"
	appErrors "github.com/noah-isme/grievance-api/pkg/errors"
	"github.com/noah-isme/grievance-api/pkg/textsim"
)

const (
	// DefaultSimilarityThreshold is the cosine score at which a grievance counts as a duplicate.
	DefaultSimilarityThreshold = 0.8
	snippetLength              = 100
)

type partitionLister interface {
	List(ctx context.Context, partition string, filter models.GrievanceFilter) ([]models.Grievance, error)
}

// SimilarityService finds near-duplicate grievances within a department.
type SimilarityService struct {
	store      partitionLister
	registry   *models.DepartmentRegistry
	vectorizer *textsim.Vectorizer
	threshold  float64
	logger     *zap.Logger
}

// NewSimilarityService constructs a SimilarityService. threshold <= 0 uses the default.
func NewSimilarityService(store partitionLister, registry *models.DepartmentRegistry, cfg textsim.Config, threshold float64, logger *zap.Logger) *SimilarityService {
	if registry == nil {
		registry = models.DefaultDepartmentRegistry()
	}
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SimilarityService{
		store:      store,
		registry:   registry,
		vectorizer: textsim.NewVectorizer(cfg),
		threshold:  threshold,
		logger:     logger,
	}
}

// Threshold returns the configured default threshold.
func (s *SimilarityService) Threshold() float64 { return s.threshold }

// FindSimilar scores text against every grievance filed with department and
// returns those at or above threshold, best first.
func (s *SimilarityService) FindSimilar(ctx context.Context, text, department string, threshold float64) ([]dto.SimilarGrievance, error) {
	partition, ok := s.registry.PartitionKey(department)
	if !ok {
		return nil, appErrors.ErrInvalidDepartment
	}
	if threshold <= 0 {
		threshold = s.threshold
	}

	existing, err := s.store.List(ctx, partition, models.GrievanceFilter{})
	if err != nil {
		return nil, appErrors.Storage(err, "failed to load grievances for similarity check")
	}
	if len(existing) == 0 {
		return []dto.SimilarGrievance{}, nil
	}

	corpus := make([]string, 0, len(existing))
	refs := make([]models.Grievance, 0, len(existing))
	for _, g := range existing {
		combined := strings.ToLower(strings.TrimSpace(g.Subject + " " + g.Description))
		if combined == "" {
			continue
		}
		corpus = append(corpus, combined)
		refs = append(refs, g)
	}
	if len(corpus) == 0 {
		return []dto.SimilarGrievance{}, nil
	}

	scores, err := s.vectorizer.RankAgainst(strings.ToLower(strings.TrimSpace(text)), corpus)
	if err != nil {
		if errors.Is(err, textsim.ErrEmptyVocabulary) {
			return []dto.SimilarGrievance{}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "similarity scoring failed")
	}

	matches := make([]dto.SimilarGrievance, 0)
	for _, sc := range scores {
		if sc.Value < threshold {
			continue
		}
		g := refs[sc.Index]
		matches = append(matches, dto.SimilarGrievance{
			TrackingID:  g.TrackingID,
			Score:       sc.Value,
			Subject:     g.Subject,
			Description: snippet(g.Description),
		})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })

	s.logger.Debug("similarity check", zap.String("department", department), zap.Int("compared", len(existing)), zap.Int("matches", len(matches)))
	return matches, nil
}

func snippet(description string) string {
	r := []rune(description)
	if len(r) > snippetLength {
		r = r[:snippetLength]
	}
	return string(r) + "..."
}
