package service

import (
	"context"
	"errors"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"go.uber.org/zap"

	"github.com/noah-isme/grievance-api/internal/llm"
	"github.com/noah-isme/grievance-api/internal/models"
	appErrors "github.com/noah-isme/grievance-api/pkg/errors"
)

const fuzzyCutoff = 0.6

// ClassificationService resolves petition text to a registry department.
type ClassificationService struct {
	oracle   llm.Oracle
	registry *models.DepartmentRegistry
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewClassificationService wires the resolver. A nil oracle leaves only the keyword rules.
func NewClassificationService(oracle llm.Oracle, registry *models.DepartmentRegistry, metrics *MetricsService, logger *zap.Logger) *ClassificationService {
	if oracle == nil {
		oracle = llm.Disabled
	}
	if registry == nil {
		registry = models.DefaultDepartmentRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassificationService{oracle: oracle, registry: registry, metrics: metrics, logger: logger}
}

// Classify returns a canonical department name or ErrUnclassifiable.
func (s *ClassificationService) Classify(ctx context.Context, text string) (string, error) {
	answer := s.ask(ctx, text)

	dept, stage := s.reconcile(answer)
	if dept == "" {
		guessed := ClassifyByKeywords(text)
		if s.registry.Contains(guessed) {
			dept, stage = guessed, StageKeywords
		}
	}
	if dept == "" {
		s.metrics.RecordClassification(StageFailed)
		return "", appErrors.ErrUnclassifiable
	}

	s.metrics.RecordClassification(stage)
	s.logger.Debug("grievance classified", zap.String("department", dept), zap.String("stage", stage))
	return dept, nil
}

func (s *ClassificationService) ask(ctx context.Context, text string) string {
	answer, err := s.oracle.Suggest(ctx, text, s.registry.Names())
	if err != nil {
		if !errors.Is(err, llm.ErrUnavailable) {
			s.logger.Warn("oracle failed", zap.Error(err))
		}
		return GeneralDepartment
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return GeneralDepartment
	}
	return answer
}

// reconcile matches a free-form answer against the registry: exact, then substring, then fuzzy.
func (s *ClassificationService) reconcile(answer string) (string, string) {
	clean := strings.ToLower(strings.TrimSpace(answer))
	if clean == "" {
		return "", ""
	}
	names := s.registry.Names()

	for _, name := range names {
		if strings.ToLower(name) == clean {
			return name, StageExact
		}
	}
	for _, name := range names {
		lower := strings.ToLower(name)
		if strings.Contains(clean, lower) || strings.Contains(lower, clean) {
			return name, StageSubstr
		}
	}
	if name := closestMatch(clean, names); name != "" {
		return name, StageFuzzy
	}
	return "", ""
}

// closestMatch returns the name with the highest sequence ratio against word,
// provided it reaches fuzzyCutoff. Earlier names win ties.
func closestMatch(word string, names []string) string {
	target := splitChars(word)
	best, bestScore := "", 0.0
	for _, name := range names {
		m := difflib.NewMatcher(splitChars(strings.ToLower(name)), target)
		if m.RealQuickRatio() < fuzzyCutoff || m.QuickRatio() < fuzzyCutoff {
			continue
		}
		if score := m.Ratio(); score >= fuzzyCutoff && score > bestScore {
			best, bestScore = name, score
		}
	}
	return best
}

func splitChars(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
