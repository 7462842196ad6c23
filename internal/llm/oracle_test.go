package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/grievance-api/pkg/config"
)

type memoryCache struct {
	data   map[string]string
	getErr error
	sets   int
}

func (m *memoryCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	if m.getErr != nil {
		return false, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return false, nil
	}
	*(dest.(*string)) = v
	return true, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	m.sets++
	m.data[key] = value.(string)
	return nil
}

func TestBuildPromptListsDepartments(t *testing.T) {
	prompt := BuildPrompt("road is broken", []string{"Public Works Department", "Finance Department"})
	assert.Contains(t, prompt, "- Public Works Department\n- Finance Department\n")
	assert.Contains(t, prompt, "Never return 'General'")
	assert.True(t, len(prompt) > 0 && prompt[len(prompt)-len("Department:"):] == "Department:")
	assert.Contains(t, prompt, "Petition: 'road is broken'")
}

func TestCleanAnswer(t *testing.T) {
	assert.Equal(t, "Energy Department", CleanAnswer("  \"Energy Department.\"\nBecause power"))
	assert.Equal(t, "Law Department", CleanAnswer("- Law Department"))
	assert.Equal(t, "", CleanAnswer("   "))
}

func TestNewOracleWithoutKeyIsDisabled(t *testing.T) {
	o := NewOracle(config.ClassifierConfig{}, nil)
	_, err := o.Suggest(context.Background(), "text", nil)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestCachedOracleMemoisesAnswers(t *testing.T) {
	calls := 0
	next := OracleFunc(func(context.Context, string, []string) (string, error) {
		calls++
		return "Energy Department", nil
	})
	cache := &memoryCache{data: map[string]string{}}
	o := NewCachedOracle(next, cache, time.Minute, nil)

	first, err := o.Suggest(context.Background(), "Power cut  in village", nil)
	require.NoError(t, err)
	second, err := o.Suggest(context.Background(), "power cut in VILLAGE", nil)
	require.NoError(t, err)

	assert.Equal(t, "Energy Department", first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, cache.sets)
}

func TestCachedOracleDoesNotCacheFailures(t *testing.T) {
	next := OracleFunc(func(context.Context, string, []string) (string, error) {
		return "", ErrUnavailable
	})
	cache := &memoryCache{data: map[string]string{}, getErr: errors.New("redis down")}
	o := NewCachedOracle(next, cache, time.Minute, nil)

	_, err := o.Suggest(context.Background(), "x", nil)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Zero(t, cache.sets)
}

func TestNewCachedOracleWithoutCacheReturnsNext(t *testing.T) {
	_, wrapped := NewCachedOracle(Disabled, nil, time.Minute, nil).(*CachedOracle)
	assert.False(t, wrapped)
}
