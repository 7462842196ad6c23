package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"time"

	"go.uber.org/zap"
)

const (
	trackingAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	trackingSuffixLen   = 6
	maxTrackingAttempts = 10
)

var trackingIDPattern = regexp.MustCompile(`^GR-\d{4}-[A-Z0-9]{6}$`)

// ValidTrackingID reports whether id has the GR-<year>-<suffix> shape.
func ValidTrackingID(id string) bool {
	return trackingIDPattern.MatchString(id)
}

type trackingIDChecker interface {
	Exists(ctx context.Context, trackingID string) (bool, error)
}

// TrackingIDAllocator issues GR-<year>-<XXXXXX> identifiers unused in every partition.
type TrackingIDAllocator struct {
	store  trackingIDChecker
	now    func() time.Time
	random func() (string, error)
	logger *zap.Logger
}

// NewTrackingIDAllocator constructs an allocator backed by a cryptographic random source.
func NewTrackingIDAllocator(store trackingIDChecker, logger *zap.Logger) *TrackingIDAllocator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrackingIDAllocator{store: store, now: time.Now, random: randomSuffix, logger: logger}
}

// Allocate returns a fresh identifier. After maxTrackingAttempts collisions the
// last candidate is returned and uniqueness is left to the store.
func (a *TrackingIDAllocator) Allocate(ctx context.Context) (string, error) {
	var candidate string
	for attempt := 1; attempt <= maxTrackingAttempts; attempt++ {
		suffix, err := a.random()
		if err != nil {
			return "", fmt.Errorf("generate tracking id: %w", err)
		}
		candidate = fmt.Sprintf("GR-%d-%s", a.now().Year(), suffix)

		exists, err := a.store.Exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		a.logger.Debug("tracking id collision", zap.String("tracking_id", candidate), zap.Int("attempt", attempt))
	}
	a.logger.Warn("tracking id attempts exhausted", zap.String("tracking_id", candidate))
	return candidate, nil
}

func randomSuffix() (string, error) {
	max := big.NewInt(int64(len(trackingAlphabet)))
	buf := make([]byte, trackingSuffixLen)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = trackingAlphabet[n.Int64()]
	}
	return string(buf), nil
}
