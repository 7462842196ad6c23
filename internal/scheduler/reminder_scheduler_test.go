package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scannerStub struct {
	calls   int32
	release chan struct{}
	entered chan struct{}
	sent    int
	err     error
}

func (s *scannerStub) RunScan(ctx context.Context) (int, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.entered != nil {
		s.entered <- struct{}{}
	}
	if s.release != nil {
		<-s.release
	}
	return s.sent, s.err
}

type recorderStub struct{ outcomes []string }

func (r *recorderStub) RecordReminderScan(outcome string) { r.outcomes = append(r.outcomes, outcome) }

func TestNewRejectsBadSpec(t *testing.T) {
	_, err := New(&scannerStub{}, Config{Specs: []string{"not a spec"}}, nil, nil)
	assert.Error(t, err)
}

func TestNewRejectsUnknownTimezone(t *testing.T) {
	_, err := New(&scannerStub{}, Config{Timezone: "Mars/Olympus"}, nil, nil)
	assert.Error(t, err)
}

func TestNewRegistersEverySpec(t *testing.T) {
	s, err := New(&scannerStub{}, Config{Specs: []string{"0 9 * * *", "0 */6 * * *"}, Timezone: "Asia/Kolkata"}, nil, nil)
	require.NoError(t, err)
	assert.Len(t, s.engine.Entries(), 2)
}

func TestRunOnceReportsScanResult(t *testing.T) {
	rec := &recorderStub{}
	s, err := New(&scannerStub{sent: 4}, Config{}, rec, nil)
	require.NoError(t, err)

	sent, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, sent)
	assert.Equal(t, []string{"completed"}, rec.outcomes)

	s.scanner = &scannerStub{err: errors.New("db down")}
	_, err = s.RunOnce(context.Background())
	assert.Error(t, err)
	assert.Equal(t, []string{"completed", "failed"}, rec.outcomes)
}

func TestRunOnceNeverOverlaps(t *testing.T) {
	scanner := &scannerStub{release: make(chan struct{}), entered: make(chan struct{}, 1)}
	s, err := New(scanner, Config{}, nil, nil)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.RunOnce(context.Background())
	}()

	select {
	case <-scanner.entered:
	case <-time.After(time.Second):
		t.Fatal("first scan never started")
	}

	_, err = s.RunOnce(context.Background())
	assert.ErrorIs(t, err, ErrScanInProgress)

	close(scanner.release)
	<-done
	assert.Equal(t, int32(1), atomic.LoadInt32(&scanner.calls))
}

func TestStartStopIdempotent(t *testing.T) {
	s, err := New(&scannerStub{}, Config{Specs: []string{"@every 1h"}}, nil, nil)
	require.NoError(t, err)
	s.Start()
	s.Start()
	assert.Len(t, s.Entries(), 1)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
	s.Stop(ctx)
}
