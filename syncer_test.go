package chores

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noWait() backoff.BackOff { return &backoff.ZeroBackOff{} }

// gatedSaver blocks every save until release is closed
type gatedSaver struct {
	mu      sync.Mutex
	calls   [][]CompletedTask
	started chan struct{}
	release chan struct{}
}

func newGatedSaver() *gatedSaver {
	return &gatedSaver{
		started: make(chan struct{}, 16),
		release: make(chan struct{}),
	}
}

func (g *gatedSaver) SaveAll(ctx context.Context, entries []CompletedTask) error {
	g.mu.Lock()
	g.calls = append(g.calls, entries)
	g.mu.Unlock()

	g.started <- struct{}{}
	select {
	case <-g.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *gatedSaver) Calls() [][]CompletedTask {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([][]CompletedTask(nil), g.calls...)
}

// scriptedSaver returns the queued errors in order, then succeeds
type scriptedSaver struct {
	mu    sync.Mutex
	errs  []error
	calls int
	last  []CompletedTask
}

func (s *scriptedSaver) SaveAll(ctx context.Context, entries []CompletedTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.last = entries
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return err
	}
	return nil
}

func (s *scriptedSaver) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// TestSyncerCoalescesSaves tests that toggles during an in-flight save
// collapse into one follow-up save carrying the final snapshot
func TestSyncerCoalescesSaves(t *testing.T) {
	ledger := NewLedger()
	saver := newGatedSaver()
	s := NewSyncer(saver, ledger.Snapshot, WithBackOff(noWait))
	defer s.Close(context.Background())

	ledger.Toggle(1, "2025-04-13", Aaliya)
	s.Schedule()

	select {
	case <-saver.started:
	case <-time.After(5 * time.Second):
		t.Fatal("first save never started")
	}

	for id := 2; id <= 5; id++ {
		ledger.Toggle(id, "2025-04-13", Aaliya)
		s.Schedule()
	}
	assert.True(t, s.Status().Pending)

	close(saver.release)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Flush(ctx))

	calls := saver.Calls()
	require.Len(t, calls, 2)
	assert.Len(t, calls[0], 1)
	assert.Equal(t, ledger.Snapshot(), calls[1])
	assert.False(t, s.Status().Pending)
	assert.Equal(t, 2, s.Status().Saves)
}

// TestSyncerRetriesTemporaryFailures tests backoff retries on 5xx and network errors
func TestSyncerRetriesTemporaryFailures(t *testing.T) {
	saver := &scriptedSaver{errs: []error{
		&SyncError{Op: "save", Err: ErrNetworkUnavailable},
		&SyncError{Op: "save", StatusCode: http.StatusBadGateway, Err: ErrServerRejected},
	}}
	ledger := NewLedger(CompletedTask{TaskID: 1, Date: "2025-04-13", ChildName: Haidar})
	s := NewSyncer(saver, ledger.Snapshot, WithBackOff(noWait))
	defer s.Close(context.Background())

	s.Schedule()
	require.NoError(t, s.Flush(context.Background()))

	assert.Equal(t, 3, saver.Calls())
	assert.Equal(t, ledger.Snapshot(), saver.last)
	assert.NoError(t, s.Status().LastError)
}

// TestSyncerDoesNotRetryClientErrors tests that 4xx is treated as permanent
func TestSyncerDoesNotRetryClientErrors(t *testing.T) {
	saver := &scriptedSaver{errs: []error{
		&SyncError{Op: "save", StatusCode: http.StatusBadRequest, Err: ErrServerRejected},
	}}
	s := NewSyncer(saver, NewLedger().Snapshot, WithBackOff(noWait))
	defer s.Close(context.Background())

	s.Schedule()
	err := s.Flush(context.Background())

	assert.ErrorIs(t, err, ErrServerRejected)
	assert.Equal(t, 1, saver.Calls())
	assert.ErrorIs(t, s.Status().LastError, ErrServerRejected)
}

// TestSyncerGivesUpAfterMaxTries tests the retry bound
func TestSyncerGivesUpAfterMaxTries(t *testing.T) {
	down := &SyncError{Op: "save", StatusCode: http.StatusServiceUnavailable, Err: ErrServerRejected}
	saver := &scriptedSaver{errs: []error{down, down, down, down}}
	s := NewSyncer(saver, NewLedger().Snapshot, WithBackOff(noWait), WithMaxTries(3))
	defer s.Close(context.Background())

	s.Schedule()
	err := s.Flush(context.Background())

	assert.ErrorIs(t, err, ErrServerRejected)
	assert.Equal(t, 3, saver.Calls())

	// the next save starts a fresh retry budget
	s.Schedule()
	assert.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, 5, saver.Calls())
}

func TestSyncerFlushWithoutSchedule(t *testing.T) {
	saver := &scriptedSaver{}
	s := NewSyncer(saver, NewLedger().Snapshot)
	defer s.Close(context.Background())

	assert.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, 0, saver.Calls())
}

func TestSyncerFlushHonorsContext(t *testing.T) {
	saver := newGatedSaver()
	s := NewSyncer(saver, NewLedger().Snapshot)

	s.Schedule()
	<-saver.started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Flush(ctx), context.DeadlineExceeded)

	close(saver.release)
	assert.NoError(t, s.Close(context.Background()))
}

func TestSyncerScheduleAfterClose(t *testing.T) {
	saver := &scriptedSaver{}
	s := NewSyncer(saver, NewLedger().Snapshot)
	require.NoError(t, s.Close(context.Background()))

	s.Schedule()
	assert.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, 0, saver.Calls())
}
