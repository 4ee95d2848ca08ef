package chores

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// ErrSyncerClosed is returned when waiting on a stopped Syncer
var ErrSyncerClosed = errors.New("syncer closed")

// Saver persists a full ledger snapshot
type Saver interface {
	SaveAll(ctx context.Context, entries []CompletedTask) error
}

// Syncer is a serialized write queue in front of a Saver. At most one
// save is in flight; mutations scheduled meanwhile are coalesced into a
// single follow-up save carrying the latest snapshot.
type Syncer struct {
	saver      Saver
	snapshot   func() []CompletedTask
	logger     *log.Logger
	newBackOff func() backoff.BackOff
	maxTries   uint

	ctx    context.Context
	cancel context.CancelFunc
	notify chan struct{}
	done   chan struct{}

	mu        sync.Mutex
	scheduled uint64 // latest generation asked for
	completed uint64 // generation covered by the last finished save
	progress  chan struct{}
	saves     int
	lastErr   error
	closed    bool
}

// SyncOption configures a Syncer
type SyncOption func(*Syncer)

// WithSyncLogger sets the logger for save failures
func WithSyncLogger(l *log.Logger) SyncOption {
	return func(s *Syncer) { s.logger = l }
}

// WithBackOff sets the retry schedule factory, called once per save
func WithBackOff(fn func() backoff.BackOff) SyncOption {
	return func(s *Syncer) { s.newBackOff = fn }
}

// WithMaxTries bounds the attempts per save (default 5)
func WithMaxTries(n uint) SyncOption {
	return func(s *Syncer) { s.maxTries = n }
}

// NewSyncer starts the worker. snapshot is called on the worker
// goroutine right before each save.
func NewSyncer(saver Saver, snapshot func() []CompletedTask, opts ...SyncOption) *Syncer {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Syncer{
		saver:    saver,
		snapshot: snapshot,
		logger:   log.New(io.Discard, "", 0),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 250 * time.Millisecond
			b.MaxInterval = 5 * time.Second
			return b
		},
		maxTries: 5,
		ctx:      ctx,
		cancel:   cancel,
		notify:   make(chan struct{}, 1),
		done:     make(chan struct{}),
		progress: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	go s.run()
	return s
}

// Schedule requests a save of the current snapshot. It never blocks.
func (s *Syncer) Schedule() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.scheduled++
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
		// a wake-up is already pending; it will pick up this generation
	}
}

// Flush waits until every save scheduled before the call has been
// attempted, and returns the result of the most recent attempt.
func (s *Syncer) Flush(ctx context.Context) error {
	s.mu.Lock()
	target := s.scheduled
	s.mu.Unlock()

	for {
		s.mu.Lock()
		if s.completed >= target {
			err := s.lastErr
			s.mu.Unlock()
			return err
		}
		wait := s.progress
		s.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return ErrSyncerClosed
		}
	}
}

// Close flushes pending saves, then stops the worker
func (s *Syncer) Close(ctx context.Context) error {
	err := s.Flush(ctx)

	s.mu.Lock()
	already := s.closed
	s.closed = true
	s.mu.Unlock()

	if !already {
		s.cancel()
		<-s.done
	}
	if errors.Is(err, ErrSyncerClosed) {
		return nil
	}
	return err
}

// SyncStatus is a point-in-time view of the queue
type SyncStatus struct {
	Pending   bool
	Saves     int
	LastError error
}

// Status reports whether saves are outstanding and how the last ended
func (s *Syncer) Status() SyncStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SyncStatus{
		Pending:   s.completed < s.scheduled,
		Saves:     s.saves,
		LastError: s.lastErr,
	}
}

func (s *Syncer) run() {
	defer close(s.done)

	for {
		select {
		case <-s.notify:
		case <-s.ctx.Done():
			return
		}

		s.mu.Lock()
		generation := s.scheduled
		s.mu.Unlock()

		err := s.save(s.snapshot())
		if err != nil {
			s.logger.Printf("Warning: failed to save completions: %v", err)
		}

		s.mu.Lock()
		s.completed = generation
		s.saves++
		s.lastErr = err
		close(s.progress)
		s.progress = make(chan struct{})
		s.mu.Unlock()
	}
}

func (s *Syncer) save(entries []CompletedTask) error {
	operation := func() (struct{}, error) {
		err := s.saver.SaveAll(s.ctx, entries)
		if err == nil {
			return struct{}{}, nil
		}
		var syncErr *SyncError
		if errors.As(err, &syncErr) && !syncErr.Temporary() {
			return struct{}{}, backoff.Permanent(err)
		}
		if s.ctx.Err() != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		s.logger.Printf("save attempt failed: %v", err)
		return struct{}{}, err
	}

	_, err := backoff.Retry(s.ctx, operation,
		backoff.WithBackOff(s.newBackOff()),
		backoff.WithMaxTries(s.maxTries),
	)
	return err
}
