package chores

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
)

// Selection is the session's current child and day
type Selection struct {
	Child Child  `json:"child"`
	Date  string `json:"date"`
}

// LocalStore keeps the last-known-good ledger on this machine
type LocalStore interface {
	GetAll() ([]CompletedTask, error)
	SetAll(entries []CompletedTask) error
}

// SelectionStore is implemented by local stores that can remember the
// selection between sessions
type SelectionStore interface {
	LoadSelection() (Selection, bool, error)
	SaveSelection(sel Selection) error
}

// Remote is the remote completion store
type Remote interface {
	LoadAll(ctx context.Context) ([]CompletedTask, error)
	Saver
}

// Tracker owns all state of one tracking session: the catalog, the
// ledger, the selected child and day, and the stores the ledger is
// persisted to.
type Tracker struct {
	catalog  *Catalog
	window   Window
	ledger   *Ledger
	local    LocalStore
	remote   Remote
	syncer   *Syncer
	logger   *log.Logger
	syncOpts []SyncOption
	hydrate  Hydration

	// persistMu orders local writes so the newest ledger lands last
	persistMu sync.Mutex

	mu        sync.Mutex
	selection Selection
	degraded  error
	localErr  error
}

// Option configures a Tracker
type Option func(*Tracker)

// Hydration selects where Open reads the ledger from
type Hydration int

const (
	// HydrateRemote loads the remote snapshot and falls back to the
	// local copy when it cannot be read
	HydrateRemote Hydration = iota
	// HydrateLocal loads only the local copy, even with a remote set
	HydrateLocal
)

// WithHydration sets where Open reads the ledger from
func WithHydration(h Hydration) Option {
	return func(t *Tracker) { t.hydrate = h }
}

// WithCatalog replaces the built-in catalog
func WithCatalog(c *Catalog) Option {
	return func(t *Tracker) { t.catalog = c }
}

// WithWindow replaces the default tracking window
func WithWindow(w Window) Option {
	return func(t *Tracker) { t.window = w }
}

// WithLocalStore sets where the ledger is written after every change
func WithLocalStore(s LocalStore) Option {
	return func(t *Tracker) { t.local = s }
}

// WithRemote enables remote sync
func WithRemote(r Remote) Option {
	return func(t *Tracker) { t.remote = r }
}

// WithLogger sets the logger for warnings
func WithLogger(l *log.Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

// WithSyncOptions passes options to the remote write queue
func WithSyncOptions(opts ...SyncOption) Option {
	return func(t *Tracker) { t.syncOpts = append(t.syncOpts, opts...) }
}

// New creates a tracker with an empty ledger. Call Open to hydrate it.
func New(opts ...Option) *Tracker {
	t := &Tracker{
		catalog: DefaultCatalog(),
		window:  DefaultWindow(),
		ledger:  NewLedger(),
		logger:  log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(t)
	}

	t.selection = Selection{Child: Aaliya, Date: FormatDate(t.window.Start)}

	if t.remote != nil {
		syncOpts := append([]SyncOption{WithSyncLogger(t.logger)}, t.syncOpts...)
		t.syncer = NewSyncer(t.remote, t.ledger.Snapshot, syncOpts...)
	}

	t.ledger.OnChange(t.persist)
	return t
}

// OpenWorkspace creates a tracker persisting to <workspaceDir>/.chores
// and hydrates it
func OpenWorkspace(ctx context.Context, workspaceDir string, opts ...Option) (*Tracker, error) {
	repo, err := NewFileRepository(workspaceDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create file repository: %w", err)
	}

	t := New(append([]Option{WithLocalStore(repo)}, opts...)...)
	if err := t.Open(ctx); err != nil {
		_ = t.Close(ctx)
		return nil, err
	}
	return t, nil
}

// Open hydrates the ledger once at session start.
//
// With a remote configured, the remote snapshot wins and refreshes the
// local copy. If the remote cannot be read the tracker falls back to
// the local copy (or an empty ledger) and reports the failure through
// Degraded. Without a remote, or with HydrateLocal, the local store is
// the only source.
func (t *Tracker) Open(ctx context.Context) error {
	t.restoreSelection()

	if t.remote != nil && t.hydrate == HydrateRemote {
		entries, err := t.remote.LoadAll(ctx)
		if err == nil {
			t.ledger.Replace(entries)
			t.setDegraded(nil)
			if t.local != nil {
				if err := t.local.SetAll(t.ledger.Snapshot()); err != nil {
					t.logger.Printf("Warning: failed to refresh local copy: %v", err)
				}
			}
			return nil
		}

		t.logger.Printf("Warning: remote load failed, using local copy: %v", err)
		t.setDegraded(err)

		if t.local != nil {
			local, localErr := t.local.GetAll()
			if localErr != nil {
				t.logger.Printf("Warning: failed to read local copy, starting empty: %v", localErr)
				local = nil
			}
			t.ledger.Replace(local)
		}
		return nil
	}

	if t.local == nil {
		return nil
	}
	entries, err := t.local.GetAll()
	if err != nil {
		return fmt.Errorf("failed to load local ledger: %w", err)
	}
	t.ledger.Replace(entries)
	return nil
}

func (t *Tracker) restoreSelection() {
	store, ok := t.local.(SelectionStore)
	if !ok {
		return
	}
	sel, found, err := store.LoadSelection()
	if err != nil {
		t.logger.Printf("Warning: failed to read selection: %v", err)
		return
	}
	if !found || !sel.Child.Valid() {
		return
	}
	day, err := ParseDate(sel.Date)
	if err != nil || !t.window.Contains(day) {
		return
	}

	t.mu.Lock()
	t.selection = Selection{Child: sel.Child, Date: FormatDate(day)}
	t.mu.Unlock()
}

// persist is the ledger's change hook. The snapshot handed in may
// already be stale when toggles overlap, so the ledger is re-read while
// holding persistMu.
func (t *Tracker) persist([]CompletedTask) {
	if t.local != nil {
		t.persistMu.Lock()
		err := t.local.SetAll(t.ledger.Snapshot())
		t.persistMu.Unlock()
		if err != nil {
			t.logger.Printf("Warning: failed to write local copy: %v", err)
		}
		t.mu.Lock()
		t.localErr = err
		t.mu.Unlock()
	}
	if t.syncer == nil {
		return
	}
	// A degraded ledger may lack remote history; a full-snapshot save
	// would erase it. Saves resume after a successful Pull or an
	// explicit Push.
	if err := t.Degraded(); err != nil {
		t.logger.Printf("Warning: remote save held while degraded: %v", err)
		return
	}
	t.syncer.Schedule()
}

// Degraded returns the error that forced a fallback at load time, or nil
func (t *Tracker) Degraded() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.degraded
}

func (t *Tracker) setDegraded(err error) {
	t.mu.Lock()
	t.degraded = err
	t.mu.Unlock()
}

// Toggle flips the task for the selected child and day
func (t *Tracker) Toggle(taskID int) (bool, error) {
	sel := t.Selection()
	return t.ToggleAt(taskID, sel.Date, sel.Child)
}

// ToggleAt flips the task for any child and day. The tracking window is
// not enforced here.
func (t *Tracker) ToggleAt(taskID int, date string, child Child) (bool, error) {
	if _, ok := t.catalog.Task(taskID); !ok {
		return false, fmt.Errorf("%w: %d", ErrUnknownTask, taskID)
	}
	entry := CompletedTask{TaskID: taskID, Date: date, ChildName: child}
	if err := entry.Validate(); err != nil {
		return false, err
	}

	completed := t.ledger.Toggle(taskID, date, child)

	t.mu.Lock()
	err := t.localErr
	t.localErr = nil
	t.mu.Unlock()
	if err != nil {
		return completed, fmt.Errorf("failed to persist toggle: %w", err)
	}
	return completed, nil
}

// IsCompleted reports the task's state for the selected child and day
func (t *Tracker) IsCompleted(taskID int) bool {
	sel := t.Selection()
	return t.ledger.IsCompleted(taskID, sel.Date, sel.Child)
}

// IsCompletedAt reports the task's state for any child and day
func (t *Tracker) IsCompletedAt(taskID int, date string, child Child) bool {
	return t.ledger.IsCompleted(taskID, date, child)
}

// Points returns the cumulative points of child
func (t *Tracker) Points(child Child) int {
	return t.ledger.PointsFor(child)
}

// AllPoints returns the points of every known child
func (t *Tracker) AllPoints() map[Child]int {
	points := make(map[Child]int)
	for _, c := range Children() {
		points[c] = t.ledger.PointsFor(c)
	}
	return points
}

// Tasks returns the catalog in order
func (t *Tracker) Tasks() []Task {
	return t.catalog.ListTasks()
}

// Catalog returns the tracker's catalog
func (t *Tracker) Catalog() *Catalog {
	return t.catalog
}

// Window returns the tracking window
func (t *Tracker) Window() Window {
	return t.window
}

// Snapshot returns the current ledger contents
func (t *Tracker) Snapshot() []CompletedTask {
	return t.ledger.Snapshot()
}

// DayTask is a task as seen on the selected day by the selected child
type DayTask struct {
	Task
	Completed bool
	Options   []string
}

// Day lists every task with its state for the current selection
func (t *Tracker) Day() []DayTask {
	sel := t.Selection()
	tasks := t.catalog.ListTasks()

	day := make([]DayTask, 0, len(tasks))
	for _, task := range tasks {
		day = append(day, DayTask{
			Task:      task,
			Completed: t.ledger.IsCompleted(task.ID, sel.Date, sel.Child),
			Options:   task.Options(sel.Child),
		})
	}
	return day
}

// Selection returns the current child and day
func (t *Tracker) Selection() Selection {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.selection
}

// SelectChild switches the current child
func (t *Tracker) SelectChild(c Child) error {
	if !c.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownChild, c)
	}
	t.mu.Lock()
	t.selection.Child = c
	sel := t.selection
	t.mu.Unlock()
	return t.saveSelection(sel)
}

// SelectDate jumps to a day inside the tracking window
func (t *Tracker) SelectDate(date string) error {
	day, err := ParseDate(date)
	if err != nil {
		return err
	}
	if !t.window.Contains(day) {
		return fmt.Errorf("%w: %s is outside %s..%s", ErrInvalidDate, date,
			FormatDate(t.window.Start), FormatDate(t.window.End))
	}
	t.mu.Lock()
	t.selection.Date = FormatDate(day)
	sel := t.selection
	t.mu.Unlock()
	return t.saveSelection(sel)
}

// StepDate moves the selected day by days. It reports false and leaves
// the selection alone when the move would leave the window.
func (t *Tracker) StepDate(days int) (string, bool, error) {
	t.mu.Lock()
	current, err := ParseDate(t.selection.Date)
	if err != nil {
		t.mu.Unlock()
		return "", false, err
	}
	next, ok := t.window.Step(current, days)
	if !ok {
		t.mu.Unlock()
		return t.selection.Date, false, nil
	}
	t.selection.Date = FormatDate(next)
	sel := t.selection
	t.mu.Unlock()

	return sel.Date, true, t.saveSelection(sel)
}

func (t *Tracker) saveSelection(sel Selection) error {
	store, ok := t.local.(SelectionStore)
	if !ok {
		return nil
	}
	if err := store.SaveSelection(sel); err != nil {
		return fmt.Errorf("failed to save selection: %w", err)
	}
	return nil
}

// Pull replaces the ledger with the remote snapshot and refreshes the
// local copy. A successful pull clears degraded mode.
func (t *Tracker) Pull(ctx context.Context) error {
	if t.remote == nil {
		return fmt.Errorf("no remote configured")
	}
	entries, err := t.remote.LoadAll(ctx)
	if err != nil {
		return err
	}
	t.ledger.Replace(entries)
	t.setDegraded(nil)

	if t.local != nil {
		t.persistMu.Lock()
		err := t.local.SetAll(t.ledger.Snapshot())
		t.persistMu.Unlock()
		if err != nil {
			return fmt.Errorf("failed to write local copy: %w", err)
		}
	}
	return nil
}

// Push sends the current ledger to the remote, replacing its snapshot,
// and waits for the save. It is sent even while degraded, and a
// successful push clears degraded mode since both sides now agree.
func (t *Tracker) Push(ctx context.Context) error {
	if t.syncer == nil {
		return fmt.Errorf("no remote configured")
	}
	t.syncer.Schedule()
	if err := t.syncer.Flush(ctx); err != nil {
		return err
	}
	t.setDegraded(nil)
	return nil
}

// Flush waits for outstanding remote saves
func (t *Tracker) Flush(ctx context.Context) error {
	if t.syncer == nil {
		return nil
	}
	return t.syncer.Flush(ctx)
}

// SyncStatus reports the state of the remote write queue
func (t *Tracker) SyncStatus() SyncStatus {
	if t.syncer == nil {
		return SyncStatus{}
	}
	return t.syncer.Status()
}

// Close flushes outstanding saves and stops the sync worker
func (t *Tracker) Close(ctx context.Context) error {
	if t.syncer == nil {
		return nil
	}
	return t.syncer.Close(ctx)
}
