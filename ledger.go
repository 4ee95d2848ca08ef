package chores

import (
	"fmt"
	"slices"
	"sort"
	"sync"
)

// CompletedTask records that a child finished a task on a given day.
// The (TaskID, Date, ChildName) triple is its identity.
type CompletedTask struct {
	TaskID    int    `json:"taskId"`
	Date      string `json:"date"`
	ChildName Child  `json:"childName"`
}

func (c CompletedTask) String() string {
	return fmt.Sprintf("%d/%s/%s", c.TaskID, c.Date, c.ChildName)
}

// Validate checks the entry's fields without consulting a catalog
func (c CompletedTask) Validate() error {
	if c.TaskID <= 0 {
		return fmt.Errorf("%w: task id %d", ErrUnknownTask, c.TaskID)
	}
	day, err := ParseDate(c.Date)
	if err != nil {
		return err
	}
	if FormatDate(day) != c.Date {
		return fmt.Errorf("%w: %q is not YYYY-MM-DD", ErrInvalidDate, c.Date)
	}
	if !c.ChildName.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownChild, c.ChildName)
	}
	return nil
}

// Ledger is the set of completion records. Entries are only ever added
// or removed, never edited in place.
type Ledger struct {
	mu        sync.RWMutex
	entries   map[CompletedTask]struct{}
	listeners []func([]CompletedTask)
}

// NewLedger creates a ledger holding the given entries
func NewLedger(entries ...CompletedTask) *Ledger {
	l := &Ledger{entries: make(map[CompletedTask]struct{}, len(entries))}
	for _, e := range entries {
		l.entries[e] = struct{}{}
	}
	return l
}

// OnChange registers fn to receive a snapshot after every mutation.
// Listeners run on the mutating goroutine, after the lock is released,
// so snapshots from concurrent toggles may arrive out of order.
func (l *Ledger) OnChange(fn func([]CompletedTask)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listeners = append(l.listeners, fn)
}

// Toggle removes the entry for the key if present, otherwise adds it.
// It returns the key's completion state after the call.
func (l *Ledger) Toggle(taskID int, date string, child Child) bool {
	key := CompletedTask{TaskID: taskID, Date: date, ChildName: child}

	l.mu.Lock()
	completed := reduceToggle(l.entries, key)
	snapshot := l.snapshotLocked()
	listeners := slices.Clone(l.listeners)
	l.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
	return completed
}

// reduceToggle flips membership of key and reports the new state
func reduceToggle(entries map[CompletedTask]struct{}, key CompletedTask) bool {
	if _, exists := entries[key]; exists {
		delete(entries, key)
		return false
	}
	entries[key] = struct{}{}
	return true
}

// IsCompleted reports whether the key is in the ledger
func (l *Ledger) IsCompleted(taskID int, date string, child Child) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.entries[CompletedTask{TaskID: taskID, Date: date, ChildName: child}]
	return ok
}

// PointsFor counts every entry recorded for child, across all days
func (l *Ledger) PointsFor(child Child) int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	points := 0
	for e := range l.entries {
		if e.ChildName == child {
			points++
		}
	}
	return points
}

// CompletedOn returns the sorted task ids child completed on date
func (l *Ledger) CompletedOn(date string, child Child) []int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var ids []int
	for e := range l.entries {
		if e.Date == date && e.ChildName == child {
			ids = append(ids, e.TaskID)
		}
	}
	sort.Ints(ids)
	return ids
}

// Len returns the number of entries
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Snapshot returns a copy of all entries ordered by date, child, task
func (l *Ledger) Snapshot() []CompletedTask {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshotLocked()
}

func (l *Ledger) snapshotLocked() []CompletedTask {
	out := make([]CompletedTask, 0, len(l.entries))
	for e := range l.entries {
		out = append(out, e)
	}
	SortEntries(out)
	return out
}

// Replace swaps the whole ledger for entries. Duplicate keys collapse
// into one. Listeners are not notified: replacing is hydration, not a
// user mutation.
func (l *Ledger) Replace(entries []CompletedTask) {
	next := make(map[CompletedTask]struct{}, len(entries))
	for _, e := range entries {
		next[e] = struct{}{}
	}

	l.mu.Lock()
	l.entries = next
	l.mu.Unlock()
}

// SortEntries orders entries by date, child and task id
func SortEntries(entries []CompletedTask) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.ChildName != b.ChildName {
			return a.ChildName < b.ChildName
		}
		return a.TaskID < b.TaskID
	})
}

// Dedupe returns entries with duplicate keys removed, in sorted order
func Dedupe(entries []CompletedTask) []CompletedTask {
	seen := make(map[CompletedTask]struct{}, len(entries))
	out := make([]CompletedTask, 0, len(entries))
	for _, e := range entries {
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	SortEntries(out)
	return out
}
