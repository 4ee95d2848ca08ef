package chores

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

const (
	// LedgerKey is the fixed key the full ledger is stored under
	LedgerKey = "completedTasks"
	// SelectionKey holds the last selected child and date
	SelectionKey = "selection"
)

// FileRepository is a file-backed key/value store holding the local
// copy of the ledger. No caching: every call reads or writes the file
// under an exclusive lock.
type FileRepository struct {
	filePath string
}

// NewFileRepository creates the store under <workspaceDir>/.chores
func NewFileRepository(workspaceDir string) (*FileRepository, error) {
	filePath := filepath.Join(workspaceDir, ".chores", "store.json")

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create .chores directory: %w", err)
	}

	return &FileRepository{
		filePath: filePath,
	}, nil
}

// Path returns the backing file
func (r *FileRepository) Path() string {
	return r.filePath
}

// GetAll returns the stored ledger; a missing entry is an empty ledger
func (r *FileRepository) GetAll() ([]CompletedTask, error) {
	var entries []CompletedTask
	if _, err := r.Get(LedgerKey, &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []CompletedTask{}
	}
	return entries, nil
}

// SetAll replaces the stored ledger
func (r *FileRepository) SetAll(entries []CompletedTask) error {
	if entries == nil {
		entries = []CompletedTask{}
	}
	return r.Put(LedgerKey, entries)
}

// LoadSelection returns the persisted selection, if any
func (r *FileRepository) LoadSelection() (Selection, bool, error) {
	var sel Selection
	ok, err := r.Get(SelectionKey, &sel)
	return sel, ok, err
}

// SaveSelection persists the selection
func (r *FileRepository) SaveSelection(sel Selection) error {
	return r.Put(SelectionKey, sel)
}

// Get decodes the value stored under key into v.
// It reports false when the key is absent.
func (r *FileRepository) Get(key string, v any) (bool, error) {
	var found bool
	err := r.withFileLock(func(file *os.File) error {
		values, err := r.readValues(file)
		if err != nil {
			return err
		}
		raw, ok := values[key]
		if !ok {
			return nil
		}
		found = true
		if err := json.Unmarshal(raw, v); err != nil {
			return fmt.Errorf("failed to unmarshal %q: %w", key, err)
		}
		return nil
	})
	return found, err
}

// Put stores v under key, keeping every other key
// Lock → Read all → Replace key → Write → Unlock
func (r *FileRepository) Put(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %q: %w", key, err)
	}

	return r.withFileLock(func(file *os.File) error {
		values, err := r.readValues(file)
		if err != nil {
			return err
		}
		values[key] = raw
		return r.writeValues(file, values)
	})
}

// withFileLock executes a function with the file locked
func (r *FileRepository) withFileLock(fn func(*os.File) error) error {
	file, err := os.OpenFile(r.filePath, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX); err != nil {
		return fmt.Errorf("failed to lock file: %w", err)
	}
	defer syscall.Flock(int(file.Fd()), syscall.LOCK_UN)

	return fn(file)
}

func (r *FileRepository) readValues(file *os.File) (map[string]json.RawMessage, error) {
	values := make(map[string]json.RawMessage)

	fileInfo, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if fileInfo.Size() == 0 {
		return values, nil
	}

	data := make([]byte, fileInfo.Size())
	if _, err := file.ReadAt(data, 0); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to unmarshal store: %w", err)
	}
	return values, nil
}

func (r *FileRepository) writeValues(file *os.File, values map[string]json.RawMessage) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal store: %w", err)
	}

	if err := file.Truncate(0); err != nil {
		return fmt.Errorf("failed to truncate file: %w", err)
	}
	if _, err := file.Seek(0, 0); err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}
