package chores

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFileRepositoryPersistence tests that the ledger is saved and loaded
func TestFileRepositoryPersistence(t *testing.T) {
	tmpDir := t.TempDir()

	repo, err := NewFileRepository(tmpDir)
	require.NoError(t, err)
	assert.DirExists(t, filepath.Join(tmpDir, ".chores"))

	// Missing file reads as an empty ledger
	entries, err := repo.GetAll()
	require.NoError(t, err)
	assert.Empty(t, entries)

	saved := []CompletedTask{
		{TaskID: 1, Date: "2025-04-13", ChildName: Aaliya},
		{TaskID: 6, Date: "2025-04-14", ChildName: Haidar},
	}
	require.NoError(t, repo.SetAll(saved))
	assert.FileExists(t, repo.Path())

	// A second repository on the same workspace sees the same data
	repo2, err := NewFileRepository(tmpDir)
	require.NoError(t, err)

	loaded, err := repo2.GetAll()
	require.NoError(t, err)
	assert.ElementsMatch(t, saved, loaded)
}

// TestFileRepositoryKeys tests that the ledger lives under its fixed key
// and other keys survive ledger writes
func TestFileRepositoryKeys(t *testing.T) {
	repo, err := NewFileRepository(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, repo.SaveSelection(Selection{Child: Haidar, Date: "2025-05-01"}))
	require.NoError(t, repo.SetAll([]CompletedTask{{TaskID: 2, Date: "2025-05-01", ChildName: Haidar}}))

	sel, found, err := repo.LoadSelection()
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, Selection{Child: Haidar, Date: "2025-05-01"}, sel)

	data, err := os.ReadFile(repo.Path())
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, LedgerKey)
	assert.Contains(t, raw, SelectionKey)
	assert.JSONEq(t, `[{"taskId":2,"date":"2025-05-01","childName":"haidar"}]`, string(raw[LedgerKey]))
}

func TestFileRepositoryCorruptFile(t *testing.T) {
	repo, err := NewFileRepository(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(repo.Path(), []byte("{not json"), 0644))

	_, err = repo.GetAll()
	assert.Error(t, err)
}

func TestFileRepositorySelectionMissing(t *testing.T) {
	repo, err := NewFileRepository(t.TempDir())
	require.NoError(t, err)

	_, found, err := repo.LoadSelection()
	require.NoError(t, err)
	assert.False(t, found)
}
