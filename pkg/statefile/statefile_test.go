package statefile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_MissingFile(t *testing.T) {
	f, err := Open(filepath.Join(t.TempDir(), "policy.json"))
	require.NoError(t, err)

	f.View(func(doc Document) {
		assert.Equal(t, "local", doc.ActiveTier)
		assert.True(t, doc.ExternalServicesEnabled)
		assert.Empty(t, doc.DailyUsage)
	})
}

func TestOpen_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Open(path)
	assert.Error(t, err)
}

func TestUpdate_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.json")
	f, err := Open(path)
	require.NoError(t, err)

	err = f.Update(func(doc *Document) error {
		doc.ActiveTier = "cloud"
		doc.TotalCost = 1.25
		return nil
	})
	require.NoError(t, err)

	// The on-disk document reflects the mutation immediately.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc Document
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "cloud", doc.ActiveTier)
	assert.Equal(t, 1.25, doc.TotalCost)

	// Reopening sees the same state.
	f2, err := Open(path)
	require.NoError(t, err)
	f2.View(func(doc Document) {
		assert.Equal(t, "cloud", doc.ActiveTier)
	})
}

func TestUpdate_RollbackOnError(t *testing.T) {
	f, err := Open(filepath.Join(t.TempDir(), "policy.json"))
	require.NoError(t, err)

	sentinel := assert.AnError
	err = f.Update(func(doc *Document) error {
		doc.ActiveTier = "premium"
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)

	f.View(func(doc Document) {
		assert.Equal(t, "local", doc.ActiveTier, "rejected update must not change state")
	})
}

func TestUpdate_ConcurrentNoLostUpdates(t *testing.T) {
	f, err := Open(filepath.Join(t.TempDir(), "policy.json"))
	require.NoError(t, err)

	const n = 40
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = f.Update(func(doc *Document) error {
				doc.TotalCost += 0.5
				return nil
			})
		}()
	}
	wg.Wait()

	f.View(func(doc Document) {
		assert.InDelta(t, float64(n)*0.5, doc.TotalCost, 1e-9)
	})
}
