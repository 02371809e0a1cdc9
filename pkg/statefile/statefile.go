// Package statefile persists the tier policy and usage ledger as a single
// JSON document. Writes are atomic (temp file + rename) so concurrent
// readers never observe a torn document.
package statefile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// TierUsage is one day's accumulated usage for a tier.
type TierUsage struct {
	Count int     `json:"count"`
	Cost  float64 `json:"cost"`
}

// Document is the persisted policy/usage state.
type Document struct {
	ActiveTier              string                          `json:"activeTier"`
	ExternalServicesEnabled bool                            `json:"externalServicesEnabled"`
	DailyUsage              map[string]map[string]TierUsage `json:"dailyUsage"` // date -> tier -> usage
	TotalCost               float64                         `json:"totalCost"`
	LastReset               string                          `json:"lastReset,omitempty"` // RFC3339
}

func defaultDocument() Document {
	return Document{
		ActiveTier:              "local",
		ExternalServicesEnabled: true,
		DailyUsage:              make(map[string]map[string]TierUsage),
	}
}

// File is the loaded state document plus its on-disk location.
// All access goes through View/Update under a single mutex.
type File struct {
	path string

	mu  sync.Mutex
	doc Document
}

// Open loads the document at path, or initializes defaults when the file
// does not exist yet. A corrupt file is an error, not a silent reset.
func Open(path string) (*File, error) {
	f := &File{path: path, doc: defaultDocument()}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	if err := json.Unmarshal(data, &f.doc); err != nil {
		return nil, fmt.Errorf("failed to parse state file %s: %w", path, err)
	}
	if f.doc.DailyUsage == nil {
		f.doc.DailyUsage = make(map[string]map[string]TierUsage)
	}
	return f, nil
}

// View calls fn with a read-only copy of the document.
func (f *File) View(fn func(Document)) {
	f.mu.Lock()
	doc := f.snapshotLocked()
	f.mu.Unlock()
	fn(doc)
}

// Update calls fn on the document and persists the result before returning.
// If fn returns an error the document is left unchanged and nothing is
// written. A persistence failure is returned to the caller; state in memory
// is rolled back so memory and disk stay consistent.
func (f *File) Update(fn func(*Document) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	prev := f.snapshotLocked()

	if err := fn(&f.doc); err != nil {
		f.doc = prev
		return err
	}

	if err := f.saveLocked(); err != nil {
		f.doc = prev
		return fmt.Errorf("failed to persist state: %w", err)
	}
	return nil
}

// snapshotLocked deep-copies the document. Caller must hold mu.
func (f *File) snapshotLocked() Document {
	doc := f.doc
	doc.DailyUsage = make(map[string]map[string]TierUsage, len(f.doc.DailyUsage))
	for day, tiers := range f.doc.DailyUsage {
		m := make(map[string]TierUsage, len(tiers))
		for tier, u := range tiers {
			m[tier] = u
		}
		doc.DailyUsage[day] = m
	}
	return doc
}

// saveLocked writes the document atomically. Caller must hold mu.
func (f *File) saveLocked() error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(&f.doc, "", "  ")
	if err != nil {
		return err
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}
