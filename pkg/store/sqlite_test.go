package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"beyondwords/pkg/db"
	"beyondwords/pkg/store"
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	d, err := db.Init(filepath.Join(t.TempDir(), "store_test.db"))
	if err != nil {
		t.Fatalf("db.Init failed: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return store.NewSQLiteStore(d)
}

func TestHistoryRoundtrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := &store.HistoryRecord{
		RequestID:   "req-1",
		Fingerprint: "abc123",
		TextLength:  11,
		Language:    "en-US",
		Destination: "out.wav",
		Tier:        "local",
		OutputPath:  "/tmp/out.wav",
		Container:   "wav",
		Cost:        0,
	}
	if err := s.AppendHistory(ctx, rec); err != nil {
		t.Fatalf("AppendHistory failed: %v", err)
	}

	got, err := s.RecentHistory(ctx, 10)
	if err != nil {
		t.Fatalf("RecentHistory failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	if got[0].RequestID != "req-1" || got[0].Tier != "local" || got[0].Fingerprint != "abc123" {
		t.Errorf("unexpected record: %+v", got[0])
	}
	if got[0].CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}
}

func TestStateRoundtrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, ok := s.GetState(ctx, "missing"); ok {
		t.Error("expected miss for unknown key")
	}

	if err := s.SetState(ctx, "last_policy_change", "2026-08-31T00:00:00Z"); err != nil {
		t.Fatalf("SetState failed: %v", err)
	}
	val, ok := s.GetState(ctx, "last_policy_change")
	if !ok || val != "2026-08-31T00:00:00Z" {
		t.Errorf("GetState = %q, %v", val, ok)
	}

	// Upsert overwrites.
	if err := s.SetState(ctx, "last_policy_change", "updated"); err != nil {
		t.Fatalf("SetState failed: %v", err)
	}
	val, _ = s.GetState(ctx, "last_policy_change")
	if val != "updated" {
		t.Errorf("expected 'updated', got %q", val)
	}

	if err := s.DeleteState(ctx, "last_policy_change"); err != nil {
		t.Fatalf("DeleteState failed: %v", err)
	}
	if _, ok := s.GetState(ctx, "last_policy_change"); ok {
		t.Error("expected miss after delete")
	}
}
