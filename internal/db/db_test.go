package db

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func TestGetState_missing(t *testing.T) {
	database := newTestDB(t)

	got, err := database.GetState("nothing")
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if got != "" {
		t.Errorf("GetState() = %q, want empty", got)
	}
}

func TestSetState_roundtrip(t *testing.T) {
	database := newTestDB(t)

	if err := database.SetState("key", "one"); err != nil {
		t.Fatalf("SetState() error = %v", err)
	}
	if err := database.SetState("key", "two"); err != nil {
		t.Fatalf("SetState() overwrite error = %v", err)
	}

	got, err := database.GetState("key")
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if got != "two" {
		t.Errorf("GetState() = %q, want %q", got, "two")
	}
}

func TestLastSyncAt_unset(t *testing.T) {
	database := newTestDB(t)

	got, err := database.LastSyncAt()
	if err != nil {
		t.Fatalf("LastSyncAt() error = %v", err)
	}
	if !got.IsZero() {
		t.Errorf("LastSyncAt() = %v, want zero time", got)
	}
}

func TestLastSyncAt_roundtrip(t *testing.T) {
	database := newTestDB(t)

	want := time.Date(2026, 8, 27, 10, 30, 0, 0, time.UTC)
	if err := database.SetLastSyncAt(want); err != nil {
		t.Fatalf("SetLastSyncAt() error = %v", err)
	}

	got, err := database.LastSyncAt()
	if err != nil {
		t.Fatalf("LastSyncAt() error = %v", err)
	}
	if !got.Equal(want) {
		t.Errorf("LastSyncAt() = %v, want %v", got, want)
	}
}
