package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperengineering/labbook/internal/types"
)

func TestGenerateSnapshot_CreatesFile(t *testing.T) {
	tmpDir := t.TempDir()
	s, err := NewSQLiteStore(filepath.Join(tmpDir, "labbook.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	c := mustCulture(t, s, "2024-01-01", strPtr("Oyster"), nil)

	dest := filepath.Join(tmpDir, "snapshots", "labbook-snapshot.db")
	if err := s.GenerateSnapshot(context.Background(), dest); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(dest); err != nil {
		t.Fatalf("snapshot not created: %v", err)
	}

	// The snapshot is a complete lab book.
	snap, err := NewSQLiteStore(dest)
	if err != nil {
		t.Fatal(err)
	}
	defer snap.Close()
	got, err := snap.GetCulture(context.Background(), c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != c.Name {
		t.Errorf("Name = %q, want %q", got.Name, c.Name)
	}
	entries, err := snap.CurrentAsOf(context.Background(), types.KindCulture, day("2024-01-01"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("snapshot inventory len = %d, want 1", len(entries))
	}
}

func TestGenerateSnapshot_RefusesExistingFile(t *testing.T) {
	tmpDir := t.TempDir()
	s := newTestStore(t)

	dest := filepath.Join(tmpDir, "existing.db")
	if err := os.WriteFile(dest, []byte("keep"), 0644); err != nil {
		t.Fatal(err)
	}

	err := s.GenerateSnapshot(context.Background(), dest)
	if !errors.Is(err, ErrSnapshotExists) {
		t.Fatalf("err = %v, want ErrSnapshotExists", err)
	}
	data, _ := os.ReadFile(dest)
	if string(data) != "keep" {
		t.Error("existing file was overwritten")
	}
}
