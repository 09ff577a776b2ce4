//go:build integration

package store

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	_ "modernc.org/sqlite"
)

func migratedDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := RunMigrations(db); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}
	return db
}

func TestRunMigrations_FreshDatabase(t *testing.T) {
	// Given: A fresh database, When: RunMigrations is called
	db := migratedDB(t)

	// Then: Every table exists with the expected columns
	queries := []string{
		`SELECT id, created_at, name, category, ingredients, instructions FROM recipes LIMIT 0`,
		`SELECT id, created_at, created_on, seq, name, organism, variant, medium FROM cultures LIMIT 0`,
		`SELECT id, created_at, created_on, seq, name, culture_id, recipe_id FROM intermediate_units LIMIT 0`,
		`SELECT id, created_at, created_on, seq, name, intermediate_id, recipe_id FROM terminal_units LIMIT 0`,
		`SELECT entity_id, observed_at, passed, action, recorded_at FROM culture_observations LIMIT 0`,
		`SELECT entity_id, observed_at, passed, action, recorded_at FROM intermediate_observations LIMIT 0`,
		`SELECT entity_id, observed_at, passed, action, harvested_yield, recorded_at FROM terminal_observations LIMIT 0`,
		`SELECT sequence, batch_id, entity_kind, entity_id, operation, observed_at, recorded_at FROM change_log LIMIT 0`,
	}
	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			t.Errorf("%s: %v", q, err)
		}
	}
}

func TestRunMigrations_Idempotent(t *testing.T) {
	// Given: A database that has already been migrated
	db := migratedDB(t)

	// When: RunMigrations is called again
	err := RunMigrations(db)

	// Then: No error occurs (idempotent)
	if err != nil {
		t.Fatalf("second migration should be idempotent, got error: %v", err)
	}
}

func TestRunMigrations_PreservesData(t *testing.T) {
	// Given: A database with existing data
	db := migratedDB(t)
	_, err := db.Exec(`
		INSERT INTO cultures (created_at, created_on, seq, name, organism)
		VALUES ('2024-01-01', '2024-01-01', 1, '20240101C001', 'Oyster')
	`)
	if err != nil {
		t.Fatalf("failed to insert test data: %v", err)
	}

	// When: RunMigrations is called again
	if err := RunMigrations(db); err != nil {
		t.Fatalf("re-migration failed: %v", err)
	}

	// Then: Existing data is preserved
	var organism string
	if err := db.QueryRow(`SELECT organism FROM cultures WHERE name = '20240101C001'`).Scan(&organism); err != nil {
		t.Fatalf("data not preserved after migration: %v", err)
	}
	if organism != "Oyster" {
		t.Errorf("expected organism 'Oyster', got %q", organism)
	}
}

func TestSchema_Indexes(t *testing.T) {
	db := migratedDB(t)

	expectedIndexes := []string{
		"idx_intermediate_units_culture",
		"idx_terminal_units_intermediate",
		"idx_culture_observations_action",
		"idx_intermediate_observations_action",
		"idx_terminal_observations_action",
		"idx_change_log_batch",
	}
	for _, idx := range expectedIndexes {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='index' AND name=?`, idx).Scan(&name)
		if err != nil {
			t.Errorf("index %s not found: %v", idx, err)
		}
	}
}

func TestSchema_SequenceUniquePerDay(t *testing.T) {
	db := migratedDB(t)

	insert := `INSERT INTO cultures (created_at, created_on, seq, name) VALUES ('2024-01-01', '2024-01-01', 1, ?)`
	if _, err := db.Exec(insert, "20240101C001"); err != nil {
		t.Fatal(err)
	}
	_, err := db.Exec(insert, "duplicate-seq")
	if err == nil || !strings.Contains(err.Error(), "UNIQUE constraint failed") {
		t.Fatalf("expected UNIQUE violation for repeated (created_on, seq), got %v", err)
	}
}

func TestSchema_ActionChecks(t *testing.T) {
	db := migratedDB(t)
	if _, err := db.Exec(`INSERT INTO cultures (created_at, created_on, seq, name) VALUES ('2024-01-01', '2024-01-01', 1, 'c')`); err != nil {
		t.Fatal(err)
	}

	_, err := db.Exec(`
		INSERT INTO culture_observations (entity_id, observed_at, passed, action, recorded_at)
		VALUES (1, '2024-01-02', 1, 'harvested', '2024-01-02T00:00:00Z')
	`)
	if err == nil || !strings.Contains(err.Error(), "CHECK constraint failed") {
		t.Fatalf("expected CHECK violation for culture harvest, got %v", err)
	}
}

func TestWALMode_Enabled(t *testing.T) {
	// Given: A new SQLiteStore
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer store.Close()

	// Then: WAL mode is enabled
	var journalMode string
	if err := store.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("failed to query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("expected journal_mode 'wal', got %q", journalMode)
	}
}

func TestPragmas_Applied(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer store.Close()

	var busyTimeout, synchronous int
	if err := store.db.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout); err != nil {
		t.Fatalf("failed to query busy_timeout: %v", err)
	}
	if busyTimeout != 5000 {
		t.Errorf("expected busy_timeout 5000, got %d", busyTimeout)
	}
	if err := store.db.QueryRow("PRAGMA synchronous").Scan(&synchronous); err != nil {
		t.Fatalf("failed to query synchronous: %v", err)
	}
	if synchronous != 1 {
		t.Errorf("expected synchronous 1 (NORMAL), got %d", synchronous)
	}
}
