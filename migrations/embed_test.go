package migrations

import (
	"strings"
	"testing"
)

func TestEmbeddedFS_ContainsMigrationFiles(t *testing.T) {
	entries, err := FS.ReadDir(".")
	if err != nil {
		t.Fatalf("failed to read embedded FS: %v", err)
	}

	want := map[string]bool{
		"001_initial_schema.sql": false,
		"002_change_log.sql":     false,
	}
	for _, entry := range entries {
		if _, ok := want[entry.Name()]; ok {
			want[entry.Name()] = true
		}
	}

	for name, found := range want {
		if !found {
			t.Errorf("%s not found in embedded FS", name)
		}
	}
}

func TestEmbeddedFS_MigrationsHaveGooseDirectives(t *testing.T) {
	entries, err := FS.ReadDir(".")
	if err != nil {
		t.Fatalf("failed to read embedded FS: %v", err)
	}

	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		t.Run(entry.Name(), func(t *testing.T) {
			content, err := FS.ReadFile(entry.Name())
			if err != nil {
				t.Fatalf("failed to read migration file: %v", err)
			}
			s := string(content)
			if !strings.Contains(s, "-- +goose Up") {
				t.Error("migration missing '-- +goose Up' directive")
			}
			if !strings.Contains(s, "-- +goose Down") {
				t.Error("migration missing '-- +goose Down' directive")
			}
		})
	}
}

func TestEmbeddedFS_InitialSchemaCreatesObservationTables(t *testing.T) {
	content, err := FS.ReadFile("001_initial_schema.sql")
	if err != nil {
		t.Fatalf("failed to read migration file: %v", err)
	}

	for _, table := range []string{
		"CREATE TABLE recipes",
		"CREATE TABLE cultures",
		"CREATE TABLE intermediate_units",
		"CREATE TABLE terminal_units",
		"CREATE TABLE culture_observations",
		"CREATE TABLE intermediate_observations",
		"CREATE TABLE terminal_observations",
	} {
		if !strings.Contains(string(content), table) {
			t.Errorf("migration missing %q", table)
		}
	}
}
