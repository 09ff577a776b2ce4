package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// GenerateSnapshot writes a consistent copy of the database to destPath
// using VACUUM INTO. The destination must not already exist.
func (s *SQLiteStore) GenerateSnapshot(ctx context.Context, destPath string) error {
	if _, err := os.Stat(destPath); err == nil {
		return fmt.Errorf("%w: %s", ErrSnapshotExists, destPath)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat snapshot destination: %w", err)
	}

	if dir := filepath.Dir(destPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create snapshot directory: %w", err)
		}
	}

	if _, err := s.db.ExecContext(ctx, `VACUUM INTO ?`, destPath); err != nil {
		return fmt.Errorf("vacuum into %s: %w", destPath, err)
	}

	slog.Info("snapshot generated", "path", destPath)
	return nil
}
