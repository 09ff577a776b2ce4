// Package worker runs background maintenance for a lab book database.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/hyperengineering/labbook/internal/snapshot"
)

const (
	snapshotPrefix     = "labbook-"
	snapshotSuffix     = ".db"
	snapshotTimeLayout = "20060102T150405Z"
)

// Snapshotter writes a consistent copy of the database to a new file.
type Snapshotter interface {
	GenerateSnapshot(ctx context.Context, destPath string) error
}

// SnapshotCoordinator writes timestamped snapshots into a directory on an
// interval, optionally uploads each one, and prunes old files.
type SnapshotCoordinator struct {
	store    Snapshotter
	uploader snapshot.Uploader
	dir      string
	interval time.Duration
	keep     int
	now      func() time.Time
}

// NewSnapshotCoordinator creates a coordinator that snapshots store into dir.
// keep bounds the number of local snapshots retained; zero keeps all.
// The uploader parameter is optional; if nil, no upload is attempted.
func NewSnapshotCoordinator(
	store Snapshotter,
	dir string,
	interval time.Duration,
	keep int,
	uploader snapshot.Uploader,
) *SnapshotCoordinator {
	return &SnapshotCoordinator{
		store:    store,
		uploader: uploader,
		dir:      dir,
		interval: interval,
		keep:     keep,
		now:      time.Now,
	}
}

// Run starts the coordinator loop. A snapshot is taken immediately, then on
// every tick until ctx is cancelled.
func (c *SnapshotCoordinator) Run(ctx context.Context) {
	slog.Info("worker started",
		"component", "worker",
		"worker", "snapshot-coordinator",
		"action", "worker_started",
		"interval", c.interval.String(),
	)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.cycle(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopped",
				"component", "worker",
				"worker", "snapshot-coordinator",
				"action", "worker_stopped",
				"reason", "context_cancelled",
			)
			return
		case <-ticker.C:
			c.cycle(ctx)
		}
	}
}

func (c *SnapshotCoordinator) cycle(ctx context.Context) {
	path, err := c.RunOnce(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return // Graceful shutdown, don't log as error
		}
		slog.Warn("snapshot generation failed",
			"component", "worker",
			"worker", "snapshot-coordinator",
			"action", "snapshot_failed",
			"error", err,
		)
		return
	}
	slog.Info("snapshot cycle completed",
		"component", "worker",
		"worker", "snapshot-coordinator",
		"action", "cycle_complete",
		"path", path,
	)
}

// RunOnce takes one snapshot, uploads it when an uploader is set and prunes
// the directory. Upload and prune failures are logged, not returned: the
// local snapshot remains valid.
func (c *SnapshotCoordinator) RunOnce(ctx context.Context) (string, error) {
	path := filepath.Join(c.dir, snapshotName(c.now()))
	if err := c.store.GenerateSnapshot(ctx, path); err != nil {
		return "", err
	}

	if c.uploader != nil {
		c.upload(ctx, path)
	}

	if err := c.prune(); err != nil {
		slog.Warn("snapshot prune failed",
			"component", "worker",
			"worker", "snapshot-coordinator",
			"action", "prune_failed",
			"dir", c.dir,
			"error", err,
		)
	}
	return path, nil
}

func (c *SnapshotCoordinator) upload(ctx context.Context, path string) {
	key, err := c.uploader.Upload(ctx, path)
	if err != nil {
		slog.Warn("snapshot upload failed",
			"component", "worker",
			"worker", "snapshot-coordinator",
			"action", "snapshot_upload_failed",
			"path", path,
			"error", err,
		)
		return
	}
	if key == "" {
		return
	}
	slog.Info("snapshot uploaded",
		"component", "worker",
		"worker", "snapshot-coordinator",
		"action", "snapshot_uploaded",
		"key", key,
	)
}

// prune removes the oldest snapshots beyond the retention count.
func (c *SnapshotCoordinator) prune() error {
	if c.keep <= 0 {
		return nil
	}
	names, err := ListSnapshots(c.dir)
	if err != nil {
		return err
	}
	if len(names) <= c.keep {
		return nil
	}
	for _, name := range names[:len(names)-c.keep] {
		if err := os.Remove(filepath.Join(c.dir, name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", name, err)
		}
	}
	return nil
}

// ListSnapshots returns the coordinator-managed snapshot files in dir,
// oldest first. A missing directory yields no snapshots.
func ListSnapshots(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, snapshotPrefix) || !strings.HasSuffix(name, snapshotSuffix) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// snapshotName returns the file name for a snapshot taken at t,
// e.g. labbook-20240301T093000Z.db. Names sort chronologically.
func snapshotName(t time.Time) string {
	return snapshotPrefix + t.UTC().Format(snapshotTimeLayout) + snapshotSuffix
}
