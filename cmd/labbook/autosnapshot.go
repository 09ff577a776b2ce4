package main

import (
	"context"
	"fmt"
	"time"

	"github.com/hyperengineering/labbook/internal/snapshot"
	"github.com/hyperengineering/labbook/internal/worker"
	"github.com/spf13/cobra"
)

var (
	autoDir      string
	autoInterval time.Duration
	autoKeep     int
	autoUpload   bool
	autoOnce     bool
)

var autosnapshotCmd = &cobra.Command{
	Use:   "autosnapshot",
	Short: "Take timestamped snapshots on an interval",
	Long: `Write labbook-<UTC timestamp>.db snapshots into a directory on an
interval until interrupted, keeping only the newest --keep files. With
--upload each snapshot is also pushed to the configured bucket; upload
failures are logged and the local snapshot is kept.`,
	Example: `  labbook autosnapshot --dir backups --every 6h --keep 28
  labbook autosnapshot --dir backups --once --upload`,
	Args: cobra.NoArgs,
	RunE: runAutosnapshot,
}

func init() {
	autosnapshotCmd.Flags().StringVar(&autoDir, "dir", "snapshots", "Snapshot directory")
	autosnapshotCmd.Flags().DurationVar(&autoInterval, "every", time.Hour, "Interval between snapshots")
	autosnapshotCmd.Flags().IntVar(&autoKeep, "keep", 24, "Snapshots to retain (0 keeps all)")
	autosnapshotCmd.Flags().BoolVar(&autoUpload, "upload", false, "Upload each snapshot to object storage")
	autosnapshotCmd.Flags().BoolVar(&autoOnce, "once", false, "Take one snapshot and exit")
}

func runAutosnapshot(cmd *cobra.Command, args []string) error {
	if autoInterval <= 0 {
		return fmt.Errorf("--every must be positive")
	}
	if autoKeep < 0 {
		return fmt.Errorf("--keep must not be negative")
	}

	return withSession(cmd, func(ctx context.Context, s *session) error {
		var uploader snapshot.Uploader
		if autoUpload {
			if s.cfg.SnapshotStorage.Bucket == "" {
				return fmt.Errorf("--upload: %w", snapshot.ErrNotConfigured)
			}
			u, err := snapshot.NewUploader(s.cfg.SnapshotStorage)
			if err != nil {
				return err
			}
			uploader = u
		}

		coord := worker.NewSnapshotCoordinator(s.store, autoDir, autoInterval, autoKeep, uploader)
		if autoOnce {
			path, err := coord.RunOnce(ctx)
			if err != nil {
				return fmt.Errorf("generate snapshot: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Snapshot written to %s\n", path)
			return nil
		}

		coord.Run(ctx)
		return nil
	})
}
