package main

import (
	"context"
	"fmt"
	"time"

	"github.com/hyperengineering/labbook/internal/snapshot"
	"github.com/spf13/cobra"
)

var (
	snapshotOut    string
	snapshotUpload bool
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Write a consistent copy of the database",
	Long: `Write a point-in-time copy of the lab book database to a new file.
With --upload the copy is pushed to the configured S3-compatible bucket and
a pre-signed download URL is printed.`,
	Example: `  labbook snapshot --out backups/labbook-2024-03-01.db
  labbook snapshot --out /tmp/lab.db --upload`,
	Args: cobra.NoArgs,
	RunE: runSnapshot,
}

func init() {
	snapshotCmd.Flags().StringVarP(&snapshotOut, "out", "o", "", "Destination file (required, must not exist)")
	snapshotCmd.Flags().BoolVar(&snapshotUpload, "upload", false, "Upload the snapshot to object storage")
	_ = snapshotCmd.MarkFlagRequired("out")
}

type snapshotResult struct {
	Path      string     `json:"path"`
	Key       string     `json:"key,omitempty"`
	URL       string     `json:"url,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, s *session) error {
		if snapshotUpload && s.cfg.SnapshotStorage.Bucket == "" {
			return fmt.Errorf("--upload: %w", snapshot.ErrNotConfigured)
		}
		if err := s.store.GenerateSnapshot(ctx, snapshotOut); err != nil {
			return fmt.Errorf("generate snapshot: %w", err)
		}
		res := snapshotResult{Path: snapshotOut}

		if snapshotUpload {
			uploader, err := snapshot.NewUploader(s.cfg.SnapshotStorage)
			if err != nil {
				return err
			}
			key, err := uploader.Upload(ctx, snapshotOut)
			if err != nil {
				return fmt.Errorf("upload snapshot: %w", err)
			}
			url, expires, err := uploader.PresignedURL(ctx, key)
			if err != nil {
				return fmt.Errorf("presign snapshot: %w", err)
			}
			res.Key, res.URL, res.ExpiresAt = key, url, &expires
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), res)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Snapshot written to %s\n", res.Path)
		if res.Key != "" {
			fmt.Fprintf(out, "Uploaded as %s\n", res.Key)
			fmt.Fprintf(out, "Download URL (expires %s):\n%s\n", res.ExpiresAt.Format(time.RFC3339), res.URL)
		}
		return nil
	})
}
