package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/hyperengineering/labbook/internal/config"
	"github.com/hyperengineering/labbook/internal/metrics"
	"github.com/hyperengineering/labbook/internal/store"
	"github.com/hyperengineering/labbook/internal/types"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags: -ldflags "-X main.Version=1.0.0"
var Version = "dev"

var (
	configPath string
	dbOverride string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:           "labbook",
	Short:         "Labbook - cultivation lab inventory and lineage",
	Long:          "Record cultures, grain spawn and bags with their dated observations, and reconstruct the inventory as of any date.",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Config file (overrides LABBOOK_CONFIG_PATH)")
	rootCmd.PersistentFlags().StringVar(&dbOverride, "db", "",
		"Database path (overrides config and LABBOOK_DB_PATH)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"Output in JSON format")

	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(observeCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(currentCmd)
	rootCmd.AddCommand(valuesCmd)
	rootCmd.AddCommand(nextSeqCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(autosnapshotCmd)
}

// session is the per-command environment: loaded config and an open store.
type session struct {
	cfg   *config.Config
	store store.Store
}

// withSession loads configuration, initializes logging, opens the store and
// runs fn. Counters are seeded from the metrics textfile and written back
// afterwards, whether or not fn succeeded.
func withSession(cmd *cobra.Command, fn func(ctx context.Context, s *session) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if dbOverride != "" {
		cfg.Database.Path = dbOverride
	}

	slog.SetDefault(newLogger(cfg.Log, cmd.ErrOrStderr()))

	m := metrics.New()
	if cfg.Metrics.TextfilePath != "" {
		if err := m.LoadTextfile(cfg.Metrics.TextfilePath); err != nil {
			slog.Warn("metrics textfile not loaded", "path", cfg.Metrics.TextfilePath, "error", err)
		}
	}
	db, err := store.NewSQLiteStore(cfg.Database.Path, store.WithRecorder(m))
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("store close error", "error", err)
		}
	}()
	slog.Debug("store initialized", "path", cfg.Database.Path)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	runErr := fn(ctx, &session{cfg: cfg, store: db})

	if cfg.Metrics.TextfilePath != "" {
		if err := m.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
			slog.Warn("metrics export failed", "path", cfg.Metrics.TextfilePath, "error", err)
		}
	}
	return runErr
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// printJSON marshals v to JSON and writes to the given writer.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newTabWriter returns a configured tabwriter for aligned columns.
func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

// parseKindArg resolves a kind argument, optionally restricted to
// experiment kinds.
func parseKindArg(arg string, experimentOnly bool) (types.Kind, error) {
	kind, err := types.ParseKind(arg)
	if err != nil {
		return "", err
	}
	if experimentOnly && !kind.IsExperiment() {
		return "", fmt.Errorf("kind %q has no dated history; use culture, spawn or bag", arg)
	}
	return kind, nil
}

// parseDateFlag parses a --date value; empty means today.
func parseDateFlag(value string) (types.Date, error) {
	if value == "" {
		return types.DateOf(time.Now()), nil
	}
	return types.ParseDate(value)
}

// parseTimestampFlag parses a creation --date value; empty means now.
func parseTimestampFlag(value string) (types.Timestamp, error) {
	if value == "" {
		return types.TimeStamp(time.Now()), nil
	}
	return types.ParseTimestamp(value)
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
