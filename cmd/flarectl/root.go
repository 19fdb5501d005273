package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nyashahama/flareguard-backend/internal/model"
)

type rootOptions struct {
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "flarectl",
		Short:         "flarectl evaluates flare risk and symptom trends from JSON files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log engine decisions to stderr")

	cmd.AddCommand(newAssessCmd(opts), newTrendsCmd(opts))
	return cmd
}

func (o *rootOptions) logger(cmd *cobra.Command) *slog.Logger {
	if !o.verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// ─── HELPERS ─────────────────────────────────────────────────────────────────

// readInput decodes path ("-" for stdin) into dst, rejecting unknown fields.
func readInput(cmd *cobra.Command, path string, dst any) error {
	if path == "" {
		return fmt.Errorf("--input is required")
	}

	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseToday returns now when raw is empty, else the given UTC day at noon.
func parseToday(raw string) (func() time.Time, error) {
	if raw == "" {
		return time.Now, nil
	}
	day, err := time.Parse(model.DateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid --today (expected YYYY-MM-DD)")
	}
	day = day.Add(12 * time.Hour)
	return func() time.Time { return day }, nil
}
