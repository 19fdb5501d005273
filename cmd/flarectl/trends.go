package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nyashahama/flareguard-backend/internal/model"
	"github.com/nyashahama/flareguard-backend/internal/trends"
)

type trendsInput struct {
	Logs []model.SymptomLog `json:"logs"`
}

func newTrendsCmd(_ *rootOptions) *cobra.Command {
	var (
		input string
		days  int
		today string
	)

	cmd := &cobra.Command{
		Use:   "trends",
		Short: "Summarise check-ins and weather correlations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 0 || days > 365 {
				return fmt.Errorf("--days must be between 0 and 365")
			}
			now, err := parseToday(today)
			if err != nil {
				return err
			}

			var in trendsInput
			if err := readInput(cmd, input, &in); err != nil {
				return err
			}
			return writeJSON(cmd, trends.NewWithClock(now).Analyze(in.Logs, days))
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", `JSON file shaped {"logs": [...]} (- for stdin)`)
	cmd.Flags().IntVar(&days, "days", 0, "Window size in days (0 uses 28)")
	cmd.Flags().StringVar(&today, "today", "", "Analyse as if today were this date (YYYY-MM-DD)")
	return cmd
}
