package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nyashahama/flareguard-backend/internal/assess"
	"github.com/nyashahama/flareguard-backend/internal/model"
	"github.com/nyashahama/flareguard-backend/internal/scoring"
)

// assessInput mirrors the body of POST /api/assess.
type assessInput struct {
	Weather *model.WeatherSnapshot `json:"weather"`
	Profile *model.UserProfile     `json:"profile"`
	Logs    []model.SymptomLog     `json:"logs"`
}

func newAssessCmd(root *rootOptions) *cobra.Command {
	var input, weightsPath string

	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Score one weather/profile/logs bundle with the deterministic scorer",
		Example: `  flarectl assess --input today.json
  flarectl assess --input - --weights weights.yaml < today.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var in assessInput
			if err := readInput(cmd, input, &in); err != nil {
				return err
			}

			weights, err := scoring.LoadWeights(weightsPath)
			if err != nil {
				return err
			}

			engine := assess.NewEngine(scoring.NewScorer(weights), nil, nil, root.logger(cmd))
			result, err := engine.Assess(cmd.Context(), in.Weather, in.Profile, in.Logs)
			if err != nil {
				return fmt.Errorf("assess: %w", err)
			}
			return writeJSON(cmd, result)
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "JSON file with weather, profile and logs (- for stdin)")
	cmd.Flags().StringVar(&weightsPath, "weights", "", "YAML file overriding the default scoring weights")
	return cmd
}
