package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/psyche/internal/runner"
	"github.com/dshills/psyche/internal/schema"
	"github.com/dshills/psyche/internal/scoring"
)

func newScoreCmd(a *app) *cobra.Command {
	var (
		model, personaName string
		inventories        []string
		noCalibration      bool
		discStrategy       string
		format, outPath    string
		save               bool
	)
	cmd := &cobra.Command{
		Use:   "score <responses.json>",
		Short: "Score a saved response set without contacting a model",
		Long: "Score a JSON object mapping item ids to sample arrays, e.g. " +
			`{"1": [4, 5, 4], "disc_1": [20, 20]}. Inventories are detected from the item ids unless --inventories is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("score: %w", err)
			}
			var rs schema.ResponseSet
			if err := json.Unmarshal(data, &rs); err != nil {
				return fmt.Errorf("score: parse %s: %w", args[0], err)
			}

			keys := scoring.DetectInventories(rs)
			if len(inventories) > 0 {
				if keys, err = runner.Selection(inventories); err != nil {
					return err
				}
			}
			if len(keys) == 0 {
				return errors.New("score: no known item ids in response set")
			}
			strategy, err := scoring.ParseSampleStrategy(discStrategy)
			if err != nil {
				return err
			}

			s := scoring.New(scoring.WithCalibration(!noCalibration), scoring.WithDISCStrategy(strategy))
			results, err := s.ScoreAll(rs, keys...)
			if err != nil {
				return err
			}
			prof := &schema.ModelProfile{
				ModelName: model,
				Persona:   personaName,
				Timestamp: time.Now().UnixMilli(),
				Results:   results,
			}
			a.log.Debug().Strs("inventories", keys).Int("items", len(rs)).Bool("calibrated", s.Calibrated()).Msg("scored response set")

			if save {
				id, err := a.save(cmd.Context(), prof)
				if err != nil {
					return err
				}
				a.log.Info().Str("id", id).Msg("run saved")
			}
			return a.writeProfile(prof, format, outPath)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&model, "model", "m", "offline", "model name to label the profile with")
	f.StringVarP(&personaName, "persona", "p", schema.DefaultPersona, "persona label")
	f.StringSliceVarP(&inventories, "inventories", "i", nil, "inventories to score (default: detected)")
	f.BoolVar(&noCalibration, "no-calibration", false, "report raw sums without calibration")
	f.StringVar(&discStrategy, "disc-strategy", string(scoring.LastSample), "DISC sample reduction: last or mode")
	f.StringVarP(&format, "format", "f", "md", "output format: md or json")
	f.StringVarP(&outPath, "out", "o", "", "write output to a file instead of stdout")
	f.BoolVar(&save, "save", false, "store the scored profile")
	return cmd
}
