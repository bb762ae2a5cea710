package cli

import (
	"github.com/spf13/cobra"

	"github.com/rmoran/spotify-insights/internal/pipeline"
	"github.com/rmoran/spotify-insights/internal/store"
)

var preprocessCmd = &cobra.Command{
	Use:   "preprocess",
	Short: "Normalize raw data into the processed tables",
	Long: `Merge the raw artifacts into normalized CSV tables under data/processed:
one row per unique track, one per artist, plus the recent play history
and a manifest recording which optional sources were available.

Requires a prior 'spotify-insights fetch'. Works offline.`,
	RunE: runPreprocess,
}

func init() {
	rootCmd.AddCommand(preprocessCmd)
}

func runPreprocess(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger()

	stage := pipeline.NewPreprocessStage(store.New(cfg.DataDir), pipeline.PreprocessConfig{
		TimeRanges:  cfg.Fetch.TimeRanges,
		MaxDropRate: cfg.Preprocess.MaxDropRate,
	}, log)

	results, err := pipeline.NewRunner(log).Run(cmd.Context(), stage)
	reportResults(results)
	return err
}
