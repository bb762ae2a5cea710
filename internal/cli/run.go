package cli

import (
	"github.com/spf13/cobra"

	"github.com/rmoran/spotify-insights/internal/pipeline"
	"github.com/rmoran/spotify-insights/internal/store"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline (fetch, preprocess, cluster)",
	Long: `Run the three pipeline stages in order. A stage that completes with
reduced data (no audio features, no play history) does not stop the
pipeline; a failed stage does.`,
	RunE: runPipeline,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger()
	st := store.New(cfg.DataDir)

	fetchStage, err := newFetchStage(cmd.Context(), cfg, st, log)
	if err != nil {
		return err
	}

	results, err := pipeline.NewRunner(log).Run(cmd.Context(),
		fetchStage,
		pipeline.NewPreprocessStage(st, pipeline.PreprocessConfig{
			TimeRanges:  cfg.Fetch.TimeRanges,
			MaxDropRate: cfg.Preprocess.MaxDropRate,
		}, log),
		pipeline.NewClusterStage(st, cfg.ClusteringConfig(), log),
	)
	reportResults(results)
	return err
}
