package cli

import (
	"github.com/spf13/cobra"

	"github.com/rmoran/spotify-insights/internal/pipeline"
	"github.com/rmoran/spotify-insights/internal/store"
)

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Group tracks into mood clusters",
	Long: `Partition the processed track table into mood clusters with k-means over
the configured audio features, label each cluster from its centroid, and
write data/features/tracks_with_clusters.csv.

Requires a prior 'spotify-insights preprocess'. When audio features were
unavailable for the run this reports reduced data and writes nothing.
Works offline.`,
	RunE: runCluster,
}

func init() {
	rootCmd.AddCommand(clusterCmd)
}

func runCluster(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger()

	stage := pipeline.NewClusterStage(store.New(cfg.DataDir), cfg.ClusteringConfig(), log)

	results, err := pipeline.NewRunner(log).Run(cmd.Context(), stage)
	reportResults(results)
	return err
}
