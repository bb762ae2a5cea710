package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rmoran/spotify-insights/internal/auth"
	"github.com/rmoran/spotify-insights/internal/config"
	"github.com/rmoran/spotify-insights/internal/pipeline"
	"github.com/rmoran/spotify-insights/internal/spotify"
	"github.com/rmoran/spotify-insights/internal/store"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch raw listening data from Spotify",
	Long: `Fetch your top tracks, top artists, audio features, and recent play
history from the Spotify Web API and persist them under data/raw.

Top tracks and artists are required; a failure there aborts the command.
Audio features and recent history are optional: when either cannot be
fetched an empty artifact is written and the command reports reduced
data instead of failing.`,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger()

	stage, err := newFetchStage(cmd.Context(), cfg, store.New(cfg.DataDir), log)
	if err != nil {
		return err
	}

	results, err := pipeline.NewRunner(log).Run(cmd.Context(), stage)
	reportResults(results)
	return err
}

// newFetchStage builds the fetch stage over an authenticated API client.
func newFetchStage(ctx context.Context, cfg *config.Config, st *store.Store, log zerolog.Logger) (*pipeline.FetchStage, error) {
	authenticator, err := auth.New(cfg.Spotify.ClientID, cfg.Spotify.ClientSecret, log)
	if err != nil {
		return nil, err
	}

	api, err := authenticator.Client(ctx)
	if err != nil {
		if errors.Is(err, auth.ErrNotAuthenticated) {
			return nil, fmt.Errorf("%w (spotify-insights auth)", err)
		}
		return nil, err
	}

	client := spotify.New(api, log)
	return pipeline.NewFetchStage(client, st, pipeline.FetchConfig{
		TimeRanges:            cfg.Fetch.TimeRanges,
		IncludeRecentlyPlayed: cfg.Fetch.RecentlyPlayed,
		RecentlyPlayedLimit:   cfg.Fetch.RecentlyPlayedLimit,
	}, log), nil
}

// reportResults prints a one-line summary per stage to stdout, alongside the
// structured log on stderr.
func reportResults(results []pipeline.StageResult) {
	for _, res := range results {
		switch res.Status {
		case pipeline.StatusSuccess:
			fmt.Printf("%-10s ok\n", res.Stage)
		case pipeline.StatusDegraded:
			fmt.Printf("%-10s reduced data: %s\n", res.Stage, res.Reason)
		case pipeline.StatusFailed:
			fmt.Printf("%-10s failed: %s\n", res.Stage, res.Reason)
		}
	}
}
