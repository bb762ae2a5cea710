// Package cli implements the spotify-insights command tree.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rmoran/spotify-insights/internal/config"
)

var logLevel string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "spotify-insights",
	Short: "Personal Spotify listening analytics",
	Long: `spotify-insights builds a local dashboard of your Spotify listening habits.

It pulls your top tracks, top artists, audio features, and recent play
history from the Spotify Web API, normalizes them into local CSV tables,
groups your tracks into mood clusters, and serves the results as a web
dashboard. All data stays on your machine.

Typical usage:

  spotify-insights auth        # one-time browser login
  spotify-insights run         # fetch + preprocess + cluster
  spotify-insights dashboard   # browse the results`,
	SilenceUsage: true,
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

// newLogger creates the process logger from the --log-level flag.
func newLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// loadConfig loads configuration for a command.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	return cfg, nil
}
