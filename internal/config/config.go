// Package config loads application configuration from file and environment.
package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/rmoran/spotify-insights/internal/clustering"
	"github.com/rmoran/spotify-insights/internal/dataset"
	"github.com/rmoran/spotify-insights/internal/pipeline"
)

// Config holds application configuration.
type Config struct {
	// DataDir is the root of the artifact tiers (raw/processed/features).
	DataDir string

	Spotify    SpotifyConfig
	Fetch      FetchConfig
	Preprocess PreprocessConfig
	Clusters   ClustersConfig
	Dashboard  DashboardConfig
}

// SpotifyConfig holds API credentials.
type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
}

// FetchConfig configures the fetch stage.
type FetchConfig struct {
	TimeRanges          []string
	RecentlyPlayed      bool
	RecentlyPlayedLimit int
}

// PreprocessConfig configures the preprocess stage.
type PreprocessConfig struct {
	MaxDropRate float64
}

// ClustersConfig configures the cluster stage.
type ClustersConfig struct {
	K        int
	Seed     int64
	Features []string
}

// DashboardConfig configures the dashboard server.
type DashboardConfig struct {
	Addr string
}

// Load reads configuration from file and environment.
// Credentials come from SPOTIFY_ID / SPOTIFY_SECRET unless set in the file.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Config file locations (in order of precedence)
	v.AddConfigPath(getConfigDir())
	v.AddConfigPath(".")

	v.SetDefault("data_dir", "data")
	v.SetDefault("fetch.time_ranges", dataset.TimeRanges)
	v.SetDefault("fetch.recently_played", true)
	v.SetDefault("fetch.recently_played_limit", 50)
	v.SetDefault("preprocess.max_drop_rate", pipeline.DefaultMaxDropRate)
	v.SetDefault("clusters.k", clustering.DefaultConfig().K)
	v.SetDefault("clusters.seed", clustering.DefaultConfig().Seed)
	v.SetDefault("clusters.features", clustering.DefaultFeatures)
	v.SetDefault("dashboard.addr", "127.0.0.1:8080")

	// Config file is optional
	_ = v.ReadInConfig()

	v.SetEnvPrefix("SPOTIFY_INSIGHTS")
	v.AutomaticEnv()

	cfg := &Config{
		DataDir: v.GetString("data_dir"),
		Spotify: SpotifyConfig{
			ClientID:     v.GetString("spotify.client_id"),
			ClientSecret: v.GetString("spotify.client_secret"),
		},
		Fetch: FetchConfig{
			TimeRanges:          v.GetStringSlice("fetch.time_ranges"),
			RecentlyPlayed:      v.GetBool("fetch.recently_played"),
			RecentlyPlayedLimit: v.GetInt("fetch.recently_played_limit"),
		},
		Preprocess: PreprocessConfig{
			MaxDropRate: v.GetFloat64("preprocess.max_drop_rate"),
		},
		Clusters: ClustersConfig{
			K:        v.GetInt("clusters.k"),
			Seed:     v.GetInt64("clusters.seed"),
			Features: v.GetStringSlice("clusters.features"),
		},
		Dashboard: DashboardConfig{
			Addr: v.GetString("dashboard.addr"),
		},
	}

	// Plain env vars win when the file leaves credentials unset.
	if cfg.Spotify.ClientID == "" {
		cfg.Spotify.ClientID = os.Getenv("SPOTIFY_ID")
	}
	if cfg.Spotify.ClientSecret == "" {
		cfg.Spotify.ClientSecret = os.Getenv("SPOTIFY_SECRET")
	}

	return cfg, nil
}

// ClusteringConfig converts the configured cluster parameters.
func (c *Config) ClusteringConfig() clustering.Config {
	return clustering.Config{
		K:        c.Clusters.K,
		Seed:     c.Clusters.Seed,
		Features: c.Clusters.Features,
	}
}

func getConfigDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(configDir, "spotify-insights")
}
