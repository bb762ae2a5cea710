// Package clustering partitions tracks into mood clusters over their audio
// features using k-means, and labels each cluster from its centroid.
package clustering

import (
	"errors"
	"fmt"

	"github.com/rmoran/spotify-insights/internal/dataset"
)

// Sentinel errors. ErrUnavailable is the distinct "clustering unavailable"
// condition: callers present it as a non-fatal message instead of aborting.
var (
	ErrUnavailable  = errors.New("audio features unavailable, clustering cannot run")
	ErrTooFewTracks = errors.New("not enough tracks with audio features to cluster")
)

// DefaultFeatures is the fixed feature vector used for clustering unless
// overridden in configuration. The set is explicit, never inferred from
// whatever columns happen to exist.
var DefaultFeatures = []string{
	"danceability",
	"energy",
	"valence",
	"acousticness",
	"tempo",
}

// Config holds clustering parameters.
type Config struct {
	K        int      // number of clusters
	Seed     int64    // seed for centroid initialization, fixed for reproducibility
	Features []string // named audio dimensions forming the feature vector
}

// DefaultConfig returns the recommended defaults.
func DefaultConfig() Config {
	return Config{
		K:        4,
		Seed:     42,
		Features: DefaultFeatures,
	}
}

func (c Config) validate() (Config, error) {
	if c.K <= 0 {
		c.K = DefaultConfig().K
	}
	if len(c.Features) == 0 {
		c.Features = DefaultFeatures
	}
	for _, name := range c.Features {
		if _, ok := (dataset.FeatureVector{}).Dimension(name); !ok {
			return c, fmt.Errorf("unknown feature dimension %q", name)
		}
	}
	return c, nil
}

// Cluster describes one mood cluster of the partition.
type Cluster struct {
	ID    int
	Label string
	Size  int
	// Centroid holds the mean raw (unstandardized) value of every known
	// dimension over the cluster's members. Labels are derived from it.
	Centroid map[string]float64
}

// Result is the outcome of a partition run.
type Result struct {
	Clusters  []Cluster
	Clustered int // tracks assigned a cluster
	Skipped   int // tracks without a feature vector, retained unclustered
}
