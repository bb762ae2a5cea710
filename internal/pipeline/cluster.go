package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/rmoran/spotify-insights/internal/clustering"
	"github.com/rmoran/spotify-insights/internal/dataset"
	"github.com/rmoran/spotify-insights/internal/store"
)

// ClusterStage partitions the processed track table into mood clusters and
// writes the features tier. When the audio-attribute columns are missing it
// reports the distinct clustering-unavailable condition as a degraded result
// and leaves the processed tier untouched.
type ClusterStage struct {
	store *store.Store
	cfg   clustering.Config
	log   zerolog.Logger
}

// NewClusterStage creates the cluster stage.
func NewClusterStage(st *store.Store, cfg clustering.Config, log zerolog.Logger) *ClusterStage {
	return &ClusterStage{
		store: st,
		cfg:   cfg,
		log:   log.With().Str("stage", "cluster").Logger(),
	}
}

// Name implements Stage.
func (s *ClusterStage) Name() string { return "cluster" }

// Run reads the processed track table, clusters the tracks that carry a
// complete feature vector, and writes tracks_with_clusters.csv. Tracks that
// could not cluster are retained with empty cluster fields.
func (s *ClusterStage) Run(ctx context.Context) StageResult {
	_ = ctx // local file I/O only

	manifest, err := s.store.ReadManifest()
	if err != nil {
		if errors.Is(err, store.ErrMissingArtifact) {
			return failed(s.Name(), fmt.Errorf("%w: no processed manifest, run preprocess first", ErrMissingPrerequisite))
		}
		return failed(s.Name(), err)
	}
	if !manifest.AudioFeaturesAvailable {
		return degraded(s.Name(), clustering.ErrUnavailable.Error())
	}

	var (
		tracks []dataset.Track
		cols   dataset.TrackColumns
	)
	err = s.store.ReadTable(store.TierProcessed, store.ProcessedTracks, func(r io.Reader) error {
		var err error
		tracks, cols, err = dataset.ReadTracks(r)
		return err
	})
	if err != nil {
		if errors.Is(err, store.ErrMissingArtifact) {
			return failed(s.Name(), fmt.Errorf("%w: no processed track table, run preprocess first", ErrMissingPrerequisite))
		}
		return failed(s.Name(), err)
	}
	if !cols.HasFeatures {
		return degraded(s.Name(), clustering.ErrUnavailable.Error())
	}

	result, err := clustering.Partition(tracks, s.cfg)
	if err != nil {
		if errors.Is(err, clustering.ErrUnavailable) {
			return degraded(s.Name(), err.Error())
		}
		return failed(s.Name(), err)
	}

	err = s.store.WriteTable(store.TierFeatures, store.FeaturesTracks, func(w io.Writer) error {
		return dataset.WriteTracks(w, tracks, dataset.TrackColumns{HasFeatures: true, HasClusters: true})
	})
	if err != nil {
		return failed(s.Name(), err)
	}

	for _, c := range result.Clusters {
		s.log.Info().
			Int("cluster", c.ID).
			Str("label", c.Label).
			Int("size", c.Size).
			Float64("energy", c.Centroid["energy"]).
			Float64("valence", c.Centroid["valence"]).
			Msg("mood cluster")
	}
	s.log.Info().
		Int("clustered", result.Clustered).
		Int("skipped", result.Skipped).
		Msg("cluster table written")

	if result.Skipped > 0 {
		return degraded(s.Name(), fmt.Sprintf("%d tracks lacked a feature vector and were left unclustered", result.Skipped))
	}
	return success(s.Name())
}
