package pipeline

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"

	"github.com/rmoran/spotify-insights/internal/clustering"
	"github.com/rmoran/spotify-insights/internal/dataset"
	"github.com/rmoran/spotify-insights/internal/store"
)

// writeProcessedTracks persists a processed track table plus its manifest.
func writeProcessedTracks(t *testing.T, st *store.Store, tracks []dataset.Track, featuresAvailable bool) {
	t.Helper()

	err := st.WriteTable(store.TierProcessed, store.ProcessedTracks, func(w io.Writer) error {
		return dataset.WriteTracks(w, tracks, dataset.TrackColumns{HasFeatures: featuresAvailable})
	})
	if err != nil {
		t.Fatal(err)
	}

	manifest := store.NewManifest()
	manifest.AudioFeaturesAvailable = featuresAvailable
	manifest.TrackCount = len(tracks)
	if err := st.WriteManifest(manifest); err != nil {
		t.Fatal(err)
	}
}

func clusterableTracks() []dataset.Track {
	tracks := make([]dataset.Track, 0, 10)
	for i := 0; i < 5; i++ {
		offset := float64(i) * 0.02
		tracks = append(tracks, dataset.Track{
			ID: "calm" + string(rune('a'+i)), Name: "Calm", Popularity: 1, DurationMs: 1,
			Features: &dataset.FeatureVector{Danceability: 0.2 + offset, Energy: 0.15 + offset, Valence: 0.2 + offset, Acousticness: 0.9 - offset, Tempo: 70 + float64(i)},
		})
	}
	for i := 0; i < 5; i++ {
		offset := float64(i) * 0.02
		tracks = append(tracks, dataset.Track{
			ID: "hype" + string(rune('a'+i)), Name: "Hype", Popularity: 1, DurationMs: 1,
			Features: &dataset.FeatureVector{Danceability: 0.85 - offset, Energy: 0.9 - offset, Valence: 0.8 - offset, Acousticness: 0.05 + offset, Tempo: 150 + float64(i)},
		})
	}
	return tracks
}

func TestClusterStage(t *testing.T) {
	st := store.New(t.TempDir())
	writeProcessedTracks(t, st, clusterableTracks(), true)

	cfg := clustering.Config{K: 4, Seed: 42, Features: clustering.DefaultFeatures}
	res := NewClusterStage(st, cfg, zerolog.Nop()).Run(context.Background())
	if res.Status != StatusSuccess {
		t.Fatalf("status = %s (%s), want success", res.Status, res.Reason)
	}

	var (
		clustered []dataset.Track
		cols      dataset.TrackColumns
	)
	err := st.ReadTable(store.TierFeatures, store.FeaturesTracks, func(r io.Reader) error {
		var err error
		clustered, cols, err = dataset.ReadTracks(r)
		return err
	})
	if err != nil {
		t.Fatalf("reading cluster table: %v", err)
	}
	if !cols.HasFeatures || !cols.HasClusters {
		t.Errorf("columns = %+v, want features and clusters", cols)
	}
	if len(clustered) != 10 {
		t.Fatalf("got %d tracks, want 10", len(clustered))
	}

	labels := make(map[string]bool)
	for _, track := range clustered {
		if track.ClusterID == nil {
			t.Errorf("track %s unclustered", track.ID)
			continue
		}
		if *track.ClusterID < 0 || *track.ClusterID >= cfg.K {
			t.Errorf("track %s cluster id %d out of range", track.ID, *track.ClusterID)
		}
		labels[track.ClusterLabel] = true
	}
	for label := range labels {
		found := false
		for _, known := range clustering.Labels {
			if label == known {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("unknown mood label %q", label)
		}
	}
}

func TestClusterStageSkippedTracksRetained(t *testing.T) {
	tracks := append(clusterableTracks(), dataset.Track{ID: "bare", Name: "Bare", Popularity: 1, DurationMs: 1})

	st := store.New(t.TempDir())
	writeProcessedTracks(t, st, tracks, true)

	cfg := clustering.Config{K: 2, Seed: 42, Features: clustering.DefaultFeatures}
	res := NewClusterStage(st, cfg, zerolog.Nop()).Run(context.Background())
	if res.Status != StatusDegraded {
		t.Fatalf("status = %s (%s), want degraded for skipped tracks", res.Status, res.Reason)
	}

	var clustered []dataset.Track
	err := st.ReadTable(store.TierFeatures, store.FeaturesTracks, func(r io.Reader) error {
		var err error
		clustered, _, err = dataset.ReadTracks(r)
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(clustered) != 11 {
		t.Fatalf("got %d tracks, want all 11 retained", len(clustered))
	}
	for _, track := range clustered {
		if track.ID == "bare" && track.ClusterID != nil {
			t.Error("featureless track was assigned a cluster")
		}
	}
}

func TestClusterStageNoManifest(t *testing.T) {
	st := store.New(t.TempDir())

	res := NewClusterStage(st, clustering.DefaultConfig(), zerolog.Nop()).Run(context.Background())
	if res.Status != StatusFailed {
		t.Fatalf("status = %s, want failed", res.Status)
	}
	if !errors.Is(res.Err, ErrMissingPrerequisite) {
		t.Errorf("err = %v, want ErrMissingPrerequisite", res.Err)
	}
}

func TestClusterStageFeaturesUnavailable(t *testing.T) {
	tracks := []dataset.Track{{ID: "t1", Name: "One", Popularity: 1, DurationMs: 1}}

	st := store.New(t.TempDir())
	writeProcessedTracks(t, st, tracks, false)

	res := NewClusterStage(st, clustering.DefaultConfig(), zerolog.Nop()).Run(context.Background())
	if res.Status != StatusDegraded {
		t.Fatalf("status = %s, want degraded", res.Status)
	}
	if st.Exists(store.TierFeatures, store.FeaturesTracks) {
		t.Error("cluster table written despite unavailable features")
	}
}
