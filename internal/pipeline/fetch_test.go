package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/rmoran/spotify-insights/internal/dataset"
	"github.com/rmoran/spotify-insights/internal/store"
)

type stubFetcher struct {
	tracks  map[string][]dataset.RawTrack
	artists map[string][]dataset.RawArtist

	features []dataset.RawAudioFeatures
	plays    []dataset.RawPlay

	tracksErr   error
	artistsErr  error
	featuresErr error
	playsErr    error
}

func (f *stubFetcher) TopTracks(_ context.Context, timeRange string) ([]dataset.RawTrack, error) {
	return f.tracks[timeRange], f.tracksErr
}

func (f *stubFetcher) TopArtists(_ context.Context, timeRange string) ([]dataset.RawArtist, error) {
	return f.artists[timeRange], f.artistsErr
}

func (f *stubFetcher) AudioFeatures(_ context.Context, trackIDs []string) ([]dataset.RawAudioFeatures, error) {
	return f.features, f.featuresErr
}

func (f *stubFetcher) RecentlyPlayed(_ context.Context, limit int) ([]dataset.RawPlay, error) {
	return f.plays, f.playsErr
}

func fullStub() *stubFetcher {
	return &stubFetcher{
		tracks: map[string][]dataset.RawTrack{
			"short_term": {{ID: "t1", Name: "One", Artists: []dataset.ArtistRef{{ID: "a1", Name: "A"}}}},
			"long_term":  {{ID: "t2", Name: "Two", Artists: []dataset.ArtistRef{{ID: "a1", Name: "A"}}}},
		},
		artists: map[string][]dataset.RawArtist{
			"short_term": {{ID: "a1", Name: "A", Genres: []string{"rock"}}},
			"long_term":  {{ID: "a1", Name: "A", Genres: []string{"rock"}}},
		},
		features: []dataset.RawAudioFeatures{
			{ID: "t1", FeatureVector: dataset.FeatureVector{Energy: 0.5}},
		},
		plays: []dataset.RawPlay{
			{TrackID: "t1", TrackName: "One", PlayedAt: time.Now().UTC()},
		},
	}
}

func fetchConfig() FetchConfig {
	return FetchConfig{
		TimeRanges:            []string{"short_term", "long_term"},
		IncludeRecentlyPlayed: true,
		RecentlyPlayedLimit:   50,
	}
}

func TestFetchStage(t *testing.T) {
	st := store.New(t.TempDir())
	stage := NewFetchStage(fullStub(), st, fetchConfig(), zerolog.Nop())

	res := stage.Run(context.Background())
	if res.Status != StatusSuccess {
		t.Fatalf("status = %s (%s), want success", res.Status, res.Reason)
	}

	for _, name := range []string{
		store.RawTopTracks("short_term"),
		store.RawTopTracks("long_term"),
		store.RawTopArtists("short_term"),
		store.RawTopArtists("long_term"),
		store.RawAudioFeatures,
		store.RawRecentlyPlayed,
	} {
		if !st.Exists(store.TierRaw, name) {
			t.Errorf("artifact %s not written", name)
		}
	}

	var features []dataset.RawAudioFeatures
	if err := st.ReadJSON(store.TierRaw, store.RawAudioFeatures, &features); err != nil {
		t.Fatalf("reading features: %v", err)
	}
	if len(features) != 1 || features[0].ID != "t1" {
		t.Errorf("features = %+v", features)
	}
}

func TestFetchStageTopTracksFailure(t *testing.T) {
	stub := fullStub()
	stub.tracksErr = errors.New("401 unauthorized")

	st := store.New(t.TempDir())
	res := NewFetchStage(stub, st, fetchConfig(), zerolog.Nop()).Run(context.Background())

	if res.Status != StatusFailed {
		t.Fatalf("status = %s, want failed", res.Status)
	}
}

func TestFetchStageAudioFeaturesForbidden(t *testing.T) {
	stub := fullStub()
	stub.features = nil
	stub.featuresErr = errors.New("403 forbidden")

	st := store.New(t.TempDir())
	res := NewFetchStage(stub, st, fetchConfig(), zerolog.Nop()).Run(context.Background())

	if res.Status != StatusDegraded {
		t.Fatalf("status = %s (%s), want degraded", res.Status, res.Reason)
	}

	// An empty artifact is written so stale data from an earlier run cannot
	// fake availability.
	var features []dataset.RawAudioFeatures
	if err := st.ReadJSON(store.TierRaw, store.RawAudioFeatures, &features); err != nil {
		t.Fatalf("reading features: %v", err)
	}
	if len(features) != 0 {
		t.Errorf("features = %+v, want empty", features)
	}
}

func TestFetchStageRecentlyPlayedFailure(t *testing.T) {
	stub := fullStub()
	stub.plays = nil
	stub.playsErr = errors.New("timeout")

	st := store.New(t.TempDir())
	res := NewFetchStage(stub, st, fetchConfig(), zerolog.Nop()).Run(context.Background())

	if res.Status != StatusDegraded {
		t.Fatalf("status = %s (%s), want degraded", res.Status, res.Reason)
	}
	if !st.Exists(store.TierRaw, store.RawRecentlyPlayed) {
		t.Error("empty recently-played artifact not written")
	}
}

func TestFetchStageBothOptionalFail(t *testing.T) {
	stub := fullStub()
	stub.featuresErr = errors.New("403")
	stub.playsErr = errors.New("timeout")

	st := store.New(t.TempDir())
	res := NewFetchStage(stub, st, fetchConfig(), zerolog.Nop()).Run(context.Background())

	if res.Status != StatusDegraded {
		t.Fatalf("status = %s, want degraded", res.Status)
	}
	if res.Reason == "" {
		t.Error("degraded result carries no reason")
	}
}
