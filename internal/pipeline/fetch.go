package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/rmoran/spotify-insights/internal/dataset"
	"github.com/rmoran/spotify-insights/internal/store"
)

// Fetcher is the upstream API surface the fetch stage depends on.
// *spotify.Client satisfies it; tests substitute stubs.
type Fetcher interface {
	TopTracks(ctx context.Context, timeRange string) ([]dataset.RawTrack, error)
	TopArtists(ctx context.Context, timeRange string) ([]dataset.RawArtist, error)
	AudioFeatures(ctx context.Context, trackIDs []string) ([]dataset.RawAudioFeatures, error)
	RecentlyPlayed(ctx context.Context, limit int) ([]dataset.RawPlay, error)
}

// FetchConfig holds fetch stage parameters.
type FetchConfig struct {
	TimeRanges            []string
	IncludeRecentlyPlayed bool
	RecentlyPlayedLimit   int
}

// FetchStage pulls raw entities from the upstream API and persists them
// verbatim to the raw tier.
type FetchStage struct {
	client Fetcher
	store  *store.Store
	cfg    FetchConfig
	log    zerolog.Logger
}

// NewFetchStage creates the fetch stage.
func NewFetchStage(client Fetcher, st *store.Store, cfg FetchConfig, log zerolog.Logger) *FetchStage {
	if len(cfg.TimeRanges) == 0 {
		cfg.TimeRanges = dataset.TimeRanges
	}
	return &FetchStage{
		client: client,
		store:  st,
		cfg:    cfg,
		log:    log.With().Str("stage", "fetch").Logger(),
	}
}

// Name implements Stage.
func (s *FetchStage) Name() string { return "fetch" }

// Run fetches top tracks and artists (required), then audio features and
// recently-played (optional). Optional sources are called defensively: a
// failure is recorded as an empty artifact and degrades the stage instead of
// failing it.
func (s *FetchStage) Run(ctx context.Context) StageResult {
	trackIDs := make(map[string]struct{})

	for _, timeRange := range s.cfg.TimeRanges {
		tracks, err := s.client.TopTracks(ctx, timeRange)
		if err != nil {
			return failed(s.Name(), fmt.Errorf("fetching top tracks (%s): %w", timeRange, err))
		}
		if err := s.store.WriteJSON(store.TierRaw, store.RawTopTracks(timeRange), tracks); err != nil {
			return failed(s.Name(), err)
		}
		for _, t := range tracks {
			trackIDs[t.ID] = struct{}{}
		}

		artists, err := s.client.TopArtists(ctx, timeRange)
		if err != nil {
			return failed(s.Name(), fmt.Errorf("fetching top artists (%s): %w", timeRange, err))
		}
		if err := s.store.WriteJSON(store.TierRaw, store.RawTopArtists(timeRange), artists); err != nil {
			return failed(s.Name(), err)
		}
	}

	var reasons []string

	if reason, err := s.fetchAudioFeatures(ctx, trackIDs); err != nil {
		return failed(s.Name(), err)
	} else if reason != "" {
		reasons = append(reasons, reason)
	}

	if s.cfg.IncludeRecentlyPlayed {
		if reason, err := s.fetchRecentlyPlayed(ctx); err != nil {
			return failed(s.Name(), err)
		} else if reason != "" {
			reasons = append(reasons, reason)
		}
	}

	if len(reasons) > 0 {
		return degraded(s.Name(), strings.Join(reasons, "; "))
	}
	return success(s.Name())
}

// fetchAudioFeatures pulls the attribute vectors for the collected track
// ids. An upstream failure is converted to an empty artifact so the
// preprocess stage sees "source empty" rather than a stale file from an
// earlier run. The returned reason is non-empty when the stage should
// degrade; the returned error only reports artifact-write failures.
func (s *FetchStage) fetchAudioFeatures(ctx context.Context, trackIDs map[string]struct{}) (string, error) {
	ids := make([]string, 0, len(trackIDs))
	for id := range trackIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	features, err := s.client.AudioFeatures(ctx, ids)
	if err != nil {
		s.log.Warn().Err(err).Msg("audio features unavailable, continuing without them")
		if werr := s.store.WriteJSON(store.TierRaw, store.RawAudioFeatures, []dataset.RawAudioFeatures{}); werr != nil {
			return "", werr
		}
		return "audio features unavailable: " + err.Error(), nil
	}
	if features == nil {
		features = []dataset.RawAudioFeatures{}
	}
	if err := s.store.WriteJSON(store.TierRaw, store.RawAudioFeatures, features); err != nil {
		return "", err
	}
	if len(features) == 0 {
		return "audio features unavailable: upstream returned none", nil
	}
	return "", nil
}

func (s *FetchStage) fetchRecentlyPlayed(ctx context.Context) (string, error) {
	plays, err := s.client.RecentlyPlayed(ctx, s.cfg.RecentlyPlayedLimit)
	if err != nil {
		s.log.Warn().Err(err).Msg("recently played unavailable, continuing without it")
		if werr := s.store.WriteJSON(store.TierRaw, store.RawRecentlyPlayed, []dataset.RawPlay{}); werr != nil {
			return "", werr
		}
		return "recently played unavailable: " + err.Error(), nil
	}
	if plays == nil {
		plays = []dataset.RawPlay{}
	}
	if err := s.store.WriteJSON(store.TierRaw, store.RawRecentlyPlayed, plays); err != nil {
		return "", err
	}
	return "", nil
}
