package pipeline

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/rmoran/spotify-insights/internal/dataset"
	"github.com/rmoran/spotify-insights/internal/store"
)

// DefaultMaxDropRate is the fraction of malformed records tolerated before
// the preprocess stage fails instead of producing a near-empty table.
const DefaultMaxDropRate = 0.2

// PreprocessConfig holds preprocess stage parameters.
type PreprocessConfig struct {
	TimeRanges  []string
	MaxDropRate float64
}

// PreprocessStage normalizes raw entities into the processed tables. It
// tolerates a missing or empty audio-attribute artifact entirely: the track
// table is then written without attribute columns and the manifest flags the
// source unavailable.
type PreprocessStage struct {
	store *store.Store
	cfg   PreprocessConfig
	log   zerolog.Logger
}

// NewPreprocessStage creates the preprocess stage.
func NewPreprocessStage(st *store.Store, cfg PreprocessConfig, log zerolog.Logger) *PreprocessStage {
	if len(cfg.TimeRanges) == 0 {
		cfg.TimeRanges = dataset.TimeRanges
	}
	if cfg.MaxDropRate <= 0 {
		cfg.MaxDropRate = DefaultMaxDropRate
	}
	return &PreprocessStage{
		store: st,
		cfg:   cfg,
		log:   log.With().Str("stage", "preprocess").Logger(),
	}
}

// Name implements Stage.
func (s *PreprocessStage) Name() string { return "preprocess" }

// Run merges the raw tier into the processed tables, stably sorted by
// identifier, and writes the manifest with the availability flags.
func (s *PreprocessStage) Run(ctx context.Context) StageResult {
	_ = ctx // local file I/O only

	rawTracks, trackArtifacts := s.loadRawTracks()
	if trackArtifacts == 0 {
		return failed(s.Name(), fmt.Errorf("%w: no raw top-tracks artifacts under %s, run fetch first",
			ErrMissingPrerequisite, s.store.Path(store.TierRaw, "")))
	}

	rawArtists, artistArtifacts := s.loadRawArtists()
	if artistArtifacts == 0 {
		return failed(s.Name(), fmt.Errorf("%w: no raw top-artists artifacts under %s, run fetch first",
			ErrMissingPrerequisite, s.store.Path(store.TierRaw, "")))
	}

	var rawFeatures []dataset.RawAudioFeatures
	if err := s.store.ReadJSON(store.TierRaw, store.RawAudioFeatures, &rawFeatures); err != nil {
		// Absence of the attribute artifact is the degrade path, not an error.
		rawFeatures = nil
	}

	var rawPlays []dataset.RawPlay
	if err := s.store.ReadJSON(store.TierRaw, store.RawRecentlyPlayed, &rawPlays); err != nil {
		rawPlays = nil
	}

	artists, droppedArtists := mergeArtists(rawArtists, s.cfg.TimeRanges)
	tracks, droppedTracks := mergeTracks(rawTracks, s.cfg.TimeRanges, rawFeatures, artists)
	plays, droppedPlays := processPlays(rawPlays)

	totalRaw := countRawRecords(rawTracks, rawArtists, rawPlays)
	dropped := droppedTracks + droppedArtists + droppedPlays
	if totalRaw > 0 && float64(dropped)/float64(totalRaw) > s.cfg.MaxDropRate {
		return failed(s.Name(), fmt.Errorf("dropped %d of %d raw records (over the %.0f%% threshold), refusing to write a near-empty result",
			dropped, totalRaw, s.cfg.MaxDropRate*100))
	}

	featuresAvailable := len(rawFeatures) > 0

	err := s.store.WriteTable(store.TierProcessed, store.ProcessedTracks, func(w io.Writer) error {
		return dataset.WriteTracks(w, tracks, dataset.TrackColumns{HasFeatures: featuresAvailable})
	})
	if err != nil {
		return failed(s.Name(), err)
	}

	err = s.store.WriteTable(store.TierProcessed, store.ProcessedArtists, func(w io.Writer) error {
		return dataset.WriteArtists(w, artists)
	})
	if err != nil {
		return failed(s.Name(), err)
	}

	if len(plays) > 0 {
		err = s.store.WriteTable(store.TierProcessed, store.ProcessedPlays, func(w io.Writer) error {
			return dataset.WritePlays(w, plays)
		})
		if err != nil {
			return failed(s.Name(), err)
		}
	} else if err := s.store.Remove(store.TierProcessed, store.ProcessedPlays); err != nil {
		return failed(s.Name(), err)
	}

	manifest := store.NewManifest()
	manifest.AudioFeaturesAvailable = featuresAvailable
	manifest.RecentlyPlayedAvailable = len(plays) > 0
	manifest.TrackCount = len(tracks)
	manifest.ArtistCount = len(artists)
	manifest.PlayCount = len(plays)
	manifest.DroppedRecords = dropped
	if err := s.store.WriteManifest(manifest); err != nil {
		return failed(s.Name(), err)
	}

	s.log.Info().
		Int("tracks", len(tracks)).
		Int("artists", len(artists)).
		Int("plays", len(plays)).
		Int("dropped", dropped).
		Bool("audio_features", featuresAvailable).
		Msg("processed tables written")

	var reasons []string
	if !featuresAvailable {
		reasons = append(reasons, "audio features unavailable")
	}
	if len(plays) == 0 {
		reasons = append(reasons, "recently played unavailable")
	}
	if len(reasons) > 0 {
		return degraded(s.Name(), strings.Join(reasons, "; "))
	}
	return success(s.Name())
}

// loadRawTracks reads every per-range top-tracks artifact that exists,
// returning the records keyed by range and the number of artifacts found.
func (s *PreprocessStage) loadRawTracks() (map[string][]dataset.RawTrack, int) {
	byRange := make(map[string][]dataset.RawTrack)
	found := 0
	for _, timeRange := range s.cfg.TimeRanges {
		var tracks []dataset.RawTrack
		if err := s.store.ReadJSON(store.TierRaw, store.RawTopTracks(timeRange), &tracks); err != nil {
			continue
		}
		byRange[timeRange] = tracks
		found++
	}
	return byRange, found
}

func (s *PreprocessStage) loadRawArtists() (map[string][]dataset.RawArtist, int) {
	byRange := make(map[string][]dataset.RawArtist)
	found := 0
	for _, timeRange := range s.cfg.TimeRanges {
		var artists []dataset.RawArtist
		if err := s.store.ReadJSON(store.TierRaw, store.RawTopArtists(timeRange), &artists); err != nil {
			continue
		}
		byRange[timeRange] = artists
		found++
	}
	return byRange, found
}

// mergeTracks flattens the per-range raw tracks into one row per track id.
// Audio features are left-joined so tracks survive without a matching row;
// genre enrichment applies when the primary artist is present in the artist
// table. Records missing an id or name are dropped and counted. The result
// is stably sorted by track id.
func mergeTracks(byRange map[string][]dataset.RawTrack, ranges []string, rawFeatures []dataset.RawAudioFeatures, artists []dataset.Artist) ([]dataset.Track, int) {
	featuresByID := make(map[string]dataset.FeatureVector, len(rawFeatures))
	for _, f := range rawFeatures {
		featuresByID[f.ID] = f.FeatureVector
	}
	genresByArtist := make(map[string]string, len(artists))
	for _, a := range artists {
		genresByArtist[a.ID] = a.Genres
	}

	byID := make(map[string]*dataset.Track)
	var order []string
	dropped := 0

	for _, timeRange := range ranges {
		for _, raw := range byRange[timeRange] {
			if raw.ID == "" || raw.Name == "" {
				dropped++
				continue
			}

			if existing, ok := byID[raw.ID]; ok {
				if !strings.Contains(existing.TimeRanges, timeRange) {
					existing.TimeRanges += "," + timeRange
				}
				continue
			}

			track := flattenTrack(raw, timeRange)
			if fv, ok := featuresByID[raw.ID]; ok {
				v := fv
				track.Features = &v
			}
			track.Genres = genresByArtist[track.ArtistID]

			byID[raw.ID] = &track
			order = append(order, raw.ID)
		}
	}

	tracks := make([]dataset.Track, 0, len(order))
	for _, id := range order {
		tracks = append(tracks, *byID[id])
	}
	slices.SortStableFunc(tracks, func(a, b dataset.Track) int {
		return strings.Compare(a.ID, b.ID)
	})
	return tracks, dropped
}

// flattenTrack converts a raw track into a processed row.
func flattenTrack(raw dataset.RawTrack, timeRange string) dataset.Track {
	names := make([]string, len(raw.Artists))
	for i, a := range raw.Artists {
		names[i] = a.Name
	}

	track := dataset.Track{
		ID:         raw.ID,
		Name:       raw.Name,
		AllArtists: strings.Join(names, ", "),
		AlbumName:  raw.AlbumName,
		Popularity: raw.Popularity,
		DurationMs: raw.DurationMs,
		Explicit:   raw.Explicit,
		TimeRanges: timeRange,
	}
	if len(raw.Artists) > 0 {
		track.ArtistID = raw.Artists[0].ID
		track.ArtistName = raw.Artists[0].Name
	}
	return track
}

// mergeArtists flattens the per-range raw artists into one row per artist
// id, stably sorted by id.
func mergeArtists(byRange map[string][]dataset.RawArtist, ranges []string) ([]dataset.Artist, int) {
	byID := make(map[string]*dataset.Artist)
	var order []string
	dropped := 0

	for _, timeRange := range ranges {
		for _, raw := range byRange[timeRange] {
			if raw.ID == "" || raw.Name == "" {
				dropped++
				continue
			}

			if existing, ok := byID[raw.ID]; ok {
				if !strings.Contains(existing.TimeRanges, timeRange) {
					existing.TimeRanges += "," + timeRange
				}
				continue
			}

			byID[raw.ID] = &dataset.Artist{
				ID:         raw.ID,
				Name:       raw.Name,
				Genres:     strings.Join(raw.Genres, ", "),
				Popularity: raw.Popularity,
				Followers:  raw.Followers,
				TimeRanges: timeRange,
			}
			order = append(order, raw.ID)
		}
	}

	artists := make([]dataset.Artist, 0, len(order))
	for _, id := range order {
		artists = append(artists, *byID[id])
	}
	slices.SortStableFunc(artists, func(a, b dataset.Artist) int {
		return strings.Compare(a.ID, b.ID)
	})
	return artists, dropped
}

// processPlays drops history entries without a usable timestamp or track
// reference and sorts the rest newest first.
func processPlays(raw []dataset.RawPlay) ([]dataset.Play, int) {
	plays := make([]dataset.Play, 0, len(raw))
	dropped := 0
	for _, p := range raw {
		if p.TrackID == "" || p.PlayedAt.IsZero() {
			dropped++
			continue
		}
		plays = append(plays, dataset.Play{
			TrackID:   p.TrackID,
			TrackName: p.TrackName,
			Artists:   p.Artists,
			PlayedAt:  p.PlayedAt,
		})
	}
	slices.SortStableFunc(plays, func(a, b dataset.Play) int {
		return b.PlayedAt.Compare(a.PlayedAt)
	})
	return plays, dropped
}

func countRawRecords(tracks map[string][]dataset.RawTrack, artists map[string][]dataset.RawArtist, plays []dataset.RawPlay) int {
	total := len(plays)
	for _, t := range tracks {
		total += len(t)
	}
	for _, a := range artists {
		total += len(a)
	}
	return total
}
