package dashboard

import (
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/rmoran/spotify-insights/internal/dataset"
	"github.com/rmoran/spotify-insights/internal/insights"
	"github.com/rmoran/spotify-insights/internal/store"
)

// Handlers contains the HTTP handlers for the dashboard. Every handler
// reloads its artifacts per request so a pipeline re-run shows up without a
// restart.
type Handlers struct {
	store     *store.Store
	templates *Templates
	log       zerolog.Logger
}

// NewHandlers creates a Handlers instance.
func NewHandlers(st *store.Store, templates *Templates, log zerolog.Logger) *Handlers {
	return &Handlers{
		store:     st,
		templates: templates,
		log:       log,
	}
}

// Section wraps one dashboard section: either its payload is rendered or an
// explicit unavailable panel with the reason.
type Section struct {
	Available bool
	Reason    string
}

func available() Section {
	return Section{Available: true}
}

func unavailable(reason string) Section {
	return Section{Reason: reason}
}

// Overview handles GET /.
func (h *Handlers) Overview(w http.ResponseWriter, r *http.Request) {
	data := OverviewData{PageData: PageData{Title: "Overview", CurrentPath: r.URL.Path}}

	tracks, _, err := h.loadTracks(store.TierProcessed, store.ProcessedTracks)
	artists, artistErr := h.loadArtists()
	switch {
	case errors.Is(err, store.ErrMissingArtifact) || errors.Is(artistErr, store.ErrMissingArtifact):
		data.Section = unavailable("no processed data yet, run the fetch and preprocess steps first")
	case err != nil:
		h.renderError(w, err)
		return
	case artistErr != nil:
		h.renderError(w, artistErr)
		return
	default:
		data.Section = available()
		data.TrackCount = len(tracks)
		data.ArtistCount = len(artists)
		data.GenreCount = len(insights.TopGenres(artists, 0))

		if clustered, _, err := h.loadTracks(store.TierFeatures, store.FeaturesTracks); err == nil {
			moods := make(map[string]struct{})
			for _, t := range clustered {
				if t.ClusterID != nil {
					moods[t.ClusterLabel] = struct{}{}
				}
			}
			data.MoodCount = len(moods)
		}

		if manifest, err := h.store.ReadManifest(); err == nil {
			data.Manifest = &manifest
		}
	}

	h.render(w, "overview", data)
}

// Artists handles GET /artists.
func (h *Handlers) Artists(w http.ResponseWriter, r *http.Request) {
	timeRange := r.URL.Query().Get("range")
	data := ArtistsData{
		PageData:  PageData{Title: "Genres & Artists", CurrentPath: r.URL.Path},
		TimeRange: timeRange,
	}

	artists, err := h.loadArtists()
	switch {
	case errors.Is(err, store.ErrMissingArtifact):
		data.Section = unavailable("no processed artist table, run the fetch and preprocess steps first")
	case err != nil:
		h.renderError(w, err)
		return
	default:
		data.Section = available()
		data.TopGenres = insights.TopGenres(artists, 15)
		data.TopArtists = insights.TopArtists(artists, timeRange, 20)
		for _, g := range data.TopGenres {
			if g.Count > data.MaxGenreCount {
				data.MaxGenreCount = g.Count
			}
		}
	}

	h.render(w, "artists", data)
}

// Features handles GET /features.
func (h *Handlers) Features(w http.ResponseWriter, r *http.Request) {
	data := FeaturesData{PageData: PageData{Title: "Audio Feature Profile", CurrentPath: r.URL.Path}}

	tracks, cols, err := h.loadTracks(store.TierProcessed, store.ProcessedTracks)
	switch {
	case errors.Is(err, store.ErrMissingArtifact):
		data.Section = unavailable("no processed track table, run the fetch and preprocess steps first")
	case err != nil:
		h.renderError(w, err)
		return
	case !cols.HasFeatures:
		data.Section = unavailable("audio features unavailable, the upstream attribute source could not be fetched for this run")
	default:
		profile, ok := insights.FeatureProfile(tracks)
		if !ok {
			data.Section = unavailable("no track carries a complete audio feature vector")
			break
		}
		data.Section = available()
		data.Profile = profile
	}

	h.render(w, "features", data)
}

// Clusters handles GET /clusters.
func (h *Handlers) Clusters(w http.ResponseWriter, r *http.Request) {
	data := ClustersData{PageData: PageData{Title: "Mood Clusters", CurrentPath: r.URL.Path}}

	tracks, _, err := h.loadTracks(store.TierFeatures, store.FeaturesTracks)
	switch {
	case errors.Is(err, store.ErrMissingArtifact):
		data.Section = unavailable("mood clusters not computed, run the cluster step (requires audio features)")
	case err != nil:
		h.renderError(w, err)
		return
	default:
		summaries := insights.ClusterSummaries(tracks)
		if len(summaries) == 0 {
			data.Section = unavailable("the cluster table contains no clustered tracks")
			break
		}
		data.Section = available()
		data.Clusters = summaries
		for _, t := range tracks {
			if t.ClusterID == nil {
				data.Unclustered++
			}
		}
	}

	h.render(w, "clusters", data)
}

// TimePatterns handles GET /time.
func (h *Handlers) TimePatterns(w http.ResponseWriter, r *http.Request) {
	data := TimeData{PageData: PageData{Title: "Time Patterns", CurrentPath: r.URL.Path}}

	var plays []dataset.Play
	err := h.store.ReadTable(store.TierProcessed, store.ProcessedPlays, func(rd io.Reader) error {
		var err error
		plays, err = dataset.ReadPlays(rd)
		return err
	})
	switch {
	case errors.Is(err, store.ErrMissingArtifact):
		data.Section = unavailable("recently played history unavailable for this run")
	case err != nil:
		h.renderError(w, err)
		return
	default:
		data.Section = available()
		data.Clock = insights.Clock(plays)
		data.PlayCount = len(plays)
		for _, c := range data.Clock.ByHour {
			if c > data.MaxHourCount {
				data.MaxHourCount = c
			}
		}
		for _, c := range data.Clock.ByWeekday {
			if c > data.MaxWeekdayCount {
				data.MaxWeekdayCount = c
			}
		}
	}

	h.render(w, "time", data)
}

func (h *Handlers) loadTracks(tier, name string) ([]dataset.Track, dataset.TrackColumns, error) {
	var (
		tracks []dataset.Track
		cols   dataset.TrackColumns
	)
	err := h.store.ReadTable(tier, name, func(r io.Reader) error {
		var err error
		tracks, cols, err = dataset.ReadTracks(r)
		return err
	})
	return tracks, cols, err
}

func (h *Handlers) loadArtists() ([]dataset.Artist, error) {
	var artists []dataset.Artist
	err := h.store.ReadTable(store.TierProcessed, store.ProcessedArtists, func(r io.Reader) error {
		var err error
		artists, err = dataset.ReadArtists(r)
		return err
	})
	return artists, err
}

func (h *Handlers) render(w http.ResponseWriter, page string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.Render(w, page, data); err != nil {
		h.log.Error().Err(err).Str("page", page).Msg("rendering template")
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
	}
}

func (h *Handlers) renderError(w http.ResponseWriter, err error) {
	h.log.Error().Err(err).Msg("loading artifacts")
	http.Error(w, "Failed to load data: "+err.Error(), http.StatusInternalServerError)
}
