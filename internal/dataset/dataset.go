// Package dataset defines the record types that flow through the pipeline
// tiers and the codecs that persist them.
//
// Raw records mirror what the Spotify API returned and are written once by
// the fetch stage. Processed records are flat table rows derived from them;
// the features tier reuses the processed track row with cluster fields added.
package dataset

import "time"

// Spotify top tracks/artists are fetched per affinity window.
const (
	TimeRangeShort  = "short_term"
	TimeRangeMedium = "medium_term"
	TimeRangeLong   = "long_term"
)

// TimeRanges lists all affinity windows in fetch order.
var TimeRanges = []string{TimeRangeShort, TimeRangeMedium, TimeRangeLong}

// ArtistRef is a minimal artist reference embedded in a track.
type ArtistRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RawTrack is a track entity as fetched from the API.
type RawTrack struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Artists    []ArtistRef `json:"artists"`
	AlbumID    string      `json:"album_id"`
	AlbumName  string      `json:"album_name"`
	Popularity int         `json:"popularity"`
	DurationMs int         `json:"duration_ms"`
	Explicit   bool        `json:"explicit"`
}

// RawArtist is an artist entity as fetched from the API.
type RawArtist struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Genres     []string `json:"genres"`
	Popularity int      `json:"popularity"`
	Followers  uint     `json:"followers"`
}

// RawAudioFeatures is the per-track audio attribute vector as fetched.
// The whole artifact may be absent when the endpoint is unavailable.
type RawAudioFeatures struct {
	ID string `json:"id"`
	FeatureVector
}

// RawPlay is one entry of the recently-played history.
type RawPlay struct {
	TrackID   string    `json:"track_id"`
	TrackName string    `json:"track_name"`
	Artists   string    `json:"artists"`
	PlayedAt  time.Time `json:"played_at"`
}

// FeatureVector holds the numeric audio attributes of a track.
type FeatureVector struct {
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Valence          float64 `json:"valence"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`
	Speechiness      float64 `json:"speechiness"`
	Liveness         float64 `json:"liveness"`
	Loudness         float64 `json:"loudness"`
	Tempo            float64 `json:"tempo"`
}

// FeatureDimensions lists every known audio dimension, in column order.
var FeatureDimensions = []string{
	"danceability",
	"energy",
	"valence",
	"acousticness",
	"instrumentalness",
	"speechiness",
	"liveness",
	"loudness",
	"tempo",
}

// Dimension returns the named dimension's value.
// The second return is false for an unknown name.
func (v FeatureVector) Dimension(name string) (float64, bool) {
	switch name {
	case "danceability":
		return v.Danceability, true
	case "energy":
		return v.Energy, true
	case "valence":
		return v.Valence, true
	case "acousticness":
		return v.Acousticness, true
	case "instrumentalness":
		return v.Instrumentalness, true
	case "speechiness":
		return v.Speechiness, true
	case "liveness":
		return v.Liveness, true
	case "loudness":
		return v.Loudness, true
	case "tempo":
		return v.Tempo, true
	}
	return 0, false
}

// setDimension assigns the named dimension. Unknown names are ignored.
func (v *FeatureVector) setDimension(name string, value float64) {
	switch name {
	case "danceability":
		v.Danceability = value
	case "energy":
		v.Energy = value
	case "valence":
		v.Valence = value
	case "acousticness":
		v.Acousticness = value
	case "instrumentalness":
		v.Instrumentalness = value
	case "speechiness":
		v.Speechiness = value
	case "liveness":
		v.Liveness = value
	case "loudness":
		v.Loudness = value
	case "tempo":
		v.Tempo = value
	}
}

// Track is a processed track row, uniquely keyed by ID.
// Features is nil when the audio-attribute source was unavailable.
// ClusterID is nil until the cluster stage has run, and stays nil for
// tracks that could not be clustered.
type Track struct {
	ID           string
	Name         string
	ArtistID     string // primary artist
	ArtistName   string
	AllArtists   string // comma-separated
	AlbumName    string
	Popularity   int
	DurationMs   int
	Explicit     bool
	TimeRanges   string // comma-separated affinity windows the track appeared in
	Genres       string // comma-separated, from the primary artist
	Features     *FeatureVector
	ClusterID    *int
	ClusterLabel string
}

// Artist is a processed artist row, uniquely keyed by ID.
type Artist struct {
	ID         string
	Name       string
	Genres     string // comma-separated
	Popularity int
	Followers  uint
	TimeRanges string
}

// Play is a processed recently-played row.
type Play struct {
	TrackID   string
	TrackName string
	Artists   string
	PlayedAt  time.Time
}
