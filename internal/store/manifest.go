package store

import (
	"time"

	"github.com/google/uuid"
)

// Manifest is written by the preprocess stage alongside the processed
// tables. Downstream consumers branch on its availability flags instead of
// inferring state from absent columns.
type Manifest struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`

	// AudioFeaturesAvailable is false when the audio-attribute artifact was
	// absent or empty; only clustering and feature views depend on it.
	AudioFeaturesAvailable  bool `json:"audio_features_available"`
	RecentlyPlayedAvailable bool `json:"recently_played_available"`

	TrackCount     int `json:"track_count"`
	ArtistCount    int `json:"artist_count"`
	PlayCount      int `json:"play_count"`
	DroppedRecords int `json:"dropped_records"`
}

// NewManifest returns a Manifest stamped with a fresh run ID.
func NewManifest() Manifest {
	return Manifest{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
	}
}

// WriteManifest persists the manifest to the processed tier.
func (s *Store) WriteManifest(m Manifest) error {
	return s.WriteJSON(TierProcessed, ProcessedManifest, m)
}

// ReadManifest loads the manifest from the processed tier.
func (s *Store) ReadManifest() (Manifest, error) {
	var m Manifest
	if err := s.ReadJSON(TierProcessed, ProcessedManifest, &m); err != nil {
		return Manifest{}, err
	}
	return m, nil
}
