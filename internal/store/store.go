// Package store persists pipeline artifacts as local files, one directory
// per tier (raw, processed, features). Writes go to a temp file in the
// target directory and are renamed into place, so a failed stage never
// leaves a partial artifact behind.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Tier names, matching the data-flow order.
const (
	TierRaw       = "raw"
	TierProcessed = "processed"
	TierFeatures  = "features"
)

// Artifact file names.
const (
	RawAudioFeatures  = "audio_features.json"
	RawRecentlyPlayed = "recently_played.json"

	ProcessedTracks   = "tracks.csv"
	ProcessedArtists  = "artists.csv"
	ProcessedPlays    = "recently_played.csv"
	ProcessedManifest = "manifest.json"

	FeaturesTracks = "tracks_with_clusters.csv"
)

// ErrMissingArtifact is returned when a required artifact does not exist.
// Callers report it as a missing-prerequisite failure, not a crash.
var ErrMissingArtifact = errors.New("artifact not found")

// RawTopTracks returns the raw artifact name for a time range.
func RawTopTracks(timeRange string) string {
	return fmt.Sprintf("top_tracks_%s.json", timeRange)
}

// RawTopArtists returns the raw artifact name for a time range.
func RawTopArtists(timeRange string) string {
	return fmt.Sprintf("top_artists_%s.json", timeRange)
}

// Store is a tiered artifact store rooted at a data directory.
type Store struct {
	root string
}

// New creates a Store rooted at dir. No directories are created until the
// first write.
func New(dir string) *Store {
	return &Store{root: dir}
}

// Root returns the data directory.
func (s *Store) Root() string {
	return s.root
}

// Path returns the absolute path of an artifact.
func (s *Store) Path(tier, name string) string {
	return filepath.Join(s.root, tier, name)
}

// Exists reports whether an artifact is present.
func (s *Store) Exists(tier, name string) bool {
	_, err := os.Stat(s.Path(tier, name))
	return err == nil
}

// WriteJSON atomically writes v as indented JSON.
func (s *Store) WriteJSON(tier, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	return s.writeAtomic(tier, name, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// ReadJSON reads an artifact into v. Returns ErrMissingArtifact (wrapped
// with the path) if the artifact does not exist.
func (s *Store) ReadJSON(tier, name string, v any) error {
	path := s.Path(tier, name)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrMissingArtifact, path)
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// WriteTable atomically writes a tabular artifact through the given encoder.
func (s *Store) WriteTable(tier, name string, encode func(io.Writer) error) error {
	return s.writeAtomic(tier, name, encode)
}

// ReadTable streams a tabular artifact through the given decoder. Returns
// ErrMissingArtifact (wrapped with the path) if the artifact does not exist.
func (s *Store) ReadTable(tier, name string, decode func(io.Reader) error) error {
	path := s.Path(tier, name)
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrMissingArtifact, path)
	}
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	if err := decode(f); err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return nil
}

// Remove deletes an artifact if present.
func (s *Store) Remove(tier, name string) error {
	err := os.Remove(s.Path(tier, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", name, err)
	}
	return nil
}

// writeAtomic writes to a temp file in the tier directory and renames it
// over the final path only after the encoder and Close both succeed.
func (s *Store) writeAtomic(tier, name string, encode func(io.Writer) error) error {
	dir := filepath.Join(s.root, tier)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s tier: %w", tier, err)
	}

	tmp, err := os.CreateTemp(dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", name, err)
	}
	tmpPath := tmp.Name()

	if err := encode(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing %s: %w", name, err)
	}

	if err := os.Rename(tmpPath, filepath.Join(dir, name)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing %s: %w", name, err)
	}
	return nil
}
