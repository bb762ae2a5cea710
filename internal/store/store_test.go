package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestJSONRoundTrip(t *testing.T) {
	s := New(t.TempDir())

	type record struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	want := []record{{ID: "1", Name: "one"}, {ID: "2", Name: "two"}}

	if err := s.WriteJSON(TierRaw, "records.json", want); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var got []record
	if err := s.ReadJSON(TierRaw, "records.json", &got); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestReadMissingArtifact(t *testing.T) {
	s := New(t.TempDir())

	var v any
	err := s.ReadJSON(TierRaw, "absent.json", &v)
	if !errors.Is(err, ErrMissingArtifact) {
		t.Errorf("ReadJSON err = %v, want ErrMissingArtifact", err)
	}

	err = s.ReadTable(TierProcessed, "absent.csv", func(io.Reader) error { return nil })
	if !errors.Is(err, ErrMissingArtifact) {
		t.Errorf("ReadTable err = %v, want ErrMissingArtifact", err)
	}
}

func TestTableRoundTrip(t *testing.T) {
	s := New(t.TempDir())

	err := s.WriteTable(TierProcessed, "table.csv", func(w io.Writer) error {
		_, err := io.WriteString(w, "a,b\n1,2\n")
		return err
	})
	if err != nil {
		t.Fatalf("WriteTable: %v", err)
	}

	var content string
	err = s.ReadTable(TierProcessed, "table.csv", func(r io.Reader) error {
		data, err := io.ReadAll(r)
		content = string(data)
		return err
	})
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if content != "a,b\n1,2\n" {
		t.Errorf("content = %q", content)
	}
}

func TestFailedWriteLeavesNoArtifact(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	err := s.WriteTable(TierProcessed, "table.csv", func(w io.Writer) error {
		_, _ = io.WriteString(w, "partial")
		return fmt.Errorf("encoder blew up")
	})
	if err == nil {
		t.Fatal("expected write error")
	}

	if s.Exists(TierProcessed, "table.csv") {
		t.Error("failed write left the artifact behind")
	}

	entries, err := os.ReadDir(filepath.Join(dir, TierProcessed))
	if err != nil {
		t.Fatalf("reading tier dir: %v", err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Errorf("temp file %s left behind", e.Name())
		}
	}
}

func TestFailedWriteKeepsPreviousArtifact(t *testing.T) {
	s := New(t.TempDir())

	if err := s.WriteJSON(TierProcessed, "v.json", "first"); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	err := s.WriteTable(TierProcessed, "v.json", func(io.Writer) error {
		return fmt.Errorf("encoder blew up")
	})
	if err == nil {
		t.Fatal("expected write error")
	}

	var got string
	if err := s.ReadJSON(TierProcessed, "v.json", &got); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if got != "first" {
		t.Errorf("artifact = %q, want previous value intact", got)
	}
}

func TestRemove(t *testing.T) {
	s := New(t.TempDir())

	if err := s.WriteJSON(TierRaw, "r.json", 1); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if err := s.Remove(TierRaw, "r.json"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if s.Exists(TierRaw, "r.json") {
		t.Error("artifact still exists after Remove")
	}

	// Removing an absent artifact is not an error.
	if err := s.Remove(TierRaw, "r.json"); err != nil {
		t.Errorf("Remove absent: %v", err)
	}
}

func TestManifestRoundTrip(t *testing.T) {
	s := New(t.TempDir())

	m := NewManifest()
	if m.RunID == "" {
		t.Fatal("NewManifest produced an empty run id")
	}
	m.AudioFeaturesAvailable = true
	m.TrackCount = 42

	if err := s.WriteManifest(m); err != nil {
		t.Fatalf("WriteManifest: %v", err)
	}

	got, err := s.ReadManifest()
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	if got.RunID != m.RunID || !got.AudioFeaturesAvailable || got.TrackCount != 42 {
		t.Errorf("got %+v, want %+v", got, m)
	}
}

func TestReadManifestMissing(t *testing.T) {
	s := New(t.TempDir())

	_, err := s.ReadManifest()
	if !errors.Is(err, ErrMissingArtifact) {
		t.Errorf("err = %v, want ErrMissingArtifact", err)
	}
}

func TestArtifactNames(t *testing.T) {
	if got := RawTopTracks("short_term"); got != "top_tracks_short_term.json" {
		t.Errorf("RawTopTracks = %q", got)
	}
	if got := RawTopArtists("long_term"); got != "top_artists_long_term.json" {
		t.Errorf("RawTopArtists = %q", got)
	}
}
