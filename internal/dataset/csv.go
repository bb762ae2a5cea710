package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// Column sets for the track table. Feature columns appear in the header only
// when the audio-attribute source was available; cluster columns only once
// the cluster stage has run. Readers detect both by header.
var (
	trackBaseColumns = []string{
		"track_id", "track_name", "artist_id", "artist_name", "all_artists",
		"album_name", "popularity", "duration_ms", "explicit", "time_ranges",
		"genres",
	}
	trackClusterColumns = []string{"cluster", "mood_label"}

	artistColumns = []string{
		"artist_id", "artist_name", "genres", "popularity", "followers",
		"time_ranges",
	}
	playColumns = []string{"track_id", "track_name", "artists", "played_at"}
)

// TrackColumns describes which optional column groups a track table carries.
type TrackColumns struct {
	HasFeatures bool
	HasClusters bool
}

// WriteTracks writes the track table as CSV. Feature and cluster columns are
// included only when requested. A track with nil Features gets empty feature
// cells (left-join survivor), and a nil ClusterID gets empty cluster cells.
func WriteTracks(w io.Writer, tracks []Track, cols TrackColumns) error {
	cw := csv.NewWriter(w)

	header := append([]string{}, trackBaseColumns...)
	if cols.HasFeatures {
		header = append(header, FeatureDimensions...)
	}
	if cols.HasClusters {
		header = append(header, trackClusterColumns...)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing track header: %w", err)
	}

	for _, t := range tracks {
		row := []string{
			t.ID, t.Name, t.ArtistID, t.ArtistName, t.AllArtists,
			t.AlbumName, strconv.Itoa(t.Popularity), strconv.Itoa(t.DurationMs),
			strconv.FormatBool(t.Explicit), t.TimeRanges, t.Genres,
		}
		if cols.HasFeatures {
			for _, dim := range FeatureDimensions {
				if t.Features == nil {
					row = append(row, "")
					continue
				}
				v, _ := t.Features.Dimension(dim)
				row = append(row, formatFloat(v))
			}
		}
		if cols.HasClusters {
			if t.ClusterID != nil {
				row = append(row, strconv.Itoa(*t.ClusterID), t.ClusterLabel)
			} else {
				row = append(row, "", "")
			}
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing track %s: %w", t.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadTracks parses a track table, reporting which optional column groups
// the header carried.
func ReadTracks(r io.Reader) ([]Track, TrackColumns, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, TrackColumns{}, fmt.Errorf("reading track header: %w", err)
	}
	idx := indexColumns(header)

	for _, col := range trackBaseColumns {
		if _, ok := idx[col]; !ok {
			return nil, TrackColumns{}, fmt.Errorf("track table missing column %q", col)
		}
	}
	cols := TrackColumns{
		HasFeatures: hasAll(idx, FeatureDimensions),
		HasClusters: hasAll(idx, trackClusterColumns),
	}

	var tracks []Track
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, cols, fmt.Errorf("reading track row: %w", err)
		}

		t := Track{
			ID:         row[idx["track_id"]],
			Name:       row[idx["track_name"]],
			ArtistID:   row[idx["artist_id"]],
			ArtistName: row[idx["artist_name"]],
			AllArtists: row[idx["all_artists"]],
			AlbumName:  row[idx["album_name"]],
			TimeRanges: row[idx["time_ranges"]],
			Genres:     row[idx["genres"]],
		}
		if t.Popularity, err = strconv.Atoi(row[idx["popularity"]]); err != nil {
			return nil, cols, fmt.Errorf("track %s: bad popularity: %w", t.ID, err)
		}
		if t.DurationMs, err = strconv.Atoi(row[idx["duration_ms"]]); err != nil {
			return nil, cols, fmt.Errorf("track %s: bad duration_ms: %w", t.ID, err)
		}
		if t.Explicit, err = strconv.ParseBool(row[idx["explicit"]]); err != nil {
			return nil, cols, fmt.Errorf("track %s: bad explicit: %w", t.ID, err)
		}

		if cols.HasFeatures {
			empty := true
			for _, dim := range FeatureDimensions {
				if row[idx[dim]] != "" {
					empty = false
					break
				}
			}
			if !empty {
				var fv FeatureVector
				for _, dim := range FeatureDimensions {
					v, err := strconv.ParseFloat(row[idx[dim]], 64)
					if err != nil {
						return nil, cols, fmt.Errorf("track %s: bad %s: %w", t.ID, dim, err)
					}
					fv.setDimension(dim, v)
				}
				t.Features = &fv
			}
		}

		if cols.HasClusters {
			if raw := row[idx["cluster"]]; raw != "" {
				id, err := strconv.Atoi(raw)
				if err != nil {
					return nil, cols, fmt.Errorf("track %s: bad cluster: %w", t.ID, err)
				}
				t.ClusterID = &id
				t.ClusterLabel = row[idx["mood_label"]]
			}
		}

		tracks = append(tracks, t)
	}

	return tracks, cols, nil
}

// WriteArtists writes the artist table as CSV.
func WriteArtists(w io.Writer, artists []Artist) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(artistColumns); err != nil {
		return fmt.Errorf("writing artist header: %w", err)
	}
	for _, a := range artists {
		row := []string{
			a.ID, a.Name, a.Genres, strconv.Itoa(a.Popularity),
			strconv.FormatUint(uint64(a.Followers), 10), a.TimeRanges,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing artist %s: %w", a.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadArtists parses an artist table.
func ReadArtists(r io.Reader) ([]Artist, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading artist header: %w", err)
	}
	idx := indexColumns(header)
	for _, col := range artistColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("artist table missing column %q", col)
		}
	}

	var artists []Artist
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading artist row: %w", err)
		}

		a := Artist{
			ID:         row[idx["artist_id"]],
			Name:       row[idx["artist_name"]],
			Genres:     row[idx["genres"]],
			TimeRanges: row[idx["time_ranges"]],
		}
		if a.Popularity, err = strconv.Atoi(row[idx["popularity"]]); err != nil {
			return nil, fmt.Errorf("artist %s: bad popularity: %w", a.ID, err)
		}
		followers, err := strconv.ParseUint(row[idx["followers"]], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("artist %s: bad followers: %w", a.ID, err)
		}
		a.Followers = uint(followers)

		artists = append(artists, a)
	}

	return artists, nil
}

// WritePlays writes the recently-played table as CSV.
func WritePlays(w io.Writer, plays []Play) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(playColumns); err != nil {
		return fmt.Errorf("writing play header: %w", err)
	}
	for _, p := range plays {
		row := []string{p.TrackID, p.TrackName, p.Artists, p.PlayedAt.Format(time.RFC3339)}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing play of %s: %w", p.TrackID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadPlays parses a recently-played table.
func ReadPlays(r io.Reader) ([]Play, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading play header: %w", err)
	}
	idx := indexColumns(header)
	for _, col := range playColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("play table missing column %q", col)
		}
	}

	var plays []Play
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading play row: %w", err)
		}

		playedAt, err := time.Parse(time.RFC3339, row[idx["played_at"]])
		if err != nil {
			return nil, fmt.Errorf("bad played_at for %s: %w", row[idx["track_id"]], err)
		}
		plays = append(plays, Play{
			TrackID:   row[idx["track_id"]],
			TrackName: row[idx["track_name"]],
			Artists:   row[idx["artists"]],
			PlayedAt:  playedAt,
		})
	}

	return plays, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func indexColumns(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	return idx
}

func hasAll(idx map[string]int, cols []string) bool {
	for _, col := range cols {
		if _, ok := idx[col]; !ok {
			return false
		}
	}
	return true
}
