// Package insights computes the summaries the dashboard renders from the
// processed and clustered tables. All functions are pure over their inputs.
package insights

import (
	"slices"
	"strings"
	"time"

	"github.com/rmoran/spotify-insights/internal/dataset"
)

// GenreCount is one entry of a genre ranking.
type GenreCount struct {
	Genre string
	Count int
}

// TopGenres ranks genres by how many artists carry them, descending, ties
// broken alphabetically. Returns at most n entries.
func TopGenres(artists []dataset.Artist, n int) []GenreCount {
	counts := make(map[string]int)
	for _, a := range artists {
		for _, genre := range strings.Split(a.Genres, ",") {
			genre = strings.TrimSpace(genre)
			if genre == "" {
				continue
			}
			counts[genre]++
		}
	}

	ranking := make([]GenreCount, 0, len(counts))
	for genre, count := range counts {
		ranking = append(ranking, GenreCount{Genre: genre, Count: count})
	}
	slices.SortFunc(ranking, func(a, b GenreCount) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.Genre, b.Genre)
	})

	if n > 0 && len(ranking) > n {
		ranking = ranking[:n]
	}
	return ranking
}

// TopArtists returns the artists for a time range ("" for all), ranked by
// popularity descending, at most n entries.
func TopArtists(artists []dataset.Artist, timeRange string, n int) []dataset.Artist {
	var filtered []dataset.Artist
	for _, a := range artists {
		if timeRange == "" || strings.Contains(a.TimeRanges, timeRange) {
			filtered = append(filtered, a)
		}
	}
	slices.SortStableFunc(filtered, func(a, b dataset.Artist) int {
		if a.Popularity != b.Popularity {
			return b.Popularity - a.Popularity
		}
		return strings.Compare(a.Name, b.Name)
	})

	if n > 0 && len(filtered) > n {
		filtered = filtered[:n]
	}
	return filtered
}

// FeatureMean is the dataset-wide mean of one audio dimension.
type FeatureMean struct {
	Dimension string
	Mean      float64
}

// FeatureProfile averages every known audio dimension over the tracks that
// carry a feature vector. Returns false when no track does.
func FeatureProfile(tracks []dataset.Track) ([]FeatureMean, bool) {
	count := 0
	sums := make(map[string]float64, len(dataset.FeatureDimensions))

	for _, t := range tracks {
		if t.Features == nil {
			continue
		}
		count++
		for _, dim := range dataset.FeatureDimensions {
			v, _ := t.Features.Dimension(dim)
			sums[dim] += v
		}
	}
	if count == 0 {
		return nil, false
	}

	profile := make([]FeatureMean, 0, len(dataset.FeatureDimensions))
	for _, dim := range dataset.FeatureDimensions {
		profile = append(profile, FeatureMean{Dimension: dim, Mean: sums[dim] / float64(count)})
	}
	return profile, true
}

// ClusterSummary aggregates one mood cluster for display.
type ClusterSummary struct {
	ID               int
	Label            string
	Size             int
	MeanEnergy       float64
	MeanValence      float64
	MeanDanceability float64
	MeanAcousticness float64
	SampleTracks     []string // first few "Name - Artist" entries by track id order
}

const sampleTrackCount = 3

// ClusterSummaries aggregates the clustered track table per cluster id,
// ascending. Tracks without a cluster assignment are ignored.
func ClusterSummaries(tracks []dataset.Track) []ClusterSummary {
	byID := make(map[int]*ClusterSummary)
	var ids []int

	for _, t := range tracks {
		if t.ClusterID == nil || t.Features == nil {
			continue
		}
		id := *t.ClusterID
		s, ok := byID[id]
		if !ok {
			s = &ClusterSummary{ID: id, Label: t.ClusterLabel}
			byID[id] = s
			ids = append(ids, id)
		}
		s.Size++
		s.MeanEnergy += t.Features.Energy
		s.MeanValence += t.Features.Valence
		s.MeanDanceability += t.Features.Danceability
		s.MeanAcousticness += t.Features.Acousticness
		if len(s.SampleTracks) < sampleTrackCount {
			s.SampleTracks = append(s.SampleTracks, t.Name+" - "+t.ArtistName)
		}
	}

	slices.Sort(ids)
	summaries := make([]ClusterSummary, 0, len(ids))
	for _, id := range ids {
		s := byID[id]
		n := float64(s.Size)
		s.MeanEnergy /= n
		s.MeanValence /= n
		s.MeanDanceability /= n
		s.MeanAcousticness /= n
		summaries = append(summaries, *s)
	}
	return summaries
}

// ListeningClock buckets plays by hour of day (local time of the timestamp)
// and by weekday.
type ListeningClock struct {
	ByHour    [24]int
	ByWeekday [7]int // Sunday = 0
}

// Clock computes the listening clock from the play history.
func Clock(plays []dataset.Play) ListeningClock {
	var clock ListeningClock
	for _, p := range plays {
		clock.ByHour[p.PlayedAt.Hour()]++
		clock.ByWeekday[int(p.PlayedAt.Weekday())]++
	}
	return clock
}

// WeekdayName returns the display name for a ByWeekday index.
func WeekdayName(i int) string {
	return time.Weekday(i).String()
}
