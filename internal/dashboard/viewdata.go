package dashboard

import (
	"github.com/rmoran/spotify-insights/internal/dataset"
	"github.com/rmoran/spotify-insights/internal/insights"
	"github.com/rmoran/spotify-insights/internal/store"
)

// PageData contains common data passed to all page templates.
type PageData struct {
	Title       string
	CurrentPath string
}

// OverviewData is the view model for the overview page.
type OverviewData struct {
	PageData
	Section     Section
	TrackCount  int
	ArtistCount int
	GenreCount  int
	MoodCount   int
	Manifest    *store.Manifest
}

// ArtistsData is the view model for the genres & artists page.
type ArtistsData struct {
	PageData
	Section       Section
	TimeRange     string
	TopGenres     []insights.GenreCount
	MaxGenreCount int
	TopArtists    []dataset.Artist
}

// FeaturesData is the view model for the audio profile page.
type FeaturesData struct {
	PageData
	Section Section
	Profile []insights.FeatureMean
}

// ClustersData is the view model for the mood clusters page.
type ClustersData struct {
	PageData
	Section     Section
	Clusters    []insights.ClusterSummary
	Unclustered int
}

// TimeData is the view model for the time patterns page.
type TimeData struct {
	PageData
	Section         Section
	PlayCount       int
	Clock           insights.ListeningClock
	MaxHourCount    int
	MaxWeekdayCount int
}

// Weekdays lists display names in ByWeekday index order for templates.
func (TimeData) Weekdays() []string {
	names := make([]string, 7)
	for i := range names {
		names[i] = insights.WeekdayName(i)
	}
	return names
}
