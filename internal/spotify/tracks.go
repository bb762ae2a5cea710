package spotify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zmb3/spotify/v2"

	"github.com/rmoran/spotify-insights/internal/dataset"
)

// TopTracks retrieves the user's top tracks for the given affinity window
// (short_term, medium_term, long_term), following pagination to the end.
func (c *Client) TopTracks(ctx context.Context, timeRange string) ([]dataset.RawTrack, error) {
	rangeOpt, err := timeRangeOption(timeRange)
	if err != nil {
		return nil, err
	}

	page, err := c.api.CurrentUsersTopTracks(ctx, spotify.Limit(pageLimit), rangeOpt)
	if err != nil {
		return nil, fmt.Errorf("fetching top tracks (%s): %w", timeRange, err)
	}

	var tracks []dataset.RawTrack
	for {
		for _, t := range page.Tracks {
			tracks = append(tracks, convertTrack(t))
		}

		err = c.api.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("fetching next top-tracks page (%s): %w", timeRange, err)
		}
	}

	c.log.Info().Str("time_range", timeRange).Int("count", len(tracks)).Msg("fetched top tracks")
	return tracks, nil
}

// TopArtists retrieves the user's top artists for the given affinity window,
// following pagination to the end.
func (c *Client) TopArtists(ctx context.Context, timeRange string) ([]dataset.RawArtist, error) {
	rangeOpt, err := timeRangeOption(timeRange)
	if err != nil {
		return nil, err
	}

	page, err := c.api.CurrentUsersTopArtists(ctx, spotify.Limit(pageLimit), rangeOpt)
	if err != nil {
		return nil, fmt.Errorf("fetching top artists (%s): %w", timeRange, err)
	}

	var artists []dataset.RawArtist
	for {
		for _, a := range page.Artists {
			artists = append(artists, convertArtist(a))
		}

		err = c.api.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("fetching next top-artists page (%s): %w", timeRange, err)
		}
	}

	c.log.Info().Str("time_range", timeRange).Int("count", len(artists)).Msg("fetched top artists")
	return artists, nil
}

// RecentlyPlayed retrieves the user's play history, newest first. The API
// caps this at 50 entries.
func (c *Client) RecentlyPlayed(ctx context.Context, limit int) ([]dataset.RawPlay, error) {
	if limit <= 0 || limit > pageLimit {
		limit = pageLimit
	}

	items, err := c.api.PlayerRecentlyPlayedOpt(ctx, &spotify.RecentlyPlayedOptions{Limit: spotify.Numeric(limit)})
	if err != nil {
		return nil, fmt.Errorf("fetching recently played: %w", err)
	}

	plays := make([]dataset.RawPlay, 0, len(items))
	for _, item := range items {
		plays = append(plays, dataset.RawPlay{
			TrackID:   item.Track.ID.String(),
			TrackName: item.Track.Name,
			Artists:   joinArtistNames(item.Track.Artists),
			PlayedAt:  item.PlayedAt,
		})
	}

	c.log.Info().Int("count", len(plays)).Msg("fetched recently played")
	return plays, nil
}

// convertTrack flattens a Spotify track object into a raw record.
func convertTrack(t spotify.FullTrack) dataset.RawTrack {
	artists := make([]dataset.ArtistRef, len(t.Artists))
	for i, a := range t.Artists {
		artists[i] = dataset.ArtistRef{ID: a.ID.String(), Name: a.Name}
	}

	return dataset.RawTrack{
		ID:         t.ID.String(),
		Name:       t.Name,
		Artists:    artists,
		AlbumID:    t.Album.ID.String(),
		AlbumName:  t.Album.Name,
		Popularity: int(t.Popularity),
		DurationMs: int(t.Duration),
		Explicit:   t.Explicit,
	}
}

// convertArtist flattens a Spotify artist object into a raw record.
func convertArtist(a spotify.FullArtist) dataset.RawArtist {
	return dataset.RawArtist{
		ID:         a.ID.String(),
		Name:       a.Name,
		Genres:     a.Genres,
		Popularity: int(a.Popularity),
		Followers:  uint(a.Followers.Count),
	}
}

func joinArtistNames(artists []spotify.SimpleArtist) string {
	names := make([]string, len(artists))
	for i, a := range artists {
		names[i] = a.Name
	}
	return strings.Join(names, ", ")
}
