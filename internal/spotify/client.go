// Package spotify wraps the Spotify Web API client for the fetch stage.
package spotify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/zmb3/spotify/v2"
)

// maxFeaturesPerRequest is the Spotify API limit for the audio-features
// endpoint.
const maxFeaturesPerRequest = 100

// pageLimit is the maximum page size for top-item and history endpoints.
const pageLimit = 50

// Client wraps an authenticated Spotify API client.
type Client struct {
	api *spotify.Client
	log zerolog.Logger
}

// New creates a client wrapper. The underlying client must already be
// authenticated.
func New(api *spotify.Client, log zerolog.Logger) *Client {
	return &Client{
		api: api,
		log: log.With().Str("component", "spotify").Logger(),
	}
}

// UserID returns the current user's Spotify ID.
func (c *Client) UserID(ctx context.Context) (string, error) {
	user, err := c.api.CurrentUser(ctx)
	if err != nil {
		return "", fmt.Errorf("getting current user: %w", err)
	}
	return user.ID, nil
}

// timeRangeOption maps an affinity window name to a request option.
func timeRangeOption(timeRange string) (spotify.RequestOption, error) {
	switch timeRange {
	case "short_term":
		return spotify.Timerange(spotify.ShortTermRange), nil
	case "medium_term":
		return spotify.Timerange(spotify.MediumTermRange), nil
	case "long_term":
		return spotify.Timerange(spotify.LongTermRange), nil
	}
	return nil, fmt.Errorf("unknown time range %q", timeRange)
}
