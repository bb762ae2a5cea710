package spotify

import (
	"context"
	"fmt"

	"github.com/zmb3/spotify/v2"

	"github.com/rmoran/spotify-insights/internal/dataset"
)

// AudioFeatures retrieves the audio attribute vectors for the given track
// ids, batched per the API limit. Tracks the API returns no features for are
// omitted from the result.
//
// Spotify deprecated this endpoint for apps registered after Nov 2024, so
// callers must treat an error here as "source unavailable" rather than a
// pipeline failure.
func (c *Client) AudioFeatures(ctx context.Context, trackIDs []string) ([]dataset.RawAudioFeatures, error) {
	if len(trackIDs) == 0 {
		return nil, nil
	}

	ids := make([]spotify.ID, len(trackIDs))
	for i, id := range trackIDs {
		ids[i] = spotify.ID(id)
	}

	var features []dataset.RawAudioFeatures
	total := len(ids)

	for i := 0; i < total; i += maxFeaturesPerRequest {
		end := min(i+maxFeaturesPerRequest, total)
		batch := ids[i:end]

		c.log.Debug().Int("from", i+1).Int("to", end).Int("total", total).Msg("fetching audio features batch")

		result, err := c.api.GetAudioFeatures(ctx, batch...)
		if err != nil {
			return nil, fmt.Errorf("fetching audio features (batch %d-%d): %w", i+1, end, err)
		}

		for _, f := range result {
			if f == nil {
				continue // no features for this track
			}
			features = append(features, convertAudioFeatures(f))
		}
	}

	c.log.Info().Int("count", len(features)).Int("requested", total).Msg("fetched audio features")
	return features, nil
}

// convertAudioFeatures widens the wire type into a raw record.
func convertAudioFeatures(f *spotify.AudioFeatures) dataset.RawAudioFeatures {
	return dataset.RawAudioFeatures{
		ID: f.ID.String(),
		FeatureVector: dataset.FeatureVector{
			Danceability:     float64(f.Danceability),
			Energy:           float64(f.Energy),
			Valence:          float64(f.Valence),
			Acousticness:     float64(f.Acousticness),
			Instrumentalness: float64(f.Instrumentalness),
			Speechiness:      float64(f.Speechiness),
			Liveness:         float64(f.Liveness),
			Loudness:         float64(f.Loudness),
			Tempo:            float64(f.Tempo),
		},
	}
}
