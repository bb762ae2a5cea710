package clustering

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/muesli/clusters"

	"github.com/rmoran/spotify-insights/internal/dataset"
)

// maxIterations bounds the Lloyd's loop. The track sets here are small and
// converge in a handful of passes.
const maxIterations = 96

// trackObservation wraps a track index with its standardized coordinates so
// it satisfies the clusters.Observation interface.
type trackObservation struct {
	index  int
	coords clusters.Coordinates
}

func (o trackObservation) Coordinates() clusters.Coordinates {
	return o.coords
}

func (o trackObservation) Distance(point clusters.Coordinates) float64 {
	return o.coords.Distance(point)
}

// Partition clusters the given tracks in place: each track with a complete
// feature vector gets a ClusterID in [0,K) and the cluster's mood label.
// Tracks without a feature vector keep nil cluster fields and are counted as
// skipped, never dropped.
//
// Coordinates are standardized to zero mean and unit variance using
// statistics from the given tracks only; scaler state is never persisted, so
// cluster identity is not stable across runs over different track sets.
// With the same tracks, k, and seed the partition is reproducible.
//
// Returns ErrUnavailable when no track carries features, and ErrTooFewTracks
// when fewer tracks have features than clusters were requested.
func Partition(tracks []dataset.Track, cfg Config) (*Result, error) {
	cfg, err := cfg.validate()
	if err != nil {
		return nil, err
	}

	var valid []int
	for i := range tracks {
		if tracks[i].Features != nil {
			valid = append(valid, i)
		}
	}
	if len(valid) == 0 {
		return nil, ErrUnavailable
	}
	if len(valid) < cfg.K {
		return nil, fmt.Errorf("%w: %d tracks for k=%d", ErrTooFewTracks, len(valid), cfg.K)
	}

	matrix := make([][]float64, len(valid))
	for i, ti := range valid {
		matrix[i] = featureRow(*tracks[ti].Features, cfg.Features)
	}
	standardize(matrix)

	obs := make(clusters.Observations, len(valid))
	for i, ti := range valid {
		obs[i] = trackObservation{index: ti, coords: matrix[i]}
	}

	partition := seededPartition(obs, cfg.K, cfg.Seed)

	result := &Result{
		Clustered: len(valid),
		Skipped:   len(tracks) - len(valid),
	}

	for id, c := range partition {
		members := make([]int, 0, len(c.Observations))
		for _, o := range c.Observations {
			to, ok := o.(trackObservation)
			if !ok {
				continue
			}
			members = append(members, to.index)
		}

		centroid := rawCentroid(tracks, members)
		label := Label(centroid)

		for _, ti := range members {
			cid := id
			tracks[ti].ClusterID = &cid
			tracks[ti].ClusterLabel = label
		}

		result.Clusters = append(result.Clusters, Cluster{
			ID:       id,
			Label:    label,
			Size:     len(members),
			Centroid: centroid,
		})
	}

	return result, nil
}

// seededPartition runs Lloyd's algorithm over the clusters primitives with a
// private random source. clusters.New reseeds the global math/rand source
// from the wall clock before drawing initial centers, so a partition routed
// through it cannot honor a configured seed; initial centers are instead
// sampled from the observations with a source owned by this call. Callers
// guarantee len(obs) >= k.
func seededPartition(obs clusters.Observations, k int, seed int64) clusters.Clusters {
	rng := rand.New(rand.NewSource(seed))

	order := rng.Perm(len(obs))
	cc := make(clusters.Clusters, k)
	for i := range cc {
		center := obs[order[i]].Coordinates()
		cc[i] = clusters.Cluster{Center: append(clusters.Coordinates(nil), center...)}
	}

	assigned := make([]int, len(obs))
	for i := range assigned {
		assigned[i] = -1
	}

	for iter := 0; iter < maxIterations; iter++ {
		changes := 0
		cc.Reset()

		for i, o := range obs {
			ci := cc.Nearest(o)
			cc[ci].Append(o)
			if assigned[i] != ci {
				assigned[i] = ci
				changes++
			}
		}

		// An emptied cluster steals a point from one that can spare it,
		// forcing a full reassignment pass.
		for ci := range cc {
			if len(cc[ci].Observations) > 0 {
				continue
			}
			var ri int
			for {
				ri = rng.Intn(len(obs))
				if len(cc[assigned[ri]].Observations) > 1 {
					break
				}
			}
			cc[ci].Append(obs[ri])
			assigned[ri] = ci
			changes = len(obs)
		}

		if changes == 0 {
			break
		}
		cc.Recenter()
	}

	return cc
}

// featureRow extracts the configured dimensions as a coordinate row.
func featureRow(fv dataset.FeatureVector, features []string) []float64 {
	row := make([]float64, len(features))
	for i, name := range features {
		row[i], _ = fv.Dimension(name)
	}
	return row
}

// standardize scales each column of the matrix to zero mean and unit
// variance in place. A zero-variance column is centered only, its divisor
// clamped to 1 to avoid NaN.
func standardize(matrix [][]float64) {
	if len(matrix) == 0 {
		return
	}
	n := float64(len(matrix))
	dims := len(matrix[0])

	for d := 0; d < dims; d++ {
		var sum float64
		for _, row := range matrix {
			sum += row[d]
		}
		mean := sum / n

		var variance float64
		for _, row := range matrix {
			diff := row[d] - mean
			variance += diff * diff
		}
		std := math.Sqrt(variance / n)
		if std == 0 {
			std = 1
		}

		for _, row := range matrix {
			row[d] = (row[d] - mean) / std
		}
	}
}

// rawCentroid averages the unscaled feature vectors of the member tracks
// over every known dimension. Labels read raw values, so thresholds keep
// their natural meaning regardless of the configured clustering subset.
func rawCentroid(tracks []dataset.Track, members []int) map[string]float64 {
	centroid := make(map[string]float64, len(dataset.FeatureDimensions))
	if len(members) == 0 {
		return centroid
	}
	for _, dim := range dataset.FeatureDimensions {
		var sum float64
		for _, ti := range members {
			v, _ := tracks[ti].Features.Dimension(dim)
			sum += v
		}
		centroid[dim] = sum / float64(len(members))
	}
	return centroid
}
