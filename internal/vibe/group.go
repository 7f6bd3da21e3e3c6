package vibe

import (
	"cmp"
	"slices"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
)

// GroupConfig holds k-means grouping parameters.
type GroupConfig struct {
	Clusters int // Number of groups to create (default: 3)
	MinSize  int // Smaller groups become outliers
}

// DefaultGroupConfig returns the recommended default configuration.
func DefaultGroupConfig() GroupConfig {
	return GroupConfig{
		Clusters: 3,
		MinSize:  2,
	}
}

// Cluster is a set of tracks that sound alike.
type Cluster struct {
	Name     string
	IDs      []string
	Centroid map[string]float32
}

type observation struct {
	id     string
	coords clusters.Coordinates
}

func (o observation) Coordinates() clusters.Coordinates {
	return o.coords
}

func (o observation) Distance(point clusters.Coordinates) float64 {
	return o.coords.Distance(point)
}

// featureNames defines the audio features used for grouping.
var featureNames = []string{"energy", "valence", "danceability", "acousticness"}

// Group partitions tracks with k-means and names each group by its
// energy/valence quadrant. It returns the groups, largest first, and the
// IDs that did not land in a large enough group.
func Group(features []Features, cfg GroupConfig) ([]Cluster, []string) {
	if len(features) == 0 {
		return nil, nil
	}
	if cfg.Clusters <= 0 {
		cfg.Clusters = DefaultGroupConfig().Clusters
	}

	ids := func() []string {
		out := make([]string, len(features))
		for i, f := range features {
			out[i] = f.ID
		}
		return out
	}

	if len(features) < cfg.Clusters {
		return nil, ids()
	}

	var obs clusters.Observations
	for _, f := range features {
		obs = append(obs, observation{
			id: f.ID,
			coords: clusters.Coordinates{
				float64(f.Energy),
				float64(f.Valence),
				float64(f.Danceability),
				float64(f.Acousticness),
			},
		})
	}

	result, err := kmeans.New().Partition(obs, cfg.Clusters)
	if err != nil {
		return nil, ids()
	}

	var groups []Cluster
	var outliers []string

	for _, c := range result {
		var members []string
		for _, o := range c.Observations {
			if to, ok := o.(observation); ok {
				members = append(members, to.id)
			}
		}
		if len(members) == 0 {
			continue
		}
		if len(members) < cfg.MinSize {
			outliers = append(outliers, members...)
			continue
		}

		centroid := make(map[string]float32, len(featureNames))
		for i, name := range featureNames {
			centroid[name] = float32(c.Center[i])
		}

		groups = append(groups, Cluster{
			Name:     Name(centroid),
			IDs:      members,
			Centroid: centroid,
		})
	}

	slices.SortStableFunc(groups, func(a, b Cluster) int {
		return cmp.Compare(len(b.IDs), len(a.IDs))
	})

	return groups, outliers
}
