package cluster

import (
	"go-disaster-watch/internal/geo"
	"go-disaster-watch/internal/models"
)

// Point is one clustering input: an incident id and its coordinates.
type Point struct {
	ID       string
	Location models.Coordinates
}

const (
	unvisited = 0
	noise     = -1
)

// DBSCAN groups points into density-based clusters. Two points share a
// cluster when reachable through a chain of neighbors each within epsMeters,
// and a cluster only forms once a core point has at least minPoints
// neighbors (itself included). Points that never meet the density threshold
// are noise and are not returned. The result is invariant to input order up
// to cluster ordering.
func DBSCAN(points []Point, epsMeters float64, minPoints int) [][]int {
	labels := make([]int, len(points))
	clusterID := 0

	for i := range points {
		if labels[i] != unvisited {
			continue
		}

		neighbors := regionQuery(points, i, epsMeters)
		if len(neighbors) < minPoints {
			labels[i] = noise
			continue
		}

		clusterID++
		labels[i] = clusterID

		// Expand the cluster over the neighbor frontier.
		for q := 0; q < len(neighbors); q++ {
			n := neighbors[q]
			if labels[n] == noise {
				labels[n] = clusterID // border point
			}
			if labels[n] != unvisited {
				continue
			}
			labels[n] = clusterID

			nn := regionQuery(points, n, epsMeters)
			if len(nn) >= minPoints {
				neighbors = append(neighbors, nn...)
			}
		}
	}

	clusters := make([][]int, clusterID)
	for i, label := range labels {
		if label > 0 {
			clusters[label-1] = append(clusters[label-1], i)
		}
	}
	return clusters
}

func regionQuery(points []Point, idx int, epsMeters float64) []int {
	var neighbors []int
	for i := range points {
		if geo.Distance(points[idx].Location, points[i].Location) <= epsMeters {
			neighbors = append(neighbors, i)
		}
	}
	return neighbors
}
