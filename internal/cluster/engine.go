package cluster

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go-disaster-watch/internal/cache"
	"go-disaster-watch/internal/models"
)

const (
	// DefaultEpsilonMeters is the neighbor radius for density clustering.
	DefaultEpsilonMeters = 1000.0
	// DefaultMinPoints is the minimum neighborhood size for a core point.
	DefaultMinPoints = 2
	// DefaultCacheTTL is how long a computed cluster set stays fresh.
	DefaultCacheTTL = 5 * time.Minute
	// clusterWindow is the hard trailing filter on clustering input.
	clusterWindow = 24 * time.Hour
)

// Source supplies the incidents eligible for clustering.
type Source interface {
	FindRecent(ctx context.Context, since time.Time) ([]models.Incident, error)
}

// Engine computes density-based clusters over the trailing incident window
// and keeps the result in a TTL cache. Reads inside the freshness window
// return the cached set without recomputation.
type Engine struct {
	source    Source
	cache     cache.Store
	epsMeters float64
	minPoints int
	ttl       time.Duration
}

func NewEngine(source Source, store cache.Store) *Engine {
	return &Engine{
		source:    source,
		cache:     store,
		epsMeters: DefaultEpsilonMeters,
		minPoints: DefaultMinPoints,
		ttl:       DefaultCacheTTL,
	}
}

// Clusters returns the current cluster set, recomputing only on a cache
// miss or stale entry.
func (e *Engine) Clusters(ctx context.Context) ([]models.Cluster, error) {
	if data, ok := e.cache.Get(cache.KeyClusters); ok {
		var clusters []models.Cluster
		if err := json.Unmarshal(data, &clusters); err == nil {
			return clusters, nil
		}
		// Corrupt cache entries fall through to a recompute.
		slog.Warn("discarding unreadable cluster cache entry")
	}
	return e.Recompute(ctx)
}

// Recompute runs a full clustering pass and refreshes the cache.
func (e *Engine) Recompute(ctx context.Context) ([]models.Cluster, error) {
	since := time.Now().Add(-clusterWindow)
	incidents, err := e.source.FindRecent(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("fetching incidents for clustering: %w", err)
	}

	points := make([]Point, 0, len(incidents))
	for _, inc := range incidents {
		c := inc.Coordinates()
		if !c.Valid() {
			slog.Warn("dropping incident with malformed coordinates from clustering",
				"id", inc.ID, "lat", inc.Latitude, "lon", inc.Longitude)
			continue
		}
		points = append(points, Point{ID: inc.ID, Location: c})
	}

	clusters := Build(points, e.epsMeters, e.minPoints)

	if data, err := json.Marshal(clusters); err == nil {
		if err := e.cache.Set(cache.KeyClusters, data, e.ttl); err != nil {
			slog.Warn("failed to cache cluster data", "error", err)
		}
	}

	return clusters, nil
}

// Build turns a point set into clusters with mean-coordinate centroids.
// An empty point set yields an empty (non-nil) cluster list.
func Build(points []Point, epsMeters float64, minPoints int) []models.Cluster {
	groups := DBSCAN(points, epsMeters, minPoints)

	clusters := make([]models.Cluster, 0, len(groups))
	for _, group := range groups {
		var sumLat, sumLon float64
		ids := make([]string, 0, len(group))
		for _, idx := range group {
			sumLat += points[idx].Location.Latitude
			sumLon += points[idx].Location.Longitude
			ids = append(ids, points[idx].ID)
		}
		n := float64(len(group))
		clusters = append(clusters, models.Cluster{
			Center: models.Coordinates{
				Latitude:  sumLat / n,
				Longitude: sumLon / n,
			},
			Incidents: ids,
			Size:      len(group),
		})
	}
	return clusters
}
