// Package stats aggregates incident rollups and heatmap buckets for the
// dashboard, cached with a TTL so passes stay cheap.
package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	"go-disaster-watch/internal/cache"
	"go-disaster-watch/internal/models"
	"go-disaster-watch/internal/repository"
)

const (
	weeklyWindow  = 7 * 24 * time.Hour
	monthlyWindow = 30 * 24 * time.Hour
	// DefaultCacheTTL is how long generated statistics stay fresh.
	DefaultCacheTTL = time.Hour
)

// HeatmapBucket is the incident density at one rounded coordinate cell.
type HeatmapBucket struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
	Count     int     `json:"count"`
	Weight    float64 `json:"weight"` // count x average severity
}

type Statistics struct {
	WeeklyStats  []repository.TypeAggregate `json:"weekly_stats"`
	MonthlyStats []repository.TypeAggregate `json:"monthly_stats"`
	Heatmap      []HeatmapBucket            `json:"heatmap_data"`
	GeneratedAt  time.Time                  `json:"generated_at"`
}

type Generator struct {
	repo  repository.IncidentRepository
	cache cache.Store
	ttl   time.Duration
}

func NewGenerator(repo repository.IncidentRepository, store cache.Store) *Generator {
	return &Generator{repo: repo, cache: store, ttl: DefaultCacheTTL}
}

// Statistics returns the current rollup, serving from cache while fresh.
func (g *Generator) Statistics(ctx context.Context) (*Statistics, error) {
	if data, ok := g.cache.Get(cache.KeyStatistics); ok {
		var stats Statistics
		if err := json.Unmarshal(data, &stats); err == nil {
			return &stats, nil
		}
		slog.Warn("discarding unreadable statistics cache entry")
	}
	return g.Generate(ctx)
}

// Generate recomputes the rollup and refreshes the cache.
func (g *Generator) Generate(ctx context.Context) (*Statistics, error) {
	now := time.Now()

	weekly, err := g.repo.AggregateByType(ctx, now.Add(-weeklyWindow))
	if err != nil {
		return nil, fmt.Errorf("aggregating weekly stats: %w", err)
	}
	monthly, err := g.repo.AggregateByType(ctx, now.Add(-monthlyWindow))
	if err != nil {
		return nil, fmt.Errorf("aggregating monthly stats: %w", err)
	}

	since := now.Add(-monthlyWindow)
	incidents, err := g.repo.ListIncidents(ctx, repository.Filter{Since: &since, Limit: 1000})
	if err != nil {
		return nil, fmt.Errorf("listing incidents for heatmap: %w", err)
	}

	stats := &Statistics{
		WeeklyStats:  weekly,
		MonthlyStats: monthly,
		Heatmap:      buildHeatmap(incidents),
		GeneratedAt:  now,
	}

	if data, err := json.Marshal(stats); err == nil {
		if err := g.cache.Set(cache.KeyStatistics, data, g.ttl); err != nil {
			slog.Warn("failed to cache statistics", "error", err)
		}
	}

	return stats, nil
}

// buildHeatmap buckets incidents by coordinates rounded to 2 decimals
// (roughly 1 km cells) and weights each cell by count x average severity.
func buildHeatmap(incidents []models.Incident) []HeatmapBucket {
	type cell struct {
		count       int
		sumSeverity float64
	}
	cells := make(map[[2]float64]*cell)

	for _, inc := range incidents {
		key := [2]float64{round2(inc.Latitude), round2(inc.Longitude)}
		if cells[key] == nil {
			cells[key] = &cell{}
		}
		cells[key].count++
		cells[key].sumSeverity += inc.Severity
	}

	buckets := make([]HeatmapBucket, 0, len(cells))
	for key, c := range cells {
		avg := c.sumSeverity / float64(c.count)
		buckets = append(buckets, HeatmapBucket{
			Latitude:  key[0],
			Longitude: key[1],
			Count:     c.count,
			Weight:    float64(c.count) * avg,
		})
	}
	return buckets
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
