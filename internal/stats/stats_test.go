package stats

import (
	"context"
	"testing"
	"time"

	"go-disaster-watch/internal/cache"
	"go-disaster-watch/internal/models"
	"go-disaster-watch/internal/repository"
)

func seedRepo(t *testing.T) *repository.SQLiteDB {
	t.Helper()
	db, err := repository.NewSQLiteDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}

	ctx := context.Background()
	now := time.Now()

	add := func(id string, incType models.IncidentType, severity float64, lat, lon float64, age time.Duration) {
		inc := &models.Incident{
			ID:                 id,
			Type:               incType,
			Title:              "t",
			Latitude:           lat,
			Longitude:          lon,
			Severity:           severity,
			ImpactRadius:       2,
			Status:             models.IncidentStatusActive,
			VerificationStatus: models.VerificationPending,
			CreatedAt:          now.Add(-age),
			UpdatedAt:          now.Add(-age),
		}
		if err := db.Add(ctx, inc); err != nil {
			t.Fatalf("seeding %s: %v", id, err)
		}
	}

	// Two floods this week at the same rounded cell, one wildfire 10 days
	// ago (monthly only).
	add("f1", models.IncidentTypeFlood, 4, 38.581, -121.492, time.Hour)
	add("f2", models.IncidentTypeFlood, 8, 38.582, -121.493, 2*time.Hour)
	add("w1", models.IncidentTypeWildfire, 9, 40.0, -120.0, 10*24*time.Hour)
	return db
}

func TestGenerator_Generate(t *testing.T) {
	db := seedRepo(t)
	defer db.Close()

	g := NewGenerator(db, cache.NewMemory(time.Minute, time.Minute))

	stats, err := g.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if len(stats.WeeklyStats) != 1 {
		t.Errorf("expected 1 weekly type, got %+v", stats.WeeklyStats)
	}
	if len(stats.MonthlyStats) != 2 {
		t.Errorf("expected 2 monthly types, got %+v", stats.MonthlyStats)
	}

	// Both floods land in the same 0.01-degree cell.
	var floodBucket *HeatmapBucket
	for i := range stats.Heatmap {
		if stats.Heatmap[i].Latitude == 38.58 {
			floodBucket = &stats.Heatmap[i]
		}
	}
	if floodBucket == nil {
		t.Fatalf("flood cell missing from heatmap: %+v", stats.Heatmap)
	}
	if floodBucket.Count != 2 {
		t.Errorf("expected 2 incidents in flood cell, got %d", floodBucket.Count)
	}
	if floodBucket.Weight != 12 { // 2 incidents x avg severity 6
		t.Errorf("expected weight 12, got %f", floodBucket.Weight)
	}
}

func TestGenerator_ServesFromCache(t *testing.T) {
	db := seedRepo(t)
	g := NewGenerator(db, cache.NewMemory(time.Minute, time.Minute))

	ctx := context.Background()
	first, err := g.Statistics(ctx)
	if err != nil {
		t.Fatal(err)
	}

	// Close the repo: a cache hit must not touch it.
	db.Close()

	second, err := g.Statistics(ctx)
	if err != nil {
		t.Fatalf("cached read should not hit the repository: %v", err)
	}
	if !second.GeneratedAt.Equal(first.GeneratedAt) {
		t.Error("expected the cached rollup, got a recompute")
	}
}

func TestGenerator_StaleCacheRecomputes(t *testing.T) {
	db := seedRepo(t)
	defer db.Close()

	g := NewGenerator(db, cache.NewMemory(time.Minute, time.Minute))
	g.ttl = 10 * time.Millisecond

	ctx := context.Background()
	first, err := g.Statistics(ctx)
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(30 * time.Millisecond)

	second, err := g.Statistics(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !second.GeneratedAt.After(first.GeneratedAt) {
		t.Error("expected recompute after TTL expiry")
	}
}
