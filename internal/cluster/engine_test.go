package cluster

import (
	"context"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"go-disaster-watch/internal/cache"
	"go-disaster-watch/internal/models"
)

type stubSource struct {
	incidents []models.Incident
	calls     atomic.Int64
	err       error
}

func (s *stubSource) FindRecent(ctx context.Context, since time.Time) ([]models.Incident, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.incidents, nil
}

func nearbyIncidents() []models.Incident {
	return []models.Incident{
		{ID: "a", Latitude: 37.7749, Longitude: -122.4194},
		{ID: "b", Latitude: 37.7779, Longitude: -122.4194}, // ~330m north
		{ID: "c", Latitude: 37.7749, Longitude: -122.4154}, // ~350m east
	}
}

func TestEngine_RecomputeClusters(t *testing.T) {
	src := &stubSource{incidents: nearbyIncidents()}
	eng := NewEngine(src, cache.NewMemory(time.Minute, time.Minute))

	clusters, err := eng.Clusters(context.Background())
	if err != nil {
		t.Fatalf("Clusters failed: %v", err)
	}
	if len(clusters) != 1 || clusters[0].Size != 3 {
		t.Fatalf("expected one cluster of 3, got %+v", clusters)
	}
}

func TestEngine_ServesFromCache(t *testing.T) {
	src := &stubSource{incidents: nearbyIncidents()}
	eng := NewEngine(src, cache.NewMemory(time.Minute, time.Minute))

	ctx := context.Background()
	if _, err := eng.Clusters(ctx); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		if _, err := eng.Clusters(ctx); err != nil {
			t.Fatal(err)
		}
	}

	if got := src.calls.Load(); got != 1 {
		t.Errorf("expected 1 source fetch within freshness window, got %d", got)
	}
}

func TestEngine_StaleCacheRecomputes(t *testing.T) {
	src := &stubSource{incidents: nearbyIncidents()}
	store := cache.NewMemory(time.Minute, time.Minute)
	eng := NewEngine(src, store)
	eng.ttl = 10 * time.Millisecond

	ctx := context.Background()
	if _, err := eng.Clusters(ctx); err != nil {
		t.Fatal(err)
	}
	time.Sleep(30 * time.Millisecond)
	if _, err := eng.Clusters(ctx); err != nil {
		t.Fatal(err)
	}

	if got := src.calls.Load(); got != 2 {
		t.Errorf("expected recompute after staleness, got %d fetches", got)
	}
}

func TestEngine_DropsMalformedPoints(t *testing.T) {
	incidents := nearbyIncidents()
	incidents = append(incidents,
		models.Incident{ID: "nan", Latitude: math.NaN(), Longitude: 0},
		models.Incident{ID: "oob", Latitude: 95, Longitude: 0},
	)
	src := &stubSource{incidents: incidents}
	eng := NewEngine(src, cache.NewMemory(time.Minute, time.Minute))

	clusters, err := eng.Clusters(context.Background())
	if err != nil {
		t.Fatalf("malformed points must not be fatal: %v", err)
	}
	for _, c := range clusters {
		for _, id := range c.Incidents {
			if id == "nan" || id == "oob" {
				t.Errorf("malformed point %s leaked into a cluster", id)
			}
		}
	}
}

func TestEngine_EmptyWindow(t *testing.T) {
	src := &stubSource{}
	eng := NewEngine(src, cache.NewMemory(time.Minute, time.Minute))

	clusters, err := eng.Clusters(context.Background())
	if err != nil {
		t.Fatalf("empty window must not error: %v", err)
	}
	if len(clusters) != 0 {
		t.Errorf("expected no clusters, got %d", len(clusters))
	}
}
