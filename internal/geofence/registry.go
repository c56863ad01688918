// Package geofence tracks the alert zones observers register and answers
// which observers an incident point falls inside.
package geofence

import (
	"fmt"
	"sync"

	"go-disaster-watch/internal/geo"
	"go-disaster-watch/internal/models"
)

// Zone is one observer's registered alert area. Home is where risk is
// evaluated when wording a notification for the observer.
type Zone struct {
	ObserverID string               `json:"observer_id"`
	Polygon    []models.Coordinates `json:"polygon"`
	Home       models.Coordinates   `json:"home"`
}

type Registry struct {
	mu    sync.RWMutex
	zones map[string]Zone // keyed by observer id
}

func NewRegistry() *Registry {
	return &Registry{zones: make(map[string]Zone)}
}

// Register adds or replaces an observer's zone.
func (r *Registry) Register(z Zone) error {
	if z.ObserverID == "" {
		return fmt.Errorf("observer id is required")
	}
	if len(z.Polygon) < 3 {
		return fmt.Errorf("polygon needs at least 3 vertices, got %d", len(z.Polygon))
	}
	for _, p := range z.Polygon {
		if !p.Valid() {
			return fmt.Errorf("polygon vertex out of range: %+v", p)
		}
	}
	if !z.Home.Valid() {
		return fmt.Errorf("home location out of range: %+v", z.Home)
	}

	r.mu.Lock()
	r.zones[z.ObserverID] = z
	r.mu.Unlock()
	return nil
}

func (r *Registry) Unregister(observerID string) {
	r.mu.Lock()
	delete(r.zones, observerID)
	r.mu.Unlock()
}

// Match returns the zones whose polygon contains the point.
func (r *Registry) Match(point models.Coordinates) []Zone {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []Zone
	for _, z := range r.zones {
		if geo.PointInPolygon(point, z.Polygon) {
			matched = append(matched, z)
		}
	}
	return matched
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.zones)
}
