// Package graph maintains the keyword/place relationship graph between
// incidents. Keyword and place vertices exist only to derive
// incident-to-incident relationships; they are not domain entities.
package graph

import (
	"sort"
	"sync"
)

// Related is one entry of a related-incidents query result.
type Related struct {
	IncidentID     string `json:"incident_id"`
	SharedKeywords int    `json:"shared_keywords"`
}

// Graph answers "related incidents" queries over keyword and place edges.
// Implementations must make metadata upserts idempotent and safe for
// concurrent writers.
type Graph interface {
	UpsertIncidentMetadata(incidentID string, keywords []string, placeName string)
	RelatedIncidents(incidentID string, limit int) []Related
	RemoveIncident(incidentID string)
}

// Memory is an in-process Graph keeping forward and inverse edge indexes
// under one lock.
type Memory struct {
	mu sync.RWMutex

	// incident -> keyword set, and the inverse
	incidentKeywords map[string]map[string]struct{}
	keywordIncidents map[string]map[string]struct{}

	// incident -> place, and the inverse
	incidentPlace  map[string]string
	placeIncidents map[string]map[string]struct{}
}

func NewMemory() *Memory {
	return &Memory{
		incidentKeywords: make(map[string]map[string]struct{}),
		keywordIncidents: make(map[string]map[string]struct{}),
		incidentPlace:    make(map[string]string),
		placeIncidents:   make(map[string]map[string]struct{}),
	}
}

// UpsertIncidentMetadata merges the incident's keyword and place edges.
// Re-running with identical metadata changes nothing; refreshed metadata
// replaces the previous edge set for the incident.
func (g *Memory) UpsertIncidentMetadata(incidentID string, keywords []string, placeName string) {
	if incidentID == "" {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	// Drop stale keyword edges no longer present in the refreshed metadata.
	next := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		if kw != "" {
			next[kw] = struct{}{}
		}
	}
	for kw := range g.incidentKeywords[incidentID] {
		if _, keep := next[kw]; !keep {
			g.unlink(g.keywordIncidents, kw, incidentID)
		}
	}

	g.incidentKeywords[incidentID] = next
	for kw := range next {
		if g.keywordIncidents[kw] == nil {
			g.keywordIncidents[kw] = make(map[string]struct{})
		}
		g.keywordIncidents[kw][incidentID] = struct{}{}
	}

	if prev, ok := g.incidentPlace[incidentID]; ok && prev != placeName {
		g.unlink(g.placeIncidents, prev, incidentID)
	}
	if placeName != "" {
		g.incidentPlace[incidentID] = placeName
		if g.placeIncidents[placeName] == nil {
			g.placeIncidents[placeName] = make(map[string]struct{})
		}
		g.placeIncidents[placeName][incidentID] = struct{}{}
	}
}

// RelatedIncidents returns up to limit incidents sharing at least one
// keyword with incidentID, ordered by shared-keyword count descending with
// incident id as the deterministic tiebreak. The queried incident is never
// included. Missing incidents and empty keyword sets yield an empty slice.
func (g *Memory) RelatedIncidents(incidentID string, limit int) []Related {
	if limit <= 0 {
		limit = 5
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	shared := make(map[string]int)
	for kw := range g.incidentKeywords[incidentID] {
		for other := range g.keywordIncidents[kw] {
			if other != incidentID {
				shared[other]++
			}
		}
	}

	results := make([]Related, 0, len(shared))
	for id, count := range shared {
		results = append(results, Related{IncidentID: id, SharedKeywords: count})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].SharedKeywords != results[j].SharedKeywords {
			return results[i].SharedKeywords > results[j].SharedKeywords
		}
		return results[i].IncidentID < results[j].IncidentID
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// RemoveIncident cascades the incident's edges out of the graph.
func (g *Memory) RemoveIncident(incidentID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for kw := range g.incidentKeywords[incidentID] {
		g.unlink(g.keywordIncidents, kw, incidentID)
	}
	delete(g.incidentKeywords, incidentID)

	if place, ok := g.incidentPlace[incidentID]; ok {
		g.unlink(g.placeIncidents, place, incidentID)
		delete(g.incidentPlace, incidentID)
	}
}

// IncidentsAt returns the incidents linked to a place node.
func (g *Memory) IncidentsAt(placeName string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	ids := make([]string, 0, len(g.placeIncidents[placeName]))
	for id := range g.placeIncidents[placeName] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (g *Memory) unlink(index map[string]map[string]struct{}, node, incidentID string) {
	if set, ok := index[node]; ok {
		delete(set, incidentID)
		if len(set) == 0 {
			delete(index, node)
		}
	}
}
