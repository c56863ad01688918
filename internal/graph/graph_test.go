package graph

import (
	"fmt"
	"reflect"
	"sync"
	"testing"
)

func TestUpsertIncidentMetadata_Idempotent(t *testing.T) {
	g := NewMemory()

	g.UpsertIncidentMetadata("a", []string{"flood", "river"}, "Sacramento")
	g.UpsertIncidentMetadata("b", []string{"flood"}, "Sacramento")

	first := g.RelatedIncidents("a", 5)

	// Re-running identical upserts must not create duplicate edges.
	g.UpsertIncidentMetadata("a", []string{"flood", "river"}, "Sacramento")
	g.UpsertIncidentMetadata("a", []string{"flood", "river"}, "Sacramento")

	second := g.RelatedIncidents("a", 5)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("duplicate upsert changed results: %+v vs %+v", first, second)
	}
	if len(second) != 1 || second[0].SharedKeywords != 1 {
		t.Errorf("expected one related incident with 1 shared keyword, got %+v", second)
	}
}

func TestRelatedIncidents_OrderAndLimit(t *testing.T) {
	g := NewMemory()

	g.UpsertIncidentMetadata("q", []string{"fire", "smoke", "wind"}, "Napa")
	g.UpsertIncidentMetadata("three", []string{"fire", "smoke", "wind"}, "Napa")
	g.UpsertIncidentMetadata("two", []string{"fire", "smoke"}, "Napa")
	g.UpsertIncidentMetadata("one", []string{"fire"}, "Napa")
	g.UpsertIncidentMetadata("unrelated", []string{"earthquake"}, "LA")

	got := g.RelatedIncidents("q", 5)
	wantOrder := []string{"three", "two", "one"}
	if len(got) != 3 {
		t.Fatalf("expected 3 related, got %d: %+v", len(got), got)
	}
	for i, want := range wantOrder {
		if got[i].IncidentID != want {
			t.Errorf("position %d: got %s, want %s", i, got[i].IncidentID, want)
		}
	}

	limited := g.RelatedIncidents("q", 2)
	if len(limited) != 2 {
		t.Errorf("limit not honored: got %d entries", len(limited))
	}
}

func TestRelatedIncidents_NeverIncludesSelf(t *testing.T) {
	g := NewMemory()
	g.UpsertIncidentMetadata("a", []string{"flood"}, "X")
	g.UpsertIncidentMetadata("b", []string{"flood"}, "X")

	for _, r := range g.RelatedIncidents("a", 5) {
		if r.IncidentID == "a" {
			t.Error("query result includes the queried incident")
		}
	}
}

func TestRelatedIncidents_DeterministicTiebreak(t *testing.T) {
	g := NewMemory()
	g.UpsertIncidentMetadata("q", []string{"storm"}, "X")
	for _, id := range []string{"c", "a", "b"} {
		g.UpsertIncidentMetadata(id, []string{"storm"}, "X")
	}

	first := g.RelatedIncidents("q", 5)
	for i := 0; i < 10; i++ {
		again := g.RelatedIncidents("q", 5)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("tie order unstable: %+v vs %+v", first, again)
		}
	}
	// Ties resolve by incident id.
	want := []string{"a", "b", "c"}
	for i, r := range first {
		if r.IncidentID != want[i] {
			t.Errorf("position %d: got %s, want %s", i, r.IncidentID, want[i])
		}
	}
}

func TestRelatedIncidents_EmptyCases(t *testing.T) {
	g := NewMemory()

	if got := g.RelatedIncidents("missing", 5); len(got) != 0 {
		t.Errorf("unknown incident should yield empty result, got %+v", got)
	}

	g.UpsertIncidentMetadata("solo", []string{"meteor"}, "Somewhere")
	if got := g.RelatedIncidents("solo", 5); len(got) != 0 {
		t.Errorf("incident with no matches should yield empty result, got %+v", got)
	}

	g.UpsertIncidentMetadata("nokeywords", nil, "Somewhere")
	if got := g.RelatedIncidents("nokeywords", 5); len(got) != 0 {
		t.Errorf("incident without keywords should yield empty result, got %+v", got)
	}
}

func TestUpsertIncidentMetadata_RefreshReplacesEdges(t *testing.T) {
	g := NewMemory()
	g.UpsertIncidentMetadata("a", []string{"flood", "levee"}, "Old Town")
	g.UpsertIncidentMetadata("b", []string{"levee"}, "Old Town")

	// Reprocessing drops the levee keyword; the old edge must not linger.
	g.UpsertIncidentMetadata("a", []string{"flood"}, "New Town")

	if got := g.RelatedIncidents("a", 5); len(got) != 0 {
		t.Errorf("stale keyword edge survived refresh: %+v", got)
	}
	if at := g.IncidentsAt("Old Town"); len(at) != 1 || at[0] != "b" {
		t.Errorf("place index not updated: %v", at)
	}
}

func TestRemoveIncident_Cascades(t *testing.T) {
	g := NewMemory()
	g.UpsertIncidentMetadata("a", []string{"flood"}, "X")
	g.UpsertIncidentMetadata("b", []string{"flood"}, "X")

	g.RemoveIncident("a")

	if got := g.RelatedIncidents("b", 5); len(got) != 0 {
		t.Errorf("removed incident still related: %+v", got)
	}
	if at := g.IncidentsAt("X"); len(at) != 1 {
		t.Errorf("removed incident still at place: %v", at)
	}
}

func TestUpsert_ConcurrentWriters(t *testing.T) {
	g := NewMemory()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("inc_%d", n)
			for j := 0; j < 10; j++ {
				g.UpsertIncidentMetadata(id, []string{"shared", fmt.Sprintf("kw_%d", n)}, "Place")
				g.RelatedIncidents(id, 5)
			}
		}(i)
	}
	wg.Wait()

	// Every incident shares exactly one keyword with every other.
	got := g.RelatedIncidents("inc_0", 100)
	if len(got) != 49 {
		t.Errorf("expected 49 related incidents, got %d", len(got))
	}
	for _, r := range got {
		if r.SharedKeywords != 1 {
			t.Errorf("incident %s: expected 1 shared keyword, got %d", r.IncidentID, r.SharedKeywords)
		}
	}
}
