// Package monitor runs the recurring incident-monitoring pass: it refreshes
// recently reported incidents through the analysis collaborator, keeps the
// relationship graph and cluster cache current, and fans out every change.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"go-disaster-watch/internal/analysis"
	"go-disaster-watch/internal/cluster"
	"go-disaster-watch/internal/dispatch"
	"go-disaster-watch/internal/graph"
	"go-disaster-watch/internal/models"
	"go-disaster-watch/internal/repository"
	"go-disaster-watch/internal/stats"
	"go-disaster-watch/internal/worker"
)

type Config struct {
	Window          time.Duration // fine-pass trailing window
	FullWindow      time.Duration // full-pass trailing window
	AnalysisTimeout time.Duration // per-incident collaborator budget
	Concurrency     int           // incident workers per pass
	RelatedLimit    int
}

func DefaultConfig() Config {
	return Config{
		Window:          30 * time.Minute,
		FullWindow:      24 * time.Hour,
		AnalysisTimeout: 30 * time.Second,
		Concurrency:     4,
		RelatedLimit:    5,
	}
}

// Summary reports what one pass did.
type Summary struct {
	Skipped   bool
	Processed int
	Failed    int
	Clusters  int
}

// IncidentUpdate is the incident_updated event payload.
type IncidentUpdate struct {
	Incident *models.Incident `json:"incident"`
	Related  []graph.Related  `json:"related"`
}

// Monitor owns the single-flight monitoring loop. It is the only component
// with lifecycle state; everything it coordinates is stateless or
// cache-only.
type Monitor struct {
	repo        repository.IncidentRepository
	analyzer    analysis.Analyzer
	graph       graph.Graph
	clusters    *cluster.Engine
	stats       *stats.Generator
	broadcaster *dispatch.Broadcaster
	notifier    *dispatch.Notifier
	cfg         Config

	running atomic.Bool
	failed  atomic.Int64
	cron    *cron.Cron
}

func New(
	repo repository.IncidentRepository,
	analyzer analysis.Analyzer,
	g graph.Graph,
	clusters *cluster.Engine,
	statsGen *stats.Generator,
	broadcaster *dispatch.Broadcaster,
	notifier *dispatch.Notifier,
	cfg Config,
) *Monitor {
	if cfg.Window == 0 {
		cfg = DefaultConfig()
	}
	return &Monitor{
		repo:        repo,
		analyzer:    analyzer,
		graph:       g,
		clusters:    clusters,
		stats:       statsGen,
		broadcaster: broadcaster,
		notifier:    notifier,
		cfg:         cfg,
	}
}

// Start schedules the fine pass every minute and the full pass every five,
// and kicks off one eager fine pass. All triggers share the single-flight
// guard, so overlap collapses to a skip.
func (m *Monitor) Start(ctx context.Context) error {
	m.cron = cron.New()

	if _, err := m.cron.AddFunc("@every 1m", func() {
		if _, err := m.RunOnce(ctx); err != nil {
			slog.Error("monitoring pass failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("scheduling fine pass: %w", err)
	}

	if _, err := m.cron.AddFunc("@every 5m", func() {
		if _, err := m.RunFull(ctx); err != nil {
			slog.Error("full monitoring pass failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("scheduling full pass: %w", err)
	}

	m.cron.Start()

	go func() {
		if _, err := m.RunOnce(ctx); err != nil {
			slog.Error("startup monitoring pass failed", "error", err)
		}
	}()

	slog.Info("incident monitor started",
		"window", m.cfg.Window, "full_window", m.cfg.FullWindow)
	return nil
}

// Stop halts the cron triggers and waits for any scheduled invocation to
// return. An in-progress pass finishes on its own.
func (m *Monitor) Stop() {
	if m.cron != nil {
		<-m.cron.Stop().Done()
	}
	slog.Info("incident monitor stopped")
}

// RunOnce executes one fine-grained pass over the trailing window.
func (m *Monitor) RunOnce(ctx context.Context) (Summary, error) {
	return m.run(ctx, m.cfg.Window, false)
}

// RunFull executes the coarser pass: wider window, forced cluster
// recompute, statistics regeneration.
func (m *Monitor) RunFull(ctx context.Context) (Summary, error) {
	return m.run(ctx, m.cfg.FullWindow, true)
}

func (m *Monitor) run(ctx context.Context, window time.Duration, full bool) (Summary, error) {
	// Single-flight: an overlapping trigger is a no-op, never a queue.
	if !m.running.CompareAndSwap(false, true) {
		slog.Debug("monitoring pass already running, skipping tick")
		return Summary{Skipped: true}, nil
	}
	defer m.running.Store(false)

	since := time.Now().Add(-window)
	incidents, err := m.repo.FindRecent(ctx, since)
	if err != nil {
		// Nothing to process: the only failure that aborts a whole pass.
		return Summary{}, fmt.Errorf("fetching recent incidents: %w", err)
	}

	m.failed.Store(0)
	processed := m.processBatch(ctx, incidents)

	summary := Summary{
		Processed: processed,
		Failed:    int(m.failed.Load()),
	}

	summary.Clusters = m.refreshClusters(ctx, full)
	m.refreshStatistics(ctx, full)

	slog.Info("monitoring pass complete",
		"incidents", len(incidents), "processed", summary.Processed,
		"failed", summary.Failed, "clusters", summary.Clusters, "full", full)
	return summary, nil
}

func (m *Monitor) processBatch(ctx context.Context, incidents []models.Incident) int {
	if len(incidents) == 0 {
		return 0
	}

	pool := worker.NewPool(m.cfg.Concurrency, len(incidents), func(ctx context.Context, inc *models.Incident) error {
		if err := m.processIncident(ctx, inc); err != nil {
			m.failed.Add(1)
			slog.Error("failed to reprocess incident", "id", inc.ID, "error", err)
			return err
		}
		return nil
	})
	pool.Start(ctx)
	for i := range incidents {
		pool.Submit(&incidents[i])
	}
	pool.Drain()

	return len(incidents) - int(m.failed.Load())
}

// processIncident refreshes one incident. Ordering is load-bearing: the
// timeline entry is appended before the incident is saved, and observers
// are only notified after the save, so no event ever precedes durability.
func (m *Monitor) processIncident(ctx context.Context, inc *models.Incident) error {
	analysisCtx, cancel := context.WithTimeout(ctx, m.cfg.AnalysisTimeout)
	result, err := m.analyzer.Analyze(analysisCtx, inc)
	cancel()
	if err != nil {
		return fmt.Errorf("analyzing incident: %w", err)
	}

	now := time.Now()
	inc.Type = result.Type
	inc.Severity = result.Severity
	inc.ImpactRadius = result.ImpactRadius
	inc.Analysis = result.Summary
	inc.Metadata = models.Metadata{
		Keywords:      result.Keywords,
		PlaceOfImpact: result.PlaceOfImpact,
		Neighborhood:  result.Neighborhood,
		IncidentName:  result.IncidentName,
	}
	inc.UpdatedAt = now

	entry := models.TimelineEntry{
		ID:           uuid.NewString(),
		IncidentID:   inc.ID,
		Update:       "Incident reprocessed",
		Severity:     inc.Severity,
		ImpactRadius: inc.ImpactRadius,
		Timestamp:    now,
	}
	if err := m.repo.AppendTimeline(ctx, inc.ID, entry); err != nil {
		return fmt.Errorf("appending timeline entry: %w", err)
	}

	if err := m.repo.Save(ctx, inc); err != nil {
		return fmt.Errorf("saving incident: %w", err)
	}

	m.graph.UpsertIncidentMetadata(inc.ID, inc.Metadata.Keywords, inc.Metadata.PlaceOfImpact)
	related := m.graph.RelatedIncidents(inc.ID, m.cfg.RelatedLimit)

	m.broadcaster.Publish(dispatch.TopicIncidentUpdated, IncidentUpdate{
		Incident: inc,
		Related:  related,
	})
	m.notifier.NotifyGeofenced(inc, now)

	return nil
}

func (m *Monitor) refreshClusters(ctx context.Context, full bool) int {
	var (
		clusters []models.Cluster
		err      error
	)
	if full {
		clusters, err = m.clusters.Recompute(ctx)
	} else {
		clusters, err = m.clusters.Clusters(ctx)
	}
	if err != nil {
		slog.Error("clustering failed", "error", err)
		return 0
	}

	m.broadcaster.Publish(dispatch.TopicClusterUpdated, clusters)
	return len(clusters)
}

func (m *Monitor) refreshStatistics(ctx context.Context, full bool) {
	var err error
	if full {
		_, err = m.stats.Generate(ctx)
	} else {
		_, err = m.stats.Statistics(ctx)
	}
	if err != nil {
		slog.Error("statistics generation failed", "error", err)
	}
}
