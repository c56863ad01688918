package repository

import (
	"context"
	"errors"
	"time"

	"go-disaster-watch/internal/models"
)

// ErrNotFound is returned by write paths targeting a missing incident.
// Read paths return empty results instead.
var ErrNotFound = errors.New("repository: incident not found")

type Filter struct {
	Limit       int
	Offset      int
	Since       *time.Time
	Type        *models.IncidentType
	Status      *models.IncidentStatus
	MinSeverity *float64
}

// TypeAggregate is one row of the per-type statistics rollup.
type TypeAggregate struct {
	Type                models.IncidentType `json:"type"`
	Count               int                 `json:"count"`
	AverageSeverity     float64             `json:"average_severity"`
	AverageImpactRadius float64             `json:"average_impact_radius"`
}

type IncidentRepository interface {
	Add(ctx context.Context, inc *models.Incident) error
	Save(ctx context.Context, inc *models.Incident) error
	GetByID(ctx context.Context, id string) (*models.Incident, error)
	Exists(ctx context.Context, id string) (bool, error)
	FindRecent(ctx context.Context, since time.Time) ([]models.Incident, error)
	ListIncidents(ctx context.Context, opts Filter) ([]models.Incident, error)
	FindNearby(ctx context.Context, center models.Coordinates, radiusMeters float64) ([]models.Incident, error)
	FindByKeyword(ctx context.Context, keyword string) ([]models.Incident, error)
	AppendTimeline(ctx context.Context, incidentID string, entry models.TimelineEntry) error
	Timeline(ctx context.Context, incidentID string) ([]models.TimelineEntry, error)
	AggregateByType(ctx context.Context, since time.Time) ([]TypeAggregate, error)
}
