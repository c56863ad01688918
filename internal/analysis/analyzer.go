// Package analysis wraps the external text-analysis collaborator that turns
// a raw incident description into structured severity, impact and metadata.
package analysis

import (
	"context"
	"errors"

	"go-disaster-watch/internal/models"
)

// ErrUnavailable wraps collaborator failures so callers can treat them as
// this-incident-only and keep the batch alive.
var ErrUnavailable = errors.New("analysis: service unavailable")

// Result is the refreshed analysis for one incident.
type Result struct {
	Type          models.IncidentType `json:"type"`
	Severity      float64             `json:"severity"`      // 1-10
	ImpactRadius  float64             `json:"impact_radius"` // miles
	Summary       string              `json:"summary"`
	Keywords      []string            `json:"keywords"`
	PlaceOfImpact string              `json:"place_of_impact"`
	Neighborhood  string              `json:"neighborhood"`
	IncidentName  string              `json:"incident_name"`
}

// Analyzer is the single entry point to the analysis collaborator. Tests
// substitute a deterministic stub.
type Analyzer interface {
	Analyze(ctx context.Context, incident *models.Incident) (*Result, error)
}
