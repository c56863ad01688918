package risk

import (
	"errors"
	"math"
	"time"

	"go-disaster-watch/internal/geo"
	"go-disaster-watch/internal/models"
)

// ErrInvalidInput is returned when an incident or observer location is
// missing required fields or carries non-finite values.
var ErrInvalidInput = errors.New("risk: invalid input")

const (
	severityWeight = 0.5
	distanceWeight = 0.3
	timeWeight     = 0.2

	// Risk fully decays this long after the incident was created.
	decayWindow = 24 * time.Hour
)

type Level string

const (
	LevelCritical Level = "Critical"
	LevelHigh     Level = "High"
	LevelModerate Level = "Moderate"
	LevelLow      Level = "Low"
	LevelMinimal  Level = "Minimal"
)

// Score computes the 0-100 risk an incident poses to an observer at the
// given moment. The three terms are each normalized to [0,1] before
// weighting: severity against the 1-10 scale, distance as a linear falloff
// inside the impact radius, and time as a linear decay over 24 hours.
// Deterministic for identical inputs, including now.
func Score(incident *models.Incident, observer models.Coordinates, now time.Time) (int, error) {
	if incident == nil {
		return 0, ErrInvalidInput
	}
	if !finite(incident.Severity) || !finite(incident.ImpactRadius) ||
		incident.Severity < models.MinSeverity || incident.Severity > models.MaxSeverity ||
		incident.ImpactRadius <= 0 {
		return 0, ErrInvalidInput
	}
	if !incident.Coordinates().Valid() || !observer.Valid() {
		return 0, ErrInvalidInput
	}
	if incident.CreatedAt.IsZero() {
		return 0, ErrInvalidInput
	}

	severityFactor := incident.Severity / models.MaxSeverity

	distance := geo.Distance(observer, incident.Coordinates())
	radiusMeters := incident.ImpactRadius * geo.MetersPerMile
	distanceFactor := math.Max(0, 1-distance/radiusMeters)

	hoursSince := now.Sub(incident.CreatedAt).Hours()
	timeFactor := math.Max(0, 1-hoursSince/decayWindow.Hours())

	score := (severityFactor*severityWeight + distanceFactor*distanceWeight + timeFactor*timeWeight) * 100

	rounded := int(math.Round(score))
	if rounded < 0 {
		rounded = 0
	}
	if rounded > 100 {
		rounded = 100
	}
	return rounded, nil
}

// LevelFor bands a score for display and urgency decisions.
func LevelFor(score int) Level {
	switch {
	case score >= 80:
		return LevelCritical
	case score >= 60:
		return LevelHigh
	case score >= 40:
		return LevelModerate
	case score >= 20:
		return LevelLow
	default:
		return LevelMinimal
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
