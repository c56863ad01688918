package models

import (
	"fmt"
	"math"
	"time"
)

type IncidentType string

const (
	IncidentTypeEarthquake IncidentType = "Earthquake"
	IncidentTypeFlood      IncidentType = "Flood"
	IncidentTypeWildfire   IncidentType = "Wildfire"
	IncidentTypeHurricane  IncidentType = "Hurricane"
	IncidentTypeTornado    IncidentType = "Tornado"
	IncidentTypeLandslide  IncidentType = "Landslide"
	IncidentTypeUnknown    IncidentType = "Unknown"
)

type IncidentStatus string

const (
	IncidentStatusActive   IncidentStatus = "active"
	IncidentStatusResolved IncidentStatus = "resolved"
)

type VerificationStatus string

const (
	VerificationPending    VerificationStatus = "pending"
	VerificationVerified   VerificationStatus = "verified"
	VerificationUnverified VerificationStatus = "unverified"
)

const (
	MinSeverity = 1
	MaxSeverity = 10
)

// Metadata is derived by the analysis service on each reprocessing pass.
type Metadata struct {
	Keywords      []string `json:"keywords"`
	PlaceOfImpact string   `json:"place_of_impact"`
	Neighborhood  string   `json:"neighborhood"`
	IncidentName  string   `json:"incident_name"`
}

type Incident struct {
	ID           string         `json:"id"`
	UserID       string         `json:"user_id,omitempty"`
	Type         IncidentType   `json:"type"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Latitude     float64        `json:"latitude"`
	Longitude    float64        `json:"longitude"`
	Severity     float64        `json:"severity"`      // 1-10
	ImpactRadius float64        `json:"impact_radius"` // miles
	Analysis     string         `json:"analysis"`
	Metadata     Metadata       `json:"metadata"`
	Status       IncidentStatus `json:"status"`

	NeedsReview        bool               `json:"needs_review"`
	VerificationScore  float64            `json:"verification_score"` // 0-1
	VerificationStatus VerificationStatus `json:"verification_status"`

	Timeline  []TimelineEntry `json:"timeline,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TimelineEntry records one reprocessing or status change. Entries are
// append-only and never reordered.
type TimelineEntry struct {
	ID           string    `json:"id"`
	IncidentID   string    `json:"incident_id"`
	Update       string    `json:"update"`
	Severity     float64   `json:"severity"`
	ImpactRadius float64   `json:"impact_radius"`
	Timestamp    time.Time `json:"timestamp"`
}

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (c Coordinates) Valid() bool {
	if math.IsNaN(c.Latitude) || math.IsInf(c.Latitude, 0) ||
		math.IsNaN(c.Longitude) || math.IsInf(c.Longitude, 0) {
		return false
	}
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

func (i *Incident) Coordinates() Coordinates {
	return Coordinates{Latitude: i.Latitude, Longitude: i.Longitude}
}

// Validate checks the invariants every stored incident must satisfy.
func (i *Incident) Validate() error {
	if i.ID == "" {
		return fmt.Errorf("incident id is required")
	}
	if !i.Coordinates().Valid() {
		return fmt.Errorf("invalid coordinates (%f, %f)", i.Latitude, i.Longitude)
	}
	if i.Severity < MinSeverity || i.Severity > MaxSeverity {
		return fmt.Errorf("severity %f outside [%d, %d]", i.Severity, MinSeverity, MaxSeverity)
	}
	if i.ImpactRadius <= 0 || math.IsNaN(i.ImpactRadius) || math.IsInf(i.ImpactRadius, 0) {
		return fmt.Errorf("impact radius must be positive, got %f", i.ImpactRadius)
	}
	return nil
}

func ParseIncidentType(s string) IncidentType {
	switch s {
	case "Earthquake", "earthquake":
		return IncidentTypeEarthquake
	case "Flood", "flood":
		return IncidentTypeFlood
	case "Wildfire", "wildfire", "fire":
		return IncidentTypeWildfire
	case "Hurricane", "hurricane", "cyclone":
		return IncidentTypeHurricane
	case "Tornado", "tornado":
		return IncidentTypeTornado
	case "Landslide", "landslide":
		return IncidentTypeLandslide
	default:
		return IncidentTypeUnknown
	}
}
