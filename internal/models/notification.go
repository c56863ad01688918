package models

import "time"

type Urgency string

const (
	UrgencyAdvisory Urgency = "ADVISORY"
	UrgencyAlert    Urgency = "ALERT"
	UrgencyWarning  Urgency = "WARNING"
	UrgencyUrgent   Urgency = "URGENT"
)

// Notification is a targeted alert for a single observer, worded by risk
// urgency. Delivery is best-effort.
type Notification struct {
	ObserverID string    `json:"observer_id"`
	Urgency    Urgency   `json:"urgency"`
	Message    string    `json:"message"`
	RiskScore  int       `json:"risk_score"`
	IncidentID string    `json:"incident_id"`
	CreatedAt  time.Time `json:"created_at"`
}
