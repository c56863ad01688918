package dispatch

import (
	"fmt"
	"log/slog"
	"time"

	"go-disaster-watch/internal/geofence"
	"go-disaster-watch/internal/models"
	"go-disaster-watch/internal/risk"
)

// Notifier builds targeted alerts for observers whose registered zone
// contains an incident and hands them to the broadcaster. All delivery is
// fire-and-forget.
type Notifier struct {
	broadcaster *Broadcaster
	zones       *geofence.Registry
}

func NewNotifier(broadcaster *Broadcaster, zones *geofence.Registry) *Notifier {
	return &Notifier{broadcaster: broadcaster, zones: zones}
}

// NotifyGeofenced alerts every observer whose polygon contains the incident
// point. Urgency wording follows the risk score evaluated at the observer's
// home location; observers the scorer rejects are skipped.
func (n *Notifier) NotifyGeofenced(incident *models.Incident, now time.Time) int {
	matched := n.zones.Match(incident.Coordinates())

	sent := 0
	for _, zone := range matched {
		score, err := risk.Score(incident, zone.Home, now)
		if err != nil {
			slog.Warn("skipping observer with unscorable location",
				"observer", zone.ObserverID, "incident", incident.ID, "error", err)
			continue
		}

		notification := BuildNotification(incident, zone.ObserverID, score, now)
		n.broadcaster.SendToObserver(zone.ObserverID, TopicUserNotification, notification)
		sent++
	}
	return sent
}

// BuildNotification words an alert by risk score band.
func BuildNotification(incident *models.Incident, observerID string, score int, now time.Time) models.Notification {
	var (
		urgency models.Urgency
		action  string
	)
	switch {
	case score >= 80:
		urgency = models.UrgencyUrgent
		action = "Evacuate immediately"
	case score >= 50:
		urgency = models.UrgencyWarning
		action = "Prepare for possible evacuation"
	case score >= 20:
		urgency = models.UrgencyAlert
		action = "Stay informed and be prepared"
	default:
		urgency = models.UrgencyAdvisory
		action = "Be aware of the situation"
	}

	return models.Notification{
		ObserverID: observerID,
		Urgency:    urgency,
		Message:    fmt.Sprintf("%s: %s reported near your location. %s.", urgency, incident.Type, action),
		RiskScore:  score,
		IncidentID: incident.ID,
		CreatedAt:  now,
	}
}
