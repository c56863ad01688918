package risk

import "go-disaster-watch/internal/models"

// Actions pairs general guidance with type-specific guidance for a risk level.
type Actions struct {
	General  string `json:"general_action"`
	Specific string `json:"specific_action"`
}

var generalActions = map[Level]string{
	LevelCritical: "Evacuate immediately. Follow official instructions.",
	LevelHigh:     "Prepare for possible evacuation. Stay alert for updates.",
	LevelModerate: "Be prepared to act. Monitor official channels for updates.",
	LevelLow:      "Stay informed. Review your emergency plan.",
	LevelMinimal:  "Be aware of the situation. No immediate action required.",
}

var specificActions = map[models.IncidentType]map[Level]string{
	models.IncidentTypeEarthquake: {
		LevelCritical: "Drop, cover, and hold on. Move to open areas if safe to do so.",
		LevelHigh:     "Secure heavy objects. Identify safe spots in each room.",
		LevelModerate: "Practice earthquake drills. Check emergency supplies.",
	},
	models.IncidentTypeFlood: {
		LevelCritical: "Move to higher ground immediately. Avoid walking or driving through flood waters.",
		LevelHigh:     "Prepare to move valuables to upper floors. Charge devices and prepare go-bag.",
		LevelModerate: "Clear drains and gutters. Move vehicles to higher ground.",
	},
	models.IncidentTypeWildfire: {
		LevelCritical: "Evacuate immediately if ordered. Close all windows and doors.",
		LevelHigh:     "Pack your go-bag. Clear area around house of flammable materials.",
		LevelModerate: "Review evacuation plans. Ensure outdoor water sources are accessible.",
	},
}

// RecommendedActions returns guidance for the given score and incident type,
// falling back to the general guidance when no type-specific entry exists.
func RecommendedActions(score int, incidentType models.IncidentType) Actions {
	level := LevelFor(score)
	general := generalActions[level]

	specific := general
	if byLevel, ok := specificActions[incidentType]; ok {
		if s, ok := byLevel[level]; ok {
			specific = s
		}
	}
	return Actions{General: general, Specific: specific}
}
