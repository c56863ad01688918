package geo

import (
	"math"

	"go-disaster-watch/internal/models"
)

const (
	earthRadiusMeters = 6371000.0
	// MetersPerMile converts impact radii (stored in miles) to meters.
	MetersPerMile = 1609.34
)

// Distance returns the great-circle distance between two points in meters.
func Distance(a, b models.Coordinates) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}

// PointInPolygon reports whether p lies inside the polygon using the
// ray-casting rule. Polygons with fewer than 3 vertices match nothing.
func PointInPolygon(p models.Coordinates, polygon []models.Coordinates) bool {
	if len(polygon) < 3 {
		return false
	}

	inside := false
	j := len(polygon) - 1
	for i := 0; i < len(polygon); i++ {
		pi, pj := polygon[i], polygon[j]
		if (pi.Latitude > p.Latitude) != (pj.Latitude > p.Latitude) {
			cross := (pj.Longitude-pi.Longitude)*(p.Latitude-pi.Latitude)/
				(pj.Latitude-pi.Latitude) + pi.Longitude
			if p.Longitude < cross {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}
