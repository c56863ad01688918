package geo

import (
	"math"
	"testing"

	"go-disaster-watch/internal/models"
)

func TestDistance_ZeroAtSamePoint(t *testing.T) {
	p := models.Coordinates{Latitude: 37.7749, Longitude: -122.4194}
	if d := Distance(p, p); d != 0 {
		t.Errorf("expected 0, got %f", d)
	}
}

func TestDistance_KnownPairs(t *testing.T) {
	tests := []struct {
		name    string
		a, b    models.Coordinates
		want    float64 // meters
		epsilon float64
	}{
		{
			name:    "one degree latitude",
			a:       models.Coordinates{Latitude: 0, Longitude: 0},
			b:       models.Coordinates{Latitude: 1, Longitude: 0},
			want:    111195,
			epsilon: 100,
		},
		{
			name:    "SF to LA",
			a:       models.Coordinates{Latitude: 37.7749, Longitude: -122.4194},
			b:       models.Coordinates{Latitude: 34.0522, Longitude: -118.2437},
			want:    559000,
			epsilon: 2000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.a, tt.b)
			if math.Abs(got-tt.want) > tt.epsilon {
				t.Errorf("Distance() = %f, want %f +/- %f", got, tt.want, tt.epsilon)
			}
		})
	}
}

func TestDistance_Symmetric(t *testing.T) {
	a := models.Coordinates{Latitude: 40.7128, Longitude: -74.0060}
	b := models.Coordinates{Latitude: 51.5074, Longitude: -0.1278}
	if d1, d2 := Distance(a, b), Distance(b, a); math.Abs(d1-d2) > 1e-9 {
		t.Errorf("distance not symmetric: %f vs %f", d1, d2)
	}
}

func TestPointInPolygon(t *testing.T) {
	square := []models.Coordinates{
		{Latitude: 0, Longitude: 0},
		{Latitude: 0, Longitude: 10},
		{Latitude: 10, Longitude: 10},
		{Latitude: 10, Longitude: 0},
	}

	tests := []struct {
		name string
		p    models.Coordinates
		want bool
	}{
		{"center", models.Coordinates{Latitude: 5, Longitude: 5}, true},
		{"outside north", models.Coordinates{Latitude: 11, Longitude: 5}, false},
		{"outside east", models.Coordinates{Latitude: 5, Longitude: 11}, false},
		{"far away", models.Coordinates{Latitude: -40, Longitude: 120}, false},
		{"near edge inside", models.Coordinates{Latitude: 9.99, Longitude: 9.99}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PointInPolygon(tt.p, square); got != tt.want {
				t.Errorf("PointInPolygon(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestPointInPolygon_DegeneratePolygon(t *testing.T) {
	p := models.Coordinates{Latitude: 5, Longitude: 5}
	if PointInPolygon(p, nil) {
		t.Error("empty polygon should match nothing")
	}
	if PointInPolygon(p, []models.Coordinates{{Latitude: 0, Longitude: 0}, {Latitude: 1, Longitude: 1}}) {
		t.Error("two-vertex polygon should match nothing")
	}
}
