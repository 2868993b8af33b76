package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKm(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
		tolerance              float64
	}{
		{
			name: "same point",
			lat1: 48.8566, lon1: 2.3522,
			lat2: 48.8566, lon2: 2.3522,
			want: 0, tolerance: 0.001,
		},
		{
			name: "paris to london",
			lat1: 48.8566, lon1: 2.3522,
			lat2: 51.5074, lon2: -0.1278,
			want: 343.5, tolerance: 2,
		},
		{
			name: "one degree of latitude at equator",
			lat1: 0, lon1: 0,
			lat2: 1, lon2: 0,
			want: 111.19, tolerance: 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceKm(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			assert.InDelta(t, tt.want, got, tt.tolerance)
		})
	}
}

func TestDistanceKmSymmetric(t *testing.T) {
	d1 := DistanceKm(40.7128, -74.0060, 34.0522, -118.2437)
	d2 := DistanceKm(34.0522, -118.2437, 40.7128, -74.0060)
	assert.InDelta(t, d1, d2, 1e-9)
}

func TestDistanceToKmNilCoordinates(t *testing.T) {
	lat := 48.85
	assert.True(t, math.IsInf(DistanceToKm(48.85, 2.35, nil, nil), 1))
	assert.True(t, math.IsInf(DistanceToKm(48.85, 2.35, &lat, nil), 1))
	lon := 2.35
	assert.InDelta(t, 0, DistanceToKm(48.85, 2.35, &lat, &lon), 0.001)
}

func TestBoundingBoxContainsCenter(t *testing.T) {
	box := BoundingBox(48.8566, 2.3522, 5)
	assert.Less(t, box.MinLat, 48.8566)
	assert.Greater(t, box.MaxLat, 48.8566)
	assert.Less(t, box.MinLon, 2.3522)
	assert.Greater(t, box.MaxLon, 2.3522)
}

// Points inside the exact radius must never fall outside the box: the
// pre-filter has to be at least as wide as the true search radius.
func TestBoundingBoxNeverTighterThanRadius(t *testing.T) {
	centers := []struct{ lat, lon float64 }{
		{0, 0},
		{48.8566, 2.3522},
		{59.3293, 18.0686},
		{-33.8688, 151.2093},
	}
	radii := []float64{1, 5, 25, 100}

	for _, c := range centers {
		for _, r := range radii {
			box := BoundingBox(c.lat, c.lon, r)

			// Walk the circle of the exact radius and verify every point
			// stays inside the box.
			for deg := 0; deg < 360; deg += 15 {
				bearing := float64(deg) * math.Pi / 180
				lat := c.lat + (r/kmPerDegreeLat)*math.Cos(bearing)
				lon := c.lon + (r/(kmPerDegreeLat*math.Cos(c.lat*math.Pi/180)))*math.Sin(bearing)

				if DistanceKm(c.lat, c.lon, lat, lon) > r {
					continue
				}
				assert.GreaterOrEqual(t, lat, box.MinLat)
				assert.LessOrEqual(t, lat, box.MaxLat)
				assert.GreaterOrEqual(t, lon, box.MinLon)
				assert.LessOrEqual(t, lon, box.MaxLon)
			}
		}
	}
}

func TestBoundingBoxLongitudeWidensWithLatitude(t *testing.T) {
	equator := BoundingBox(0, 0, 10)
	north := BoundingBox(60, 0, 10)

	equatorWidth := equator.MaxLon - equator.MinLon
	northWidth := north.MaxLon - north.MinLon
	assert.Greater(t, northWidth, equatorWidth)
}
