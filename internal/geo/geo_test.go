package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
	}{
		{"same point", 43.238949, 76.889709, 43.238949, 76.889709, 0},
		{"almaty to astana", 43.238949, 76.889709, 51.169392, 71.449074, 972.25},
		{"london to paris", 51.5074, -0.1278, 48.8566, 2.3522, 343.56},
		{"across antimeridian", 0, 179.5, 0, -179.5, 111.19},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			assert.InDelta(t, tt.want, got, 1.0)
		})
	}
}

func TestDistanceSymmetry(t *testing.T) {
	pairs := [][4]float64{
		{43.24, 76.89, 51.17, 71.45},
		{0, 0, 10, 10},
		{-33.87, 151.21, 40.71, -74.01},
		{89.9, 0, -89.9, 180},
	}
	for _, p := range pairs {
		assert.Equal(t, Distance(p[0], p[1], p[2], p[3]), Distance(p[2], p[3], p[0], p[1]))
	}
}

func TestDistanceIdentity(t *testing.T) {
	assert.Zero(t, Distance(43.24, 76.89, 43.24, 76.89))
	assert.Zero(t, Distance(0, 0, 0, 0))
	assert.Zero(t, Distance(-90, 0, -90, 0))
}

func TestBoxAroundIsSuperset(t *testing.T) {
	center := [2]float64{43.238949, 76.889709}
	radius := 25.0
	box := BoxAround(center[0], center[1], radius)

	// Points sampled inside the disc must always land inside the box.
	offsets := [][2]float64{
		{0, 0},
		{0.2, 0}, {-0.2, 0},
		{0, 0.25}, {0, -0.25},
		{0.15, 0.15}, {-0.15, -0.15},
	}
	for _, off := range offsets {
		lat := center[0] + off[0]
		lon := center[1] + off[1]
		if Distance(center[0], center[1], lat, lon) <= radius {
			assert.True(t, box.Contains(lat, lon), "point (%f, %f) inside radius but outside box", lat, lon)
		}
	}
}

func TestBoxAroundClamping(t *testing.T) {
	box := BoxAround(89.9, 0, 100)
	assert.LessOrEqual(t, box.MaxLat, 90.0)
	assert.GreaterOrEqual(t, box.MinLon, -180.0)
	assert.LessOrEqual(t, box.MaxLon, 180.0)

	box = BoxAround(-89.9, 179.9, 100)
	assert.GreaterOrEqual(t, box.MinLat, -90.0)
	assert.LessOrEqual(t, box.MaxLon, 180.0)
}

func TestValidateCoordinates(t *testing.T) {
	require.NoError(t, ValidateCoordinates(43.24, 76.89))
	require.NoError(t, ValidateCoordinates(-90, -180))
	require.NoError(t, ValidateCoordinates(90, 180))

	assert.ErrorIs(t, ValidateCoordinates(90.1, 0), ErrInvalidLatitude)
	assert.ErrorIs(t, ValidateCoordinates(-90.1, 0), ErrInvalidLatitude)
	assert.ErrorIs(t, ValidateCoordinates(0, 180.1), ErrInvalidLongitude)
	assert.ErrorIs(t, ValidateCoordinates(0, -180.1), ErrInvalidLongitude)
}

func TestExpandRadius(t *testing.T) {
	assert.Equal(t, 20.0, ExpandRadius(10, 100))
	assert.Equal(t, 100.0, ExpandRadius(60, 100))
	assert.Equal(t, 100.0, ExpandRadius(100, 100))
}
