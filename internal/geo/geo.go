// Package geo provides the great-circle math used by volunteer matching:
// Haversine distance, a bounding-box prefilter for database queries, and
// coordinate validation.
package geo

import (
	"errors"
	"math"
)

const (
	// EarthRadiusKm is the mean Earth radius used by the Haversine formula.
	EarthRadiusKm = 6371.0

	// kmPerDegree approximates one degree of latitude (and one degree of
	// longitude at the equator).
	kmPerDegree = 111.0
)

var (
	ErrInvalidLatitude  = errors.New("latitude must be between -90 and 90")
	ErrInvalidLongitude = errors.New("longitude must be between -180 and 180")
)

// BoundingBox is a rectangular superset of the disc around a center point.
// Callers must re-filter results by exact Distance, the box always contains
// points outside the radius.
type BoundingBox struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// Contains reports whether the point lies inside the box.
func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// Distance returns the Haversine great-circle distance in kilometers,
// rounded to two decimals.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	rlat1 := lat1 * math.Pi / 180
	rlon1 := lon1 * math.Pi / 180
	rlat2 := lat2 * math.Pi / 180
	rlon2 := lon2 * math.Pi / 180

	dlat := rlat2 - rlat1
	dlon := rlon2 - rlon1

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(rlat1)*math.Cos(rlat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return math.Round(EarthRadiusKm*c*100) / 100
}

// BoxAround returns a bounding box approximating the disc of radiusKm
// around (lat, lon), clamped to valid coordinate ranges.
func BoxAround(lat, lon, radiusKm float64) BoundingBox {
	latDelta := radiusKm / kmPerDegree

	// Longitude degrees shrink toward the poles.
	lonDelta := radiusKm / (kmPerDegree * math.Cos(lat*math.Pi/180))
	if math.IsInf(lonDelta, 0) || math.IsNaN(lonDelta) || lonDelta < 0 {
		lonDelta = 180
	}

	return BoundingBox{
		MinLat: clamp(lat-latDelta, -90, 90),
		MaxLat: clamp(lat+latDelta, -90, 90),
		MinLon: clamp(lon-lonDelta, -180, 180),
		MaxLon: clamp(lon+lonDelta, -180, 180),
	}
}

// ValidateCoordinates rejects out-of-range latitude or longitude. Callers
// must validate before persisting any location.
func ValidateCoordinates(lat, lon float64) error {
	if lat < -90 || lat > 90 || math.IsNaN(lat) {
		return ErrInvalidLatitude
	}
	if lon < -180 || lon > 180 || math.IsNaN(lon) {
		return ErrInvalidLongitude
	}
	return nil
}

// ExpandRadius doubles the search radius, capped at maxKm.
func ExpandRadius(currentKm, maxKm float64) float64 {
	expanded := currentKm * 2
	if expanded > maxKm {
		return maxKm
	}
	return expanded
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
