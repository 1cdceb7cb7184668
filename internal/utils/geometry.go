package utils

import "math"

const (
	// EarthRadiusKm is the mean Earth radius used for every network distance.
	EarthRadiusKm = 6371.0

	metersPerKm = 1000.0
)

// CoordinateBounds represents a bounding box with min/max latitude and longitude
type CoordinateBounds struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// HaversineKm returns the great-circle distance between two coordinates in kilometers.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	a := sinLat*sinLat + math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*sinLon*sinLon
	// Rounding can push a marginally above 1 for antipodal points.
	a = math.Min(1, math.Max(0, a))

	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// DistanceMeters is HaversineKm expressed in meters, for radius based lookups.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	return HaversineKm(lat1, lon1, lat2, lon2) * metersPerKm
}

// CalculateBounds returns the box enclosing a circle of radius meters around lat/lon.
// Latitudes are clamped to the poles and a box that reaches a pole spans every
// longitude. Longitudes may run past ±180; use Split before searching.
func CalculateBounds(lat, lon, radius float64) CoordinateBounds {
	earthRadiusMeters := EarthRadiusKm * metersPerKm
	latOffset := radius / earthRadiusMeters * 180 / math.Pi

	b := CoordinateBounds{
		MinLat: math.Max(-90, lat-latOffset),
		MaxLat: math.Min(90, lat+latOffset),
		MinLon: -180,
		MaxLon: 180,
	}
	if b.MinLat <= -90 || b.MaxLat >= 90 {
		return b
	}

	lonOffset := radius / (earthRadiusMeters * math.Cos(toRadians(lat))) * 180 / math.Pi
	if math.IsNaN(lonOffset) || lonOffset >= 180 {
		return b
	}
	b.MinLon = lon - lonOffset
	b.MaxLon = lon + lonOffset
	return b
}

// Split returns the box as one or two boxes inside [-180, 180], cutting it at
// the antimeridian when it crosses it.
func (b CoordinateBounds) Split() []CoordinateBounds {
	switch {
	case b.MinLon < -180:
		west, east := b, b
		west.MinLon, west.MaxLon = b.MinLon+360, 180
		east.MinLon = -180
		return []CoordinateBounds{west, east}
	case b.MaxLon > 180:
		west, east := b, b
		west.MaxLon = 180
		east.MinLon, east.MaxLon = -180, b.MaxLon-360
		return []CoordinateBounds{west, east}
	default:
		return []CoordinateBounds{b}
	}
}

// Contains reports whether the coordinate lies inside the box, edges included.
func (b CoordinateBounds) Contains(lat, lon float64) bool {
	for _, part := range b.Split() {
		if lat >= part.MinLat && lat <= part.MaxLat && lon >= part.MinLon && lon <= part.MaxLon {
			return true
		}
	}
	return false
}
