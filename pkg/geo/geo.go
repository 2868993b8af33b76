package geo

import "math"

const (
	earthRadiusKm = 6371.0

	// kmPerDegreeLat approximates one degree of latitude. Longitude
	// degree length shrinks by cos(latitude) toward the poles.
	kmPerDegreeLat = 111.32
)

// Box is a latitude/longitude bounding box used as a cheap pre-filter
// before an exact distance check. It is never tighter than the radius
// it was built from; callers must still re-filter with DistanceKm.
type Box struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// BoundingBox returns the box of side 2*radiusKm centered on the given
// point. NaN input propagates to the output; callers must guard.
func BoundingBox(lat, lon, radiusKm float64) Box {
	latDelta := radiusKm / kmPerDegreeLat

	kmPerDegreeLon := kmPerDegreeLat * math.Cos(lat*math.Pi/180)
	lonDelta := radiusKm / kmPerDegreeLon

	return Box{
		MinLat: lat - latDelta,
		MaxLat: lat + latDelta,
		MinLon: lon - lonDelta,
		MaxLon: lon + lonDelta,
	}
}

// DistanceKm returns the Haversine great-circle distance between two
// points, in kilometers.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	rlat1 := lat1 * math.Pi / 180
	rlat2 := lat2 * math.Pi / 180
	dlat := (lat2 - lat1) * math.Pi / 180
	dlon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(rlat1)*math.Cos(rlat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// DistanceToKm returns the distance to a possibly absent coordinate
// pair. Targets without coordinates get +Inf so they sort last and are
// excluded by any finite radius filter.
func DistanceToKm(lat, lon float64, targetLat, targetLon *float64) float64 {
	if targetLat == nil || targetLon == nil {
		return math.Inf(1)
	}
	return DistanceKm(lat, lon, *targetLat, *targetLon)
}
