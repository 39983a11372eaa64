package verify

import "math"

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371.0088

// DistanceKm computes the great-circle distance in kilometers between two
// (latitude, longitude) points in decimal degrees using the haversine
// formula. Coordinates may be continents apart, so a flat Euclidean
// approximation is not acceptable here.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(a)))
}

// WithinRadius reports whether the user position lies within radiusKm of the
// office position, along with the measured distance. The boundary is
// inclusive: a distance exactly equal to the radius passes.
func WithinRadius(userLat, userLon, officeLat, officeLon, radiusKm float64) (bool, float64) {
	distance := DistanceKm(userLat, userLon, officeLat, officeLon)
	return distance <= radiusKm, distance
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
