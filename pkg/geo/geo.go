// Package geo holds the great-circle math shared by search ranking, check-in
// proximity and regional event streams.
package geo

import (
	"fmt"
	"math"
	"strconv"
)

// EarthRadiusMeters is the mean Earth radius used for every distance.
const EarthRadiusMeters = 6371000.0

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the point lies within latitude/longitude bounds.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Distance returns the haversine distance between a and b in meters.
// The angular term is clamped so rounding never pushes asin out of domain
// for antipodal or identical points.
func Distance(a, b Point) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := lat2 - lat1
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * EarthRadiusMeters * math.Asin(clamp(math.Sqrt(h), -1, 1))
}

// WithinKm reports whether b lies within radiusKm of a.
func WithinKm(a, b Point, radiusKm float64) bool {
	return Distance(a, b) <= radiusKm*1000
}

// FormatDistance renders meters as "123 m" below one kilometer and as
// kilometers with one decimal ("1.2 km") from there on.
func FormatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%d m", int64(math.Round(meters)))
	}
	return strconv.FormatFloat(math.Round(meters/100)/10, 'f', 1, 64) + " km"
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
