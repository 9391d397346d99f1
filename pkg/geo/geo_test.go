package geo

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance_SamePointIsZero(t *testing.T) {
	points := []Point{
		{Lat: 0, Lng: 0},
		{Lat: 48.8566, Lng: 2.3522},
		{Lat: -33.8688, Lng: 151.2093},
		{Lat: 89.9999, Lng: -179.9999},
	}
	for _, p := range points {
		d := Distance(p, p)
		assert.Equal(t, 0.0, d)
		assert.Equal(t, "0 m", FormatDistance(d))
	}
}

func TestDistance_KnownPairs(t *testing.T) {
	paris := Point{Lat: 48.8566, Lng: 2.3522}
	london := Point{Lat: 51.5074, Lng: -0.1278}

	d := Distance(paris, london)
	assert.InDelta(t, 343_500, d, 1_000)
	assert.Equal(t, d, Distance(london, paris))
}

func TestDistance_AntipodalIsStable(t *testing.T) {
	d := Distance(Point{Lat: 0, Lng: 0}, Point{Lat: 0, Lng: 180})

	assert.False(t, math.IsNaN(d))
	assert.InDelta(t, math.Pi*EarthRadiusMeters, d, 1)

	d = Distance(Point{Lat: 90, Lng: 0}, Point{Lat: -90, Lng: 0})
	assert.False(t, math.IsNaN(d))
}

func TestFormatDistance(t *testing.T) {
	cases := []struct {
		meters float64
		want   string
	}{
		{0, "0 m"},
		{0.4, "0 m"},
		{123.4, "123 m"},
		{123.5, "124 m"},
		{999.4, "999 m"},
		{1000, "1.0 km"},
		{1234, "1.2 km"},
		{1250, "1.3 km"},
		{15_049, "15.0 km"},
		{342_712, "342.7 km"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatDistance(tc.meters), "meters=%v", tc.meters)
	}
}

func TestFormatDistance_Units(t *testing.T) {
	for m := 0.0; m < 5000; m += 37.3 {
		label := FormatDistance(m)
		if m < 1000 {
			assert.True(t, strings.HasSuffix(label, " m"), label)
			assert.NotContains(t, label, ".")
		} else {
			assert.True(t, strings.HasSuffix(label, " km"), label)
			assert.Regexp(t, `^\d+\.\d km$`, label)
		}
	}
}

func TestWithinKm(t *testing.T) {
	origin := Point{Lat: 52.52, Lng: 13.405}
	near := Point{Lat: 52.53, Lng: 13.41}

	assert.True(t, WithinKm(origin, near, 5))
	assert.False(t, WithinKm(origin, near, 0.5))
}

func TestPoint_Valid(t *testing.T) {
	assert.True(t, Point{Lat: -90, Lng: 180}.Valid())
	assert.False(t, Point{Lat: 91, Lng: 0}.Valid())
	assert.False(t, Point{Lat: 0, Lng: -181}.Valid())
}
