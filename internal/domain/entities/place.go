package entities

import (
	"time"

	"github.com/gotham-app/backend/pkg/geo"
)

// Location is a GeoJSON point. Coordinates are [longitude, latitude].
type Location struct {
	Type        string    `json:"type" bson:"type"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates"`
}

// NewLocation builds a GeoJSON point from a latitude/longitude pair
func NewLocation(lat, lng float64) Location {
	return Location{Type: "Point", Coordinates: []float64{lng, lat}}
}

// Point converts the stored coordinates into a geo.Point.
// ok is false when the location carries no usable coordinates.
func (l Location) Point() (p geo.Point, ok bool) {
	if len(l.Coordinates) < 2 {
		return geo.Point{}, false
	}
	return geo.Point{Lng: l.Coordinates[0], Lat: l.Coordinates[1]}, true
}

// Place represents a point of interest users discover, like and check into
type Place struct {
	ID               string    `json:"id"`
	Text             string    `json:"text"`
	ImageURL         string    `json:"imageUrl"`
	Percent          float64   `json:"percent"`
	Capacity         int       `json:"capacity"`
	CurrentOccupancy int       `json:"currentOccupancy"`
	Photos           []string  `json:"photos"`
	Tags             []string  `json:"tags"`
	Description      string    `json:"description"`
	Address          string    `json:"address"`
	Phone            string    `json:"phone"`
	Location         Location  `json:"location"`
	Owner            string    `json:"owner"`
	Members          []string  `json:"members"`
	LikeCount        int       `json:"likeCount"`
	CreatedAt        time.Time `json:"createdAt"`
}
