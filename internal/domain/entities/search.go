package entities

import "github.com/gotham-app/backend/pkg/geo"

// Mood buckets over Place.Percent
const (
	MoodQuiet  = 1
	MoodMedium = 2
	MoodBusy   = 3
)

// SearchRequest is an ephemeral place query
type SearchRequest struct {
	Text  string
	Tags  []string
	Mods  []int
	Near  *geo.Point
	Page  int
	Limit int
}
