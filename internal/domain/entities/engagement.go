package entities

import "time"

// DayLayout is the canonical calendar day representation for check-ins
const DayLayout = "2006-01-02"

// Like is a (user, place) engagement edge. At most one exists per pair.
type Like struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	PlaceID   string    `json:"placeId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Checkin records a visit. At most one exists per (user, place, day).
type Checkin struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	PlaceID   string    `json:"placeId"`
	Day       string    `json:"date"`
	CreatedAt time.Time `json:"createdAt"`
}

// PlaceCount is one row of a grouped engagement aggregation
type PlaceCount struct {
	PlaceID string `json:"placeId"`
	Count   int    `json:"count"`
}
