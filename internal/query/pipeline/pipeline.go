// Package pipeline holds the pure stages a place query runs through after
// filtering: rank, annotate, paginate and project. Stages pass *Candidate
// values along and never reorder what an earlier stage produced unless that
// is their job.
package pipeline

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/gotham-app/backend/internal/domain/entities"
	"github.com/gotham-app/backend/pkg/geo"
)

// Candidate is a place moving through the query stages
type Candidate struct {
	Place        *entities.Place
	Distance     *float64
	DistanceText string
	IsLiked      *bool
}

// FromPlaces wraps places as candidates, keeping their order
func FromPlaces(places []*entities.Place) []*Candidate {
	out := make([]*Candidate, 0, len(places))
	for _, p := range places {
		if p == nil {
			continue
		}
		out = append(out, &Candidate{Place: p})
	}
	return out
}

// Rank orders candidates nearest first when origin is set, attaching the
// distance in meters and its label. Without an origin candidates are ordered
// newest first with id as tie-break and distance fields stay empty.
func Rank(cands []*Candidate, origin *geo.Point) []*Candidate {
	if origin == nil {
		sort.SliceStable(cands, func(i, j int) bool {
			a, b := cands[i].Place, cands[j].Place
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.ID < b.ID
		})
		return cands
	}

	for _, c := range cands {
		c.Distance, c.DistanceText = nil, ""
		point, ok := c.Place.Location.Point()
		if !ok {
			continue
		}
		d := geo.Distance(*origin, point)
		c.Distance = &d
		c.DistanceText = geo.FormatDistance(d)
	}

	// places without coordinates sink to the end
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i].Distance, cands[j].Distance
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})
	return cands
}

// LikeLookup resolves which of the given places the requesting user liked
type LikeLookup interface {
	Liked(ctx context.Context, placeIDs []string) (map[string]bool, error)
}

// Annotate sets IsLiked on every candidate. A nil lookup means the request
// is anonymous and IsLiked stays unset.
func Annotate(ctx context.Context, cands []*Candidate, lookup LikeLookup) error {
	if lookup == nil || len(cands) == 0 {
		return nil
	}

	ids := make([]string, len(cands))
	for i, c := range cands {
		ids[i] = c.Place.ID
	}

	liked, err := lookup.Liked(ctx, ids)
	if err != nil {
		return err
	}

	for _, c := range cands {
		v := liked[c.Place.ID]
		c.IsLiked = &v
	}
	return nil
}

// Page is a resolved page window
type Page struct {
	Number int `json:"page"`
	Size   int `json:"limit"`
}

// NewPage floors page and size at 1. A size of 0 or less means the caller
// sent none, so defaultSize applies.
func NewPage(page, size, defaultSize int) Page {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = defaultSize
	}
	if size < 1 {
		size = 1
	}
	return Page{Number: page, Size: size}
}

// Offset is the number of records before this page. It saturates at
// math.MaxInt instead of overflowing for very large page numbers.
func (p Page) Offset() int {
	if p.Number <= 1 || p.Size <= 0 {
		return 0
	}
	if p.Number-1 > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return (p.Number - 1) * p.Size
}

// End is the offset just past this page, saturating like Offset
func (p Page) End() int {
	off := p.Offset()
	if off > math.MaxInt-p.Size {
		return math.MaxInt
	}
	return off + p.Size
}

// TotalPages returns how many pages total records span
func (p Page) TotalPages(total int) int {
	if total <= 0 {
		return 0
	}
	return (total-1)/p.Size + 1
}

// Paginate slices cands to the page window, preserving order
func Paginate(cands []*Candidate, page Page) []*Candidate {
	start := page.Offset()
	if start < 0 || start >= len(cands) {
		return []*Candidate{}
	}
	end := page.End()
	if end > len(cands) {
		end = len(cands)
	}
	return cands[start:end]
}

// PlaceView is the public projection of a place
type PlaceView struct {
	ID               string            `json:"id"`
	Text             string            `json:"text"`
	ImageURL         string            `json:"imageUrl"`
	LikeCount        int               `json:"likeCount"`
	IsLiked          *bool             `json:"isLiked,omitempty"`
	Photos           []string          `json:"photos"`
	Percent          float64           `json:"percent"`
	Tags             []string          `json:"tags"`
	Address          string            `json:"address"`
	Description      string            `json:"description"`
	Phone            string            `json:"phone"`
	Capacity         int               `json:"capacity"`
	CurrentOccupancy int               `json:"currentOccupancy"`
	Location         entities.Location `json:"location"`
	Distance         *float64          `json:"distance,omitempty"`
	DistanceText     string            `json:"distanceText,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
}

// Project maps candidates onto the public field set
func Project(cands []*Candidate) []PlaceView {
	out := make([]PlaceView, 0, len(cands))
	for _, c := range cands {
		out = append(out, ProjectOne(c))
	}
	return out
}

// ProjectOne maps a single candidate
func ProjectOne(c *Candidate) PlaceView {
	p := c.Place
	return PlaceView{
		ID:               p.ID,
		Text:             p.Text,
		ImageURL:         p.ImageURL,
		LikeCount:        p.LikeCount,
		IsLiked:          c.IsLiked,
		Photos:           nonNil(p.Photos),
		Percent:          p.Percent,
		Tags:             nonNil(p.Tags),
		Address:          p.Address,
		Description:      p.Description,
		Phone:            p.Phone,
		Capacity:         p.Capacity,
		CurrentOccupancy: p.CurrentOccupancy,
		Location:         p.Location,
		Distance:         c.Distance,
		DistanceText:     c.DistanceText,
		CreatedAt:        p.CreatedAt,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
