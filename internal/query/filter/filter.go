// Package filter compiles a place search request into a predicate tree.
// Facets are ANDed together; the mood facet is an OR of percent ranges.
// Store adapters translate the tree into their native query language and
// Match evaluates it in process.
package filter

import (
	"sort"
	"strings"

	"github.com/gotham-app/backend/internal/domain/entities"
)

// Predicate is a node of a compiled place filter
type Predicate interface {
	Match(p *entities.Place) bool
}

// True matches every place
type True struct{}

func (True) Match(*entities.Place) bool { return true }

// And matches when every term matches
type And struct {
	Terms []Predicate
}

func (a And) Match(p *entities.Place) bool {
	for _, t := range a.Terms {
		if !t.Match(p) {
			return false
		}
	}
	return true
}

// Or matches when at least one term matches
type Or struct {
	Terms []Predicate
}

func (o Or) Match(p *entities.Place) bool {
	for _, t := range o.Terms {
		if t.Match(p) {
			return true
		}
	}
	return false
}

// TextContains is a case-insensitive literal substring match on Place.Text.
// Needle is never interpreted as a pattern.
type TextContains struct {
	Needle string
}

func (t TextContains) Match(p *entities.Place) bool {
	return strings.Contains(strings.ToLower(p.Text), strings.ToLower(t.Needle))
}

// TagsAny matches when any of the place's tags equals one of Tags,
// ignoring case. Tags are stored lowercased by Compile.
type TagsAny struct {
	Tags []string
}

func (t TagsAny) Match(p *entities.Place) bool {
	for _, have := range p.Tags {
		have = strings.ToLower(have)
		for _, want := range t.Tags {
			if have == want {
				return true
			}
		}
	}
	return false
}

// PercentRange matches Min <= Place.Percent < Max. A nil Max is unbounded.
type PercentRange struct {
	Min float64
	Max *float64
}

func (r PercentRange) Match(p *entities.Place) bool {
	if p.Percent < r.Min {
		return false
	}
	return r.Max == nil || p.Percent < *r.Max
}

func upTo(v float64) *float64 { return &v }

var moodRanges = map[int]PercentRange{
	entities.MoodQuiet:  {Min: 0, Max: upTo(30)},
	entities.MoodMedium: {Min: 30, Max: upTo(60)},
	entities.MoodBusy:   {Min: 60},
}

// MoodRange returns the percent range of a mood code
func MoodRange(mood int) (PercentRange, bool) {
	r, ok := moodRanges[mood]
	return r, ok
}

// Compile builds the predicate for req. Blank text and tags are ignored,
// unknown mood codes are dropped, and a request without facets compiles to True.
func Compile(req entities.SearchRequest) Predicate {
	var facets []Predicate

	if text := strings.TrimSpace(req.Text); text != "" {
		facets = append(facets, TextContains{Needle: text})
	}

	if tags := normalizeTags(req.Tags); len(tags) > 0 {
		facets = append(facets, TagsAny{Tags: tags})
	}

	if moods := moodTerms(req.Mods); len(moods) > 0 {
		if len(moods) == 1 {
			facets = append(facets, moods[0])
		} else {
			facets = append(facets, Or{Terms: moods})
		}
	}

	switch len(facets) {
	case 0:
		return True{}
	case 1:
		return facets[0]
	default:
		return And{Terms: facets}
	}
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func moodTerms(mods []int) []Predicate {
	codes := make([]int, 0, len(mods))
	seen := make(map[int]struct{}, len(mods))
	for _, m := range mods {
		if _, ok := moodRanges[m]; !ok {
			continue
		}
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		codes = append(codes, m)
	}
	sort.Ints(codes)

	terms := make([]Predicate, 0, len(codes))
	for _, c := range codes {
		terms = append(terms, moodRanges[c])
	}
	return terms
}
