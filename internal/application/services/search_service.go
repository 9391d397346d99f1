package services

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/gotham-app/backend/internal/domain/entities"
	"github.com/gotham-app/backend/internal/domain/repositories"
	"github.com/gotham-app/backend/internal/infrastructure/observability"
	"github.com/gotham-app/backend/internal/loaders"
	"github.com/gotham-app/backend/internal/query/filter"
	"github.com/gotham-app/backend/internal/query/pipeline"
)

// SearchResult is one page of projected places
type SearchResult struct {
	Data []pipeline.PlaceView
	Page pipeline.Page
}

// SearchService runs the place query pipeline:
// filter, rank, annotate, paginate, project.
type SearchService struct {
	places        repositories.PlaceRepository
	likes         repositories.LikeRepository
	defaultLimit  int
	maxCandidates int
}

// NewSearchService creates a new search service. maxCandidates is how many
// filtered places are ranked per request, raised when the requested page
// reaches past it.
func NewSearchService(places repositories.PlaceRepository, likes repositories.LikeRepository, defaultLimit, maxCandidates int) *SearchService {
	return &SearchService{
		places:        places,
		likes:         likes,
		defaultLimit:  defaultLimit,
		maxCandidates: maxCandidates,
	}
}

// Search returns the requested page of places. userID is empty for
// anonymous callers, whose results carry no liked flag.
func (s *SearchService) Search(ctx context.Context, req entities.SearchRequest, userID string) (*SearchResult, error) {
	ctx, span := observability.StartSpan(ctx, "SearchService.Search")
	defer span.End()
	observability.SetSpanAttributes(span,
		attribute.Bool("search.near", req.Near != nil),
		attribute.Bool("search.authenticated", userID != ""),
	)

	pred := filter.Compile(req)
	page := pipeline.NewPage(req.Page, req.Limit, s.defaultLimit)

	found, err := s.places.Find(ctx, pred, repositories.FindOptions{Near: req.Near, Limit: s.candidateLimit(page)})
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	cands := pipeline.Rank(pipeline.FromPlaces(found), req.Near)

	if err := pipeline.Annotate(ctx, cands, s.likeLookup(userID)); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	cands = pipeline.Paginate(cands, page)
	observability.SetSpanAttributes(span, attribute.Int("search.candidates", len(found)), attribute.Int("search.returned", len(cands)))

	return &SearchResult{Data: pipeline.Project(cands), Page: page}, nil
}

// Get returns a single projected place
func (s *SearchService) Get(ctx context.Context, placeID, userID string) (*pipeline.PlaceView, error) {
	place, err := s.places.GetByID(ctx, placeID)
	if err != nil {
		return nil, err
	}

	cands := pipeline.FromPlaces([]*entities.Place{place})
	if err := pipeline.Annotate(ctx, cands, s.likeLookup(userID)); err != nil {
		return nil, err
	}

	view := pipeline.ProjectOne(cands[0])
	return &view, nil
}

// candidateLimit is the number of ranked rows the store must return for page
// to be complete. Stores return rows already in rank order.
func (s *SearchService) candidateLimit(page pipeline.Page) int {
	return max(s.maxCandidates, page.End())
}

func (s *SearchService) likeLookup(userID string) pipeline.LikeLookup {
	if userID == "" {
		return nil
	}
	return loaders.NewLoaders(s.places, s.likes, userID)
}
