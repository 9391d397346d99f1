package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/gotham-app/backend/internal/domain/entities"
	"github.com/gotham-app/backend/internal/domain/repositories"
	"github.com/gotham-app/backend/internal/infrastructure/clients/postgres"
	"github.com/gotham-app/backend/internal/query/filter"
	apperrors "github.com/gotham-app/backend/pkg/errors"
)

var placeColumns = []interface{}{
	"id", "text", "image_url", "percent", "capacity", "current_occupancy",
	"photos", "tags", "description", "address", "phone", "latitude", "longitude",
	"owner", "members", "like_count", "created_at",
}

// PlaceAdapter implements repositories.PlaceRepository on PostgreSQL
type PlaceAdapter struct {
	client *postgres.Client
	db     *goqu.Database
	now    func() time.Time
}

// NewPlaceAdapter creates a new place adapter
func NewPlaceAdapter(client *postgres.Client, now func() time.Time) repositories.PlaceRepository {
	return &PlaceAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
		now:    now,
	}
}

// Create inserts a place
func (a *PlaceAdapter) Create(ctx context.Context, place *entities.Place) error {
	if place.ID == "" {
		place.ID = uuid.NewString()
	}
	if place.CreatedAt.IsZero() {
		place.CreatedAt = a.now().UTC()
	}

	var lat, lng sql.NullFloat64
	if pt, ok := place.Location.Point(); ok {
		lat = sql.NullFloat64{Float64: pt.Lat, Valid: true}
		lng = sql.NullFloat64{Float64: pt.Lng, Valid: true}
	}

	record := goqu.Record{
		"id":                place.ID,
		"text":              place.Text,
		"image_url":         place.ImageURL,
		"percent":           place.Percent,
		"capacity":          place.Capacity,
		"current_occupancy": place.CurrentOccupancy,
		"photos":            pq.Array(nonNil(place.Photos)),
		"tags":              pq.Array(nonNil(place.Tags)),
		"description":       place.Description,
		"address":           place.Address,
		"phone":             place.Phone,
		"latitude":          lat,
		"longitude":         lng,
		"owner":             place.Owner,
		"members":           pq.Array(nonNil(place.Members)),
		"like_count":        place.LikeCount,
		"created_at":        place.CreatedAt,
	}

	query, args, err := a.db.Insert("places").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		if pqCode(err) == uniqueViolation {
			return apperrors.NewConflictError("place already exists")
		}
		return apperrors.NewInternalError("failed to create place", err)
	}
	return nil
}

// GetByID retrieves a place by ID
func (a *PlaceAdapter) GetByID(ctx context.Context, id string) (*entities.Place, error) {
	query, args, err := a.db.Select(placeColumns...).From("places").Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	place, err := scanPlace(a.client.DB().QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("place not found")
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get place", err)
	}
	return place, nil
}

// GetByIDs retrieves the places that exist among ids
func (a *PlaceAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Place, error) {
	if len(ids) == 0 {
		return []*entities.Place{}, nil
	}
	return a.query(ctx, a.db.Select(placeColumns...).From("places").Where(goqu.Ex{"id": ids}))
}

// Find returns places matching pred. With an origin they are ordered by
// haversine distance, places without coordinates last.
func (a *PlaceAdapter) Find(ctx context.Context, pred filter.Predicate, opts repositories.FindOptions) ([]*entities.Place, error) {
	where, err := translate(pred)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build place query", err)
	}

	ds := a.db.Select(placeColumns...).From("places").Where(where)
	if opts.Near != nil {
		ds = ds.Order(distanceExpr(*opts.Near).Asc().NullsLast(), goqu.I("id").Asc())
	} else {
		ds = ds.Order(goqu.I("created_at").Desc(), goqu.I("id").Asc())
	}
	if opts.Limit > 0 {
		ds = ds.Limit(uint(opts.Limit))
	}
	return a.query(ctx, ds)
}

// Newest returns the most recently created places
func (a *PlaceAdapter) Newest(ctx context.Context, limit int) ([]*entities.Place, error) {
	ds := a.db.Select(placeColumns...).From("places").
		Order(goqu.I("created_at").Desc(), goqu.I("id").Asc())
	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}
	return a.query(ctx, ds)
}

// IncrementLikeCount adds delta to like_count in one statement
func (a *PlaceAdapter) IncrementLikeCount(ctx context.Context, id string, delta int) error {
	query, args, err := a.db.Update("places").
		Set(goqu.Record{"like_count": goqu.L("GREATEST(0, like_count + ?)", delta)}).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	res, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update like count", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperrors.NewNotFoundError("place not found")
	}
	return nil
}

// AddOccupancy adds delta to current_occupancy and returns the stored value
func (a *PlaceAdapter) AddOccupancy(ctx context.Context, id string, delta int) (int, error) {
	query, args, err := a.db.Update("places").
		Set(goqu.Record{"current_occupancy": goqu.L("GREATEST(0, current_occupancy + ?)", delta)}).
		Where(goqu.Ex{"id": id}).
		Returning("current_occupancy").
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build update query", err)
	}

	var value int
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, apperrors.NewNotFoundError("place not found")
	}
	if err != nil {
		return 0, apperrors.NewInternalError("failed to update occupancy", err)
	}
	return value, nil
}

func (a *PlaceAdapter) query(ctx context.Context, ds *goqu.SelectDataset) ([]*entities.Place, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query places", err)
	}
	defer rows.Close()

	places := make([]*entities.Place, 0)
	for rows.Next() {
		place, err := scanPlace(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan place", err)
		}
		places = append(places, place)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to read places", err)
	}
	return places, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPlace(row rowScanner) (*entities.Place, error) {
	p := &entities.Place{}
	var lat, lng sql.NullFloat64
	err := row.Scan(
		&p.ID, &p.Text, &p.ImageURL, &p.Percent, &p.Capacity, &p.CurrentOccupancy,
		pq.Array(&p.Photos), pq.Array(&p.Tags), &p.Description, &p.Address, &p.Phone, &lat, &lng,
		&p.Owner, pq.Array(&p.Members), &p.LikeCount, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lat.Valid && lng.Valid {
		p.Location = entities.NewLocation(lat.Float64, lng.Float64)
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return p, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
