package database

import (
	"context"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/gotham-app/backend/internal/domain/entities"
	"github.com/gotham-app/backend/internal/domain/repositories"
	"github.com/gotham-app/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/gotham-app/backend/pkg/errors"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// NewStore builds the PostgreSQL repositories
func NewStore(client *postgres.Client, now func() time.Time) *repositories.Store {
	if now == nil {
		now = time.Now
	}
	return &repositories.Store{
		Places:   NewPlaceAdapter(client, now),
		Likes:    NewLikeAdapter(client, now),
		Checkins: NewCheckinAdapter(client, now),
	}
}

// LikeAdapter implements repositories.LikeRepository
type LikeAdapter struct {
	client *postgres.Client
	db     *goqu.Database
	now    func() time.Time
}

// NewLikeAdapter creates a new like adapter
func NewLikeAdapter(client *postgres.Client, now func() time.Time) repositories.LikeRepository {
	return &LikeAdapter{client: client, db: goqu.New("postgres", client.DB()), now: now}
}

// InsertIfAbsent inserts the edge unless the pair already exists
func (a *LikeAdapter) InsertIfAbsent(ctx context.Context, like *entities.Like) (bool, error) {
	if like.ID == "" {
		like.ID = uuid.NewString()
	}
	if like.CreatedAt.IsZero() {
		like.CreatedAt = a.now().UTC()
	}

	query, args, err := a.db.Insert("likes").
		Rows(goqu.Record{
			"id":         like.ID,
			"user_id":    like.UserID,
			"place_id":   like.PlaceID,
			"created_at": like.CreatedAt,
		}).
		OnConflict(goqu.DoNothing()).
		ToSQL()
	if err != nil {
		return false, apperrors.NewInternalError("failed to build insert query", err)
	}

	res, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		if pqCode(err) == foreignKeyViolation {
			return false, apperrors.NewNotFoundError("place not found")
		}
		return false, apperrors.NewInternalError("failed to insert like", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, apperrors.NewInternalError("failed to insert like", err)
	}
	return n == 1, nil
}

// Delete removes the edge and reports whether one existed
func (a *LikeAdapter) Delete(ctx context.Context, userID, placeID string) (bool, error) {
	query, args, err := a.db.Delete("likes").
		Where(goqu.Ex{"user_id": userID, "place_id": placeID}).
		ToSQL()
	if err != nil {
		return false, apperrors.NewInternalError("failed to build delete query", err)
	}

	res, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return false, apperrors.NewInternalError("failed to delete like", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, apperrors.NewInternalError("failed to delete like", err)
	}
	return n == 1, nil
}

// LikedAmong returns the subset of placeIDs liked by userID
func (a *LikeAdapter) LikedAmong(ctx context.Context, userID string, placeIDs []string) (map[string]bool, error) {
	out := make(map[string]bool, len(placeIDs))
	if len(placeIDs) == 0 {
		return out, nil
	}

	query, args, err := a.db.Select("place_id").From("likes").
		Where(goqu.Ex{"user_id": userID, "place_id": placeIDs}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load liked state", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.NewInternalError("failed to scan like", err)
		}
		out[id] = true
	}
	return out, rows.Err()
}

// TopPlacesBetween ranks places by likes created inside [from, to]
func (a *LikeAdapter) TopPlacesBetween(ctx context.Context, from, to time.Time, limit int) ([]entities.PlaceCount, error) {
	return topPlaces(ctx, a.client, a.db, "likes", from, to, limit)
}

// ListByUser returns the user's likes, newest first
func (a *LikeAdapter) ListByUser(ctx context.Context, userID string, offset, limit int) ([]*entities.Like, error) {
	ds := a.db.Select("id", "user_id", "place_id", "created_at").From("likes").
		Where(goqu.Ex{"user_id": userID})
	query, args, err := page(ds, offset, limit).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list likes", err)
	}
	defer rows.Close()

	likes := make([]*entities.Like, 0)
	for rows.Next() {
		l := &entities.Like{}
		if err := rows.Scan(&l.ID, &l.UserID, &l.PlaceID, &l.CreatedAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan like", err)
		}
		l.CreatedAt = l.CreatedAt.UTC()
		likes = append(likes, l)
	}
	return likes, rows.Err()
}

// CountByUser counts the user's likes
func (a *LikeAdapter) CountByUser(ctx context.Context, userID string) (int, error) {
	return countByUser(ctx, a.client, a.db, "likes", userID)
}

// CheckinAdapter implements repositories.CheckinRepository
type CheckinAdapter struct {
	client *postgres.Client
	db     *goqu.Database
	now    func() time.Time
}

// NewCheckinAdapter creates a new check-in adapter
func NewCheckinAdapter(client *postgres.Client, now func() time.Time) repositories.CheckinRepository {
	return &CheckinAdapter{client: client, db: goqu.New("postgres", client.DB()), now: now}
}

// Create inserts a check-in; the (user_id, place_id, day) constraint turns a
// second visit on the same day into a conflict
func (a *CheckinAdapter) Create(ctx context.Context, checkin *entities.Checkin) error {
	if checkin.ID == "" {
		checkin.ID = uuid.NewString()
	}
	if checkin.CreatedAt.IsZero() {
		checkin.CreatedAt = a.now().UTC()
	}

	query, args, err := a.db.Insert("checkins").Rows(goqu.Record{
		"id":         checkin.ID,
		"user_id":    checkin.UserID,
		"place_id":   checkin.PlaceID,
		"day":        checkin.Day,
		"created_at": checkin.CreatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		switch pqCode(err) {
		case uniqueViolation:
			return apperrors.NewConflictError("already checked in today")
		case foreignKeyViolation:
			return apperrors.NewNotFoundError("place not found")
		}
		return apperrors.NewInternalError("failed to create check-in", err)
	}
	return nil
}

// TopPlacesBetween ranks places by check-ins created inside [from, to]
func (a *CheckinAdapter) TopPlacesBetween(ctx context.Context, from, to time.Time, limit int) ([]entities.PlaceCount, error) {
	return topPlaces(ctx, a.client, a.db, "checkins", from, to, limit)
}

// ListByUser returns the user's check-ins, newest first
func (a *CheckinAdapter) ListByUser(ctx context.Context, userID string, offset, limit int) ([]*entities.Checkin, error) {
	ds := a.db.Select("id", "user_id", "place_id", "day", "created_at").From("checkins").
		Where(goqu.Ex{"user_id": userID})
	query, args, err := page(ds, offset, limit).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list check-ins", err)
	}
	defer rows.Close()

	checkins := make([]*entities.Checkin, 0)
	for rows.Next() {
		c := &entities.Checkin{}
		if err := rows.Scan(&c.ID, &c.UserID, &c.PlaceID, &c.Day, &c.CreatedAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan check-in", err)
		}
		c.CreatedAt = c.CreatedAt.UTC()
		checkins = append(checkins, c)
	}
	return checkins, rows.Err()
}

// CountByUser counts the user's check-ins
func (a *CheckinAdapter) CountByUser(ctx context.Context, userID string) (int, error) {
	return countByUser(ctx, a.client, a.db, "checkins", userID)
}

func topPlaces(ctx context.Context, client *postgres.Client, db *goqu.Database, table string, from, to time.Time, limit int) ([]entities.PlaceCount, error) {
	ds := db.Select(goqu.I("place_id"), goqu.COUNT("*").As("count")).From(table).
		Where(goqu.I("created_at").Between(goqu.Range(from, to))).
		GroupBy("place_id").
		Order(goqu.I("count").Desc(), goqu.I("place_id").Asc())
	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build aggregation", err)
	}

	rows, err := client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to aggregate "+table, err)
	}
	defer rows.Close()

	out := make([]entities.PlaceCount, 0)
	for rows.Next() {
		var pc entities.PlaceCount
		if err := rows.Scan(&pc.PlaceID, &pc.Count); err != nil {
			return nil, apperrors.NewInternalError("failed to scan "+table+" count", err)
		}
		out = append(out, pc)
	}
	return out, rows.Err()
}

func countByUser(ctx context.Context, client *postgres.Client, db *goqu.Database, table, userID string) (int, error) {
	query, args, err := db.Select(goqu.COUNT("*")).From(table).Where(goqu.Ex{"user_id": userID}).ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build count query", err)
	}

	var n int
	if err := client.DB().QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, apperrors.NewInternalError("failed to count "+table, err)
	}
	return n, nil
}

func page(ds *goqu.SelectDataset, offset, limit int) *goqu.SelectDataset {
	ds = ds.Order(goqu.I("created_at").Desc(), goqu.I("id").Asc())
	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}
	if offset > 0 {
		ds = ds.Offset(uint(offset))
	}
	return ds
}
