// Package mongo implements the repositories on MongoDB. Places live in the
// orgs collection with a 2dsphere index on location; likes and check-ins
// reference them by ObjectID.
package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/gotham-app/backend/internal/domain/entities"
	apperrors "github.com/gotham-app/backend/pkg/errors"
)

type placeDoc struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	Text             string             `bson:"text"`
	ImageURL         string             `bson:"imageUrl,omitempty"`
	Percent          float64            `bson:"percent"`
	Capacity         int                `bson:"capacity"`
	CurrentOccupancy int                `bson:"currentOccupancy"`
	Photos           []string           `bson:"photos,omitempty"`
	Tags             []string           `bson:"tags,omitempty"`
	Description      string             `bson:"description,omitempty"`
	Address          string             `bson:"address,omitempty"`
	Phone            string             `bson:"phone,omitempty"`
	Location         *entities.Location `bson:"location,omitempty"`
	Owner            string             `bson:"owner,omitempty"`
	Members          []string           `bson:"members,omitempty"`
	LikeCount        int                `bson:"likeCount"`
	CreatedAt        time.Time          `bson:"createdAt"`
}

func newPlaceDoc(p *entities.Place) (*placeDoc, error) {
	doc := &placeDoc{
		Text:             p.Text,
		ImageURL:         p.ImageURL,
		Percent:          p.Percent,
		Capacity:         p.Capacity,
		CurrentOccupancy: p.CurrentOccupancy,
		Photos:           p.Photos,
		Tags:             p.Tags,
		Description:      p.Description,
		Address:          p.Address,
		Phone:            p.Phone,
		Owner:            p.Owner,
		Members:          p.Members,
		LikeCount:        p.LikeCount,
		CreatedAt:        p.CreatedAt,
	}
	if _, ok := p.Location.Point(); ok {
		loc := p.Location
		doc.Location = &loc
	}
	if p.ID != "" {
		oid, err := primitive.ObjectIDFromHex(p.ID)
		if err != nil {
			return nil, apperrors.NewValidationError("place id must be a 24 character hex string")
		}
		doc.ID = oid
	}
	return doc, nil
}

func (d *placeDoc) toEntity() *entities.Place {
	p := &entities.Place{
		ID:               d.ID.Hex(),
		Text:             d.Text,
		ImageURL:         d.ImageURL,
		Percent:          d.Percent,
		Capacity:         d.Capacity,
		CurrentOccupancy: d.CurrentOccupancy,
		Photos:           d.Photos,
		Tags:             d.Tags,
		Description:      d.Description,
		Address:          d.Address,
		Phone:            d.Phone,
		Owner:            d.Owner,
		Members:          d.Members,
		LikeCount:        d.LikeCount,
		CreatedAt:        d.CreatedAt.UTC(),
	}
	if d.Location != nil {
		p.Location = *d.Location
	}
	return p
}

type likeDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"userId"`
	PlaceID   primitive.ObjectID `bson:"orgId"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (d *likeDoc) toEntity() *entities.Like {
	return &entities.Like{
		ID:        d.ID.Hex(),
		UserID:    d.UserID,
		PlaceID:   d.PlaceID.Hex(),
		CreatedAt: d.CreatedAt.UTC(),
	}
}

type checkinDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"userId"`
	PlaceID   primitive.ObjectID `bson:"orgId"`
	Day       string             `bson:"date"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (d *checkinDoc) toEntity() *entities.Checkin {
	return &entities.Checkin{
		ID:        d.ID.Hex(),
		UserID:    d.UserID,
		PlaceID:   d.PlaceID.Hex(),
		Day:       d.Day,
		CreatedAt: d.CreatedAt.UTC(),
	}
}

type countDoc struct {
	PlaceID primitive.ObjectID `bson:"_id"`
	Count   int                `bson:"count"`
}

// placeOID parses a place id. Ids that are not ObjectIDs cannot exist.
func placeOID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, apperrors.NewNotFoundError("place not found")
	}
	return oid, nil
}

func placeOIDs(ids []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			out = append(out, oid)
		}
	}
	return out
}
