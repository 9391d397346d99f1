package database

import (
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/lib/pq"

	"github.com/gotham-app/backend/internal/query/filter"
	"github.com/gotham-app/backend/pkg/geo"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// translate turns a predicate tree into a WHERE expression
func translate(pred filter.Predicate) (exp.Expression, error) {
	switch p := pred.(type) {
	case nil, filter.True:
		return goqu.L("TRUE"), nil

	case filter.And:
		terms, err := translateAll(p.Terms)
		if err != nil {
			return nil, err
		}
		if len(terms) == 0 {
			return goqu.L("TRUE"), nil
		}
		return goqu.And(terms...), nil

	case filter.Or:
		terms, err := translateAll(p.Terms)
		if err != nil {
			return nil, err
		}
		if len(terms) == 0 {
			return goqu.L("FALSE"), nil
		}
		return goqu.Or(terms...), nil

	case filter.TextContains:
		return goqu.I("text").ILike("%" + likeEscaper.Replace(p.Needle) + "%"), nil

	case filter.TagsAny:
		return goqu.L("EXISTS (SELECT 1 FROM unnest(tags) AS t WHERE lower(t) = ANY(?))", pq.Array(p.Tags)), nil

	case filter.PercentRange:
		lower := goqu.I("percent").Gte(p.Min)
		if p.Max == nil {
			return lower, nil
		}
		return goqu.And(lower, goqu.I("percent").Lt(*p.Max)), nil

	default:
		return nil, fmt.Errorf("unsupported predicate %T", pred)
	}
}

func translateAll(preds []filter.Predicate) ([]exp.Expression, error) {
	out := make([]exp.Expression, 0, len(preds))
	for _, p := range preds {
		e, err := translate(p)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// distanceExpr is the haversine distance in meters from origin. It is NULL
// for places without coordinates.
func distanceExpr(origin geo.Point) exp.LiteralExpression {
	return goqu.L(
		"? * 2 * asin(sqrt(least(1, power(sin(radians(latitude - ?) / 2), 2) + cos(radians(?)) * cos(radians(latitude)) * power(sin(radians(longitude - ?) / 2), 2))))",
		geo.EarthRadiusMeters, origin.Lat, origin.Lat, origin.Lng,
	)
}
