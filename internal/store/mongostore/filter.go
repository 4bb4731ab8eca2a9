package mongostore

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dvloznov/sales-dashboard/internal/query"
	"github.com/dvloznov/sales-dashboard/internal/record"
)

var errEmptyOr = errors.New("empty $or clause")

// BuildFilter renders f as a MongoDB query document.
func BuildFilter(f query.Filter) (bson.D, error) {
	if f.Empty() {
		return bson.D{}, nil
	}

	conds := make(bson.A, 0, len(f.Clauses))
	for _, c := range f.Clauses {
		d, err := renderClause(c)
		if err != nil {
			return nil, fmt.Errorf("BuildFilter: %w", err)
		}
		conds = append(conds, d)
	}
	if len(conds) == 1 {
		return conds[0].(bson.D), nil
	}
	return bson.D{{Key: "$and", Value: conds}}, nil
}

func renderClause(c query.Clause) (bson.D, error) {
	switch c := c.(type) {
	case query.Contains:
		pattern := query.LiteralPattern(c.Term)
		if !c.AsString {
			return regexMatch(c.Field, pattern), nil
		}
		// Numeric phones are stored as longs; $regex alone would skip them.
		return bson.D{{Key: "$expr", Value: bson.D{{Key: "$regexMatch", Value: bson.D{
			{Key: "input", Value: asString(c.Field)},
			{Key: "regex", Value: pattern},
			{Key: "options", Value: "i"},
		}}}}}, nil

	case query.Token:
		return regexMatch(c.Field, query.TokenPattern(c.Value)), nil

	case query.In:
		return bson.D{{Key: c.Field, Value: bson.D{{Key: "$in", Value: c.Values}}}}, nil

	case query.NumberRange:
		var bounds bson.D
		if c.Min != nil {
			bounds = append(bounds, bson.E{Key: "$gte", Value: *c.Min})
		}
		if c.Max != nil {
			bounds = append(bounds, bson.E{Key: "$lte", Value: *c.Max})
		}
		return bson.D{{Key: c.Field, Value: bounds}}, nil

	case query.TimeRange:
		var bounds bson.D
		if c.From != nil {
			bounds = append(bounds, bson.E{Key: "$gte", Value: c.From.UTC()})
		}
		if c.To != nil {
			bounds = append(bounds, bson.E{Key: "$lte", Value: c.To.UTC()})
		}
		return bson.D{{Key: c.Field, Value: bounds}}, nil

	case query.Or:
		if len(c.Clauses) == 0 {
			return nil, errEmptyOr
		}
		alts := make(bson.A, 0, len(c.Clauses))
		for _, inner := range c.Clauses {
			d, err := renderClause(inner)
			if err != nil {
				return nil, err
			}
			alts = append(alts, d)
		}
		return bson.D{{Key: "$or", Value: alts}}, nil
	}

	return nil, fmt.Errorf("unsupported clause %T", c)
}

func regexMatch(field, pattern string) bson.D {
	return bson.D{{Key: field, Value: bson.D{
		{Key: "$regex", Value: pattern},
		{Key: "$options", Value: "i"},
	}}}
}

func asString(field string) bson.D {
	return bson.D{{Key: "$convert", Value: bson.D{
		{Key: "input", Value: "$" + field},
		{Key: "to", Value: "string"},
		{Key: "onError", Value: ""},
		{Key: "onNull", Value: ""},
	}}}
}

// BuildSort renders s as a sort document with _id as the final tie-breaker.
func BuildSort(s query.Sort) bson.D {
	dir := 1
	if s.Descending {
		dir = -1
	}
	d := bson.D{{Key: s.Field, Value: dir}}
	if s.Field != record.FieldID {
		d = append(d, bson.E{Key: record.FieldID, Value: 1})
	}
	return d
}

// groupPipeline folds every document into a single {value: op(field)} result.
func groupPipeline(op, field string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "value", Value: bson.D{{Key: op, Value: "$" + field}}},
		}}},
	}
}

// topValuesPipeline counts non-empty string values of field, most frequent first.
func topValuesPipeline(field string, limit int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: field, Value: bson.D{
			{Key: "$type", Value: "string"},
			{Key: "$ne", Value: ""},
		}}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$" + field},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
	}
}
