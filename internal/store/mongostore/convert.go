package mongostore

import (
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dvloznov/sales-dashboard/internal/record"
)

// FromDocument converts a decoded BSON document into a record made of plain Go
// values, ready for normalization.
func FromDocument(doc bson.M) record.Record {
	r := make(record.Record, len(doc))
	for k, v := range doc {
		r[k] = fromBSON(v)
	}
	return r
}

func fromBSON(v interface{}) interface{} {
	switch x := v.(type) {
	case primitive.D:
		m := make(map[string]interface{}, len(x))
		for _, e := range x {
			m[e.Key] = fromBSON(e.Value)
		}
		return m
	case primitive.M:
		return convertMap(x)
	case map[string]interface{}:
		return convertMap(x)
	case primitive.A:
		return convertSlice(x)
	case []interface{}:
		return convertSlice(x)
	case primitive.DateTime:
		return x.Time().UTC()
	case primitive.Timestamp:
		return time.Unix(int64(x.T), 0).UTC()
	case primitive.ObjectID:
		return x.Hex()
	case primitive.Decimal128:
		f, err := strconv.ParseFloat(x.String(), 64)
		if err != nil {
			return x.String()
		}
		return f
	}
	return v
}

func convertMap(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = fromBSON(v)
	}
	return out
}

func convertSlice(in []interface{}) []interface{} {
	out := make([]interface{}, len(in))
	for i, v := range in {
		out[i] = fromBSON(v)
	}
	return out
}
