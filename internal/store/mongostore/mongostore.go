// Package mongostore implements store.Store on a MongoDB collection.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/dvloznov/sales-dashboard/internal/query"
	"github.com/dvloznov/sales-dashboard/internal/record"
	"github.com/dvloznov/sales-dashboard/internal/store"
)

// Connection defaults.
const (
	DefaultServerSelectionTimeout = 5 * time.Second
	DefaultSocketTimeout          = 45 * time.Second
)

// Config locates the transaction collection.
type Config struct {
	URI        string
	Database   string
	Collection string

	ServerSelectionTimeout time.Duration
	SocketTimeout          time.Duration
}

// Store reads transactions from a MongoDB collection.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// Connect dials MongoDB and verifies the connection with a ping.
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URI == "" {
		return nil, errors.New("Connect: MongoDB URI is required")
	}
	if cfg.Database == "" || cfg.Collection == "" {
		return nil, errors.New("Connect: database and collection are required")
	}
	if cfg.ServerSelectionTimeout <= 0 {
		cfg.ServerSelectionTimeout = DefaultServerSelectionTimeout
	}
	if cfg.SocketTimeout <= 0 {
		cfg.SocketTimeout = DefaultSocketTimeout
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(cfg.ServerSelectionTimeout).
		SetSocketTimeout(cfg.SocketTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("Connect: creating client: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("Connect: ping: %w", err)
	}

	return &Store{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

// Backend implements store.Store.
func (s *Store) Backend() string {
	return store.BackendMongo
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	if s.client != nil {
		return s.client.Disconnect(ctx)
	}
	return nil
}

// Find implements store.Store.
func (s *Store) Find(ctx context.Context, spec query.Spec) ([]record.Record, error) {
	filter, err := BuildFilter(spec.Filter)
	if err != nil {
		return nil, fmt.Errorf("Find: %w", err)
	}

	opts := options.Find().
		SetSort(BuildSort(spec.Sort)).
		SetSkip(int64(spec.Window.Offset))
	if spec.Window.Size > 0 {
		opts.SetLimit(int64(spec.Window.Size))
	}

	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("Find: querying: %w", err)
	}

	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("Find: decoding: %w", err)
	}

	records := make([]record.Record, 0, len(docs))
	for _, d := range docs {
		records = append(records, FromDocument(d))
	}
	return records, nil
}

// Count implements store.Store.
func (s *Store) Count(ctx context.Context, filter query.Filter) (int64, error) {
	f, err := BuildFilter(filter)
	if err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	n, err := s.coll.CountDocuments(ctx, f)
	if err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	return n, nil
}

// Get implements store.Store. The id must be a 24-character ObjectID hex string.
func (s *Store) Get(ctx context.Context, id string) (record.Record, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, store.ErrInvalidID
	}

	var doc bson.M
	err = s.coll.FindOne(ctx, bson.D{{Key: record.FieldID, Value: oid}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return FromDocument(doc), nil
}

// Distinct implements store.Store.
func (s *Store) Distinct(ctx context.Context, field string) ([]interface{}, error) {
	values, err := s.coll.Distinct(ctx, field, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("Distinct %q: %w", field, err)
	}
	for i, v := range values {
		values[i] = fromBSON(v)
	}
	return values, nil
}

// Sum implements store.Store.
func (s *Store) Sum(ctx context.Context, field string) (float64, error) {
	return s.groupValue(ctx, "$sum", field)
}

// Average implements store.Store. Non-numeric values are ignored.
func (s *Store) Average(ctx context.Context, field string) (float64, error) {
	return s.groupValue(ctx, "$avg", field)
}

func (s *Store) groupValue(ctx context.Context, op, field string) (float64, error) {
	cur, err := s.coll.Aggregate(ctx, groupPipeline(op, field))
	if err != nil {
		return 0, fmt.Errorf("aggregate %s(%s): %w", op, field, err)
	}

	var out []bson.M
	if err := cur.All(ctx, &out); err != nil {
		return 0, fmt.Errorf("aggregate %s(%s): decoding: %w", op, field, err)
	}
	if len(out) == 0 {
		return 0, nil
	}
	f, _ := record.ToFloat(fromBSON(out[0]["value"]))
	return f, nil
}

// TopValues implements store.Store.
func (s *Store) TopValues(ctx context.Context, field string, limit int) ([]store.ValueCount, error) {
	cur, err := s.coll.Aggregate(ctx, topValuesPipeline(field, limit))
	if err != nil {
		return nil, fmt.Errorf("TopValues %q: %w", field, err)
	}

	var groups []struct {
		Value string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cur.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("TopValues %q: decoding: %w", field, err)
	}

	out := make([]store.ValueCount, 0, len(groups))
	for _, g := range groups {
		out = append(out, store.ValueCount{Value: g.Value, Count: g.Count})
	}
	return out, nil
}

// Ensure Store implements store.Store.
var _ store.Store = (*Store)(nil)
