// Package mongostore runs sort queries against the MongoDB item collection.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vinodismyname/itemsort/internal/items"
	"github.com/vinodismyname/itemsort/internal/paginate"
	"github.com/vinodismyname/itemsort/internal/query"
)

// ErrNotConnected is returned when the store has no collection.
var ErrNotConnected = errors.New("mongostore: not connected")

// Store wraps the item collection.
type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// Connect dials uri and pings the primary before returning.
func Connect(ctx context.Context, uri, database, collection string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetAppName("itemsort"))
	if err != nil {
		return nil, fmt.Errorf("mongostore: connect: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongostore: ping: %w", err)
	}
	return &Store{client: client, collection: client.Database(database).Collection(collection)}, nil
}

// NewFromCollection wraps an existing collection handle.
func NewFromCollection(c *mongo.Collection) *Store {
	return &Store{collection: c}
}

// Close disconnects the client opened by Connect.
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

// Aggregate compiles p into the sort pipeline and returns a stream over its cursor.
func (s *Store) Aggregate(ctx context.Context, p items.FilterParams) (paginate.GroupStream, error) {
	if s.collection == nil {
		return nil, ErrNotConnected
	}
	pipeline := query.BuildPipeline(p)
	zerolog.Ctx(ctx).Debug().Int("stages", len(pipeline)).Str("collection", s.collection.Name()).Msg("running sort aggregation")

	cur, err := s.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("mongostore: aggregate: %w", err)
	}
	return NewStream(cur), nil
}

// InsertItems writes records in one unordered batch.
func (s *Store) InsertItems(ctx context.Context, records []items.ItemRecord) (int, error) {
	if s.collection == nil {
		return 0, ErrNotConnected
	}
	if len(records) == 0 {
		return 0, nil
	}
	docs := make([]any, len(records))
	for i := range records {
		docs[i] = records[i]
	}
	res, err := s.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err != nil {
		n := 0
		if res != nil {
			n = len(res.InsertedIDs)
		}
		return n, fmt.Errorf("mongostore: insert: %w", err)
	}
	return len(res.InsertedIDs), nil
}

// EnsureIndexes creates the indexes used by the sort $match stage.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	if s.collection == nil {
		return ErrNotConnected
	}
	_, err := s.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "type", Value: 1}, {Key: "level", Value: 1}}},
		{Keys: bson.D{{Key: "title", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("mongostore: create indexes: %w", err)
	}
	return nil
}

// Cursor is the part of *mongo.Cursor the stream needs.
type Cursor interface {
	Next(ctx context.Context) bool
	Decode(val any) error
	Err() error
	Close(ctx context.Context) error
}

// Stream decodes one group per Next call from an aggregation cursor.
type Stream struct {
	cur  Cursor
	done bool
}

// NewStream wraps cur.
func NewStream(cur Cursor) *Stream {
	return &Stream{cur: cur}
}

// Next returns the next group, or (nil, nil) once the cursor is drained.
func (s *Stream) Next(ctx context.Context) (*items.ItemGroup, error) {
	if s.done {
		return nil, nil
	}
	if !s.cur.Next(ctx) {
		s.done = true
		if err := s.cur.Err(); err != nil {
			return nil, fmt.Errorf("mongostore: cursor: %w", err)
		}
		return nil, nil
	}
	var g items.ItemGroup
	if err := s.cur.Decode(&g); err != nil {
		return nil, fmt.Errorf("mongostore: decode group: %w", err)
	}
	return &g, nil
}

// Close releases the server-side cursor.
func (s *Stream) Close(ctx context.Context) error {
	s.done = true
	return s.cur.Close(ctx)
}
