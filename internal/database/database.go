// internal/database/database.go
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"nest-hub/internal/listing"
	"nest-hub/internal/utils"
)

type MongoDB struct {
	Client        *mongo.Client
	Users         *mongo.Collection
	Posts         *mongo.Collection
	Opportunities *mongo.Collection
	Messages      *mongo.Collection

	clock clockwork.Clock
}

func NewMongoDB(ctx context.Context, uri, dbName string) (*MongoDB, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	slog.Info("connected to MongoDB", "database", dbName)

	db := client.Database(dbName)
	return &MongoDB{
		Client:        client,
		Users:         db.Collection("users"),
		Posts:         db.Collection("posts"),
		Opportunities: db.Collection("opportunities"),
		Messages:      db.Collection("messages"),
		clock:         clockwork.NewRealClock(),
	}, nil
}

func (m *MongoDB) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes every collection relies on.
func (m *MongoDB) EnsureIndexes(ctx context.Context) error {
	indexes := map[*mongo.Collection][]mongo.IndexModel{
		m.Users: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
		},
		m.Posts: {
			{Keys: bson.D{{Key: "postedBy", Value: 1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		m.Opportunities: {
			{Keys: bson.D{{Key: "title", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "type", Value: 1}}},
			{Keys: bson.D{{Key: "skills", Value: 1}}},
		},
		m.Messages: {
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
	}

	for coll, idx := range indexes {
		if _, err := coll.Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", coll.Name(), err)
		}
	}
	return nil
}

func (m *MongoDB) now() time.Time {
	return m.clock.Now().UTC()
}

// storeError classifies a driver error. Timeouts and network failures surface
// as UNAVAILABLE, everything else as a database error.
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := utils.AsAppError(err); ok {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return utils.NewAppError(utils.ErrUnavailable, "Store unavailable during "+op, err)
	}
	return utils.NewDatabaseError(op, err)
}

// listingFilter translates predicates into a query document.
func listingFilter(filters []listing.Predicate) bson.M {
	filter := bson.M{}
	for _, f := range filters {
		if len(f.Values) == 1 {
			filter[f.Field] = f.Values[0]
		} else {
			filter[f.Field] = bson.M{"$in": f.Values}
		}
	}
	return filter
}

func listingFindOptions(q listing.Query) *options.FindOptions {
	opts := options.Find().SetSkip(int64(q.Skip())).SetLimit(int64(q.Limit))
	if q.SortBy != "" {
		opts.SetSort(bson.D{{Key: q.SortBy, Value: int(q.Order)}, {Key: "_id", Value: 1}})
	}
	return opts
}

// findPage runs a counted, paginated query and decodes into T.
func findPage[T any](ctx context.Context, coll *mongo.Collection, q listing.Query) (listing.Result[T], error) {
	filter := listingFilter(q.Filters)

	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return listing.Result[T]{}, storeError("count "+coll.Name(), err)
	}

	cursor, err := coll.Find(ctx, filter, listingFindOptions(q))
	if err != nil {
		return listing.Result[T]{}, storeError("list "+coll.Name(), err)
	}
	defer cursor.Close(ctx)

	var data []T
	if err := cursor.All(ctx, &data); err != nil {
		return listing.Result[T]{}, storeError("decode "+coll.Name(), err)
	}
	return listing.NewResult(data, total, q), nil
}
