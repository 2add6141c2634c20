package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/zmy-farmer/queue-router/internal/storage"
)

// MessageArchive implements storage.MessageArchive using MongoDB
type MessageArchive struct {
	client     *mongo.Client
	database   string
	collection string
}

var _ storage.MessageArchive = (*MessageArchive)(nil)

// NewMessageArchive creates a new MongoDB-backed message archive
func NewMessageArchive(mongoURI, database, collection string) (*MessageArchive, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(mongoURI)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	archive := &MessageArchive{
		client:     client,
		database:   database,
		collection: collection,
	}

	if err := archive.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return archive, nil
}

func (a *MessageArchive) coll() *mongo.Collection {
	return a.client.Database(a.database).Collection(a.collection)
}

func (a *MessageArchive) ensureIndexes(ctx context.Context) error {
	_, err := a.coll().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "archived_at", Value: -1}}},
		{Keys: bson.D{{Key: "message_type", Value: 1}, {Key: "archived_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create archive indexes: %w", err)
	}
	return nil
}

// Store inserts an archived message
func (a *MessageArchive) Store(ctx context.Context, msg *storage.ArchivedMessage) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	if _, err := a.coll().InsertOne(ctx, msg); err != nil {
		return fmt.Errorf("failed to insert archived message: %w", err)
	}
	return nil
}

// List returns archived messages matching filter, newest first
func (a *MessageArchive) List(ctx context.Context, filter storage.ListFilter) ([]*storage.ArchivedMessage, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "archived_at", Value: -1}}).
		SetLimit(int64(filter.EffectiveLimit()))

	cursor, err := a.coll().Find(ctx, buildFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query archived messages: %w", err)
	}
	defer cursor.Close(ctx)

	var results []storage.ArchivedMessage
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode archived messages: %w", err)
	}

	// Convert to pointers
	pointers := make([]*storage.ArchivedMessage, len(results))
	for i := range results {
		pointers[i] = &results[i]
	}
	return pointers, nil
}

// Count returns the total number of archived messages
func (a *MessageArchive) Count(ctx context.Context) (int64, error) {
	count, err := a.coll().CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count archived messages: %w", err)
	}
	return count, nil
}

// Close closes the MongoDB connection
func (a *MessageArchive) Close(ctx context.Context) error {
	return a.client.Disconnect(ctx)
}

func buildFilter(filter storage.ListFilter) bson.M {
	query := bson.M{}
	if filter.MessageType != "" {
		query["message_type"] = filter.MessageType
	}
	if filter.QueueType != "" {
		query["queue_type"] = filter.QueueType
	}
	return query
}
