package mongodb

import (
	// Go Internal Packages
	"context"

	// Local Packages
	models "log-stream/models"

	// External Packages
	"go.mongodb.org/mongo-driver/mongo"
)

type LogRepository struct {
	client     *mongo.Client
	database   string
	collection string
}

func NewLogRepository(client *mongo.Client) *LogRepository {
	return &LogRepository{client: client, database: "logstream", collection: "entries"}
}

// InsertEntry inserts a single log entry into the database
func (r *LogRepository) InsertEntry(ctx context.Context, entry models.MongoLogEntry) error {
	collection := r.client.Database(r.database).Collection(r.collection)
	_, err := collection.InsertOne(ctx, entry)
	if err != nil {
		return err
	}
	return nil
}

// InsertEntries inserts a batch of log entries into the database
func (r *LogRepository) InsertEntries(ctx context.Context, entries []interface{}) error {
	collection := r.client.Database(r.database).Collection(r.collection)
	_, err := collection.InsertMany(ctx, entries)
	if err != nil {
		return err
	}
	return nil
}
