package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/alquiler/internal/domain/models"
)

const (
	commitsCollection = "ledger_commits"
	defaultListLimit  = 20
	maxListLimit      = 200
)

// Repository defines the interface for the batch-save journal.
type Repository interface {
	RecordCommit(ctx context.Context, record models.CommitRecord) error
	ListCommits(ctx context.Context, weekID int64, limit int64) ([]models.CommitRecord, error)
}

// MongoDBRepository implements the Repository interface for MongoDB.
type MongoDBRepository struct {
	client   *mongo.Client
	dbName   string
	collName string
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	repo := &MongoDBRepository{
		client:   client,
		dbName:   dbName,
		collName: commitsCollection,
	}

	index := mongo.IndexModel{Keys: bson.D{{Key: "week_id", Value: 1}, {Key: "committed_at", Value: -1}}}
	if _, err := repo.collection().Indexes().CreateOne(ctx, index); err != nil {
		return nil, fmt.Errorf("failed to create commit index: %w", err)
	}

	return repo, nil
}

func (r *MongoDBRepository) collection() *mongo.Collection {
	return r.client.Database(r.dbName).Collection(r.collName)
}

// RecordCommit stores the journal entry of a confirmed batch save.
func (r *MongoDBRepository) RecordCommit(ctx context.Context, record models.CommitRecord) error {
	_, err := r.collection().InsertOne(ctx, record)
	if err != nil {
		return fmt.Errorf("failed to insert commit record: %w", err)
	}
	return nil
}

// ListCommits returns the latest journal entries of a week, newest first.
func (r *MongoDBRepository) ListCommits(ctx context.Context, weekID int64, limit int64) ([]models.CommitRecord, error) {
	filter, opts := commitsQuery(weekID, limit)

	cursor, err := r.collection().Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query commit records: %w", err)
	}
	defer cursor.Close(ctx)

	records := make([]models.CommitRecord, 0)
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode commit records: %w", err)
	}
	return records, nil
}

// commitsQuery builds the newest-first journal query of a week. Non-positive
// limits fall back to the default; large ones are capped.
func commitsQuery(weekID int64, limit int64) (bson.M, *options.FindOptions) {
	switch {
	case limit <= 0:
		limit = defaultListLimit
	case limit > maxListLimit:
		limit = maxListLimit
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "committed_at", Value: -1}}).
		SetLimit(limit)
	return bson.M{"week_id": weekID}, opts
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
