package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDB collection names
const (
	MongoUsersCollection        = "users"
	MongoWatchlistsCollection   = "watchlists"
	MongoAlertsCollection       = "alerts"
	MongoAlertHistoryCollection = "alert_history"
)

// MongoDBClient handles the MongoDB connection shared by all stores
type MongoDBClient struct {
	client   *mongo.Client
	database *mongo.Database
}

// NewMongoDBClient connects to MongoDB and verifies the connection
func NewMongoDBClient(uri, dbName string) (*MongoDBClient, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(10).
		SetMinPoolSize(2).
		SetMaxConnIdleTime(30 * time.Second).
		SetConnectTimeout(30 * time.Second).
		SetRetryWrites(true).
		SetRetryReads(true)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	m := &MongoDBClient{
		client:   client,
		database: client.Database(dbName),
	}
	m.createIndexes()

	log.Println("MongoDB connected successfully")
	return m, nil
}

// Database returns the application database handle
func (m *MongoDBClient) Database() *mongo.Database {
	return m.database
}

// Ping verifies the connection is still alive
func (m *MongoDBClient) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

// Close closes the MongoDB connection
func (m *MongoDBClient) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

// createIndexes creates necessary indexes for collections
func (m *MongoDBClient) createIndexes() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	unique := options.Index().SetUnique(true)

	m.database.Collection(MongoUsersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: unique,
	})

	m.database.Collection(MongoWatchlistsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: unique,
	})

	m.database.Collection(MongoAlertsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}, {Key: "symbol", Value: 1}},
	})

	m.database.Collection(MongoAlertHistoryCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}, {Key: "triggered_at", Value: -1}},
	})

	// One history record per alert transition, even across overlapping
	// evaluation cycles
	m.database.Collection(MongoAlertHistoryCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "alert_id", Value: 1}},
		Options: unique,
	})

	log.Println("MongoDB indexes created")
}
