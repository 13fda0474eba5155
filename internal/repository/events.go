package repository

import (
	"context"
	"fmt"
	"time"

	"aecoin-store-api/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoPaymentEventLog implements PaymentEventLog for MongoDB.
type MongoPaymentEventLog struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoPaymentEventLog connects to MongoDB and ensures the bill index.
func NewMongoPaymentEventLog(ctx context.Context, uri, dbName, collectionName string, logger *zap.Logger) (*MongoPaymentEventLog, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(20).
		SetRetryWrites(true)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	collection := client.Database(dbName).Collection(collectionName)

	indexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "bill_id", Value: 1}, {Key: "received_at", Value: -1}},
	}
	if _, err := collection.Indexes().CreateOne(ctx, indexModel); err != nil && logger != nil {
		logger.Warn("failed to create payment event index", zap.Error(err))
	}

	if logger != nil {
		logger.Info("payment event log connected", zap.String("database", dbName), zap.String("collection", collectionName))
	}

	return &MongoPaymentEventLog{
		client:     client,
		collection: collection,
	}, nil
}

// Record inserts an event.
func (r *MongoPaymentEventLog) Record(ctx context.Context, e *model.PaymentEvent) error {
	if e.ReceivedAt.IsZero() {
		e.ReceivedAt = time.Now().UTC()
	}
	_, err := r.collection.InsertOne(ctx, e)
	return err
}

// ListByBill returns the newest events for a bill.
func (r *MongoPaymentEventLog) ListByBill(ctx context.Context, billID string, limit int64) ([]model.PaymentEvent, error) {
	findOptions := options.Find()
	findOptions.SetSort(bson.D{{Key: "received_at", Value: -1}})
	if limit > 0 {
		findOptions.SetLimit(limit)
	}

	cursor, err := r.collection.Find(ctx, bson.M{"bill_id": billID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []model.PaymentEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}

	// Ensure not nil slice for JSON
	if events == nil {
		events = []model.PaymentEvent{}
	}
	return events, nil
}

// Close closes the MongoDB connection.
func (r *MongoPaymentEventLog) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}

// LoggingPaymentEventLog writes events to the application log only. Used
// when MongoDB is not configured.
type LoggingPaymentEventLog struct {
	logger *zap.Logger
}

// NewLoggingPaymentEventLog creates a log-only event sink.
func NewLoggingPaymentEventLog(logger *zap.Logger) *LoggingPaymentEventLog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingPaymentEventLog{logger: logger.Named("payment_events")}
}

// Record logs the event without its raw fields.
func (l *LoggingPaymentEventLog) Record(ctx context.Context, e *model.PaymentEvent) error {
	l.logger.Info("payment event",
		zap.String("bill_id", e.BillID),
		zap.String("order_id", e.OrderID),
		zap.String("source", e.Source),
		zap.String("outcome", e.Outcome),
		zap.Bool("paid", e.Paid),
		zap.String("error", e.Error),
	)
	return nil
}

// ListByBill always returns no events.
func (l *LoggingPaymentEventLog) ListByBill(ctx context.Context, billID string, limit int64) ([]model.PaymentEvent, error) {
	return []model.PaymentEvent{}, nil
}

// Close is a no-op.
func (l *LoggingPaymentEventLog) Close() error { return nil }
