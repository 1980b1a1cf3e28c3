package options

import (
	"context"
	"errors"
	"fmt"
	"time"

	"helpcrunch-live-chat/internal/logger"
	"helpcrunch-live-chat/internal/telemetry"

	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	mongoopts "go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName holds one document per option: {_id: name, value: ...}.
const CollectionName = "options"

type optionDocument struct {
	Name      string        `bson:"_id"`
	Value     bson.RawValue `bson:"value"`
	UpdatedAt time.Time     `bson:"updated_at"`
}

// MongoStore persists options in MongoDB. Every call goes through a circuit
// breaker so a struggling database fails fast instead of piling up requests.
type MongoStore struct {
	col     *mongo.Collection
	breaker *gobreaker.CircuitBreaker
	metrics *telemetry.Metrics
}

func NewMongoStore(db *mongo.Database, metrics *telemetry.Metrics) *MongoStore {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "OptionStore",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			metrics.RecordCircuitBreakerState(name, to.String())
		},
	})

	return &MongoStore{
		col:     db.Collection(CollectionName),
		breaker: breaker,
		metrics: metrics,
	}
}

func (s *MongoStore) Get(ctx context.Context, name string, dst interface{}) error {
	_, err := s.breaker.Execute(func() (interface{}, error) {
		var doc optionDocument
		err := s.col.FindOne(ctx, bson.M{"_id": name}).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("find option %q: %w", name, err)
		}
		if err := doc.Value.Unmarshal(dst); err != nil {
			return nil, fmt.Errorf("decode option %q: %w", name, err)
		}
		return nil, nil
	})
	s.metrics.RecordDatabaseOperation("find", CollectionName, err == nil || errors.Is(err, ErrNotFound))
	return err
}

func (s *MongoStore) Set(ctx context.Context, name string, value interface{}) error {
	_, err := s.breaker.Execute(func() (interface{}, error) {
		update := bson.M{
			"$set": bson.M{
				"value":      value,
				"updated_at": time.Now().UTC(),
			},
		}
		_, err := s.col.UpdateOne(ctx, bson.M{"_id": name}, update, mongoopts.Update().SetUpsert(true))
		if err != nil {
			return nil, fmt.Errorf("save option %q: %w", name, err)
		}
		return nil, nil
	})
	s.metrics.RecordDatabaseOperation("upsert", CollectionName, err == nil)
	return err
}

// Add relies on $setOnInsert so the existence check and the write are a
// single atomic operation.
func (s *MongoStore) Add(ctx context.Context, name string, value interface{}) (bool, error) {
	res, err := s.breaker.Execute(func() (interface{}, error) {
		update := bson.M{
			"$setOnInsert": bson.M{
				"value":      value,
				"updated_at": time.Now().UTC(),
			},
		}
		result, err := s.col.UpdateOne(ctx, bson.M{"_id": name}, update, mongoopts.Update().SetUpsert(true))
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("add option %q: %w", name, err)
		}
		return result.UpsertedCount == 1, nil
	})
	s.metrics.RecordDatabaseOperation("insert", CollectionName, err == nil)
	if err != nil {
		return false, err
	}
	return res.(bool), nil
}
