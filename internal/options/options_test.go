package options

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	mongoopts "go.mongodb.org/mongo-driver/mongo/options"
)

type record struct {
	Name  string `json:"name" bson:"name"`
	Count int    `json:"count" bson:"count"`
}

func exerciseStore(t *testing.T, s Store, name string) {
	t.Helper()
	ctx := context.Background()

	var got record
	if err := s.Get(ctx, name, &got); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	added, err := s.Add(ctx, name, record{Name: "first", Count: 1})
	if err != nil || !added {
		t.Fatalf("first add: %v %v", added, err)
	}
	added, err = s.Add(ctx, name, record{Name: "second", Count: 2})
	if err != nil || added {
		t.Fatalf("second add must not write: %v %v", added, err)
	}
	if err := s.Get(ctx, name, &got); err != nil || got.Name != "first" {
		t.Fatalf("after add: %+v %v", got, err)
	}

	if err := s.Set(ctx, name, record{Name: "third", Count: 3}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Get(ctx, name, &got); err != nil || got.Name != "third" || got.Count != 3 {
		t.Fatalf("after set: %+v %v", got, err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore(), "helpcrunch")
}

// Redis is unreachable here: every cache call fails and the cache must fall
// through to the backing store without surfacing an error.
func TestRedisCacheFailsOpen(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	exerciseStore(t, NewRedisCache(rdb, NewMemoryStore(), time.Minute), "helpcrunch")
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("REDIS_URL")
	if addr == "" {
		t.Skip("REDIS_URL not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	ctx := context.Background()
	name := "test-" + time.Now().Format("150405.000000")
	backing := NewMemoryStore()
	cache := NewRedisCache(rdb, backing, time.Minute)
	defer cache.Invalidate(ctx, name)

	exerciseStore(t, cache, name)

	// A write behind the cache's back is not seen until invalidation.
	if err := backing.Set(ctx, name, record{Name: "hidden"}); err != nil {
		t.Fatal(err)
	}
	var got record
	if err := cache.Get(ctx, name, &got); err != nil || got.Name != "third" {
		t.Fatalf("expected cached value, got %+v %v", got, err)
	}
	cache.Invalidate(ctx, name)
	if err := cache.Get(ctx, name, &got); err != nil || got.Name != "hidden" {
		t.Fatalf("expected fresh value, got %+v %v", got, err)
	}
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, mongoopts.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Disconnect(context.Background())

	db := client.Database("helpcrunch_test")
	defer db.Drop(context.Background())

	exerciseStore(t, NewMongoStore(db, nil), "helpcrunch")
}
