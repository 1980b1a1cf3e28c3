package models

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"helpcrunch-live-chat/internal/logger"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const AuditCollection = "audit_logs"

// AuditEvent is an insert-only, hash-chained record of an admin mutation.
type AuditEvent struct {
	ID           string                 `bson:"_id,omitempty" json:"id"`
	Timestamp    time.Time              `bson:"timestamp" json:"timestamp"`
	UserID       string                 `bson:"user_id" json:"user_id"`
	Action       string                 `bson:"action" json:"action"`
	Resource     string                 `bson:"resource" json:"resource"`
	ResourceID   string                 `bson:"resource_id" json:"resource_id"`
	IPAddress    string                 `bson:"ip_address" json:"ip_address"`
	UserAgent    string                 `bson:"user_agent" json:"user_agent"`
	RequestID    string                 `bson:"request_id" json:"request_id"`
	Success      bool                   `bson:"success" json:"success"`
	ErrorMessage string                 `bson:"error_message,omitempty" json:"error_message,omitempty"`
	Changes      map[string]interface{} `bson:"changes,omitempty" json:"changes,omitempty"`
	PreviousHash string                 `bson:"previous_hash" json:"previous_hash"`
	CurrentHash  string                 `bson:"current_hash" json:"current_hash"`
}

func (e *AuditEvent) ComputeHash() string {
	data := fmt.Sprintf("%s|%s|%s|%s|%s|%t|%s",
		e.Timestamp.Format(time.RFC3339Nano),
		e.UserID,
		e.Action,
		e.Resource,
		e.ResourceID,
		e.Success,
		e.PreviousHash,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// VerifyChain checks events, oldest first, link to one another.
func VerifyChain(events []AuditEvent) bool {
	var previous string
	for i, e := range events {
		if i > 0 && e.PreviousHash != previous {
			return false
		}
		if e.CurrentHash != e.ComputeHash() {
			return false
		}
		previous = e.CurrentHash
	}
	return true
}

// AuditSink stores audit events.
type AuditSink interface {
	Insert(ctx context.Context, event *AuditEvent) error
	Recent(ctx context.Context, resource, resourceID string, limit int) ([]AuditEvent, error)
}

// AuditLogger chains events per resource and hands them to a sink.
type AuditLogger struct {
	sink       AuditSink
	lastHashMu sync.Mutex
	lastHashes map[string]string
}

func NewAuditLogger(sink AuditSink) *AuditLogger {
	return &AuditLogger{
		sink:       sink,
		lastHashes: make(map[string]string),
	}
}

func (al *AuditLogger) Log(ctx context.Context, event *AuditEvent) error {
	al.lastHashMu.Lock()
	defer al.lastHashMu.Unlock()

	key := event.Resource + "/" + event.ResourceID
	event.PreviousHash = al.lastHashes[key]
	event.Timestamp = time.Now().UTC().Truncate(time.Millisecond)
	event.ID = uuid.NewString()
	event.CurrentHash = event.ComputeHash()

	if err := al.sink.Insert(ctx, event); err != nil {
		logger.Error("failed to log audit event", "action", event.Action, "resource", event.Resource, "error", err)
		return err
	}

	al.lastHashes[key] = event.CurrentHash
	logger.Debug("audit event logged", "action", event.Action, "resource", event.Resource, "resource_id", event.ResourceID)
	return nil
}

// LogAsync never blocks the request that produced the event.
func (al *AuditLogger) LogAsync(event *AuditEvent) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = al.Log(ctx, event)
	}()
}

// Recent returns the latest events for a resource, oldest first.
func (al *AuditLogger) Recent(ctx context.Context, resource, resourceID string, limit int) ([]AuditEvent, error) {
	return al.sink.Recent(ctx, resource, resourceID, limit)
}

type mongoAuditSink struct {
	col *mongo.Collection
}

// NewMongoAuditSink writes to the audit_logs collection.
func NewMongoAuditSink(db *mongo.Database) AuditSink {
	return &mongoAuditSink{col: db.Collection(AuditCollection)}
}

func (s *mongoAuditSink) Insert(ctx context.Context, event *AuditEvent) error {
	_, err := s.col.InsertOne(ctx, event)
	return err
}

func (s *mongoAuditSink) Recent(ctx context.Context, resource, resourceID string, limit int) ([]AuditEvent, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.col.Find(ctx, bson.M{"resource": resource, "resource_id": resourceID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []AuditEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	return events, nil
}

// MemoryAuditSink keeps events in process; used when Mongo is unavailable and in tests.
type MemoryAuditSink struct {
	mu     sync.Mutex
	events []AuditEvent
}

func (s *MemoryAuditSink) Insert(_ context.Context, event *AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, *event)
	return nil
}

func (s *MemoryAuditSink) Recent(_ context.Context, resource, resourceID string, limit int) ([]AuditEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []AuditEvent
	for _, e := range s.events {
		if e.Resource == resource && e.ResourceID == resourceID {
			out = append(out, e)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}
