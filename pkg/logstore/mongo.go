package logstore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/wflens/pkg/errors"
	"github.com/matzehuels/wflens/pkg/observability"
)

// MongoOptions configures a [Mongo] store.
type MongoOptions struct {
	URI        string
	Database   string
	Collection string
	// Timeout bounds server selection. Zero means 5s.
	Timeout time.Duration
}

// Defaults used by the log collectors.
const (
	DefaultDatabase   = "cuneiform"
	DefaultCollection = "raw"
)

// Mongo is a [Store] backed by a MongoDB collection.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
}

var _ Store = (*Mongo)(nil)

// NewMongo connects to MongoDB and verifies the connection.
func NewMongo(ctx context.Context, opts MongoOptions) (*Mongo, error) {
	if opts.Database == "" {
		opts.Database = DefaultDatabase
	}
	if opts.Collection == "" {
		opts.Collection = DefaultCollection
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(opts.URI).
		SetServerSelectionTimeout(opts.Timeout))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "connect to %s", opts.URI)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeStore, err, "ping %s", opts.URI)
	}
	return NewMongoFromClient(client, opts.Database, opts.Collection), nil
}

// NewMongoFromClient wraps an existing client.
func NewMongoFromClient(client *mongo.Client, database, collection string) *Mongo {
	return &Mongo{client: client, coll: client.Database(database).Collection(collection)}
}

func aggregate[T any](ctx context.Context, m *Mongo, op string, p mongo.Pipeline) ([]T, error) {
	start := time.Now()
	var out []T
	cur, err := m.coll.Aggregate(ctx, p)
	if err == nil {
		err = cur.All(ctx, &out)
	}
	observability.Store().OnQuery(ctx, op, len(out), time.Since(start), err)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "%s", op)
	}
	return out, nil
}

func (m *Mongo) Sessions(ctx context.Context, f SessionFilter) ([]SessionInfo, error) {
	return aggregate[SessionInfo](ctx, m, "sessions", sessionsPipeline(f))
}

func (m *Mongo) Entries(ctx context.Context, sessionID string, since float64) ([]Entry, error) {
	if err := errors.ValidateSessionID(sessionID); err != nil {
		return nil, err
	}
	return aggregate[Entry](ctx, m, "entries", entriesPipeline(sessionID, since))
}

func (m *Mongo) SessionStats(ctx context.Context, sessionID string) (*SessionStats, error) {
	if err := errors.ValidateSessionID(sessionID); err != nil {
		return nil, err
	}
	out, err := aggregate[SessionStats](ctx, m, "session_stats", sessionStatsPipeline(sessionID))
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session %q not found", sessionID)
	}
	return &out[0], nil
}

func (m *Mongo) TaskTypeStats(ctx context.Context, sessionID string) ([]TaskTypeStats, error) {
	if err := errors.ValidateSessionID(sessionID); err != nil {
		return nil, err
	}
	return aggregate[TaskTypeStats](ctx, m, "task_type_stats", taskTypeStatsPipeline(sessionID))
}

func (m *Mongo) TaskDurations(ctx context.Context, q DurationsQuery) ([]TaskDurations, error) {
	return aggregate[TaskDurations](ctx, m, "task_durations", durationsPipeline(q))
}

func (m *Mongo) Insert(ctx context.Context, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}
	docs := make([]any, len(entries))
	for i := range entries {
		docs[i] = entries[i]
	}
	start := time.Now()
	_, err := m.coll.InsertMany(ctx, docs)
	observability.Store().OnQuery(ctx, "insert", len(docs), time.Since(start), err)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "insert %d entries", len(docs))
	}
	return nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
