package tracing

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/xid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// documentStore is the part of a MongoDB collection the tracer writes to.
type documentStore interface {
	InsertOne(
		ctx context.Context,
		document any,
		opts ...*options.InsertOneOptions,
	) (*mongo.InsertOneResult, error)
}

// MongoDBTracer stores every completed service as a document.
type MongoDBTracer struct {
	lock    sync.Mutex
	client  *mongo.Client
	collect documentStore
	filter  TaskFilter
	timeout time.Duration
	written int
}

// NewMongoDBTracer connects to uri, for example "mongodb://localhost:27017",
// and writes into a fresh database named after a unique ID.
func NewMongoDBTracer(
	ctx context.Context,
	uri string,
	filter TaskFilter,
) (*MongoDBTracer, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}

	dbName := "fairarb_trace_" + xid.New().String()
	fmt.Fprintf(os.Stderr, "Services are recorded in MongoDB database %s\n",
		dbName)

	collect := client.Database(dbName).Collection(ServiceTable)

	_, err = collect.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "client", Value: 1}}},
		{Keys: bson.D{{Key: "admit_step", Value: 1}}},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("creating indexes: %w", err)
	}

	t := newMongoDBTracer(collect, filter)
	t.client = client

	return t, nil
}

func newMongoDBTracer(collect documentStore, filter TaskFilter) *MongoDBTracer {
	return &MongoDBTracer{
		collect: collect,
		filter:  filter,
		timeout: 10 * time.Second,
	}
}

// StartTask does nothing; services are written when they end.
func (t *MongoDBTracer) StartTask(_ Task) {}

// StepTask does nothing; services are written when they end.
func (t *MongoDBTracer) StepTask(_ Task) {}

// EndTask writes the service.
func (t *MongoDBTracer) EndTask(task Task) {
	if !t.filter(task) {
		return
	}

	record, ok := ServiceRecordOf(task)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()

	if _, err := t.collect.InsertOne(ctx, record); err != nil {
		panic(err)
	}

	t.lock.Lock()
	t.written++
	t.lock.Unlock()
}

// Count returns the number of services written.
func (t *MongoDBTracer) Count() int {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.written
}

// Close disconnects from the server.
func (t *MongoDBTracer) Close(ctx context.Context) error {
	if t.client == nil {
		return nil
	}

	return t.client.Disconnect(ctx)
}
