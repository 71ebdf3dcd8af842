// Package mongo adapts MongoDB to the store.Store interface.
package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/datawarta/tanya/errors"
	"github.com/datawarta/tanya/pipeline"
	"github.com/datawarta/tanya/store"
)

// Store executes aggregation pipelines against one MongoDB database. The
// underlying driver pools connections and is safe for concurrent use.
type Store struct {
	client  *mongo.Client
	db      *mongo.Database
	timeout time.Duration
}

// Config for the MongoDB connection.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration // per-pipeline execution timeout
}

// Connect establishes the client and verifies reachability.
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create mongo client")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrServiceUnavailable, err.Error())
	}

	return &Store{
		client:  client,
		db:      client.Database(cfg.Database),
		timeout: cfg.Timeout,
	}, nil
}

// ListCollections returns the collection names in the database.
func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	names, err := s.db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list collections")
	}
	return names, nil
}

// RunPipeline executes the stages against a collection. Command failures
// (unknown operator, type mismatch) surface as *store.Error for the engine's
// retry loop; MongoDB does not report which stage failed, so StageIndex is -1.
func (s *Store) RunPipeline(ctx context.Context, collection string, stages pipeline.Pipeline) ([]store.Document, error) {
	execCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	mongoPipeline := make([]any, len(stages))
	for i, stage := range stages {
		mongoPipeline[i] = bson.M(stage)
	}

	cursor, err := s.db.Collection(collection).Aggregate(execCtx, mongoPipeline)
	if err != nil {
		return nil, s.wrapExecError(collection, err)
	}
	defer cursor.Close(execCtx)

	var docs []store.Document
	if err := cursor.All(execCtx, &docs); err != nil {
		return nil, s.wrapExecError(collection, err)
	}

	return docs, nil
}

// Ping reports store reachability.
func (s *Store) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.client.Ping(pingCtx, readpref.Primary()); err != nil {
		return errors.Wrap(errors.ErrServiceUnavailable, err.Error())
	}
	return nil
}

// Close releases the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) wrapExecError(collection string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Wrapf(errors.ErrTimeout, "pipeline on %s exceeded %s", collection, s.timeout)
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return &store.Error{
			Collection: collection,
			StageIndex: -1,
			Message:    cmdErr.Message,
		}
	}

	return &store.Error{
		Collection: collection,
		StageIndex: -1,
		Message:    err.Error(),
	}
}
