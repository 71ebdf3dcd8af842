// Package store defines the document-store boundary the engine executes
// against. Implementations must be safe for concurrent use by independent
// requests and handle their own connection pooling.
package store

import (
	"context"
	"fmt"

	"github.com/datawarta/tanya/pipeline"
)

// Document is one raw result document.
type Document = map[string]any

// Store is the read-only query/execute interface over the document store.
type Store interface {
	// ListCollections returns the names of the collections present.
	ListCollections(ctx context.Context) ([]string, error)

	// RunPipeline executes an aggregation pipeline against a collection.
	// Execution failures caused by operator/type mismatches return *Error.
	RunPipeline(ctx context.Context, collection string, stages pipeline.Pipeline) ([]Document, error)

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}

// Error is an execution-time store failure. StageIndex is the offending
// stage when the store reports one, -1 otherwise.
type Error struct {
	Collection string
	StageIndex int
	Message    string
}

func (e *Error) Error() string {
	if e.StageIndex >= 0 {
		return fmt.Sprintf("store error on %s at stage %d: %s", e.Collection, e.StageIndex, e.Message)
	}
	return fmt.Sprintf("store error on %s: %s", e.Collection, e.Message)
}
