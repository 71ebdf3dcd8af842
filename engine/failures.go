package engine

import (
	"fmt"
	"strings"

	"github.com/datawarta/tanya/errors"
	"github.com/datawarta/tanya/pipeline"
	"github.com/datawarta/tanya/store"
)

// FailureKind classifies one failed step of a request.
type FailureKind string

const (
	// RoutingMiss: no collection scored above the relevance threshold.
	// Terminal for the request but not a crash.
	RoutingMiss FailureKind = "routing_miss"

	// GenerationMalformed: model output could not be parsed as a pipeline.
	GenerationMalformed FailureKind = "generation_malformed"

	// ValidationRejected: the candidate violated a structural or semantic
	// check; carries the offending stage.
	ValidationRejected FailureKind = "validation_rejected"

	// StoreError: execution-time operator/type failure in the store.
	StoreError FailureKind = "store_error"

	// ModelUnavailable: the language model could not be reached.
	ModelUnavailable FailureKind = "model_unavailable"

	// ModelTimeout: the language model call exceeded its deadline.
	ModelTimeout FailureKind = "model_timeout"
)

// Diagnostic records one failed attempt step.
type Diagnostic struct {
	Attempt    int         `json:"attempt"`
	Kind       FailureKind `json:"kind"`
	Reason     string      `json:"reason"`
	StageIndex int         `json:"stage_index"` // -1 when no single stage is at fault
}

// RequestError is the terminal failure of a request: either a routing miss
// or retry-ceiling exhaustion. It carries the full diagnostic trail, most
// recent first — never a generic error.
type RequestError struct {
	Question    string
	Attempts    int
	Diagnostics []Diagnostic
}

func (e *RequestError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "query failed after %d attempt(s)", e.Attempts)
	if len(e.Diagnostics) > 0 {
		fmt.Fprintf(&b, ": [%s] %s", e.Diagnostics[0].Kind, e.Diagnostics[0].Reason)
	}
	return b.String()
}

// IsRoutingMiss reports whether the request failed because no collection
// could answer it.
func (e *RequestError) IsRoutingMiss() bool {
	return len(e.Diagnostics) == 1 && e.Diagnostics[0].Kind == RoutingMiss
}

// classifyGenerationError maps a generator failure onto the taxonomy.
func classifyGenerationError(err error) FailureKind {
	switch {
	case errors.Is(err, pipeline.ErrMalformed):
		return GenerationMalformed
	case errors.IsTimeoutError(err):
		return ModelTimeout
	default:
		return ModelUnavailable
	}
}

// classifyStoreError maps a store failure onto the taxonomy, extracting the
// offending stage index when the store reported one.
func classifyStoreError(err error) (FailureKind, int) {
	var storeErr *store.Error
	if errors.As(err, &storeErr) {
		return StoreError, storeErr.StageIndex
	}
	return StoreError, -1
}
