package engine

import (
	"context"
)

// Health is the readiness signal exposed to the surrounding service layer.
type Health struct {
	CatalogLoaded  bool   `json:"catalog_loaded"`
	StoreReachable bool   `json:"store_reachable"`
	StoreError     string `json:"store_error,omitempty"`
}

// Ready reports whether the engine can serve queries.
func (h Health) Ready() bool {
	return h.CatalogLoaded && h.StoreReachable
}

// Health probes the engine's dependencies.
func (e *Engine) Health(ctx context.Context) Health {
	h := Health{
		CatalogLoaded: e.catalog != nil && e.catalog.Len() > 0,
	}

	if err := e.store.Ping(ctx); err != nil {
		h.StoreError = err.Error()
	} else {
		h.StoreReachable = true
	}

	return h
}
