// Package router chooses which pre-aggregated collection best answers a
// question.
//
// Scoring is a pure function of the static catalog and the parsed intent:
// weighted business-synonym hits, implied grouping-dimension matches, and a
// shape bonus for collections whose aggregation depth matches the question.
// A question scoring below the relevance threshold routes nowhere — that is
// "cannot answer", not an error.
package router

import (
	"sort"
	"strings"

	"github.com/datawarta/tanya/catalog"
	"github.com/datawarta/tanya/intent"
)

// Config carries the scoring weights. The defaults reproduce the production
// heuristic: primary synonyms 3, secondary 2, threshold 2.
type Config struct {
	PrimaryWeight   int
	SecondaryWeight int
	MinScore        int
}

// DefaultConfig returns the documented default weights.
func DefaultConfig() Config {
	return Config{PrimaryWeight: 3, SecondaryWeight: 2, MinScore: 2}
}

const (
	dimensionMatchScore = 2
	nestedShapeBonus    = 2
	flatShapeBonus      = 1
)

// Router ranks catalog collections for query intents.
type Router struct {
	catalog *catalog.Catalog
	cfg     Config
}

// New creates a Router over an immutable catalog.
func New(cat *catalog.Catalog, cfg Config) *Router {
	if cfg.PrimaryWeight == 0 && cfg.SecondaryWeight == 0 {
		cfg = DefaultConfig()
	}
	return &Router{catalog: cat, cfg: cfg}
}

// scored pairs a descriptor with its relevance score during ranking.
type scored struct {
	desc  catalog.CollectionDescriptor
	score int
}

// Route returns the descriptors that can answer the intent, best first.
// An empty result means no collection scored above the threshold; callers
// must treat that as "cannot answer". Deterministic: identical intent and
// catalog always yield the same ranking.
func (r *Router) Route(q intent.QueryIntent) []catalog.CollectionDescriptor {
	lowered := strings.ToLower(q.Text)

	var candidates []scored
	for _, desc := range r.catalog.Descriptors() {
		if s := r.score(lowered, q, desc); s >= r.cfg.MinScore {
			candidates = append(candidates, scored{desc: desc, score: s})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		// Equal relevance: prefer the cheaper scan.
		if candidates[i].desc.DocCount != candidates[j].desc.DocCount {
			return candidates[i].desc.DocCount < candidates[j].desc.DocCount
		}
		return candidates[i].desc.Name < candidates[j].desc.Name
	})

	out := make([]catalog.CollectionDescriptor, len(candidates))
	for i, c := range candidates {
		out[i] = c.desc
	}
	return out
}

func (r *Router) score(lowered string, q intent.QueryIntent, desc catalog.CollectionDescriptor) int {
	score := 0

	for _, syn := range desc.Synonyms.Primary {
		if strings.Contains(lowered, syn) {
			score += r.cfg.PrimaryWeight
		}
	}
	for _, syn := range desc.Synonyms.Secondary {
		if strings.Contains(lowered, syn) {
			score += r.cfg.SecondaryWeight
		}
	}

	for _, dim := range q.Dimensions {
		if desc.HasDimension(dim) {
			score += dimensionMatchScore
		}
	}

	// Shape bonus: a "location by month" style question wants the
	// pre-joined nested collection, a single-dimension question the flat
	// one.
	if q.MultiDimensional() {
		if desc.Shape == catalog.ShapeNested {
			score += nestedShapeBonus
		}
	} else if desc.Shape == catalog.ShapeFlat {
		score += flatShapeBonus
	}

	return score
}
