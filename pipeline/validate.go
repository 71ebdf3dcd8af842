package pipeline

import (
	"fmt"
	"strings"

	"github.com/datawarta/tanya/catalog"
)

// allowedOperators is the fixed set of stage operators a candidate may use.
// Write and cross-collection operators are deliberately absent: the system is
// read-only analytics.
var allowedOperators = map[string]bool{
	"$match":     true,
	"$group":     true,
	"$project":   true,
	"$sort":      true,
	"$limit":     true,
	"$skip":      true,
	"$unwind":    true,
	"$addFields": true,
	"$count":     true,
	"$sample":    true,
}

// writeOperators exist only to produce a pointed rejection reason.
var writeOperators = map[string]bool{
	"$out":   true,
	"$merge": true,
}

// Validate statically checks a candidate against its target descriptor.
//
// Checks run in order: stage well-formedness and operator allow-listing,
// field-reference resolution against the descriptor plus aliases introduced
// by earlier stages, and ordering sanity (grouping must not precede the
// normalization prefix). The first violation short-circuits; there is no
// partial acceptance.
func Validate(c Candidate, desc catalog.CollectionDescriptor) Verdict {
	known := make(map[string]bool)
	for _, name := range desc.FieldNames() {
		known[name] = true
	}
	known["_id"] = true

	for i, stage := range c.Stages {
		op := stage.Operator()
		if op == "" {
			return Reject(fmt.Sprintf("stage must be a single-key document, got %d keys", len(stage)), i)
		}
		if writeOperators[op] {
			return Reject(fmt.Sprintf("operator %s writes to the store; only read-only stages are allowed", op), i)
		}
		if !allowedOperators[op] {
			return Reject(fmt.Sprintf("operator %s is not in the allowed operator set", op), i)
		}

		// The normalization prefix is emitted by the catalog, not the
		// model; grouping or reshaping inside it means stage order was
		// tampered with.
		if i < c.NormCount && op != "$addFields" {
			return Reject(fmt.Sprintf("stage %s precedes the normalization prefix; grouping and filtering must come after field normalization", op), i)
		}

		if v := checkStage(op, stage[op], known, i); !v.Accepted {
			return v
		}
	}

	return Accept()
}

// checkStage validates one stage's argument and folds its output fields into
// the running known set.
func checkStage(op string, arg any, known map[string]bool, idx int) Verdict {
	switch op {
	case "$match":
		doc, ok := arg.(map[string]any)
		if !ok {
			return Reject("$match argument must be a document", idx)
		}
		return checkMatchDoc(doc, known, idx)

	case "$group":
		doc, ok := arg.(map[string]any)
		if !ok {
			return Reject("$group argument must be a document", idx)
		}
		if _, hasID := doc["_id"]; !hasID {
			return Reject("$group requires an _id expression", idx)
		}
		outputs := make([]string, 0, len(doc))
		for key, expr := range doc {
			if v := checkExprRefs(expr, known, idx); !v.Accepted {
				return v
			}
			outputs = append(outputs, key)
		}
		// A $group defines the document shape from scratch: only its
		// outputs survive downstream.
		for k := range known {
			delete(known, k)
		}
		for _, key := range outputs {
			known[key] = true
		}
		known["_id"] = true
		return Accept()

	case "$project", "$addFields":
		doc, ok := arg.(map[string]any)
		if !ok {
			return Reject(op+" argument must be a document", idx)
		}
		for key, expr := range doc {
			switch v := expr.(type) {
			case bool:
				if v && key != "_id" && !resolves(key, known) {
					return Reject(fmt.Sprintf("field %q is not defined by the collection or an earlier stage", key), idx)
				}
			case float64:
				if v != 0 && key != "_id" && !resolves(key, known) {
					return Reject(fmt.Sprintf("field %q is not defined by the collection or an earlier stage", key), idx)
				}
			default:
				if verdict := checkExprRefs(expr, known, idx); !verdict.Accepted {
					return verdict
				}
			}
			known[key] = true
		}
		return Accept()

	case "$sort":
		doc, ok := arg.(map[string]any)
		if !ok {
			return Reject("$sort argument must be a document", idx)
		}
		for key, dir := range doc {
			if !resolves(key, known) {
				return Reject(fmt.Sprintf("sort field %q is not defined by the collection or an earlier stage", key), idx)
			}
			if d, ok := dir.(float64); !ok || (d != 1 && d != -1) {
				return Reject(fmt.Sprintf("sort direction for %q must be 1 or -1", key), idx)
			}
		}
		return Accept()

	case "$limit", "$skip":
		n, ok := arg.(float64)
		if !ok || n < 0 || n != float64(int64(n)) {
			return Reject(op+" argument must be a non-negative integer", idx)
		}
		return Accept()

	case "$sample":
		doc, ok := arg.(map[string]any)
		if !ok {
			return Reject("$sample argument must be a document with a size field", idx)
		}
		if _, ok := doc["size"].(float64); !ok {
			return Reject("$sample requires a numeric size", idx)
		}
		return Accept()

	case "$count":
		name, ok := arg.(string)
		if !ok || name == "" {
			return Reject("$count argument must be a non-empty field name", idx)
		}
		for k := range known {
			delete(known, k)
		}
		known[name] = true
		return Accept()

	case "$unwind":
		switch v := arg.(type) {
		case string:
			return checkUnwindPath(v, known, idx)
		case map[string]any:
			path, ok := v["path"].(string)
			if !ok {
				return Reject("$unwind document requires a string path", idx)
			}
			return checkUnwindPath(path, known, idx)
		default:
			return Reject("$unwind argument must be a field path or document", idx)
		}
	}

	return Accept()
}

func checkUnwindPath(path string, known map[string]bool, idx int) Verdict {
	if !strings.HasPrefix(path, "$") {
		return Reject("$unwind path must start with $", idx)
	}
	ref := strings.TrimPrefix(path, "$")
	if !resolves(ref, known) {
		return Reject(fmt.Sprintf("unwind field %q is not defined by the collection or an earlier stage", ref), idx)
	}
	return Accept()
}

// checkMatchDoc validates a $match document. Non-$ keys are field paths;
// their values are literals or comparison documents (no field references
// except under $expr). $and/$or/$nor recurse into sub-match documents.
func checkMatchDoc(doc map[string]any, known map[string]bool, idx int) Verdict {
	for key, val := range doc {
		switch {
		case key == "$and" || key == "$or" || key == "$nor":
			subs, ok := val.([]any)
			if !ok {
				return Reject(key+" requires an array of match documents", idx)
			}
			for _, sub := range subs {
				subDoc, ok := sub.(map[string]any)
				if !ok {
					return Reject(key+" elements must be documents", idx)
				}
				if v := checkMatchDoc(subDoc, known, idx); !v.Accepted {
					return v
				}
			}
		case key == "$expr":
			if v := checkExprRefs(val, known, idx); !v.Accepted {
				return v
			}
		case strings.HasPrefix(key, "$"):
			return Reject(fmt.Sprintf("unsupported match operator %s", key), idx)
		default:
			if !resolves(key, known) {
				return Reject(fmt.Sprintf("field %q is not defined by the collection or an earlier stage", key), idx)
			}
		}
	}
	return Accept()
}

// checkExprRefs walks an aggregation expression and resolves every "$field"
// string reference. "$$" system variables are exempt.
func checkExprRefs(expr any, known map[string]bool, idx int) Verdict {
	switch v := expr.(type) {
	case string:
		if strings.HasPrefix(v, "$$") || !strings.HasPrefix(v, "$") {
			return Accept()
		}
		ref := strings.TrimPrefix(v, "$")
		if !resolves(ref, known) {
			return Reject(fmt.Sprintf("field %q is not defined by the collection or an earlier stage", ref), idx)
		}
	case map[string]any:
		for _, sub := range v {
			if verdict := checkExprRefs(sub, known, idx); !verdict.Accepted {
				return verdict
			}
		}
	case []any:
		for _, sub := range v {
			if verdict := checkExprRefs(sub, known, idx); !verdict.Accepted {
				return verdict
			}
		}
	}
	return Accept()
}

// resolves reports whether a field path is declared, either exactly or as a
// sub-path of a known field ("performance_breakdown.location" resolves when
// either the dotted path or its root is known).
func resolves(path string, known map[string]bool) bool {
	if known[path] {
		return true
	}
	if i := strings.Index(path, "."); i > 0 {
		return known[path[:i]]
	}
	return false
}
