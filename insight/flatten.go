package insight

import (
	"sort"

	"github.com/datawarta/tanya/store"
)

// Flatten expands nested sub-documents into a row/column view: sub-lists of
// documents become repeated parent context, one output row per leaf
// combination, with sub-fields exposed under dotted keys. Every field's
// original value is preserved unchanged; scalar lists stay as they are.
func Flatten(docs []store.Document) []store.Document {
	var out []store.Document
	for _, doc := range docs {
		out = append(out, flattenDoc(doc)...)
	}
	return out
}

func flattenDoc(doc store.Document) []store.Document {
	base := store.Document{}
	type subList struct {
		key   string
		elems []store.Document
	}
	var subs []subList

	// Deterministic expansion order.
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		val := doc[key]
		switch v := val.(type) {
		case map[string]any:
			// Single sub-document: inline under dotted keys.
			for subKey, subVal := range v {
				base[key+"."+subKey] = subVal
			}
		case []any:
			if elems := documentElements(v); elems != nil {
				subs = append(subs, subList{key: key, elems: elems})
			} else {
				base[key] = val
			}
		default:
			base[key] = val
		}
	}

	rows := []store.Document{base}
	for _, sub := range subs {
		var expanded []store.Document
		for _, row := range rows {
			for _, elem := range sub.elems {
				for _, leaf := range flattenDoc(elem) {
					merged := store.Document{}
					for k, v := range row {
						merged[k] = v
					}
					for k, v := range leaf {
						merged[sub.key+"."+k] = v
					}
					expanded = append(expanded, merged)
				}
			}
		}
		if len(expanded) > 0 {
			rows = expanded
		}
	}

	return rows
}

// documentElements returns the list as documents when every element is one,
// nil otherwise (scalar lists are not expanded).
func documentElements(list []any) []store.Document {
	if len(list) == 0 {
		return nil
	}
	docs := make([]store.Document, len(list))
	for i, elem := range list {
		m, ok := elem.(map[string]any)
		if !ok {
			return nil
		}
		docs[i] = m
	}
	return docs
}
