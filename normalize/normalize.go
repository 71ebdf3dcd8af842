// Package normalize produces the pipeline fragments that coerce a
// collection's irregularly encoded fields into canonical types.
//
// The fragments depend only on the catalog's irregularity flags, never on
// the question being asked. They are deterministic, idempotent, and must be
// prepended to every generated pipeline before validation.
package normalize

import (
	"strconv"
	"strings"
	"time"

	"github.com/datawarta/tanya/catalog"
	"github.com/datawarta/tanya/errors"
	"github.com/datawarta/tanya/pipeline"
)

// DateLayout is the one textual date pattern the store is known to contain
// (day/month/year). Additional locales are not inferred.
const DateLayout = "%d/%m/%Y"

// GoDateLayout is DateLayout in Go reference-time form, for the pure helpers.
const GoDateLayout = "02/01/2006"

// Stages returns the normalization prefix for a descriptor: for every
// irregular field, a coercion stage writing the canonical field followed by a
// tagging stage marking records that matched neither accepted encoding.
// Unparseable records are tagged, never dropped.
//
// Clean descriptors yield an empty prefix.
func Stages(desc catalog.CollectionDescriptor) []pipeline.Stage {
	var stages []pipeline.Stage
	for _, f := range desc.IrregularFields() {
		switch f.Irregularity {
		case catalog.IrregularMixedDate:
			stages = append(stages, dateCoercionStage(f), tagStage(f))
		case catalog.IrregularCommaDecimal:
			stages = append(stages, decimalCoercionStage(f), tagStage(f))
		}
	}
	return stages
}

// dateCoercionStage merges the two accepted date encodings into one
// canonical date field: an already-typed date passes through, a string is
// parsed as day/month/year, anything else becomes null (tagged by the
// follow-up stage).
func dateCoercionStage(f catalog.FieldSpec) pipeline.Stage {
	ref := "$" + f.Name
	return pipeline.Stage{
		"$addFields": map[string]any{
			f.Canonical: map[string]any{
				"$switch": map[string]any{
					"branches": []any{
						map[string]any{
							"case": map[string]any{"$eq": []any{map[string]any{"$type": ref}, "date"}},
							"then": ref,
						},
						map[string]any{
							"case": map[string]any{"$eq": []any{map[string]any{"$type": ref}, "string"}},
							"then": map[string]any{
								"$dateFromString": map[string]any{
									"dateString": ref,
									"format":     DateLayout,
									"onError":    nil,
								},
							},
						},
					},
					"default": nil,
				},
			},
		},
	}
}

// decimalCoercionStage canonicalizes a mixed numeric field. Strings using a
// comma decimal separator have grouping dots stripped before the comma is
// swapped for a dot, so "1.234,56" converts to exactly 1234.56; strings
// without a comma convert directly; typed numbers coerce to double.
func decimalCoercionStage(f catalog.FieldSpec) pipeline.Stage {
	ref := "$" + f.Name

	cleaned := map[string]any{
		"$cond": map[string]any{
			"if": map[string]any{"$gte": []any{map[string]any{"$indexOfBytes": []any{ref, ","}}, 0.0}},
			"then": map[string]any{
				"$replaceAll": map[string]any{
					"input": map[string]any{
						"$replaceAll": map[string]any{"input": ref, "find": ".", "replacement": ""},
					},
					"find":        ",",
					"replacement": ".",
				},
			},
			"else": ref,
		},
	}

	return pipeline.Stage{
		"$addFields": map[string]any{
			f.Canonical: map[string]any{
				"$switch": map[string]any{
					"branches": []any{
						map[string]any{
							"case": map[string]any{"$eq": []any{map[string]any{"$type": ref}, "string"}},
							"then": map[string]any{
								"$convert": map[string]any{"input": cleaned, "to": "double", "onError": nil},
							},
						},
						map[string]any{
							"case": map[string]any{
								"$in": []any{map[string]any{"$type": ref}, []any{"double", "int", "long", "decimal"}},
							},
							"then": map[string]any{"$toDouble": ref},
						},
					},
					"default": nil,
				},
			},
		},
	}
}

// tagStage marks records whose canonical value could not be derived. Runs as
// a separate stage so it reads the canonical field the coercion stage just
// wrote.
func tagStage(f catalog.FieldSpec) pipeline.Stage {
	return pipeline.Stage{
		"$addFields": map[string]any{
			f.UnparseableTag(): map[string]any{
				"$eq": []any{"$" + f.Canonical, nil},
			},
		},
	}
}

// ParseDecimal is the pure Go twin of the decimal coercion stage, used for
// local value handling. It accepts comma-decimal strings ("1.234,56"),
// dot-decimal strings and plain integers, preserving sign and magnitude
// exactly.
func ParseDecimal(s string) (float64, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, errors.New("empty decimal string")
	}
	if strings.Contains(trimmed, ",") {
		trimmed = strings.ReplaceAll(trimmed, ".", "")
		trimmed = strings.ReplaceAll(trimmed, ",", ".")
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "unparseable decimal %q", s)
	}
	return v, nil
}

// ParseDate is the pure Go twin of the date coercion stage: accepts an
// already-typed time.Time or the day/month/year textual pattern. The boolean
// reports parseability; callers must tag rather than default on false.
func ParseDate(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		parsed, err := time.Parse(GoDateLayout, strings.TrimSpace(t))
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	default:
		return time.Time{}, false
	}
}
