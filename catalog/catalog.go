// Package catalog describes the pre-aggregated collections available to the
// query pipeline.
//
// The catalog is static: loaded once at startup, never mutated, and safe for
// unsynchronized concurrent reads. Every other component receives it as an
// explicit value so tests can substitute fixture catalogs.
package catalog

import (
	"github.com/datawarta/tanya/errors"
)

// Shape describes how a collection lays out its documents.
type Shape string

const (
	// ShapeFlat is one document per fact row.
	ShapeFlat Shape = "flat"
	// ShapeNested groups related records as sub-lists under a parent key.
	ShapeNested Shape = "nested"
)

// FieldType is the semantic type of a field.
type FieldType string

const (
	TypeDate    FieldType = "date"
	TypeDecimal FieldType = "decimal"
	TypeString  FieldType = "string"
	TypeNumber  FieldType = "number"
)

// Irregularity flags a known data-quality problem in a field.
type Irregularity string

const (
	// IrregularNone marks a clean field.
	IrregularNone Irregularity = ""
	// IrregularMixedDate marks a field holding both typed dates and
	// DD/MM/YYYY strings in the same collection.
	IrregularMixedDate Irregularity = "mixed_date"
	// IrregularCommaDecimal marks a numeric field stored as strings using
	// comma as the decimal separator (e.g. "1.234,56").
	IrregularCommaDecimal Irregularity = "comma_decimal"
)

// FieldSpec describes one field of a collection.
type FieldSpec struct {
	Name         string       `json:"name"`
	Type         FieldType    `json:"type"`
	Irregularity Irregularity `json:"irregularity,omitempty"`

	// Canonical is the name of the normalized output field for irregular
	// fields (e.g. "Sales Date" → "sales_date"). Empty for clean fields.
	Canonical string `json:"canonical,omitempty"`

	// Nested lists the sub-fields when this field is a sub-list of a
	// nested-shape collection.
	Nested []FieldSpec `json:"nested,omitempty"`
}

// UnparseableTag is the name of the sentinel field marking records whose
// irregular value matched neither accepted encoding.
func (f FieldSpec) UnparseableTag() string {
	if f.Canonical == "" {
		return ""
	}
	return f.Canonical + "_unparseable"
}

// Synonyms holds the business vocabulary that maps question text onto a
// collection. Primary terms score higher than secondary ones.
type Synonyms struct {
	Primary   []string `json:"primary"`
	Secondary []string `json:"secondary"`
}

// CollectionDescriptor is the static description of one collection.
type CollectionDescriptor struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Shape       Shape       `json:"shape"`
	Fields      []FieldSpec `json:"fields"`

	// Dimensions are the grouping dimensions this collection already
	// answers (e.g. "location", "month"). Used by the router to match a
	// question's implied grouping.
	Dimensions []string `json:"dimensions"`

	Synonyms Synonyms `json:"synonyms"`

	// DocCount is the approximate number of documents; among equally
	// scored candidates the router prefers the cheaper scan.
	DocCount int64 `json:"doc_count"`
}

// HasField reports whether the descriptor declares the named field, either
// at the top level or inside a nested sub-list.
func (d CollectionDescriptor) HasField(name string) bool {
	return hasField(d.Fields, name)
}

func hasField(fields []FieldSpec, name string) bool {
	for _, f := range fields {
		if f.Name == name {
			return true
		}
		if len(f.Nested) > 0 && hasField(f.Nested, name) {
			return true
		}
	}
	return false
}

// HasDimension reports whether the descriptor answers the given grouping
// dimension.
func (d CollectionDescriptor) HasDimension(dim string) bool {
	for _, existing := range d.Dimensions {
		if existing == dim {
			return true
		}
	}
	return false
}

// IrregularFields returns the fields flagged with a data-quality
// irregularity, in declaration order.
func (d CollectionDescriptor) IrregularFields() []FieldSpec {
	var out []FieldSpec
	for _, f := range d.Fields {
		if f.Irregularity != IrregularNone {
			out = append(out, f)
		}
	}
	return out
}

// FieldNames returns every declared field name, including nested sub-fields
// as dotted paths and the canonical/tag names normalization introduces.
func (d CollectionDescriptor) FieldNames() []string {
	var names []string
	for _, f := range d.Fields {
		names = append(names, f.Name)
		for _, sub := range f.Nested {
			names = append(names, f.Name+"."+sub.Name)
		}
		if f.Canonical != "" {
			names = append(names, f.Canonical, f.UnparseableTag())
		}
	}
	return names
}

// Catalog is the immutable set of collection descriptors.
type Catalog struct {
	descriptors []CollectionDescriptor
	byName      map[string]CollectionDescriptor
}

// New builds a catalog from descriptors. Duplicate names are rejected.
func New(descriptors []CollectionDescriptor) (*Catalog, error) {
	byName := make(map[string]CollectionDescriptor, len(descriptors))
	for _, d := range descriptors {
		if d.Name == "" {
			return nil, errors.New("catalog: descriptor with empty name")
		}
		if _, dup := byName[d.Name]; dup {
			return nil, errors.Newf("catalog: duplicate collection %q", d.Name)
		}
		byName[d.Name] = d
	}
	return &Catalog{descriptors: descriptors, byName: byName}, nil
}

// Get returns the descriptor for the named collection.
func (c *Catalog) Get(name string) (CollectionDescriptor, error) {
	d, ok := c.byName[name]
	if !ok {
		return CollectionDescriptor{}, errors.NewNotFoundError("collection %q not in catalog", name)
	}
	return d, nil
}

// Descriptors returns all descriptors in declaration order. Callers must not
// mutate the returned slice.
func (c *Catalog) Descriptors() []CollectionDescriptor {
	return c.descriptors
}

// Len returns the number of collections in the catalog.
func (c *Catalog) Len() int {
	return len(c.descriptors)
}
