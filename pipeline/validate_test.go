package pipeline

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datawarta/tanya/catalog"
)

var monthDesc = catalog.CollectionDescriptor{
	Name:  "sales_by_month",
	Shape: catalog.ShapeFlat,
	Fields: []catalog.FieldSpec{
		{Name: "month", Type: catalog.TypeNumber},
		{Name: "year", Type: catalog.TypeNumber},
		{Name: "total_sales", Type: catalog.TypeNumber},
		{Name: "total_transactions", Type: catalog.TypeNumber},
	},
}

var rawDesc = catalog.CollectionDescriptor{
	Name:  "transaction_sales",
	Shape: catalog.ShapeFlat,
	Fields: []catalog.FieldSpec{
		{Name: "Sales Date", Type: catalog.TypeDate, Irregularity: catalog.IrregularMixedDate, Canonical: "sales_date"},
		{Name: "Total", Type: catalog.TypeDecimal, Irregularity: catalog.IrregularCommaDecimal, Canonical: "total_amount"},
		{Name: "Location Name", Type: catalog.TypeString},
		{Name: "month", Type: catalog.TypeNumber},
	},
}

var nestedDesc = catalog.CollectionDescriptor{
	Name:  "product_performance_nested",
	Shape: catalog.ShapeNested,
	Fields: []catalog.FieldSpec{
		{Name: "product_name", Type: catalog.TypeString},
		{Name: "total_revenue", Type: catalog.TypeNumber},
		{Name: "performance_breakdown", Type: catalog.TypeString, Nested: []catalog.FieldSpec{
			{Name: "location", Type: catalog.TypeString},
			{Name: "revenue", Type: catalog.TypeNumber},
		}},
	},
}

// mustStages parses stages from JSON so value types match real model output.
func mustStages(t *testing.T, raw string) Pipeline {
	t.Helper()
	var stages []Stage
	require.NoError(t, json.Unmarshal([]byte(raw), &stages))
	return Pipeline(stages)
}

func TestValidateAccepts(t *testing.T) {
	c := Candidate{
		Collection: monthDesc.Name,
		Stages: mustStages(t, `[
			{"$match": {"month": 6, "year": 2025}},
			{"$group": {"_id": "$month", "revenue": {"$sum": "$total_sales"}}},
			{"$sort": {"revenue": -1}},
			{"$limit": 5}
		]`),
	}

	v := Validate(c, monthDesc)
	assert.True(t, v.Accepted)
	assert.Equal(t, -1, v.StageIndex)
}

func TestValidateRejectsMisspelledField(t *testing.T) {
	c := Candidate{
		Collection: rawDesc.Name,
		Stages: mustStages(t, `[
			{"$match": {"month": 6}},
			{"$group": {"_id": null, "total": {"$sum": "$total_ammount"}}}
		]`),
	}

	v := Validate(c, rawDesc)
	require.False(t, v.Accepted)
	assert.Contains(t, v.Reason, "total_ammount")
	assert.Equal(t, 1, v.StageIndex)
}

func TestValidateRejectsWriteOperators(t *testing.T) {
	for _, op := range []string{"$out", "$merge"} {
		c := Candidate{
			Collection: monthDesc.Name,
			Stages:     mustStages(t, `[{"`+op+`": "evil_collection"}]`),
		}
		v := Validate(c, monthDesc)
		require.False(t, v.Accepted, op)
		assert.Contains(t, v.Reason, "read-only")
		assert.Contains(t, v.Reason, op)
		assert.Equal(t, 0, v.StageIndex)
	}
}

func TestValidateRejectsUnknownOperator(t *testing.T) {
	c := Candidate{
		Collection: monthDesc.Name,
		Stages:     mustStages(t, `[{"$lookup": {"from": "other"}}]`),
	}
	v := Validate(c, monthDesc)
	require.False(t, v.Accepted)
	assert.Contains(t, v.Reason, "$lookup")
}

func TestValidateRejectsMultiKeyStage(t *testing.T) {
	c := Candidate{
		Collection: monthDesc.Name,
		Stages:     mustStages(t, `[{"$match": {"month": 6}, "$limit": 5}]`),
	}
	v := Validate(c, monthDesc)
	require.False(t, v.Accepted)
	assert.Contains(t, v.Reason, "single-key")
}

func TestValidateNormalizationPrefixOrdering(t *testing.T) {
	// A grouping stage inside the normalization prefix means the model's
	// stages were spliced before the coercion stages.
	c := Candidate{
		Collection: rawDesc.Name,
		Stages: mustStages(t, `[
			{"$group": {"_id": "$month", "total": {"$sum": "$total_amount"}}},
			{"$addFields": {"total_amount": {"$toDouble": "$Total"}}}
		]`),
		NormCount: 1,
	}

	v := Validate(c, rawDesc)
	require.False(t, v.Accepted)
	assert.Equal(t, 0, v.StageIndex)
	assert.Contains(t, v.Reason, "normalization")
}

func TestValidateAcceptsNormalizationPrefix(t *testing.T) {
	c := Candidate{
		Collection: rawDesc.Name,
		Stages: mustStages(t, `[
			{"$addFields": {"total_amount": {"$toDouble": "$Total"}}},
			{"$addFields": {"total_amount_unparseable": {"$eq": ["$total_amount", null]}}},
			{"$match": {"month": 6}},
			{"$group": {"_id": null, "total": {"$sum": "$total_amount"}}}
		]`),
		NormCount: 2,
	}

	v := Validate(c, rawDesc)
	assert.True(t, v.Accepted, v.Reason)
}

func TestValidateGroupReplacesShape(t *testing.T) {
	// After $group only its outputs exist; sorting on a pre-group field
	// must be rejected.
	rejected := Candidate{
		Collection: monthDesc.Name,
		Stages: mustStages(t, `[
			{"$group": {"_id": "$month", "revenue": {"$sum": "$total_sales"}}},
			{"$sort": {"total_sales": -1}}
		]`),
	}
	v := Validate(rejected, monthDesc)
	require.False(t, v.Accepted)
	assert.Equal(t, 1, v.StageIndex)
	assert.Contains(t, v.Reason, "total_sales")

	accepted := Candidate{
		Collection: monthDesc.Name,
		Stages: mustStages(t, `[
			{"$group": {"_id": "$month", "revenue": {"$sum": "$total_sales"}}},
			{"$sort": {"revenue": -1}}
		]`),
	}
	assert.True(t, Validate(accepted, monthDesc).Accepted)
}

func TestValidateGroupRequiresID(t *testing.T) {
	c := Candidate{
		Collection: monthDesc.Name,
		Stages:     mustStages(t, `[{"$group": {"revenue": {"$sum": "$total_sales"}}}]`),
	}
	v := Validate(c, monthDesc)
	require.False(t, v.Accepted)
	assert.Contains(t, v.Reason, "_id")
}

func TestValidateAliasTracking(t *testing.T) {
	c := Candidate{
		Collection: monthDesc.Name,
		Stages: mustStages(t, `[
			{"$project": {"bulan": "$month", "penjualan": "$total_sales"}},
			{"$sort": {"penjualan": -1}}
		]`),
	}
	assert.True(t, Validate(c, monthDesc).Accepted)
}

func TestValidateSortDirection(t *testing.T) {
	c := Candidate{
		Collection: monthDesc.Name,
		Stages:     mustStages(t, `[{"$sort": {"total_sales": 2}}]`),
	}
	v := Validate(c, monthDesc)
	require.False(t, v.Accepted)
	assert.Contains(t, v.Reason, "1 or -1")
}

func TestValidateLimitArgument(t *testing.T) {
	for _, raw := range []string{
		`[{"$limit": -1}]`,
		`[{"$limit": 2.5}]`,
		`[{"$limit": "five"}]`,
	} {
		c := Candidate{Collection: monthDesc.Name, Stages: mustStages(t, raw)}
		v := Validate(c, monthDesc)
		assert.False(t, v.Accepted, raw)
	}
}

func TestValidateUnwind(t *testing.T) {
	accepted := Candidate{
		Collection: nestedDesc.Name,
		Stages: mustStages(t, `[
			{"$unwind": "$performance_breakdown"},
			{"$sort": {"performance_breakdown.revenue": -1}}
		]`),
	}
	assert.True(t, Validate(accepted, nestedDesc).Accepted)

	rejected := Candidate{
		Collection: nestedDesc.Name,
		Stages:     mustStages(t, `[{"$unwind": "$no_such_list"}]`),
	}
	v := Validate(rejected, nestedDesc)
	require.False(t, v.Accepted)
	assert.Contains(t, v.Reason, "no_such_list")
}

func TestValidateMatchLogicalOperators(t *testing.T) {
	accepted := Candidate{
		Collection: monthDesc.Name,
		Stages: mustStages(t, `[
			{"$match": {"$or": [{"month": 6}, {"month": 7}]}}
		]`),
	}
	assert.True(t, Validate(accepted, monthDesc).Accepted)

	rejected := Candidate{
		Collection: monthDesc.Name,
		Stages: mustStages(t, `[
			{"$match": {"$or": [{"month": 6}, {"bad_field": 7}]}}
		]`),
	}
	v := Validate(rejected, monthDesc)
	require.False(t, v.Accepted)
	assert.Contains(t, v.Reason, "bad_field")
}

func TestValidateExprReferences(t *testing.T) {
	rejected := Candidate{
		Collection: monthDesc.Name,
		Stages: mustStages(t, `[
			{"$match": {"$expr": {"$gt": ["$missing_field", 100]}}}
		]`),
	}
	v := Validate(rejected, monthDesc)
	require.False(t, v.Accepted)
	assert.Contains(t, v.Reason, "missing_field")

	accepted := Candidate{
		Collection: monthDesc.Name,
		Stages: mustStages(t, `[
			{"$match": {"$expr": {"$gt": ["$total_sales", 100]}}}
		]`),
	}
	assert.True(t, Validate(accepted, monthDesc).Accepted)
}

func TestValidateCanonicalFieldsResolve(t *testing.T) {
	c := Candidate{
		Collection: rawDesc.Name,
		Stages: mustStages(t, `[
			{"$match": {"total_amount_unparseable": false}},
			{"$group": {"_id": "$Location Name", "total": {"$sum": "$total_amount"}}}
		]`),
	}
	assert.True(t, Validate(c, rawDesc).Accepted)
}
