package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datawarta/tanya/errors"
)

func TestNewRejectsDuplicates(t *testing.T) {
	_, err := New([]CollectionDescriptor{
		{Name: "sales_by_month"},
		{Name: "sales_by_month"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestNewRejectsEmptyName(t *testing.T) {
	_, err := New([]CollectionDescriptor{{Name: ""}})
	require.Error(t, err)
}

func TestGetUnknownCollection(t *testing.T) {
	cat := Default()

	_, err := cat.Get("nonexistent")
	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))
}

func TestDefaultCatalog(t *testing.T) {
	cat := Default()
	assert.Equal(t, 7, cat.Len())

	raw, err := cat.Get("transaction_sales")
	require.NoError(t, err)
	assert.Equal(t, ShapeFlat, raw.Shape)
	require.Len(t, raw.IrregularFields(), 2)
	assert.Equal(t, IrregularMixedDate, raw.IrregularFields()[0].Irregularity)
	assert.Equal(t, IrregularCommaDecimal, raw.IrregularFields()[1].Irregularity)

	nested, err := cat.Get("product_performance_nested")
	require.NoError(t, err)
	assert.Equal(t, ShapeNested, nested.Shape)
}

func TestFieldNamesIncludeCanonicalAndTag(t *testing.T) {
	cat := Default()
	raw, err := cat.Get("transaction_sales")
	require.NoError(t, err)

	names := raw.FieldNames()
	assert.Contains(t, names, "Sales Date")
	assert.Contains(t, names, "sales_date")
	assert.Contains(t, names, "sales_date_unparseable")
	assert.Contains(t, names, "Total")
	assert.Contains(t, names, "total_amount")
	assert.Contains(t, names, "total_amount_unparseable")
}

func TestFieldNamesIncludeNestedPaths(t *testing.T) {
	cat := Default()
	nested, err := cat.Get("product_performance_nested")
	require.NoError(t, err)

	names := nested.FieldNames()
	assert.Contains(t, names, "performance_breakdown")
	assert.Contains(t, names, "performance_breakdown.location")
	assert.Contains(t, names, "performance_breakdown.revenue")
	assert.Contains(t, names, "performance_breakdown.quantity")
}

func TestHasField(t *testing.T) {
	cat := Default()
	nested, err := cat.Get("product_performance_nested")
	require.NoError(t, err)

	assert.True(t, nested.HasField("product_name"))
	assert.True(t, nested.HasField("revenue")) // nested sub-field
	assert.False(t, nested.HasField("no_such_field"))
}

func TestHasDimension(t *testing.T) {
	cat := Default()
	byMonth, err := cat.Get("sales_by_month")
	require.NoError(t, err)

	assert.True(t, byMonth.HasDimension("month"))
	assert.True(t, byMonth.HasDimension("year"))
	assert.False(t, byMonth.HasDimension("location"))
}

func TestUnparseableTag(t *testing.T) {
	f := FieldSpec{Name: "Total", Canonical: "total_amount"}
	assert.Equal(t, "total_amount_unparseable", f.UnparseableTag())

	clean := FieldSpec{Name: "month"}
	assert.Equal(t, "", clean.UnparseableTag())
}
