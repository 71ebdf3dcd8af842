package generate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datawarta/tanya/catalog"
	"github.com/datawarta/tanya/errors"
	"github.com/datawarta/tanya/intent"
	"github.com/datawarta/tanya/normalize"
	"github.com/datawarta/tanya/pipeline"
)

// fakeCompleter scripts model responses and records the prompts it saw.
type fakeCompleter struct {
	response string
	err      error
	calls    int
	systems  []string
	users    []string
}

func (f *fakeCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	f.calls++
	f.systems = append(f.systems, system)
	f.users = append(f.users, user)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func monthDescriptor() catalog.CollectionDescriptor {
	return catalog.CollectionDescriptor{
		Name:  "sales_by_month",
		Shape: catalog.ShapeFlat,
		Fields: []catalog.FieldSpec{
			{Name: "month", Type: catalog.TypeNumber},
			{Name: "year", Type: catalog.TypeNumber},
			{Name: "total_sales", Type: catalog.TypeNumber},
		},
		Dimensions: []string{"month", "year"},
	}
}

func rawDescriptor() catalog.CollectionDescriptor {
	return catalog.CollectionDescriptor{
		Name:  "transaction_sales",
		Shape: catalog.ShapeFlat,
		Fields: []catalog.FieldSpec{
			{Name: "Total", Type: catalog.TypeDecimal, Irregularity: catalog.IrregularCommaDecimal, Canonical: "total_amount"},
			{Name: "month", Type: catalog.TypeNumber},
		},
	}
}

func TestGeneratePrependsNormalization(t *testing.T) {
	model := &fakeCompleter{response: `[{"$match": {"month": 6}}]`}
	g := New(model, nil, nil)

	desc := rawDescriptor()
	norm := normalize.Stages(desc)
	q := intent.Parse("sales for June", intent.Options{})

	cand, err := g.Generate(context.Background(), q, desc, norm, nil, 1)
	require.NoError(t, err)

	assert.Equal(t, "transaction_sales", cand.Collection)
	assert.Equal(t, len(norm), cand.NormCount)
	assert.Equal(t, 1, cand.Attempt)
	require.Len(t, cand.Stages, len(norm)+1)
	for i := range norm {
		assert.Equal(t, "$addFields", cand.Stages[i].Operator())
	}
	assert.Equal(t, "$match", cand.Stages[len(norm)].Operator())
}

func TestGenerateMalformedOutput(t *testing.T) {
	model := &fakeCompleter{response: "I am unable to write that pipeline."}
	g := New(model, nil, nil)

	_, err := g.Generate(context.Background(), intent.Parse("sales", intent.Options{}),
		monthDescriptor(), nil, nil, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, pipeline.ErrMalformed))
}

func TestGenerateModelError(t *testing.T) {
	model := &fakeCompleter{err: errors.Wrap(errors.ErrServiceUnavailable, "boom")}
	g := New(model, nil, nil)

	_, err := g.Generate(context.Background(), intent.Parse("sales", intent.Options{}),
		monthDescriptor(), nil, nil, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrServiceUnavailable))
}

func TestGenerateSystemPromptDescribesSchema(t *testing.T) {
	model := &fakeCompleter{response: `[{"$match": {"month": 6}}]`}
	g := New(model, nil, nil)

	desc := rawDescriptor()
	norm := normalize.Stages(desc)
	_, err := g.Generate(context.Background(), intent.Parse("sales", intent.Options{}),
		desc, norm, nil, 1)
	require.NoError(t, err)

	require.Len(t, model.systems, 1)
	system := model.systems[0]
	assert.Contains(t, system, "transaction_sales")
	assert.Contains(t, system, `"Total"`)
	assert.Contains(t, system, "total_amount")
	assert.Contains(t, system, "do not repeat")
	assert.Contains(t, system, "$out")
}

func TestGenerateFeedbackInPrompt(t *testing.T) {
	model := &fakeCompleter{response: `[{"$match": {"month": 6}}]`}
	g := New(model, nil, nil)

	prior := &Feedback{
		Reason:     `field "total_ammount" is not defined by the collection or an earlier stage`,
		StageIndex: 1,
		Pipeline: pipeline.Pipeline{
			{"$match": map[string]any{"month": float64(6)}},
			{"$sort": map[string]any{"total_ammount": float64(-1)}},
		},
	}

	_, err := g.Generate(context.Background(), intent.Parse("sales", intent.Options{}),
		monthDescriptor(), nil, prior, 2)
	require.NoError(t, err)

	require.Len(t, model.users, 1)
	user := model.users[0]
	assert.Contains(t, user, "previous pipeline failed")
	assert.Contains(t, user, "total_ammount")
	assert.Contains(t, user, "index 1")
	assert.Contains(t, user, "Correct ONLY that stage")
}

func TestGenerateExplicitPeriodInPrompt(t *testing.T) {
	model := &fakeCompleter{response: `[{"$match": {"month": 6}}]`}
	g := New(model, nil, nil)

	q := intent.Parse("penjualan bulan juni 2025", intent.Options{Locale: "en"})
	_, err := g.Generate(context.Background(), q, monthDescriptor(), nil, nil, 1)
	require.NoError(t, err)

	user := model.users[0]
	assert.Contains(t, user, "month 6")
	assert.Contains(t, user, "year 2025")
}

func TestGenerateTranslatesIndonesian(t *testing.T) {
	model := &fakeCompleter{response: `[{"$match": {"month": 6}}]`}
	translator := &fakeCompleter{response: "show sales by location for June"}
	g := New(model, translator, nil)

	q := intent.Parse("tampilkan penjualan per lokasi bulan juni", intent.Options{})
	require.Equal(t, "id", q.Locale)

	_, err := g.Generate(context.Background(), q, monthDescriptor(), nil, nil, 1)
	require.NoError(t, err)

	assert.Equal(t, 1, translator.calls)
	assert.Contains(t, translator.users[0], "tampilkan penjualan per lokasi bulan juni")
	assert.Contains(t, model.users[0], "show sales by location for June")
}

func TestGenerateTranslationFailureFallsBack(t *testing.T) {
	model := &fakeCompleter{response: `[{"$match": {"month": 6}}]`}
	translator := &fakeCompleter{err: errors.New("translator down")}
	g := New(model, translator, nil)

	q := intent.Parse("tampilkan penjualan bulan juni", intent.Options{})
	_, err := g.Generate(context.Background(), q, monthDescriptor(), nil, nil, 1)
	require.NoError(t, err)

	// The original question reaches the pipeline model untranslated.
	assert.Contains(t, model.users[0], "tampilkan penjualan bulan juni")
}

func TestGenerateSkipsTranslationForEnglish(t *testing.T) {
	model := &fakeCompleter{response: `[{"$match": {"month": 6}}]`}
	translator := &fakeCompleter{response: "should never be used"}
	g := New(model, translator, nil)

	q := intent.Parse("monthly revenue trend", intent.Options{})
	require.Equal(t, "en", q.Locale)

	_, err := g.Generate(context.Background(), q, monthDescriptor(), nil, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, translator.calls)
}
