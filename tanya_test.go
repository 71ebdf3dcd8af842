package tanya

import (
	"context"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datawarta/tanya/catalog"
	"github.com/datawarta/tanya/config"
	"github.com/datawarta/tanya/engine"
	"github.com/datawarta/tanya/errors"
	"github.com/datawarta/tanya/pipeline"
	"github.com/datawarta/tanya/store"
)

type memoryStore struct{}

func (memoryStore) ListCollections(ctx context.Context) ([]string, error) {
	return []string{"sales_by_month"}, nil
}

func (memoryStore) RunPipeline(ctx context.Context, collection string, stages pipeline.Pipeline) ([]store.Document, error) {
	return []store.Document{{"month": float64(6), "total_sales": float64(1000)}}, nil
}

func (memoryStore) Ping(ctx context.Context) error { return nil }

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	v := viper.New()
	config.SetDefaults(v)

	var cfg config.Config
	require.NoError(t, v.Unmarshal(&cfg))
	return &cfg
}

func TestServiceHealth(t *testing.T) {
	svc := NewServiceWithStore(testConfig(t), memoryStore{}, catalog.Default())

	h := svc.Health(context.Background())
	assert.True(t, h.Ready())
}

func TestAskWithoutAPIKey(t *testing.T) {
	// No API key configured: every generation attempt fails as model
	// unavailable and the request surfaces the full diagnostic trail.
	svc := NewServiceWithStore(testConfig(t), memoryStore{}, catalog.Default())

	_, err := svc.Ask(context.Background(), Question{Text: "monthly revenue trend for 2025"})
	require.Error(t, err)

	var reqErr *engine.RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, 3, reqErr.Attempts)
	for _, d := range reqErr.Diagnostics {
		assert.Equal(t, engine.ModelUnavailable, d.Kind)
	}
}

func TestAskRoutingMiss(t *testing.T) {
	svc := NewServiceWithStore(testConfig(t), memoryStore{}, catalog.Default())

	_, err := svc.Ask(context.Background(), Question{Text: "how is the weather today"})
	require.Error(t, err)

	var reqErr *engine.RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.True(t, reqErr.IsRoutingMiss())
	assert.Equal(t, 0, reqErr.Attempts)
}

func TestCloseWithoutOwnedStore(t *testing.T) {
	svc := NewServiceWithStore(testConfig(t), memoryStore{}, catalog.Default())
	assert.NoError(t, svc.Close(context.Background()))
}
