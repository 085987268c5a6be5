package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"

	"github.com/lablabs/countries-explorer/internal/client"
)

func TestClientOptions_Defaults(t *testing.T) {
	viper.Reset()
	SetDefaults()

	opts := ClientOptions()
	assert.Equal(t, client.DefaultEndpoint, opts.Endpoint)
	assert.Equal(t, 4, opts.MaxInflight)
	assert.Equal(t, 4.0, opts.RateLimit)
	assert.Equal(t, 2, opts.RateBurst)
	assert.Equal(t, time.Duration(0), opts.RequestTimeout)
	assert.False(t, opts.DisableDeduplication)
}

func TestClientOptions_Overrides(t *testing.T) {
	viper.Reset()
	SetDefaults()
	viper.Set(RequestTimeout, "5s")
	viper.Set(QueryDeduplication, false)
	viper.Set(GraphQLEndpoint, "http://localhost:4000/graphql")

	opts := ClientOptions()
	assert.Equal(t, 5*time.Second, opts.RequestTimeout)
	assert.True(t, opts.DisableDeduplication)
	assert.Equal(t, "http://localhost:4000/graphql", opts.Endpoint)
}

func TestMetricsDenylistNames(t *testing.T) {
	viper.Reset()
	SetDefaults()
	assert.Empty(t, MetricsDenylistNames())

	viper.Set(MetricsDenylist, "countries_cache_entities, countries_http_round_trips_total,")
	assert.Equal(t, []string{"countries_cache_entities", "countries_http_round_trips_total"}, MetricsDenylistNames())
}
