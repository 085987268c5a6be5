// Package config turns the viper-bound settings into typed options.
package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/lablabs/countries-explorer/internal/client"
	"github.com/lablabs/countries-explorer/internal/limiter"
)

// Setting keys, shared by flags and environment variables.
const (
	Listen             = "listen"
	MetricsPath        = "metrics_path"
	GraphQLEndpoint    = "graphql_endpoint"
	MaxInflight        = "max_inflight"
	RateLimitRPS       = "rate_limit_rps"
	RateLimitBurst     = "rate_limit_burst"
	RequestTimeout     = "request_timeout"
	QueryDeduplication = "query_deduplication"
	LogLevel           = "log_level"
	LogFormat          = "log_format"
	MetricsDenylist    = "metrics_denylist"
)

// SetDefaults registers the default of every setting.
func SetDefaults() {
	viper.SetDefault(Listen, ":8080")
	viper.SetDefault(MetricsPath, "/metrics")
	viper.SetDefault(GraphQLEndpoint, client.DefaultEndpoint)
	viper.SetDefault(MaxInflight, 4)
	viper.SetDefault(RateLimitRPS, float64(limiter.DefaultRPS))
	viper.SetDefault(RateLimitBurst, limiter.DefaultBurst)
	viper.SetDefault(RequestTimeout, "0s")
	viper.SetDefault(QueryDeduplication, true)
	viper.SetDefault(LogLevel, "info")
	viper.SetDefault(LogFormat, "text")
	viper.SetDefault(MetricsDenylist, "")
}

// ClientOptions builds client options from the current settings.
func ClientOptions() client.Options {
	return client.Options{
		Endpoint:             viper.GetString(GraphQLEndpoint),
		RateLimit:            viper.GetFloat64(RateLimitRPS),
		RateBurst:            viper.GetInt(RateLimitBurst),
		RequestTimeout:       viper.GetDuration(RequestTimeout),
		MaxInflight:          viper.GetInt(MaxInflight),
		DisableDeduplication: !viper.GetBool(QueryDeduplication),
	}
}

// MetricsDenylistNames splits the comma delimited denylist.
func MetricsDenylistNames() []string {
	names := []string{}
	for _, name := range strings.Split(viper.GetString(MetricsDenylist), ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}
