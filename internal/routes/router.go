package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"

	"github.com/lablabs/countries-explorer/internal/client"
	"github.com/lablabs/countries-explorer/internal/config"
	"github.com/lablabs/countries-explorer/internal/handlers"
	"github.com/lablabs/countries-explorer/internal/logging"
	"github.com/lablabs/countries-explorer/internal/metrics"
	"github.com/lablabs/countries-explorer/internal/middlewares"
	"github.com/lablabs/countries-explorer/internal/views"
)

// RunServer mounts the page on a fresh client and serves it over HTTP
func RunServer(opts client.Options) {
	logging.Info("Starting countries explorer", map[string]interface{}{"endpoint": opts.Endpoint})

	metricsDenylist := config.MetricsDenylistNames()
	deniedMetricsSet, err := metrics.BuildDeniedMetricsSet(metricsDenylist)
	if err != nil {
		logging.Fatal("Error building denied metrics set", map[string]interface{}{"error": err.Error()})
	}
	metrics.MustRegisterMetrics(deniedMetricsSet)
	logging.Info("Metrics registered successfully", map[string]interface{}{"metricsDenylist": metricsDenylist})

	c := client.New(opts)
	defer c.Close()
	page := views.NewPage(c)
	defer page.Close()

	r := NewRouter(page, c, viper.GetString(config.MetricsPath))

	listen := viper.GetString(config.Listen)
	logging.Info("Beginning to serve", map[string]interface{}{"listen": listen})
	if err := r.Run(listen); err != nil {
		logging.Fatal("Error starting server", map[string]interface{}{"error": err.Error()})
	}
}

// NewRouter wires the page, the cache dump, health and metrics endpoints.
func NewRouter(page *views.Page, c *client.Client, metricsPath string) *gin.Engine {
	r := gin.Default()

	r.Use(middlewares.CORS())
	r.Use(handlers.ErrorHandler())

	h := handlers.NewViewHandler(page, c)
	r.GET("/", h.Page)
	r.GET("/views/:name", h.View)

	r.POST("/views/detail/code", h.SetDetailCode)
	r.POST("/views/errors/code", h.SetErrorsCode)
	r.POST("/views/errors/retry", h.RetryErrors)
	r.POST("/views/cache/refetch", h.RefetchCache)
	r.POST("/views/cache/policy/:policy", h.SetCachePolicy)

	r.GET("/cache", h.CacheSnapshot)
	r.DELETE("/cache", h.ResetCache)
	r.DELETE("/cache/:id", h.EvictCacheEntity)
	r.GET("/health", handlers.HealthCheck(c))
	r.GET(metricsPath, metrics.Handler)

	logging.Debug("Routes registered", map[string]interface{}{"metricsPath": metricsPath})
	return r
}
