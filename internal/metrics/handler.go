package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var promHandler = promhttp.Handler()

// Handler serves the default registry in the Prometheus text format.
func Handler(c *gin.Context) {
	promHandler.ServeHTTP(c.Writer, c.Request)
}
