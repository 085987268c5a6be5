package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lablabs/countries-explorer/internal/client"
)

// HealthCheck reports liveness along with the client's transport counters.
func HealthCheck(cl *client.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "healthy",
			"http_calls": cl.Calls(),
		})
	}
}
