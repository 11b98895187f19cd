package handlers

import (
	"net/http"

	"bookingpay/utils"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports the latest dependency snapshot. Any unhealthy dependency yields 503.
func HealthHandler(c *gin.Context) {
	status := utils.GetHealthStatus()
	healthy := status.Database
	for _, ok := range status.Redis {
		healthy = healthy && ok
	}
	code := http.StatusOK
	state := "ok"
	if !healthy {
		code = http.StatusServiceUnavailable
		state = "degraded"
	}
	c.JSON(code, gin.H{"status": state, "checks": status})
}
