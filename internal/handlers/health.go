package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/gatepass/internal/monitoring"
	apperrors "github.com/charlesng35/gatepass/pkg/errors"
	"github.com/charlesng35/gatepass/pkg/response"
)

// Health reports readiness. Every registered dependency probe must pass.
func Health(manager *monitoring.HealthManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		report := manager.Evaluate(c.Request.Context())
		if !report.Success {
			response.Failure(c, apperrors.ErrServiceUnavailable, report)
			return
		}
		response.Success(c, http.StatusOK, report)
	}
}

// Live reports that the process is serving requests.
func Live(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{
		"status":     monitoring.StatusUp,
		"checked_at": time.Now().UTC(),
	})
}
