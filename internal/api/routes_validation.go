package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/gatepass/internal/handlers"
	"github.com/charlesng35/gatepass/internal/middleware"
	"github.com/charlesng35/gatepass/internal/services"
)

// Scanning is public: possession of the token is the credential.
func registerValidationRoutes(r *gin.Engine, svc *services.ValidationService, limiter *middleware.RateLimiter) {
	handler := handlers.NewValidationHandler(svc)
	throttle := limiter.Handler()

	r.GET("/validate/:token", throttle, handler.Scan)
	r.POST("/api/validate", throttle, handler.Submit)
}
