package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/charlesng35/gatepass/internal/app"
	"github.com/charlesng35/gatepass/internal/middleware"
	"github.com/charlesng35/gatepass/internal/realtime"
	"github.com/charlesng35/gatepass/internal/services"
	"github.com/charlesng35/gatepass/internal/storage"
)

// Dependencies bundles the services the HTTP surface is built from.
type Dependencies struct {
	DB          *gorm.DB
	Config      *app.Config
	Registrants *services.RegistrantService
	Credentials *services.CredentialService
	Validation  *services.ValidationService
	Reports     *services.ReportService
	Reset       *services.ResetService
	Images      storage.ImageStore
	Hub         *realtime.Hub
}

func (d Dependencies) validate() error {
	switch {
	case d.DB == nil:
		return fmt.Errorf("database handle must be provided")
	case d.Config == nil:
		return fmt.Errorf("config must be provided")
	case d.Registrants == nil, d.Credentials == nil, d.Validation == nil, d.Reports == nil, d.Reset == nil:
		return fmt.Errorf("all services must be provided")
	}
	return nil
}

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}

	keyHash, err := deps.Config.Admin.KeyHash()
	if err != nil {
		return nil, fmt.Errorf("admin key: %w", err)
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())

	registerHealthRoutes(r, deps.DB, deps.Images)

	limiter := middleware.NewRateLimiter(deps.Config.Server.RateLimit.RequestsPerMinute)
	registerValidationRoutes(r, deps.Validation, limiter)

	api := r.Group("/api")
	admin := api.Group("")
	admin.Use(middleware.RequireAdminKey(keyHash))

	registerRegistrantRoutes(admin, deps.Registrants, deps.Credentials)
	registerReportRoutes(admin, deps.Reports)
	registerAdminRoutes(admin, deps.Reset)

	if deps.Config.Realtime.Enabled && deps.Hub != nil {
		registerRealtimeRoutes(api, deps.Hub, middleware.RequireAdminKey(keyHash, middleware.AllowQueryKey()))
	}

	if prom := deps.Config.Monitoring.Prometheus; prom.Enabled {
		endpoint := prom.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
