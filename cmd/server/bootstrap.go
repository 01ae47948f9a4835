package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/gatepass/internal/api"
	"github.com/charlesng35/gatepass/internal/app"
	"github.com/charlesng35/gatepass/internal/app/maintenance"
	"github.com/charlesng35/gatepass/internal/credentials"
	"github.com/charlesng35/gatepass/internal/database"
	"github.com/charlesng35/gatepass/internal/realtime"
	"github.com/charlesng35/gatepass/internal/services"
	"github.com/charlesng35/gatepass/internal/storage"
	"github.com/charlesng35/gatepass/pkg/logger"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB        *gorm.DB
	Images    storage.ImageStore
	Hub       *realtime.Hub
	Scheduler *maintenance.Scheduler
	Router    *gin.Engine
}

// bootstrapRuntime initialises the database, image store, services, and the HTTP router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	// enable gin debug mod
	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	stack.Images, err = storage.New(ctx, cfg.Storage.StoreConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise image store: %w", err)
	}

	generator, err := credentials.NewGenerator(cfg.Credentials.GeneratorConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise credential generator: %w", err)
	}

	var validationOpts []services.ValidationOption
	if cfg.Realtime.Enabled {
		stack.Hub = realtime.NewHub()
		validationOpts = append(validationOpts, services.WithValidationListener(realtime.ScanPublisher(stack.Hub)))
	}

	deps := api.Dependencies{DB: stack.DB, Config: cfg, Images: stack.Images, Hub: stack.Hub}

	if deps.Registrants, err = services.NewRegistrantService(stack.DB); err != nil {
		return nil, fmt.Errorf("initialise registrant service: %w", err)
	}
	if deps.Credentials, err = services.NewCredentialService(stack.DB, generator, stack.Images); err != nil {
		return nil, fmt.Errorf("initialise credential service: %w", err)
	}
	if deps.Validation, err = services.NewValidationService(stack.DB, validationOpts...); err != nil {
		return nil, fmt.Errorf("initialise validation service: %w", err)
	}
	if deps.Reports, err = services.NewReportService(stack.DB); err != nil {
		return nil, fmt.Errorf("initialise report service: %w", err)
	}
	if deps.Reset, err = services.NewResetService(stack.DB, stack.Images); err != nil {
		return nil, fmt.Errorf("initialise reset service: %w", err)
	}

	stack.Scheduler = newScheduler(cfg, deps, stack.Hub)
	if err := stack.Scheduler.Start(); err != nil {
		return nil, fmt.Errorf("start maintenance jobs: %w", err)
	}

	stack.Router, err = api.NewRouter(deps)
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

func newScheduler(cfg *app.Config, deps api.Dependencies, hub *realtime.Hub) *maintenance.Scheduler {
	opts := []maintenance.Option{
		maintenance.WithJobTimeout(cfg.Maintenance.JobTimeout),
		maintenance.WithSummary(deps.Reports, cfg.Maintenance.SummarySchedule, func(summary services.Summary) {
			realtime.PublishSummary(hub, summary)
		}),
	}
	if cfg.Credentials.AutoIssue.Enabled {
		opts = append(opts, maintenance.WithAutoIssue(deps.Credentials, cfg.Credentials.AutoIssue.Schedule))
	}
	return maintenance.NewScheduler(opts...)
}

// Shutdown gracefully stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(_ context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Scheduler != nil {
		<-s.Scheduler.Stop().Done()
		s.Scheduler = nil
	}

	if s.DB != nil {
		closeDatabase(s.DB, log)
		s.DB = nil
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.Database.ConnectionConfig()
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", strings.ToLower(strings.TrimSpace(dbCfg.Driver))))

	return db, nil
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if err := database.Close(db); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
