package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/charlesng35/gatepass/internal/handlers"
	"github.com/charlesng35/gatepass/internal/monitoring"
	"github.com/charlesng35/gatepass/internal/storage"
)

func registerHealthRoutes(r *gin.Engine, db *gorm.DB, images storage.ImageStore) {
	manager := monitoring.NewHealthManager(0)
	manager.Register("database", monitoring.DatabaseProbe(db))
	if images != nil {
		manager.Register("image_store", monitoring.ImageStoreProbe(images))
	}

	ready := handlers.Health(manager)
	for _, router := range []gin.IRouter{r, r.Group("/api")} {
		router.GET("/health", ready)
		router.GET("/health/ready", ready)
		router.GET("/health/live", handlers.Live)
	}
}
