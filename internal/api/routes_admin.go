package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/gatepass/internal/handlers"
	"github.com/charlesng35/gatepass/internal/services"
)

func registerAdminRoutes(api *gin.RouterGroup, svc *services.ResetService) {
	handler := handlers.NewResetHandler(svc)
	api.POST("/admin/reset", handler.Reset)
}
