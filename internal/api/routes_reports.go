package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/gatepass/internal/handlers"
	"github.com/charlesng35/gatepass/internal/services"
)

func registerReportRoutes(api *gin.RouterGroup, svc *services.ReportService) {
	handler := handlers.NewReportHandler(svc)
	api.GET("/reports/summary", handler.Summary)
}
