package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/gatepass/internal/services"
	"github.com/charlesng35/gatepass/pkg/response"
)

// ReportHandler serves the attendance dashboard data.
type ReportHandler struct {
	svc *services.ReportService
}

// NewReportHandler constructs a ReportHandler.
func NewReportHandler(svc *services.ReportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

// Summary handles GET /api/reports/summary.
func (h *ReportHandler) Summary(c *gin.Context) {
	summary, err := h.svc.Summarize(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, summary)
}
