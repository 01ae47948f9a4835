package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/gatepass/internal/services"
	"github.com/charlesng35/gatepass/pkg/response"
)

// ResetHandler clears all event data.
type ResetHandler struct {
	svc *services.ResetService
}

// NewResetHandler constructs a ResetHandler.
func NewResetHandler(svc *services.ResetService) *ResetHandler {
	return &ResetHandler{svc: svc}
}

type resetRequest struct {
	Confirmation string `json:"confirmation" validate:"required"`
}

// Reset handles POST /api/admin/reset.
func (h *ResetHandler) Reset(c *gin.Context) {
	var req resetRequest
	if !bindAndValidate(c, &req) {
		return
	}

	report, err := h.svc.Reset(c.Request.Context(), req.Confirmation)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, report)
}
