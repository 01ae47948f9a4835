package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/gatepass/internal/services"
	apperrors "github.com/charlesng35/gatepass/pkg/errors"
	"github.com/charlesng35/gatepass/pkg/response"
)

// ValidationHandler exposes the checkpoint scan endpoints.
type ValidationHandler struct {
	svc *services.ValidationService
}

// NewValidationHandler constructs a ValidationHandler.
func NewValidationHandler(svc *services.ValidationService) *ValidationHandler {
	return &ValidationHandler{svc: svc}
}

type validateRequest struct {
	Token   string `json:"token" validate:"required,max=2048"`
	Scanner string `json:"scanner" validate:"max=512"`
}

// Scan handles GET /validate/:token, the URL embedded in every QR code. Third-party
// scanner apps open it directly, so the client is described by its User-Agent.
func (h *ValidationHandler) Scan(c *gin.Context) {
	h.validate(c, c.Param("token"), c.Request.UserAgent())
}

// Submit handles POST /api/validate from the scanner UI.
func (h *ValidationHandler) Submit(c *gin.Context) {
	var req validateRequest
	if !bindAndValidate(c, &req) {
		return
	}

	descriptor := strings.TrimSpace(req.Scanner)
	if descriptor == "" {
		descriptor = c.Request.UserAgent()
	}
	h.validate(c, req.Token, descriptor)
}

func (h *ValidationHandler) validate(c *gin.Context, token, descriptor string) {
	outcome, err := h.svc.Validate(c.Request.Context(), token, descriptor)
	if err != nil {
		response.Error(c, err)
		return
	}

	switch outcome.Status {
	case services.StatusAccepted:
		response.Success(c, http.StatusOK, outcome)
	case services.StatusAlreadyUsed:
		response.Failure(c, apperrors.ErrCredentialUsed, outcome)
	default:
		response.Failure(c, apperrors.ErrCredentialInvalid, outcome)
	}
}
