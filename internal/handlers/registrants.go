package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/gatepass/internal/models"
	"github.com/charlesng35/gatepass/internal/services"
	"github.com/charlesng35/gatepass/pkg/response"
)

// RegistrantHandler exposes the registrant directory.
type RegistrantHandler struct {
	svc *services.RegistrantService
}

// NewRegistrantHandler constructs a RegistrantHandler.
func NewRegistrantHandler(svc *services.RegistrantService) *RegistrantHandler {
	return &RegistrantHandler{svc: svc}
}

const (
	defaultPerPage = 50
	maxPerPage     = 500
)

type importRegistrantsRequest struct {
	Registrants []services.RegistrantInput `json:"registrants" validate:"required,min=1"`
}

type credentialDTO struct {
	Token         string    `json:"token"`
	ValidationURL string    `json:"validation_url"`
	ImageKey      string    `json:"image_key"`
	IssuedAt      time.Time `json:"issued_at"`
}

type validationDTO struct {
	ValidatedAt      time.Time `json:"validated_at"`
	ClientDescriptor string    `json:"client_descriptor,omitempty"`
}

type registrantDTO struct {
	ExternalID string                 `json:"external_id"`
	Name       string                 `json:"name"`
	Email      string                 `json:"email,omitempty"`
	Attributes map[string]any         `json:"attributes,omitempty"`
	State      models.RegistrantState `json:"state"`
	Credential *credentialDTO         `json:"credential,omitempty"`
	Validation *validationDTO         `json:"validation,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

func mapRegistrant(r *models.Registrant) registrantDTO {
	dto := registrantDTO{
		ExternalID: r.ExternalID,
		Name:       r.Name,
		Email:      r.Email,
		Attributes: r.Attributes,
		State:      r.State(),
		CreatedAt:  r.CreatedAt,
	}
	if r.Credential != nil {
		dto.Credential = &credentialDTO{
			Token:         r.Credential.Token,
			ValidationURL: r.Credential.ValidationURL,
			ImageKey:      r.Credential.ImageKey,
			IssuedAt:      r.Credential.IssuedAt,
		}
	}
	if r.Validation != nil {
		dto.Validation = &validationDTO{
			ValidatedAt:      r.Validation.ValidatedAt,
			ClientDescriptor: r.Validation.ClientDescriptor,
		}
	}
	return dto
}

// Import handles POST /api/registrants.
func (h *RegistrantHandler) Import(c *gin.Context) {
	var req importRegistrantsRequest
	if !bindAndValidate(c, &req) {
		return
	}

	report, err := h.svc.Import(c.Request.Context(), req.Registrants)
	if err != nil {
		response.Error(c, err)
		return
	}

	status := http.StatusOK
	if report.Inserted > 0 {
		status = http.StatusCreated
	}
	response.Success(c, status, report)
}

// List handles GET /api/registrants.
func (h *RegistrantHandler) List(c *gin.Context) {
	page := parseIntQuery(c, "page", 1)
	if page < 1 {
		page = 1
	}
	perPage := parseIntQuery(c, "per_page", defaultPerPage)
	if perPage <= 0 || perPage > maxPerPage {
		perPage = defaultPerPage
	}

	registrants, total, err := h.svc.List(c.Request.Context(), services.ListRegistrantsOptions{
		Page:     page,
		PageSize: perPage,
		Query:    c.Query("q"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]registrantDTO, 0, len(registrants))
	for i := range registrants {
		out = append(out, mapRegistrant(&registrants[i]))
	}

	response.SuccessWithMeta(c, http.StatusOK, out, response.NewMeta(page, perPage, total))
}

// Get handles GET /api/registrants/:externalID.
func (h *RegistrantHandler) Get(c *gin.Context) {
	registrant, err := h.svc.GetByExternalID(c.Request.Context(), c.Param("externalID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, mapRegistrant(registrant))
}
