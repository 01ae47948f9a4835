package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/gatepass/internal/credentials"
	"github.com/charlesng35/gatepass/internal/services"
	"github.com/charlesng35/gatepass/pkg/response"
)

// CredentialHandler exposes credential issuance to operators.
type CredentialHandler struct {
	svc *services.CredentialService
}

// NewCredentialHandler constructs a CredentialHandler.
func NewCredentialHandler(svc *services.CredentialService) *CredentialHandler {
	return &CredentialHandler{svc: svc}
}

// IssueAll handles POST /api/credentials/issue. Per-registrant failures are
// reported in the body; only a failure to start the run is an error response.
func (h *CredentialHandler) IssueAll(c *gin.Context) {
	report, err := h.svc.IssueAll(c.Request.Context())
	if err != nil && len(report.Failures) == 0 {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, report)
}

// Reissue handles POST /api/registrants/:externalID/credential/reissue.
func (h *CredentialHandler) Reissue(c *gin.Context) {
	cred, err := h.svc.Reissue(c.Request.Context(), c.Param("externalID"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, credentialDTO{
		Token:         cred.Token,
		ValidationURL: cred.ValidationURL,
		ImageKey:      cred.ImageKey,
		IssuedAt:      cred.IssuedAt,
	})
}

// Image handles GET /api/registrants/:externalID/credential/image.
func (h *CredentialHandler) Image(c *gin.Context) {
	data, cred, err := h.svc.Image(c.Request.Context(), c.Param("externalID"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Last-Modified", cred.IssuedAt.UTC().Format(http.TimeFormat))
	c.Data(http.StatusOK, credentials.ContentTypePNG, data)
}
