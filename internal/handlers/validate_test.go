package handlers_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/gatepass/internal/handlers/testutil"
	"github.com/charlesng35/gatepass/internal/services"
)

type outcomePayload struct {
	Status     services.ValidationStatus `json:"status"`
	Registrant *struct {
		ExternalID string `json:"external_id"`
		Name       string `json:"name"`
	} `json:"registrant"`
	ValidatedAt      string `json:"validated_at"`
	ClientDescriptor string `json:"client_descriptor"`
}

func TestValidateSubmitAcceptsThenRejectsReuse(t *testing.T) {
	env := testutil.NewEnv(t)
	cred := env.IssueCredential(env.CreateRegistrant("PRN001", "Asha"))

	w := env.Request(http.MethodPost, "/api/validate", map[string]string{"token": cred.Token, "scanner": "gate-1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := testutil.DecodeResponse(t, w)
	require.True(t, resp.Success)

	var accepted outcomePayload
	testutil.DecodeInto(t, resp.Data, &accepted)
	require.Equal(t, services.StatusAccepted, accepted.Status)
	require.Equal(t, "PRN001", accepted.Registrant.ExternalID)
	require.NotEmpty(t, accepted.ValidatedAt)

	w = env.Request(http.MethodPost, "/api/validate", map[string]string{"token": cred.Token, "scanner": "gate-2"})
	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	resp = testutil.DecodeResponse(t, w)
	require.False(t, resp.Success)
	require.Equal(t, "CREDENTIAL_ALREADY_USED", resp.Error.Code)

	var reused outcomePayload
	testutil.DecodeInto(t, resp.Data, &reused)
	require.Equal(t, services.StatusAlreadyUsed, reused.Status)
	require.Equal(t, "Asha", reused.Registrant.Name)
	firstSeen, err := time.Parse(time.RFC3339Nano, accepted.ValidatedAt)
	require.NoError(t, err)
	reportedAt, err := time.Parse(time.RFC3339Nano, reused.ValidatedAt)
	require.NoError(t, err)
	require.True(t, firstSeen.Equal(reportedAt))
	require.Equal(t, "gate-1", reused.ClientDescriptor)
}

func TestValidateSubmitUnknownToken(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodPost, "/api/validate", map[string]string{"token": "definitely-not-issued"})
	require.Equal(t, http.StatusNotFound, w.Code, w.Body.String())

	resp := testutil.DecodeResponse(t, w)
	require.Equal(t, "CREDENTIAL_INVALID", resp.Error.Code)

	var outcome outcomePayload
	testutil.DecodeInto(t, resp.Data, &outcome)
	require.Equal(t, services.StatusInvalid, outcome.Status)
	require.Nil(t, outcome.Registrant)
}

func TestValidateSubmitRequiresToken(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodPost, "/api/validate", map[string]string{"scanner": "gate-1"})
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	resp := testutil.DecodeResponse(t, w)
	require.Equal(t, "BAD_REQUEST", resp.Error.Code)
	require.Contains(t, resp.Error.Message, "token is required")
}

func TestValidateScanURLUsesUserAgent(t *testing.T) {
	env := testutil.NewEnv(t)
	cred := env.IssueCredential(env.CreateRegistrant("PRN001", "Asha"))

	w := env.RequestWithHeaders(http.MethodGet, "/validate/"+cred.Token, nil, http.Header{"User-Agent": []string{"QRScanner/2.1"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.Request(http.MethodGet, "/validate/"+cred.Token, nil)
	require.Equal(t, http.StatusConflict, w.Code)

	var reused outcomePayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &reused)
	require.Equal(t, "QRScanner/2.1", reused.ClientDescriptor)
}

func TestValidateIsRateLimited(t *testing.T) {
	env := testutil.NewEnv(t, testutil.WithRateLimit(10))

	w := env.Request(http.MethodPost, "/api/validate", map[string]string{"token": "first"})
	require.Equal(t, http.StatusNotFound, w.Code)

	w = env.Request(http.MethodPost, "/api/validate", map[string]string{"token": "second"})
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.NotEmpty(t, w.Header().Get("Retry-After"))
}
