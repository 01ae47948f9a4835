package handlers_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/gatepass/internal/database"
	"github.com/charlesng35/gatepass/internal/handlers/testutil"
)

func TestHealthReportsDatabaseState(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.True(t, testutil.DecodeResponse(t, w).Success)

	require.NoError(t, database.Close(env.DB))

	w = env.Request(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	resp := testutil.DecodeResponse(t, w)
	require.False(t, resp.Success)
	require.Equal(t, "SERVICE_UNAVAILABLE", resp.Error.Code)
}

func TestMetricsEndpointExposesLatency(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.Request(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, strings.Contains(w.Body.String(), `gatepass_api_latency_seconds_count{method="GET",path="/health",status="200",surface="health"}`))
}

func TestUnknownRouteReturnsEnvelope(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodGet, "/nope", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "NOT_FOUND", testutil.DecodeResponse(t, w).Error.Code)
}

func TestLiveAlwaysReportsUp(t *testing.T) {
	env := testutil.NewEnv(t)
	require.NoError(t, database.Close(env.DB))

	w := env.Request(http.MethodGet, "/api/health/live", nil)
	require.Equal(t, http.StatusOK, w.Code)
}
