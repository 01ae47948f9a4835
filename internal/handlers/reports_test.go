package handlers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/gatepass/internal/handlers/testutil"
	"github.com/charlesng35/gatepass/internal/services"
)

func TestReportSummary(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.AdminRequest(http.MethodGet, "/api/reports/summary", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var empty services.Summary
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &empty)
	require.Zero(t, empty.Total)
	require.Zero(t, empty.Percentage)

	for i := 1; i <= 4; i++ {
		cred := env.IssueCredential(env.CreateRegistrant(fmt.Sprintf("PRN%03d", i), fmt.Sprintf("Registrant %d", i)))
		if i == 1 {
			w = env.Request(http.MethodPost, "/api/validate", map[string]string{"token": cred.Token, "scanner": "gate-1"})
			require.Equal(t, http.StatusOK, w.Code)
		}
	}

	w = env.AdminRequest(http.MethodGet, "/api/reports/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var summary services.Summary
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &summary)
	require.Equal(t, 4, summary.Total)
	require.Equal(t, 4, summary.IssuedCount)
	require.Equal(t, 1, summary.ValidatedCount)
	require.Equal(t, 3, summary.PendingCount)
	require.InDelta(t, 25.0, summary.Percentage, 0.001)
	require.Len(t, summary.Recent, 1)
	require.Equal(t, "PRN001", summary.Recent[0].ExternalID)
	require.Equal(t, "gate-1", summary.Recent[0].ClientDescriptor)
	require.Len(t, summary.Registrants, 4)
	require.Equal(t, services.AttendanceValidated, summary.Registrants[0].Status)
	require.Equal(t, services.AttendancePending, summary.Registrants[1].Status)
}

func TestReportSummaryRequiresAdminKey(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodGet, "/api/reports/summary", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
