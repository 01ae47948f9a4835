package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/gatepass/internal/models"
)

func TestReportSummarizeEmptyStore(t *testing.T) {
	stack := newServiceStack(t)

	summary, err := stack.reports.Summarize(context.Background())
	require.NoError(t, err)
	require.Zero(t, summary.Total)
	require.Zero(t, summary.ValidatedCount)
	require.Zero(t, summary.PendingCount)
	require.Zero(t, summary.Percentage)
	require.Empty(t, summary.Registrants)
	require.NotNil(t, summary.Recent)
}

func TestReportSummarizeScenario(t *testing.T) {
	stack := newServiceStack(t)
	ctx := context.Background()

	var registrants []*models.Registrant
	for i := 1; i <= 10; i++ {
		registrants = append(registrants, createRegistrant(t, stack.db, fmt.Sprintf("PRN%03d", i), fmt.Sprintf("Name %02d", 11-i)))
	}

	for _, registrant := range registrants[:7] {
		_, _, err := stack.credentials.Issue(ctx, registrant)
		require.NoError(t, err)
	}
	for _, registrant := range registrants[:3] {
		outcome, err := stack.validation.Validate(ctx, credentialFor(t, stack.db, registrant.ID).Token, "scanner-A")
		require.NoError(t, err)
		require.Equal(t, StatusAccepted, outcome.Status)
	}

	summary, err := stack.reports.Summarize(ctx)
	require.NoError(t, err)
	require.Equal(t, 10, summary.Total)
	require.Equal(t, 7, summary.IssuedCount)
	require.Equal(t, 3, summary.ValidatedCount)
	require.Equal(t, 7, summary.PendingCount)
	require.Equal(t, 30.0, summary.Percentage)
	require.Equal(t, summary.Total, summary.PendingCount+summary.ValidatedCount)

	require.Len(t, summary.Registrants, 10)
	require.Equal(t, "Name 01", summary.Registrants[0].Name)
	require.Equal(t, "PRN010", summary.Registrants[0].ExternalID)
	require.Equal(t, AttendancePending, summary.Registrants[0].Status)
	require.False(t, summary.Registrants[0].Issued)

	last := summary.Registrants[9]
	require.Equal(t, "PRN001", last.ExternalID)
	require.Equal(t, AttendanceValidated, last.Status)
	require.True(t, last.Issued)
	require.NotNil(t, last.ValidatedAt)
	require.Equal(t, "scanner-A", last.ClientDescriptor)

	require.Len(t, summary.Recent, 3)
	require.Equal(t, "PRN003", summary.Recent[0].ExternalID)
	require.Equal(t, "PRN001", summary.Recent[2].ExternalID)
}

func TestReportRecentIsCappedNewestFirst(t *testing.T) {
	stack := newServiceStack(t)
	ctx := context.Background()

	base := time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)
	for i := 0; i < recentValidationLimit+2; i++ {
		registrant := createRegistrant(t, stack.db, fmt.Sprintf("PRN%03d", i), fmt.Sprintf("Name %03d", i))
		require.NoError(t, stack.db.Create(&models.ValidationRecord{
			RegistrantID: registrant.ID,
			ValidatedAt:  base.Add(time.Duration(i) * time.Minute),
		}).Error)
	}

	summary, err := stack.reports.Summarize(ctx)
	require.NoError(t, err)
	require.Len(t, summary.Recent, recentValidationLimit)
	require.Equal(t, "PRN011", summary.Recent[0].ExternalID)
	require.Equal(t, "PRN002", summary.Recent[recentValidationLimit-1].ExternalID)
	require.Equal(t, 100.0, summary.Percentage)
}

func TestAttendancePercentage(t *testing.T) {
	cases := []struct {
		validated, total int
		want             float64
	}{
		{0, 0, 0},
		{3, 10, 30},
		{1, 3, 33.33},
		{2, 3, 66.67},
		{5, 5, 100},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, attendancePercentage(tc.validated, tc.total), "%d/%d", tc.validated, tc.total)
	}
}
