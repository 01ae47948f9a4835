package services

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/charlesng35/gatepass/pkg/errors"
)

func TestRegistrantImportSkipsDuplicates(t *testing.T) {
	stack := newServiceStack(t)
	ctx := context.Background()
	createRegistrant(t, stack.db, "PRN001", "Asha")

	report, err := stack.registrants.Import(ctx, []RegistrantInput{
		{ExternalID: "PRN001", Name: "Asha again"},
		{ExternalID: " PRN002 ", Name: " Bilal ", Email: "Bilal@Example.com", Attributes: map[string]any{"branch": "CSE"}},
		{ExternalID: "PRN003", Name: "Chen"},
		{ExternalID: "PRN002", Name: "Bilal duplicate"},
	})
	require.NoError(t, err)
	require.Equal(t, ImportReport{
		Received:     4,
		Inserted:     2,
		Duplicates:   2,
		DuplicateIDs: []string{"PRN001", "PRN002"},
	}, report)

	registrant, err := stack.registrants.GetByExternalID(ctx, "PRN002")
	require.NoError(t, err)
	require.Equal(t, "Bilal", registrant.Name)
	require.Equal(t, "bilal@example.com", registrant.Email)
	require.Equal(t, "CSE", registrant.Attributes["branch"])
	require.Nil(t, registrant.Credential)

	existing, err := stack.registrants.GetByExternalID(ctx, "PRN001")
	require.NoError(t, err)
	require.Equal(t, "Asha", existing.Name)
}

func TestRegistrantImportValidatesRows(t *testing.T) {
	stack := newServiceStack(t)
	ctx := context.Background()

	cases := map[string][]RegistrantInput{
		"empty batch":  nil,
		"missing name": {{ExternalID: "PRN001"}},
		"bad id":       {{ExternalID: "../etc", Name: "X"}},
		"bad email":    {{ExternalID: "PRN001", Name: "X", Email: "not-an-email"}},
	}
	for name, inputs := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := stack.registrants.Import(ctx, inputs)
			require.Error(t, err)
			require.Equal(t, http.StatusBadRequest, apperrors.FromError(err).StatusCode)
		})
	}

	var count int64
	require.NoError(t, stack.db.Table("registrants").Count(&count).Error)
	require.Zero(t, count)
}

func TestRegistrantListPaginates(t *testing.T) {
	stack := newServiceStack(t)
	ctx := context.Background()

	inputs := make([]RegistrantInput, 0, 7)
	for i := 7; i >= 1; i-- {
		inputs = append(inputs, RegistrantInput{ExternalID: fmt.Sprintf("PRN%03d", i), Name: fmt.Sprintf("Person %d", i)})
	}
	_, err := stack.registrants.Import(ctx, inputs)
	require.NoError(t, err)

	page, total, err := stack.registrants.List(ctx, ListRegistrantsOptions{Page: 2, PageSize: 3})
	require.NoError(t, err)
	require.EqualValues(t, 7, total)
	require.Len(t, page, 3)
	require.Equal(t, "PRN004", page[0].ExternalID)

	filtered, total, err := stack.registrants.List(ctx, ListRegistrantsOptions{Query: "person 5"})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, filtered, 1)
	require.Equal(t, "PRN005", filtered[0].ExternalID)
}

func TestRegistrantGetByExternalIDNotFound(t *testing.T) {
	stack := newServiceStack(t)

	_, err := stack.registrants.GetByExternalID(context.Background(), "PRN404")
	require.ErrorIs(t, err, ErrRegistrantNotFound)

	_, err = stack.registrants.GetByExternalID(context.Background(), " ")
	require.Equal(t, http.StatusBadRequest, apperrors.FromError(err).StatusCode)
}
