package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
)

type registrantPayload struct {
	ExternalID string `json:"external_id" validate:"required,external_id"`
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"omitempty,email"`
}

type batchPayload struct {
	Registrants []registrantPayload `json:"registrants" validate:"required,min=1,dive"`
}

func TestValidateStructSuccess(t *testing.T) {
	payload := registrantPayload{ExternalID: "PRN001", Name: "Asha", Email: "asha@example.com"}
	require.NoError(t, ValidateStruct(payload))
}

func TestValidateStructFailures(t *testing.T) {
	err := ValidateStruct(registrantPayload{ExternalID: "bad id!", Email: "invalid"})
	require.Error(t, err)

	vErrs, ok := err.(ValidationErrors)
	require.True(t, ok, "expected ValidationErrors, got %T", err)
	require.Len(t, vErrs, 3)

	fields := map[string]string{}
	for _, v := range vErrs {
		fields[v.Field] = v.Tag
	}
	require.Equal(t, "external_id", fields["external_id"])
	require.Equal(t, "required", fields["name"])
	require.Equal(t, "email", fields["email"])
}

func TestValidateStructDivesIntoSlices(t *testing.T) {
	err := ValidateStruct(batchPayload{Registrants: []registrantPayload{{ExternalID: "PRN001"}}})
	require.Error(t, err)

	require.Error(t, ValidateStruct(batchPayload{}))
}

func TestIsExternalID(t *testing.T) {
	require.True(t, IsExternalID("PRN001"))
	require.True(t, IsExternalID("2026.CS-014"))
	require.False(t, IsExternalID("2026/CS/01"))
	require.False(t, IsExternalID(""))
	require.False(t, IsExternalID("-leading"))
	require.False(t, IsExternalID("has space"))
}

func TestRegisterValidation(t *testing.T) {
	require.NoError(t, RegisterValidation("gatepass", func(fl validator.FieldLevel) bool {
		return fl.Field().String() == "gatepass"
	}))

	type custom struct {
		Value string `validate:"gatepass"`
	}

	require.NoError(t, ValidateStruct(custom{Value: "gatepass"}))
	require.Error(t, ValidateStruct(custom{Value: "other"}))
}
