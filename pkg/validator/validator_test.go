package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type projectPayload struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=500"`
	OwnerEmail  string `json:"owner_email" validate:"required,email"`
	Internal    string `json:"-" validate:"omitempty,oneof=a b"`
}

func TestValidateStructPasses(t *testing.T) {
	require.NoError(t, ValidateStruct(projectPayload{
		Name:       "apollo",
		OwnerEmail: "manager@example.com",
	}))
}

func TestValidateStructReportsJSONFieldNames(t *testing.T) {
	err := ValidateStruct(projectPayload{OwnerEmail: "not-an-email"})
	require.Error(t, err)

	var ve ValidationErrors
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve, 2)

	byField := make(map[string]string, len(ve))
	for _, f := range ve {
		byField[f.Field] = f.Tag
	}
	require.Equal(t, "required", byField["name"])
	require.Equal(t, "email", byField["owner_email"])
}

func TestValidateStructFallsBackToGoNameForHiddenFields(t *testing.T) {
	err := ValidateStruct(projectPayload{
		Name:       "apollo",
		OwnerEmail: "manager@example.com",
		Internal:   "c",
	})

	var ve ValidationErrors
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve, 1)
	require.Equal(t, "Internal", ve[0].Field)
}

func TestValidationErrorsMessageCarriesParams(t *testing.T) {
	err := ValidateStruct(projectPayload{
		Name:       strings.Repeat("x", 121),
		OwnerEmail: "manager@example.com",
	})

	var ve ValidationErrors
	require.ErrorAs(t, err, &ve)
	require.Contains(t, ve.Error(), "name failed on max=120")
}
