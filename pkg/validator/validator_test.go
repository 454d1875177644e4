package validator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type samplePayload struct {
	DocumentID string `json:"document_id" validate:"required,uuid"`
	Action     string `json:"action" validate:"required,oneof=accept reject"`
}

func TestValidateStructPasses(t *testing.T) {
	err := ValidateStruct(&samplePayload{
		DocumentID: "7f3b2a1c-9d4e-4f5a-8b6c-1d2e3f4a5b6c",
		Action:     "accept",
	})
	require.NoError(t, err)
}

func TestValidateStructReportsJSONFieldNames(t *testing.T) {
	err := ValidateStruct(&samplePayload{Action: "approve"})
	require.Error(t, err)

	ve, ok := err.(ValidationErrors)
	require.True(t, ok)
	require.Len(t, ve, 2)

	byField := map[string]ValidationError{}
	for _, failure := range ve {
		byField[failure.Field] = failure
	}

	require.Equal(t, "required", byField["document_id"].Tag)
	require.Equal(t, "oneof", byField["action"].Tag)
	require.Equal(t, "accept reject", byField["action"].Param)
}

func TestValidationErrorsMessage(t *testing.T) {
	ve := ValidationErrors{
		{Field: "document_id", Tag: "required"},
		{Field: "action", Tag: "oneof", Param: "accept reject"},
	}
	require.Equal(t, "document_id failed on required; action failed on oneof=accept reject", ve.Error())

	require.Equal(t, "validation failed", ValidationErrors{}.Error())
}
