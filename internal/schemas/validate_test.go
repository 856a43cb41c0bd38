package schemas

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `{
	"type": "object",
	"required": ["headline", "score"],
	"properties": {
		"headline": {"type": "string", "minLength": 1},
		"score": {"type": "integer", "minimum": 0, "maximum": 100}
	},
	"additionalProperties": false
}`

func TestValidateJSONString_Valid(t *testing.T) {
	err := ValidateJSONString(testSchema, `{"headline": "Strong match", "score": 82}`)
	assert.NoError(t, err)
}

func TestValidateJSONString_MissingRequired(t *testing.T) {
	err := ValidateJSONString(testSchema, `{"headline": "Strong match"}`)
	require.Error(t, err)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.NotEmpty(t, ve.Errors)
}

func TestValidateJSONString_WrongType(t *testing.T) {
	err := ValidateJSONString(testSchema, `{"headline": "Strong match", "score": "high"}`)
	require.Error(t, err)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "score", ve.Errors[0].Field)
}

func TestValidateJSONString_AdditionalProperty(t *testing.T) {
	err := ValidateJSONString(testSchema, `{"headline": "x", "score": 1, "extra": true}`)
	assert.Error(t, err)
}

func TestValidateJSONString_InvalidDocument(t *testing.T) {
	err := ValidateJSONString(testSchema, `{not json`)
	assert.Error(t, err)
}

func TestValidationError_Message(t *testing.T) {
	ve := &ValidationError{Errors: []FieldError{{Field: "score", Message: "is required"}}}
	assert.Contains(t, ve.Error(), "score")
	assert.Contains(t, ve.Error(), "is required")
}
