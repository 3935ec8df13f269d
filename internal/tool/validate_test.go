package tool_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arcflow/substrate/internal/tool"
	"github.com/arcflow/substrate/internal/valueobjects"
)

func sampleTool() tool.Tool {
	return tool.Tool{
		Name: "weather_lookup",
		Parameters: []tool.Parameter{
			{Name: "city", Type: valueobjects.ParamString, Required: true},
			{Name: "units", Type: valueobjects.ParamString, Required: false, Default: "celsius", Enum: []any{"celsius", "fahrenheit"}},
		},
	}
}

func TestValidateParams_MissingRequired(t *testing.T) {
	_, errs := tool.ValidateParams(sampleTool(), map[string]any{})
	assert.Contains(t, errs, tool.ParamValidationError{Param: "city", Kind: tool.KindMissingRequired})
}

func TestValidateParams_DefaultsFilled(t *testing.T) {
	filled, errs := tool.ValidateParams(sampleTool(), map[string]any{"city": "nyc"})
	assert.Empty(t, errs)
	assert.Equal(t, "celsius", filled["units"])
}

func TestValidateParams_DefaultFillIsIdempotent(t *testing.T) {
	filled, _ := tool.ValidateParams(sampleTool(), map[string]any{"city": "nyc"})
	_, errs := tool.ValidateParams(sampleTool(), filled)
	assert.Empty(t, errs)
}

func TestValidateParams_TypeMismatch(t *testing.T) {
	_, errs := tool.ValidateParams(sampleTool(), map[string]any{"city": 5})
	assert.Contains(t, errs, tool.ParamValidationError{Param: "city", Kind: tool.KindTypeMismatch})
}

func TestValidateParams_InvalidEnum(t *testing.T) {
	_, errs := tool.ValidateParams(sampleTool(), map[string]any{"city": "nyc", "units": "kelvin"})
	assert.Contains(t, errs, tool.ParamValidationError{Param: "units", Kind: tool.KindInvalidEnumValue})
}

func TestValidateParams_UnknownParameter(t *testing.T) {
	_, errs := tool.ValidateParams(sampleTool(), map[string]any{"city": "nyc", "bogus": 1})
	assert.Contains(t, errs, tool.ParamValidationError{Param: "bogus", Kind: tool.KindUnknownParameter})
}

func TestValidateParams_LenientAllowsUnknown(t *testing.T) {
	lenient := sampleTool()
	lenient.Lenient = true
	_, errs := tool.ValidateParams(lenient, map[string]any{"city": "nyc", "bogus": 1})
	assert.Empty(t, errs)
}
