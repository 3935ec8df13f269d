package tool

import (
	"fmt"

	"github.com/arcflow/substrate/internal/valueobjects"
)

// ParamValidationError is a single entry of the structured error list
// spec.md §4.6 contracts, with error kind ∈ {missing_required,
// type_mismatch, invalid_enum_value, unknown_parameter}.
type ParamValidationError struct {
	Param string
	Kind  string
}

func (e ParamValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Param, e.Kind)
}

const (
	KindMissingRequired  = "missing_required"
	KindTypeMismatch     = "type_mismatch"
	KindInvalidEnumValue = "invalid_enum_value"
	KindUnknownParameter = "unknown_parameter"
)

// ValidateParams checks presence, type, and enum membership for each
// declared parameter, fills defaults for absent optional parameters, and
// rejects unknown parameters unless t.Lenient. Returns the filled params
// and any validation errors.
func ValidateParams(t Tool, params map[string]any) (map[string]any, []ParamValidationError) {
	var errs []ParamValidationError
	filled := make(map[string]any, len(params))
	for k, v := range params {
		filled[k] = v
	}

	declared := make(map[string]Parameter, len(t.Parameters))
	for _, p := range t.Parameters {
		declared[p.Name] = p
	}

	for _, p := range t.Parameters {
		v, present := filled[p.Name]
		if !present {
			if p.Required {
				errs = append(errs, ParamValidationError{Param: p.Name, Kind: KindMissingRequired})
				continue
			}
			if p.Default != nil {
				filled[p.Name] = p.Default
			}
			continue
		}
		if !typeMatches(p.Type, v) {
			errs = append(errs, ParamValidationError{Param: p.Name, Kind: KindTypeMismatch})
			continue
		}
		if len(p.Enum) > 0 && !enumContains(p.Enum, v) {
			errs = append(errs, ParamValidationError{Param: p.Name, Kind: KindInvalidEnumValue})
		}
	}

	if !t.Lenient {
		for k := range params {
			if _, ok := declared[k]; !ok {
				errs = append(errs, ParamValidationError{Param: k, Kind: KindUnknownParameter})
			}
		}
	}

	return filled, errs
}

func typeMatches(t valueobjects.ParamType, v any) bool {
	switch t {
	case valueobjects.ParamString:
		_, ok := v.(string)
		return ok
	case valueobjects.ParamNumber:
		switch v.(type) {
		case float64, float32, int, int64:
			return true
		}
		return false
	case valueobjects.ParamBoolean:
		_, ok := v.(bool)
		return ok
	case valueobjects.ParamObject:
		_, ok := v.(map[string]any)
		return ok
	case valueobjects.ParamArray:
		_, ok := v.([]any)
		return ok
	}
	return false
}

func enumContains(enum []any, v any) bool {
	for _, e := range enum {
		if fmt.Sprint(e) == fmt.Sprint(v) {
			return true
		}
	}
	return false
}
