package pkg

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldErrors renders validator failures keyed by field name. name maps a
// failure to the name the client knows the field by; only the first failure
// of each field is kept.
func FieldErrors(ve validator.ValidationErrors, name func(validator.FieldError) string) map[string]string {
	out := make(map[string]string, len(ve))
	for _, fe := range ve {
		field := name(fe)
		if _, seen := out[field]; seen {
			continue
		}
		out[field] = ValidationMessage(field, fe)
	}
	return out
}

// ValidationMessage renders one validator failure as a sentence about field.
func ValidationMessage(field string, fe validator.FieldError) string {
	label := strings.ReplaceAll(field, "_", " ")
	numeric := isNumberKind(fe.Kind())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", label)
	case "email":
		return "Enter a valid email address."
	case "eqfield":
		return fmt.Sprintf("The %s does not match.", label)
	case "alphanum":
		return fmt.Sprintf("The %s may only contain letters and digits.", label)
	case "numeric":
		return fmt.Sprintf("The %s may only contain digits.", label)
	case "oneof":
		return fmt.Sprintf("The %s must be one of: %s.", label, fe.Param())
	case "min":
		switch {
		case fe.Kind() == reflect.Slice:
			return fmt.Sprintf("Select at least %s %s.", fe.Param(), label)
		case numeric:
			return fmt.Sprintf("The %s must be at least %s.", label, fe.Param())
		}
		return fmt.Sprintf("The %s must be at least %s characters.", label, fe.Param())
	case "max":
		if numeric {
			return fmt.Sprintf("The %s may not be greater than %s.", label, fe.Param())
		}
		return fmt.Sprintf("The %s may not be greater than %s characters.", label, fe.Param())
	case "gt", "gte":
		return fmt.Sprintf("Choose a valid %s.", label)
	default:
		return fmt.Sprintf("The %s is invalid.", label)
	}
}

func isNumberKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
