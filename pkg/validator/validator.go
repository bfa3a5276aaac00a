// Package validator wraps go-playground/validator so error payloads name
// fields the way clients sent them, via their json tags.
package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// ValidationError describes one failed rule on one field.
type ValidationError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Param string `json:"param"`
}

// ValidationErrors is the set of failures from a single ValidateStruct call.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = f.Field + " failed on " + f.Tag
		if f.Param != "" {
			parts[i] += "=" + f.Param
		}
	}
	return strings.Join(parts, "; ")
}

// ValidateStruct runs the struct's validate tags and converts any failures
// into ValidationErrors.
func ValidateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		out := make(ValidationErrors, 0, len(ve))
		for _, fe := range ve {
			out = append(out, ValidationError{Field: fe.Field(), Tag: fe.Tag(), Param: fe.Param()})
		}
		return out
	}
	return err
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)
	return v
}

// jsonFieldName reports the field's json tag name, falling back to the Go
// name for untagged or json:"-" fields.
func jsonFieldName(field reflect.StructField) string {
	tag, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if tag == "" || tag == "-" {
		return field.Name
	}
	return tag
}
