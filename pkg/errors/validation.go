package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type ValidationErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FormatValidationErrors turns binding failures into per-field messages keyed
// by the JSON name of the field on model.
func FormatValidationErrors(err error, model any) []ValidationErrorResponse {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return []ValidationErrorResponse{{
			Field:   typeErr.Field,
			Message: fmt.Sprintf("Expected %s, got %s", typeErr.Type, typeErr.Value),
		}}
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil
	}

	out := make([]ValidationErrorResponse, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationErrorResponse{
			Field:   jsonFieldName(model, fe.StructField()),
			Message: messageFor(fe),
		})
	}
	return out
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "max":
		return fmt.Sprintf("Must not exceed %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("Must be greater than or equal to %s", fe.Param())
	case "oneof":
		return "Must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return "Invalid value"
	}
}

func jsonFieldName(model any, structField string) string {
	t := reflect.TypeOf(model)
	if t == nil {
		return structField
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return structField
	}

	field, ok := t.FieldByName(structField)
	if !ok {
		return structField
	}
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return structField
	}
	return name
}
