package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("enum", validEnum); err != nil {
		panic(err)
	}
	return v
}

// validEnum accepts any value with a Valid() method reporting true.
func validEnum(fl validator.FieldLevel) bool {
	e, ok := fl.Field().Interface().(interface{ Valid() bool })
	return ok && e.Valid()
}

// Messages holds the client-facing text reported per field path.
// Required overrides Invalid when the value is missing altogether.
type Messages struct {
	Invalid  map[string]string
	Required map[string]string
}

func (m Messages) lookup(field, tag string) string {
	if tag == "required" {
		if msg, ok := m.Required[field]; ok {
			return msg
		}
	}
	if msg, ok := m.Invalid[field]; ok {
		return msg
	}
	return field + " inválido"
}

// ValidateStruct runs the struct's validate tags and converts failures into
// an itemized ValidationError. The result is never nil; use OrNil.
func ValidateStruct(s any, msgs Messages) *ValidationError {
	verr := &ValidationError{}
	err := validate.Struct(s)
	if err == nil {
		return verr
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr.Add("body", err.Error())
		return verr
	}
	for _, fe := range fieldErrs {
		field := fieldPath(fe.Namespace())
		if verr.Has(field) {
			continue
		}
		verr.Add(field, msgs.lookup(field, fe.Tag()))
	}
	return verr
}

// fieldPath drops the root type name from a validator namespace, leaving the
// JSON path ("ProjectInput.localizacao.latitude" -> "localizacao.latitude").
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

// DecodeJSON unmarshals b into v and reports malformed input as a
// ValidationError naming the offending field when the decoder knows it.
func DecodeJSON(b []byte, v any) error {
	err := json.Unmarshal(b, v)
	if err == nil {
		return nil
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		if typeErr.Type == dateType {
			return NewValidationError(typeErr.Field, "data inválida")
		}
		return NewValidationError(typeErr.Field, fmt.Sprintf("tipo inválido: esperado %s", typeErr.Type))
	}
	return NewValidationError("body", "Dados inválidos: "+err.Error())
}
