package orgraph

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report document field names instead of Go field names.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validateRecord(record any) error {
	if err := validate.Struct(record); err != nil {
		return formatValidationError(err)
	}
	return nil
}

func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return &ValidationError{Reason: "invalid record", Err: err}
	}

	e := validationErrs[0]
	switch e.Tag() {
	case "required":
		return &ValidationError{Field: e.Field(), Reason: "field is required"}
	case "max":
		return &ValidationError{Field: e.Field(), Reason: fmt.Sprintf("must not exceed %s characters", e.Param())}
	default:
		return &ValidationError{Field: e.Field(), Reason: fmt.Sprintf("validation failed (%s)", e.Tag())}
	}
}
