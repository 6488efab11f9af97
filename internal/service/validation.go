package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/noah-isme/smart-planner-api/pkg/errors"
)

// newRequestValidator reports failures under the payload's json or query
// field names instead of Go struct field names.
func newRequestValidator(validate *validator.Validate) *validator.Validate {
	if validate == nil {
		validate = validator.New()
	}
	validate.RegisterTagNameFunc(payloadFieldName)
	return validate
}

func payloadFieldName(field reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
		if name != "" && name != "-" {
			return name
		}
	}
	return field.Name
}

// validationError names the first field that failed validation.
func validationError(err error, message string) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		detail := fmt.Sprintf("failed %q validation", fe.Tag())
		if fe.Param() != "" {
			detail = fmt.Sprintf("failed %q validation (%s)", fe.Tag(), fe.Param())
		}
		invalid := appErrors.InvalidField(fe.Field(), detail)
		invalid.Err = err
		return invalid
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}
