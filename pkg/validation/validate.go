// Package validation validates request structs and reports failures as HTTP 400 errors
package validation

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Struct validates value against its validate tags
func Struct(value any) error {
	if err := validate.Struct(value); err != nil {
		return toHTTPError(err)
	}
	return nil
}

func toHTTPError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		messages = append(messages, fieldMessage(fe))
	}
	return httperror.NewHTTPError(http.StatusBadRequest, "validation failed: "+strings.Join(messages, "; "))
}

// fieldMessage uses the namespace without its root type, e.g. "Agents[0].Identity.LastName"
func fieldMessage(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}
	if fe.Param() != "" {
		return fmt.Sprintf("%s failed rule '%s=%s'", field, fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("%s failed rule '%s'", field, fe.Tag())
}
