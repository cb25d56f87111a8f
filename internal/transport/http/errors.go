package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/museum/internal/logging"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ErrorBody struct {
	Errors []any `json:"errors"`
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	}
	return fmt.Sprintf("failed on %s", fe.Tag())
}

// ErrorHandler renders every error as {"errors": [...]}. Validation failures
// become 422 with one entry per field; unknown errors become a bare 500.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	body := ErrorBody{Errors: []any{"Server error!"}}

	var ve validator.ValidationErrors
	var he *echo.HTTPError
	switch {
	case errors.As(err, &ve):
		code = http.StatusUnprocessableEntity
		body.Errors = make([]any, 0, len(ve))
		for _, fe := range ve {
			body.Errors = append(body.Errors, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
		}
	case errors.As(err, &he):
		code = he.Code
		body.Errors = []any{fmt.Sprint(he.Message)}
	default:
		logging.FromContext(c.Request().Context()).Errorw("unhandled_error", "error", err)
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(code)
	} else {
		werr = c.JSON(code, body)
	}
	if werr != nil {
		logging.FromContext(c.Request().Context()).Warnw("write_error_response_failed", "error", werr)
	}
}
