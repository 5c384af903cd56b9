package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/labstack/echo/v4"
)

const (
	msgValidationFailed = "Validation failed"
	msgInvalidBody      = "Invalid request body"
	msgRouteNotFound    = "Route not found"
	msgInternal         = "Internal server error"
	msgForgotPassword   = "If the email exists, a password reset link has been sent."
)

// validationError carries per-field violations out of a bind step.
type validationError struct {
	fields []goAccount.FieldError
}

func (v *validationError) Error() string { return msgValidationFailed }

func ok(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, goAccount.Envelope{Success: true, Message: message, Data: data})
}

func fail(c echo.Context, status int, message string) error {
	return c.JSON(status, goAccount.Envelope{Success: false, Message: message})
}

// engineError maps an engine error onto the envelope. Known kinds use their
// public message; anything internal answers 500 with the operation message.
func engineError(c echo.Context, logger *slog.Logger, err error, opMessage string) error {
	kind := goAccount.KindOf(err)
	if kind == goAccount.KindInternal {
		logger.ErrorContext(c.Request().Context(), opMessage,
			slog.String("path", c.Path()),
			slog.Any("error", err),
		)
		return c.JSON(http.StatusInternalServerError, goAccount.Envelope{
			Success: false,
			Message: opMessage,
			Error:   msgInternal,
		})
	}
	return fail(c, kind.HTTPStatus(), goAccount.PublicMessage(err))
}

// errorHandler renders errors that escape handlers, including echo's own
// routing failures.
func errorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var verr *validationError
		if errors.As(err, &verr) {
			_ = c.JSON(http.StatusBadRequest, goAccount.Envelope{
				Success: false,
				Message: msgValidationFailed,
				Errors:  verr.fields,
			})
			return
		}

		status := http.StatusInternalServerError
		message := msgInternal
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			switch status {
			case http.StatusNotFound, http.StatusMethodNotAllowed:
				status = http.StatusNotFound
				message = msgRouteNotFound
			case http.StatusBadRequest, http.StatusUnsupportedMediaType:
				status = http.StatusBadRequest
				message = msgInvalidBody
			default:
				if m, isString := he.Message.(string); isString {
					message = m
				} else {
					message = http.StatusText(status)
				}
			}
		} else {
			logger.ErrorContext(c.Request().Context(), "unhandled error", slog.Any("error", err))
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = fail(c, status, message)
	}
}
