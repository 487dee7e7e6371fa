package http

import (
	"errors"
	"log/slog"
	"net/http"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/driver"
	"fulfillment/internal/core/domain/model/job"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/review"
	"fulfillment/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// statusFor maps domain errors to HTTP status codes. Anything unrecognised
// is an internal error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, job.ErrAlreadyClaimed),
		errors.Is(err, driver.ErrDriverBusy),
		errors.Is(err, review.ErrDuplicateReview),
		errors.Is(err, job.ErrIllegalTransition):
		return http.StatusConflict
	case errors.Is(err, review.ErrNotEligible):
		return http.StatusUnprocessableEntity
	case errors.Is(err, review.ErrInvalidRating),
		errors.Is(err, kernel.ErrInvalidGeometry),
		errors.Is(err, errs.ErrValueIsRequired),
		errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsOutOfRange),
		errors.Is(err, commands.ErrDuplicateMenuItem):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ErrorHandler renders every error as an Error body. Internal errors are
// logged and their details are not exposed.
func ErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		if ctx.Response().Committed {
			return
		}

		code, message := http.StatusInternalServerError, "internal error"
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if m, ok := he.Message.(string); ok {
				message = m
			} else {
				message = http.StatusText(code)
			}
		} else if code = statusFor(err); code != http.StatusInternalServerError {
			message = err.Error()
		}

		if code >= http.StatusInternalServerError {
			logger.Error("request failed",
				"method", ctx.Request().Method,
				"path", ctx.Path(),
				"error", err)
		}

		if ctx.Request().Method == http.MethodHead {
			err = ctx.NoContent(code)
		} else {
			err = ctx.JSON(code, Error{Code: code, Message: message})
		}
		if err != nil {
			logger.Warn("failed to write error response", "error", err)
		}
	}
}
