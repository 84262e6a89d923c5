package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rental-booking/internal/service"
)

// respondError maps workflow errors to HTTP responses.  Only the message
// of invalid input errors reaches the client; everything else gets a
// fixed message.  Server-side failures are logged.
func respondError(c echo.Context, log *logrus.Logger, err error) error {
	status, msg := classify(err)
	if status >= http.StatusInternalServerError {
		entry := log.WithError(err).WithField("request_id", c.Response().Header().Get(echo.HeaderXRequestID))
		if errors.Is(err, service.ErrCorruptSession) {
			entry.Error("corrupt payment session needs manual investigation")
		} else {
			entry.Error("request failed")
		}
	}
	return c.JSON(status, echo.Map{"error": msg})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, strings.TrimPrefix(err.Error(), service.ErrInvalidInput.Error()+": ")
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, service.ErrUnavailable):
		return http.StatusConflict, service.ErrUnavailable.Error()
	case errors.Is(err, service.ErrPaymentIncomplete):
		return http.StatusBadRequest, service.ErrPaymentIncomplete.Error()
	case errors.Is(err, service.ErrPaymentProvider):
		return http.StatusBadGateway, "payment provider unavailable, please retry"
	case errors.Is(err, service.ErrCorruptSession):
		return http.StatusInternalServerError, "payment session could not be processed"
	}
	return http.StatusInternalServerError, "internal error"
}
