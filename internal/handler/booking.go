package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rental-booking/internal/model"
	"github.com/iliyamo/rental-booking/internal/service"
)

// BookingService lists and cancels bookings.
type BookingService interface {
	ListForUser(ctx context.Context, userID uint64) ([]model.BookingDetail, error)
	ListForHost(ctx context.Context, hostID uint64) ([]model.BookingDetail, error)
	Cancel(ctx context.Context, bookingID uint64, by model.Principal) (*service.CancelResult, error)
}

// BookingHandler serves /bookings.
type BookingHandler struct {
	Bookings BookingService
	Log      *logrus.Logger
	Changed  func(ctx context.Context)
}

func NewBookingHandler(bookings BookingService, log *logrus.Logger, changed func(context.Context)) *BookingHandler {
	return &BookingHandler{Bookings: bookings, Log: log, Changed: changed}
}

// Mine lists the caller's bookings.
func (h *BookingHandler) Mine(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Bookings.ListForUser(c.Request().Context(), p.UserID)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Host lists the bookings of the caller's listings.
func (h *BookingHandler) Host(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Bookings.ListForHost(c.Request().Context(), p.UserID)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Cancel deletes a booking owned by the caller or hosted by them.
func (h *BookingHandler) Cancel(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	res, err := h.Bookings.Cancel(c.Request().Context(), id, p)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if h.Changed != nil && res.ListingReleased {
		h.Changed(c.Request().Context())
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "booking cancelled", "result": res})
}
