package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rental-booking/internal/model"
	"github.com/iliyamo/rental-booking/internal/service"
)

// CheckoutService opens checkout sessions.
type CheckoutService interface {
	Initiate(ctx context.Context, req service.CheckoutRequest) (*service.CheckoutResult, error)
}

// ConfirmService turns paid sessions into bookings.
type ConfirmService interface {
	Confirm(ctx context.Context, sessionID string, payerID uint64) (*model.Booking, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) (*model.Booking, error)
}

// maxWebhookBody bounds the webhook payload read into memory.
const maxWebhookBody = 64 << 10

// PaymentHandler serves the checkout endpoints.
type PaymentHandler struct {
	Checkout CheckoutService
	Confirm  ConfirmService
	Log      *logrus.Logger
	// Changed is called after a booking is created; used to drop cached
	// listing pages.  May be nil.
	Changed func(ctx context.Context)
}

func NewPaymentHandler(checkout CheckoutService, confirm ConfirmService, log *logrus.Logger, changed func(context.Context)) *PaymentHandler {
	return &PaymentHandler{Checkout: checkout, Confirm: confirm, Log: log, Changed: changed}
}

type createCheckoutReq struct {
	ListingID uint64 `json:"listing_id" validate:"required"`
	CheckIn   string `json:"check_in" validate:"required"`
	CheckOut  string `json:"check_out" validate:"required"`
	Guests    int    `json:"guests" validate:"required,min=1"`
}

type checkoutSuccessReq struct {
	SessionID string `json:"session_id" validate:"required"`
}

// CreateCheckoutSession prices the stay and returns the provider session.
func (h *PaymentHandler) CreateCheckoutSession(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createCheckoutReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	res, err := h.Checkout.Initiate(c.Request().Context(), service.CheckoutRequest{
		ListingID: req.ListingID,
		CheckIn:   req.CheckIn,
		CheckOut:  req.CheckOut,
		Guests:    req.Guests,
		UserID:    p.UserID,
	})
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, res)
}

// CheckoutSuccess confirms the session the client was redirected back with.
func (h *PaymentHandler) CheckoutSuccess(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req checkoutSuccessReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	b, err := h.Confirm.Confirm(c.Request().Context(), req.SessionID, p.UserID)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	h.changed(c)
	return c.JSON(http.StatusOK, echo.Map{
		"message":    "payment successful and booking created",
		"booking_id": b.ID,
		"booking":    b,
	})
}

// Webhook receives provider notifications.  It is not behind the session
// middleware; the signature header authenticates it.  Outcomes a retry
// cannot change (unpaid, corrupt metadata, listing gone) are acknowledged
// with 200 and a status so the provider stops redelivering.  Provider and
// internal errors return 5xx so it retries.
func (h *PaymentHandler) Webhook(c echo.Context) error {
	body, err := io.ReadAll(http.MaxBytesReader(c.Response(), c.Request().Body, maxWebhookBody))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	b, err := h.Confirm.HandleWebhook(c.Request().Context(), body, c.Request().Header.Get("Stripe-Signature"))
	switch {
	case errors.Is(err, service.ErrPaymentIncomplete):
		return c.JSON(http.StatusOK, echo.Map{"received": true, "status": "unpaid"})
	case errors.Is(err, service.ErrCorruptSession):
		h.Log.WithError(err).Error("webhook: corrupt payment session needs manual investigation")
		return c.JSON(http.StatusOK, echo.Map{"received": true, "status": "unprocessable"})
	case errors.Is(err, service.ErrNotFound):
		h.Log.WithError(err).Error("webhook: paid session references a missing listing")
		return c.JSON(http.StatusOK, echo.Map{"received": true, "status": "listing_not_found"})
	case err != nil:
		return respondError(c, h.Log, err)
	}
	if b != nil {
		h.changed(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"received": true})
}

func (h *PaymentHandler) changed(c echo.Context) {
	if h.Changed != nil {
		h.Changed(c.Request().Context())
	}
}
