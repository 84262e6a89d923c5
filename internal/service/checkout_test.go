package service

import (
	"context"
	"errors"
	"testing"

	"github.com/iliyamo/rental-booking/internal/payment"
)

func TestInitiatePricesStayAndEncodesIntent(t *testing.T) {
	h := newHarness(day(2025, 2, 1))
	id := h.store.addListing(sampleListing(1))

	res, err := h.checkout.Initiate(context.Background(), CheckoutRequest{
		ListingID: id, CheckIn: "2025-03-01", CheckOut: "2025-03-04", Guests: 2, UserID: 7,
	})
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	if res.TotalAmountCents != 60000 || res.Nights != 3 {
		t.Fatalf("got total=%d nights=%d, want 60000/3", res.TotalAmountCents, res.Nights)
	}
	if res.TotalAmount != 600 || res.Currency != "usd" {
		t.Fatalf("got total amount %v %s, want 600 usd", res.TotalAmount, res.Currency)
	}
	if res.SessionID == "" || res.URL == "" {
		t.Fatalf("missing session handle: %+v", res)
	}

	req := h.provider.requests[0]
	if req.UnitAmountCents != 10000 || req.Quantity != 6 || req.Currency != "usd" {
		t.Fatalf("unexpected line item %+v", req)
	}
	if req.ProductName != "Harbour loft" || req.ImageURL != "https://img.test/1.jpg" {
		t.Fatalf("unexpected product %q %q", req.ProductName, req.ImageURL)
	}
	if req.SuccessURL != clientURL+"/booking-success?session_id={CHECKOUT_SESSION_ID}" || req.CancelURL != clientURL+"/booking-cancel" {
		t.Fatalf("unexpected redirects %q %q", req.SuccessURL, req.CancelURL)
	}
	meta, err := payment.DecodeBookingMetadata(req.Metadata)
	if err != nil {
		t.Fatalf("metadata: %v", err)
	}
	want := payment.BookingMetadata{UserID: 7, ListingID: id, CheckIn: day(2025, 3, 1), CheckOut: day(2025, 3, 4), Guests: 2, Nights: 3}
	if meta != want {
		t.Fatalf("metadata = %+v, want %+v", meta, want)
	}

	if h.store.bookingCount() != 0 || h.store.listing(id).Occupied {
		t.Fatal("initiating checkout must not write bookings or occupancy")
	}
}

func TestInitiateRejectsBeforeCallingProvider(t *testing.T) {
	now := day(2025, 2, 1)
	cases := []struct {
		name string
		req  func(listingID uint64) CheckoutRequest
		want error
	}{
		{"same day", func(id uint64) CheckoutRequest {
			return CheckoutRequest{ListingID: id, CheckIn: "2025-03-01", CheckOut: "2025-03-01", Guests: 1, UserID: 7}
		}, ErrInvalidInput},
		{"reversed", func(id uint64) CheckoutRequest {
			return CheckoutRequest{ListingID: id, CheckIn: "2025-03-04", CheckOut: "2025-03-01", Guests: 1, UserID: 7}
		}, ErrInvalidInput},
		{"missing check-in", func(id uint64) CheckoutRequest {
			return CheckoutRequest{ListingID: id, CheckOut: "2025-03-04", Guests: 1, UserID: 7}
		}, ErrInvalidInput},
		{"no guests", func(id uint64) CheckoutRequest {
			return CheckoutRequest{ListingID: id, CheckIn: "2025-03-01", CheckOut: "2025-03-04", UserID: 7}
		}, ErrInvalidInput},
		{"too many guests", func(id uint64) CheckoutRequest {
			return CheckoutRequest{ListingID: id, CheckIn: "2025-03-01", CheckOut: "2025-03-04", Guests: 5, UserID: 7}
		}, ErrInvalidInput},
		{"unknown listing", func(id uint64) CheckoutRequest {
			return CheckoutRequest{ListingID: id + 100, CheckIn: "2025-03-01", CheckOut: "2025-03-04", Guests: 1, UserID: 7}
		}, ErrNotFound},
		{"overlapping stay", func(id uint64) CheckoutRequest {
			return CheckoutRequest{ListingID: id, CheckIn: "2025-03-10", CheckOut: "2025-03-12", Guests: 1, UserID: 7}
		}, ErrUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(now)
			id := h.store.addListing(sampleListing(1))
			h.store.addBooking(bookingAt(id, 9, day(2025, 3, 9), day(2025, 3, 11)))

			_, err := h.checkout.Initiate(context.Background(), tc.req(id))
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
			if n := h.provider.requestCount(); n != 0 {
				t.Fatalf("provider called %d times", n)
			}
		})
	}
}

func TestInitiateAdjacentStayIsAvailable(t *testing.T) {
	h := newHarness(day(2025, 2, 1))
	id := h.store.addListing(sampleListing(1))
	h.store.addBooking(bookingAt(id, 9, day(2025, 3, 1), day(2025, 3, 4)))

	if _, err := h.checkout.Initiate(context.Background(), CheckoutRequest{
		ListingID: id, CheckIn: "2025-03-04", CheckOut: "2025-03-06", Guests: 1, UserID: 7,
	}); err != nil {
		t.Fatalf("check-in on a previous check-out day should be allowed: %v", err)
	}
}

func TestInitiateProviderFailure(t *testing.T) {
	h := newHarness(day(2025, 2, 1))
	id := h.store.addListing(sampleListing(1))
	h.provider.createErr = errors.New("timeout")

	_, err := h.checkout.Initiate(context.Background(), CheckoutRequest{
		ListingID: id, CheckIn: "2025-03-01", CheckOut: "2025-03-02", Guests: 1, UserID: 7,
	})
	if !errors.Is(err, ErrPaymentProvider) {
		t.Fatalf("err = %v, want ErrPaymentProvider", err)
	}
}
