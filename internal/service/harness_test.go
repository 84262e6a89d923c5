package service

import (
	"time"

	"github.com/iliyamo/rental-booking/internal/model"
)

const clientURL = "http://client.test"

type harness struct {
	store     *fakeStore
	provider  *fakeProvider
	events    *fakePublisher
	ledger    *Ledger
	checkout  *Checkout
	confirmer *Confirmer
	lifecycle *Lifecycle
	catalog   *Catalog
}

func newHarness(now time.Time) *harness {
	log := quietLogger()
	h := &harness{store: newFakeStore(), provider: newFakeProvider(), events: newFakePublisher()}
	h.ledger = NewLedger(h.store, log)
	h.ledger.now = fixedClock(now)
	h.checkout = NewCheckout(h.store, h.provider, "usd", clientURL, log)
	h.confirmer = NewConfirmer(h.store, h.provider, h.ledger, h.events, log)
	h.confirmer.now = fixedClock(now)
	h.lifecycle = NewLifecycle(h.store, h.ledger, h.events, log)
	h.lifecycle.now = fixedClock(now)
	h.catalog = NewCatalog(h.store, h.ledger, log)
	return h
}

func sampleListing(hostID uint64) model.Listing {
	return model.Listing{
		HostID:             hostID,
		Title:              "Harbour loft",
		Description:        "Two rooms over the water",
		PricePerNightCents: 10000,
		PropertyType:       model.PropertyLoft,
		MaxGuests:          4,
		Images:             []string{"https://img.test/1.jpg", "https://img.test/2.jpg"},
		Location:           model.Location{City: "Lisbon", Country: "Portugal"},
	}
}

func bookingAt(listingID, userID uint64, checkIn, checkOut time.Time) model.Booking {
	return model.Booking{
		ListingID:       listingID,
		UserID:          userID,
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		Guests:          1,
		TotalNights:     int(checkOut.Sub(checkIn).Hours() / 24),
		TotalPriceCents: 10000,
		Status:          model.BookingConfirmed,
	}
}
