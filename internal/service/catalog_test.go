package service

import (
	"context"
	"errors"
	"testing"

	"github.com/iliyamo/rental-booking/internal/model"
)

func validInput() ListingInput {
	return ListingInput{
		Title:              "Cabin by the lake",
		PricePerNightCents: 12000,
		PropertyType:       model.PropertyCabin,
		MaxGuests:          3,
		Location:           model.Location{City: "Bled", Country: "Slovenia"},
		Amenities:          []string{"wifi"},
	}
}

func TestCatalogListReconcilesAndFilters(t *testing.T) {
	h := newHarness(day(2025, 6, 1))
	stale := sampleListing(1)
	stale.Occupied = true
	staleID := h.store.addListing(stale)
	h.store.addBooking(bookingAt(staleID, 7, day(2025, 5, 1), day(2025, 5, 3)))

	live := sampleListing(1)
	live.Occupied = true
	liveID := h.store.addListing(live)
	h.store.addBooking(bookingAt(liveID, 7, day(2025, 5, 30), day(2025, 6, 3)))

	other := sampleListing(2)
	other.Location.City = "Porto"
	h.store.addListing(other)

	got, err := h.catalog.List(context.Background(), model.ListingFilter{City: "lisbon"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d listings, want 2", len(got))
	}
	for _, l := range got {
		want := l.ID == liveID
		if l.Occupied != want || h.store.listing(l.ID).Occupied != want {
			t.Fatalf("listing %d occupied=%v, want %v", l.ID, l.Occupied, want)
		}
	}
}

func TestCatalogGet(t *testing.T) {
	h := newHarness(day(2025, 6, 1))
	l := sampleListing(1)
	l.Occupied = true
	id := h.store.addListing(l)

	got, err := h.catalog.Get(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if got.Occupied {
		t.Fatal("listing without bookings should be reconciled to free")
	}
	if _, err := h.catalog.Get(context.Background(), id+1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCatalogCreateValidates(t *testing.T) {
	h := newHarness(day(2025, 6, 1))
	bad := map[string]func(*ListingInput){
		"zero price":    func(in *ListingInput) { in.PricePerNightCents = 0 },
		"no title":      func(in *ListingInput) { in.Title = "  " },
		"unknown type":  func(in *ListingInput) { in.PropertyType = "Castle" },
		"no guests":     func(in *ListingInput) { in.MaxGuests = 0 },
		"negative beds": func(in *ListingInput) { in.NumBedrooms = -1 },
	}
	for name, mutate := range bad {
		t.Run(name, func(t *testing.T) {
			in := validInput()
			mutate(&in)
			if _, err := h.catalog.Create(context.Background(), 1, in); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("err = %v, want ErrInvalidInput", err)
			}
		})
	}

	l, err := h.catalog.Create(context.Background(), 1, validInput())
	if err != nil {
		t.Fatal(err)
	}
	if l.ID == 0 || l.HostID != 1 || l.Occupied {
		t.Fatalf("unexpected listing %+v", l)
	}
}

func TestCatalogUpdateAndDeleteOwnership(t *testing.T) {
	h := newHarness(day(2025, 6, 1))
	ctx := context.Background()
	id := h.store.addListing(sampleListing(1))

	in := validInput()
	if _, err := h.catalog.Update(ctx, id, model.Principal{UserID: 2, Role: model.RoleHost}, in); !errors.Is(err, ErrForbidden) {
		t.Fatalf("other host update: %v", err)
	}
	updated, err := h.catalog.Update(ctx, id, model.Principal{UserID: 1, Role: model.RoleHost}, in)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Title != in.Title || updated.HostID != 1 {
		t.Fatalf("unexpected update %+v", updated)
	}
	if _, err := h.catalog.Update(ctx, id, model.Principal{UserID: 99, Role: model.RoleAdmin}, in); err != nil {
		t.Fatalf("admin update: %v", err)
	}

	if err := h.catalog.Delete(ctx, id, model.Principal{UserID: 2, Role: model.RoleHost}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("other host delete: %v", err)
	}
	h.store.addBooking(bookingAt(id, 7, day(2025, 7, 1), day(2025, 7, 2)))
	if err := h.catalog.Delete(ctx, id, model.Principal{UserID: 1, Role: model.RoleHost}); err != nil {
		t.Fatal(err)
	}
	if h.store.bookingCount() != 0 {
		t.Fatal("deleting a listing removes its bookings")
	}
	if err := h.catalog.Delete(ctx, id, model.Principal{UserID: 1, Role: model.RoleHost}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: %v", err)
	}
}
