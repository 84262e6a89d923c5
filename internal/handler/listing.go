package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rental-booking/internal/model"
	"github.com/iliyamo/rental-booking/internal/service"
)

// CatalogService reads and writes listings.
type CatalogService interface {
	List(ctx context.Context, f model.ListingFilter) ([]model.Listing, error)
	Get(ctx context.Context, id uint64) (*model.Listing, error)
	Create(ctx context.Context, hostID uint64, in service.ListingInput) (*model.Listing, error)
	Update(ctx context.Context, id uint64, by model.Principal, in service.ListingInput) (*model.Listing, error)
	Delete(ctx context.Context, id uint64, by model.Principal) error
}

// ListingHandler serves /listings.
type ListingHandler struct {
	Catalog CatalogService
	Log     *logrus.Logger
	Changed func(ctx context.Context)
}

func NewListingHandler(catalog CatalogService, log *logrus.Logger, changed func(context.Context)) *ListingHandler {
	return &ListingHandler{Catalog: catalog, Log: log, Changed: changed}
}

type listingReq struct {
	Title              string         `json:"title" validate:"required"`
	Description        string         `json:"description"`
	PricePerNightCents int64          `json:"price_per_night_cents" validate:"required,gt=0"`
	Location           model.Location `json:"location"`
	PropertyType       string         `json:"property_type" validate:"required"`
	MaxGuests          int            `json:"max_guests" validate:"required,min=1"`
	NumBedrooms        int            `json:"num_bedrooms" validate:"gte=0"`
	NumBathrooms       int            `json:"num_bathrooms" validate:"gte=0"`
	Amenities          []string       `json:"amenities"`
	Images             []string       `json:"images" validate:"dive,url"`
	AvailableDates     []string       `json:"available_dates"`
}

func (r listingReq) input() (service.ListingInput, error) {
	dates := make([]time.Time, 0, len(r.AvailableDates))
	for _, s := range r.AvailableDates {
		d, err := service.ParseDate(s)
		if err != nil {
			return service.ListingInput{}, err
		}
		dates = append(dates, d)
	}
	return service.ListingInput{
		Title:              r.Title,
		Description:        r.Description,
		PricePerNightCents: r.PricePerNightCents,
		Location:           r.Location,
		PropertyType:       model.PropertyType(r.PropertyType),
		MaxGuests:          r.MaxGuests,
		NumBedrooms:        r.NumBedrooms,
		NumBathrooms:       r.NumBathrooms,
		Amenities:          r.Amenities,
		Images:             r.Images,
		AvailableDates:     dates,
	}, nil
}

// filterFromQuery reads the optional listing filters.  Prices are in
// cents; amenities are comma separated.
func filterFromQuery(c echo.Context) (model.ListingFilter, bool) {
	f := model.ListingFilter{
		City:         strings.TrimSpace(c.QueryParam("city")),
		Country:      strings.TrimSpace(c.QueryParam("country")),
		PropertyType: model.PropertyType(strings.TrimSpace(c.QueryParam("property_type"))),
	}
	for _, a := range strings.Split(c.QueryParam("amenities"), ",") {
		if a = strings.TrimSpace(a); a != "" {
			f.Amenities = append(f.Amenities, a)
		}
	}
	ints := []struct {
		name string
		dst  func(int64)
	}{
		{"min_price", func(v int64) { f.MinPrice = v }},
		{"max_price", func(v int64) { f.MaxPrice = v }},
		{"guests", func(v int64) { f.Guests = int(v) }},
		{"host_id", func(v int64) { f.HostID = uint64(v) }},
	}
	for _, p := range ints {
		raw := c.QueryParam(p.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 0 {
			return f, false
		}
		p.dst(v)
	}
	return f, true
}

// List returns the listings matching the query filters.
func (h *ListingHandler) List(c echo.Context) error {
	f, ok := filterFromQuery(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid filter"})
	}
	items, err := h.Catalog.List(c.Request().Context(), f)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get returns one listing.
func (h *ListingHandler) Get(c echo.Context) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid listing id"})
	}
	l, err := h.Catalog.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, l)
}

// Create publishes a listing owned by the calling host.
func (h *ListingHandler) Create(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req listingReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	in, err := req.input()
	if err != nil {
		return respondError(c, h.Log, err)
	}
	l, err := h.Catalog.Create(c.Request().Context(), p.UserID, in)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	h.changed(c)
	return c.JSON(http.StatusCreated, l)
}

// Update replaces the editable fields of the caller's listing.
func (h *ListingHandler) Update(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid listing id"})
	}
	var req listingReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	in, err := req.input()
	if err != nil {
		return respondError(c, h.Log, err)
	}
	l, err := h.Catalog.Update(c.Request().Context(), id, p, in)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	h.changed(c)
	return c.JSON(http.StatusOK, l)
}

// Delete removes the caller's listing together with its bookings.
func (h *ListingHandler) Delete(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid listing id"})
	}
	if err := h.Catalog.Delete(c.Request().Context(), id, p); err != nil {
		return respondError(c, h.Log, err)
	}
	h.changed(c)
	return c.NoContent(http.StatusNoContent)
}

func (h *ListingHandler) changed(c echo.Context) {
	if h.Changed != nil {
		h.Changed(c.Request().Context())
	}
}
