package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rental-booking/internal/model"
	"github.com/iliyamo/rental-booking/internal/payment"
	"github.com/iliyamo/rental-booking/internal/queue"
	"github.com/iliyamo/rental-booking/internal/repository"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// memState is the data of fakeStore.  Transactions work on a clone and
// swap it in on commit.
type memState struct {
	listings    map[uint64]model.Listing
	bookings    map[uint64]model.Booking
	nextListing uint64
	nextBooking uint64
}

func (s *memState) clone() *memState {
	c := &memState{
		listings:    make(map[uint64]model.Listing, len(s.listings)),
		bookings:    make(map[uint64]model.Booking, len(s.bookings)),
		nextListing: s.nextListing,
		nextBooking: s.nextBooking,
	}
	for k, v := range s.listings {
		c.listings[k] = v
	}
	for k, v := range s.bookings {
		c.bookings[k] = v
	}
	return c
}

// fakeStore is an in-memory repository.Store.  A single mutex serialises
// transactions, and a unique session check mirrors the database key.
type fakeStore struct {
	mu sync.Mutex
	st *memState

	setOccupiedCalls int
	txErr            error // returned by the next SetListingOccupied inside a tx

	// afterLatestCheckOut runs once, after LatestCheckOut has read and
	// released the store.  Used to interleave a concurrent write.
	afterLatestCheckOut func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{st: &memState{
		listings: map[uint64]model.Listing{},
		bookings: map[uint64]model.Booking{},
	}}
}

func (s *fakeStore) addListing(l model.Listing) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.nextListing++
	l.ID = s.st.nextListing
	s.st.listings[l.ID] = l
	return l.ID
}

func (s *fakeStore) addBooking(b model.Booking) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.nextBooking++
	b.ID = s.st.nextBooking
	if b.Status == "" {
		b.Status = model.BookingConfirmed
	}
	if b.SessionID == "" {
		b.SessionID = fmt.Sprintf("cs_seed_%d", b.ID)
	}
	s.st.bookings[b.ID] = b
	return b.ID
}

func (s *fakeStore) listing(id uint64) model.Listing {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.listings[id]
}

func (s *fakeStore) bookingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.bookings)
}

func (s *fakeStore) GetListing(_ context.Context, id uint64) (*model.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.st.listings[id]
	if !ok {
		return nil, repository.ErrListingNotFound
	}
	return &l, nil
}

func (s *fakeStore) ListListings(context.Context) ([]model.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Listing, 0, len(s.st.listings))
	for _, l := range s.st.listings {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) CreateListing(_ context.Context, l *model.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.nextListing++
	l.ID = s.st.nextListing
	s.st.listings[l.ID] = *l
	return nil
}

func (s *fakeStore) UpdateListing(_ context.Context, l *model.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.st.listings[l.ID]
	if !ok || cur.HostID != l.HostID {
		return repository.ErrListingNotFound
	}
	l.Occupied = cur.Occupied
	s.st.listings[l.ID] = *l
	return nil
}

func (s *fakeStore) DeleteListing(_ context.Context, id, hostID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.st.listings[id]
	if !ok || cur.HostID != hostID {
		return repository.ErrListingNotFound
	}
	delete(s.st.listings, id)
	for bid, b := range s.st.bookings {
		if b.ListingID == id {
			delete(s.st.bookings, bid)
		}
	}
	return nil
}

func setOccupied(st *memState, id uint64, occupied bool) error {
	l, ok := st.listings[id]
	if !ok {
		return nil
	}
	l.Occupied = occupied
	st.listings[id] = l
	return nil
}

func (s *fakeStore) BookingBySession(_ context.Context, sessionID string) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.st.bookings {
		if b.SessionID == sessionID {
			return &b, nil
		}
	}
	return nil, repository.ErrBookingNotFound
}

func (s *fakeStore) LatestCheckOut(_ context.Context, listingID uint64) (time.Time, bool, error) {
	s.mu.Lock()
	var latest time.Time
	found := false
	for _, b := range s.st.bookings {
		if b.ListingID == listingID && b.Status == model.BookingConfirmed && (!found || b.CheckOut.After(latest)) {
			latest, found = b.CheckOut, true
		}
	}
	hook := s.afterLatestCheckOut
	s.afterLatestCheckOut = nil
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
	return latest, found, nil
}

func (s *fakeStore) HasOverlap(_ context.Context, listingID uint64, checkIn, checkOut time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.st.bookings {
		if b.ListingID == listingID && b.Status == model.BookingConfirmed && b.Overlaps(checkIn, checkOut) {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) details(match func(b model.Booking, l model.Listing) bool) []model.BookingDetail {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.BookingDetail, 0)
	for _, b := range s.st.bookings {
		l := s.st.listings[b.ListingID]
		if match(b, l) {
			out = append(out, model.BookingDetail{Booking: b, Listing: l})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *fakeStore) BookingsByUser(_ context.Context, userID uint64) ([]model.BookingDetail, error) {
	return s.details(func(b model.Booking, _ model.Listing) bool { return b.UserID == userID }), nil
}

func (s *fakeStore) BookingsByHost(_ context.Context, hostID uint64) ([]model.BookingDetail, error) {
	return s.details(func(_ model.Booking, l model.Listing) bool { return l.HostID == hostID }), nil
}

func (s *fakeStore) WithinTx(_ context.Context, fn func(tx repository.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.st.clone()
	if err := fn(&fakeTx{st: work, s: s}); err != nil {
		return err
	}
	s.st = work
	return nil
}

type fakeTx struct {
	st *memState
	s  *fakeStore
}

func (t *fakeTx) InsertBooking(_ context.Context, b *model.Booking) error {
	for _, existing := range t.st.bookings {
		if existing.SessionID == b.SessionID {
			return repository.ErrDuplicateSession
		}
	}
	t.st.nextBooking++
	b.ID = t.st.nextBooking
	b.CreatedAt = time.Now().UTC()
	t.st.bookings[b.ID] = *b
	return nil
}

func (t *fakeTx) LockBooking(_ context.Context, id uint64) (*model.Booking, error) {
	b, ok := t.st.bookings[id]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	return &b, nil
}

func (t *fakeTx) LockListing(_ context.Context, id uint64) (*model.Listing, error) {
	l, ok := t.st.listings[id]
	if !ok {
		return nil, repository.ErrListingNotFound
	}
	return &l, nil
}

func (t *fakeTx) DeleteBooking(_ context.Context, id uint64) error {
	if _, ok := t.st.bookings[id]; !ok {
		return repository.ErrBookingNotFound
	}
	delete(t.st.bookings, id)
	return nil
}

func (t *fakeTx) HasActiveBooking(_ context.Context, listingID uint64, now time.Time) (bool, error) {
	for _, b := range t.st.bookings {
		if b.ListingID == listingID && b.ActiveAt(now) {
			return true, nil
		}
	}
	return false, nil
}

func (t *fakeTx) SetListingOccupied(_ context.Context, id uint64, occupied bool) error {
	if err := t.s.txErr; err != nil {
		t.s.txErr = nil
		return err
	}
	t.s.setOccupiedCalls++
	return setOccupied(t.st, id, occupied)
}

// fakeProvider is an in-memory payment.Provider.  Sessions start unpaid;
// tests mark them paid with pay.
type fakeProvider struct {
	mu            sync.Mutex
	seq           int
	sessions      map[string]*payment.Session
	requests      []payment.SessionRequest
	retrieveCalls int
	createErr     error
	retrieveErr   error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{sessions: map[string]*payment.Session{}}
}

func (p *fakeProvider) CreateSession(_ context.Context, req payment.SessionRequest) (*payment.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.createErr != nil {
		return nil, p.createErr
	}
	p.seq++
	p.requests = append(p.requests, req)
	s := &payment.Session{
		ID:            fmt.Sprintf("cs_test_%d", p.seq),
		URL:           fmt.Sprintf("https://pay.example/cs_test_%d", p.seq),
		PaymentStatus: "unpaid",
		AmountTotal:   req.UnitAmountCents * req.Quantity,
		Metadata:      req.Metadata,
	}
	p.sessions[s.ID] = s
	cp := *s
	return &cp, nil
}

func (p *fakeProvider) RetrieveSession(_ context.Context, id string) (*payment.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.retrieveCalls++
	if p.retrieveErr != nil {
		return nil, p.retrieveErr
	}
	s, ok := p.sessions[id]
	if !ok {
		return nil, errors.New("no such checkout session")
	}
	cp := *s
	return &cp, nil
}

// ParseWebhook accepts {"type": ..., "session_id": ...} signed "valid".
func (p *fakeProvider) ParseWebhook(payload []byte, signature string) (*payment.WebhookEvent, error) {
	if signature != "valid" {
		return nil, payment.ErrInvalidSignature
	}
	var body struct {
		Type      string `json:"type"`
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, err
	}
	ev := &payment.WebhookEvent{ID: "evt_test", Type: body.Type}
	if body.SessionID != "" {
		ev.Session = &payment.Session{ID: body.SessionID}
	}
	return ev, nil
}

func (p *fakeProvider) addSession(s *payment.Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions[s.ID] = s
}

func (p *fakeProvider) pay(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions[id].PaymentStatus = payment.PaymentStatusPaid
}

func (p *fakeProvider) requestCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

// fakePublisher records published events.
type fakePublisher struct {
	confirmed chan queue.BookingConfirmedEvent
	cancelled chan queue.BookingCancelledEvent
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{
		confirmed: make(chan queue.BookingConfirmedEvent, 16),
		cancelled: make(chan queue.BookingCancelledEvent, 16),
	}
}

func (p *fakePublisher) PublishBookingConfirmed(_ context.Context, ev queue.BookingConfirmedEvent) error {
	p.confirmed <- ev
	return nil
}

func (p *fakePublisher) PublishBookingCancelled(_ context.Context, ev queue.BookingCancelledEvent) error {
	p.cancelled <- ev
	return nil
}

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }
