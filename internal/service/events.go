package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rental-booking/internal/queue"
)

// EventPublisher receives booking events after their transaction commits.
// queue.Publisher implements it.
type EventPublisher interface {
	PublishBookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error
	PublishBookingCancelled(ctx context.Context, ev queue.BookingCancelledEvent) error
}

const publishTimeout = 5 * time.Second

// publishAsync runs fn in the background, detached from the request
// context.  A nil publisher disables events.
func publishAsync(ctx context.Context, p EventPublisher, log *logrus.Entry, fn func(context.Context, EventPublisher) error) {
	if p == nil {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	go func() {
		defer cancel()
		if err := fn(pctx, p); err != nil {
			log.WithError(err).Warn("event publish failed")
		}
	}()
}
