package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Consumer listens to the booking queues and appends one line per event to
// <Dir>/booking.log.
type Consumer struct {
	URL string
	Dir string
	Log *logrus.Logger
}

// Run connects to RabbitMQ and consumes until ctx is cancelled.  Broker
// failures are retried with exponential backoff capped at 30s.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Log.WithError(err).Warnf("booking-consumer: failed to dial broker; retrying in %s", backoff)
			if !sleepCtx(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Log.WithError(err).Warn("booking-consumer: consume loop ended; reconnecting")
		if !sleepCtx(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

type delivery struct {
	queue string
	d     amqp.Delivery
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.Log.WithError(err).Warn("booking-consumer: set QoS failed")
	}

	merged := make(chan delivery)
	done := make(chan struct{})
	defer close(done)

	var wg sync.WaitGroup
	for _, name := range []string{BookingConfirmedQueue, BookingCancelledQueue} {
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", name, err)
		}
		msgs, err := ch.Consume(name, "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("queue consume %s: %w", name, err)
		}
		wg.Add(1)
		go func(name string, msgs <-chan amqp.Delivery) {
			defer wg.Done()
			for d := range msgs {
				select {
				case merged <- delivery{queue: name, d: d}:
				case <-done:
					return
				}
			}
		}(name, msgs)
	}
	// merged closes once every consumer has stopped delivering.
	go func() {
		wg.Wait()
		close(merged)
	}()

	return c.serve(ctx, merged,
		conn.NotifyClose(make(chan *amqp.Error, 1)),
		ch.NotifyClose(make(chan *amqp.Error, 1)))
}

// serve handles deliveries until ctx ends, the connection or the channel
// closes, or the deliveries stop.  Every exit but ctx is an error so Run
// reconnects.
func (c *Consumer) serve(ctx context.Context, merged <-chan delivery, connClosed, chClosed <-chan *amqp.Error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-connClosed:
			return closedErr("connection", err)
		case err := <-chClosed:
			return closedErr("channel", err)
		case m, ok := <-merged:
			if !ok {
				return errors.New("deliveries stopped")
			}
			if err := c.handleMessage(m.queue, m.d.Body); err != nil {
				c.Log.WithError(err).WithField("queue", m.queue).Error("booking-consumer: handle message failed")
				_ = m.d.Nack(false, false) // do not requeue to avoid tight loops
				continue
			}
			_ = m.d.Ack(false)
		}
	}
}

func closedErr(what string, err *amqp.Error) error {
	if err == nil {
		return fmt.Errorf("%s closed", what)
	}
	return fmt.Errorf("%s closed: %w", what, err)
}

func (c *Consumer) handleMessage(queue string, body []byte) error {
	line, err := formatLine(queue, body)
	if err != nil {
		return err
	}
	dir := c.Dir
	if dir == "" {
		dir = "logs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "booking.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// formatLine renders one event as a single human-friendly log line.
func formatLine(queue string, body []byte) (string, error) {
	switch queue {
	case BookingConfirmedQueue:
		var ev BookingConfirmedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		return fmt.Sprintf("[%s] Booking confirmed | booking_id=%d | user_id=%d | listing_id=%d | listing=%q | check_in=%s | check_out=%s | guests=%d | nights=%d | total=%d cents | session=%s\n",
			ev.ConfirmedAt, ev.BookingID, ev.UserID, ev.ListingID, ev.ListingTitle, ev.CheckIn, ev.CheckOut, ev.Guests, ev.Nights, ev.TotalPriceCents, ev.SessionID), nil
	case BookingCancelledQueue:
		var ev BookingCancelledEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		return fmt.Sprintf("[%s] Booking cancelled | booking_id=%d | user_id=%d | listing_id=%d | cancelled_by=%d | listing_released=%t\n",
			ev.CancelledAt, ev.BookingID, ev.UserID, ev.ListingID, ev.CancelledBy, ev.ListingReleased), nil
	}
	return "", fmt.Errorf("unknown queue %q", queue)
}
