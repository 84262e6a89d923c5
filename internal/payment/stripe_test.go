package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestStripeCreateSessionSendsLineItem(t *testing.T) {
	var form map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/checkout/sessions" {
			http.Error(w, "unexpected "+r.Method+" "+r.URL.Path, http.StatusNotFound)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		form = map[string]string{}
		for k := range r.PostForm {
			form[k] = r.PostForm.Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"cs_test_1","object":"checkout.session","url":"https://pay.example/cs_test_1",
			"payment_status":"unpaid","amount_total":60000,"metadata":{"userId":"1"}}`)
	}))
	defer srv.Close()

	p := NewStripeProvider(StripeConfig{SecretKey: "sk_test_123", Timeout: 2 * time.Second, BaseURL: srv.URL})
	s, err := p.CreateSession(context.Background(), SessionRequest{
		ProductName:     "Sea view loft",
		Currency:        "usd",
		UnitAmountCents: 10000,
		Quantity:        6,
		Metadata:        map[string]string{MetaUserID: "1"},
		SuccessURL:      "http://client/booking-success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:       "http://client/booking-cancel",
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if s.ID != "cs_test_1" || s.URL != "https://pay.example/cs_test_1" || s.AmountTotal != 60000 || s.Paid() {
		t.Fatalf("unexpected session %+v", s)
	}
	want := map[string]string{
		"mode":                    "payment",
		"payment_method_types[0]": "card",
		"line_items[0][quantity]": "6",
		"line_items[0][price_data][unit_amount]":        "10000",
		"line_items[0][price_data][currency]":           "usd",
		"line_items[0][price_data][product_data][name]": "Sea view loft",
		"metadata[userId]": "1",
		"cancel_url":       "http://client/booking-cancel",
	}
	for k, v := range want {
		if form[k] != v {
			t.Errorf("form[%q] = %q, want %q", k, form[k], v)
		}
	}
}

func TestStripeRetrieveSessionProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":{"type":"invalid_request_error","message":"No such checkout.session"}}`)
	}))
	defer srv.Close()

	p := NewStripeProvider(StripeConfig{SecretKey: "sk_test_123", BaseURL: srv.URL})
	if _, err := p.RetrieveSession(context.Background(), "cs_missing"); err == nil {
		t.Fatal("expected error for unknown session")
	}
}

func sign(payload []byte, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestStripeParseWebhook(t *testing.T) {
	const secret = "whsec_test"
	p := NewStripeProvider(StripeConfig{SecretKey: "sk_test_123", WebhookSecret: secret})
	payload := []byte(`{"id":"evt_1","object":"event","type":"checkout.session.completed",
		"data":{"object":{"id":"cs_test_9","object":"checkout.session","payment_status":"paid",
		"amount_total":1500,"metadata":{"listingId":"3"}}}}`)

	ev, err := p.ParseWebhook(payload, sign(payload, secret, time.Now()))
	if err != nil {
		t.Fatalf("ParseWebhook: %v", err)
	}
	if ev.Type != EventCheckoutCompleted || ev.Session == nil {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.Session.ID != "cs_test_9" || !ev.Session.Paid() || ev.Session.Metadata[MetaListingID] != "3" {
		t.Fatalf("unexpected session %+v", ev.Session)
	}

	if _, err := p.ParseWebhook(payload, sign(payload, "whsec_other", time.Now())); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}
