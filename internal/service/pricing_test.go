package service

import (
	"errors"
	"testing"
	"time"
)

func TestNewQuote(t *testing.T) {
	cases := []struct {
		name       string
		price      int64
		in, out    time.Time
		guests     int
		wantNights int
		wantTotal  int64
		wantErr    bool
	}{
		{"three nights two guests", 10000, day(2025, 3, 1), day(2025, 3, 4), 2, 3, 60000, false},
		{"one night", 7550, day(2025, 3, 1), day(2025, 3, 2), 1, 1, 7550, false},
		{"partial day rounds up", 10000, day(2025, 3, 1), day(2025, 3, 2).Add(time.Hour), 1, 2, 20000, false},
		{"same day", 10000, day(2025, 3, 1), day(2025, 3, 1), 1, 0, 0, true},
		{"reversed", 10000, day(2025, 3, 4), day(2025, 3, 1), 1, 0, 0, true},
		{"no guests", 10000, day(2025, 3, 1), day(2025, 3, 4), 0, 0, 0, true},
		{"no price", 0, day(2025, 3, 1), day(2025, 3, 4), 1, 0, 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q, err := NewQuote(tc.price, tc.in, tc.out, tc.guests)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Fatalf("expected ErrInvalidInput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if q.Nights != tc.wantNights || q.TotalCents != tc.wantTotal {
				t.Fatalf("got nights=%d total=%d, want %d/%d", q.Nights, q.TotalCents, tc.wantNights, tc.wantTotal)
			}
			if q.UnitAmountCents*q.Quantity != q.TotalCents {
				t.Fatalf("line item %d x %d does not add up to %d", q.UnitAmountCents, q.Quantity, q.TotalCents)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	if got, err := ParseDate("2025-03-01"); err != nil || !got.Equal(day(2025, 3, 1)) {
		t.Fatalf("date-only: %v %v", got, err)
	}
	if got, err := ParseDate("2025-03-01T12:00:00+02:00"); err != nil || !got.Equal(day(2025, 3, 1).Add(10*time.Hour)) {
		t.Fatalf("rfc3339: %v %v", got, err)
	}
	for _, bad := range []string{"", "  ", "03/01/2025", "2025-13-01"} {
		if _, err := ParseDate(bad); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("ParseDate(%q) err = %v, want ErrInvalidInput", bad, err)
		}
	}
}

func TestMajorUnits(t *testing.T) {
	tests := []struct {
		amount   int64
		currency string
		want     float64
	}{
		{60000, "usd", 600},
		{1999, "EUR", 19.99},
		{5000, "jpy", 5000},
		{0, "usd", 0},
	}
	for _, tt := range tests {
		if got := MajorUnits(tt.amount, tt.currency); got != tt.want {
			t.Errorf("MajorUnits(%d, %q) = %v, want %v", tt.amount, tt.currency, got, tt.want)
		}
	}
}
