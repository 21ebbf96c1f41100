package vip

import (
	"testing"
	"time"
)

func TestActiveAt(t *testing.T) {
	now := time.Unix(1000, 0)

	var nilEnt *Entitlement
	if nilEnt.ActiveAt(now) {
		t.Fatal("nil entitlement must not be active")
	}
	if (&Entitlement{ExpiresAt: 1000}).ActiveAt(now) {
		t.Fatal("expiry equal to now must not be active")
	}
	if (&Entitlement{ExpiresAt: 999}).ActiveAt(now) {
		t.Fatal("past expiry must not be active")
	}
	if !(&Entitlement{ExpiresAt: 1001}).ActiveAt(now) {
		t.Fatal("future expiry must be active")
	}
}

func TestEvaluate(t *testing.T) {
	now := time.Unix(1000, 0)

	valid, exp := Evaluate(&Entitlement{ExpiresAt: 2000}, now)
	if !valid || exp != 2000 {
		t.Fatalf("expected valid with expiry 2000, got %v %d", valid, exp)
	}

	valid, exp = Evaluate(&Entitlement{ExpiresAt: 500}, now)
	if valid || exp != 0 {
		t.Fatalf("expected invalid with zero expiry, got %v %d", valid, exp)
	}

	valid, exp = Evaluate(nil, now)
	if valid || exp != 0 {
		t.Fatalf("expected invalid for absent entitlement, got %v %d", valid, exp)
	}
}

func TestFormatRemaining(t *testing.T) {
	cases := []struct {
		remaining int64
		want      string
	}{
		{90000, "1 days, 1 hours"},
		{5400, "1 hours, 30 minutes"},
		{45, "0 minutes"},
		{-5, "expired"},
		{0, "expired"},
		{60, "1 minutes"},
		{86400, "1 days, 0 hours"},
		{31*86400 + 2*3600, "31 days, 2 hours"},
	}
	for _, tc := range cases {
		got := FormatRemaining(1000+tc.remaining, 1000)
		if got != tc.want {
			t.Fatalf("FormatRemaining(remaining=%d) = %q, want %q", tc.remaining, got, tc.want)
		}
	}
}
