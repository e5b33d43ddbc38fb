package core

import (
	"testing"
	"time"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"0", 0, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half away from zero
		{"12.344", 1234, true},
		{" 2.50 ", 250, true},
		{"1e3", 100000, true},
		{"-1", 0, false},
		{"abc", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"99999999999999999999", 0, false},
		{"1e15", 0, false}, // in the exponent window, over the magnitude bound
		{"1e16", 0, false},
		{"1e20000000", 0, false},
		{"1e-200000", 0, false},
		{"1e-10", 0, true},
		{"0.0000000001", 0, true},
		{"0.00000000001", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestParseAmountHugeExponentIsCheap(t *testing.T) {
	start := time.Now()
	for _, in := range []string{"1e20000000", "1E999999999", "-1e20000000", "1e-999999999"} {
		if _, err := ParseSignedAmount(in); err == nil {
			t.Fatalf("%q expected error", in)
		}
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("rejecting huge exponents took %s", elapsed)
	}
}

func TestParseSignedAmount(t *testing.T) {
	got, err := ParseSignedAmount("-12.5")
	if err != nil || got.Cents != -1250 {
		t.Fatalf("expected -1250, got %d (err=%v)", got.Cents, err)
	}
}

func TestMoneyString(t *testing.T) {
	cases := map[int64]string{
		0:         "0.00",
		5:         "0.05",
		123456:    "1,234.56",
		-70000:    "-700.00",
		100000000: "1,000,000.00",
	}
	for cents, want := range cases {
		if got := (Money{Cents: cents}).String(); got != want {
			t.Errorf("Money{%d}.String() = %q, want %q", cents, got, want)
		}
	}
}

func TestMoneyFloat64(t *testing.T) {
	if got := (Money{Cents: 123456}).Float64(); got != 1234.56 {
		t.Fatalf("Float64() = %v", got)
	}
}
