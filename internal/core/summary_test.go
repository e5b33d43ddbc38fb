package core

import "testing"

func TestProgress(t *testing.T) {
	cases := []struct {
		name          string
		saved, target int64
		want          float64
	}{
		{"zero target", 5000, 0, 0},
		{"zero target zero saved", 0, 0, 0},
		{"half", 5000, 10000, 50.0},
		{"overshoot is not clamped", 15000, 10000, 150.0},
		{"one fifth", 10000, 50000, 20.0},
		{"rounds to one decimal", 100, 300, 33.3},
		{"rounds half up", 2, 3, 66.7},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Progress(Money{Cents: tc.saved}, Money{Cents: tc.target})
			if got != tc.want {
				t.Errorf("Progress(%d, %d) = %v, want %v", tc.saved, tc.target, got, tc.want)
			}
		})
	}
}

func TestBalance(t *testing.T) {
	got := Balance(Money{Cents: 100000}, Money{Cents: 20000}, Money{Cents: 10000})
	if got.Cents != 70000 {
		t.Fatalf("Balance = %d, want 70000", got.Cents)
	}
	neg := Balance(Money{}, Money{Cents: 500}, Money{})
	if neg.Cents != -500 {
		t.Fatalf("Balance can go negative, got %d", neg.Cents)
	}
}
