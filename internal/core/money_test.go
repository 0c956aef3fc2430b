package core

import (
	"math"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{"12.344", 1234, true},
		{" 2.50 ", 250, true},
		{"12.5", 1250, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"1e3", 0, false},
		{"0", 0, false},
		{"0.004", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"1000000000", 100000000000, true},
		{"1000000000.01", 0, false},
		{"1000000000000000", 0, false},
		{"", 0, false},
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

func TestMoneyString(t *testing.T) {
	cases := map[int64]string{
		1250: "12.5",
		3000: "30",
		4250: "42.5",
		7:    "0.07",
		0:    "0",
	}
	for cents, want := range cases {
		if got := Cents(cents).String(); got != want {
			t.Fatalf("%d cents: expected %q, got %q", cents, want, got)
		}
	}
}

func TestMoneyAddSaturates(t *testing.T) {
	if got := Cents(1250).Add(Cents(3000)); got.Cents != 4250 {
		t.Fatalf("expected 4250, got %d", got.Cents)
	}
	if got := Cents(math.MaxInt64 - 1).Add(Cents(5)); got.Cents != math.MaxInt64 {
		t.Fatalf("expected saturation at MaxInt64, got %d", got.Cents)
	}
	if got := Cents(math.MinInt64 + 1).Add(Cents(-5)); got.Cents != math.MinInt64 {
		t.Fatalf("expected saturation at MinInt64, got %d", got.Cents)
	}
}
