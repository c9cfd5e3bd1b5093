package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestAmountDecimal(t *testing.T) {
	cases := []struct {
		in  Amount
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.23", "1.23", true},
		{" 2.50 ", "2.5", true},
		{"", "0", true},
		{"-4", "-4", true},
		{"abc", "0", false},
		{"1.2.3", "0", false},
		{"12,34", "0", false},
	}
	for _, tc := range cases {
		got, err := tc.in.Decimal()
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("%q expected ErrInvalidAmount, got %v", tc.in, err)
		}
	}
}

func TestFormatUSD(t *testing.T) {
	cases := map[string]string{
		"0":        "$0.00",
		"49.5":     "$49.50",
		"-20":      "-$20.00",
		"1234.56":  "$1,234.56",
		"1000000":  "$1,000,000.00",
		"0.005":    "$0.01",
		"-1234.5":  "-$1,234.50",
		"-0.001":   "-$0.00",
		"-0":       "$0.00",

		"92233720368547758.07":  "$92,233,720,368,547,758.07",
		"92233720368547758.08":  "$92,233,720,368,547,758.08",
		"1e20":                  "$100,000,000,000,000,000,000.00",
		"-123456789012345678":   "-$123,456,789,012,345,678.00",
		"1234567890123456789.5": "$1,234,567,890,123,456,789.50",
	}
	for in, want := range cases {
		if got := FormatUSD(decimal.RequireFromString(in)); got != want {
			t.Fatalf("FormatUSD(%s) = %q, want %q", in, got, want)
		}
	}
}

func TestCentsRange(t *testing.T) {
	cases := []struct {
		in    string
		cents int64
		ok    bool
	}{
		{"12.345", 1235, true},
		{"-20", -2000, true},
		{"92233720368547758.07", 9223372036854775807, true},
		{"92233720368547758.08", 0, false},
		{"-1e20", 0, false},
	}
	for _, tc := range cases {
		got, ok := Cents(decimal.RequireFromString(tc.in))
		if ok != tc.ok || got != tc.cents {
			t.Fatalf("Cents(%s) = %d, %v; want %d, %v", tc.in, got, ok, tc.cents, tc.ok)
		}
	}
}
