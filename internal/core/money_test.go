package core

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1250.50", "1250.5", true},
		{"1,250.50", "1250.5", true},
		{"1250,5", "1250.5", true},
		{"1,250", "1250", true},
		{"0", "0", true},
		{"1.005", "1.01", true},
		{" 2.50 ", "2.5", true},
		{"-1", "", false},
		{"abc", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestFormatRupees(t *testing.T) {
	cases := map[string]string{
		"0":        "Rs 0.00",
		"999":      "Rs 999.00",
		"1250.5":   "Rs 1,250.50",
		"150000":   "Rs 150,000.00",
		"-2500.25": "-Rs 2,500.25",
	}
	for in, want := range cases {
		if got := FormatRupees(decimal.RequireFromString(in)); got != want {
			t.Fatalf("FormatRupees(%s) = %q, want %q", in, got, want)
		}
	}
}

func TestAmountsEncodeAsNumbers(t *testing.T) {
	b, err := json.Marshal(Broker{Name: "x", Commission: decimal.RequireFromString("4.5")})
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatal(err)
	}
	if _, ok := raw["commission"].(float64); !ok {
		t.Fatalf("commission encoded as %T", raw["commission"])
	}
}
