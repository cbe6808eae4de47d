package core

import "testing"

func TestParseAmountToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"S/. 1,250.50abc", 125050, true},
		{"$99", 9900, true},
		{"1,000", 100000, true}, // thousands separator stripped
		{"abc", 0, false},
		{"0", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"S/.", 0, false},
		{"-5", 0, false}, // sign never survives stripping into a positive amount
		{"-5.00", 0, false},
		{" -12.50", 0, false},
		{"S/. -8", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmountToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}
