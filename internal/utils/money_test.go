package utils

import "testing"

func TestFormatINR(t *testing.T) {
	cases := map[int64]string{
		0:        "Rs 0",
		999:      "Rs 999",
		1000:     "Rs 1,000",
		50000:    "Rs 50,000",
		100000:   "Rs 1,00,000",
		12345678: "Rs 1,23,45,678",
	}
	for in, want := range cases {
		if got := FormatINR(in); got != want {
			t.Errorf("FormatINR(%d) = %q, want %q", in, got, want)
		}
	}
	if got := FormatINR(-1000); got != "-Rs 1,000" {
		t.Errorf("FormatINR(-1000) = %q", got)
	}
}

func TestParseINR(t *testing.T) {
	for _, in := range []string{"Rs 1,00,000", "rs 100000", "100000", " 1,00,000 "} {
		got, err := ParseINR(in)
		if err != nil {
			t.Fatalf("ParseINR(%q) error: %v", in, err)
		}
		if got != 100000 {
			t.Fatalf("ParseINR(%q) = %d, want 100000", in, got)
		}
	}
	if _, err := ParseINR("Rs "); err == nil {
		t.Fatal("empty amount should fail")
	}
}

func TestPercentOf(t *testing.T) {
	if got := PercentOf(100000, 30); got != 30000 {
		t.Fatalf("PercentOf(100000, 30) = %d", got)
	}
	if got := PercentOf(100000, 12.5); got != 12500 {
		t.Fatalf("PercentOf(100000, 12.5) = %d", got)
	}
	// Rounds to nearest rupee.
	if got := PercentOf(333, 10); got != 33 {
		t.Fatalf("PercentOf(333, 10) = %d", got)
	}
}
