package id

import (
	"testing"

	clierr "github.com/ggonzalez94/awaken-cli/internal/errors"
)

func TestToRaw(t *testing.T) {
	cases := []struct {
		human    string
		decimals int
		want     string
	}{
		{"1", 8, "100000000"},
		{"0.00000001", 8, "1"},
		{"0", 8, "0"},
		{"1.999999999", 8, "199999999"},
		{"123456789012345678901234567890.5", 18, "123456789012345678901234567890500000000000000000"},
		{"42", 0, "42"},
		{"0.9", 0, "0"},
	}
	for _, tc := range cases {
		got, err := ToRaw(tc.human, tc.decimals)
		if err != nil {
			t.Fatalf("ToRaw(%q, %d) failed: %v", tc.human, tc.decimals, err)
		}
		if got != tc.want {
			t.Fatalf("ToRaw(%q, %d) = %s, want %s", tc.human, tc.decimals, got, tc.want)
		}
	}
}

func TestToHuman(t *testing.T) {
	cases := []struct {
		raw      string
		decimals int
		want     string
	}{
		{"100000000", 8, "1"},
		{"500000", 6, "0.5"},
		{"0", 18, "0"},
		{"1", 18, "0.000000000000000001"},
		{"150000000", 8, "1.5"},
	}
	for _, tc := range cases {
		got, err := ToHuman(tc.raw, tc.decimals)
		if err != nil {
			t.Fatalf("ToHuman(%q, %d) failed: %v", tc.raw, tc.decimals, err)
		}
		if got != tc.want {
			t.Fatalf("ToHuman(%q, %d) = %s, want %s", tc.raw, tc.decimals, got, tc.want)
		}
	}
}

func TestRoundTripTruncatesToDecimals(t *testing.T) {
	cases := map[string]string{
		"1.123456789": "1.12345678",
		"1.50":        "1.5",
		"0.000000001": "0",
		"7":           "7",
	}
	for in, want := range cases {
		raw, err := ToRaw(in, 8)
		if err != nil {
			t.Fatalf("ToRaw failed: %v", err)
		}
		got, err := ToHuman(raw, 8)
		if err != nil {
			t.Fatalf("ToHuman failed: %v", err)
		}
		if got != want {
			t.Fatalf("round trip %s = %s, want %s", in, got, want)
		}
		back, _ := ToRaw(got, 8)
		if back != raw {
			t.Fatalf("raw -> human -> raw not exact: %s vs %s", back, raw)
		}
	}
}

func TestConverterRejectsBadInput(t *testing.T) {
	if _, err := ToRaw("abc", 8); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := ToRaw("-1", 8); err == nil {
		t.Fatal("expected negative amount error")
	}
	if _, err := ToHuman("1", -1); err == nil {
		t.Fatal("expected negative decimals error")
	}
	for _, in := range []string{"1e2000000000", "1E5", "2.5e-3"} {
		if _, err := ToRaw(in, 8); !clierr.Is(err, clierr.CodeUsage) {
			t.Fatalf("expected usage error for %q, got %v", in, err)
		}
	}
	if _, err := ScaleRaw("1e2000000000", 2); err == nil {
		t.Fatal("expected exponent error from ScaleRaw")
	}
}

func TestRequirePositive(t *testing.T) {
	if err := RequirePositive("0.5", "amount"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, in := range []string{"0", "0.000", "-1", "abc", "1e9"} {
		if err := RequirePositive(in, "amount"); !clierr.Is(err, clierr.CodeUsage) {
			t.Fatalf("expected usage error for %q, got %v", in, err)
		}
	}
}

func TestNormalizeAmount(t *testing.T) {
	base, human, err := NormalizeAmount("", "1.25", 6)
	if err != nil {
		t.Fatalf("NormalizeAmount failed: %v", err)
	}
	if base != "1250000" || human != "1.25" {
		t.Fatalf("unexpected result: base=%s human=%s", base, human)
	}
	base, human, err = NormalizeAmount("1000000", "", 6)
	if err != nil {
		t.Fatalf("NormalizeAmount failed: %v", err)
	}
	if base != "1000000" || human != "1" {
		t.Fatalf("unexpected result: base=%s human=%s", base, human)
	}
	if _, _, err := NormalizeAmount("10", "1", 6); err == nil {
		t.Fatal("expected mutual exclusivity error")
	}
	if _, _, err := NormalizeAmount("1.5", "", 6); err == nil {
		t.Fatal("expected integer raw error")
	}
}

func TestScaleAndCompareRaw(t *testing.T) {
	got, err := ScaleRaw("150", 10)
	if err != nil || got != "1500" {
		t.Fatalf("ScaleRaw = %s, %v", got, err)
	}
	cmp, err := CompareRaw("", "1")
	if err != nil || cmp != -1 {
		t.Fatalf("CompareRaw = %d, %v", cmp, err)
	}
	cmp, _ = CompareRaw("100000000000000000000000", "99999999999999999999999")
	if cmp != 1 {
		t.Fatalf("expected large comparison to be 1, got %d", cmp)
	}
}
