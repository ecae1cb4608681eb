package timex

import (
	"testing"
	"time"
)

func TestAppendISO(t *testing.T) {
	ts := time.Date(2024, time.March, 7, 9, 5, 3, 999, time.UTC)
	if got, want := ISO(ts), "2024-03-07 09:05:03"; got != want {
		t.Fatalf("ISO = %q, want %q", got, want)
	}
	if got := ISO(time.Time{}); got != ZeroISO {
		t.Fatalf("ISO(zero) = %q, want %q", got, ZeroISO)
	}
}

func TestParseISORoundTrip(t *testing.T) {
	ts := time.Date(2025, time.December, 31, 23, 59, 58, 0, time.UTC)
	got, err := ParseISO(ISO(ts))
	if err != nil {
		t.Fatalf("ParseISO error: %v", err)
	}
	if !got.Equal(ts) {
		t.Fatalf("ParseISO = %v, want %v", got, ts)
	}
	z, err := ParseISO(ZeroISO)
	if err != nil || !z.IsZero() {
		t.Fatalf("ParseISO(zero) = %v, %v", z, err)
	}
}

func TestParseISORejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "2024-03-07", "2024-13-07 09:05:03", "2024-03-07T09:05:03", "20x4-03-07 09:05:03"} {
		if _, err := ParseISO(s); err == nil {
			t.Fatalf("ParseISO(%q) should fail", s)
		}
	}
}

func TestAppendISOWritesUTC(t *testing.T) {
	cest := time.FixedZone("CEST", 2*60*60)
	ts := time.Date(2024, time.May, 1, 14, 10, 0, 0, cest)
	if got, want := ISO(ts), "2024-05-01 12:10:00"; got != want {
		t.Fatalf("ISO = %q, want %q", got, want)
	}
	got, err := ParseISO(ISO(ts))
	if err != nil || !got.Equal(ts) {
		t.Fatalf("ParseISO = %v, %v, want %v", got, err, ts)
	}
}
