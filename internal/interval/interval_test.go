package interval

import (
	"errors"
	"testing"
	"time"
)

func at(t *testing.T, hhmm string) time.Time {
	t.Helper()
	out, err := time.Parse("2006-01-02 15:04", "2026-03-02 "+hhmm)
	if err != nil {
		t.Fatalf("parse time: %v", err)
	}
	return out
}

func mustInterval(t *testing.T, start, end string) Interval {
	t.Helper()
	iv, err := New(at(t, start), at(t, end))
	if err != nil {
		t.Fatalf("new interval %s-%s: %v", start, end, err)
	}
	return iv
}

func TestNewRejectsInvertedAndEmpty(t *testing.T) {
	if _, err := New(at(t, "10:00"), at(t, "09:00")); !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval for inverted span, got %v", err)
	}
	if _, err := New(at(t, "10:00"), at(t, "10:00")); !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval for empty span, got %v", err)
	}
	if _, err := New(time.Time{}, at(t, "10:00")); !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval for missing start, got %v", err)
	}
}

func TestOverlapsIsSymmetricAndHalfOpen(t *testing.T) {
	cases := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"partial", mustInterval(t, "09:00", "10:00"), mustInterval(t, "09:30", "10:30"), true},
		{"touching", mustInterval(t, "09:00", "10:00"), mustInterval(t, "10:00", "11:00"), false},
		{"contained", mustInterval(t, "09:00", "12:00"), mustInterval(t, "10:00", "10:15"), true},
		{"disjoint", mustInterval(t, "08:00", "08:30"), mustInterval(t, "09:00", "09:30"), false},
		{"self", mustInterval(t, "09:00", "10:00"), mustInterval(t, "09:00", "10:00"), true},
	}
	for _, tc := range cases {
		if got := Overlaps(tc.a, tc.b); got != tc.want {
			t.Fatalf("%s: Overlaps(a,b)=%v want %v", tc.name, got, tc.want)
		}
		if Overlaps(tc.a, tc.b) != Overlaps(tc.b, tc.a) {
			t.Fatalf("%s: overlap is not symmetric", tc.name)
		}
	}
}

func TestOverlapMinutes(t *testing.T) {
	a := mustInterval(t, "09:00", "10:00")
	b := mustInterval(t, "09:30", "10:30")
	if got := OverlapMinutes(a, b); got != 30 {
		t.Fatalf("overlap minutes = %d, want 30", got)
	}
	if got := OverlapMinutes(a, mustInterval(t, "11:00", "12:00")); got != 0 {
		t.Fatalf("disjoint overlap minutes = %d, want 0", got)
	}
}

func TestGapMinutes(t *testing.T) {
	gap, ok := GapMinutes(mustInterval(t, "09:00", "10:00"), mustInterval(t, "10:45", "11:30"))
	if !ok || gap != 45 {
		t.Fatalf("gap = %d ok=%v, want 45 true", gap, ok)
	}
	if _, ok := GapMinutes(mustInterval(t, "09:00", "10:00"), mustInterval(t, "09:30", "11:00")); ok {
		t.Fatal("expected undefined gap for overlapping intervals")
	}
	gap, ok = GapMinutes(mustInterval(t, "09:00", "10:00"), mustInterval(t, "10:00", "11:00"))
	if !ok || gap != 0 {
		t.Fatalf("touching gap = %d ok=%v, want 0 true", gap, ok)
	}
}

func TestDurationMinutes(t *testing.T) {
	got, err := DurationMinutes(mustInterval(t, "09:00", "10:15"))
	if err != nil || got != 75 {
		t.Fatalf("duration = %d err=%v, want 75", got, err)
	}
	if _, err := DurationMinutes(Interval{Start: at(t, "10:00"), End: at(t, "09:00")}); !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval, got %v", err)
	}
}
