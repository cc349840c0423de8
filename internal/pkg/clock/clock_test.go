package clock

import (
	"testing"
	"time"
)

func TestStartOfDayUsesLocation(t *testing.T) {
	sp := time.FixedZone("BRT", -3*60*60)
	// 01:30 UTC is still the previous day in UTC-3
	at := time.Date(2026, 3, 10, 1, 30, 0, 0, time.UTC)

	got := StartOfDay(at, sp)
	want := time.Date(2026, 3, 9, 0, 0, 0, 0, sp)
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestManualAdvance(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewManual(start)
	m.Advance(36 * time.Hour)
	if !m.Now().Equal(start.Add(36 * time.Hour)) {
		t.Fatalf("unexpected now %s", m.Now())
	}
}
