package clock

import (
	"testing"
	"time"
)

func TestManual_Advance(t *testing.T) {
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.FixedZone("PKT", 5*3600))
	m := NewManual(start)

	if !m.Now().Equal(start) {
		t.Fatalf("expected %v, got %v", start, m.Now())
	}
	if m.Now().Location() != time.UTC {
		t.Fatalf("expected UTC clock")
	}

	m.Advance(16 * time.Minute)
	if got := m.Now().Sub(start); got != 16*time.Minute {
		t.Fatalf("expected 16m elapsed, got %v", got)
	}
}

func TestFixed_DoesNotMove(t *testing.T) {
	at := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	c := NewFixed(at)
	if !c.Now().Equal(at) || !c.Now().Equal(c.Now()) {
		t.Fatalf("expected fixed instant %v", at)
	}
}
