// Package availability computes how many shares of an animal are free to hold.
package availability

import (
	"time"

	"github.com/qurbani/share-reservations/internal/domain"
)

// Snapshot is the availability of one animal at a point in time.
type Snapshot struct {
	AnimalID      string
	Total         int
	Booked        int
	Held          int
	HeldBySession int
	Available     int
}

// Available returns totalShares - bookedShares - the shares of every active hold
// not owned by excludingSession, clamped at zero. An empty excludingSession
// excludes nothing.
func Available(animal domain.Animal, holds []domain.Hold, excludingSession string, now time.Time) int {
	return Compute(animal, holds, excludingSession, now).Available
}

// Compute is Available with the intermediate sums kept for display.
func Compute(animal domain.Animal, holds []domain.Hold, excludingSession string, now time.Time) Snapshot {
	s := Snapshot{
		AnimalID: animal.ID,
		Total:    animal.TotalShares,
		Booked:   animal.BookedShares,
	}
	others := 0
	for _, h := range holds {
		if h.AnimalID != animal.ID || !h.Active(now) {
			continue
		}
		s.Held += h.Shares
		if excludingSession != "" && h.SessionID == excludingSession {
			s.HeldBySession += h.Shares
			continue
		}
		others += h.Shares
	}
	// Oversold state from an earlier bug degrades to sold out.
	s.Available = max(0, animal.TotalShares-animal.BookedShares-others)
	return s
}

// Check reports whether shares can be held for session on animal. On rejection
// it returns an *domain.InsufficientSharesError carrying the current availability.
func Check(animal domain.Animal, holds []domain.Hold, session string, shares int, now time.Time) error {
	avail := Available(animal, holds, session, now)
	if shares > avail {
		return &domain.InsufficientSharesError{
			AnimalID:  animal.ID,
			Requested: shares,
			Available: avail,
		}
	}
	return nil
}
