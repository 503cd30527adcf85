package domain

import "time"

type HoldState string

const (
	HoldStateHeld       HoldState = "held"
	HoldStateCommitting HoldState = "committing"
)

// Hold is a short-lived reservation of shares by one session against one animal.
// At most one hold exists per (SessionID, AnimalID).
type Hold struct {
	SessionID string
	AnimalID  string
	Shares    int
	State     HoldState
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Active reports whether the hold still counts against availability at now.
// A hold being committed never lapses mid-commit.
func (h Hold) Active(now time.Time) bool {
	if h.State == HoldStateCommitting {
		return true
	}
	return h.ExpiresAt.After(now)
}
