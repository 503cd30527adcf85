package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCompleted, BookingStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo lists the back-office status moves. Completed and cancelled are terminal.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	switch s {
	case BookingStatusPending:
		return next == BookingStatusConfirmed || next == BookingStatusCancelled
	case BookingStatusConfirmed:
		return next == BookingStatusCompleted || next == BookingStatusCancelled
	default:
		return false
	}
}

// Booking is the durable record of shares committed by a buyer on one animal.
type Booking struct {
	ID            string
	AnimalID      string
	AnimalName    string
	SessionID     string
	Shares        int
	PricePerShare int64
	TotalPrice    int64
	Buyer         Buyer
	Status        BookingStatus
	SubmissionKey string
	CreatedAt     time.Time
}

type LineStatus string

const (
	LineCommitted  LineStatus = "committed"
	LineExceeded   LineStatus = "exceeded"
	LineRolledBack LineStatus = "rolled_back"
	LineSkipped    LineStatus = "skipped"
)

// LineResult is the per-animal outcome of a commit.
type LineResult struct {
	AnimalID  string
	Shares    int
	Status    LineStatus
	Available int
}
