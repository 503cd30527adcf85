package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrAnimalNotFound         = errors.New("animal not found")
	ErrHoldNotFound           = errors.New("hold not found")
	ErrNoActiveHolds          = errors.New("no active holds")
	ErrBookingNotFound        = errors.New("booking not found")
	ErrSubmissionNotFound     = errors.New("submission not found")
	ErrInsufficientShares     = errors.New("insufficient shares")
	ErrExceeded               = errors.New("shares exceeded")
	ErrConflict               = errors.New("version conflict")
	ErrRetryExhausted         = errors.New("conflict retry budget exhausted")
	ErrCommitInProgress       = errors.New("commit in progress")
	ErrInvalidShares          = errors.New("invalid shares")
	ErrInvalidID              = errors.New("invalid id")
	ErrSessionRequired        = errors.New("session id required")
	ErrIdempotencyKeyRequired = errors.New("idempotency key required")
	ErrIdempotencyConflict    = errors.New("idempotency conflict")
	ErrSubmissionInProgress   = errors.New("submission in progress")
	ErrBuyerDetailsRequired   = errors.New("buyer name, email, phone and address are required")
	ErrInvalidEmail           = errors.New("invalid email")
	ErrAnimalNameRequired     = errors.New("animal name required")
	ErrInvalidTotalShares     = errors.New("total shares must be positive")
	ErrInvalidPrice           = errors.New("price per share must be positive")
	ErrTotalSharesImmutable   = errors.New("total shares cannot change")
	ErrAnimalHasBookings      = errors.New("animal has bookings")
	ErrInvalidStatus          = errors.New("invalid booking status")
	ErrInvalidTransition      = errors.New("invalid booking status transition")
)

// Kind groups errors by how a caller should react to them.
type Kind int

const (
	// KindSystem is storage failure, exhausted retries or anything unclassified.
	KindSystem Kind = iota
	// KindInsufficientShares means the hold request exceeds current availability.
	KindInsufficientShares
	// KindExceeded means a commit lost the race for shares after a successful hold.
	KindExceeded
	// KindConflict is a transient optimistic-concurrency collision.
	KindConflict
	// KindNotFound means a referenced animal, hold or booking does not exist.
	KindNotFound
	// KindInvalid is a malformed request.
	KindInvalid
	// KindUnavailable is a state clash the caller can retry later (commit or submission in flight).
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindInsufficientShares:
		return "insufficient_shares"
	case KindExceeded:
		return "exceeded"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindInvalid:
		return "invalid"
	case KindUnavailable:
		return "unavailable"
	default:
		return "system"
	}
}

// UserCorrectable reports whether the buyer can fix the request and retry.
func (k Kind) UserCorrectable() bool {
	return k == KindInsufficientShares || k == KindExceeded
}

// KindOf classifies err. Unknown errors are KindSystem.
func KindOf(err error) Kind {
	var sysErr *SystemError
	switch {
	case err == nil:
		return KindSystem
	case errors.As(err, &sysErr):
		return KindSystem
	case errors.Is(err, ErrInsufficientShares):
		return KindInsufficientShares
	case errors.Is(err, ErrExceeded):
		return KindExceeded
	case errors.Is(err, ErrRetryExhausted):
		return KindSystem
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrAnimalNotFound),
		errors.Is(err, ErrHoldNotFound),
		errors.Is(err, ErrNoActiveHolds),
		errors.Is(err, ErrBookingNotFound),
		errors.Is(err, ErrSubmissionNotFound):
		return KindNotFound
	case errors.Is(err, ErrCommitInProgress),
		errors.Is(err, ErrSubmissionInProgress),
		errors.Is(err, ErrIdempotencyConflict),
		errors.Is(err, ErrAnimalHasBookings),
		errors.Is(err, ErrInvalidTransition):
		return KindUnavailable
	case errors.Is(err, ErrInvalidShares),
		errors.Is(err, ErrInvalidID),
		errors.Is(err, ErrSessionRequired),
		errors.Is(err, ErrIdempotencyKeyRequired),
		errors.Is(err, ErrBuyerDetailsRequired),
		errors.Is(err, ErrInvalidEmail),
		errors.Is(err, ErrAnimalNameRequired),
		errors.Is(err, ErrInvalidTotalShares),
		errors.Is(err, ErrInvalidPrice),
		errors.Is(err, ErrTotalSharesImmutable),
		errors.Is(err, ErrInvalidStatus):
		return KindInvalid
	default:
		return KindSystem
	}
}

// InsufficientSharesError carries the availability observed when a hold was rejected
// so the presentation layer can clamp the request.
type InsufficientSharesError struct {
	AnimalID  string
	Requested int
	Available int
}

func (e *InsufficientSharesError) Error() string {
	return fmt.Sprintf("insufficient shares for animal %s: requested %d, available %d", e.AnimalID, e.Requested, e.Available)
}

func (e *InsufficientSharesError) Unwrap() error {
	return ErrInsufficientShares
}

// CommitError reports an aborted commit line by line.
type CommitError struct {
	Lines []LineResult
}

func (e *CommitError) Error() string {
	var failed []string
	for _, l := range e.Lines {
		if l.Status == LineExceeded {
			failed = append(failed, l.AnimalID)
		}
	}
	return fmt.Sprintf("commit aborted: shares exceeded for %s", strings.Join(failed, ", "))
}

func (e *CommitError) Unwrap() error {
	return ErrExceeded
}

// SystemError wraps an infrastructure failure. Its message is for logs only.
type SystemError struct {
	Op  string
	Err error
}

func (e *SystemError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *SystemError) Unwrap() error {
	return e.Err
}
