package domain

import "time"

type SubmissionStatus string

const (
	SubmissionStatusPending   SubmissionStatus = "pending"
	SubmissionStatusCommitted SubmissionStatus = "committed"
)

// Submission records the outcome of one idempotency key.
type Submission struct {
	Key        string
	SessionID  string
	Status     SubmissionStatus
	BookingIDs []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
