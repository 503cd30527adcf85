package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/qurbani/share-reservations/internal/domain"
)

// SubmissionRepository records idempotency keys for booking submissions.
type SubmissionRepository struct {
	conn
}

func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{conn: conn{pool: pool}}
}

// Begin claims key as pending. A key already on record is ErrIdempotencyConflict.
func (r *SubmissionRepository) Begin(ctx context.Context, sub domain.Submission) error {
	const stmt = `
INSERT INTO submissions (key, session_id, status, booking_ids, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5)`

	ids := sub.BookingIDs
	if ids == nil {
		ids = []string{}
	}
	_, err := r.exec(ctx, stmt, sub.Key, sub.SessionID, string(domain.SubmissionStatusPending), ids, sub.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrIdempotencyConflict
		}
		return fmt.Errorf("begin submission: %w", err)
	}
	return nil
}

// Get returns nil, nil when the key is unknown.
func (r *SubmissionRepository) Get(ctx context.Context, key string) (*domain.Submission, error) {
	const query = `
SELECT key, session_id, status, booking_ids, created_at, updated_at
FROM submissions
WHERE key = $1`

	var (
		s      domain.Submission
		status string
	)
	err := r.queryRow(ctx, query, key).Scan(&s.Key, &s.SessionID, &status, &s.BookingIDs, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get submission: %w", err)
	}
	s.Status = domain.SubmissionStatus(status)
	return &s, nil
}

func (r *SubmissionRepository) Complete(ctx context.Context, key string, bookingIDs []string, at time.Time) error {
	const stmt = `
UPDATE submissions
SET status = $2, booking_ids = $3, updated_at = $4
WHERE key = $1`

	if bookingIDs == nil {
		bookingIDs = []string{}
	}
	tag, err := r.exec(ctx, stmt, key, string(domain.SubmissionStatusCommitted), bookingIDs, at)
	if err != nil {
		return fmt.Errorf("complete submission: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSubmissionNotFound
	}
	return nil
}

// Discard forgets a pending key so the caller can retry with it. Committed
// keys are kept.
func (r *SubmissionRepository) Discard(ctx context.Context, key string) error {
	const stmt = `DELETE FROM submissions WHERE key = $1 AND status = $2`
	if _, err := r.exec(ctx, stmt, key, string(domain.SubmissionStatusPending)); err != nil {
		return fmt.Errorf("discard submission: %w", err)
	}
	return nil
}
