package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/qurbani/share-reservations/internal/domain"
)

const bookingColumns = `id, animal_id, animal_name, session_id, shares, price_per_share, total_price,
buyer_name, buyer_email, buyer_phone, buyer_address, buyer_notes, status, submission_key, created_at`

type BookingRepository struct {
	conn
}

func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{conn: conn{pool: pool}}
}

// CreateBookings inserts all bookings in one transaction or none of them.
func (r *BookingRepository) CreateBookings(ctx context.Context, bookings []domain.Booking) error {
	const stmt = `
INSERT INTO bookings (` + bookingColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	return withTx(ctx, r.pool, func(ctx context.Context) error {
		for _, b := range bookings {
			_, err := r.exec(ctx, stmt,
				b.ID, b.AnimalID, b.AnimalName, b.SessionID, b.Shares, b.PricePerShare, b.TotalPrice,
				b.Buyer.FullName, b.Buyer.Email, b.Buyer.Phone, b.Buyer.Address, b.Buyer.Notes,
				string(b.Status), b.SubmissionKey, b.CreatedAt)
			if err != nil {
				switch {
				case isUniqueViolation(err):
					return domain.ErrIdempotencyConflict
				case isInvalidUUID(err):
					return domain.ErrInvalidID
				case isForeignKeyViolation(err):
					return domain.ErrAnimalNotFound
				}
				return fmt.Errorf("insert booking: %w", err)
			}
		}
		return nil
	})
}

func (r *BookingRepository) GetBooking(ctx context.Context, id string) (domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	b, err := scanBooking(r.queryRow(ctx, query, id))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Booking{}, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Booking{}, domain.ErrBookingNotFound
		}
		return domain.Booking{}, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

// ListBySubmission returns the bookings one checkout created, ordered by
// animal id like the commit lines.
func (r *BookingRepository) ListBySubmission(ctx context.Context, key string) ([]domain.Booking, error) {
	if key == "" {
		return []domain.Booking{}, nil
	}
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE submission_key = $1 ORDER BY animal_id, id`
	return r.list(ctx, query, key)
}

func (r *BookingRepository) ListByAnimal(ctx context.Context, animalID string) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE animal_id = $1 ORDER BY created_at, id`
	return r.list(ctx, query, animalID)
}

func (r *BookingRepository) ListBySession(ctx context.Context, sessionID string) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE session_id = $1 ORDER BY created_at, id`
	return r.list(ctx, query, sessionID)
}

// UpdateStatus moves a booking from one status to another. The write only
// lands if the stored status still equals from.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id string, from, to domain.BookingStatus) error {
	const stmt = `UPDATE bookings SET status = $3 WHERE id = $1 AND status = $2`
	tag, err := r.exec(ctx, stmt, id, string(from), string(to))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("update booking status: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	if _, err := r.GetBooking(ctx, id); err != nil {
		return err
	}
	return domain.ErrInvalidTransition
}

func (r *BookingRepository) list(ctx context.Context, query string, args ...any) ([]domain.Booking, error) {
	rows, err := r.query(ctx, query, args...)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	bookings := []domain.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, nil
}

func scanBooking(row pgx.Row) (domain.Booking, error) {
	var (
		b      domain.Booking
		status string
	)
	err := row.Scan(&b.ID, &b.AnimalID, &b.AnimalName, &b.SessionID, &b.Shares, &b.PricePerShare, &b.TotalPrice,
		&b.Buyer.FullName, &b.Buyer.Email, &b.Buyer.Phone, &b.Buyer.Address, &b.Buyer.Notes,
		&status, &b.SubmissionKey, &b.CreatedAt)
	b.Status = domain.BookingStatus(status)
	return b, err
}
