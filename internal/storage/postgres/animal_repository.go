package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/qurbani/share-reservations/internal/domain"
)

const animalColumns = `id, name, category, breed, weight_kg, age, price, price_per_share, image_url,
total_shares, booked_shares, version, created_at`

type AnimalRepository struct {
	conn
}

func NewAnimalRepository(pool *pgxpool.Pool) *AnimalRepository {
	return &AnimalRepository{conn: conn{pool: pool}}
}

func (r *AnimalRepository) CreateAnimal(ctx context.Context, a domain.Animal) error {
	const stmt = `
INSERT INTO animals (id, name, category, breed, weight_kg, age, price, price_per_share, image_url,
	total_shares, booked_shares, version, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	if a.Version == 0 {
		a.Version = 1
	}
	_, err := r.exec(ctx, stmt,
		a.ID, a.Name, a.Category, a.Breed, a.WeightKg, a.Age, a.Price, a.PricePerShare, a.ImageURL,
		a.TotalShares, a.BookedShares, a.Version, a.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isCheckViolation(err) {
			return domain.ErrInvalidTotalShares
		}
		return fmt.Errorf("create animal: %w", err)
	}
	return nil
}

func (r *AnimalRepository) GetAnimal(ctx context.Context, id string) (domain.Animal, error) {
	query := `SELECT ` + animalColumns + ` FROM animals WHERE id = $1`
	a, err := scanAnimal(r.queryRow(ctx, query, id))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Animal{}, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Animal{}, domain.ErrAnimalNotFound
		}
		return domain.Animal{}, fmt.Errorf("get animal: %w", err)
	}
	return a, nil
}

func (r *AnimalRepository) ListAnimals(ctx context.Context) ([]domain.Animal, error) {
	query := `SELECT ` + animalColumns + ` FROM animals ORDER BY created_at, id`
	rows, err := r.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list animals: %w", err)
	}
	defer rows.Close()

	animals := []domain.Animal{}
	for rows.Next() {
		a, err := scanAnimal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan animal: %w", err)
		}
		animals = append(animals, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list animals: %w", err)
	}
	return animals, nil
}

// UpdateAnimal rewrites the catalogue columns and bumps the version, leaving
// the share counters alone.
func (r *AnimalRepository) UpdateAnimal(ctx context.Context, a domain.Animal) (domain.Animal, error) {
	stmt := `
UPDATE animals
SET name = $2, category = $3, breed = $4, weight_kg = $5, age = $6, price = $7,
	price_per_share = $8, image_url = $9, version = version + 1
WHERE id = $1
RETURNING ` + animalColumns

	updated, err := scanAnimal(r.queryRow(ctx, stmt,
		a.ID, a.Name, a.Category, a.Breed, a.WeightKg, a.Age, a.Price, a.PricePerShare, a.ImageURL))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Animal{}, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Animal{}, domain.ErrAnimalNotFound
		}
		return domain.Animal{}, fmt.Errorf("update animal: %w", err)
	}
	return updated, nil
}

// TryIncrementBooked applies delta in one conditional UPDATE. When no row
// matches, the current row is read back to tell a missing animal, a capacity
// breach and a stale version apart. ErrExceeded wins over ErrConflict.
func (r *AnimalRepository) TryIncrementBooked(ctx context.Context, id string, delta int, expectedVersion int64) (int64, error) {
	if delta == 0 {
		return 0, domain.ErrInvalidShares
	}

	const stmt = `
UPDATE animals
SET booked_shares = booked_shares + $2, version = version + 1
WHERE id = $1 AND version = $3 AND booked_shares + $2 BETWEEN 0 AND total_shares
RETURNING version`

	var version int64
	err := r.queryRow(ctx, stmt, id, delta, expectedVersion).Scan(&version)
	if err == nil {
		return version, nil
	}
	if isInvalidUUID(err) {
		return 0, domain.ErrInvalidID
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("increment booked shares: %w", err)
	}

	const current = `SELECT booked_shares, total_shares FROM animals WHERE id = $1`
	var booked, total int
	if err := r.queryRow(ctx, current, id).Scan(&booked, &total); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrAnimalNotFound
		}
		return 0, fmt.Errorf("read booked shares: %w", err)
	}
	switch next := booked + delta; {
	case next > total:
		return 0, domain.ErrExceeded
	case next < 0:
		return 0, fmt.Errorf("booked shares of %s would drop below zero: %w", id, domain.ErrInvalidShares)
	default:
		return 0, domain.ErrConflict
	}
}

// DeleteAnimal removes an animal with no booked shares. Cancelled bookings
// go with it; any other booking blocks the delete.
func (r *AnimalRepository) DeleteAnimal(ctx context.Context, id string) error {
	return withTx(ctx, r.pool, func(ctx context.Context) error {
		var booked int
		err := r.queryRow(ctx, `SELECT booked_shares FROM animals WHERE id = $1 FOR UPDATE`, id).Scan(&booked)
		if err != nil {
			if isInvalidUUID(err) {
				return domain.ErrInvalidID
			}
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrAnimalNotFound
			}
			return fmt.Errorf("lock animal: %w", err)
		}
		if booked > 0 {
			return domain.ErrAnimalHasBookings
		}

		if _, err := r.exec(ctx, `DELETE FROM bookings WHERE animal_id = $1 AND status = 'cancelled'`, id); err != nil {
			return fmt.Errorf("delete cancelled bookings: %w", err)
		}
		if _, err := r.exec(ctx, `DELETE FROM animals WHERE id = $1`, id); err != nil {
			if isForeignKeyViolation(err) {
				return domain.ErrAnimalHasBookings
			}
			return fmt.Errorf("delete animal: %w", err)
		}
		return nil
	})
}

func scanAnimal(row pgx.Row) (domain.Animal, error) {
	var a domain.Animal
	err := row.Scan(&a.ID, &a.Name, &a.Category, &a.Breed, &a.WeightKg, &a.Age, &a.Price, &a.PricePerShare,
		&a.ImageURL, &a.TotalShares, &a.BookedShares, &a.Version, &a.CreatedAt)
	return a, err
}
