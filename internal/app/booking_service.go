package app

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/qurbani/share-reservations/internal/domain"
)

type BookingRepository interface {
	GetBooking(ctx context.Context, bookingID string) (domain.Booking, error)
	ListByAnimal(ctx context.Context, animalID string) ([]domain.Booking, error)
	ListBySession(ctx context.Context, sessionID string) ([]domain.Booking, error)
	UpdateStatus(ctx context.Context, bookingID string, from, to domain.BookingStatus) error
}

// BookingService is the back-office view of durable bookings.
type BookingService struct {
	repo   BookingRepository
	engine *Engine
	logger *zap.Logger
}

func NewBookingService(repo BookingRepository, engine *Engine, logger *zap.Logger) *BookingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingService{repo: repo, engine: engine, logger: logger}
}

func (s *BookingService) ListForAnimal(ctx context.Context, animalID string) ([]domain.Booking, error) {
	if animalID == "" {
		return nil, domain.ErrInvalidID
	}
	return s.repo.ListByAnimal(ctx, animalID)
}

func (s *BookingService) ListForSession(ctx context.Context, sessionID string) ([]domain.Booking, error) {
	if sessionID == "" {
		return nil, domain.ErrSessionRequired
	}
	return s.repo.ListBySession(ctx, sessionID)
}

// UpdateStatus applies a back-office transition. Cancelling returns the
// booking's shares to the animal.
func (s *BookingService) UpdateStatus(ctx context.Context, bookingID string, next domain.BookingStatus) (domain.Booking, error) {
	if bookingID == "" {
		return domain.Booking{}, domain.ErrInvalidID
	}
	if !next.Valid() {
		return domain.Booking{}, domain.ErrInvalidStatus
	}
	b, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return domain.Booking{}, err
	}
	if !b.Status.CanTransitionTo(next) {
		return domain.Booking{}, domain.ErrInvalidTransition
	}
	if err := s.repo.UpdateStatus(ctx, bookingID, b.Status, next); err != nil {
		return domain.Booking{}, err
	}
	prev := b.Status
	b.Status = next

	if next != domain.BookingStatusCancelled {
		return b, nil
	}
	if err := s.engine.returnShares(context.WithoutCancel(ctx), b.AnimalID, b.Shares); err != nil {
		s.logger.Error("return cancelled shares failed",
			zap.String("booking_id", bookingID),
			zap.String("animal_id", b.AnimalID),
			zap.Int("shares", b.Shares),
			zap.Error(err),
		)
		if rerr := s.repo.UpdateStatus(context.WithoutCancel(ctx), bookingID, next, prev); rerr != nil {
			err = errors.Join(err, rerr)
		}
		return domain.Booking{}, &domain.SystemError{Op: "cancel booking", Err: err}
	}
	s.logger.Info("booking cancelled",
		zap.String("booking_id", bookingID),
		zap.String("animal_id", b.AnimalID),
		zap.Int("shares", b.Shares),
	)
	return b, nil
}
