package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/qurbani/share-reservations/internal/availability"
	"github.com/qurbani/share-reservations/internal/clock"
	"github.com/qurbani/share-reservations/internal/domain"
	"github.com/qurbani/share-reservations/internal/ledger"
	"github.com/qurbani/share-reservations/internal/obs"
)

const tracerName = "github.com/qurbani/share-reservations/internal/app"

// AnimalStore is the durable share counter. TryIncrementBooked is the only
// mutation; it fails with domain.ErrConflict on a stale version and
// domain.ErrExceeded when the delta would overrun total shares.
type AnimalStore interface {
	GetAnimal(ctx context.Context, animalID string) (domain.Animal, error)
	TryIncrementBooked(ctx context.Context, animalID string, delta int, expectedVersion int64) (int64, error)
}

type BookingWriter interface {
	CreateBookings(ctx context.Context, bookings []domain.Booking) error
}

// Engine orchestrates holds and the all-or-nothing commit of a session's cart.
type Engine struct {
	animals    AnimalStore
	bookings   BookingWriter
	ledger     *ledger.Ledger
	clock      clock.Clock
	logger     *zap.Logger
	metrics    *obs.Metrics
	tracer     trace.Tracer
	maxRetries int
	// returnRetries bounds decrements that hand shares back (compensation,
	// cancellation); giving up there strands shares with no booking behind them.
	returnRetries int
}

const (
	DefaultMaxRetries    = 5
	DefaultReturnRetries = 50
)

type EngineOption func(*Engine)

// WithMaxRetries bounds how often one animal's increment is retried after a version conflict.
func WithMaxRetries(n int) EngineOption {
	return func(e *Engine) {
		if n >= 0 {
			e.maxRetries = n
		}
	}
}

// WithReturnRetries bounds the conflict retries of decrements that give shares back.
func WithReturnRetries(n int) EngineOption {
	return func(e *Engine) {
		if n >= 0 {
			e.returnRetries = n
		}
	}
}

func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

func WithMetrics(m *obs.Metrics) EngineOption {
	return func(e *Engine) {
		e.metrics = m
	}
}

func NewEngine(animals AnimalStore, bookings BookingWriter, l *ledger.Ledger, clk clock.Clock, opts ...EngineOption) *Engine {
	e := &Engine{
		animals:       animals,
		bookings:      bookings,
		ledger:        l,
		clock:         clk,
		logger:        zap.NewNop(),
		tracer:        otel.Tracer(tracerName),
		maxRetries:    DefaultMaxRetries,
		returnRetries: DefaultReturnRetries,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Available reports the animal's free shares. With a session id the
// session's own hold is excluded, so the figure is what that session may hold.
func (e *Engine) Available(ctx context.Context, animalID, sessionID string) (availability.Snapshot, error) {
	if animalID == "" {
		return availability.Snapshot{}, domain.ErrInvalidID
	}
	snap, err := e.ledger.Snapshot(ctx, animalID, sessionID)
	if err != nil {
		return availability.Snapshot{}, e.systemError("available", err)
	}
	return snap, nil
}

// ModifyHold sets the session's hold on an animal to shares. Zero releases
// the hold. A rejected request leaves the previous hold untouched.
func (e *Engine) ModifyHold(ctx context.Context, sessionID, animalID string, shares int) (domain.Hold, error) {
	start := time.Now()
	defer e.metrics.ObserveLatency("hold", start)

	if shares < 0 {
		return domain.Hold{}, domain.ErrInvalidShares
	}
	if shares == 0 {
		if _, err := e.animals.GetAnimal(ctx, animalID); err != nil {
			return domain.Hold{}, e.systemError("modify hold", err)
		}
		return domain.Hold{}, e.ReleaseHold(ctx, sessionID, animalID)
	}

	h, err := e.ledger.Hold(ctx, sessionID, animalID, shares)
	switch {
	case err == nil:
		e.metrics.IncHold("held")
	case errors.Is(err, domain.ErrInsufficientShares):
		e.metrics.IncHold("insufficient")
	default:
		e.metrics.IncHold("error")
	}
	if err != nil {
		return domain.Hold{}, e.systemError("modify hold", err)
	}
	return h, nil
}

// ReleaseHold drops the session's hold on an animal; a missing hold is not an error.
func (e *Engine) ReleaseHold(_ context.Context, sessionID, animalID string) error {
	if animalID == "" {
		return domain.ErrInvalidID
	}
	if err := e.ledger.Release(sessionID, animalID); err != nil {
		return err
	}
	e.metrics.IncHold("released")
	return nil
}

// Cart lists the session's active holds ordered by animal id.
func (e *Engine) Cart(_ context.Context, sessionID string) ([]domain.Hold, error) {
	if sessionID == "" {
		return nil, domain.ErrSessionRequired
	}
	return e.ledger.SessionHolds(sessionID), nil
}

type CommitResult struct {
	Bookings []domain.Booking
	Lines    []domain.LineResult
}

// Commit converts every active hold of the session into a confirmed booking,
// or none of them. When an animal sold out since it was held the error is a
// *domain.CommitError and the result still carries the per-line outcome.
func (e *Engine) Commit(ctx context.Context, sessionID string, buyer domain.Buyer) (CommitResult, error) {
	buyer = buyer.Normalize()
	if err := buyer.Validate(); err != nil {
		return CommitResult{}, err
	}
	return e.commit(ctx, sessionID, buyer, "")
}

func (e *Engine) commit(ctx context.Context, sessionID string, buyer domain.Buyer, submissionKey string) (res CommitResult, err error) {
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, "engine.commit", trace.WithAttributes(
		attribute.String("session.id", sessionID),
	))
	defer func() {
		e.metrics.ObserveLatency("commit", start)
		switch {
		case err == nil:
			e.metrics.IncCommit("committed")
		case errors.Is(err, domain.ErrExceeded):
			e.metrics.IncCommit("exceeded")
		default:
			e.metrics.IncCommit("error")
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, domain.KindOf(err).String())
		}
		span.End()
	}()

	holds, err := e.ledger.BeginCommit(sessionID)
	if err != nil {
		return CommitResult{}, err
	}
	span.SetAttributes(attribute.Int("commit.lines", len(holds)))

	lines := make([]domain.LineResult, len(holds))
	for i, h := range holds {
		lines[i] = domain.LineResult{AnimalID: h.AnimalID, Shares: h.Shares, Status: domain.LineSkipped}
	}
	animals := make([]domain.Animal, len(holds))

	for i, h := range holds {
		a, incErr := e.increment(ctx, h.AnimalID, h.Shares, e.maxRetries)
		if incErr == nil {
			animals[i] = a
			lines[i].Status = domain.LineCommitted
			continue
		}

		exceeded := errors.Is(incErr, domain.ErrExceeded)
		if exceeded {
			lines[i].Status = domain.LineExceeded
			lines[i].Available = e.availableFor(ctx, h.AnimalID, sessionID)
			e.classifyUnattempted(ctx, sessionID, holds[i+1:], lines[i+1:])
		}
		compErr := e.compensate(ctx, sessionID, holds[:i], lines[:i])
		e.ledger.AbortCommit(sessionID, holds)

		if compErr != nil {
			return CommitResult{Lines: lines}, &domain.SystemError{Op: "commit", Err: errors.Join(incErr, compErr)}
		}
		if exceeded {
			e.logger.Warn("commit aborted: shares exceeded",
				zap.String("session_id", sessionID),
				zap.String("animal_id", h.AnimalID),
				zap.Int("shares", h.Shares),
				zap.Int("available", lines[i].Available),
			)
			return CommitResult{Lines: lines}, &domain.CommitError{Lines: lines}
		}
		e.logger.Error("commit failed",
			zap.String("session_id", sessionID),
			zap.String("animal_id", h.AnimalID),
			zap.Int("shares", h.Shares),
			zap.Error(incErr),
		)
		return CommitResult{Lines: lines}, e.systemError("commit", incErr)
	}

	now := e.clock.Now()
	bookings := make([]domain.Booking, len(holds))
	for i, h := range holds {
		a := animals[i]
		bookings[i] = domain.Booking{
			ID:            newID(),
			AnimalID:      h.AnimalID,
			AnimalName:    a.Name,
			SessionID:     sessionID,
			Shares:        h.Shares,
			PricePerShare: a.PricePerShare,
			TotalPrice:    int64(h.Shares) * a.PricePerShare,
			Buyer:         buyer,
			Status:        domain.BookingStatusConfirmed,
			SubmissionKey: submissionKey,
			CreatedAt:     now,
		}
	}

	if err := e.bookings.CreateBookings(ctx, bookings); err != nil {
		compErr := e.compensate(ctx, sessionID, holds, lines)
		e.ledger.AbortCommit(sessionID, holds)
		e.logger.Error("persist bookings failed",
			zap.String("session_id", sessionID),
			zap.Int("lines", len(holds)),
			zap.Error(err),
		)
		return CommitResult{Lines: lines}, &domain.SystemError{Op: "persist bookings", Err: errors.Join(err, compErr)}
	}

	e.ledger.CompleteCommit(sessionID, holds)
	return CommitResult{Bookings: bookings, Lines: lines}, nil
}

// increment re-reads the animal before every attempt and retries version
// conflicts at most retries times.
func (e *Engine) increment(ctx context.Context, animalID string, delta, retries int) (domain.Animal, error) {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return domain.Animal{}, err
		}
		a, err := e.animals.GetAnimal(ctx, animalID)
		if err != nil {
			return domain.Animal{}, err
		}
		v, err := e.animals.TryIncrementBooked(ctx, animalID, delta, a.Version)
		if err == nil {
			a.BookedShares += delta
			a.Version = v
			return a, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return domain.Animal{}, err
		}
		if attempt >= retries {
			return domain.Animal{}, fmt.Errorf("animal %s after %d attempts: %w", animalID, attempt+1, domain.ErrRetryExhausted)
		}
		e.metrics.IncConflictRetry()
	}
}

// returnShares decrements booked shares with the larger return budget.
func (e *Engine) returnShares(ctx context.Context, animalID string, shares int) error {
	_, err := e.increment(ctx, animalID, -shares, e.returnRetries)
	return err
}

// compensate undoes applied increments in reverse order. It ignores
// cancellation of ctx so an abandoned request still rolls back.
func (e *Engine) compensate(ctx context.Context, sessionID string, applied []domain.Hold, lines []domain.LineResult) error {
	ctx = context.WithoutCancel(ctx)
	var errs []error
	for i := len(applied) - 1; i >= 0; i-- {
		h := applied[i]
		if lines[i].Status != domain.LineCommitted {
			continue
		}
		if err := e.returnShares(ctx, h.AnimalID, h.Shares); err != nil {
			e.logger.Error("compensating decrement failed",
				zap.String("session_id", sessionID),
				zap.String("animal_id", h.AnimalID),
				zap.Int("shares", h.Shares),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("compensate %s: %w", h.AnimalID, err))
			continue
		}
		lines[i].Status = domain.LineRolledBack
	}
	return errors.Join(errs...)
}

// classifyUnattempted marks lines after the failing one without touching the store.
func (e *Engine) classifyUnattempted(ctx context.Context, sessionID string, holds []domain.Hold, lines []domain.LineResult) {
	for i, h := range holds {
		avail := e.availableFor(ctx, h.AnimalID, sessionID)
		lines[i].Available = avail
		if h.Shares > avail {
			lines[i].Status = domain.LineExceeded
		}
	}
}

// availableFor is what the session could hold right now; the session's own
// committing hold is excluded. Read errors report zero.
func (e *Engine) availableFor(ctx context.Context, animalID, sessionID string) int {
	snap, err := e.ledger.Snapshot(ctx, animalID, sessionID)
	if err != nil {
		return 0
	}
	return snap.Available
}

// systemError wraps errors the caller cannot act on; classified errors pass through.
func (e *Engine) systemError(op string, err error) error {
	if err == nil || domain.KindOf(err) != domain.KindSystem {
		return err
	}
	var sysErr *domain.SystemError
	if errors.As(err, &sysErr) {
		return err
	}
	return &domain.SystemError{Op: op, Err: err}
}
