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
	"golang.org/x/sync/singleflight"

	"github.com/qurbani/share-reservations/internal/clock"
	"github.com/qurbani/share-reservations/internal/domain"
	"github.com/qurbani/share-reservations/internal/obs"
)

// SubmissionStore keeps one record per idempotency key. Begin must fail with
// domain.ErrIdempotencyConflict when the key already exists; Get returns nil
// for an unknown key.
type SubmissionStore interface {
	Begin(ctx context.Context, sub domain.Submission) error
	Get(ctx context.Context, key string) (*domain.Submission, error)
	Complete(ctx context.Context, key string, bookingIDs []string, at time.Time) error
	Discard(ctx context.Context, key string) error
}

// BookingReader finds the bookings a checkout created by its idempotency key.
type BookingReader interface {
	ListBySubmission(ctx context.Context, key string) ([]domain.Booking, error)
}

// Gateway turns a checkout into bookings exactly once per idempotency key.
type Gateway struct {
	engine   *Engine
	subs     SubmissionStore
	bookings BookingReader
	clock    clock.Clock
	logger   *zap.Logger
	metrics  *obs.Metrics
	tracer   trace.Tracer
	inflight singleflight.Group
}

func NewGateway(engine *Engine, subs SubmissionStore, bookings BookingReader, clk clock.Clock, logger *zap.Logger, metrics *obs.Metrics) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{
		engine:   engine,
		subs:     subs,
		bookings: bookings,
		clock:    clk,
		logger:   logger,
		metrics:  metrics,
		tracer:   otel.Tracer(tracerName),
	}
}

type SubmitResult struct {
	SessionID string
	Bookings  []domain.Booking
	Lines     []domain.LineResult
	Replayed  bool
}

// Submit commits the session's cart once per key. A repeated key returns the
// bookings created the first time with Replayed set. A failed commit frees the
// key so the buyer can adjust the cart and retry with it.
func (g *Gateway) Submit(ctx context.Context, sessionID string, buyer domain.Buyer, key string) (res SubmitResult, err error) {
	start := time.Now()
	ctx, span := g.tracer.Start(ctx, "gateway.submit", trace.WithAttributes(
		attribute.String("session.id", sessionID),
		attribute.String("submission.key", key),
	))
	defer func() {
		g.metrics.ObserveLatency("submit", start)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, domain.KindOf(err).String())
		}
		span.SetAttributes(attribute.Bool("submission.replayed", res.Replayed))
		span.End()
	}()

	if sessionID == "" {
		return SubmitResult{}, domain.ErrSessionRequired
	}
	if key == "" {
		return SubmitResult{}, domain.ErrIdempotencyKeyRequired
	}
	buyer = buyer.Normalize()
	if err := buyer.Validate(); err != nil {
		return SubmitResult{}, err
	}

	v, err, _ := g.inflight.Do(key, func() (any, error) {
		return g.submit(ctx, sessionID, buyer, key)
	})
	out, _ := v.(SubmitResult)
	// A coalesced caller from another session must not see this session's outcome.
	if out.SessionID != "" && out.SessionID != sessionID {
		return SubmitResult{}, domain.ErrIdempotencyConflict
	}
	return out, err
}

func (g *Gateway) submit(ctx context.Context, sessionID string, buyer domain.Buyer, key string) (SubmitResult, error) {
	existing, err := g.subs.Get(ctx, key)
	if err != nil {
		return SubmitResult{}, &domain.SystemError{Op: "get submission", Err: err}
	}
	if existing != nil {
		return g.replay(ctx, existing, sessionID)
	}

	now := g.clock.Now()
	err = g.subs.Begin(ctx, domain.Submission{
		Key:       key,
		SessionID: sessionID,
		Status:    domain.SubmissionStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		// Another process claimed the key between Get and Begin.
		if errors.Is(err, domain.ErrIdempotencyConflict) {
			existing, getErr := g.subs.Get(ctx, key)
			if getErr != nil {
				return SubmitResult{}, &domain.SystemError{Op: "get submission", Err: getErr}
			}
			if existing != nil {
				return g.replay(ctx, existing, sessionID)
			}
		}
		return SubmitResult{}, &domain.SystemError{Op: "begin submission", Err: err}
	}

	cr, err := g.engine.commit(ctx, sessionID, buyer, key)
	if err != nil {
		if derr := g.subs.Discard(context.WithoutCancel(ctx), key); derr != nil {
			g.logger.Error("discard submission failed",
				zap.String("submission_key", key),
				zap.String("session_id", sessionID),
				zap.Error(derr),
			)
		}
		return SubmitResult{SessionID: sessionID, Lines: cr.Lines}, err
	}

	ids := make([]string, len(cr.Bookings))
	for i, b := range cr.Bookings {
		ids[i] = b.ID
	}
	// The bookings are durable at this point; a failed Complete only leaves the key pending.
	if err := g.subs.Complete(context.WithoutCancel(ctx), key, ids, g.clock.Now()); err != nil {
		g.logger.Error("complete submission failed",
			zap.String("submission_key", key),
			zap.String("session_id", sessionID),
			zap.Strings("booking_ids", ids),
			zap.Error(err),
		)
	}
	g.logger.Info("submission committed",
		zap.String("submission_key", key),
		zap.String("session_id", sessionID),
		zap.Int("bookings", len(ids)),
	)
	return SubmitResult{SessionID: sessionID, Bookings: cr.Bookings, Lines: cr.Lines}, nil
}

// replay answers a repeated key from the bookings stored under it. A pending
// record whose bookings exist lost its Complete; it is finished here. Bookings
// removed together with their animal are skipped.
func (g *Gateway) replay(ctx context.Context, sub *domain.Submission, sessionID string) (SubmitResult, error) {
	if sub.SessionID != sessionID {
		return SubmitResult{}, domain.ErrIdempotencyConflict
	}
	bookings, err := g.bookings.ListBySubmission(ctx, sub.Key)
	if err != nil {
		return SubmitResult{}, &domain.SystemError{Op: "replay bookings", Err: err}
	}

	switch {
	case sub.Status == domain.SubmissionStatusPending && len(bookings) == 0:
		return SubmitResult{}, domain.ErrSubmissionInProgress
	case sub.Status == domain.SubmissionStatusPending:
		ids := make([]string, len(bookings))
		for i, b := range bookings {
			ids[i] = b.ID
		}
		if err := g.subs.Complete(context.WithoutCancel(ctx), sub.Key, ids, g.clock.Now()); err != nil {
			g.logger.Error("complete submission failed",
				zap.String("submission_key", sub.Key),
				zap.String("session_id", sessionID),
				zap.Strings("booking_ids", ids),
				zap.Error(err),
			)
		} else {
			g.logger.Info("pending submission completed on replay",
				zap.String("submission_key", sub.Key),
				zap.String("session_id", sessionID),
				zap.Int("bookings", len(ids)),
			)
		}
	case len(bookings) == 0:
		return SubmitResult{}, fmt.Errorf("submission %s: %w", sub.Key, domain.ErrBookingNotFound)
	}
	lines := make([]domain.LineResult, len(bookings))
	for i, b := range bookings {
		lines[i] = domain.LineResult{AnimalID: b.AnimalID, Shares: b.Shares, Status: domain.LineCommitted}
	}
	return SubmitResult{SessionID: sessionID, Bookings: bookings, Lines: lines, Replayed: true}, nil
}
