package http

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/qurbani/share-reservations/internal/app"
	"github.com/qurbani/share-reservations/internal/domain"
)

// Submitter is the minimal interface needed to submit a checkout.
type Submitter interface {
	Submit(ctx context.Context, sessionID string, buyer domain.Buyer, key string) (app.SubmitResult, error)
}

// HandleSubmit serves POST /submissions. A replayed key answers 200 with the
// original bookings; a fresh one answers 201.
func HandleSubmit(svc Submitter, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimSpace(r.Header.Get(idempotencyHeader))
		if key == "" {
			writeError(w, http.StatusBadRequest, codeIdempotencyRequired, domain.ErrIdempotencyKeyRequired.Error())
			return
		}

		var req buyerRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		res, err := svc.Submit(r.Context(), sessionID(r), req.toDomain(), key)
		if err != nil {
			writeDomainError(w, r, logger, err)
			return
		}

		status := http.StatusCreated
		if res.Replayed {
			status = http.StatusOK
		}
		writeJSON(w, status, commitResponse{
			Bookings: toBookingResponses(res.Bookings),
			Lines:    toLineResponses(res.Lines),
			Replayed: res.Replayed,
		})
	}
}
