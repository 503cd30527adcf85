package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/qurbani/share-reservations/internal/domain"
)

const (
	codeMethodNotAllowed     = "method_not_allowed"
	codeNotFound             = "not_found"
	codeInvalidRequestBody   = "invalid_request_body"
	codeInvalidID            = "invalid_id"
	codeInvalidShares        = "invalid_shares"
	codeSessionRequired      = "session_required"
	codeIdempotencyRequired  = "idempotency_key_required"
	codeIdempotencyConflict  = "idempotency_conflict"
	codeSubmissionInProgress = "submission_in_progress"
	codeCommitInProgress     = "commit_in_progress"
	codeInsufficientShares   = "insufficient_shares"
	codeSharesExceeded       = "shares_exceeded"
	codeConflict             = "conflict"
	codeAnimalNotFound       = "animal_not_found"
	codeBookingNotFound      = "booking_not_found"
	codeNoActiveHolds        = "no_active_holds"
	codeBuyerDetailsRequired = "buyer_details_required"
	codeInvalidEmail         = "invalid_email"
	codeAnimalNameRequired   = "animal_name_required"
	codeInvalidTotalShares   = "invalid_total_shares"
	codeTotalSharesImmutable = "total_shares_immutable"
	codeInvalidPrice         = "invalid_price"
	codeAnimalHasBookings    = "animal_has_bookings"
	codeInvalidStatus        = "invalid_status"
	codeInvalidTransition    = "invalid_transition"
	codeForbidden            = "forbidden"
	codeInternalError        = "internal_error"
	codeInvalidRequest       = "invalid_request"
	codeUnavailable          = "unavailable"
)

type errorResponse struct {
	Error     string         `json:"error"`
	Code      string         `json:"code"`
	Available *int           `json:"available,omitempty"`
	Lines     []lineResponse `json:"lines,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeErrorResponse(w, status, errorResponse{Error: msg, Code: code})
}

func writeErrorResponse(w http.ResponseWriter, status int, resp errorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(resp)
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeDomainError maps err to a status and stable code. System errors are
// logged and rendered without detail.
func writeDomainError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	kind := domain.KindOf(err)
	resp := errorResponse{Error: err.Error(), Code: errorCode(err, kind)}

	var status int
	switch kind {
	case domain.KindInsufficientShares:
		status = http.StatusConflict
		var ise *domain.InsufficientSharesError
		if errors.As(err, &ise) {
			available := ise.Available
			resp.Available = &available
		}
	case domain.KindExceeded:
		status = http.StatusConflict
		var ce *domain.CommitError
		if errors.As(err, &ce) {
			resp.Lines = toLineResponses(ce.Lines)
		}
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindInvalid:
		status = http.StatusBadRequest
	case domain.KindUnavailable, domain.KindConflict:
		status = http.StatusConflict
	default:
		status = http.StatusInternalServerError
		resp = errorResponse{Error: "internal error", Code: codeInternalError}
		if logger != nil {
			logger.Error("request failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("request_id", requestID(r)),
				zap.Error(err),
			)
		}
	}
	writeErrorResponse(w, status, resp)
}

func errorCode(err error, kind domain.Kind) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientShares):
		return codeInsufficientShares
	case errors.Is(err, domain.ErrExceeded):
		return codeSharesExceeded
	case errors.Is(err, domain.ErrAnimalNotFound):
		return codeAnimalNotFound
	case errors.Is(err, domain.ErrBookingNotFound):
		return codeBookingNotFound
	case errors.Is(err, domain.ErrNoActiveHolds):
		return codeNoActiveHolds
	case errors.Is(err, domain.ErrInvalidShares):
		return codeInvalidShares
	case errors.Is(err, domain.ErrInvalidID):
		return codeInvalidID
	case errors.Is(err, domain.ErrSessionRequired):
		return codeSessionRequired
	case errors.Is(err, domain.ErrIdempotencyKeyRequired):
		return codeIdempotencyRequired
	case errors.Is(err, domain.ErrIdempotencyConflict):
		return codeIdempotencyConflict
	case errors.Is(err, domain.ErrSubmissionInProgress):
		return codeSubmissionInProgress
	case errors.Is(err, domain.ErrCommitInProgress):
		return codeCommitInProgress
	case errors.Is(err, domain.ErrBuyerDetailsRequired):
		return codeBuyerDetailsRequired
	case errors.Is(err, domain.ErrInvalidEmail):
		return codeInvalidEmail
	case errors.Is(err, domain.ErrAnimalNameRequired):
		return codeAnimalNameRequired
	case errors.Is(err, domain.ErrInvalidTotalShares):
		return codeInvalidTotalShares
	case errors.Is(err, domain.ErrTotalSharesImmutable):
		return codeTotalSharesImmutable
	case errors.Is(err, domain.ErrInvalidPrice):
		return codeInvalidPrice
	case errors.Is(err, domain.ErrAnimalHasBookings):
		return codeAnimalHasBookings
	case errors.Is(err, domain.ErrInvalidStatus):
		return codeInvalidStatus
	case errors.Is(err, domain.ErrInvalidTransition):
		return codeInvalidTransition
	}
	switch kind {
	case domain.KindConflict:
		return codeConflict
	case domain.KindNotFound:
		return codeNotFound
	case domain.KindInvalid:
		return codeInvalidRequest
	case domain.KindUnavailable:
		return codeUnavailable
	default:
		return codeInternalError
	}
}
