package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/andreasstove999/ecommerce-system/shopping-cart-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/shopping-cart-go/internal/catalog"
)

type errorResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Messages  []string  `json:"messages"`
}

// validationError carries one "field : message" entry per violation.
type validationError struct {
	messages []string
}

func (e *validationError) Error() string {
	return "Validation error"
}

func (e *validationError) add(field, msg string) {
	e.messages = append(e.messages, field+" : "+msg)
}

func (e *validationError) orNil() error {
	if len(e.messages) == 0 {
		return nil
	}
	return e
}

const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
)

// isTxConflict reports whether Postgres aborted the transaction because it
// raced another one. Such a request left no writes and can be retried.
func isTxConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == sqlStateDeadlockDetected || pgErr.Code == sqlStateSerializationFailure
}

// statusFor maps domain failures to their HTTP status. Anything unknown is a
// server error.
func statusFor(err error) int {
	var (
		cartNotFound    *cart.CartNotFoundError
		lineNotFound    *cart.LineNotFoundError
		productNotFound *catalog.ProductNotFoundError
		offerNotFound   *catalog.OfferNotFoundError
		noStock         *catalog.InsufficientStockError
		invalid         *validationError
	)
	switch {
	case errors.As(err, &cartNotFound),
		errors.As(err, &lineNotFound),
		errors.As(err, &productNotFound),
		errors.As(err, &offerNotFound):
		return http.StatusNotFound
	case errors.As(err, &noStock), isTxConflict(err):
		return http.StatusConflict
	case errors.As(err, &invalid), errors.Is(err, cart.ErrInvalidQuantity):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := errorResponse{
		Timestamp: time.Now().UTC(),
		Status:    status,
		Error:     http.StatusText(status),
	}

	var invalid *validationError
	switch {
	case errors.As(err, &invalid):
		resp.Error = invalid.Error()
		resp.Messages = invalid.messages
	case errors.Is(err, cart.ErrInvalidQuantity):
		resp.Error = "Validation error"
		resp.Messages = []string{"quantity : must be greater than 0"}
	case isTxConflict(err):
		resp.Messages = []string{"Concurrent update, retry the request"}
		h.logger.Warn().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("transaction aborted by concurrent update")
	case status == http.StatusInternalServerError:
		resp.Messages = []string{"Unexpected error"}
		h.logger.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
	default:
		resp.Messages = []string{err.Error()}
		h.logger.Info().Err(err).Int("status", status).Str("path", r.URL.Path).Msg("request rejected")
	}

	writeJSON(w, status, resp)
}
