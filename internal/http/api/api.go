// Package api holds the response helpers shared by the HTTP handlers.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/MrJamesThe3rd/despacho/internal/declaration"
	"github.com/MrJamesThe3rd/despacho/internal/importer"
	"github.com/MrJamesThe3rd/despacho/internal/importer/broker"
	"github.com/MrJamesThe3rd/despacho/internal/matching"
	"github.com/MrJamesThe3rd/despacho/internal/receipt"
)

// Status maps a domain error to its HTTP status code.
func Status(err error) int {
	var (
		docErr  *receipt.ValidationError
		itemErr *declaration.ValidationError
	)

	switch {
	case errors.Is(err, receipt.ErrNotFound), errors.Is(err, declaration.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, receipt.ErrDuplicate):
		return http.StatusConflict
	case errors.As(err, &docErr), errors.As(err, &itemErr),
		errors.Is(err, receipt.ErrInvalidDocument), errors.Is(err, declaration.ErrInvalidItem),
		errors.Is(err, matching.ErrEmptyPattern), errors.Is(err, matching.ErrUnknownCode):
		return http.StatusUnprocessableEntity
	case errors.Is(err, importer.ErrUnknownFormat), errors.Is(err, broker.ErrNoProfile):
		return http.StatusBadRequest
	}

	return http.StatusInternalServerError
}

// Error writes err with its mapped status. Server errors are logged and their
// text is not sent to the client.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status := Status(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		http.Error(w, "internal error", status)

		return
	}

	http.Error(w, err.Error(), status)
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// DateRange reads the optional start_date and end_date query parameters (YYYY-MM-DD).
func DateRange(r *http.Request) (start, end *time.Time, err error) {
	q := r.URL.Query()

	if s := q.Get("start_date"); s != "" {
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid start_date: %w", err)
		}

		start = &t
	}

	if s := q.Get("end_date"); s != "" {
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid end_date: %w", err)
		}

		end = &t
	}

	if start != nil && end != nil && end.Before(*start) {
		return nil, nil, errors.New("end_date before start_date")
	}

	return start, end, nil
}
