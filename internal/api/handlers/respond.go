package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	middleware "github.com/markdave123-py/EduAI/internal/api/middlewares"
	"github.com/markdave123-py/EduAI/internal/core/assets"
	"github.com/markdave123-py/EduAI/internal/core/ingestion_engine"
	"github.com/markdave123-py/EduAI/internal/models"
	"github.com/markdave123-py/EduAI/internal/services"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

var errUnauthenticated = errors.New("unauthenticated")

// writeJSON writes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeData wraps v in the success envelope.
func writeData(w http.ResponseWriter, status int, v any) {
	writeJSON(w, status, map[string]any{"success": true, "data": v})
}

// writeList wraps a collection in the success envelope with its size.
func writeList[T any](w http.ResponseWriter, rows []T) {
	if rows == nil {
		rows = []T{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "count": len(rows), "data": rows})
}

// writeError maps err to a status code and writes the failure envelope.
// Server side failures are logged and reported without internal detail.
func writeError(w http.ResponseWriter, logger *zap.Logger, op string, err error) {
	status := statusFor(err)
	msg := err.Error()
	switch {
	case status == http.StatusBadGateway:
		msg = "upstream service failed"
		logger.Warn(op, zap.Error(err))
	case status >= http.StatusInternalServerError:
		msg = http.StatusText(status)
		logger.Error(op, zap.Error(err))
	}
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

func statusFor(err error) int {
	var ve *models.ValidationError
	switch {
	case errors.As(err, &ve), errors.Is(err, models.ErrInvalidReference):
		return http.StatusBadRequest
	case errors.Is(err, errUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, services.ErrUpstream), errors.Is(err, assets.ErrNotConfigured):
		return http.StatusBadGateway
	case errors.Is(err, ingestion_engine.ErrQueueFull):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return models.Invalid("body", "%v", err)
	}
	return nil
}

func currentUser(r *http.Request) (int64, error) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		return 0, errUnauthenticated
	}
	return id, nil
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, models.Invalid(name, "%q is not a valid id", raw)
	}
	return id, nil
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, models.Invalid(name, "%q is not a number", raw)
	}
	return n, nil
}
