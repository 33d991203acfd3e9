package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/pavelanni/homework/internal/exam"
	"github.com/pavelanni/homework/internal/grading"
	appI18n "github.com/pavelanni/homework/internal/i18n"
	"github.com/pavelanni/homework/internal/model"
	"github.com/pavelanni/homework/internal/store"
)

const maxJSONBody = 1 << 20

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Retryable bool   `json:"retryable"`
	Detail    string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return nil
}

var (
	errBadRequest   = errors.New("bad request")
	errUnauthorized = errors.New("unauthorized")
	errNotGraded    = errors.New("not graded")
)

// writeError answers with a localised message for the given message ID.
func writeError(w http.ResponseWriter, r *http.Request, status int, code string, retryable bool) {
	writeJSON(w, status, errorBody{
		Error:     appI18n.T(r.Context(), code),
		Code:      code,
		Retryable: retryable,
	})
}

// fail maps err onto an HTTP status and a localised message.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, model.ErrEmptyConfiguration):
		writeError(w, r, http.StatusBadRequest, "ErrEmptyConfiguration", false)
	case errors.Is(err, model.ErrGenerationFailed):
		slog.Warn("generation failed", "error", err)
		writeError(w, r, http.StatusBadGateway, "ErrGenerationFailed", true)
	case errors.Is(err, model.ErrGradingFailed):
		slog.Warn("grading failed", "error", err)
		writeError(w, r, http.StatusBadGateway, "ErrGradingFailed", true)
	case errors.Is(err, model.ErrFileReadFailed):
		slog.Warn("file read failed", "error", err)
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{
			Error:     appI18n.T(r.Context(), "ErrFileReadFailed"),
			Code:      "ErrFileReadFailed",
			Retryable: true,
			Detail:    err.Error(),
		})
	case errors.Is(err, grading.ErrBusy):
		writeError(w, r, http.StatusConflict, "ErrGradingBusy", true)
	case errors.Is(err, exam.ErrAlreadySubmitted):
		writeError(w, r, http.StatusConflict, "ErrAlreadySubmitted", false)
	case errors.Is(err, exam.ErrIndexOutOfRange):
		writeError(w, r, http.StatusBadRequest, "ErrIndexOutOfRange", false)
	case errors.Is(err, exam.ErrUnknownQuestion):
		writeError(w, r, http.StatusBadRequest, "ErrUnknownQuestion", false)
	case errors.Is(err, errNotGraded):
		writeError(w, r, http.StatusNotFound, "ErrNotGraded", false)
	case errors.Is(err, store.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "ErrNotFound", false)
	case errors.Is(err, errUnauthorized):
		writeError(w, r, http.StatusUnauthorized, "ErrUnauthorized", false)
	case errors.Is(err, errBadRequest), errors.As(err, &verrs):
		slog.Debug("bad request", "path", r.URL.Path, "error", err)
		writeError(w, r, http.StatusBadRequest, "ErrBadRequest", false)
	default:
		slog.Error("request failed", "path", r.URL.Path, "error", err)
		writeError(w, r, http.StatusInternalServerError, "ErrInternal", false)
	}
}
