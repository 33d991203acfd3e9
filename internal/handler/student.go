package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/homework/internal/exam"
)

type examCtxKey struct{}

// startExamRequest is the student login: who is taking which assignment.
type startExamRequest struct {
	AssignmentID string `json:"assignment_id" validate:"required,max=64"`
	Name         string `json:"name" validate:"required,max=100"`
	Class        string `json:"class" validate:"required,max=50"`
}

type answerRequest struct {
	Answer string `json:"answer" validate:"max=20000"`
}

func (h *Handler) handlePublicAssignment(w http.ResponseWriter, r *http.Request) {
	a, err := h.store.GetAssignment(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a.Public())
}

func (h *Handler) handleStartExam(w http.ResponseWriter, r *http.Request) {
	var req startExamRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Class = strings.TrimSpace(req.Class)
	if err := h.validate.Struct(req); err != nil {
		h.fail(w, r, err)
		return
	}
	a, err := h.store.GetAssignment(req.AssignmentID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sess := h.exams.Create(a, req.Name, req.Class)
	writeJSON(w, http.StatusCreated, sess.View())
}

// loadExam resolves {sid} to a live session.
func (h *Handler) loadExam(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := h.exams.Get(chi.URLParam(r, "sid"))
		if sess == nil {
			writeError(w, r, http.StatusNotFound, "ErrNotFound", false)
			return
		}
		ctx := context.WithValue(r.Context(), examCtxKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func examFrom(r *http.Request) *exam.Session {
	return r.Context().Value(examCtxKey{}).(*exam.Session)
}

func (h *Handler) handleExamView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, examFrom(r).View())
}

func (h *Handler) handleSetAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.fail(w, r, err)
		return
	}
	sess := examFrom(r)
	if err := sess.SetAnswer(chi.URLParam(r, "qid"), req.Answer); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.View())
}

func (h *Handler) handleNext(w http.ResponseWriter, r *http.Request) {
	sess := examFrom(r)
	sess.Next()
	writeJSON(w, http.StatusOK, sess.View())
}

func (h *Handler) handlePrev(w http.ResponseWriter, r *http.Request) {
	sess := examFrom(r)
	sess.Prev()
	writeJSON(w, http.StatusOK, sess.View())
}

func (h *Handler) handleReview(w http.ResponseWriter, r *http.Request) {
	sess := examFrom(r)
	sess.EnterReview()
	writeJSON(w, http.StatusOK, sess.View())
}

func (h *Handler) handleJump(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		h.fail(w, r, fmt.Errorf("%w: index: %w", errBadRequest, err))
		return
	}
	sess := examFrom(r)
	if _, err := sess.JumpTo(index); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.View())
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, examFrom(r).Summary())
}

// handleSubmit stores the session's answers as a submission and tears the
// session down. A failed insert leaves the session open for a retry.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sess := examFrom(r)
	sub, err := sess.Submit(h.now(), h.store.InsertSubmission)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.exams.Remove(sess.ID)
	slog.Info("exam submitted",
		"session_id", sess.ID,
		"submission_id", sub.ID,
		"assignment_id", sub.AssignmentID,
		"answered", len(sub.Answers),
	)
	writeJSON(w, http.StatusCreated, map[string]any{
		"submission_id": sub.ID,
		"answered":      len(sub.Answers),
		"result_url":    h.path("/results/" + sub.ID),
	})
}

func (h *Handler) handleCloseExam(w http.ResponseWriter, r *http.Request) {
	h.exams.Remove(examFrom(r).ID)
	w.WriteHeader(http.StatusNoContent)
}
