package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/homework/internal/extract"
	"github.com/pavelanni/homework/internal/handler/views"
	"github.com/pavelanni/homework/internal/model"
	"github.com/pavelanni/homework/internal/store"
)

// assignmentSummary is one row of the teacher's assignment list.
type assignmentSummary struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Subject       string    `json:"subject"`
	Grade         int       `json:"grade"`
	Topic         string    `json:"topic"`
	QuestionCount int       `json:"question_count"`
	CreatedAt     time.Time `json:"created_at"`
	ShareURL      string    `json:"share_url"`
}

type submissionSummary struct {
	ID            string    `json:"id"`
	ExamineeName  string    `json:"examinee_name"`
	ExamineeClass string    `json:"examinee_class"`
	Answered      int       `json:"answered"`
	SubmittedAt   time.Time `json:"submitted_at"`
	Graded        bool      `json:"graded"`
	Score         *float64  `json:"score,omitempty"`
}

func (h *Handler) handleExtract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, extract.MaxUpload+1<<20)
	if err := r.ParseMultipartForm(extract.MaxUpload); err != nil {
		h.fail(w, r, fmt.Errorf("%w: %w", model.ErrFileReadFailed, err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		h.fail(w, r, fmt.Errorf("%w: no file uploaded", errBadRequest))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, extract.MaxUpload+1))
	if err != nil {
		h.fail(w, r, fmt.Errorf("%w: %w", model.ErrFileReadFailed, err))
		return
	}
	text, err := extract.Text(header.Filename, data)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	slog.Info("extracted reference document", "filename", header.Filename, "bytes", len(data), "chars", len([]rune(text)))
	writeJSON(w, http.StatusOK, map[string]any{"filename": header.Filename, "text": text})
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var cfg model.GenerationConfig
	if err := decodeJSON(w, r, &cfg); err != nil {
		h.fail(w, r, err)
		return
	}
	if cfg.TotalQuestions() == 0 {
		h.fail(w, r, model.ErrEmptyConfiguration)
		return
	}
	if err := h.validate.Struct(cfg); err != nil {
		h.fail(w, r, err)
		return
	}

	a, err := h.gen.GenerateAssignment(r.Context(), cfg)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.store.InsertAssignment(a); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"assignment": a,
		"share_url":  h.absoluteURL(r, "/share/"+a.ID),
	})
}

func (h *Handler) handleListAssignments(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.ListAssignments()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]assignmentSummary, 0, len(list))
	for _, a := range list {
		out = append(out, assignmentSummary{
			ID:            a.ID,
			Title:         a.Title,
			Subject:       a.Subject,
			Grade:         a.Grade,
			Topic:         a.Topic,
			QuestionCount: len(a.Questions),
			CreatedAt:     a.CreatedAt,
			ShareURL:      h.absoluteURL(r, "/share/"+a.ID),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetAssignment(w http.ResponseWriter, r *http.Request) {
	a, err := h.store.GetAssignment(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handler) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.store.GetAssignment(id); err != nil {
		h.fail(w, r, err)
		return
	}
	subs, err := h.store.ListSubmissions(id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]submissionSummary, 0, len(subs))
	for _, sub := range subs {
		row := submissionSummary{
			ID:            sub.ID,
			ExamineeName:  sub.ExamineeName,
			ExamineeClass: sub.ExamineeClass,
			Answered:      len(sub.Answers),
			SubmittedAt:   sub.SubmittedAt,
		}
		res, err := h.store.GetResult(sub.ID)
		switch {
		case err == nil:
			row.Graded = true
			row.Score = &res.Score
		case !errors.Is(err, store.ErrNotFound):
			h.fail(w, r, err)
			return
		}
		out = append(out, row)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleSharePage(w http.ResponseWriter, r *http.Request) {
	a, err := h.store.GetAssignment(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	link := h.absoluteURL(r, "/api/assignments/"+a.ID+"/public")
	logRenderError(views.SharePage(a, link).Render(r.Context(), w))
}
