package handler

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/homework/internal/content"
	"github.com/pavelanni/homework/internal/handler/views"
	"github.com/pavelanni/homework/internal/model"
	"github.com/pavelanni/homework/internal/store"
)

// handleGrade grades one submission synchronously. A second call for the same
// submission while the first is outstanding gets 409.
func (h *Handler) handleGrade(w http.ResponseWriter, r *http.Request) {
	sub, err := h.store.GetSubmission(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	a, err := h.store.GetAssignment(sub.AssignmentID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.guard.TryAcquire(sub.ID); err != nil {
		h.fail(w, r, err)
		return
	}
	defer h.guard.Release(sub.ID)

	res, err := h.grader.Grade(r.Context(), a, sub)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.store.SaveResult(res); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, store.BuildExport(a, sub, res))
}

// exportFor loads the graded export of {id}, reporting ungraded submissions
// separately from unknown ones.
func (h *Handler) exportFor(r *http.Request) (model.ResultExport, error) {
	id := chi.URLParam(r, "id")
	if _, err := h.store.GetSubmission(id); err != nil {
		return model.ResultExport{}, err
	}
	exp, err := h.store.ExportResult(id)
	if errors.Is(err, store.ErrNotFound) {
		return exp, fmt.Errorf("%w: %w", errNotGraded, err)
	}
	return exp, err
}

func (h *Handler) handleResult(w http.ResponseWriter, r *http.Request) {
	exp, err := h.exportFor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, exp)
}

func (h *Handler) handleResultPage(w http.ResponseWriter, r *http.Request) {
	exp, err := h.exportFor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	links := views.ResultLinks{
		CSV:  h.path("/api/submissions/" + exp.SubmissionID + "/export.csv"),
		JSON: h.path("/api/submissions/" + exp.SubmissionID + "/export.json"),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	logRenderError(views.ResultPage(exp, links).Render(r.Context(), w))
}

func (h *Handler) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	exp, err := h.exportFor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", attachment(exp, "json"))
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(exp); err != nil {
		logRenderError(err)
	}
}

func (h *Handler) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	exp, err := h.exportFor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", attachment(exp, "csv"))
	// Spreadsheet apps need the BOM to read Vietnamese text as UTF-8.
	_, _ = w.Write([]byte("\ufeff"))
	logRenderError(writeCSV(w, exp))
}

var csvHeader = []string{
	"number", "question_id", "type", "question", "answer", "answer_text",
	"correct_answer", "correct", "score", "feedback",
}

func writeCSV(w http.ResponseWriter, exp model.ResultExport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, q := range exp.Questions {
		correct := ""
		if q.Correct != nil {
			correct = strconv.FormatBool(*q.Correct)
		}
		row := []string{
			strconv.Itoa(q.Number),
			q.ID,
			string(q.Type),
			content.Plain(q.Content),
			q.Answer,
			q.AnswerText,
			q.CorrectAnswer,
			correct,
			strconv.FormatFloat(q.Score, 'f', -1, 64),
			q.Feedback,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	total := []string{"", "", "", "", "", "", "", "total",
		strconv.FormatFloat(exp.Score, 'f', 1, 64), exp.Comment}
	if err := cw.Write(total); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func attachment(exp model.ResultExport, ext string) string {
	return fmt.Sprintf(`attachment; filename="result-%s.%s"`, exp.SubmissionID, ext)
}
