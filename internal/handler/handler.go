// Package handler exposes the teacher, student and results HTTP surface.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pavelanni/homework/internal/exam"
	"github.com/pavelanni/homework/internal/grading"
	"github.com/pavelanni/homework/internal/model"
	"github.com/pavelanni/homework/internal/store"
)

// Generator produces new assignments. *llm.Client implements it.
type Generator interface {
	GenerateAssignment(ctx context.Context, cfg model.GenerationConfig) (model.Assignment, error)
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store    *store.Store
	gen      Generator
	grader   *grading.Aggregator
	guard    *grading.Guard
	exams    *exam.Registry
	config   model.ServerConfig
	validate *validator.Validate
	now      func() time.Time
}

// New creates a new Handler.
func New(s *store.Store, gen Generator, assessor grading.Assessor, exams *exam.Registry, cfg model.ServerConfig) *Handler {
	return &Handler{
		store:    s,
		gen:      gen,
		grader:   grading.NewAggregator(assessor),
		guard:    grading.NewGuard(),
		exams:    exams,
		config:   cfg,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/api/login", h.handleLogin)
	r.Post("/api/logout", h.handleLogout)

	// Teacher.
	r.Group(func(r chi.Router) {
		r.Use(h.requireTeacher)
		r.Post("/api/extract", h.handleExtract)
		r.With(middleware.AllowContentType("application/json")).Post("/api/assignments", h.handleGenerate)
		r.Get("/api/assignments", h.handleListAssignments)
		r.Get("/api/assignments/{id}", h.handleGetAssignment)
		r.Get("/api/assignments/{id}/submissions", h.handleListSubmissions)
		r.Get("/share/{id}", h.handleSharePage)
	})

	// Student.
	r.Get("/api/assignments/{id}/public", h.handlePublicAssignment)
	r.Route("/api/exams", func(r chi.Router) {
		r.Post("/", h.handleStartExam)
		r.Route("/{sid}", func(r chi.Router) {
			r.Use(h.loadExam)
			r.Get("/", h.handleExamView)
			r.Delete("/", h.handleCloseExam)
			r.Put("/answers/{qid}", h.handleSetAnswer)
			r.Post("/next", h.handleNext)
			r.Post("/prev", h.handlePrev)
			r.Post("/review", h.handleReview)
			r.Post("/jump/{index}", h.handleJump)
			r.Get("/summary", h.handleSummary)
			r.Post("/submit", h.handleSubmit)
		})
	})

	// Grading and results.
	r.Post("/api/submissions/{id}/grade", h.handleGrade)
	r.Get("/api/submissions/{id}/result", h.handleResult)
	r.Get("/api/submissions/{id}/export.csv", h.handleExportCSV)
	r.Get("/api/submissions/{id}/export.json", h.handleExportJSON)
	r.Get("/results/{id}", h.handleResultPage)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"live_sessions": h.exams.Len(),
	})
}

// path prefixes an absolute path with the configured base path.
func (h *Handler) path(p string) string {
	return h.config.BasePath + p
}

func (h *Handler) cookiePath() string {
	if h.config.BasePath != "" {
		return h.config.BasePath + "/"
	}
	return "/"
}

// absoluteURL builds a link for sharing, honouring proxies that set
// X-Forwarded-Proto and X-Forwarded-Host.
func (h *Handler) absoluteURL(r *http.Request, p string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if fp := r.Header.Get("X-Forwarded-Proto"); fp != "" {
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(fp, ",")[0]))
	}
	host := r.Host
	if fh := r.Header.Get("X-Forwarded-Host"); fh != "" {
		host = strings.TrimSpace(strings.Split(fh, ",")[0])
	}
	return scheme + "://" + host + h.path(p)
}

func logRenderError(err error) {
	if err != nil {
		slog.Error("render error", "error", err)
	}
}
