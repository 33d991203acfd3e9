package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/pavelanni/homework/internal/exam"
	"github.com/pavelanni/homework/internal/extract"
	"github.com/pavelanni/homework/internal/grading"
	"github.com/pavelanni/homework/internal/handler"
	appI18n "github.com/pavelanni/homework/internal/i18n"
	"github.com/pavelanni/homework/internal/llm"
	"github.com/pavelanni/homework/internal/llm/prompts"
	"github.com/pavelanni/homework/internal/model"
	"github.com/pavelanni/homework/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "warning: reading .env:", err)
	}
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "homework",
		Short: "AI-generated homework assignments with timed exams and grading",
	}

	serve := serveCmd()
	root.AddCommand(serve, generateCmd(), gradeCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

// addLLMFlags registers the provider flags shared by every command.
func addLLMFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("llm-url", "https://api.openai.com/v1", "OpenAI-compatible API base URL")
	f.String("llm-key", "", "API key for the LLM provider")
	f.String("llm-model", "gpt-4o-mini", "LLM model name")
	f.String("prompt-variant", string(prompts.PromptStandard), "Grading prompt variant (strict, standard, lenient)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	}
	addLLMFlags(cmd)
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.StringP("lang", "l", "vi", "Default UI language (vi, en)")
	f.Duration("exam-duration", exam.DefaultDuration, "Countdown length of each exam session")
	f.String("base-path", "", "URL prefix for sub-path deployments (e.g. /hw)")
	f.Bool("secure-cookies", true, "Set Secure flag on session cookies")
	f.String("teacher-password", "", "Teacher password (empty leaves teacher pages open)")
	f.Bool("skip-ping", false, "Do not check the LLM endpoint at startup")
	return cmd
}

func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate one assignment and print it as JSON",
		RunE:  runGenerate,
	}
	addLLMFlags(cmd)
	f := cmd.Flags()
	f.String("subject", "", "Subject (required)")
	f.Int("grade", 0, "School grade 1-12 (required)")
	f.String("topic", "", "Topic (required)")
	f.String("title", "", "Assignment title")
	f.String("difficulty", "", "Difficulty (easy, medium, hard)")
	f.Int("multiple-choice", 0, "Number of multiple choice questions")
	f.Int("true-false", 0, "Number of true/false questions")
	f.Int("short-answer", 0, "Number of short answer questions")
	f.Int("essay", 0, "Number of essay questions")
	f.String("source", "", "Reference document (.txt, .md, .docx)")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")

	_ = cmd.MarkFlagRequired("subject")
	_ = cmd.MarkFlagRequired("grade")
	_ = cmd.MarkFlagRequired("topic")
	return cmd
}

func gradeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grade",
		Short: "Grade a submission file against an assignment file",
		RunE:  runGrade,
	}
	addLLMFlags(cmd)
	f := cmd.Flags()
	f.String("assignment", "", "Assignment JSON file (required)")
	f.String("submission", "", "Submission JSON file (required)")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")

	_ = cmd.MarkFlagRequired("assignment")
	_ = cmd.MarkFlagRequired("submission")
	return cmd
}

func setupLogging(v *viper.Viper) {
	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("HOMEWORK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("homework")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/homework")
	v.AddConfigPath("/etc/homework")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// newLLMClient builds the provider client from the shared flags.
func newLLMClient(v *viper.Viper) *llm.Client {
	variant := strings.ToLower(strings.TrimSpace(v.GetString("prompt-variant")))
	if !prompts.IsValidVariant(variant) {
		slog.Warn("invalid prompt-variant, using standard", "variant", variant)
		variant = string(prompts.PromptStandard)
	}
	return llm.New(
		v.GetString("llm-url"),
		v.GetString("llm-key"),
		v.GetString("llm-model"),
		prompts.PromptVariant(variant),
		prompts.MustLoadDefault(),
	)
}

func runServe(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)
	setupLogging(v)

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	llmClient := newLLMClient(v)
	if !v.GetBool("skip-ping") {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		err := llmClient.Ping(ctx)
		cancel()
		if err != nil {
			return fmt.Errorf("LLM health check: %w", err)
		}
		slog.Info("LLM endpoint OK", "url", v.GetString("llm-url"), "model", llmClient.Model())
	}

	db, err := store.New()
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	// Normalize base path.
	basePath := strings.TrimRight(v.GetString("base-path"), "/")
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}

	cfg := model.ServerConfig{
		ExamDuration:  v.GetDuration("exam-duration"),
		BasePath:      basePath,
		SecureCookies: v.GetBool("secure-cookies"),
		PromptVariant: v.GetString("prompt-variant"),
	}
	if password := v.GetString("teacher-password"); password != "" {
		cfg.TeacherHash, err = bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash teacher password: %w", err)
		}
	} else {
		slog.Warn("no teacher password set, teacher pages are open to everyone")
	}

	exams := exam.NewRegistry(cfg.ExamDuration)
	defer exams.Close()

	h := handler.New(db, llmClient, llmClient, exams, cfg)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware)

	if basePath != "" {
		r.Route(basePath, h.Routes)
		r.Get(basePath, func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, basePath+"/", http.StatusMovedPermanently)
		})
	} else {
		h.Routes(r)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go cleanupSessions(ctx, db, exams, 5*time.Minute)

	addr := v.GetString("addr")
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	slog.Info("starting server",
		"addr", addr,
		"model", llmClient.Model(),
		"llm_url", v.GetString("llm-url"),
		"lang", lang,
		"exam_duration", cfg.ExamDuration,
		"prompt_variant", cfg.PromptVariant,
		"base_path", basePath,
	)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down", "live_sessions", exams.Len())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// cleanupSessions removes expired teacher sessions and abandoned exam
// sessions until ctx is done.
func cleanupSessions(ctx context.Context, db *store.Store, exams *exam.Registry, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := exams.Reap(exams.IdleLimit()); n > 0 {
				slog.Debug("reaped idle exam sessions", "count", n)
			}
			n, err := db.CleanupExpiredSessions()
			if err != nil {
				slog.Error("cleanup expired sessions", "error", err)
				continue
			}
			if n > 0 {
				slog.Debug("removed expired sessions", "count", n)
			}
		}
	}
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)
	setupLogging(v)

	cfg := model.GenerationConfig{
		Title:      v.GetString("title"),
		Subject:    v.GetString("subject"),
		Grade:      v.GetInt("grade"),
		Topic:      v.GetString("topic"),
		Difficulty: model.Difficulty(strings.ToLower(v.GetString("difficulty"))),
		Counts: map[model.QuestionType]int{
			model.TypeMultipleChoice: v.GetInt("multiple-choice"),
			model.TypeTrueFalse:      v.GetInt("true-false"),
			model.TypeShortAnswer:    v.GetInt("short-answer"),
			model.TypeEssay:          v.GetInt("essay"),
		},
	}
	if path := v.GetString("source"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		cfg.SourceText, err = extract.Text(filepath.Base(path), data)
		if err != nil {
			return err
		}
	}

	a, err := newLLMClient(v).GenerateAssignment(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	slog.Info("generated assignment", "id", a.ID, "questions", len(a.Questions))
	return writeOutput(v.GetString("output"), a)
}

func runGrade(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)
	setupLogging(v)

	var (
		a   model.Assignment
		sub model.Submission
	)
	if err := readJSON(v.GetString("assignment"), &a); err != nil {
		return err
	}
	if err := readJSON(v.GetString("submission"), &sub); err != nil {
		return err
	}
	if sub.AssignmentID != "" && sub.AssignmentID != a.ID {
		return fmt.Errorf("submission %s belongs to assignment %s, not %s", sub.ID, sub.AssignmentID, a.ID)
	}

	res, err := grading.NewAggregator(newLLMClient(v)).Grade(cmd.Context(), a, sub)
	if err != nil {
		return err
	}
	return writeOutput(v.GetString("output"), store.BuildExport(a, sub, res))
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func writeOutput(outPath string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	_, _ = fmt.Fprintln(w)
	return nil
}
