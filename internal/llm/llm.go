// Package llm talks to an OpenAI-compatible chat-completion provider to
// generate assignments and assess submissions.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pavelanni/homework/internal/content"
	"github.com/pavelanni/homework/internal/exam"
	"github.com/pavelanni/homework/internal/llm/prompts"
	"github.com/pavelanni/homework/internal/llm/schema"
	"github.com/pavelanni/homework/internal/model"
)

const (
	opGenerate = "generate"
	opAssess   = "assess"
)

var (
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "homework",
		Subsystem: "llm",
		Name:      "request_duration_seconds",
		Help:      "Duration of AI provider requests",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
	}, []string{"operation"})

	requestFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "homework",
		Subsystem: "llm",
		Name:      "request_failures_total",
		Help:      "Number of failed AI provider requests",
	}, []string{"operation"})
)

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api      *openai.Client
	model    string
	variant  prompts.PromptVariant
	prompts  *prompts.Set
	validate *validator.Validate
	tracer   trace.Tracer
	now      func() time.Time
}

// New creates a new LLM client. An empty variant selects the standard grading prompt.
func New(baseURL, apiKey, modelName string, variant prompts.PromptVariant, set *prompts.Set) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if variant == "" {
		variant = prompts.PromptStandard
	}
	return &Client{
		api:      openai.NewClientWithConfig(config),
		model:    modelName,
		variant:  variant,
		prompts:  set,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		tracer:   otel.Tracer("github.com/pavelanni/homework/internal/llm"),
		now:      time.Now,
	}
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

// Ping checks that the endpoint answers by listing its models.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// GenerateAssignment asks the provider for a new assignment matching cfg.
// Empty configurations are rejected before any network call.
func (c *Client) GenerateAssignment(ctx context.Context, cfg model.GenerationConfig) (model.Assignment, error) {
	if cfg.TotalQuestions() == 0 {
		return model.Assignment{}, model.ErrEmptyConfiguration
	}
	if err := c.validate.Struct(cfg); err != nil {
		return model.Assignment{}, fmt.Errorf("%w: invalid configuration: %w", model.ErrGenerationFailed, err)
	}
	prompt, err := c.prompts.BuildGeneratePrompt(cfg)
	if err != nil {
		return model.Assignment{}, fmt.Errorf("%w: %w", model.ErrGenerationFailed, err)
	}

	raw, err := c.complete(ctx, opGenerate, prompt, "assignment", schema.AssignmentRequest, 0.7)
	if err != nil {
		return model.Assignment{}, fmt.Errorf("%w: %w", model.ErrGenerationFailed, err)
	}
	obj, err := schema.DecodeAssignment(raw)
	if err != nil {
		requestFailures.WithLabelValues(opGenerate).Inc()
		slog.Warn("unparsable generation response", "error", err)
		return model.Assignment{}, fmt.Errorf("%w: %w", model.ErrGenerationFailed, err)
	}
	a, err := coerceAssignment(obj, cfg)
	if err != nil {
		requestFailures.WithLabelValues(opGenerate).Inc()
		return model.Assignment{}, fmt.Errorf("%w: %w", model.ErrGenerationFailed, err)
	}
	a.ID = uuid.NewString()
	a.CreatedAt = c.now()

	if want := cfg.TotalQuestions(); len(a.Questions) != want {
		slog.Warn("generated question count differs from request",
			"assignment_id", a.ID, "requested", want, "received", len(a.Questions))
	}
	slog.Info("assignment generated", "assignment_id", a.ID, "questions", len(a.Questions))
	return a, nil
}

// Assess renders the grading prompt for sub and returns the provider's raw
// reply. Parsing is left to grading.ParseAssessment.
func (c *Client) Assess(ctx context.Context, a model.Assignment, sub model.Submission) (string, error) {
	prompt, err := c.prompts.BuildGradePrompt(c.variant, a, sub)
	if err != nil {
		return "", err
	}
	return c.complete(ctx, opAssess, prompt, "grading", schema.GradingRequest, 0.1)
}

const systemPrompt = "You are a careful school teacher's assistant. Always answer with a single JSON object and nothing else."

func (c *Client) complete(ctx context.Context, op, prompt, schemaName, responseSchema string, temperature float32) (string, error) {
	ctx, span := c.tracer.Start(ctx, "llm."+op, trace.WithAttributes(
		attribute.String("model", c.model),
		attribute.Int("prompt_length", len(prompt)),
	))
	defer span.End()

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   schemaName,
				Schema: json.RawMessage(responseSchema),
				Strict: true,
			},
		},
		Temperature: temperature,
	})
	requestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		return "", c.fail(span, op, fmt.Errorf("LLM API call: %w", err))
	}
	if len(resp.Choices) == 0 {
		return "", c.fail(span, op, errors.New("LLM returned no choices"))
	}

	raw := strings.TrimSpace(resp.Choices[0].Message.Content)
	if raw == "" {
		return "", c.fail(span, op, errors.New("LLM returned an empty response"))
	}
	span.SetAttributes(attribute.Int("total_tokens", resp.Usage.TotalTokens))
	slog.Debug("LLM response", "operation", op, "raw", raw)
	return raw, nil
}

func (c *Client) fail(span trace.Span, op string, err error) error {
	requestFailures.WithLabelValues(op).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// coerceAssignment turns a validated generation reply into an Assignment.
// Entries that cannot be repaired are dropped; an assignment with no usable
// questions is an error.
func coerceAssignment(obj map[string]any, cfg model.GenerationConfig) (model.Assignment, error) {
	a := model.Assignment{
		Title:   content.Plain(cfg.Title),
		Subject: content.Plain(cfg.Subject),
		Grade:   cfg.Grade,
		Topic:   content.Plain(cfg.Topic),
	}
	if a.Title == "" {
		a.Title = content.Plain(stringField(obj, "title"))
	}
	if a.Title == "" {
		a.Title = a.Subject + " - " + a.Topic
	}

	items, _ := obj["questions"].([]any)
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			slog.Warn("dropping generated question", "index", i, "reason", "not an object")
			continue
		}
		q, err := coerceQuestion(m)
		if err != nil {
			slog.Warn("dropping generated question", "index", i, "reason", err)
			continue
		}
		q.ID = fmt.Sprintf("q%d", len(a.Questions)+1)
		a.Questions = append(a.Questions, q)
	}
	if len(a.Questions) == 0 {
		return model.Assignment{}, errors.New("response contained no usable questions")
	}
	return a, nil
}

func coerceQuestion(m map[string]any) (model.Question, error) {
	q := model.Question{
		Type:    model.QuestionType(strings.TrimSpace(stringField(m, "type"))),
		Content: content.Sanitize(stringField(m, "content")),
	}
	if !q.Type.Valid() {
		return model.Question{}, fmt.Errorf("unknown type %q", q.Type)
	}
	if q.Content == "" {
		return model.Question{}, errors.New("empty content")
	}
	answer := strings.TrimSpace(stringField(m, "correctAnswer"))

	switch q.Type {
	case model.TypeMultipleChoice:
		opts, _ := m["options"].([]any)
		for _, o := range opts {
			s, ok := o.(string)
			if !ok {
				continue
			}
			if s = stripLetterPrefix(content.Plain(s)); s != "" {
				q.Options = append(q.Options, s)
			}
		}
		if len(q.Options) < 4 {
			return model.Question{}, fmt.Errorf("multiple choice needs 4 options, got %d", len(q.Options))
		}
		q.Options = q.Options[:4]
		letter, ok := normalizeChoice(answer, q.Options)
		if !ok {
			return model.Question{}, fmt.Errorf("unresolvable answer key %q", answer)
		}
		q.CorrectAnswer = letter
	case model.TypeTrueFalse:
		v, ok := normalizeTrueFalse(answer)
		if !ok {
			return model.Question{}, fmt.Errorf("true/false answer key %q", answer)
		}
		q.CorrectAnswer = v
	default:
		q.CorrectAnswer = content.Plain(answer)
	}
	return q, nil
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// stripLetterPrefix removes a leading "A." / "B)" / "C:" label.
func stripLetterPrefix(s string) string {
	if labelled(s) {
		return strings.TrimSpace(s[2:])
	}
	return s
}

func labelled(s string) bool {
	if len(s) < 2 || !strings.ContainsRune(".):", rune(s[1])) {
		return false
	}
	i, ok := exam.LetterIndex(s[:1])
	return ok && i < 4
}

// normalizeChoice maps an answer key to its option letter. Accepted forms are
// a bare letter, a labelled letter ("b)", "C.") or the option text itself.
func normalizeChoice(answer string, options []string) (string, bool) {
	token := answer
	if labelled(token) {
		token = token[:1]
	}
	if i, ok := exam.LetterIndex(token); ok && i < len(options) {
		return exam.OptionLetter(i), true
	}
	plain := content.Plain(answer)
	for i, opt := range options {
		if strings.EqualFold(opt, plain) {
			return exam.OptionLetter(i), true
		}
	}
	return "", false
}

func normalizeTrueFalse(answer string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "đúng", "dung", "true", "t", "đ", "yes":
		return model.AnswerTrue, true
	case "sai", "false", "f", "s", "no":
		return model.AnswerFalse, true
	}
	return "", false
}
