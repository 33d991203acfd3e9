// Package schema holds the JSON schemas sent to the AI provider and validates
// the provider's replies.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// AssignmentRequest is the response schema requested for generated assignments.
const AssignmentRequest = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["title", "questions"],
  "properties": {
    "title": {"type": "string"},
    "questions": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["type", "content", "options", "correctAnswer"],
        "properties": {
          "type": {"type": "string", "enum": ["multiple_choice", "true_false", "short_answer", "essay"]},
          "content": {"type": "string"},
          "options": {"type": "array", "items": {"type": "string"}},
          "correctAnswer": {"type": "string"}
        }
      }
    }
  }
}`

// GradingRequest is the response schema requested for assessments.
const GradingRequest = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["results", "overallComment"],
  "properties": {
    "results": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["questionId", "score", "feedback"],
        "properties": {
          "questionId": {"type": "string"},
          "score": {"type": "number"},
          "feedback": {"type": "string"}
        }
      }
    },
    "overallComment": {"type": "string"}
  }
}`

// Replies are only held to their envelope; entries are coerced one by one.
const (
	assignmentReply = `{
  "type": "object",
  "required": ["questions"],
  "properties": {"questions": {"type": "array", "minItems": 1}}
}`
	gradingReply = `{
  "type": "object",
  "required": ["results"],
  "properties": {"results": {"type": "array"}}
}`
)

// ErrNoObject is returned when a reply holds no {...} span.
var ErrNoObject = errors.New("no JSON object in response")

var (
	assignmentSchema = jsonschema.MustCompileString("assignment.json", assignmentReply)
	gradingSchema    = jsonschema.MustCompileString("grading.json", gradingReply)
)

// ExtractObject returns the outermost {...} span of s, dropping any prose or
// markdown fences the model wrapped around it.
func ExtractObject(s string) (string, error) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", ErrNoObject
	}
	return s[start : end+1], nil
}

// DecodeAssignment extracts and validates a generation reply.
func DecodeAssignment(raw string) (map[string]any, error) {
	return decode(raw, assignmentSchema)
}

// DecodeGrading extracts and validates a grading reply.
func DecodeGrading(raw string) (map[string]any, error) {
	return decode(raw, gradingSchema)
}

func decode(raw string, sch *jsonschema.Schema) (map[string]any, error) {
	obj, err := ExtractObject(raw)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal([]byte(obj), &v); err != nil {
		return nil, fmt.Errorf("parse response json: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return nil, fmt.Errorf("validate response: %w", err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("response is %T, not an object", v)
	}
	return m, nil
}
