package schema

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestExtractObject(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"bare", `{"a":1}`, `{"a":1}`, false},
		{"fenced", "```json\n{\"a\":{\"b\":2}}\n```", `{"a":{"b":2}}`, false},
		{"prose around", `Sure! {"a":1} Hope this helps.`, `{"a":1}`, false},
		{"no object", "nothing here", "", true},
		{"reversed braces", "} oops {", "", true},
		{"empty", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractObject(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrNoObject) {
					t.Errorf("expected ErrNoObject, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractObject: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRequestSchemasAreJSON(t *testing.T) {
	for name, s := range map[string]string{"assignment": AssignmentRequest, "grading": GradingRequest} {
		if !json.Valid([]byte(s)) {
			t.Errorf("%s request schema is not valid JSON", name)
		}
	}
}

func TestDecodeAssignment(t *testing.T) {
	m, err := DecodeAssignment(`{"title":"T","questions":[{"type":"essay"}]}`)
	if err != nil {
		t.Fatalf("DecodeAssignment: %v", err)
	}
	if m["title"] != "T" {
		t.Errorf("title = %v", m["title"])
	}

	for _, raw := range []string{
		`{"title":"T","questions":[]}`,
		`{"title":"T"}`,
		`{"questions":"many"}`,
	} {
		if _, err := DecodeAssignment(raw); err == nil {
			t.Errorf("DecodeAssignment(%s) expected error", raw)
		}
	}
}

func TestDecodeGrading(t *testing.T) {
	if _, err := DecodeGrading(`{"results":[1,"x",{}]}`); err != nil {
		t.Errorf("loose entries should pass envelope check: %v", err)
	}
	if _, err := DecodeGrading(`{"results":{}}`); err == nil {
		t.Error("expected error for non-array results")
	}
}
