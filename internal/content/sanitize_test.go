package content

import (
	"strings"
	"testing"
)

func TestSanitizeKeepsSVG(t *testing.T) {
	in := `Find x: <svg viewBox="0 0 100 100" width="100"><line x1="0" y1="0" x2="100" y2="100" stroke="black"/></svg>`
	// The HTML tokenizer lowercases attribute names.
	got := strings.ToLower(Sanitize(in))
	for _, want := range []string{"<svg", `viewbox="0 0 100 100"`, "<line", `stroke="black"`} {
		if !strings.Contains(got, want) {
			t.Errorf("sanitized output missing %q: %s", want, got)
		}
	}
}

func TestSanitizeStripsScripts(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		banned string
	}{
		{"script tag", `2+2 <script>alert(1)</script>`, "<script"},
		{"event handler", `<svg onload="alert(1)"><circle r="5"/></svg>`, "onload"},
		{"javascript href", `<a href="javascript:alert(1)">x</a>`, "javascript:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.in); strings.Contains(got, tt.banned) {
				t.Errorf("Sanitize kept %q: %s", tt.banned, got)
			}
		})
	}
}

func TestSanitizeKeepsMath(t *testing.T) {
	in := `Solve $\frac{1}{2} + x = 3$`
	if got := Sanitize(in); got != in {
		t.Errorf("math markup changed: %q", got)
	}
}

func TestPlain(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{" <b>42</b> ", "42"},
		{"x > 3 & y < 2", "x > 3 & y < 2"},
		{`<img src=x onerror="alert(1)">1/2`, "1/2"},
	}
	for _, tt := range tests {
		if got := Plain(tt.in); got != tt.want {
			t.Errorf("Plain(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
