package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return WithLocalizer(context.Background(), NewLocalizer(lang))
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	if got := T(ctx, "AppTitle"); got != "Homework" {
		t.Errorf("T(AppTitle) = %q, want 'Homework'", got)
	}
	if got := T(ctx, "ErrGradingBusy"); got != "This submission is already being graded." {
		t.Errorf("T(ErrGradingBusy) = %q", got)
	}
}

func TestTranslateVietnamese(t *testing.T) {
	ctx := initLang(t, "vi")

	if got := T(ctx, "AppTitle"); got != "Bài tập về nhà" {
		t.Errorf("T(AppTitle) = %q, want 'Bài tập về nhà'", got)
	}
	if got := T(ctx, "CorrectAnswer"); got != "Đáp án đúng" {
		t.Errorf("T(CorrectAnswer) = %q", got)
	}
}

func TestPluralTranslation(t *testing.T) {
	tests := []struct {
		lang  string
		count int
		want  string
	}{
		{"en", 1, "1 question"},
		{"en", 5, "5 questions"},
		{"vi", 1, "1 câu hỏi"},
		{"vi", 5, "5 câu hỏi"},
	}
	for _, tt := range tests {
		ctx := initLang(t, tt.lang)
		if got := Tp(ctx, "QuestionsCount", tt.count); got != tt.want {
			t.Errorf("Tp(%s, %d) = %q, want %q", tt.lang, tt.count, got, tt.want)
		}
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got := Td(ctx, "ScoreOf", map[string]any{"Score": 7.5, "Total": 10})
	if got != "Score: 7.5 / 10" {
		t.Errorf("Td(ScoreOf) = %q, want 'Score: 7.5 / 10'", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	if got := T(ctx, "NonExistentKey"); got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want 'NonExistentKey'", got)
	}
}

func TestMatch(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	tests := []struct {
		prefs []string
		want  string
	}{
		{[]string{"vi"}, "vi"},
		{[]string{"vi-VN,vi;q=0.9,en;q=0.5"}, "vi"},
		{[]string{"en-US"}, "en"},
		{[]string{"fr"}, "en"},
		{nil, "en"},
		{[]string{"", "vi"}, "vi"},
	}
	for _, tt := range tests {
		if got := Match(tt.prefs...); got != tt.want {
			t.Errorf("Match(%q) = %q, want %q", tt.prefs, got, tt.want)
		}
	}
	if langs := Languages(); len(langs) != 2 || langs[0] != "en" {
		t.Errorf("Languages() = %v", langs)
	}
}

func TestMiddleware(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(T(r.Context(), "AppTitle")))
	}))

	tests := []struct {
		name   string
		target string
		accept string
		cookie string
		want   string
	}{
		{"default", "/", "", "", "Homework"},
		{"accept-language", "/", "vi-VN,vi;q=0.9", "", "Bài tập về nhà"},
		{"cookie beats header", "/", "en", "vi", "Bài tập về nhà"},
		{"query beats cookie", "/?lang=en", "vi", "vi", "Homework"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.accept != "" {
				req.Header.Set("Accept-Language", tt.accept)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: LangCookie, Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if got := rec.Body.String(); got != tt.want {
				t.Errorf("body = %q, want %q", got, tt.want)
			}
		})
	}
}
