package i18n

import "net/http"

// LangCookie remembers an explicit language choice made with ?lang=.
const LangCookie = "lang"

// Middleware negotiates the language of every request, preferring an explicit
// ?lang= parameter, then the lang cookie, then Accept-Language, and injects a
// matching localizer into the request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var prefs []string
		if q := r.URL.Query().Get("lang"); q != "" {
			prefs = append(prefs, q)
			http.SetCookie(w, &http.Cookie{
				Name:     LangCookie,
				Value:    Match(q),
				Path:     "/",
				MaxAge:   365 * 24 * 3600,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		if c, err := r.Cookie(LangCookie); err == nil {
			prefs = append(prefs, c.Value)
		}
		prefs = append(prefs, r.Header.Get("Accept-Language"))

		lang := Match(prefs...)
		w.Header().Set("Content-Language", lang)
		ctx := WithLocalizer(r.Context(), NewLocalizer(lang))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
