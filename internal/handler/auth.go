package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/pavelanni/homework/internal/store"
)

const sessionCookieName = "session"

type loginRequest struct {
	Password string `json:"password" validate:"required,max=200"`
}

// requireTeacher checks for a valid teacher session cookie. With no teacher
// password configured every request passes.
func (h *Handler) requireTeacher(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(h.config.TeacherHash) == 0 {
			next.ServeHTTP(w, r)
			return
		}
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil || cookie.Value == "" {
			h.fail(w, r, errUnauthorized)
			return
		}
		if _, err := h.store.GetAuthSession(cookie.Value); err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				slog.Error("failed to get auth session", "error", err)
			}
			h.fail(w, r, errUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.fail(w, r, err)
		return
	}
	if len(h.config.TeacherHash) == 0 ||
		bcrypt.CompareHashAndPassword(h.config.TeacherHash, []byte(req.Password)) != nil {
		slog.Warn("teacher login failed", "remote", r.RemoteAddr)
		writeError(w, r, http.StatusUnauthorized, "ErrInvalidPassword", false)
		return
	}

	token, err := h.store.CreateAuthSession()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     h.cookiePath(),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.config.SecureCookies,
	})
	slog.Info("teacher logged in", "remote", r.RemoteAddr)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(sessionCookieName)
	if err == nil && cookie.Value != "" {
		_ = h.store.DeleteAuthSession(cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     h.cookiePath(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.SecureCookies,
	})
	w.WriteHeader(http.StatusNoContent)
}
