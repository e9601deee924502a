package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"pharma-erp/internal/auth"
	"pharma-erp/internal/core"
)

const authCookieName = "auth_token"

type doctorIDKey struct{}

// doctorIDFromContext returns the authenticated doctor's id, or empty string.
func doctorIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(doctorIDKey{}).(string)
	return v
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token    string `json:"token"`
	DoctorID string `json:"doctor_id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// handleLogin authenticates a doctor-portal account and issues a session
// token, both in the body and as an HttpOnly cookie.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, "invalid JSON body", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, r, "username and password are required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	doctor, err := h.patients.GetDoctorByUsername(r.Context(), req.Username)
	if err != nil {
		var notFound *core.NotFoundError
		if errors.As(err, &notFound) {
			// Same response as a wrong password, so usernames can't be probed.
			writeError(w, r, "invalid credentials", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}
		writeDomainError(w, r, err)
		return
	}
	if !auth.VerifyPassword(doctor.PasswordHash, req.Password) {
		writeError(w, r, "invalid credentials", "UNAUTHORIZED", http.StatusUnauthorized)
		return
	}

	token, err := auth.IssueToken(h.jwtSecret, doctor.ID, doctor.Username)
	if err != nil {
		writeError(w, r, "failed to issue session token", "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(12 * time.Hour),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, loginResponse{
		Token:    token,
		DoctorID: doctor.ID,
		Username: doctor.Username,
		Name:     doctor.Name,
	})
}

// handleLogout clears the session cookie.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// RequireAuth gates the doctor portal. It accepts the session token from the
// auth cookie or a Bearer Authorization header and puts the doctor id on the
// request context.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ""
		if c, err := r.Cookie(authCookieName); err == nil {
			token = c.Value
		}
		if token == "" {
			const prefix = "Bearer "
			if ah := r.Header.Get("Authorization"); len(ah) > len(prefix) && ah[:len(prefix)] == prefix {
				token = ah[len(prefix):]
			}
		}
		if token == "" {
			writeError(w, r, "authentication required", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}

		claims, err := auth.ParseToken(h.jwtSecret, token)
		if err != nil {
			writeError(w, r, "invalid or expired token", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), doctorIDKey{}, claims.DoctorID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
