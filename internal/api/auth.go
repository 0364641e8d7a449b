package api

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/erazemk/wildcat/internal/auth"
	"github.com/erazemk/wildcat/internal/metrics"
	"github.com/erazemk/wildcat/internal/model"
	"github.com/erazemk/wildcat/internal/otp"
	"github.com/erazemk/wildcat/internal/store"
)

// AuthHandler handles login code and session endpoints.
type AuthHandler struct {
	DB         *sql.DB
	JWTSecret  string
	OTP        *otp.Service
	SessionTTL time.Duration
}

type requestCodeRequest struct {
	Email string `json:"email"`
}

type verifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// RequestCode handles POST /api/auth/otp.
func (h *AuthHandler) RequestCode(w http.ResponseWriter, r *http.Request) {
	var req requestCodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	email, err := h.OTP.RequestCode(r.Context(), req.Email)
	switch {
	case errors.Is(err, otp.ErrDomainNotAllowed):
		metrics.CodesSent.WithLabelValues("refused").Inc()
		jsonError(w, http.StatusBadRequest, DomainMessage(h.OTP.Domain()))
		return
	case errors.Is(err, otp.ErrTooManyRequests):
		metrics.CodesSent.WithLabelValues("refused").Inc()
		jsonError(w, http.StatusTooManyRequests, err.Error())
		return
	case err != nil:
		metrics.CodesSent.WithLabelValues("failed").Inc()
		slog.Error("failed to send login code", "error", err)
		jsonError(w, http.StatusBadGateway, "could not send the login code, try again")
		return
	}

	metrics.CodesSent.WithLabelValues("sent").Inc()
	jsonResponse(w, http.StatusOK, map[string]string{"email": email})
}

// Verify handles POST /api/auth/verify.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	email, err := h.OTP.VerifyCode(r.Context(), req.Email, req.Code)
	switch {
	case errors.Is(err, otp.ErrInvalidCode), errors.Is(err, otp.ErrExpiredCode), errors.Is(err, otp.ErrTooManyAttempts):
		metrics.Logins.WithLabelValues("rejected").Inc()
		slog.Warn("login code rejected", "email", model.NormalizeEmail(req.Email), "remote", r.RemoteAddr, "reason", err)
		jsonError(w, http.StatusUnauthorized, err.Error())
		return
	case err != nil:
		slog.Error("failed to verify login code", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	profile, created, err := store.EnsureProfile(r.Context(), h.DB, email)
	if err != nil {
		slog.Error("failed to load profile", "email", email, "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	token, claims, err := auth.IssueToken(h.JWTSecret, profile.ID, profile.Email, h.SessionTTL)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to issue session")
		return
	}

	metrics.Logins.WithLabelValues("accepted").Inc()
	slog.Info("user logged in", "user", profile.ID, "new", created)
	jsonResponse(w, http.StatusOK, model.Session{
		Token:     token,
		UserID:    profile.ID,
		Email:     profile.Email,
		ExpiresAt: claims.ExpiresAt.Time,
		Profile:   profile,
	})
}

// Session handles GET /api/auth/session.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	profile, err := store.GetProfile(r.Context(), h.DB, claims.UserID())
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}
	if profile == nil {
		jsonError(w, http.StatusUnauthorized, "account no longer exists")
		return
	}

	jsonResponse(w, http.StatusOK, model.Session{
		UserID:    profile.ID,
		Email:     profile.Email,
		ExpiresAt: claims.ExpiresAt.Time,
		Profile:   profile,
	})
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	if err := store.RevokeToken(r.Context(), h.DB, claims.ID, claims.ExpiresAt.Time); err != nil {
		slog.Error("failed to revoke token", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to log out")
		return
	}

	slog.Info("user logged out", "user", claims.UserID())
	w.WriteHeader(http.StatusNoContent)
}

// DomainMessage is the error shown for emails outside the institutional domain.
func DomainMessage(domain string) string {
	return fmt.Sprintf("Please use your @%s email address.", strings.TrimPrefix(domain, "@"))
}
