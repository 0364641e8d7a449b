package web

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/erazemk/wildcat/internal/api"
	"github.com/erazemk/wildcat/internal/auth"
	"github.com/erazemk/wildcat/internal/metrics"
	"github.com/erazemk/wildcat/internal/model"
	"github.com/erazemk/wildcat/internal/otp"
	"github.com/erazemk/wildcat/internal/store"
)

// pendingTTL bounds how long a guest's deferred item survives.
const pendingTTL = time.Hour

type loginPage struct {
	PageData
	Email   string
	Pending bool
}

// LoginPage handles GET /login.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	if GetWebClaims(r.Context()) != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.Templates.Render(w, "login.html", &loginPage{
		PageData: pageData(r, "Log in"),
		Pending:  hasPending(r),
	})
}

// LoginSubmit handles POST /login and emails a code.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	email := model.NormalizeEmail(r.FormValue("email"))
	page := &loginPage{PageData: pageData(r, "Log in"), Email: email, Pending: hasPending(r)}

	_, err := s.OTP.RequestCode(r.Context(), email)
	switch {
	case errors.Is(err, otp.ErrDomainNotAllowed):
		metrics.CodesSent.WithLabelValues("refused").Inc()
		page.Error = api.DomainMessage(s.OTP.Domain())
		s.Templates.RenderStatus(w, http.StatusBadRequest, "login.html", page)
		return
	case errors.Is(err, otp.ErrTooManyRequests):
		// A code is already on its way; let the user type it in.
		metrics.CodesSent.WithLabelValues("refused").Inc()
		page.Error = "A code was just sent. Check your inbox."
	case err != nil:
		metrics.CodesSent.WithLabelValues("failed").Inc()
		slog.Error("failed to send login code", "error", err)
		page.Error = "Could not send the login code, try again."
		s.Templates.RenderStatus(w, http.StatusBadGateway, "login.html", page)
		return
	default:
		metrics.CodesSent.WithLabelValues("sent").Inc()
	}

	page.Title = "Enter code"
	s.Templates.Render(w, "verify.html", page)
}

// VerifySubmit handles POST /login/verify.
func (s *Server) VerifySubmit(w http.ResponseWriter, r *http.Request) {
	email := model.NormalizeEmail(r.FormValue("email"))
	page := &loginPage{PageData: pageData(r, "Enter code"), Email: email, Pending: hasPending(r)}

	verified, err := s.OTP.VerifyCode(r.Context(), email, r.FormValue("code"))
	switch {
	case errors.Is(err, otp.ErrInvalidCode), errors.Is(err, otp.ErrExpiredCode), errors.Is(err, otp.ErrTooManyAttempts):
		metrics.Logins.WithLabelValues("rejected").Inc()
		slog.Warn("login code rejected", "email", email, "remote", r.RemoteAddr, "reason", err)
		page.Error = codeMessage(err)
		s.Templates.RenderStatus(w, http.StatusUnauthorized, "verify.html", page)
		return
	case err != nil:
		slog.Error("failed to verify login code", "error", err)
		page.Error = "Something went wrong, try again."
		s.Templates.RenderStatus(w, http.StatusInternalServerError, "verify.html", page)
		return
	}

	profile, created, err := store.EnsureProfile(r.Context(), s.DB, verified)
	if err != nil {
		slog.Error("failed to load profile", "email", verified, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	token, claims, err := auth.IssueToken(s.JWTSecret, profile.ID, profile.Email, s.SessionTTL)
	if err != nil {
		http.Error(w, "failed to issue session", http.StatusInternalServerError)
		return
	}
	s.setCookie(w, tokenCookie, token, time.Until(claims.ExpiresAt.Time))

	metrics.Logins.WithLabelValues("accepted").Inc()
	slog.Info("user logged in", "user", profile.ID, "new", created)

	if profile.NeedsOnboarding() {
		http.Redirect(w, r, "/welcome", http.StatusSeeOther)
		return
	}
	s.resume(w, r)
}

func codeMessage(err error) string {
	switch {
	case errors.Is(err, otp.ErrExpiredCode):
		return "That code has expired. Request a new one."
	case errors.Is(err, otp.ErrTooManyAttempts):
		return "Too many attempts. Request a new code."
	default:
		return "That code is not right. Check it and try again."
	}
}

// LoginCancel handles POST /login/cancel and forgets the deferred item.
func (s *Server) LoginCancel(w http.ResponseWriter, r *http.Request) {
	clearCookie(w, pendingCookie)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout handles POST /logout.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if claims := GetWebClaims(r.Context()); claims != nil {
		if err := store.RevokeToken(r.Context(), s.DB, claims.ID, claims.ExpiresAt.Time); err != nil {
			slog.Error("failed to revoke token", "error", err)
		} else {
			slog.Info("user logged out", "user", claims.UserID())
		}
	}
	clearCookie(w, tokenCookie)
	clearCookie(w, pendingCookie)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type welcomePage struct {
	PageData
	FullName string
}

// WelcomePage handles GET /welcome.
func (s *Server) WelcomePage(w http.ResponseWriter, r *http.Request) {
	if !GetWebProfile(r.Context()).NeedsOnboarding() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.Templates.Render(w, "welcome.html", &welcomePage{PageData: pageData(r, "Welcome")})
}

// WelcomeSubmit handles POST /welcome.
func (s *Server) WelcomeSubmit(w http.ResponseWriter, r *http.Request) {
	profile := GetWebProfile(r.Context())

	name, err := model.NormalizeFullName(r.FormValue("full_name"))
	if err != nil {
		page := &welcomePage{PageData: pageData(r, "Welcome"), FullName: r.FormValue("full_name")}
		page.Error = "Please enter your real full name."
		s.Templates.RenderStatus(w, http.StatusBadRequest, "welcome.html", page)
		return
	}

	if err := store.UpdateProfile(r.Context(), s.DB, profile.ID, model.ProfilePatch{FullName: &name}); err != nil {
		slog.Error("failed to save name", "user", profile.ID, "error", err)
		http.Error(w, "failed to save profile", http.StatusInternalServerError)
		return
	}
	slog.Info("onboarding completed", "user", profile.ID)
	s.resume(w, r)
}

// resume opens the item a guest tried to view before logging in, once.
func (s *Server) resume(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(pendingCookie)
	if err != nil || cookie.Value == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	clearCookie(w, pendingCookie)
	http.Redirect(w, r, "/items/"+url.PathEscape(cookie.Value), http.StatusSeeOther)
}

// deferItem remembers id as the one deferred item, replacing any earlier one.
func (s *Server) deferItem(w http.ResponseWriter, id string) {
	s.setCookie(w, pendingCookie, id, pendingTTL)
}

func hasPending(r *http.Request) bool {
	c, err := r.Cookie(pendingCookie)
	return err == nil && c.Value != ""
}
