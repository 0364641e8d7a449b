package web

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/wildcat/internal/auth"
	"github.com/erazemk/wildcat/internal/model"
	"github.com/erazemk/wildcat/internal/store"
)

type webContextKey string

const webClaimsKey webContextKey = "webclaims"
const webProfileKey webContextKey = "webprofile"

const (
	tokenCookie   = "token"
	pendingCookie = "pending"
)

// SessionMiddleware reads the session cookie, checks token revocation and adds
// claims and profile to the context. Guests pass through without them.
func SessionMiddleware(secret string, db *sql.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(tokenCookie)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ValidateToken(secret, cookie.Value)
			if err != nil {
				clearCookie(w, tokenCookie)
				next.ServeHTTP(w, r)
				return
			}

			revoked, err := store.IsTokenRevoked(r.Context(), db, claims.ID)
			if err != nil {
				slog.Error("failed to check token revocation", "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			profile, err := store.GetProfile(r.Context(), db, claims.UserID())
			if err != nil {
				slog.Error("failed to load profile", "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			if revoked || profile == nil {
				clearCookie(w, tokenCookie)
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), webClaimsKey, claims)
			ctx = context.WithValue(ctx, webProfileKey, profile)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireLogin sends guests to the login page.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetWebClaims(r.Context()) == nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireProfile sends users who have not picked a display name to /welcome.
// Guests pass through.
func RequireProfile(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p := GetWebProfile(r.Context()); p != nil && p.NeedsOnboarding() {
			http.Redirect(w, r, "/welcome", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) setCookie(w http.ResponseWriter, name, value string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge / time.Second),
		HttpOnly: true,
		Secure:   s.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearCookie clears a cookie with consistent attributes.
func clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// GetWebClaims retrieves the JWT claims from web context.
func GetWebClaims(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(webClaimsKey).(*auth.Claims)
	return claims
}

// GetWebProfile retrieves the signed-in user's profile from web context.
func GetWebProfile(ctx context.Context) *model.Profile {
	p, _ := ctx.Value(webProfileKey).(*model.Profile)
	return p
}

func pageData(r *http.Request, title string) PageData {
	return PageData{Title: title, User: GetWebProfile(r.Context())}
}
