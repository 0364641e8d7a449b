package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/erazemk/wildcat/internal/objstore"
	"github.com/erazemk/wildcat/internal/otp"
)

// Server bundles what the API handlers need.
type Server struct {
	DB         *sql.DB
	JWTSecret  string
	OTP        *otp.Service
	Objects    objstore.Store
	SessionTTL time.Duration
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(s Server) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: s.DB, JWTSecret: s.JWTSecret, OTP: s.OTP, SessionTTL: s.SessionTTL}
	itemsHandler := &ItemsHandler{DB: s.DB}
	profilesHandler := &ProfilesHandler{DB: s.DB}
	storageHandler := &StorageHandler{Objects: s.Objects}

	authMW := AuthMiddleware(s.JWTSecret, s.DB)
	optionalAuth := OptionalAuthMiddleware(s.JWTSecret, s.DB)

	// Public: code login.
	mux.HandleFunc("POST /api/auth/otp", authHandler.RequestCode)
	mux.HandleFunc("POST /api/auth/verify", authHandler.Verify)

	// Authenticated session.
	mux.Handle("GET /api/auth/session", authMW(http.HandlerFunc(authHandler.Session)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Items: the feed is public, everything else needs a session.
	mux.Handle("GET /api/items", optionalAuth(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("POST /api/items", authMW(http.HandlerFunc(itemsHandler.Create)))
	mux.Handle("GET /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("PATCH /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Update)))
	mux.Handle("DELETE /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Delete)))

	// Profiles.
	mux.Handle("GET /api/profiles/{id}", authMW(http.HandlerFunc(profilesHandler.Get)))
	mux.Handle("PATCH /api/profiles/{id}", authMW(http.HandlerFunc(profilesHandler.Update)))

	// Photo uploads.
	mux.Handle("PUT /api/storage/{bucket}/{key...}", authMW(http.HandlerFunc(storageHandler.Put)))

	return mux
}
