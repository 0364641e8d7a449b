package web

import (
	"net/http"

	webembed "github.com/erazemk/wildcat/web"
)

// NewRouter creates the web page router with all page routes registered.
// s.Templates is loaded if nil.
func NewRouter(s *Server) (http.Handler, error) {
	if s.Templates == nil {
		templates, err := LoadTemplates()
		if err != nil {
			return nil, err
		}
		s.Templates = templates
	}

	mux := http.NewServeMux()
	session := SessionMiddleware(s.JWTSecret, s.DB)
	page := func(h http.HandlerFunc) http.Handler { return session(RequireProfile(h)) }
	member := func(h http.HandlerFunc) http.Handler { return session(RequireLogin(RequireProfile(h))) }

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.Static))))

	// Feed and login: open to guests.
	mux.Handle("GET /{$}", page(s.FeedPage))
	mux.Handle("GET /login", session(http.HandlerFunc(s.LoginPage)))
	mux.Handle("POST /login", session(http.HandlerFunc(s.LoginSubmit)))
	mux.Handle("POST /login/verify", session(http.HandlerFunc(s.VerifySubmit)))
	mux.HandleFunc("POST /login/cancel", s.LoginCancel)
	mux.Handle("POST /logout", session(http.HandlerFunc(s.Logout)))

	// Onboarding.
	mux.Handle("GET /welcome", session(RequireLogin(http.HandlerFunc(s.WelcomePage))))
	mux.Handle("POST /welcome", session(RequireLogin(http.HandlerFunc(s.WelcomeSubmit))))

	// Item detail defers guests through the login page.
	mux.Handle("GET /items/{id}", page(s.ItemDetailPage))

	mux.Handle("GET /sell", member(s.SellPage))
	mux.Handle("POST /sell", member(s.SellSubmit))

	mux.Handle("GET /me/listings", member(s.MyListingsPage))
	mux.Handle("POST /me/listings/{id}", member(s.ListingUpdateSubmit))
	mux.Handle("POST /me/listings/{id}/sold", member(s.ListingSoldSubmit))
	mux.Handle("POST /me/listings/{id}/delete", member(s.ListingDeleteSubmit))

	return mux, nil
}
