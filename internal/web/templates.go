package web

import (
	"database/sql"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erazemk/wildcat/internal/model"
	"github.com/erazemk/wildcat/internal/objstore"
	"github.com/erazemk/wildcat/internal/otp"
	webembed "github.com/erazemk/wildcat/web"
)

// Templates holds parsed HTML templates.
type Templates struct {
	templates map[string]*template.Template
}

// FuncMap returns the template function map.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"price": formatPrice,
		"ago":   timeAgo,
		"date": func(t time.Time) string {
			return t.Local().Format("Jan 2, 2006")
		},
		"sellerName": func(item *model.Item) string {
			if item.Seller == nil || strings.TrimSpace(item.Seller.FullName) == "" {
				return sellerFallback
			}
			return item.Seller.FullName
		},
		"firstName": func(item *model.Item) string {
			return item.SellerFirstName(sellerFallback)
		},
		"contactMailto": contactMailto,
		"smsURL": func(phone string) template.URL {
			return template.URL("sms:" + dialable(phone))
		},
		"telURL": func(phone string) template.URL {
			return template.URL("tel:" + dialable(phone))
		},
		"initial": func(name string) string {
			for _, r := range name {
				return strings.ToUpper(string(r))
			}
			return "?"
		},
	}
}

const sellerFallback = "Davidson Student"

func formatPrice(d decimal.Decimal) string {
	if d.IsZero() {
		return "Free"
	}
	if d.Equal(d.Truncate(0)) {
		return "$" + d.StringFixed(0)
	}
	return "$" + d.StringFixed(2)
}

// timeAgo renders a coarse relative time such as "3 hours ago".
func timeAgo(t time.Time) string {
	d := time.Since(t)
	plural := func(n int, unit string) string {
		if n == 1 {
			return fmt.Sprintf("1 %s ago", unit)
		}
		return fmt.Sprintf("%d %ss ago", n, unit)
	}
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d/time.Minute), "minute")
	case d < 24*time.Hour:
		return plural(int(d/time.Hour), "hour")
	case d < 30*24*time.Hour:
		return plural(int(d/(24*time.Hour)), "day")
	case d < 365*24*time.Hour:
		return plural(int(d/(30*24*time.Hour)), "month")
	default:
		return plural(int(d/(365*24*time.Hour)), "year")
	}
}

// dialable keeps the characters of a phone number that belong in a tel: or sms: URL.
func dialable(phone string) string {
	return strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '+' {
			return r
		}
		return -1
	}, phone)
}

func contactMailto(item *model.Item) template.URL {
	q := url.Values{}
	q.Set("subject", "Regarding: "+item.Title)
	q.Set("body", "Hi, I am interested in your listing for "+item.Title+".")
	return template.URL("mailto:?" + strings.ReplaceAll(q.Encode(), "+", "%20"))
}

func reportMailto(moderator string, item *model.Item) template.URL {
	seller := sellerFallback
	if item.Seller != nil && item.Seller.FullName != "" {
		seller = item.Seller.FullName
	}
	q := url.Values{}
	q.Set("subject", fmt.Sprintf("Report Listing: %s (ID: %s)", item.Title, item.ID))
	q.Set("body", fmt.Sprintf("I would like to report this listing.\n\nReason:\n\n\n---\nItem ID: %s\nSeller: %s", item.ID, seller))
	return template.URL("mailto:" + moderator + "?" + strings.ReplaceAll(q.Encode(), "+", "%20"))
}

// LoadTemplates parses all page templates with the layout.
func LoadTemplates() (*Templates, error) {
	tfs := webembed.Templates

	layoutBytes, err := fs.ReadFile(tfs, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("reading layout template: %w", err)
	}

	pages := []string{
		"feed.html",
		"login.html",
		"verify.html",
		"welcome.html",
		"item.html",
		"sell.html",
		"listings.html",
	}

	ts := &Templates{templates: make(map[string]*template.Template)}

	for _, page := range pages {
		pageBytes, err := fs.ReadFile(tfs, page)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", page, err)
		}

		tmpl := template.New(page).Funcs(FuncMap())
		tmpl, err = tmpl.Parse(string(layoutBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", page, err)
		}
		tmpl, err = tmpl.Parse(string(pageBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}

		ts.templates[page] = tmpl
	}

	return ts, nil
}

// Render renders a template with the given data.
func (ts *Templates) Render(w http.ResponseWriter, name string, data any) {
	ts.RenderStatus(w, http.StatusOK, name, data)
}

// RenderStatus renders a template with a non-200 status.
func (ts *Templates) RenderStatus(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := ts.templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
	}
}

// PageData is the base data passed to all templates.
type PageData struct {
	Title   string
	User    *model.Profile
	Error   string
	Success string
}

// HeaderName is the name shown in the navigation bar.
func (d *PageData) HeaderName() string {
	if d.User == nil || d.User.FullName == nil {
		return "Student"
	}
	return model.FirstName(*d.User.FullName, "Student")
}

// Server holds all dependencies for page handlers.
type Server struct {
	DB             *sql.DB
	Templates      *Templates
	JWTSecret      string
	OTP            *otp.Service
	Objects        objstore.Store
	SessionTTL     time.Duration
	ModeratorEmail string
	SecureCookies  bool
}
