package web

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/wildcat/internal/model"
	"github.com/erazemk/wildcat/internal/store"
)

type feedPage struct {
	PageData
	Items      []model.Item
	Categories []string
	Category   string
}

// FeedPage handles GET /. The category filter is applied to the fetched
// active listings, so "All" shows exactly what was fetched, in order.
func (s *Server) FeedPage(w http.ResponseWriter, r *http.Request) {
	items, err := store.ListItems(r.Context(), s.DB, model.ItemQuery{Status: model.ItemStatusActive})
	if err != nil {
		slog.Error("failed to list items for feed", "error", err)
	}

	category := r.URL.Query().Get("category")
	if !model.ValidCategory(category) {
		category = "All"
	}
	shown := items
	if category != "All" {
		shown = make([]model.Item, 0, len(items))
		for _, item := range items {
			if item.Category == category {
				shown = append(shown, item)
			}
		}
	}

	page := &feedPage{
		PageData:   pageData(r, "Wildcat Market"),
		Items:      shown,
		Categories: append([]string{"All"}, model.Categories...),
		Category:   category,
	}
	if r.URL.Query().Get("created") != "" {
		page.Success = "Your listing is live."
	}
	s.Templates.Render(w, "feed.html", page)
}
