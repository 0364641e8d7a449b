package web

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/wildcat/internal/metrics"
	"github.com/erazemk/wildcat/internal/model"
	"github.com/erazemk/wildcat/internal/store"
)

type listingsPage struct {
	PageData
	Items   []model.Item
	Editing string
	Form    model.ListingEdit
}

func (s *Server) renderListings(w http.ResponseWriter, r *http.Request, status int, page *listingsPage) {
	profile := GetWebProfile(r.Context())
	items, err := store.ListItems(r.Context(), s.DB, model.ItemQuery{
		SellerID:      profile.ID,
		ExcludeStatus: model.ItemStatusArchived,
	})
	if err != nil {
		slog.Error("failed to list own items", "user", profile.ID, "error", err)
		page.Error = "Could not load your listings."
	}
	page.PageData.User = profile
	page.Title = "My Listings"
	page.Items = items
	s.Templates.RenderStatus(w, status, "listings.html", page)
}

// MyListingsPage handles GET /me/listings. ?edit={id} opens the edit form for
// one listing; only one can be open at a time.
func (s *Server) MyListingsPage(w http.ResponseWriter, r *http.Request) {
	page := &listingsPage{Editing: r.URL.Query().Get("edit")}
	switch r.URL.Query().Get("done") {
	case "saved":
		page.Success = "Listing updated."
	case "sold":
		page.Success = "Marked as sold."
	case "deleted":
		page.Success = "Listing deleted."
	}
	s.renderListings(w, r, http.StatusOK, page)
}

// ListingUpdateSubmit handles POST /me/listings/{id}.
func (s *Server) ListingUpdateSubmit(w http.ResponseWriter, r *http.Request) {
	profile := GetWebProfile(r.Context())
	id := r.PathValue("id")

	edit := model.ListingEdit{Title: r.FormValue("title"), Price: r.FormValue("price")}
	edit.Normalize()
	price, err := edit.Validate()
	if err != nil {
		page := &listingsPage{Editing: id, Form: edit}
		page.Error = err.Error()
		s.renderListings(w, r, http.StatusBadRequest, page)
		return
	}

	ok, err := store.UpdateItem(r.Context(), s.DB, id, profile.ID, model.ItemPatch{Title: &edit.Title, Price: &price})
	if err != nil {
		slog.Error("failed to update item", "item", id, "error", err)
		page := &listingsPage{Editing: id, Form: edit}
		page.Error = "Could not save your changes, try again."
		s.renderListings(w, r, http.StatusInternalServerError, page)
		return
	}
	if !ok {
		http.Error(w, "item not found", http.StatusNotFound)
		return
	}
	slog.Info("listing updated", "user", profile.ID, "item", id)
	http.Redirect(w, r, "/me/listings?done=saved", http.StatusSeeOther)
}

// ListingSoldSubmit handles POST /me/listings/{id}/sold.
func (s *Server) ListingSoldSubmit(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, model.ItemStatusSold, "sold")
}

// ListingDeleteSubmit handles POST /me/listings/{id}/delete. The listing is archived.
func (s *Server) ListingDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, model.ItemStatusArchived, "deleted")
}

func (s *Server) transition(w http.ResponseWriter, r *http.Request, status, done string) {
	profile := GetWebProfile(r.Context())
	id := r.PathValue("id")

	var ok bool
	var err error
	if status == model.ItemStatusArchived {
		ok, err = store.ArchiveItem(r.Context(), s.DB, id, profile.ID)
	} else {
		ok, err = store.UpdateItem(r.Context(), s.DB, id, profile.ID, model.ItemPatch{Status: &status})
	}
	if err != nil {
		slog.Error("failed to change listing status", "item", id, "status", status, "error", err)
		page := &listingsPage{}
		page.Error = "Could not update the listing, try again."
		s.renderListings(w, r, http.StatusInternalServerError, page)
		return
	}
	if !ok {
		http.Error(w, "item not found", http.StatusNotFound)
		return
	}

	metrics.ListingTransitions.WithLabelValues(status).Inc()
	slog.Info("listing status changed", "user", profile.ID, "item", id, "status", status)
	http.Redirect(w, r, "/me/listings?done="+done, http.StatusSeeOther)
}
