package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/erazemk/wildcat/internal/metrics"
	"github.com/erazemk/wildcat/internal/model"
	"github.com/erazemk/wildcat/internal/store"
)

// ItemsHandler handles listing endpoints.
type ItemsHandler struct {
	DB *sql.DB
}

type createItemRequest struct {
	Title        string   `json:"title"`
	Price        string   `json:"price"`
	Description  string   `json:"description"`
	Category     string   `json:"category"`
	Condition    string   `json:"condition"`
	Images       []string `json:"images"`
	DisplayPhone *string  `json:"display_phone"`
}

type updateItemRequest struct {
	Title  *string `json:"title"`
	Price  *string `json:"price"`
	Status *string `json:"status"`
}

// List handles GET /api/items.
// Query: status, exclude_status, seller_id, category. Archived items are
// excluded unless a status is requested explicitly.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := model.ItemQuery{
		Status:        q.Get("status"),
		ExcludeStatus: q.Get("exclude_status"),
		SellerID:      q.Get("seller_id"),
		Category:      q.Get("category"),
	}
	if (f.Status != "" && !model.ValidStatus(f.Status)) || (f.ExcludeStatus != "" && !model.ValidStatus(f.ExcludeStatus)) {
		jsonError(w, http.StatusBadRequest, "invalid status")
		return
	}
	if f.Status == "" && f.ExcludeStatus == "" {
		f.ExcludeStatus = model.ItemStatusArchived
	}
	// Only the owner may list their archived items.
	if f.Status == model.ItemStatusArchived {
		claims := GetClaims(r.Context())
		if claims == nil || f.SellerID != claims.UserID() {
			jsonError(w, http.StatusForbidden, "archived items are private")
			return
		}
	}

	items, err := store.ListItems(r.Context(), h.DB, f)
	if err != nil {
		slog.Error("failed to list items", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req createItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	profile, err := store.GetProfile(r.Context(), h.DB, claims.UserID())
	if err != nil || profile == nil {
		jsonError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}
	if profile.NeedsOnboarding() {
		jsonError(w, http.StatusForbidden, "complete your profile first")
		return
	}

	in := model.ListingInput{
		Title:       req.Title,
		Price:       req.Price,
		Description: req.Description,
		Category:    req.Category,
		Condition:   req.Condition,
	}
	if req.DisplayPhone != nil {
		in.Phone = *req.DisplayPhone
		in.ShowPhone = true
	}
	in.Normalize()
	price, err := in.Validate()
	if err != nil {
		jsonInvalid(w, err)
		return
	}

	if len(req.Images) > model.MaxImages {
		jsonError(w, http.StatusBadRequest, "a listing can have at most 3 photos")
		return
	}
	for _, u := range req.Images {
		if strings.TrimSpace(u) == "" {
			jsonError(w, http.StatusBadRequest, "invalid photo URL")
			return
		}
	}

	var displayPhone *string
	if in.ShowPhone && in.Phone != "" {
		displayPhone = &in.Phone
	}

	item, err := store.CreateItem(r.Context(), h.DB, claims.UserID(), model.NewListing{
		Title:        in.Title,
		Price:        price,
		Description:  in.Description,
		Category:     in.Category,
		Condition:    in.Condition,
		Images:       req.Images,
		DisplayPhone: displayPhone,
	})
	if err != nil {
		slog.Error("failed to create item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create item")
		return
	}

	metrics.ListingsCreated.WithLabelValues(item.Category).Inc()
	slog.Info("listing created", "user", claims.UserID(), "item", item.ID, "photos", len(item.Images))
	jsonResponse(w, http.StatusCreated, item)
}

// Get handles GET /api/items/{id}. Archived items are only visible to their seller.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	item, err := store.GetItem(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if item == nil || (item.Status == model.ItemStatusArchived && item.SellerID != claims.UserID()) {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Update handles PATCH /api/items/{id}. Only the seller may change an item.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	id := r.PathValue("id")

	var req updateItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var u model.ItemPatch
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			jsonError(w, http.StatusBadRequest, "Please enter a title")
			return
		}
		if utf8.RuneCountInString(title) > 60 {
			jsonError(w, http.StatusBadRequest, "Title is too long (max 60 characters)")
			return
		}
		u.Title = &title
	}
	if req.Price != nil {
		raw := model.ClampPrice(*req.Price)
		if raw == "" {
			jsonError(w, http.StatusBadRequest, "Please enter a price")
			return
		}
		price, err := model.ParsePrice(raw)
		if err != nil {
			jsonInvalid(w, err)
			return
		}
		u.Price = &price
	}
	if req.Status != nil {
		if !model.ValidStatus(*req.Status) {
			jsonError(w, http.StatusBadRequest, "invalid status")
			return
		}
		if *req.Status == model.ItemStatusArchived {
			jsonError(w, http.StatusBadRequest, "use DELETE to remove a listing")
			return
		}
		u.Status = req.Status
	}

	ok, err := store.UpdateItem(r.Context(), h.DB, id, claims.UserID(), u)
	if err != nil {
		slog.Error("failed to update item", "item", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update item")
		return
	}
	if !ok {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	if u.Status != nil {
		metrics.ListingTransitions.WithLabelValues(*u.Status).Inc()
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil || item == nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	slog.Info("listing updated", "user", claims.UserID(), "item", id)
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/items/{id}. The item is archived, not removed.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	id := r.PathValue("id")

	ok, err := store.ArchiveItem(r.Context(), h.DB, id, claims.UserID())
	if err != nil {
		slog.Error("failed to archive item", "item", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to delete item")
		return
	}
	if !ok {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	metrics.ListingTransitions.WithLabelValues(model.ItemStatusArchived).Inc()
	slog.Info("listing archived", "user", claims.UserID(), "item", id)
	w.WriteHeader(http.StatusNoContent)
}
