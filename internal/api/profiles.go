package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/wildcat/internal/model"
	"github.com/erazemk/wildcat/internal/store"
)

// ProfilesHandler handles profile endpoints.
type ProfilesHandler struct {
	DB *sql.DB
}

// Get handles GET /api/profiles/{id}. Other users only see the public fields.
func (h *ProfilesHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	p, err := store.GetProfile(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get profile")
		return
	}
	if p == nil {
		jsonError(w, http.StatusNotFound, "profile not found")
		return
	}
	if p.ID != claims.UserID() {
		p = &model.Profile{ID: p.ID, FullName: p.FullName, AvatarURL: p.AvatarURL, CreatedAt: p.CreatedAt}
	}
	jsonResponse(w, http.StatusOK, p)
}

// Update handles PATCH /api/profiles/{id}. Users can only change their own profile.
func (h *ProfilesHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	id := r.PathValue("id")
	if id != claims.UserID() {
		jsonError(w, http.StatusForbidden, "cannot edit another user's profile")
		return
	}

	var req model.ProfilePatch
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.FullName != nil {
		name, err := model.NormalizeFullName(*req.FullName)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "Please enter your real full name.")
			return
		}
		req.FullName = &name
	}
	if req.PhoneNumber != nil {
		phone := strings.TrimSpace(*req.PhoneNumber)
		if len(phone) > 32 {
			jsonError(w, http.StatusBadRequest, "Phone number is too long")
			return
		}
		req.PhoneNumber = &phone
	}

	if err := store.UpdateProfile(r.Context(), h.DB, id, req); err != nil {
		slog.Error("failed to update profile", "user", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}

	p, err := store.GetProfile(r.Context(), h.DB, id)
	if err != nil || p == nil {
		jsonError(w, http.StatusInternalServerError, "failed to get profile")
		return
	}
	slog.Info("profile updated", "user", id)
	jsonResponse(w, http.StatusOK, p)
}
