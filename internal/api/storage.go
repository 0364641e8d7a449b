package api

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/wildcat/internal/imaging"
	"github.com/erazemk/wildcat/internal/metrics"
	"github.com/erazemk/wildcat/internal/objstore"
)

// maxUpload allows some slack over the compressed photo budget.
const maxUpload = 2 * imaging.MaxBytes

// StorageHandler accepts photo uploads into the object store.
type StorageHandler struct {
	Objects objstore.Store
}

// Put handles PUT /api/storage/{bucket}/{key...}.
// Keys must live under the caller's ID, "<userID>/<name>".
func (h *StorageHandler) Put(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	bucket, key := r.PathValue("bucket"), r.PathValue("key")

	if bucket != objstore.ImagesBucket {
		jsonError(w, http.StatusNotFound, "unknown bucket")
		return
	}
	if err := objstore.CheckKey(bucket, key); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid object key")
		return
	}
	if !strings.HasPrefix(key, claims.UserID()+"/") {
		jsonError(w, http.StatusForbidden, "uploads must be stored under your own folder")
		return
	}

	defer r.Body.Close()
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUpload))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, http.StatusRequestEntityTooLarge, "photo is too large")
			return
		}
		jsonError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	contentType := http.DetectContentType(data)
	if !imaging.AllowedMIME[contentType] {
		jsonError(w, http.StatusBadRequest, "only JPEG, PNG and WebP photos are accepted")
		return
	}

	if err := h.Objects.Put(r.Context(), bucket, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		slog.Error("failed to store photo", "key", key, "error", err)
		jsonError(w, http.StatusBadGateway, "failed to store photo")
		return
	}

	metrics.PhotosUploaded.Inc()
	jsonResponse(w, http.StatusCreated, map[string]string{
		"key": key,
		"url": h.Objects.PublicURL(bucket, key),
	})
}
