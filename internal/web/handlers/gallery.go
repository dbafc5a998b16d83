package handlers

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/smartattendai/smart-attendance/internal/gallery"
)

// GalleryHandler handles reference gallery endpoints.
type GalleryHandler struct {
	store gallery.Store
	cache GalleryInvalidator
}

// NewGalleryHandler creates a new gallery handler.
func NewGalleryHandler(store gallery.Store, cache GalleryInvalidator) *GalleryHandler {
	return &GalleryHandler{store: store, cache: cache}
}

// Info handles GET /gallery.
func (h *GalleryHandler) Info(w http.ResponseWriter, r *http.Request) {
	g, err := h.store.Reload(r.Context())
	if err != nil {
		log.Printf("Failed to load gallery: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to load gallery")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"count": len(g),
		"codes": g.Codes(),
	})
}

// Remove handles DELETE /gallery/{code}.
func (h *GalleryHandler) Remove(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	removed, err := h.store.Remove(r.Context(), code)
	if err != nil {
		log.Printf("Failed to remove %s from gallery: %v", sanitizeForLog(code), err)
		respondError(w, http.StatusInternalServerError, "failed to remove from gallery")
		return
	}
	if !removed {
		respondError(w, http.StatusNotFound, "no embedding for student")
		return
	}

	if h.cache != nil {
		h.cache.InvalidateGallery()
	}
	respondJSON(w, http.StatusOK, map[string]string{"removed": code})
}
