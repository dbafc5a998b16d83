package handlers

import (
	"context"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/smartattendai/smart-attendance/internal/database"
	"github.com/smartattendai/smart-attendance/internal/gallery"
	"github.com/smartattendai/smart-attendance/internal/training"
)

// maxUploadBytes caps one photo upload.
const maxUploadBytes = 10 << 20

// GalleryInvalidator lets handlers drop a cached gallery after retraining.
type GalleryInvalidator interface {
	InvalidateGallery()
}

// TrainingHandler handles enrollment photo and training endpoints.
type TrainingHandler struct {
	trainer  *training.Trainer
	students database.StudentReader
	jobs     *JobManager
	store    gallery.Store
	cache    GalleryInvalidator
}

// NewTrainingHandler creates a new training handler. cache may be nil when no
// live controller is running.
func NewTrainingHandler(trainer *training.Trainer, students database.StudentReader,
	jobs *JobManager, store gallery.Store, cache GalleryInvalidator) *TrainingHandler {
	return &TrainingHandler{
		trainer:  trainer,
		students: students,
		jobs:     jobs,
		store:    store,
		cache:    cache,
	}
}

// UploadPhoto handles POST /students/{code}/photos (multipart field "photo").
func (h *TrainingHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if !h.studentExists(w, r.Context(), code) {
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("photo")
	if err != nil {
		respondError(w, http.StatusBadRequest, "photo file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		respondError(w, http.StatusBadRequest, "could not read photo")
		return
	}
	if len(data) > maxUploadBytes {
		respondError(w, http.StatusRequestEntityTooLarge, "photo too large")
		return
	}

	name, err := h.trainer.Images().Save(code, strings.ToLower(filepath.Ext(header.Filename)), data)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	count, _ := h.trainer.Images().Count(code)
	respondJSON(w, http.StatusCreated, map[string]any{
		"filename":    name,
		"photo_count": count,
	})
}

// PhotoStatusResponse reports a student's enrollment photo state.
type PhotoStatusResponse struct {
	StudentCode string   `json:"student_code"`
	Photos      []string `json:"photos"`
	PhotoCount  int      `json:"photo_count"`
	MinPhotos   int      `json:"min_photos"`
	Ready       bool     `json:"ready"`
	InGallery   bool     `json:"in_gallery"`
}

// ListPhotos handles GET /students/{code}/photos.
func (h *TrainingHandler) ListPhotos(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if !h.studentExists(w, r.Context(), code) {
		return
	}

	photos, err := h.trainer.Images().List(code)
	if err != nil {
		log.Printf("Failed to list photos for %s: %v", sanitizeForLog(code), err)
		respondError(w, http.StatusInternalServerError, "failed to list photos")
		return
	}
	if photos == nil {
		photos = []string{}
	}

	inGallery := false
	if g, err := h.store.Reload(r.Context()); err != nil {
		log.Printf("Failed to load gallery: %v", err)
	} else {
		_, inGallery = g[code]
	}

	respondJSON(w, http.StatusOK, PhotoStatusResponse{
		StudentCode: code,
		Photos:      photos,
		PhotoCount:  len(photos),
		MinPhotos:   h.trainer.MinPhotos(),
		Ready:       len(photos) >= h.trainer.MinPhotos(),
		InGallery:   inGallery,
	})
}

// GetPhoto handles GET /students/{code}/photos/{name}.
func (h *TrainingHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	name := chi.URLParam(r, "name")

	data, err := h.trainer.Images().Read(code, name)
	if err != nil {
		respondError(w, http.StatusNotFound, "photo not found")
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// DeletePhoto handles DELETE /students/{code}/photos/{name}.
func (h *TrainingHandler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	name := chi.URLParam(r, "name")

	removed, err := h.trainer.Images().Delete(code, name)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !removed {
		respondError(w, http.StatusNotFound, "photo not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"deleted": name})
}

// DeleteAllPhotos handles DELETE /students/{code}/photos.
func (h *TrainingHandler) DeleteAllPhotos(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	if err := h.trainer.Images().DeleteAll(code); err != nil {
		log.Printf("Failed to delete photos for %s: %v", sanitizeForLog(code), err)
		respondError(w, http.StatusInternalServerError, "failed to delete photos")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"student_code": code})
}

// Train handles POST /students/{code}/train. Training runs in the background;
// the response carries a job id to poll.
func (h *TrainingHandler) Train(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if !h.studentExists(w, r.Context(), code) {
		return
	}

	job := h.jobs.Create(code)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		result, err := h.trainer.Train(ctx, code)
		if err != nil {
			log.Printf("Training job %s for %s failed: %v", job.ID, sanitizeForLog(code), err)
			h.jobs.Fail(job.ID, err.Error())
			return
		}
		h.jobs.Complete(job.ID, &result)
		if result.Success && h.cache != nil {
			h.cache.InvalidateGallery()
		}
	}()

	respondJSON(w, http.StatusAccepted, map[string]string{
		"job_id":       job.ID,
		"student_code": code,
	})
}

// TrainStatus handles GET /train/{jobId}.
func (h *TrainingHandler) TrainStatus(w http.ResponseWriter, r *http.Request) {
	job := h.jobs.Get(chi.URLParam(r, "jobId"))
	if job == nil {
		respondError(w, http.StatusNotFound, "job not found")
		return
	}
	respondJSON(w, http.StatusOK, job)
}

// studentExists verifies the student code and writes the error response when
// it does not resolve.
func (h *TrainingHandler) studentExists(w http.ResponseWriter, ctx context.Context, code string) bool {
	student, err := h.students.Get(ctx, code)
	if err != nil {
		log.Printf("Failed to get student %s: %v", sanitizeForLog(code), err)
		respondError(w, http.StatusInternalServerError, "failed to get student")
		return false
	}
	if student == nil {
		respondError(w, http.StatusNotFound, "student not found")
		return false
	}
	return true
}
