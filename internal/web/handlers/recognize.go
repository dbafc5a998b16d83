package handlers

import (
	"io"
	"log"
	"net/http"

	"github.com/smartattendai/smart-attendance/internal/attendance"
	"github.com/smartattendai/smart-attendance/internal/training"
	"github.com/smartattendai/smart-attendance/internal/vision"
)

// RecognizeHandler handles the live check-in endpoint. One frame in, one
// attendance outcome per detected face out.
type RecognizeHandler struct {
	detector   vision.Detector
	embedder   vision.Embedder
	controller *attendance.Controller
	margin     float64
	inputSize  int
}

// NewRecognizeHandler creates a new recognize handler.
func NewRecognizeHandler(detector vision.Detector, embedder vision.Embedder,
	controller *attendance.Controller, margin float64, inputSize int) *RecognizeHandler {
	return &RecognizeHandler{
		detector:   detector,
		embedder:   embedder,
		controller: controller,
		margin:     margin,
		inputSize:  inputSize,
	}
}

// FaceObservation is the outcome for one detected face.
type FaceObservation struct {
	Box vision.Box `json:"box"`
	attendance.Outcome
}

// RecognizeResponse is the body for POST /recognize.
type RecognizeResponse struct {
	FaceCount    int               `json:"face_count"`
	Observations []FaceObservation `json:"observations"`
}

// Recognize handles POST /recognize. The request body is the raw frame
// (multipart field "frame" also accepted).
func (h *RecognizeHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	frame, ok := h.readFrame(w, r)
	if !ok {
		return
	}

	boxes, err := h.detector.Detect(r.Context(), frame)
	if err != nil {
		log.Printf("Face detection failed: %v", err)
		respondError(w, http.StatusBadGateway, "face detection failed")
		return
	}

	resp := RecognizeResponse{
		FaceCount:    len(boxes),
		Observations: []FaceObservation{},
	}
	for _, box := range boxes {
		crop, err := training.CropToInput(frame, box, h.margin, h.inputSize)
		if err != nil {
			log.Printf("Failed to crop face: %v", err)
			continue
		}

		probe, err := h.embedder.Embed(r.Context(), crop)
		if err != nil {
			log.Printf("Face embedding failed: %v", err)
			continue
		}

		outcome, err := h.controller.Observe(r.Context(), probe)
		if err != nil {
			log.Printf("Observation failed: %v", err)
			continue
		}
		resp.Observations = append(resp.Observations, FaceObservation{Box: box, Outcome: outcome})
	}

	respondJSON(w, http.StatusOK, resp)
}

// readFrame extracts the image bytes from the request, either a multipart
// "frame" field or the raw body.
func (h *RecognizeHandler) readFrame(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	if err := r.ParseMultipartForm(maxUploadBytes); err == nil {
		file, _, err := r.FormFile("frame")
		if err == nil {
			defer file.Close()
			data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
			if err != nil {
				respondError(w, http.StatusBadRequest, "could not read frame")
				return nil, false
			}
			return data, true
		}
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil || len(data) == 0 {
		respondError(w, http.StatusBadRequest, "frame image is required")
		return nil, false
	}
	return data, true
}
