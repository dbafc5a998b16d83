package training

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/floats"

	"github.com/smartattendai/smart-attendance/internal/gallery"
	"github.com/smartattendai/smart-attendance/internal/vision"
)

// Result reports the outcome of training one student.
type Result struct {
	StudentCode  string   `json:"student_code"`
	Success      bool     `json:"success"`
	CroppedCount int      `json:"cropped_count"`
	Message      string   `json:"message"`
	Warnings     []string `json:"warnings,omitempty"`
}

// Trainer turns a student's enrollment photos into one reference embedding.
type Trainer struct {
	detector   vision.Detector
	embedder   vision.Embedder
	store      gallery.Store
	images     *ImageStore
	croppedDir string
	margin     float64
	inputSize  int
	minPhotos  int
}

// NewTrainer creates a trainer. croppedDir receives a mirror of the face
// crops for inspection; pass an empty string to skip writing them.
func NewTrainer(detector vision.Detector, embedder vision.Embedder, store gallery.Store,
	images *ImageStore, croppedDir string, margin float64, inputSize, minPhotos int) *Trainer {
	return &Trainer{
		detector:   detector,
		embedder:   embedder,
		store:      store,
		images:     images,
		croppedDir: croppedDir,
		margin:     margin,
		inputSize:  inputSize,
		minPhotos:  minPhotos,
	}
}

// MinPhotos returns the number of photos required before a student is
// considered ready for recognition.
func (t *Trainer) MinPhotos() int {
	return t.minPhotos
}

// Images returns the underlying raw photo store.
func (t *Trainer) Images() *ImageStore {
	return t.images
}

// Train crops every stored photo of the student, embeds the crops and stores
// the mean embedding in the gallery. Photos that cannot be read, contain no
// face or fail to embed are skipped with a warning; the run only fails when
// nothing usable remains.
func (t *Trainer) Train(ctx context.Context, code string) (Result, error) {
	result := Result{StudentCode: code}

	names, err := t.images.List(code)
	if err != nil {
		return result, fmt.Errorf("list photos for %s: %w", code, err)
	}
	if len(names) == 0 {
		result.Message = "no photos found"
		return result, nil
	}

	var crops [][]byte
	for _, name := range names {
		crop, err := t.cropOne(ctx, code, name)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		crops = append(crops, crop)
	}
	if len(crops) == 0 {
		result.Message = "no faces could be cropped"
		return result, nil
	}
	result.CroppedCount = len(crops)

	var sum []float64
	var used int
	for i, crop := range crops {
		emb, err := t.embedder.Embed(ctx, crop)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("crop %d: %v", i+1, err))
			continue
		}
		if sum == nil {
			sum = make([]float64, len(emb))
		}
		if len(emb) != len(sum) {
			result.Warnings = append(result.Warnings, fmt.Sprintf("crop %d: dimension mismatch %d != %d", i+1, len(emb), len(sum)))
			continue
		}
		floats.Add(sum, toFloat64(emb))
		used++
	}
	if used == 0 {
		result.Message = "no valid embeddings extracted"
		return result, nil
	}

	floats.Scale(1/float64(used), sum)
	if err := t.store.Upsert(ctx, code, toFloat32(sum)); err != nil {
		return result, fmt.Errorf("store embedding for %s: %w", code, err)
	}

	result.Success = true
	result.Message = fmt.Sprintf("trained from %d of %d photos", used, len(names))
	if len(names) < t.minPhotos {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("only %d photos stored, %d required for recognition", len(names), t.minPhotos))
	}
	log.Printf("Trained %s: %s", code, result.Message)
	return result, nil
}

// cropOne loads one photo, detects the most confident face and returns the
// encoded crop.
func (t *Trainer) cropOne(ctx context.Context, code, name string) ([]byte, error) {
	data, err := t.images.Read(code, name)
	if err != nil {
		return nil, err
	}

	boxes, err := t.detector.Detect(ctx, data)
	if err != nil {
		return nil, err
	}
	if len(boxes) == 0 {
		return nil, fmt.Errorf("no face detected")
	}

	crop, err := CropToInput(data, boxes[0], t.margin, t.inputSize)
	if err != nil {
		return nil, err
	}

	if t.croppedDir != "" {
		dir := filepath.Join(t.croppedDir, code)
		if err := os.MkdirAll(dir, 0o755); err == nil {
			if err := os.WriteFile(filepath.Join(dir, name), crop, 0o644); err != nil {
				log.Printf("Warning: could not mirror crop %s/%s: %v", code, name, err)
			}
		}
	}
	return crop, nil
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
