package training

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartattendai/smart-attendance/internal/database/mock"
	"github.com/smartattendai/smart-attendance/internal/vision"
)

type fakeDetector struct {
	boxes []vision.Box
	err   error
}

func (f *fakeDetector) Detect(ctx context.Context, image []byte) ([]vision.Box, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.boxes, nil
}

type fakeEmbedder struct {
	embeddings [][]float32
	err        error
	calls      int
}

func (f *fakeEmbedder) Embed(ctx context.Context, face []byte) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	emb := f.embeddings[f.calls%len(f.embeddings)]
	f.calls++
	return emb, nil
}

func testJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 200, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 200; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func newTestTrainer(t *testing.T, detector vision.Detector, embedder vision.Embedder) (*Trainer, *mock.MockGalleryStore) {
	t.Helper()
	store := mock.NewMockGalleryStore()
	images := NewImageStore(filepath.Join(t.TempDir(), "raw"))
	trainer := NewTrainer(detector, embedder, store, images, "", 0.2, 160, 2)
	return trainer, store
}

func TestTrainSuccess(t *testing.T) {
	detector := &fakeDetector{boxes: []vision.Box{{X1: 50, Y1: 50, X2: 150, Y2: 150, Score: 0.99}}}
	embedder := &fakeEmbedder{embeddings: [][]float32{
		{1.0, 0.0, 0.0},
		{0.0, 1.0, 0.0},
	}}
	trainer, store := newTestTrainer(t, detector, embedder)

	photo := testJPEG(t)
	for i := 0; i < 2; i++ {
		if _, err := trainer.Images().Save("S001", ".jpg", photo); err != nil {
			t.Fatalf("failed to save photo: %v", err)
		}
	}

	result, err := trainer.Train(context.Background(), "S001")
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got message %q", result.Message)
	}
	if result.CroppedCount != 2 {
		t.Errorf("expected 2 crops, got %d", result.CroppedCount)
	}

	g, _ := store.Reload(context.Background())
	emb, ok := g["S001"]
	if !ok {
		t.Fatal("expected embedding stored for S001")
	}
	// Mean of the two unit vectors.
	want := []float32{0.5, 0.5, 0.0}
	for i := range want {
		if emb[i] != want[i] {
			t.Errorf("component %d: expected %f, got %f", i, want[i], emb[i])
		}
	}
}

func TestTrainNoPhotos(t *testing.T) {
	trainer, store := newTestTrainer(t, &fakeDetector{}, &fakeEmbedder{embeddings: [][]float32{{1}}})

	result, err := trainer.Train(context.Background(), "S404")
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	if result.Success {
		t.Error("expected failure for student with no photos")
	}
	if result.Message != "no photos found" {
		t.Errorf("unexpected message: %q", result.Message)
	}
	if len(store.UpsertCalls) != 0 {
		t.Error("expected no gallery writes")
	}
}

func TestTrainNoFacesCropped(t *testing.T) {
	trainer, _ := newTestTrainer(t, &fakeDetector{boxes: nil}, &fakeEmbedder{embeddings: [][]float32{{1}}})

	if _, err := trainer.Images().Save("S002", ".jpg", testJPEG(t)); err != nil {
		t.Fatalf("failed to save photo: %v", err)
	}

	result, err := trainer.Train(context.Background(), "S002")
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	if result.Success {
		t.Error("expected failure when no faces detected")
	}
	if result.Message != "no faces could be cropped" {
		t.Errorf("unexpected message: %q", result.Message)
	}
	if len(result.Warnings) != 1 {
		t.Errorf("expected 1 per-photo warning, got %d", len(result.Warnings))
	}
}

func TestTrainNoValidEmbeddings(t *testing.T) {
	detector := &fakeDetector{boxes: []vision.Box{{X1: 10, Y1: 10, X2: 100, Y2: 100, Score: 0.9}}}
	embedder := &fakeEmbedder{err: errors.New("model unavailable")}
	trainer, _ := newTestTrainer(t, detector, embedder)

	if _, err := trainer.Images().Save("S003", ".jpg", testJPEG(t)); err != nil {
		t.Fatalf("failed to save photo: %v", err)
	}

	result, err := trainer.Train(context.Background(), "S003")
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	if result.Success {
		t.Error("expected failure when embedding fails")
	}
	if result.Message != "no valid embeddings extracted" {
		t.Errorf("unexpected message: %q", result.Message)
	}
	if result.CroppedCount != 1 {
		t.Errorf("expected 1 crop before embedding failed, got %d", result.CroppedCount)
	}
}

func TestTrainSkipsUnreadablePhoto(t *testing.T) {
	detector := &fakeDetector{boxes: []vision.Box{{X1: 10, Y1: 10, X2: 100, Y2: 100, Score: 0.9}}}
	embedder := &fakeEmbedder{embeddings: [][]float32{{1.0, 2.0}}}
	trainer, _ := newTestTrainer(t, detector, embedder)

	if _, err := trainer.Images().Save("S004", ".jpg", testJPEG(t)); err != nil {
		t.Fatalf("failed to save photo: %v", err)
	}
	if _, err := trainer.Images().Save("S004", ".jpg", []byte("not an image")); err != nil {
		t.Fatalf("failed to save photo: %v", err)
	}

	result, err := trainer.Train(context.Background(), "S004")
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success despite one bad photo, got %q", result.Message)
	}
	if result.CroppedCount != 1 {
		t.Errorf("expected 1 crop, got %d", result.CroppedCount)
	}
	if len(result.Warnings) == 0 {
		t.Error("expected a warning for the unreadable photo")
	}
}

func TestTrainMirrorsCrops(t *testing.T) {
	detector := &fakeDetector{boxes: []vision.Box{{X1: 10, Y1: 10, X2: 100, Y2: 100, Score: 0.9}}}
	embedder := &fakeEmbedder{embeddings: [][]float32{{1.0}}}

	croppedDir := filepath.Join(t.TempDir(), "cropped")
	store := mock.NewMockGalleryStore()
	images := NewImageStore(filepath.Join(t.TempDir(), "raw"))
	trainer := NewTrainer(detector, embedder, store, images, croppedDir, 0.2, 160, 1)

	name, err := images.Save("S005", ".jpg", testJPEG(t))
	if err != nil {
		t.Fatalf("failed to save photo: %v", err)
	}

	if _, err := trainer.Train(context.Background(), "S005"); err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(croppedDir, "S005", name)); err != nil {
		t.Errorf("expected mirrored crop file: %v", err)
	}
}

func TestImageStore(t *testing.T) {
	store := NewImageStore(t.TempDir())
	store.now = func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC) }

	t.Run("SaveAndList", func(t *testing.T) {
		name, err := store.Save("S100", ".jpg", []byte("photo"))
		if err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if name != "S100_20260310_090000.000.jpg" {
			t.Errorf("unexpected photo name: %q", name)
		}

		names, err := store.List("S100")
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(names) != 1 || names[0] != name {
			t.Errorf("unexpected listing: %v", names)
		}
	})

	t.Run("RejectsUnknownExtension", func(t *testing.T) {
		if _, err := store.Save("S100", ".exe", []byte("nope")); err == nil {
			t.Error("expected error for unsupported extension")
		}
	})

	t.Run("ListMissingStudent", func(t *testing.T) {
		names, err := store.List("S404")
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if names != nil {
			t.Errorf("expected no photos, got %v", names)
		}
	})

	t.Run("ReadRejectsPathTraversal", func(t *testing.T) {
		if _, err := store.Read("S100", "../S100/photo.jpg"); err == nil {
			t.Error("expected error for path with separators")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		names, _ := store.List("S100")
		removed, err := store.Delete("S100", names[0])
		if err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if !removed {
			t.Error("expected true for existing photo")
		}

		removed, err = store.Delete("S100", names[0])
		if err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if removed {
			t.Error("expected false for missing photo")
		}
	})

	t.Run("DeleteAllAndCodes", func(t *testing.T) {
		store.Save("S200", ".png", []byte("photo"))
		store.Save("S201", ".png", []byte("photo"))

		codes, err := store.Codes()
		if err != nil {
			t.Fatalf("Codes failed: %v", err)
		}
		if len(codes) != 3 {
			t.Fatalf("expected 3 student directories, got %v", codes)
		}

		if err := store.DeleteAll("S200"); err != nil {
			t.Fatalf("DeleteAll failed: %v", err)
		}
		codes, _ = store.Codes()
		for _, c := range codes {
			if c == "S200" {
				t.Error("expected S200 directory removed")
			}
		}
	})
}

func TestCropFaceClampsToBounds(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	// Box touching the top-left corner; the margin would extend outside.
	box := vision.Box{X1: 0, Y1: 0, X2: 50, Y2: 50, Score: 0.9}

	crop := cropFace(img, box, 0.2, 160)
	bounds := crop.Bounds()
	if bounds.Dx() != 160 || bounds.Dy() != 160 {
		t.Errorf("expected 160x160 crop, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}
