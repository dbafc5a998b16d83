// Package training builds reference embeddings from enrollment photos.
package training

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/image/draw"

	"github.com/smartattendai/smart-attendance/internal/vision"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// ImageStore manages the raw enrollment photos on disk, one directory per
// student code.
type ImageStore struct {
	root string
	now  func() time.Time
}

// NewImageStore creates a store rooted at the given directory.
func NewImageStore(root string) *ImageStore {
	return &ImageStore{root: root, now: time.Now}
}

// Dir returns the photo directory for a student.
func (s *ImageStore) Dir(code string) string {
	return filepath.Join(s.root, code)
}

// Save writes a new photo with a timestamped name and returns the filename.
func (s *ImageStore) Save(code string, ext string, data []byte) (string, error) {
	ext = strings.ToLower(ext)
	if !imageExtensions[ext] {
		return "", fmt.Errorf("unsupported image extension %q", ext)
	}

	dir := s.Dir(code)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create photo directory: %w", err)
	}

	stamp := fmt.Sprintf("%s_%s", code, s.now().Format("20060102_150405.000"))
	name := stamp + ext
	for n := 1; ; n++ {
		if _, err := os.Stat(filepath.Join(dir, name)); os.IsNotExist(err) {
			break
		}
		name = fmt.Sprintf("%s_%d%s", stamp, n, ext)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write photo: %w", err)
	}
	return name, nil
}

// List returns the photo filenames for a student, sorted. A student with no
// directory has no photos.
func (s *ImageStore) List(code string) ([]string, error) {
	entries, err := os.ReadDir(s.Dir(code))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read photo directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Count returns the number of photos stored for a student.
func (s *ImageStore) Count(code string) (int, error) {
	names, err := s.List(code)
	if err != nil {
		return 0, err
	}
	return len(names), nil
}

// Read returns the bytes of one stored photo.
func (s *ImageStore) Read(code, name string) ([]byte, error) {
	if filepath.Base(name) != name {
		return nil, fmt.Errorf("invalid photo name %q", name)
	}
	data, err := os.ReadFile(filepath.Join(s.Dir(code), name))
	if err != nil {
		return nil, fmt.Errorf("read photo: %w", err)
	}
	return data, nil
}

// Delete removes one photo. Returns false if the photo did not exist.
func (s *ImageStore) Delete(code, name string) (bool, error) {
	if filepath.Base(name) != name {
		return false, fmt.Errorf("invalid photo name %q", name)
	}
	err := os.Remove(filepath.Join(s.Dir(code), name))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("delete photo: %w", err)
	}
	return true, nil
}

// DeleteAll removes the student's whole photo directory.
func (s *ImageStore) DeleteAll(code string) error {
	if err := os.RemoveAll(s.Dir(code)); err != nil {
		return fmt.Errorf("delete photo directory: %w", err)
	}
	return nil
}

// Codes returns every student code that has a photo directory.
func (s *ImageStore) Codes() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read photo root: %w", err)
	}

	var codes []string
	for _, e := range entries {
		if e.IsDir() {
			codes = append(codes, e.Name())
		}
	}
	sort.Strings(codes)
	return codes, nil
}

// CropToInput decodes an image, cuts out the face box with a margin and
// returns a JPEG scaled to the embedder input size. Shared by training and
// live recognition so both feed the embedder identically framed crops.
func CropToInput(data []byte, box vision.Box, margin float64, side int) ([]byte, error) {
	img, err := decodeImage(data)
	if err != nil {
		return nil, err
	}
	return encodeJPEG(cropFace(img, box, margin, side))
}

// cropFace cuts the face box out of the image with a margin proportional to
// the box width, clamped to the image bounds, and scales the crop to a square
// of the given side.
func cropFace(src image.Image, box vision.Box, margin float64, side int) image.Image {
	bounds := src.Bounds()
	pad := int(float64(box.Width()) * margin)

	x1 := max(box.X1-pad, bounds.Min.X)
	y1 := max(box.Y1-pad, bounds.Min.Y)
	x2 := min(box.X2+pad, bounds.Max.X)
	y2 := min(box.Y2+pad, bounds.Max.Y)

	dst := image.NewRGBA(image.Rect(0, 0, side, side))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, image.Rect(x1, y1, x2, y2), draw.Over, nil)
	return dst
}

// decodeImage decodes JPEG or PNG bytes.
func decodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// encodeJPEG encodes an image for the embedding service.
func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		return nil, fmt.Errorf("encode crop: %w", err)
	}
	return buf.Bytes(), nil
}
