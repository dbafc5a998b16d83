// Package vision talks to the external face model services. Detection and
// embedding run as separate HTTP microservices with a fixed JSON contract;
// this package only moves bytes and vectors, it knows nothing about models.
package vision

import "context"

// Box is one detected face in pixel coordinates, origin top-left.
type Box struct {
	X1    int     `json:"x1"`
	Y1    int     `json:"y1"`
	X2    int     `json:"x2"`
	Y2    int     `json:"y2"`
	Score float64 `json:"score"`
}

// Width returns the horizontal extent of the box.
func (b Box) Width() int {
	return b.X2 - b.X1
}

// Height returns the vertical extent of the box.
func (b Box) Height() int {
	return b.Y2 - b.Y1
}

// Detector locates faces in an encoded image.
type Detector interface {
	// Detect returns the detected face boxes, best score first. An image
	// with no faces yields an empty slice and a nil error.
	Detect(ctx context.Context, image []byte) ([]Box, error)
}

// Embedder converts an aligned face crop into a fixed-size vector.
type Embedder interface {
	Embed(ctx context.Context, face []byte) ([]float32, error)
}
