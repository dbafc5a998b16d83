package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client calls one face model service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// postImage sends raw image bytes and unmarshals the JSON response.
func postImage[T any](ctx context.Context, c *Client, endpoint string, image []byte) (*T, error) {
	url := c.baseURL + endpoint

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(image))
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read response body: %w", err)
	}

	var result T
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("could not unmarshal response: %w", err)
	}
	return &result, nil
}

// readErrorBody reads a truncated response body for error messages.
func readErrorBody(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, 512))
	if err != nil || len(body) == 0 {
		return "(no body)"
	}
	return string(body)
}

// DetectorClient is the HTTP client for the face detection service.
type DetectorClient struct {
	*Client
}

// NewDetectorClient creates a detector client.
func NewDetectorClient(baseURL string) *DetectorClient {
	return &DetectorClient{Client: NewClient(baseURL)}
}

type detectResponse struct {
	Boxes []Box `json:"boxes"`
}

// Detect returns the face boxes found in the image.
func (c *DetectorClient) Detect(ctx context.Context, image []byte) ([]Box, error) {
	resp, err := postImage[detectResponse](ctx, c.Client, "/detect", image)
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}
	return resp.Boxes, nil
}

// EmbedderClient is the HTTP client for the face embedding service.
type EmbedderClient struct {
	*Client
}

// NewEmbedderClient creates an embedder client.
func NewEmbedderClient(baseURL string) *EmbedderClient {
	return &EmbedderClient{Client: NewClient(baseURL)}
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed returns the embedding vector for an aligned face crop.
func (c *EmbedderClient) Embed(ctx context.Context, face []byte) ([]float32, error) {
	resp, err := postImage[embedResponse](ctx, c.Client, "/embed", face)
	if err != nil {
		return nil, fmt.Errorf("embed face: %w", err)
	}
	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("embed face: service returned an empty embedding")
	}
	return resp.Embedding, nil
}

// Verify interface compliance
var _ Detector = (*DetectorClient)(nil)
var _ Embedder = (*EmbedderClient)(nil)
