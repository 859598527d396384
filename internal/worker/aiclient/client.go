// Package aiclient calls the external vision+text model host the AI Worker
// uses to describe an event's two images.
package aiclient

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// VisionResult is the AI Worker's first-stage output: object/person
// signals extracted from the two images.
type VisionResult struct {
	PersonDetected bool     `json:"person_detected"`
	Confidence     float64  `json:"confidence"` // [0,1]
	Objects        []string `json:"objects"`
}

// TextResult is the second-stage output derived from the vision result.
type TextResult struct {
	Phrase      string `json:"phrase"`      // <=500 chars
	Description string `json:"description"`
}

// Client calls the vision and text endpoints of an external model host.
// Every call is wrapped by the caller's CircuitBreaker; Client itself only
// knows how to make one bounded HTTP round trip per method.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New returns a Client targeting baseURL with a per-call timeout.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// AnalyzeImages submits the two images to the vision endpoint.
func (c *Client) AnalyzeImages(ctx context.Context, imageA, imageB []byte) (VisionResult, error) {
	body := struct {
		ImageA string `json:"image_a"`
		ImageB string `json:"image_b"`
	}{
		ImageA: base64.StdEncoding.EncodeToString(imageA),
		ImageB: base64.StdEncoding.EncodeToString(imageB),
	}
	var out VisionResult
	if err := c.postJSON(ctx, "/vision", body, &out); err != nil {
		return VisionResult{}, err
	}
	return out, nil
}

// Describe submits the vision result for a short phrase and a longer
// description.
func (c *Client) Describe(ctx context.Context, vision VisionResult) (TextResult, error) {
	var out TextResult
	if err := c.postJSON(ctx, "/describe", vision, &out); err != nil {
		return TextResult{}, err
	}
	return out, nil
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("aiclient: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("aiclient: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("aiclient: request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("aiclient: %s returned %d: %s", path, resp.StatusCode, string(b))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("aiclient: decode response from %s: %w", path, err)
	}
	return nil
}
