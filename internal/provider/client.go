package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Client produces generated artifacts from an external generation service.
type Client interface {
	Generate(ctx context.Context, req GenerateRequest) (*Generation, error)
}

// GenerateRequest describes one artifact to produce.
type GenerateRequest struct {
	// Kind selects the generator, e.g. "image", "copy", or "palette".
	Kind string `json:"kind"`
	// Prompt is the full instruction for the generator.
	Prompt string `json:"prompt"`
	// Style carries art direction shared across a run.
	Style string `json:"style,omitempty"`
	// Size is a generator-specific dimension hint, e.g. "1536x640".
	Size string `json:"size,omitempty"`
}

// Generation is the service's output for one request. Image generators fill
// URL, text generators fill Text.
type Generation struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind,omitempty"`
	URL       string    `json:"url,omitempty"`
	Text      string    `json:"text,omitempty"`
	Model     string    `json:"model,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// APIError is a structured error returned by the generation service.
type APIError struct {
	Status  int
	Code    string
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("provider: HTTP %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("provider: HTTP %d: %s", e.Status, e.Message)
}

// Retryable reports whether the request may be retried: rate limits and
// server-side failures are transient, other client errors are permanent.
func (e *APIError) Retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}
