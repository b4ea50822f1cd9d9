// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gemini provides the client for the Gemini generative API.
//
// This package is the sole boundary to the completion service. Everything
// the rest of the application knows about the wire format lives here;
// callers hand over prompt, history, and configuration and receive
// cumulative text through a callback.
package gemini

import (
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cipher-attack/cipher-studio/internal/model"
)

// Configuration constants for the Gemini API.
const (
	// DefaultBaseURL is the base URL for the Gemini REST API.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// EnvAPIKey is the environment variable consulted when no explicit
	// credential is supplied.
	EnvAPIKey = "GEMINI_API_KEY"

	// MaxEventSize is the maximum allowed size for a single SSE event.
	// SECURITY: Event size limit prevents memory exhaustion from a
	// misbehaving stream.
	MaxEventSize = 1 << 20 // 1MB
)

// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
// Shared HTTP client for all streaming requests. No client timeout:
// stream lifetime is controlled by the caller's context.
var sharedStreamingClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	},
}

// Error variables for common Gemini failures.
var (
	// ErrNoCredential indicates no API key was supplied and none was found
	// in the environment. Surfaced before any network I/O.
	ErrNoCredential = errors.New("no Gemini API key provided")

	// ErrAuthFailed indicates the API key was rejected.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrRateLimited indicates too many requests were made.
	ErrRateLimited = errors.New("rate limited")

	// ErrModelNotFound indicates the requested model does not exist.
	ErrModelNotFound = errors.New("model not found")

	// ErrBlocked indicates the service refused to generate for the prompt.
	ErrBlocked = errors.New("prompt blocked by service")
)

// APIError represents an error response from the Gemini API.
type APIError struct {
	Code    string
	Message string
	Status  int
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("gemini error [%s] (HTTP %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("gemini error (HTTP %d): %s", e.Status, e.Message)
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the Gemini generateContent API.
type Client struct {
	apiKey  string
	baseURL string

	// safety is the pass-through content-filter configuration applied to
	// every request. Fixed per client, not per call.
	safety []safetySetting

	// searchGrounding requests web-search augmentation on every call, which
	// is what produces citation metadata.
	searchGrounding bool

	httpClient *http.Client
}

// NewClient creates a client with the given API key. The key may be empty;
// StreamContent fails with ErrNoCredential before any network call when no
// usable credential exists.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:          strings.TrimSpace(apiKey),
		baseURL:         DefaultBaseURL,
		safety:          defaultSafetySettings(),
		searchGrounding: true,
		httpClient:      sharedStreamingClient,
	}
}

// WithBaseURL sets a custom base URL for the API. Used by tests.
func (c *Client) WithBaseURL(url string) *Client {
	c.baseURL = strings.TrimSuffix(url, "/")
	return c
}

// WithHTTPClient sets a custom HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// WithSafetyThreshold overrides the block threshold applied to all harm
// categories (e.g. "BLOCK_NONE", "BLOCK_ONLY_HIGH").
func (c *Client) WithSafetyThreshold(threshold string) *Client {
	c.safety = safetySettingsWithThreshold(threshold)
	return c
}

// WithSearchGrounding toggles the always-on web search tool.
func (c *Client) WithSearchGrounding(enabled bool) *Client {
	c.searchGrounding = enabled
	return c
}

// IsConfigured returns true if the client has an API key.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// KeyFingerprint returns a short fingerprint of the API key for logging.
// SECURITY: Never log key fragments; the fingerprint identifies a key
// without exposing it.
func (c *Client) KeyFingerprint() string {
	if c.apiKey == "" {
		return "none"
	}
	h := sha256.Sum256([]byte(c.apiKey))
	return hex.EncodeToString(h[:4])
}

// =============================================================================
// REQUEST/RESPONSE LOGGING
// =============================================================================

// logRequest logs an API request without exposing sensitive data.
// SECURITY: Never log headers (carry the key) or the body (carries the
// conversation).
func (c *Client) logRequest(req *http.Request) {
	log.Printf("API Request: %s %s (key %s)", req.Method, req.URL.Path, c.KeyFingerprint())
}

// logResponse logs the response status and time to first byte.
func (c *Client) logResponse(resp *http.Response, duration time.Duration) {
	log.Printf("API Response: %d %s (%v)", resp.StatusCode, resp.Status, duration)
}

// =============================================================================
// CREDENTIAL RESOLUTION
// =============================================================================

// ResolveCredential picks the usable API key: the explicit argument wins,
// the environment is the fallback. ErrNoCredential when neither is set.
func ResolveCredential(explicit string) (string, error) {
	if key := strings.TrimSpace(explicit); key != "" {
		return key, nil
	}
	if key := strings.TrimSpace(os.Getenv(EnvAPIKey)); key != "" {
		return key, nil
	}
	return "", ErrNoCredential
}

// =============================================================================
// ERROR MAPPING
// =============================================================================

// handleErrorResponse converts HTTP error responses to Go errors.
func handleErrorResponse(statusCode int, body []byte) error {
	apiErr := parseAPIError(statusCode, body)

	switch statusCode {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrAuthFailed, apiErr.Message)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrModelNotFound, apiErr.Message)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimited, apiErr.Message)
	default:
		return apiErr
	}
}

// =============================================================================
// PASS-THROUGH SAFETY CONFIGURATION
// =============================================================================

var harmCategories = []string{
	"HARM_CATEGORY_HARASSMENT",
	"HARM_CATEGORY_HATE_SPEECH",
	"HARM_CATEGORY_SEXUALLY_EXPLICIT",
	"HARM_CATEGORY_DANGEROUS_CONTENT",
}

// defaultSafetySettings returns the fixed content-filter table sent with
// every request. The threshold is deployment configuration passed through
// to the provider, not something the application interprets.
func defaultSafetySettings() []safetySetting {
	return safetySettingsWithThreshold("BLOCK_ONLY_HIGH")
}

func safetySettingsWithThreshold(threshold string) []safetySetting {
	settings := make([]safetySetting, 0, len(harmCategories))
	for _, cat := range harmCategories {
		settings = append(settings, safetySetting{Category: cat, Threshold: threshold})
	}
	return settings
}

// =============================================================================
// MESSAGE MAPPING
// =============================================================================

// contentsFromHistory maps prior messages plus the current prompt into the
// wire conversation format. Within a turn, attachments precede text.
func contentsFromHistory(history []model.Message, prompt string, attachments []model.Attachment) []content {
	contents := make([]content, 0, len(history)+1)

	for _, msg := range history {
		contents = append(contents, content{
			Role:  msg.Role.String(),
			Parts: partsForTurn(msg.Attachments, msg.Text),
		})
	}

	contents = append(contents, content{
		Role:  model.RoleUser.String(),
		Parts: partsForTurn(attachments, prompt),
	})

	return contents
}

func partsForTurn(attachments []model.Attachment, text string) []part {
	parts := make([]part, 0, len(attachments)+1)
	for _, att := range attachments {
		parts = append(parts, part{
			InlineData: &inlineData{MimeType: att.MimeType, Data: att.Data},
		})
	}
	parts = append(parts, part{Text: text})
	return parts
}
