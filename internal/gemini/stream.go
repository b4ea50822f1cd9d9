// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cipher-attack/cipher-studio/internal/model"
)

// STREAMING: SSE parsing and cumulative text delivery.

// =============================================================================
// WIRE TYPES
// =============================================================================

// part is one element of a conversation turn: either inline binary data or
// text, never both.
type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

// inlineData carries a base64 payload with its MIME type.
type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

// content is one conversation turn.
type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

// generationConfig carries the sampling parameters.
type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK,omitempty"`
	TopP            float64 `json:"topP,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

// safetySetting is one content-filter threshold entry.
type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

// tool enables a provider-side tool. Only search grounding is used.
type tool struct {
	GoogleSearch *struct{} `json:"google_search,omitempty"`
}

// generateRequest is the streamGenerateContent request body.
type generateRequest struct {
	Contents          []content        `json:"contents"`
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
	GenerationConfig  generationConfig `json:"generationConfig"`
	SafetySettings    []safetySetting  `json:"safetySettings,omitempty"`
	Tools             []tool           `json:"tools,omitempty"`
}

// generateResponse is one incremental SSE event payload.
type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		GroundingMetadata *wireGrounding `json:"groundingMetadata"`
		FinishReason      string         `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// wireGrounding is the provider's citation structure.
type wireGrounding struct {
	GroundingChunks []struct {
		Web *struct {
			URI   string `json:"uri"`
			Title string `json:"title"`
		} `json:"web"`
	} `json:"groundingChunks"`
}

// toModel flattens the provider citation shape into the application's.
func (g *wireGrounding) toModel() model.GroundingMetadata {
	meta := model.GroundingMetadata{}
	for _, chunk := range g.GroundingChunks {
		if chunk.Web != nil {
			meta.Sources = append(meta.Sources, model.GroundingSource{
				URI:   chunk.Web.URI,
				Title: chunk.Web.Title,
			})
		}
	}
	return meta
}

// text returns the concatenated text delta carried by this event.
func (r *generateResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// apiErrorResponse is the error envelope for non-200 responses.
type apiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// parseAPIError converts an error body into an APIError, tolerating
// unparseable bodies.
func parseAPIError(statusCode int, body []byte) *APIError {
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return &APIError{
			Code:    apiErr.Error.Status,
			Message: apiErr.Error.Message,
			Status:  statusCode,
		}
	}
	return &APIError{
		Message: strings.TrimSpace(string(body)),
		Status:  statusCode,
	}
}

// =============================================================================
// SSE READER
// =============================================================================

// sseReader parses Server-Sent Events from a stream.
type sseReader struct {
	reader *bufio.Reader
}

func newSSEReader(r io.Reader) *sseReader {
	return &sseReader{reader: bufio.NewReader(r)}
}

// readEvent reads the next SSE data payload. Returns io.EOF when the
// stream ends. Events larger than MaxEventSize abort the stream.
func (s *sseReader) readEvent() ([]byte, error) {
	var dataLines [][]byte
	total := 0

	for {
		line, err := s.reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				if len(dataLines) > 0 {
					return bytes.Join(dataLines, []byte("\n")), nil
				}
				return nil, io.EOF
			}
			return nil, err
		}

		line = bytes.TrimRight(line, "\r\n")

		// Empty line signals end of event
		if len(line) == 0 {
			if len(dataLines) > 0 {
				return bytes.Join(dataLines, []byte("\n")), nil
			}
			continue
		}

		if bytes.HasPrefix(line, []byte("data:")) {
			data := bytes.TrimSpace(line[5:])
			total += len(data)
			if total > MaxEventSize {
				return nil, fmt.Errorf("sse event too large: %d bytes", total)
			}
			dataLines = append(dataLines, data)
		}
		// Ignore other fields (id:, retry:, event:, comments)
	}
}

// =============================================================================
// STREAMING CONTENT
// =============================================================================

// ChunkFunc receives the cumulative response text after each increment.
// The provider delivers deltas; the client re-derives the running total by
// concatenation, so each invocation carries the full text so far and the
// receiver must replace, not append.
type ChunkFunc func(cumulative string)

// MetadataFunc receives citation metadata. It may fire zero or more times
// per call, interleaved arbitrarily with chunk delivery.
type MetadataFunc func(meta model.GroundingMetadata)

// StreamContent opens a streaming generation request and folds the
// incremental response into onChunk/onMetadata callbacks, returning the
// final cumulative text.
//
// Any failure propagates as the returned error: no retry, no backoff, no
// partial-result salvage. Recovering in-memory state is the caller's job.
func (c *Client) StreamContent(
	ctx context.Context,
	prompt string,
	attachments []model.Attachment,
	history []model.Message,
	cfg model.ModelConfig,
	onChunk ChunkFunc,
	onMetadata MetadataFunc,
) (string, error) {
	if !c.IsConfigured() {
		return "", ErrNoCredential
	}

	reqBody := c.buildRequest(prompt, attachments, history, cfg)

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse", c.baseURL, cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("x-goog-api-key", c.apiKey)

	c.logRequest(req)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	c.logResponse(resp, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, MaxEventSize))
		return "", handleErrorResponse(resp.StatusCode, body)
	}

	return c.processStream(ctx, resp.Body, onChunk, onMetadata)
}

// buildRequest assembles the wire request from configuration and history.
func (c *Client) buildRequest(prompt string, attachments []model.Attachment, history []model.Message, cfg model.ModelConfig) generateRequest {
	req := generateRequest{
		Contents: contentsFromHistory(history, prompt, attachments),
		SystemInstruction: &content{
			Parts: []part{{Text: combinedInstruction(cfg.SystemInstruction)}},
		},
		GenerationConfig: generationConfig{
			Temperature:     cfg.Temperature,
			TopK:            cfg.TopK,
			TopP:            cfg.TopP,
			MaxOutputTokens: cfg.MaxOutputTokens,
		},
		SafetySettings: c.safety,
	}
	if c.searchGrounding {
		req.Tools = []tool{{GoogleSearch: &struct{}{}}}
	}
	return req
}

// processStream reads SSE events and drives the callbacks in arrival
// order.
func (c *Client) processStream(ctx context.Context, body io.Reader, onChunk ChunkFunc, onMetadata MetadataFunc) (string, error) {
	reader := newSSEReader(body)
	var full strings.Builder

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		data, err := reader.readEvent()
		if err != nil {
			if err == io.EOF {
				return full.String(), nil
			}
			return "", err
		}

		var event generateResponse
		if err := json.Unmarshal(data, &event); err != nil {
			// Skip malformed events
			continue
		}

		if event.PromptFeedback != nil && event.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("%w: %s", ErrBlocked, event.PromptFeedback.BlockReason)
		}

		if len(event.Candidates) > 0 {
			if gm := event.Candidates[0].GroundingMetadata; gm != nil && onMetadata != nil {
				onMetadata(gm.toModel())
			}
		}

		if text := event.text(); text != "" {
			full.WriteString(text)
			if onChunk != nil {
				onChunk(full.String())
			}
		}
	}
}

