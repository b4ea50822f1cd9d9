// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cipher-attack/cipher-studio/internal/model"
)

// sseEvent formats one SSE data event.
func sseEvent(payload string) string {
	return "data: " + payload + "\n\n"
}

func textEvent(text string) string {
	return sseEvent(`{"candidates":[{"content":{"parts":[{"text":` + jsonString(text) + `}]}}]}`)
}

func jsonString(s string) string {
	// Good enough for the test fixtures used here.
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

func newStreamServer(t *testing.T, events ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") == "" {
			t.Error("request missing API key header")
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, ev := range events {
			io.WriteString(w, ev)
		}
	}))
}

func TestStreamContentCumulativeDelivery(t *testing.T) {
	server := newStreamServer(t,
		textEvent("H"),
		textEvent("e"),
		textEvent("llo there"),
	)
	defer server.Close()

	client := NewClient("test-key").WithBaseURL(server.URL)

	var snapshots []string
	final, err := client.StreamContent(context.Background(), "Hello", nil, nil,
		model.DefaultModelConfig(),
		func(cumulative string) { snapshots = append(snapshots, cumulative) },
		nil,
	)
	if err != nil {
		t.Fatalf("StreamContent: %v", err)
	}

	// Each callback carries the full text so far.
	want := []string{"H", "He", "Hello there"}
	if len(snapshots) != len(want) {
		t.Fatalf("snapshots = %v", snapshots)
	}
	for i := range want {
		if snapshots[i] != want[i] {
			t.Errorf("snapshot[%d] = %q, want %q", i, snapshots[i], want[i])
		}
	}
	if final != "Hello there" {
		t.Errorf("final = %q", final)
	}
}

func TestStreamContentMetadata(t *testing.T) {
	grounded := sseEvent(`{"candidates":[{"content":{"parts":[{"text":" [1]"}]},` +
		`"groundingMetadata":{"groundingChunks":[{"web":{"uri":"https://example.com","title":"Example"}},{}]}}]}`)
	server := newStreamServer(t, textEvent("answer"), grounded)
	defer server.Close()

	client := NewClient("test-key").WithBaseURL(server.URL)

	var metas []model.GroundingMetadata
	var lastText string
	final, err := client.StreamContent(context.Background(), "q", nil, nil,
		model.DefaultModelConfig(),
		func(cumulative string) { lastText = cumulative },
		func(meta model.GroundingMetadata) { metas = append(metas, meta) },
	)
	if err != nil {
		t.Fatalf("StreamContent: %v", err)
	}

	if len(metas) != 1 {
		t.Fatalf("metadata callbacks = %d, want 1", len(metas))
	}
	// Chunks without a web citation are dropped.
	if len(metas[0].Sources) != 1 || metas[0].Sources[0].URI != "https://example.com" {
		t.Errorf("sources = %+v", metas[0].Sources)
	}
	// Metadata delivery must not discard previously applied text.
	if lastText != "answer [1]" || final != "answer [1]" {
		t.Errorf("text = %q, final = %q", lastText, final)
	}
}

func TestStreamContentNoCredential(t *testing.T) {
	called := false
	client := NewClient("")

	_, err := client.StreamContent(context.Background(), "p", nil, nil,
		model.DefaultModelConfig(),
		func(string) { called = true },
		nil,
	)

	// Rejected before any chunk callback, no network attempt.
	if !errors.Is(err, ErrNoCredential) {
		t.Errorf("err = %v, want ErrNoCredential", err)
	}
	if called {
		t.Error("chunk callback fired for a rejected call")
	}
}

func TestStreamContentHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":{"code":401,"message":"API key not valid","status":"UNAUTHENTICATED"}}`)
	}))
	defer server.Close()

	client := NewClient("bad-key").WithBaseURL(server.URL)

	_, err := client.StreamContent(context.Background(), "p", nil, nil,
		model.DefaultModelConfig(), nil, nil)
	if !errors.Is(err, ErrAuthFailed) {
		t.Errorf("err = %v, want ErrAuthFailed", err)
	}
}

func TestStreamContentBlocked(t *testing.T) {
	server := newStreamServer(t, sseEvent(`{"promptFeedback":{"blockReason":"SAFETY"}}`))
	defer server.Close()

	client := NewClient("test-key").WithBaseURL(server.URL)

	_, err := client.StreamContent(context.Background(), "p", nil, nil,
		model.DefaultModelConfig(), nil, nil)
	if !errors.Is(err, ErrBlocked) {
		t.Errorf("err = %v, want ErrBlocked", err)
	}
}

func TestStreamContentSkipsMalformedEvents(t *testing.T) {
	server := newStreamServer(t,
		textEvent("ok"),
		sseEvent(`{not json`),
		textEvent(" done"),
	)
	defer server.Close()

	client := NewClient("test-key").WithBaseURL(server.URL)

	final, err := client.StreamContent(context.Background(), "p", nil, nil,
		model.DefaultModelConfig(), nil, nil)
	if err != nil {
		t.Fatalf("StreamContent: %v", err)
	}
	if final != "ok done" {
		t.Errorf("final = %q", final)
	}
}

func TestStreamContentContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	server := newStreamServer(t, textEvent("never seen"))
	defer server.Close()

	client := NewClient("test-key").WithBaseURL(server.URL)
	_, err := client.StreamContent(ctx, "p", nil, nil, model.DefaultModelConfig(), nil, nil)
	if err == nil {
		t.Error("expected error from canceled context")
	}
}

func TestSSEReaderEventFraming(t *testing.T) {
	input := "data: one\n\n: comment\nretry: 100\ndata: two\ndata: three\n\n"
	r := newSSEReader(strings.NewReader(input))

	ev, err := r.readEvent()
	if err != nil || string(ev) != "one" {
		t.Fatalf("first event = %q, err = %v", ev, err)
	}

	// Multi-line data joins with newline; non-data fields are ignored.
	ev, err = r.readEvent()
	if err != nil || string(ev) != "two\nthree" {
		t.Fatalf("second event = %q, err = %v", ev, err)
	}

	if _, err := r.readEvent(); err != io.EOF {
		t.Errorf("err = %v, want io.EOF", err)
	}
}
