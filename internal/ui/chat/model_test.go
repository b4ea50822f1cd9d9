// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/cipher-attack/cipher-studio/internal/commands"
	"github.com/cipher-attack/cipher-studio/internal/config"
	"github.com/cipher-attack/cipher-studio/internal/controller"
	"github.com/cipher-attack/cipher-studio/internal/gemini"
	"github.com/cipher-attack/cipher-studio/internal/model"
	"github.com/cipher-attack/cipher-studio/internal/store"
	"github.com/cipher-attack/cipher-studio/internal/ui/styles"
)

func newTestModel(t *testing.T, ui config.UIConfig) Model {
	t.Helper()
	st, err := store.NewWithDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	st.LoadAll()
	st.Create()

	stream := func(context.Context, string, []model.Attachment, []model.Message, model.ModelConfig, gemini.ChunkFunc, gemini.MetadataFunc) (string, error) {
		return "ok", nil
	}
	ctrl := controller.New(st, stream)
	buffer := NewStreamingBuffer()
	runner := NewStreamRunner(ctrl, buffer)
	cmdCtx := &commands.Context{Controller: ctrl, Store: st}
	return New(styles.NewThemeVariant(true), ctrl, runner, buffer, cmdCtx, ui)
}

func TestAttachmentStagingAccumulates(t *testing.T) {
	m := newTestModel(t, config.UIConfig{})

	updated, _ := m.Update(commands.AttachmentStagedMsg{
		Attachment: model.Attachment{MimeType: "image/png", Data: "aGk="},
		Path:       "/tmp/shot.png",
	})
	m = updated.(Model)
	updated, _ = m.Update(commands.AttachmentStagedMsg{
		Attachment: model.Attachment{MimeType: "text/plain", Data: "aGk="},
		Path:       "/tmp/notes.txt",
	})
	m = updated.(Model)

	if len(m.pendingAttachments) != 2 {
		t.Fatalf("pendingAttachments = %d, want 2", len(m.pendingAttachments))
	}
	if m.pendingNames[0] != "shot.png" || m.pendingNames[1] != "notes.txt" {
		t.Errorf("pendingNames = %v, want base names", m.pendingNames)
	}
	if m.statusMsg != "attached notes.txt" {
		t.Errorf("statusMsg = %q", m.statusMsg)
	}
}

func TestShowTimestampsRendersSendTime(t *testing.T) {
	msg := model.NewUserMessage("hello", nil)
	stamp := msg.Timestamp.Format("15:04")

	on := newTestModel(t, config.UIConfig{ShowTimestamps: true})
	on.width = 80
	if !strings.Contains(on.renderMessage(&msg), stamp) {
		t.Errorf("timestamps enabled but %q missing from rendered message", stamp)
	}

	off := newTestModel(t, config.UIConfig{})
	off.width = 80
	if strings.Contains(off.renderMessage(&msg), stamp) {
		t.Errorf("timestamps disabled but %q rendered anyway", stamp)
	}
}

func TestClassifyErrorKnownFailures(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantTitle string
	}{
		{"no credential", gemini.ErrNoCredential, "No API Key"},
		{"auth failed", gemini.ErrAuthFailed, "Authentication Failed"},
		{"rate limited", gemini.ErrRateLimited, "Rate Limited"},
		{"model missing", gemini.ErrModelNotFound, "Model Not Found"},
		{"blocked", gemini.ErrBlocked, "Prompt Blocked"},
		{"turn in flight", controller.ErrTurnInFlight, "Busy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := classifyError(tt.err)
			if ev.Title != tt.wantTitle {
				t.Errorf("classifyError(%v).Title = %q, want %q", tt.err, ev.Title, tt.wantTitle)
			}
			if ev.Tip == "" {
				t.Errorf("classifyError(%v) has no tip", tt.err)
			}
		})
	}
}

func TestClassifyErrorWrappedSentinel(t *testing.T) {
	wrapped := fmt.Errorf("stream request: %w", gemini.ErrAuthFailed)
	if got := classifyError(wrapped).Title; got != "Authentication Failed" {
		t.Errorf("wrapped sentinel not recognized, got title %q", got)
	}
}

func TestClassifyErrorUnknownKeepsMessage(t *testing.T) {
	err := errors.New("connection reset by peer")
	ev := classifyError(err)
	if ev.Title != "Request Failed" {
		t.Errorf("Title = %q, want generic title", ev.Title)
	}
	if ev.Message != err.Error() {
		t.Errorf("Message = %q, want the original error text", ev.Message)
	}
}
