// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cipher-attack/cipher-studio/internal/config"
	"github.com/cipher-attack/cipher-studio/internal/controller"
	"github.com/cipher-attack/cipher-studio/internal/gemini"
	"github.com/cipher-attack/cipher-studio/internal/model"
	"github.com/cipher-attack/cipher-studio/internal/store"
)

func newTestContext(t *testing.T) *Context {
	t.Helper()
	st, err := store.NewWithDir(t.TempDir())
	require.NoError(t, err)
	st.LoadAll()
	st.Create()

	echo := func(_ context.Context, prompt string, _ []model.Attachment, _ []model.Message, _ model.ModelConfig, onChunk gemini.ChunkFunc, _ gemini.MetadataFunc) (string, error) {
		if onChunk != nil {
			onChunk("echo: " + prompt)
		}
		return "echo: " + prompt, nil
	}

	return &Context{
		Controller: controller.New(st, echo),
		Store:      st,
		Config:     config.Default(),
	}
}

func run(t *testing.T, ctx *Context, p *Parser, input string) interface{} {
	t.Helper()
	result := p.Parse(input)
	require.True(t, result.IsCommand, "input %q should parse as a command", input)
	require.NoError(t, result.Error)
	require.NotNil(t, result.Command)
	cmd := result.Command.Handler(ctx, result.Args)
	require.NotNil(t, cmd)
	return cmd()
}

func TestParseChatInputIsNotCommand(t *testing.T) {
	p := NewParser(NewRegistry())
	result := p.Parse("hello there")
	assert.False(t, result.IsCommand)
}

func TestParseUnknownCommand(t *testing.T) {
	p := NewParser(NewRegistry())
	result := p.Parse("/bogus")
	assert.True(t, result.IsCommand)
	assert.Error(t, result.Error)
	assert.Nil(t, result.Command)
}

func TestParseAliases(t *testing.T) {
	p := NewParser(NewRegistry())
	for _, alias := range []string{"/h", "/?", "/help"} {
		result := p.Parse(alias)
		require.NotNil(t, result.Command, alias)
		assert.Equal(t, "/help", result.Command.Name, alias)
	}
}

func TestParseQuotedArgs(t *testing.T) {
	parts := splitCommandLine(`/load "my session" extra`)
	assert.Equal(t, []string{"/load", "my session", "extra"}, parts)
}

func TestNewAndSessions(t *testing.T) {
	ctx := newTestContext(t)
	p := NewParser(NewRegistry())

	first := ctx.Controller.Current().ID
	msg := run(t, ctx, p, "/new")
	switched, ok := msg.(SessionSwitchedMsg)
	require.True(t, ok, "msg = %T", msg)
	assert.NotEqual(t, first, switched.SessionID)

	msg = run(t, ctx, p, "/sessions")
	list, ok := msg.(SessionListMsg)
	require.True(t, ok, "msg = %T", msg)
	assert.Len(t, list.Sessions, 2)
	assert.Equal(t, switched.SessionID, list.Current)
}

func TestLoadByNumberAndPrefix(t *testing.T) {
	ctx := newTestContext(t)
	p := NewParser(NewRegistry())

	first := ctx.Controller.Current()
	run(t, ctx, p, "/new")

	// Sessions are newest-first, so the original is number 2.
	msg := run(t, ctx, p, "/load 2")
	switched, ok := msg.(SessionSwitchedMsg)
	require.True(t, ok, "msg = %T", msg)
	assert.Equal(t, first.ID, switched.SessionID)

	// Unique ID prefix also works.
	other := ctx.Controller.Sessions()[0]
	msg = run(t, ctx, p, "/load "+other.ID[:8])
	switched, ok = msg.(SessionSwitchedMsg)
	require.True(t, ok, "msg = %T", msg)
	assert.Equal(t, other.ID, switched.SessionID)

	msg = run(t, ctx, p, "/load zzzz")
	_, ok = msg.(ErrorMsg)
	assert.True(t, ok, "msg = %T", msg)
}

func TestDeleteCurrent(t *testing.T) {
	ctx := newTestContext(t)
	p := NewParser(NewRegistry())

	doomed := ctx.Controller.Current().ID
	msg := run(t, ctx, p, "/delete")
	_, ok := msg.(InfoMsg)
	require.True(t, ok, "msg = %T", msg)

	assert.Nil(t, ctx.Store.Get(doomed))
	assert.NotNil(t, ctx.Controller.Current(), "a fresh session replaces the last one")
}

func TestExportCommand(t *testing.T) {
	ctx := newTestContext(t)
	ctx.Config.Export.OutputDir = t.TempDir()
	p := NewParser(NewRegistry())

	require.NoError(t, ctx.Controller.Run(context.Background(), "hello", nil))

	msg := run(t, ctx, p, "/export")
	info, ok := msg.(InfoMsg)
	require.True(t, ok, "msg = %T: %+v", msg, msg)
	require.True(t, strings.HasPrefix(info.Text, "Exported to "))

	path := strings.TrimPrefix(info.Text, "Exported to ")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[USER]: hello")

	// Unknown format is rejected up front.
	msg = run(t, ctx, p, "/export pdf")
	_, ok = msg.(ErrorMsg)
	assert.True(t, ok, "msg = %T", msg)
}

func TestPinCommand(t *testing.T) {
	ctx := newTestContext(t)
	p := NewParser(NewRegistry())
	require.NoError(t, ctx.Controller.Run(context.Background(), "pin me", nil))

	msg := run(t, ctx, p, "/pin 1")
	info, ok := msg.(InfoMsg)
	require.True(t, ok, "msg = %T", msg)
	assert.Equal(t, "Pinned message 1", info.Text)
	assert.True(t, ctx.Controller.Current().Messages[0].Pinned)

	msg = run(t, ctx, p, "/pin 99")
	_, ok = msg.(ErrorMsg)
	assert.True(t, ok, "msg = %T", msg)
}

func TestModelCommand(t *testing.T) {
	ctx := newTestContext(t)
	p := NewParser(NewRegistry())

	msg := run(t, ctx, p, "/model")
	info, ok := msg.(InfoMsg)
	require.True(t, ok, "msg = %T", msg)
	assert.Contains(t, info.Text, model.ModelFlash)

	run(t, ctx, p, "/model "+model.ModelPro)
	assert.Equal(t, model.ModelPro, ctx.Controller.Current().Config.Model)
}

func TestConfigShowsContextEstimate(t *testing.T) {
	ctx := newTestContext(t)
	p := NewParser(NewRegistry())
	require.NoError(t, ctx.Controller.Run(context.Background(), "estimate me", nil))

	msg := run(t, ctx, p, "/config")
	info, ok := msg.(InfoMsg)
	require.True(t, ok, "msg = %T", msg)
	assert.Contains(t, info.Text, "context~")
}

func TestAttachCommand(t *testing.T) {
	ctx := newTestContext(t)
	p := NewParser(NewRegistry())

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("attached content"), 0600))

	msg := run(t, ctx, p, "/attach "+path)
	staged, ok := msg.(AttachmentStagedMsg)
	require.True(t, ok, "msg = %T", msg)
	assert.Equal(t, path, staged.Path)
	assert.Equal(t, "text/plain", staged.Attachment.MimeType)
	assert.NotEmpty(t, staged.Attachment.Data)

	msg = run(t, ctx, p, "/attach "+filepath.Join(t.TempDir(), "missing.txt"))
	_, ok = msg.(ErrorMsg)
	assert.True(t, ok, "msg = %T", msg)

	msg = run(t, ctx, p, "/attach")
	_, ok = msg.(ErrorMsg)
	assert.True(t, ok, "msg = %T", msg)
}

func TestKeyCommand(t *testing.T) {
	ctx := newTestContext(t)
	p := NewParser(NewRegistry())

	msg := run(t, ctx, p, "/key AIza-test-key")
	_, ok := msg.(InfoMsg)
	require.True(t, ok, "msg = %T", msg)
	assert.Equal(t, "AIza-test-key", ctx.Store.Credential())

	msg = run(t, ctx, p, "/key")
	_, ok = msg.(ErrorMsg)
	assert.True(t, ok, "msg = %T", msg)
}

func TestHelpListsEveryCommand(t *testing.T) {
	r := NewRegistry()
	text := r.HelpText()
	for _, name := range []string{"/new", "/sessions", "/load", "/delete", "/attach", "/export", "/pin", "/model", "/config", "/key", "/help", "/quit"} {
		assert.Contains(t, text, name)
	}
}
