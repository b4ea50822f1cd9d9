// cipher-studio - a terminal chat studio for the Gemini API.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cipher-attack/cipher-studio/internal/auth"
	"github.com/cipher-attack/cipher-studio/internal/cli"
	"github.com/cipher-attack/cipher-studio/internal/commands"
	"github.com/cipher-attack/cipher-studio/internal/config"
	"github.com/cipher-attack/cipher-studio/internal/controller"
	"github.com/cipher-attack/cipher-studio/internal/gemini"
	"github.com/cipher-attack/cipher-studio/internal/model"
	"github.com/cipher-attack/cipher-studio/internal/store"
	"github.com/cipher-attack/cipher-studio/internal/ui/chat"
	"github.com/cipher-attack/cipher-studio/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Global program reference for async event delivery from the controller.
var (
	programRef *tea.Program
	programMu  sync.Mutex
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	setupLogging()
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdTool:
		if err := cli.HandleTool(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case cli.CmdAuth:
		if err := cli.HandleAuth(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case cli.CmdKey:
		if err := cli.HandleKey(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case cli.CmdVersion:
		cli.HandleVersion()
	case cli.CmdHelp:
		cli.HandleHelp()
	default:
		runTUI(args)
	}
}

// runTUI starts the interactive chat.
func runTUI(args cli.Args) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// The access gate, when enrolled, must open before any session data
	// is shown.
	baseDir, err := config.BaseDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	gate, err := auth.Load(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading access gate: %v\n", err)
		os.Exit(1)
	}
	if err := cli.SignInInteractive(gate); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	st, err := store.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening session store: %v\n", err)
		os.Exit(1)
	}
	// New sessions pick up the [generation] settings from the config file.
	st.SetDefaultConfig(cfg.ModelConfig())
	if sessions := st.LoadAll(); len(sessions) == 0 {
		st.Create()
	}

	// The credential is resolved per turn (stored key first, environment
	// fallback) so a /key change applies to the next message without a
	// restart. A missing credential is not fatal here; the first turn
	// reports it with a tip.
	stream := func(
		ctx context.Context,
		prompt string,
		attachments []model.Attachment,
		history []model.Message,
		mc model.ModelConfig,
		onChunk gemini.ChunkFunc,
		onMetadata gemini.MetadataFunc,
	) (string, error) {
		key, err := gemini.ResolveCredential(st.Credential())
		if err != nil {
			return "", err
		}
		client := gemini.NewClient(key).
			WithBaseURL(cfg.Provider.BaseURL).
			WithSafetyThreshold(cfg.Provider.SafetyThreshold).
			WithSearchGrounding(cfg.Provider.SearchGrounding)
		return client.StreamContent(ctx, prompt, attachments, history, mc, onChunk, onMetadata)
	}

	ctrl := controller.New(st, stream)

	// A -m/--model flag overrides the current session's model for this run.
	if args.Model != "" {
		ctrl.UpdateConfig(func(mc *model.ModelConfig) {
			mc.Model = args.Model
		})
	}

	theme := styles.NewThemeVariant(cfg.UI.Theme != "light")

	buffer := chat.NewStreamingBuffer()
	runner := chat.NewStreamRunner(ctrl, buffer)

	cmdCtx := &commands.Context{
		Controller: ctrl,
		Store:      st,
		Config:     cfg,
		Gate:       gate,
		Version:    Version,
	}

	m := chat.New(theme, ctrl, runner, buffer, cmdCtx, cfg.UI)

	p := tea.NewProgram(m, tea.WithAltScreen())
	runner.SetProgram(p)

	programMu.Lock()
	programRef = p
	programMu.Unlock()

	// History changes outside streaming (pins, session switches) reach the
	// view as messages. During streaming the tick loop repaints instead,
	// so per-chunk events are suppressed here to keep the mailbox quiet.
	ctrl.OnHistoryChanged(func() {
		if ctrl.State() != controller.TurnIdle {
			return
		}
		sendToProgram(chat.HistoryChangedMsg{})
	})
	ctrl.OnSessionsChanged(func() {
		sendToProgram(chat.SessionsChangedMsg{})
	})

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running cipher-studio: %v\n", err)
		os.Exit(1)
	}

	if err := st.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not save sessions: %v\n", err)
	}
}

// setupLogging routes the stdlib logger to a file under the config
// directory. Stderr belongs to the TUI; on any failure logging is
// silenced rather than allowed to corrupt the screen.
func setupLogging() {
	dir, err := config.BaseDir()
	if err != nil {
		log.SetOutput(io.Discard)
		return
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		log.SetOutput(io.Discard)
		return
	}
	f, err := os.OpenFile(filepath.Join(dir, "cipher.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		log.SetOutput(io.Discard)
		return
	}
	log.SetOutput(f)
	log.SetFlags(log.LstdFlags | log.Lmsgprefix)
}

func sendToProgram(msg tea.Msg) {
	programMu.Lock()
	p := programRef
	programMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}
