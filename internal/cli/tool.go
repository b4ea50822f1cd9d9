// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// tool.go - One-shot tool command handler.
//
// Handles "cipher-studio tool <name>" which runs a single tool view
// against the API and streams the response to stdout.
//
// Examples:
//   cipher-studio tool codelab "binary search in Go"
//   cipher-studio tool prompt "write me a poem about go"
//   cipher-studio tool vision describe -f photo.png
//   cipher-studio tool doc summary -f report.txt
//   cipher-studio tool cyber audit -f handler.go
package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/cipher-attack/cipher-studio/internal/attach"
	"github.com/cipher-attack/cipher-studio/internal/config"
	"github.com/cipher-attack/cipher-studio/internal/gemini"
	"github.com/cipher-attack/cipher-studio/internal/model"
	"github.com/cipher-attack/cipher-studio/internal/store"
	"github.com/cipher-attack/cipher-studio/internal/tools"
)

// HandleTool runs one tool view and prints the response.
func HandleTool(args Args) error {
	if args.Sub == "" {
		return fmt.Errorf("no tool named. Usage: cipher-studio tool <codelab|prompt|vision|data|doc|cyber> ...")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	st, err := store.New()
	if err != nil {
		return err
	}
	st.LoadAll()

	view, prompt, attachments, err := resolveTool(args)
	if err != nil {
		return err
	}
	if args.Model != "" {
		view.Config.Model = args.Model
	}

	key, err := gemini.ResolveCredential(st.Credential())
	if err != nil {
		return err
	}
	client := gemini.NewClient(key).
		WithBaseURL(cfg.Provider.BaseURL).
		WithSafetyThreshold(cfg.Provider.SafetyThreshold).
		WithSearchGrounding(false)

	fmt.Fprintf(os.Stderr, "[%s] %s\n", view.Name, view.Tagline)

	// Stream deltas to stdout as they arrive. Chunks are cumulative, so
	// print only the suffix past what is already on screen.
	printed := 0
	final, err := view.Run(context.Background(), client.StreamContent, prompt, attachments, func(cumulative string) {
		if len(cumulative) > printed {
			fmt.Print(cumulative[printed:])
			printed = len(cumulative)
		}
	})
	if err != nil {
		fmt.Println()
		return err
	}
	fmt.Println()

	if args.Sub == "prompt" {
		optimized, explanation := tools.SplitOptimized(final)
		fmt.Println()
		fmt.Println("--- optimized prompt ---")
		fmt.Println(optimized)
		if explanation != "" {
			fmt.Println()
			fmt.Println("--- what changed ---")
			fmt.Println(renderOutput(explanation, args.Plain, cfg))
		}
	}
	return nil
}

// resolveTool maps the subcommand to a view, its prompt, and any
// attachments.
func resolveTool(args Args) (*tools.View, string, []model.Attachment, error) {
	input := strings.Join(args.Positional, " ")

	switch args.Sub {
	case "codelab":
		if input == "" {
			return nil, "", nil, fmt.Errorf("codelab needs a description of the code to generate")
		}
		return tools.CodeLab(), input, nil, nil

	case "prompt":
		if input == "" {
			return nil, "", nil, fmt.Errorf("prompt needs the prompt text to optimize")
		}
		return tools.PromptStudio(), tools.OptimizePrompt(input), nil, nil

	case "vision":
		mode, rest := splitMode(args.Positional, "describe")
		view, prompt, err := tools.VisionHub(tools.VisionMode(mode))
		if err != nil {
			return nil, "", nil, err
		}
		if args.File == "" {
			return nil, "", nil, fmt.Errorf("vision needs an image: -f <file>")
		}
		att, err := attach.FromFile(args.File)
		if err != nil {
			return nil, "", nil, err
		}
		if rest != "" {
			prompt = rest
		}
		return view, prompt, []model.Attachment{att}, nil

	case "data":
		if input == "" {
			return nil, "", nil, fmt.Errorf("data needs the dataset text to visualize")
		}
		return tools.DataAnalyst(), tools.VisualizationPrompt(input, "dark"), nil, nil

	case "doc":
		mode, _ := splitMode(args.Positional, "summary")
		docText, err := readTextFile(args.File)
		if err != nil {
			return nil, "", nil, err
		}
		prompt, err := tools.DocPrompt(tools.DocMode(mode), docText)
		if err != nil {
			return nil, "", nil, err
		}
		return tools.DocIntel(), prompt, nil, nil

	case "cyber":
		mode, rest := splitMode(args.Positional, "audit")
		if args.File != "" {
			text, err := readTextFile(args.File)
			if err != nil {
				return nil, "", nil, err
			}
			rest = text
		}
		if rest == "" {
			return nil, "", nil, fmt.Errorf("cyber needs input: positional text or -f <file>")
		}
		view, prompt, err := tools.Cyber(tools.CyberMode(mode), rest)
		if err != nil {
			return nil, "", nil, err
		}
		return view, prompt, nil, nil
	}

	return nil, "", nil, fmt.Errorf("unknown tool %q", args.Sub)
}

// splitMode treats the first positional as a mode name and joins the rest.
func splitMode(positional []string, def string) (mode, rest string) {
	if len(positional) == 0 {
		return def, ""
	}
	return positional[0], strings.Join(positional[1:], " ")
}

// readTextFile reads a document for text-mode tools, with the same size
// cap as attachments.
func readTextFile(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("no document given: -f <file>")
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.Size() > attach.MaxFileSize {
		return "", &attach.FileError{Path: path, Err: attach.ErrFileTooLarge}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// renderOutput optionally runs text through the markdown renderer.
func renderOutput(text string, plain bool, cfg *config.Config) string {
	if plain || !cfg.UI.RenderMarkdown {
		return text
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimSpace(out)
}
