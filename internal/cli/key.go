// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/cipher-attack/cipher-studio/internal/gemini"
	"github.com/cipher-attack/cipher-studio/internal/store"
)

// HandleKey stores or inspects the Gemini API key.
func HandleKey(args Args) error {
	st, err := store.New()
	if err != nil {
		return err
	}
	st.LoadAll()

	if args.Sub == "" {
		client := gemini.NewClient(st.Credential())
		if !client.IsConfigured() {
			fmt.Println("No API key stored. Set one with: cipher-studio key <api-key>")
			return nil
		}
		fmt.Printf("API key stored (fingerprint %s)\n", client.KeyFingerprint())
		return nil
	}

	if err := st.SetCredential(args.Sub); err != nil {
		return err
	}
	fmt.Println("API key saved.")
	return nil
}

// HandleVersion prints build information.
func HandleVersion() {
	fmt.Printf("cipher-studio %s (%s, built %s)\n", Version, GitCommit, BuildDate)
}

// HandleHelp prints the top-level usage text.
func HandleHelp() {
	fmt.Print(`cipher-studio - terminal chat studio for the Gemini API

Usage:
  cipher-studio                 start the interactive chat
  cipher-studio tool <name>     run a one-shot tool (codelab, prompt,
                                vision, data, doc, cyber)
  cipher-studio key [api-key]   show or store the API key
  cipher-studio auth <action>   manage the local access gate
                                (enroll, remove, status)
  cipher-studio version         print version information

Flags:
  -f, --file FILE    attach or read a file (tool commands)
  -m, --model NAME   override the model for this run
  --plain            disable markdown rendering of output
`)
}
