// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// authcmd.go - Local access gate management.
//
// Handles "cipher-studio auth <enroll|remove|status>". The gate protects
// locally stored sessions and the API key behind a passphrase, with
// optional TOTP as a second factor.
package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/cipher-attack/cipher-studio/internal/auth"
	"github.com/cipher-attack/cipher-studio/internal/config"
)

// HandleAuth manages the local access gate.
func HandleAuth(args Args) error {
	dir, err := config.BaseDir()
	if err != nil {
		return err
	}
	gate, err := auth.Load(dir)
	if err != nil {
		return err
	}

	switch args.Sub {
	case "enroll":
		return authEnroll(gate)
	case "remove":
		return authRemove(gate)
	case "status", "":
		return authStatus(gate)
	}
	return fmt.Errorf("unknown auth action %q. Usage: cipher-studio auth <enroll|remove|status>", args.Sub)
}

func authEnroll(gate *auth.Gate) error {
	if gate.Enabled() {
		return auth.ErrAlreadyEnrolled
	}

	passphrase, err := readPassphrase("New passphrase (min 8 chars): ")
	if err != nil {
		return err
	}
	confirm, err := readPassphrase("Confirm passphrase: ")
	if err != nil {
		return err
	}
	if passphrase != confirm {
		return fmt.Errorf("passphrases do not match")
	}

	enableTOTP := readYesNo("Enable TOTP second factor? [y/N]: ")

	url, err := gate.Enroll(passphrase, enableTOTP)
	if err != nil {
		return err
	}

	fmt.Println("Access gate enabled.")
	if url != "" {
		fmt.Println()
		fmt.Println("Add this account to your authenticator app:")
		fmt.Println("  " + url)
	}
	return nil
}

func authRemove(gate *auth.Gate) error {
	if !gate.Enabled() {
		fmt.Println("No access gate is configured.")
		return nil
	}
	if err := signInInteractive(gate); err != nil {
		return err
	}
	if err := gate.Remove(); err != nil {
		return err
	}
	fmt.Println("Access gate removed.")
	return nil
}

func authStatus(gate *auth.Gate) error {
	if !gate.Enabled() {
		fmt.Println("Access gate: disabled (open access)")
		return nil
	}
	fmt.Println("Access gate: enabled")
	if gate.RequiresTOTP() {
		fmt.Println("Second factor: TOTP")
	} else {
		fmt.Println("Second factor: none")
	}
	return nil
}

// =============================================================================
// INTERACTIVE SIGN-IN
// =============================================================================

// SignInInteractive prompts for credentials until the gate opens. Used by
// the TUI startup path as well as auth subcommands.
func SignInInteractive(gate *auth.Gate) error {
	return signInInteractive(gate)
}

func signInInteractive(gate *auth.Gate) error {
	if !gate.Enabled() {
		return nil
	}

	for attempt := 0; attempt < 3; attempt++ {
		passphrase, err := readPassphrase("Passphrase: ")
		if err != nil {
			return err
		}
		code := ""
		if gate.RequiresTOTP() {
			code = readLine("TOTP code: ")
		}

		err = gate.SignIn(passphrase, code)
		if err == nil {
			return nil
		}
		fmt.Fprintf(os.Stderr, "Sign-in failed: %v\n", err)
	}
	return fmt.Errorf("too many failed sign-in attempts")
}

// readPassphrase reads a passphrase without terminal echo.
func readPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	data, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func readLine(prompt string) string {
	fmt.Fprint(os.Stderr, prompt)
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func readYesNo(prompt string) bool {
	answer := strings.ToLower(readLine(prompt))
	return answer == "y" || answer == "yes"
}
