// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/pbkdf2"

	"github.com/cipher-attack/cipher-studio/internal/util"
)

// =============================================================================
// CONSTANTS AND ERRORS
// =============================================================================

const (
	gateFile = "gate.json"

	// SECURITY: PBKDF2 work factor for the passphrase hash.
	kdfIterations = 600_000
	kdfKeyLen     = 32
	saltLen       = 16

	totpIssuer = "Cipher Studio"
)

var (
	// ErrBadPassphrase indicates the passphrase did not match.
	ErrBadPassphrase = errors.New("incorrect passphrase")

	// ErrBadTOTP indicates a missing or invalid one-time code.
	ErrBadTOTP = errors.New("invalid one-time code")

	// ErrNotSignedIn indicates the gate is enabled and no successful
	// sign-in has happened.
	ErrNotSignedIn = errors.New("not signed in")

	// ErrAlreadyEnrolled indicates a gate file already exists.
	ErrAlreadyEnrolled = errors.New("gate already enrolled")
)

// =============================================================================
// GATE
// =============================================================================

// gateRecord is the persisted gate state.
type gateRecord struct {
	Salt       string `json:"salt"`
	Hash       string `json:"hash"`
	TOTPSecret string `json:"totpSecret,omitempty"`
}

// Gate is the local access gate. When no gate file exists access is open:
// SignIn is unnecessary and Authorize always succeeds. Once enrolled, use
// is authorized only after a successful SignIn.
//
// This is a client-side gate over local state (sessions, credential), not
// a substitute for server-side auth.
type Gate struct {
	mu       sync.Mutex
	baseDir  string
	record   *gateRecord // nil when access is open
	signedIn bool
}

// Load reads the gate state from dir. A missing gate file is not an
// error; it means open access.
func Load(dir string) (*Gate, error) {
	g := &Gate{baseDir: dir}

	data, err := os.ReadFile(filepath.Join(dir, gateFile))
	if errors.Is(err, os.ErrNotExist) {
		return g, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read gate file: %w", err)
	}

	var rec gateRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse gate file: %w", err)
	}
	if rec.Salt == "" || rec.Hash == "" {
		return nil, errors.New("gate file is incomplete")
	}
	g.record = &rec
	return g, nil
}

// Enabled reports whether a gate is enrolled.
func (g *Gate) Enabled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.record != nil
}

// RequiresTOTP reports whether sign-in needs a one-time code.
func (g *Gate) RequiresTOTP() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.record != nil && g.record.TOTPSecret != ""
}

// SignIn verifies the passphrase (and one-time code when enrolled with
// TOTP) and unlocks the gate. Calling SignIn on an open gate is a no-op.
func (g *Gate) SignIn(passphrase, totpCode string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.record == nil {
		g.signedIn = true
		return nil
	}

	salt, err := base64.StdEncoding.DecodeString(g.record.Salt)
	if err != nil {
		return fmt.Errorf("corrupt gate salt: %w", err)
	}
	stored, err := base64.StdEncoding.DecodeString(g.record.Hash)
	if err != nil {
		return fmt.Errorf("corrupt gate hash: %w", err)
	}

	derived := deriveKey(passphrase, salt)
	if subtle.ConstantTimeCompare(derived, stored) != 1 {
		return ErrBadPassphrase
	}

	if g.record.TOTPSecret != "" {
		if totpCode == "" || !totp.Validate(totpCode, g.record.TOTPSecret) {
			return ErrBadTOTP
		}
	}

	g.signedIn = true
	return nil
}

// SignOut locks the gate again.
func (g *Gate) SignOut() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.signedIn = false
}

// Authorize returns nil only when the caller may use the studio: either
// access is open, or a sign-in has succeeded.
func (g *Gate) Authorize() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.record == nil || g.signedIn {
		return nil
	}
	return ErrNotSignedIn
}

// =============================================================================
// ENROLLMENT
// =============================================================================

// Enroll creates the gate file with a passphrase and, optionally, a TOTP
// secret. Returns the otpauth provisioning URL when TOTP is enabled, for
// the user to register in their authenticator.
func (g *Gate) Enroll(passphrase string, enableTOTP bool) (otpauthURL string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.record != nil {
		return "", ErrAlreadyEnrolled
	}
	if len(passphrase) < 8 {
		return "", errors.New("passphrase must be at least 8 characters")
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	rec := &gateRecord{
		Salt: base64.StdEncoding.EncodeToString(salt),
		Hash: base64.StdEncoding.EncodeToString(deriveKey(passphrase, salt)),
	}

	if enableTOTP {
		key, err := totp.Generate(totp.GenerateOpts{
			Issuer:      totpIssuer,
			AccountName: "local",
		})
		if err != nil {
			return "", fmt.Errorf("generate totp secret: %w", err)
		}
		rec.TOTPSecret = key.Secret()
		otpauthURL = key.URL()
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", err
	}
	// SECURITY: Gate file is owner-readable only.
	if err := util.AtomicWriteFile(filepath.Join(g.baseDir, gateFile), data, 0600); err != nil {
		return "", fmt.Errorf("write gate file: %w", err)
	}

	g.record = rec
	g.signedIn = true
	return otpauthURL, nil
}

// Remove deletes the gate file, restoring open access. Requires a
// successful sign-in first.
func (g *Gate) Remove() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.record == nil {
		return nil
	}
	if !g.signedIn {
		return ErrNotSignedIn
	}
	if err := os.Remove(filepath.Join(g.baseDir, gateFile)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	g.record = nil
	return nil
}

func deriveKey(passphrase string, salt []byte) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, kdfIterations, kdfKeyLen, sha256.New)
}
