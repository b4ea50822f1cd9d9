// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAccessWithoutGateFile(t *testing.T) {
	g, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.False(t, g.Enabled())
	assert.NoError(t, g.Authorize(), "no gate file means open access")
	assert.NoError(t, g.SignIn("anything", ""), "sign-in on an open gate is a no-op")
}

func TestEnrollAndSignIn(t *testing.T) {
	dir := t.TempDir()
	g, err := Load(dir)
	require.NoError(t, err)

	_, err = g.Enroll("correct horse battery", false)
	require.NoError(t, err)
	assert.True(t, g.Enabled())
	assert.NoError(t, g.Authorize(), "enrollment counts as sign-in")

	// A fresh load starts locked.
	g2, err := Load(dir)
	require.NoError(t, err)
	assert.True(t, g2.Enabled())
	assert.ErrorIs(t, g2.Authorize(), ErrNotSignedIn)

	assert.ErrorIs(t, g2.SignIn("wrong", ""), ErrBadPassphrase)
	assert.ErrorIs(t, g2.Authorize(), ErrNotSignedIn)

	require.NoError(t, g2.SignIn("correct horse battery", ""))
	assert.NoError(t, g2.Authorize())

	g2.SignOut()
	assert.ErrorIs(t, g2.Authorize(), ErrNotSignedIn)
}

func TestEnrollRejectsShortPassphrase(t *testing.T) {
	g, err := Load(t.TempDir())
	require.NoError(t, err)
	_, err = g.Enroll("short", false)
	assert.Error(t, err)
	assert.False(t, g.Enabled())
}

func TestEnrollTwice(t *testing.T) {
	g, err := Load(t.TempDir())
	require.NoError(t, err)
	_, err = g.Enroll("first passphrase", false)
	require.NoError(t, err)
	_, err = g.Enroll("second passphrase", false)
	assert.ErrorIs(t, err, ErrAlreadyEnrolled)
}

func TestTOTPSecondFactor(t *testing.T) {
	dir := t.TempDir()
	g, err := Load(dir)
	require.NoError(t, err)

	url, err := g.Enroll("correct horse battery", true)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "otpauth://totp/"), "url = %q", url)

	g2, err := Load(dir)
	require.NoError(t, err)
	require.True(t, g2.RequiresTOTP())

	// Passphrase alone is not enough.
	assert.ErrorIs(t, g2.SignIn("correct horse battery", ""), ErrBadTOTP)
	assert.ErrorIs(t, g2.SignIn("correct horse battery", "000000"), ErrBadTOTP)

	// Generate a valid code from the enrolled secret.
	secret := readSecret(t, dir)
	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, g2.SignIn("correct horse battery", code))
	assert.NoError(t, g2.Authorize())

	// Wrong passphrase reports passphrase failure even with a valid code.
	g3, err := Load(dir)
	require.NoError(t, err)
	code, err = totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)
	assert.ErrorIs(t, g3.SignIn("wrong", code), ErrBadPassphrase)
}

func TestGateFilePermissions(t *testing.T) {
	dir := t.TempDir()
	g, err := Load(dir)
	require.NoError(t, err)
	_, err = g.Enroll("correct horse battery", false)
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(dir, "gate.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestRemoveGate(t *testing.T) {
	dir := t.TempDir()
	g, err := Load(dir)
	require.NoError(t, err)
	_, err = g.Enroll("correct horse battery", false)
	require.NoError(t, err)

	require.NoError(t, g.Remove())
	assert.False(t, g.Enabled())

	// Gone from disk too.
	g2, err := Load(dir)
	require.NoError(t, err)
	assert.False(t, g2.Enabled())
}

func TestRemoveRequiresSignIn(t *testing.T) {
	dir := t.TempDir()
	g, err := Load(dir)
	require.NoError(t, err)
	_, err = g.Enroll("correct horse battery", false)
	require.NoError(t, err)

	locked, err := Load(dir)
	require.NoError(t, err)
	assert.ErrorIs(t, locked.Remove(), ErrNotSignedIn)
}

func TestLoadCorruptGateFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gate.json"), []byte("{not json"), 0600))
	_, err := Load(dir)
	assert.Error(t, err)
}

// readSecret pulls the TOTP secret back out of the gate file for test
// code generation.
func readSecret(t *testing.T, dir string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "gate.json"))
	require.NoError(t, err)
	const marker = `"totpSecret": "`
	i := strings.Index(string(data), marker)
	require.GreaterOrEqual(t, i, 0, "gate file has no totp secret")
	rest := string(data)[i+len(marker):]
	return rest[:strings.IndexByte(rest, '"')]
}
