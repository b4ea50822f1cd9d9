// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "testing"

func TestNewThemeVariant(t *testing.T) {
	dark := NewThemeVariant(true)
	if !dark.IsDark {
		t.Error("dark variant should report IsDark")
	}
	light := NewThemeVariant(false)
	if light.IsDark {
		t.Error("light variant should not report IsDark")
	}
}

func TestThemeStylesRender(t *testing.T) {
	th := NewThemeVariant(true)

	// Styles must render without panicking and keep their content.
	for name, s := range map[string]string{
		"header":  th.Header.Render("Cipher Studio"),
		"user":    th.UserText.Render("hello"),
		"model":   th.ModelText.Render("hi"),
		"error":   th.ErrorBox.Render("boom"),
		"session": th.SessionCurrent.Render("current"),
	} {
		if s == "" {
			t.Errorf("%s style rendered empty", name)
		}
	}
}
