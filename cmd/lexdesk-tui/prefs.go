// ABOUTME: Per-user TUI preferences persisted as TOML
// ABOUTME: Covers theme accents, scroll-follow threshold, and default context

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/lexdesk/lexdesk/internal/session"
)

// Prefs are cosmetic and behavioral settings that belong to the user,
// not to the deployment. Missing file means defaults.
type Prefs struct {
	Context         string `toml:"context"`
	FollowThreshold int    `toml:"follow_threshold"`
	ExportDir       string `toml:"export_dir"`

	Theme ThemePrefs `toml:"theme"`
}

type ThemePrefs struct {
	Accent string `toml:"accent"`
	Dim    string `toml:"dim"`
	Error  string `toml:"error"`
}

func defaultPrefs() Prefs {
	return Prefs{
		Context:         string(session.ContextGeneral),
		FollowThreshold: session.DefaultFollowThreshold,
		ExportDir:       "exports",
		Theme: ThemePrefs{
			Accent: "#7D56F4",
			Dim:    "#7D7A85",
			Error:  "#FF5F87",
		},
	}
}

// loadPrefs reads prefs from path, filling defaults for absent fields.
// A missing file is not an error.
func loadPrefs(path string) (Prefs, error) {
	prefs := defaultPrefs()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return prefs, nil
	}
	if err != nil {
		return prefs, fmt.Errorf("reading prefs: %w", err)
	}

	if err := toml.Unmarshal(data, &prefs); err != nil {
		return defaultPrefs(), fmt.Errorf("parsing prefs: %w", err)
	}
	if prefs.FollowThreshold <= 0 {
		prefs.FollowThreshold = session.DefaultFollowThreshold
	}
	if !session.ContextTag(prefs.Context).Valid() {
		prefs.Context = string(session.ContextGeneral)
	}
	return prefs, nil
}

// savePrefs writes prefs back to path, creating parent directories.
func savePrefs(path string, prefs Prefs) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating prefs directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("writing prefs: %w", err)
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(prefs)
}
