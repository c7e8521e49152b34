//go:build !windows

package config

import (
	"os"
	"path/filepath"
)

const settingsFileName = "vitalis-spy.yaml"

func configSearchPaths() []string {
	home, _ := os.UserHomeDir()
	return []string{
		filepath.Join(home, ".vitalis", "spy.yaml"),
		"/etc/vitalis/spy.yaml",
	}
}

func defaultSettingsPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "vitalis", settingsFileName)
	}
	return settingsFileName
}
