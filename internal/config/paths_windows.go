//go:build windows

package config

import (
	"os"
	"path/filepath"
)

const settingsFileName = "vitalis-spy.yaml"

func configSearchPaths() []string {
	local := os.Getenv("LOCALAPPDATA")
	programData := os.Getenv("ProgramData")
	return []string{
		filepath.Join(local, "Vitalis", "spy.yaml"),
		filepath.Join(programData, "Vitalis", "spy.yaml"),
	}
}

func defaultSettingsPath() string {
	return filepath.Join(os.Getenv("LOCALAPPDATA"), "Vitalis", settingsFileName)
}
