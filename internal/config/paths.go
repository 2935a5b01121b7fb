package config

import (
	"os"
	"path/filepath"
)

// NuoaPath returns the root directory for nuoactl data.
// It uses $NUOA_PATH if set, otherwise defaults to ~/.nuoa.
func NuoaPath() string {
	if v := os.Getenv("NUOA_PATH"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".nuoa")
	}
	return filepath.Join(home, ".nuoa")
}

// ConfigPath returns the path to the nuoactl config file.
func ConfigPath() string {
	return filepath.Join(NuoaPath(), "config.jsonc")
}

// DotenvPath returns the path to the nuoactl .env file.
func DotenvPath() string {
	return filepath.Join(NuoaPath(), ".env")
}
