package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDotenv_SetsVars(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# comment\nNUOA_DOTENV_A=hello\nNUOA_DOTENV_B=\"quoted\"\n\nbroken line\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Cleanup(func() {
		os.Unsetenv("NUOA_DOTENV_A")
		os.Unsetenv("NUOA_DOTENV_B")
	})

	if err := LoadDotenv(path); err != nil {
		t.Fatalf("LoadDotenv: %v", err)
	}
	if got := os.Getenv("NUOA_DOTENV_A"); got != "hello" {
		t.Errorf("A = %q", got)
	}
	if got := os.Getenv("NUOA_DOTENV_B"); got != "quoted" {
		t.Errorf("B = %q, want unquoted value", got)
	}
}

func TestLoadDotenv_NeverOverrides(t *testing.T) {
	t.Setenv("NUOA_DOTENV_C", "original")

	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("NUOA_DOTENV_C=overwritten\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := LoadDotenv(path); err != nil {
		t.Fatalf("LoadDotenv: %v", err)
	}
	if got := os.Getenv("NUOA_DOTENV_C"); got != "original" {
		t.Errorf("C = %q, want original", got)
	}
}

func TestLoadDotenv_MissingFileIgnored(t *testing.T) {
	if err := LoadDotenv(filepath.Join(t.TempDir(), "nope")); err != nil {
		t.Fatalf("expected nil for missing file, got %v", err)
	}
}
