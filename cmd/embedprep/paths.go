package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	envDataDir    = "EMBEDPREP_DATA_DIR"
	envConfigPath = "EMBEDPREP_CONFIG"
)

// resolveDataDir returns the dataset root from the flag, falling back to
// $EMBEDPREP_DATA_DIR.
func resolveDataDir(flag string) (string, error) {
	dir := strings.TrimSpace(flag)
	if dir == "" {
		dir = strings.TrimSpace(os.Getenv(envDataDir))
	}
	if dir == "" {
		return "", fmt.Errorf("--data is required unless %s is set", envDataDir)
	}
	st, err := os.Stat(dir)
	if err != nil {
		return "", err
	}
	if !st.IsDir() {
		return "", fmt.Errorf("dataset root is not a directory: %s", dir)
	}
	return filepath.Clean(dir), nil
}

// resolveOut cleans an output path, substituting def when empty, and creates
// its parent directory.
func resolveOut(outFlag, def string) (string, error) {
	out := strings.TrimSpace(outFlag)
	if out == "" {
		out = def
	}
	out = filepath.Clean(out)
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return "", err
	}
	return out, nil
}
