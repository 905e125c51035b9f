// Package dotdir locates the .papermind/ directory that holds config.toml
// and credentials.toml, and writes files into it.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

// Name is the directory name looked up in the working and home directories.
const Name = ".papermind"

// Resolve returns the absolute .papermind/ directory to use, creating it
// when missing. The first match wins:
//  1. override, when non-empty
//  2. ./.papermind/ if it exists
//  3. ~/.papermind/
func Resolve(override string) (string, error) {
	dir := override
	if dir == "" {
		local, err := localDir()
		if err != nil {
			return "", err
		}
		dir = local
	}
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, Name)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating papermind directory %s: %w", dir, err)
	}
	return filepath.Abs(dir)
}

// localDir returns ./.papermind when it exists as a directory, else "".
func localDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, Name)
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return dir, nil
	}
	return "", nil
}

// WriteFile replaces path with data, readable by the owner only. The data
// goes to a temporary file in the same directory that is then renamed over
// path, so readers never see a partial file.
func WriteFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	// CreateTemp opens the file with mode 0600.
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
