// Package sysfs reads and writes the single integer files exposed by hwmon and thermal zones.
package sysfs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-homedir"
)

// ErrIO wraps every failed read or write.
var ErrIO = errors.New("i/o failure")

// ExpandPath resolves a leading "~" to the home directory of the current user.
func ExpandPath(path string) (string, error) {
	return homedir.Expand(path)
}

// ReadInt reads a single decimal integer from path.
func ReadInt(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return -1, fmt.Errorf("%w: %w", ErrIO, err)
	}
	text := strings.TrimSpace(string(data))
	if len(text) == 0 {
		return -1, fmt.Errorf("%w: file is empty: %s", ErrIO, path)
	}
	value, err := strconv.Atoi(text)
	if err != nil {
		return -1, fmt.Errorf("%w: %s: %w", ErrIO, path, err)
	}
	return value, nil
}

// WriteInt writes value as a decimal integer to path, following symlinks the way hwmon exposes its
// attributes.
func WriteInt(path string, value int) error {
	if evaluated, err := filepath.EvalSymlinks(path); err == nil && len(evaluated) > 0 {
		path = evaluated
	}
	if err := os.WriteFile(path, []byte(strconv.Itoa(value)), 0o644); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}
