package utils

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var ErrUserInitiatedExit = errors.New("user exit")

// HasPipedInput reports if data is being piped into f.
func HasPipedInput(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice == 0
}

// ReadPipedInput reads all of r, trimmed of surrounding whitespace.
func ReadPipedInput(r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}
