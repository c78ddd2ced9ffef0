package utils

import (
	"os"
	"strconv"

	"golang.org/x/term"
)

const defaultTermWidth = 80

// TermWidth returns the width of the terminal attached to stderr.
//
// $COLUMNS takes precedence. Without a tty, as in CI, the default width is
// returned.
func TermWidth() int {
	if c := os.Getenv("COLUMNS"); c != "" {
		if n, err := strconv.Atoi(c); err == nil && n > 0 {
			return n
		}
	}
	w, _, err := term.GetSize(int(os.Stderr.Fd()))
	if err != nil || w <= 0 {
		return defaultTermWidth
	}
	return w
}

// IsTerminal reports if f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
