package utils

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// ClearTermTo clears upTo lines above the cursor, leaving the cursor at the
// start of the topmost cleared line.
func ClearTermTo(w io.Writer, termWidth, upTo int) {
	clearLine := strings.Repeat(" ", termWidth)
	for upTo > 0 {
		fmt.Fprintf(w, "\r%v", clearLine)
		fmt.Fprintf(w, "\033[%dA", 1)
		upTo--
	}
	fmt.Fprintf(w, "\r%v", clearLine)
	fmt.Fprint(w, "\r")
}

// CountLines returns the amount of terminal lines text occupies when printed
// on a terminal termWidth wide. Empty segments count as one line.
func CountLines(text string, termWidth int) int {
	if termWidth <= 0 {
		termWidth = 1
	}
	lineCount := 0
	for _, segment := range strings.Split(text, "\n") {
		runeCount := utf8.RuneCountInString(segment)
		if runeCount == 0 {
			lineCount++
			continue
		}
		lineCount += (runeCount + termWidth - 1) / termWidth
	}
	return lineCount
}
