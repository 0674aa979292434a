package services

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	spaceRun      = regexp.MustCompile(`[ \t]+`)
	newlinePadded = regexp.MustCompile(` *\n *`)
	newlineRun    = regexp.MustCompile(`\n+`)
)

// NormalizeText collapses runs of whitespace to a single space, runs of
// newlines to a single newline, and trims the ends. Pure and total: empty
// input yields empty output, never an error.
func NormalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = spaceRun.ReplaceAllString(text, " ")
	text = newlinePadded.ReplaceAllString(text, "\n")
	text = newlineRun.ReplaceAllString(text, "\n")
	return strings.TrimSpace(text)
}

// TruncateForPrompt bounds text to maxBytes without splitting a UTF-8
// sequence, keeping external model calls inside their context limits.
func TruncateForPrompt(text string, maxBytes int) string {
	if maxBytes <= 0 || len(text) <= maxBytes {
		return text
	}

	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
