package service

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// LoadReferenceText reads the resume file and collapses whitespace runs.
// The file is expected to be plain text; converting rendered formats into
// text is the concern of the upstream tooling. An unreadable or empty
// resume is a configuration error: no ranking is possible without it.
func LoadReferenceText(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read resume at %s: %w", path, err)
	}
	text := strings.TrimSpace(whitespaceRun.ReplaceAllString(string(raw), " "))
	if text == "" {
		return "", fmt.Errorf("resume at %s is empty", path)
	}
	return text, nil
}

// hasText reports whether a description carries any non-whitespace content.
func hasText(s string) bool {
	return strings.TrimSpace(s) != ""
}
