package copilot

import (
	"regexp"
	"strings"
)

var ansiEscape = regexp.MustCompile(`\x1b(?:[@-Z\\-_]|\[[0-?]*[ -/]*[@-~])`)

// Braille glyphs terminal spinners cycle through.
const spinnerGlyphs = "⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏"

// CleanOutput turns raw CLI stdout into response text: ANSI escapes are
// stripped, spinner lines and leading blank lines are dropped.
func CleanOutput(raw string) string {
	if raw == "" {
		return "No response from Copilot"
	}

	text := ansiEscape.ReplaceAllString(raw, "")

	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.ContainsAny(line, spinnerGlyphs) {
			continue
		}
		if len(cleaned) == 0 && strings.TrimSpace(line) == "" {
			continue
		}
		cleaned = append(cleaned, line)
	}

	return strings.TrimSpace(strings.Join(cleaned, "\n"))
}
