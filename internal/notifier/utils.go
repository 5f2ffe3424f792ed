package notifier

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var templateSlot = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// RenderTemplate substitutes {name} slots with values. Slots without a value
// render as the empty string; text outside slots is copied unchanged.
func RenderTemplate(tmpl string, values map[string]string) string {
	return templateSlot.ReplaceAllStringFunc(tmpl, func(slot string) string {
		return values[slot[1:len(slot)-1]]
	})
}

// truncateString shortens s to at most maxLength bytes without splitting a rune
func truncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	cut := maxLength - len("...")
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return strings.TrimRight(s[:cut], " \n") + "..."
}
