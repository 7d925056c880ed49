package utils

import (
	"regexp"
	"strings"
)

var controlChars = regexp.MustCompile(`[\x00-\x08\x0b-\x1f\x7f]`)

// MaxUtteranceLength bounds a single chat message
const MaxUtteranceLength = 2000

// SanitizeUtterance strips control characters, collapses surrounding
// whitespace and truncates to MaxUtteranceLength runes
func SanitizeUtterance(s string) string {
	s = strings.TrimSpace(controlChars.ReplaceAllString(s, ""))
	if r := []rune(s); len(r) > MaxUtteranceLength {
		s = string(r[:MaxUtteranceLength])
	}
	return s
}
