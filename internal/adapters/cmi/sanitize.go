package cmi

import (
	"strings"

	"github.com/integrationcmi/cmi/internal/domain"
)

var markupStripper = strings.NewReplacer("<", "", ">", "", "'", "", `"`, "")

// SanitizeString trims s, strips the characters < > ' " and caps the result
// at maxLength runes.
func SanitizeString(s string, maxLength int) string {
	s = markupStripper.Replace(strings.TrimSpace(s))
	return truncateRunes(s, maxLength)
}

// SanitizeEmail trims and lowercases an email address and caps it at
// domain.EmailMaxLength runes.
func SanitizeEmail(email string) string {
	return truncateRunes(strings.ToLower(strings.TrimSpace(email)), domain.EmailMaxLength)
}

func truncateRunes(s string, max int) string {
	if max < 0 {
		return ""
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
