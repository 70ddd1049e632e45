package cmi

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeString(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"trims", "  Jane  ", 50, "Jane"},
		{"strips markup", `<b>"O'Neil"</b>`, 50, "bONeil/b"},
		{"caps length", "abcdef", 3, "abc"},
		{"caps in runes", "ééééé", 2, "éé"},
		{"empty", "", 10, ""},
		{"zero cap", "abc", 0, ""},
		{"trims before stripping", " <x> ", 10, "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeString(tt.in, tt.max))
		})
	}
}

func TestSanitizeEmail(t *testing.T) {
	assert.Equal(t, "buyer@example.ma", SanitizeEmail("  Buyer@Example.MA "))

	long := strings.Repeat("a", 120) + "@example.ma"
	assert.Len(t, SanitizeEmail(long), 100)
}
