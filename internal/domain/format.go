package domain

import (
	"net/url"
	"regexp"
	"strings"
)

var numericPattern = regexp.MustCompile(`^-?\d*\.?\d+$`)

// IsNumeric reports whether value, once trimmed, is a plain decimal number
// such as "220", "-1" or ".5".
func IsNumeric(value string) bool {
	return numericPattern.MatchString(strings.TrimSpace(value))
}

// IsHTTPURL reports whether raw is an absolute http or https URL
func IsHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
