package cmi

import (
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/integrationcmi/cmi/internal/domain"
)

const hashDelimiter = "|"

// GenerateHash computes the ver3 digest of params keyed with storeKey.
//
// Every field except hash and encoding (compared case-insensitively) is
// included, ordered by lowercase name. Values are trimmed, the billing subset
// is sanitized, backslashes and pipes are escaped, and each value is followed
// by a pipe. The escaped store key closes the buffer. The digest is the
// base64 encoding of the hex SHA-512 of that buffer.
func GenerateHash(params *domain.ParameterSet, storeKey string) (string, error) {
	buf, err := hashBuffer(params, storeKey)
	if err != nil {
		return "", domain.NewHashGenerationError(err)
	}

	sum := sha512.Sum512([]byte(buf))
	return base64.StdEncoding.EncodeToString([]byte(hex.EncodeToString(sum[:]))), nil
}

func hashBuffer(params *domain.ParameterSet, storeKey string) (string, error) {
	if !utf8.ValidString(storeKey) {
		return "", fmt.Errorf("store key is not valid UTF-8")
	}

	var b strings.Builder
	for _, name := range params.Names() {
		if isTransportField(name) {
			continue
		}

		value := params.Get(name)
		if !utf8.ValidString(value) {
			return "", fmt.Errorf("field %q is not valid UTF-8", name)
		}

		value = strings.TrimSpace(value)
		if _, ok := domain.HashSanitizedFields[name]; ok {
			value = SanitizeString(value, domain.HashSanitizeMaxLength)
		}

		b.WriteString(escapeHashValue(value))
		b.WriteString(hashDelimiter)
	}
	b.WriteString(escapeHashValue(storeKey))

	return b.String(), nil
}

// escapeHashValue escapes backslashes before pipes so an escaped pipe is never
// re-escaped.
func escapeHashValue(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "|", `\|`)
}

func isTransportField(name string) bool {
	return strings.EqualFold(name, domain.FieldHash) || strings.EqualFold(name, domain.FieldEncoding)
}

// DigestPrefix shortens a digest for logging
func DigestPrefix(digest string) string {
	if len(digest) <= 8 {
		return digest
	}
	return digest[:8] + "..."
}
