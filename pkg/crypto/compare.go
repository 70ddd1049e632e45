package crypto

import "crypto/subtle"

// ConstantTimeEqual compares two digests in time that depends only on their
// lengths. On a length mismatch the longer input is still compared against
// itself before returning false. It never panics.
func ConstantTimeEqual(a, b string) (equal bool) {
	defer func() {
		if recover() != nil {
			equal = false
		}
	}()

	x, y := []byte(a), []byte(b)
	if len(x) != len(y) {
		longer := x
		if len(y) > len(x) {
			longer = y
		}
		subtle.ConstantTimeCompare(longer, longer)
		return false
	}
	return subtle.ConstantTimeCompare(x, y) == 1
}
