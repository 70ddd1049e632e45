package cmi

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"
)

// idGenerator produces order ids and request nonces
type idGenerator struct {
	now    func() time.Time
	random io.Reader
}

func defaultIDGenerator() idGenerator {
	return idGenerator{now: time.Now, random: rand.Reader}
}

// OrderID returns ORD-<unix millis>-<8 uppercase hex chars>
func (g idGenerator) OrderID() (string, error) {
	suffix, err := g.hex(4)
	if err != nil {
		return "", fmt.Errorf("failed to generate order id: %w", err)
	}
	return fmt.Sprintf("ORD-%d-%s", g.now().UnixMilli(), strings.ToUpper(suffix)), nil
}

// Nonce returns 32 lowercase hex chars
func (g idGenerator) Nonce() (string, error) {
	n, err := g.hex(16)
	if err != nil {
		return "", fmt.Errorf("failed to generate rnd: %w", err)
	}
	return n, nil
}

func (g idGenerator) hex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(g.random, b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
