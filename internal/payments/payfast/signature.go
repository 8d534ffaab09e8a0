package payfast

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Pair is one ordered key/value field of a gateway payload. The gateway signs
// over declaration order, so fields travel as a slice, never a map.
type Pair struct {
	Key   string
	Value string
}

// Sign computes the gateway signature over the pairs in the order given.
// Empty values are skipped, values are urlencoded with spaces as "+", and the
// passphrase is appended as a final pair when configured. The digest is
// lowercase hex MD5.
func Sign(pairs []Pair, passphrase string) string {
	var b strings.Builder
	for _, pair := range pairs {
		if pair.Value == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(pair.Key)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(pair.Value))
	}
	if passphrase != "" {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString("passphrase=")
		b.WriteString(url.QueryEscape(passphrase))
	}

	sum := md5.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// EncodeQuery renders the pairs as the querystring the gateway redirect needs,
// using the same encoding the signature was computed over.
func EncodeQuery(pairs []Pair) string {
	var b strings.Builder
	for _, pair := range pairs {
		if pair.Value == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(pair.Key)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(pair.Value))
	}
	return b.String()
}

// GenerateOrderID builds the business order identifier: unix millis plus four
// random bytes in hex, e.g. "1709290000000-a1b2c3d4".
func GenerateOrderID(now time.Time) (string, error) {
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("generate order id suffix: %w", err)
	}
	return fmt.Sprintf("%d-%s", now.UnixMilli(), hex.EncodeToString(suffix)), nil
}
