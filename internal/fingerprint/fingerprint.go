// Package fingerprint computes content-addressable cache keys for images.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Compute returns the hex-encoded SHA-256 digest of the raw image bytes.
func Compute(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ComputeWithParams returns a fingerprint that covers both the image bytes
// and the given processing parameters. Parameters are canonicalized by
// sorting keys, so {a:1,b:2} and {b:2,a:1} fingerprint identically, while
// any change to a key or value produces a different fingerprint.
func ComputeWithParams(data []byte, params map[string]string) string {
	base := Compute(data)
	if len(params) == 0 {
		return base
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}

	sum := sha256.Sum256([]byte(base + "|" + strings.Join(pairs, "&")))
	return hex.EncodeToString(sum[:])
}
