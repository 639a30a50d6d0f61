package transform

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/omniwallet/walletsync/pkg/model"
	"github.com/omniwallet/walletsync/pkg/payload"
)

// ResolveHash determines the transaction's stable unique identifier. A
// present, non-null hash from the source is used verbatim. Otherwise a
// deterministic fallback is synthesized so that replaying the same raw record
// updates the same cache row instead of duplicating it. The second return
// reports whether the hash was synthesized.
func ResolveHash(existing *string, createdAt time.Time, p payload.Payload) (string, bool) {
	if existing != nil {
		h := strings.TrimSpace(*existing)
		switch strings.ToLower(h) {
		case "", "null", "none":
		default:
			return h, false
		}
	}
	return model.FallbackHashPrefix + createdAt.UTC().Format("20060102150405") + "-" + shortDigest(p.Canonical()), true
}

// shortDigest is the first 8 hex characters of a SHA-256 digest.
func shortDigest(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:4])
}
