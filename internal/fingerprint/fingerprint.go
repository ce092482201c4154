package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Digest returns a stable hex digest of the given resume text, suitable as a
// cache key component. The text is normalized before hashing: lowercased,
// trimmed, and runs of whitespace collapsed to a single space, so resumes
// that differ only in casing or spacing share a digest. Changing this
// normalization invalidates every existing cache entry.
func Digest(text string) string {
	sum := sha256.Sum256([]byte(Normalize(text)))
	return hex.EncodeToString(sum[:])
}

// Normalize applies the canonical pre-hash normalization. Exposed so callers
// comparing texts for cache purposes use the exact same policy.
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// ParamsDigest hashes optional request parameters (target role, job
// description, experience level) into a short digest appended to cache keys.
// Empty parts are skipped so a request without parameters hashes the same as
// one with all-empty parameters.
func ParamsDigest(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		p = Normalize(p)
		if p == "" {
			continue
		}
		b.WriteString(p)
		b.WriteByte('|')
	}
	if b.Len() == 0 {
		return ""
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:8])
}
