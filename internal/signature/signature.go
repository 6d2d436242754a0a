// Package signature computes cheap, deterministic fingerprints of ingest
// batches for duplicate suppression.
package signature

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"

	"clipstash/internal/models"
)

const (
	// DefaultPrefixLen bounds how much of each text form enters the fingerprint.
	DefaultPrefixLen = 256

	signatureHexLen = 32
	recordSeparator = "\x1e"
)

// Fingerprint returns the per-candidate fingerprint. Text uses bounded
// prefixes plus full lengths; files use MIME type, size and name only.
func Fingerprint(c models.Candidate, prefixLen int) string {
	if prefixLen <= 0 {
		prefixLen = DefaultPrefixLen
	}
	switch v := c.(type) {
	case models.TextCandidate:
		plainLen, plainPrefix := runePrefix(v.Plain, prefixLen)
		htmlLen, htmlPrefix := runePrefix(v.HTML, prefixLen)
		return strings.Join([]string{
			"t",
			strconv.Itoa(plainLen), plainPrefix,
			strconv.Itoa(htmlLen), htmlPrefix,
		}, "|")
	case models.FileCandidate:
		return strings.Join([]string{
			"f",
			strings.ToLower(strings.TrimSpace(v.MIME)),
			strconv.FormatInt(v.Size(), 10),
			v.Name,
		}, "|")
	default:
		return fmt.Sprintf("?|%T", c)
	}
}

// Batch hashes the ordered per-candidate fingerprints into a short hex string.
// Swapping two candidates changes the result.
func Batch(candidates []models.Candidate, prefixLen int) string {
	parts := make([]string, 0, len(candidates))
	for _, c := range candidates {
		parts = append(parts, Fingerprint(c, prefixLen))
	}
	sum := blake2b.Sum256([]byte(strings.Join(parts, recordSeparator)))
	return hex.EncodeToString(sum[:])[:signatureHexLen]
}

func runePrefix(s string, n int) (int, string) {
	count := 0
	cut := len(s)
	for i := range s {
		if count == n {
			cut = i
		}
		count++
	}
	if count <= n {
		cut = len(s)
	}
	return count, s[:cut]
}
