// Package registryhash computes the content hash used for duplicate
// detection within one owner's active registries. The digest runs over a
// canonical serialization of (url, description, tags, category) so that
// logically identical imports always collide.
package registryhash

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Algorithm selects the digest. Configurable to allow future rotation.
type Algorithm string

const (
	SHA256 Algorithm = "sha256"
	SHA512 Algorithm = "sha512"
)

// ParseAlgorithm validates a configured algorithm name.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch Algorithm(strings.ToLower(strings.TrimSpace(name))) {
	case SHA256:
		return SHA256, nil
	case SHA512:
		return SHA512, nil
	}
	return "", fmt.Errorf("unsupported hash algorithm %q", name)
}

// Sum returns the hex digest over the canonical form of the tuple.
//
// Canonicalization: the url is trimmed and lowercased, the description and
// category are trimmed, tags are trimmed, sorted and length-prefixed.
// Fields join with newlines, so the serialization is deterministic and a
// comma or newline inside a tag cannot collide with the separators.
func Sum(alg Algorithm, url, description string, tags []string, category string) string {
	canonical := Canonical(url, description, tags, category)

	switch alg {
	case SHA512:
		sum := sha512.Sum512([]byte(canonical))
		return hex.EncodeToString(sum[:])
	default:
		sum := sha256.Sum256([]byte(canonical))
		return hex.EncodeToString(sum[:])
	}
}

// Canonical builds the deterministic serialization the digest runs over.
func Canonical(url, description string, tags []string, category string) string {
	normalized := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			normalized = append(normalized, tag)
		}
	}
	sort.Strings(normalized)

	// Length-prefix each tag so tag boundaries survive any tag content.
	encoded := make([]string, len(normalized))
	for i, tag := range normalized {
		encoded[i] = fmt.Sprintf("%d:%s", len(tag), tag)
	}

	parts := []string{
		strings.ToLower(strings.TrimSpace(url)),
		strings.TrimSpace(description),
		strings.Join(encoded, ","),
		strings.TrimSpace(category),
	}
	return strings.Join(parts, "\n")
}
