package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// CanonicalHash hashes the logical content of v: it serializes, reparses
// into generic maps, and serializes again so encoding/json emits object
// keys in sorted order. The result depends only on values, never on Go
// struct field order. Output is hex SHA-256 with a "sha256:" prefix.
func CanonicalHash(v any) (string, error) {
	first, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("canonicalize: %w", err)
	}
	var generic any
	if err := json.Unmarshal(first, &generic); err != nil {
		return "", fmt.Errorf("canonicalize: %w", err)
	}
	canonical, err := json.Marshal(generic)
	if err != nil {
		return "", fmt.Errorf("canonicalize: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return "sha256:" + hex.EncodeToString(sum[:]), nil
}
