// Package determinism provides primitives for reproducible output:
// sorted map iteration, content hashes and hash-derived IDs.
package determinism

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// StableID is a hash-based unique identifier that's deterministic
type StableID string

// IDGenerator generates stable, deterministic IDs
type IDGenerator struct {
	namespace string
}

// NewIDGenerator creates an ID generator with a namespace
func NewIDGenerator(namespace string) *IDGenerator {
	return &IDGenerator{namespace: namespace}
}

// Generate creates a stable ID from inputs
func (g *IDGenerator) Generate(parts ...string) StableID {
	h := sha256.New()
	h.Write([]byte(g.namespace))
	h.Write([]byte{0}) // Separator
	for _, part := range parts {
		h.Write([]byte(part))
		h.Write([]byte{0}) // Separator
	}
	return StableID(hex.EncodeToString(h.Sum(nil))[:16])
}

// ContentHash is a SHA-256 hash for content integrity
type ContentHash [32]byte

// ComputeHash computes a content hash from bytes
func ComputeHash(data []byte) ContentHash {
	return sha256.Sum256(data)
}

// HashJSON hashes the JSON encoding of v. encoding/json writes map keys in
// sorted order, so equal values always hash equally.
func HashJSON(v interface{}) (ContentHash, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return ContentHash{}, err
	}
	return ComputeHash(data), nil
}

// Hex returns the hash as a hex string
func (h ContentHash) Hex() string {
	return hex.EncodeToString(h[:])
}

// String implements Stringer
func (h ContentHash) String() string {
	return h.Hex()[:16] + "..."
}

// SortedKeys returns map keys in ascending order of their printed form
func SortedKeys[K comparable, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return fmt.Sprint(keys[i]) < fmt.Sprint(keys[j])
	})
	return keys
}

// RangeMapSorted iterates over a map in sorted key order
func RangeMapSorted[K comparable, V any](m map[K]V, fn func(K, V) bool) {
	for _, k := range SortedKeys(m) {
		if !fn(k, m[k]) {
			break
		}
	}
}
