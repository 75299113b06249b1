// Package hash computes content hashes of scripts.
package hash

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/chazu/blockjit/ir"
)

// Sum is a SHA-256 content hash.
type Sum [32]byte

func (s Sum) String() string { return hex.EncodeToString(s[:]) }

// HashScript computes the SHA-256 content hash of a script.
//
// The hash is computed over the canonical CBOR encoding of the script's
// normalized form. Two scripts with the same instructions, ignoring entity
// names and ids and arena layout, produce the same hash.
func HashScript(script *ir.Script) (Sum, *Normal, error) {
	n := Normalize(script)
	data, err := Serialize(n)
	if err != nil {
		return Sum{}, nil, err
	}
	return sha256.Sum256(data), n, nil
}

// Key derives a cache key from a script hash and the settings the result
// depends on.
func Key(script Sum, settings any) (Sum, error) {
	data, err := Encode(settings)
	if err != nil {
		return Sum{}, err
	}
	h := sha256.New()
	h.Write(script[:])
	h.Write(data)
	var out Sum
	copy(out[:], h.Sum(nil))
	return out, nil
}
