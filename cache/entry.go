// Package cache stores compiled annotation results keyed by script content
// hash, in memory and optionally in SQLite.
package cache

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/tliron/commonlog"

	"github.com/chazu/blockjit/compiler/hash"
)

var log = commonlog.GetLogger("blockjit.cache")

// ErrNotFound is returned by stores that hold no entry for a key.
var ErrNotFound = errors.New("cache entry not found")

// Entry is one cached analysis result. Positions refer to the normalized
// script form, so an entry applies to any script with the same hash.
type Entry struct {
	Key     hash.Sum `cbor:"1,keyasint"`
	Version byte     `cbor:"2,keyasint"`
	Valid   bool     `cbor:"3,keyasint"`
	// Targets maps instruction positions to target types.
	Targets map[int]uint8 `cbor:"4,keyasint,omitempty"`
	// Registers holds the resolved type of every register by position.
	Registers []uint8 `cbor:"5,keyasint,omitempty"`
}

var encMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("cache: failed to create CBOR enc mode: %v", err))
	}
	encMode = em
}

// MarshalEntry serializes an Entry to CBOR bytes.
func MarshalEntry(e *Entry) ([]byte, error) {
	return encMode.Marshal(e)
}

// UnmarshalEntry deserializes an Entry from CBOR bytes. Entries written by
// another format version are rejected.
func UnmarshalEntry(data []byte) (*Entry, error) {
	var e Entry
	if err := cbor.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("cache: unmarshal entry: %w", err)
	}
	if e.Version != hash.HashVersion {
		return nil, fmt.Errorf("cache: entry version %d, want %d", e.Version, hash.HashVersion)
	}
	return &e, nil
}

// Store is a keyed entry store.
type Store interface {
	Get(key hash.Sum) (*Entry, error)
	Put(e *Entry) error
}
