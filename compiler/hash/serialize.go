package hash

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ---------------------------------------------------------------------------
// Deterministic serialization of the normalized form.
//
// Canonical CBOR (RFC 7049 canonical ordering, shortest integer and float
// forms) gives a byte-stable encoding independent of map iteration order.
// ---------------------------------------------------------------------------

var encMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("hash: failed to create CBOR enc mode: %v", err))
	}
	encMode = em
}

// Serialize encodes a normalized script deterministically.
func Serialize(n *Normal) ([]byte, error) {
	data, err := encMode.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("hash: serialize: %w", err)
	}
	return data, nil
}

// Encode canonically encodes any value; used to fold options into keys.
func Encode(v any) ([]byte, error) {
	data, err := encMode.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("hash: encode: %w", err)
	}
	return data, nil
}
