package hash

// ---------------------------------------------------------------------------
// Frozen format constants for the normalized script encoding.
//
// IMPORTANT: These values are FROZEN. Changing the meaning of any of them,
// or the numbering of ir.Kind and ir.Type they rely on, breaks every
// previously computed content hash and every cached compile result.
// ---------------------------------------------------------------------------

// HashVersion prefixes every encoded script. Bumping it invalidates all
// existing content hashes.
const HashVersion byte = 1

// Register tags in the normalized form.
const (
	TagComputed byte = 0x01
	TagNumber   byte = 0x02
	TagString   byte = 0x03
	TagBool     byte = 0x04
)

// NoRef marks an absent entity or register reference. References are
// otherwise 1-based so the zero value never aliases the first entry.
const NoRef = 0
