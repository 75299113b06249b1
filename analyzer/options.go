// Package analyzer infers, for every read site and list write of a script,
// the narrowest set of value kinds it can observe. Branches merge by union,
// loops iterate to a bounded fixed point, and procedure calls forget
// everything. Anything that cannot be pinned down degrades to ir.Unknown.
package analyzer

import "github.com/tliron/commonlog"

var log = commonlog.GetLogger("blockjit.analyzer")

// DefaultMaxLoopPasses bounds the body traversals spent on one loop before
// the entities it writes are widened to Unknown.
const DefaultMaxLoopPasses = 8

// Options selects what an analysis tracks.
type Options struct {
	// Variables and Lists select the entity kinds whose types are tracked.
	// Untracked entities read as Unknown.
	Variables bool
	Lists     bool

	// FoldNumericStrings types string literals that are canonical numerals
	// as Number.
	FoldNumericStrings bool

	// EmptyReads adds String to the type of every list item read, for the
	// empty string an out-of-range index yields. Without it a read is typed
	// by the list's contents alone.
	EmptyReads bool

	MaxLoopPasses int
}

// DefaultOptions tracks everything.
func DefaultOptions() Options {
	return Options{
		Variables:          true,
		Lists:              true,
		FoldNumericStrings: true,
		MaxLoopPasses:      DefaultMaxLoopPasses,
	}
}

func (o Options) maxPasses() int {
	if o.MaxLoopPasses <= 0 {
		return DefaultMaxLoopPasses
	}
	return o.MaxLoopPasses
}
