// Package vm is the reference executor for block scripts.
//
// This package contains:
//   - Env, the variables, lists, functions and procedures a script runs against
//   - List, the 1-based block list
//   - operator semantics shared with generated code
//   - Interpreter, a boxed executor over the instruction stream
//
// Code emitted by the codegen package targets the same Env, so a script
// behaves identically whether it is interpreted or compiled.
package vm
