// Package vector defines the engine's conformance-vector format: CBOR
// records that pin validation verdicts and execution outcomes, and a
// runner that executes them against the engine and reports mismatches.
// Vectors are the portable form of the engine's determinism contract:
// identical inputs must produce identical halt kind, output, gas and
// exception on every run.
package vector

// Kind selects how a vector exercises the engine.
type Kind uint8

const (
	// KindValidate parses and validates the code bytes as a structured
	// container without executing them.
	KindValidate Kind = 1
	// KindRunLegacy executes the code bytes as a legacy instruction
	// stream on a fresh in-memory host.
	KindRunLegacy Kind = 2
	// KindRunEOF executes the code bytes as a deployed structured
	// container on a fresh in-memory host.
	KindRunEOF Kind = 3
)

// Vector is one conformance case. Code is raw bytecode; for run kinds it
// is deployed to a fixed address and called from a fixed origin, so the
// outcome depends on nothing but the vector itself.
type Vector struct {
	Name     string `cbor:"1,keyasint"`
	Kind     Kind   `cbor:"2,keyasint"`
	Code     []byte `cbor:"3,keyasint"`
	Input    []byte `cbor:"4,keyasint,omitempty"`
	GasLimit uint64 `cbor:"5,keyasint,omitempty"`
	// Fork overrides the runner's configured fork by name.
	Fork   string `cbor:"6,keyasint,omitempty"`
	Expect Expect `cbor:"7,keyasint"`
}

// Expect pins a vector's outcome. Validation vectors use Accepted or
// Exception; run vectors use Halt, Output and optionally GasUsed.
type Expect struct {
	Accepted  bool   `cbor:"1,keyasint,omitempty"`
	Exception string `cbor:"2,keyasint,omitempty"`

	// Halt is the expected halt classification: "stop" for a clean
	// halt, "revert", or the sentinel message of a fatal error.
	Halt    string `cbor:"3,keyasint,omitempty"`
	Output  []byte `cbor:"4,keyasint,omitempty"`
	GasUsed uint64 `cbor:"5,keyasint,omitempty"`
	// CheckGas makes GasUsed binding; without it gas is unchecked, so
	// GasUsed zero stays distinguishable from "don't care".
	CheckGas bool `cbor:"6,keyasint,omitempty"`
}

// File is the on-disk vector collection.
type File struct {
	Version uint32   `cbor:"1,keyasint"`
	Vectors []Vector `cbor:"2,keyasint"`
}

// FileVersion is the wire version this package reads and writes.
const FileVersion = 1
