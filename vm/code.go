package vm

import "github.com/holiman/uint256"

// ---------------------------------------------------------------------------
// Code representation

// CodeKind distinguishes the two executable bytecode formats.
type CodeKind int

const (
	// CodeLegacy is a flat instruction stream with runtime-checked jumps.
	CodeLegacy CodeKind = iota
	// CodeEOF is a structured container validated before execution.
	CodeEOF
)

// Code is an immutable, analyzed unit of executable bytecode. Legacy code
// carries a precomputed bitmap of valid jump destinations; structured code
// carries the parsed container. A Code is safe to share across executions;
// callers must not modify the byte slices it exposes.
type Code struct {
	kind      CodeKind
	raw       []byte
	container *Container
	jumpdests bitvec
	hash      Hash
}

// ParseCode classifies raw bytes by their magic prefix and analyzes them.
// Structured containers are parsed but not control-flow validated; that is
// the validator's job. Legacy bytes are used as-is.
func ParseCode(raw []byte) (*Code, error) {
	if HasEOFMagic(raw) {
		container, err := ParseContainer(raw)
		if err != nil {
			return nil, err
		}
		return &Code{
			kind:      CodeEOF,
			raw:       raw,
			container: container,
			hash:      Keccak256(raw),
		}, nil
	}
	return &Code{
		kind:      CodeLegacy,
		raw:       raw,
		jumpdests: codeBitmap(raw),
		hash:      Keccak256(raw),
	}, nil
}

// LegacyCode analyzes raw bytes as a flat legacy instruction stream, even
// when they carry the container magic. Before containers activate, such
// bytes execute as legacy code and fail on their undefined first opcode.
func LegacyCode(raw []byte) *Code {
	return &Code{
		kind:      CodeLegacy,
		raw:       raw,
		jumpdests: codeBitmap(raw),
		hash:      Keccak256(raw),
	}
}

// Kind returns the bytecode format.
func (c *Code) Kind() CodeKind { return c.kind }

// IsEOF reports whether the code is a structured container.
func (c *Code) IsEOF() bool { return c.kind == CodeEOF }

// Raw returns the full on-chain bytes. Read-only.
func (c *Code) Raw() []byte { return c.raw }

// Container returns the parsed container, or nil for legacy code.
func (c *Code) Container() *Container { return c.container }

// Hash returns the keccak256 hash of the raw bytes.
func (c *Code) Hash() Hash { return c.hash }

// Len returns the raw byte length.
func (c *Code) Len() int { return len(c.raw) }

// ValidJumpdest reports whether dest is a legal legacy jump target: in
// bounds, a JUMPDEST opcode, and not inside PUSH immediate data.
func (c *Code) ValidJumpdest(dest *uint256.Int) bool {
	udest, overflow := dest.Uint64WithOverflow()
	if overflow || udest >= uint64(len(c.raw)) {
		return false
	}
	if Opcode(c.raw[udest]) != JUMPDEST {
		return false
	}
	return c.jumpdests.codeSegment(udest)
}

// ---------------------------------------------------------------------------
// Jump destination analysis

// bitvec marks, per code offset, whether the byte is PUSH immediate data.
// A clear bit means the offset is an instruction boundary.
type bitvec []byte

func (bits bitvec) set1(pos uint64) {
	bits[pos/8] |= 1 << (pos % 8)
}

// codeSegment reports whether pos is an instruction boundary.
func (bits bitvec) codeSegment(pos uint64) bool {
	return ((bits[pos/8] >> (pos % 8)) & 1) == 0
}

// codeBitmap walks the instruction stream once and records which offsets
// are occupied by PUSH immediates. Truncated trailing immediates need no
// marking since they are past the end of code.
func codeBitmap(code []byte) bitvec {
	bits := make(bitvec, len(code)/8+1)
	for pc := uint64(0); pc < uint64(len(code)); {
		op := Opcode(code[pc])
		pc++
		n := uint64(op.PushBytes())
		for i := uint64(0); i < n && pc+i < uint64(len(code)); i++ {
			bits.set1(pc + i)
		}
		pc += n
	}
	return bits
}
