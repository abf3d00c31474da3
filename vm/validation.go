package vm

import "encoding/binary"

// ---------------------------------------------------------------------------
// Container validation

// The validator proves that no execution of a structured container can
// underflow or overflow the operand stack, jump mid-instruction, or fall
// off the end of a section. It runs once per distinct container; the
// accepted Analysis is cacheable and shared read-only.
//
// Each section is checked by a single forward traversal in instruction
// order. Heights of forward jump targets are recorded when the jump is
// processed, so an instruction whose height is still unset when visited
// is unreachable. Divergent paths reaching the same instruction must
// agree on one height. The first violation in traversal order (section,
// then instruction, then declared successor order) is reported.

const heightUnset int16 = -1

// validOpcodesEOF marks the instructions executable inside a structured
// container. Dynamic-jump, code-introspection and legacy call-family
// opcodes are excluded; JUMPDEST degrades to a no-op.
var validOpcodesEOF [256]bool

// stackReq and stackDelta give operand words required and net height
// change for fixed-arity instructions. Variable-arity instructions
// (CALLF, RETF, JUMPF, DUPN, SWAPN, EXCHANGE) are handled by the
// traversal directly.
var (
	stackReq   [256]int8
	stackDelta [256]int8
)

func setArity(op Opcode, req, delta int8) {
	validOpcodesEOF[op] = true
	stackReq[op] = req
	stackDelta[op] = delta
}

func init() {
	for _, op := range []Opcode{
		ADD, MUL, SUB, DIV, SDIV, MOD, SMOD, EXP, SIGNEXTEND,
		LT, GT, SLT, SGT, EQ, AND, OR, XOR, BYTE, SHL, SHR, SAR,
		KECCAK256,
	} {
		setArity(op, 2, -1)
	}
	setArity(ADDMOD, 3, -2)
	setArity(MULMOD, 3, -2)
	for _, op := range []Opcode{
		ISZERO, NOT, BALANCE, CALLDATALOAD, BLOCKHASH, BLOBHASH,
		MLOAD, SLOAD, TLOAD, DATALOAD, RETURNDATALOAD,
	} {
		setArity(op, 1, 0)
	}
	for _, op := range []Opcode{
		ADDRESS, ORIGIN, CALLER, CALLVALUE, CALLDATASIZE, GASPRICE,
		RETURNDATASIZE, COINBASE, TIMESTAMP, NUMBER, PREVRANDAO,
		GASLIMIT, CHAINID, SELFBALANCE, BASEFEE, BLOBBASEFEE,
		MSIZE, DATASIZE, DATALOADN,
	} {
		setArity(op, 0, 1)
	}
	for _, op := range []Opcode{CALLDATACOPY, RETURNDATACOPY, MCOPY, DATACOPY} {
		setArity(op, 3, -3)
	}
	for _, op := range []Opcode{MSTORE, MSTORE8, SSTORE, TSTORE, RETURN, REVERT} {
		setArity(op, 2, -2)
	}
	setArity(POP, 1, -1)
	setArity(STOP, 0, 0)
	setArity(JUMPDEST, 0, 0)
	setArity(INVALID, 0, 0)
	setArity(PUSH0, 0, 1)
	for op := PUSH1; op <= PUSH32; op++ {
		setArity(op, 0, 1)
	}
	for i := int8(1); i <= 16; i++ {
		setArity(DUP1+Opcode(i-1), i, 1)
		setArity(SWAP1+Opcode(i-1), i+1, 0)
	}
	for i := int8(0); i <= 4; i++ {
		setArity(LOG0+Opcode(i), i+2, -(i + 2))
	}
	setArity(RJUMP, 0, 0)
	setArity(RJUMPI, 1, -1)
	setArity(RJUMPV, 1, -1)
	setArity(CALLF, 0, 0)
	setArity(RETF, 0, 0)
	setArity(JUMPF, 0, 0)
	setArity(DUPN, 0, 1)
	setArity(SWAPN, 0, 0)
	setArity(EXCHANGE, 0, 0)
	setArity(EXTCALL, 4, -3)
	setArity(EXTDELEGATECALL, 3, -2)
	setArity(EXTSTATICCALL, 3, -2)
}

// fallsThrough reports whether execution can continue into the following
// instruction. RJUMP is not terminal yet never falls through.
func fallsThrough(op Opcode) bool {
	return !op.IsTerminal() && op != RJUMP
}

// ---------------------------------------------------------------------------
// Analysis

// Analysis is an accepted validation result: the container plus the proven
// operand stack height at every instruction of every section. It is
// write-once and safe to share across concurrent executions.
type Analysis struct {
	container *Container
	heights   [][]int16
}

// Container returns the validated container.
func (a *Analysis) Container() *Container { return a.container }

// HeightAt returns the proven operand stack height at an instruction
// offset, or -1 for offsets inside immediate data.
func (a *Analysis) HeightAt(section, pc int) int {
	if section < 0 || section >= len(a.heights) {
		return -1
	}
	if pc < 0 || pc >= len(a.heights[section]) {
		return -1
	}
	return int(a.heights[section][pc])
}

// ---------------------------------------------------------------------------
// Traversal

// ValidateContainer accepts a container or rejects it with exactly one
// exception, the first detected in traversal order.
func ValidateContainer(c *Container) (*Analysis, error) {
	heights := make([][]int16, len(c.Code))
	for s := range c.Code {
		h, err := validateSection(c, s)
		if err != nil {
			return nil, err
		}
		heights[s] = h
	}
	return &Analysis{container: c, heights: heights}, nil
}

// scanStarts marks instruction boundaries. It judges nothing: malformed
// tails are left unmarked and reported by the traversal in instruction
// order.
func scanStarts(code []byte) []bool {
	starts := make([]bool, len(code))
	for pos := 0; pos < len(code); {
		starts[pos] = true
		op := Opcode(code[pos])
		size := 1 + op.Immediates()
		if op == RJUMPV {
			if pos+1 >= len(code) {
				break
			}
			size = 2 + 2*(int(code[pos+1])+1)
		}
		pos += size
	}
	return starts
}

func validateSection(c *Container, section int) ([]int16, error) {
	code := c.Code[section]
	typ := c.Types[section]
	starts := scanStarts(code)

	heights := make([]int16, len(code))
	for i := range heights {
		heights[i] = heightUnset
	}
	heights[0] = int16(typ.Inputs)

	// merge records the stack height arriving at a jump target, or checks
	// it against the height already proven for that target.
	merge := func(pos, target, h int) error {
		if target < 0 || target >= len(code) || !starts[target] {
			return validationErr(ErrInvalidJumpTarget, section, pos)
		}
		if heights[target] == heightUnset {
			heights[target] = int16(h)
			return nil
		}
		if heights[target] != int16(h) {
			return validationErr(ErrStackHeightMismatch, section, pos)
		}
		return nil
	}

	returningExit := false

	for pos := 0; pos < len(code); {
		op := Opcode(code[pos])
		if !validOpcodesEOF[op] {
			return nil, validationErr(ErrUndefinedInstruction, section, pos)
		}

		size := 1 + op.Immediates()
		if op == RJUMPV {
			if pos+1 >= len(code) {
				return nil, validationErr(ErrTruncatedImmediate, section, pos)
			}
			size = 2 + 2*(int(code[pos+1])+1)
		}
		if pos+size > len(code) {
			return nil, validationErr(ErrTruncatedImmediate, section, pos)
		}
		next := pos + size

		// A section that promises to never return cannot contain a return
		// or a tail transfer, whatever their target or reachability.
		if typ.NonReturning() && (op == RETF || op == JUMPF) {
			return nil, validationErr(ErrInvalidNonReturningFlag, section, pos)
		}

		h := int(heights[pos])
		if h == int(heightUnset) {
			return nil, validationErr(ErrUnreachableCode, section, pos)
		}
		if h > int(typ.MaxStackHeight) {
			return nil, validationErr(ErrInvalidMaxStackHeight, section, pos)
		}

		newH := h

		switch op {
		case RETF:
			if h != int(typ.Outputs) {
				return nil, validationErr(ErrStackHeightMismatch, section, pos)
			}
			returningExit = true

		case CALLF:
			fid := int(binary.BigEndian.Uint16(code[pos+1:]))
			if fid >= len(c.Types) {
				return nil, validationErr(ErrInvalidSectionArgument, section, pos)
			}
			callee := c.Types[fid]
			if callee.NonReturning() {
				return nil, validationErr(ErrCallfToNonReturning, section, pos)
			}
			if h < int(callee.Inputs) {
				return nil, validationErr(ErrStackHeightUnderflow, section, pos)
			}
			if h-int(callee.Inputs)+int(callee.MaxStackHeight) > maxStackHeightLimit {
				return nil, validationErr(ErrStackHeightOverflow, section, pos)
			}
			newH = h - int(callee.Inputs) + int(callee.Outputs)

		case JUMPF:
			fid := int(binary.BigEndian.Uint16(code[pos+1:]))
			if fid >= len(c.Types) {
				return nil, validationErr(ErrInvalidSectionArgument, section, pos)
			}
			callee := c.Types[fid]
			if callee.NonReturning() {
				if h < int(callee.Inputs) {
					return nil, validationErr(ErrStackHeightUnderflow, section, pos)
				}
			} else {
				if int(typ.Outputs) < int(callee.Outputs) {
					return nil, validationErr(ErrTypeMismatch, section, pos)
				}
				if h != int(typ.Outputs)+int(callee.Inputs)-int(callee.Outputs) {
					return nil, validationErr(ErrStackHeightMismatch, section, pos)
				}
				returningExit = true
			}
			if h-int(callee.Inputs)+int(callee.MaxStackHeight) > maxStackHeightLimit {
				return nil, validationErr(ErrStackHeightOverflow, section, pos)
			}

		case RJUMP:
			offset := int(int16(binary.BigEndian.Uint16(code[pos+1:])))
			if err := merge(pos, next+offset, h); err != nil {
				return nil, err
			}

		case RJUMPI:
			if h < 1 {
				return nil, validationErr(ErrStackHeightUnderflow, section, pos)
			}
			newH = h - 1
			offset := int(int16(binary.BigEndian.Uint16(code[pos+1:])))
			if err := merge(pos, next+offset, newH); err != nil {
				return nil, err
			}

		case RJUMPV:
			if h < 1 {
				return nil, validationErr(ErrStackHeightUnderflow, section, pos)
			}
			newH = h - 1
			count := int(code[pos+1]) + 1
			for i := 0; i < count; i++ {
				offset := int(int16(binary.BigEndian.Uint16(code[pos+2+2*i:])))
				if err := merge(pos, next+offset, newH); err != nil {
					return nil, err
				}
			}

		case DUPN:
			n := int(code[pos+1]) + 1
			if h < n {
				return nil, validationErr(ErrStackHeightUnderflow, section, pos)
			}
			newH = h + 1

		case SWAPN:
			n := int(code[pos+1]) + 2
			if h < n {
				return nil, validationErr(ErrStackHeightUnderflow, section, pos)
			}

		case EXCHANGE:
			// Swaps the items n and n+m below the top, both one-based.
			imm := code[pos+1]
			n, m := int(imm>>4)+1, int(imm&0x0f)+1
			if h < n+m+1 {
				return nil, validationErr(ErrStackHeightUnderflow, section, pos)
			}

		case DATALOADN:
			index := int(binary.BigEndian.Uint16(code[pos+1:]))
			if index+32 > len(c.Data) {
				return nil, validationErr(ErrInvalidSectionArgument, section, pos)
			}
			newH = h + 1

		default:
			if h < int(stackReq[op]) {
				return nil, validationErr(ErrStackHeightUnderflow, section, pos)
			}
			newH = h + int(stackDelta[op])
		}

		if newH > maxStackHeightLimit {
			return nil, validationErr(ErrStackHeightOverflow, section, pos)
		}

		if fallsThrough(op) {
			if next >= len(code) {
				return nil, validationErr(ErrMissingTerminal, section, pos)
			}
			if err := merge(pos, next, newH); err != nil {
				return nil, err
			}
		}

		pos = next
	}

	// A section declared returning must prove at least one path that
	// actually returns.
	if !typ.NonReturning() && !returningExit {
		return nil, validationErr(ErrInvalidNonReturningFlag, section, 0)
	}

	return heights, nil
}
