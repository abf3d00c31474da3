package vm

import "fmt"

// ---------------------------------------------------------------------------
// Opcode definitions
// ---------------------------------------------------------------------------

// Opcode represents a single bytecode instruction.
type Opcode byte

// Arithmetic
const (
	STOP       Opcode = 0x00 // halt execution
	ADD        Opcode = 0x01 // x + y
	MUL        Opcode = 0x02 // x * y
	SUB        Opcode = 0x03 // x - y
	DIV        Opcode = 0x04 // x / y (unsigned, /0 = 0)
	SDIV       Opcode = 0x05 // x / y (signed)
	MOD        Opcode = 0x06 // x % y (unsigned, %0 = 0)
	SMOD       Opcode = 0x07 // x % y (signed)
	ADDMOD     Opcode = 0x08 // (x + y) % m without intermediate wrap
	MULMOD     Opcode = 0x09 // (x * y) % m without intermediate wrap
	EXP        Opcode = 0x0A // x ** y
	SIGNEXTEND Opcode = 0x0B // sign-extend from byte position
)

// Comparison and bitwise
const (
	LT     Opcode = 0x10 // unsigned less-than
	GT     Opcode = 0x11 // unsigned greater-than
	SLT    Opcode = 0x12 // signed less-than
	SGT    Opcode = 0x13 // signed greater-than
	EQ     Opcode = 0x14 // equality
	ISZERO Opcode = 0x15 // x == 0
	AND    Opcode = 0x16
	OR     Opcode = 0x17
	XOR    Opcode = 0x18
	NOT    Opcode = 0x19
	BYTE   Opcode = 0x1A // nth byte of word, big-endian
	SHL    Opcode = 0x1B // shift left
	SHR    Opcode = 0x1C // logical shift right
	SAR    Opcode = 0x1D // arithmetic shift right
)

// Hashing
const (
	KECCAK256 Opcode = 0x20 // keccak256 of a memory range
)

// Environment
const (
	ADDRESS        Opcode = 0x30 // executing account address
	BALANCE        Opcode = 0x31 // balance of an address
	ORIGIN         Opcode = 0x32 // transaction origin
	CALLER         Opcode = 0x33 // immediate caller
	CALLVALUE      Opcode = 0x34 // value passed with the call
	CALLDATALOAD   Opcode = 0x35 // load 32 bytes of input
	CALLDATASIZE   Opcode = 0x36
	CALLDATACOPY   Opcode = 0x37
	CODESIZE       Opcode = 0x38
	CODECOPY       Opcode = 0x39
	GASPRICE       Opcode = 0x3A
	EXTCODESIZE    Opcode = 0x3B
	EXTCODECOPY    Opcode = 0x3C
	RETURNDATASIZE Opcode = 0x3D
	RETURNDATACOPY Opcode = 0x3E
	EXTCODEHASH    Opcode = 0x3F
)

// Block context
const (
	BLOCKHASH   Opcode = 0x40
	COINBASE    Opcode = 0x41
	TIMESTAMP   Opcode = 0x42
	NUMBER      Opcode = 0x43
	PREVRANDAO  Opcode = 0x44 // DIFFICULTY before the merge
	GASLIMIT    Opcode = 0x45
	CHAINID     Opcode = 0x46
	SELFBALANCE Opcode = 0x47
	BASEFEE     Opcode = 0x48
	BLOBHASH    Opcode = 0x49
	BLOBBASEFEE Opcode = 0x4A
)

// Stack, memory, storage and flow
const (
	POP      Opcode = 0x50
	MLOAD    Opcode = 0x51
	MSTORE   Opcode = 0x52
	MSTORE8  Opcode = 0x53
	SLOAD    Opcode = 0x54
	SSTORE   Opcode = 0x55
	JUMP     Opcode = 0x56 // dynamic jump, legacy code only
	JUMPI    Opcode = 0x57 // conditional dynamic jump, legacy code only
	PC       Opcode = 0x58
	MSIZE    Opcode = 0x59
	GAS      Opcode = 0x5A
	JUMPDEST Opcode = 0x5B // valid dynamic jump target marker
	TLOAD    Opcode = 0x5C // transient storage load
	TSTORE   Opcode = 0x5D // transient storage store
	MCOPY    Opcode = 0x5E // memory-to-memory copy
	PUSH0    Opcode = 0x5F // push zero
)

// Push operations. PUSH1 through PUSH32 carry 1..32 immediate data bytes.
const (
	PUSH1  Opcode = 0x60 + iota
	PUSH2
	PUSH3
	PUSH4
	PUSH5
	PUSH6
	PUSH7
	PUSH8
	PUSH9
	PUSH10
	PUSH11
	PUSH12
	PUSH13
	PUSH14
	PUSH15
	PUSH16
	PUSH17
	PUSH18
	PUSH19
	PUSH20
	PUSH21
	PUSH22
	PUSH23
	PUSH24
	PUSH25
	PUSH26
	PUSH27
	PUSH28
	PUSH29
	PUSH30
	PUSH31
	PUSH32
)

// Duplication operations
const (
	DUP1 Opcode = 0x80 + iota
	DUP2
	DUP3
	DUP4
	DUP5
	DUP6
	DUP7
	DUP8
	DUP9
	DUP10
	DUP11
	DUP12
	DUP13
	DUP14
	DUP15
	DUP16
)

// Swap operations
const (
	SWAP1 Opcode = 0x90 + iota
	SWAP2
	SWAP3
	SWAP4
	SWAP5
	SWAP6
	SWAP7
	SWAP8
	SWAP9
	SWAP10
	SWAP11
	SWAP12
	SWAP13
	SWAP14
	SWAP15
	SWAP16
)

// Logging
const (
	LOG0 Opcode = 0xA0 + iota
	LOG1
	LOG2
	LOG3
	LOG4
)

// Container data access (structured code only)
const (
	DATALOAD  Opcode = 0xD0 // load 32 bytes of the data section
	DATALOADN Opcode = 0xD1 // load 32 bytes at an immediate offset
	DATASIZE  Opcode = 0xD2
	DATACOPY  Opcode = 0xD3
)

// Static control flow (structured code only)
const (
	RJUMP    Opcode = 0xE0 // relative jump, 16-bit signed immediate
	RJUMPI   Opcode = 0xE1 // conditional relative jump
	RJUMPV   Opcode = 0xE2 // relative jump table, variable immediates
	CALLF    Opcode = 0xE3 // call code section
	RETF     Opcode = 0xE4 // return from code section
	JUMPF    Opcode = 0xE5 // tail-transfer to code section
	DUPN     Opcode = 0xE6 // duplicate at immediate depth
	SWAPN    Opcode = 0xE7 // swap with immediate depth
	EXCHANGE Opcode = 0xE8 // swap two non-top items, nibble immediates
)

// System operations
const (
	CREATE          Opcode = 0xF0
	CALL            Opcode = 0xF1
	CALLCODE        Opcode = 0xF2
	RETURN          Opcode = 0xF3
	DELEGATECALL    Opcode = 0xF4
	CREATE2         Opcode = 0xF5
	RETURNDATALOAD  Opcode = 0xF7 // load 32 bytes of return data (structured code only)
	EXTCALL         Opcode = 0xF8 // call without gas argument (structured code only)
	EXTDELEGATECALL Opcode = 0xF9
	STATICCALL      Opcode = 0xFA
	EXTSTATICCALL   Opcode = 0xFB
	REVERT          Opcode = 0xFD
	INVALID         Opcode = 0xFE // designated invalid instruction
	SELFDESTRUCT    Opcode = 0xFF
)

// ---------------------------------------------------------------------------
// Opcode metadata
// ---------------------------------------------------------------------------

// opcodeNames maps opcodes to their mnemonic. Absent entries are undefined
// byte values (they still execute in legacy code as invalid instructions).
var opcodeNames = map[Opcode]string{
	STOP: "STOP", ADD: "ADD", MUL: "MUL", SUB: "SUB", DIV: "DIV",
	SDIV: "SDIV", MOD: "MOD", SMOD: "SMOD", ADDMOD: "ADDMOD",
	MULMOD: "MULMOD", EXP: "EXP", SIGNEXTEND: "SIGNEXTEND",

	LT: "LT", GT: "GT", SLT: "SLT", SGT: "SGT", EQ: "EQ", ISZERO: "ISZERO",
	AND: "AND", OR: "OR", XOR: "XOR", NOT: "NOT", BYTE: "BYTE",
	SHL: "SHL", SHR: "SHR", SAR: "SAR",

	KECCAK256: "KECCAK256",

	ADDRESS: "ADDRESS", BALANCE: "BALANCE", ORIGIN: "ORIGIN",
	CALLER: "CALLER", CALLVALUE: "CALLVALUE", CALLDATALOAD: "CALLDATALOAD",
	CALLDATASIZE: "CALLDATASIZE", CALLDATACOPY: "CALLDATACOPY",
	CODESIZE: "CODESIZE", CODECOPY: "CODECOPY", GASPRICE: "GASPRICE",
	EXTCODESIZE: "EXTCODESIZE", EXTCODECOPY: "EXTCODECOPY",
	RETURNDATASIZE: "RETURNDATASIZE", RETURNDATACOPY: "RETURNDATACOPY",
	EXTCODEHASH: "EXTCODEHASH",

	BLOCKHASH: "BLOCKHASH", COINBASE: "COINBASE", TIMESTAMP: "TIMESTAMP",
	NUMBER: "NUMBER", PREVRANDAO: "PREVRANDAO", GASLIMIT: "GASLIMIT",
	CHAINID: "CHAINID", SELFBALANCE: "SELFBALANCE", BASEFEE: "BASEFEE",
	BLOBHASH: "BLOBHASH", BLOBBASEFEE: "BLOBBASEFEE",

	POP: "POP", MLOAD: "MLOAD", MSTORE: "MSTORE", MSTORE8: "MSTORE8",
	SLOAD: "SLOAD", SSTORE: "SSTORE", JUMP: "JUMP", JUMPI: "JUMPI",
	PC: "PC", MSIZE: "MSIZE", GAS: "GAS", JUMPDEST: "JUMPDEST",
	TLOAD: "TLOAD", TSTORE: "TSTORE", MCOPY: "MCOPY", PUSH0: "PUSH0",

	PUSH1: "PUSH1", PUSH2: "PUSH2", PUSH3: "PUSH3", PUSH4: "PUSH4",
	PUSH5: "PUSH5", PUSH6: "PUSH6", PUSH7: "PUSH7", PUSH8: "PUSH8",
	PUSH9: "PUSH9", PUSH10: "PUSH10", PUSH11: "PUSH11", PUSH12: "PUSH12",
	PUSH13: "PUSH13", PUSH14: "PUSH14", PUSH15: "PUSH15", PUSH16: "PUSH16",
	PUSH17: "PUSH17", PUSH18: "PUSH18", PUSH19: "PUSH19", PUSH20: "PUSH20",
	PUSH21: "PUSH21", PUSH22: "PUSH22", PUSH23: "PUSH23", PUSH24: "PUSH24",
	PUSH25: "PUSH25", PUSH26: "PUSH26", PUSH27: "PUSH27", PUSH28: "PUSH28",
	PUSH29: "PUSH29", PUSH30: "PUSH30", PUSH31: "PUSH31", PUSH32: "PUSH32",

	DUP1: "DUP1", DUP2: "DUP2", DUP3: "DUP3", DUP4: "DUP4", DUP5: "DUP5",
	DUP6: "DUP6", DUP7: "DUP7", DUP8: "DUP8", DUP9: "DUP9", DUP10: "DUP10",
	DUP11: "DUP11", DUP12: "DUP12", DUP13: "DUP13", DUP14: "DUP14",
	DUP15: "DUP15", DUP16: "DUP16",

	SWAP1: "SWAP1", SWAP2: "SWAP2", SWAP3: "SWAP3", SWAP4: "SWAP4",
	SWAP5: "SWAP5", SWAP6: "SWAP6", SWAP7: "SWAP7", SWAP8: "SWAP8",
	SWAP9: "SWAP9", SWAP10: "SWAP10", SWAP11: "SWAP11", SWAP12: "SWAP12",
	SWAP13: "SWAP13", SWAP14: "SWAP14", SWAP15: "SWAP15", SWAP16: "SWAP16",

	LOG0: "LOG0", LOG1: "LOG1", LOG2: "LOG2", LOG3: "LOG3", LOG4: "LOG4",

	DATALOAD: "DATALOAD", DATALOADN: "DATALOADN", DATASIZE: "DATASIZE",
	DATACOPY: "DATACOPY",

	RJUMP: "RJUMP", RJUMPI: "RJUMPI", RJUMPV: "RJUMPV", CALLF: "CALLF",
	RETF: "RETF", JUMPF: "JUMPF", DUPN: "DUPN", SWAPN: "SWAPN",
	EXCHANGE: "EXCHANGE",

	CREATE: "CREATE", CALL: "CALL", CALLCODE: "CALLCODE", RETURN: "RETURN",
	DELEGATECALL: "DELEGATECALL", CREATE2: "CREATE2",
	RETURNDATALOAD: "RETURNDATALOAD", EXTCALL: "EXTCALL",
	EXTDELEGATECALL: "EXTDELEGATECALL", STATICCALL: "STATICCALL",
	EXTSTATICCALL: "EXTSTATICCALL", REVERT: "REVERT", INVALID: "INVALID",
	SELFDESTRUCT: "SELFDESTRUCT",
}

// immediates holds the number of immediate data bytes following each
// opcode inside structured code sections. For RJUMPV the value is the
// 3-byte minimum (count byte plus one two-byte offset); the true length
// depends on the count byte and is computed by the decoder.
var immediates [256]uint8

// terminals marks instructions that end a control-flow path inside a
// structured code section.
var terminals [256]bool

func init() {
	// PUSH1..PUSH32 carry 1..32 data bytes in legacy and structured code.
	for op := PUSH1; op <= PUSH32; op++ {
		immediates[op] = uint8(op) - uint8(PUSH1) + 1
	}
	immediates[DATALOADN] = 2
	immediates[RJUMP] = 2
	immediates[RJUMPI] = 2
	immediates[RJUMPV] = 3
	immediates[CALLF] = 2
	immediates[JUMPF] = 2
	immediates[DUPN] = 1
	immediates[SWAPN] = 1
	immediates[EXCHANGE] = 1

	terminals[STOP] = true
	terminals[RETF] = true
	terminals[JUMPF] = true
	terminals[RETURN] = true
	terminals[REVERT] = true
	terminals[INVALID] = true
}

// Immediates returns the number of immediate bytes an opcode carries
// inside structured code (minimum for RJUMPV).
func (op Opcode) Immediates() int {
	return int(immediates[op])
}

// IsTerminal reports whether the opcode ends a control-flow path in a
// structured code section.
func (op Opcode) IsTerminal() bool {
	return terminals[op]
}

// IsPush reports whether the opcode is PUSH1 through PUSH32.
func (op Opcode) IsPush() bool {
	return op >= PUSH1 && op <= PUSH32
}

// PushBytes returns the data byte count for a push opcode, zero otherwise.
// PUSH0 carries no data bytes.
func (op Opcode) PushBytes() int {
	if op.IsPush() {
		return int(op) - int(PUSH1) + 1
	}
	return 0
}

// Defined reports whether the byte value is an assigned opcode.
func (op Opcode) Defined() bool {
	_, ok := opcodeNames[op]
	return ok
}

// Name returns the mnemonic for an opcode.
func (op Opcode) Name() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("opcode 0x%02X not defined", byte(op))
}

// String implements the Stringer interface.
func (op Opcode) String() string {
	return op.Name()
}
