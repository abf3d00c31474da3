// Package vm implements the Ember virtual machine, a deterministic
// gas-metered execution engine for Ethereum-style bytecode.
//
// This package contains:
//   - Opcode definitions and per-opcode metadata
//   - Legacy bytecode analysis (JUMPDEST bitmap)
//   - Structured container (EOF) parsing and static validation
//   - Operand stack and word-granular memory
//   - Fork-selected jump tables and instruction implementations
//   - The interpreter loop and the call/frame coordinator
//   - The host capability interface consumed by state-touching opcodes
package vm
