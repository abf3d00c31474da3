package vm

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// Fatal execution errors
// ---------------------------------------------------------------------------

// Fatal errors abort the current frame and forfeit its remaining gas.
// The coordinator converts them into a failed-call status for the parent
// frame; only the topmost frame surfaces them to the caller verbatim.
var (
	ErrOutOfGas              = errors.New("out of gas")
	ErrStackUnderflow        = errors.New("stack underflow")
	ErrStackOverflow         = errors.New("stack limit reached 1024")
	ErrInvalidOpcode         = errors.New("invalid opcode")
	ErrInvalidJump           = errors.New("invalid jump destination")
	ErrCallDepthExceeded     = errors.New("max call depth exceeded")
	ErrInvalidMemoryAccess   = errors.New("invalid memory access")
	ErrGasUintOverflow       = errors.New("gas uint64 overflow")
	ErrReturnDataOutOfBounds = errors.New("return data out of bounds")
	ErrWriteProtection       = errors.New("write protection")
	ErrReturnStackExceeded   = errors.New("return stack limit reached")
	ErrInvalidExtcallTarget  = errors.New("extcall target address out of range")
)

// Errors raised by the call coordinator before a child frame exists.
var (
	ErrInsufficientBalance      = errors.New("insufficient balance for transfer")
	ErrContractAddressCollision = errors.New("contract address collision")
	ErrNonceUintOverflow        = errors.New("nonce uint64 overflow")
	ErrMaxCodeSizeExceeded      = errors.New("max code size exceeded")
	ErrMaxInitCodeSizeExceeded  = errors.New("max initcode size exceeded")
	ErrInvalidDeployCode        = errors.New("invalid code: must not begin with 0xef")
	ErrCodeStoreOutOfGas        = errors.New("contract creation code storage out of gas")
)

// ErrExecutionReverted is a halt outcome, not a fatal error: the frame
// stops, its state changes are rolled back, and its leftover gas is
// credited back to the caller.
var ErrExecutionReverted = errors.New("execution reverted")

// errStopToken is an internal loop-exit signal for STOP and RETURN.
// It never escapes the interpreter.
var errStopToken = errors.New("stop token")

// errYieldToken signals that the current instruction deposited a nested
// call request for the coordinator. It never escapes the interpreter.
var errYieldToken = errors.New("yield token")

// ---------------------------------------------------------------------------
// Container validation exceptions
// ---------------------------------------------------------------------------

// Structural exceptions, raised while parsing the container layout.
var (
	ErrInvalidMagic         = errors.New("invalid magic")
	ErrInvalidVersion       = errors.New("invalid version")
	ErrInvalidSectionHeader = errors.New("invalid section header")
	ErrInvalidSectionCount  = errors.New("invalid section count")
	ErrInvalidTypeEntry     = errors.New("invalid type entry")
	ErrTruncatedContainer   = errors.New("truncated container")
	ErrTrailingBytes        = errors.New("trailing bytes after container")
)

// Code validation exceptions, raised by the static control-flow analysis.
var (
	ErrUndefinedInstruction    = errors.New("undefined instruction")
	ErrTruncatedImmediate      = errors.New("truncated immediate")
	ErrUnreachableCode         = errors.New("unreachable code")
	ErrStackHeightUnderflow    = errors.New("stack height underflow")
	ErrStackHeightOverflow     = errors.New("stack height overflow")
	ErrStackHeightMismatch     = errors.New("stack height mismatch")
	ErrInvalidMaxStackHeight   = errors.New("invalid max stack height")
	ErrInvalidJumpTarget       = errors.New("invalid jump target")
	ErrMissingTerminal         = errors.New("missing terminal instruction")
	ErrInvalidNonReturningFlag = errors.New("invalid non-returning flag")
	ErrInvalidSectionArgument  = errors.New("invalid section argument")
	ErrCallfToNonReturning     = errors.New("callf to non-returning section")
	ErrTypeMismatch            = errors.New("call type mismatch")
)

// ValidationError reports the first exception found while validating a
// structured container, with the position it was detected at.
type ValidationError struct {
	err     error
	section int
	offset  int
}

func validationErr(err error, section, offset int) *ValidationError {
	return &ValidationError{err: err, section: section, offset: offset}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("section %d offset %d: %v", e.section, e.offset, e.err)
}

// Unwrap exposes the exception sentinel for errors.Is dispatch.
func (e *ValidationError) Unwrap() error {
	return e.err
}

// Section returns the code section the exception was detected in, or -1
// for structural exceptions found before section bodies exist.
func (e *ValidationError) Section() int {
	return e.section
}

// Offset returns the byte offset within the section (or container, for
// structural exceptions) at which the exception was detected.
func (e *ValidationError) Offset() int {
	return e.offset
}
