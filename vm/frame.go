package vm

import "github.com/holiman/uint256"

// ---------------------------------------------------------------------------
// Execution frames

// callKind distinguishes the operations that spawn nested frames.
type callKind int

const (
	kindCall callKind = iota
	kindCallCode
	kindDelegateCall
	kindStaticCall
	kindCreate
	kindCreate2
	kindExtCall
	kindExtDelegateCall
	kindExtStaticCall
)

var callKindNames = map[callKind]string{
	kindCall:            "CALL",
	kindCallCode:        "CALLCODE",
	kindDelegateCall:    "DELEGATECALL",
	kindStaticCall:      "STATICCALL",
	kindCreate:          "CREATE",
	kindCreate2:         "CREATE2",
	kindExtCall:         "EXTCALL",
	kindExtDelegateCall: "EXTDELEGATECALL",
	kindExtStaticCall:   "EXTSTATICCALL",
}

func (k callKind) String() string {
	if name, ok := callKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// isExt reports whether the kind follows the frameless-call result
// convention: a status word instead of a boolean, no caller-supplied
// output region.
func (k callKind) isExt() bool {
	return k == kindExtCall || k == kindExtDelegateCall || k == kindExtStaticCall
}

// isCreate reports whether the kind deploys code.
func (k callKind) isCreate() bool {
	return k == kindCreate || k == kindCreate2
}

// callRequest is a nested call deposited by a call-family instruction and
// consumed by the coordinator. The forwarded gas has already been taken
// from the parent frame when the request is deposited.
type callRequest struct {
	kind      callKind
	gas       uint64
	target    Address
	value     *uint256.Int
	input     []byte
	salt      *uint256.Int
	retOffset uint64
	retSize   uint64
}

// returnStackLimit caps the section return stack of one frame.
const returnStackLimit = 1024

// returnFrame is one entry of the section return stack used by CALLF and
// RETF inside a structured frame.
type returnFrame struct {
	section int
	pc      uint64
}

// Frame is one unit of execution: an account context with its code,
// operand stack, memory and gas budget. Frames are created and owned by
// the coordinator; the interpreter mutates exactly one frame at a time.
type Frame struct {
	depth int

	address Address
	caller  Address
	value   *uint256.Int
	input   []byte

	code        *Code
	section     int
	sectionCode []byte
	pc          uint64

	stack  *Stack
	memory *Memory
	gas    Gas

	returnStack []returnFrame
	returnData  []byte

	readOnly bool
	isCreate bool

	// snapshot is the host state mark taken when the frame was entered;
	// the coordinator reverts to it on Revert and fatal halts.
	snapshot int

	// pendingCall holds the request a call instruction deposited before
	// yielding. The coordinator consumes it when the interpreter returns.
	pendingCall *callRequest
}

// newFrame builds a frame ready to run at pc 0 of the entry section.
func newFrame(depth int, address, caller Address, value *uint256.Int, input []byte, code *Code, gas uint64, readOnly bool) *Frame {
	f := &Frame{
		depth:    depth,
		address:  address,
		caller:   caller,
		value:    value,
		input:    input,
		code:     code,
		stack:    newstack(),
		memory:   NewMemory(),
		gas:      NewGas(gas),
		readOnly: readOnly,
	}
	if code.IsEOF() {
		f.sectionCode = code.Container().Code[0]
	} else {
		f.sectionCode = code.Raw()
	}
	return f
}

// release returns pooled resources. The frame must not be used after.
func (f *Frame) release() {
	if f.stack != nil {
		returnStack(f.stack)
		f.stack = nil
	}
	if f.memory != nil {
		f.memory.Free()
		f.memory = nil
	}
}

// UseGas consumes amount from the frame budget, reporting false and
// leaving the budget unchanged on shortfall.
func (f *Frame) UseGas(amount uint64) bool {
	return f.gas.Use(amount)
}

// RefundGas credits unspent gas back to the budget, typically the
// leftover of a completed child call.
func (f *Frame) RefundGas(amount uint64) {
	f.gas.Remaining += amount
}

// opAt returns the opcode at pc of the active code section. Past the end
// it reads as STOP: legacy code may fall off its final instruction, which
// halts normally. Structured code never runs past a terminal.
func (f *Frame) opAt(pc uint64) Opcode {
	if pc < uint64(len(f.sectionCode)) {
		return Opcode(f.sectionCode[pc])
	}
	return STOP
}

// setSection activates a structured code section.
func (f *Frame) setSection(s int) {
	f.section = s
	f.sectionCode = f.code.Container().Code[s]
}

// types returns the structured container's section signatures.
func (f *Frame) types() []FunctionType {
	return f.code.Container().Types
}

// dataSection returns the structured container's data section.
func (f *Frame) dataSection() []byte {
	return f.code.Container().Data
}
