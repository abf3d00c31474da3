package vm

import (
	"encoding/binary"

	"github.com/holiman/uint256"

	"github.com/chazu/ember/params"
)

// Instructions reserved for structured containers. They rely on the
// guarantees of container validation: immediates are in bounds, jump
// targets land on instruction boundaries and section indices exist.

// ---------------------------------------------------------------------------
// Static relative jumps

func opRjump(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	offset := int16(binary.BigEndian.Uint16(frame.sectionCode[*pc+1:]))
	// The loop increment lands on the target.
	*pc = uint64(int64(*pc+3)+int64(offset)) - 1
	return nil, nil
}

func opRjumpi(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	cond := frame.stack.pop()
	if cond.IsZero() {
		*pc += 2
		return nil, nil
	}
	return opRjump(pc, evm, frame)
}

func opRjumpv(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	var (
		code     = frame.sectionCode
		count    = uint64(code[*pc+1]) + 1
		selector = frame.stack.pop()
		base     = *pc + 2 + 2*count
	)
	if idx, overflow := selector.Uint64WithOverflow(); !overflow && idx < count {
		offset := int16(binary.BigEndian.Uint16(code[*pc+2+2*idx:]))
		*pc = uint64(int64(base)+int64(offset)) - 1
	} else {
		// Out-of-range selectors fall through to the next instruction.
		*pc = base - 1
	}
	return nil, nil
}

// ---------------------------------------------------------------------------
// Section calls

func opCallf(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	var (
		idx = binary.BigEndian.Uint16(frame.sectionCode[*pc+1:])
		typ = frame.types()[idx]
	)
	if frame.stack.Len()+int(typ.MaxStackHeight)-int(typ.Inputs) > StackLimit {
		return nil, ErrStackOverflow
	}
	if len(frame.returnStack) >= returnStackLimit {
		return nil, ErrReturnStackExceeded
	}
	frame.returnStack = append(frame.returnStack, returnFrame{
		section: frame.section,
		pc:      *pc + 3,
	})
	frame.setSection(int(idx))
	*pc = ^uint64(0) // wraps to 0, the section entry
	return nil, nil
}

func opRetf(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	last := len(frame.returnStack) - 1
	ret := frame.returnStack[last]
	frame.returnStack = frame.returnStack[:last]
	frame.setSection(ret.section)
	*pc = ret.pc - 1
	return nil, nil
}

func opJumpf(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	var (
		idx = binary.BigEndian.Uint16(frame.sectionCode[*pc+1:])
		typ = frame.types()[idx]
	)
	if frame.stack.Len()+int(typ.MaxStackHeight)-int(typ.Inputs) > StackLimit {
		return nil, ErrStackOverflow
	}
	frame.setSection(int(idx))
	*pc = ^uint64(0)
	return nil, nil
}

// ---------------------------------------------------------------------------
// Deep stack access

func opDupn(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	n := int(frame.sectionCode[*pc+1]) + 1
	frame.stack.dup(n)
	*pc += 1
	return nil, nil
}

func opSwapn(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	n := int(frame.sectionCode[*pc+1]) + 1
	frame.stack.swap(n)
	*pc += 1
	return nil, nil
}

func opExchange(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	imm := frame.sectionCode[*pc+1]
	n, m := int(imm>>4)+1, int(imm&0x0f)+1
	frame.stack.exchange(n, n+m)
	*pc += 1
	return nil, nil
}

// ---------------------------------------------------------------------------
// Data section access

func opDataLoad(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	offset := frame.stack.peek()
	offset64, overflow := offset.Uint64WithOverflow()
	if overflow {
		offset64 = ^uint64(0)
	}
	// Reads past the data section are zero padded.
	offset.SetBytes(getData(frame.dataSection(), offset64, 32))
	return nil, nil
}

func opDataLoadN(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	// The immediate is validated against the data section size.
	offset := uint64(binary.BigEndian.Uint16(frame.sectionCode[*pc+1:]))
	data := frame.dataSection()
	frame.stack.push(new(uint256.Int).SetBytes32(data[offset : offset+32]))
	*pc += 2
	return nil, nil
}

func opDataSize(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.stack.push(new(uint256.Int).SetUint64(uint64(len(frame.dataSection()))))
	return nil, nil
}

func opDataCopy(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	var (
		memOffset  = frame.stack.pop()
		dataOffset = frame.stack.pop()
		length     = frame.stack.pop()
	)
	offset64, overflow := dataOffset.Uint64WithOverflow()
	if overflow {
		offset64 = ^uint64(0)
	}
	data := getData(frame.dataSection(), offset64, length.Uint64())
	frame.memory.Set(memOffset.Uint64(), length.Uint64(), data)
	return nil, nil
}

func opReturnDataLoad(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	offset := frame.stack.peek()
	offset64, overflow := offset.Uint64WithOverflow()
	if overflow {
		offset64 = ^uint64(0)
	}
	// Unlike RETURNDATACOPY this zero pads instead of faulting.
	offset.SetBytes(getData(frame.returnData, offset64, 32))
	return nil, nil
}

// ---------------------------------------------------------------------------
// Extended calls

// extTarget rejects address words that do not fit the 160-bit address
// space. Such calls are a fatal error, reserved for a future address
// space extension.
func extTarget(word *uint256.Int) (Address, error) {
	if word.ByteLen() > 20 {
		return Address{}, ErrInvalidExtcallTarget
	}
	return AddressFromWord(word), nil
}

// extForwardGas splits the remaining gas per the retained-share rule:
// the caller keeps max(remaining/64, MinRetainedGas) for itself.
func extForwardGas(gp *params.GasParams, remaining uint64) uint64 {
	retained := remaining / 64
	if retained < gp.MinRetainedGas {
		retained = gp.MinRetainedGas
	}
	if retained >= remaining {
		return 0
	}
	return remaining - retained
}

// extFail settles an extended call without running it: the status word 1
// is pushed and no forwarded gas is charged.
func extFail(frame *Frame) ([]byte, error) {
	frame.returnData = nil
	frame.stack.push(new(uint256.Int).SetOne())
	return nil, nil
}

func opExtCall(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	stack := frame.stack
	addrWord := stack.pop()
	inOffset, inSize := stack.pop(), stack.pop()
	value := stack.pop()

	target, err := extTarget(&addrWord)
	if err != nil {
		return nil, err
	}
	if frame.readOnly && !value.IsZero() {
		return nil, ErrWriteProtection
	}
	gas := extForwardGas(evm.gp, frame.gas.Remaining)
	if gas < evm.gp.MinCalleeGas ||
		frame.depth >= int(params.CallCreateDepth) ||
		(!value.IsZero() && evm.host.GetBalance(frame.address).Lt(&value)) {
		return extFail(frame)
	}
	frame.UseGas(gas)
	frame.pendingCall = &callRequest{
		kind:   kindExtCall,
		gas:    gas,
		target: target,
		value:  &value,
		input:  frame.memory.GetPtr(inOffset.Uint64(), inSize.Uint64()),
	}
	return nil, errYieldToken
}

func opExtDelegateCall(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	stack := frame.stack
	addrWord := stack.pop()
	inOffset, inSize := stack.pop(), stack.pop()

	target, err := extTarget(&addrWord)
	if err != nil {
		return nil, err
	}
	gas := extForwardGas(evm.gp, frame.gas.Remaining)
	if gas < evm.gp.MinCalleeGas || frame.depth >= int(params.CallCreateDepth) {
		return extFail(frame)
	}
	// Delegating to anything but a structured container would run legacy
	// code under container rules, so it fails without executing.
	if !HasEOFMagic(evm.host.GetCode(target)) {
		return extFail(frame)
	}
	frame.UseGas(gas)
	frame.pendingCall = &callRequest{
		kind:   kindExtDelegateCall,
		gas:    gas,
		target: target,
		input:  frame.memory.GetPtr(inOffset.Uint64(), inSize.Uint64()),
	}
	return nil, errYieldToken
}

func opExtStaticCall(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	stack := frame.stack
	addrWord := stack.pop()
	inOffset, inSize := stack.pop(), stack.pop()

	target, err := extTarget(&addrWord)
	if err != nil {
		return nil, err
	}
	gas := extForwardGas(evm.gp, frame.gas.Remaining)
	if gas < evm.gp.MinCalleeGas || frame.depth >= int(params.CallCreateDepth) {
		return extFail(frame)
	}
	frame.UseGas(gas)
	frame.pendingCall = &callRequest{
		kind:   kindExtStaticCall,
		gas:    gas,
		target: target,
		input:  frame.memory.GetPtr(inOffset.Uint64(), inSize.Uint64()),
	}
	return nil, errYieldToken
}
