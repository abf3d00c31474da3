package vm

import (
	"fmt"

	"github.com/holiman/uint256"
)

// ---------------------------------------------------------------------------
// Arithmetic

func opAdd(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x, y := frame.stack.pop(), frame.stack.peek()
	y.Add(&x, y)
	return nil, nil
}

func opSub(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x, y := frame.stack.pop(), frame.stack.peek()
	y.Sub(&x, y)
	return nil, nil
}

func opMul(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x, y := frame.stack.pop(), frame.stack.peek()
	y.Mul(&x, y)
	return nil, nil
}

func opDiv(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x, y := frame.stack.pop(), frame.stack.peek()
	y.Div(&x, y)
	return nil, nil
}

func opSdiv(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x, y := frame.stack.pop(), frame.stack.peek()
	y.SDiv(&x, y)
	return nil, nil
}

func opMod(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x, y := frame.stack.pop(), frame.stack.peek()
	y.Mod(&x, y)
	return nil, nil
}

func opSmod(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x, y := frame.stack.pop(), frame.stack.peek()
	y.SMod(&x, y)
	return nil, nil
}

func opAddmod(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x, y, z := frame.stack.pop(), frame.stack.pop(), frame.stack.peek()
	z.AddMod(&x, &y, z)
	return nil, nil
}

func opMulmod(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x, y, z := frame.stack.pop(), frame.stack.pop(), frame.stack.peek()
	z.MulMod(&x, &y, z)
	return nil, nil
}

func opExp(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	base, exponent := frame.stack.pop(), frame.stack.peek()
	exponent.Exp(&base, exponent)
	return nil, nil
}

func opSignExtend(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	back, num := frame.stack.pop(), frame.stack.peek()
	num.ExtendSign(num, &back)
	return nil, nil
}

// ---------------------------------------------------------------------------
// Comparison and bitwise

func opLt(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x, y := frame.stack.pop(), frame.stack.peek()
	if x.Lt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opGt(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x, y := frame.stack.pop(), frame.stack.peek()
	if x.Gt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opSlt(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x, y := frame.stack.pop(), frame.stack.peek()
	if x.Slt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opSgt(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x, y := frame.stack.pop(), frame.stack.peek()
	if x.Sgt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opEq(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x, y := frame.stack.pop(), frame.stack.peek()
	if x.Eq(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opIszero(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x := frame.stack.peek()
	if x.IsZero() {
		x.SetOne()
	} else {
		x.Clear()
	}
	return nil, nil
}

func opAnd(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x, y := frame.stack.pop(), frame.stack.peek()
	y.And(&x, y)
	return nil, nil
}

func opOr(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x, y := frame.stack.pop(), frame.stack.peek()
	y.Or(&x, y)
	return nil, nil
}

func opXor(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x, y := frame.stack.pop(), frame.stack.peek()
	y.Xor(&x, y)
	return nil, nil
}

func opNot(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x := frame.stack.peek()
	x.Not(x)
	return nil, nil
}

func opByte(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	th, val := frame.stack.pop(), frame.stack.peek()
	val.Byte(&th)
	return nil, nil
}

func opSHL(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	shift, value := frame.stack.pop(), frame.stack.peek()
	if shift.LtUint64(256) {
		value.Lsh(value, uint(shift.Uint64()))
	} else {
		value.Clear()
	}
	return nil, nil
}

func opSHR(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	shift, value := frame.stack.pop(), frame.stack.peek()
	if shift.LtUint64(256) {
		value.Rsh(value, uint(shift.Uint64()))
	} else {
		value.Clear()
	}
	return nil, nil
}

func opSAR(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	shift, value := frame.stack.pop(), frame.stack.peek()
	if shift.GtUint64(256) {
		if value.Sign() >= 0 {
			value.Clear()
		} else {
			value.SetAllOne()
		}
		return nil, nil
	}
	value.SRsh(value, uint(shift.Uint64()))
	return nil, nil
}

// ---------------------------------------------------------------------------
// Hashing

func opKeccak256(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	offset, size := frame.stack.pop(), frame.stack.peek()
	data := frame.memory.GetPtr(offset.Uint64(), size.Uint64())
	hash := Keccak256(data)
	size.SetBytes32(hash[:])
	return nil, nil
}

// ---------------------------------------------------------------------------
// Environment

func opAddress(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.stack.push(new(uint256.Int).SetBytes20(frame.address[:]))
	return nil, nil
}

func opBalance(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	slot := frame.stack.peek()
	addr := AddressFromWord(slot)
	slot.Set(evm.host.GetBalance(addr))
	return nil, nil
}

func opOrigin(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.stack.push(new(uint256.Int).SetBytes20(evm.tx.Origin[:]))
	return nil, nil
}

func opCaller(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.stack.push(new(uint256.Int).SetBytes20(frame.caller[:]))
	return nil, nil
}

func opCallValue(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.stack.push(frame.value)
	return nil, nil
}

func opCallDataLoad(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x := frame.stack.peek()
	if offset, overflow := x.Uint64WithOverflow(); !overflow {
		data := getData(frame.input, offset, 32)
		x.SetBytes(data)
	} else {
		x.Clear()
	}
	return nil, nil
}

func opCallDataSize(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.stack.push(new(uint256.Int).SetUint64(uint64(len(frame.input))))
	return nil, nil
}

func opCallDataCopy(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	var (
		memOffset  = frame.stack.pop()
		dataOffset = frame.stack.pop()
		length     = frame.stack.pop()
	)
	dataOffset64, overflow := dataOffset.Uint64WithOverflow()
	if overflow {
		dataOffset64 = ^uint64(0)
	}
	// Offsets were bounds-checked by the gas calculation.
	memOffset64 := memOffset.Uint64()
	length64 := length.Uint64()
	frame.memory.Set(memOffset64, length64, getData(frame.input, dataOffset64, length64))
	return nil, nil
}

func opCodeSize(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.stack.push(new(uint256.Int).SetUint64(uint64(frame.code.Len())))
	return nil, nil
}

func opCodeCopy(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	var (
		memOffset  = frame.stack.pop()
		codeOffset = frame.stack.pop()
		length     = frame.stack.pop()
	)
	uint64CodeOffset, overflow := codeOffset.Uint64WithOverflow()
	if overflow {
		uint64CodeOffset = ^uint64(0)
	}
	codeCopy := getData(frame.code.Raw(), uint64CodeOffset, length.Uint64())
	frame.memory.Set(memOffset.Uint64(), length.Uint64(), codeCopy)
	return nil, nil
}

func opGasprice(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.stack.push(evm.tx.GasPrice)
	return nil, nil
}

// observableCode returns the code of addr as seen by the EXTCODE* family:
// structured containers expose only their two magic bytes once the fork
// enables them.
func observableCode(evm *EVM, addr Address) []byte {
	code := evm.host.GetCode(addr)
	if evm.rules.IsOsaka && HasEOFMagic(code) {
		return []byte{eofFormatByte, eofMagicByte}
	}
	return code
}

func opExtCodeSize(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	slot := frame.stack.peek()
	addr := AddressFromWord(slot)
	slot.SetUint64(uint64(len(observableCode(evm, addr))))
	return nil, nil
}

func opExtCodeCopy(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	var (
		stack      = frame.stack
		a          = stack.pop()
		memOffset  = stack.pop()
		codeOffset = stack.pop()
		length     = stack.pop()
	)
	uint64CodeOffset, overflow := codeOffset.Uint64WithOverflow()
	if overflow {
		uint64CodeOffset = ^uint64(0)
	}
	addr := AddressFromWord(&a)
	codeCopy := getData(observableCode(evm, addr), uint64CodeOffset, length.Uint64())
	frame.memory.Set(memOffset.Uint64(), length.Uint64(), codeCopy)
	return nil, nil
}

// eofMagicHash is the code hash EXTCODEHASH reports for structured
// containers, which are observable only by their magic.
var eofMagicHash = Keccak256([]byte{eofFormatByte, eofMagicByte})

func opExtCodeHash(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	slot := frame.stack.peek()
	addr := AddressFromWord(slot)
	if !evm.host.AccountExists(addr) {
		slot.Clear()
		return nil, nil
	}
	if evm.rules.IsOsaka && HasEOFMagic(evm.host.GetCode(addr)) {
		slot.SetBytes32(eofMagicHash[:])
		return nil, nil
	}
	hash := evm.host.GetCodeHash(addr)
	slot.SetBytes32(hash[:])
	return nil, nil
}

func opReturnDataSize(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.stack.push(new(uint256.Int).SetUint64(uint64(len(frame.returnData))))
	return nil, nil
}

func opReturnDataCopy(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	var (
		memOffset  = frame.stack.pop()
		dataOffset = frame.stack.pop()
		length     = frame.stack.pop()
	)
	offset64, overflow := dataOffset.Uint64WithOverflow()
	if overflow {
		return nil, ErrReturnDataOutOfBounds
	}
	var end = dataOffset
	end.Add(&dataOffset, &length)
	end64, overflow := end.Uint64WithOverflow()
	if overflow || uint64(len(frame.returnData)) < end64 {
		return nil, ErrReturnDataOutOfBounds
	}
	frame.memory.Set(memOffset.Uint64(), length.Uint64(), frame.returnData[offset64:end64])
	return nil, nil
}

// ---------------------------------------------------------------------------
// Block context

func opBlockhash(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	num := frame.stack.peek()
	num64, overflow := num.Uint64WithOverflow()
	if overflow {
		num.Clear()
		return nil, nil
	}
	var lower uint64
	upper := evm.block.BlockNumber
	if upper >= 257 {
		lower = upper - 256
	}
	if num64 >= lower && num64 < upper {
		hash := evm.host.GetBlockHash(num64)
		num.SetBytes32(hash[:])
	} else {
		num.Clear()
	}
	return nil, nil
}

func opCoinbase(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.stack.push(new(uint256.Int).SetBytes20(evm.block.Coinbase[:]))
	return nil, nil
}

func opTimestamp(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.stack.push(new(uint256.Int).SetUint64(evm.block.Time))
	return nil, nil
}

func opNumber(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.stack.push(new(uint256.Int).SetUint64(evm.block.BlockNumber))
	return nil, nil
}

func opPrevRandao(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.stack.push(new(uint256.Int).SetBytes32(evm.block.PrevRandao[:]))
	return nil, nil
}

func opGasLimit(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.stack.push(new(uint256.Int).SetUint64(evm.block.GasLimit))
	return nil, nil
}

func opChainID(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.stack.push(evm.block.ChainID)
	return nil, nil
}

func opSelfBalance(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.stack.push(evm.host.GetBalance(frame.address))
	return nil, nil
}

func opBaseFee(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.stack.push(evm.block.BaseFee)
	return nil, nil
}

func opBlobHash(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	index := frame.stack.peek()
	if index.LtUint64(uint64(len(evm.tx.BlobHashes))) {
		blobHash := evm.tx.BlobHashes[index.Uint64()]
		index.SetBytes32(blobHash[:])
	} else {
		index.Clear()
	}
	return nil, nil
}

func opBlobBaseFee(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.stack.push(evm.block.BlobBaseFee)
	return nil, nil
}

// ---------------------------------------------------------------------------
// Stack, memory and storage

func opPop(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.stack.pop()
	return nil, nil
}

func opMload(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	v := frame.stack.peek()
	offset := v.Uint64()
	v.SetBytes(frame.memory.GetPtr(offset, 32))
	return nil, nil
}

func opMstore(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	mStart, val := frame.stack.pop(), frame.stack.pop()
	frame.memory.Set32(mStart.Uint64(), &val)
	return nil, nil
}

func opMstore8(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	off, val := frame.stack.pop(), frame.stack.pop()
	frame.memory.Set(off.Uint64(), 1, []byte{byte(val.Uint64())})
	return nil, nil
}

func opMcopy(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	var (
		dst    = frame.stack.pop()
		src    = frame.stack.pop()
		length = frame.stack.pop()
	)
	// Lengths were bounds-checked by the gas calculation.
	frame.memory.Copy(dst.Uint64(), src.Uint64(), length.Uint64())
	return nil, nil
}

func opSload(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	loc := frame.stack.peek()
	key := Hash(loc.Bytes32())
	value := evm.host.GetStorage(frame.address, key)
	loc.SetBytes32(value[:])
	return nil, nil
}

// opSstore charges its own gas: the price and refund depend on the
// transition class the write produces, which the host reports as part of
// performing it. An aborted frame rolls the write back via its snapshot.
func opSstore(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	if frame.readOnly {
		return nil, ErrWriteProtection
	}
	gp := evm.gp
	if evm.rules.IsIstanbul && frame.gas.Remaining <= gp.SstoreSentryGas {
		return nil, fmt.Errorf("%w: sstore reentrancy sentry", ErrOutOfGas)
	}
	loc, val := frame.stack.pop(), frame.stack.pop()
	key := Hash(loc.Bytes32())
	value := Hash(val.Bytes32())

	var cost uint64
	if evm.rules.IsBerlin && evm.host.AccessSlot(frame.address, key) == ColdAccess {
		cost += gp.ColdSloadCost
	}
	status := evm.host.SetStorage(frame.address, key, value)
	if evm.rules.IsIstanbul {
		cost += sstoreGasNetMetered(evm.rules, gp, &frame.gas, status)
	} else {
		cost += sstoreGasLegacy(gp, &frame.gas, status)
	}
	if !frame.UseGas(cost) {
		return nil, ErrOutOfGas
	}
	return nil, nil
}

func opTload(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	loc := frame.stack.peek()
	key := Hash(loc.Bytes32())
	value := evm.host.GetTransientStorage(frame.address, key)
	loc.SetBytes32(value[:])
	return nil, nil
}

func opTstore(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	if frame.readOnly {
		return nil, ErrWriteProtection
	}
	loc, val := frame.stack.pop(), frame.stack.pop()
	evm.host.SetTransientStorage(frame.address, Hash(loc.Bytes32()), Hash(val.Bytes32()))
	return nil, nil
}

// ---------------------------------------------------------------------------
// Control flow (legacy dynamic jumps)

func opJump(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	pos := frame.stack.pop()
	if !frame.code.ValidJumpdest(&pos) {
		return nil, ErrInvalidJump
	}
	*pc = pos.Uint64() - 1 // the loop increment lands on the target
	return nil, nil
}

func opJumpi(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	pos, cond := frame.stack.pop(), frame.stack.pop()
	if !cond.IsZero() {
		if !frame.code.ValidJumpdest(&pos) {
			return nil, ErrInvalidJump
		}
		*pc = pos.Uint64() - 1
	}
	return nil, nil
}

func opJumpdest(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	return nil, nil
}

func opPc(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.stack.push(new(uint256.Int).SetUint64(*pc))
	return nil, nil
}

func opMsize(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.stack.push(new(uint256.Int).SetUint64(uint64(frame.memory.Len())))
	return nil, nil
}

func opGas(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.stack.push(new(uint256.Int).SetUint64(frame.gas.Remaining))
	return nil, nil
}

// ---------------------------------------------------------------------------
// Push, dup, swap

func opPush0(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.stack.push(new(uint256.Int))
	return nil, nil
}

// opPush1 is a specialized push for the most common immediate size.
func opPush1(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	var (
		codeLen = uint64(len(frame.sectionCode))
		integer = new(uint256.Int)
	)
	*pc += 1
	if *pc < codeLen {
		frame.stack.push(integer.SetUint64(uint64(frame.sectionCode[*pc])))
	} else {
		frame.stack.push(integer.Clear())
	}
	return nil, nil
}

func makePush(size uint64, pushByteSize int) executionFunc {
	return func(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
		var (
			codeLen = len(frame.sectionCode)
			start   = min(codeLen, int(*pc+1))
			end     = min(codeLen, start+pushByteSize)
		)
		a := new(uint256.Int).SetBytes(frame.sectionCode[start:end])

		// Missing bytes: pushed as zero (right-padded).
		if missing := pushByteSize - (end - start); missing > 0 {
			a.Lsh(a, uint(8*missing))
		}
		frame.stack.push(a)
		*pc += size
		return nil, nil
	}
}

func makeDup(size int) executionFunc {
	return func(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
		frame.stack.dup(size)
		return nil, nil
	}
}

func makeSwap(size int) executionFunc {
	return func(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
		frame.stack.swap(size)
		return nil, nil
	}
}

// ---------------------------------------------------------------------------
// Logging

func makeLog(size int) executionFunc {
	return func(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
		if frame.readOnly {
			return nil, ErrWriteProtection
		}
		topics := make([]Hash, size)
		stack := frame.stack
		mStart, mSize := stack.pop(), stack.pop()
		for i := 0; i < size; i++ {
			addr := stack.pop()
			topics[i] = addr.Bytes32()
		}
		d := frame.memory.GetCopy(mStart.Uint64(), mSize.Uint64())
		evm.host.EmitLog(Log{Address: frame.address, Topics: topics, Data: d})
		return nil, nil
	}
}

// ---------------------------------------------------------------------------
// Calls and creates

// Call instructions pop their operands, deposit a request for the
// coordinator and yield. The coordinator pushes the result word and
// writes return data before resuming the frame past the instruction.

func opCall(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	stack := frame.stack
	// The forwarded amount was fixed by the gas table; the stack copy is
	// only popped.
	stack.pop()
	addr, value := stack.pop(), stack.pop()
	inOffset, inSize := stack.pop(), stack.pop()
	retOffset, retSize := stack.pop(), stack.pop()

	if frame.readOnly && !value.IsZero() {
		return nil, ErrWriteProtection
	}
	gas := evm.callGasTemp
	if !value.IsZero() {
		gas += evm.gp.CallStipend
	}
	frame.pendingCall = &callRequest{
		kind:      kindCall,
		gas:       gas,
		target:    AddressFromWord(&addr),
		value:     &value,
		input:     frame.memory.GetPtr(inOffset.Uint64(), inSize.Uint64()),
		retOffset: retOffset.Uint64(),
		retSize:   retSize.Uint64(),
	}
	return nil, errYieldToken
}

func opCallCode(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	stack := frame.stack
	stack.pop()
	addr, value := stack.pop(), stack.pop()
	inOffset, inSize := stack.pop(), stack.pop()
	retOffset, retSize := stack.pop(), stack.pop()

	gas := evm.callGasTemp
	if !value.IsZero() {
		gas += evm.gp.CallStipend
	}
	frame.pendingCall = &callRequest{
		kind:      kindCallCode,
		gas:       gas,
		target:    AddressFromWord(&addr),
		value:     &value,
		input:     frame.memory.GetPtr(inOffset.Uint64(), inSize.Uint64()),
		retOffset: retOffset.Uint64(),
		retSize:   retSize.Uint64(),
	}
	return nil, errYieldToken
}

func opDelegateCall(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	stack := frame.stack
	stack.pop()
	addr := stack.pop()
	inOffset, inSize := stack.pop(), stack.pop()
	retOffset, retSize := stack.pop(), stack.pop()

	frame.pendingCall = &callRequest{
		kind:      kindDelegateCall,
		gas:       evm.callGasTemp,
		target:    AddressFromWord(&addr),
		input:     frame.memory.GetPtr(inOffset.Uint64(), inSize.Uint64()),
		retOffset: retOffset.Uint64(),
		retSize:   retSize.Uint64(),
	}
	return nil, errYieldToken
}

func opStaticCall(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	stack := frame.stack
	stack.pop()
	addr := stack.pop()
	inOffset, inSize := stack.pop(), stack.pop()
	retOffset, retSize := stack.pop(), stack.pop()

	frame.pendingCall = &callRequest{
		kind:      kindStaticCall,
		gas:       evm.callGasTemp,
		target:    AddressFromWord(&addr),
		input:     frame.memory.GetPtr(inOffset.Uint64(), inSize.Uint64()),
		retOffset: retOffset.Uint64(),
		retSize:   retSize.Uint64(),
	}
	return nil, errYieldToken
}

func opCreate(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	if frame.readOnly {
		return nil, ErrWriteProtection
	}
	var (
		value  = frame.stack.pop()
		offset = frame.stack.pop()
		size   = frame.stack.pop()
	)
	gas := frame.gas.Remaining
	if evm.rules.IsEIP150 {
		gas -= gas / 64
	}
	frame.UseGas(gas)

	frame.pendingCall = &callRequest{
		kind:  kindCreate,
		gas:   gas,
		value: &value,
		input: frame.memory.GetCopy(offset.Uint64(), size.Uint64()),
	}
	return nil, errYieldToken
}

func opCreate2(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	if frame.readOnly {
		return nil, ErrWriteProtection
	}
	var (
		value  = frame.stack.pop()
		offset = frame.stack.pop()
		size   = frame.stack.pop()
		salt   = frame.stack.pop()
	)
	// CREATE2 always applies the EIP-150 rule.
	gas := frame.gas.Remaining
	gas -= gas / 64
	frame.UseGas(gas)

	frame.pendingCall = &callRequest{
		kind:  kindCreate2,
		gas:   gas,
		value: &value,
		salt:  &salt,
		input: frame.memory.GetCopy(offset.Uint64(), size.Uint64()),
	}
	return nil, errYieldToken
}

// ---------------------------------------------------------------------------
// Halting

func opStop(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	return nil, errStopToken
}

func opReturn(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	offset, size := frame.stack.pop(), frame.stack.pop()
	ret := frame.memory.GetCopy(offset.Uint64(), size.Uint64())
	return ret, errStopToken
}

func opRevert(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	offset, size := frame.stack.pop(), frame.stack.pop()
	ret := frame.memory.GetCopy(offset.Uint64(), size.Uint64())
	return ret, ErrExecutionReverted
}

func opSelfdestruct(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	if frame.readOnly {
		return nil, ErrWriteProtection
	}
	beneficiary := frame.stack.pop()
	first := evm.host.SelfDestruct(frame.address, AddressFromWord(&beneficiary))
	if first && !evm.rules.IsLondon {
		frame.gas.AddRefund(evm.gp.SelfdestructRefundGas)
	}
	return nil, errStopToken
}

func opInvalid(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	return nil, fmt.Errorf("%w: INVALID", ErrInvalidOpcode)
}

func opUndefined(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	return nil, fmt.Errorf("%w: 0x%02x", ErrInvalidOpcode, byte(frame.opAt(*pc)))
}
