package vm

import (
	"fmt"

	"github.com/chazu/ember/params"
)

type (
	executionFunc  func(pc *uint64, evm *EVM, frame *Frame) ([]byte, error)
	gasFunc        func(evm *EVM, frame *Frame, memorySize uint64) (uint64, error)
	memorySizeFunc func(stack *Stack) (size uint64, overflow bool)
)

// operation is one dispatch table entry.
type operation struct {
	// execute runs the instruction.
	execute executionFunc
	// constantGas is charged before execute, unconditionally.
	constantGas uint64
	// dynamicGas prices the operand-dependent part, charged after
	// constantGas. Instructions that touch memory must pair it with
	// memorySize.
	dynamicGas gasFunc
	// minStack is the operand count required on the stack.
	minStack int
	// maxStack is the largest stack length that still leaves room for
	// the instruction's net push.
	maxStack int
	// memorySize returns the highest memory byte touched, for the
	// expansion charge.
	memorySize memorySizeFunc
}

// JumpTable maps opcodes to their implementations for one revision.
type JumpTable [256]*operation

func minStack(pops, push int) int {
	return pops
}

func maxStack(pops, push int) int {
	return StackLimit + pops - push
}

func minDupStack(n int) int  { return minStack(n, n+1) }
func maxDupStack(n int) int  { return maxStack(n, n+1) }
func minSwapStack(n int) int { return minStack(n, n) }
func maxSwapStack(n int) int { return maxStack(n, n) }

// validate panics on construction mistakes: every slot must be filled and
// the interpreter assumes memorySize implies dynamicGas.
func validate(tbl JumpTable) JumpTable {
	for i, op := range tbl {
		if op == nil {
			panic(fmt.Sprintf("op 0x%02x is not set", i))
		}
		if op.memorySize != nil && op.dynamicGas == nil {
			panic(fmt.Sprintf("op %v has a memory size but no dynamic gas", Opcode(i)))
		}
	}
	return tbl
}

// fillUndefined assigns the failing handler to every unset slot.
func fillUndefined(tbl *JumpTable) {
	for i, entry := range tbl {
		if entry == nil {
			tbl[i] = &operation{execute: opUndefined, maxStack: maxStack(0, 0)}
		}
	}
}

// ---------------------------------------------------------------------------
// Revision construction
//
// Each constructor extends the previous revision structurally: new
// instructions appear and gas functions are swapped. Plain repricings are
// not handled here; constant costs are read from the gas parameter set,
// which is already resolved for the revision being built.

func newFrontierInstructionSet(gp *params.GasParams) JumpTable {
	tbl := JumpTable{
		STOP: {
			execute:  opStop,
			minStack: minStack(0, 0),
			maxStack: maxStack(0, 0),
		},
		ADD: {
			execute:     opAdd,
			constantGas: GasFastestStep,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		MUL: {
			execute:     opMul,
			constantGas: GasFastStep,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		SUB: {
			execute:     opSub,
			constantGas: GasFastestStep,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		DIV: {
			execute:     opDiv,
			constantGas: GasFastStep,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		SDIV: {
			execute:     opSdiv,
			constantGas: GasFastStep,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		MOD: {
			execute:     opMod,
			constantGas: GasFastStep,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		SMOD: {
			execute:     opSmod,
			constantGas: GasFastStep,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		ADDMOD: {
			execute:     opAddmod,
			constantGas: GasMidStep,
			minStack:    minStack(3, 1),
			maxStack:    maxStack(3, 1),
		},
		MULMOD: {
			execute:     opMulmod,
			constantGas: GasMidStep,
			minStack:    minStack(3, 1),
			maxStack:    maxStack(3, 1),
		},
		EXP: {
			execute:    opExp,
			dynamicGas: gasExp,
			minStack:   minStack(2, 1),
			maxStack:   maxStack(2, 1),
		},
		SIGNEXTEND: {
			execute:     opSignExtend,
			constantGas: GasFastStep,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		LT: {
			execute:     opLt,
			constantGas: GasFastestStep,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		GT: {
			execute:     opGt,
			constantGas: GasFastestStep,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		SLT: {
			execute:     opSlt,
			constantGas: GasFastestStep,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		SGT: {
			execute:     opSgt,
			constantGas: GasFastestStep,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		EQ: {
			execute:     opEq,
			constantGas: GasFastestStep,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		ISZERO: {
			execute:     opIszero,
			constantGas: GasFastestStep,
			minStack:    minStack(1, 1),
			maxStack:    maxStack(1, 1),
		},
		AND: {
			execute:     opAnd,
			constantGas: GasFastestStep,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		OR: {
			execute:     opOr,
			constantGas: GasFastestStep,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		XOR: {
			execute:     opXor,
			constantGas: GasFastestStep,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		NOT: {
			execute:     opNot,
			constantGas: GasFastestStep,
			minStack:    minStack(1, 1),
			maxStack:    maxStack(1, 1),
		},
		BYTE: {
			execute:     opByte,
			constantGas: GasFastestStep,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		KECCAK256: {
			execute:     opKeccak256,
			constantGas: gp.Keccak256Gas,
			dynamicGas:  gasKeccak256,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
			memorySize:  memoryKeccak256,
		},
		ADDRESS: {
			execute:     opAddress,
			constantGas: GasQuickStep,
			minStack:    minStack(0, 1),
			maxStack:    maxStack(0, 1),
		},
		BALANCE: {
			execute:     opBalance,
			constantGas: gp.BalanceGas,
			minStack:    minStack(1, 1),
			maxStack:    maxStack(1, 1),
		},
		ORIGIN: {
			execute:     opOrigin,
			constantGas: GasQuickStep,
			minStack:    minStack(0, 1),
			maxStack:    maxStack(0, 1),
		},
		CALLER: {
			execute:     opCaller,
			constantGas: GasQuickStep,
			minStack:    minStack(0, 1),
			maxStack:    maxStack(0, 1),
		},
		CALLVALUE: {
			execute:     opCallValue,
			constantGas: GasQuickStep,
			minStack:    minStack(0, 1),
			maxStack:    maxStack(0, 1),
		},
		CALLDATALOAD: {
			execute:     opCallDataLoad,
			constantGas: GasFastestStep,
			minStack:    minStack(1, 1),
			maxStack:    maxStack(1, 1),
		},
		CALLDATASIZE: {
			execute:     opCallDataSize,
			constantGas: GasQuickStep,
			minStack:    minStack(0, 1),
			maxStack:    maxStack(0, 1),
		},
		CALLDATACOPY: {
			execute:     opCallDataCopy,
			constantGas: GasFastestStep,
			dynamicGas:  gasCallDataCopy,
			minStack:    minStack(3, 0),
			maxStack:    maxStack(3, 0),
			memorySize:  memoryCallDataCopy,
		},
		CODESIZE: {
			execute:     opCodeSize,
			constantGas: GasQuickStep,
			minStack:    minStack(0, 1),
			maxStack:    maxStack(0, 1),
		},
		CODECOPY: {
			execute:     opCodeCopy,
			constantGas: GasFastestStep,
			dynamicGas:  gasCodeCopy,
			minStack:    minStack(3, 0),
			maxStack:    maxStack(3, 0),
			memorySize:  memoryCodeCopy,
		},
		GASPRICE: {
			execute:     opGasprice,
			constantGas: GasQuickStep,
			minStack:    minStack(0, 1),
			maxStack:    maxStack(0, 1),
		},
		EXTCODESIZE: {
			execute:     opExtCodeSize,
			constantGas: gp.ExtcodeSizeGas,
			minStack:    minStack(1, 1),
			maxStack:    maxStack(1, 1),
		},
		EXTCODECOPY: {
			execute:     opExtCodeCopy,
			constantGas: gp.ExtcodeCopyBase,
			dynamicGas:  gasExtCodeCopy,
			minStack:    minStack(4, 0),
			maxStack:    maxStack(4, 0),
			memorySize:  memoryExtCodeCopy,
		},
		BLOCKHASH: {
			execute:     opBlockhash,
			constantGas: GasExtStep,
			minStack:    minStack(1, 1),
			maxStack:    maxStack(1, 1),
		},
		COINBASE: {
			execute:     opCoinbase,
			constantGas: GasQuickStep,
			minStack:    minStack(0, 1),
			maxStack:    maxStack(0, 1),
		},
		TIMESTAMP: {
			execute:     opTimestamp,
			constantGas: GasQuickStep,
			minStack:    minStack(0, 1),
			maxStack:    maxStack(0, 1),
		},
		NUMBER: {
			execute:     opNumber,
			constantGas: GasQuickStep,
			minStack:    minStack(0, 1),
			maxStack:    maxStack(0, 1),
		},
		PREVRANDAO: {
			execute:     opPrevRandao,
			constantGas: GasQuickStep,
			minStack:    minStack(0, 1),
			maxStack:    maxStack(0, 1),
		},
		GASLIMIT: {
			execute:     opGasLimit,
			constantGas: GasQuickStep,
			minStack:    minStack(0, 1),
			maxStack:    maxStack(0, 1),
		},
		POP: {
			execute:     opPop,
			constantGas: GasQuickStep,
			minStack:    minStack(1, 0),
			maxStack:    maxStack(1, 0),
		},
		MLOAD: {
			execute:     opMload,
			constantGas: GasFastestStep,
			dynamicGas:  gasMLoad,
			minStack:    minStack(1, 1),
			maxStack:    maxStack(1, 1),
			memorySize:  memoryMLoad,
		},
		MSTORE: {
			execute:     opMstore,
			constantGas: GasFastestStep,
			dynamicGas:  gasMStore,
			minStack:    minStack(2, 0),
			maxStack:    maxStack(2, 0),
			memorySize:  memoryMStore,
		},
		MSTORE8: {
			execute:     opMstore8,
			constantGas: GasFastestStep,
			dynamicGas:  gasMStore8,
			minStack:    minStack(2, 0),
			maxStack:    maxStack(2, 0),
			memorySize:  memoryMStore8,
		},
		SLOAD: {
			execute:     opSload,
			constantGas: gp.SloadGas,
			minStack:    minStack(1, 1),
			maxStack:    maxStack(1, 1),
		},
		SSTORE: {
			execute:  opSstore,
			minStack: minStack(2, 0),
			maxStack: maxStack(2, 0),
		},
		JUMP: {
			execute:     opJump,
			constantGas: GasMidStep,
			minStack:    minStack(1, 0),
			maxStack:    maxStack(1, 0),
		},
		JUMPI: {
			execute:     opJumpi,
			constantGas: GasSlowStep,
			minStack:    minStack(2, 0),
			maxStack:    maxStack(2, 0),
		},
		PC: {
			execute:     opPc,
			constantGas: GasQuickStep,
			minStack:    minStack(0, 1),
			maxStack:    maxStack(0, 1),
		},
		MSIZE: {
			execute:     opMsize,
			constantGas: GasQuickStep,
			minStack:    minStack(0, 1),
			maxStack:    maxStack(0, 1),
		},
		GAS: {
			execute:     opGas,
			constantGas: GasQuickStep,
			minStack:    minStack(0, 1),
			maxStack:    maxStack(0, 1),
		},
		JUMPDEST: {
			execute:     opJumpdest,
			constantGas: gp.JumpdestGas,
			minStack:    minStack(0, 0),
			maxStack:    maxStack(0, 0),
		},
		PUSH1: {
			execute:     opPush1,
			constantGas: GasFastestStep,
			minStack:    minStack(0, 1),
			maxStack:    maxStack(0, 1),
		},
		CREATE: {
			execute:     opCreate,
			constantGas: gp.CreateGas,
			dynamicGas:  gasCreate,
			minStack:    minStack(3, 1),
			maxStack:    maxStack(3, 1),
			memorySize:  memoryCreate,
		},
		CALL: {
			execute:     opCall,
			constantGas: gp.CallGas,
			dynamicGas:  gasCall,
			minStack:    minStack(7, 1),
			maxStack:    maxStack(7, 1),
			memorySize:  memoryCall,
		},
		CALLCODE: {
			execute:     opCallCode,
			constantGas: gp.CallGas,
			dynamicGas:  gasCallCode,
			minStack:    minStack(7, 1),
			maxStack:    maxStack(7, 1),
			memorySize:  memoryCall,
		},
		RETURN: {
			execute:    opReturn,
			dynamicGas: gasReturn,
			minStack:   minStack(2, 0),
			maxStack:   maxStack(2, 0),
			memorySize: memoryReturn,
		},
		INVALID: {
			execute:  opInvalid,
			minStack: minStack(0, 0),
			maxStack: maxStack(0, 0),
		},
		SELFDESTRUCT: {
			execute:    opSelfdestruct,
			dynamicGas: gasSelfdestruct,
			minStack:   minStack(1, 0),
			maxStack:   maxStack(1, 0),
		},
	}
	for i := 1; i < 32; i++ {
		tbl[PUSH1+Opcode(i)] = &operation{
			execute:     makePush(uint64(i+1), i+1),
			constantGas: GasFastestStep,
			minStack:    minStack(0, 1),
			maxStack:    maxStack(0, 1),
		}
	}
	for i := 1; i <= 16; i++ {
		tbl[DUP1+Opcode(i-1)] = &operation{
			execute:     makeDup(i),
			constantGas: GasFastestStep,
			minStack:    minDupStack(i),
			maxStack:    maxDupStack(i),
		}
		tbl[SWAP1+Opcode(i-1)] = &operation{
			execute:     makeSwap(i),
			constantGas: GasFastestStep,
			minStack:    minSwapStack(i + 1),
			maxStack:    maxSwapStack(i + 1),
		}
	}
	for i := 0; i <= 4; i++ {
		tbl[LOG0+Opcode(i)] = &operation{
			execute:    makeLog(i),
			dynamicGas: makeGasLog(uint64(i)),
			minStack:   minStack(i+2, 0),
			maxStack:   maxStack(i+2, 0),
			memorySize: memoryLog,
		}
	}
	fillUndefined(&tbl)
	return validate(tbl)
}

func newHomesteadInstructionSet(gp *params.GasParams) JumpTable {
	tbl := newFrontierInstructionSet(gp)
	tbl[DELEGATECALL] = &operation{
		execute:     opDelegateCall,
		constantGas: gp.CallGas,
		dynamicGas:  gasDelegateCall,
		minStack:    minStack(6, 1),
		maxStack:    maxStack(6, 1),
		memorySize:  memoryDelegateCall,
	}
	return validate(tbl)
}

func newByzantiumInstructionSet(gp *params.GasParams) JumpTable {
	tbl := newHomesteadInstructionSet(gp)
	tbl[STATICCALL] = &operation{
		execute:     opStaticCall,
		constantGas: gp.CallGas,
		dynamicGas:  gasStaticCall,
		minStack:    minStack(6, 1),
		maxStack:    maxStack(6, 1),
		memorySize:  memoryStaticCall,
	}
	tbl[RETURNDATASIZE] = &operation{
		execute:     opReturnDataSize,
		constantGas: GasQuickStep,
		minStack:    minStack(0, 1),
		maxStack:    maxStack(0, 1),
	}
	tbl[RETURNDATACOPY] = &operation{
		execute:     opReturnDataCopy,
		constantGas: GasFastestStep,
		dynamicGas:  gasReturnDataCopy,
		minStack:    minStack(3, 0),
		maxStack:    maxStack(3, 0),
		memorySize:  memoryReturnDataCopy,
	}
	tbl[REVERT] = &operation{
		execute:    opRevert,
		dynamicGas: gasRevert,
		minStack:   minStack(2, 0),
		maxStack:   maxStack(2, 0),
		memorySize: memoryRevert,
	}
	return validate(tbl)
}

func newConstantinopleInstructionSet(gp *params.GasParams) JumpTable {
	tbl := newByzantiumInstructionSet(gp)
	tbl[SHL] = &operation{
		execute:     opSHL,
		constantGas: GasFastestStep,
		minStack:    minStack(2, 1),
		maxStack:    maxStack(2, 1),
	}
	tbl[SHR] = &operation{
		execute:     opSHR,
		constantGas: GasFastestStep,
		minStack:    minStack(2, 1),
		maxStack:    maxStack(2, 1),
	}
	tbl[SAR] = &operation{
		execute:     opSAR,
		constantGas: GasFastestStep,
		minStack:    minStack(2, 1),
		maxStack:    maxStack(2, 1),
	}
	tbl[EXTCODEHASH] = &operation{
		execute:     opExtCodeHash,
		constantGas: gp.ExtcodeHashGas,
		minStack:    minStack(1, 1),
		maxStack:    maxStack(1, 1),
	}
	tbl[CREATE2] = &operation{
		execute:     opCreate2,
		constantGas: gp.CreateGas,
		dynamicGas:  gasCreate2,
		minStack:    minStack(4, 1),
		maxStack:    maxStack(4, 1),
		memorySize:  memoryCreate2,
	}
	return validate(tbl)
}

func newIstanbulInstructionSet(gp *params.GasParams) JumpTable {
	tbl := newConstantinopleInstructionSet(gp)
	tbl[CHAINID] = &operation{
		execute:     opChainID,
		constantGas: GasQuickStep,
		minStack:    minStack(0, 1),
		maxStack:    maxStack(0, 1),
	}
	tbl[SELFBALANCE] = &operation{
		execute:     opSelfBalance,
		constantGas: GasFastStep,
		minStack:    minStack(0, 1),
		maxStack:    maxStack(0, 1),
	}
	return validate(tbl)
}

// newBerlinInstructionSet switches the account and slot touching
// instructions to access-list pricing: the warm cost is constant and the
// cold surcharge is dynamic.
func newBerlinInstructionSet(gp *params.GasParams) JumpTable {
	tbl := newIstanbulInstructionSet(gp)

	tbl[SLOAD].constantGas = 0
	tbl[SLOAD].dynamicGas = gasSLoadAccessList

	for _, op := range []Opcode{BALANCE, EXTCODESIZE, EXTCODEHASH} {
		tbl[op].constantGas = gp.WarmStorageReadCost
		tbl[op].dynamicGas = gasAccountAccessCheck
	}
	tbl[EXTCODECOPY].constantGas = gp.WarmStorageReadCost
	tbl[EXTCODECOPY].dynamicGas = gasExtCodeCopyAccessList

	tbl[CALL].constantGas = gp.WarmStorageReadCost
	tbl[CALL].dynamicGas = gasCallAccessList
	tbl[CALLCODE].constantGas = gp.WarmStorageReadCost
	tbl[CALLCODE].dynamicGas = gasCallCodeAccessList
	tbl[DELEGATECALL].constantGas = gp.WarmStorageReadCost
	tbl[DELEGATECALL].dynamicGas = gasDelegateCallAccessList
	tbl[STATICCALL].constantGas = gp.WarmStorageReadCost
	tbl[STATICCALL].dynamicGas = gasStaticCallAccessList

	tbl[SELFDESTRUCT].constantGas = gp.SelfdestructGas
	tbl[SELFDESTRUCT].dynamicGas = gasSelfdestructAccessList
	return validate(tbl)
}

func newLondonInstructionSet(gp *params.GasParams) JumpTable {
	tbl := newBerlinInstructionSet(gp)
	tbl[BASEFEE] = &operation{
		execute:     opBaseFee,
		constantGas: GasQuickStep,
		minStack:    minStack(0, 1),
		maxStack:    maxStack(0, 1),
	}
	return validate(tbl)
}

func newShanghaiInstructionSet(gp *params.GasParams) JumpTable {
	tbl := newLondonInstructionSet(gp)
	tbl[PUSH0] = &operation{
		execute:     opPush0,
		constantGas: GasQuickStep,
		minStack:    minStack(0, 1),
		maxStack:    maxStack(0, 1),
	}
	// Initcode is now size capped and charged per word.
	tbl[CREATE].dynamicGas = gasCreateEip3860
	tbl[CREATE2].dynamicGas = gasCreate2Eip3860
	return validate(tbl)
}

func newCancunInstructionSet(gp *params.GasParams) JumpTable {
	tbl := newShanghaiInstructionSet(gp)
	tbl[TLOAD] = &operation{
		execute:     opTload,
		constantGas: gp.TransientStorageGas,
		minStack:    minStack(1, 1),
		maxStack:    maxStack(1, 1),
	}
	tbl[TSTORE] = &operation{
		execute:     opTstore,
		constantGas: gp.TransientStorageGas,
		minStack:    minStack(2, 0),
		maxStack:    maxStack(2, 0),
	}
	tbl[MCOPY] = &operation{
		execute:     opMcopy,
		constantGas: GasFastestStep,
		dynamicGas:  gasMcopy,
		minStack:    minStack(3, 0),
		maxStack:    maxStack(3, 0),
		memorySize:  memoryMcopy,
	}
	tbl[BLOBHASH] = &operation{
		execute:     opBlobHash,
		constantGas: GasFastestStep,
		minStack:    minStack(1, 1),
		maxStack:    maxStack(1, 1),
	}
	tbl[BLOBBASEFEE] = &operation{
		execute:     opBlobBaseFee,
		constantGas: GasQuickStep,
		minStack:    minStack(0, 1),
		maxStack:    maxStack(0, 1),
	}
	return validate(tbl)
}

// newStructuredInstructionSet builds the dispatch table used inside
// validated containers. Dynamic jumps, code introspection and the legacy
// call family are retired; their replacements operate on immediates
// checked by the validator.
func newStructuredInstructionSet(gp *params.GasParams) JumpTable {
	tbl := newCancunInstructionSet(gp)

	for _, op := range []Opcode{
		JUMP, JUMPI, PC, GAS,
		CODESIZE, CODECOPY, EXTCODESIZE, EXTCODECOPY, EXTCODEHASH,
		CREATE, CREATE2, SELFDESTRUCT,
		CALL, CALLCODE, DELEGATECALL, STATICCALL,
	} {
		tbl[op] = nil
	}

	tbl[RJUMP] = &operation{
		execute:     opRjump,
		constantGas: GasQuickStep,
		minStack:    minStack(0, 0),
		maxStack:    maxStack(0, 0),
	}
	tbl[RJUMPI] = &operation{
		execute:     opRjumpi,
		constantGas: GasLowStep,
		minStack:    minStack(1, 0),
		maxStack:    maxStack(1, 0),
	}
	tbl[RJUMPV] = &operation{
		execute:     opRjumpv,
		constantGas: GasLowStep,
		minStack:    minStack(1, 0),
		maxStack:    maxStack(1, 0),
	}
	tbl[CALLF] = &operation{
		execute:     opCallf,
		constantGas: GasFastStep,
		minStack:    minStack(0, 0),
		maxStack:    maxStack(0, 0),
	}
	tbl[RETF] = &operation{
		execute:     opRetf,
		constantGas: GasFastestStep,
		minStack:    minStack(0, 0),
		maxStack:    maxStack(0, 0),
	}
	tbl[JUMPF] = &operation{
		execute:     opJumpf,
		constantGas: GasFastStep,
		minStack:    minStack(0, 0),
		maxStack:    maxStack(0, 0),
	}
	tbl[DUPN] = &operation{
		execute:     opDupn,
		constantGas: GasFastestStep,
		minStack:    minStack(0, 1),
		maxStack:    maxStack(0, 1),
	}
	tbl[SWAPN] = &operation{
		execute:     opSwapn,
		constantGas: GasFastestStep,
		minStack:    minStack(0, 0),
		maxStack:    maxStack(0, 0),
	}
	tbl[EXCHANGE] = &operation{
		execute:     opExchange,
		constantGas: GasFastestStep,
		minStack:    minStack(0, 0),
		maxStack:    maxStack(0, 0),
	}
	tbl[DATALOAD] = &operation{
		execute:     opDataLoad,
		constantGas: GasLowStep,
		minStack:    minStack(1, 1),
		maxStack:    maxStack(1, 1),
	}
	tbl[DATALOADN] = &operation{
		execute:     opDataLoadN,
		constantGas: GasFastestStep,
		minStack:    minStack(0, 1),
		maxStack:    maxStack(0, 1),
	}
	tbl[DATASIZE] = &operation{
		execute:     opDataSize,
		constantGas: GasQuickStep,
		minStack:    minStack(0, 1),
		maxStack:    maxStack(0, 1),
	}
	tbl[DATACOPY] = &operation{
		execute:     opDataCopy,
		constantGas: GasFastestStep,
		dynamicGas:  gasDataCopy,
		minStack:    minStack(3, 0),
		maxStack:    maxStack(3, 0),
		memorySize:  memoryDataCopy,
	}
	tbl[RETURNDATALOAD] = &operation{
		execute:     opReturnDataLoad,
		constantGas: GasFastestStep,
		minStack:    minStack(1, 1),
		maxStack:    maxStack(1, 1),
	}
	tbl[EXTCALL] = &operation{
		execute:     opExtCall,
		constantGas: gp.WarmStorageReadCost,
		dynamicGas:  gasExtCall,
		minStack:    minStack(4, 1),
		maxStack:    maxStack(4, 1),
		memorySize:  memoryExtCall,
	}
	tbl[EXTDELEGATECALL] = &operation{
		execute:     opExtDelegateCall,
		constantGas: gp.WarmStorageReadCost,
		dynamicGas:  gasExtDelegateCall,
		minStack:    minStack(3, 1),
		maxStack:    maxStack(3, 1),
		memorySize:  memoryExtCall,
	}
	tbl[EXTSTATICCALL] = &operation{
		execute:     opExtStaticCall,
		constantGas: gp.WarmStorageReadCost,
		dynamicGas:  gasExtStaticCall,
		minStack:    minStack(3, 1),
		maxStack:    maxStack(3, 1),
		memorySize:  memoryExtCall,
	}

	fillUndefined(&tbl)
	return validate(tbl)
}
