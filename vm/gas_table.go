package vm

import (
	"github.com/chazu/ember/params"
)

// ---------------------------------------------------------------------------
// Memory-driven costs

// pureMemoryGascost charges only for memory expansion.
func pureMemoryGascost(evm *EVM, frame *Frame, memorySize uint64) (uint64, error) {
	return memoryGasCost(frame.memory, memorySize, evm.gp)
}

var (
	gasReturn  = pureMemoryGascost
	gasRevert  = pureMemoryGascost
	gasMLoad   = pureMemoryGascost
	gasMStore8 = pureMemoryGascost
	gasMStore  = pureMemoryGascost
	gasCreate  = pureMemoryGascost
)

// memoryCopierGas prices copy instructions: memory expansion plus a per-word
// copy fee. stackpos is the operand holding the length.
func memoryCopierGas(stackpos int) gasFunc {
	return func(evm *EVM, frame *Frame, memorySize uint64) (uint64, error) {
		gas, err := memoryGasCost(frame.memory, memorySize, evm.gp)
		if err != nil {
			return 0, err
		}
		words, overflow := frame.stack.Back(stackpos).Uint64WithOverflow()
		if overflow {
			return 0, ErrGasUintOverflow
		}
		if words, overflow = safeMul(toWordSize(words), evm.gp.CopyGas); overflow {
			return 0, ErrGasUintOverflow
		}
		if gas, overflow = safeAdd(gas, words); overflow {
			return 0, ErrGasUintOverflow
		}
		return gas, nil
	}
}

var (
	gasCallDataCopy   = memoryCopierGas(2)
	gasCodeCopy       = memoryCopierGas(2)
	gasExtCodeCopy    = memoryCopierGas(3)
	gasReturnDataCopy = memoryCopierGas(2)
	gasMcopy          = memoryCopierGas(2)
	gasDataCopy       = memoryCopierGas(2)
)

func gasKeccak256(evm *EVM, frame *Frame, memorySize uint64) (uint64, error) {
	gas, err := memoryGasCost(frame.memory, memorySize, evm.gp)
	if err != nil {
		return 0, err
	}
	wordGas, overflow := frame.stack.Back(1).Uint64WithOverflow()
	if overflow {
		return 0, ErrGasUintOverflow
	}
	if wordGas, overflow = safeMul(toWordSize(wordGas), evm.gp.Keccak256WordGas); overflow {
		return 0, ErrGasUintOverflow
	}
	if gas, overflow = safeAdd(gas, wordGas); overflow {
		return 0, ErrGasUintOverflow
	}
	return gas, nil
}

func gasExp(evm *EVM, frame *Frame, memorySize uint64) (uint64, error) {
	expByteLen := uint64(frame.stack.Back(1).ByteLen())

	var (
		gas      = expByteLen * evm.gp.ExpByteGas
		overflow bool
	)
	if gas, overflow = safeAdd(gas, evm.gp.ExpGas); overflow {
		return 0, ErrGasUintOverflow
	}
	return gas, nil
}

func makeGasLog(n uint64) gasFunc {
	return func(evm *EVM, frame *Frame, memorySize uint64) (uint64, error) {
		requestedSize, overflow := frame.stack.Back(1).Uint64WithOverflow()
		if overflow {
			return 0, ErrGasUintOverflow
		}
		gas, err := memoryGasCost(frame.memory, memorySize, evm.gp)
		if err != nil {
			return 0, err
		}
		if gas, overflow = safeAdd(gas, evm.gp.LogGas); overflow {
			return 0, ErrGasUintOverflow
		}
		if gas, overflow = safeAdd(gas, n*evm.gp.LogTopicGas); overflow {
			return 0, ErrGasUintOverflow
		}
		var memorySizeGas uint64
		if memorySizeGas, overflow = safeMul(requestedSize, evm.gp.LogDataGas); overflow {
			return 0, ErrGasUintOverflow
		}
		if gas, overflow = safeAdd(gas, memorySizeGas); overflow {
			return 0, ErrGasUintOverflow
		}
		return gas, nil
	}
}

// ---------------------------------------------------------------------------
// Storage writes

// sstoreGasLegacy prices a storage write before net gas metering: only the
// zeroness of the current and the new value matters.
func sstoreGasLegacy(gp *params.GasParams, gas *Gas, status StorageStatus) uint64 {
	switch status {
	case StorageAdded, StorageDeletedAdded, StorageDeletedRestored:
		// A zero slot becomes non-zero.
		return gp.SstoreSetGas
	case StorageDeleted, StorageModifiedDeleted, StorageAddedDeleted:
		// A non-zero slot becomes zero.
		gas.AddRefund(gp.SstoreClearRefund)
		return gp.SstoreResetGas
	default:
		return gp.SstoreResetGas
	}
}

// sstoreGasNetMetered prices a storage write under net gas metering: writes
// that restore the value the slot had at the start of the transaction cost
// a warm read, and refunds track the net effect on the committed state.
func sstoreGasNetMetered(rules params.Rules, gp *params.GasParams, gas *Gas, status StorageStatus) uint64 {
	var (
		sload = gp.SloadGas
		reset = gp.SstoreResetGas
		clear = gp.SstoreClearRefund
	)
	if rules.IsBerlin {
		// The cold half of the reset price is charged through the access
		// list surcharge instead.
		reset -= gp.ColdSloadCost
	}

	switch status {
	case StorageAdded:
		return gp.SstoreSetGas
	case StorageDeleted:
		gas.AddRefund(clear)
		return reset
	case StorageModified:
		return reset
	case StorageDeletedAdded:
		gas.SubRefund(clear)
		return sload
	case StorageModifiedDeleted:
		gas.AddRefund(clear)
		return sload
	case StorageDeletedRestored:
		gas.SubRefund(clear)
		gas.AddRefund(reset - sload)
		return sload
	case StorageAddedDeleted:
		gas.AddRefund(gp.SstoreSetGas - sload)
		return sload
	case StorageModifiedRestored:
		gas.AddRefund(reset - sload)
		return sload
	default: // StorageAssigned
		return sload
	}
}

// ---------------------------------------------------------------------------
// Calls and creates

func gasCall(evm *EVM, frame *Frame, memorySize uint64) (uint64, error) {
	var (
		gas            uint64
		transfersValue = !frame.stack.Back(2).IsZero()
		address        = AddressFromWord(frame.stack.Back(1))
	)
	if evm.rules.IsEIP158 {
		if transfersValue && !evm.host.AccountExists(address) {
			gas += evm.gp.CallNewAccountGas
		}
	} else if !evm.host.AccountExists(address) {
		gas += evm.gp.CallNewAccountGas
	}
	if transfersValue {
		gas += evm.gp.CallValueTransferGas
	}
	memoryGas, err := memoryGasCost(frame.memory, memorySize, evm.gp)
	if err != nil {
		return 0, err
	}
	var overflow bool
	if gas, overflow = safeAdd(gas, memoryGas); overflow {
		return 0, ErrGasUintOverflow
	}
	evm.callGasTemp, err = callGas(evm.rules.IsEIP150, frame.gas.Remaining, gas, frame.stack.Back(0))
	if err != nil {
		return 0, err
	}
	if gas, overflow = safeAdd(gas, evm.callGasTemp); overflow {
		return 0, ErrGasUintOverflow
	}
	return gas, nil
}

func gasCallCode(evm *EVM, frame *Frame, memorySize uint64) (uint64, error) {
	memoryGas, err := memoryGasCost(frame.memory, memorySize, evm.gp)
	if err != nil {
		return 0, err
	}
	var (
		gas      uint64
		overflow bool
	)
	if !frame.stack.Back(2).IsZero() {
		gas += evm.gp.CallValueTransferGas
	}
	if gas, overflow = safeAdd(gas, memoryGas); overflow {
		return 0, ErrGasUintOverflow
	}
	evm.callGasTemp, err = callGas(evm.rules.IsEIP150, frame.gas.Remaining, gas, frame.stack.Back(0))
	if err != nil {
		return 0, err
	}
	if gas, overflow = safeAdd(gas, evm.callGasTemp); overflow {
		return 0, ErrGasUintOverflow
	}
	return gas, nil
}

func gasDelegateCall(evm *EVM, frame *Frame, memorySize uint64) (uint64, error) {
	gas, err := memoryGasCost(frame.memory, memorySize, evm.gp)
	if err != nil {
		return 0, err
	}
	evm.callGasTemp, err = callGas(evm.rules.IsEIP150, frame.gas.Remaining, gas, frame.stack.Back(0))
	if err != nil {
		return 0, err
	}
	var overflow bool
	if gas, overflow = safeAdd(gas, evm.callGasTemp); overflow {
		return 0, ErrGasUintOverflow
	}
	return gas, nil
}

func gasStaticCall(evm *EVM, frame *Frame, memorySize uint64) (uint64, error) {
	return gasDelegateCall(evm, frame, memorySize)
}

func gasCreateEip3860(evm *EVM, frame *Frame, memorySize uint64) (uint64, error) {
	gas, err := memoryGasCost(frame.memory, memorySize, evm.gp)
	if err != nil {
		return 0, err
	}
	size, overflow := frame.stack.Back(2).Uint64WithOverflow()
	if overflow || size > evm.gp.MaxInitCodeSize {
		return 0, ErrGasUintOverflow
	}
	// The size cap keeps the word product far from overflowing.
	moreGas := evm.gp.InitcodeWordGas * toWordSize(size)
	if gas, overflow = safeAdd(gas, moreGas); overflow {
		return 0, ErrGasUintOverflow
	}
	return gas, nil
}

func gasCreate2(evm *EVM, frame *Frame, memorySize uint64) (uint64, error) {
	gas, err := memoryGasCost(frame.memory, memorySize, evm.gp)
	if err != nil {
		return 0, err
	}
	wordGas, overflow := frame.stack.Back(2).Uint64WithOverflow()
	if overflow {
		return 0, ErrGasUintOverflow
	}
	if wordGas, overflow = safeMul(toWordSize(wordGas), evm.gp.Keccak256WordGas); overflow {
		return 0, ErrGasUintOverflow
	}
	if gas, overflow = safeAdd(gas, wordGas); overflow {
		return 0, ErrGasUintOverflow
	}
	return gas, nil
}

func gasCreate2Eip3860(evm *EVM, frame *Frame, memorySize uint64) (uint64, error) {
	gas, err := memoryGasCost(frame.memory, memorySize, evm.gp)
	if err != nil {
		return 0, err
	}
	size, overflow := frame.stack.Back(2).Uint64WithOverflow()
	if overflow || size > evm.gp.MaxInitCodeSize {
		return 0, ErrGasUintOverflow
	}
	moreGas := (evm.gp.InitcodeWordGas + evm.gp.Keccak256WordGas) * toWordSize(size)
	if gas, overflow = safeAdd(gas, moreGas); overflow {
		return 0, ErrGasUintOverflow
	}
	return gas, nil
}

func gasSelfdestruct(evm *EVM, frame *Frame, memorySize uint64) (uint64, error) {
	gas := evm.gp.SelfdestructGas
	if evm.rules.IsEIP150 {
		beneficiary := AddressFromWord(frame.stack.Back(0))
		if evm.rules.IsEIP158 {
			if !evm.host.AccountExists(beneficiary) && !evm.host.GetBalance(frame.address).IsZero() {
				gas += evm.gp.CreateBySelfdestructGas
			}
		} else if !evm.host.AccountExists(beneficiary) {
			gas += evm.gp.CreateBySelfdestructGas
		}
	}
	return gas, nil
}

// ---------------------------------------------------------------------------
// Access list surcharges

// gasSLoadAccessList prices SLOAD entirely dynamically: the slot access
// status decides between the cold and the warm price.
func gasSLoadAccessList(evm *EVM, frame *Frame, memorySize uint64) (uint64, error) {
	loc := frame.stack.peek()
	if evm.host.AccessSlot(frame.address, Hash(loc.Bytes32())) == ColdAccess {
		return evm.gp.ColdSloadCost, nil
	}
	return evm.gp.WarmStorageReadCost, nil
}

// gasAccountAccessCheck is the dynamic part of BALANCE, EXTCODESIZE and
// EXTCODEHASH under access lists. The warm price is the constant cost; a
// cold target pays the difference here.
func gasAccountAccessCheck(evm *EVM, frame *Frame, memorySize uint64) (uint64, error) {
	addr := AddressFromWord(frame.stack.peek())
	if evm.host.AccessAccount(addr) == ColdAccess {
		return evm.gp.ColdAccountAccessCost - evm.gp.WarmStorageReadCost, nil
	}
	return 0, nil
}

func gasExtCodeCopyAccessList(evm *EVM, frame *Frame, memorySize uint64) (uint64, error) {
	gas, err := gasExtCodeCopy(evm, frame, memorySize)
	if err != nil {
		return 0, err
	}
	addr := AddressFromWord(frame.stack.Back(0))
	if evm.host.AccessAccount(addr) == ColdAccess {
		var overflow bool
		if gas, overflow = safeAdd(gas, evm.gp.ColdAccountAccessCost-evm.gp.WarmStorageReadCost); overflow {
			return 0, ErrGasUintOverflow
		}
	}
	return gas, nil
}

// makeCallVariantGasAccessList wraps a pre-access-list call gas calculator.
// The cold surcharge must be deducted before the inner calculator runs so
// that the 63/64 forwarding rule sees the reduced budget; it is credited
// back afterwards and folded into the returned cost.
func makeCallVariantGasAccessList(oldCalculator gasFunc) gasFunc {
	return func(evm *EVM, frame *Frame, memorySize uint64) (uint64, error) {
		addr := AddressFromWord(frame.stack.Back(1))
		coldCost := evm.gp.ColdAccountAccessCost - evm.gp.WarmStorageReadCost
		if evm.host.AccessAccount(addr) == ColdAccess {
			if !frame.UseGas(coldCost) {
				return 0, ErrOutOfGas
			}
		} else {
			coldCost = 0
		}
		gas, err := oldCalculator(evm, frame, memorySize)
		if err != nil {
			return gas, err
		}
		frame.gas.Remaining += coldCost
		return gas + coldCost, nil
	}
}

var (
	gasCallAccessList         = makeCallVariantGasAccessList(gasCall)
	gasCallCodeAccessList     = makeCallVariantGasAccessList(gasCallCode)
	gasDelegateCallAccessList = makeCallVariantGasAccessList(gasDelegateCall)
	gasStaticCallAccessList   = makeCallVariantGasAccessList(gasStaticCall)
)

func gasSelfdestructAccessList(evm *EVM, frame *Frame, memorySize uint64) (uint64, error) {
	var (
		gas         uint64
		beneficiary = AddressFromWord(frame.stack.Back(0))
	)
	if evm.host.AccessAccount(beneficiary) == ColdAccess {
		gas = evm.gp.ColdAccountAccessCost
	}
	if !evm.host.AccountExists(beneficiary) && !evm.host.GetBalance(frame.address).IsZero() {
		gas += evm.gp.CreateBySelfdestructGas
	}
	return gas, nil
}

// ---------------------------------------------------------------------------
// Extended calls

// gasExtCallBase covers what every extended call pays: memory expansion
// plus the cold surcharge of the target account. The warm access price is
// the constant cost.
func gasExtCallBase(evm *EVM, frame *Frame, memorySize uint64) (uint64, error) {
	gas, err := memoryGasCost(frame.memory, memorySize, evm.gp)
	if err != nil {
		return 0, err
	}
	addr := AddressFromWord(frame.stack.Back(0))
	if evm.host.AccessAccount(addr) == ColdAccess {
		var overflow bool
		if gas, overflow = safeAdd(gas, evm.gp.ColdAccountAccessCost-evm.gp.WarmStorageReadCost); overflow {
			return 0, ErrGasUintOverflow
		}
	}
	return gas, nil
}

func gasExtCall(evm *EVM, frame *Frame, memorySize uint64) (uint64, error) {
	gas, err := gasExtCallBase(evm, frame, memorySize)
	if err != nil {
		return 0, err
	}
	if value := frame.stack.Back(3); !value.IsZero() {
		var overflow bool
		if gas, overflow = safeAdd(gas, evm.gp.CallValueTransferGas); overflow {
			return 0, ErrGasUintOverflow
		}
		addr := AddressFromWord(frame.stack.Back(0))
		if !evm.host.AccountExists(addr) {
			if gas, overflow = safeAdd(gas, evm.gp.CallNewAccountGas); overflow {
				return 0, ErrGasUintOverflow
			}
		}
	}
	return gas, nil
}

var (
	gasExtDelegateCall = gasExtCallBase
	gasExtStaticCall   = gasExtCallBase
)
