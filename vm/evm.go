package vm

import (
	"encoding/binary"
	"errors"

	"github.com/holiman/uint256"

	"github.com/chazu/ember/params"
)

// ---------------------------------------------------------------------------
// Call coordinator
// ---------------------------------------------------------------------------

// EVM coordinates frame execution against a Host. Nested calls never
// recurse through the Go stack: instructions deposit a callRequest and
// yield, and the coordinator loop pushes an explicit child frame, runs
// it, and settles its outcome into the parent. Depth limits are enforced
// by the size of that frame stack.
//
// An EVM is bound to one fork and gas schedule for its lifetime and is
// not safe for concurrent use.
type EVM struct {
	host  Host
	block BlockContext
	tx    TxContext

	rules params.Rules
	gp    *params.GasParams

	interp *Interpreter
	cache  *AnalysisCache
	tracer Tracer

	// callGasTemp carries the forwardable gas of a call instruction from
	// its dynamic gas function to its execution function, which runs
	// after the dynamic cost has been deducted.
	callGasTemp uint64

	// refund is the counter left by the most recent top-level operation,
	// before any cap is applied.
	refund int64
}

// NewEVM builds an engine for one execution context. A nil cfg selects
// the built-in defaults. Pointer-valued context fields left nil are
// normalized to zero so instructions never see a nil word.
func NewEVM(host Host, block BlockContext, tx TxContext, cfg *params.Config) *EVM {
	if cfg == nil {
		cfg = params.DefaultConfig()
	}
	gp := cfg.Gas
	if gp == nil {
		gp = params.DefaultGasParams(cfg.Fork)
	}
	if block.BaseFee == nil {
		block.BaseFee = new(uint256.Int)
	}
	if block.BlobBaseFee == nil {
		block.BlobBaseFee = new(uint256.Int)
	}
	if block.ChainID == nil {
		block.ChainID = new(uint256.Int)
	}
	if tx.GasPrice == nil {
		tx.GasPrice = new(uint256.Int)
	}
	evm := &EVM{
		host:  host,
		block: block,
		tx:    tx,
		rules: cfg.Rules(),
		gp:    gp,
		cache: NewAnalysisCache(),
	}
	evm.interp = newInterpreter(evm, evm.rules, evm.gp)
	return evm
}

// SetTracer installs a tracer for subsequent operations. A nil tracer
// disables capture.
func (evm *EVM) SetTracer(t Tracer) {
	evm.tracer = t
}

// Rules returns the flattened fork rules the engine was built with.
func (evm *EVM) Rules() params.Rules {
	return evm.rules
}

// Refund returns the uncapped refund counter accumulated by the most
// recent top-level operation. It is zero after reverted and failed
// operations.
func (evm *EVM) Refund() int64 {
	return evm.refund
}

// ---------------------------------------------------------------------------
// Top-level operations
// ---------------------------------------------------------------------------

// Call runs the code at addr with the given input, transferring value
// from caller first. The leftover gas is returned for every outcome;
// it is zero when err is fatal.
func (evm *EVM) Call(caller, addr Address, input []byte, gas uint64, value *uint256.Int) ([]byte, uint64, error) {
	if value == nil {
		value = new(uint256.Int)
	}
	evm.refund = 0
	code, err := evm.codeAt(addr)
	if err != nil {
		return nil, gas, err
	}
	if !value.IsZero() && evm.host.GetBalance(caller).Lt(value) {
		return nil, gas, ErrInsufficientBalance
	}
	snapshot := evm.host.Snapshot()
	if !value.IsZero() {
		evm.host.SubBalance(caller, value)
		evm.host.AddBalance(addr, value)
	}
	if code.Len() == 0 {
		return nil, gas, nil
	}
	frame := newFrame(0, addr, caller, value, input, code, gas, false)
	frame.snapshot = snapshot
	return evm.finishTop(frame, snapshot)
}

// CallCode runs the code at addr in the caller's own storage context.
func (evm *EVM) CallCode(caller, addr Address, input []byte, gas uint64, value *uint256.Int) ([]byte, uint64, error) {
	if value == nil {
		value = new(uint256.Int)
	}
	evm.refund = 0
	code, err := evm.codeAt(addr)
	if err != nil {
		return nil, gas, err
	}
	if !value.IsZero() && evm.host.GetBalance(caller).Lt(value) {
		return nil, gas, ErrInsufficientBalance
	}
	if code.Len() == 0 {
		return nil, gas, nil
	}
	snapshot := evm.host.Snapshot()
	frame := newFrame(0, caller, caller, value, input, code, gas, false)
	frame.snapshot = snapshot
	return evm.finishTop(frame, snapshot)
}

// DelegateCall runs the code at addr in the caller's storage context
// with no value attached.
func (evm *EVM) DelegateCall(caller, addr Address, input []byte, gas uint64) ([]byte, uint64, error) {
	evm.refund = 0
	code, err := evm.codeAt(addr)
	if err != nil {
		return nil, gas, err
	}
	if code.Len() == 0 {
		return nil, gas, nil
	}
	snapshot := evm.host.Snapshot()
	frame := newFrame(0, caller, caller, new(uint256.Int), input, code, gas, false)
	frame.snapshot = snapshot
	return evm.finishTop(frame, snapshot)
}

// StaticCall runs the code at addr with state mutation disallowed for
// the whole nested call tree.
func (evm *EVM) StaticCall(caller, addr Address, input []byte, gas uint64) ([]byte, uint64, error) {
	evm.refund = 0
	code, err := evm.codeAt(addr)
	if err != nil {
		return nil, gas, err
	}
	if code.Len() == 0 {
		return nil, gas, nil
	}
	snapshot := evm.host.Snapshot()
	frame := newFrame(0, addr, caller, new(uint256.Int), input, code, gas, true)
	frame.snapshot = snapshot
	return evm.finishTop(frame, snapshot)
}

// Create deploys a contract at the address derived from the caller's
// current nonce. It returns the deployed code on success and the revert
// output on revert.
func (evm *EVM) Create(caller Address, initcode []byte, gas uint64, value *uint256.Int) ([]byte, Address, uint64, error) {
	if value == nil {
		value = new(uint256.Int)
	}
	addr := createAddress(caller, evm.host.GetNonce(caller))
	return evm.create(caller, initcode, gas, value, addr)
}

// Create2 deploys a contract at the address derived from the salt and
// the init code hash.
func (evm *EVM) Create2(caller Address, initcode []byte, salt *uint256.Int, gas uint64, value *uint256.Int) ([]byte, Address, uint64, error) {
	if value == nil {
		value = new(uint256.Int)
	}
	if salt == nil {
		salt = new(uint256.Int)
	}
	addr := create2Address(caller, salt, initcode)
	return evm.create(caller, initcode, gas, value, addr)
}

func (evm *EVM) create(caller Address, initcode []byte, gas uint64, value *uint256.Int, addr Address) ([]byte, Address, uint64, error) {
	evm.refund = 0
	if evm.rules.IsShanghai && uint64(len(initcode)) > evm.gp.MaxInitCodeSize {
		return nil, addr, gas, ErrMaxInitCodeSizeExceeded
	}
	if !value.IsZero() && evm.host.GetBalance(caller).Lt(value) {
		return nil, addr, gas, ErrInsufficientBalance
	}
	nonce := evm.host.GetNonce(caller)
	if nonce+1 < nonce {
		return nil, addr, gas, ErrNonceUintOverflow
	}
	evm.host.SetNonce(caller, nonce+1)
	if evm.rules.IsBerlin {
		evm.host.AccessAccount(addr)
	}
	// A colliding deployment burns the forwarded gas.
	if evm.host.GetNonce(addr) != 0 || evm.host.GetCodeSize(addr) != 0 {
		return nil, addr, 0, ErrContractAddressCollision
	}
	snapshot := evm.host.Snapshot()
	evm.host.CreateAccount(addr)
	if evm.rules.IsEIP158 {
		evm.host.SetNonce(addr, 1)
	}
	if !value.IsZero() {
		evm.host.SubBalance(caller, value)
		evm.host.AddBalance(addr, value)
	}

	// Init code always runs as a legacy instruction stream. Container
	// bytes deploy through their own validated channels, never through
	// initcode, where the magic reads as an undefined opcode.
	frame := newFrame(0, addr, caller, value, nil, LegacyCode(initcode), gas, false)
	frame.isCreate = true
	frame.snapshot = snapshot

	ret, err := evm.run(frame)
	out, err := evm.finishCreate(frame, ret, err)
	leftOver := frame.gas.Remaining
	evm.refund = frame.gas.Refund
	switch {
	case err == nil:
	case errors.Is(err, ErrExecutionReverted):
		evm.host.RevertToSnapshot(snapshot)
		evm.refund = 0
	default:
		evm.host.RevertToSnapshot(snapshot)
		leftOver = 0
		evm.refund = 0
		out = nil
	}
	frame.release()
	return out, addr, leftOver, err
}

// finishTop settles the root frame of a top-level call: reverted and
// fatal outcomes roll the state back, and fatal outcomes forfeit the
// remaining gas.
func (evm *EVM) finishTop(frame *Frame, snapshot int) ([]byte, uint64, error) {
	ret, err := evm.run(frame)
	leftOver := frame.gas.Remaining
	evm.refund = frame.gas.Refund
	if err != nil {
		evm.host.RevertToSnapshot(snapshot)
		evm.refund = 0
		if !errors.Is(err, ErrExecutionReverted) {
			leftOver = 0
			ret = nil
		}
	}
	frame.release()
	return ret, leftOver, err
}

// ---------------------------------------------------------------------------
// The frame loop
// ---------------------------------------------------------------------------

// run drives the frame stack rooted at root until the root halts. The
// interpreter executes exactly the top frame; yields push a child and
// halts pop one, settling its outcome into the new top.
func (evm *EVM) run(root *Frame) ([]byte, error) {
	frames := make([]*Frame, 0, 8)
	reqs := make([]*callRequest, 0, 8)
	frames = append(frames, root)
	reqs = append(reqs, nil)

	if evm.tracer != nil {
		evm.tracer.CaptureEnter(root)
	}

	var (
		ret []byte
		err error
	)
	for {
		frame := frames[len(frames)-1]
		ret, err = evm.interp.Run(frame)

		if err == errYieldToken {
			req := frame.pendingCall
			frame.pendingCall = nil
			child, handled := evm.spawn(frame, req)
			if handled {
				continue
			}
			frames = append(frames, child)
			reqs = append(reqs, req)
			if evm.tracer != nil {
				evm.tracer.CaptureEnter(child)
			}
			continue
		}

		if evm.tracer != nil {
			evm.tracer.CaptureExit(frame, ret, err)
		}
		req := reqs[len(reqs)-1]
		frames = frames[:len(frames)-1]
		reqs = reqs[:len(reqs)-1]
		if len(frames) == 0 {
			return ret, err
		}
		evm.settle(frames[len(frames)-1], frame, req, ret, err)
		frame.release()
	}
}

// ---------------------------------------------------------------------------
// Spawning child frames
// ---------------------------------------------------------------------------

// spawn turns a deposited request into a child frame, or resolves it in
// place when no frame is needed. The forwarded gas has already left the
// parent; paths that do not run a child decide whether it comes back.
func (evm *EVM) spawn(parent *Frame, req *callRequest) (*Frame, bool) {
	if req.kind.isCreate() {
		return evm.spawnCreate(parent, req)
	}
	return evm.spawnCall(parent, req)
}

func (evm *EVM) spawnCall(parent *Frame, req *callRequest) (*Frame, bool) {
	// Depth and balance for the frameless-convention kinds were already
	// checked by the instruction before it forwarded any gas.
	if !req.kind.isExt() {
		if parent.depth+1 > int(params.CallCreateDepth) {
			// The would-be child halts with a depth error and its
			// forwarded gas is gone with it.
			return evm.resolveCall(parent, req, outcomeFailure, false)
		}
		if (req.kind == kindCall || req.kind == kindCallCode) && !req.value.IsZero() {
			if evm.host.GetBalance(parent.address).Lt(req.value) {
				return evm.resolveCall(parent, req, outcomeFailure, true)
			}
		}
	}

	raw := evm.host.GetCode(req.target)

	// Structured code never runs in the storage context of a legacy
	// frame; the proxy kinds fail without entering the callee.
	if (req.kind == kindDelegateCall || req.kind == kindCallCode) &&
		evm.rules.IsOsaka && HasEOFMagic(raw) {
		return evm.resolveCall(parent, req, outcomeFailure, true)
	}

	code, err := evm.resolveCode(raw)
	if err != nil {
		// Deployed container bytes that fail validation should not
		// exist; the request fails and forfeits its gas.
		return evm.resolveCall(parent, req, outcomeFailure, false)
	}

	transfers := (req.kind == kindCall || req.kind == kindExtCall) && !req.value.IsZero()

	if code.Len() == 0 {
		if transfers {
			evm.host.SubBalance(parent.address, req.value)
			evm.host.AddBalance(req.target, req.value)
		}
		return evm.resolveCall(parent, req, outcomeSuccess, true)
	}

	snapshot := evm.host.Snapshot()
	if transfers {
		evm.host.SubBalance(parent.address, req.value)
		evm.host.AddBalance(req.target, req.value)
	}

	var (
		address  = req.target
		caller   = parent.address
		value    = req.value
		readOnly = parent.readOnly
	)
	switch req.kind {
	case kindCallCode:
		address = parent.address
	case kindDelegateCall, kindExtDelegateCall:
		address = parent.address
		caller = parent.caller
		value = parent.value
	case kindStaticCall, kindExtStaticCall:
		value = new(uint256.Int)
		readOnly = true
	}

	child := newFrame(parent.depth+1, address, caller, value, req.input, code, req.gas, readOnly)
	child.snapshot = snapshot
	return child, false
}

func (evm *EVM) spawnCreate(parent *Frame, req *callRequest) (*Frame, bool) {
	if parent.depth+1 > int(params.CallCreateDepth) {
		return evm.resolveCall(parent, req, outcomeFailure, false)
	}
	if evm.rules.IsShanghai && uint64(len(req.input)) > evm.gp.MaxInitCodeSize {
		return evm.resolveCall(parent, req, outcomeFailure, true)
	}
	if !req.value.IsZero() && evm.host.GetBalance(parent.address).Lt(req.value) {
		return evm.resolveCall(parent, req, outcomeFailure, true)
	}
	nonce := evm.host.GetNonce(parent.address)
	if nonce+1 < nonce {
		return evm.resolveCall(parent, req, outcomeFailure, true)
	}
	evm.host.SetNonce(parent.address, nonce+1)

	var addr Address
	if req.kind == kindCreate2 {
		addr = create2Address(parent.address, req.salt, req.input)
	} else {
		addr = createAddress(parent.address, nonce)
	}
	if evm.rules.IsBerlin {
		evm.host.AccessAccount(addr)
	}
	// A colliding deployment burns the forwarded gas.
	if evm.host.GetNonce(addr) != 0 || evm.host.GetCodeSize(addr) != 0 {
		return evm.resolveCall(parent, req, outcomeFailure, false)
	}

	snapshot := evm.host.Snapshot()
	evm.host.CreateAccount(addr)
	if evm.rules.IsEIP158 {
		evm.host.SetNonce(addr, 1)
	}
	if !req.value.IsZero() {
		evm.host.SubBalance(parent.address, req.value)
		evm.host.AddBalance(addr, req.value)
	}

	child := newFrame(parent.depth+1, addr, parent.address, req.value, nil, LegacyCode(req.input), req.gas, parent.readOnly)
	child.isCreate = true
	child.snapshot = snapshot
	return child, false
}

// resolveCall finishes a request without running a child frame.
func (evm *EVM) resolveCall(parent *Frame, req *callRequest, oc callOutcome, refund bool) (*Frame, bool) {
	if refund {
		parent.RefundGas(req.gas)
	}
	parent.returnData = nil
	parent.stack.push(uint256.NewInt(resultWord(req.kind, oc)))
	return nil, true
}

// ---------------------------------------------------------------------------
// Settling halted frames
// ---------------------------------------------------------------------------

// callOutcome classifies how a child frame (or would-be child) ended.
type callOutcome int

const (
	outcomeSuccess callOutcome = iota
	outcomeRevert
	outcomeFailure
)

// resultWord maps an outcome to the word a call pushes in the result
// convention of its kind: legacy calls push a boolean, frameless calls a
// status code where 0 is success, 1 revert and 2 failure.
func resultWord(kind callKind, oc callOutcome) uint64 {
	if kind.isExt() {
		switch oc {
		case outcomeSuccess:
			return 0
		case outcomeRevert:
			return 1
		default:
			return 2
		}
	}
	if oc == outcomeSuccess {
		return 1
	}
	return 0
}

// settle merges a popped child into its parent per halt kind: a clean
// halt credits leftover gas and refund and keeps state, a revert credits
// leftover gas only and rolls state back, and a fatal halt rolls back
// crediting nothing.
func (evm *EVM) settle(parent, child *Frame, req *callRequest, ret []byte, err error) {
	if req.kind.isCreate() {
		evm.settleCreate(parent, child, ret, err)
		return
	}
	evm.settleCall(parent, child, req, ret, err)
}

func (evm *EVM) settleCall(parent, child *Frame, req *callRequest, ret []byte, err error) {
	switch {
	case err == nil:
		parent.RefundGas(child.gas.Remaining)
		parent.gas.Refund += child.gas.Refund
		parent.copyCallOutput(req, ret)
		parent.returnData = ret
		parent.stack.push(uint256.NewInt(resultWord(req.kind, outcomeSuccess)))
	case errors.Is(err, ErrExecutionReverted):
		evm.host.RevertToSnapshot(child.snapshot)
		parent.RefundGas(child.gas.Remaining)
		parent.copyCallOutput(req, ret)
		parent.returnData = ret
		parent.stack.push(uint256.NewInt(resultWord(req.kind, outcomeRevert)))
	default:
		evm.host.RevertToSnapshot(child.snapshot)
		parent.returnData = nil
		parent.stack.push(uint256.NewInt(resultWord(req.kind, outcomeFailure)))
	}
}

func (evm *EVM) settleCreate(parent, child *Frame, ret []byte, err error) {
	out, err := evm.finishCreate(child, ret, err)
	switch {
	case err == nil:
		parent.RefundGas(child.gas.Remaining)
		parent.gas.Refund += child.gas.Refund
		parent.returnData = nil
		parent.stack.push(child.address.Word())
	case errors.Is(err, ErrExecutionReverted):
		evm.host.RevertToSnapshot(child.snapshot)
		parent.RefundGas(child.gas.Remaining)
		parent.returnData = out
		parent.stack.push(new(uint256.Int))
	default:
		evm.host.RevertToSnapshot(child.snapshot)
		parent.returnData = nil
		parent.stack.push(new(uint256.Int))
	}
}

// copyCallOutput writes a successful or reverted child's output into the
// caller-designated return area. The region was sized when the call's
// memory expansion was charged; shorter output leaves the tail as it was.
func (f *Frame) copyCallOutput(req *callRequest, ret []byte) {
	if !req.kind.isExt() && req.retSize > 0 {
		f.memory.Set(req.retOffset, req.retSize, ret)
	}
}

// finishCreate applies the deployment epilogue to a halted init frame:
// size cap, the 0xEF prefix ban, and the per-byte deposit charge. The
// returned error is nil only when the code ends up live in the host.
func (evm *EVM) finishCreate(child *Frame, ret []byte, err error) ([]byte, error) {
	if err != nil {
		return ret, err
	}
	if evm.rules.IsEIP158 && uint64(len(ret)) > evm.gp.MaxCodeSize {
		return nil, ErrMaxCodeSizeExceeded
	}
	if len(ret) > 0 && ret[0] == eofFormatByte && evm.rules.IsLondon {
		return nil, ErrInvalidDeployCode
	}
	if !child.UseGas(uint64(len(ret)) * evm.gp.CreateDataGas) {
		if evm.rules.IsHomestead {
			return nil, ErrCodeStoreOutOfGas
		}
		// Frontier kept the account with empty code when the deposit
		// could not be paid.
		return ret, nil
	}
	evm.host.SetCode(child.address, ret)
	return ret, nil
}

// ---------------------------------------------------------------------------
// Code resolution
// ---------------------------------------------------------------------------

// codeAt fetches and analyzes the code deployed at addr.
func (evm *EVM) codeAt(addr Address) (*Code, error) {
	return evm.resolveCode(evm.host.GetCode(addr))
}

// resolveCode analyzes raw account code for execution. Container bytes
// are parsed and validated (cached by code hash) once containers are
// active; before that, and for all other bytes, the code is a legacy
// instruction stream.
func (evm *EVM) resolveCode(raw []byte) (*Code, error) {
	if evm.rules.IsOsaka && HasEOFMagic(raw) {
		code, err := ParseCode(raw)
		if err != nil {
			return nil, err
		}
		if _, err := evm.cache.Validate(code); err != nil {
			return nil, err
		}
		return code, nil
	}
	return LegacyCode(raw), nil
}

// ---------------------------------------------------------------------------
// Deployment addresses
// ---------------------------------------------------------------------------

// createAddress derives the address of a nonce-based deployment: the low
// 20 bytes of keccak256(rlp([caller, nonce])). The two-field list is
// encoded inline; both items are always in the short-form range.
func createAddress(caller Address, nonce uint64) Address {
	var nonceBytes []byte
	switch {
	case nonce == 0:
		nonceBytes = []byte{0x80}
	case nonce < 0x80:
		nonceBytes = []byte{byte(nonce)}
	default:
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], nonce)
		i := 0
		for buf[i] == 0 {
			i++
		}
		nonceBytes = append([]byte{0x80 + byte(8-i)}, buf[i:]...)
	}
	payload := make([]byte, 0, 21+len(nonceBytes))
	payload = append(payload, 0x80+20)
	payload = append(payload, caller[:]...)
	payload = append(payload, nonceBytes...)
	enc := append([]byte{0xc0 + byte(len(payload))}, payload...)

	h := Keccak256(enc)
	var a Address
	copy(a[:], h[12:])
	return a
}

// create2Address derives the address of a salt-based deployment: the low
// 20 bytes of keccak256(0xff ++ caller ++ salt ++ keccak256(initcode)).
func create2Address(caller Address, salt *uint256.Int, initcode []byte) Address {
	codeHash := Keccak256(initcode)
	saltBytes := salt.Bytes32()
	h := Keccak256([]byte{0xff}, caller[:], saltBytes[:], codeHash[:])
	var a Address
	copy(a[:], h[12:])
	return a
}
