package vm

import (
	"bytes"
	"errors"
	"testing"

	"github.com/holiman/uint256"

	"github.com/chazu/ember/params"
)

// ---------------------------------------------------------------------------
// Top-level calls

func TestCallEmptyCodeTransfersValue(t *testing.T) {
	evm, host := testEVM(t, params.Osaka)
	host.SetBalance(testOrigin, uint256.NewInt(100))

	ret, leftOver, err := evm.Call(testOrigin, testTarget, nil, 50_000, uint256.NewInt(40))
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if ret != nil {
		t.Errorf("return = %x, want none", ret)
	}
	if leftOver != 50_000 {
		t.Errorf("leftover = %d, want 50000", leftOver)
	}
	if got := host.GetBalance(testTarget); !got.Eq(uint256.NewInt(40)) {
		t.Errorf("target balance = %v, want 40", got)
	}
	if got := host.GetBalance(testOrigin); !got.Eq(uint256.NewInt(60)) {
		t.Errorf("origin balance = %v, want 60", got)
	}
}

func TestCallInsufficientBalance(t *testing.T) {
	evm, host := testEVM(t, params.Osaka)

	_, leftOver, err := evm.Call(testOrigin, testTarget, nil, 50_000, uint256.NewInt(1))
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("err = %v, want %v", err, ErrInsufficientBalance)
	}
	if leftOver != 50_000 {
		t.Errorf("leftover = %d, want 50000", leftOver)
	}
	if got := host.GetBalance(testTarget); !got.IsZero() {
		t.Errorf("target balance = %v, want 0", got)
	}
}

func TestCallRevertRollsBack(t *testing.T) {
	evm, host := testEVM(t, params.Osaka)
	// Store 1 at slot 0, then revert.
	host.SetCode(testTarget, mustHex(t, "60016000555f5ffd"))

	_, leftOver, err := evm.Call(testOrigin, testTarget, nil, 100_000, nil)
	if !errors.Is(err, ErrExecutionReverted) {
		t.Fatalf("err = %v, want %v", err, ErrExecutionReverted)
	}
	if used := 100_000 - leftOver; used != 22_110 {
		t.Errorf("gas used = %d, want 22110", used)
	}
	if got := host.GetStorage(testTarget, Hash{}); got != (Hash{}) {
		t.Errorf("slot = %x, want rolled back to zero", got)
	}
	if evm.Refund() != 0 {
		t.Errorf("refund = %d, want 0", evm.Refund())
	}
}

// ---------------------------------------------------------------------------
// Storage pricing through the engine

func TestSstoreClearRefund(t *testing.T) {
	evm, host := testEVM(t, params.Osaka)
	host.SetCode(testTarget, mustHex(t, "6000600055"))
	host.SetStorage(testTarget, Hash{}, Hash{31: 1})
	host.FinaliseTx()

	_, leftOver, err := evm.Call(testOrigin, testTarget, nil, 100_000, nil)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if used := 100_000 - leftOver; used != 5006 {
		t.Errorf("gas used = %d, want 5006", used)
	}
	if evm.Refund() != 4800 {
		t.Errorf("refund = %d, want 4800", evm.Refund())
	}
	if got := host.GetStorage(testTarget, Hash{}); got != (Hash{}) {
		t.Errorf("slot = %x, want cleared", got)
	}
}

func TestSstoreSentry(t *testing.T) {
	// 2300 gas left at the SSTORE is exactly too little.
	_, used, err := runCode(t, params.Istanbul, mustHex(t, "6000600055"), 2306)
	if !errors.Is(err, ErrOutOfGas) {
		t.Fatalf("err = %v, want %v", err, ErrOutOfGas)
	}
	if used != 2306 {
		t.Errorf("gas used = %d, want all 2306", used)
	}
}

func TestSloadColdWarm(t *testing.T) {
	// Load slot 0 twice: 2100 cold, then 100 warm.
	_, used, err := runCode(t, params.Osaka, mustHex(t, "5f54505f5400"), 10_000)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if used != 2206 {
		t.Errorf("gas used = %d, want 2206", used)
	}
}

func TestBalanceColdWarm(t *testing.T) {
	// BALANCE of self twice: 2600 cold, then 100 warm.
	_, used, err := runCode(t, params.Osaka, mustHex(t, "303150303100"), 10_000)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if used != 2706 {
		t.Errorf("gas used = %d, want 2706", used)
	}
}

// ---------------------------------------------------------------------------
// Nested calls

func TestNestedCallSuccess(t *testing.T) {
	evm, host := testEVM(t, params.Osaka)
	callee := Address{0xcc}
	host.SetCode(callee, mustHex(t, "6007" + returnTop))
	// Call the callee with a 32-byte return area at offset 0, store the
	// status word at 32 and return both.
	host.SetCode(testTarget, cat(
		mustHex(t, "60205f5f5f5f"),
		push20(callee),
		mustHex(t, "620f4240f160205260405ff3"),
	))

	ret, _, err := evm.Call(testOrigin, testTarget, nil, 200_000, nil)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if len(ret) != 64 {
		t.Fatalf("return length = %d, want 64", len(ret))
	}
	if got := new(uint256.Int).SetBytes(ret[:32]); !got.Eq(uint256.NewInt(7)) {
		t.Errorf("callee output = %v, want 7", got)
	}
	if got := new(uint256.Int).SetBytes(ret[32:]); !got.Eq(uint256.NewInt(1)) {
		t.Errorf("status = %v, want 1", got)
	}
}

func TestNestedCallRevertReturnData(t *testing.T) {
	evm, host := testEVM(t, params.Osaka)
	callee := Address{0xcc}
	// Revert with one byte of output.
	host.SetCode(callee, mustHex(t, "60ff60005360016000fd"))
	// Store the status word at 0 and RETURNDATASIZE at 32.
	host.SetCode(testTarget, cat(
		mustHex(t, "5f5f5f5f5f"),
		push20(callee),
		mustHex(t, "620f4240f15f523d60205260405ff3"),
	))

	ret, _, err := evm.Call(testOrigin, testTarget, nil, 200_000, nil)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if len(ret) != 64 {
		t.Fatalf("return length = %d, want 64", len(ret))
	}
	if got := new(uint256.Int).SetBytes(ret[:32]); !got.IsZero() {
		t.Errorf("status = %v, want 0", got)
	}
	if got := new(uint256.Int).SetBytes(ret[32:]); !got.Eq(uint256.NewInt(1)) {
		t.Errorf("return data size = %v, want 1", got)
	}
}

func TestReturnDataCopyOutOfBounds(t *testing.T) {
	evm, host := testEVM(t, params.Osaka)
	callee := Address{0xcc}
	host.SetCode(callee, mustHex(t, "60ff60005360016000fd"))
	// Copy two bytes out of a one-byte return buffer.
	host.SetCode(testTarget, cat(
		mustHex(t, "5f5f5f5f5f"),
		push20(callee),
		mustHex(t, "620f4240f15060025f5f3e00"),
	))

	_, leftOver, err := evm.Call(testOrigin, testTarget, nil, 200_000, nil)
	if !errors.Is(err, ErrReturnDataOutOfBounds) {
		t.Fatalf("err = %v, want %v", err, ErrReturnDataOutOfBounds)
	}
	if leftOver != 0 {
		t.Errorf("leftover = %d, want 0", leftOver)
	}
}

func TestCallCodeStorageContext(t *testing.T) {
	evm, host := testEVM(t, params.Osaka)
	callee := Address{0xcc}
	// Store 0xff at slot 0 of whoever runs this.
	host.SetCode(callee, mustHex(t, "60ff5f5500"))
	host.SetCode(testTarget, cat(
		mustHex(t, "5f5f5f5f5f"),
		push20(callee),
		mustHex(t, "620f4240f200"),
	))

	if _, _, err := evm.Call(testOrigin, testTarget, nil, 200_000, nil); err != nil {
		t.Fatalf("call: %v", err)
	}
	if got := host.GetStorage(testTarget, Hash{}); got != (Hash{31: 0xff}) {
		t.Errorf("caller slot = %x, want ff", got)
	}
	if got := host.GetStorage(callee, Hash{}); got != (Hash{}) {
		t.Errorf("callee slot = %x, want untouched", got)
	}
}

func TestDelegateCallContext(t *testing.T) {
	evm, host := testEVM(t, params.Osaka)
	callee := Address{0xcc}
	// Store CALLER at slot 0: under a delegate this is the original caller.
	host.SetCode(callee, mustHex(t, "335f5500"))
	host.SetCode(testTarget, cat(
		mustHex(t, "5f5f5f5f"),
		push20(callee),
		mustHex(t, "620f4240f400"),
	))

	if _, _, err := evm.Call(testOrigin, testTarget, nil, 200_000, nil); err != nil {
		t.Fatalf("call: %v", err)
	}
	want := Hash(testOrigin.Word().Bytes32())
	if got := host.GetStorage(testTarget, Hash{}); got != want {
		t.Errorf("caller slot = %x, want %x", got, want)
	}
	if got := host.GetStorage(callee, Hash{}); got != (Hash{}) {
		t.Errorf("callee slot = %x, want untouched", got)
	}
}

func TestStaticCallWriteProtection(t *testing.T) {
	tests := []struct {
		name   string
		callee string
		status uint64
	}{
		{"sstore", "60015f55", 0},
		{"log0", "5f5fa0", 0},
		{"tstore", "60015f5d", 0},
		{"create", "5f5f5ff0", 0},
		{"selfdestruct", "5fff", 0},
		{"sload", "5f5400", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evm, host := testEVM(t, params.Osaka)
			callee := Address{0xcc}
			host.SetCode(callee, mustHex(t, tt.callee))
			host.SetCode(testTarget, cat(
				mustHex(t, "5f5f5f5f"),
				push20(callee),
				mustHex(t, "620f4240fa" + returnTop),
			))

			ret, _, err := evm.Call(testOrigin, testTarget, nil, 200_000, nil)
			if err != nil {
				t.Fatalf("call: %v", err)
			}
			if got := retWord(t, ret); !got.Eq(uint256.NewInt(tt.status)) {
				t.Errorf("status = %v, want %d", got, tt.status)
			}
		})
	}
}

func TestCallValueBalanceFailure(t *testing.T) {
	evm, host := testEVM(t, params.Osaka)
	callee := Address{0xcc}
	// Attach 1 wei the caller does not have. The dynamic cost including
	// the new account and transfer surcharges is still paid; the stipend
	// comes back with the failed request.
	host.SetCode(testTarget, cat(
		mustHex(t, "5f5f5f5f6001"),
		push20(callee),
		mustHex(t, "5ff1" + returnTop),
	))

	ret, leftOver, err := evm.Call(testOrigin, testTarget, nil, 100_000, nil)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if got := retWord(t, ret); !got.IsZero() {
		t.Errorf("status = %v, want 0", got)
	}
	if leftOver != 65_671 {
		t.Errorf("leftover = %d, want 65671", leftOver)
	}
}

func TestCallDepthLimit(t *testing.T) {
	evm, host := testEVM(t, params.Osaka)
	callee := Address{0xcc}
	host.SetCode(callee, []byte{byte(STOP)})

	parent := newFrame(int(params.CallCreateDepth), testTarget, testOrigin, new(uint256.Int), nil, LegacyCode(nil), 1000, false)
	defer parent.release()
	req := &callRequest{kind: kindCall, gas: 500, target: callee, value: new(uint256.Int)}

	child, handled := evm.spawn(parent, req)
	if !handled || child != nil {
		t.Fatalf("spawn at limit = (%v, %v), want handled in place", child, handled)
	}
	if got := parent.stack.pop(); !got.IsZero() {
		t.Errorf("status = %v, want 0", got)
	}
	// The forwarded gas is forfeited, not re-credited.
	if parent.gas.Remaining != 1000 {
		t.Errorf("remaining = %d, want 1000", parent.gas.Remaining)
	}

	below := newFrame(int(params.CallCreateDepth)-1, testTarget, testOrigin, new(uint256.Int), nil, LegacyCode(nil), 1000, false)
	defer below.release()
	child, handled = evm.spawn(below, req)
	if handled || child == nil {
		t.Fatalf("spawn below limit = (%v, %v), want a child frame", child, handled)
	}
	if child.depth != int(params.CallCreateDepth) {
		t.Errorf("child depth = %d, want %d", child.depth, params.CallCreateDepth)
	}
	if child.gas.Remaining != 500 {
		t.Errorf("child gas = %d, want 500", child.gas.Remaining)
	}
	child.release()
}

func TestNestedRefundMerge(t *testing.T) {
	callProgram := func(callee Address) []byte {
		return cat(
			mustHex(t, "5f5f5f5f5f"),
			push20(callee),
			mustHex(t, "620f4240f100"),
		)
	}
	callee := Address{0xdd}

	// A child that clears a slot and returns passes its refund up.
	evm, host := testEVM(t, params.Osaka)
	host.SetCode(callee, mustHex(t, "600060005500"))
	host.SetStorage(callee, Hash{}, Hash{31: 1})
	host.FinaliseTx()
	host.SetCode(testTarget, callProgram(callee))
	if _, _, err := evm.Call(testOrigin, testTarget, nil, 200_000, nil); err != nil {
		t.Fatalf("call: %v", err)
	}
	if evm.Refund() != 4800 {
		t.Errorf("refund = %d, want 4800", evm.Refund())
	}
	if got := host.GetStorage(callee, Hash{}); got != (Hash{}) {
		t.Errorf("slot = %x, want cleared", got)
	}

	// A child that clears the slot and then reverts contributes nothing.
	evm, host = testEVM(t, params.Osaka)
	host.SetCode(callee, mustHex(t, "60006000555f5ffd"))
	host.SetStorage(callee, Hash{}, Hash{31: 1})
	host.FinaliseTx()
	host.SetCode(testTarget, callProgram(callee))
	if _, _, err := evm.Call(testOrigin, testTarget, nil, 200_000, nil); err != nil {
		t.Fatalf("call: %v", err)
	}
	if evm.Refund() != 0 {
		t.Errorf("refund after child revert = %d, want 0", evm.Refund())
	}
	if got := host.GetStorage(callee, Hash{}); got != (Hash{31: 1}) {
		t.Errorf("slot = %x, want restored", got)
	}
}

func TestSelfdestructRefundByFork(t *testing.T) {
	run := func(t *testing.T, fork params.Fork) (*EVM, *MemoryHost) {
		t.Helper()
		evm, host := testEVM(t, fork)
		heir := Address{0xee}
		host.SetCode(testTarget, cat(push20(heir), []byte{byte(SELFDESTRUCT)}))
		host.SetBalance(testTarget, uint256.NewInt(77))
		if _, _, err := evm.Call(testOrigin, testTarget, nil, 100_000, nil); err != nil {
			t.Fatalf("call: %v", err)
		}
		if got := host.GetBalance(heir); !got.Eq(uint256.NewInt(77)) {
			t.Errorf("heir balance = %v, want 77", got)
		}
		if got := host.GetBalance(testTarget); !got.IsZero() {
			t.Errorf("account balance = %v, want 0", got)
		}
		return evm, host
	}

	t.Run("berlin", func(t *testing.T) {
		evm, _ := run(t, params.Berlin)
		if evm.Refund() != 24_000 {
			t.Errorf("refund = %d, want 24000", evm.Refund())
		}
	})
	t.Run("london", func(t *testing.T) {
		evm, _ := run(t, params.London)
		if evm.Refund() != 0 {
			t.Errorf("refund = %d, want 0", evm.Refund())
		}
	})
}

// ---------------------------------------------------------------------------
// Creates

func TestCreateDeploys(t *testing.T) {
	evm, host := testEVM(t, params.Osaka)
	// Return the single byte 0xfe as the deployed code.
	initcode := mustHex(t, "60fe60005360016000f3")

	ret, addr, leftOver, err := evm.Create(testOrigin, initcode, 100_000, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !bytes.Equal(ret, []byte{0xfe}) {
		t.Errorf("return = %x, want fe", ret)
	}
	if want := createAddress(testOrigin, 0); addr != want {
		t.Errorf("address = %v, want %v", addr, want)
	}
	// 18 to run the init code, 200 to deposit one byte.
	if used := 100_000 - leftOver; used != 218 {
		t.Errorf("gas used = %d, want 218", used)
	}
	if got := host.GetCode(addr); !bytes.Equal(got, []byte{0xfe}) {
		t.Errorf("deployed code = %x, want fe", got)
	}
	if got := host.GetNonce(testOrigin); got != 1 {
		t.Errorf("creator nonce = %d, want 1", got)
	}
	if got := host.GetNonce(addr); got != 1 {
		t.Errorf("contract nonce = %d, want 1", got)
	}
}

func TestCreateRevert(t *testing.T) {
	evm, host := testEVM(t, params.Osaka)

	_, addr, leftOver, err := evm.Create(testOrigin, mustHex(t, "5f5ffd"), 50_000, nil)
	if !errors.Is(err, ErrExecutionReverted) {
		t.Fatalf("err = %v, want %v", err, ErrExecutionReverted)
	}
	if used := 50_000 - leftOver; used != 4 {
		t.Errorf("gas used = %d, want 4", used)
	}
	if host.GetCodeSize(addr) != 0 {
		t.Errorf("code at %v survived the revert", addr)
	}
	// The creator's nonce bump is not part of the reverted frame.
	if got := host.GetNonce(testOrigin); got != 1 {
		t.Errorf("creator nonce = %d, want 1", got)
	}
	if got := host.GetNonce(addr); got != 0 {
		t.Errorf("contract nonce = %d, want rolled back to 0", got)
	}
}

func TestCreateRejectsContainerPrefix(t *testing.T) {
	evm, _ := testEVM(t, params.Osaka)
	// Deploy code starting with the container format byte.
	initcode := mustHex(t, "60ef60005360016000f3")

	_, _, leftOver, err := evm.Create(testOrigin, initcode, 50_000, nil)
	if !errors.Is(err, ErrInvalidDeployCode) {
		t.Fatalf("err = %v, want %v", err, ErrInvalidDeployCode)
	}
	if leftOver != 0 {
		t.Errorf("leftover = %d, want 0", leftOver)
	}
}

func TestCreateMaxCodeSize(t *testing.T) {
	evm, _ := testEVM(t, params.Osaka)
	// Return 24577 zero bytes, one over the deployed code cap.
	initcode := mustHex(t, "6160015ff3")

	_, _, leftOver, err := evm.Create(testOrigin, initcode, 100_000, nil)
	if !errors.Is(err, ErrMaxCodeSizeExceeded) {
		t.Fatalf("err = %v, want %v", err, ErrMaxCodeSizeExceeded)
	}
	if leftOver != 0 {
		t.Errorf("leftover = %d, want 0", leftOver)
	}
}

func TestCreateCollision(t *testing.T) {
	evm, host := testEVM(t, params.Osaka)
	addr := createAddress(testOrigin, 0)
	host.SetNonce(addr, 1)

	_, got, leftOver, err := evm.Create(testOrigin, []byte{byte(STOP)}, 50_000, nil)
	if !errors.Is(err, ErrContractAddressCollision) {
		t.Fatalf("err = %v, want %v", err, ErrContractAddressCollision)
	}
	if got != addr {
		t.Errorf("address = %v, want %v", got, addr)
	}
	if leftOver != 0 {
		t.Errorf("leftover = %d, want 0", leftOver)
	}
	if host.GetNonce(testOrigin) != 1 {
		t.Errorf("creator nonce = %d, want 1", host.GetNonce(testOrigin))
	}
}

func TestCreateNonceOverflow(t *testing.T) {
	evm, host := testEVM(t, params.Osaka)
	host.SetNonce(testOrigin, ^uint64(0))

	_, _, leftOver, err := evm.Create(testOrigin, []byte{byte(STOP)}, 50_000, nil)
	if !errors.Is(err, ErrNonceUintOverflow) {
		t.Fatalf("err = %v, want %v", err, ErrNonceUintOverflow)
	}
	if leftOver != 50_000 {
		t.Errorf("leftover = %d, want 50000", leftOver)
	}
}

func TestCreate2Deterministic(t *testing.T) {
	initcode := mustHex(t, "60fe60005360016000f3")
	salt := uint256.NewInt(7)

	evm1, host1 := testEVM(t, params.Osaka)
	_, addr1, _, err := evm1.Create2(testOrigin, initcode, salt, 100_000, nil)
	if err != nil {
		t.Fatalf("first create2: %v", err)
	}
	evm2, _ := testEVM(t, params.Osaka)
	_, addr2, _, err := evm2.Create2(testOrigin, initcode, salt, 100_000, nil)
	if err != nil {
		t.Fatalf("second create2: %v", err)
	}
	if addr1 != addr2 {
		t.Errorf("addresses differ: %v vs %v", addr1, addr2)
	}
	if want := create2Address(testOrigin, salt, initcode); addr1 != want {
		t.Errorf("address = %v, want %v", addr1, want)
	}
	if got := host1.GetCode(addr1); !bytes.Equal(got, []byte{0xfe}) {
		t.Errorf("deployed code = %x, want fe", got)
	}
}

func TestNestedCreate(t *testing.T) {
	evm, host := testEVM(t, params.Osaka)
	// Write the 10-byte init code into memory, CREATE from it and return
	// the new address.
	host.SetCode(testTarget, cat(
		mustHex(t, "6960fe60005360016000f35f52"),
		mustHex(t, "600a60165ff0" + returnTop),
	))

	ret, _, err := evm.Call(testOrigin, testTarget, nil, 200_000, nil)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	got := AddressFromWord(retWord(t, ret))
	if want := createAddress(testTarget, 0); got != want {
		t.Errorf("created address = %v, want %v", got, want)
	}
	if code := host.GetCode(got); !bytes.Equal(code, []byte{0xfe}) {
		t.Errorf("deployed code = %x, want fe", code)
	}
	if host.GetNonce(testTarget) != 1 {
		t.Errorf("creator nonce = %d, want 1", host.GetNonce(testTarget))
	}
}

// ---------------------------------------------------------------------------
// Extended calls

func TestExtCallStatusWords(t *testing.T) {
	tests := []struct {
		name   string
		callee string
		status uint64
	}{
		{"success", "00", 0},
		{"revert", "5f5ffd", 1},
		{"failure", "fe", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evm, host := testEVM(t, params.Osaka)
			callee := Address{0xcc}
			host.SetCode(callee, mustHex(t, tt.callee))
			deployContainer(t, host, testTarget,
				[]FunctionType{{0, 0x80, 4}},
				[][]byte{cat(mustHex(t, "5f5f5f"), push20(callee), mustHex(t, "f8" + returnTop))},
				nil)

			ret, _, err := evm.Call(testOrigin, testTarget, nil, 1_000_000, nil)
			if err != nil {
				t.Fatalf("call: %v", err)
			}
			if got := retWord(t, ret); !got.Eq(uint256.NewInt(tt.status)) {
				t.Errorf("status = %v, want %d", got, tt.status)
			}
		})
	}
}

func TestExtCallLightFailures(t *testing.T) {
	evm, _ := testEVM(t, params.Osaka)

	load := func(frame *Frame, value uint64, target Address) {
		frame.stack.push(uint256.NewInt(value))
		frame.stack.push(new(uint256.Int))
		frame.stack.push(new(uint256.Int))
		frame.stack.push(target.Word())
	}
	var pc uint64

	// At the depth limit the call fails before any gas moves.
	frame := newFrame(int(params.CallCreateDepth), testTarget, testOrigin, new(uint256.Int), nil, LegacyCode(nil), 1_000_000, false)
	load(frame, 0, Address{0xcc})
	if _, err := opExtCall(&pc, evm, frame); err != nil {
		t.Fatalf("depth: %v", err)
	}
	if got := frame.stack.pop(); !got.Eq(uint256.NewInt(1)) {
		t.Errorf("depth status = %v, want 1", got)
	}
	if frame.gas.Remaining != 1_000_000 {
		t.Errorf("depth remaining = %d, want unchanged", frame.gas.Remaining)
	}
	frame.release()

	// 7000 remaining forwards only 2000, below the callee minimum.
	frame = newFrame(0, testTarget, testOrigin, new(uint256.Int), nil, LegacyCode(nil), 7000, false)
	load(frame, 0, Address{0xcc})
	if _, err := opExtCall(&pc, evm, frame); err != nil {
		t.Fatalf("min callee: %v", err)
	}
	if got := frame.stack.pop(); !got.Eq(uint256.NewInt(1)) {
		t.Errorf("min callee status = %v, want 1", got)
	}
	if frame.gas.Remaining != 7000 {
		t.Errorf("min callee remaining = %d, want unchanged", frame.gas.Remaining)
	}
	frame.release()

	// Value above the sender balance.
	frame = newFrame(0, testTarget, testOrigin, new(uint256.Int), nil, LegacyCode(nil), 1_000_000, false)
	load(frame, 5, Address{0xcc})
	if _, err := opExtCall(&pc, evm, frame); err != nil {
		t.Fatalf("balance: %v", err)
	}
	if got := frame.stack.pop(); !got.Eq(uint256.NewInt(1)) {
		t.Errorf("balance status = %v, want 1", got)
	}
	frame.release()

	// The viable case yields a request carrying all but the retained share.
	frame = newFrame(0, testTarget, testOrigin, new(uint256.Int), nil, LegacyCode(nil), 1_000_000, false)
	load(frame, 0, Address{0xcc})
	if _, err := opExtCall(&pc, evm, frame); err != errYieldToken {
		t.Fatalf("viable err = %v, want yield", err)
	}
	if frame.pendingCall == nil {
		t.Fatal("no pending call deposited")
	}
	if frame.pendingCall.kind != kindExtCall {
		t.Errorf("kind = %v, want extcall", frame.pendingCall.kind)
	}
	if frame.pendingCall.gas != 984_375 {
		t.Errorf("forwarded = %d, want 984375", frame.pendingCall.gas)
	}
	if frame.gas.Remaining != 15_625 {
		t.Errorf("retained = %d, want 15625", frame.gas.Remaining)
	}
	frame.release()
}

func TestExtDelegateCallTargets(t *testing.T) {
	types := []FunctionType{{0, 0x80, 3}}
	program := func(callee Address) [][]byte {
		return [][]byte{cat(mustHex(t, "5f5f"), push20(callee), mustHex(t, "f9" + returnTop))}
	}

	// Delegating to legacy bytes fails lightly without running them.
	evm, host := testEVM(t, params.Osaka)
	callee := Address{0xcc}
	host.SetCode(callee, []byte{byte(STOP)})
	deployContainer(t, host, testTarget, types, program(callee), nil)
	ret, leftOver, err := evm.Call(testOrigin, testTarget, nil, 10_000, nil)
	if err != nil {
		t.Fatalf("legacy target: %v", err)
	}
	if got := retWord(t, ret); !got.Eq(uint256.NewInt(1)) {
		t.Errorf("legacy target status = %v, want 1", got)
	}
	if used := 10_000 - leftOver; used != 2620 {
		t.Errorf("legacy target gas used = %d, want 2620", used)
	}

	// Delegating to another container runs it.
	evm, host = testEVM(t, params.Osaka)
	deployContainer(t, host, callee, []FunctionType{{0, 0x80, 0}}, [][]byte{{byte(STOP)}}, nil)
	deployContainer(t, host, testTarget, types, program(callee), nil)
	ret, _, err = evm.Call(testOrigin, testTarget, nil, 100_000, nil)
	if err != nil {
		t.Fatalf("container target: %v", err)
	}
	if got := retWord(t, ret); !got.IsZero() {
		t.Errorf("container target status = %v, want 0", got)
	}
}

func TestExtStaticCallWriteProtection(t *testing.T) {
	evm, host := testEVM(t, params.Osaka)
	inner := Address{0xbc}
	// The inner container attaches value, which a read-only frame may not.
	deployContainer(t, host, inner,
		[]FunctionType{{0, 0x80, 4}},
		[][]byte{cat(mustHex(t, "60015f5f"), push20(Address{0xdd}), mustHex(t, "f800"))},
		nil)
	deployContainer(t, host, testTarget,
		[]FunctionType{{0, 0x80, 3}},
		[][]byte{cat(mustHex(t, "5f5f"), push20(inner), mustHex(t, "fb" + returnTop))},
		nil)

	ret, _, err := evm.Call(testOrigin, testTarget, nil, 1_000_000, nil)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if got := retWord(t, ret); !got.Eq(uint256.NewInt(2)) {
		t.Errorf("status = %v, want 2", got)
	}
}

func TestExtCallTargetTooLong(t *testing.T) {
	evm, host := testEVM(t, params.Osaka)
	// A 21-byte target word is reserved for address space extension and
	// halts the frame.
	code := cat(
		mustHex(t, "5f5f5f"),
		[]byte{0x74, 0x01},
		bytes.Repeat([]byte{0xee}, 20),
		mustHex(t, "f800"),
	)
	deployContainer(t, host, testTarget, []FunctionType{{0, 0x80, 4}}, [][]byte{code}, nil)

	_, leftOver, err := evm.Call(testOrigin, testTarget, nil, 100_000, nil)
	if !errors.Is(err, ErrInvalidExtcallTarget) {
		t.Fatalf("err = %v, want %v", err, ErrInvalidExtcallTarget)
	}
	if leftOver != 0 {
		t.Errorf("leftover = %d, want 0", leftOver)
	}
}
