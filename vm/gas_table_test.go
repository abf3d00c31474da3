package vm

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"

	"github.com/chazu/ember/params"
)

func TestSstoreNetMetered(t *testing.T) {
	rules := params.MakeRules(params.Osaka)
	gp := params.DefaultGasParams(params.Osaka)

	tests := []struct {
		name   string
		status StorageStatus
		cost   uint64
		refund int64
	}{
		{"assigned", StorageAssigned, 100, 0},
		{"added", StorageAdded, 20000, 0},
		{"deleted", StorageDeleted, 2900, 4800},
		{"modified", StorageModified, 2900, 0},
		{"deleted added", StorageDeletedAdded, 100, -4800},
		{"modified deleted", StorageModifiedDeleted, 100, 4800},
		{"deleted restored", StorageDeletedRestored, 100, -2000},
		{"added deleted", StorageAddedDeleted, 100, 19900},
		{"modified restored", StorageModifiedRestored, 100, 2800},
	}
	for _, tt := range tests {
		gas := NewGas(1_000_000)
		if got := sstoreGasNetMetered(rules, gp, &gas, tt.status); got != tt.cost {
			t.Errorf("%s: cost = %d, want %d", tt.name, got, tt.cost)
		}
		if gas.Refund != tt.refund {
			t.Errorf("%s: refund = %d, want %d", tt.name, gas.Refund, tt.refund)
		}
	}
}

func TestSstoreNetMeteredIstanbul(t *testing.T) {
	// Before the access list fork the full reset price is charged here
	// and the clear refund is still 15000.
	rules := params.MakeRules(params.Istanbul)
	gp := params.DefaultGasParams(params.Istanbul)

	gas := NewGas(1_000_000)
	if got := sstoreGasNetMetered(rules, gp, &gas, StorageDeleted); got != 5000 {
		t.Errorf("deleted cost = %d, want 5000", got)
	}
	if gas.Refund != 15000 {
		t.Errorf("deleted refund = %d, want 15000", gas.Refund)
	}

	gas = NewGas(1_000_000)
	if got := sstoreGasNetMetered(rules, gp, &gas, StorageAssigned); got != 800 {
		t.Errorf("assigned cost = %d, want 800", got)
	}
}

func TestSstoreLegacy(t *testing.T) {
	gp := params.DefaultGasParams(params.Frontier)

	tests := []struct {
		name   string
		status StorageStatus
		cost   uint64
		refund int64
	}{
		{"added", StorageAdded, 20000, 0},
		{"deleted added", StorageDeletedAdded, 20000, 0},
		{"deleted restored", StorageDeletedRestored, 20000, 0},
		{"deleted", StorageDeleted, 5000, 15000},
		{"modified deleted", StorageModifiedDeleted, 5000, 15000},
		{"added deleted", StorageAddedDeleted, 5000, 15000},
		{"modified", StorageModified, 5000, 0},
		{"assigned", StorageAssigned, 5000, 0},
		{"modified restored", StorageModifiedRestored, 5000, 0},
	}
	for _, tt := range tests {
		gas := NewGas(1_000_000)
		if got := sstoreGasLegacy(gp, &gas, tt.status); got != tt.cost {
			t.Errorf("%s: cost = %d, want %d", tt.name, got, tt.cost)
		}
		if gas.Refund != tt.refund {
			t.Errorf("%s: refund = %d, want %d", tt.name, gas.Refund, tt.refund)
		}
	}
}

func TestGasExpPricing(t *testing.T) {
	evm, _ := testEVM(t, params.Osaka)
	frame := newFrame(0, testTarget, testOrigin, new(uint256.Int), nil, LegacyCode(nil), 1000, false)
	defer frame.release()

	tests := []struct {
		exponent *uint256.Int
		want     uint64
	}{
		{uint256.NewInt(0), 10},
		{uint256.NewInt(255), 60},
		{uint256.NewInt(256), 110},
		{new(uint256.Int).Lsh(uint256.NewInt(1), 248), 10 + 50*32},
	}
	for _, tt := range tests {
		frame.stack.push(tt.exponent)
		frame.stack.push(uint256.NewInt(2)) // base on top
		got, err := gasExp(evm, frame, 0)
		if err != nil {
			t.Fatalf("exponent %v: %v", tt.exponent, err)
		}
		if got != tt.want {
			t.Errorf("exponent %v: cost = %d, want %d", tt.exponent, got, tt.want)
		}
		frame.stack.pop()
		frame.stack.pop()
	}

	// Frontier charges 10 per exponent byte instead of 50.
	evmF, _ := testEVM(t, params.Frontier)
	frame.stack.push(uint256.NewInt(255))
	frame.stack.push(uint256.NewInt(2))
	got, err := gasExp(evmF, frame, 0)
	if err != nil {
		t.Fatalf("frontier: %v", err)
	}
	if got != 20 {
		t.Errorf("frontier cost = %d, want 20", got)
	}
}

func TestMemoryCopierGas(t *testing.T) {
	evm, _ := testEVM(t, params.Osaka)
	frame := newFrame(0, testTarget, testOrigin, new(uint256.Int), nil, LegacyCode(nil), 1000, false)
	defer frame.release()

	// CALLDATACOPY operands: length sits two below the top.
	frame.stack.push(uint256.NewInt(64)) // length
	frame.stack.push(uint256.NewInt(0))  // data offset
	frame.stack.push(uint256.NewInt(0))  // memory offset

	got, err := memoryCopierGas(2)(evm, frame, 64)
	if err != nil {
		t.Fatalf("copier gas: %v", err)
	}
	// Two words of expansion plus two words of copying.
	if got != 12 {
		t.Errorf("cost = %d, want 12", got)
	}
}

func TestExtForwardGas(t *testing.T) {
	gp := params.DefaultGasParams(params.Osaka)
	tests := []struct {
		remaining uint64
		want      uint64
	}{
		{1_000_000, 984_375},
		{320_000, 315_000},
		{100_000, 95_000},
		{5_000, 0},
		{4_000, 0},
	}
	for _, tt := range tests {
		if got := extForwardGas(gp, tt.remaining); got != tt.want {
			t.Errorf("extForwardGas(%d) = %d, want %d", tt.remaining, got, tt.want)
		}
	}
}

func TestGasCreateInitcodeCap(t *testing.T) {
	evm, _ := testEVM(t, params.Osaka)
	gp := params.DefaultGasParams(params.Osaka)

	frame := newFrame(0, testTarget, testOrigin, new(uint256.Int), nil, LegacyCode(nil), 1_000_000, false)
	defer frame.release()

	// CREATE operands: initcode size sits two below the top.
	frame.stack.push(uint256.NewInt(64)) // size
	frame.stack.push(uint256.NewInt(0))  // offset
	frame.stack.push(uint256.NewInt(0))  // value

	got, err := gasCreateEip3860(evm, frame, 0)
	if err != nil {
		t.Fatalf("sized initcode: %v", err)
	}
	if got != 4 {
		t.Errorf("cost = %d, want 4", got)
	}

	frame.stack.pop()
	frame.stack.pop()
	frame.stack.pop()
	frame.stack.push(uint256.NewInt(gp.MaxInitCodeSize + 1))
	frame.stack.push(uint256.NewInt(0))
	frame.stack.push(uint256.NewInt(0))

	if _, err := gasCreateEip3860(evm, frame, 0); !errors.Is(err, ErrGasUintOverflow) {
		t.Errorf("oversized initcode error = %v, want %v", err, ErrGasUintOverflow)
	}
}

func TestCallVariantColdAccounting(t *testing.T) {
	evm, _ := testEVM(t, params.Osaka)
	frame := newFrame(0, testTarget, testOrigin, new(uint256.Int), nil, LegacyCode(nil), 6500, false)
	defer frame.release()

	cold := Address{0xdd}
	// DELEGATECALL operands bottom to top: retSize, retOffset, inSize,
	// inOffset, address, gas.
	for i := 0; i < 4; i++ {
		frame.stack.push(new(uint256.Int))
	}
	frame.stack.push(cold.Word())
	frame.stack.push(uint256.NewInt(0xffffffff))

	// The cold surcharge is set aside before the 64th rule runs, so the
	// forwardable amount is computed from 4000, not 6500.
	got, err := gasDelegateCallAccessList(evm, frame, 0)
	if err != nil {
		t.Fatalf("cold: %v", err)
	}
	if got != 6438 {
		t.Errorf("cold cost = %d, want 6438", got)
	}
	if evm.callGasTemp != 3938 {
		t.Errorf("forwarded gas = %d, want 3938", evm.callGasTemp)
	}
	if frame.gas.Remaining != 6500 {
		t.Errorf("remaining = %d, want 6500", frame.gas.Remaining)
	}

	// The same account is warm on the second visit.
	got, err = gasDelegateCallAccessList(evm, frame, 0)
	if err != nil {
		t.Fatalf("warm: %v", err)
	}
	if got != 6399 {
		t.Errorf("warm cost = %d, want 6399", got)
	}
}
