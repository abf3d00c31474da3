package vm

import (
	"math"
	"math/bits"

	"github.com/holiman/uint256"

	"github.com/chazu/ember/params"
)

// ---------------------------------------------------------------------------
// Gas accounting

// Constant cost tiers for the jump table. Operations priced by a fork
// take their value from params.GasParams instead.
const (
	GasQuickStep   uint64 = 2
	GasFastestStep uint64 = 3
	GasLowStep     uint64 = 4
	GasFastStep    uint64 = 5
	GasMidStep     uint64 = 8
	GasSlowStep    uint64 = 10
	GasExtStep     uint64 = 20
)

// Gas tracks the budget of a single frame: the limit it started with,
// what remains, and the refund counter accumulated by storage clears.
// Refunds are only credited when the frame commits. The counter is signed
// because a frame may cancel a refund that an earlier committed frame
// earned, leaving a deficit that nets out on merge.
type Gas struct {
	Limit     uint64
	Remaining uint64
	Refund    int64
}

// NewGas returns a budget with the full limit remaining.
func NewGas(limit uint64) Gas {
	return Gas{Limit: limit, Remaining: limit}
}

// Use consumes amount from the remaining budget. It reports false and
// leaves the budget unchanged when amount exceeds it.
func (g *Gas) Use(amount uint64) bool {
	if g.Remaining < amount {
		return false
	}
	g.Remaining -= amount
	return true
}

// Used returns the gas consumed so far.
func (g *Gas) Used() uint64 {
	return g.Limit - g.Remaining
}

// AddRefund increases the refund counter.
func (g *Gas) AddRefund(amount uint64) {
	g.Refund += int64(amount)
}

// SubRefund decreases the refund counter.
func (g *Gas) SubRefund(amount uint64) {
	g.Refund -= int64(amount)
}

// CappedRefund returns the refund that may actually be credited: at most
// used/quotient per EIP-3529 (or the pre-London quotient of 2). A deficit
// left by cancelled refunds credits nothing.
func (g *Gas) CappedRefund(quotient uint64) uint64 {
	if g.Refund <= 0 {
		return 0
	}
	capped := g.Used() / quotient
	if capped < uint64(g.Refund) {
		return capped
	}
	return uint64(g.Refund)
}

// ---------------------------------------------------------------------------
// Overflow-checked arithmetic

// safeAdd returns x+y and whether the addition overflowed.
func safeAdd(x, y uint64) (uint64, bool) {
	sum, carry := bits.Add64(x, y, 0)
	return sum, carry != 0
}

// safeMul returns x*y and whether the multiplication overflowed.
func safeMul(x, y uint64) (uint64, bool) {
	hi, lo := bits.Mul64(x, y)
	return lo, hi != 0
}

// toWordSize returns the number of 32-byte words required to hold size
// bytes, saturating near the top of the uint64 range.
func toWordSize(size uint64) uint64 {
	if size > math.MaxUint64-31 {
		return math.MaxUint64/32 + 1
	}
	return (size + 31) / 32
}

// calcMemSize64 computes offset+length as a uint64 memory bound,
// reporting overflow when either operand or the sum does not fit.
func calcMemSize64(off, length *uint256.Int) (uint64, bool) {
	if !length.IsUint64() {
		return 0, true
	}
	return calcMemSize64WithUint(off, length.Uint64())
}

// calcMemSize64WithUint is calcMemSize64 with a plain uint64 length.
// A zero length never expands memory regardless of offset.
func calcMemSize64WithUint(off *uint256.Int, length64 uint64) (uint64, bool) {
	if length64 == 0 {
		return 0, false
	}
	offset64, overflow := off.Uint64WithOverflow()
	if overflow {
		return 0, true
	}
	val := offset64 + length64
	return val, val < offset64
}

// ---------------------------------------------------------------------------
// Memory expansion

// maxMemorySize bounds addressable memory so the quadratic term cannot
// overflow a uint64.
const maxMemorySize = 0x1FFFFFFFE0

// memoryGasCost returns the cost of growing memory to newMemSize bytes.
// Expansion is word granular: the total price of a memory of w words is
// MemoryGas*w + w*w/QuadCoeffDiv, and only the difference to the already
// paid total is charged. Memory.lastGasCost caches that total.
func memoryGasCost(mem *Memory, newMemSize uint64, gp *params.GasParams) (uint64, error) {
	if newMemSize == 0 {
		return 0, nil
	}
	if newMemSize > maxMemorySize {
		return 0, ErrGasUintOverflow
	}
	newMemSizeWords := toWordSize(newMemSize)
	newMemSize = newMemSizeWords * 32

	if newMemSize > uint64(mem.Len()) {
		square := newMemSizeWords * newMemSizeWords
		linCoef := newMemSizeWords * gp.MemoryGas
		quadCoef := square / gp.QuadCoeffDiv
		newTotalFee := linCoef + quadCoef

		fee := newTotalFee - mem.lastGasCost
		mem.lastGasCost = newTotalFee
		return fee, nil
	}
	return 0, nil
}

// ---------------------------------------------------------------------------
// Call gas forwarding

// callGas computes the gas forwarded to a child call. Under EIP-150 the
// caller retains a 64th of its remaining gas and the requested amount is
// honored only when smaller; earlier forks forward the request verbatim.
func callGas(isEip150 bool, availableGas, base uint64, callCost *uint256.Int) (uint64, error) {
	if isEip150 {
		availableGas = availableGas - base
		gas := availableGas - availableGas/64
		if !callCost.IsUint64() || gas < callCost.Uint64() {
			return gas, nil
		}
	}
	if !callCost.IsUint64() {
		return 0, ErrGasUintOverflow
	}
	return callCost.Uint64(), nil
}
