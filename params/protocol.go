package params

// Maximum nesting of call frames.
const CallCreateDepth uint64 = 1024

// Code size ceilings: EIP-170 for deployed code, EIP-3860 for initcode.
const (
	MaxCodeSize     = 24576
	MaxInitCodeSize = 2 * MaxCodeSize
)

// Gas costs shared by every fork. Values that were repriced by a fork
// carry the repricing EIP in their name; the jump tables select the
// right one.
const (
	ExpGas           uint64 = 10
	ExpByteFrontier  uint64 = 10
	ExpByteEIP160    uint64 = 50
	Keccak256Gas     uint64 = 30
	Keccak256WordGas uint64 = 6
	JumpdestGas      uint64 = 1
	LogGas           uint64 = 375
	LogTopicGas      uint64 = 375
	LogDataGas       uint64 = 8

	// Memory expansion is MemoryGas per word plus words squared over
	// QuadCoeffDiv. Copy operations pay CopyGas per word moved.
	MemoryGas    uint64 = 3
	QuadCoeffDiv uint64 = 512
	CopyGas      uint64 = 3

	SloadGasFrontier uint64 = 50
	SloadGasEIP150   uint64 = 200
	SloadGasEIP1884  uint64 = 800

	// EIP-2929 access list pricing.
	WarmStorageReadCost   uint64 = 100
	ColdSloadCost         uint64 = 2100
	ColdAccountAccessCost uint64 = 2600

	SstoreSetGas             uint64 = 20000
	SstoreResetGas           uint64 = 5000
	SstoreClearRefund        uint64 = 15000
	SstoreClearRefundEIP3529 uint64 = 4800
	SstoreSentryGasEIP2200   uint64 = 2300

	BalanceGasFrontier           uint64 = 20
	BalanceGasEIP150             uint64 = 400
	BalanceGasEIP1884            uint64 = 700
	ExtcodeSizeGasFrontier       uint64 = 20
	ExtcodeSizeGasEIP150         uint64 = 700
	ExtcodeCopyBaseFrontier      uint64 = 20
	ExtcodeCopyBaseEIP150        uint64 = 700
	ExtcodeHashGasConstantinople uint64 = 400
	ExtcodeHashGasEIP1884        uint64 = 700

	CallGasFrontier      uint64 = 40
	CallGasEIP150        uint64 = 700
	CallValueTransferGas uint64 = 9000
	CallNewAccountGas    uint64 = 25000
	CallStipend          uint64 = 2300

	// CreateDataGas is charged per byte of deployed code,
	// InitcodeWordGas per word of initcode under EIP-3860.
	CreateGas       uint64 = 32000
	CreateDataGas   uint64 = 200
	InitcodeWordGas uint64 = 2

	SelfdestructGasEIP150   uint64 = 5000
	SelfdestructRefundGas   uint64 = 24000
	CreateBySelfdestructGas uint64 = 25000

	// TLOAD and TSTORE, EIP-1153.
	TransientStorageGas uint64 = 100

	// EIP-7069 frameless call pricing: callers always retain a 64th of
	// remaining gas but at least MinRetainedGas, and callees receive at
	// least MinCalleeGas or the call fails lightly.
	MinRetainedGas uint64 = 5000
	MinCalleeGas   uint64 = 2300

	// Refund cap divisors applied when a frame commits.
	RefundQuotient        uint64 = 2
	RefundQuotientEIP3529 uint64 = 5
)
