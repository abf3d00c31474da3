package params

// GasParams bundles every tunable gas value consulted at runtime. The
// jump tables are built from a GasParams instance, so a private chain
// can reprice operations without recompiling; DefaultGasParams seeds
// the mainnet values for a fork.
type GasParams struct {
	ExpGas           uint64 `toml:"exp"`
	ExpByteGas       uint64 `toml:"exp-byte"`
	Keccak256Gas     uint64 `toml:"keccak256"`
	Keccak256WordGas uint64 `toml:"keccak256-word"`
	JumpdestGas      uint64 `toml:"jumpdest"`
	LogGas           uint64 `toml:"log"`
	LogTopicGas      uint64 `toml:"log-topic"`
	LogDataGas       uint64 `toml:"log-data"`

	MemoryGas    uint64 `toml:"memory"`
	QuadCoeffDiv uint64 `toml:"quad-coeff-div"`
	CopyGas      uint64 `toml:"copy"`

	SloadGas              uint64 `toml:"sload"`
	WarmStorageReadCost   uint64 `toml:"warm-storage-read"`
	ColdSloadCost         uint64 `toml:"cold-sload"`
	ColdAccountAccessCost uint64 `toml:"cold-account-access"`

	SstoreSetGas      uint64 `toml:"sstore-set"`
	SstoreResetGas    uint64 `toml:"sstore-reset"`
	SstoreClearRefund uint64 `toml:"sstore-clear-refund"`
	SstoreSentryGas   uint64 `toml:"sstore-sentry"`

	BalanceGas      uint64 `toml:"balance"`
	ExtcodeSizeGas  uint64 `toml:"extcodesize"`
	ExtcodeCopyBase uint64 `toml:"extcodecopy-base"`
	ExtcodeHashGas  uint64 `toml:"extcodehash"`

	CallGas              uint64 `toml:"call"`
	CallValueTransferGas uint64 `toml:"call-value-transfer"`
	CallNewAccountGas    uint64 `toml:"call-new-account"`
	CallStipend          uint64 `toml:"call-stipend"`
	MinRetainedGas       uint64 `toml:"min-retained"`
	MinCalleeGas         uint64 `toml:"min-callee"`

	CreateGas       uint64 `toml:"create"`
	CreateDataGas   uint64 `toml:"create-data"`
	InitcodeWordGas uint64 `toml:"initcode-word"`
	MaxCodeSize     uint64 `toml:"max-code-size"`
	MaxInitCodeSize uint64 `toml:"max-init-code-size"`

	SelfdestructGas         uint64 `toml:"selfdestruct"`
	SelfdestructRefundGas   uint64 `toml:"selfdestruct-refund"`
	CreateBySelfdestructGas uint64 `toml:"create-by-selfdestruct"`

	TransientStorageGas uint64 `toml:"transient-storage"`

	RefundQuotient uint64 `toml:"refund-quotient"`
}

// DefaultGasParams returns the mainnet gas schedule for a fork. Values
// repriced by intermediate forks are resolved here so the rest of the
// engine never branches on fork for a price.
func DefaultGasParams(f Fork) *GasParams {
	r := MakeRules(f)
	gp := &GasParams{
		ExpGas:           ExpGas,
		ExpByteGas:       ExpByteFrontier,
		Keccak256Gas:     Keccak256Gas,
		Keccak256WordGas: Keccak256WordGas,
		JumpdestGas:      JumpdestGas,
		LogGas:           LogGas,
		LogTopicGas:      LogTopicGas,
		LogDataGas:       LogDataGas,

		MemoryGas:    MemoryGas,
		QuadCoeffDiv: QuadCoeffDiv,
		CopyGas:      CopyGas,

		SloadGas:              SloadGasFrontier,
		WarmStorageReadCost:   WarmStorageReadCost,
		ColdSloadCost:         ColdSloadCost,
		ColdAccountAccessCost: ColdAccountAccessCost,

		SstoreSetGas:      SstoreSetGas,
		SstoreResetGas:    SstoreResetGas,
		SstoreClearRefund: SstoreClearRefund,
		SstoreSentryGas:   SstoreSentryGasEIP2200,

		BalanceGas:      BalanceGasFrontier,
		ExtcodeSizeGas:  ExtcodeSizeGasFrontier,
		ExtcodeCopyBase: ExtcodeCopyBaseFrontier,
		ExtcodeHashGas:  ExtcodeHashGasConstantinople,

		CallGas:              CallGasFrontier,
		CallValueTransferGas: CallValueTransferGas,
		CallNewAccountGas:    CallNewAccountGas,
		CallStipend:          CallStipend,
		MinRetainedGas:       MinRetainedGas,
		MinCalleeGas:         MinCalleeGas,

		CreateGas:       CreateGas,
		CreateDataGas:   CreateDataGas,
		InitcodeWordGas: InitcodeWordGas,
		MaxCodeSize:     MaxCodeSize,
		MaxInitCodeSize: MaxInitCodeSize,

		SelfdestructRefundGas:   SelfdestructRefundGas,
		CreateBySelfdestructGas: CreateBySelfdestructGas,

		TransientStorageGas: TransientStorageGas,

		RefundQuotient: RefundQuotient,
	}
	if r.IsEIP158 {
		gp.ExpByteGas = ExpByteEIP160
	}
	if r.IsEIP150 {
		gp.SloadGas = SloadGasEIP150
		gp.BalanceGas = BalanceGasEIP150
		gp.ExtcodeSizeGas = ExtcodeSizeGasEIP150
		gp.ExtcodeCopyBase = ExtcodeCopyBaseEIP150
		gp.CallGas = CallGasEIP150
		gp.SelfdestructGas = SelfdestructGasEIP150
	}
	if r.IsIstanbul {
		gp.SloadGas = SloadGasEIP1884
		gp.BalanceGas = BalanceGasEIP1884
		gp.ExtcodeHashGas = ExtcodeHashGasEIP1884
	}
	if r.IsBerlin {
		gp.SloadGas = WarmStorageReadCost
	}
	if r.IsLondon {
		gp.SstoreClearRefund = SstoreClearRefundEIP3529
		gp.RefundQuotient = RefundQuotientEIP3529
	}
	return gp
}
