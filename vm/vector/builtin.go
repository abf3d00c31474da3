package vector

import "encoding/hex"

// Builtin returns the vectors every build of the engine must pass. The
// validation cases pin the non-returning rules at the heart of the
// container format; the run cases pin halt classification for legacy and
// structured code.
func Builtin() []Vector {
	return []Vector{
		{
			// Section 0 is declared non-returning yet consists of a
			// JUMPF, which only returning code may use here.
			Name: "validate/jumpf-in-non-returning-section",
			Kind: KindValidate,
			Code: mustHex("ef000101000802000200030001040000000080000000000000e50001e4"),
			Expect: Expect{
				Exception: "invalid non-returning flag",
			},
		},
		{
			// Same shape with a PUSH0 ahead of the JUMPF: the verdict
			// must not depend on the instruction's position or on the
			// stack height it is reached with.
			Name: "validate/jumpf-in-non-returning-section-after-push",
			Kind: KindValidate,
			Code: mustHex("ef0001010008020002000400010400000000800000000000005fe50001e4"),
			Expect: Expect{
				Exception: "invalid non-returning flag",
			},
		},
		{
			// Minimal accepted container: one non-returning section
			// holding a single STOP.
			Name: "validate/minimal-stop-container",
			Kind: KindValidate,
			Code: mustHex("ef00010100040200010001040000000080000000"),
			Expect: Expect{
				Accepted: true,
			},
		},
		{
			// PUSH1 00 JUMP: offset 0 holds the PUSH1 itself, not a
			// JUMPDEST, so the jump is fatal and forfeits all gas.
			Name:     "run/legacy-jump-to-push-immediate",
			Kind:     KindRunLegacy,
			Code:     mustHex("600056"),
			GasLimit: 100_000,
			Expect: Expect{
				Halt:     "invalid jump destination",
				GasUsed:  100_000,
				CheckGas: true,
			},
		},
		{
			// PUSH1 ff PUSH1 00 MSTORE8 PUSH1 01 PUSH1 00 RETURN:
			// returns the single byte 0xff.
			Name:     "run/legacy-return-single-byte",
			Kind:     KindRunLegacy,
			Code:     mustHex("60ff60005360016000f3"),
			GasLimit: 100_000,
			Expect: Expect{
				Halt:   "stop",
				Output: []byte{0xff},
			},
		},
		{
			// The minimal container again, executed this time. STOP
			// costs nothing, so the whole budget survives.
			Name:     "run/structured-stop-container",
			Kind:     KindRunEOF,
			Code:     mustHex("ef00010100040200010001040000000080000000"),
			GasLimit: 100_000,
			Expect: Expect{
				Halt:     "stop",
				CheckGas: true,
			},
		},
	}
}

func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic("vector: bad builtin hex: " + err.Error())
	}
	return b
}
