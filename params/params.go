// Package params holds fork schedules, protocol gas constants and the
// TOML-loadable engine configuration.
package params

import (
	"fmt"
	"strings"
)

// Fork identifies a protocol revision. Later forks include all behavior
// of earlier ones.
type Fork int

// The supported revisions, oldest first.
const (
	Frontier Fork = iota
	Homestead
	TangerineWhistle // EIP-150 gas repricing
	SpuriousDragon   // EIP-158 empty-account rules
	Byzantium
	Constantinople
	Istanbul
	Berlin // EIP-2929 warm/cold access costs
	London // EIP-3529 refund reduction, EIP-3541 0xEF deploy ban
	Merge
	Shanghai // EIP-3855 PUSH0, EIP-3860 initcode metering
	Cancun   // EIP-1153 transient storage, EIP-5656 MCOPY, EIP-4844 blob opcodes
	Osaka    // EOF structured containers
)

var forkNames = map[Fork]string{
	Frontier:         "frontier",
	Homestead:        "homestead",
	TangerineWhistle: "tangerine",
	SpuriousDragon:   "spurious",
	Byzantium:        "byzantium",
	Constantinople:   "constantinople",
	Istanbul:         "istanbul",
	Berlin:           "berlin",
	London:           "london",
	Merge:            "merge",
	Shanghai:         "shanghai",
	Cancun:           "cancun",
	Osaka:            "osaka",
}

// String returns the lowercase fork name.
func (f Fork) String() string {
	if name, ok := forkNames[f]; ok {
		return name
	}
	return fmt.Sprintf("fork(%d)", int(f))
}

// ParseFork resolves a fork by name, case-insensitively.
func ParseFork(name string) (Fork, error) {
	want := strings.ToLower(strings.TrimSpace(name))
	for f, n := range forkNames {
		if n == want {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown fork %q", name)
}

// Rules is the flattened view of a fork consulted on hot paths.
type Rules struct {
	Fork             Fork
	IsHomestead      bool
	IsEIP150         bool
	IsEIP158         bool
	IsByzantium      bool
	IsConstantinople bool
	IsIstanbul       bool
	IsBerlin         bool
	IsLondon         bool
	IsMerge          bool
	IsShanghai       bool
	IsCancun         bool
	IsOsaka          bool
}

// MakeRules expands a fork into its rule set.
func MakeRules(f Fork) Rules {
	return Rules{
		Fork:             f,
		IsHomestead:      f >= Homestead,
		IsEIP150:         f >= TangerineWhistle,
		IsEIP158:         f >= SpuriousDragon,
		IsByzantium:      f >= Byzantium,
		IsConstantinople: f >= Constantinople,
		IsIstanbul:       f >= Istanbul,
		IsBerlin:         f >= Berlin,
		IsLondon:         f >= London,
		IsMerge:          f >= Merge,
		IsShanghai:       f >= Shanghai,
		IsCancun:         f >= Cancun,
		IsOsaka:          f >= Osaka,
	}
}
