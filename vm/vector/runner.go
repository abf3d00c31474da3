package vector

import (
	"errors"
	"fmt"

	"github.com/tliron/commonlog"

	"github.com/chazu/ember/params"
	"github.com/chazu/ember/vm"
)

// Run vectors execute in a fixed context so that the outcome depends on
// nothing but the vector: one origin, one target, one block.
var (
	runOrigin = vm.Address{0x0a, 0x0a}
	runTarget = vm.Address{0x0b, 0x0b}

	runBlock = vm.BlockContext{
		BlockNumber: 1,
		Time:        1,
		GasLimit:    30_000_000,
	}
)

// defaultRunGas bounds run vectors that leave GasLimit unset.
const defaultRunGas = 10_000_000

// Result reports one executed vector. Got and Want are human-readable
// outcome summaries; they are equal exactly when Pass is true.
type Result struct {
	Name string
	Pass bool
	Got  string
	Want string
}

func (r Result) String() string {
	if r.Pass {
		return fmt.Sprintf("%s: ok (%s)", r.Name, r.Got)
	}
	return fmt.Sprintf("%s: FAIL\n  got:  %s\n  want: %s", r.Name, r.Got, r.Want)
}

// Runner executes vectors against the engine under a base configuration.
type Runner struct {
	cfg *params.Config
	log commonlog.Logger
}

// NewRunner returns a runner for the given configuration. A nil config
// selects the defaults.
func NewRunner(cfg *params.Config) *Runner {
	if cfg == nil {
		cfg = params.DefaultConfig()
	}
	return &Runner{
		cfg: cfg,
		log: commonlog.GetLogger("ember.vector"),
	}
}

// Run executes every vector and returns one result per vector, in order.
func (r *Runner) Run(vectors []Vector) []Result {
	results := make([]Result, 0, len(vectors))
	for i := range vectors {
		res := r.RunOne(&vectors[i])
		if res.Pass {
			r.log.Debugf("vector %q: ok", res.Name)
		} else {
			r.log.Errorf("vector %q: got %s, want %s", res.Name, res.Got, res.Want)
		}
		results = append(results, res)
	}
	return results
}

// Failures counts failed results.
func Failures(results []Result) int {
	n := 0
	for _, res := range results {
		if !res.Pass {
			n++
		}
	}
	return n
}

// RunOne executes a single vector.
func (r *Runner) RunOne(v *Vector) Result {
	switch v.Kind {
	case KindValidate:
		return r.runValidate(v)
	case KindRunLegacy, KindRunEOF:
		return r.runExecute(v)
	default:
		return Result{
			Name: v.Name,
			Got:  fmt.Sprintf("unknown vector kind %d", v.Kind),
			Want: "a known vector kind",
		}
	}
}

func (r *Runner) runValidate(v *Vector) Result {
	got := "accepted"
	c, err := vm.ParseContainer(v.Code)
	if err == nil {
		_, err = vm.ValidateContainer(c)
	}
	if err != nil {
		got = "rejected: " + exceptionString(err)
	}

	want := "accepted"
	if !v.Expect.Accepted {
		want = "rejected: " + v.Expect.Exception
	}
	return Result{Name: v.Name, Pass: got == want, Got: got, Want: want}
}

func (r *Runner) runExecute(v *Vector) Result {
	cfg, err := r.vectorConfig(v)
	if err != nil {
		return Result{Name: v.Name, Got: err.Error(), Want: "a known fork name"}
	}

	gasLimit := v.GasLimit
	if gasLimit == 0 {
		gasLimit = defaultRunGas
	}

	host := vm.NewMemoryHost()
	host.SetCode(runTarget, v.Code)

	evm := vm.NewEVM(host, runBlock, vm.TxContext{Origin: runOrigin}, cfg)
	if evm.Rules().IsBerlin {
		host.AccessAccount(runOrigin)
		host.AccessAccount(runTarget)
	}

	ret, leftOver, err := evm.Call(runOrigin, runTarget, v.Input, gasLimit, nil)

	got := summarize(haltString(err), ret, gasLimit-leftOver, v.Expect.CheckGas)
	want := summarize(v.Expect.Halt, v.Expect.Output, v.Expect.GasUsed, v.Expect.CheckGas)
	return Result{Name: v.Name, Pass: got == want, Got: got, Want: want}
}

// vectorConfig resolves the per-vector fork override, falling back to the
// runner's base configuration.
func (r *Runner) vectorConfig(v *Vector) (*params.Config, error) {
	if v.Fork == "" {
		return r.cfg, nil
	}
	fork, err := params.ParseFork(v.Fork)
	if err != nil {
		return nil, err
	}
	return &params.Config{Fork: fork, Gas: params.DefaultGasParams(fork)}, nil
}

func summarize(halt string, output []byte, gasUsed uint64, checkGas bool) string {
	s := fmt.Sprintf("halt=%q output=0x%x", halt, output)
	if checkGas {
		s += fmt.Sprintf(" gas=%d", gasUsed)
	}
	return s
}

// haltString classifies an execution outcome into the stable names used
// by Expect.Halt.
func haltString(err error) string {
	switch {
	case err == nil:
		return "stop"
	case errors.Is(err, vm.ErrExecutionReverted):
		return "revert"
	default:
		return exceptionString(err)
	}
}

// vmSentinels lists every sentinel the engine halts or rejects with.
// Exception strings in vectors are matched against these so that wrapped
// context (section and offset, gas detail) never leaks into the format.
var vmSentinels = []error{
	// Container parsing.
	vm.ErrInvalidMagic,
	vm.ErrInvalidVersion,
	vm.ErrInvalidSectionHeader,
	vm.ErrInvalidSectionCount,
	vm.ErrInvalidTypeEntry,
	vm.ErrTruncatedContainer,
	vm.ErrTrailingBytes,

	// Code validation.
	vm.ErrUndefinedInstruction,
	vm.ErrTruncatedImmediate,
	vm.ErrUnreachableCode,
	vm.ErrStackHeightUnderflow,
	vm.ErrStackHeightOverflow,
	vm.ErrStackHeightMismatch,
	vm.ErrInvalidMaxStackHeight,
	vm.ErrInvalidJumpTarget,
	vm.ErrMissingTerminal,
	vm.ErrInvalidNonReturningFlag,
	vm.ErrInvalidSectionArgument,
	vm.ErrCallfToNonReturning,
	vm.ErrTypeMismatch,

	// Execution.
	vm.ErrOutOfGas,
	vm.ErrStackUnderflow,
	vm.ErrStackOverflow,
	vm.ErrInvalidOpcode,
	vm.ErrInvalidJump,
	vm.ErrCallDepthExceeded,
	vm.ErrInvalidMemoryAccess,
	vm.ErrGasUintOverflow,
	vm.ErrReturnDataOutOfBounds,
	vm.ErrWriteProtection,
	vm.ErrReturnStackExceeded,
	vm.ErrInvalidExtcallTarget,
	vm.ErrInsufficientBalance,
	vm.ErrMaxCodeSizeExceeded,
	vm.ErrMaxInitCodeSizeExceeded,
	vm.ErrInvalidDeployCode,
	vm.ErrCodeStoreOutOfGas,
	vm.ErrContractAddressCollision,
	vm.ErrNonceUintOverflow,
}

// exceptionString reduces an error to its sentinel message when one of
// the engine's sentinels is in its chain, keeping vector expectations
// independent of wrapping detail.
func exceptionString(err error) string {
	for _, s := range vmSentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return err.Error()
}
