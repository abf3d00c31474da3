// Ember CLI - run, validate and disassemble bytecode against the engine
package main

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/holiman/uint256"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/ember/codestore"
	"github.com/chazu/ember/params"
	"github.com/chazu/ember/vm"
	"github.com/chazu/ember/vm/vector"
)

// Ad hoc executions use the same fixed context as the conformance
// runner, so a command line reproduces exactly what a vector pins.
var (
	cliOrigin = vm.Address{0x0a, 0x0a}
	cliTarget = vm.Address{0x0b, 0x0b}

	cliBlock = vm.BlockContext{
		BlockNumber: 1,
		Time:        1,
		GasLimit:    30_000_000,
	}
)

func main() {
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	var code int
	switch args[0] {
	case "run":
		code = cmdRun(args[1:])
	case "validate":
		code = cmdValidate(args[1:])
	case "disasm":
		code = cmdDisasm(args[1:])
	case "vectors":
		code = cmdVectors(args[1:])
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", args[0])
		usage()
		code = 2
	}
	os.Exit(code)
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: ember <command> [options] <code>\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  run       execute bytecode and report how it halted\n")
	fmt.Fprintf(os.Stderr, "  validate  parse and validate a structured container\n")
	fmt.Fprintf(os.Stderr, "  disasm    disassemble bytecode\n")
	fmt.Fprintf(os.Stderr, "  vectors   run conformance vectors\n\n")
	fmt.Fprintf(os.Stderr, "Code arguments accept a file path, \"-\" for stdin, or inline hex text.\n")
	fmt.Fprintf(os.Stderr, "Run \"ember <command> -h\" for command options.\n\n")
	fmt.Fprintf(os.Stderr, "Exit codes: 0 on success, 1 when execution fails, a container is\n")
	fmt.Fprintf(os.Stderr, "rejected or a vector mismatches, 2 on usage errors.\n\n")
	fmt.Fprintf(os.Stderr, "Examples:\n")
	fmt.Fprintf(os.Stderr, "  ember run 60ff60005360016000f3     # returns 0xff\n")
	fmt.Fprintf(os.Stderr, "  ember run -trace -gas 50000 code.hex\n")
	fmt.Fprintf(os.Stderr, "  ember validate -cache verdicts.db container.bin\n")
	fmt.Fprintf(os.Stderr, "  ember vectors -file suite.cbor\n")
}

// ---------------------------------------------------------------------------
// run

func cmdRun(args []string) int {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	gas := fs.Uint64("gas", 10_000_000, "gas limit")
	input := fs.String("input", "", "call data as hex text")
	value := fs.String("value", "0", "value sent with the call (decimal, or hex with 0x)")
	forkName := fs.String("fork", "", "fork to run under (default: ember.toml, else osaka)")
	trace := fs.Bool("trace", false, "log every executed instruction")
	verbosity := fs.Int("v", 0, "log verbosity")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: ember run [options] <code>\n")
		return 2
	}
	if *trace && *verbosity < 2 {
		*verbosity = 2
	}
	commonlog.Configure(*verbosity, nil)

	cfg, err := resolveConfig(*forkName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	code, err := resolveCode(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	callData, err := decodeHexFlag(*input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: bad -input: %v\n", err)
		return 2
	}
	val, err := parseValue(*value)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: bad -value: %v\n", err)
		return 2
	}

	host := vm.NewMemoryHost()
	host.SetCode(cliTarget, code)
	if !val.IsZero() {
		host.SetBalance(cliOrigin, val)
	}

	evm := vm.NewEVM(host, cliBlock, vm.TxContext{Origin: cliOrigin}, cfg)
	if *trace {
		evm.SetTracer(vm.NewLogTracer())
	}
	if evm.Rules().IsBerlin {
		host.AccessAccount(cliOrigin)
		host.AccessAccount(cliTarget)
	}

	ret, leftOver, err := evm.Call(cliOrigin, cliTarget, callData, *gas, val)

	fmt.Printf("halt:     %s\n", haltStatus(err))
	fmt.Printf("output:   0x%x\n", ret)
	fmt.Printf("gas used: %d\n", *gas-leftOver)
	fmt.Printf("refund:   %d\n", evm.Refund())
	if err != nil {
		return 1
	}
	return 0
}

func haltStatus(err error) string {
	switch {
	case err == nil:
		return "stop"
	case errors.Is(err, vm.ErrExecutionReverted):
		return "revert"
	default:
		return "exception: " + err.Error()
	}
}

// ---------------------------------------------------------------------------
// validate

func cmdValidate(args []string) int {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	cachePath := fs.String("cache", "", "SQLite verdict cache to consult and update")
	verbosity := fs.Int("v", 0, "log verbosity")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: ember validate [options] <code>\n")
		return 2
	}
	commonlog.Configure(*verbosity, nil)

	code, err := resolveCode(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	var store *codestore.Store
	if *cachePath != "" {
		store, err = codestore.Open(*cachePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		defer store.Close()
	}

	hash := vm.Keccak256(code)
	if store != nil {
		if v, err := store.Get(hash); err == nil {
			if v.Valid {
				fmt.Println("accepted (cached)")
				return 0
			}
			fmt.Printf("rejected: %s (cached)\n", v.Exception)
			return 1
		} else if !errors.Is(err, codestore.ErrVerdictNotFound) {
			fmt.Fprintf(os.Stderr, "Warning: verdict cache: %v\n", err)
		}
	}

	c, parseErr := vm.ParseContainer(code)
	verr := parseErr
	if verr == nil {
		_, verr = vm.ValidateContainer(c)
	}

	if store != nil {
		verdict := &codestore.Verdict{Valid: verr == nil, Fork: params.Osaka.String()}
		if verr != nil {
			verdict.Exception = sentinelOf(verr).Error()
		}
		if err := store.Put(hash, verdict); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: verdict cache: %v\n", err)
		}
	}

	if verr != nil {
		fmt.Printf("rejected: %v\n", verr)
		return 1
	}
	fmt.Printf("accepted: %d code section(s), %d data byte(s)\n", len(c.Code), len(c.Data))
	return 0
}

// sentinelOf strips positional detail from a rejection, leaving only the
// stable exception message.
func sentinelOf(err error) error {
	var ve *vm.ValidationError
	if errors.As(err, &ve) {
		return ve.Unwrap()
	}
	for u := err; u != nil; u = errors.Unwrap(u) {
		err = u
	}
	return err
}

// ---------------------------------------------------------------------------
// disasm

func cmdDisasm(args []string) int {
	fs := flag.NewFlagSet("disasm", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: ember disasm <code>\n")
		return 2
	}
	raw, err := resolveCode(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	code, err := vm.ParseCode(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Print(vm.Disassemble(code))
	return 0
}

// ---------------------------------------------------------------------------
// vectors

func cmdVectors(args []string) int {
	fs := flag.NewFlagSet("vectors", flag.ExitOnError)
	file := fs.String("file", "", "CBOR vector file (default: built-in vectors)")
	forkName := fs.String("fork", "", "base fork for vectors that name none")
	verbosity := fs.Int("v", 0, "log verbosity")
	fs.Parse(args)

	commonlog.Configure(*verbosity, nil)

	cfg, err := resolveConfig(*forkName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	vectors := vector.Builtin()
	if *file != "" {
		vf, err := vector.Load(*file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		vectors = vf.Vectors
	}

	results := vector.NewRunner(cfg).Run(vectors)
	for _, res := range results {
		fmt.Println(res.String())
	}
	failed := vector.Failures(results)
	fmt.Printf("%d/%d passed\n", len(results)-failed, len(results))
	if failed > 0 {
		return 1
	}
	return 0
}

// ---------------------------------------------------------------------------
// Shared helpers

// resolveConfig loads ember.toml from the working directory unless a fork
// is named explicitly, which selects that fork's default gas schedule.
func resolveConfig(forkName string) (*params.Config, error) {
	if forkName != "" {
		f, err := params.ParseFork(forkName)
		if err != nil {
			return nil, err
		}
		return &params.Config{Fork: f, Gas: params.DefaultGasParams(f)}, nil
	}
	return params.LoadDir(".")
}

// resolveCode loads bytecode from a file path, "-" for stdin, or inline
// hex text. File contents may be hex text or raw binary.
func resolveCode(arg string) ([]byte, error) {
	if arg == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return codeBytes(data), nil
	}
	if _, err := os.Stat(arg); err == nil {
		data, err := os.ReadFile(arg)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", arg, err)
		}
		return codeBytes(data), nil
	}
	if b, ok := tryHex([]byte(arg)); ok {
		return b, nil
	}
	return nil, fmt.Errorf("%s is neither a file nor hex text", arg)
}

func codeBytes(data []byte) []byte {
	if b, ok := tryHex(data); ok {
		return b
	}
	return data
}

// tryHex decodes data as hex text, tolerating whitespace and an 0x
// prefix. It reports false when the content is not plain hex.
func tryHex(data []byte) ([]byte, bool) {
	s := strings.TrimSpace(string(data))
	s = strings.TrimPrefix(s, "0x")
	s = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, s)
	if len(s) == 0 || len(s)%2 != 0 {
		return nil, false
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, false
	}
	return b, true
}

func decodeHexFlag(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	b, ok := tryHex([]byte(s))
	if !ok {
		return nil, fmt.Errorf("not hex text: %q", s)
	}
	return b, nil
}

func parseValue(s string) (*uint256.Int, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return uint256.FromHex(s)
	}
	return uint256.FromDecimal(s)
}
