package vm

import (
	"fmt"

	"github.com/chazu/ember/params"
)

// ---------------------------------------------------------------------------
// Interpreter

// Interpreter runs the instructions of one frame against the dispatch
// table of the active revision. It owns no state besides the tables; all
// mutable execution state lives in the frame.
type Interpreter struct {
	evm *EVM

	// table dispatches legacy code. tableStructured dispatches validated
	// container code and is only built once containers activate.
	table           *JumpTable
	tableStructured *JumpTable
}

func newInterpreter(evm *EVM, rules params.Rules, gp *params.GasParams) *Interpreter {
	var tbl JumpTable
	switch {
	case rules.IsCancun:
		tbl = newCancunInstructionSet(gp)
	case rules.IsShanghai:
		tbl = newShanghaiInstructionSet(gp)
	case rules.IsLondon:
		tbl = newLondonInstructionSet(gp)
	case rules.IsBerlin:
		tbl = newBerlinInstructionSet(gp)
	case rules.IsIstanbul:
		tbl = newIstanbulInstructionSet(gp)
	case rules.IsConstantinople:
		tbl = newConstantinopleInstructionSet(gp)
	case rules.IsByzantium:
		tbl = newByzantiumInstructionSet(gp)
	case rules.IsHomestead:
		tbl = newHomesteadInstructionSet(gp)
	default:
		tbl = newFrontierInstructionSet(gp)
	}
	it := &Interpreter{evm: evm, table: &tbl}
	if rules.IsOsaka {
		eof := newStructuredInstructionSet(gp)
		it.tableStructured = &eof
	}
	return it
}

// Run executes the frame from its saved program counter until it halts,
// fails, or yields a nested call request.
//
// The returned error classifies the outcome: nil is a clean halt (STOP,
// RETURN, RETF chain ending, SELFDESTRUCT), ErrExecutionReverted is an
// explicit revert carrying return data, errYieldToken hands a pending
// call to the coordinator with the frame ready to resume, and anything
// else is fatal and forfeits the frame's remaining gas.
func (it *Interpreter) Run(frame *Frame) ([]byte, error) {
	table := it.table
	if frame.code.IsEOF() {
		table = it.tableStructured
	}

	var (
		pc     = frame.pc
		evm    = it.evm
		tracer = evm.tracer

		res []byte
		err error
	)

	for {
		op := frame.opAt(pc)
		operation := table[op]

		if sLen := frame.stack.Len(); sLen < operation.minStack {
			err = underflowErr(op, sLen, operation.minStack)
			break
		} else if sLen > operation.maxStack {
			err = overflowErr(op, sLen)
			break
		}

		cost := operation.constantGas
		if !frame.UseGas(cost) {
			err = ErrOutOfGas
			break
		}

		var memorySize uint64
		if operation.dynamicGas != nil {
			// All memory expansion is charged in 32-byte words.
			if operation.memorySize != nil {
				memSize, overflow := operation.memorySize(frame.stack)
				if overflow {
					err = ErrGasUintOverflow
					break
				}
				if memorySize, overflow = safeMul(toWordSize(memSize), 32); overflow {
					err = ErrGasUintOverflow
					break
				}
			}
			var dynamicCost uint64
			if dynamicCost, err = operation.dynamicGas(evm, frame, memorySize); err != nil {
				break
			}
			cost += dynamicCost
			if !frame.UseGas(dynamicCost) {
				err = ErrOutOfGas
				break
			}
			if memorySize > 0 {
				frame.memory.Resize(memorySize)
			}
		}

		if tracer != nil {
			tracer.CaptureState(frame, pc, op, cost)
		}

		res, err = operation.execute(&pc, evm, frame)
		if err != nil {
			break
		}
		pc++
	}

	switch err {
	case errStopToken:
		err = nil
	case errYieldToken:
		// Resume past the call instruction once the child settles.
		frame.pc = pc + 1
	}
	return res, err
}

func underflowErr(op Opcode, have, want int) error {
	return &stackBoundsError{op: op, have: have, want: want, underflow: true}
}

func overflowErr(op Opcode, have int) error {
	return &stackBoundsError{op: op, have: have, want: StackLimit, underflow: false}
}

// stackBoundsError decorates a stack bounds violation with the opcode and
// depths involved while staying matchable via errors.Is.
type stackBoundsError struct {
	op        Opcode
	have      int
	want      int
	underflow bool
}

func (e *stackBoundsError) Error() string {
	if e.underflow {
		return fmt.Sprintf("stack underflow (%s): have %d, want %d", e.op, e.have, e.want)
	}
	return fmt.Sprintf("stack limit reached (%s): have %d", e.op, e.have)
}

func (e *stackBoundsError) Unwrap() error {
	if e.underflow {
		return ErrStackUnderflow
	}
	return ErrStackOverflow
}
