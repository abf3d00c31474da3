package vm

import (
	"github.com/tliron/commonlog"
)

// ---------------------------------------------------------------------------
// Execution tracing
// ---------------------------------------------------------------------------

// Tracer observes frame execution. CaptureState fires before each
// instruction executes, after its full gas charge (constant plus dynamic)
// has been taken, so Remaining reflects the budget the instruction runs
// with. CaptureEnter and CaptureExit bracket each frame, including nested
// call and create frames.
//
// A nil Tracer on the EVM disables all capture with no per-instruction
// overhead beyond a nil check.
type Tracer interface {
	CaptureEnter(frame *Frame)
	CaptureState(frame *Frame, pc uint64, op Opcode, cost uint64)
	CaptureExit(frame *Frame, output []byte, err error)
}

// LogTracer writes one log line per instruction and per frame boundary.
type LogTracer struct {
	log commonlog.Logger
}

// NewLogTracer returns a tracer logging to the "ember.vm.trace" logger.
func NewLogTracer() *LogTracer {
	return &LogTracer{log: commonlog.GetLogger("ember.vm.trace")}
}

func (t *LogTracer) CaptureEnter(frame *Frame) {
	t.log.Debugf("enter depth=%d addr=%s gas=%d input=%d bytes",
		frame.depth, frame.address.String(), frame.gas.Remaining, len(frame.input))
}

func (t *LogTracer) CaptureState(frame *Frame, pc uint64, op Opcode, cost uint64) {
	t.log.Debugf("depth=%d section=%d pc=%d op=%s cost=%d gas=%d stack=%d mem=%d",
		frame.depth, frame.section, pc, op.String(), cost,
		frame.gas.Remaining, frame.stack.Len(), frame.memory.Len())
}

func (t *LogTracer) CaptureExit(frame *Frame, output []byte, err error) {
	if err != nil {
		t.log.Debugf("exit depth=%d addr=%s gas=%d err=%v",
			frame.depth, frame.address.String(), frame.gas.Remaining, err)
		return
	}
	t.log.Debugf("exit depth=%d addr=%s gas=%d output=%d bytes",
		frame.depth, frame.address.String(), frame.gas.Remaining, len(output))
}
