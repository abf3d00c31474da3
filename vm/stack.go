package vm

import (
	"sync"

	"github.com/holiman/uint256"
)

// StackLimit is the maximum operand stack depth.
const StackLimit = 1024

// ---------------------------------------------------------------------------
// Operand stack
// ---------------------------------------------------------------------------

// Stack is the 256-bit operand stack of one frame. Bounds are enforced by
// the interpreter loop before each instruction executes; the accessors
// themselves are unchecked for speed.
type Stack struct {
	data []uint256.Int
}

var stackPool = sync.Pool{
	New: func() interface{} {
		return &Stack{data: make([]uint256.Int, 0, 16)}
	},
}

// newstack fetches a cleared stack from the pool.
func newstack() *Stack {
	return stackPool.Get().(*Stack)
}

// returnStack clears the stack and returns it to the pool.
func returnStack(s *Stack) {
	s.data = s.data[:0]
	stackPool.Put(s)
}

// Data returns the backing slice, bottom first.
func (st *Stack) Data() []uint256.Int {
	return st.data
}

// Len returns the current depth.
func (st *Stack) Len() int {
	return len(st.data)
}

func (st *Stack) push(d *uint256.Int) {
	st.data = append(st.data, *d)
}

func (st *Stack) pop() (ret uint256.Int) {
	ret = st.data[len(st.data)-1]
	st.data = st.data[:len(st.data)-1]
	return
}

// peek returns the top element without removing it.
func (st *Stack) peek() *uint256.Int {
	return &st.data[len(st.data)-1]
}

// Back returns the n'th item from the top (Back(0) == peek).
func (st *Stack) Back(n int) *uint256.Int {
	return &st.data[len(st.data)-n-1]
}

// swap exchanges the top with the n'th item below it.
func (st *Stack) swap(n int) {
	st.data[len(st.data)-n-1], st.data[len(st.data)-1] = st.data[len(st.data)-1], st.data[len(st.data)-n-1]
}

// dup pushes a copy of the n'th item from the top (dup(1) copies the top).
func (st *Stack) dup(n int) {
	st.push(&st.data[len(st.data)-n])
}

// exchange swaps the items a and b positions below the top. Used by the
// EXCHANGE instruction, which never touches the top item itself.
func (st *Stack) exchange(a, b int) {
	st.data[len(st.data)-a-1], st.data[len(st.data)-b-1] = st.data[len(st.data)-b-1], st.data[len(st.data)-a-1]
}
