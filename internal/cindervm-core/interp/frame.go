// Package interp implements the frame-based stack interpreter (C3): the
// opcode dispatch loop, typed arithmetic, object and array operations,
// and static/virtual call handling, including the pinned-output call
// protocol. It is grounded on the teacher's VMState/ExecuteInstruction
// dispatch, generalized from a single fixed-width field-arithmetic VM to
// one whose operand Kind decides both its width and its opcode
// semantics at run time.
package interp

import (
	"github.com/cindervm/cindervm-core/internal/cindervm-core/heap"
	"github.com/cindervm/cindervm-core/internal/cindervm-core/program"
)

// Frame is one activation record: a fixed-length locals vector sized to
// the callee's TotalSlots, a growable operand stack, and the bytecode
// position. Locals is fixed-length and never reallocated for the
// frame's lifetime, which is what makes a Pinned value's raw *heap.Value
// pointer into it safe to hold (see heap.PinnedRef).
type Frame struct {
	Fn       *program.Function
	Locals   []heap.Value
	Operands []heap.Value
	IP       int
}

// newFrame allocates fr's locals vector and zero-initializes the extra
// locals beyond the parameters to the zero value of their declared type
// (Call protocol step 4) — the parameter slots are filled in by the
// caller immediately after, so their zero values here are never
// observed. h provides the heap an extra local's zero value may need to
// allocate (an empty String, for instance).
func newFrame(fn *program.Function, h *heap.Heap) *Frame {
	locals := make([]heap.Value, fn.TotalSlots())
	base := len(fn.Params)
	for i, t := range fn.LocalTypes {
		locals[base+i] = heap.ZeroValueFor(t, h)
	}
	return &Frame{
		Fn:     fn,
		Locals: locals,
	}
}

func (f *Frame) push(v heap.Value) {
	f.Operands = append(f.Operands, v)
}

func (f *Frame) pop() (heap.Value, bool) {
	n := len(f.Operands)
	if n == 0 {
		return heap.Value{}, false
	}
	v := f.Operands[n-1]
	f.Operands = f.Operands[:n-1]
	return v, true
}

func (f *Frame) peek() (heap.Value, bool) {
	n := len(f.Operands)
	if n == 0 {
		return heap.Value{}, false
	}
	return f.Operands[n-1], true
}
