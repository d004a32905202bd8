package interp

import (
	"github.com/cindervm/cindervm-core/internal/cindervm-core/heap"
	"github.com/cindervm/cindervm-core/internal/cindervm-core/program"
	"github.com/cindervm/cindervm-core/internal/cindervm-core/vmerr"
)

// execPinLocal implements OpPinLocal: it pushes a capability naming one
// of the current frame's own local slots. Because Frame.Locals is
// allocated once at call entry and never reallocated for the frame's
// lifetime (see frame.go), a direct pointer into it stays valid for as
// long as anything holds the Pinned value, satisfying the out-parameter
// contract native calls rely on.
func (it *Interpreter) execPinLocal(fr *Frame, inst program.Instruction) error {
	idx := int(inst.Operand)
	if idx < 0 || idx >= len(fr.Locals) {
		return vmerr.Newf(vmerr.KindIndexOutOfRange, "PinLocal index %d out of range [0,%d)", idx, len(fr.Locals))
	}
	fr.push(heap.PinnedValue(heap.PinnedRef{Target: &fr.Locals[idx]}))
	return nil
}

// execReadPinned implements OpReadPinned: it dereferences a Pinned
// capability on top of the stack, giving bytecode-implemented functions
// the same read side of the out-parameter protocol native handlers get
// through ReadPinned.
func (it *Interpreter) execReadPinned(fr *Frame) error {
	v, ok := fr.pop()
	if !ok {
		return vmerr.New(vmerr.KindStackUnderflow, "ReadPinned needs one operand")
	}
	p, ok := v.AsPinned()
	if !ok {
		return vmerr.Newf(vmerr.KindTypeMismatch, "ReadPinned requires a Pinned operand, got %v", v.Kind())
	}
	fr.push(ReadPinned(p))
	return nil
}

// execWritePinned implements OpWritePinned: it pops the value to write,
// then the Pinned capability to write through, mirroring WritePinned for
// bytecode-implemented functions.
func (it *Interpreter) execWritePinned(fr *Frame) error {
	v, ok := fr.pop()
	if !ok {
		return vmerr.New(vmerr.KindStackUnderflow, "WritePinned needs two operands")
	}
	p, ok := fr.pop()
	if !ok {
		return vmerr.New(vmerr.KindStackUnderflow, "WritePinned needs two operands")
	}
	pin, ok := p.AsPinned()
	if !ok {
		return vmerr.Newf(vmerr.KindTypeMismatch, "WritePinned requires a Pinned operand, got %v", p.Kind())
	}
	WritePinned(pin, v)
	return nil
}

// ReadPinned dereferences a pinned-slot capability. Native handlers use
// this to read the current value of an out-parameter before overwriting
// it.
func ReadPinned(p heap.PinnedRef) heap.Value {
	return *p.Target
}

// WritePinned writes through a pinned-slot capability, completing the
// native out-parameter protocol: a native function that takes an out
// parameter receives a Pinned value and calls this to hand the caller
// its result without a second return value on the operand stack.
func WritePinned(p heap.PinnedRef, v heap.Value) {
	*p.Target = v
}
