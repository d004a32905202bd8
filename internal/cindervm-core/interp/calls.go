package interp

import (
	"github.com/cindervm/cindervm-core/internal/cindervm-core/heap"
	"github.com/cindervm/cindervm-core/internal/cindervm-core/program"
	"github.com/cindervm/cindervm-core/internal/cindervm-core/vmerr"
)

// execCall handles CallStatic and CallVirtual. Calling convention: a
// caller pushes its arguments in declaration order; for an instance
// method, the receiver is pushed last, so it is the first value popped
// here, before the remaining arguments (which come off the stack in
// reverse declaration order, last argument on top).
func (it *Interpreter) execCall(fr *Frame, inst program.Instruction) error {
	switch inst.Op {
	case program.OpCallStatic:
		idx := int(inst.Operand)
		if idx < 0 || idx >= len(it.prog.Functions) {
			return vmerr.Newf(vmerr.KindIndexOutOfRange, "CallStatic function index %d out of range [0,%d)", idx, len(it.prog.Functions))
		}
		fn := it.prog.Functions[idx]
		args, err := popArgs(fr, len(fn.Params))
		if err != nil {
			return err
		}
		result, ierr := it.Invoke(fn, args)
		if ierr != nil {
			return ierr
		}
		fr.push(result)
		return nil

	case program.OpCallVirtual:
		slot := int(inst.Operand)
		classIdx := int(inst.Operand2)
		if classIdx < 0 || classIdx >= len(it.prog.Classes) {
			return vmerr.Newf(vmerr.KindIndexOutOfRange, "CallVirtual static class index %d out of range [0,%d)", classIdx, len(it.prog.Classes))
		}
		staticClass := it.prog.Classes[classIdx]

		recv, ok := fr.pop()
		if !ok {
			return vmerr.New(vmerr.KindStackUnderflow, "CallVirtual needs a receiver")
		}
		obj, err := requireObject(recv)
		if err != nil {
			return err
		}
		if !obj.Class.IsSubclassOf(staticClass) {
			return vmerr.Newf(vmerr.KindTypeMismatch, "receiver of class %s is not a %s", obj.Class.Name, staticClass.Name)
		}

		fn, ok := it.prog.VTableLookup(obj.Class, slot)
		if !ok {
			return vmerr.Newf(vmerr.KindUnresolvedSymbol, "no method occupies virtual slot %d on class %s", slot, obj.Class.Name)
		}
		if len(fn.Params) == 0 {
			return vmerr.Newf(vmerr.KindInternal, "virtual method %s declares no receiver parameter", fn.QualifiedName)
		}

		args, err := popArgs(fr, len(fn.Params)-1)
		if err != nil {
			return err
		}
		args = append([]heap.Value{recv}, args...)

		result, ierr := it.Invoke(fn, args)
		if ierr != nil {
			return ierr
		}
		fr.push(result)
		return nil

	default:
		return vmerr.Newf(vmerr.KindInternal, "execCall called with non-call opcode %v", inst.Op)
	}
}

// popArgs pops n values off fr's operand stack, returning them in
// declaration order (the reverse of pop order, since the last-declared
// argument is pushed last and therefore popped first).
func popArgs(fr *Frame, n int) ([]heap.Value, error) {
	args := make([]heap.Value, n)
	for i := n - 1; i >= 0; i-- {
		v, ok := fr.pop()
		if !ok {
			return nil, vmerr.Newf(vmerr.KindStackUnderflow, "call needs %d argument(s), found fewer on the stack", n)
		}
		args[i] = v
	}
	return args, nil
}
