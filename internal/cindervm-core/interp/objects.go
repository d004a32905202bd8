package interp

import (
	"github.com/cindervm/cindervm-core/internal/cindervm-core/heap"
	"github.com/cindervm/cindervm-core/internal/cindervm-core/program"
	"github.com/cindervm/cindervm-core/internal/cindervm-core/vmerr"
)

// execObjectOp handles NewInstance, LoadField, StoreField, and
// NullCheck: the four instance-object opcodes.
func (it *Interpreter) execObjectOp(fr *Frame, inst program.Instruction) error {
	switch inst.Op {
	case program.OpNewInstance:
		idx := int(inst.Operand)
		if idx < 0 || idx >= len(it.prog.Classes) {
			return vmerr.Newf(vmerr.KindIndexOutOfRange, "NewInstance class index %d out of range [0,%d)", idx, len(it.prog.Classes))
		}
		inst, err := it.heap.AllocInstance(it.prog.Classes[idx])
		if err != nil {
			return vmerr.Wrap(vmerr.KindInternal, err, "NewInstance allocation failed")
		}
		fr.push(heap.ObjectRefValue(inst))
		return nil

	case program.OpLoadField:
		recv, ok := fr.pop()
		if !ok {
			return vmerr.New(vmerr.KindStackUnderflow, "LoadField needs a receiver")
		}
		obj, err := requireObject(recv)
		if err != nil {
			return err
		}
		v, gerr := it.heap.GetField(obj, int(inst.Operand))
		if gerr != nil {
			return vmerr.Wrap(vmerr.KindIndexOutOfRange, gerr, "LoadField failed")
		}
		fr.push(v)
		return nil

	case program.OpStoreField:
		val, ok1 := fr.pop()
		recv, ok2 := fr.pop()
		if !ok1 || !ok2 {
			return vmerr.New(vmerr.KindStackUnderflow, "StoreField needs a receiver and a value")
		}
		obj, err := requireObject(recv)
		if err != nil {
			return err
		}
		if serr := it.heap.SetField(obj, int(inst.Operand), val); serr != nil {
			return vmerr.Wrap(vmerr.KindIndexOutOfRange, serr, "StoreField failed")
		}
		return nil

	case program.OpNullCheck:
		v, ok := fr.peek()
		if !ok {
			return vmerr.New(vmerr.KindStackUnderflow, "NullCheck needs one operand")
		}
		switch v.Kind() {
		case heap.KindObjectRef, heap.KindArrayRef:
			if v.IsNull() {
				return vmerr.New(vmerr.KindNullReference, "NullCheck failed: reference is null")
			}
			return nil
		default:
			return vmerr.Newf(vmerr.KindTypeMismatch, "NullCheck requires a reference operand, got %v", v.Kind())
		}

	default:
		return vmerr.Newf(vmerr.KindInternal, "execObjectOp called with non-object opcode %v", inst.Op)
	}
}

func requireObject(v heap.Value) (*heap.Instance, error) {
	obj, ok := v.AsObject()
	if !ok {
		return nil, vmerr.Newf(vmerr.KindTypeMismatch, "expected an ObjectRef, got %v", v.Kind())
	}
	if obj == nil {
		return nil, vmerr.New(vmerr.KindNullReference, "field access on a null reference")
	}
	return obj, nil
}

func requireArray(v heap.Value) (*heap.Array, error) {
	arr, ok := v.AsArray()
	if !ok {
		return nil, vmerr.Newf(vmerr.KindTypeMismatch, "expected an ArrayRef, got %v", v.Kind())
	}
	if arr == nil {
		return nil, vmerr.New(vmerr.KindNullReference, "array access on a null reference")
	}
	return arr, nil
}

func requireInt32Index(v heap.Value) (int, error) {
	if v.Kind() != heap.KindInt32 {
		return 0, vmerr.Newf(vmerr.KindTypeMismatch, "expected an Int32 index, got %v", v.Kind())
	}
	return int(v.AsInt32()), nil
}

// execArrayOp handles the eight array opcodes.
func (it *Interpreter) execArrayOp(fr *Frame, inst program.Instruction) error {
	switch inst.Op {
	case program.OpNewArray:
		idx := int(inst.Operand)
		if idx < 0 || idx >= len(fr.Fn.Types) {
			return vmerr.Newf(vmerr.KindIndexOutOfRange, "NewArray type index %d out of range [0,%d)", idx, len(fr.Fn.Types))
		}
		capVal, ok := fr.pop()
		if !ok {
			return vmerr.New(vmerr.KindStackUnderflow, "NewArray needs an initial capacity")
		}
		n, err := requireInt32Index(capVal)
		if err != nil {
			return err
		}
		arr, aerr := it.heap.AllocArray(fr.Fn.Types[idx], n)
		if aerr != nil {
			return vmerr.Wrap(vmerr.KindIndexOutOfRange, aerr, "NewArray failed")
		}
		fr.push(heap.ArrayRefValue(arr))
		return nil

	case program.OpLoadElem:
		idxVal, ok1 := fr.pop()
		recv, ok2 := fr.pop()
		if !ok1 || !ok2 {
			return vmerr.New(vmerr.KindStackUnderflow, "LoadElem needs an array and an index")
		}
		arr, err := requireArray(recv)
		if err != nil {
			return err
		}
		idx, err := requireInt32Index(idxVal)
		if err != nil {
			return err
		}
		v, gerr := it.heap.GetElement(arr, idx)
		if gerr != nil {
			return vmerr.Wrap(vmerr.KindIndexOutOfRange, gerr, "LoadElem failed")
		}
		fr.push(v)
		return nil

	case program.OpStoreElem:
		val, ok1 := fr.pop()
		idxVal, ok2 := fr.pop()
		recv, ok3 := fr.pop()
		if !ok1 || !ok2 || !ok3 {
			return vmerr.New(vmerr.KindStackUnderflow, "StoreElem needs an array, an index, and a value")
		}
		arr, err := requireArray(recv)
		if err != nil {
			return err
		}
		idx, err := requireInt32Index(idxVal)
		if err != nil {
			return err
		}
		if serr := it.heap.SetElement(arr, idx, val); serr != nil {
			return vmerr.Wrap(vmerr.KindIndexOutOfRange, serr, "StoreElem failed")
		}
		return nil

	case program.OpArrayLen:
		recv, ok := fr.pop()
		if !ok {
			return vmerr.New(vmerr.KindStackUnderflow, "ArrayLen needs an array")
		}
		arr, err := requireArray(recv)
		if err != nil {
			return err
		}
		fr.push(heap.Int32(int32(arr.Len())))
		return nil

	case program.OpArrayResize:
		sizeVal, ok1 := fr.pop()
		recv, ok2 := fr.pop()
		if !ok1 || !ok2 {
			return vmerr.New(vmerr.KindStackUnderflow, "ArrayResize needs an array and a size")
		}
		arr, err := requireArray(recv)
		if err != nil {
			return err
		}
		n, err := requireInt32Index(sizeVal)
		if err != nil {
			return err
		}
		if rerr := it.heap.ArrayResize(arr, n); rerr != nil {
			return vmerr.Wrap(vmerr.KindIndexOutOfRange, rerr, "ArrayResize failed")
		}
		return nil

	case program.OpArrayPush:
		val, ok1 := fr.pop()
		recv, ok2 := fr.pop()
		if !ok1 || !ok2 {
			return vmerr.New(vmerr.KindStackUnderflow, "ArrayPush needs an array and a value")
		}
		arr, err := requireArray(recv)
		if err != nil {
			return err
		}
		if perr := it.heap.ArrayPush(arr, val); perr != nil {
			return vmerr.Wrap(vmerr.KindInternal, perr, "ArrayPush failed")
		}
		return nil

	case program.OpArrayPop:
		recv, ok := fr.pop()
		if !ok {
			return vmerr.New(vmerr.KindStackUnderflow, "ArrayPop needs an array")
		}
		arr, err := requireArray(recv)
		if err != nil {
			return err
		}
		v, perr := it.heap.ArrayPop(arr)
		if perr != nil {
			return vmerr.Wrap(vmerr.KindIndexOutOfRange, perr, "ArrayPop failed")
		}
		fr.push(v)
		return nil

	case program.OpArrayClear:
		recv, ok := fr.pop()
		if !ok {
			return vmerr.New(vmerr.KindStackUnderflow, "ArrayClear needs an array")
		}
		arr, err := requireArray(recv)
		if err != nil {
			return err
		}
		if cerr := it.heap.ArrayClear(arr); cerr != nil {
			return vmerr.Wrap(vmerr.KindInternal, cerr, "ArrayClear failed")
		}
		return nil

	default:
		return vmerr.Newf(vmerr.KindInternal, "execArrayOp called with non-array opcode %v", inst.Op)
	}
}
