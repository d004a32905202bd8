package interp

import (
	"math"

	"github.com/cindervm/cindervm-core/internal/cindervm-core/heap"
	"github.com/cindervm/cindervm-core/internal/cindervm-core/program"
	"github.com/cindervm/cindervm-core/internal/cindervm-core/vmerr"
)

// execConvert implements OpConvert: the top of stack is popped and
// reboxed as the numeric Kind named by inst.Operand (an index into the
// function's Types side table). When the interpreter is configured with
// StrictNumericConversions, a conversion that would silently lose
// information (narrowing overflow, or a float with a fractional part
// truncated to an integer) is an error instead of wrapping.
func (it *Interpreter) execConvert(fr *Frame, inst program.Instruction) error {
	idx := int(inst.Operand)
	if idx < 0 || idx >= len(fr.Fn.Types) {
		return vmerr.Newf(vmerr.KindIndexOutOfRange, "Convert type index %d out of range [0,%d)", idx, len(fr.Fn.Types))
	}
	target := fr.Fn.Types[idx]
	v, ok := fr.pop()
	if !ok {
		return vmerr.New(vmerr.KindStackUnderflow, "Convert needs one operand")
	}
	if !v.IsNumeric() {
		return vmerr.Newf(vmerr.KindTypeMismatch, "Convert requires a numeric operand, got %v", v.Kind())
	}
	result, err := convertNumeric(v, target.Kind, it.cfg.StrictNumericConversions)
	if err != nil {
		return err
	}
	fr.push(result)
	return nil
}

func asFloat64(v heap.Value) float64 {
	switch v.Kind() {
	case heap.KindFloat32:
		return float64(v.AsFloat32())
	case heap.KindFloat64:
		return v.AsFloat64()
	case heap.KindInt8:
		return float64(v.AsInt8())
	case heap.KindInt16:
		return float64(v.AsInt16())
	case heap.KindInt32:
		return float64(v.AsInt32())
	case heap.KindInt64:
		return float64(v.AsInt64())
	case heap.KindUint8:
		return float64(v.AsUint8())
	case heap.KindUint16:
		return float64(v.AsUint16())
	case heap.KindUint32:
		return float64(v.AsUint32())
	default:
		return float64(v.AsUint64())
	}
}

func asInt64(v heap.Value) (int64, bool) {
	switch v.Kind() {
	case heap.KindInt8:
		return int64(v.AsInt8()), true
	case heap.KindInt16:
		return int64(v.AsInt16()), true
	case heap.KindInt32:
		return int64(v.AsInt32()), true
	case heap.KindInt64:
		return v.AsInt64(), true
	case heap.KindUint8:
		return int64(v.AsUint8()), true
	case heap.KindUint16:
		return int64(v.AsUint16()), true
	case heap.KindUint32:
		return int64(v.AsUint32()), true
	case heap.KindUint64:
		u := v.AsUint64()
		if u > math.MaxInt64 {
			return 0, false
		}
		return int64(u), true
	default:
		return 0, false
	}
}

func convertNumeric(v heap.Value, target program.TypeKind, strict bool) (heap.Value, error) {
	if target == program.TypeFloat32 || target == program.TypeFloat64 {
		f := asFloat64(v)
		if target == program.TypeFloat32 {
			return heap.Float32(float32(f)), nil
		}
		return heap.Float64(f), nil
	}

	if v.IsFloat() && strict {
		f := asFloat64(v)
		if f != math.Trunc(f) {
			return heap.Value{}, vmerr.Newf(vmerr.KindTypeMismatch, "strict conversion of %v to %v would truncate a fractional value", v.Kind(), target)
		}
	}

	i, ok := asInt64(v)
	if !ok {
		f := asFloat64(v)
		// Go's own float-to-int conversion is implementation-defined for
		// NaN and for magnitudes the target can't hold; pin it down to a
		// deterministic zero instead, per convention.
		if math.IsNaN(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			i = 0
		} else {
			i = int64(f)
		}
	}

	switch target {
	case program.TypeInt8:
		if strict && (i < math.MinInt8 || i > math.MaxInt8) {
			return heap.Value{}, overflowErr(v.Kind(), target, i)
		}
		return heap.Int8(int8(i)), nil
	case program.TypeInt16:
		if strict && (i < math.MinInt16 || i > math.MaxInt16) {
			return heap.Value{}, overflowErr(v.Kind(), target, i)
		}
		return heap.Int16(int16(i)), nil
	case program.TypeInt32:
		if strict && (i < math.MinInt32 || i > math.MaxInt32) {
			return heap.Value{}, overflowErr(v.Kind(), target, i)
		}
		return heap.Int32(int32(i)), nil
	case program.TypeInt64:
		return heap.Int64(i), nil
	case program.TypeUint8:
		if strict && (i < 0 || i > math.MaxUint8) {
			return heap.Value{}, overflowErr(v.Kind(), target, i)
		}
		return heap.Uint8(uint8(i)), nil
	case program.TypeUint16:
		if strict && (i < 0 || i > math.MaxUint16) {
			return heap.Value{}, overflowErr(v.Kind(), target, i)
		}
		return heap.Uint16(uint16(i)), nil
	case program.TypeUint32:
		if strict && (i < 0 || i > math.MaxUint32) {
			return heap.Value{}, overflowErr(v.Kind(), target, i)
		}
		return heap.Uint32(uint32(i)), nil
	case program.TypeUint64:
		if strict && i < 0 {
			return heap.Value{}, overflowErr(v.Kind(), target, i)
		}
		return heap.Uint64(uint64(i)), nil
	default:
		return heap.Value{}, vmerr.Newf(vmerr.KindTypeMismatch, "Convert to non-numeric target %v", target)
	}
}

func overflowErr(from heap.Kind, to program.TypeKind, value int64) error {
	return vmerr.Newf(vmerr.KindTypeMismatch, "strict conversion of %v value %d to %v overflows", from, value, to)
}

// execToString implements OpToString: the top-of-stack value is replaced
// by a heap-allocated String rendering of itself. Every scalar Kind has
// a canonical textual form; a non-null ObjectRef renders as its class
// name in angle brackets, a non-null ArrayRef as <array[len]>, and a null
// reference as "null", rather than a deep structural dump.
func (it *Interpreter) execToString(fr *Frame) error {
	v, ok := fr.pop()
	if !ok {
		return vmerr.New(vmerr.KindStackUnderflow, "ToString needs one operand")
	}
	s, err := it.stringify(v)
	if err != nil {
		return err
	}
	obj, err := it.heap.AllocString([]byte(s))
	if err != nil {
		return vmerr.Wrap(vmerr.KindInternal, err, "ToString allocation failed")
	}
	fr.push(heap.StringValue(obj))
	return nil
}
