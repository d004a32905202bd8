package interp

import (
	"golang.org/x/exp/constraints"

	"github.com/cindervm/cindervm-core/internal/cindervm-core/heap"
	"github.com/cindervm/cindervm-core/internal/cindervm-core/program"
	"github.com/cindervm/cindervm-core/internal/cindervm-core/vmerr"
)

func addI[T constraints.Integer](a, b T) T { return a + b }
func subI[T constraints.Integer](a, b T) T { return a - b }
func mulI[T constraints.Integer](a, b T) T { return a * b }

func addF[T constraints.Float](a, b T) T { return a + b }
func subF[T constraints.Float](a, b T) T { return a - b }
func mulF[T constraints.Float](a, b T) T { return a * b }
func divF[T constraints.Float](a, b T) T { return a / b }

// execBinaryArith evaluates one of the width-polymorphic binary opcodes:
// the two Values already agree in Kind (checked here), and that Kind
// alone decides both the Go type the generic helpers above operate on
// and how the result is reboxed.
func (it *Interpreter) execBinaryArith(op program.Opcode, fr *Frame) error {
	b, ok1 := fr.pop()
	a, ok2 := fr.pop()
	if !ok1 || !ok2 {
		return vmerr.New(vmerr.KindStackUnderflow, "binary arithmetic needs two operands")
	}
	if a.Kind() != b.Kind() {
		return vmerr.Newf(vmerr.KindTypeMismatch, "binary arithmetic operands disagree in kind: %v vs %v", a.Kind(), b.Kind())
	}
	if !a.IsNumeric() {
		return vmerr.Newf(vmerr.KindTypeMismatch, "binary arithmetic requires numeric operands, got %v", a.Kind())
	}

	result, err := evalBinary(op, a, b)
	if err != nil {
		return err
	}
	fr.push(result)
	return nil
}

func evalBinary(op program.Opcode, a, b heap.Value) (heap.Value, error) {
	if a.IsFloat() {
		return evalBinaryFloat(op, a, b)
	}
	return evalBinaryInt(op, a, b)
}

func evalBinaryFloat(op program.Opcode, a, b heap.Value) (heap.Value, error) {
	switch a.Kind() {
	case heap.KindFloat32:
		x, y := a.AsFloat32(), b.AsFloat32()
		switch op {
		case program.OpAdd:
			return heap.Float32(addF(x, y)), nil
		case program.OpSub:
			return heap.Float32(subF(x, y)), nil
		case program.OpMul:
			return heap.Float32(mulF(x, y)), nil
		case program.OpDiv:
			// Floating-point division by zero yields +/-Inf or NaN per
			// IEEE 754, never an ArithmeticError: that distinguishes it
			// from integer division, which the core always traps.
			return heap.Float32(divF(x, y)), nil
		case program.OpLt:
			return heap.Bool(x < y), nil
		case program.OpLe:
			return heap.Bool(x <= y), nil
		default:
			return heap.Value{}, vmerr.Newf(vmerr.KindTypeMismatch, "opcode %v is not valid on Float32 operands", op)
		}
	case heap.KindFloat64:
		x, y := a.AsFloat64(), b.AsFloat64()
		switch op {
		case program.OpAdd:
			return heap.Float64(addF(x, y)), nil
		case program.OpSub:
			return heap.Float64(subF(x, y)), nil
		case program.OpMul:
			return heap.Float64(mulF(x, y)), nil
		case program.OpDiv:
			return heap.Float64(divF(x, y)), nil
		case program.OpLt:
			return heap.Bool(x < y), nil
		case program.OpLe:
			return heap.Bool(x <= y), nil
		default:
			return heap.Value{}, vmerr.Newf(vmerr.KindTypeMismatch, "opcode %v is not valid on Float64 operands", op)
		}
	default:
		return heap.Value{}, vmerr.Newf(vmerr.KindTypeMismatch, "unexpected float kind %v", a.Kind())
	}
}

// evalBinaryInt handles every integer width. Division and modulo by zero
// are an ArithmeticError: unlike the float case, there is no sentinel
// integer value to fall back on. The shift amount is b converted to
// uint64 and used unmasked, as Go's shift operators do: a count at or
// beyond the operand width shifts every bit out.
func evalBinaryInt(op program.Opcode, a, b heap.Value) (heap.Value, error) {
	switch a.Kind() {
	case heap.KindInt8:
		return binInt(op, a.AsInt8(), b.AsInt8(), heap.Int8)
	case heap.KindInt16:
		return binInt(op, a.AsInt16(), b.AsInt16(), heap.Int16)
	case heap.KindInt32:
		return binInt(op, a.AsInt32(), b.AsInt32(), heap.Int32)
	case heap.KindInt64:
		return binInt(op, a.AsInt64(), b.AsInt64(), heap.Int64)
	case heap.KindUint8:
		return binUint(op, a.AsUint8(), b.AsUint8(), heap.Uint8)
	case heap.KindUint16:
		return binUint(op, a.AsUint16(), b.AsUint16(), heap.Uint16)
	case heap.KindUint32:
		return binUint(op, a.AsUint32(), b.AsUint32(), heap.Uint32)
	case heap.KindUint64:
		return binUint(op, a.AsUint64(), b.AsUint64(), heap.Uint64)
	default:
		return heap.Value{}, vmerr.Newf(vmerr.KindTypeMismatch, "unexpected integer kind %v", a.Kind())
	}
}

// signedInt is the set of Go types backing a signed scalar Kind.
type signedInt interface {
	~int8 | ~int16 | ~int32 | ~int64
}

type unsignedInt interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

func binInt[T signedInt](op program.Opcode, x, y T, box func(T) heap.Value) (heap.Value, error) {
	switch op {
	case program.OpAdd:
		return box(addI(x, y)), nil
	case program.OpSub:
		return box(subI(x, y)), nil
	case program.OpMul:
		return box(mulI(x, y)), nil
	case program.OpDiv:
		if y == 0 {
			return heap.Value{}, vmerr.New(vmerr.KindArithmetic, "integer division by zero")
		}
		return box(x / y), nil
	case program.OpMod:
		if y == 0 {
			return heap.Value{}, vmerr.New(vmerr.KindArithmetic, "integer modulo by zero")
		}
		return box(x % y), nil
	case program.OpBitAnd:
		return box(x & y), nil
	case program.OpBitOr:
		return box(x | y), nil
	case program.OpBitXor:
		return box(x ^ y), nil
	case program.OpShl:
		return box(x << uint64(y)), nil
	case program.OpShr:
		return box(x >> uint64(y)), nil
	case program.OpLt:
		return heap.Bool(x < y), nil
	case program.OpLe:
		return heap.Bool(x <= y), nil
	default:
		return heap.Value{}, vmerr.Newf(vmerr.KindTypeMismatch, "opcode %v is not valid on signed integer operands", op)
	}
}

func binUint[T unsignedInt](op program.Opcode, x, y T, box func(T) heap.Value) (heap.Value, error) {
	switch op {
	case program.OpAdd:
		return box(addI(x, y)), nil
	case program.OpSub:
		return box(subI(x, y)), nil
	case program.OpMul:
		return box(mulI(x, y)), nil
	case program.OpDiv:
		if y == 0 {
			return heap.Value{}, vmerr.New(vmerr.KindArithmetic, "integer division by zero")
		}
		return box(x / y), nil
	case program.OpMod:
		if y == 0 {
			return heap.Value{}, vmerr.New(vmerr.KindArithmetic, "integer modulo by zero")
		}
		return box(x % y), nil
	case program.OpBitAnd:
		return box(x & y), nil
	case program.OpBitOr:
		return box(x | y), nil
	case program.OpBitXor:
		return box(x ^ y), nil
	case program.OpShl:
		return box(x << uint64(y)), nil
	case program.OpShr:
		return box(x >> uint64(y)), nil
	case program.OpLt:
		return heap.Bool(x < y), nil
	case program.OpLe:
		return heap.Bool(x <= y), nil
	default:
		return heap.Value{}, vmerr.Newf(vmerr.KindTypeMismatch, "opcode %v is not valid on unsigned integer operands", op)
	}
}

// execUnaryArith evaluates Neg and BitNot, the two unary numeric opcodes.
func (it *Interpreter) execUnaryArith(op program.Opcode, fr *Frame) error {
	v, ok := fr.pop()
	if !ok {
		return vmerr.New(vmerr.KindStackUnderflow, "unary arithmetic needs one operand")
	}
	if !v.IsNumeric() {
		return vmerr.Newf(vmerr.KindTypeMismatch, "unary arithmetic requires a numeric operand, got %v", v.Kind())
	}
	switch op {
	case program.OpNeg:
		fr.push(negate(v))
		return nil
	case program.OpBitNot:
		result, err := bitNot(v)
		if err != nil {
			return err
		}
		fr.push(result)
		return nil
	default:
		return vmerr.Newf(vmerr.KindInternal, "execUnaryArith called with non-unary opcode %v", op)
	}
}

func negate(v heap.Value) heap.Value {
	switch v.Kind() {
	case heap.KindInt8:
		return heap.Int8(-v.AsInt8())
	case heap.KindInt16:
		return heap.Int16(-v.AsInt16())
	case heap.KindInt32:
		return heap.Int32(-v.AsInt32())
	case heap.KindInt64:
		return heap.Int64(-v.AsInt64())
	case heap.KindFloat32:
		return heap.Float32(-v.AsFloat32())
	case heap.KindFloat64:
		return heap.Float64(-v.AsFloat64())
	default:
		// Unsigned negation wraps, matching Go's own unary minus on
		// unsigned types.
		switch v.Kind() {
		case heap.KindUint8:
			return heap.Uint8(-v.AsUint8())
		case heap.KindUint16:
			return heap.Uint16(-v.AsUint16())
		case heap.KindUint32:
			return heap.Uint32(-v.AsUint32())
		default:
			return heap.Uint64(-v.AsUint64())
		}
	}
}

func bitNot(v heap.Value) (heap.Value, error) {
	switch v.Kind() {
	case heap.KindInt8:
		return heap.Int8(^v.AsInt8()), nil
	case heap.KindInt16:
		return heap.Int16(^v.AsInt16()), nil
	case heap.KindInt32:
		return heap.Int32(^v.AsInt32()), nil
	case heap.KindInt64:
		return heap.Int64(^v.AsInt64()), nil
	case heap.KindUint8:
		return heap.Uint8(^v.AsUint8()), nil
	case heap.KindUint16:
		return heap.Uint16(^v.AsUint16()), nil
	case heap.KindUint32:
		return heap.Uint32(^v.AsUint32()), nil
	case heap.KindUint64:
		return heap.Uint64(^v.AsUint64()), nil
	default:
		return heap.Value{}, vmerr.Newf(vmerr.KindTypeMismatch, "BitNot is not valid on %v", v.Kind())
	}
}

// execEq evaluates Eq, which (unlike the other comparisons) is defined
// for every pair of Values sharing a Kind, not just numeric ones.
func (it *Interpreter) execEq(fr *Frame) error {
	b, ok1 := fr.pop()
	a, ok2 := fr.pop()
	if !ok1 || !ok2 {
		return vmerr.New(vmerr.KindStackUnderflow, "Eq needs two operands")
	}
	if a.Kind() != b.Kind() {
		return vmerr.Newf(vmerr.KindTypeMismatch, "Eq operands disagree in kind: %v vs %v", a.Kind(), b.Kind())
	}
	fr.push(heap.Bool(a.Equal(b)))
	return nil
}
