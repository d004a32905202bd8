package interp

import (
	"fmt"
	"math"

	"github.com/cindervm/cindervm-core/internal/cindervm-core/heap"
	"github.com/cindervm/cindervm-core/internal/cindervm-core/program"
	"github.com/cindervm/cindervm-core/internal/cindervm-core/vmerr"
)

// Config carries the interpreter-level tuning knobs distinct from the
// heap's own Config: how deep the call stack may grow, and how picky
// OpConvert is about lossy conversions.
type Config struct {
	MaxFrameDepth            int
	StrictNumericConversions bool
}

// DefaultConfig returns reasonable defaults: 256 levels of call depth,
// and permissive (C-like, truncating) numeric conversions.
func DefaultConfig() Config {
	return Config{MaxFrameDepth: 256, StrictNumericConversions: false}
}

// NativeBridge is the interpreter's view of the native call registry
// (C4): invoke a native-bound function by its key with already-marshaled
// Values, getting back its Values (or an out-parameter error). The
// interpreter depends only on this interface so that C3 and C4 do not
// import one another.
type NativeBridge interface {
	Invoke(key string, self *Interpreter, args []heap.Value) ([]heap.Value, error)
}

// TraceEvent is one observable step of execution, delivered to an
// optional TraceHook purely for diagnostics (see §9.1); nothing in the
// core depends on a hook being present or on what it does.
type TraceEvent struct {
	Function string
	IP       int
	Op       program.Opcode
}

// TraceHook receives a TraceEvent before each instruction executes.
type TraceHook func(TraceEvent)

// Interpreter executes a loaded Program against a Heap. One Interpreter
// is good for one logical call stack at a time; see the concurrency note
// in §5 for why a VM serializes invocations onto a single Interpreter.
type Interpreter struct {
	heap   *heap.Heap
	prog   *program.Program
	native NativeBridge
	cfg    Config
	trace  TraceHook

	frames []*Frame
}

// New creates an Interpreter bound to h and prog. native may be nil if
// the program never calls a native-bound function.
func New(h *heap.Heap, prog *program.Program, native NativeBridge, cfg Config) *Interpreter {
	it := &Interpreter{heap: h, prog: prog, native: native, cfg: cfg}
	h.SetRoots(it)
	return it
}

// SetTraceHook installs (or clears, with nil) a diagnostic trace hook.
func (it *Interpreter) SetTraceHook(hook TraceHook) { it.trace = hook }

// Heap returns the heap this interpreter executes against, for native
// handlers that need to allocate or pin values.
func (it *Interpreter) Heap() *heap.Heap { return it.heap }

// Program returns the loaded program.
func (it *Interpreter) Program() *program.Program { return it.prog }

// EnumerateRoots implements heap.RootProvider: every local and operand
// of every active frame is a root, since any of them may be the only
// remaining reference to a heap object.
func (it *Interpreter) EnumerateRoots(yield func(heap.Value)) {
	for _, fr := range it.frames {
		for _, v := range fr.Locals {
			yield(v)
		}
		for _, v := range fr.Operands {
			yield(v)
		}
	}
}

// Invoke calls fn with args already in calling convention order
// (an out-parameter's argument is a Pinned capability naming the caller's
// slot) and runs it to
// completion, returning its result.
func (it *Interpreter) Invoke(fn *program.Function, args []heap.Value) (result heap.Value, err error) {
	defer vmerr.Recover(&err)

	if fn.IsNative() {
		if it.native == nil {
			return heap.Value{}, vmerr.Newf(vmerr.KindUnresolvedSymbol, "function %s is native-bound but no native bridge is configured", fn.QualifiedName)
		}
		out, nerr := it.native.Invoke(fn.NativeKey, it, args)
		if nerr != nil {
			if verr, ok := nerr.(*vmerr.Error); ok {
				return heap.Value{}, verr.WithFrame(fn.QualifiedName)
			}
			return heap.Value{}, vmerr.Wrap(vmerr.KindNativeBridge, nerr, "native call failed").WithFrame(fn.QualifiedName)
		}
		if len(out) == 0 {
			return heap.Unit(), nil
		}
		return out[0], nil
	}

	if len(it.frames) >= it.cfg.MaxFrameDepth {
		return heap.Value{}, vmerr.Newf(vmerr.KindStackOverflow, "call depth exceeds configured maximum of %d", it.cfg.MaxFrameDepth)
	}

	fr := newFrame(fn, it.heap)
	copy(fr.Locals, args)
	it.frames = append(it.frames, fr)
	defer func() { it.frames = it.frames[:len(it.frames)-1] }()

	v, rerr := it.runFrame(fr)
	if rerr != nil {
		if verr, ok := rerr.(*vmerr.Error); ok {
			return heap.Value{}, verr.WithFrame(fn.QualifiedName)
		}
		return heap.Value{}, rerr
	}
	return v, nil
}

// runFrame executes fr's bytecode until it returns or faults.
func (it *Interpreter) runFrame(fr *Frame) (heap.Value, error) {
	for {
		if fr.IP < 0 || fr.IP >= len(fr.Fn.Instructions) {
			return heap.Value{}, vmerr.Newf(vmerr.KindInternal, "%s fell off the end of its bytecode at IP=%d", fr.Fn.QualifiedName, fr.IP)
		}
		inst := fr.Fn.Instructions[fr.IP]
		selfIP := fr.IP
		fr.IP++

		if it.trace != nil {
			it.trace(TraceEvent{Function: fr.Fn.QualifiedName, IP: selfIP, Op: inst.Op})
		}

		switch inst.Op {
		case program.OpNop:
			// no-op

		case program.OpLoadConst:
			c, err := constAt(fr.Fn, int(inst.Operand))
			if err != nil {
				return heap.Value{}, err
			}
			fr.push(constantToValue(c, it.heap))

		case program.OpLoadLocal:
			idx := int(inst.Operand)
			if idx < 0 || idx >= len(fr.Locals) {
				return heap.Value{}, vmerr.Newf(vmerr.KindIndexOutOfRange, "LoadLocal index %d out of range [0,%d)", idx, len(fr.Locals))
			}
			fr.push(fr.Locals[idx])

		case program.OpStoreLocal:
			idx := int(inst.Operand)
			if idx < 0 || idx >= len(fr.Locals) {
				return heap.Value{}, vmerr.Newf(vmerr.KindIndexOutOfRange, "StoreLocal index %d out of range [0,%d)", idx, len(fr.Locals))
			}
			v, ok := fr.pop()
			if !ok {
				return heap.Value{}, vmerr.New(vmerr.KindStackUnderflow, "StoreLocal needs one operand")
			}
			fr.Locals[idx] = v

		case program.OpDup:
			v, ok := fr.peek()
			if !ok {
				return heap.Value{}, vmerr.New(vmerr.KindStackUnderflow, "Dup needs one operand")
			}
			fr.push(v)

		case program.OpPop:
			if _, ok := fr.pop(); !ok {
				return heap.Value{}, vmerr.New(vmerr.KindStackUnderflow, "Pop needs one operand")
			}

		case program.OpSwap:
			b, ok1 := fr.pop()
			a, ok2 := fr.pop()
			if !ok1 || !ok2 {
				return heap.Value{}, vmerr.New(vmerr.KindStackUnderflow, "Swap needs two operands")
			}
			fr.push(b)
			fr.push(a)

		case program.OpAdd, program.OpSub, program.OpMul, program.OpDiv, program.OpMod,
			program.OpBitAnd, program.OpBitOr, program.OpBitXor, program.OpShl, program.OpShr,
			program.OpLt, program.OpLe:
			if err := it.execBinaryArith(inst.Op, fr); err != nil {
				return heap.Value{}, err
			}

		case program.OpNeg, program.OpBitNot:
			if err := it.execUnaryArith(inst.Op, fr); err != nil {
				return heap.Value{}, err
			}

		case program.OpEq:
			if err := it.execEq(fr); err != nil {
				return heap.Value{}, err
			}

		case program.OpConvert:
			if err := it.execConvert(fr, inst); err != nil {
				return heap.Value{}, err
			}

		case program.OpToString:
			if err := it.execToString(fr); err != nil {
				return heap.Value{}, err
			}

		case program.OpJump:
			fr.IP = selfIP + int(inst.Operand)

		case program.OpJumpIfTrue, program.OpJumpIfFalse:
			cond, ok := fr.pop()
			if !ok {
				return heap.Value{}, vmerr.New(vmerr.KindStackUnderflow, "conditional jump needs one operand")
			}
			if cond.Kind() != heap.KindBool {
				return heap.Value{}, vmerr.Newf(vmerr.KindTypeMismatch, "conditional jump requires a Bool operand, got %v", cond.Kind())
			}
			take := cond.AsBool()
			if inst.Op == program.OpJumpIfFalse {
				take = !take
			}
			if take {
				fr.IP = selfIP + int(inst.Operand)
			}

		case program.OpReturn:
			v, ok := fr.pop()
			if !ok {
				return heap.Value{}, vmerr.New(vmerr.KindStackUnderflow, "Return needs one operand")
			}
			return v, nil

		case program.OpReturnVoid:
			return heap.Unit(), nil

		case program.OpNewInstance, program.OpLoadField, program.OpStoreField, program.OpNullCheck:
			if err := it.execObjectOp(fr, inst); err != nil {
				return heap.Value{}, err
			}

		case program.OpNewArray, program.OpLoadElem, program.OpStoreElem, program.OpArrayLen,
			program.OpArrayResize, program.OpArrayPush, program.OpArrayPop, program.OpArrayClear:
			if err := it.execArrayOp(fr, inst); err != nil {
				return heap.Value{}, err
			}

		case program.OpCallStatic, program.OpCallVirtual:
			if err := it.execCall(fr, inst); err != nil {
				return heap.Value{}, err
			}

		case program.OpPinLocal:
			if err := it.execPinLocal(fr, inst); err != nil {
				return heap.Value{}, err
			}

		case program.OpReadPinned:
			if err := it.execReadPinned(fr); err != nil {
				return heap.Value{}, err
			}

		case program.OpWritePinned:
			if err := it.execWritePinned(fr); err != nil {
				return heap.Value{}, err
			}

		default:
			return heap.Value{}, vmerr.Newf(vmerr.KindInternal, "unhandled opcode %v", inst.Op)
		}
	}
}

func constAt(fn *program.Function, idx int) (program.Constant, error) {
	if idx < 0 || idx >= len(fn.Constants.Entries) {
		return program.Constant{}, vmerr.Newf(vmerr.KindIndexOutOfRange, "LoadConst index %d out of range [0,%d)", idx, len(fn.Constants.Entries))
	}
	return fn.Constants.Entries[idx], nil
}

// stringify renders any scalar Value canonically, and a reference Value
// by its class name or array length (or "null"), not its contents.
func (it *Interpreter) stringify(v heap.Value) (string, error) {
	switch v.Kind() {
	case heap.KindUnit:
		return "Unit", nil
	case heap.KindBool:
		return fmt.Sprintf("%t", v.AsBool()), nil
	case heap.KindInt8:
		return fmt.Sprintf("%d", v.AsInt8()), nil
	case heap.KindInt16:
		return fmt.Sprintf("%d", v.AsInt16()), nil
	case heap.KindInt32:
		return fmt.Sprintf("%d", v.AsInt32()), nil
	case heap.KindInt64:
		return fmt.Sprintf("%d", v.AsInt64()), nil
	case heap.KindUint8:
		return fmt.Sprintf("%d", v.AsUint8()), nil
	case heap.KindUint16:
		return fmt.Sprintf("%d", v.AsUint16()), nil
	case heap.KindUint32:
		return fmt.Sprintf("%d", v.AsUint32()), nil
	case heap.KindUint64:
		return fmt.Sprintf("%d", v.AsUint64()), nil
	case heap.KindFloat32:
		return fmt.Sprintf("%g", v.AsFloat32()), nil
	case heap.KindFloat64:
		return fmt.Sprintf("%g", v.AsFloat64()), nil
	case heap.KindCName, heap.KindTweakDBID, heap.KindResRef:
		name, _ := it.heap.Interns.Lookup(v.AsSymbol())
		return name, nil
	case heap.KindString:
		s := v.AsString()
		if s == nil {
			return "", nil
		}
		return s.String(), nil
	case heap.KindObjectRef:
		inst, _ := v.AsObject()
		if inst == nil {
			return "null", nil
		}
		return fmt.Sprintf("<%s>", inst.Class.Name), nil
	case heap.KindArrayRef:
		arr, _ := v.AsArray()
		if arr == nil {
			return "null", nil
		}
		return fmt.Sprintf("<array[%d]>", arr.Len()), nil
	default:
		return "", vmerr.Newf(vmerr.KindTypeMismatch, "%v has no string conversion", v.Kind())
	}
}

func constantToValue(c program.Constant, h *heap.Heap) heap.Value {
	switch c.Kind {
	case program.ConstString:
		s, _ := h.AllocString([]byte(c.Str))
		return heap.StringValue(s)
	case program.ConstCName:
		return heap.CName(h.Interns.Intern(c.Str))
	case program.ConstTweakDBID:
		return heap.TweakDBID(h.Interns.Intern(c.Str))
	case program.ConstResRef:
		return heap.ResRef(h.Interns.Intern(c.Str))
	case program.ConstBool:
		return heap.Bool(c.Bits != 0)
	case program.ConstInt8:
		return heap.Int8(int8(uint8(c.Bits)))
	case program.ConstInt16:
		return heap.Int16(int16(uint16(c.Bits)))
	case program.ConstInt32:
		return heap.Int32(int32(uint32(c.Bits)))
	case program.ConstInt64:
		return heap.Int64(int64(c.Bits))
	case program.ConstUint8:
		return heap.Uint8(uint8(c.Bits))
	case program.ConstUint16:
		return heap.Uint16(uint16(c.Bits))
	case program.ConstUint32:
		return heap.Uint32(uint32(c.Bits))
	case program.ConstUint64:
		return heap.Uint64(c.Bits)
	case program.ConstFloat32:
		return heap.Float32(math.Float32frombits(uint32(c.Bits)))
	case program.ConstFloat64:
		return heap.Float64(math.Float64frombits(c.Bits))
	default:
		return heap.Unit()
	}
}
