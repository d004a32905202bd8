// Package heap implements the tagged Value representation and the boxed
// heap objects (instances, arrays, strings) that back it, together with
// the incremental tri-color mark-and-sweep collector that manages their
// lifetime. Value and Heap are kept in one package because they are a
// single tightly coupled component: a Value's well-formedness depends on
// the heap object it may reference, and the collector must be able to
// walk every Value reachable from a root to find that object.
package heap

import (
	"fmt"
	"math"

	"github.com/cindervm/cindervm-core/internal/cindervm-core/intern"
	"github.com/cindervm/cindervm-core/internal/cindervm-core/program"
)

// Kind is the run-time tag of a Value.
type Kind uint8

const (
	KindUnit Kind = iota
	KindBool
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindCName
	KindTweakDBID
	KindResRef
	KindString
	KindObjectRef
	KindArrayRef
	KindPinned
)

func (k Kind) String() string {
	switch k {
	case KindUnit:
		return "Unit"
	case KindBool:
		return "Bool"
	case KindInt8:
		return "Int8"
	case KindInt16:
		return "Int16"
	case KindInt32:
		return "Int32"
	case KindInt64:
		return "Int64"
	case KindUint8:
		return "Uint8"
	case KindUint16:
		return "Uint16"
	case KindUint32:
		return "Uint32"
	case KindUint64:
		return "Uint64"
	case KindFloat32:
		return "Float32"
	case KindFloat64:
		return "Float64"
	case KindCName:
		return "CName"
	case KindTweakDBID:
		return "TweakDBID"
	case KindResRef:
		return "ResRef"
	case KindString:
		return "String"
	case KindObjectRef:
		return "ObjectRef"
	case KindArrayRef:
		return "ArrayRef"
	case KindPinned:
		return "Pinned"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// typeKindToKind maps a program.TypeKind to the run-time Kind a
// well-formed Value of that declared type must carry.
func typeKindToKind(tk program.TypeKind) Kind {
	switch tk {
	case program.TypeUnit:
		return KindUnit
	case program.TypeBool:
		return KindBool
	case program.TypeInt8:
		return KindInt8
	case program.TypeInt16:
		return KindInt16
	case program.TypeInt32:
		return KindInt32
	case program.TypeInt64:
		return KindInt64
	case program.TypeUint8:
		return KindUint8
	case program.TypeUint16:
		return KindUint16
	case program.TypeUint32:
		return KindUint32
	case program.TypeUint64:
		return KindUint64
	case program.TypeFloat32:
		return KindFloat32
	case program.TypeFloat64:
		return KindFloat64
	case program.TypeCName:
		return KindCName
	case program.TypeTweakDBID:
		return KindTweakDBID
	case program.TypeResRef:
		return KindResRef
	case program.TypeString:
		return KindString
	case program.TypeClass:
		return KindObjectRef
	case program.TypeArray:
		return KindArrayRef
	default:
		// TypeNullable and any other compound kind map to KindUnit here
		// (program.ZeroLiteral can still produce a Literal of that Kind);
		// field and local defaults for those types are built by
		// ZeroValueFor, which has access to the full TypeDescriptor.
		return KindUnit
	}
}

// PinnedRef is the payload of a KindPinned Value: a capability naming one
// local slot of some active frame. It is a direct Go pointer into that
// frame's locals array (frames are fixed-size for their lifetime, so the
// pointer is stable); Go's own memory model therefore guarantees the
// target outlives the pinned reference for as long as anything holds the
// Value, which is exactly the invariant §3 requires.
type PinnedRef struct {
	Target *Value
}

// Value is a well-formed, tagged run-time value: the Kind and its payload
// always agree. Scalars live in the raw bits field; heap references live
// in ref.
type Value struct {
	kind Kind
	bits uint64
	ref  any // *StringObj | *Instance | *Array | PinnedRef
}

// Unit is the single value of the Unit type.
func Unit() Value { return Value{kind: KindUnit} }

// Bool constructs a Bool value.
func Bool(b bool) Value {
	if b {
		return Value{kind: KindBool, bits: 1}
	}
	return Value{kind: KindBool, bits: 0}
}

func Int8(v int8) Value   { return Value{kind: KindInt8, bits: uint64(uint8(v))} }
func Int16(v int16) Value { return Value{kind: KindInt16, bits: uint64(uint16(v))} }
func Int32(v int32) Value { return Value{kind: KindInt32, bits: uint64(uint32(v))} }
func Int64(v int64) Value { return Value{kind: KindInt64, bits: uint64(v)} }

func Uint8(v uint8) Value   { return Value{kind: KindUint8, bits: uint64(v)} }
func Uint16(v uint16) Value { return Value{kind: KindUint16, bits: uint64(v)} }
func Uint32(v uint32) Value { return Value{kind: KindUint32, bits: uint64(v)} }
func Uint64(v uint64) Value { return Value{kind: KindUint64, bits: v} }

func Float32(v float32) Value {
	return Value{kind: KindFloat32, bits: uint64(math.Float32bits(v))}
}
func Float64(v float64) Value {
	return Value{kind: KindFloat64, bits: math.Float64bits(v)}
}

func CName(id intern.ID) Value     { return Value{kind: KindCName, bits: uint64(id)} }
func TweakDBID(id intern.ID) Value { return Value{kind: KindTweakDBID, bits: uint64(id)} }
func ResRef(id intern.ID) Value    { return Value{kind: KindResRef, bits: uint64(id)} }

// StringValue wraps a heap-allocated string object. Unlike ObjectRef and
// ArrayRef, a well-formed String value is never null: strings default to
// the empty string (see program.TypeKind.IsNullableRef).
func StringValue(s *StringObj) Value { return Value{kind: KindString, ref: s} }

// ObjectRefValue wraps a heap-allocated instance. inst may be nil (the null
// reference).
func ObjectRefValue(inst *Instance) Value { return Value{kind: KindObjectRef, ref: inst} }

// ArrayRefValue wraps a heap-allocated array. arr may be nil (the null
// reference).
func ArrayRefValue(arr *Array) Value { return Value{kind: KindArrayRef, ref: arr} }

// PinnedValue wraps a pinned-slot capability.
func PinnedValue(p PinnedRef) Value { return Value{kind: KindPinned, ref: p} }

// Kind returns the value's run-time tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether a reference-typed value is the null reference.
// It returns false for every Kind other than ObjectRef and ArrayRef.
func (v Value) IsNull() bool {
	switch v.kind {
	case KindObjectRef:
		return v.ref == nil || v.ref.(*Instance) == nil
	case KindArrayRef:
		return v.ref == nil || v.ref.(*Array) == nil
	default:
		return false
	}
}

func (v Value) AsBool() bool       { return v.bits != 0 }
func (v Value) AsInt8() int8       { return int8(uint8(v.bits)) }
func (v Value) AsInt16() int16     { return int16(uint16(v.bits)) }
func (v Value) AsInt32() int32     { return int32(uint32(v.bits)) }
func (v Value) AsInt64() int64     { return int64(v.bits) }
func (v Value) AsUint8() uint8     { return uint8(v.bits) }
func (v Value) AsUint16() uint16   { return uint16(v.bits) }
func (v Value) AsUint32() uint32   { return uint32(v.bits) }
func (v Value) AsUint64() uint64   { return v.bits }
func (v Value) AsFloat32() float32 { return math.Float32frombits(uint32(v.bits)) }
func (v Value) AsFloat64() float64 { return math.Float64frombits(v.bits) }
func (v Value) AsSymbol() intern.ID { return intern.ID(v.bits) }

// AsString returns the underlying string object, or nil if v is not a
// String value.
func (v Value) AsString() *StringObj {
	s, _ := v.ref.(*StringObj)
	return s
}

// AsObject returns the underlying instance (nil for the null reference),
// or (nil, false) if v is not an ObjectRef value.
func (v Value) AsObject() (*Instance, bool) {
	if v.kind != KindObjectRef {
		return nil, false
	}
	inst, _ := v.ref.(*Instance)
	return inst, true
}

// AsArray returns the underlying array (nil for the null reference), or
// (nil, false) if v is not an ArrayRef value.
func (v Value) AsArray() (*Array, bool) {
	if v.kind != KindArrayRef {
		return nil, false
	}
	arr, _ := v.ref.(*Array)
	return arr, true
}

// AsPinned returns the pinned-slot capability, or (zero, false) if v is
// not a Pinned value.
func (v Value) AsPinned() (PinnedRef, bool) {
	if v.kind != KindPinned {
		return PinnedRef{}, false
	}
	p, ok := v.ref.(PinnedRef)
	return p, ok
}

// IsNumeric reports whether the value's kind is an integer or float
// scalar (i.e. a valid operand of the typed arithmetic instructions).
func (v Value) IsNumeric() bool {
	switch v.kind {
	case KindInt8, KindInt16, KindInt32, KindInt64,
		KindUint8, KindUint16, KindUint32, KindUint64,
		KindFloat32, KindFloat64:
		return true
	default:
		return false
	}
}

// IsSigned reports whether the value's kind is a signed integer.
func (v Value) IsSigned() bool {
	switch v.kind {
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return true
	default:
		return false
	}
}

// IsFloat reports whether the value's kind is a floating-point scalar.
func (v Value) IsFloat() bool {
	return v.kind == KindFloat32 || v.kind == KindFloat64
}

// refObject returns the boxed heap object a reference-typed value points
// to, or (nil, false) if v carries no heap reference (Unit/scalars, or a
// null reference).
func refObject(v Value) (object, bool) {
	switch v.kind {
	case KindString:
		if s, ok := v.ref.(*StringObj); ok && s != nil {
			return s, true
		}
	case KindObjectRef:
		if inst, ok := v.ref.(*Instance); ok && inst != nil {
			return inst, true
		}
	case KindArrayRef:
		if arr, ok := v.ref.(*Array); ok && arr != nil {
			return arr, true
		}
	}
	return nil, false
}

// Equal implements Value equality. Reference types compare by identity
// (same boxed object, or both null); String compares by content since it
// is an immutable value type from the script language's perspective.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindUnit:
		return true
	case KindFloat32:
		return v.AsFloat32() == other.AsFloat32()
	case KindFloat64:
		return v.AsFloat64() == other.AsFloat64()
	case KindString:
		a, b := v.AsString(), other.AsString()
		if a == nil || b == nil {
			return a == b
		}
		return string(a.Bytes) == string(b.Bytes)
	case KindObjectRef:
		a, _ := v.AsObject()
		b, _ := other.AsObject()
		return a == b
	case KindArrayRef:
		a, _ := v.AsArray()
		b, _ := other.AsArray()
		return a == b
	case KindPinned:
		a, _ := v.AsPinned()
		b, _ := other.AsPinned()
		return a.Target == b.Target
	default:
		return v.bits == other.bits
	}
}

// ZeroValueFor builds the default-initialized Value for a declared type:
// numeric zero, false, the empty string (heap-allocated via h), or null
// for references.
func ZeroValueFor(t program.TypeDescriptor, h *Heap) Value {
	switch t.Kind {
	case program.TypeUnit:
		return Unit()
	case program.TypeBool:
		return Bool(false)
	case program.TypeInt8:
		return Int8(0)
	case program.TypeInt16:
		return Int16(0)
	case program.TypeInt32:
		return Int32(0)
	case program.TypeInt64:
		return Int64(0)
	case program.TypeUint8:
		return Uint8(0)
	case program.TypeUint16:
		return Uint16(0)
	case program.TypeUint32:
		return Uint32(0)
	case program.TypeUint64:
		return Uint64(0)
	case program.TypeFloat32:
		return Float32(0)
	case program.TypeFloat64:
		return Float64(0)
	case program.TypeCName:
		return CName(0)
	case program.TypeTweakDBID:
		return TweakDBID(0)
	case program.TypeResRef:
		return ResRef(0)
	case program.TypeString:
		s, _ := h.AllocString(nil)
		return StringValue(s)
	case program.TypeClass:
		return ObjectRefValue(nil)
	case program.TypeArray:
		return ArrayRefValue(nil)
	case program.TypeNullable:
		return ZeroValueFor(*t.Elem, h)
	default:
		return Unit()
	}
}

// literalToValue realizes a program.Literal (a constant-pool entry or a
// field default) as a runtime Value, interning symbols and allocating
// strings through h as needed.
func literalToValue(lit program.Literal, h *Heap) Value {
	switch lit.Kind {
	case program.TypeString:
		s, _ := h.AllocString([]byte(lit.Str))
		return StringValue(s)
	case program.TypeCName:
		return CName(h.Interns.Intern(lit.Str))
	case program.TypeTweakDBID:
		return TweakDBID(h.Interns.Intern(lit.Str))
	case program.TypeResRef:
		return ResRef(h.Interns.Intern(lit.Str))
	default:
		return Value{kind: typeKindToKind(lit.Kind), bits: lit.Bits}
	}
}

// LiteralToValue is the exported form of literalToValue, used by the
// interpreter to materialize constant-pool entries and by callers
// constructing initial instance field values.
func LiteralToValue(lit program.Literal, h *Heap) Value {
	return literalToValue(lit, h)
}
