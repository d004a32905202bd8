package native

import (
	"github.com/cindervm/cindervm-core/internal/cindervm-core/heap"
	"github.com/cindervm/cindervm-core/internal/cindervm-core/vmerr"
)

// Arg wraps a handler's argument slice to give marshalling call sites a
// short, chainable form: native.Arg(args, 0).Int32().

type argAccessor struct {
	args []heap.Value
	idx  int
}

// Arg returns an accessor for args[idx], deferring the out-of-range or
// type-mismatch check to whichever conversion method is called.
func Arg(args []heap.Value, idx int) argAccessor {
	return argAccessor{args: args, idx: idx}
}

func (a argAccessor) value() (heap.Value, error) {
	if a.idx < 0 || a.idx >= len(a.args) {
		return heap.Value{}, vmerr.Newf(vmerr.KindIndexOutOfRange, "native argument %d out of range [0,%d)", a.idx, len(a.args))
	}
	return a.args[a.idx], nil
}

func (a argAccessor) Int32() (int32, error) {
	v, err := a.value()
	if err != nil {
		return 0, err
	}
	if v.Kind() != heap.KindInt32 {
		return 0, vmerr.Newf(vmerr.KindTypeMismatch, "native argument %d: expected Int32, got %v", a.idx, v.Kind())
	}
	return v.AsInt32(), nil
}

func (a argAccessor) Int64() (int64, error) {
	v, err := a.value()
	if err != nil {
		return 0, err
	}
	if v.Kind() != heap.KindInt64 {
		return 0, vmerr.Newf(vmerr.KindTypeMismatch, "native argument %d: expected Int64, got %v", a.idx, v.Kind())
	}
	return v.AsInt64(), nil
}

func (a argAccessor) Float64() (float64, error) {
	v, err := a.value()
	if err != nil {
		return 0, err
	}
	if v.Kind() != heap.KindFloat64 {
		return 0, vmerr.Newf(vmerr.KindTypeMismatch, "native argument %d: expected Float64, got %v", a.idx, v.Kind())
	}
	return v.AsFloat64(), nil
}

func (a argAccessor) Bool() (bool, error) {
	v, err := a.value()
	if err != nil {
		return false, err
	}
	if v.Kind() != heap.KindBool {
		return false, vmerr.Newf(vmerr.KindTypeMismatch, "native argument %d: expected Bool, got %v", a.idx, v.Kind())
	}
	return v.AsBool(), nil
}

func (a argAccessor) String() (string, error) {
	v, err := a.value()
	if err != nil {
		return "", err
	}
	if v.Kind() != heap.KindString {
		return "", vmerr.Newf(vmerr.KindTypeMismatch, "native argument %d: expected String, got %v", a.idx, v.Kind())
	}
	s := v.AsString()
	if s == nil {
		return "", nil
	}
	return s.String(), nil
}

func (a argAccessor) Object() (*heap.Instance, error) {
	v, err := a.value()
	if err != nil {
		return nil, err
	}
	obj, ok := v.AsObject()
	if !ok {
		return nil, vmerr.Newf(vmerr.KindTypeMismatch, "native argument %d: expected ObjectRef, got %v", a.idx, v.Kind())
	}
	if obj == nil {
		return nil, vmerr.Newf(vmerr.KindNullReference, "native argument %d: receiver is null", a.idx)
	}
	return obj, nil
}

func (a argAccessor) Array() (*heap.Array, error) {
	v, err := a.value()
	if err != nil {
		return nil, err
	}
	arr, ok := v.AsArray()
	if !ok {
		return nil, vmerr.Newf(vmerr.KindTypeMismatch, "native argument %d: expected ArrayRef, got %v", a.idx, v.Kind())
	}
	if arr == nil {
		return nil, vmerr.Newf(vmerr.KindNullReference, "native argument %d: array is null", a.idx)
	}
	return arr, nil
}

// Pinned returns the pinned-slot capability at idx, for native functions
// that declare an out-parameter.
func (a argAccessor) Pinned() (heap.PinnedRef, error) {
	v, err := a.value()
	if err != nil {
		return heap.PinnedRef{}, err
	}
	p, ok := v.AsPinned()
	if !ok {
		return heap.PinnedRef{}, vmerr.Newf(vmerr.KindTypeMismatch, "native argument %d: expected Pinned, got %v", a.idx, v.Kind())
	}
	return p, nil
}
