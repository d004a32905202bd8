package native_test

import (
	"errors"
	"testing"

	"github.com/cindervm/cindervm-core/internal/cindervm-core/heap"
	"github.com/cindervm/cindervm-core/internal/cindervm-core/interp"
	"github.com/cindervm/cindervm-core/internal/cindervm-core/native"
	"github.com/cindervm/cindervm-core/internal/cindervm-core/program"
	"github.com/cindervm/cindervm-core/internal/cindervm-core/vmerr"
)

func newTestInterp(t *testing.T, bridge interp.NativeBridge) *interp.Interpreter {
	t.Helper()
	h := heap.New(heap.DefaultHeapConfig(), nil)
	prog := program.NewProgram()
	prog.Freeze()
	return interp.New(h, prog, bridge, interp.DefaultConfig())
}

func TestRegisterAndInvokeRoundtrip(t *testing.T) {
	b := native.NewBridge()
	called := false
	err := b.Register("Double", "(Int32)Int32", func(it *interp.Interpreter, args []heap.Value) ([]heap.Value, error) {
		called = true
		n, err := native.Arg(args, 0).Int32()
		if err != nil {
			return nil, err
		}
		return []heap.Value{heap.Int32(n * 2)}, nil
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if b.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", b.Len())
	}

	it := newTestInterp(t, b)
	out, err := b.Invoke(native.Key("Double", "(Int32)Int32"), it, []heap.Value{heap.Int32(21)})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if !called {
		t.Fatal("handler was never called")
	}
	if len(out) != 1 || out[0].AsInt32() != 42 {
		t.Fatalf("out = %v, want [42]", out)
	}
}

func TestRegisterDuplicateKeyFails(t *testing.T) {
	b := native.NewBridge()
	h := func(it *interp.Interpreter, args []heap.Value) ([]heap.Value, error) {
		return nil, nil
	}
	if err := b.Register("Foo", "()Unit", h); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	err := b.Register("Foo", "()Unit", h)
	if err == nil {
		t.Fatal("expected error registering duplicate key")
	}
	var verr *vmerr.Error
	if !errors.As(err, &verr) || verr.Kind != vmerr.KindNativeBridge {
		t.Fatalf("err = %v, want KindNativeBridge", err)
	}
}

func TestUnregisterThenInvokeIsUnresolved(t *testing.T) {
	b := native.NewBridge()
	h := func(it *interp.Interpreter, args []heap.Value) ([]heap.Value, error) { return nil, nil }
	if err := b.Register("Foo", "()Unit", h); err != nil {
		t.Fatalf("Register: %v", err)
	}
	b.Unregister("Foo", "()Unit")
	if b.Len() != 0 {
		t.Fatalf("Len() = %d, want 0 after Unregister", b.Len())
	}

	it := newTestInterp(t, b)
	_, err := b.Invoke(native.Key("Foo", "()Unit"), it, nil)
	var verr *vmerr.Error
	if !errors.As(err, &verr) || verr.Kind != vmerr.KindUnresolvedSymbol {
		t.Fatalf("err = %v, want KindUnresolvedSymbol", err)
	}
}

func TestInvokeWrapsPlainHandlerError(t *testing.T) {
	b := native.NewBridge()
	sentinel := errors.New("boom")
	if err := b.Register("Boom", "()Unit", func(it *interp.Interpreter, args []heap.Value) ([]heap.Value, error) {
		return nil, sentinel
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	it := newTestInterp(t, b)
	_, err := b.Invoke(native.Key("Boom", "()Unit"), it, nil)
	var verr *vmerr.Error
	if !errors.As(err, &verr) || verr.Kind != vmerr.KindNativeBridge {
		t.Fatalf("err = %v, want KindNativeBridge wrapping a plain error", err)
	}
	if !errors.Is(err, sentinel) {
		t.Fatalf("err does not unwrap to sentinel: %v", err)
	}
}

func TestInvokePreservesHandlerVMErrKind(t *testing.T) {
	b := native.NewBridge()
	if err := b.Register("Fail", "()Unit", func(it *interp.Interpreter, args []heap.Value) ([]heap.Value, error) {
		return nil, vmerr.New(vmerr.KindNullReference, "self is null")
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	it := newTestInterp(t, b)
	_, err := b.Invoke(native.Key("Fail", "()Unit"), it, nil)
	var verr *vmerr.Error
	if !errors.As(err, &verr) || verr.Kind != vmerr.KindNullReference {
		t.Fatalf("err = %v, want the handler's own KindNullReference to survive unwrapped", err)
	}
}
