package native_test

import (
	"testing"

	"github.com/cindervm/cindervm-core/internal/cindervm-core/heap"
	"github.com/cindervm/cindervm-core/internal/cindervm-core/interp"
	"github.com/cindervm/cindervm-core/internal/cindervm-core/native"
	"github.com/cindervm/cindervm-core/internal/cindervm-core/program"
)

type lineSink struct{ lines []string }

func (s *lineSink) LogLine(line string) { s.lines = append(s.lines, line) }

func declareClass(t *testing.T, prog *program.Program, name string) *program.Class {
	t.Helper()
	c := program.NewClass(name, nil)
	if err := prog.AddClass(c); err != nil {
		t.Fatalf("AddClass(%s): %v", name, err)
	}
	return c
}

func TestRegisterStandardLibraryLog(t *testing.T) {
	b := native.NewBridge()
	sink := &lineSink{}
	if err := native.RegisterStandardLibrary(b, sink); err != nil {
		t.Fatalf("RegisterStandardLibrary: %v", err)
	}

	h := heap.New(heap.DefaultHeapConfig(), nil)
	prog := program.NewProgram()
	prog.Freeze()
	it := interp.New(h, prog, b, interp.DefaultConfig())

	s, err := h.AllocString([]byte("hello, world"))
	if err != nil {
		t.Fatalf("AllocString: %v", err)
	}
	out, err := b.Invoke(native.Key("Log", "(String)Unit"), it, []heap.Value{heap.StringValue(s)})
	if err != nil {
		t.Fatalf("Invoke(Log): %v", err)
	}
	if len(out) != 1 || out[0].Kind() != heap.KindUnit {
		t.Fatalf("Log should return Unit, got %v", out)
	}
	if len(sink.lines) != 1 || sink.lines[0] != "hello, world" {
		t.Fatalf("sink.lines = %v, want [%q]", sink.lines, "hello, world")
	}
}

func TestRegisterStandardLibraryIncrementWritesThroughPin(t *testing.T) {
	b := native.NewBridge()
	if err := native.RegisterStandardLibrary(b, nil); err != nil {
		t.Fatalf("RegisterStandardLibrary: %v", err)
	}

	h := heap.New(heap.DefaultHeapConfig(), nil)
	prog := program.NewProgram()
	prog.Freeze()
	it := interp.New(h, prog, b, interp.DefaultConfig())

	slot := heap.Int32(41)
	args := []heap.Value{heap.PinnedValue(heap.PinnedRef{Target: &slot})}
	if _, err := b.Invoke(native.Key("Increment", "(out Int32)Unit"), it, args); err != nil {
		t.Fatalf("Invoke(Increment): %v", err)
	}
	if slot.AsInt32() != 42 {
		t.Fatalf("slot = %v, want 42", slot.AsInt32())
	}
}

func TestNewStringAllocatesThroughHeap(t *testing.T) {
	h := heap.New(heap.DefaultHeapConfig(), nil)
	prog := program.NewProgram()
	prog.Freeze()
	it := interp.New(h, prog, nil, interp.DefaultConfig())

	v, err := native.NewString(it, "native-built")
	if err != nil {
		t.Fatalf("NewString: %v", err)
	}
	if v.Kind() != heap.KindString || v.AsString().String() != "native-built" {
		t.Fatalf("NewString produced %v", v)
	}
}

func TestNewInstanceResolvesDeclaredClass(t *testing.T) {
	h := heap.New(heap.DefaultHeapConfig(), nil)
	prog := program.NewProgram()
	declareClass(t, prog, "Widget")
	prog.Freeze()
	it := interp.New(h, prog, nil, interp.DefaultConfig())

	v, err := native.NewInstance(it, "Widget")
	if err != nil {
		t.Fatalf("NewInstance: %v", err)
	}
	obj, ok := v.AsObject()
	if !ok || obj == nil || obj.Class.Name != "Widget" {
		t.Fatalf("NewInstance produced %v", v)
	}
}

func TestNewInstanceUnknownClassFails(t *testing.T) {
	h := heap.New(heap.DefaultHeapConfig(), nil)
	prog := program.NewProgram()
	prog.Freeze()
	it := interp.New(h, prog, nil, interp.DefaultConfig())

	if _, err := native.NewInstance(it, "DoesNotExist"); err == nil {
		t.Fatal("expected an error for an undeclared class")
	}
}

func TestArrayFactoryRoundtrip(t *testing.T) {
	h := heap.New(heap.DefaultHeapConfig(), nil)
	prog := program.NewProgram()
	prog.Freeze()
	it := interp.New(h, prog, nil, interp.DefaultConfig())

	v, err := native.NewArray(it, program.Scalar(program.TypeInt32), 0)
	if err != nil {
		t.Fatalf("NewArray: %v", err)
	}
	arr, ok := v.AsArray()
	if !ok || arr == nil {
		t.Fatalf("NewArray produced %v", v)
	}

	for _, n := range []int32{10, 20, 30} {
		if err := native.ArrayPush(it, arr, heap.Int32(n)); err != nil {
			t.Fatalf("ArrayPush: %v", err)
		}
	}
	if native.ArrayLen(arr) != 3 {
		t.Fatalf("ArrayLen() = %d, want 3", native.ArrayLen(arr))
	}

	got, err := native.ArrayGet(it, arr, 1)
	if err != nil {
		t.Fatalf("ArrayGet: %v", err)
	}
	if got.AsInt32() != 20 {
		t.Fatalf("ArrayGet(1) = %d, want 20", got.AsInt32())
	}
}

func TestFieldFactoryRoundtrip(t *testing.T) {
	h := heap.New(heap.DefaultHeapConfig(), nil)
	prog := program.NewProgram()
	widget := declareClass(t, prog, "Widget")
	widget.AddField(program.FieldDescriptor{Name: "count", Type: program.Scalar(program.TypeInt32), Default: program.ZeroLiteral(program.Scalar(program.TypeInt32))})
	prog.Freeze()
	it := interp.New(h, prog, nil, interp.DefaultConfig())

	v, err := native.NewInstance(it, "Widget")
	if err != nil {
		t.Fatalf("NewInstance: %v", err)
	}
	obj, _ := v.AsObject()

	if err := native.SetField(it, obj, 0, heap.Int32(7)); err != nil {
		t.Fatalf("SetField: %v", err)
	}
	got, err := native.GetField(it, obj, 0)
	if err != nil {
		t.Fatalf("GetField: %v", err)
	}
	if got.AsInt32() != 7 {
		t.Fatalf("GetField(0) = %d, want 7", got.AsInt32())
	}
}
