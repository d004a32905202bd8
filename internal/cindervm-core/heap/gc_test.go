package heap

import (
	"testing"

	"github.com/cindervm/cindervm-core/internal/cindervm-core/program"
)

// fakeRoots is a minimal RootProvider a test controls directly.
type fakeRoots struct {
	values []Value
}

func (f *fakeRoots) EnumerateRoots(yield func(Value)) {
	for _, v := range f.values {
		yield(v)
	}
}

func TestCollectFullyFreesUnreachableStrings(t *testing.T) {
	h := New(Config{InitialHeapObjects: 1 << 30, MarkWorkPerAlloc: 2, SweepWorkPerAlloc: 2}, nil)
	roots := &fakeRoots{}
	h.SetRoots(roots)

	kept, err := h.AllocString([]byte("kept"))
	if err != nil {
		t.Fatalf("AllocString: %v", err)
	}
	if _, err := h.AllocString([]byte("garbage-1")); err != nil {
		t.Fatalf("AllocString: %v", err)
	}
	if _, err := h.AllocString([]byte("garbage-2")); err != nil {
		t.Fatalf("AllocString: %v", err)
	}
	roots.values = []Value{StringValue(kept)}

	before := h.LiveObjectCount()
	if before != 3 {
		t.Fatalf("LiveObjectCount before collection = %d, want 3", before)
	}

	h.CollectFully()

	after := h.LiveObjectCount()
	if after != 1 {
		t.Fatalf("LiveObjectCount after collection = %d, want 1", after)
	}
	stats := h.Stats()
	if stats.Freed != 2 {
		t.Fatalf("Stats().Freed = %d, want 2", stats.Freed)
	}
	if stats.Live != 1 {
		t.Fatalf("Stats().Live = %d, want 1", stats.Live)
	}
}

func TestCollectFullyTracesThroughFieldsAndElements(t *testing.T) {
	h := New(Config{InitialHeapObjects: 1 << 30, MarkWorkPerAlloc: 3, SweepWorkPerAlloc: 3}, nil)
	roots := &fakeRoots{}
	h.SetRoots(roots)

	cls := program.NewClass("Box", nil)
	cls.AddField(program.FieldDescriptor{Name: "payload", Type: program.Scalar(program.TypeString)})

	box, _ := h.AllocInstance(cls)
	payload, _ := h.AllocString([]byte("reachable via field"))
	if err := h.SetField(box, 0, StringValue(payload)); err != nil {
		t.Fatalf("SetField: %v", err)
	}

	arr, _ := h.AllocArray(program.ClassType("Box"), 1)
	if err := h.SetElement(arr, 0, ObjectRefValue(box)); err != nil {
		t.Fatalf("SetElement: %v", err)
	}

	orphan, _ := h.AllocString([]byte("unreachable"))
	_ = orphan

	roots.values = []Value{ArrayRefValue(arr)}

	h.CollectFully()

	if h.LiveObjectCount() != 3 {
		t.Fatalf("LiveObjectCount = %d, want 3 (array, box, its string field)", h.LiveObjectCount())
	}
}

func TestWriteBarrierKeepsObjectStoredDuringMarkAlive(t *testing.T) {
	h := New(Config{InitialHeapObjects: 1 << 30, MarkWorkPerAlloc: 1, SweepWorkPerAlloc: 1000}, nil)
	roots := &fakeRoots{}
	h.SetRoots(roots)

	cls := program.NewClass("Holder", nil)
	cls.AddField(program.FieldDescriptor{Name: "ref", Type: program.ClassType("Holder")})
	holder, _ := h.AllocInstance(cls)
	late, _ := h.AllocInstance(cls)
	roots.values = []Value{ObjectRefValue(holder)}

	h.startCycle()
	// Force holder to black and take it off the gray queue, simulating a
	// marker that has already visited it before the store below.
	obj, _ := refObject(ObjectRefValue(holder))
	obj.setColor(black)
	h.grayQueue = h.grayQueue[:0]

	if err := h.SetField(holder, 0, ObjectRefValue(late)); err != nil {
		t.Fatalf("SetField: %v", err)
	}

	h.CollectFully()

	if h.LiveObjectCount() != 2 {
		t.Fatalf("LiveObjectCount = %d, want 2 (holder survives via root, late survives via write barrier)", h.LiveObjectCount())
	}
}

func TestPinForNativeRootsAcrossCollection(t *testing.T) {
	h := New(Config{InitialHeapObjects: 1 << 30, MarkWorkPerAlloc: 4, SweepWorkPerAlloc: 4}, nil)
	h.SetRoots(&fakeRoots{})

	s, _ := h.AllocString([]byte("pinned"))
	handle := h.PinForNative(StringValue(s))

	h.CollectFully()
	if h.LiveObjectCount() != 1 {
		t.Fatalf("pinned string should survive a full collection")
	}

	h.UnpinNative(handle)
	h.CollectFully()
	if h.LiveObjectCount() != 0 {
		t.Fatalf("unpinned, unrooted string should be collected")
	}
}

func TestIncrementalStepMakesBoundedProgress(t *testing.T) {
	h := New(Config{InitialHeapObjects: 1 << 30, MarkWorkPerAlloc: 1, SweepWorkPerAlloc: 1}, nil)
	h.SetRoots(&fakeRoots{})
	for i := 0; i < 10; i++ {
		if _, err := h.AllocString([]byte("x")); err != nil {
			t.Fatalf("AllocString: %v", err)
		}
	}
	h.startCycle()
	if h.phase != PhaseMarking {
		t.Fatalf("phase after startCycle = %v, want marking", h.phase)
	}
	steps := 0
	for h.phase != PhaseIdle && steps < 1000 {
		h.Step()
		steps++
	}
	if steps == 0 {
		t.Fatalf("Step never advanced the collector")
	}
	if h.phase != PhaseIdle {
		t.Fatalf("collector did not reach idle within %d steps", steps)
	}
}
