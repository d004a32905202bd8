package heap

import (
	"fmt"

	"github.com/dolthub/swiss"

	"github.com/cindervm/cindervm-core/internal/cindervm-core/intern"
	"github.com/cindervm/cindervm-core/internal/cindervm-core/program"
)

// Config carries the tuning knobs §4.2 recognizes: how much arena to
// reserve up front, and how much mark/sweep work to perform per
// allocation once a collection cycle is underway.
type Config struct {
	InitialHeapObjects int
	MarkWorkPerAlloc   int
	SweepWorkPerAlloc  int
}

// DefaultHeapConfig returns reasonable defaults: start a new cycle every
// 4096 live-ish allocations, and do a handful of units of work per
// allocation while a cycle is running.
func DefaultHeapConfig() Config {
	return Config{
		InitialHeapObjects: 4096,
		MarkWorkPerAlloc:   8,
		SweepWorkPerAlloc:  8,
	}
}

// CollectionEvent describes one observable step the collector took.
// Hosts attach an Observer purely for diagnostics; the VM's correctness
// never depends on anything it does with these events.
type CollectionEvent struct {
	Phase          Phase
	CycleNumber    uint64
	ObjectsVisited int
	ObjectsFreed   int
}

// Observer receives CollectionEvents. A nil Observer is a valid no-op.
type Observer func(CollectionEvent)

// RootProvider enumerates the Values the collector must treat as roots:
// every frame's locals and operand stack, for every active frame. The
// heap package depends only on this interface, not on the interpreter
// package that implements it, to keep C2 and C3 decoupled.
type RootProvider interface {
	EnumerateRoots(yield func(Value))
}

// PinHandle identifies a Value explicitly rooted by native host code
// across a VM invocation boundary (see the Native Bridge's pinning
// contract in §4.4).
type PinHandle uint64

// Heap owns every collected object (instances, arrays, strings), the
// append-only interned-symbol tables, and the incremental collector
// state. It is private to a single interpreter thread; see §5.
type Heap struct {
	cfg     Config
	objects *swiss.Map[uint64, object]
	nextID  uint64

	phase            Phase
	grayQueue        []object
	sweepPending     []uint64
	allocsSinceCycle int
	cycleNumber      uint64

	roots    RootProvider
	pins     map[uint64]Value
	nextPin  uint64
	observer Observer

	// Interns backs CName, TweakDBID, and ResRef values. Per §5 these
	// tables are append-only and do not participate in collection.
	Interns *intern.Table

	stats Stats
}

// Stats is a snapshot of collector bookkeeping, useful for tests and
// diagnostics.
type Stats struct {
	Live   int
	Freed  int
	Cycles uint64
}

// New creates an empty heap with the given configuration and optional
// observer (pass nil for none).
func New(cfg Config, observer Observer) *Heap {
	if cfg.MarkWorkPerAlloc < 1 {
		cfg.MarkWorkPerAlloc = 1
	}
	if cfg.SweepWorkPerAlloc < 1 {
		cfg.SweepWorkPerAlloc = 1
	}
	if cfg.InitialHeapObjects < 1 {
		cfg.InitialHeapObjects = 1
	}
	capHint := uint32(cfg.InitialHeapObjects)
	return &Heap{
		cfg:      cfg,
		objects:  swiss.NewMap[uint64, object](capHint),
		pins:     make(map[uint64]Value),
		Interns:  intern.New(),
		observer: observer,
	}
}

// SetRoots attaches the interpreter (or any other root provider) the
// collector consults when starting a mark pass.
func (h *Heap) SetRoots(p RootProvider) { h.roots = p }

// SetObserver installs (or clears, with nil) the diagnostic hook called
// on every collector phase transition.
func (h *Heap) SetObserver(observer Observer) { h.observer = observer }

func (h *Heap) emit(ev CollectionEvent) {
	if h.observer != nil {
		h.observer(ev)
	}
}

func (h *Heap) register(o object) {
	h.nextID++
	o.setID(h.nextID)
	if h.phase == PhaseMarking {
		// Allocate black during a mark pass: the object is reachable by
		// construction (nothing else has had a chance to point to it
		// yet, and it is about to be stored somewhere live), so treating
		// it as already-scanned is both correct and avoids chasing
		// freshly-allocated garbage.
		o.setColor(black)
	} else {
		o.setColor(white)
	}
	h.objects.Put(o.objectID(), o)
	h.stats.Live++
	h.debitAlloc()
}

// AllocInstance allocates a new Instance of class, with every field
// initialized to its declared default.
func (h *Heap) AllocInstance(class *program.Class) (*Instance, error) {
	if class == nil {
		return nil, fmt.Errorf("heap: cannot allocate instance of nil class")
	}
	descs := class.AllFields()
	fields := make([]Value, len(descs))
	for i, fd := range descs {
		fields[i] = fieldDefaultValue(fd, h)
	}
	inst := &Instance{Class: class, Fields: fields}
	h.register(inst)
	return inst, nil
}

// AllocArray allocates a new Array of the given element type and initial
// length, with every element default-initialized.
func (h *Heap) AllocArray(elem program.TypeDescriptor, initialLen int) (*Array, error) {
	if initialLen < 0 {
		return nil, fmt.Errorf("heap: negative array length %d", initialLen)
	}
	zero := ZeroValueFor(elem, h)
	elems := make([]Value, initialLen)
	for i := range elems {
		elems[i] = zero
	}
	arr := &Array{Elem: elem, Elems: elems}
	h.register(arr)
	return arr, nil
}

// AllocString allocates a new immutable string object from a copy of b
// (nil or empty produces the empty string).
func (h *Heap) AllocString(b []byte) (*StringObj, error) {
	cp := make([]byte, len(b))
	copy(cp, b)
	s := &StringObj{Bytes: cp}
	h.register(s)
	return s, nil
}

func fieldDefaultValue(fd program.FieldDescriptor, h *Heap) Value {
	switch fd.Type.Kind {
	case program.TypeClass, program.TypeArray, program.TypeNullable:
		return ZeroValueFor(fd.Type, h)
	default:
		return literalToValue(fd.Default, h)
	}
}

// GetField reads field index of inst.
func (h *Heap) GetField(inst *Instance, index int) (Value, error) {
	if inst == nil {
		return Value{}, fmt.Errorf("heap: GetField on null instance")
	}
	if index < 0 || index >= len(inst.Fields) {
		return Value{}, fmt.Errorf("heap: field index %d out of range [0,%d)", index, len(inst.Fields))
	}
	return inst.Fields[index], nil
}

// SetField writes field index of inst, running the write barrier.
func (h *Heap) SetField(inst *Instance, index int, v Value) error {
	if inst == nil {
		return fmt.Errorf("heap: SetField on null instance")
	}
	if index < 0 || index >= len(inst.Fields) {
		return fmt.Errorf("heap: field index %d out of range [0,%d)", index, len(inst.Fields))
	}
	inst.Fields[index] = v
	h.writeBarrier(inst, v)
	return nil
}

// GetElement reads element index of arr.
func (h *Heap) GetElement(arr *Array, index int) (Value, error) {
	if arr == nil {
		return Value{}, fmt.Errorf("heap: GetElement on null array")
	}
	if index < 0 || index >= len(arr.Elems) {
		return Value{}, fmt.Errorf("heap: array index %d out of range [0,%d)", index, len(arr.Elems))
	}
	return arr.Elems[index], nil
}

// SetElement writes element index of arr, running the write barrier.
func (h *Heap) SetElement(arr *Array, index int, v Value) error {
	if arr == nil {
		return fmt.Errorf("heap: SetElement on null array")
	}
	if index < 0 || index >= len(arr.Elems) {
		return fmt.Errorf("heap: array index %d out of range [0,%d)", index, len(arr.Elems))
	}
	arr.Elems[index] = v
	h.writeBarrier(arr, v)
	return nil
}

// ArrayResize grows or shrinks arr to n elements; new elements (on
// growth) are default-initialized.
func (h *Heap) ArrayResize(arr *Array, n int) error {
	if arr == nil {
		return fmt.Errorf("heap: ArrayResize on null array")
	}
	if n < 0 {
		return fmt.Errorf("heap: negative array length %d", n)
	}
	switch {
	case n == len(arr.Elems):
		return nil
	case n < len(arr.Elems):
		arr.Elems = arr.Elems[:n]
	default:
		zero := ZeroValueFor(arr.Elem, h)
		for len(arr.Elems) < n {
			arr.Elems = append(arr.Elems, zero)
			h.writeBarrier(arr, zero)
		}
	}
	return nil
}

// ArrayPush appends v to arr, running the write barrier.
func (h *Heap) ArrayPush(arr *Array, v Value) error {
	if arr == nil {
		return fmt.Errorf("heap: ArrayPush on null array")
	}
	arr.Elems = append(arr.Elems, v)
	h.writeBarrier(arr, v)
	return nil
}

// ArrayPop removes and returns the last element of arr.
func (h *Heap) ArrayPop(arr *Array) (Value, error) {
	if arr == nil {
		return Value{}, fmt.Errorf("heap: ArrayPop on null array")
	}
	if len(arr.Elems) == 0 {
		return Value{}, fmt.Errorf("heap: ArrayPop on empty array")
	}
	last := arr.Elems[len(arr.Elems)-1]
	arr.Elems = arr.Elems[:len(arr.Elems)-1]
	return last, nil
}

// ArrayClear truncates arr to zero elements.
func (h *Heap) ArrayClear(arr *Array) error {
	if arr == nil {
		return fmt.Errorf("heap: ArrayClear on null array")
	}
	arr.Elems = arr.Elems[:0]
	return nil
}

// PinForNative explicitly roots v on behalf of native host code, for as
// long as the returned handle is held; see the Native Bridge's pinning
// contract in §4.4. Callers must UnpinNative when done.
func (h *Heap) PinForNative(v Value) PinHandle {
	h.nextPin++
	id := h.nextPin
	h.pins[id] = v
	return PinHandle(id)
}

// UnpinNative releases a handle obtained from PinForNative.
func (h *Heap) UnpinNative(handle PinHandle) {
	delete(h.pins, uint64(handle))
}

// Stats returns a snapshot of collector bookkeeping.
func (h *Heap) Stats() Stats {
	h.stats.Cycles = h.cycleNumber
	return h.stats
}

// LiveObjectCount returns the number of objects currently tracked by the
// heap's live-object index (not yet swept).
func (h *Heap) LiveObjectCount() int {
	return h.objects.Count()
}
