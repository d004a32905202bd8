package cindervm

import (
	"sync"

	"github.com/google/uuid"

	"github.com/cindervm/cindervm-core/internal/cindervm-core/heap"
	"github.com/cindervm/cindervm-core/internal/cindervm-core/interp"
	"github.com/cindervm/cindervm-core/internal/cindervm-core/native"
	"github.com/cindervm/cindervm-core/internal/cindervm-core/program"
	"github.com/cindervm/cindervm-core/internal/cindervm-core/vmerr"
)

// VM is the single entry point a host embeds: load a Program, register
// whatever native functions that program calls, then Invoke/InvokeMethod
// into it. One VM owns exactly one heap and one interpreter; it is not
// safe to call Invoke/InvokeMethod from more than one goroutine
// concurrently (see the concurrency note on NewVM).
type VM interface {
	// LoadProgram replaces the VM's loaded Program. It may only be
	// called before the first Invoke/InvokeMethod, or after the VM has
	// otherwise gone idle; there is no hot-reload support.
	LoadProgram(p *Program) error

	// RegisterNative binds a host function to (name, signature) so
	// native-bound Functions in the loaded Program can call it.
	RegisterNative(name, signature string, handler NativeHandler) error

	// Invoke calls a free function by qualified name.
	Invoke(qualifiedName string, args []Value) (Value, error)

	// InvokeMethod calls a virtual method by name and signature against
	// a receiver, resolving the override for the receiver's dynamic
	// class the same way OpCallVirtual does.
	InvokeMethod(receiver Value, methodName, signature string, args []Value) (Value, error)

	// SetTraceHook installs (or clears, with nil) a diagnostic hook
	// called before each instruction executes.
	SetTraceHook(hook TraceHook)

	// SetCollectionObserver installs (or clears, with nil) a diagnostic
	// hook called on every collector phase transition.
	SetCollectionObserver(obs CollectionObserver)

	// Stats reports current heap occupancy.
	Stats() HeapStats

	// Step advances the collector by one bounded unit of work (a
	// handful of objects marked or swept) without performing any
	// allocation. Ordinary operation never needs this — every
	// allocation already drives the collector forward — but a host
	// that wants to observe or force collection progress between
	// invocations, rather than waiting for the next allocation to pay
	// for it, can call it directly.
	Step()
}

// vmImpl is the concrete VM: a heap, a native bridge, a program, and the
// interpreter binding the three together for one logical call stack.
type vmImpl struct {
	mu sync.Mutex

	cfg    *Config
	bridge *native.Bridge
	h      *heap.Heap
	prog   *program.Program
	it     *interp.Interpreter
}

// NewVM creates a VM with the given configuration (nil selects
// DefaultConfig). The returned VM enforces the single-writer rule: a
// non-reentrant guard around Invoke/InvokeMethod makes accidental
// concurrent use from host code fail fast with ErrConcurrentAccess
// rather than corrupt heap state silently.
func NewVM(cfg *Config) (VM, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	bridge := native.NewBridge()
	v := &vmImpl{cfg: cfg, bridge: bridge}
	v.h = heap.New(cfg.heapConfig(), nil)
	v.prog = program.NewProgram()
	v.prog.Freeze()
	v.it = interp.New(v.h, v.prog, bridge, cfg.interpConfig())
	return v, nil
}

func (v *vmImpl) LoadProgram(p *Program) error {
	if !v.mu.TryLock() {
		return vmerr.New(vmerr.KindConcurrentAccess, "LoadProgram called while another invocation is in flight")
	}
	defer v.mu.Unlock()

	p.Freeze()
	v.prog = p
	v.it = interp.New(v.h, v.prog, v.bridge, v.cfg.interpConfig())
	return nil
}

func (v *vmImpl) RegisterNative(name, signature string, handler NativeHandler) error {
	return v.bridge.Register(name, signature, handler)
}

func (v *vmImpl) Invoke(qualifiedName string, args []Value) (Value, error) {
	if !v.mu.TryLock() {
		return Value{}, vmerr.New(vmerr.KindConcurrentAccess, "Invoke called while another invocation is in flight")
	}
	defer v.mu.Unlock()

	correlationID := uuid.NewString()

	fn, ok := v.prog.ResolveFunction(qualifiedName, "")
	if !ok {
		return Value{}, vmerr.Newf(vmerr.KindUnresolvedSymbol, "no function %q in the loaded program", qualifiedName).WithCorrelationID(correlationID)
	}
	result, err := v.it.Invoke(fn, args)
	if err != nil {
		return Value{}, tagCorrelation(err, correlationID)
	}
	return result, nil
}

func (v *vmImpl) InvokeMethod(receiver Value, methodName, signature string, args []Value) (Value, error) {
	if !v.mu.TryLock() {
		return Value{}, vmerr.New(vmerr.KindConcurrentAccess, "InvokeMethod called while another invocation is in flight")
	}
	defer v.mu.Unlock()

	correlationID := uuid.NewString()

	obj, ok := receiver.AsObject()
	if !ok || obj == nil {
		return Value{}, vmerr.Newf(vmerr.KindNullReference, "InvokeMethod requires a non-null ObjectRef receiver").WithCorrelationID(correlationID)
	}
	slot, ok := v.prog.MethodSlot(obj.Class, methodName, signature)
	if !ok {
		return Value{}, vmerr.Newf(vmerr.KindUnresolvedSymbol, "class %s has no method %s%s", obj.Class.Name, methodName, signature).WithCorrelationID(correlationID)
	}
	fn, ok := v.prog.VTableLookup(obj.Class, slot)
	if !ok {
		return Value{}, vmerr.Newf(vmerr.KindUnresolvedSymbol, "class %s has no override for slot %d", obj.Class.Name, slot).WithCorrelationID(correlationID)
	}
	full := append([]Value{receiver}, args...)
	result, err := v.it.Invoke(fn, full)
	if err != nil {
		return Value{}, tagCorrelation(err, correlationID)
	}
	return result, nil
}

func tagCorrelation(err error, id string) error {
	if verr, ok := err.(*vmerr.Error); ok {
		return verr.WithCorrelationID(id)
	}
	return err
}

func (v *vmImpl) SetTraceHook(hook TraceHook) { v.it.SetTraceHook(hook) }

func (v *vmImpl) SetCollectionObserver(obs CollectionObserver) { v.h.SetObserver(obs) }

func (v *vmImpl) Stats() HeapStats { return v.h.Stats() }

func (v *vmImpl) Step() {
	if !v.mu.TryLock() {
		return
	}
	defer v.mu.Unlock()
	v.h.Step()
}
