package cindervm

import (
	"github.com/cindervm/cindervm-core/internal/cindervm-core/heap"
	"github.com/cindervm/cindervm-core/internal/cindervm-core/interp"
	"github.com/cindervm/cindervm-core/internal/cindervm-core/native"
	"github.com/cindervm/cindervm-core/internal/cindervm-core/program"
)

// Value is a tagged VM value: a scalar, an interned symbol, a string, an
// object/array reference, or a pinned out-parameter capability.
type Value = heap.Value

// Program is the frozen, in-memory Program Model a loader builds and
// LoadProgram consumes; see the program package for how to build one.
type Program = program.Program

// Class and Function are the Program Model's declaration types, exposed
// here only so a host can inspect a loaded Program (e.g. to resolve a
// method's signature string before calling InvokeMethod).
type Class = program.Class
type Function = program.Function

// Context is what a registered native handler receives: the same
// interpreter instance that invoked it, scoped to that one call.
type Context = interp.Interpreter

// NativeHandler is a host-provided implementation of a native-bound
// function, registered with RegisterNative.
type NativeHandler = native.Handler

// CollectionEvent reports one observable step of the collector: a phase
// transition, or the objects visited (and, while sweeping, freed) by one
// bounded unit of work.
type CollectionEvent = heap.CollectionEvent

// CollectionObserver receives CollectionEvents; it is never required for
// correctness and defaults to a no-op.
type CollectionObserver = heap.Observer

// TraceEvent reports one instruction about to execute: its function,
// instruction pointer, and opcode.
type TraceEvent = interp.TraceEvent

// TraceHook receives a TraceEvent before each instruction executes.
type TraceHook = interp.TraceHook

// HeapStats is a point-in-time snapshot of heap occupancy.
type HeapStats = heap.Stats
