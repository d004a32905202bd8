// Package native implements the Native Bridge (C4): a registry mapping
// (name, signature) pairs to host-provided Go functions, and the
// marshalling helpers a handler uses to read its arguments and build its
// results. It is grounded on the teacher's co-processor call model
// (VMState.CoProcessorCalls / CoProcessorType), generalized from a fixed
// enum of hash/u32/RAM co-processors to an open, host-extensible
// registry keyed by signature the way a scripting VM's standard library
// is normally exposed.
package native

import (
	"github.com/dolthub/swiss"

	"github.com/cindervm/cindervm-core/internal/cindervm-core/heap"
	"github.com/cindervm/cindervm-core/internal/cindervm-core/interp"
	"github.com/cindervm/cindervm-core/internal/cindervm-core/vmerr"
)

// Handler is a host-provided implementation of a native-bound function.
// it gives access to the heap (for allocation) and to pinned-output
// helpers. For a call from bytecode, the interpreter pops exactly
// len(Params) arguments before the handler runs; a call entering through
// the facade's Invoke passes the host's args slice with no arity check.
type Handler func(it *interp.Interpreter, args []heap.Value) ([]heap.Value, error)

// Key renders the canonical registry key for a (name, signature) pair,
// matching the form callers should assign to Function.NativeKey.
func Key(name, signature string) string {
	return name + "/" + signature
}

// Bridge is the native call registry. It implements interp.NativeBridge.
type Bridge struct {
	handlers *swiss.Map[string, Handler]
}

// NewBridge creates an empty native call registry.
func NewBridge() *Bridge {
	return &Bridge{handlers: swiss.NewMap[string, Handler](32)}
}

// Register binds a handler to (name, signature). Returns an error if
// that exact pair is already bound; re-registration must go through
// Unregister first, keeping bindings explicit rather than silently
// overwritten.
func (b *Bridge) Register(name, signature string, h Handler) error {
	key := Key(name, signature)
	if _, exists := b.handlers.Get(key); exists {
		return vmerr.Newf(vmerr.KindNativeBridge, "native handler %q is already registered", key)
	}
	b.handlers.Put(key, h)
	return nil
}

// Unregister removes a binding, if any.
func (b *Bridge) Unregister(name, signature string) {
	b.handlers.Delete(Key(name, signature))
}

// Len returns the number of registered handlers.
func (b *Bridge) Len() int {
	return b.handlers.Count()
}

// Invoke implements interp.NativeBridge: it looks up key and runs the
// bound handler, wrapping an unresolved key as a KindUnresolvedSymbol
// error so the interpreter can attach a call-stack frame the same way it
// does for any other failure.
func (b *Bridge) Invoke(key string, it *interp.Interpreter, args []heap.Value) ([]heap.Value, error) {
	h, ok := b.handlers.Get(key)
	if !ok {
		return nil, vmerr.Newf(vmerr.KindUnresolvedSymbol, "no native handler registered for %q", key)
	}
	out, err := h(it, args)
	if err != nil {
		if _, ok := err.(*vmerr.Error); ok {
			return nil, err
		}
		return nil, vmerr.Wrapf(vmerr.KindNativeBridge, err, "native handler %q failed", key)
	}
	return out, nil
}
