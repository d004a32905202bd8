package native

import (
	"fmt"

	"github.com/cindervm/cindervm-core/internal/cindervm-core/heap"
	"github.com/cindervm/cindervm-core/internal/cindervm-core/interp"
	"github.com/cindervm/cindervm-core/internal/cindervm-core/program"
)

// NewString is a factory operation: it lets a native handler build a
// String Value the same way the interpreter's own OpToString does,
// without reaching into heap internals directly.
func NewString(it *interp.Interpreter, s string) (heap.Value, error) {
	obj, err := it.Heap().AllocString([]byte(s))
	if err != nil {
		return heap.Value{}, err
	}
	return heap.StringValue(obj), nil
}

// NewInstance allocates a new instance of the named class, looking it
// up in the interpreter's loaded program.
func NewInstance(it *interp.Interpreter, className string) (heap.Value, error) {
	cls, ok := it.Program().ResolveClass(className)
	if !ok {
		return heap.Value{}, fmt.Errorf("native: class %q is not declared in the loaded program", className)
	}
	inst, err := it.Heap().AllocInstance(cls)
	if err != nil {
		return heap.Value{}, err
	}
	return heap.ObjectRefValue(inst), nil
}

// NewArray allocates a new array of elem with the given initial length,
// the factory operation a handler uses in place of emitting OpNewArray
// itself.
func NewArray(it *interp.Interpreter, elem program.TypeDescriptor, initialLen int) (heap.Value, error) {
	arr, err := it.Heap().AllocArray(elem, initialLen)
	if err != nil {
		return heap.Value{}, err
	}
	return heap.ArrayRefValue(arr), nil
}

// ArrayPush appends v to arr, the factory operation a handler uses in
// place of emitting OpArrayPush itself.
func ArrayPush(it *interp.Interpreter, arr *heap.Array, v heap.Value) error {
	return it.Heap().ArrayPush(arr, v)
}

// ArrayGet reads arr[idx], the factory operation a handler uses in place
// of emitting OpLoadElem itself.
func ArrayGet(it *interp.Interpreter, arr *heap.Array, idx int) (heap.Value, error) {
	return it.Heap().GetElement(arr, idx)
}

// ArrayLen returns the current length of arr.
func ArrayLen(arr *heap.Array) int {
	return arr.Len()
}

// GetField reads obj's field at idx, the factory operation a handler
// uses in place of emitting OpLoadField itself.
func GetField(it *interp.Interpreter, obj *heap.Instance, idx int) (heap.Value, error) {
	return it.Heap().GetField(obj, idx)
}

// SetField writes v to obj's field at idx, the factory operation a
// handler uses in place of emitting OpStoreField itself.
func SetField(it *interp.Interpreter, obj *heap.Instance, idx int, v heap.Value) error {
	return it.Heap().SetField(obj, idx, v)
}

// InvokeFunction re-enters the interpreter, the factory operation a
// native handler uses to call back into VM-defined code (a callback
// Value, a virtual method looked up by the handler itself) rather than
// only ever being called from it.
func InvokeFunction(it *interp.Interpreter, fn *program.Function, args []heap.Value) (heap.Value, error) {
	return it.Invoke(fn, args)
}

// LogWriter is implemented by whatever sink the host wants Log output to
// reach; this package's tests pass a plain line buffer.
type LogWriter interface {
	LogLine(line string)
}

// RegisterStandardLibrary binds a small set of native functions: Log for
// host-visible output, and Increment, a minimal out-parameter native
// function exercising the Pinned protocol end to end. Real hosts are
// expected to register their own, richer native surface the same way.
func RegisterStandardLibrary(b *Bridge, sink LogWriter) error {
	if err := b.Register("Log", "(String)Unit", func(it *interp.Interpreter, args []heap.Value) ([]heap.Value, error) {
		msg, err := Arg(args, 0).String()
		if err != nil {
			return nil, err
		}
		if sink != nil {
			sink.LogLine(msg)
		}
		return []heap.Value{heap.Unit()}, nil
	}); err != nil {
		return err
	}

	if err := b.Register("Increment", "(out Int32)Unit", func(it *interp.Interpreter, args []heap.Value) ([]heap.Value, error) {
		pin, err := Arg(args, 0).Pinned()
		if err != nil {
			return nil, err
		}
		current := interp.ReadPinned(pin)
		interp.WritePinned(pin, heap.Int32(current.AsInt32()+1))
		return []heap.Value{heap.Unit()}, nil
	}); err != nil {
		return err
	}

	return nil
}
