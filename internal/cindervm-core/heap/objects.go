package heap

import "github.com/cindervm/cindervm-core/internal/cindervm-core/program"

// color is the tri-color mark used by the incremental collector.
type color uint8

const (
	white color = iota
	gray
	black
)

// header is embedded in every collected heap object; it carries the
// collector's color and a stable identity used by the heap's live-object
// index.
type header struct {
	id    uint64
	color color
}

func (h *header) getColor() color  { return h.color }
func (h *header) setColor(c color) { h.color = c }

// object is implemented by every GC-managed heap object. scanRefs visits
// each outgoing Value a mark pass must follow; leaf objects (strings)
// visit nothing.
type object interface {
	getColor() color
	setColor(color)
	scanRefs(visit func(Value))
	objectID() uint64
	setID(uint64)
}

func (h *header) objectID() uint64 { return h.id }
func (h *header) setID(id uint64)  { h.id = id }

// StringObj is an immutable, GC-managed byte string. It holds no outgoing
// references, so it is a GC leaf.
type StringObj struct {
	header
	Bytes []byte
}

func (s *StringObj) scanRefs(func(Value)) {}

// String returns the UTF-8 text of the string object.
func (s *StringObj) String() string { return string(s.Bytes) }

// Instance is a heap-allocated object of a declared Class: a fixed-length
// vector of field Values, sized to the class's cumulative field count.
type Instance struct {
	header
	Class  *program.Class
	Fields []Value
}

func (i *Instance) scanRefs(visit func(Value)) {
	for _, v := range i.Fields {
		visit(v)
	}
}

// Array is a heap-allocated, resizable vector of Values of a declared
// element type.
type Array struct {
	header
	Elem  program.TypeDescriptor
	Elems []Value
}

func (a *Array) scanRefs(visit func(Value)) {
	for _, v := range a.Elems {
		visit(v)
	}
}

// Len returns the current number of elements.
func (a *Array) Len() int { return len(a.Elems) }
