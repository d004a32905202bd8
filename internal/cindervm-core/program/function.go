package program

import "strings"

// Parameter is one declared parameter of a function: its name, static
// type, and whether it is an out-parameter (pinned slot).
type Parameter struct {
	Name string
	Type TypeDescriptor
	Out  bool
}

// Function is the fully resolved description of one callable: its
// qualified name, parameter and return types, and either a bytecode body
// or a native binding key.
type Function struct {
	QualifiedName string
	Params        []Parameter
	Return        TypeDescriptor
	LocalCount    int              // locals beyond the parameters
	LocalTypes    []TypeDescriptor // declared type of each of the LocalCount extra locals, in slot order
	Instructions  []Instruction
	Constants     ConstantPool
	Types         []TypeDescriptor // side table referenced by OpNewArray/OpConvert operands
	NativeKey     string           // non-empty marks this as a native-bound function
}

// IsNative reports whether this function is bound to a host handler
// rather than carrying a bytecode body.
func (f *Function) IsNative() bool {
	return f.NativeKey != ""
}

// Signature renders the canonical parameter-type signature used for
// overload resolution and native-registry lookups.
func (f *Function) Signature() string {
	parts := make([]string, len(f.Params))
	for i, p := range f.Params {
		s := p.Type.String()
		if p.Out {
			s = "out " + s
		}
		parts[i] = s
	}
	return "(" + strings.Join(parts, ",") + ")" + f.Return.String()
}

// TotalSlots is the number of local slots a frame for this function needs:
// one per parameter followed by LocalCount declared locals.
func (f *Function) TotalSlots() int {
	return len(f.Params) + f.LocalCount
}
