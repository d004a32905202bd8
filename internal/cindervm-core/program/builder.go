package program

import "math"

// FunctionBuilder assembles a bytecode Function instruction by instruction.
// It exists because this core consumes an already-decoded program and
// defines no bytecode text format of its own; tests, examples, and the
// demo command use it in place of a real compiler.
type FunctionBuilder struct {
	fn *Function
}

// NewFunctionBuilder starts building a bytecode function with the given
// qualified name, parameters, return type, and the declared type of each
// extra local beyond the parameters (in slot order; pass nil if the
// function declares none). A frame's extra locals start out holding the
// zero value of their declared type, per Call protocol step 4, rather
// than a bare Go zero heap.Value.
func NewFunctionBuilder(qualifiedName string, params []Parameter, ret TypeDescriptor, localTypes []TypeDescriptor) *FunctionBuilder {
	return &FunctionBuilder{fn: &Function{
		QualifiedName: qualifiedName,
		Params:        params,
		Return:        ret,
		LocalCount:    len(localTypes),
		LocalTypes:    localTypes,
	}}
}

// Emit appends one instruction and returns its index, useful for patching
// jump targets once the destination is known.
func (b *FunctionBuilder) Emit(op Opcode, operands ...int32) int {
	inst := Instruction{Op: op}
	if len(operands) > 0 {
		inst.Operand = operands[0]
	}
	if len(operands) > 1 {
		inst.Operand2 = operands[1]
	}
	b.fn.Instructions = append(b.fn.Instructions, inst)
	return len(b.fn.Instructions) - 1
}

// Patch overwrites the operand of a previously emitted instruction, used
// to back-patch forward jumps once their target is known.
func (b *FunctionBuilder) Patch(index int, operand int32) {
	b.fn.Instructions[index].Operand = operand
}

// Here returns the index the next Emit call will occupy.
func (b *FunctionBuilder) Here() int {
	return len(b.fn.Instructions)
}

// AddConst appends a constant to the function's pool and returns its index.
func (b *FunctionBuilder) AddConst(c Constant) int32 {
	return b.fn.Constants.Add(c)
}

// AddType appends a type descriptor to the function's side table (used by
// OpNewArray/OpConvert operands) and returns its index.
func (b *FunctionBuilder) AddType(t TypeDescriptor) int32 {
	b.fn.Types = append(b.fn.Types, t)
	return int32(len(b.fn.Types) - 1)
}

// Build finalizes and returns the assembled function.
func (b *FunctionBuilder) Build() *Function {
	return b.fn
}

// Convenience constant constructors, matching the scalar widths in §3.

func ConstInt32Val(v int32) Constant { return Constant{Kind: ConstInt32, Bits: uint64(uint32(v))} }
func ConstInt64Val(v int64) Constant { return Constant{Kind: ConstInt64, Bits: uint64(v)} }
func ConstBoolVal(v bool) Constant {
	if v {
		return Constant{Kind: ConstBool, Bits: 1}
	}
	return Constant{Kind: ConstBool, Bits: 0}
}
func ConstFloat32Val(v float32) Constant {
	return Constant{Kind: ConstFloat32, Bits: uint64(math.Float32bits(v))}
}
func ConstFloat64Val(v float64) Constant {
	return Constant{Kind: ConstFloat64, Bits: math.Float64bits(v)}
}
func ConstStringVal(s string) Constant { return Constant{Kind: ConstString, Str: s} }
func ConstCNameVal(s string) Constant  { return Constant{Kind: ConstCName, Str: s} }

// NewNativeFunction declares a function bound to a host handler rather
// than a bytecode body.
func NewNativeFunction(qualifiedName, nativeKey string, params []Parameter, ret TypeDescriptor) *Function {
	return &Function{
		QualifiedName: qualifiedName,
		Params:        params,
		Return:        ret,
		NativeKey:     nativeKey,
	}
}
