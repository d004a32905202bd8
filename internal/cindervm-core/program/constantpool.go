package program

// ConstantKind identifies the shape of a pooled constant.
type ConstantKind uint8

const (
	ConstInt8 ConstantKind = iota
	ConstInt16
	ConstInt32
	ConstInt64
	ConstUint8
	ConstUint16
	ConstUint32
	ConstUint64
	ConstFloat32
	ConstFloat64
	ConstBool
	ConstString
	ConstCName
	ConstTweakDBID
	ConstResRef
)

// Constant is one entry of a function's embedded constant pool. Scalars use
// Bits (a width-appropriate raw bit pattern); ConstString, ConstCName,
// ConstTweakDBID, and ConstResRef use Str (the literal text, or the symbol
// name to be interned on first use).
type Constant struct {
	Kind ConstantKind
	Bits uint64
	Str  string
}

// ConstantPool is the literal table embedded in one function body.
type ConstantPool struct {
	Entries []Constant
}

// Add appends a constant and returns its pool index.
func (p *ConstantPool) Add(c Constant) int32 {
	p.Entries = append(p.Entries, c)
	return int32(len(p.Entries) - 1)
}

// Get returns the constant at index, or false if out of range.
func (p *ConstantPool) Get(index int32) (Constant, bool) {
	if index < 0 || int(index) >= len(p.Entries) {
		return Constant{}, false
	}
	return p.Entries[index], true
}
