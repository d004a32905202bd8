// Package program holds the immutable, loader-produced representation of a
// compiled script program: classes, functions, instructions, and constant
// pools. Nothing in this package allocates heap objects or executes
// anything; it is pure metadata, resolved to indices, ready to be walked by
// the interpreter.
package program

import "fmt"

// TypeKind identifies the shape of a TypeDescriptor.
type TypeKind uint8

const (
	TypeUnit TypeKind = iota
	TypeBool
	TypeInt8
	TypeInt16
	TypeInt32
	TypeInt64
	TypeUint8
	TypeUint16
	TypeUint32
	TypeUint64
	TypeFloat32
	TypeFloat64
	TypeCName
	TypeTweakDBID
	TypeResRef
	TypeString
	TypeClass
	TypeArray
	TypeNullable
)

func (k TypeKind) String() string {
	switch k {
	case TypeUnit:
		return "Unit"
	case TypeBool:
		return "Bool"
	case TypeInt8:
		return "Int8"
	case TypeInt16:
		return "Int16"
	case TypeInt32:
		return "Int32"
	case TypeInt64:
		return "Int64"
	case TypeUint8:
		return "Uint8"
	case TypeUint16:
		return "Uint16"
	case TypeUint32:
		return "Uint32"
	case TypeUint64:
		return "Uint64"
	case TypeFloat32:
		return "Float32"
	case TypeFloat64:
		return "Float64"
	case TypeCName:
		return "CName"
	case TypeTweakDBID:
		return "TweakDBID"
	case TypeResRef:
		return "ResRef"
	case TypeString:
		return "String"
	case TypeClass:
		return "Class"
	case TypeArray:
		return "Array"
	case TypeNullable:
		return "Nullable"
	default:
		return fmt.Sprintf("TypeKind(%d)", uint8(k))
	}
}

// IsScalar reports whether the type is one of the primitive, non-heap,
// non-reference scalar kinds.
func (k TypeKind) IsScalar() bool {
	switch k {
	case TypeBool, TypeInt8, TypeInt16, TypeInt32, TypeInt64,
		TypeUint8, TypeUint16, TypeUint32, TypeUint64,
		TypeFloat32, TypeFloat64, TypeCName, TypeTweakDBID, TypeResRef:
		return true
	default:
		return false
	}
}

// IsNullableRef reports whether a zero-initialized value of this type is
// the null reference rather than some other zero value.
func (k TypeKind) IsNullableRef() bool {
	switch k {
	case TypeClass, TypeArray, TypeNullable:
		return true
	default:
		return false
	}
}

// TypeDescriptor is an enumerated tag identifying a primitive, a reference
// to a declared Class, an Array-of(TypeDescriptor), or a nullable wrapper.
type TypeDescriptor struct {
	Kind      TypeKind
	ClassName string          // valid when Kind == TypeClass
	Elem      *TypeDescriptor // valid when Kind == TypeArray or TypeNullable
}

// Scalar builds a TypeDescriptor for one of the primitive scalar kinds.
func Scalar(k TypeKind) TypeDescriptor {
	return TypeDescriptor{Kind: k}
}

// ClassType builds a TypeDescriptor referring to a declared class by name.
func ClassType(name string) TypeDescriptor {
	return TypeDescriptor{Kind: TypeClass, ClassName: name}
}

// ArrayOf builds a TypeDescriptor for a dynamic array of the given element type.
func ArrayOf(elem TypeDescriptor) TypeDescriptor {
	e := elem
	return TypeDescriptor{Kind: TypeArray, Elem: &e}
}

// Nullable wraps a type in a nullable wrapper.
func Nullable(elem TypeDescriptor) TypeDescriptor {
	e := elem
	return TypeDescriptor{Kind: TypeNullable, Elem: &e}
}

func (t TypeDescriptor) String() string {
	switch t.Kind {
	case TypeClass:
		return t.ClassName
	case TypeArray:
		return "array<" + t.Elem.String() + ">"
	case TypeNullable:
		return t.Elem.String() + "?"
	default:
		return t.Kind.String()
	}
}

// Equal reports structural equality of two type descriptors.
func (t TypeDescriptor) Equal(other TypeDescriptor) bool {
	if t.Kind != other.Kind {
		return false
	}
	switch t.Kind {
	case TypeClass:
		return t.ClassName == other.ClassName
	case TypeArray, TypeNullable:
		if t.Elem == nil || other.Elem == nil {
			return t.Elem == other.Elem
		}
		return t.Elem.Equal(*other.Elem)
	default:
		return true
	}
}

// Literal is a constant value as stored in the Program Model, before it is
// realized as a runtime Value by the heap. Scalars live in Bits (raw,
// width-appropriate bit pattern); TypeString literals live in Str.
type Literal struct {
	Kind TypeKind
	Bits uint64
	Str  string
}

// ZeroLiteral returns the default-initialized literal for a declared type:
// numeric zero, false, the empty string, or null for references.
func ZeroLiteral(t TypeDescriptor) Literal {
	if t.Kind == TypeString {
		return Literal{Kind: TypeString, Str: ""}
	}
	return Literal{Kind: t.Kind}
}
