package program

// FieldDescriptor is one declared field of a class: its name, static type,
// and default-initialization literal.
type FieldDescriptor struct {
	Name    string
	Type    TypeDescriptor
	Default Literal
}

// Class is the immutable description of a declared class: its name, parent
// (nil for a root class), its own fields (not including inherited ones),
// and its virtual method table.
//
// Field layout is inherited: a subclass's cumulative field vector begins
// with its parent's layout followed by its own fields, in declaration
// order. The virtual table is likewise inherited: slots not overridden by
// this class fall through to the parent's entry for that slot.
type Class struct {
	Name    string
	Parent  *Class
	Fields  []FieldDescriptor
	VTable  []*Function
	methods map[string]int // "name/signature" -> slot index, this class's own view
}

// NewClass creates a class with the given name and optional parent.
func NewClass(name string, parent *Class) *Class {
	return &Class{
		Name:    name,
		Parent:  parent,
		methods: make(map[string]int),
	}
}

// AddField appends a field declaration to this class's own layout.
func (c *Class) AddField(f FieldDescriptor) int {
	c.Fields = append(c.Fields, f)
	return c.FieldOffset() + len(c.Fields) - 1
}

// FieldOffset is the number of fields inherited from ancestors, i.e. the
// index at which this class's own fields begin in the cumulative layout.
func (c *Class) FieldOffset() int {
	if c.Parent == nil {
		return 0
	}
	return c.Parent.FieldCount()
}

// FieldCount is the cumulative field count: inherited fields plus this
// class's own.
func (c *Class) FieldCount() int {
	return c.FieldOffset() + len(c.Fields)
}

// AllFields returns the cumulative field layout, parent fields first.
func (c *Class) AllFields() []FieldDescriptor {
	out := make([]FieldDescriptor, 0, c.FieldCount())
	if c.Parent != nil {
		out = append(out, c.Parent.AllFields()...)
	}
	out = append(out, c.Fields...)
	return out
}

// FieldIndex resolves a field by name to its cumulative index, searching
// this class's own fields first, then its ancestors.
func (c *Class) FieldIndex(name string) (int, bool) {
	for i, f := range c.Fields {
		if f.Name == name {
			return c.FieldOffset() + i, true
		}
	}
	if c.Parent != nil {
		return c.Parent.FieldIndex(name)
	}
	return 0, false
}

// IsSubclassOf reports whether c is other or a descendant of other.
func (c *Class) IsSubclassOf(other *Class) bool {
	for cur := c; cur != nil; cur = cur.Parent {
		if cur == other || cur.Name == other.Name {
			return true
		}
	}
	return false
}

// DeclareSlot assigns function f to a newly allocated virtual slot,
// inheriting the parent's table first if this class has not yet been
// given one. Returns the slot index. Used when building a Program by
// hand (tests, examples); a real loader would assign slots itself.
func (c *Class) DeclareSlot(name, signature string, f *Function) int {
	if c.VTable == nil && c.Parent != nil {
		c.VTable = append([]*Function(nil), c.Parent.VTable...)
	}
	key := methodKey(name, signature)
	if slot, ok := c.lookupOwnOrInherited(key); ok {
		c.VTable[slot] = f
		c.methods[key] = slot
		return slot
	}
	slot := len(c.VTable)
	c.VTable = append(c.VTable, f)
	c.methods[key] = slot
	return slot
}

func (c *Class) lookupOwnOrInherited(key string) (int, bool) {
	if slot, ok := c.methods[key]; ok {
		return slot, true
	}
	if c.Parent != nil {
		return c.Parent.lookupOwnOrInherited(key)
	}
	return 0, false
}

// MethodSlot resolves a method by (name, signature) to its virtual slot
// index, searching this class's overrides and then its ancestors.
func (c *Class) MethodSlot(name, signature string) (int, bool) {
	return c.lookupOwnOrInherited(methodKey(name, signature))
}

// VTableLookup follows the parent chain starting at this class until a
// concrete function occupies the given slot.
func (c *Class) VTableLookup(slot int) (*Function, bool) {
	for cur := c; cur != nil; cur = cur.Parent {
		if slot >= 0 && slot < len(cur.VTable) && cur.VTable[slot] != nil {
			return cur.VTable[slot], true
		}
	}
	return nil, false
}

func methodKey(name, signature string) string {
	return name + "/" + signature
}
