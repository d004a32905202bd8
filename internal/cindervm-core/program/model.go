package program

import "fmt"

// Program is the frozen, in-memory representation of a loaded script
// program: a flat table of classes and a flat table of functions, with
// overload resolution keyed by qualified name plus signature. It is built
// once by the loader (external to this core) and then treated as
// read-only for the lifetime of the VM.
type Program struct {
	Classes   []*Class
	Functions []*Function

	classByName map[string]*Class
	funcsByName map[string][]*Function
	frozen      bool
}

// NewProgram creates an empty, mutable program ready for loading.
func NewProgram() *Program {
	return &Program{
		classByName: make(map[string]*Class),
		funcsByName: make(map[string][]*Function),
	}
}

// AddClass registers a class in the program. Returns an error if the
// program has been frozen or the name is already taken.
func (p *Program) AddClass(c *Class) error {
	if p.frozen {
		return fmt.Errorf("program: cannot add class %q to a frozen program", c.Name)
	}
	if _, exists := p.classByName[c.Name]; exists {
		return fmt.Errorf("program: duplicate class %q", c.Name)
	}
	p.Classes = append(p.Classes, c)
	p.classByName[c.Name] = c
	return nil
}

// AddFunction registers a function, permitting overloads distinguished by
// signature under the same qualified name.
func (p *Program) AddFunction(f *Function) error {
	if p.frozen {
		return fmt.Errorf("program: cannot add function %q to a frozen program", f.QualifiedName)
	}
	for _, existing := range p.funcsByName[f.QualifiedName] {
		if existing.Signature() == f.Signature() {
			return fmt.Errorf("program: duplicate function %s%s", f.QualifiedName, f.Signature())
		}
	}
	p.Functions = append(p.Functions, f)
	p.funcsByName[f.QualifiedName] = append(p.funcsByName[f.QualifiedName], f)
	return nil
}

// Freeze marks the program as immutable. Subsequent AddClass/AddFunction
// calls fail. Freezing is idempotent.
func (p *Program) Freeze() {
	p.frozen = true
}

// ResolveClass looks up a declared class by name.
func (p *Program) ResolveClass(name string) (*Class, bool) {
	c, ok := p.classByName[name]
	return c, ok
}

// ResolveFunction looks up a function by qualified name and exact
// signature string (see Function.Signature). If signature is empty and
// exactly one overload exists under that name, it is returned.
func (p *Program) ResolveFunction(qualifiedName, signature string) (*Function, bool) {
	candidates := p.funcsByName[qualifiedName]
	if signature == "" {
		if len(candidates) == 1 {
			return candidates[0], true
		}
		return nil, false
	}
	for _, f := range candidates {
		if f.Signature() == signature {
			return f, true
		}
	}
	return nil, false
}

// MethodSlot resolves a virtual method by (class, name, signature) to its
// slot index.
func (p *Program) MethodSlot(c *Class, name, signature string) (int, bool) {
	return c.MethodSlot(name, signature)
}

// FieldIndex resolves a field by (class, name) to its cumulative index.
func (p *Program) FieldIndex(c *Class, name string) (int, bool) {
	return c.FieldIndex(name)
}

// VTableLookup resolves the concrete function occupying slot for the
// given runtime class, following the parent chain as needed.
func (p *Program) VTableLookup(c *Class, slot int) (*Function, bool) {
	return c.VTableLookup(slot)
}
