package schema

import (
	"strings"

	"github.com/syssam/domgen"
)

// Constraint is a named condition that must hold for every instance.
type Constraint struct {
	ObjectType *ObjectType
	Name       string
	SQL        string
}

// Validation is a named condition checked by generated code before
// persisting an instance.
type Validation struct {
	ObjectType *ObjectType
	Name       string
	SQL        string
}

// SetKind is the kind of an attribute set constraint.
type SetKind uint8

// Attribute set constraint kinds.
const (
	// Codependent attributes are either all present or all absent.
	Codependent SetKind = iota + 1
	// Incompatible attributes are never present together.
	Incompatible
	// Unique attributes identify an instance together.
	Unique
)

// String returns the set kind name.
func (k SetKind) String() string {
	switch k {
	case Codependent:
		return "codependent"
	case Incompatible:
		return "incompatible"
	case Unique:
		return "unique"
	}
	return "invalid"
}

// AttributeSetConstraint names a set of attributes of one object type.
type AttributeSetConstraint struct {
	ObjectType     *ObjectType
	Kind           SetKind
	Name           string
	AttributeNames []string

	attrs []*Attribute
}

// Attributes returns the attributes of the set, resolved at finalization.
func (c *AttributeSetConstraint) Attributes() []*Attribute { return c.attrs }

// Constraint declares a named condition.
func (o *ObjectType) Constraint(name, sql string) *Constraint {
	c := &Constraint{ObjectType: o, Name: name, SQL: sql}
	o.declare("constraint", name, func() bool { return o.constraints.add(name, c) })
	return c
}

// Validation declares a named validation.
func (o *ObjectType) Validation(name, sql string) *Validation {
	v := &Validation{ObjectType: o, Name: name, SQL: sql}
	o.declare("validation", name, func() bool { return o.validations.add(name, v) })
	return v
}

// CodependentConstraint declares that the attributes are set together.
func (o *ObjectType) CodependentConstraint(name string, attrs ...string) *AttributeSetConstraint {
	c := &AttributeSetConstraint{ObjectType: o, Kind: Codependent, Name: name, AttributeNames: attrs}
	o.declare("codependent constraint", name, func() bool { return o.codependent.add(name, c) })
	return c
}

// IncompatibleConstraint declares that at most one of the attributes is set.
func (o *ObjectType) IncompatibleConstraint(name string, attrs ...string) *AttributeSetConstraint {
	c := &AttributeSetConstraint{ObjectType: o, Kind: Incompatible, Name: name, AttributeNames: attrs}
	o.declare("incompatible constraint", name, func() bool { return o.incompatible.add(name, c) })
	return c
}

// UniqueConstraint declares that the attributes are unique together. The
// constraint is named after its attributes joined by "_".
func (o *ObjectType) UniqueConstraint(attrs ...string) *AttributeSetConstraint {
	name := strings.Join(attrs, "_")
	c := &AttributeSetConstraint{ObjectType: o, Kind: Unique, Name: name, AttributeNames: attrs}
	o.declare("unique constraint", name, func() bool { return o.unique.add(name, c) })
	return c
}

// declare validates name and adds an element through add, recording the
// first failure on o.
func (o *ObjectType) declare(what, name string, add func() bool) {
	if o.skip() {
		return
	}
	switch {
	case !validName.MatchString(name):
		o.Fail(domgen.NewConfigError(domgen.KindInvalidName, o.Path(), name, "invalid %s name %q", what, name))
	case !add():
		o.Fail(domgen.DuplicateError(o.Path(), what, name))
	}
}

func (c *AttributeSetConstraint) resolve() error {
	o := c.ObjectType
	if len(c.AttributeNames) == 0 {
		return domgen.NewConfigError(domgen.KindInvalidOption, o.Path(), c.Name, "%s constraint %q names no attributes", c.Kind, c.Name)
	}
	c.attrs = c.attrs[:0]
	for _, name := range c.AttributeNames {
		a, ok := o.attributes.lookup(name)
		if !ok {
			return domgen.NewConfigError(domgen.KindUnresolved, o.Path(), name,
				"%s constraint %q: unknown attribute %q", c.Kind, c.Name, name)
		}
		c.attrs = append(c.attrs, a)
	}
	return nil
}
