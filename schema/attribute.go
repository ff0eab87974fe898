package schema

import (
	"fmt"

	"github.com/syssam/domgen"
)

// Attribute is a typed property of an object type.
//
// Persistent and Validate default to true. All fields are read-only once
// the owning object type is finalized.
type Attribute struct {
	facetStore

	ObjectType *ObjectType
	Name       string
	Type       Type

	PrimaryKey bool
	Unique     bool
	Immutable  bool
	Nullable   bool
	Persistent bool
	Validate   bool

	referenced *ObjectType
}

func newAttribute(o *ObjectType, name string, t Type) *Attribute {
	return &Attribute{
		ObjectType: o,
		Name:       name,
		Type:       t,
		Persistent: true,
		Validate:   true,
	}
}

// Kind returns the kind of the attribute type.
func (a *Attribute) Kind() Kind {
	if a.Type == nil {
		return KindInvalid
	}
	return a.Type.Kind()
}

// Path returns the dotted path of the attribute, "Schema.Type.attribute".
func (a *Attribute) Path() string {
	return a.ObjectType.Path() + "." + a.Name
}

// IsReference reports whether the attribute references another object type.
func (a *Attribute) IsReference() bool { return a.Kind() == KindReference }

// StringType returns the string variant, or nil.
func (a *Attribute) StringType() *StringType {
	t, _ := a.Type.(*StringType)
	return t
}

// Reference returns the reference variant, or nil.
func (a *Attribute) Reference() *ReferenceType {
	t, _ := a.Type.(*ReferenceType)
	return t
}

// IEnum returns the integer enumeration variant, or nil.
func (a *Attribute) IEnum() *IEnumType {
	t, _ := a.Type.(*IEnumType)
	return t
}

// SEnum returns the string enumeration variant, or nil.
func (a *Attribute) SEnum() *SEnumType {
	t, _ := a.Type.(*SEnumType)
	return t
}

// ReferencedObject returns the object type a reference attribute points at.
// It is nil for other kinds.
func (a *Attribute) ReferencedObject() *ObjectType {
	return a.referenced
}

// InverseName returns the name of the relationship on the referenced type.
func (a *Attribute) InverseName() string {
	ref := a.Reference()
	if ref == nil || ref.Inverse.Kind == InverseNone {
		return ""
	}
	if ref.Inverse.Name != "" {
		return ref.Inverse.Name
	}
	return a.ObjectType.Name
}

// AttributeBuilder mutates an attribute while its object type is being
// declared. Using a builder after the object type is finalized panics.
type AttributeBuilder struct {
	attr *Attribute
}

func (b *AttributeBuilder) mutate(f func(*Attribute)) *AttributeBuilder {
	if o := b.attr.ObjectType; o != nil && o.frozen {
		panic(domgen.NewConfigError(domgen.KindFrozen, o.Path(), b.attr.Name,
			"attribute %q modified after object type was finalized", b.attr.Name))
	}
	f(b.attr)
	return b
}

// PrimaryKey marks the attribute as the primary key.
func (b *AttributeBuilder) PrimaryKey() *AttributeBuilder {
	return b.mutate(func(a *Attribute) { a.PrimaryKey = true })
}

// Unique marks the attribute as unique. The flag is informational; unique
// indexes come from unique constraints.
func (b *AttributeBuilder) Unique() *AttributeBuilder {
	return b.mutate(func(a *Attribute) { a.Unique = true })
}

// Nullable allows the attribute to be absent.
func (b *AttributeBuilder) Nullable() *AttributeBuilder {
	return b.mutate(func(a *Attribute) { a.Nullable = true })
}

// Immutable forbids updates after creation.
func (b *AttributeBuilder) Immutable() *AttributeBuilder {
	return b.mutate(func(a *Attribute) { a.Immutable = true })
}

// Transient excludes the attribute from persistence.
func (b *AttributeBuilder) Transient() *AttributeBuilder {
	return b.mutate(func(a *Attribute) { a.Persistent = false })
}

// NoValidate disables generated validation of the attribute.
func (b *AttributeBuilder) NoValidate() *AttributeBuilder {
	return b.mutate(func(a *Attribute) { a.Validate = false })
}

// Attribute returns the attribute being built.
func (b *AttributeBuilder) Attribute() *Attribute { return b.attr }

// Attribute declares an attribute of the given type.
func (o *ObjectType) Attribute(name string, t Type) *AttributeBuilder {
	a := newAttribute(o, name, t)
	b := &AttributeBuilder{attr: a}
	if o.skip() {
		return b
	}
	switch {
	case !validName.MatchString(name):
		o.Fail(domgen.NewConfigError(domgen.KindInvalidName, o.Path(), name, "invalid attribute name %q", name))
	case o.attributes.has(name):
		o.Fail(domgen.DuplicateError(o.Path(), "attribute", name))
	default:
		if err := checkType(o.Path(), name, t); err != nil {
			o.Fail(err)
			break
		}
		o.attributes.add(name, a)
	}
	return b
}

// Boolean declares a boolean attribute.
func (o *ObjectType) Boolean(name string) *AttributeBuilder {
	return o.Attribute(name, &BooleanType{})
}

// Text declares an unbounded text attribute.
func (o *ObjectType) Text(name string) *AttributeBuilder {
	return o.Attribute(name, &TextType{})
}

// String declares a string attribute of at most length characters.
func (o *ObjectType) String(name string, length int) *AttributeBuilder {
	return o.Attribute(name, &StringType{Length: length})
}

// Integer declares an integer attribute.
func (o *ObjectType) Integer(name string) *AttributeBuilder {
	return o.Attribute(name, &IntegerType{})
}

// Reference declares a reference to the object type named target.
func (o *ObjectType) Reference(name, target string, opts ...ReferenceOption) *AttributeBuilder {
	t := &ReferenceType{Target: target}
	for _, opt := range opts {
		opt(t)
	}
	return o.Attribute(name, t)
}

// IEnum declares an integer backed enumeration.
func (o *ObjectType) IEnum(name string, values ...EnumValue) *AttributeBuilder {
	return o.Attribute(name, &IEnumType{Values: values})
}

// SEnum declares a string backed enumeration.
func (o *ObjectType) SEnum(name string, values ...string) *AttributeBuilder {
	return o.Attribute(name, &SEnumType{Values: values})
}

// String implements fmt.Stringer.
func (k EnumValue) String() string {
	return fmt.Sprintf("%s=%d", k.Label, k.Ordinal)
}
