package schema

import (
	"fmt"
	"math"
	"strings"

	"github.com/syssam/domgen"
)

// Kind identifies the variant of an attribute type.
type Kind uint8

// Attribute kinds.
const (
	KindInvalid Kind = iota
	KindBoolean
	KindText
	KindString
	KindInteger
	KindReference
	KindIEnum
	KindSEnum
)

var kindNames = [...]string{
	KindInvalid:   "invalid",
	KindBoolean:   "boolean",
	KindText:      "text",
	KindString:    "string",
	KindInteger:   "integer",
	KindReference: "reference",
	KindIEnum:     "i_enum",
	KindSEnum:     "s_enum",
}

// String returns the kind name as it appears in definition files.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// ParseKind returns the kind with the given name.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if k != int(KindInvalid) && n == name {
			return Kind(k), true
		}
	}
	return KindInvalid, false
}

// Type is the type of an attribute. It is implemented by *BooleanType,
// *TextType, *StringType, *IntegerType, *ReferenceType, *IEnumType and
// *SEnumType only; options that belong to one variant live on that variant.
type Type interface {
	Kind() Kind
	check() error
}

// BooleanType is a true/false attribute.
type BooleanType struct{}

// Kind implements Type.
func (*BooleanType) Kind() Kind   { return KindBoolean }
func (*BooleanType) check() error { return nil }

// TextType is an unbounded text attribute.
type TextType struct{}

// Kind implements Type.
func (*TextType) Kind() Kind   { return KindText }
func (*TextType) check() error { return nil }

// StringType is a bounded string attribute.
type StringType struct {
	Length int
}

// Kind implements Type.
func (*StringType) Kind() Kind { return KindString }

func (t *StringType) check() error {
	if t.Length <= 0 {
		return fmt.Errorf("string length must be positive, got %d", t.Length)
	}
	return nil
}

// IntegerType is an integer attribute.
type IntegerType struct{}

// Kind implements Type.
func (*IntegerType) Kind() Kind   { return KindInteger }
func (*IntegerType) check() error { return nil }

// InverseKind is the shape of the relationship seen from a reference target.
type InverseKind uint8

// Inverse relationship kinds. The zero value is HasMany.
const (
	InverseHasMany InverseKind = iota
	InverseHasOne
	InverseNone
)

// String returns the inverse kind name.
func (k InverseKind) String() string {
	switch k {
	case InverseHasMany:
		return "has_many"
	case InverseHasOne:
		return "has_one"
	case InverseNone:
		return "none"
	}
	return fmt.Sprintf("InverseKind(%d)", k)
}

// ParseInverseKind returns the inverse kind with the given name.
func ParseInverseKind(name string) (InverseKind, bool) {
	for _, k := range []InverseKind{InverseHasMany, InverseHasOne, InverseNone} {
		if k.String() == name {
			return k, true
		}
	}
	return 0, false
}

// Inverse describes the relationship a reference implies on its target.
// An empty Name defaults to the name of the referencing object type.
type Inverse struct {
	Kind InverseKind
	Name string
}

// ReferenceType points at another object type by name. Target is either a
// type of the same schema ("Customer") or a schema qualified name
// ("Sales.Customer") of a schema declared earlier.
type ReferenceType struct {
	Target   string
	Inverse  Inverse
	Abstract bool
}

// Kind implements Type.
func (*ReferenceType) Kind() Kind { return KindReference }

func (t *ReferenceType) check() error {
	if strings.TrimSpace(t.Target) == "" {
		return fmt.Errorf("reference target is empty")
	}
	return nil
}

// ReferenceOption configures a reference attribute.
type ReferenceOption func(*ReferenceType)

// HasMany sets the inverse relationship to has-many with the given name.
func HasMany(name string) ReferenceOption {
	return func(t *ReferenceType) { t.Inverse = Inverse{Kind: InverseHasMany, Name: name} }
}

// HasOne sets the inverse relationship to has-one with the given name.
func HasOne(name string) ReferenceOption {
	return func(t *ReferenceType) { t.Inverse = Inverse{Kind: InverseHasOne, Name: name} }
}

// NoInverse drops the inverse relationship.
func NoInverse() ReferenceOption {
	return func(t *ReferenceType) { t.Inverse = Inverse{Kind: InverseNone} }
}

// AbstractReference marks a reference that is never backed by a foreign key.
func AbstractReference() ReferenceOption {
	return func(t *ReferenceType) { t.Abstract = true }
}

// EnumValue is one label of an integer backed enumeration.
type EnumValue struct {
	Label   string
	Ordinal int
}

// IEnumType is an integer backed enumeration. Values keep their declaration
// order.
type IEnumType struct {
	Values []EnumValue
}

// Kind implements Type.
func (*IEnumType) Kind() Kind { return KindIEnum }

func (t *IEnumType) check() error {
	if len(t.Values) == 0 {
		return fmt.Errorf("i_enum declares no values")
	}
	labels := make(map[string]bool, len(t.Values))
	ordinals := make(map[int]bool, len(t.Values))
	for _, v := range t.Values {
		switch {
		case v.Label == "":
			return fmt.Errorf("i_enum label is empty")
		case labels[v.Label]:
			return fmt.Errorf("i_enum label %q declared more than once", v.Label)
		case ordinals[v.Ordinal]:
			return fmt.Errorf("i_enum ordinal %d declared more than once", v.Ordinal)
		}
		labels[v.Label], ordinals[v.Ordinal] = true, true
	}
	return nil
}

// Min returns the smallest ordinal.
func (t *IEnumType) Min() int {
	m := math.MaxInt
	for _, v := range t.Values {
		m = min(m, v.Ordinal)
	}
	return m
}

// Max returns the largest ordinal.
func (t *IEnumType) Max() int {
	m := math.MinInt
	for _, v := range t.Values {
		m = max(m, v.Ordinal)
	}
	return m
}

// SEnumType is a string backed enumeration.
type SEnumType struct {
	Values []string
}

// Kind implements Type.
func (*SEnumType) Kind() Kind { return KindSEnum }

func (t *SEnumType) check() error {
	if len(t.Values) == 0 {
		return fmt.Errorf("s_enum declares no values")
	}
	seen := make(map[string]bool, len(t.Values))
	for _, v := range t.Values {
		switch {
		case v == "":
			return fmt.Errorf("s_enum value is empty")
		case seen[v]:
			return fmt.Errorf("s_enum value %q declared more than once", v)
		}
		seen[v] = true
	}
	return nil
}

// MaxLength returns the length of the longest value.
func (t *SEnumType) MaxLength() int {
	n := 0
	for _, v := range t.Values {
		n = max(n, len(v))
	}
	return n
}

// checkType validates a declared type, returning a configuration error
// owned by owner.
func checkType(owner, name string, t Type) error {
	if t == nil {
		return domgen.NewConfigError(domgen.KindUnknownType, owner, name, "attribute %q has no type", name)
	}
	if err := t.check(); err != nil {
		return &domgen.ConfigError{
			Kind:    domgen.KindInvalidOption,
			Owner:   owner,
			Name:    name,
			Message: fmt.Sprintf("attribute %q", name),
			Cause:   err,
		}
	}
	return nil
}
