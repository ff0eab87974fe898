package schema

import (
	"github.com/syssam/domgen"
)

// Schema groups object types under a name. It is declared inside
// Set.Schema and frozen when the declaring callback returns.
type Schema struct {
	facetStore

	Set  *Set
	Name string

	objectTypes collection[*ObjectType]
	err         error
	frozen      bool
}

// ObjectType declares an object type and finalizes it once build returns.
// It returns nil when the object type, or an earlier declaration of the
// schema, failed.
func (s *Schema) ObjectType(name string, build func(*ObjectType)) *ObjectType {
	if s.frozen {
		panic(domgen.NewConfigError(domgen.KindFrozen, s.Name, name, "object type %q declared after schema was finalized", name))
	}
	if s.err != nil {
		return nil
	}
	switch {
	case !validName.MatchString(name):
		s.Fail(domgen.NewConfigError(domgen.KindInvalidName, s.Name, name, "invalid object type name %q", name))
		return nil
	case s.objectTypes.has(name):
		s.Fail(domgen.DuplicateError(s.Name, "object type", name))
		return nil
	}
	o := &ObjectType{Schema: s, Name: name}
	if build != nil {
		build(o)
	}
	var facets []Facet
	if s.Set != nil {
		facets = s.Set.facets
	}
	if err := o.finalize(facets); err != nil {
		s.Fail(err)
		return nil
	}
	s.objectTypes.add(name, o)
	if s.Set != nil {
		if err := s.Set.registry.Register(o); err != nil {
			s.Fail(err)
			return nil
		}
	}
	return o
}

// ObjectTypes returns the object types in declaration order.
func (s *Schema) ObjectTypes() []*ObjectType { return s.objectTypes.items }

// ObjectTypeByName returns the object type with the given name.
func (s *Schema) ObjectTypeByName(name string) (*ObjectType, bool) {
	return s.objectTypes.lookup(name)
}

// Fail records the first declaration error of the schema.
func (s *Schema) Fail(err error) {
	if s.err == nil && err != nil {
		s.err = err
	}
}

// Frozen reports whether the schema has been finalized.
func (s *Schema) Frozen() bool { return s.frozen }

func (s *Schema) finalize(facets []Facet) error {
	if s.err != nil {
		return s.err
	}
	for _, f := range facets {
		if err := f.DeriveSchema(s); err != nil {
			return err
		}
	}
	if s.err != nil {
		return s.err
	}
	s.frozen = true
	return nil
}
