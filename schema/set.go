package schema

import (
	"github.com/syssam/domgen"
)

// Facet derives technology specific data from the logical model while it is
// built. DeriveObjectType runs when an object type's declarations are final
// and before it is frozen; DeriveSchema runs after all object types of a
// schema are finalized.
type Facet interface {
	DeriveObjectType(*ObjectType) error
	DeriveSchema(*Schema) error
}

// Option configures a Set.
type Option func(*Set)

// WithFacet installs a facet. Facets run in installation order.
func WithFacet(f Facet) Option {
	return func(s *Set) { s.facets = append(s.facets, f) }
}

// WithRegistry uses r to look up object types. It lets several sets share
// one registry.
func WithRegistry(r *Registry) Option {
	return func(s *Set) { s.registry = r }
}

// Set is the root of a model: an ordered collection of schemas.
type Set struct {
	facetStore

	schemas  collection[*Schema]
	registry *Registry
	facets   []Facet
	err      error
	frozen   bool
}

// NewSet declares a set through build, finalizes it and resolves its cross
// references. Any declaration or derivation error aborts the whole set.
//
//	set, err := schema.NewSet(func(set *schema.Set) {
//		set.Schema("Core", func(s *schema.Schema) {
//			s.ObjectType("User", func(o *schema.ObjectType) {
//				o.Integer("id").PrimaryKey()
//				o.String("email", 255).Unique()
//				o.UniqueConstraint("email")
//			})
//		})
//	})
func NewSet(build func(*Set), opts ...Option) (*Set, error) {
	s := &Set{}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = NewRegistry()
	}
	if build != nil {
		build(s)
	}
	if s.err != nil {
		return nil, s.err
	}
	if err := Resolve(s.registry, s.ObjectTypes()); err != nil {
		return nil, err
	}
	s.frozen = true
	return s, nil
}

// Schema declares a schema and finalizes it once build returns. It returns
// nil when the schema, or an earlier declaration of the set, failed.
func (s *Set) Schema(name string, build func(*Schema)) *Schema {
	if s.frozen {
		panic(domgen.NewConfigError(domgen.KindFrozen, "", name, "schema %q declared after set was finalized", name))
	}
	if s.err != nil {
		return nil
	}
	switch {
	case !validName.MatchString(name):
		s.Fail(domgen.NewConfigError(domgen.KindInvalidName, "", name, "invalid schema name %q", name))
		return nil
	case s.schemas.has(name):
		s.Fail(domgen.DuplicateError("", "schema", name))
		return nil
	}
	sc := &Schema{Set: s, Name: name}
	s.schemas.add(name, sc)
	if build != nil {
		build(sc)
	}
	if err := sc.finalize(s.facets); err != nil {
		s.Fail(err)
		return nil
	}
	return sc
}

// Schemas returns the schemas in declaration order.
func (s *Set) Schemas() []*Schema { return s.schemas.items }

// SchemaByName returns the schema with the given name.
func (s *Set) SchemaByName(name string) (*Schema, bool) {
	return s.schemas.lookup(name)
}

// ObjectTypes returns every object type, schema by schema.
func (s *Set) ObjectTypes() []*ObjectType {
	var types []*ObjectType
	for _, sc := range s.schemas.items {
		types = append(types, sc.ObjectTypes()...)
	}
	return types
}

// Registry returns the registry the set resolves names with.
func (s *Set) Registry() *Registry { return s.registry }

// Fail records the first declaration error of the set.
func (s *Set) Fail(err error) {
	if s.err == nil && err != nil {
		s.err = err
	}
}

// Frozen reports whether the set has been finalized.
func (s *Set) Frozen() bool { return s.frozen }
