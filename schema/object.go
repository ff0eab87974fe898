package schema

import (
	"strings"

	"github.com/syssam/domgen"
)

// ObjectType is a logical entity. It is declared inside Schema.ObjectType
// and finalized when the declaring callback returns:
//
//  1. the primary key and attribute types are checked,
//  2. reference targets and attribute set constraints are resolved,
//  3. the find-all and find-by-primary-key queries are added,
//  4. query parameters are resolved,
//  5. every facet derives its data (for example the SQL table).
//
// After that the object type is frozen.
type ObjectType struct {
	facetStore

	Schema *Schema
	Name   string

	abstract     bool
	attributes   collection[*Attribute]
	constraints  collection[*Constraint]
	validations  collection[*Validation]
	codependent  collection[*AttributeSetConstraint]
	incompatible collection[*AttributeSetConstraint]
	unique       collection[*AttributeSetConstraint]
	queries      collection[*Query]
	referencing  []*Attribute

	err    error
	frozen bool
}

// Path returns the dotted path of the object type, "Schema.Type".
func (o *ObjectType) Path() string {
	if o.Schema == nil {
		return o.Name
	}
	return o.Schema.Name + "." + o.Name
}

// Abstract marks the object type as not concrete. References to abstract
// types are not backed by foreign keys.
func (o *ObjectType) Abstract() {
	if o.frozen {
		panic(domgen.NewConfigError(domgen.KindFrozen, o.Path(), o.Name, "object type modified after it was finalized"))
	}
	o.abstract = true
}

// Final reports whether the object type is concrete.
func (o *ObjectType) Final() bool { return !o.abstract }

// Frozen reports whether the object type has been finalized.
func (o *ObjectType) Frozen() bool { return o.frozen }

// Fail records err as the declaration error of the object type. Only the
// first error is kept; declarations after it are ignored and the error is
// reported when the object type scope completes.
func (o *ObjectType) Fail(err error) {
	if o.err == nil && err != nil {
		o.err = err
	}
}

// Err returns the recorded declaration error.
func (o *ObjectType) Err() error { return o.err }

// skip reports whether declarations are ignored because of an earlier
// error. It panics once the object type is frozen.
func (o *ObjectType) skip() bool {
	if o.frozen {
		panic(domgen.NewConfigError(domgen.KindFrozen, o.Path(), o.Name, "declaration after object type was finalized"))
	}
	return o.err != nil
}

// Attributes returns the attributes in declaration order.
func (o *ObjectType) Attributes() []*Attribute { return o.attributes.items }

// AttributeByName returns the attribute with the given name.
func (o *ObjectType) AttributeByName(name string) (*Attribute, bool) {
	return o.attributes.lookup(name)
}

// PrimaryKey returns the primary key attribute. It is never nil on a
// finalized object type.
func (o *ObjectType) PrimaryKey() *Attribute {
	for _, a := range o.attributes.items {
		if a.PrimaryKey {
			return a
		}
	}
	return nil
}

// PersistentAttributes returns the attributes that are stored.
func (o *ObjectType) PersistentAttributes() []*Attribute {
	var attrs []*Attribute
	for _, a := range o.attributes.items {
		if a.Persistent {
			attrs = append(attrs, a)
		}
	}
	return attrs
}

// Constraints returns the declared constraints.
func (o *ObjectType) Constraints() []*Constraint { return o.constraints.items }

// Validations returns the declared validations.
func (o *ObjectType) Validations() []*Validation { return o.validations.items }

// CodependentConstraints returns the codependent attribute sets.
func (o *ObjectType) CodependentConstraints() []*AttributeSetConstraint { return o.codependent.items }

// IncompatibleConstraints returns the incompatible attribute sets.
func (o *ObjectType) IncompatibleConstraints() []*AttributeSetConstraint { return o.incompatible.items }

// UniqueConstraints returns the unique attribute sets.
func (o *ObjectType) UniqueConstraints() []*AttributeSetConstraint { return o.unique.items }

// Queries returns the queries, implicit ones last.
func (o *ObjectType) Queries() []*Query { return o.queries.items }

// QueryByName returns the query with the given name.
func (o *ObjectType) QueryByName(name string) (*Query, bool) {
	return o.queries.lookup(name)
}

// ReferencingAttributes returns the reference attributes of other object
// types (or this one) that point at o. It is populated by Resolve.
func (o *ObjectType) ReferencingAttributes() []*Attribute { return o.referencing }

func (o *ObjectType) finalize(facets []Facet) error {
	if o.err != nil {
		return o.err
	}
	steps := []func() error{
		o.checkPrimaryKey,
		o.resolveReferences,
		o.resolveSets,
		o.addImplicitQueries,
		o.resolveQueries,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	for _, f := range facets {
		if err := f.DeriveObjectType(o); err != nil {
			return err
		}
		// Facets may report through Fail as well.
		if o.err != nil {
			return o.err
		}
	}
	o.frozen = true
	return nil
}

func (o *ObjectType) checkPrimaryKey() error {
	var keys []*Attribute
	for _, a := range o.attributes.items {
		if a.PrimaryKey {
			keys = append(keys, a)
		}
	}
	switch len(keys) {
	case 1:
		if !keys[0].Persistent {
			return domgen.NewConfigError(domgen.KindPrimaryKey, o.Path(), keys[0].Name,
				"primary key %q of object type %q must be persistent", keys[0].Name, o.Name)
		}
		return nil
	case 0:
		return domgen.NewConfigError(domgen.KindPrimaryKey, o.Path(), o.Name, "object type %q declares no primary key", o.Name)
	default:
		names := make([]string, len(keys))
		for i, a := range keys {
			names[i] = a.Name
		}
		return domgen.NewConfigError(domgen.KindPrimaryKey, o.Path(), names[1],
			"object type %q declares multiple primary keys: %s", o.Name, strings.Join(names, ", "))
	}
}

func (o *ObjectType) resolveReferences() error {
	for _, a := range o.attributes.items {
		ref := a.Reference()
		if ref == nil {
			continue
		}
		target, ok := o.LookupType(ref.Target)
		if !ok {
			return domgen.NewConfigError(domgen.KindUnresolved, o.Path(), ref.Target,
				"attribute %q references unknown object type %q", a.Name, ref.Target)
		}
		a.referenced = target
	}
	return nil
}

// LookupType finds an object type by local or qualified name. The object
// type itself matches its own name, even while it is being declared.
func (o *ObjectType) LookupType(name string) (*ObjectType, bool) {
	if name == o.Name || name == o.Path() {
		return o, true
	}
	if o.Schema == nil || o.Schema.Set == nil {
		return nil, false
	}
	return o.Schema.Set.registry.Lookup(o.Schema.Name, name)
}

func (o *ObjectType) resolveSets() error {
	for _, sets := range [][]*AttributeSetConstraint{o.codependent.items, o.incompatible.items, o.unique.items} {
		for _, c := range sets {
			if err := c.resolve(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (o *ObjectType) addImplicitQueries() error {
	pk := o.PrimaryKey()
	implicit := []*Query{
		{ObjectType: o, Name: "All", Implicit: true},
		{ObjectType: o, Name: pk.Name, Predicate: pk.Name + " = :" + pk.Name, Singular: true, Implicit: true},
	}
	for _, q := range implicit {
		if !o.queries.add(q.Name, q) {
			return domgen.DuplicateError(o.Path(), "query", q.Name)
		}
	}
	return nil
}

func (o *ObjectType) resolveQueries() error {
	for _, q := range o.queries.items {
		if err := q.resolveParameters(); err != nil {
			return err
		}
	}
	return nil
}
