// Package load reads YAML definition files and builds the schema set they
// describe.
//
//	schemas:
//	  - name: Core
//	    object_types:
//	      - name: User
//	        attributes:
//	          - {name: id, type: integer, primary_key: true}
//	          - {name: email, type: string, length: 255}
//	          - name: status
//	            type: i_enum
//	            values: {ACTIVE: 1, LOCKED: 5}
//	        unique_constraints:
//	          - attributes: [email]
//	        queries:
//	          - {name: email, predicate: "email = :email", singular: true}
//
// Keys that do not belong to the format are rejected.
package load

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/syssam/domgen"
	"github.com/syssam/domgen/dialect/sqlschema"
	"github.com/syssam/domgen/schema"
)

// Load reads the definition file at path.
func Load(path string) (*Definition, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load: read definition: %w", err)
	}
	d, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	d.Path = path
	return d, nil
}

// Parse decodes a definition.
func Parse(data []byte) (*Definition, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	d := &Definition{}
	switch err := dec.Decode(d); {
	case errors.Is(err, io.EOF):
		return nil, errors.New("empty definition")
	case err != nil:
		return nil, err
	}
	return d, nil
}

// LoadSet loads the definition file at path and builds its set.
func LoadSet(path string, opts ...schema.Option) (*schema.Set, error) {
	d, err := Load(path)
	if err != nil {
		return nil, err
	}
	return d.Build(opts...)
}

// Build builds the set of the definition. The SQL facet is installed ahead
// of opts.
func (d *Definition) Build(opts ...schema.Option) (*schema.Set, error) {
	opts = append([]schema.Option{schema.WithFacet(sqlschema.Facet{})}, opts...)
	set, err := schema.NewSet(func(set *schema.Set) {
		for _, s := range d.Schemas {
			set.Schema(s.Name, func(sc *schema.Schema) { buildSchema(sc, s) })
		}
	}, opts...)
	if err != nil && d.Path != "" {
		return nil, fmt.Errorf("load %s: %w", d.Path, err)
	}
	return set, err
}

func buildSchema(sc *schema.Schema, s *Schema) {
	if s.SQL != nil && s.SQL.Namespace != "" {
		sqlschema.SchemaOf(sc).SetNamespace(s.SQL.Namespace)
	}
	for _, ot := range s.ObjectTypes {
		sc.ObjectType(ot.Name, func(o *schema.ObjectType) { buildObjectType(o, ot) })
	}
}

func buildObjectType(o *schema.ObjectType, ot *ObjectType) {
	if ot.Abstract {
		o.Abstract()
	}
	for _, a := range ot.Attributes {
		if err := buildAttribute(o, a); err != nil {
			o.Fail(err)
			return
		}
	}
	for _, c := range ot.Constraints {
		o.Constraint(c.Name, c.SQL)
	}
	for _, v := range ot.Validations {
		o.Validation(v.Name, v.SQL)
	}
	for _, c := range ot.CodependentConstraints {
		o.CodependentConstraint(c.Name, c.Attributes...)
	}
	for _, c := range ot.IncompatibleConstraints {
		o.IncompatibleConstraint(c.Name, c.Attributes...)
	}
	for _, c := range ot.UniqueConstraints {
		o.UniqueConstraint(c.Attributes...)
	}
	for _, q := range ot.Queries {
		qt, ok := schema.ParseQueryType(q.Type)
		if !ok {
			o.Fail(domgen.NewConfigError(domgen.KindUnknownQueryType, o.Path(), q.Name, "query %q has unknown type %q", q.Name, q.Type))
			return
		}
		b := o.Query(q.Name, q.Predicate).Type(qt)
		if q.Singular {
			b.Singular()
		}
	}
	if ot.SQL != nil {
		if err := buildTable(o, ot.SQL); err != nil {
			o.Fail(err)
		}
	}
}

func buildAttribute(o *schema.ObjectType, a *Attribute) error {
	t, err := attributeType(o, a)
	if err != nil {
		return err
	}
	b := o.Attribute(a.Name, t)
	if a.PrimaryKey {
		b.PrimaryKey()
	}
	if a.Unique {
		b.Unique()
	}
	if a.Nullable {
		b.Nullable()
	}
	if a.Immutable {
		b.Immutable()
	}
	if a.Persistent != nil && !*a.Persistent {
		b.Transient()
	}
	if a.Validate != nil && !*a.Validate {
		b.NoValidate()
	}
	if a.Column != "" {
		sqlschema.TableOf(o).RenameColumn(a.Name, a.Column)
	}
	return nil
}

// attributeType returns the type an attribute declares, rejecting options
// of other kinds.
func attributeType(o *schema.ObjectType, a *Attribute) (schema.Type, error) {
	invalid := func(format string, args ...any) error {
		return domgen.NewConfigError(domgen.KindInvalidOption, o.Path(), a.Name, format, args...)
	}
	kind, ok := schema.ParseKind(a.Type)
	if !ok {
		return nil, domgen.NewConfigError(domgen.KindUnknownType, o.Path(), a.Name, "attribute %q has unknown type %q", a.Name, a.Type)
	}
	switch {
	case a.Length != 0 && kind != schema.KindString:
		return nil, invalid("length is only valid for string attributes")
	case a.References != "" && kind != schema.KindReference:
		return nil, invalid("references is only valid for reference attributes")
	case a.Inverse != nil && kind != schema.KindReference:
		return nil, invalid("inverse is only valid for reference attributes")
	case a.Abstract && kind != schema.KindReference:
		return nil, invalid("abstract is only valid for reference attributes")
	case a.Values.Kind != 0 && kind != schema.KindIEnum && kind != schema.KindSEnum:
		return nil, invalid("values are only valid for enumerations")
	}
	switch kind {
	case schema.KindBoolean:
		return &schema.BooleanType{}, nil
	case schema.KindText:
		return &schema.TextType{}, nil
	case schema.KindString:
		return &schema.StringType{Length: a.Length}, nil
	case schema.KindInteger:
		return &schema.IntegerType{}, nil
	case schema.KindReference:
		ref := &schema.ReferenceType{Target: a.References, Abstract: a.Abstract}
		if a.Inverse != nil {
			name := a.Inverse.Type
			if name == "" {
				name = schema.InverseHasMany.String()
			}
			k, ok := schema.ParseInverseKind(name)
			if !ok {
				return nil, invalid("unknown inverse type %q", a.Inverse.Type)
			}
			ref.Inverse = schema.Inverse{Kind: k, Name: a.Inverse.Name}
		}
		return ref, nil
	case schema.KindIEnum:
		values, err := ordinals(&a.Values)
		if err != nil {
			return nil, &domgen.ConfigError{Kind: domgen.KindInvalidOption, Owner: o.Path(), Name: a.Name, Message: "invalid i_enum values", Cause: err}
		}
		return &schema.IEnumType{Values: values}, nil
	case schema.KindSEnum:
		values, err := labels(&a.Values)
		if err != nil {
			return nil, &domgen.ConfigError{Kind: domgen.KindInvalidOption, Owner: o.Path(), Name: a.Name, Message: "invalid s_enum values", Cause: err}
		}
		return &schema.SEnumType{Values: values}, nil
	}
	return nil, domgen.NewConfigError(domgen.KindUnknownType, o.Path(), a.Name, "attribute %q has unsupported type %s", a.Name, kind)
}

// ordinals reads an ordered mapping of string labels to integers.
func ordinals(n *yaml.Node) ([]schema.EnumValue, error) {
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping of labels to integers", n.Line)
	}
	values := make([]schema.EnumValue, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if k.ShortTag() != "!!str" {
			return nil, fmt.Errorf("line %d: label %s is not a string", k.Line, k.Value)
		}
		if v.ShortTag() != "!!int" {
			return nil, fmt.Errorf("line %d: value of %s is not an integer", v.Line, k.Value)
		}
		var ord int
		if err := v.Decode(&ord); err != nil {
			return nil, fmt.Errorf("line %d: %w", v.Line, err)
		}
		values = append(values, schema.EnumValue{Label: k.Value, Ordinal: ord})
	}
	return values, nil
}

// labels reads a sequence of strings.
func labels(n *yaml.Node) ([]string, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: expected a sequence of strings", n.Line)
	}
	values := make([]string, 0, len(n.Content))
	for _, v := range n.Content {
		if v.Kind != yaml.ScalarNode || v.ShortTag() != "!!str" {
			return nil, fmt.Errorf("line %d: value %s is not a string", v.Line, v.Value)
		}
		values = append(values, v.Value)
	}
	return values, nil
}

func buildTable(o *schema.ObjectType, ts *TableSQL) error {
	t := sqlschema.TableOf(o)
	if ts.Table != "" {
		t.SetName(ts.Table)
	}
	for _, i := range ts.Indexes {
		var opts []sqlschema.IndexOption
		if i.Name != "" {
			opts = append(opts, sqlschema.IndexName(i.Name))
		}
		if i.Unique {
			opts = append(opts, sqlschema.Unique())
		}
		if i.Cluster {
			opts = append(opts, sqlschema.Clustered())
		}
		t.Index(i.Attributes, opts...)
	}
	for _, fk := range ts.ForeignKeys {
		var opts []sqlschema.ForeignKeyOption
		if fk.Name != "" {
			opts = append(opts, sqlschema.ForeignKeyName(fk.Name))
		}
		for _, action := range []struct {
			value string
			opt   func(sqlschema.CascadeAction) sqlschema.ForeignKeyOption
		}{
			{fk.OnDelete, sqlschema.OnDelete},
			{fk.OnUpdate, sqlschema.OnUpdate},
		} {
			if action.value == "" {
				continue
			}
			a, ok := sqlschema.ParseCascadeAction(action.value)
			if !ok {
				return domgen.NewConfigError(domgen.KindInvalidOption, o.Path(), fk.Name, "unknown cascade action %q", action.value)
			}
			opts = append(opts, action.opt(a))
		}
		t.ForeignKey(fk.Attributes, fk.References, fk.ReferencedAttributes, opts...)
	}
	for _, c := range ts.Constraints {
		t.Constraint(c.Name, c.SQL)
	}
	for _, v := range ts.Validations {
		t.Validation(v.Name, v.SQL)
	}
	return nil
}
