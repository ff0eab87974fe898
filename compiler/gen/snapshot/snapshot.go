// Package snapshot writes domgen/model.msgpack, a MessagePack encoding of
// the frozen model. Tools that do not link domgen read it to inspect the
// object types, their columns and queries.
//
// Object types carry a stable id, a SHA-1 UUID of their path, so a renamed
// schema or type shows up as a new id between snapshots.
package snapshot

import (
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/domgen/compiler/gen"
	"github.com/syssam/domgen/dialect/sqlschema"
	"github.com/syssam/domgen/schema"
)

// Format is the version of the snapshot layout.
const Format = 1

// Path is the output path of the snapshot.
const Path = "domgen/model.msgpack"

// Namespace is the UUID namespace of object type ids.
var Namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/syssam/domgen"))

type (
	// Model is the root of a snapshot.
	Model struct {
		Format  int               `msgpack:"format"`
		Params  map[string]string `msgpack:"params,omitempty"`
		Schemas []*Schema         `msgpack:"schemas"`
	}

	// Schema is a snapshot of a schema.
	Schema struct {
		Name        string        `msgpack:"name"`
		Namespace   string        `msgpack:"namespace,omitempty"`
		ObjectTypes []*ObjectType `msgpack:"object_types"`
	}

	// ObjectType is a snapshot of an object type.
	ObjectType struct {
		ID          string        `msgpack:"id"`
		Name        string        `msgpack:"name"`
		Abstract    bool          `msgpack:"abstract,omitempty"`
		Table       string        `msgpack:"table,omitempty"`
		Attributes  []*Attribute  `msgpack:"attributes"`
		Constraints []*Constraint `msgpack:"constraints,omitempty"`
		Queries     []*Query      `msgpack:"queries"`
	}

	// Attribute is a snapshot of an attribute.
	Attribute struct {
		Name       string       `msgpack:"name"`
		Kind       string       `msgpack:"kind"`
		Length     int          `msgpack:"length,omitempty"`
		PrimaryKey bool         `msgpack:"primary_key,omitempty"`
		Unique     bool         `msgpack:"unique,omitempty"`
		Nullable   bool         `msgpack:"nullable,omitempty"`
		Immutable  bool         `msgpack:"immutable,omitempty"`
		Persistent bool         `msgpack:"persistent"`
		References string       `msgpack:"references,omitempty"`
		Inverse    string       `msgpack:"inverse,omitempty"`
		Values     []*EnumValue `msgpack:"values,omitempty"`
		Column     string       `msgpack:"column,omitempty"`
		SQLType    string       `msgpack:"sql_type,omitempty"`
	}

	// EnumValue is one value of an enumeration. Ordinal is unset for
	// string enumerations.
	EnumValue struct {
		Label   string `msgpack:"label"`
		Ordinal *int   `msgpack:"ordinal,omitempty"`
	}

	// Constraint is a logical constraint of an object type.
	Constraint struct {
		Kind       string   `msgpack:"kind"`
		Name       string   `msgpack:"name"`
		SQL        string   `msgpack:"sql,omitempty"`
		Attributes []string `msgpack:"attributes,omitempty"`
	}

	// Query is a snapshot of a query.
	Query struct {
		Name     string   `msgpack:"name"`
		FullName string   `msgpack:"full_name"`
		Type     string   `msgpack:"type"`
		Singular bool     `msgpack:"singular,omitempty"`
		Implicit bool     `msgpack:"implicit,omitempty"`
		Params   []string `msgpack:"params,omitempty"`
		Text     string   `msgpack:"text"`
	}
)

// Register adds the snapshot to ts.
func Register(ts *gen.TemplateSet) error {
	return ts.AddTemplate(gen.ScopeSchemaSet, gen.NewTemplateFunc("snapshot/model", render), "model.msgpack", "domgen")
}

func render(w io.Writer, data any) error {
	ctx, ok := data.(*gen.SetContext)
	if !ok {
		return fmt.Errorf("snapshot: unexpected template data %T", data)
	}
	return Encode(w, New(ctx.Set, ctx.Params))
}

// ID returns the stable id of an object type.
func ID(o *schema.ObjectType) uuid.UUID {
	return uuid.NewSHA1(Namespace, []byte(o.Path()))
}

// New builds the snapshot of set.
func New(set *schema.Set, params map[string]string) *Model {
	m := &Model{Format: Format}
	if len(params) > 0 {
		m.Params = params
	}
	for _, s := range set.Schemas() {
		ss := &Schema{Name: s.Name}
		if sql := sqlschema.SchemaOf(s); sql != nil {
			ss.Namespace = sql.Namespace()
		}
		for _, o := range s.ObjectTypes() {
			ss.ObjectTypes = append(ss.ObjectTypes, objectType(o))
		}
		m.Schemas = append(m.Schemas, ss)
	}
	return m
}

func objectType(o *schema.ObjectType) *ObjectType {
	ot := &ObjectType{
		ID:       ID(o).String(),
		Name:     o.Name,
		Abstract: !o.Final(),
	}
	if t := sqlschema.TableOf(o); t != nil {
		ot.Table = t.Name()
	}
	for _, a := range o.Attributes() {
		ot.Attributes = append(ot.Attributes, attribute(a))
	}
	for _, c := range o.Constraints() {
		ot.Constraints = append(ot.Constraints, &Constraint{Kind: "constraint", Name: c.Name, SQL: c.SQL})
	}
	for _, v := range o.Validations() {
		ot.Constraints = append(ot.Constraints, &Constraint{Kind: "validation", Name: v.Name, SQL: v.SQL})
	}
	for _, sets := range [][]*schema.AttributeSetConstraint{o.CodependentConstraints(), o.IncompatibleConstraints(), o.UniqueConstraints()} {
		for _, c := range sets {
			ot.Constraints = append(ot.Constraints, &Constraint{Kind: c.Kind.String(), Name: c.Name, Attributes: c.AttributeNames})
		}
	}
	for _, q := range o.Queries() {
		sq := &Query{
			Name:     q.Name,
			FullName: q.FullName(),
			Type:     q.Type.String(),
			Singular: q.Singular,
			Implicit: q.Implicit,
			Text:     q.QueryString(),
		}
		for _, p := range q.Parameters() {
			sq.Params = append(sq.Params, p.Name)
		}
		ot.Queries = append(ot.Queries, sq)
	}
	return ot
}

func attribute(a *schema.Attribute) *Attribute {
	sa := &Attribute{
		Name:       a.Name,
		Kind:       a.Kind().String(),
		PrimaryKey: a.PrimaryKey,
		Unique:     a.Unique,
		Nullable:   a.Nullable,
		Immutable:  a.Immutable,
		Persistent: a.Persistent,
	}
	switch t := a.Type.(type) {
	case *schema.StringType:
		sa.Length = t.Length
	case *schema.ReferenceType:
		sa.References = a.ReferencedObject().Path()
		sa.Inverse = t.Inverse.Kind.String()
	case *schema.IEnumType:
		for _, v := range t.Values {
			sa.Values = append(sa.Values, &EnumValue{Label: v.Label, Ordinal: &v.Ordinal})
		}
	case *schema.SEnumType:
		for _, v := range t.Values {
			sa.Values = append(sa.Values, &EnumValue{Label: v})
		}
	}
	if c := sqlschema.ColumnOf(a); c != nil {
		sa.Column = c.Name
		sa.SQLType = c.SQLType()
	}
	return sa
}

// Encode writes m to w. Map keys are sorted so equal models encode to
// equal bytes.
func Encode(w io.Writer, m *Model) error {
	enc := msgpack.NewEncoder(w)
	enc.SetSortMapKeys(true)
	enc.UseCompactInts(true)
	return enc.Encode(m)
}

// Decode reads a snapshot written by Encode.
func Decode(r io.Reader) (*Model, error) {
	var m Model
	if err := msgpack.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("snapshot: decode: %w", err)
	}
	if m.Format != Format {
		return nil, fmt.Errorf("snapshot: unsupported format %d", m.Format)
	}
	return &m, nil
}
