// Package graphql renders the object types of a set as a GraphQL schema,
// graphql/schema.graphql. Every object type becomes an object, every
// enumeration attribute an enum and every query a field of Query.
//
// The document is built as a gqlparser AST, validated and printed by the
// gqlparser formatter.
package graphql

import (
	"bytes"
	"fmt"
	"io"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"

	"github.com/syssam/domgen"
	"github.com/syssam/domgen/compiler/gen"
	"github.com/syssam/domgen/naming"
	"github.com/syssam/domgen/schema"
)

// Path is the output path of the schema document.
const Path = "graphql/schema.graphql"

// Register adds the GraphQL schema template to ts.
func Register(ts *gen.TemplateSet) error {
	return ts.AddTemplate(gen.ScopeSchemaSet, gen.NewTemplateFunc("graphql/schema", render), "schema.graphql", "graphql")
}

func render(w io.Writer, data any) error {
	ctx, ok := data.(*gen.SetContext)
	if !ok {
		return fmt.Errorf("graphql: unexpected template data %T", data)
	}
	doc := Document(ctx.Set)
	var b bytes.Buffer
	formatter.NewFormatter(&b, formatter.WithIndent("  ")).FormatSchemaDocument(doc)
	if _, err := gqlparser.LoadSchema(&ast.Source{Name: Path, Input: b.String()}); err != nil {
		return domgen.NewGenerationError("graphql/schema", Path, "invalid schema document", err)
	}
	if _, err := fmt.Fprintf(w, "# %s\n\n", ctx.Header); err != nil {
		return err
	}
	_, err := b.WriteTo(w)
	return err
}

// Document builds the schema document of set.
func Document(set *schema.Set) *ast.SchemaDocument {
	n := newNamer(set)
	doc := &ast.SchemaDocument{}
	query := &ast.Definition{Kind: ast.Object, Name: "Query"}
	for _, o := range set.ObjectTypes() {
		for _, a := range o.Attributes() {
			if def := enum(n, a); def != nil {
				doc.Definitions = append(doc.Definitions, def)
			}
		}
		doc.Definitions = append(doc.Definitions, object(n, o))
		for _, q := range o.Queries() {
			query.Fields = append(query.Fields, queryField(n, q))
		}
	}
	if len(query.Fields) > 0 {
		doc.Definitions = append(doc.Definitions, query)
	}
	return doc
}

// namer qualifies the names of object types declared in more than one
// schema with their schema.
type namer struct {
	ambiguous map[string]bool
}

func newNamer(set *schema.Set) *namer {
	seen := make(map[string]int)
	for _, o := range set.ObjectTypes() {
		seen[naming.Pascal(o.Name)]++
	}
	n := &namer{ambiguous: make(map[string]bool)}
	for name, count := range seen {
		n.ambiguous[name] = count > 1
	}
	return n
}

// typeName returns the GraphQL type of o.
func (n *namer) typeName(o *schema.ObjectType) string {
	name := naming.Pascal(o.Name)
	if n.ambiguous[name] {
		return naming.Pascal(o.Schema.Name) + name
	}
	return name
}

// enumName returns the GraphQL enum of an enumeration attribute.
func (n *namer) enumName(a *schema.Attribute) string {
	return n.typeName(a.ObjectType) + naming.Pascal(a.Name)
}

// queryName returns the Query field of q, "findUserByEmail" for example.
func (n *namer) queryName(q *schema.Query) string {
	name := q.FullName()
	if n.ambiguous[naming.Pascal(q.ObjectType.Name)] {
		return naming.Camel(q.ObjectType.Schema.Name) + naming.Pascal(name)
	}
	return name
}

func enum(n *namer, a *schema.Attribute) *ast.Definition {
	var labels []string
	switch a.Kind() {
	case schema.KindIEnum:
		for _, v := range a.IEnum().Values {
			labels = append(labels, v.Label)
		}
	case schema.KindSEnum:
		labels = a.SEnum().Values
	default:
		return nil
	}
	def := &ast.Definition{Kind: ast.Enum, Name: n.enumName(a)}
	for _, l := range labels {
		def.EnumValues = append(def.EnumValues, &ast.EnumValueDefinition{Name: naming.Constant(l)})
	}
	return def
}

// scalars maps attribute kinds onto built-in scalars.
var scalars = map[schema.Kind]string{
	schema.KindBoolean: "Boolean",
	schema.KindInteger: "Int",
	schema.KindString:  "String",
	schema.KindText:    "String",
}

// named returns the named type of a.
func (n *namer) named(a *schema.Attribute) string {
	switch a.Kind() {
	case schema.KindIEnum, schema.KindSEnum:
		return n.enumName(a)
	case schema.KindReference:
		return n.typeName(a.ReferencedObject())
	}
	return scalars[a.Kind()]
}

func object(n *namer, o *schema.ObjectType) *ast.Definition {
	def := &ast.Definition{
		Kind:        ast.Object,
		Name:        n.typeName(o),
		Description: fmt.Sprintf("Object type %s.", o.Path()),
	}
	for _, a := range o.Attributes() {
		t := ast.NonNullNamedType(n.named(a), nil)
		if a.Nullable {
			t = ast.NamedType(n.named(a), nil)
		}
		def.Fields = append(def.Fields, &ast.FieldDefinition{Name: naming.Camel(a.Name), Type: t})
	}
	for _, a := range o.ReferencingAttributes() {
		ref := a.Reference()
		src := n.typeName(a.ObjectType)
		switch ref.Inverse.Kind {
		case schema.InverseHasMany:
			def.Fields = append(def.Fields, &ast.FieldDefinition{
				Name: naming.Camel(naming.Pluralize(a.InverseName())),
				Type: ast.NonNullListType(ast.NonNullNamedType(src, nil), nil),
			})
		case schema.InverseHasOne:
			def.Fields = append(def.Fields, &ast.FieldDefinition{
				Name: naming.Camel(a.InverseName()),
				Type: ast.NamedType(src, nil),
			})
		}
	}
	return def
}

func queryField(n *namer, q *schema.Query) *ast.FieldDefinition {
	name := n.typeName(q.ObjectType)
	f := &ast.FieldDefinition{
		Name: n.queryName(q),
		Type: ast.NonNullListType(ast.NonNullNamedType(name, nil), nil),
	}
	if q.Singular {
		f.Type = ast.NamedType(name, nil)
	}
	for _, p := range q.Parameters() {
		f.Arguments = append(f.Arguments, &ast.ArgumentDefinition{
			Name: naming.Camel(p.Name),
			Type: ast.NonNullNamedType(n.argument(p.Attribute), nil),
		})
	}
	return f
}

// argument returns the type of a query argument. References are passed as
// the key of the referenced object.
func (n *namer) argument(a *schema.Attribute) string {
	if a.IsReference() {
		return n.argument(a.ReferencedObject().PrimaryKey())
	}
	return n.named(a)
}
