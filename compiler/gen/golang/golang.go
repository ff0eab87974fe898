// Package golang generates a Go data layer. Every schema becomes a package
// and every object type an entity struct built with jennifer plus a
// repository running its queries through database/sql.
//
//	go/<schema>/db.go
//	go/<schema>/<type>.go
//	go/<schema>/<type>_queries.go
//
// The "go.package" parameter is the import path prefix of the schema
// packages. Placeholders in query text follow the "sql.dialect" parameter.
package golang

import (
	"embed"
	"fmt"
	"go/token"
	"io"
	"strings"
	"text/template"

	"github.com/syssam/domgen/compiler/gen"
	"github.com/syssam/domgen/dialect"
	"github.com/syssam/domgen/dialect/sqlschema"
	"github.com/syssam/domgen/naming"
	"github.com/syssam/domgen/schema"
)

// Generator parameters.
const (
	ParamPackage   = "go.package"
	DefaultPackage = "model"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(gen.ParseFS(templateFS, "templates/*.tmpl"))

const packageDir = "go/{{.Schema.Name | sanitize | lower}}"

// Register adds the Go templates to ts.
func Register(ts *gen.TemplateSet) error {
	db, err := gen.Lookup(templates, "db.tmpl")
	if err != nil {
		return err
	}
	queries, err := gen.Lookup(templates, "queries.tmpl")
	if err != nil {
		return err
	}
	format := gen.WithFormatter(gen.GoFormatter)
	if err := ts.AddTemplate(gen.ScopeSchema, schemaTemplate(db), "db.go", packageDir, format); err != nil {
		return err
	}
	if err := ts.AddTemplate(gen.ScopeObjectType, gen.NewTemplateFunc("go/entity", renderEntity),
		"{{.ObjectType.Name | snake}}.go", packageDir, format); err != nil {
		return err
	}
	return ts.AddTemplate(gen.ScopeObjectType, repositoryTemplate(queries),
		"{{.ObjectType.Name | snake}}_queries.go", packageDir, format)
}

func schemaTemplate(tmpl *template.Template) gen.Template {
	return gen.NewTemplateFunc("go/db", func(w io.Writer, data any) error {
		ctx, ok := data.(*gen.SchemaContext)
		if !ok {
			return fmt.Errorf("golang: unexpected template data %T", data)
		}
		return tmpl.Execute(w, map[string]string{
			"Header":  ctx.Header,
			"Package": PackageName(ctx.Schema),
		})
	})
}

func repositoryTemplate(tmpl *template.Template) gen.Template {
	return gen.NewTemplateFunc("go/queries", func(w io.Writer, data any) error {
		ctx, ok := data.(*gen.ObjectTypeContext)
		if !ok {
			return fmt.Errorf("golang: unexpected template data %T", data)
		}
		r, err := NewRepository(ctx)
		if err != nil {
			return err
		}
		return tmpl.Execute(w, r)
	})
}

// PackageName returns the Go package name of schema s.
func PackageName(s *schema.Schema) string {
	return strings.ToLower(naming.Sanitize(s.Name))
}

// ImportPath returns the import path of the package of s.
func ImportPath(prefix string, s *schema.Schema) string {
	return strings.TrimSuffix(prefix, "/") + "/" + PackageName(s)
}

// TypeName returns the Go type name of o.
func TypeName(o *schema.ObjectType) string { return naming.Pascal(o.Name) }

// FieldName returns the struct field of a.
func FieldName(a *schema.Attribute) string { return naming.Pascal(a.Name) }

// EnumName returns the named type of an enumeration attribute.
func EnumName(a *schema.Attribute) string { return TypeName(a.ObjectType) + FieldName(a) }

// EnumConstant returns the constant of one enumeration value. Upper case
// labels are treated as snake case words.
func EnumConstant(a *schema.Attribute, label string) string {
	if label == strings.ToUpper(label) {
		label = strings.ToLower(label)
	}
	return EnumName(a) + naming.Pascal(label)
}

// baseTypes maps SQL base types onto Go types.
var baseTypes = map[string]string{
	"INT":     "int",
	"VARCHAR": "string",
	"TEXT":    "string",
	"BIT":     "bool",
}

// valueType returns the Go type of a, without the pointer of nullable
// attributes. References take the type of their key column.
func valueType(a *schema.Attribute) string {
	switch a.Kind() {
	case schema.KindBoolean:
		return "bool"
	case schema.KindInteger:
		return "int"
	case schema.KindIEnum, schema.KindSEnum:
		return EnumName(a)
	case schema.KindReference:
		if c := sqlschema.ColumnOf(a); c != nil {
			return baseTypes[c.Type]
		}
		return valueType(a.ReferencedObject().PrimaryKey())
	}
	return "string"
}

// fieldType returns the Go type of the struct field of a.
func fieldType(a *schema.Attribute) string {
	if a.Nullable {
		return "*" + valueType(a)
	}
	return valueType(a)
}

// identifier returns a Go identifier for a local variable named after s.
func identifier(s string) string {
	id := naming.Camel(s)
	switch {
	case token.IsKeyword(id), id == "ctx", id == "r", id == "rows", id == "err":
		return id + "Value"
	}
	return id
}

// placeholder returns the n-th (1-based) bind parameter of dialect d.
func placeholder(d string, n int) string {
	switch d {
	case dialect.Postgres:
		return fmt.Sprintf("$%d", n)
	case dialect.MSSQL:
		return fmt.Sprintf("@p%d", n)
	}
	return "?"
}

// numbered reports whether placeholders of dialect d can be reused.
func numbered(d string) bool {
	return d == dialect.Postgres || d == dialect.MSSQL
}
