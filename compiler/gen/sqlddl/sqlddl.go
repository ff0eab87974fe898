// Package sqlddl generates the SQL scripts of each schema: one creating
// tables and indexes and one adding foreign keys, checks and validations.
//
// The dialect is read from the "sql.dialect" parameter and defaults to
// SQL Server:
//
//	databases/<Schema>/schema.sql
//	databases/<Schema>/<Schema>_constraints.sql
package sqlddl

import (
	"embed"
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/syssam/domgen"
	"github.com/syssam/domgen/compiler/gen"
	"github.com/syssam/domgen/dialect"
	"github.com/syssam/domgen/dialect/sqlschema"
	"github.com/syssam/domgen/naming"
	"github.com/syssam/domgen/schema"
)

// ParamDialect names the parameter holding the target dialect.
const ParamDialect = "sql.dialect"

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(gen.ParseFS(templateFS, "templates/*.tmpl"))

// Register adds the DDL and constraint scripts to ts.
func Register(ts *gen.TemplateSet) error {
	for _, m := range []struct{ tmpl, name, path string }{
		{"schema.tmpl", "sql/ddl", "schema.sql"},
		{"constraints.tmpl", "sql/constraints", "{{.Schema.Name}}_constraints.sql"},
	} {
		tmpl, err := gen.Lookup(templates, m.tmpl)
		if err != nil {
			return err
		}
		if err := ts.AddTemplate(gen.ScopeSchema, scriptTemplate(m.name, tmpl), m.path, "databases/{{.Schema.Name}}"); err != nil {
			return err
		}
	}
	return nil
}

func scriptTemplate(name string, tmpl *template.Template) gen.Template {
	return gen.NewTemplateFunc(name, func(w io.Writer, data any) error {
		ctx, ok := data.(*gen.SchemaContext)
		if !ok {
			return fmt.Errorf("sqlddl: unexpected template data %T", data)
		}
		s, err := NewScript(ctx.Schema, ctx.ParamOr(ParamDialect, dialect.MSSQL))
		if err != nil {
			return err
		}
		s.Header = ctx.Header
		return tmpl.Execute(w, s)
	})
}

// Script renders the statements of one schema for one dialect. Its methods
// are used by the templates.
type Script struct {
	Header  string
	Dialect string
	Schema  *sqlschema.Schema
}

// NewScript returns the script of s in dialect d.
func NewScript(s *schema.Schema, d string) (*Script, error) {
	name, err := dialect.Parse(d)
	if err != nil {
		return nil, domgen.NewConfigError(domgen.KindInvalidOption, s.Name, ParamDialect, "%v", err)
	}
	ss := sqlschema.SchemaOf(s)
	if ss == nil {
		return nil, domgen.NewConfigError(domgen.KindUnresolved, s.Name, sqlschema.FacetKey, "schema %q has no SQL layer", s.Name)
	}
	return &Script{Dialect: name, Schema: ss}, nil
}

// MSSQL reports whether the script targets SQL Server.
func (s *Script) MSSQL() bool { return s.Dialect == dialect.MSSQL }

// Namespace returns the namespace tables are created in. The default
// namespace maps onto the default of the dialect, and SQLite tables are
// never qualified.
func (s *Script) Namespace() string {
	switch {
	case s.Dialect == dialect.SQLite:
		return ""
	case s.Schema.IsDefault():
		return dialect.DefaultNamespace(s.Dialect)
	}
	return s.Schema.Namespace()
}

// CreateSchema reports whether the namespace has to be created.
func (s *Script) CreateSchema() bool {
	ns := s.Namespace()
	return ns != "" && ns != dialect.DefaultNamespace(s.Dialect)
}

// End terminates a statement.
func (s *Script) End() string {
	if s.MSSQL() {
		return "\nGO"
	}
	return ";"
}

// Q quotes an identifier.
func (s *Script) Q(ident string) string { return naming.Quote(s.Dialect, ident) }

// Qualified quotes an identifier in the script namespace.
func (s *Script) Qualified(ident string) string {
	return naming.QuoteQualified(s.Dialect, s.Namespace(), ident)
}

// Table returns the qualified name of t. Tables of other schemas are
// qualified with their own namespace.
func (s *Script) Table(t *sqlschema.Table) string {
	if t.Schema() == s.Schema {
		return s.Qualified(t.Name())
	}
	other := &Script{Dialect: s.Dialect, Schema: t.Schema()}
	return other.Qualified(t.Name())
}

// Type returns the column type in the script dialect.
func (s *Script) Type(c *sqlschema.Column) string {
	if c.Type == "BIT" && s.Dialect == dialect.Postgres {
		return "BOOLEAN"
	}
	return c.SQLType()
}

// Columns quotes and joins column names.
func (s *Script) Columns(cols []string) string {
	q := make([]string, len(cols))
	for i, c := range cols {
		q[i] = s.Q(c)
	}
	return strings.Join(q, ", ")
}

// PrimaryKeyKind returns the clustering clause of the primary key. On SQL
// Server the primary key clusters unless another index does.
func (s *Script) PrimaryKeyKind(t *sqlschema.Table) string {
	switch {
	case !s.MSSQL():
		return ""
	case t.ClusterIndex() != nil:
		return " NONCLUSTERED"
	}
	return " CLUSTERED"
}

// IndexKind returns the keywords between CREATE and INDEX.
func (s *Script) IndexKind(i *sqlschema.Index) string {
	var b strings.Builder
	if i.Unique {
		b.WriteString("UNIQUE ")
	}
	if s.MSSQL() {
		if i.Cluster {
			b.WriteString("CLUSTERED ")
		} else {
			b.WriteString("NONCLUSTERED ")
		}
	}
	return b.String()
}

// ForeignKeyName returns the constraint name of fk, unique per namespace.
func (s *Script) ForeignKeyName(fk *sqlschema.ForeignKey) string {
	return "FK_" + fk.Table.Name() + "_" + fk.Name
}

// Actions returns the ON DELETE and ON UPDATE clauses of fk.
func (s *Script) Actions(fk *sqlschema.ForeignKey) string {
	var b strings.Builder
	if fk.OnDelete != "" {
		b.WriteString(" ON DELETE " + string(fk.OnDelete))
	}
	if fk.OnUpdate != "" {
		b.WriteString(" ON UPDATE " + string(fk.OnUpdate))
	}
	return b.String()
}

// Check is a named boolean expression over the columns of a table.
type Check struct {
	// Name is the constraint or trigger name.
	Name string
	// Label is the logical name the check was declared with.
	Label string
	Expr  string
}

// Checks returns the check constraints of t: physical constraints, then
// logical constraints, then codependent and incompatible attribute sets.
func (s *Script) Checks(t *sqlschema.Table) []Check {
	var checks []Check
	add := func(label, expr string) {
		checks = append(checks, Check{Name: "CK_" + t.Name() + "_" + label, Label: label, Expr: expr})
	}
	for _, c := range t.Constraints() {
		add(c.Name, c.Expression(s.Q))
	}
	o := t.ObjectType
	for _, c := range o.Constraints() {
		add(c.Name, c.SQL)
	}
	for _, c := range o.CodependentConstraints() {
		if cols := s.setColumns(t, c); len(cols) > 1 {
			add(c.Name, codependent(cols))
		}
	}
	for _, c := range o.IncompatibleConstraints() {
		if cols := s.setColumns(t, c); len(cols) > 1 {
			add(c.Name, incompatible(cols))
		}
	}
	return checks
}

// Validations returns the validations of t, logical ones first.
func (s *Script) Validations(t *sqlschema.Table) []Check {
	var checks []Check
	add := func(label, expr string) {
		checks = append(checks, Check{Name: "TR_" + t.Name() + "_" + label, Label: label, Expr: expr})
	}
	for _, v := range t.ObjectType.Validations() {
		add(v.Name, v.SQL)
	}
	for _, v := range t.Validations() {
		add(v.Name, v.SQL)
	}
	return checks
}

func (s *Script) setColumns(t *sqlschema.Table, c *schema.AttributeSetConstraint) []string {
	var cols []string
	for _, a := range c.Attributes() {
		if col, ok := t.Column(a.Name); ok {
			cols = append(cols, s.Q(col.Name))
		}
	}
	return cols
}

// codependent requires the columns to be all null or all set.
func codependent(cols []string) string {
	null := make([]string, len(cols))
	set := make([]string, len(cols))
	for i, c := range cols {
		null[i] = c + " IS NULL"
		set[i] = c + " IS NOT NULL"
	}
	return "(" + strings.Join(null, " AND ") + ") OR (" + strings.Join(set, " AND ") + ")"
}

// incompatible allows at most one of the columns to be set.
func incompatible(cols []string) string {
	terms := make([]string, len(cols))
	for i, c := range cols {
		terms[i] = "CASE WHEN " + c + " IS NULL THEN 0 ELSE 1 END"
	}
	return "(" + strings.Join(terms, " + ") + ") <= 1"
}
