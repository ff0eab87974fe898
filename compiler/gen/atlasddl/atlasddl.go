// Package atlasddl plans the DDL of a whole set with Atlas. Unlike sqlddl
// the statements are produced by the Atlas planner of each dialect, one
// migration script per dialect:
//
//	migrations/postgres/schema.sql
//	migrations/sqlite/schema.sql
//
// The dialects are read from the comma separated "atlas.dialects"
// parameter and default to postgres.
package atlasddl

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"ariga.io/atlas/sql/migrate"
	"ariga.io/atlas/sql/mysql"
	"ariga.io/atlas/sql/postgres"
	"ariga.io/atlas/sql/schema"
	"ariga.io/atlas/sql/sqlite"

	"github.com/syssam/domgen"
	"github.com/syssam/domgen/compiler/gen"
	"github.com/syssam/domgen/compiler/gen/sqlddl"
	"github.com/syssam/domgen/dialect"
	"github.com/syssam/domgen/dialect/sqlschema"
	dschema "github.com/syssam/domgen/schema"
)

// ParamDialects names the parameter listing the dialects to plan for.
const ParamDialects = "atlas.dialects"

// Dialects lists the dialects Atlas can plan for.
var Dialects = []string{dialect.Postgres, dialect.MySQL, dialect.SQLite}

// columnTypes are the Atlas type names of the SQL base types.
type columnTypes struct {
	integer, text, varchar, boolean string
}

var (
	planners = map[string]migrate.PlanApplier{
		dialect.Postgres: postgres.DefaultPlan,
		dialect.MySQL:    mysql.DefaultPlan,
		dialect.SQLite:   sqlite.DefaultPlan,
	}
	types = map[string]columnTypes{
		dialect.Postgres: {integer: "integer", text: "text", varchar: "varchar", boolean: "boolean"},
		dialect.MySQL:    {integer: "int", text: "text", varchar: "varchar", boolean: "bool"},
		dialect.SQLite:   {integer: "integer", text: "text", varchar: "varchar", boolean: "bool"},
	}
)

// Register adds one migration script per supported dialect. Only the
// dialects named by the "atlas.dialects" parameter are rendered.
func Register(ts *gen.TemplateSet) error {
	for _, d := range Dialects {
		tmpl := gen.NewTemplateFunc("atlas/"+d, func(w io.Writer, data any) error {
			ctx, ok := data.(*gen.SetContext)
			if !ok {
				return fmt.Errorf("atlasddl: unexpected template data %T", data)
			}
			return write(w, ctx, d)
		})
		err := ts.AddTemplate(gen.ScopeSchemaSet, tmpl, "schema.sql", "migrations/"+d, gen.WithGuard(func(data any) bool {
			names, err := ParseDialects(data.(*gen.SetContext).Param(ParamDialects))
			return err == nil && slices.Contains(names, d)
		}))
		if err != nil {
			return err
		}
	}
	return nil
}

// ParseDialects parses a comma separated dialect list. An empty list means
// postgres.
func ParseDialects(list string) ([]string, error) {
	if strings.TrimSpace(list) == "" {
		return []string{dialect.Postgres}, nil
	}
	var names []string
	for _, s := range strings.Split(list, ",") {
		d, err := dialect.Parse(s)
		if err != nil {
			return nil, domgen.NewConfigError(domgen.KindInvalidOption, "atlas", ParamDialects, "%v", err)
		}
		if _, ok := planners[d]; !ok {
			return nil, domgen.NewConfigError(domgen.KindInvalidOption, "atlas", ParamDialects, "atlas cannot plan for dialect %q", d)
		}
		if !slices.Contains(names, d) {
			names = append(names, d)
		}
	}
	return names, nil
}

func write(w io.Writer, ctx *gen.SetContext, d string) error {
	p, err := plan(context.Background(), ctx.Set, d)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "-- %s\n", ctx.Header); err != nil {
		return err
	}
	for _, c := range p.Changes {
		if c.Comment != "" {
			if _, err := fmt.Fprintf(w, "-- %s\n", c.Comment); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s;\n", c.Cmd); err != nil {
			return err
		}
	}
	return nil
}

// Plan returns the statements creating every table of set in dialect d.
func Plan(ctx context.Context, set *dschema.Set, d string) ([]string, error) {
	p, err := plan(ctx, set, d)
	if err != nil {
		return nil, err
	}
	stmts := make([]string, len(p.Changes))
	for i, c := range p.Changes {
		stmts[i] = c.Cmd
	}
	return stmts, nil
}

func plan(ctx context.Context, set *dschema.Set, d string) (*migrate.Plan, error) {
	name, err := dialect.Parse(d)
	if err != nil {
		return nil, domgen.NewConfigError(domgen.KindInvalidOption, "atlas", d, "%v", err)
	}
	planner, ok := planners[name]
	if !ok {
		return nil, domgen.NewConfigError(domgen.KindInvalidOption, "atlas", d, "atlas cannot plan for dialect %q", name)
	}
	changes, err := newConverter(name).changes(set)
	if err != nil {
		return nil, err
	}
	p, err := planner.PlanChanges(ctx, "domgen", changes)
	if err != nil {
		return nil, fmt.Errorf("atlasddl: plan %s: %w", name, err)
	}
	return p, nil
}

// converter turns derived tables into Atlas schema objects.
type converter struct {
	dialect string
	types   columnTypes
	schemas map[string]*schema.Schema
	tables  map[*sqlschema.Table]*schema.Table
	columns map[*sqlschema.Table]map[string]*schema.Column
}

func newConverter(d string) *converter {
	return &converter{
		dialect: d,
		types:   types[d],
		schemas: make(map[string]*schema.Schema),
		tables:  make(map[*sqlschema.Table]*schema.Table),
		columns: make(map[*sqlschema.Table]map[string]*schema.Column),
	}
}

// namespace maps the SQL namespace of a schema onto the dialect: the
// default namespace becomes the dialect default and SQLite has none.
func (c *converter) namespace(s *sqlschema.Schema) string {
	switch {
	case c.dialect == dialect.SQLite:
		return ""
	case s.IsDefault():
		return dialect.DefaultNamespace(c.dialect)
	}
	return s.Namespace()
}

func (c *converter) changes(set *dschema.Set) ([]schema.Change, error) {
	var (
		changes []schema.Change
		tables  []*sqlschema.Table
	)
	for _, s := range set.Schemas() {
		ss := sqlschema.SchemaOf(s)
		if ss == nil {
			return nil, domgen.NewConfigError(domgen.KindUnresolved, s.Name, sqlschema.FacetKey, "schema %q has no SQL layer", s.Name)
		}
		ns := c.namespace(ss)
		as, ok := c.schemas[ns]
		if !ok {
			as = schema.New(ns)
			c.schemas[ns] = as
			if ns != "" && ns != dialect.DefaultNamespace(c.dialect) {
				changes = append(changes, &schema.AddSchema{S: as})
			}
		}
		for _, t := range ss.Tables() {
			at, err := c.table(t)
			if err != nil {
				return nil, err
			}
			as.AddTables(at)
			tables = append(tables, t)
		}
	}
	for _, t := range tables {
		if err := c.foreignKeys(t); err != nil {
			return nil, err
		}
		changes = append(changes, &schema.AddTable{T: c.tables[t]})
	}
	return changes, nil
}

func (c *converter) table(t *sqlschema.Table) (*schema.Table, error) {
	at := schema.NewTable(t.Name())
	cols := make(map[string]*schema.Column, len(t.Columns()))
	for _, col := range t.Columns() {
		ac, err := c.column(col)
		if err != nil {
			return nil, err
		}
		at.AddColumns(ac)
		cols[col.Name] = ac
	}
	c.tables[t] = at
	c.columns[t] = cols
	if pk := t.PrimaryKey(); pk != nil {
		at.SetPrimaryKey(schema.NewPrimaryKey(cols[pk.Name]))
	}
	for _, i := range t.Indexes() {
		idx := schema.NewIndex(i.Name)
		if i.Unique {
			idx = schema.NewUniqueIndex(i.Name)
		}
		at.AddIndexes(idx.AddColumns(c.lookup(t, i.Columns())...))
	}
	script, err := sqlddl.NewScript(t.ObjectType.Schema, c.dialect)
	if err != nil {
		return nil, err
	}
	for _, ck := range script.Checks(t) {
		at.AddChecks(schema.NewCheck().SetName(ck.Name).SetExpr(ck.Expr))
	}
	return at, nil
}

func (c *converter) column(col *sqlschema.Column) (*schema.Column, error) {
	var ac *schema.Column
	switch col.Type {
	case "INT":
		ac = schema.NewIntColumn(col.Name, c.types.integer)
	case "VARCHAR":
		ac = schema.NewStringColumn(col.Name, c.types.varchar, schema.StringSize(col.Length))
	case "TEXT":
		ac = schema.NewStringColumn(col.Name, c.types.text)
	case "BIT":
		ac = schema.NewBoolColumn(col.Name, c.types.boolean)
	default:
		return nil, domgen.NewConfigError(domgen.KindUnknownType, col.Table.ObjectType.Path(), col.Name,
			"column %q has type %s with no %s equivalent", col.Name, col.SQLType(), c.dialect)
	}
	return ac.SetNull(col.Nullable), nil
}

func (c *converter) foreignKeys(t *sqlschema.Table) error {
	at := c.tables[t]
	for _, fk := range t.ForeignKeys() {
		ref, ok := c.tables[fk.ReferencedTable()]
		if !ok {
			return domgen.NewConfigError(domgen.KindUnresolved, t.ObjectType.Path(), fk.Name,
				"foreign key %q references a table outside the set", fk.Name)
		}
		afk := schema.NewForeignKey(new(sqlddl.Script).ForeignKeyName(fk)).
			AddColumns(c.lookup(t, fk.Columns())...).
			SetRefTable(ref).
			AddRefColumns(c.lookup(fk.ReferencedTable(), fk.ReferencedColumns())...)
		if fk.OnDelete != "" {
			afk.SetOnDelete(schema.ReferenceOption(fk.OnDelete))
		}
		if fk.OnUpdate != "" {
			afk.SetOnUpdate(schema.ReferenceOption(fk.OnUpdate))
		}
		at.AddForeignKeys(afk)
	}
	return nil
}

func (c *converter) lookup(t *sqlschema.Table, names []string) []*schema.Column {
	cols := make([]*schema.Column, len(names))
	for i, n := range names {
		cols[i] = c.columns[t][n]
	}
	return cols
}
