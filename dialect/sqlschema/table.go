package sqlschema

import (
	"strings"

	"github.com/syssam/domgen"
	"github.com/syssam/domgen/schema"
)

// named is an ordered set of named elements.
type named[T any] struct {
	items  []T
	byName map[string]T
}

func (n *named[T]) add(name string, v T) bool {
	if _, ok := n.byName[name]; ok {
		return false
	}
	if n.byName == nil {
		n.byName = make(map[string]T)
	}
	n.byName[name] = v
	n.items = append(n.items, v)
	return true
}

func (n *named[T]) lookup(name string) (T, bool) {
	v, ok := n.byName[name]
	return v, ok
}

// Schema is the SQL side of a logical schema.
type Schema struct {
	Schema    *schema.Schema
	namespace string
}

// DefaultNamespace is the namespace tables live in unless their schema
// sets another one.
const DefaultNamespace = "dbo"

// SchemaOf returns the SQL schema of s, creating it while s is declared.
// It returns nil for a frozen schema that never had one.
func SchemaOf(s *schema.Schema) *Schema {
	if v, ok := s.Facet(FacetKey).(*Schema); ok {
		return v
	}
	if s.Frozen() {
		return nil
	}
	v := &Schema{Schema: s}
	s.SetFacet(FacetKey, v)
	return v
}

// Namespace returns the SQL schema name.
func (s *Schema) Namespace() string {
	if s.namespace == "" {
		return DefaultNamespace
	}
	return s.namespace
}

// SetNamespace overrides the SQL schema name.
func (s *Schema) SetNamespace(ns string) *Schema {
	if s.Schema.Frozen() {
		panic(domgen.NewConfigError(domgen.KindFrozen, s.Schema.Name, ns, "namespace set after schema was finalized"))
	}
	s.namespace = ns
	return s
}

// IsDefault reports whether the namespace is the default one.
func (s *Schema) IsDefault() bool {
	return s.Namespace() == DefaultNamespace
}

// Tables returns the tables of the schema in declaration order.
func (s *Schema) Tables() []*Table {
	var tables []*Table
	for _, o := range s.Schema.ObjectTypes() {
		if t := TableOf(o); t != nil {
			tables = append(tables, t)
		}
	}
	return tables
}

// Table is the SQL side of an object type.
type Table struct {
	ObjectType *schema.ObjectType

	name        string
	renames     map[string]string
	columns     []*Column
	byAttribute map[string]*Column
	indexes     named[*Index]
	foreignKeys named[*ForeignKey]
	constraints named[*Constraint]
	validations named[*Validation]
	derived     bool
}

// TableOf returns the table of o, creating it while o is declared. It
// returns nil for a frozen object type that was never derived.
func TableOf(o *schema.ObjectType) *Table {
	if v, ok := o.Facet(FacetKey).(*Table); ok {
		return v
	}
	if o.Frozen() {
		return nil
	}
	t := &Table{ObjectType: o, byAttribute: make(map[string]*Column)}
	o.SetFacet(FacetKey, t)
	return t
}

// Name returns the table name, the object type name unless overridden.
func (t *Table) Name() string {
	if t.name != "" {
		return t.name
	}
	return t.ObjectType.Name
}

// Schema returns the SQL schema of the table.
func (t *Table) Schema() *Schema {
	return SchemaOf(t.ObjectType.Schema)
}

// Namespace returns the namespace of the table's schema.
func (t *Table) Namespace() string {
	if s := t.Schema(); s != nil {
		return s.Namespace()
	}
	return DefaultNamespace
}

func (t *Table) mutate() {
	if t.ObjectType.Frozen() || t.derived {
		panic(domgen.NewConfigError(domgen.KindFrozen, t.ObjectType.Path(), t.Name(), "table modified after object type was finalized"))
	}
}

func (t *Table) fail(err error) {
	t.ObjectType.Fail(err)
}

// SetName overrides the table name.
func (t *Table) SetName(name string) *Table {
	t.mutate()
	t.name = name
	return t
}

// RenameColumn overrides the column name of an attribute.
func (t *Table) RenameColumn(attr, column string) *Table {
	t.mutate()
	if t.renames == nil {
		t.renames = make(map[string]string)
	}
	t.renames[attr] = column
	return t
}

// Index declares an index over the named attributes.
func (t *Table) Index(attrs []string, opts ...IndexOption) *Index {
	t.mutate()
	i := &Index{Table: t, AttributeNames: attrs}
	for _, opt := range opts {
		opt(i)
	}
	if err := t.addIndex(i); err != nil {
		t.fail(err)
	}
	return i
}

// Cluster declares the clustering index over the named attributes.
func (t *Table) Cluster(attrs ...string) *Index {
	return t.Index(attrs, Clustered())
}

// ForeignKey declares a foreign key from the named attributes to the named
// attributes of refType, a local or qualified object type name.
func (t *Table) ForeignKey(attrs []string, refType string, refAttrs []string, opts ...ForeignKeyOption) *ForeignKey {
	t.mutate()
	fk := &ForeignKey{
		Table:                    t,
		Name:                     strings.Join(attrs, "_"),
		AttributeNames:           attrs,
		ReferencedTypeName:       refType,
		ReferencedAttributeNames: refAttrs,
	}
	for _, opt := range opts {
		opt(fk)
	}
	if err := t.addForeignKey(fk); err != nil {
		t.fail(err)
	}
	return fk
}

// Constraint declares a check constraint.
func (t *Table) Constraint(name, sql string) *Constraint {
	t.mutate()
	c := &Constraint{Table: t, Name: name, SQL: sql}
	if err := t.addConstraint(c); err != nil {
		t.fail(err)
	}
	return c
}

// Validation declares a validation evaluated by a trigger or procedure.
func (t *Table) Validation(name, sql string) *Validation {
	t.mutate()
	v := &Validation{Table: t, Name: name, SQL: sql}
	if !t.validations.add(name, v) {
		t.fail(domgen.DuplicateError(t.ObjectType.Path(), "validation", name))
	}
	return v
}

func (t *Table) addIndex(i *Index) error {
	if i.Name == "" {
		i.Name = i.Prefix() + "_" + t.ObjectType.Name + "_" + strings.Join(i.AttributeNames, "_")
	}
	if !t.indexes.add(i.Name, i) {
		return domgen.DuplicateError(t.ObjectType.Path(), "index", i.Name)
	}
	return nil
}

func (t *Table) addForeignKey(fk *ForeignKey) error {
	if !t.foreignKeys.add(fk.Name, fk) {
		return domgen.DuplicateError(t.ObjectType.Path(), "foreign key", fk.Name)
	}
	return nil
}

func (t *Table) addConstraint(c *Constraint) error {
	if !t.constraints.add(c.Name, c) {
		return domgen.DuplicateError(t.ObjectType.Path(), "constraint", c.Name)
	}
	return nil
}

// Columns returns the columns in attribute order.
func (t *Table) Columns() []*Column { return t.columns }

// Column returns the column of the named attribute.
func (t *Table) Column(attr string) (*Column, bool) {
	c, ok := t.byAttribute[attr]
	return c, ok
}

// PrimaryKey returns the primary key column.
func (t *Table) PrimaryKey() *Column {
	for _, c := range t.columns {
		if c.PrimaryKey {
			return c
		}
	}
	return nil
}

// Indexes returns declared indexes followed by derived ones.
func (t *Table) Indexes() []*Index { return t.indexes.items }

// IndexByName returns the index with the given name.
func (t *Table) IndexByName(name string) (*Index, bool) { return t.indexes.lookup(name) }

// ClusterIndex returns the clustering index, or nil.
func (t *Table) ClusterIndex() *Index {
	for _, i := range t.indexes.items {
		if i.Cluster {
			return i
		}
	}
	return nil
}

// ForeignKeys returns declared foreign keys followed by derived ones.
func (t *Table) ForeignKeys() []*ForeignKey { return t.foreignKeys.items }

// ForeignKeyByName returns the foreign key with the given name.
func (t *Table) ForeignKeyByName(name string) (*ForeignKey, bool) { return t.foreignKeys.lookup(name) }

// Constraints returns declared check constraints followed by derived ones.
func (t *Table) Constraints() []*Constraint { return t.constraints.items }

// ConstraintByName returns the check constraint with the given name.
func (t *Table) ConstraintByName(name string) (*Constraint, bool) { return t.constraints.lookup(name) }

// Validations returns the declared validations.
func (t *Table) Validations() []*Validation { return t.validations.items }

// Index is a table index.
type Index struct {
	Table          *Table
	Name           string
	AttributeNames []string
	Unique         bool
	Cluster        bool
	// Derived is set on indexes created from unique constraints.
	Derived bool

	columns []string
}

// Prefix returns the name prefix: "CL" for clustering, "UQ" for unique
// and "IX" for other indexes.
func (i *Index) Prefix() string {
	switch {
	case i.Cluster:
		return "CL"
	case i.Unique:
		return "UQ"
	}
	return "IX"
}

// Columns returns the column names of the index.
func (i *Index) Columns() []string { return i.columns }

// ForeignKey is a reference from columns of a table to columns of another.
type ForeignKey struct {
	Table                    *Table
	Name                     string
	AttributeNames           []string
	ReferencedTypeName       string
	ReferencedAttributeNames []string
	OnDelete                 CascadeAction
	OnUpdate                 CascadeAction
	// Derived is set on foreign keys created from reference attributes.
	Derived bool

	columns    []string
	refTable   *Table
	refColumns []string
	referenced *schema.ObjectType
}

// Columns returns the local column names.
func (fk *ForeignKey) Columns() []string { return fk.columns }

// ReferencedTable returns the referenced table.
func (fk *ForeignKey) ReferencedTable() *Table { return fk.refTable }

// ReferencedColumns returns the referenced column names.
func (fk *ForeignKey) ReferencedColumns() []string { return fk.refColumns }

// ReferencedObjectType returns the referenced object type.
func (fk *ForeignKey) ReferencedObjectType() *schema.ObjectType { return fk.referenced }

// Constraint is a named check constraint.
type Constraint struct {
	Table *Table
	Name  string
	// SQL is the condition with bare column names.
	SQL string
	// Derived is set on enumeration range and membership checks.
	Derived bool

	column string
	expr   func(column string) string
}

// Expression returns the condition of c. The column of a derived check is
// passed through quote; declared conditions are returned as written.
func (c *Constraint) Expression(quote func(string) string) string {
	if c.expr == nil {
		return c.SQL
	}
	return c.expr(quote(c.column))
}

// Validation is a named condition checked outside of DDL constraints.
type Validation struct {
	Table *Table
	Name  string
	SQL   string
}
