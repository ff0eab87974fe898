package sqlschema

import (
	"fmt"
	"strings"

	"github.com/syssam/domgen"
	"github.com/syssam/domgen/naming"
	"github.com/syssam/domgen/schema"
)

// Facet derives the SQL layer of every object type. Install it with
// schema.WithFacet.
type Facet struct{}

var _ schema.Facet = Facet{}

// DeriveObjectType derives the table of o.
func (Facet) DeriveObjectType(o *schema.ObjectType) error {
	return TableOf(o).derive()
}

// DeriveSchema makes sure every schema carries its SQL schema.
func (Facet) DeriveSchema(s *schema.Schema) error {
	SchemaOf(s)
	return nil
}

func (t *Table) derive() error {
	if t.derived {
		return nil
	}
	steps := []func() error{
		t.deriveColumns,
		t.resolveIndexes,
		t.resolveForeignKeys,
		t.deriveUniqueIndexes,
		t.deriveEnumChecks,
		t.checkConditionNames,
		t.deriveForeignKeys,
		t.checkClusters,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	t.derived = true
	return nil
}

func (t *Table) owner() string { return t.ObjectType.Path() }

// deriveColumns creates the columns of persistent attributes. Plain
// attributes go first so a self reference finds the primary key column.
func (t *Table) deriveColumns() error {
	attrs := t.ObjectType.PersistentAttributes()
	cols := make(map[*schema.Attribute]*Column, len(attrs))
	for _, pass := range []bool{false, true} {
		for _, a := range attrs {
			if a.IsReference() != pass {
				continue
			}
			c, err := t.newColumn(a)
			if err != nil {
				return err
			}
			cols[a] = c
			t.byAttribute[a.Name] = c
		}
	}
	names := make(map[string]string, len(attrs))
	for _, a := range attrs {
		c := cols[a]
		if prev, ok := names[c.Name]; ok {
			return domgen.NewConfigError(domgen.KindDuplicate, t.owner(), c.Name,
				"attributes %q and %q map to the same column %q", prev, a.Name, c.Name)
		}
		names[c.Name] = a.Name
		t.columns = append(t.columns, c)
	}
	return nil
}

func (t *Table) newColumn(a *schema.Attribute) (*Column, error) {
	c := &Column{
		Table:      t,
		Attribute:  a,
		Name:       a.Name,
		Nullable:   a.Nullable,
		PrimaryKey: a.PrimaryKey,
	}
	switch a.Kind() {
	case schema.KindReference:
		target := a.ReferencedObject()
		pk, err := t.targetKey(a, target)
		if err != nil {
			return nil, err
		}
		c.Name = a.Name + "_" + target.PrimaryKey().Name
		c.Type, c.Length = pk.Type, pk.Length
	case schema.KindString:
		c.Type, c.Length = typeMap[schema.KindString], a.StringType().Length
	case schema.KindSEnum:
		c.Type, c.Length = typeMap[schema.KindSEnum], a.SEnum().MaxLength()
	default:
		typ, ok := typeMap[a.Kind()]
		if !ok {
			return nil, domgen.NewConfigError(domgen.KindUnknownType, t.owner(), a.Name,
				"attribute %q has unknown type %s", a.Name, a.Kind())
		}
		c.Type = typ
	}
	if name, ok := t.renames[a.Name]; ok {
		c.Name = name
	}
	return c, nil
}

// targetKey returns the primary key column a reference points at.
func (t *Table) targetKey(a *schema.Attribute, target *schema.ObjectType) (*Column, error) {
	if target == nil {
		return nil, domgen.NewConfigError(domgen.KindUnresolved, t.owner(), a.Name, "reference %q is not resolved", a.Name)
	}
	pk := target.PrimaryKey()
	var col *Column
	if target == t.ObjectType {
		col = t.byAttribute[pk.Name]
	} else if tt := TableOf(target); tt != nil {
		col, _ = tt.Column(pk.Name)
	}
	if col == nil {
		return nil, domgen.NewConfigError(domgen.KindUnresolved, t.owner(), a.Name,
			"reference %q: %s has no primary key column", a.Name, target.Path())
	}
	return col, nil
}

func (t *Table) columnsOf(what, name string, attrs []string, table *Table) ([]string, error) {
	if len(attrs) == 0 {
		return nil, domgen.NewConfigError(domgen.KindInvalidOption, t.owner(), name, "%s %q names no attributes", what, name)
	}
	cols := make([]string, 0, len(attrs))
	for _, attr := range attrs {
		c, ok := table.byAttribute[attr]
		if !ok {
			return nil, domgen.NewConfigError(domgen.KindUnresolved, t.owner(), attr,
				"%s %q: unknown or transient attribute %q of %s", what, name, attr, table.ObjectType.Path())
		}
		cols = append(cols, c.Name)
	}
	return cols, nil
}

func (t *Table) resolveIndexes() error {
	for _, i := range t.indexes.items {
		cols, err := t.columnsOf("index", i.Name, i.AttributeNames, t)
		if err != nil {
			return err
		}
		i.columns = cols
	}
	return nil
}

func (t *Table) resolveForeignKeys() error {
	for _, fk := range t.foreignKeys.items {
		target, ok := t.ObjectType.LookupType(fk.ReferencedTypeName)
		if !ok {
			return domgen.NewConfigError(domgen.KindUnresolved, t.owner(), fk.ReferencedTypeName,
				"foreign key %q references unknown object type %q", fk.Name, fk.ReferencedTypeName)
		}
		if len(fk.AttributeNames) != len(fk.ReferencedAttributeNames) {
			return domgen.NewConfigError(domgen.KindInvalidOption, t.owner(), fk.Name,
				"foreign key %q has %d attributes but references %d", fk.Name, len(fk.AttributeNames), len(fk.ReferencedAttributeNames))
		}
		refTable := t
		if target != t.ObjectType {
			refTable = TableOf(target)
		}
		cols, err := t.columnsOf("foreign key", fk.Name, fk.AttributeNames, t)
		if err != nil {
			return err
		}
		refCols, err := t.columnsOf("foreign key", fk.Name, fk.ReferencedAttributeNames, refTable)
		if err != nil {
			return err
		}
		fk.columns, fk.refTable, fk.refColumns, fk.referenced = cols, refTable, refCols, target
	}
	return nil
}

func (t *Table) deriveUniqueIndexes() error {
	for _, uc := range t.ObjectType.UniqueConstraints() {
		i := &Index{Table: t, AttributeNames: uc.AttributeNames, Unique: true, Derived: true}
		cols, err := t.columnsOf("unique constraint", uc.Name, uc.AttributeNames, t)
		if err != nil {
			return err
		}
		i.columns = cols
		if err := t.addIndex(i); err != nil {
			return err
		}
	}
	return nil
}

func (t *Table) deriveEnumChecks() error {
	var checks []*Constraint
	derived := func(a *schema.Attribute, expr func(string) string) {
		col := t.byAttribute[a.Name].Name
		checks = append(checks, &Constraint{
			Table:   t,
			Name:    a.Name,
			SQL:     expr(col),
			Derived: true,
			column:  col,
			expr:    expr,
		})
	}
	for _, a := range t.ObjectType.PersistentAttributes() {
		if e := a.IEnum(); e != nil {
			lo, hi := e.Min(), e.Max()
			derived(a, func(col string) string {
				return fmt.Sprintf("%s >= %d AND %s <= %d", col, lo, col, hi)
			})
		}
	}
	for _, a := range t.ObjectType.PersistentAttributes() {
		if e := a.SEnum(); e != nil {
			values := make([]string, len(e.Values))
			for i, v := range e.Values {
				values[i] = naming.Literal(v)
			}
			in := strings.Join(values, ",")
			derived(a, func(col string) string {
				return fmt.Sprintf("%s IN (%s)", col, in)
			})
		}
	}
	for _, c := range checks {
		if err := t.addConstraint(c); err != nil {
			return err
		}
	}
	return nil
}

// checkConditionNames rejects logical constraints and validations named
// like a table constraint or validation. Both render under one name per
// table.
func (t *Table) checkConditionNames() error {
	o := t.ObjectType
	checks := make(map[string]bool, len(t.constraints.items))
	for _, c := range t.constraints.items {
		checks[c.Name] = true
	}
	var names []struct{ what, name string }
	for _, c := range o.Constraints() {
		names = append(names, struct{ what, name string }{"constraint", c.Name})
	}
	for _, c := range o.CodependentConstraints() {
		names = append(names, struct{ what, name string }{"codependent constraint", c.Name})
	}
	for _, c := range o.IncompatibleConstraints() {
		names = append(names, struct{ what, name string }{"incompatible constraint", c.Name})
	}
	for _, n := range names {
		if checks[n.name] {
			return domgen.NewConfigError(domgen.KindDuplicate, t.owner(), n.name,
				"%s %q clashes with check constraint %q of table %s", n.what, n.name, n.name, t.Name())
		}
		checks[n.name] = true
	}

	validations := make(map[string]bool, len(t.validations.items))
	for _, v := range t.validations.items {
		validations[v.Name] = true
	}
	for _, v := range o.Validations() {
		if validations[v.Name] {
			return domgen.NewConfigError(domgen.KindDuplicate, t.owner(), v.Name,
				"validation %q clashes with validation %q of table %s", v.Name, v.Name, t.Name())
		}
	}
	return nil
}

// deriveForeignKeys backs every persistent reference to a concrete type
// with a foreign key named after the attribute.
func (t *Table) deriveForeignKeys() error {
	for _, a := range t.ObjectType.PersistentAttributes() {
		ref := a.Reference()
		if ref == nil || ref.Abstract {
			continue
		}
		target := a.ReferencedObject()
		if !target.Final() {
			continue
		}
		pk, err := t.targetKey(a, target)
		if err != nil {
			return err
		}
		fk := &ForeignKey{
			Table:                    t,
			Name:                     a.Name,
			AttributeNames:           []string{a.Name},
			ReferencedTypeName:       target.Path(),
			ReferencedAttributeNames: []string{target.PrimaryKey().Name},
			Derived:                  true,
			columns:                  []string{t.byAttribute[a.Name].Name},
			refTable:                 pk.Table,
			refColumns:               []string{pk.Name},
			referenced:               target,
		}
		if err := t.addForeignKey(fk); err != nil {
			return err
		}
	}
	return nil
}

func (t *Table) checkClusters() error {
	n := 0
	for _, i := range t.indexes.items {
		if i.Cluster {
			n++
		}
	}
	if n > 1 {
		return domgen.NewConfigError(domgen.KindMultipleClusters, t.owner(), t.Name(),
			"%s defines multiple clustering indexes", t.Name())
	}
	return nil
}
