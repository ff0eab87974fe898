package sqlschema

import (
	"strconv"

	"github.com/syssam/domgen/schema"
)

// typeMap maps attribute kinds to SQL base types. References take the type
// of the referenced primary key.
var typeMap = map[schema.Kind]string{
	schema.KindText:    "TEXT",
	schema.KindString:  "VARCHAR",
	schema.KindInteger: "INT",
	schema.KindBoolean: "BIT",
	schema.KindIEnum:   "INT",
	schema.KindSEnum:   "VARCHAR",
}

// Column is the SQL side of a persistent attribute.
type Column struct {
	Table     *Table
	Attribute *schema.Attribute
	Name      string
	// Type is the base SQL type, for example "VARCHAR".
	Type string
	// Length is the size of VARCHAR columns, zero otherwise.
	Length     int
	Nullable   bool
	PrimaryKey bool
}

// SQLType returns the full type, for example "VARCHAR(255)".
func (c *Column) SQLType() string {
	if c.Length > 0 {
		return c.Type + "(" + strconv.Itoa(c.Length) + ")"
	}
	return c.Type
}

// ColumnOf returns the column of a persistent attribute of a derived
// object type, or nil.
func ColumnOf(a *schema.Attribute) *Column {
	t := TableOf(a.ObjectType)
	if t == nil {
		return nil
	}
	c, _ := t.Column(a.Name)
	return c
}
