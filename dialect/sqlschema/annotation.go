// Package sqlschema derives the physical SQL layer of a domgen model:
// tables, columns, indexes, foreign keys and check constraints.
//
// Install the facet when building a set:
//
//	set, err := schema.NewSet(build, schema.WithFacet(sqlschema.Facet{}))
//
// Then read the derived layer through the accessors:
//
//	sqlschema.SchemaOf(s).Namespace() // "dbo" unless overridden
//	sqlschema.TableOf(o).Indexes()
//	sqlschema.ColumnOf(a).SQLType()    // "VARCHAR(255)"
//
// # Declaring Physical Details
//
// Inside an object type callback the table can be adjusted before it is
// derived:
//
//	s.ObjectType("User", func(o *schema.ObjectType) {
//	    o.Integer("id").PrimaryKey()
//	    o.String("email", 255)
//	    t := sqlschema.TableOf(o).SetName("Users")
//	    t.Cluster("email")
//	    t.Index([]string{"email"}, sqlschema.IndexName("IX_Users_Email"))
//	})
//
// # Derivation
//
// When the object type is finalized the table derives, in order: columns,
// unique indexes from unique constraints, range checks for i_enum
// attributes, IN checks for s_enum attributes and foreign keys for
// references to concrete types. More than one clustering index fails.
//
// # Cascade Actions
//
// Available constants for OnDelete and OnUpdate:
//
//	sqlschema.Cascade    - Delete/update related rows
//	sqlschema.SetNull    - Set foreign key to NULL
//	sqlschema.Restrict   - Prevent delete/update if related rows exist
//	sqlschema.SetDefault - Set foreign key to default value
//	sqlschema.NoAction   - No action (database default)
package sqlschema

// FacetKey is the key the SQL layer stores its data under.
const FacetKey = "sql"

// CascadeAction defines cascade behavior for foreign key constraints.
type CascadeAction string

const (
	Cascade    CascadeAction = "CASCADE"
	SetNull    CascadeAction = "SET NULL"
	Restrict   CascadeAction = "RESTRICT"
	SetDefault CascadeAction = "SET DEFAULT"
	NoAction   CascadeAction = "NO ACTION"
)

// ParseCascadeAction returns the action with the given SQL spelling,
// accepting underscores for spaces.
func ParseCascadeAction(s string) (CascadeAction, bool) {
	for _, a := range []CascadeAction{Cascade, SetNull, Restrict, SetDefault, NoAction} {
		if string(a) == s || string(a) == spaced(s) {
			return a, true
		}
	}
	return "", false
}

func spaced(s string) string {
	b := []byte(s)
	for i, c := range b {
		switch {
		case c == '_':
			b[i] = ' '
		case c >= 'a' && c <= 'z':
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}

// IndexOption configures an index declaration.
type IndexOption func(*Index)

// IndexName overrides the synthesized index name.
func IndexName(name string) IndexOption {
	return func(i *Index) { i.Name = name }
}

// Unique makes the index unique.
func Unique() IndexOption {
	return func(i *Index) { i.Unique = true }
}

// Clustered makes the index the clustering index of the table.
func Clustered() IndexOption {
	return func(i *Index) { i.Cluster = true }
}

// ForeignKeyOption configures a foreign key declaration.
type ForeignKeyOption func(*ForeignKey)

// ForeignKeyName overrides the synthesized foreign key name.
func ForeignKeyName(name string) ForeignKeyOption {
	return func(fk *ForeignKey) { fk.Name = name }
}

// OnDelete sets the ON DELETE action.
//
// Example:
//
//	t.ForeignKey([]string{"owner"}, "User", []string{"id"}, sqlschema.OnDelete(sqlschema.Cascade))
func OnDelete(action CascadeAction) ForeignKeyOption {
	return func(fk *ForeignKey) { fk.OnDelete = action }
}

// OnUpdate sets the ON UPDATE action.
func OnUpdate(action CascadeAction) ForeignKeyOption {
	return func(fk *ForeignKey) { fk.OnUpdate = action }
}
