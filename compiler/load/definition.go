package load

import (
	"gopkg.in/yaml.v3"
)

// Definition is the content of a definition file: the schemas of one set.
type Definition struct {
	Schemas []*Schema `yaml:"schemas"`

	// Path is the file the definition was loaded from, if any.
	Path string `yaml:"-"`
}

// Schema describes a schema and its object types.
type Schema struct {
	Name        string        `yaml:"name"`
	SQL         *SchemaSQL    `yaml:"sql,omitempty"`
	ObjectTypes []*ObjectType `yaml:"object_types"`
}

// SchemaSQL holds the physical settings of a schema.
type SchemaSQL struct {
	Namespace string `yaml:"namespace,omitempty"`
}

// ObjectType describes an object type.
type ObjectType struct {
	Name                    string          `yaml:"name"`
	Abstract                bool            `yaml:"abstract,omitempty"`
	Attributes              []*Attribute    `yaml:"attributes"`
	Constraints             []*Condition    `yaml:"constraints,omitempty"`
	Validations             []*Condition    `yaml:"validations,omitempty"`
	CodependentConstraints  []*AttributeSet `yaml:"codependent_constraints,omitempty"`
	IncompatibleConstraints []*AttributeSet `yaml:"incompatible_constraints,omitempty"`
	UniqueConstraints       []*AttributeSet `yaml:"unique_constraints,omitempty"`
	Queries                 []*Query        `yaml:"queries,omitempty"`
	SQL                     *TableSQL       `yaml:"sql,omitempty"`
}

// Attribute describes an attribute. Type is one of the kind names of
// package schema ("integer", "string", "reference", "i_enum", ...).
//
// Values holds the values of enumerations: a mapping of labels to
// ordinals for i_enum, a sequence of strings for s_enum. The mapping is
// kept as a node so the declaration order of the labels survives.
type Attribute struct {
	Name       string    `yaml:"name"`
	Type       string    `yaml:"type"`
	Length     int       `yaml:"length,omitempty"`
	Values     yaml.Node `yaml:"values,omitempty"`
	References string    `yaml:"references,omitempty"`
	Inverse    *Inverse  `yaml:"inverse,omitempty"`
	Abstract   bool      `yaml:"abstract,omitempty"`
	PrimaryKey bool      `yaml:"primary_key,omitempty"`
	Unique     bool      `yaml:"unique,omitempty"`
	Nullable   bool      `yaml:"nullable,omitempty"`
	Immutable  bool      `yaml:"immutable,omitempty"`
	Persistent *bool     `yaml:"persistent,omitempty"`
	Validate   *bool     `yaml:"validate,omitempty"`
	Column     string    `yaml:"column,omitempty"`
}

// Inverse describes the relationship a reference implies on its target.
// Type is "has_many" (the default), "has_one" or "none".
type Inverse struct {
	Type string `yaml:"type,omitempty"`
	Name string `yaml:"name,omitempty"`
}

// Condition is a named constraint or validation.
type Condition struct {
	Name string `yaml:"name"`
	SQL  string `yaml:"sql"`
}

// AttributeSet is a named set of attributes. Unique constraints are named
// after their attributes and ignore Name.
type AttributeSet struct {
	Name       string   `yaml:"name,omitempty"`
	Attributes []string `yaml:"attributes"`
}

// Query describes a query. Type is "selector" (the default) or "full".
type Query struct {
	Name      string `yaml:"name"`
	Predicate string `yaml:"predicate,omitempty"`
	Type      string `yaml:"type,omitempty"`
	Singular  bool   `yaml:"singular,omitempty"`
}

// TableSQL holds the physical settings of an object type.
type TableSQL struct {
	Table       string        `yaml:"table,omitempty"`
	Indexes     []*Index      `yaml:"indexes,omitempty"`
	ForeignKeys []*ForeignKey `yaml:"foreign_keys,omitempty"`
	Constraints []*Condition  `yaml:"constraints,omitempty"`
	Validations []*Condition  `yaml:"validations,omitempty"`
}

// Index describes an index declared on a table.
type Index struct {
	Attributes []string `yaml:"attributes"`
	Name       string   `yaml:"name,omitempty"`
	Unique     bool     `yaml:"unique,omitempty"`
	Cluster    bool     `yaml:"cluster,omitempty"`
}

// ForeignKey describes a foreign key declared on a table.
type ForeignKey struct {
	Attributes           []string `yaml:"attributes"`
	References           string   `yaml:"references"`
	ReferencedAttributes []string `yaml:"referenced_attributes"`
	Name                 string   `yaml:"name,omitempty"`
	OnDelete             string   `yaml:"on_delete,omitempty"`
	OnUpdate             string   `yaml:"on_update,omitempty"`
}
