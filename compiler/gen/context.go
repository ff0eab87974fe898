package gen

import (
	"github.com/syssam/domgen/dialect/sqlschema"
	"github.com/syssam/domgen/schema"
)

// Scope selects which entities a TemplateMap is applied to.
type Scope uint8

const (
	// ScopeSchemaSet renders once per set.
	ScopeSchemaSet Scope = iota
	// ScopeSchema renders once per schema.
	ScopeSchema
	// ScopeObjectType renders once per object type.
	ScopeObjectType
)

var scopeNames = [...]string{"schema set", "schema", "object type"}

func (s Scope) String() string {
	if int(s) < len(scopeNames) {
		return scopeNames[s]
	}
	return "invalid scope"
}

// Params are string parameters read by generators.
type Params map[string]string

// Get returns the value of key or def when it is unset or empty.
func (p Params) Get(key, def string) string {
	if v := p[key]; v != "" {
		return v
	}
	return def
}

// SetContext is the data of per-set templates and patterns.
type SetContext struct {
	Set    *schema.Set
	Params Params
	// Header is the configured source file header.
	Header string
}

// Param returns a generator parameter, empty when unset.
func (c *SetContext) Param(key string) string { return c.Params[key] }

// ParamOr returns a generator parameter or def when it is unset.
func (c *SetContext) ParamOr(key, def string) string { return c.Params.Get(key, def) }

// SchemaContext is the data of per-schema templates and patterns.
type SchemaContext struct {
	SetContext
	Schema *schema.Schema
}

// SQLSchema returns the SQL layer of the schema.
func (c *SchemaContext) SQLSchema() *sqlschema.Schema { return sqlschema.SchemaOf(c.Schema) }

// ObjectTypeContext is the data of per-object-type templates and patterns.
type ObjectTypeContext struct {
	SchemaContext
	ObjectType *schema.ObjectType
}

// Table returns the table of the object type.
func (c *ObjectTypeContext) Table() *sqlschema.Table { return sqlschema.TableOf(c.ObjectType) }
