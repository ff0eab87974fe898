// Package schema is the logical metamodel of domgen: sets of schemas made of
// object types with typed attributes, queries and constraints.
//
// Models are declared with scoped builder callbacks. Each scope validates
// and finalizes its element when the callback returns, after which the
// element is read-only:
//
//	set, err := schema.NewSet(func(set *schema.Set) {
//	    set.Schema("Sales", func(s *schema.Schema) {
//	        s.ObjectType("Customer", func(o *schema.ObjectType) {
//	            o.Integer("id").PrimaryKey()
//	            o.String("email", 255).Unique()
//	            o.UniqueConstraint("email")
//	            o.Query("Email", "O.email = :email").Singular()
//	        })
//	        s.ObjectType("Order", func(o *schema.ObjectType) {
//	            o.Integer("id").PrimaryKey()
//	            o.Reference("customer", "Customer", schema.HasMany("orders"))
//	            o.IEnum("status",
//	                schema.EnumValue{Label: "open", Ordinal: 1},
//	                schema.EnumValue{Label: "shipped", Ordinal: 2},
//	            )
//	        })
//	    })
//	}, schema.WithFacet(sqlschema.Facet{}))
//
// # Attribute Types
//
// Attribute types form a closed set of variants implementing Type:
//
//	o.Boolean("active")            // BooleanType
//	o.Text("notes")                // TextType
//	o.String("name", 100)          // StringType{Length: 100}
//	o.Integer("count")             // IntegerType
//	o.Reference("owner", "User")   // ReferenceType{Target: "User"}
//	o.IEnum("level", values...)    // IEnumType, ordered label/ordinal pairs
//	o.SEnum("color", "red", "blue") // SEnumType
//
// References name an object type of the same schema, the type being
// declared, or a previously declared schema's type as "Schema.Type".
//
// # Errors
//
// Duplicate names, invalid names and unresolvable references fail fast:
// the first error of a scope is kept, later declarations of that scope are
// ignored and NewSet returns the error as a *domgen.ConfigError.
//
// # Facets
//
// A Facet derives technology specific data while the model is finalized.
// The SQL layer in dialect/sqlschema is one; it stores its tables and
// columns on the model elements with SetFacet.
package schema
