// Package gen renders artifacts from a frozen domgen model.
//
// A generator is a set of templates, each bound to an output path pattern
// by a TemplateMap and registered in one of the three scopes of a
// TemplateSet.
//
// # Architecture
//
// The generation pipeline follows this flow:
//
//	schema.Set (frozen, SQL layer derived)
//	        ↓
//	   TemplateSet.Plan (evaluate every output path)
//	        ↓
//	   TemplateWriter.Render (parallel, in memory)
//	        ↓
//	   TemplateWriter.GenerateAll (write in plan order)
//
// A template or pattern failure aborts the run before anything is written.
//
// # Key Types
//
//   - Template: anything with Name and Execute, *template.Template included
//   - TemplateFunc: adapts a Go function, used by code-builder generators
//   - TemplateMap: a template plus its path and base directory patterns
//   - TemplateSet: ordered maps per scope
//   - SetContext, SchemaContext, ObjectTypeContext: template data
//
// # Patterns
//
// Path patterns are text/template strings evaluated against the scope
// context with Funcs installed:
//
//	ts.AddTemplate(gen.ScopeSchema, ddl, "schema.sql", "databases/{{.Schema.Name}}")
//	ts.AddTemplate(gen.ScopeObjectType, model, "{{.ObjectType.Name}}.java", "java/{{.Schema.Name | lower}}")
//
// # Configuration
//
// Configuration is done via the functional options pattern:
//
//	err := ts.GenerateArtifacts(ctx, set, "./generated",
//	    gen.WithWorkers(4),
//	    gen.WithParam("sql.dialect", "postgres"),
//	    gen.WithLogger(log),
//	)
//
// # Error Handling
//
// Pattern, render, format and filesystem failures are reported as
// *domgen.GenerationError and match domgen.ErrGenerationFailed.
package gen
