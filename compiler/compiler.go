// Package compiler ties the model, the SQL derivation and the generators
// together.
//
//	set, err := compiler.Build(func(set *schema.Set) { ... })
//	if err != nil {
//		return err
//	}
//	err = compiler.Generate(ctx, set, &compiler.Config{
//		Elements: []string{"sql", "go"},
//		Options:  []gen.Option{gen.WithTarget("out")},
//	})
package compiler

import (
	"context"
	"maps"
	"slices"

	"github.com/syssam/domgen"
	"github.com/syssam/domgen/compiler/gen"
	"github.com/syssam/domgen/compiler/gen/atlasddl"
	"github.com/syssam/domgen/compiler/gen/golang"
	"github.com/syssam/domgen/compiler/gen/graphql"
	"github.com/syssam/domgen/compiler/gen/jpa"
	"github.com/syssam/domgen/compiler/gen/resource"
	"github.com/syssam/domgen/compiler/gen/snapshot"
	"github.com/syssam/domgen/compiler/gen/sqlddl"
	"github.com/syssam/domgen/dialect/sqlschema"
	"github.com/syssam/domgen/schema"
)

// elements maps element names onto the generators registering them.
var elements = map[string]func(*gen.TemplateSet) error{
	"sql":      sqlddl.Register,
	"atlas":    atlasddl.Register,
	"jpa":      jpa.Register,
	"go":       golang.Register,
	"graphql":  graphql.Register,
	"resource": resource.Register,
	"snapshot": snapshot.Register,
}

// DefaultElements are generated when no element is named.
var DefaultElements = []string{"sql", "jpa", "go"}

// Elements returns the known element names, sorted.
func Elements() []string {
	return slices.Sorted(maps.Keys(elements))
}

// Build declares a set with the SQL facet installed ahead of opts.
func Build(build func(*schema.Set), opts ...schema.Option) (*schema.Set, error) {
	return schema.NewSet(build, append([]schema.Option{schema.WithFacet(sqlschema.Facet{})}, opts...)...)
}

// TemplateSet returns the template set of the named elements, in the order
// given. No names select DefaultElements.
func TemplateSet(names ...string) (*gen.TemplateSet, error) {
	if len(names) == 0 {
		names = DefaultElements
	}
	ts := gen.NewTemplateSet()
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		register, ok := elements[name]
		switch {
		case !ok:
			return nil, domgen.NewConfigError(domgen.KindInvalidOption, "compiler", name, "unknown element %q, expected one of %v", name, Elements())
		case seen[name]:
			return nil, domgen.DuplicateError("compiler", "element", name)
		}
		seen[name] = true
		if err := register(ts); err != nil {
			return nil, err
		}
	}
	return ts, nil
}

// Config selects what Generate produces.
type Config struct {
	// Elements are the generators to run, DefaultElements when empty.
	Elements []string
	// Options configure the writer; gen.WithTarget is required unless
	// gen.WithDryRun is given.
	Options []gen.Option
}

// Generate renders the elements of cfg for set and writes them.
func Generate(ctx context.Context, set *schema.Set, cfg *Config) error {
	_, err := GenerateWithMetrics(ctx, set, cfg)
	return err
}

// GenerateWithMetrics is like Generate and also returns the metrics of the
// run.
func GenerateWithMetrics(ctx context.Context, set *schema.Set, cfg *Config) (*gen.WriterMetrics, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	ts, err := TemplateSet(cfg.Elements...)
	if err != nil {
		return nil, err
	}
	w, err := gen.NewTemplateWriter(ts, set, cfg.Options...)
	if err != nil {
		return nil, err
	}
	if err := w.GenerateAll(ctx); err != nil {
		return nil, err
	}
	return w.Metrics(), nil
}
