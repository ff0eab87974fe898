package gen

import (
	"context"
	"fmt"

	"github.com/syssam/domgen"
	"github.com/syssam/domgen/schema"
)

// TemplateSet is an ordered collection of TemplateMaps in three scopes.
// Scopes run in the order set, schema, object type. Inside a scope maps run
// in the order they were added and entities in declaration order.
type TemplateSet struct {
	scopes [3][]*TemplateMap
}

// NewTemplateSet returns an empty TemplateSet.
func NewTemplateSet() *TemplateSet {
	return &TemplateSet{}
}

// Add appends maps to a scope.
func (ts *TemplateSet) Add(scope Scope, maps ...*TemplateMap) error {
	if int(scope) >= len(ts.scopes) {
		return domgen.NewConfigError(domgen.KindInvalidOption, "gen", scope.String(), "unknown template scope %d", scope)
	}
	for _, m := range maps {
		if m == nil {
			return domgen.NewConfigError(domgen.KindInvalidOption, "gen", scope.String(), "nil template map")
		}
	}
	ts.scopes[scope] = append(ts.scopes[scope], maps...)
	return nil
}

// AddTemplate is a shorthand for NewTemplateMap followed by Add.
func (ts *TemplateSet) AddTemplate(scope Scope, t Template, pathPattern, baseDir string, opts ...MapOption) error {
	m, err := NewTemplateMap(t, pathPattern, baseDir, opts...)
	if err != nil {
		return err
	}
	return ts.Add(scope, m)
}

// Maps returns the maps of a scope.
func (ts *TemplateSet) Maps(scope Scope) []*TemplateMap {
	if int(scope) >= len(ts.scopes) {
		return nil
	}
	return ts.scopes[scope]
}

// Len returns the number of maps in all scopes.
func (ts *TemplateSet) Len() int {
	n := 0
	for _, maps := range ts.scopes {
		n += len(maps)
	}
	return n
}

// Merge appends the maps of other, scope by scope.
func (ts *TemplateSet) Merge(other *TemplateSet) {
	for i := range ts.scopes {
		ts.scopes[i] = append(ts.scopes[i], other.scopes[i]...)
	}
}

// Artifact is one planned output file.
type Artifact struct {
	Scope Scope
	Map   *TemplateMap
	// Data is the scope context the artifact renders from.
	Data any
	// Path is slash separated and relative to the target root.
	Path string
	// Content is set once the artifact is rendered.
	Content []byte
}

// Plan evaluates every output path of set without rendering. Duplicate
// paths are an error.
func (ts *TemplateSet) Plan(set *schema.Set, cfg *Config) ([]*Artifact, error) {
	root := SetContext{Set: set, Params: cfg.Params, Header: cfg.Header}
	var plan []*Artifact
	seen := make(map[string]*Artifact)
	add := func(scope Scope, m *TemplateMap, data any) error {
		if m.Guard != nil && !m.Guard(data) {
			return nil
		}
		p, err := m.OutputPath(data)
		if err != nil {
			return err
		}
		if prev, ok := seen[p]; ok {
			return domgen.NewGenerationError(m.Name(), p, fmt.Sprintf("output path already produced by %q", prev.Map.Name()), nil)
		}
		a := &Artifact{Scope: scope, Map: m, Data: data, Path: p}
		seen[p] = a
		plan = append(plan, a)
		return nil
	}
	for _, m := range ts.scopes[ScopeSchemaSet] {
		if err := add(ScopeSchemaSet, m, &root); err != nil {
			return nil, err
		}
	}
	for _, m := range ts.scopes[ScopeSchema] {
		for _, s := range set.Schemas() {
			if err := add(ScopeSchema, m, &SchemaContext{SetContext: root, Schema: s}); err != nil {
				return nil, err
			}
		}
	}
	for _, m := range ts.scopes[ScopeObjectType] {
		for _, s := range set.Schemas() {
			for _, o := range s.ObjectTypes() {
				data := &ObjectTypeContext{SchemaContext: SchemaContext{SetContext: root, Schema: s}, ObjectType: o}
				if err := add(ScopeObjectType, m, data); err != nil {
					return nil, err
				}
			}
		}
	}
	return plan, nil
}

// GenerateArtifacts renders every map of ts for set and writes the results
// under target. Nothing is written unless every artifact renders.
func (ts *TemplateSet) GenerateArtifacts(ctx context.Context, set *schema.Set, target string, opts ...Option) error {
	w, err := NewTemplateWriter(ts, set, append([]Option{WithTarget(target)}, opts...)...)
	if err != nil {
		return err
	}
	return w.GenerateAll(ctx)
}
