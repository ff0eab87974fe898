package gen

import (
	"bytes"
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/syssam/domgen"
)

// TemplateMap binds a Template to the output path it renders to. Both the
// path and the base directory are text/template patterns evaluated against
// the scope context, for example:
//
//	gen.NewTemplateMap(ddl, "schema.sql", "databases/{{.Schema.Name}}")
type TemplateMap struct {
	Template    Template
	PathPattern string
	BaseDir     string
	// Format, when set, post-processes the rendered bytes.
	Format Formatter
	// Guard, when set, skips entities it returns false for.
	Guard func(data any) bool

	path, base *template.Template
}

// MapOption configures a TemplateMap.
type MapOption func(*TemplateMap)

// WithFormatter post-processes rendered artifacts with f.
func WithFormatter(f Formatter) MapOption {
	return func(m *TemplateMap) { m.Format = f }
}

// WithGuard renders the map only for entities guard accepts.
func WithGuard(guard func(data any) bool) MapOption {
	return func(m *TemplateMap) { m.Guard = guard }
}

// NewTemplateMap compiles the path patterns of a new TemplateMap.
func NewTemplateMap(t Template, pathPattern, baseDir string, opts ...MapOption) (*TemplateMap, error) {
	if t == nil {
		return nil, domgen.NewGenerationError("", pathPattern, "template map has no template", nil)
	}
	if pathPattern == "" {
		return nil, domgen.NewGenerationError(t.Name(), "", "template map has no path pattern", nil)
	}
	m := &TemplateMap{Template: t, PathPattern: pathPattern, BaseDir: baseDir}
	var err error
	if m.path, err = Parse("path", pathPattern); err != nil {
		return nil, domgen.NewGenerationError(t.Name(), pathPattern, "parse path pattern", err)
	}
	if m.base, err = Parse("basedir", baseDir); err != nil {
		return nil, domgen.NewGenerationError(t.Name(), baseDir, "parse base directory pattern", err)
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// MustNewTemplateMap is like NewTemplateMap but panics on error.
func MustNewTemplateMap(t Template, pathPattern, baseDir string, opts ...MapOption) *TemplateMap {
	m, err := NewTemplateMap(t, pathPattern, baseDir, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

// Name returns the template name.
func (m *TemplateMap) Name() string { return m.Template.Name() }

// OutputPath evaluates the patterns against data and returns the slash
// separated path relative to the target root. Paths escaping the root are
// rejected.
func (m *TemplateMap) OutputPath(data any) (string, error) {
	var file, dir strings.Builder
	if err := m.base.Execute(&dir, data); err != nil {
		return "", domgen.NewGenerationError(m.Name(), m.BaseDir, "evaluate base directory", err)
	}
	if err := m.path.Execute(&file, data); err != nil {
		return "", domgen.NewGenerationError(m.Name(), m.PathPattern, "evaluate path", err)
	}
	if file.Len() == 0 {
		return "", domgen.NewGenerationError(m.Name(), m.PathPattern, "path evaluates to an empty string", nil)
	}
	p := path.Clean(path.Join(filepath.ToSlash(dir.String()), filepath.ToSlash(file.String())))
	if path.IsAbs(p) || p == ".." || strings.HasPrefix(p, "../") {
		return "", domgen.NewGenerationError(m.Name(), p, "path leaves the target directory", nil)
	}
	return p, nil
}

// Render executes the template and applies the formatter. target is only
// used to give the formatter the final file path.
func (m *TemplateMap) Render(target, rel string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := m.Template.Execute(&buf, data); err != nil {
		return nil, domgen.NewGenerationError(m.Name(), rel, "execute template", err)
	}
	if m.Format == nil {
		return buf.Bytes(), nil
	}
	out, err := m.Format(filepath.Join(target, filepath.FromSlash(rel)), buf.Bytes())
	if err != nil {
		return nil, &formatError{
			GenerationError: domgen.NewGenerationError(m.Name(), rel, "format", err),
			src:             buf.Bytes(),
		}
	}
	return out, nil
}

// Generate renders data and writes it under target.
func (m *TemplateMap) Generate(ctx context.Context, target string, data any) error {
	rel, err := m.OutputPath(data)
	if err != nil {
		return err
	}
	b, err := m.Render(target, rel, data)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return writeFile(target, rel, m.Name(), b)
}

// formatError keeps the unformatted output for debugging.
type formatError struct {
	*domgen.GenerationError
	src []byte
}

func (e *formatError) Unwrap() error { return e.GenerationError }

func writeFile(target, rel, name string, b []byte) error {
	full := filepath.Join(target, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return domgen.NewGenerationError(name, rel, "create directory", err)
	}
	if err := os.WriteFile(full, b, 0o644); err != nil {
		return domgen.NewGenerationError(name, rel, "write file", err)
	}
	return nil
}
