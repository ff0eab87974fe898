package gen

import (
	"fmt"
	"io"
	"io/fs"
	"strings"
	"text/template"

	"golang.org/x/tools/imports"

	"github.com/syssam/domgen/dialect/sqlschema"
	"github.com/syssam/domgen/naming"
)

// Template renders one artifact from a scope context. *template.Template
// satisfies it.
type Template interface {
	Name() string
	Execute(w io.Writer, data any) error
}

// TemplateFunc adapts a Go function to the Template interface. Generators
// that build their output with a code builder instead of text templates use
// it.
type TemplateFunc struct {
	name string
	fn   func(w io.Writer, data any) error
}

// NewTemplateFunc returns a Template named name that renders with fn.
func NewTemplateFunc(name string, fn func(w io.Writer, data any) error) *TemplateFunc {
	return &TemplateFunc{name: name, fn: fn}
}

// Name returns the template name.
func (t *TemplateFunc) Name() string { return t.name }

// Execute renders data to w.
func (t *TemplateFunc) Execute(w io.Writer, data any) error { return t.fn(w, data) }

// Funcs are the functions available to text templates and path patterns.
var Funcs = template.FuncMap{
	"pascal":    naming.Pascal,
	"camel":     naming.Camel,
	"snake":     naming.Snake,
	"constant":  naming.Constant,
	"plural":    naming.Pluralize,
	"singular":  naming.Singularize,
	"humanize":  naming.Humanize,
	"sanitize":  naming.Sanitize,
	"quote":     naming.Quote,
	"qualified": naming.QuoteQualified,
	"literal":   naming.Literal,
	"join":      strings.Join,
	"lower":     strings.ToLower,
	"upper":     strings.ToUpper,
	"replace":   strings.ReplaceAll,
	"hasPrefix": strings.HasPrefix,
	"table":     sqlschema.TableOf,
	"column":    sqlschema.ColumnOf,
	"sqlschema": sqlschema.SchemaOf,
	"add":       func(a, b int) int { return a + b },
	"last":      func(i, n int) bool { return i == n-1 },
}

// Parse parses text as a template named name with Funcs installed.
func Parse(name, text string) (*template.Template, error) {
	return template.New(name).Funcs(Funcs).Parse(text)
}

// MustParse is like Parse but panics on error. It is meant for templates
// embedded in generators.
func MustParse(name, text string) *template.Template {
	return template.Must(Parse(name, text))
}

// ParseFS parses the templates matched by patterns in fsys with Funcs
// installed. Templates are looked up by file name.
func ParseFS(fsys fs.FS, patterns ...string) (*template.Template, error) {
	return template.New("").Funcs(Funcs).ParseFS(fsys, patterns...)
}

// Lookup returns the named template of t.
func Lookup(t *template.Template, name string) (*template.Template, error) {
	if l := t.Lookup(name); l != nil {
		return l, nil
	}
	return nil, fmt.Errorf("gen: template %q not defined", name)
}

// Formatter post-processes a rendered artifact. path is the output path the
// artifact will be written to.
type Formatter func(path string, src []byte) ([]byte, error)

// GoFormatter formats Go source and fixes its imports.
func GoFormatter(path string, src []byte) ([]byte, error) {
	return imports.Process(path, src, nil)
}
