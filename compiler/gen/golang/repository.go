package golang

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/syssam/domgen/compiler/gen"
	"github.com/syssam/domgen/compiler/gen/sqlddl"
	"github.com/syssam/domgen/dialect"
	"github.com/syssam/domgen/dialect/sqlschema"
	"github.com/syssam/domgen/schema"
)

// Repository is the view rendered into <type>_queries.go.
type Repository struct {
	Header  string
	Package string
	Type    string
	// Scan lists the destinations of one row, in column order.
	Scan    []string
	Queries []Query
}

// Query is a query constant and the repository method running it.
type Query struct {
	Const    string
	Method   string
	SQL      string
	Singular bool
	Params   []Param
	// Args are the bind arguments in placeholder order.
	Args []string
}

// Param is a method parameter bound to query placeholders.
type Param struct {
	Name string
	Type string
}

// Signature returns the parameters following the context argument.
func (q Query) Signature() string {
	var b strings.Builder
	for _, p := range q.Params {
		fmt.Fprintf(&b, ", %s %s", p.Name, p.Type)
	}
	return b.String()
}

// Arguments returns the bind arguments following the query text.
func (q Query) Arguments() string {
	if len(q.Args) == 0 {
		return ""
	}
	return ", " + strings.Join(q.Args, ", ")
}

// NewRepository builds the repository view of the object type of ctx.
func NewRepository(ctx *gen.ObjectTypeContext) (*Repository, error) {
	o := ctx.ObjectType
	t := sqlschema.TableOf(o)
	if t == nil {
		return nil, fmt.Errorf("golang: object type %s has no table", o.Path())
	}
	script, err := sqlddl.NewScript(o.Schema, ctx.ParamOr(sqlddl.ParamDialect, dialect.MSSQL))
	if err != nil {
		return nil, err
	}
	r := &Repository{
		Header:  ctx.Header,
		Package: PackageName(o.Schema),
		Type:    TypeName(o),
	}
	cols := make([]string, len(t.Columns()))
	for i, c := range t.Columns() {
		cols[i] = script.Q(c.Name)
		r.Scan = append(r.Scan, "&v."+columnField(c))
	}
	from := "SELECT " + strings.Join(cols, ", ") + " FROM " + script.Table(t) + " O"
	for _, q := range o.Queries() {
		r.Queries = append(r.Queries, newQuery(script, t, from, q))
	}
	return r, nil
}

func newQuery(script *sqlddl.Script, t *sqlschema.Table, from string, q *schema.Query) Query {
	method := q.LocalName()
	gq := Query{
		Const:    TypeName(q.ObjectType) + exported(method) + "Query",
		Method:   exported(method),
		Singular: q.Singular,
	}
	for _, p := range q.Parameters() {
		gq.Params = append(gq.Params, Param{Name: identifier(p.Name), Type: valueType(p.Attribute)})
	}
	text, args := translate(script, t, q.Predicate)
	switch {
	case q.Type == schema.QueryFull:
		gq.SQL = text
	case text != "":
		gq.SQL = from + " WHERE " + text
	default:
		gq.SQL = from
	}
	for _, name := range args {
		gq.Args = append(gq.Args, identifier(name))
	}
	return gq
}

// exported exports a finder name, "findByEmail" becomes "FindByEmail".
func exported(method string) string {
	return strings.ToUpper(method[:1]) + method[1:]
}

// tokenPattern matches string literals, placeholders and identifiers of a
// predicate.
var tokenPattern = regexp.MustCompile(`'(?:[^']|'')*'|:?[A-Za-z_]\w*`)

// translate rewrites a predicate over attribute names into SQL over the
// columns of t. Placeholders become bind parameters of the script dialect.
// It returns the parameter names in bind order.
func translate(script *sqlddl.Script, t *sqlschema.Table, pred string) (string, []string) {
	var (
		args  []string
		index = make(map[string]int)
	)
	text := tokenPattern.ReplaceAllStringFunc(strings.NewReplacer("\r\n", " ", "\n", " ").Replace(pred), func(tok string) string {
		switch {
		case strings.HasPrefix(tok, "'"):
			return tok
		case strings.HasPrefix(tok, ":"):
			name := tok[1:]
			if numbered(script.Dialect) {
				n, ok := index[name]
				if !ok {
					args = append(args, name)
					n = len(args)
					index[name] = n
				}
				return placeholder(script.Dialect, n)
			}
			args = append(args, name)
			return placeholder(script.Dialect, len(args))
		}
		if c, ok := t.Column(tok); ok {
			return script.Q(c.Name)
		}
		return tok
	})
	return text, args
}
