package schema

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/syssam/domgen"
	"github.com/syssam/domgen/naming"
)

// QueryType selects how a query predicate becomes query text.
type QueryType uint8

// Query types. Selector is the default.
const (
	QuerySelector QueryType = iota
	QueryFull
)

// String returns the query type name.
func (t QueryType) String() string {
	switch t {
	case QuerySelector:
		return "selector"
	case QueryFull:
		return "full"
	}
	return fmt.Sprintf("QueryType(%d)", t)
}

// ParseQueryType returns the query type with the given name.
func ParseQueryType(name string) (QueryType, bool) {
	switch name {
	case "selector", "":
		return QuerySelector, true
	case "full":
		return QueryFull, true
	}
	return 0, false
}

// Parameter is a named placeholder of a query predicate bound to the
// attribute of the same name.
type Parameter struct {
	Name      string
	Attribute *Attribute
}

// Query is a named finder of an object type.
type Query struct {
	ObjectType *ObjectType
	Name       string
	Predicate  string
	Type       QueryType
	Singular   bool
	// Implicit is set on the find-all and find-by-primary-key queries
	// every object type receives.
	Implicit bool

	params []*Parameter
}

// Parameters returns the resolved parameters in first-seen order.
func (q *Query) Parameters() []*Parameter { return q.params }

// FullName returns the generated finder name, for example "findAllUsers"
// or "findUserByEmail".
func (q *Query) FullName() string {
	var b strings.Builder
	b.WriteString("find")
	name := naming.Pascal(q.ObjectType.Name)
	if q.Singular {
		b.WriteString(name)
	} else {
		b.WriteString("All")
		b.WriteString(naming.Pluralize(name))
	}
	q.writeSuffix(&b)
	return b.String()
}

// LocalName returns the finder name without the object type, for example
// "findAll" or "findByEmail".
func (q *Query) LocalName() string {
	var b strings.Builder
	b.WriteString("find")
	if !q.Singular {
		b.WriteString("All")
	}
	q.writeSuffix(&b)
	return b.String()
}

func (q *Query) writeSuffix(b *strings.Builder) {
	if q.Predicate != "" {
		b.WriteString("By")
		b.WriteString(naming.Pascal(q.Name))
	}
}

// QueryString returns the query text. Newlines are folded into spaces.
func (q *Query) QueryString() string {
	var s string
	switch q.Type {
	case QueryFull:
		s = q.Predicate
	default:
		s = "SELECT O FROM " + q.ObjectType.Name + " O"
		if q.Predicate != "" {
			s += " WHERE " + q.Predicate
		}
	}
	return strings.NewReplacer("\r\n", " ", "\n", " ").Replace(s)
}

// parameterPattern matches ":name" placeholders.
var parameterPattern = regexp.MustCompile(`:(\w+)`)

// resolveParameters binds every placeholder of the predicate to an
// attribute of the owning object type.
func (q *Query) resolveParameters() error {
	q.params = q.params[:0]
	seen := make(map[string]bool)
	for _, m := range parameterPattern.FindAllStringSubmatch(q.Predicate, -1) {
		name := m[1]
		if seen[name] {
			continue
		}
		seen[name] = true
		a, ok := q.ObjectType.attributes.lookup(name)
		if !ok {
			return domgen.NewConfigError(domgen.KindUnresolved, q.ObjectType.Path(), name,
				"query %q: parameter %q does not match an attribute", q.Name, name)
		}
		q.params = append(q.params, &Parameter{Name: name, Attribute: a})
	}
	return nil
}

// QueryBuilder mutates a query while its object type is being declared.
type QueryBuilder struct {
	query *Query
}

func (b *QueryBuilder) mutate(f func(*Query)) *QueryBuilder {
	if o := b.query.ObjectType; o.frozen {
		panic(domgen.NewConfigError(domgen.KindFrozen, o.Path(), b.query.Name,
			"query %q modified after object type was finalized", b.query.Name))
	}
	f(b.query)
	return b
}

// Singular marks the query as returning at most one instance.
func (b *QueryBuilder) Singular() *QueryBuilder {
	return b.mutate(func(q *Query) { q.Singular = true })
}

// Full makes the predicate the complete query text.
func (b *QueryBuilder) Full() *QueryBuilder {
	return b.Type(QueryFull)
}

// Type sets the query type. Unknown types fail the object type.
func (b *QueryBuilder) Type(t QueryType) *QueryBuilder {
	return b.mutate(func(q *Query) {
		if t != QuerySelector && t != QueryFull {
			q.ObjectType.Fail(domgen.NewConfigError(domgen.KindUnknownQueryType, q.ObjectType.Path(), q.Name,
				"query %q has unknown query type %s", q.Name, t))
			return
		}
		q.Type = t
	})
}

// Query returns the query being built.
func (b *QueryBuilder) Query() *Query { return b.query }

// Query declares a query with an optional predicate. Placeholders of the
// form ":attribute" are resolved when the object type is finalized.
func (o *ObjectType) Query(name, predicate string) *QueryBuilder {
	q := &Query{ObjectType: o, Name: name, Predicate: predicate}
	b := &QueryBuilder{query: q}
	if o.skip() {
		return b
	}
	switch {
	case !validName.MatchString(name):
		o.Fail(domgen.NewConfigError(domgen.KindInvalidName, o.Path(), name, "invalid query name %q", name))
	case !o.queries.add(name, q):
		o.Fail(domgen.DuplicateError(o.Path(), "query", name))
	}
	return b
}
