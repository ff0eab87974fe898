// Package jpa generates a JPA model: one entity class with its named
// queries and one stateless DAO per object type, and a persistence.xml
// declaring one persistence unit per schema.
//
//	java/<package>/<schema>/<Type>.java
//	java/<package>/<schema>/<Type>DAO.java
//	resources/META-INF/persistence.xml
//
// The base package is read from the "java.package" parameter and defaults
// to "model". Persistence units and their data sources are named after the
// "app.name" parameter.
package jpa

import (
	"embed"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/template"

	"github.com/syssam/domgen/compiler/gen"
	"github.com/syssam/domgen/dialect/sqlschema"
	"github.com/syssam/domgen/naming"
	"github.com/syssam/domgen/schema"
)

// Generator parameters.
const (
	ParamPackage = "java.package"
	ParamApp     = "app.name"

	DefaultPackage = "model"
	DefaultApp     = "domgen"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(gen.ParseFS(templateFS, "templates/*.tmpl"))

const packageDir = `java/{{replace (.ParamOr "java.package" "model") "." "/"}}/{{.Schema.Name | sanitize | lower}}`

// Register adds the entity, DAO and persistence.xml templates to ts.
func Register(ts *gen.TemplateSet) error {
	for _, m := range []struct{ tmpl, name, path string }{
		{"entity.tmpl", "jpa/entity", "{{.ObjectType.Name | pascal}}.java"},
		{"dao.tmpl", "jpa/dao", "{{.ObjectType.Name | pascal}}DAO.java"},
	} {
		tmpl, err := gen.Lookup(templates, m.tmpl)
		if err != nil {
			return err
		}
		if err := ts.AddTemplate(gen.ScopeObjectType, entityTemplate(m.name, tmpl), m.path, packageDir); err != nil {
			return err
		}
	}
	tmpl, err := gen.Lookup(templates, "persistence.tmpl")
	if err != nil {
		return err
	}
	return ts.AddTemplate(gen.ScopeSchemaSet, persistenceTemplate(tmpl), "persistence.xml", "resources/META-INF")
}

func entityTemplate(name string, tmpl *template.Template) gen.Template {
	return gen.NewTemplateFunc(name, func(w io.Writer, data any) error {
		ctx, ok := data.(*gen.ObjectTypeContext)
		if !ok {
			return fmt.Errorf("jpa: unexpected template data %T", data)
		}
		e, err := NewEntity(ctx)
		if err != nil {
			return err
		}
		return tmpl.Execute(w, e)
	})
}

func persistenceTemplate(tmpl *template.Template) gen.Template {
	return gen.NewTemplateFunc("jpa/persistence", func(w io.Writer, data any) error {
		ctx, ok := data.(*gen.SetContext)
		if !ok {
			return fmt.Errorf("jpa: unexpected template data %T", data)
		}
		return tmpl.Execute(w, NewPersistence(ctx))
	})
}

// Package returns the Java package of the classes of s.
func Package(base string, s *schema.Schema) string {
	return base + "." + strings.ToLower(naming.Sanitize(s.Name))
}

// ClassName returns the simple class name of o.
func ClassName(o *schema.ObjectType) string { return naming.Pascal(o.Name) }

// UnitName returns the persistence unit of schema s in application app.
func UnitName(app string, s *schema.Schema) string {
	return naming.Pascal(app) + naming.Pascal(naming.Sanitize(s.Name))
}

// DataSource returns the JNDI name of the data source of schema s.
func DataSource(app string, s *schema.Schema) string {
	return "jdbc/" + UnitName(app, s)
}

// Entity is the view of an object type rendered by the entity and DAO
// templates.
type Entity struct {
	Header     string
	Package    string
	Name       string
	EntityName string
	Unit       string
	Abstract   bool
	TableName  string
	Namespace  string
	PrimaryKey string

	UniqueConstraints []UniqueConstraint
	Enums             []Enum
	Fields            []Field
	Relations         []Relation
	Queries           []NamedQuery
}

// UniqueConstraint is a @UniqueConstraint of the @Table annotation.
type UniqueConstraint struct {
	Name    string
	Columns string
}

// Enum is a nested Java enum backing an enumeration attribute.
type Enum struct {
	Name      string
	ValueType string
	Values    []EnumConstant
}

// EnumConstant is one constant of an Enum. Sep terminates its line.
type EnumConstant struct {
	Name  string
	Value string
	Sep   string
}

// Field is a mapped attribute.
type Field struct {
	Name        string
	Accessor    string
	Type        string
	StorageType string
	Annotations []string
	Getter      string
	Setter      string
	Settable    bool
}

// Relation is the inverse side of a reference from another object type.
type Relation struct {
	Annotation string
	Type       string
	Name       string
	Accessor   string
}

// NamedQuery is a @NamedQuery and the DAO method running it.
type NamedQuery struct {
	Name     string
	Constant string
	Text     string
	Method   string
	Singular bool
	Params   []QueryParam
}

// QueryParam binds a query placeholder in a DAO method.
type QueryParam struct {
	Name  string
	Type  string
	Value string
}

// Signature returns the DAO method parameter list.
func (q NamedQuery) Signature() string {
	ps := make([]string, len(q.Params))
	for i, p := range q.Params {
		ps[i] = "final " + p.Type + " " + p.Name
	}
	if len(ps) == 0 {
		return ""
	}
	return " " + strings.Join(ps, ", ") + " "
}

// NewEntity builds the entity view of the object type of ctx.
func NewEntity(ctx *gen.ObjectTypeContext) (*Entity, error) {
	o := ctx.ObjectType
	t := sqlschema.TableOf(o)
	if t == nil {
		return nil, fmt.Errorf("jpa: object type %s has no table", o.Path())
	}
	base := ctx.ParamOr(ParamPackage, DefaultPackage)
	b := &builder{base: base, pkg: Package(base, o.Schema)}
	e := &Entity{
		Header:     ctx.Header,
		Package:    b.pkg,
		Name:       ClassName(o),
		EntityName: o.Name,
		Unit:       UnitName(ctx.ParamOr(ParamApp, DefaultApp), o.Schema),
		Abstract:   !o.Final(),
		TableName:  t.Name(),
		Namespace:  t.Namespace(),
		PrimaryKey: naming.Camel(o.PrimaryKey().Name),
	}
	for _, i := range t.Indexes() {
		if !i.Unique {
			continue
		}
		cols := make([]string, len(i.Columns()))
		for j, c := range i.Columns() {
			cols[j] = strconv.Quote(c)
		}
		e.UniqueConstraints = append(e.UniqueConstraints, UniqueConstraint{Name: i.Name, Columns: strings.Join(cols, ", ")})
	}
	for _, a := range o.Attributes() {
		if en, ok := enumOf(a); ok {
			e.Enums = append(e.Enums, en)
		}
		e.Fields = append(e.Fields, b.field(t, a))
	}
	for _, a := range o.ReferencingAttributes() {
		if r, ok := b.relation(a); ok {
			e.Relations = append(e.Relations, r)
		}
	}
	for _, q := range o.Queries() {
		e.Queries = append(e.Queries, b.query(e.Name, q))
	}
	return e, nil
}

type builder struct {
	base, pkg string
}

// className returns the class name of o, qualified when it lives in
// another package.
func (b *builder) className(o *schema.ObjectType) string {
	if pkg := Package(b.base, o.Schema); pkg != b.pkg {
		return pkg + "." + ClassName(o)
	}
	return ClassName(o)
}

// javaType returns the type of the attribute as exposed by accessors and
// the type of its backing field.
func (b *builder) javaType(a *schema.Attribute) (exposed, storage string) {
	switch a.Kind() {
	case schema.KindBoolean:
		return boxed("boolean", a.Nullable), boxed("boolean", a.Nullable)
	case schema.KindInteger:
		return boxed("int", a.Nullable), boxed("int", a.Nullable)
	case schema.KindReference:
		name := b.className(a.ReferencedObject())
		return name, name
	case schema.KindIEnum:
		return naming.Pascal(a.Name), boxed("int", a.Nullable)
	case schema.KindSEnum:
		return naming.Pascal(a.Name), "String"
	}
	return "String", "String"
}

func boxed(t string, nullable bool) string {
	if !nullable {
		return t
	}
	switch t {
	case "int":
		return "Integer"
	case "boolean":
		return "Boolean"
	}
	return t
}

func (b *builder) field(t *sqlschema.Table, a *schema.Attribute) Field {
	exposed, storage := b.javaType(a)
	f := Field{
		Name:        naming.Camel(a.Name),
		Accessor:    naming.Pascal(a.Name),
		Type:        exposed,
		StorageType: storage,
		Settable:    !a.Immutable,
	}
	f.Getter, f.Setter = f.Name, "value"
	if a.Kind() == schema.KindIEnum || a.Kind() == schema.KindSEnum {
		f.Getter = exposed + ".fromValue( " + f.Name + " )"
		f.Setter = "value.getValue()"
		if a.Nullable {
			f.Getter = "null == " + f.Name + " ? null : " + f.Getter
			f.Setter = "null == value ? null : " + f.Setter
		}
	}
	if a.PrimaryKey {
		f.Annotations = append(f.Annotations, "@Id")
	}
	col, ok := t.Column(a.Name)
	if !a.Persistent || !ok {
		f.Annotations = append(f.Annotations, "@Transient")
		return f
	}
	updatable := strconv.FormatBool(!a.Immutable)
	nullable := strconv.FormatBool(col.Nullable)
	if a.IsReference() {
		rel := "@ManyToOne"
		if a.Reference().Inverse.Kind == schema.InverseHasOne {
			rel = "@OneToOne"
		}
		f.Annotations = append(f.Annotations,
			rel+"( optional = "+nullable+", fetch = FetchType.LAZY )",
			fmt.Sprintf("@JoinColumn( name = %q, nullable = %s, updatable = %s )", col.Name, nullable, updatable))
		return f
	}
	column := fmt.Sprintf("@Column( name = %q, nullable = %s, updatable = %s", col.Name, nullable, updatable)
	if col.Length > 0 {
		column += ", length = " + strconv.Itoa(col.Length)
	}
	f.Annotations = append(f.Annotations, column+" )")
	return f
}

// relation returns the inverse side of the reference a, if it has one.
func (b *builder) relation(a *schema.Attribute) (Relation, bool) {
	ref := a.Reference()
	if ref == nil || ref.Inverse.Kind == schema.InverseNone || !a.Persistent {
		return Relation{}, false
	}
	src := b.className(a.ObjectType)
	mapped := fmt.Sprintf("( mappedBy = %q )", naming.Camel(a.Name))
	name := a.InverseName()
	if ref.Inverse.Kind == schema.InverseHasOne {
		return Relation{
			Annotation: "@OneToOne" + mapped,
			Type:       src,
			Name:       naming.Camel(name),
			Accessor:   naming.Pascal(name),
		}, true
	}
	plural := naming.Pluralize(name)
	return Relation{
		Annotation: "@OneToMany" + mapped,
		Type:       "List<" + src + ">",
		Name:       naming.Camel(plural),
		Accessor:   naming.Pascal(plural),
	}, true
}

var javaString = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func (b *builder) query(class string, q *schema.Query) NamedQuery {
	method := q.LocalName()
	nq := NamedQuery{
		Name:     class + "." + method,
		Constant: naming.Constant(method),
		Text:     javaString.Replace(q.QueryString()),
		Method:   method,
		Singular: q.Singular,
	}
	for _, p := range q.Parameters() {
		exposed, _ := b.javaType(p.Attribute)
		qp := QueryParam{Name: naming.Camel(p.Name), Type: exposed}
		qp.Value = qp.Name
		if k := p.Attribute.Kind(); k == schema.KindIEnum || k == schema.KindSEnum {
			qp.Value += ".getValue()"
		}
		nq.Params = append(nq.Params, qp)
	}
	return nq
}

// enumOf returns the nested enum of an enumeration attribute.
func enumOf(a *schema.Attribute) (Enum, bool) {
	var (
		en     = Enum{Name: naming.Pascal(a.Name)}
		consts []EnumConstant
	)
	switch a.Kind() {
	case schema.KindIEnum:
		en.ValueType = "int"
		for _, v := range a.IEnum().Values {
			consts = append(consts, EnumConstant{Name: naming.Constant(v.Label), Value: strconv.Itoa(v.Ordinal)})
		}
	case schema.KindSEnum:
		en.ValueType = "String"
		for _, v := range a.SEnum().Values {
			consts = append(consts, EnumConstant{Name: naming.Constant(v), Value: strconv.Quote(v)})
		}
	default:
		return en, false
	}
	for i := range consts {
		consts[i].Sep = ","
	}
	consts[len(consts)-1].Sep = ";"
	en.Values = consts
	return en, true
}

// Persistence is the view rendered into persistence.xml.
type Persistence struct {
	Header string
	Units  []Unit
}

// Unit is a persistence unit listing the entity classes of one schema.
type Unit struct {
	Name       string
	DataSource string
	Classes    []string
}

// NewPersistence builds the persistence units of the set of ctx.
func NewPersistence(ctx *gen.SetContext) *Persistence {
	base := ctx.ParamOr(ParamPackage, DefaultPackage)
	app := ctx.ParamOr(ParamApp, DefaultApp)
	p := &Persistence{Header: ctx.Header}
	for _, s := range ctx.Set.Schemas() {
		u := Unit{Name: UnitName(app, s), DataSource: DataSource(app, s)}
		for _, o := range s.ObjectTypes() {
			u.Classes = append(u.Classes, Package(base, s)+"."+ClassName(o))
		}
		p.Units = append(p.Units, u)
	}
	return p
}
