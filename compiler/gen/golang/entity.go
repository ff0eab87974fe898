package golang

import (
	"fmt"
	"io"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/domgen/compiler/gen"
	"github.com/syssam/domgen/dialect/sqlschema"
	"github.com/syssam/domgen/schema"
)

func renderEntity(w io.Writer, data any) error {
	ctx, ok := data.(*gen.ObjectTypeContext)
	if !ok {
		return fmt.Errorf("golang: unexpected template data %T", data)
	}
	f, err := Entity(ctx)
	if err != nil {
		return err
	}
	return f.Render(w)
}

// Entity returns the file declaring the entity struct of the object type
// of ctx, its table and column names and its enumerations.
func Entity(ctx *gen.ObjectTypeContext) (*jen.File, error) {
	o := ctx.ObjectType
	t := sqlschema.TableOf(o)
	if t == nil {
		return nil, fmt.Errorf("golang: object type %s has no table", o.Path())
	}
	prefix := ctx.ParamOr(ParamPackage, DefaultPackage)
	f := jen.NewFilePathName(ImportPath(prefix, o.Schema), PackageName(o.Schema))
	f.HeaderComment(ctx.Header)

	name := TypeName(o)
	genNames(f, name, t)
	for _, a := range o.Attributes() {
		genEnum(f, a)
	}
	genStruct(f, prefix, name, o, t)
	return f, nil
}

// genNames declares the table and column name constants.
func genNames(f *jen.File, name string, t *sqlschema.Table) {
	f.Commentf("Table and column names of %s.", name)
	f.Const().DefsFunc(func(group *jen.Group) {
		group.Id(name + "Table").Op("=").Lit(t.Name())
		group.Id(name + "Namespace").Op("=").Lit(t.Namespace())
		for _, c := range t.Columns() {
			group.Id(name + "Column" + columnField(c)).Op("=").Lit(c.Name)
		}
	})
	f.Line()
}

// columnField returns the struct field a column is scanned into.
func columnField(c *sqlschema.Column) string {
	if c.Attribute.IsReference() {
		return FieldName(c.Attribute) + "ID"
	}
	return FieldName(c.Attribute)
}

// genEnum declares the named type, the values and a Valid method of an
// enumeration attribute.
func genEnum(f *jen.File, a *schema.Attribute) {
	var (
		base   jen.Code
		values []jen.Code
		names  []jen.Code
		typ    = EnumName(a)
	)
	switch a.Kind() {
	case schema.KindIEnum:
		base = jen.Int()
		for _, v := range a.IEnum().Values {
			c := EnumConstant(a, v.Label)
			values = append(values, jen.Id(c).Id(typ).Op("=").Lit(v.Ordinal))
			names = append(names, jen.Id(c))
		}
	case schema.KindSEnum:
		base = jen.String()
		for _, v := range a.SEnum().Values {
			c := EnumConstant(a, v)
			values = append(values, jen.Id(c).Id(typ).Op("=").Lit(v))
			names = append(names, jen.Id(c))
		}
	default:
		return
	}
	f.Commentf("%s enumerates the values of %s.", typ, a.Path())
	f.Type().Id(typ).Add(base)
	f.Line()
	f.Commentf("%s values.", typ)
	f.Const().Defs(values...)
	f.Line()
	f.Commentf("Valid reports whether v is a declared %s.", typ)
	f.Func().Params(jen.Id("v").Id(typ)).Id("Valid").Params().Bool().Block(
		jen.Switch(jen.Id("v")).Block(
			jen.Case(names...).Block(jen.Return(jen.True())),
		),
		jen.Return(jen.False()),
	)
	f.Line()
}

// genStruct declares the entity struct. References are stored as their key
// column and loaded into a pointer to the referenced entity.
func genStruct(f *jen.File, prefix, name string, o *schema.ObjectType, t *sqlschema.Table) {
	f.Commentf("%s is the %s object type.", name, o.Path())
	f.Type().Id(name).StructFunc(func(group *jen.Group) {
		for _, a := range o.Attributes() {
			c, persistent := t.Column(a.Name)
			if !persistent {
				group.Id(FieldName(a)).Id(fieldType(a)).Tag(map[string]string{"db": "-", "json": jsonTag(a.Name, a.Nullable)})
				continue
			}
			if !a.IsReference() {
				group.Id(FieldName(a)).Id(fieldType(a)).Tag(map[string]string{"db": c.Name, "json": jsonTag(a.Name, a.Nullable)})
				continue
			}
			group.Id(columnField(c)).Id(fieldType(a)).Tag(map[string]string{"db": c.Name, "json": jsonTag(a.Name+"_id", a.Nullable)})
			target := a.ReferencedObject()
			ref := jen.Op("*").Id(TypeName(target))
			if target.Schema != o.Schema {
				ref = jen.Op("*").Qual(ImportPath(prefix, target.Schema), TypeName(target))
			}
			group.Id(FieldName(a)).Add(ref).Tag(map[string]string{"db": "-", "json": a.Name + ",omitempty"})
		}
	})
}

func jsonTag(name string, nullable bool) string {
	if nullable {
		return name + ",omitempty"
	}
	return name
}
