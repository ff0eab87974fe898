package golang

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/domgen/compiler/gen"
	"github.com/syssam/domgen/compiler/gen/sqlddl"
	"github.com/syssam/domgen/dialect/sqlschema"
	"github.com/syssam/domgen/schema"
)

func testSet(t *testing.T) *schema.Set {
	t.Helper()
	set, err := schema.NewSet(func(set *schema.Set) {
		set.Schema("Core", func(s *schema.Schema) {
			s.ObjectType("User", func(o *schema.ObjectType) {
				o.Integer("id").PrimaryKey()
				o.String("email", 255)
				o.IEnum("status", schema.EnumValue{Label: "ACTIVE", Ordinal: 1}, schema.EnumValue{Label: "LOCKED", Ordinal: 5})
				o.Text("nickname").Nullable().Transient()
				o.Query("email", "email = :email").Singular()
			})
		})
		set.Schema("Sales", func(s *schema.Schema) {
			sqlschema.SchemaOf(s).SetNamespace("sales")
			s.ObjectType("Order", func(o *schema.ObjectType) {
				o.Integer("id").PrimaryKey()
				o.Reference("customer", "Core.User")
				o.SEnum("channel", "retail", "wholesale").Nullable()
				o.Integer("created")
				o.Query("channel", "channel = :channel")
				o.Query("recent", "SELECT * FROM Order WHERE created > :created").Full()
			})
		})
	}, schema.WithFacet(sqlschema.Facet{}))
	require.NoError(t, err)
	return set
}

func objectContext(t *testing.T, set *schema.Set, path string, params gen.Params) *gen.ObjectTypeContext {
	t.Helper()
	for _, s := range set.Schemas() {
		for _, o := range s.ObjectTypes() {
			if o.Path() == path {
				return &gen.ObjectTypeContext{
					SchemaContext: gen.SchemaContext{
						SetContext: gen.SetContext{Set: set, Params: params, Header: gen.DefaultHeader},
						Schema:     s,
					},
					ObjectType: o,
				}
			}
		}
	}
	t.Fatalf("object type %s not found", path)
	return nil
}

var spaces = regexp.MustCompile(`[ \t]+`)

// squash collapses the alignment gofmt adds.
func squash(s string) string { return spaces.ReplaceAllString(s, " ") }

func TestGenerate(t *testing.T) {
	ts := gen.NewTemplateSet()
	require.NoError(t, Register(ts))
	dir := t.TempDir()
	require.NoError(t, ts.GenerateArtifacts(context.Background(), testSet(t), dir, gen.WithParam(ParamPackage, "example.com/shop")))

	read := func(rel string) string {
		b, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
		require.NoError(t, err)
		return squash(string(b))
	}

	db := read("go/core/db.go")
	assert.Contains(t, db, "// "+gen.DefaultHeader+"\n\npackage core\n")
	assert.Contains(t, db, "type DB interface {")

	user := read("go/core/user.go")
	for _, want := range []string{
		"// " + gen.DefaultHeader,
		"package core",
		`UserTable = "User"`,
		`UserNamespace = "dbo"`,
		`UserColumnEmail = "email"`,
		"type UserStatus int",
		"UserStatusActive UserStatus = 1",
		"UserStatusLocked UserStatus = 5",
		"func (v UserStatus) Valid() bool {",
		"type User struct {",
		"ID int `db:\"id\" json:\"id\"`",
		"Status UserStatus `db:\"status\" json:\"status\"`",
		"Nickname *string `db:\"-\" json:\"nickname,omitempty\"`",
	} {
		assert.Contains(t, user, want)
	}

	order := read("go/sales/order.go")
	for _, want := range []string{
		"package sales",
		`"example.com/shop/core"`,
		`OrderColumnCustomerID = "customer_id"`,
		"type OrderChannel string",
		`OrderChannelWholesale OrderChannel = "wholesale"`,
		"CustomerID int `db:\"customer_id\" json:\"customer_id\"`",
		"Customer *core.User `db:\"-\" json:\"customer,omitempty\"`",
		"Channel *OrderChannel `db:\"channel\" json:\"channel,omitempty\"`",
	} {
		assert.Contains(t, order, want)
	}

	queries := read("go/core/user_queries.go")
	for _, want := range []string{
		`UserFindByEmailQuery = "SELECT [id], [email], [status] FROM [dbo].[User] O WHERE [email] = @p1"`,
		`UserFindAllQuery = "SELECT [id], [email], [status] FROM [dbo].[User] O"`,
		"func NewUserRepository(db DB) *UserRepository {",
		"if err := rows.Scan(&v.ID, &v.Email, &v.Status); err != nil {",
		"func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {",
		"rows, err := r.db.QueryContext(ctx, UserFindByEmailQuery, email)",
		"return first(collect(rows, scanUser))",
		"func (r *UserRepository) FindAll(ctx context.Context) ([]*User, error) {",
		"func (r *UserRepository) FindByID(ctx context.Context, id int) (*User, error) {",
	} {
		assert.Contains(t, queries, want)
	}
}

func TestRepositoryPostgres(t *testing.T) {
	set := testSet(t)
	r, err := NewRepository(objectContext(t, set, "Sales.Order", gen.Params{sqlddl.ParamDialect: "postgres"}))
	require.NoError(t, err)

	assert.Equal(t, "Order", r.Type)
	assert.Equal(t, "sales", r.Package)
	assert.Equal(t, []string{"&v.ID", "&v.CustomerID", "&v.Channel", "&v.Created"}, r.Scan)
	require.Len(t, r.Queries, 4)

	channel := r.Queries[0]
	assert.Equal(t, "FindAllByChannel", channel.Method)
	assert.Equal(t, `SELECT "id", "customer_id", "channel", "created" FROM "sales"."Order" O WHERE "channel" = $1`, channel.SQL)
	assert.Equal(t, ", channel OrderChannel", channel.Signature())
	assert.Equal(t, ", channel", channel.Arguments())

	recent := r.Queries[1]
	assert.Equal(t, "OrderFindAllByRecentQuery", recent.Const)
	assert.Equal(t, `SELECT * FROM Order WHERE "created" > $1`, recent.SQL)
}

func TestTranslate(t *testing.T) {
	set := testSet(t)
	user := sqlschema.TableOf(set.ObjectTypes()[0])
	core := set.Schemas()[0]

	tests := []struct {
		dialect string
		pred    string
		want    string
		args    []string
	}{
		{"sqlite", "email = :email OR :email IS NULL", "`email` = ? OR ? IS NULL", []string{"email", "email"}},
		{"postgres", "email = :email OR :email IS NULL", `"email" = $1 OR $1 IS NULL`, []string{"email"}},
		{"mssql", "O.status = :status AND email <> 'status:x'", "O.[status] = @p1 AND [email] <> 'status:x'", []string{"status"}},
		{"mysql", "id IN (:a, :b)", "`id` IN (?, ?)", []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			script, err := sqlddl.NewScript(core, tt.dialect)
			require.NoError(t, err)
			got, args := translate(script, user, tt.pred)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestNames(t *testing.T) {
	set := testSet(t)
	user := set.ObjectTypes()[0]
	status, ok := user.AttributeByName("status")
	require.True(t, ok)

	assert.Equal(t, "UserStatusActive", EnumConstant(status, "ACTIVE"))
	assert.Equal(t, "UserStatusOnHold", EnumConstant(status, "on_hold"))
	assert.Equal(t, "typeValue", identifier("type"))
	assert.Equal(t, "ctxValue", identifier("ctx"))
	assert.Equal(t, "userName", identifier("user_name"))
	assert.Equal(t, "model/core", ImportPath(DefaultPackage, user.Schema))
}
