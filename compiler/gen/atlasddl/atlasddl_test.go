package atlasddl

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/domgen"
	"github.com/syssam/domgen/compiler/gen"
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
				o.Boolean("active")
				o.UniqueConstraint("email")
			})
		})
		set.Schema("Sales", func(s *schema.Schema) {
			sqlschema.SchemaOf(s).SetNamespace("sales")
			s.ObjectType("Order", func(o *schema.ObjectType) {
				o.Integer("id").PrimaryKey()
				o.Reference("customer", "Core.User")
				o.IEnum("status", schema.EnumValue{Label: "NEW", Ordinal: 1}, schema.EnumValue{Label: "DONE", Ordinal: 2})
				o.Text("note").Nullable()
			})
		})
	}, schema.WithFacet(sqlschema.Facet{}))
	require.NoError(t, err)
	return set
}

func TestPlanSQLite(t *testing.T) {
	stmts, err := Plan(context.Background(), testSet(t), "sqlite3")
	require.NoError(t, err)
	require.Len(t, stmts, 3)

	assert.True(t, strings.HasPrefix(stmts[0], "CREATE TABLE `User`"), stmts[0])
	assert.Contains(t, stmts[0], "`email` varchar NOT NULL")
	assert.Contains(t, stmts[0], "`active` bool NOT NULL")
	assert.Equal(t, "CREATE UNIQUE INDEX `UQ_User_email` ON `User` (`email`)", stmts[1])

	assert.True(t, strings.HasPrefix(stmts[2], "CREATE TABLE `Order`"), stmts[2])
	assert.Contains(t, stmts[2], "`note` text NULL")
	assert.Contains(t, stmts[2], "CONSTRAINT `FK_Order_customer` FOREIGN KEY (`customer_id`) REFERENCES `User` (`id`)")
	assert.Contains(t, stmts[2], "CONSTRAINT `CK_Order_status` CHECK (`status` >= 1 AND `status` <= 2)")
}

func TestPlanPostgres(t *testing.T) {
	stmts, err := Plan(context.Background(), testSet(t), "postgres")
	require.NoError(t, err)

	all := strings.Join(stmts, "\n")
	assert.Contains(t, all, `CREATE SCHEMA "sales"`)
	assert.Contains(t, all, `CREATE TABLE "public"."User"`)
	assert.Contains(t, all, `"email" character varying(255) NOT NULL`)
	assert.Contains(t, all, `"active" boolean NOT NULL`)
	assert.Contains(t, all, `CREATE TABLE "sales"."Order"`)
	assert.Contains(t, all, `REFERENCES "public"."User" ("id")`)
	assert.Less(t, strings.Index(all, `CREATE SCHEMA "sales"`), strings.Index(all, `CREATE TABLE "sales"."Order"`))
}

func TestPlanErrors(t *testing.T) {
	set := testSet(t)
	tests := []struct {
		dialect string
		want    string
	}{
		{"mssql", "atlas cannot plan"},
		{"oracle", "unknown dialect"},
	}
	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			_, err := Plan(context.Background(), set, tt.dialect)
			require.Error(t, err)
			assert.ErrorIs(t, err, domgen.ErrInvalidSchema)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseDialects(t *testing.T) {
	names, err := ParseDialects("")
	require.NoError(t, err)
	assert.Equal(t, []string{"postgres"}, names)

	names, err = ParseDialects("sqlite, postgresql,sqlite3")
	require.NoError(t, err)
	assert.Equal(t, []string{"sqlite", "postgres"}, names)

	_, err = ParseDialects("postgres,mssql")
	require.Error(t, err)
}

func TestRegister(t *testing.T) {
	ts := gen.NewTemplateSet()
	require.NoError(t, Register(ts))
	assert.Len(t, ts.Maps(gen.ScopeSchemaSet), len(Dialects))

	dir := t.TempDir()
	err := ts.GenerateArtifacts(context.Background(), testSet(t), dir, gen.WithParam(ParamDialects, "sqlite,mysql"))
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "migrations", "postgres", "schema.sql"))
	assert.True(t, os.IsNotExist(err))

	b, err := os.ReadFile(filepath.Join(dir, "migrations", "sqlite", "schema.sql"))
	require.NoError(t, err)
	script := string(b)
	assert.True(t, strings.HasPrefix(script, "-- "+gen.DefaultHeader+"\n"))
	assert.Contains(t, script, "-- create \"User\" table\nCREATE TABLE `User`")
	assert.Contains(t, script, "CREATE UNIQUE INDEX `UQ_User_email` ON `User` (`email`);\n")

	b, err = os.ReadFile(filepath.Join(dir, "migrations", "mysql", "schema.sql"))
	require.NoError(t, err)
	assert.Contains(t, string(b), "CREATE DATABASE `sales`")
}
