package snapshot

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

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
				o.IEnum("status", schema.EnumValue{Label: "ACTIVE", Ordinal: 1}, schema.EnumValue{Label: "LOCKED", Ordinal: 5})
				o.UniqueConstraint("email")
				o.Query("email", "email = :email").Singular()
			})
		})
		set.Schema("Sales", func(s *schema.Schema) {
			sqlschema.SchemaOf(s).SetNamespace("sales")
			s.ObjectType("Order", func(o *schema.ObjectType) {
				o.Integer("id").PrimaryKey()
				o.Reference("customer", "Core.User")
				o.SEnum("channel", "retail", "wholesale")
				o.Constraint("positive_id", "id > 0")
			})
		})
	}, schema.WithFacet(sqlschema.Facet{}))
	require.NoError(t, err)
	return set
}

func TestGenerate(t *testing.T) {
	ts := gen.NewTemplateSet()
	require.NoError(t, Register(ts))
	dir := t.TempDir()
	require.NoError(t, ts.GenerateArtifacts(context.Background(), testSet(t), dir, gen.WithParam("app.name", "shop")))

	f, err := os.Open(filepath.Join(dir, filepath.FromSlash(Path)))
	require.NoError(t, err)
	defer f.Close()
	m, err := Decode(f)
	require.NoError(t, err)

	assert.Equal(t, Format, m.Format)
	assert.Equal(t, map[string]string{"app.name": "shop"}, m.Params)
	require.Len(t, m.Schemas, 2)
	assert.Equal(t, "dbo", m.Schemas[0].Namespace)
	assert.Equal(t, "sales", m.Schemas[1].Namespace)

	user := m.Schemas[0].ObjectTypes[0]
	assert.Equal(t, "User", user.Name)
	assert.Equal(t, "User", user.Table)
	require.Len(t, user.Attributes, 3)
	assert.Equal(t, "VARCHAR(255)", user.Attributes[1].SQLType)
	status := user.Attributes[2]
	assert.Equal(t, "i_enum", status.Kind)
	require.Len(t, status.Values, 2)
	require.NotNil(t, status.Values[1].Ordinal)
	assert.Equal(t, 5, *status.Values[1].Ordinal)
	assert.Equal(t, []*Constraint{{Kind: "unique", Name: user.Constraints[0].Name, Attributes: []string{"email"}}}, user.Constraints)

	require.Len(t, user.Queries, 3)
	assert.Equal(t, "findUserByEmail", user.Queries[0].FullName)
	assert.Equal(t, []string{"email"}, user.Queries[0].Params)
	assert.True(t, user.Queries[0].Singular)
	assert.True(t, user.Queries[1].Implicit)

	order := m.Schemas[1].ObjectTypes[0]
	customer := order.Attributes[1]
	assert.Equal(t, "Core.User", customer.References)
	assert.Equal(t, "has_many", customer.Inverse)
	assert.Equal(t, "customer_id", customer.Column)
	assert.Nil(t, order.Attributes[2].Values[0].Ordinal)
	assert.Equal(t, &Constraint{Kind: "constraint", Name: "positive_id", SQL: "id > 0"}, order.Constraints[0])
}

func TestID(t *testing.T) {
	a, b := testSet(t), testSet(t)
	user, order := a.ObjectTypes()[0], a.ObjectTypes()[1]

	assert.Equal(t, ID(user), ID(b.ObjectTypes()[0]))
	assert.NotEqual(t, ID(user), ID(order))
	assert.Equal(t, uuid.Version(5), ID(user).Version())
}

func TestEncodeDeterministic(t *testing.T) {
	params := map[string]string{"b": "2", "a": "1", "c": "3"}
	var first bytes.Buffer
	require.NoError(t, Encode(&first, New(testSet(t), params)))
	for range 5 {
		var again bytes.Buffer
		require.NoError(t, Encode(&again, New(testSet(t), params)))
		require.Equal(t, first.Bytes(), again.Bytes())
	}
}

func TestDecodeFormat(t *testing.T) {
	b, err := msgpack.Marshal(&Model{Format: Format + 1})
	require.NoError(t, err)
	_, err = Decode(bytes.NewReader(b))
	assert.ErrorContains(t, err, "unsupported format")

	_, err = Decode(bytes.NewReader([]byte{0xc1}))
	assert.Error(t, err)
}
