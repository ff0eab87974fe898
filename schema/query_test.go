package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/domgen"
	"github.com/syssam/domgen/schema"
)

func TestImplicitQueries(t *testing.T) {
	t.Parallel()
	o, err := buildOne(t, func(o *schema.ObjectType) {
		userType(o)
		o.Query("Email", "O.email = :email").Singular()
	})
	require.NoError(t, err)
	queries := o.Queries()
	require.Len(t, queries, 3)

	byEmail, all, byID := queries[0], queries[1], queries[2]
	assert.False(t, byEmail.Implicit)

	assert.Equal(t, "All", all.Name)
	assert.True(t, all.Implicit)
	assert.False(t, all.Singular)
	assert.Empty(t, all.Predicate)
	assert.Empty(t, all.Parameters())
	assert.Equal(t, "findAllUsers", all.FullName())
	assert.Equal(t, "findAll", all.LocalName())
	assert.Equal(t, "SELECT O FROM User O", all.QueryString())

	assert.Equal(t, "id", byID.Name)
	assert.True(t, byID.Singular)
	assert.Equal(t, "id = :id", byID.Predicate)
	assert.Equal(t, "findUserByID", byID.FullName())
	assert.Equal(t, "findByID", byID.LocalName())
	require.Len(t, byID.Parameters(), 1)
	assert.Same(t, o.PrimaryKey(), byID.Parameters()[0].Attribute)

	q, ok := o.QueryByName("Email")
	require.True(t, ok)
	assert.Same(t, byEmail, q)
	assert.Equal(t, "findUserByEmail", q.FullName())
	assert.Equal(t, "SELECT O FROM User O WHERE O.email = :email", q.QueryString())
}

func TestQueryParameters(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		predicate string
		want      []string
		unknown   string
	}{
		{name: "none", predicate: "O.active = 1"},
		{name: "single", predicate: "O.email = :email", want: []string{"email"}},
		{name: "dedup", predicate: "O.email = :email OR O.backup = :email AND O.id > :id", want: []string{"email", "id"}},
		{name: "unknown", predicate: "O.email = :mail", unknown: "mail"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			o, err := buildOne(t, func(o *schema.ObjectType) {
				userType(o)
				o.Query("Q", tt.predicate)
			})
			if tt.unknown != "" {
				requireKind(t, err, domgen.KindUnresolved)
				assert.Contains(t, err.Error(), `parameter "`+tt.unknown+`"`)
				return
			}
			require.NoError(t, err)
			q, _ := o.QueryByName("Q")
			var names []string
			for _, p := range q.Parameters() {
				names = append(names, p.Name)
				assert.Equal(t, p.Name, p.Attribute.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestQueryString(t *testing.T) {
	t.Parallel()
	o, err := buildOne(t, func(o *schema.ObjectType) {
		userType(o)
		o.Query("Search", "O.email LIKE :email\nORDER BY O.id")
		o.Query("Raw", "SELECT u FROM User u\nWHERE u.id = :id").Full()
	})
	require.NoError(t, err)

	search, _ := o.QueryByName("Search")
	assert.Equal(t, schema.QuerySelector, search.Type)
	assert.Equal(t, "SELECT O FROM User O WHERE O.email LIKE :email ORDER BY O.id", search.QueryString())
	assert.Equal(t, "findAllUsersBySearch", search.FullName())

	raw, _ := o.QueryByName("Raw")
	assert.Equal(t, schema.QueryFull, raw.Type)
	assert.Equal(t, "SELECT u FROM User u WHERE u.id = :id", raw.QueryString())
}

func TestUnknownQueryType(t *testing.T) {
	t.Parallel()
	_, err := buildOne(t, func(o *schema.ObjectType) {
		userType(o)
		o.Query("Q", "").Type(schema.QueryType(9))
	})
	requireKind(t, err, domgen.KindUnknownQueryType)

	_, ok := schema.ParseQueryType("native")
	assert.False(t, ok)
	qt, ok := schema.ParseQueryType("full")
	require.True(t, ok)
	assert.Equal(t, schema.QueryFull, qt)
}
