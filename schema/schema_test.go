package schema_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/domgen"
	"github.com/syssam/domgen/schema"
)

func userType(o *schema.ObjectType) {
	o.Integer("id").PrimaryKey()
	o.String("email", 255).Unique()
	o.UniqueConstraint("email")
}

func buildOne(t *testing.T, build func(*schema.ObjectType)) (*schema.ObjectType, error) {
	t.Helper()
	var o *schema.ObjectType
	_, err := schema.NewSet(func(set *schema.Set) {
		set.Schema("Core", func(s *schema.Schema) {
			o = s.ObjectType("User", build)
		})
	})
	return o, err
}

func requireKind(t *testing.T, err error, kind domgen.ErrorKind) {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, domgen.ErrInvalidSchema)
	got, ok := domgen.ConfigErrorKind(err)
	require.True(t, ok)
	assert.Equal(t, kind, got, err.Error())
}

func TestNewSet(t *testing.T) {
	t.Parallel()
	set, err := schema.NewSet(func(set *schema.Set) {
		set.Schema("Core", func(s *schema.Schema) {
			s.ObjectType("User", userType)
		})
	})
	require.NoError(t, err)
	require.True(t, set.Frozen())
	require.Len(t, set.Schemas(), 1)

	core, ok := set.SchemaByName("Core")
	require.True(t, ok)
	assert.True(t, core.Frozen())
	user, ok := core.ObjectTypeByName("User")
	require.True(t, ok)
	assert.True(t, user.Frozen())
	assert.True(t, user.Final())
	assert.Equal(t, "Core.User", user.Path())
	assert.Equal(t, "id", user.PrimaryKey().Name)

	email, ok := user.AttributeByName("email")
	require.True(t, ok)
	assert.Equal(t, schema.KindString, email.Kind())
	assert.Equal(t, 255, email.StringType().Length)
	assert.Nil(t, email.Reference())
	assert.True(t, email.Unique)
	assert.True(t, email.Persistent)
	assert.True(t, email.Validate)
	assert.Equal(t, "Core.User.email", email.Path())

	require.Len(t, user.UniqueConstraints(), 1)
	assert.Equal(t, "email", user.UniqueConstraints()[0].Name)
	assert.Equal(t, []*schema.Attribute{email}, user.UniqueConstraints()[0].Attributes())
}

func TestEmptySet(t *testing.T) {
	t.Parallel()
	set, err := schema.NewSet(nil)
	require.NoError(t, err)
	assert.Empty(t, set.Schemas())
	assert.Empty(t, set.ObjectTypes())
}

func TestPrimaryKey(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		build func(*schema.ObjectType)
	}{
		{
			name: "missing",
			build: func(o *schema.ObjectType) {
				o.String("name", 10)
			},
		},
		{
			name: "multiple",
			build: func(o *schema.ObjectType) {
				o.Integer("id").PrimaryKey()
				o.Integer("code").PrimaryKey()
			},
		},
		{
			name: "transient",
			build: func(o *schema.ObjectType) {
				o.Integer("id").PrimaryKey().Transient()
				o.String("name", 10)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			o, err := buildOne(t, tt.build)
			requireKind(t, err, domgen.KindPrimaryKey)
			assert.Nil(t, o)
			assert.Contains(t, err.Error(), "Core.User")
		})
	}
}

func TestDuplicates(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		build func(*schema.Set)
		dup   string
	}{
		{
			name: "schema",
			build: func(set *schema.Set) {
				set.Schema("Core", nil)
				set.Schema("Core", nil)
			},
			dup: "Core",
		},
		{
			name: "object type",
			build: func(set *schema.Set) {
				set.Schema("Core", func(s *schema.Schema) {
					s.ObjectType("User", userType)
					s.ObjectType("User", userType)
				})
			},
			dup: "User",
		},
		{
			name: "attribute",
			build: func(set *schema.Set) {
				set.Schema("Core", func(s *schema.Schema) {
					s.ObjectType("User", func(o *schema.ObjectType) {
						userType(o)
						o.Text("email")
					})
				})
			},
			dup: "email",
		},
		{
			name: "query",
			build: func(set *schema.Set) {
				set.Schema("Core", func(s *schema.Schema) {
					s.ObjectType("User", func(o *schema.ObjectType) {
						userType(o)
						o.Query("Email", "email = :email")
						o.Query("Email", "email = :email")
					})
				})
			},
			dup: "Email",
		},
		{
			name: "implicit query",
			build: func(set *schema.Set) {
				set.Schema("Core", func(s *schema.Schema) {
					s.ObjectType("User", func(o *schema.ObjectType) {
						userType(o)
						o.Query("All", "")
					})
				})
			},
			dup: "All",
		},
		{
			name: "constraint",
			build: func(set *schema.Set) {
				set.Schema("Core", func(s *schema.Schema) {
					s.ObjectType("User", func(o *schema.ObjectType) {
						userType(o)
						o.Constraint("EmailLower", "email = LOWER(email)")
						o.Constraint("EmailLower", "1 = 1")
					})
				})
			},
			dup: "EmailLower",
		},
		{
			name: "unique constraint",
			build: func(set *schema.Set) {
				set.Schema("Core", func(s *schema.Schema) {
					s.ObjectType("User", func(o *schema.ObjectType) {
						userType(o)
						o.UniqueConstraint("email")
					})
				})
			},
			dup: "email",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			set, err := schema.NewSet(tt.build)
			requireKind(t, err, domgen.KindDuplicate)
			assert.Nil(t, set)
			var cerr *domgen.ConfigError
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, tt.dup, cerr.Name)
		})
	}
}

func TestInvalidName(t *testing.T) {
	t.Parallel()
	_, err := schema.NewSet(func(set *schema.Set) {
		set.Schema("../etc", nil)
	})
	requireKind(t, err, domgen.KindInvalidName)

	_, err = buildOne(t, func(o *schema.ObjectType) {
		o.Integer("id").PrimaryKey()
		o.Text("first name")
	})
	requireKind(t, err, domgen.KindInvalidName)
}

func TestFirstErrorWins(t *testing.T) {
	t.Parallel()
	o, err := buildOne(t, func(o *schema.ObjectType) {
		o.Integer("id").PrimaryKey()
		o.String("name", 0)
		o.Text("id")
		require.Error(t, o.Err())
	})
	assert.Nil(t, o)
	requireKind(t, err, domgen.KindInvalidOption)
	assert.Contains(t, err.Error(), "string length must be positive")
}

func TestAttributeTypes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		typ     schema.Type
		wantErr string
	}{
		{name: "string", typ: &schema.StringType{Length: 10}},
		{name: "string zero length", typ: &schema.StringType{}, wantErr: "string length must be positive"},
		{name: "reference without target", typ: &schema.ReferenceType{}, wantErr: "reference target is empty"},
		{name: "i_enum empty", typ: &schema.IEnumType{}, wantErr: "declares no values"},
		{
			name:    "i_enum duplicate label",
			typ:     &schema.IEnumType{Values: []schema.EnumValue{{Label: "a", Ordinal: 1}, {Label: "a", Ordinal: 2}}},
			wantErr: `label "a" declared more than once`,
		},
		{
			name:    "i_enum duplicate ordinal",
			typ:     &schema.IEnumType{Values: []schema.EnumValue{{Label: "a", Ordinal: 1}, {Label: "b", Ordinal: 1}}},
			wantErr: "ordinal 1 declared more than once",
		},
		{name: "s_enum duplicate", typ: &schema.SEnumType{Values: []string{"x", "x"}}, wantErr: `value "x" declared more than once`},
		{name: "no type", typ: nil, wantErr: "has no type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := buildOne(t, func(o *schema.ObjectType) {
				o.Integer("id").PrimaryKey()
				o.Attribute("value", tt.typ)
			})
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestIEnumRange(t *testing.T) {
	t.Parallel()
	typ := &schema.IEnumType{Values: []schema.EnumValue{
		{Label: "low", Ordinal: 3},
		{Label: "min", Ordinal: 1},
		{Label: "max", Ordinal: 7},
	}}
	assert.Equal(t, 1, typ.Min())
	assert.Equal(t, 7, typ.Max())
	assert.Equal(t, 5, (&schema.SEnumType{Values: []string{"red", "green"}}).MaxLength())
}

func TestParseKind(t *testing.T) {
	for _, k := range []schema.Kind{schema.KindBoolean, schema.KindText, schema.KindString, schema.KindInteger, schema.KindReference, schema.KindIEnum, schema.KindSEnum} {
		got, ok := schema.ParseKind(k.String())
		require.True(t, ok, k.String())
		assert.Equal(t, k, got)
	}
	_, ok := schema.ParseKind("datetime")
	assert.False(t, ok)
	_, ok = schema.ParseKind("invalid")
	assert.False(t, ok)
}

func TestFrozenBuilder(t *testing.T) {
	t.Parallel()
	var (
		attr  *schema.AttributeBuilder
		query *schema.QueryBuilder
	)
	o, err := buildOne(t, func(o *schema.ObjectType) {
		attr = o.Integer("id").PrimaryKey()
		query = o.Query("Recent", "id > :id")
	})
	require.NoError(t, err)
	assert.Panics(t, func() { attr.Nullable() })
	assert.Panics(t, func() { query.Singular() })
	assert.Panics(t, func() { o.Text("late") })
	assert.Panics(t, func() { o.Abstract() })
}

type recordingFacet struct {
	events []string
}

func (f *recordingFacet) DeriveObjectType(o *schema.ObjectType) error {
	if o.Frozen() {
		return errors.New("already frozen")
	}
	f.events = append(f.events, "type:"+o.Path()+":"+o.Queries()[len(o.Queries())-1].Name)
	return nil
}

func (f *recordingFacet) DeriveSchema(s *schema.Schema) error {
	f.events = append(f.events, "schema:"+s.Name)
	return nil
}

func TestFacetOrder(t *testing.T) {
	t.Parallel()
	f := &recordingFacet{}
	_, err := schema.NewSet(func(set *schema.Set) {
		set.Schema("Core", func(s *schema.Schema) {
			s.ObjectType("User", userType)
			s.ObjectType("Group", func(o *schema.ObjectType) {
				o.Integer("id").PrimaryKey()
			})
		})
		set.Schema("Audit", nil)
	}, schema.WithFacet(f))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"type:Core.User:id",
		"type:Core.Group:id",
		"schema:Core",
		"schema:Audit",
	}, f.events)
}

type failingFacet struct{}

func (failingFacet) DeriveObjectType(o *schema.ObjectType) error {
	o.Fail(domgen.NewConfigError(domgen.KindMultipleClusters, o.Path(), o.Name, "boom"))
	return nil
}

func (failingFacet) DeriveSchema(*schema.Schema) error { return nil }

func TestFacetFail(t *testing.T) {
	t.Parallel()
	_, err := schema.NewSet(func(set *schema.Set) {
		set.Schema("Core", func(s *schema.Schema) {
			s.ObjectType("User", userType)
		})
	}, schema.WithFacet(failingFacet{}))
	requireKind(t, err, domgen.KindMultipleClusters)
}
