package jpa

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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
				o.Text("nickname").Nullable().Transient()
				o.UniqueConstraint("email")
				o.Query("email", "email = :email").Singular()
			})
		})
		set.Schema("Sales", func(s *schema.Schema) {
			sqlschema.SchemaOf(s).SetNamespace("sales")
			s.ObjectType("Order", func(o *schema.ObjectType) {
				o.Integer("id").PrimaryKey()
				o.Reference("customer", "Core.User")
				o.SEnum("channel", "retail", "wholesale").Nullable()
				o.Integer("created").Immutable()
				o.Query("channel", "channel = :channel")
			})
		})
	}, schema.WithFacet(sqlschema.Facet{}))
	require.NoError(t, err)
	return set
}

func generate(t *testing.T, opts ...gen.Option) string {
	t.Helper()
	ts := gen.NewTemplateSet()
	require.NoError(t, Register(ts))
	dir := t.TempDir()
	require.NoError(t, ts.GenerateArtifacts(context.Background(), testSet(t), dir, opts...))
	return dir
}

func read(t *testing.T, dir, rel string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(b)
}

func TestRegister(t *testing.T) {
	ts := gen.NewTemplateSet()
	require.NoError(t, Register(ts))
	assert.Len(t, ts.Maps(gen.ScopeObjectType), 2)
	assert.Len(t, ts.Maps(gen.ScopeSchemaSet), 1)
}

func TestEntity(t *testing.T) {
	dir := generate(t)
	user := read(t, dir, "java/model/core/User.java")

	for _, want := range []string{
		"/* " + gen.DefaultHeader + " */\npackage model.core;\n",
		`@Entity( name = "User" )`,
		`@Table( name = "User", schema = "dbo", uniqueConstraints = {
  @UniqueConstraint( name = "UQ_User_email", columnNames = { "email" } )
} )`,
		`@NamedQuery( name = User.FIND_BY_EMAIL, query = "SELECT O FROM User O WHERE email = :email" ),`,
		`@NamedQuery( name = User.FIND_ALL, query = "SELECT O FROM User O" ),`,
		`@NamedQuery( name = User.FIND_BY_ID, query = "SELECT O FROM User O WHERE id = :id" )`,
		`public static final String FIND_BY_EMAIL = "User.findByEmail";`,
		"public enum Status\n  {\n    ACTIVE( 1 ),\n    LOCKED( 5 );\n",
		"  @Id\n  @Column( name = \"id\", nullable = false, updatable = true )\n  private int id;\n",
		"  @Column( name = \"email\", nullable = false, updatable = true, length = 255 )\n  private String email;\n",
		"  @Transient\n  private String nickname;\n",
		"  @OneToMany( mappedBy = \"customer\" )\n  private List<model.sales.Order> orders;\n",
		"  public Status getStatus()\n  {\n    return Status.fromValue( status );\n  }",
		"  public void setStatus( final Status value )\n  {\n    status = value.getValue();\n  }",
		"  public List<model.sales.Order> getOrders()",
		"return Objects.equals( id, that.id );",
	} {
		assert.Contains(t, user, want)
	}

	order := read(t, dir, "java/model/sales/Order.java")
	for _, want := range []string{
		`@Table( name = "Order", schema = "sales" )`,
		"  @ManyToOne( optional = false, fetch = FetchType.LAZY )\n  @JoinColumn( name = \"customer_id\", nullable = false, updatable = true )\n  private model.core.User customer;\n",
		"public enum Channel\n  {\n    RETAIL( \"retail\" ),\n    WHOLESALE( \"wholesale\" );\n",
		"private String channel;",
		"return null == channel ? null : Channel.fromValue( channel );",
		"channel = null == value ? null : value.getValue();",
		"public int getCreated()",
	} {
		assert.Contains(t, order, want)
	}
	assert.NotContains(t, order, "setCreated")
}

func TestDAO(t *testing.T) {
	dir := generate(t, gen.WithParam(ParamApp, "shop"))
	dao := read(t, dir, "java/model/core/UserDAO.java")

	for _, want := range []string{
		"@Stateless\npublic class UserDAO\n{",
		`@PersistenceContext( unitName = "ShopCore" )`,
		"  public User findByEmail( final String email )\n",
		"query.setParameter( \"email\", email );\n",
		"return results.isEmpty() ? null : results.get( 0 );",
		"  public List<User> findAll()\n",
		"_entityManager.createNamedQuery( User.FIND_ALL, User.class );\n    return query.getResultList();",
	} {
		assert.Contains(t, dao, want)
	}

	dao = read(t, dir, "java/model/sales/OrderDAO.java")
	assert.Contains(t, dao, "public List<Order> findAllByChannel( final Channel channel )")
	assert.Contains(t, dao, `query.setParameter( "channel", channel.getValue() );`)
}

func TestPersistence(t *testing.T) {
	dir := generate(t, gen.WithParam(ParamPackage, "com.example.model"), gen.WithParam(ParamApp, "shop"))
	xml := read(t, dir, "resources/META-INF/persistence.xml")

	assert.Contains(t, xml, "<!-- "+gen.DefaultHeader+" -->")
	assert.Contains(t, xml, `  <persistence-unit name="ShopCore" transaction-type="JTA">
    <jta-data-source>jdbc/ShopCore</jta-data-source>
    <class>com.example.model.core.User</class>
    <exclude-unlisted-classes>true</exclude-unlisted-classes>`)
	assert.Contains(t, xml, "<class>com.example.model.sales.Order</class>")

	_, err := os.Stat(filepath.Join(dir, "java", "com", "example", "model", "core", "User.java"))
	assert.NoError(t, err)
}

func TestNames(t *testing.T) {
	set := testSet(t)
	core, ok := set.SchemaByName("Core")
	require.True(t, ok)

	tests := []struct {
		name, got, want string
	}{
		{"package", Package("model", core), "model.core"},
		{"unit", UnitName("my_app", core), "MyAppCore"},
		{"data source", DataSource("domgen", core), "jdbc/DomgenCore"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}
