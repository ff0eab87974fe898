// Package resource generates resources/glassfish-resources.json, the
// application server resources the JPA model expects: one JDBC connection
// pool per schema, bound to the data source of the schema's persistence
// unit, and the environment variables the pools are configured with.
//
// Variables are named <APP>_<SCHEMA>_DB_<SETTING>. The application is read
// from the "app.name" parameter and the database from "sql.dialect".
package resource

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/syssam/domgen"
	"github.com/syssam/domgen/compiler/gen"
	"github.com/syssam/domgen/compiler/gen/jpa"
	"github.com/syssam/domgen/compiler/gen/sqlddl"
	"github.com/syssam/domgen/dialect"
	"github.com/syssam/domgen/naming"
	"github.com/syssam/domgen/schema"
)

// ParamUsername names the parameter holding the default database user. It
// defaults to the application name in snake case.
const ParamUsername = "db.username"

// Resources is the document written to glassfish-resources.json.
type Resources struct {
	EnvironmentVars map[string]any   `json:"environment_vars"`
	Pools           map[string]*Pool `json:"jdbc_connection_pools"`
}

// Pool is a JDBC connection pool and the resources bound to it.
type Pool struct {
	DataSourceClassName string                `json:"datasourceclassname,omitempty"`
	ResType             string                `json:"restype"`
	ValidateConnection  string                `json:"isconnectvalidatereq"`
	ValidationMethod    string                `json:"validationmethod"`
	Ping                string                `json:"ping"`
	Description         string                `json:"description"`
	Properties          map[string]string     `json:"properties"`
	Resources           map[string]*Reference `json:"resources"`
}

// Reference is a JDBC resource pointing at a pool.
type Reference struct {
	Description string `json:"description"`
}

// driver describes the JDBC side of a dialect.
type driver struct {
	class string
	port  any
}

var drivers = map[string]driver{
	dialect.MSSQL:    {class: "net.sourceforge.jtds.jdbcx.JtdsDataSource", port: 1433},
	dialect.Postgres: {class: "org.postgresql.ds.PGSimpleDataSource", port: 5432},
	dialect.MySQL:    {class: "com.mysql.cj.jdbc.MysqlDataSource", port: 3306},
	dialect.SQLite:   {class: "org.sqlite.SQLiteDataSource"},
}

// Register adds the resource document to ts.
func Register(ts *gen.TemplateSet) error {
	return ts.AddTemplate(gen.ScopeSchemaSet, gen.NewTemplateFunc("resource/glassfish", render), "glassfish-resources.json", "resources")
}

func render(w io.Writer, data any) error {
	ctx, ok := data.(*gen.SetContext)
	if !ok {
		return fmt.Errorf("resource: unexpected template data %T", data)
	}
	r, err := Build(ctx)
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(b, '\n'))
	return err
}

// Build returns the resources of the set of ctx.
func Build(ctx *gen.SetContext) (*Resources, error) {
	d, err := dialect.Parse(ctx.ParamOr(sqlddl.ParamDialect, dialect.MSSQL))
	if err != nil {
		return nil, domgen.NewConfigError(domgen.KindInvalidOption, "resource", sqlddl.ParamDialect, "%v", err)
	}
	app := ctx.ParamOr(jpa.ParamApp, jpa.DefaultApp)
	user := ctx.ParamOr(ParamUsername, naming.Snake(app))
	r := &Resources{
		EnvironmentVars: make(map[string]any),
		Pools:           make(map[string]*Pool),
	}
	for _, s := range ctx.Set.Schemas() {
		r.addPool(d, app, user, s)
	}
	return r, nil
}

func (r *Resources) addPool(d, app, user string, s *schema.Schema) {
	var (
		drv      = drivers[d]
		resource = jpa.DataSource(app, s)
		prefix   = naming.Constant(app) + "_" + naming.Constant(naming.Sanitize(s.Name)) + "_DB_"
		env      = func(setting string) string { return "${" + prefix + setting + "}" }
	)
	p := &Pool{
		DataSourceClassName: drv.class,
		ResType:             "javax.sql.DataSource",
		ValidateConnection:  "true",
		ValidationMethod:    "auto-commit",
		Ping:                "true",
		Description:         fmt.Sprintf("%s connection pool for application %s", s.Name, app),
		Properties: map[string]string{
			"ServerName":   env("HOST"),
			"User":         env("USERNAME"),
			"Password":     env("PASSWORD"),
			"PortNumber":   env("PORT"),
			"DatabaseName": env("DATABASE"),
		},
		Resources: map[string]*Reference{
			resource: {Description: fmt.Sprintf("%s resource for application %s", s.Name, app)},
		},
	}
	r.EnvironmentVars[prefix+"HOST"] = nil
	r.EnvironmentVars[prefix+"PORT"] = drv.port
	r.EnvironmentVars[prefix+"DATABASE"] = nil
	r.EnvironmentVars[prefix+"USERNAME"] = user
	r.EnvironmentVars[prefix+"PASSWORD"] = nil
	if d == dialect.MSSQL {
		r.EnvironmentVars[prefix+"INSTANCE"] = nil
		p.Properties["Instance"] = env("INSTANCE")
		p.Properties["AppName"] = app
		p.Properties["ProgName"] = "GlassFish"
		p.Properties["SocketTimeout"] = "1200"
		p.Properties["LoginTimeout"] = "60"
		p.Properties["SocketKeepAlive"] = "true"
		// jTDS still registers as a JDBC 3.0 data source.
		p.Properties["jdbc30DataSource"] = "true"
	}
	r.Pools[resource+"ConnectionPool"] = p
}
