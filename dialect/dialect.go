package dialect

import (
	"fmt"
	"strings"
)

// Dialect names.
const (
	MSSQL    = "mssql"
	Postgres = "postgres"
	MySQL    = "mysql"
	SQLite   = "sqlite"
)

// All lists the known dialects in a stable order.
var All = []string{MSSQL, Postgres, MySQL, SQLite}

// Parse normalizes a dialect name. Driver names wrapped with a suffix
// (for example "sqlite3" or "postgresql") map onto the base dialect.
func Parse(name string) (string, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch {
	case n == "":
		return MSSQL, nil
	case n == "sqlserver" || strings.HasPrefix(n, MSSQL):
		return MSSQL, nil
	case strings.HasPrefix(n, Postgres) || n == "pg":
		return Postgres, nil
	case strings.HasPrefix(n, MySQL):
		return MySQL, nil
	case strings.HasPrefix(n, SQLite):
		return SQLite, nil
	}
	return "", fmt.Errorf("dialect: unknown dialect %q", name)
}

// DefaultNamespace returns the schema a table lives in when its schema
// does not set one.
func DefaultNamespace(d string) string {
	switch d {
	case Postgres:
		return "public"
	case SQLite:
		return "main"
	case MySQL:
		return ""
	}
	return "dbo"
}
