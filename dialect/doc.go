// Package dialect names the SQL dialects domgen can render DDL for.
//
// # Supported Dialects
//
// Each dialect is identified by a constant string:
//
//	dialect.MSSQL    = "mssql"
//	dialect.Postgres = "postgres"
//	dialect.MySQL    = "mysql"
//	dialect.SQLite   = "sqlite"
//
// MSSQL is the default dialect of the sql element; it quotes identifiers
// with brackets and places tables in the "dbo" schema unless a schema
// overrides its namespace.
//
// The Postgres and SQLite constants double as database/sql driver names
// (github.com/lib/pq and modernc.org/sqlite respectively), which is what
// dialect/sqlcheck relies on when it opens a connection.
//
// # Sub-packages
//
//   - dialect/sqlschema: the physical (table, column, index, foreign key)
//     layer derived from the logical model
//   - dialect/sqlcheck: executes generated DDL inside a rolled back
//     transaction
package dialect
