// Package sqlcheck runs generated DDL against a live database without
// keeping it. Statements execute inside one transaction that is always
// rolled back, so the database is left as it was found.
//
// Only databases with transactional DDL are supported: SQLite (the
// modernc driver, "sqlite") and PostgreSQL (lib/pq as "postgres" or pgx as
// "pgx").
package sqlcheck

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	"github.com/lib/pq"
	_ "modernc.org/sqlite" // driver: sqlite

	"github.com/syssam/domgen/dialect"
)

// drivers maps the supported database/sql drivers onto their dialect.
var drivers = map[string]string{
	"sqlite":   dialect.SQLite,
	"postgres": dialect.Postgres,
	"pgx":      dialect.Postgres,
}

// Drivers returns the supported driver names, sorted.
func Drivers() []string {
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Dialect returns the dialect DDL must be planned for to run on driver.
func Dialect(driver string) (string, error) {
	d, ok := drivers[driver]
	if !ok {
		return "", fmt.Errorf("sqlcheck: unsupported driver %q, expected one of %v", driver, Drivers())
	}
	return d, nil
}

// Open opens and pings a database. SQLite databases are limited to one
// connection so in-memory databases survive across statements.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	if _, err := Dialect(driver); err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlcheck: open: %w", err)
	}
	if driver == "sqlite" {
		db.SetMaxOpenConns(1)
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlcheck: ping: %w", err)
	}
	return db, nil
}

// TxBeginner is implemented by *sql.DB and *sql.Conn.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// StatementError reports the statement a check failed on.
type StatementError struct {
	// Index is the position of the statement in the checked list.
	Index     int
	Statement string
	// Code is the SQLSTATE of the failure when the driver reports one.
	Code string
	Err  error
}

func (e *StatementError) Error() string {
	stmt := strings.Join(strings.Fields(e.Statement), " ")
	if len(stmt) > 80 {
		stmt = stmt[:77] + "..."
	}
	if e.Code != "" {
		return fmt.Sprintf("sqlcheck: statement %d (%s): %s: %v", e.Index, stmt, e.Code, e.Err)
	}
	return fmt.Sprintf("sqlcheck: statement %d (%s): %v", e.Index, stmt, e.Err)
}

func (e *StatementError) Unwrap() error { return e.Err }

// Check executes stmts in order inside a transaction and rolls it back.
// It stops at the first failing statement and returns a *StatementError.
// Blank statements are skipped.
func Check(ctx context.Context, db TxBeginner, stmts []string) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlcheck: begin: %w", err)
	}
	defer func() {
		if rerr := tx.Rollback(); rerr != nil && !errors.Is(rerr, sql.ErrTxDone) && err == nil {
			err = fmt.Errorf("sqlcheck: rollback: %w", rerr)
		}
	}()
	for i, stmt := range stmts {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return &StatementError{Index: i, Statement: stmt, Code: sqlState(err), Err: err}
		}
	}
	return nil
}

// sqlState extracts the SQLSTATE of PostgreSQL errors.
func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}
