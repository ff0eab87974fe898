package sqlcheck

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/domgen/compiler/gen/atlasddl"
	"github.com/syssam/domgen/dialect/sqlschema"
	"github.com/syssam/domgen/schema"
)

func TestCheckRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE a").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE b").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	require.NoError(t, Check(context.Background(), db, []string{"CREATE TABLE a (id int)", "  ", "CREATE TABLE b (id int)"}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckStatementError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{name: "plain", err: errors.New("syntax error")},
		{name: "pgx", err: &pgconn.PgError{Code: "42P07", Message: "relation exists"}, code: "42P07"},
		{name: "pq", err: &pq.Error{Code: "42601", Message: "syntax error"}, code: "42601"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			mock.ExpectBegin()
			mock.ExpectExec("CREATE TABLE a").WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectExec("CREATE TABLE b").WillReturnError(tt.err)
			mock.ExpectRollback()

			err = Check(context.Background(), db, []string{"CREATE TABLE a (id int)", "CREATE TABLE b (id int)", "CREATE TABLE c (id int)"})
			var serr *StatementError
			require.ErrorAs(t, err, &serr)
			assert.Equal(t, 1, serr.Index)
			assert.Equal(t, "CREATE TABLE b (id int)", serr.Statement)
			assert.Equal(t, tt.code, serr.Code)
			assert.ErrorIs(t, err, tt.err)
			assert.Contains(t, err.Error(), "statement 1 (CREATE TABLE b (id int))")
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCheckBeginAndRollbackErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin().WillReturnError(errors.New("no connection"))
	assert.ErrorContains(t, Check(context.Background(), db, []string{"SELECT 1"}), "begin")

	mock.ExpectBegin()
	mock.ExpectExec("SELECT 1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback().WillReturnError(errors.New("connection lost"))
	assert.ErrorContains(t, Check(context.Background(), db, []string{"SELECT 1"}), "rollback")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckSQLite(t *testing.T) {
	set, err := schema.NewSet(func(set *schema.Set) {
		set.Schema("Core", func(s *schema.Schema) {
			s.ObjectType("User", func(o *schema.ObjectType) {
				o.Integer("id").PrimaryKey()
				o.String("email", 255)
				o.IEnum("status", schema.EnumValue{Label: "ACTIVE", Ordinal: 1}, schema.EnumValue{Label: "LOCKED", Ordinal: 2})
				o.UniqueConstraint("email")
			})
			s.ObjectType("Order", func(o *schema.ObjectType) {
				o.Integer("id").PrimaryKey()
				o.Reference("customer", "User")
				o.Boolean("paid")
			})
		})
	}, schema.WithFacet(sqlschema.Facet{}))
	require.NoError(t, err)

	ctx := context.Background()
	d, err := Dialect("sqlite")
	require.NoError(t, err)
	stmts, err := atlasddl.Plan(ctx, set, d)
	require.NoError(t, err)

	db, err := Open(ctx, "sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Check(ctx, db, stmts))

	var n int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT count(*) FROM sqlite_master WHERE type = 'table'").Scan(&n))
	assert.Zero(t, n, "checked tables must not survive the check")

	// Planning twice creates the tables twice.
	err = Check(ctx, db, append(stmts, stmts[0]))
	var serr *StatementError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, len(stmts), serr.Index)
}

func TestDialect(t *testing.T) {
	tests := []struct {
		driver string
		want   string
		err    bool
	}{
		{driver: "sqlite", want: "sqlite"},
		{driver: "postgres", want: "postgres"},
		{driver: "pgx", want: "postgres"},
		{driver: "mysql", err: true},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			got, err := Dialect(tt.driver)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, []string{"pgx", "postgres", "sqlite"}, Drivers())

	_, err := Open(context.Background(), "mysql", "")
	assert.ErrorContains(t, err, "unsupported driver")
}
