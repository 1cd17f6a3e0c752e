package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func newSQLMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func assertSQLMock(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sql expectations: %v", err)
	}
}

func TestExecuteShapesRows(t *testing.T) {
	db, mock := newSQLMock(t)
	executor := NewExecutor(db, time.Second, 100)

	statement := "SELECT project_id, total FROM agg LIMIT 10"
	mock.ExpectQuery(regexp.QuoteMeta(statement)).
		WillReturnRows(sqlmock.NewRows([]string{"project_id", "total"}).
			AddRow("acme", 12.5).
			AddRow([]byte("beta"), 7.0))

	result, err := executor.Execute(context.Background(), statement)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(result.Columns) != 2 || result.Columns[0] != "project_id" {
		t.Fatalf("Columns = %v", result.Columns)
	}
	if len(result.Rows) != 2 || result.Truncated {
		t.Fatalf("Rows = %v truncated = %v", result.Rows, result.Truncated)
	}
	// Byte slices come back as strings so the rows JSON-encode cleanly.
	if result.Rows[1]["project_id"] != "beta" {
		t.Fatalf("row value = %#v, want string", result.Rows[1]["project_id"])
	}
	assertSQLMock(t, mock)
}

func TestExecuteCapsRows(t *testing.T) {
	db, mock := newSQLMock(t)
	executor := NewExecutor(db, time.Second, 2)

	statement := "SELECT n FROM numbers"
	rows := sqlmock.NewRows([]string{"n"})
	for n := 1; n <= 5; n++ {
		rows.AddRow(n)
	}
	mock.ExpectQuery(regexp.QuoteMeta(statement)).WillReturnRows(rows)

	result, err := executor.Execute(context.Background(), statement)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("len(Rows) = %d, want cap of 2", len(result.Rows))
	}
	if !result.Truncated {
		t.Fatal("Truncated = false, want true past the row cap")
	}
}

func TestExecutePropagatesQueryError(t *testing.T) {
	db, mock := newSQLMock(t)
	executor := NewExecutor(db, time.Second, 100)

	mock.ExpectQuery("SELECT boom").WillReturnError(sql.ErrConnDone)

	if _, err := executor.Execute(context.Background(), "SELECT boom"); err == nil {
		t.Fatal("expected error from failed query")
	}
}

func TestOpenRequiresDSN(t *testing.T) {
	if _, err := Open(context.Background(), Config{}); err == nil {
		t.Fatal("expected error for empty DSN")
	}
}
