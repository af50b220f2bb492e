package engine

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/duckdb/duckdb-go/v2"
)

// execer is the slice of *sql.Conn the build pipeline needs.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// openDuck opens an in-memory DuckDB handle. All artifact state lives in
// parquet files; the database itself is scratch space for builds and scans.
func openDuck() (*sql.DB, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}

	// A single connection keeps temp views visible across statements of one
	// build; reads clone cheaply from the same process-wide instance.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(0)

	return db, nil
}
