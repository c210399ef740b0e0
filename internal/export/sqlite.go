// Package export snapshots the CSV collections into a SQLite database
// file for ad-hoc analysis. The snapshot is read-only output; the CSV files
// stay the system of record.
package export

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/salesdesk/internal/csvstore"
)

// Source is one collection to snapshot.
type Source interface {
	Kind() string
	Columns() []csvstore.Column
	Export() ([]string, [][]string, error)
}

// Summary counts the rows written per table.
type Summary map[string]int

// TableName maps a record kind to its SQL table name.
func TableName(kind string) string {
	return strings.ReplaceAll(kind, "-", "_")
}

// ToSQLite writes every source into a fresh database at path, replacing
// any existing file. Each kind becomes one table with typed columns and
// id as primary key.
func ToSQLite(ctx context.Context, path string, sources ...Source) (Summary, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("remove old export: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open export: %w", err)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin export: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	summary := make(Summary, len(sources))
	for _, src := range sources {
		n, err := writeTable(ctx, tx, src)
		if err != nil {
			return nil, fmt.Errorf("export %s: %w", src.Kind(), err)
		}
		summary[TableName(src.Kind())] = n
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit export: %w", err)
	}
	return summary, nil
}

func writeTable(ctx context.Context, tx *sql.Tx, src Source) (int, error) {
	cols := src.Columns()
	header, rows, err := src.Export()
	if err != nil {
		return 0, err
	}
	if len(header) != len(cols) {
		return 0, fmt.Errorf("header has %d columns, schema %d", len(header), len(cols))
	}

	name := TableName(src.Kind())
	if _, err := tx.ExecContext(ctx, createTable(name, cols)); err != nil {
		return 0, fmt.Errorf("create table: %w", err)
	}

	quoted := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quote(c.Name)
		marks[i] = "?"
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quote(name), strings.Join(quoted, ", "), strings.Join(marks, ", ")))
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		args := make([]any, len(cols))
		for i, c := range cols {
			if args[i], err = sqlValue(c, row[i]); err != nil {
				return 0, fmt.Errorf("row %s column %s: %w", row[0], c.Name, err)
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("insert: %w", err)
		}
	}
	return len(rows), nil
}

func createTable(name string, cols []csvstore.Column) string {
	defs := make([]string, len(cols))
	for i, c := range cols {
		def := quote(c.Name) + " " + c.Type.String()
		switch {
		case c.Name == "id":
			def += " PRIMARY KEY"
		case !c.Nullable:
			def += " NOT NULL"
		}
		defs[i] = def
	}
	return fmt.Sprintf("CREATE TABLE %s (\n    %s\n);", quote(name), strings.Join(defs, ",\n    "))
}

// sqlValue converts an encoded cell to the value stored in SQLite.
// Timestamps and JSON stay text.
func sqlValue(c csvstore.Column, cell string) (any, error) {
	if cell == "" && c.Nullable {
		return nil, nil
	}
	switch c.Type {
	case csvstore.Int:
		return strconv.ParseInt(cell, 10, 64)
	case csvstore.Float:
		return strconv.ParseFloat(cell, 64)
	case csvstore.Bool:
		if cell == "" {
			return false, nil
		}
		return strconv.ParseBool(cell)
	default:
		return cell, nil
	}
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
