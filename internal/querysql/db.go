package querysql

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/taxilang/taxilang-sub000/internal/ir"
	"github.com/taxilang/taxilang-sub000/internal/queryir"
)

// DB is a SQLite database holding one table per model type that a view
// finds. Views run against it as compiled statements.
type DB struct {
	db       *sql.DB
	compiler *SQLCompiler
}

// Open creates or opens a SQLite database at the given path. Use ":memory:"
// for a throwaway database.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - 5-second busy timeout for lock contention
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	return &DB{db: db, compiler: NewSQLCompiler()}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// ViewTables returns the model types read by any view of doc, sorted by
// name.
func ViewTables(doc *ir.Document) []*ir.ObjectType {
	seen := map[*ir.ObjectType]bool{}
	var out []*ir.ObjectType
	for _, v := range doc.Views() {
		for _, f := range v.Finds {
			for _, t := range f.Types {
				obj, ok := ir.Unwrap(ir.CollectionMember(t)).(*ir.ObjectType)
				if ok && !seen[obj] {
					seen[obj] = true
					out = append(out, obj)
				}
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// CreateTable renders the DDL for a model type's table.
func CreateTable(obj *ir.ObjectType) string {
	cols := queryir.TableColumns(obj)
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = QuoteIdent(c.Name) + " " + columnType(c.Type)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		QuoteIdent(queryir.TableName(obj)), strings.Join(defs, ", "))
}

func columnType(p *ir.Primitive) string {
	switch p {
	case ir.Int, ir.Boolean:
		return "INTEGER"
	case ir.Decimal:
		return "NUMERIC"
	case ir.Double:
		return "REAL"
	default:
		return "TEXT"
	}
}

// CreateTables creates the table of every model type a view of doc reads.
// This function is idempotent.
func (d *DB) CreateTables(ctx context.Context, doc *ir.Document) error {
	for _, obj := range ViewTables(doc) {
		if _, err := d.db.ExecContext(ctx, CreateTable(obj)); err != nil {
			return fmt.Errorf("create table %s: %w", obj.Name(), err)
		}
	}
	return nil
}

// Insert adds one row to a model type's table. Row keys are column names,
// dotted for nested fields.
func (d *DB) Insert(ctx context.Context, obj *ir.ObjectType, row map[string]any) error {
	known := map[string]bool{}
	for _, c := range queryir.TableColumns(obj) {
		known[c.Name] = true
	}
	names := make([]string, 0, len(row))
	for name := range row {
		if !known[name] {
			return fmt.Errorf("%s has no column %s", obj.Name(), name)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	cols := make([]string, len(names))
	marks := make([]string, len(names))
	args := make([]any, len(names))
	for i, name := range names {
		cols[i] = QuoteIdent(name)
		marks[i] = "?"
		args[i] = row[name]
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		QuoteIdent(queryir.TableName(obj)), strings.Join(cols, ", "), strings.Join(marks, ", "))
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert into %s: %w", obj.Name(), err)
	}
	return nil
}

// QueryView runs a view and returns its rows keyed by column name.
func (d *DB) QueryView(ctx context.Context, v *ir.View) ([]map[string]any, error) {
	stmt, err := d.compiler.CompileView(v)
	if err != nil {
		return nil, err
	}
	rows, err := d.db.QueryContext(ctx, stmt.SQL, stmt.Params...)
	if err != nil {
		return nil, fmt.Errorf("query view %s: %w", v.Name, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []map[string]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan view %s: %w", v.Name, err)
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			if b, ok := vals[i].([]byte); ok {
				vals[i] = string(b)
			}
			row[c] = vals[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
