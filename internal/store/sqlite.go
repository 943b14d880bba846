package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // "sqlite3" driver (cgo)
	_ "modernc.org/sqlite"          // "sqlite" driver (pure Go)

	"github.com/roach88/querykit/internal/ir"
	"github.com/roach88/querykit/internal/plan"
	"github.com/roach88/querykit/internal/querysql"
	"github.com/roach88/querykit/internal/schema"
)

// Supported database/sql driver names.
const (
	DriverCGO    = "sqlite3"
	DriverPureGo = "sqlite"
)

func init() {
	// sqlx only knows the bind style of the cgo driver name.
	sqlx.BindDriver(DriverPureGo, sqlx.QUESTION)
}

// Config selects the SQLite driver and database path.
type Config struct {
	// Driver is DriverCGO (default) or DriverPureGo.
	Driver string

	// Path is the database file, or ":memory:".
	Path string
}

// SQLite is a storage handle backed by a SQLite database.
// It is safe for use by one goroutine at a time per plan execution; the
// connection pool is limited to a single connection.
type SQLite struct {
	db *sqlx.DB
}

// Open creates or opens a SQLite database.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes (file databases)
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//
// This function is idempotent - safe to call multiple times.
func Open(ctx context.Context, cfg Config) (*SQLite, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverCGO
	}
	if driver != DriverCGO && driver != DriverPureGo {
		return nil, fmt.Errorf("unsupported driver %q (want %s or %s)", driver, DriverCGO, DriverPureGo)
	}
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is empty")
	}

	db, err := sqlx.Open(driver, cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, and a :memory: database
	// exists per connection, so keep exactly one.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := applyPragmas(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sqlx.DB for direct queries.
// Use with caution - prefer using SQLite methods when available.
func (s *SQLite) DB() *sqlx.DB {
	return s.db
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(ctx context.Context, db *sqlx.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// EnsureTables creates a table for every registered descriptor that does
// not have one yet.
func (s *SQLite) EnsureTables(ctx context.Context, reg *schema.Registry) error {
	for _, desc := range reg.All() {
		if _, err := s.db.ExecContext(ctx, createTableSQL(desc)); err != nil {
			return fmt.Errorf("create table for %s: %w", desc.Name, err)
		}
	}
	return nil
}

func createTableSQL(desc *schema.Descriptor) string {
	cols := []string{querysql.QuoteIdent(schema.IDField) + " INTEGER PRIMARY KEY"}
	for _, f := range desc.Fields {
		col := querysql.QuoteIdent(f.Name) + " " + columnType(f.Type)
		if !f.Nullable {
			col += " NOT NULL"
		}
		cols = append(cols, col)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		querysql.QuoteIdent(desc.TableName()), strings.Join(cols, ", "))
}

func columnType(t schema.FieldType) string {
	if t == schema.TypeString {
		return "TEXT"
	}
	return "INTEGER"
}

// Insert validates row against desc, stores it and returns its id.
func (s *SQLite) Insert(ctx context.Context, desc *schema.Descriptor, row ir.IRObject) (int64, error) {
	prepared, err := prepareRow(desc, row)
	if err != nil {
		return 0, err
	}

	names := prepared.SortedKeys()
	if len(names) == 0 {
		return s.insertDefaults(ctx, desc)
	}

	cols := make([]string, len(names))
	binds := make([]string, len(names))
	args := make(map[string]any, len(names))
	for i, name := range names {
		cols[i] = querysql.QuoteIdent(name)
		binds[i] = ":" + name
		param, err := querysql.Param(prepared[name])
		if err != nil {
			return 0, fmt.Errorf("insert %s: %w", desc.Name, err)
		}
		args[name] = param
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		querysql.QuoteIdent(desc.TableName()), strings.Join(cols, ", "), strings.Join(binds, ", "))

	res, err := sqlx.NamedExecContext(ctx, s.db, query, args)
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", desc.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert %s: last insert id: %w", desc.Name, err)
	}
	return id, nil
}

// insertDefaults stores a row of an entity that has no declared fields.
func (s *SQLite) insertDefaults(ctx context.Context, desc *schema.Descriptor) (int64, error) {
	query := fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", querysql.QuoteIdent(desc.TableName()))
	res, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", desc.Name, err)
	}
	return res.LastInsertId()
}

// Select executes the plan and returns its rows, keyed by projected field.
func (s *SQLite) Select(ctx context.Context, p *plan.Plan) ([]ir.IRObject, error) {
	query, params, err := querysql.Compile(p)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryxContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", p.Source().Name, err)
	}
	defer rows.Close()

	desc := p.Source()
	out := []ir.IRObject{}
	for rows.Next() {
		raw := make(map[string]any)
		if err := rows.MapScan(raw); err != nil {
			return nil, fmt.Errorf("scan %s: %w", desc.Name, err)
		}

		row := make(ir.IRObject, len(raw))
		for col, v := range raw {
			f, ok := desc.Field(col)
			if !ok {
				return nil, fmt.Errorf("scan %s: unexpected column %q", desc.Name, col)
			}
			val, err := fromColumn(f, v)
			if err != nil {
				return nil, fmt.Errorf("scan %s: %w", desc.Name, err)
			}
			row[col] = val
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", desc.Name, err)
	}
	return out, nil
}

// Count executes the counting form of the plan.
func (s *SQLite) Count(ctx context.Context, p *plan.Plan) (int64, error) {
	query, params, err := querysql.CompileCount(p)
	if err != nil {
		return 0, err
	}

	var n int64
	if err := sqlx.GetContext(ctx, s.db, &n, query, params...); err != nil {
		return 0, fmt.Errorf("count %s: %w", p.Source().Name, err)
	}
	return n, nil
}
