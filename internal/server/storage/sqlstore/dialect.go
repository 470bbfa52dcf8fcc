package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*/*.sql
var Migrations embed.FS

// Dialect is the SQL flavour of a database.
type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

func (d Dialect) String() string {
	if d == SQLite {
		return "sqlite"
	}
	return "postgres"
}

func (d Dialect) driver() string {
	if d == SQLite {
		return "sqlite"
	}
	return "pgx"
}

func (d Dialect) gooseDialect() string {
	if d == SQLite {
		return "sqlite3"
	}
	return "pgx"
}

// rebind rewrites ? placeholders into the dialect's form.
func (d Dialect) rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// noLimit is the LIMIT clause that keeps every row, needed before OFFSET.
func (d Dialect) noLimit() string {
	if d == SQLite {
		return " LIMIT -1"
	}
	return " LIMIT ALL"
}

// ParseDSN picks the dialect for dsn. postgres:// and postgresql:// URLs
// select Postgres; sqlite:<path> selects SQLite with <path> as the
// driver's data source.
func ParseDSN(dsn string) (Dialect, string, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return Postgres, dsn, nil
	case strings.HasPrefix(dsn, "sqlite:"):
		return SQLite, strings.TrimPrefix(dsn, "sqlite:"), nil
	default:
		return 0, "", fmt.Errorf("unsupported database dsn %q", dsn)
	}
}

// Open connects to dsn and migrates the schema.
func Open(ctx context.Context, dsn string) (*sql.DB, Dialect, error) {
	d, source, err := ParseDSN(dsn)
	if err != nil {
		return nil, 0, err
	}

	db, err := sql.Open(d.driver(), source)
	if err != nil {
		return nil, 0, fmt.Errorf("db open error: %w", err)
	}
	if d == SQLite {
		// one writer at a time; a shared connection also keeps :memory: alive
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, 0, fmt.Errorf("db ping error: %w", err)
	}

	if err := RunMigrations(ctx, db, d); err != nil {
		_ = db.Close()
		return nil, 0, fmt.Errorf("db migration error: %w", err)
	}
	return db, d, nil
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded migrations of dialect d.
func RunMigrations(ctx context.Context, db *sql.DB, d Dialect) error {
	goose.SetBaseFS(Migrations)
	if err := goose.SetDialect(d.gooseDialect()); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, "migrations/"+d.String())
}
