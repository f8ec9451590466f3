// Package store persists portfolio records in a relational database.
//
// SQLite (modernc.org/sqlite) is used for file paths and ":memory:";
// postgres:// URLs go through the pgx stdlib driver. Queries are written
// with ? placeholders and rebound for postgres.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/DAAIDev/AgentBoxDev/internal/apperr"
)

// timeLayout is fixed width so text columns sort chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// Store is the portfolio database.
type Store struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for created/updated stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open connects to the database named by url.
func Open(ctx context.Context, url string, opts ...Option) (*Store, error) {
	var (
		db  *sql.DB
		d   dialect
		err error
	)
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		d = dialectPostgres
		db, err = sql.Open("pgx", url)
	} else {
		d = dialectSQLite
		db, err = sql.Open("sqlite", url)
		if err == nil {
			// A single connection keeps :memory: databases alive and
			// serializes writers.
			db.SetMaxOpenConns(1)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if d == dialectSQLite {
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	s := &Store{db: db, dialect: d, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Migrate creates any missing tables.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// q rewrites ? placeholders for the active dialect.
func (s *Store) q(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) stamp() string {
	return formatTime(s.now())
}

func newID() string {
	return uuid.NewString()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(v string) time.Time {
	t, err := time.Parse(timeLayout, v)
	if err != nil {
		t, _ = time.Parse(time.RFC3339Nano, v)
	}
	return t
}

func parseNullTime(v sql.NullString) *time.Time {
	if !v.Valid || v.String == "" {
		return nil
	}
	t := parseTime(v.String)
	return &t
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeStrings(v string) []string {
	out := []string{}
	if v != "" {
		_ = json.Unmarshal([]byte(v), &out)
	}
	return out
}

func decodeMap(v string) map[string]any {
	out := map[string]any{}
	if v != "" {
		_ = json.Unmarshal([]byte(v), &out)
	}
	return out
}

func oneOf(op, field, value string, allowed []string) error {
	if slices.Contains(allowed, value) {
		return nil
	}
	return apperr.Validation(op, "invalid %s %q, expected one of %s", field, value, strings.Join(allowed, ", "))
}

// rowsAffected turns a zero-row mutation into NotFound.
func rowsAffected(res sql.Result, op, what, key string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Upstream(op, err, "failed to read affected rows")
	}
	if n == 0 {
		return apperr.NotFound(op, what, key)
	}
	return nil
}

// companyID resolves a slug. Every child operation starts here.
func (s *Store) companyID(ctx context.Context, db querier, op, slug string) (string, error) {
	var id string
	err := db.QueryRowContext(ctx, s.q("SELECT id FROM companies WHERE slug = ?"), slug).Scan(&id)
	if err == sql.ErrNoRows {
		return "", apperr.NotFound(op, "company", slug)
	}
	if err != nil {
		return "", apperr.Upstream(op, err, "failed to resolve company %s", slug)
	}
	return id, nil
}
