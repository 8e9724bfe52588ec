// Package history persists evaluated expressions in a SQLite database.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pengelbrecht/calc/internal/calculator"
)

//go:embed schema.sql
var schemaSQL string

// ErrNotFound is returned when a history entry doesn't exist.
var ErrNotFound = errors.New("history entry not found")

// Entry is one recorded evaluation. Result is nil when evaluation failed.
type Entry struct {
	ID        string        `json:"id"`
	Op        calculator.Op `json:"op"`
	A         int           `json:"a"`
	B         int           `json:"b"`
	Result    *int          `json:"result,omitempty"`
	Err       string        `json:"error,omitempty"`
	Mode      string        `json:"mode"`
	Source    string        `json:"source,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// Expr returns the entry's expression.
func (e Entry) Expr() calculator.Expr {
	return calculator.Expr{A: e.A, Op: e.Op, B: e.B}
}

// NewEntry builds an entry from an evaluation outcome.
func NewEntry(expr calculator.Expr, mode calculator.Mode, result int, err error) Entry {
	e := Entry{Op: expr.Op, A: expr.A, B: expr.B, Mode: mode.String()}
	if err != nil {
		e.Err = err.Error()
	} else {
		e.Result = &result
	}
	return e
}

// Store manages the history database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens the history database at path, creating parent
// directories as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect history: %w", err)
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record saves an entry, assigning ID and CreatedAt when unset.
func (s *Store) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now().UTC()
	}

	var result sql.NullInt64
	if e.Result != nil {
		result = sql.NullInt64{Int64: int64(*e.Result), Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO entries (id, op, a, b, result, err, mode, source, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.Op), e.A, e.B, result, e.Err, e.Mode, e.Source, e.CreatedAt.UnixNano(),
	)
	if err != nil {
		return Entry{}, fmt.Errorf("insert history entry: %w", err)
	}
	return e, nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, op, a, b, result, err, mode, source, created_at
		 FROM entries ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}

// Get loads a single entry by ID.
// Returns ErrNotFound if no entry exists.
func (s *Store) Get(ctx context.Context, id string) (Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, op, a, b, result, err, mode, source, created_at
		 FROM entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	return e, err
}

// Clear deletes every entry and returns how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM entries`)
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (Entry, error) {
	var (
		e       Entry
		op      string
		result  sql.NullInt64
		created int64
	)
	if err := sc.Scan(&e.ID, &op, &e.A, &e.B, &result, &e.Err, &e.Mode, &e.Source, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, err
		}
		return Entry{}, fmt.Errorf("scan history entry: %w", err)
	}
	e.Op = calculator.Op(op)
	if result.Valid {
		n := int(result.Int64)
		e.Result = &n
	}
	e.CreatedAt = time.Unix(0, created).UTC()
	return e, nil
}
