package ledger

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Matches rows at the prefix or below it. Takes the prefix three times.
// LIKE is avoided since names may contain % and _.
const underPrefix = `(branch = ? OR substr(branch, 1, length(?) + 1) = ? || '/')`

const selectRows = `SELECT id, created_time, transaction_date, branch, cashflow, description FROM accountbook`

// SQLiteStore keeps rows in an SQLite database file.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
	log zerolog.Logger
}

// SQLiteOption configures an SQLiteStore.
type SQLiteOption func(*SQLiteStore)

// WithClock sets the clock used for creation times.
func WithClock(now func() time.Time) SQLiteOption {
	return func(s *SQLiteStore) {
		s.now = now
	}
}

// WithLogger sets the logger for query events.
func WithLogger(log zerolog.Logger) SQLiteOption {
	return func(s *SQLiteStore) {
		s.log = log
	}
}

// OpenSQLite opens the database at path, creating it and applying pending
// migrations as needed.
func OpenSQLite(ctx context.Context, path string, opts ...SQLiteOption) (*SQLiteStore, error) {
	s := &SQLiteStore{now: time.Now, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	if err := Migrate(path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dsn(path)+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A second connection would wait on the first one's transaction.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s.db = db
	s.log.Debug().Str("path", path).Msg("ledger database opened")
	return s, nil
}

// dsn turns a file path into an SQLite URI so that "?" and "#" in the path
// are not read as the start of query parameters.
func dsn(path string) string {
	return "file:" + (&url.URL{Path: path}).EscapedPath()
}

// Migrate applies the embedded migrations to the database at path.
func Migrate(path string) error {
	migrateDB, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer func() { _ = migrateDB.Close() }()

	driver, err := sqlite.WithInstance(migrateDB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite driver: %w", err)
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Rows implements Reader.
func (s *SQLiteStore) Rows(ctx context.Context, q Query) ([]Row, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}

	var (
		where []string
		args  []any
	)
	if q.Subtree {
		where = append(where, underPrefix)
		args = append(args, q.Branch, q.Branch, q.Branch)
	} else {
		where = append(where, "branch = ?")
		args = append(args, q.Branch)
	}
	if !q.Range.From.IsZero() {
		where = append(where, "transaction_date >= ?")
		args = append(args, q.Range.From.Format(DateLayout))
	}
	if !q.Range.To.IsZero() {
		where = append(where, "transaction_date <= ?")
		args = append(args, q.Range.To.Format(DateLayout))
	}

	order := "transaction_date, created_time, id"
	if q.Order == ByCreated {
		order = "created_time, transaction_date, id"
	}

	query := selectRows + " WHERE " + strings.Join(where, " AND ") + " ORDER BY " + order
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Row
	for rows.Next() {
		var (
			r       Row
			created int64
			date    string
		)
		if err := rows.Scan(&r.ID, &created, &date, &r.Branch, &r.Amount, &r.Description); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		r.CreatedAt = time.Unix(0, created).UTC()
		if r.Date, err = time.Parse(DateLayout, date); err != nil {
			return nil, fmt.Errorf("row %d: %w", r.ID, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	s.log.Debug().Str("branch", q.Branch).Bool("subtree", q.Subtree).Int("rows", len(out)).Msg("rows selected")
	return out, nil
}

// Count implements Reader.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accountbook`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count rows: %w", err)
	}
	return n, nil
}

// Insert implements Writer.
func (s *SQLiteStore) Insert(ctx context.Context, e Entry) (Row, error) {
	return s.writer(s.db).Insert(ctx, e)
}

// Remove implements Writer.
func (s *SQLiteStore) Remove(ctx context.Context, id int64) error {
	return s.writer(s.db).Remove(ctx, id)
}

// RemoveBranch implements Writer.
func (s *SQLiteStore) RemoveBranch(ctx context.Context, path string) (int64, error) {
	return s.writer(s.db).RemoveBranch(ctx, path)
}

// DeleteUnder implements Writer.
func (s *SQLiteStore) DeleteUnder(ctx context.Context, prefix string) (int64, error) {
	return s.writer(s.db).DeleteUnder(ctx, prefix)
}

// MoveUnder implements Writer.
func (s *SQLiteStore) MoveUnder(ctx context.Context, from, to string) (int64, error) {
	return s.writer(s.db).MoveUnder(ctx, from, to)
}

// Update implements Store.
func (s *SQLiteStore) Update(ctx context.Context, fn func(w Writer) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(s.writer(tx)); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) writer(q execer) *sqliteWriter {
	return &sqliteWriter{q: q, now: s.now}
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type sqliteWriter struct {
	q   execer
	now func() time.Time
}

func (w *sqliteWriter) Insert(ctx context.Context, e Entry) (Row, error) {
	row := Row{
		Date:        Day(e.Date),
		Branch:      e.Branch,
		Amount:      e.Amount,
		Description: e.Description,
		CreatedAt:   w.now().UTC(),
	}
	res, err := w.q.ExecContext(ctx,
		`INSERT INTO accountbook (created_time, transaction_date, branch, cashflow, description) VALUES (?, ?, ?, ?, ?)`,
		row.CreatedAt.UnixNano(), row.Date.Format(DateLayout), row.Branch, row.Amount, row.Description,
	)
	if err != nil {
		return Row{}, fmt.Errorf("insert row: %w", err)
	}
	if row.ID, err = res.LastInsertId(); err != nil {
		return Row{}, fmt.Errorf("insert row: %w", err)
	}
	return row, nil
}

func (w *sqliteWriter) Remove(ctx context.Context, id int64) error {
	n, err := w.exec(ctx, `DELETE FROM accountbook WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete row %d: %w", id, err)
	}
	if n == 0 {
		return ErrRowNotFound
	}
	return nil
}

func (w *sqliteWriter) RemoveBranch(ctx context.Context, path string) (int64, error) {
	n, err := w.exec(ctx, `DELETE FROM accountbook WHERE branch = ?`, path)
	if err != nil {
		return 0, fmt.Errorf("delete rows at %s: %w", path, err)
	}
	return n, nil
}

func (w *sqliteWriter) DeleteUnder(ctx context.Context, prefix string) (int64, error) {
	n, err := w.exec(ctx, `DELETE FROM accountbook WHERE `+underPrefix, prefix, prefix, prefix)
	if err != nil {
		return 0, fmt.Errorf("delete rows under %s: %w", prefix, err)
	}
	return n, nil
}

func (w *sqliteWriter) MoveUnder(ctx context.Context, from, to string) (int64, error) {
	n, err := w.exec(ctx,
		`UPDATE accountbook SET branch = ? || substr(branch, length(?) + 1) WHERE `+underPrefix,
		to, from, from, from, from,
	)
	if err != nil {
		return 0, fmt.Errorf("move rows from %s to %s: %w", from, to, err)
	}
	return n, nil
}

func (w *sqliteWriter) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := w.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
