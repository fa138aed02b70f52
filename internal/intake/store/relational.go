package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/msto63/intake/internal/intake/form"
	"github.com/msto63/intake/pkg/core/logging"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// errNoDatabase signals a read of a database file that does not exist yet
var errNoDatabase = errors.New("database does not exist")

// Opener returns a connection pool; readOnly connections must not create the file
type Opener func(readOnly bool) (*sql.DB, error)

// RelationalConfig holds configuration for the SQLite store
type RelationalConfig struct {
	Path  string
	Table string
}

// RelationalStore writes and reads records in a SQLite table. Every call
// opens its own connection and closes it before returning.
type RelationalStore struct {
	path    string
	table   string
	columns []string
	open    Opener
	logger  *logging.Logger
}

// Option configures a RelationalStore
type Option func(*RelationalStore)

// WithOpener replaces the SQLite opener
func WithOpener(open Opener) Option {
	return func(s *RelationalStore) { s.open = open }
}

// NewRelationalStore creates a store. The table name must be a plain identifier.
func NewRelationalStore(cfg RelationalConfig, logger *logging.Logger, opts ...Option) (*RelationalStore, error) {
	if cfg.Path == "" {
		cfg.Path = DefaultDatabasePath
	}
	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}
	if !identifierPattern.MatchString(cfg.Table) {
		return nil, fmt.Errorf("invalid table name %q", cfg.Table)
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	s := &RelationalStore{
		path:    cfg.Path,
		table:   cfg.Table,
		columns: Columns(),
		logger:  logger,
	}
	s.open = s.openSQLite
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Path returns the database file location
func (s *RelationalStore) Path() string { return s.path }

func (s *RelationalStore) openSQLite(readOnly bool) (*sql.DB, error) {
	if readOnly {
		if _, err := os.Stat(s.path); os.IsNotExist(err) {
			return nil, errNoDatabase
		}
		return sql.Open("sqlite3", "file:"+s.path+"?mode=ro")
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}
	return sql.Open("sqlite3", s.path)
}

func (s *RelationalStore) schema() string {
	cols := make([]string, 0, len(s.columns)+1)
	cols = append(cols, IDColumn+" INTEGER PRIMARY KEY AUTOINCREMENT")
	for _, c := range s.columns {
		cols = append(cols, c+" TEXT")
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", s.table, strings.Join(cols, ", "))
}

func (s *RelationalStore) closeDB(db *sql.DB) {
	if err := db.Close(); err != nil {
		s.logger.Warn("Failed to close database", "path", s.path, "error", err)
	}
}

// EnsureSchema creates the table if it does not exist. Existing rows are untouched.
func (s *RelationalStore) EnsureSchema(ctx context.Context) error {
	db, err := s.open(false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer s.closeDB(db)

	return s.ensureSchema(ctx, db)
}

func (s *RelationalStore) ensureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, s.schema()); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Insert stores the record and returns the assigned row id
func (s *RelationalStore) Insert(ctx context.Context, rec form.Record) (int64, error) {
	if err := checkRecord(rec); err != nil {
		return 0, err
	}

	db, err := s.open(false)
	if err != nil {
		return 0, fmt.Errorf("failed to open database: %w", err)
	}
	defer s.closeDB(db)

	if err := s.ensureSchema(ctx, db); err != nil {
		return 0, err
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(s.columns)), ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", s.table, strings.Join(s.columns, ", "), placeholders)

	values := rec.Values()
	args := make([]interface{}, len(values))
	for i, v := range values {
		args[i] = v
	}

	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read row id: %w", err)
	}

	s.logger.Debug("Row inserted", "table", s.table, "row_id", id)
	return id, nil
}

// ListAll returns every persisted row in ascending id order over a read-only
// connection. A missing database file or table yields an empty slice.
func (s *RelationalStore) ListAll(ctx context.Context) ([]PersistedRow, error) {
	db, err := s.open(true)
	if errors.Is(err, errNoDatabase) {
		return []PersistedRow{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer s.closeDB(db)

	var name string
	err = db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", s.table,
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return []PersistedRow{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to inspect schema: %w", err)
	}

	query := fmt.Sprintf("SELECT %s, %s FROM %s ORDER BY %s ASC",
		IDColumn, strings.Join(s.columns, ", "), s.table, IDColumn)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	out := []PersistedRow{}
	for rows.Next() {
		var id int64
		cells := make([]sql.NullString, len(s.columns))
		dest := make([]interface{}, 0, len(cells)+1)
		dest = append(dest, &id)
		for i := range cells {
			dest = append(dest, &cells[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}

		values := make([]string, len(cells))
		for i, c := range cells {
			values[i] = c.String
		}
		out = append(out, PersistedRow{ID: id, Record: form.NewRecord(values...)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}
	return out, nil
}
