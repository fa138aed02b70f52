package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/msto63/intake/internal/intake/form"
	"github.com/msto63/intake/pkg/core/logging"
)

// FlatStore appends records as CSV rows to a single file. The file is never
// truncated or rewritten and carries no header row.
type FlatStore struct {
	path   string
	logger *logging.Logger
}

// NewFlatStore creates a flat store for path
func NewFlatStore(path string, logger *logging.Logger) *FlatStore {
	if path == "" {
		path = DefaultFlatPath
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &FlatStore{path: path, logger: logger}
}

// Path returns the file location
func (s *FlatStore) Path() string { return s.path }

// Append writes one row in field order, creating the file if needed
func (s *FlatStore) Append(rec form.Record) (err error) {
	if err := checkRecord(rec); err != nil {
		return err
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open flat file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close flat file: %w", cerr)
		}
	}()

	w := csv.NewWriter(f)
	w.UseCRLF = true
	if err := w.Write(rec.Values()); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush row: %w", err)
	}

	s.logger.Debug("Row appended", "path", s.path)
	return nil
}

// ReadAll returns every row of the file in append order. A missing file
// yields no rows.
func (s *FlatStore) ReadAll() ([]form.Record, error) {
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return []form.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open flat file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse flat file: %w", err)
	}

	out := make([]form.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, form.NewRecord(row...))
	}
	return out, nil
}
