// ============================================================================
// meinDENKWERK (mDW) - Voice Intake
// ============================================================================
//
// Package:     store
// Description: Dual persistence of intake records (flat file + SQLite)
// Author:      Mike Stoffels
// Created:     2025-12-14
// License:     MIT
// ============================================================================

package store

import (
	"errors"
	"fmt"

	"github.com/msto63/intake/internal/intake/form"
)

// Default locations and names
const (
	DefaultFlatPath     = "healthcare_data.csv"
	DefaultDatabasePath = "healthcare_data.db"
	DefaultTable        = "healthcare_records"

	// IDColumn is the auto-assigned row identifier
	IDColumn = "S_NO"
)

// ErrIncompleteRecord is returned when a record does not carry one value per column
var ErrIncompleteRecord = errors.New("record does not match the column set")

// Sink names one of the two persistence targets
type Sink string

const (
	SinkFlat       Sink = "flat"
	SinkRelational Sink = "relational"
)

// WriteError reports a failed write to one sink
type WriteError struct {
	Sink Sink
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s store %s: %v", e.Sink, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// PersistedRow is a record read back from the relational store
type PersistedRow struct {
	ID     int64
	Record form.Record
}

// Columns returns the value columns in field order
func Columns() []string {
	names := form.FieldNames()
	cols := make([]string, len(names))
	for i, n := range names {
		cols[i] = string(n)
	}
	return cols
}

func checkRecord(rec form.Record) error {
	if !rec.Complete() {
		return fmt.Errorf("%w: got %d values, want %d", ErrIncompleteRecord, rec.Len(), len(form.Definitions))
	}
	return nil
}
