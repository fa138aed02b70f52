package store

import (
	"context"
	"errors"

	"github.com/msto63/intake/internal/intake/form"
	"github.com/msto63/intake/pkg/core/logging"
)

// FlatWriter appends a record to the flat sink
type FlatWriter interface {
	Append(rec form.Record) error
}

// RowWriter inserts a record into the relational sink
type RowWriter interface {
	Insert(ctx context.Context, rec form.Record) (int64, error)
}

// PersistResult reports the outcome of both writes
type PersistResult struct {
	FlatOK        bool
	RelationalOK  bool
	RowID         int64
	FlatErr       error
	RelationalErr error
}

// OK reports whether both sinks accepted the record
func (r PersistResult) OK() bool {
	return r.FlatOK && r.RelationalOK
}

// Err joins the per-sink errors, nil when both succeeded
func (r PersistResult) Err() error {
	return errors.Join(r.FlatErr, r.RelationalErr)
}

// Persister writes each record to the flat store and then the relational
// store. The writes are independent: a failure in one never prevents or
// rolls back the other.
type Persister struct {
	flat       FlatWriter
	relational RowWriter
	flatPath   string
	dbPath     string
	logger     *logging.Logger
}

// NewPersister creates a persister over both sinks
func NewPersister(flat *FlatStore, relational *RelationalStore, logger *logging.Logger) *Persister {
	p := newPersister(flat, relational, logger)
	p.flatPath = flat.Path()
	p.dbPath = relational.Path()
	return p
}

func newPersister(flat FlatWriter, relational RowWriter, logger *logging.Logger) *Persister {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Persister{flat: flat, relational: relational, logger: logger}
}

// Persist writes rec to both sinks and reports each outcome
func (p *Persister) Persist(ctx context.Context, rec form.Record) PersistResult {
	var res PersistResult

	if err := p.flat.Append(rec); err != nil {
		res.FlatErr = &WriteError{Sink: SinkFlat, Path: p.flatPath, Err: err}
		p.logger.Error("Flat write failed", "sink", string(SinkFlat), "error", err)
	} else {
		res.FlatOK = true
	}

	id, err := p.relational.Insert(ctx, rec)
	if err != nil {
		res.RelationalErr = &WriteError{Sink: SinkRelational, Path: p.dbPath, Err: err}
		p.logger.Error("Relational write failed", "sink", string(SinkRelational), "error", err)
	} else {
		res.RelationalOK = true
		res.RowID = id
	}

	p.logger.Info("Record persisted",
		"flat_ok", res.FlatOK,
		"relational_ok", res.RelationalOK,
		"row_id", res.RowID,
	)
	return res
}
