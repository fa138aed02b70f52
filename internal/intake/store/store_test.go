package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"

	"github.com/msto63/intake/internal/intake/form"
)

func janeDoe() form.Record {
	return form.NewRecord("Jane Doe", "34", "F", "555-0100", "headache", "3 days", "none", "next Monday")
}

func recordOf(i int) form.Record {
	n := string(rune('A' + i))
	return form.NewRecord("patient "+n, "4"+n, "", "", "symptom "+n, "", "", "")
}

func newTestStores(t *testing.T) (*FlatStore, *RelationalStore) {
	t.Helper()
	dir := t.TempDir()
	flat := NewFlatStore(filepath.Join(dir, DefaultFlatPath), nil)
	rel, err := NewRelationalStore(RelationalConfig{Path: filepath.Join(dir, DefaultDatabasePath)}, nil)
	if err != nil {
		t.Fatalf("NewRelationalStore() error = %v", err)
	}
	return flat, rel
}

func recordValues(rows []PersistedRow) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = r.Record.Values()
	}
	return out
}

func TestFlatStore_AppendKeepsCRLFRows(t *testing.T) {
	flat, _ := newTestStores(t)
	existing := "Ann Lee,29,F,555-0111,rash,1 day,none,Friday\r\n"
	if err := os.WriteFile(flat.Path(), []byte(existing), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if err := flat.Append(janeDoe()); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	raw, err := os.ReadFile(flat.Path())
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	want := existing + "Jane Doe,34,F,555-0100,headache,3 days,none,next Monday\r\n"
	if string(raw) != want {
		t.Errorf("file = %q, want %q", raw, want)
	}
}

func TestFlatStore_AppendOnly(t *testing.T) {
	flat, _ := newTestStores(t)

	if err := flat.Append(janeDoe()); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := flat.Append(form.NewRecord("Smith, John", "50", "M", "", "cough\nfever", "", "", "")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	raw, err := os.ReadFile(flat.Path())
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.HasPrefix(string(raw), "Jane Doe,34,F,555-0100,headache,3 days,none,next Monday\r\n") {
		t.Errorf("first row = %q", raw)
	}

	got, err := flat.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	want := [][]string{
		janeDoe().Values(),
		{"Smith, John", "50", "M", "", "cough\nfever", "", "", ""},
	}
	var gotValues [][]string
	for _, r := range got {
		gotValues = append(gotValues, r.Values())
	}
	if diff := cmp.Diff(want, gotValues); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestFlatStore_ReadAllMissing(t *testing.T) {
	flat := NewFlatStore(filepath.Join(t.TempDir(), "none.csv"), nil)
	rows, err := flat.ReadAll()
	if err != nil || len(rows) != 0 {
		t.Errorf("ReadAll() = %v, %v; want empty, nil", rows, err)
	}
}

func TestFlatStore_Unwritable(t *testing.T) {
	dir := t.TempDir()
	flat := NewFlatStore(dir, nil) // a directory cannot be opened for append

	if err := flat.Append(janeDoe()); err == nil {
		t.Error("Append() to a directory expected error")
	}
}

func TestRelationalStore_SchemaIdempotent(t *testing.T) {
	_, rel := newTestStores(t)
	ctx := context.Background()

	if _, err := rel.Insert(ctx, janeDoe()); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	for i := 0; i < 5; i++ {
		if err := rel.EnsureSchema(ctx); err != nil {
			t.Fatalf("EnsureSchema() #%d error = %v", i, err)
		}
	}

	rows, err := rel.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("ListAll() returned %d rows, want 1", len(rows))
	}
}

func TestRelationalStore_InsertOrder(t *testing.T) {
	_, rel := newTestStores(t)
	ctx := context.Background()

	const m = 6
	var want [][]string
	var lastID int64
	for i := 0; i < m; i++ {
		rec := recordOf(i)
		id, err := rel.Insert(ctx, rec)
		if err != nil {
			t.Fatalf("Insert() #%d error = %v", i, err)
		}
		if id <= lastID {
			t.Errorf("Insert() #%d id = %d, want > %d", i, id, lastID)
		}
		lastID = id
		want = append(want, rec.Values())
	}

	rows, err := rel.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if diff := cmp.Diff(want, recordValues(rows)); diff != "" {
		t.Errorf("ListAll() mismatch (-want +got):\n%s", diff)
	}
	for i := 1; i < len(rows); i++ {
		if rows[i].ID <= rows[i-1].ID {
			t.Errorf("ids not strictly increasing: %d then %d", rows[i-1].ID, rows[i].ID)
		}
	}
}

func TestRelationalStore_ListAllEmpty(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, rel := newTestStores(t)

		rows, err := rel.ListAll(context.Background())
		if err != nil {
			t.Fatalf("ListAll() error = %v", err)
		}
		if rows == nil || len(rows) != 0 {
			t.Errorf("ListAll() = %v, want empty slice", rows)
		}
		if _, err := os.Stat(rel.Path()); !os.IsNotExist(err) {
			t.Error("ListAll() must not create the database file")
		}
	})

	t.Run("missing table", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "other.db")
		db, err := sql.Open("sqlite3", path)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := db.Exec("CREATE TABLE unrelated (x TEXT)"); err != nil {
			t.Fatal(err)
		}
		db.Close()

		rel, _ := NewRelationalStore(RelationalConfig{Path: path}, nil)
		rows, err := rel.ListAll(context.Background())
		if err != nil || len(rows) != 0 {
			t.Errorf("ListAll() = %v, %v; want empty, nil", rows, err)
		}
	})
}

func TestRelationalStore_IncompleteRecord(t *testing.T) {
	opened := false
	rel, _ := NewRelationalStore(RelationalConfig{}, nil, WithOpener(func(bool) (*sql.DB, error) {
		opened = true
		return nil, errors.New("should not open")
	}))

	_, err := rel.Insert(context.Background(), form.NewRecord("only", "three", "values"))
	if !errors.Is(err, ErrIncompleteRecord) {
		t.Errorf("Insert() error = %v, want ErrIncompleteRecord", err)
	}
	if opened {
		t.Error("incomplete record must be rejected before any statement")
	}
}

func TestNewRelationalStore_InvalidTable(t *testing.T) {
	for _, name := range []string{"records; DROP TABLE x", "1abc", "a-b"} {
		if _, err := NewRelationalStore(RelationalConfig{Table: name}, nil); err == nil {
			t.Errorf("NewRelationalStore(table=%q) expected error", name)
		}
	}
}

func TestRelationalStore_InsertMock(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	rel, _ := NewRelationalStore(RelationalConfig{}, nil, WithOpener(func(bool) (*sql.DB, error) { return db, nil }))

	rec := janeDoe()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS healthcare_records").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO healthcare_records").
		WithArgs("Jane Doe", "34", "F", "555-0100", "headache", "3 days", "none", "next Monday").
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectClose()

	id, err := rel.Insert(context.Background(), rec)
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if id != 7 {
		t.Errorf("Insert() id = %d, want 7", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRelationalStore_ListAllMock(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	var readOnly bool
	rel, _ := NewRelationalStore(RelationalConfig{}, nil, WithOpener(func(ro bool) (*sql.DB, error) {
		readOnly = ro
		return db, nil
	}))

	mock.ExpectQuery("SELECT name FROM sqlite_master").
		WithArgs("healthcare_records").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("healthcare_records"))
	cols := append([]string{IDColumn}, Columns()...)
	mock.ExpectQuery("SELECT S_NO, name, age").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(1, "Jane Doe", "34", "F", "555-0100", "headache", "3 days", "none", "next Monday").
			AddRow(2, "John", nil, nil, nil, nil, nil, nil, nil))
	mock.ExpectClose()

	rows, err := rel.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if !readOnly {
		t.Error("ListAll() should open read-only")
	}
	want := [][]string{
		janeDoe().Values(),
		{"John", "", "", "", "", "", "", ""},
	}
	if diff := cmp.Diff(want, recordValues(rows)); diff != "" {
		t.Errorf("ListAll() mismatch (-want +got):\n%s", diff)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPersist_BothSinks(t *testing.T) {
	flat, rel := newTestStores(t)
	p := NewPersister(flat, rel, nil)

	res := p.Persist(context.Background(), janeDoe())
	if !res.OK() || res.Err() != nil {
		t.Fatalf("Persist() = %+v", res)
	}

	flatRows, _ := flat.ReadAll()
	if len(flatRows) != 1 || flatRows[0].Value(form.FieldPatientName) != "Jane Doe" {
		t.Errorf("flat rows = %v", flatRows)
	}

	rows, err := rel.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(rows) != 1 || rows[0].ID != res.RowID {
		t.Fatalf("relational rows = %+v, row id %d", rows, res.RowID)
	}
	if diff := cmp.Diff(janeDoe().Values(), rows[0].Record.Values()); diff != "" {
		t.Errorf("relational record mismatch (-want +got):\n%s", diff)
	}
}

func TestPersist_FlatFailureKeepsRelational(t *testing.T) {
	dir := t.TempDir()
	flat := NewFlatStore(dir, nil)
	rel, _ := NewRelationalStore(RelationalConfig{Path: filepath.Join(dir, "records.db")}, nil)
	p := NewPersister(flat, rel, nil)

	res := p.Persist(context.Background(), janeDoe())
	if res.FlatOK || !res.RelationalOK {
		t.Fatalf("Persist() = %+v, want flat failure and relational success", res)
	}

	var we *WriteError
	if !errors.As(res.FlatErr, &we) || we.Sink != SinkFlat {
		t.Errorf("FlatErr = %v, want *WriteError for flat sink", res.FlatErr)
	}

	rows, _ := rel.ListAll(context.Background())
	if len(rows) != 1 {
		t.Errorf("relational rows = %d, want 1", len(rows))
	}
}

type failingRowWriter struct{ err error }

func (f failingRowWriter) Insert(context.Context, form.Record) (int64, error) { return 0, f.err }

func TestPersist_RelationalFailureKeepsFlat(t *testing.T) {
	flat := NewFlatStore(filepath.Join(t.TempDir(), "data.csv"), nil)
	locked := errors.New("database is locked")
	p := newPersister(flat, failingRowWriter{err: locked}, nil)

	res := p.Persist(context.Background(), janeDoe())
	if !res.FlatOK || res.RelationalOK {
		t.Fatalf("Persist() = %+v, want flat success and relational failure", res)
	}
	if !errors.Is(res.Err(), locked) {
		t.Errorf("Err() = %v, want to wrap %v", res.Err(), locked)
	}

	rows, _ := flat.ReadAll()
	if len(rows) != 1 {
		t.Errorf("flat rows = %d, want 1", len(rows))
	}
}

func TestPersist_RelationalSchemaFailureMock(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	rel, _ := NewRelationalStore(RelationalConfig{}, nil, WithOpener(func(bool) (*sql.DB, error) { return db, nil }))
	flat := NewFlatStore(filepath.Join(t.TempDir(), "data.csv"), nil)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS").WillReturnError(errors.New("disk I/O error"))
	mock.ExpectClose()

	res := NewPersister(flat, rel, nil).Persist(context.Background(), janeDoe())
	if !res.FlatOK || res.RelationalOK {
		t.Errorf("Persist() = %+v, want flat success only", res)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
