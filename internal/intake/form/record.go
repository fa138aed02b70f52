package form

import "strings"

// Record is an immutable snapshot of a field set taken at save time
type Record struct {
	values []string
}

// NewRecord builds a record from values given in field order
func NewRecord(values ...string) Record {
	v := make([]string, len(values))
	copy(v, values)
	return Record{values: v}
}

// Values returns a copy of the values in field order
func (r Record) Values() []string {
	v := make([]string, len(r.values))
	copy(v, r.values)
	return v
}

// Value returns the value recorded for a field
func (r Record) Value(name FieldName) string {
	for i, d := range Definitions {
		if d.Name == name && i < len(r.values) {
			return r.values[i]
		}
	}
	return ""
}

// Len returns the number of values
func (r Record) Len() int { return len(r.values) }

// Complete reports whether the record carries one value per field
func (r Record) Complete() bool { return len(r.values) == len(Definitions) }

// Assemble reads the current value of every field. Empty values are kept.
func Assemble(fs *FieldSet) Record {
	values := make([]string, 0, fs.Len())
	for _, f := range fs.fields {
		values = append(values, f.value)
	}
	return Record{values: values}
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// Summarize renders one "Label: value" line per field in declared order
func Summarize(r Record) string {
	lines := make([]string, len(Definitions))
	for i, d := range Definitions {
		var v string
		if i < len(r.values) {
			v = r.values[i]
		}
		lines[i] = d.SummaryLabel + ": " + lineBreaks.Replace(v)
	}
	return strings.Join(lines, "\n")
}
