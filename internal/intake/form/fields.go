// ============================================================================
// meinDENKWERK (mDW) - Voice Intake
// ============================================================================
//
// Package:     form
// Description: Intake form fields and their fixed order
// Author:      Mike Stoffels
// Created:     2025-12-14
// License:     MIT
// ============================================================================

package form

import (
	"errors"
	"fmt"
)

// FieldName identifies one slot of the intake form
type FieldName string

const (
	FieldPatientName FieldName = "name"
	FieldAge         FieldName = "age"
	FieldGender      FieldName = "gender"
	FieldContact     FieldName = "contact"
	FieldSymptoms    FieldName = "symptoms"
	FieldDuration    FieldName = "duration"
	FieldMedication  FieldName = "medication"
	FieldFollowUp    FieldName = "follow_up"
)

// ErrUnknownField is returned for names outside the fixed field set
var ErrUnknownField = errors.New("unknown form field")

// Definition describes how a field is presented to the operator
type Definition struct {
	Name         FieldName
	Label        string // form label
	SummaryLabel string // label in the saved-record summary
	Prompt       string // question asked before a voice capture
}

// Definitions is the fixed field set. The order defines the column order of
// the CSV file and of the relational table.
var Definitions = []Definition{
	{FieldPatientName, "Patient's Name", "Name", "What is the patient's name?"},
	{FieldAge, "Patient's Age", "Age", "What is the patient's age?"},
	{FieldGender, "Gender", "Gender", "What is the patient's gender?"},
	{FieldContact, "Contact Number", "Contact Number", "What is the patient's contact number?"},
	{FieldSymptoms, "Symptoms", "Symptoms", "What symptoms does the patient have?"},
	{FieldDuration, "Duration", "Duration", "How long has the patient had these symptoms?"},
	{FieldMedication, "Medications", "Medications", "Is the patient taking any medications?"},
	{FieldFollowUp, "Follow-up Appointment", "Follow-up Appointment", "When is the follow-up appointment?"},
}

// FieldNames returns the field names in declared order
func FieldNames() []FieldName {
	names := make([]FieldName, len(Definitions))
	for i, d := range Definitions {
		names[i] = d.Name
	}
	return names
}

// Lookup returns the definition of a field
func Lookup(name FieldName) (Definition, bool) {
	for _, d := range Definitions {
		if d.Name == name {
			return d, true
		}
	}
	return Definition{}, false
}

// ParseFieldName validates a raw field name
func ParseFieldName(s string) (FieldName, error) {
	if _, ok := Lookup(FieldName(s)); !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
	}
	return FieldName(s), nil
}

// Field is a named, mutable text slot
type Field struct {
	def   Definition
	value string
}

// Name returns the field identifier
func (f *Field) Name() FieldName { return f.def.Name }

// Definition returns the presentation data of the field
func (f *Field) Definition() Definition { return f.def }

// Value returns the current text
func (f *Field) Value() string { return f.value }

// Set stores text typed by the operator
func (f *Field) Set(value string) { f.value = value }

// Replace swaps in a voice result. The previous value is overwritten in a
// single assignment, a reader never sees an intermediate empty field.
func (f *Field) Replace(text string) { f.value = text }

// Clear resets the field to empty
func (f *Field) Clear() { f.value = "" }

// FieldSet is the ordered collection of all fields of one record
type FieldSet struct {
	fields []*Field
	index  map[FieldName]*Field
}

// NewFieldSet creates a field set with every field empty
func NewFieldSet() *FieldSet {
	fs := &FieldSet{
		fields: make([]*Field, 0, len(Definitions)),
		index:  make(map[FieldName]*Field, len(Definitions)),
	}
	for _, d := range Definitions {
		f := &Field{def: d}
		fs.fields = append(fs.fields, f)
		fs.index[d.Name] = f
	}
	return fs
}

// Field returns the named field or nil
func (fs *FieldSet) Field(name FieldName) *Field {
	return fs.index[name]
}

// Fields returns the fields in declared order
func (fs *FieldSet) Fields() []*Field {
	out := make([]*Field, len(fs.fields))
	copy(out, fs.fields)
	return out
}

// Len returns the number of fields
func (fs *FieldSet) Len() int { return len(fs.fields) }

// Value returns the value of the named field ("" if unknown)
func (fs *FieldSet) Value(name FieldName) string {
	if f := fs.index[name]; f != nil {
		return f.value
	}
	return ""
}

// Set stores a typed value in the named field
func (fs *FieldSet) Set(name FieldName, value string) error {
	f := fs.index[name]
	if f == nil {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	f.Set(value)
	return nil
}

// Clear resets every field to empty
func (fs *FieldSet) Clear() {
	for _, f := range fs.fields {
		f.Clear()
	}
}
