package cmd

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/msto63/intake/internal/intake/form"
	"github.com/msto63/intake/internal/intake/store"
	"github.com/msto63/intake/internal/tui/intakeform"
)

var (
	viewFormat string
	viewSource string
)

var viewCmd = &cobra.Command{
	Use:     "view",
	Aliases: []string{"records"},
	Short:   "List saved records",
	Long: `Lists every saved record in ascending S.NO. order. The database is
opened read-only; when nothing was saved yet the list is empty.

Examples:
  intake view
  intake view --format yaml
  intake view --format csv > export.csv
  intake view --source flat`,
	RunE: runView,
}

func init() {
	rootCmd.AddCommand(viewCmd)
	viewCmd.Flags().StringVarP(&viewFormat, "format", "f", "table", "Output format (table, csv, yaml)")
	viewCmd.Flags().StringVar(&viewSource, "source", "database", "Record source (database, flat)")
}

// recordView is the exported shape of one record
type recordView struct {
	ID         int64  `yaml:"s_no"`
	Name       string `yaml:"name"`
	Age        string `yaml:"age"`
	Gender     string `yaml:"gender"`
	Contact    string `yaml:"contact"`
	Symptoms   string `yaml:"symptoms"`
	Duration   string `yaml:"duration"`
	Medication string `yaml:"medication"`
	FollowUp   string `yaml:"follow_up"`
}

func toView(row store.PersistedRow) recordView {
	r := row.Record
	return recordView{
		ID:         row.ID,
		Name:       r.Value(form.FieldPatientName),
		Age:        r.Value(form.FieldAge),
		Gender:     r.Value(form.FieldGender),
		Contact:    r.Value(form.FieldContact),
		Symptoms:   r.Value(form.FieldSymptoms),
		Duration:   r.Value(form.FieldDuration),
		Medication: r.Value(form.FieldMedication),
		FollowUp:   r.Value(form.FieldFollowUp),
	}
}

func runView(cmd *cobra.Command, args []string) error {
	a, err := newApp(false)
	if err != nil {
		printError("failed to load configuration", err)
		return err
	}
	defer a.Close()

	flat, rel, err := a.stores()
	if err != nil {
		return err
	}

	var rows []store.PersistedRow
	switch viewSource {
	case "database", "db":
		rows, err = rel.ListAll(context.Background())
	case "flat", "csv":
		var recs []form.Record
		recs, err = flat.ReadAll()
		for i, r := range recs {
			rows = append(rows, store.PersistedRow{ID: int64(i + 1), Record: r})
		}
	default:
		err = fmt.Errorf("unknown source %q", viewSource)
	}
	if err != nil {
		printError("failed to read records", err)
		return err
	}

	return writeRecords(cmd.OutOrStdout(), viewFormat, rows)
}

func writeRecords(w io.Writer, format string, rows []store.PersistedRow) error {
	switch format {
	case "table":
		if len(rows) == 0 {
			fmt.Fprintln(w, "No records saved yet.")
			return nil
		}
		t := table.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(intakeform.ColorDimmed)).
			StyleFunc(func(row, col int) lipgloss.Style {
				s := lipgloss.NewStyle().Padding(0, 1)
				if row == table.HeaderRow {
					return s.Bold(true).Foreground(intakeform.ColorPrimary)
				}
				return s
			}).
			Headers(intakeform.RecordColumns...)
		for _, r := range rows {
			t.Row(append([]string{strconv.FormatInt(r.ID, 10)}, r.Record.Values()...)...)
		}
		fmt.Fprintln(w, t.Render())
		return nil

	case "csv":
		cw := csv.NewWriter(w)
		if err := cw.Write(append([]string{store.IDColumn}, store.Columns()...)); err != nil {
			return err
		}
		for _, r := range rows {
			if err := cw.Write(append([]string{strconv.FormatInt(r.ID, 10)}, r.Record.Values()...)); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()

	case "yaml":
		views := make([]recordView, len(rows))
		for i, r := range rows {
			views[i] = toView(r)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(views); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()

	default:
		return fmt.Errorf("unknown format %q (want table, csv or yaml)", format)
	}
}
