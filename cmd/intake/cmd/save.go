package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/msto63/intake/internal/intake/form"
	"github.com/msto63/intake/internal/intake/notify"
)

var saveValues = map[form.FieldName]*string{}

var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save one record from flags",
	Long: `Saves one intake record without the interactive form. Fields that are
not given are saved empty. The record is written to the CSV file first and
then to the SQLite database; a failure in one store does not stop the other.

Examples:
  intake save --name "Jane Doe" --age 34 --gender F --symptoms headache
  intake save --name "John Roe" --follow-up "next Monday"`,
	RunE: runSave,
}

func init() {
	rootCmd.AddCommand(saveCmd)
	for _, d := range form.Definitions {
		flag := string(d.Name)
		if d.Name == form.FieldFollowUp {
			flag = "follow-up"
		}
		saveValues[d.Name] = saveCmd.Flags().String(flag, "", d.Label)
	}
}

func runSave(cmd *cobra.Command, args []string) error {
	a, err := newApp(false)
	if err != nil {
		printError("failed to load configuration", err)
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	printer := notify.Func(func(n notify.Notification) {
		fmt.Fprintf(out, "%s\n%s\n\n", n.Title, n.Message)
	})

	f, err := a.form(context.Background(), a.notifier(printer), false)
	if err != nil {
		printError("failed to set up the form", err)
		return err
	}

	for name, v := range saveValues {
		if err := f.Set(name, *v); err != nil {
			return err
		}
	}

	_, res := f.Save(context.Background())
	if !res.OK() {
		return res.Err()
	}
	fmt.Fprintf(out, "Row %d\n", res.RowID)
	return nil
}
