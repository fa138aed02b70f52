package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/msto63/intake/internal/intake/binder"
	"github.com/msto63/intake/internal/intake/form"
	"github.com/msto63/intake/internal/intake/notify"
)

var listenWAV string

var listenCmd = &cobra.Command{
	Use:   "listen [field]",
	Short: "Capture and recognize one phrase",
	Long: `Runs a single voice request: asks the prompt of the given field
(default: name), records one phrase from the microphone and prints the
recognized text. Nothing is saved.

Examples:
  intake listen
  intake listen symptoms
  intake listen age --wav /tmp/age.wav`,
	Args: cobra.MaximumNArgs(1),
	RunE: runListen,
}

func init() {
	rootCmd.AddCommand(listenCmd)
	listenCmd.Flags().StringVar(&listenWAV, "wav", "", "Write the captured phrase to a WAV file")
}

func runListen(cmd *cobra.Command, args []string) error {
	name := form.FieldPatientName
	if len(args) == 1 {
		n, err := form.ParseFieldName(args[0])
		if err != nil {
			return err
		}
		name = n
	}
	def, _ := form.Lookup(name)

	a, err := newApp(false)
	if err != nil {
		printError("failed to load configuration", err)
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	printer := notify.Func(func(n notify.Notification) {
		fmt.Fprintf(out, "[%s] %s\n", n.Title, n.Message)
	})

	b, err := a.binder(context.Background(), a.notifier(printer))
	if err != nil {
		printError("voice input is not available", err)
		return err
	}

	req := b.Listen(context.Background(), name, def.Prompt)

	if listenWAV != "" && !req.Sample.Empty() {
		data, err := req.Sample.WAV()
		if err == nil {
			err = os.WriteFile(listenWAV, data, 0644)
		}
		if err != nil {
			printError("failed to write WAV file", err)
		}
	}

	if req.Outcome != binder.OutcomeFilled {
		return fmt.Errorf("voice request %s: %s", req.ID, req.Outcome)
	}
	fmt.Fprintln(out, req.Text)
	return nil
}
