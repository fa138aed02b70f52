package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "intake",
	Short: "Healthcare intake form with voice input",
	Long: `intake collects a healthcare intake record of eight fields, typed or
spoken, and saves every record to a CSV file and a SQLite database.

Commands:
  form     - interactive form (voice input with Ctrl+V)
  save     - save one record from flags
  view     - list saved records
  listen   - capture one phrase and print the recognized text
  devices  - list audio input devices
  status   - check microphone, recognizer and stores`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ./configs/intake.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
}

func printError(msg string, err error) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
}
