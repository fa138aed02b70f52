package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/msto63/intake/internal/tui/intakeform"
)

var formNoVoice bool

var formCmd = &cobra.Command{
	Use:     "form",
	Aliases: []string{"tui"},
	Short:   "Open the interactive intake form",
	Long: `Opens the healthcare intake form in the terminal.

Every field can be typed or spoken. Press Ctrl+V on a field, wait for
"Listening..." and answer the prompt; the recognized text replaces the
field value. Ctrl+S shows the summary and saves the record to both stores.

Examples:
  intake form
  intake form --no-voice
  intake form --config ./configs/intake.toml`,
	RunE: runForm,
}

func init() {
	rootCmd.AddCommand(formCmd)
	formCmd.Flags().BoolVar(&formNoVoice, "no-voice", false, "Disable voice input")
}

func runForm(cmd *cobra.Command, args []string) error {
	a, err := newApp(true)
	if err != nil {
		printError("failed to load configuration", err)
		return err
	}
	defer a.Close()

	tuiNotifier, notifications := intakeform.ChannelNotifier(32)
	f, err := a.form(context.Background(), a.notifier(tuiNotifier), !formNoVoice)
	if err != nil {
		printError("failed to set up the form", err)
		return err
	}

	cfg := intakeform.DefaultConfig()
	if t := a.cfg.Audio.WaitTimeout.Duration + a.cfg.Audio.PhraseLimit.Duration + a.cfg.Recognition.Timeout.Duration; t > 0 {
		cfg.VoiceTimeout = t + a.cfg.Audio.Calibration.Duration
	}
	return intakeform.Run(f, notifications, cfg)
}
