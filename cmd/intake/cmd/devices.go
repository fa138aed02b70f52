package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio input devices",
	Long: `Lists the microphones PortAudio can see. Use the name with the
[audio] device setting to pick one other than the default.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		devices, err := listMicrophones()
		if err != nil {
			printError("failed to list devices", err)
			return err
		}
		out := cmd.OutOrStdout()
		if len(devices) == 0 {
			fmt.Fprintln(out, "No input devices found.")
			return nil
		}
		for _, d := range devices {
			marker := " "
			if d.IsDefault {
				marker = "*"
			}
			fmt.Fprintf(out, "%s %-40s %d ch  %.0f Hz\n", marker, d.Name, d.MaxInputChannels, d.DefaultSampleRate)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}
