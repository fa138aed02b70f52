package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/msto63/intake/pkg/core/version"
)

var versionVerbose bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the version",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "intake v%s\n", version.App)
		fmt.Fprintf(out, "  Git Commit: %s\n", version.GitCommit)
		fmt.Fprintf(out, "  Build Date: %s\n", version.BuildDate)
		fmt.Fprintf(out, "  Go Version: %s\n", runtime.Version())
		fmt.Fprintf(out, "  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
		if versionVerbose {
			fmt.Fprintln(out, "  Components:")
			for _, c := range version.Components {
				fmt.Fprintf(out, "    %-12s %s\n", c, version.ComponentVersion(c))
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVar(&versionVerbose, "components", false, "Also list component versions")
}
