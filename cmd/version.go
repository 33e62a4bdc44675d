package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/modkit/wsmerge/pkg/buildinfo"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, _ []string) {
		extended, _ := cmd.Flags().GetBool("extended")
		fmt.Printf("wsmerge %s\n", buildinfo.BinaryVersion)
		if extended {
			if mv := buildinfo.ModuleVersion(); mv != "" {
				fmt.Printf("module:  %s\n", mv)
			}
			fmt.Printf("go:      %s\n", runtime.Version())
			fmt.Printf("platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		}
	},
}

func init() {
	versionCmd.Flags().Bool("extended", false, "Show extended build information")
}
