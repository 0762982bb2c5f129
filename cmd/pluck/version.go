package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/pluck-sh/pluck/pkg/pluck/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version, commit hash, and build date of pluck.`,
	Run:   runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// runVersion prints version information.
func runVersion(cmd *cobra.Command, args []string) {
	fmt.Printf("pluck %s\n", version.Version)
	fmt.Printf("  commit:  %s\n", version.Commit)
	fmt.Printf("  built:   %s\n", version.Date)
	fmt.Printf("  go:      %s\n", runtime.Version())
	fmt.Printf("  os/arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}
