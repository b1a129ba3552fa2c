package main

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"
)

var Version string
var Commit string

// getVersion returns the version string, using git describe if build-time version is not set
func getVersion() string {
	if Version != "" {
		return Version
	}

	cmd := exec.Command("git", "describe", "--always", "--tags", "--dirty")
	output, err := cmd.Output()
	if err == nil {
		return strings.TrimSpace(string(output))
	}

	if Commit != "" {
		return Commit
	}
	return "unknown"
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), getVersion())
		},
	}
}
