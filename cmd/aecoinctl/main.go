// Command aecoinctl runs one-off maintenance tasks against the store
// database and helps craft signed gateway payloads for testing.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "aecoinctl",
		Short:         "Maintenance tool for the AECOIN store API",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedRankingsCmd())
	rootCmd.AddCommand(expireCmd())
	rootCmd.AddCommand(signCmd())

	return rootCmd
}
