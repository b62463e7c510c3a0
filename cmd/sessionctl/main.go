package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "sessionctl",
		Short: "Inspect session tokens and access-control decisions",
		Long: `sessionctl is an operator tool for the session subsystem.

It decodes tokens, shows how paths are classified and gated, hashes
passwords for seeding accounts, and can probe a running API end to end.`,
		SilenceUsage: true,
	}
	root.AddCommand(
		newDecodeCmd(),
		newClassifyCmd(),
		newDecideCmd(),
		newHashPasswordCmd(),
		newProbeCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
