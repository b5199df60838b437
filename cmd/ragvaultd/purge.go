package main

import (
	"context"

	"github.com/spf13/cobra"
)

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Erase all ingested content and reset the vector index",
	Args:  cobra.NoArgs,
	RunE:  runPurge,
}

func runPurge(cmd *cobra.Command, args []string) error {
	v, closeFn, err := buildVault(newCLILogger())
	if err != nil {
		return err
	}
	defer closeFn()

	if err := v.Purge(context.Background()); err != nil {
		return err
	}
	return printJSON(cmd, map[string]string{"status": "purged"})
}
