package main

import (
	"context"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <zip-path>",
	Short: "Export all ingested content (excluding the encryption key) to a zip archive",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	v, closeFn, err := buildVault(newCLILogger())
	if err != nil {
		return err
	}
	defer closeFn()

	if err := v.Export(context.Background(), args[0]); err != nil {
		return err
	}
	return printJSON(cmd, map[string]string{"path": args[0]})
}
