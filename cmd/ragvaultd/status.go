package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <file_id>",
	Short: "Report the ingestion status of a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	v, closeFn, err := buildVault(newCLILogger())
	if err != nil {
		return err
	}
	defer closeFn()

	st, ok := v.Status(args[0])
	if !ok {
		return fmt.Errorf("no such file_id: %s", args[0])
	}
	return printJSON(cmd, st)
}
