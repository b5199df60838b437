package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <path>",
	Short: "Ingest a file into the vault",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	logger := newCLILogger()
	v, closeFn, err := buildVault(logger)
	if err != nil {
		return err
	}
	defer closeFn()

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	fileID, err := v.Ingest(context.Background(), filepath.Base(path), "", data)
	if err != nil {
		return err
	}
	return printJSON(cmd, map[string]string{"file_id": fileID})
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
