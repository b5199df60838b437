package main

import (
	"context"

	"github.com/spf13/cobra"
)

var searchK int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the vault and print citations",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&searchK, "k", 0, "number of results to return (0 uses the configured default)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	v, closeFn, err := buildVault(newCLILogger())
	if err != nil {
		return err
	}
	defer closeFn()

	citations, err := v.Search(context.Background(), args[0], searchK)
	if err != nil {
		return err
	}
	return printJSON(cmd, citations)
}
