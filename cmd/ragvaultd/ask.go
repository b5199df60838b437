package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/ragvault/internal/vault"
)

var askK int

var askCmd = &cobra.Command{
	Use:   "ask <prompt>",
	Short: "Retrieve context for a prompt and print citations",
	Long: "Retrieve context for a prompt and print citations. This CLI has no " +
		"remote language model wired in, so it always prints the retrieved " +
		"citations with an empty content field.",
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVar(&askK, "k", 0, "number of results to retrieve (0 uses the configured default)")
}

func runAsk(cmd *cobra.Command, args []string) error {
	v, closeFn, err := buildVault(newCLILogger())
	if err != nil {
		return err
	}
	defer closeFn()

	result, err := v.Ask(context.Background(), args[0], vault.AskOptions{K: askK}, nil)
	if err != nil {
		return err
	}
	return printJSON(cmd, result)
}
