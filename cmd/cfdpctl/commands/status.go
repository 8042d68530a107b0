package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <transaction-id>",
	Short: "Show a transaction's status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := Client().Status(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", resp.TransactionID, resp.Status)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List active transactions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := Client().List()
		if err != nil {
			return err
		}
		for _, id := range resp.TransactionIDs {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		return nil
	},
}
