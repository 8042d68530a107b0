package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccsds-cfdp/gocfdp/cmd/cfdpctl/apiclient"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel <transaction-id>",
	Short: "Cancel a transaction",
	Args:  cobra.ExactArgs(1),
	RunE:  runAction((*apiclient.Client).Cancel),
}

var suspendCmd = &cobra.Command{
	Use:   "suspend <transaction-id>",
	Short: "Suspend a transaction",
	Args:  cobra.ExactArgs(1),
	RunE:  runAction((*apiclient.Client).Suspend),
}

var resumeCmd = &cobra.Command{
	Use:   "resume <transaction-id>",
	Short: "Resume a suspended transaction",
	Args:  cobra.ExactArgs(1),
	RunE:  runAction((*apiclient.Client).Resume),
}

func runAction(call func(*apiclient.Client, string) (*apiclient.ActionResponse, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		resp, err := call(Client(), args[0])
		if err != nil {
			return err
		}
		if !resp.Applied {
			return fmt.Errorf("transaction %s: no such transaction, or action not applicable", resp.TransactionID)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "ok")
		return nil
	}
}
