package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ccsds-cfdp/gocfdp/cmd/cfdpctl/apiclient"
)

var (
	putMode     string
	putChecksum string
	putClosure  bool
)

var putCmd = &cobra.Command{
	Use:   "put <destination-entity-id> <source-file> <destination-file>",
	Short: "Request a file transfer",
	Args:  cobra.ExactArgs(3),
	RunE:  runPut,
}

func init() {
	putCmd.Flags().StringVar(&putMode, "mode", "", "transmission mode (acknowledged|unacknowledged)")
	putCmd.Flags().StringVar(&putChecksum, "checksum", "", "checksum type (modular|crc32|crc32c|null)")
	putCmd.Flags().BoolVar(&putClosure, "closure", false, "request transaction closure")
}

func runPut(cmd *cobra.Command, args []string) error {
	destID, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid destination entity id %q: %w", args[0], err)
	}

	req := apiclient.PutRequest{
		DestinationEntityID: destID,
		SourceFilename:      args[1],
		DestinationFilename: args[2],
		ClosureRequested:    putClosure,
	}
	if putMode != "" {
		req.TransmissionMode = &putMode
	}
	if putChecksum != "" {
		req.ChecksumType = &putChecksum
	}

	resp, err := Client().Put(req)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), resp.TransactionID)
	return nil
}
