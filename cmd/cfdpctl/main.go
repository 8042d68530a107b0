// Command cfdpctl is a CLI client for cfdpd's HTTP gateway: put,
// status, list, cancel, suspend and resume.
package main

import (
	"os"

	"github.com/ccsds-cfdp/gocfdp/cmd/cfdpctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		commands.PrintErr("%v", err)
		os.Exit(1)
	}
}
