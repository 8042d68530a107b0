// Command cfdpd runs one CFDP entity as a standalone daemon: a
// transport, the transaction engine, and an HTTP gateway in front of
// it.
package main

import (
	"os"

	"github.com/ccsds-cfdp/gocfdp/cmd/cfdpd/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		commands.PrintErr("%v", err)
		os.Exit(1)
	}
}
