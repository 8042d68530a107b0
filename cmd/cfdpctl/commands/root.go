// Package commands implements cfdpctl's CLI, a client for cfdpd's
// HTTP gateway, following the same rootCmd-plus-subcommands shape as
// cmd/dittofsctl/commands.
package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ccsds-cfdp/gocfdp/cmd/cfdpctl/apiclient"
)

// Flags stores global flag values the subcommands share.
var Flags = struct {
	Server string
}{}

var rootCmd = &cobra.Command{
	Use:           "cfdpctl",
	Short:         "cfdpctl controls a cfdpd entity over its HTTP gateway",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called once from main.main.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&Flags.Server, "server", "http://localhost:8080", "cfdpd gateway address")
	rootCmd.AddCommand(putCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(suspendCmd)
	rootCmd.AddCommand(resumeCmd)
}

// Client builds an apiclient.Client against the current --server flag.
func Client() *apiclient.Client {
	return apiclient.New(Flags.Server)
}

// PrintErr prints an error to stderr.
func PrintErr(format string, args ...any) {
	rootCmd.PrintErrf(format+"\n", args...)
}

// Exit prints an error and exits with status 1.
func Exit(format string, args ...any) {
	PrintErr(format, args...)
	os.Exit(1)
}
