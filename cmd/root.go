// Package cmd is the govreg CLI: one subcommand per Client API operation
// (state, apply, version, upload, download) plus the serve daemon,
// continuing the teacher's cmd/root.go -> cmd.New...Cmd(streams) pattern.
package cmd

import (
	"github.com/spf13/cobra"
)

// NewRootCmd builds the govreg root command.
func NewRootCmd(streams Streams) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "govreg",
		Short:         "Registry governance service: coordinator daemon and client CLI.",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetHelpCommand(&cobra.Command{
		Use:    "no-help",
		Hidden: true,
	})

	rootCmd.AddCommand(NewServeCmd(streams))
	rootCmd.AddCommand(NewStateCmd(streams))
	rootCmd.AddCommand(NewApplyCmd(streams))
	rootCmd.AddCommand(NewVersionCmd(streams))
	rootCmd.AddCommand(NewUploadCmd(streams))
	rootCmd.AddCommand(NewDownloadCmd(streams))
	return rootCmd
}
