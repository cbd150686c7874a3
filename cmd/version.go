package cmd

import (
	"github.com/spf13/cobra"

	"github.com/hashmap-kz/govreg/internal/config"
)

// NewVersionCmd mirrors Client.RequestVersion (spec.md §4.1 request_version).
func NewVersionCmd(streams Streams) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "version VERSION_ID",
		Short: "Re-apply a historical version's changeset.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cl := newClient(config.Load())
			rep, err := cl.RequestVersion(cmd.Context(), userID, args[0], nil)
			if err != nil {
				return err
			}
			return printReply(streams, rep)
		},
	}

	cmd.Flags().StringVar(&userID, "user", "cli", "User id to act as.")
	return cmd
}
