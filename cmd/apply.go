package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hashmap-kz/govreg/internal/config"
	"github.com/hashmap-kz/govreg/internal/entry"
)

// NewApplyCmd mirrors Client.RequestChanges (spec.md §4.1 request_changes).
func NewApplyCmd(streams Streams) *cobra.Command {
	var (
		userID   string
		filename string
	)

	cmd := &cobra.Command{
		Use:   "apply -f FILE",
		Short: "Submit a changeset (JSON array of change operations) for review.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := os.ReadFile(filename)
			if err != nil {
				return fmt.Errorf("apply: read %s: %w", filename, err)
			}
			var cs entry.Changeset
			if err := json.Unmarshal(raw, &cs); err != nil {
				return fmt.Errorf("apply: parse changeset: %w", err)
			}

			cl := newClient(config.Load())
			rep, err := cl.RequestChanges(cmd.Context(), userID, cs, nil)
			if err != nil {
				return err
			}
			return printReply(streams, rep)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&filename, "filename", "f", "", "Path to a JSON changeset file.")
	_ = cmd.MarkFlagRequired("filename")
	f.StringVar(&userID, "user", "cli", "User id to act as.")
	return cmd
}
