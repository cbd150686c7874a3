package cmd

import (
	"github.com/aquasecurity/table"
	"github.com/spf13/cobra"

	"github.com/hashmap-kz/govreg/internal/config"
)

// NewStateCmd mirrors Client.GetState (spec.md §4.1 get_state).
func NewStateCmd(streams Streams) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "state",
		Short: "Show the current registry/governance/changes state.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cl := newClient(config.Load())
			st, err := cl.GetState(cmd.Context(), userID)
			if err != nil {
				return err
			}

			t := table.New(streams.Out)
			t.SetHeaders("Field", "Value")
			t.AddRow("current_version", st.Registry.CurrentVersion)
			t.AddRow("operation_in_progress", boolStr(st.Governance.OperationInProgress))
			t.AddRow("current_operation", st.Governance.CurrentOperation)
			t.AddRow("last_operation_type", st.Governance.LastOperationType)
			t.AddRow("registry_changes_pending", boolStr(st.Changes.RegistryChangesPending))
			t.AddRow("filesystem_changes_pending", boolStr(st.Changes.FilesystemChangesPending))
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "cli", "User id to act as.")
	return cmd
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
