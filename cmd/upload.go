package cmd

import (
	"github.com/spf13/cobra"

	"github.com/hashmap-kz/govreg/internal/config"
)

// NewUploadCmd mirrors Client.RequestUpload (spec.md §4.5/§4.1 request_upload).
func NewUploadCmd(streams Streams) *cobra.Command {
	var (
		userID    string
		directory string
		checkOnly bool
	)

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Diff a source tree against the registry and submit it as a changeset.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			options := map[string]any{}
			if directory != "" {
				options["directory"] = directory
			}
			if checkOnly {
				options["check_only"] = true
			}

			cl := newClient(config.Load())
			rep, err := cl.RequestUpload(cmd.Context(), userID, options)
			if err != nil {
				return err
			}
			return printReply(streams, rep)
		},
	}

	f := cmd.Flags()
	f.StringVar(&directory, "directory", "", "Source directory (defaults to APP_SRC).")
	f.BoolVar(&checkOnly, "check-only", false, "Diff only, never apply (spec.md §4.5 check_only).")
	f.StringVar(&userID, "user", "cli", "User id to act as.")
	return cmd
}
