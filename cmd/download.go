package cmd

import (
	"github.com/spf13/cobra"

	"github.com/hashmap-kz/govreg/internal/config"
)

// NewDownloadCmd mirrors Client.RequestDownload (spec.md §4.6/§4.1 request_download).
func NewDownloadCmd(streams Streams) *cobra.Command {
	var (
		userID        string
		directory     string
		cleanupOrphan bool
	)

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Materialize the current registry snapshot onto the filesystem.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			options := map[string]any{}
			if directory != "" {
				options["directory"] = directory
			}
			options["cleanup_orphaned"] = cleanupOrphan

			cl := newClient(config.Load())
			rep, err := cl.RequestDownload(cmd.Context(), userID, options)
			if err != nil {
				return err
			}
			return printReply(streams, rep)
		},
	}

	f := cmd.Flags()
	f.StringVar(&directory, "directory", "", "Sent as options.directory; the downloader does not read it and always writes under the serve process's APP_SRC.")
	f.BoolVar(&cleanupOrphan, "cleanup-orphaned", true, "Remove orphaned files no longer in the registry.")
	f.StringVar(&userID, "user", "cli", "User id to act as.")
	return cmd
}
