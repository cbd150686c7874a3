package cmd

import (
	"fmt"

	"github.com/hashmap-kz/govreg/internal/coordinator"
)

// printReply renders a ReplyEnvelope the same way for every subcommand
// whose operation returns one (apply/version/upload/download).
func printReply(streams Streams, rep *coordinator.ReplyEnvelope) error {
	if !rep.Success {
		if rep.Error != "" {
			return fmt.Errorf("%s", rep.Error)
		}
		return fmt.Errorf("%s", rep.Message)
	}

	_, _ = fmt.Fprintf(streams.Out, "ok")
	if rep.Version != "" {
		_, _ = fmt.Fprintf(streams.Out, " version=%s", rep.Version)
	}
	if rep.Message != "" {
		_, _ = fmt.Fprintf(streams.Out, " %s", rep.Message)
	}
	_, _ = fmt.Fprintln(streams.Out)

	for k, v := range rep.Stats {
		_, _ = fmt.Fprintf(streams.Out, "  %s: %d\n", k, v)
	}
	for _, d := range rep.Details {
		_, _ = fmt.Fprintf(streams.Out, "  [%s] %s: %s\n", d.Type, d.ID, d.Message)
	}
	return nil
}
