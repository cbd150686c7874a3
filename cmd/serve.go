package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hashmap-kz/govreg/internal/bus"
	"github.com/hashmap-kz/govreg/internal/config"
	"github.com/hashmap-kz/govreg/internal/coordinator"
	"github.com/hashmap-kz/govreg/internal/downloader"
	"github.com/hashmap-kz/govreg/internal/downloader/osfs"
	"github.com/hashmap-kz/govreg/internal/entry"
	"github.com/hashmap-kz/govreg/internal/extensions"
	"github.com/hashmap-kz/govreg/internal/logging/zaplog"
	"github.com/hashmap-kz/govreg/internal/pipeline"
	"github.com/hashmap-kz/govreg/internal/processors/emptydeps"
	"github.com/hashmap-kz/govreg/internal/processors/kindlint"
	"github.com/hashmap-kz/govreg/internal/processors/luadeps"
	"github.com/hashmap-kz/govreg/internal/processors/luasyntax"
	"github.com/hashmap-kz/govreg/internal/processors/methodinfer"
	"github.com/hashmap-kz/govreg/internal/relay"
	"github.com/hashmap-kz/govreg/internal/store"
	"github.com/hashmap-kz/govreg/internal/store/memstore"
	"github.com/hashmap-kz/govreg/internal/uploader"
	"github.com/hashmap-kz/govreg/internal/uploader/fsloader"
)

// builtinProcessors is the §4.8 example extension set, seeded into the
// store as registry.processor entries and registered against their
// invocable implementations so C4 discovers them on the first pipeline run.
// Priorities order the steps a Lua function entry actually needs:
// reject unknown kinds, parse syntax and extract requires, resolve those
// requires into imports, infer an omitted method name, then tidy up any
// dependency fields a prior step left empty.
var builtinProcessors = []struct {
	priority int
	handler  extensions.Handler
}{
	{0, kindlint.New()},
	{10, luasyntax.Processor{}},
	{20, luadeps.Processor{}},
	{30, methodinfer.Processor{}},
	{40, emptydeps.Processor{}},
}

// NewServeCmd builds the daemon entry point: it wires store, bus,
// extensions registry, pipeline, uploader, downloader, relay and
// coordinator together and runs until an interrupt signal.
func NewServeCmd(streams Streams) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the registry governance coordinator.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), streams)
		},
	}
	return cmd
}

func runServe(ctx context.Context, streams Streams) error {
	cfg := config.Load()

	log, err := zaplog.New()
	if err != nil {
		return fmt.Errorf("serve: build logger: %w", err)
	}

	st := memstore.New()
	if err := seedProcessors(ctx, st); err != nil {
		return fmt.Errorf("serve: seed processors: %w", err)
	}

	ext := extensions.NewRegistry(st)
	for _, p := range builtinProcessors {
		ext.Register(p.handler.ID(), p.handler)
	}

	pl := pipeline.New(st, ext, log)

	kinds := entry.DefaultKindConfig()
	fsys := osfs.New(cfg.SourceDir)
	// fsys is already rooted at cfg.SourceDir, so the loader's default
	// directory is that filesystem's root.
	up := uploader.New(st, fsloader.New(fsys, kinds), "", log)
	down := downloader.New(st, fsys, kinds, log)

	b := newBus(cfg)
	defer func() { _ = b.Close() }()
	rl := relay.New(b, log)

	co := coordinator.New(st, pl, up, down, rl, b, log, cfg.Host)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("serve: starting", "host", cfg.Host)
	runErr := co.Run(runCtx)

	lastVersion, _ := st.CurrentVersion(context.Background())
	log.Info("serve: stopped", "status", "completed", "last_version", lastVersion)
	_, _ = fmt.Fprintf(streams.Out, "completed, last_version=%s\n", lastVersion)
	return runErr
}

// seedProcessors installs the builtinProcessors set as registry.processor
// entries via a direct ApplyChangeset, bypassing the change pipeline: this
// is startup wiring, not a governed change, so it is not itself subject to
// processor review.
func seedProcessors(ctx context.Context, st store.EntryStore) error {
	cs := make(entry.Changeset, 0, len(builtinProcessors))
	for _, p := range builtinProcessors {
		cs = append(cs, entry.ChangeOp{
			Kind: entry.OpCreate,
			Entry: entry.Entry{
				ID:   p.handler.ID(),
				Kind: "registry.processor",
				Meta: map[string]any{"type": extensions.MetaTypeProcessor, "priority": p.priority},
			},
		})
	}
	_, err := st.ApplyChangeset(ctx, cs)
	return err
}
