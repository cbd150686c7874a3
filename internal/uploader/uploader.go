// Package uploader implements C5: it loads a source tree into target
// entries, diffs them against the live registry snapshot, and emits the
// changeset an operator (or the coordinator's upload→change chain) applies
// (spec.md §4.5). It mirrors the teacher's apply.go "build a plan, then act
// on it" shape (prepareApplyPlan -> applyPlanned) but the plan here is a
// diff, not a CRUD-per-resource apply against a live API server.
package uploader

import (
	"context"
	"fmt"

	"github.com/hashmap-kz/govreg/internal/coordinator"
	"github.com/hashmap-kz/govreg/internal/entry"
	"github.com/hashmap-kz/govreg/internal/logging"
	"github.com/hashmap-kz/govreg/internal/store"
)

// maxInlineSourceBytes is the spec.md §4.5 threshold past which a
// formatted changeset op's entry.source is replaced with a placeholder.
const maxInlineSourceBytes = 1000

// Loader loads the target entry set from a source tree. The concrete
// implementation (./fsloader) walks directory namespace index files the
// way the downloader writes them; tests can substitute a stub.
type Loader interface {
	Load(ctx context.Context, directory string) ([]entry.Entry, error)
}

var _ coordinator.Uploader = (*Uploader)(nil)

// Uploader is C5.
type Uploader struct {
	Store  store.EntryStore
	Loader Loader
	Log    logging.Logger

	// DefaultDirectory backs options.directory when the caller omits it.
	// It is a path inside the Loader's filesystem; "" means that
	// filesystem's root, which the serve command roots at APP_SRC.
	DefaultDirectory string
}

// New builds an Uploader. log may be nil, in which case logging.Nop is used.
func New(st store.EntryStore, loader Loader, defaultDirectory string, log logging.Logger) *Uploader {
	if log == nil {
		log = logging.Nop{}
	}
	return &Uploader{Store: st, Loader: loader, DefaultDirectory: defaultDirectory, Log: log}
}

func (u *Uploader) directory(options map[string]any) string {
	if options != nil {
		if d, ok := options["directory"].(string); ok && d != "" {
			return d
		}
	}
	return u.DefaultDirectory
}

func (u *Uploader) diff(ctx context.Context, options map[string]any) (current []entry.Entry, cs entry.Changeset, err error) {
	snap, err := u.Store.Snapshot(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("uploader: snapshot: %w", err)
	}

	target, err := u.Loader.Load(ctx, u.directory(options))
	if err != nil {
		return nil, nil, fmt.Errorf("uploader: load directory tree: %w", err)
	}

	cs, err = u.Store.BuildDelta(ctx, snap.Entries, target)
	if err != nil {
		return nil, nil, fmt.Errorf("uploader: build delta: %w", err)
	}
	return snap.Entries, cs, nil
}

// Upload implements spec.md §4.5 steps (a)-(d): snapshot, load, diff,
// format for display. It never applies the changeset itself — that is the
// executor's job once the coordinator chains into the change pipeline.
func (u *Uploader) Upload(ctx context.Context, options map[string]any) (*coordinator.UploadResult, error) {
	_, cs, err := u.diff(ctx, options)
	if err != nil {
		return &coordinator.UploadResult{Success: false, Message: err.Error()}, nil
	}

	count := countByKind(cs)
	return &coordinator.UploadResult{
		Success:            true,
		Changeset:          cs,
		Count:              count,
		Stats:              count,
		FormattedChangeset: formatChangeset(cs),
		HasChanges:         len(cs) > 0,
	}, nil
}

// CheckOnly implements spec.md §4.5's check_only mode: runs steps (a)-(c)
// only, reporting whether there are changes without handing back an
// applicable changeset.
func (u *Uploader) CheckOnly(ctx context.Context, options map[string]any) (*coordinator.UploadResult, error) {
	_, cs, err := u.diff(ctx, options)
	if err != nil {
		return &coordinator.UploadResult{Success: false, Message: err.Error()}, nil
	}

	count := countByKind(cs)
	return &coordinator.UploadResult{
		Success:            true,
		Count:              count,
		Stats:              count,
		FormattedChangeset: formatChangeset(cs),
		HasChanges:         len(cs) > 0,
	}, nil
}

func countByKind(cs entry.Changeset) map[string]int {
	counts := map[string]int{"create": 0, "update": 0, "delete": 0}
	for _, op := range cs {
		switch op.Kind {
		case entry.OpCreate:
			counts["create"]++
		case entry.OpUpdate:
			counts["update"]++
		case entry.OpDelete:
			counts["delete"]++
		}
	}
	return counts
}

// formatChangeset renders one line per op for display, truncating any
// entry.source longer than maxInlineSourceBytes to a placeholder
// (spec.md §4.5 "(d)").
func formatChangeset(cs entry.Changeset) []string {
	out := make([]string, 0, len(cs))
	for _, op := range cs {
		source := op.Entry.DataString("source")
		if len(source) > maxInlineSourceBytes {
			source = fmt.Sprintf("<source truncated, %d bytes>", len(source))
		}
		if source != "" {
			out = append(out, fmt.Sprintf("%s %s (kind=%s): %s", op.Kind, op.Entry.ID, op.Entry.Kind, source))
		} else {
			out = append(out, fmt.Sprintf("%s %s (kind=%s)", op.Kind, op.Entry.ID, op.Entry.Kind))
		}
	}
	return out
}
