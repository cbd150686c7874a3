// Package pipeline implements C3, the three-stage change pipeline:
// pre-process (validate + processor chain) -> execute (apply to the entry
// store) -> post-process (listener fan-out). Pipeline.Run is what the
// coordinator spawns as a worker for apply_changes/apply_version commands,
// and as the second half of the upload->change chain.
package pipeline

import (
	"context"
	"errors"

	"github.com/hashmap-kz/govreg/internal/entry"
	"github.com/hashmap-kz/govreg/internal/extensions"
	"github.com/hashmap-kz/govreg/internal/logging"
	"github.com/hashmap-kz/govreg/internal/store"
)

var errNilContext = errors.New("pipeline: nil context")

// Pipeline wires together the entry store and the processor/listener
// registry the pre/post stages discover handlers from.
type Pipeline struct {
	Store      store.EntryStore
	Extensions *extensions.Registry
	Log        logging.Logger
}

// New builds a Pipeline. log may be nil, in which case logging.Nop is used.
func New(st store.EntryStore, ext *extensions.Registry, log logging.Logger) *Pipeline {
	if log == nil {
		log = logging.Nop{}
	}
	return &Pipeline{Store: st, Extensions: ext, Log: log}
}

// Outcome is the pipeline's terminal payload: the client-facing Result plus
// the version transition the coordinator needs to decide whether to emit a
// registry:version event.
type Outcome struct {
	Result     *extensions.Result
	OldVersion string
	NewVersion string
	Changed    bool
	// Changeset is the pre-processor's output changeset (spec.md §3
	// invariant 5: it may differ from the client's input) — echoed back to
	// the client per spec.md §4.1's request_changes/request_version result
	// shape. Nil for an apply_version outcome, since that path has no
	// changeset at all.
	Changeset entry.Changeset
}

// Run executes all three stages. It never returns a Go error for
// business-logic failures — those are encoded as Outcome.Result.Success ==
// false per the worker contract the coordinator expects (spec.md §4.2 "Any
// exception from a worker surfaces as {success:false, message:'Operation
// failed', error:<reason>}"); Run only returns a non-nil error for
// conditions that should never reach a client at all (a nil
// *extensions.Context, for instance).
func (p *Pipeline) Run(ctx context.Context, pctx *extensions.Context) (*Outcome, error) {
	if pctx == nil {
		return nil, errNilContext
	}

	pre, aborted := p.preProcess(ctx, pctx)
	if aborted {
		pre.UserID = pctx.UserID
		pre.RequestID = pctx.RequestID
		return &Outcome{Result: pre}, nil
	}

	exec := p.execute(ctx, pctx)
	exec.Result.Details = append(pre.Details, exec.Result.Details...)
	mergeExtra(exec.Result, pre.Extra)
	if pctx.Changeset != nil {
		exec.Changeset = *pctx.Changeset
	}

	exec.Result = p.postProcess(ctx, pctx, exec)
	return exec, nil
}

func mergeExtra(r *extensions.Result, extra map[string]any) {
	if len(extra) == 0 {
		return
	}
	if r.Extra == nil {
		r.Extra = make(map[string]any, len(extra))
	}
	for k, v := range extra {
		if _, exists := r.Extra[k]; !exists {
			r.Extra[k] = v
		}
	}
}
