package pipeline

import (
	"context"

	"github.com/hashmap-kz/govreg/internal/extensions"
)

// execute implements spec.md §4.3's Executor stage: a changeset is
// translated into store.ApplyChangeset, a version id into
// store.ApplyVersion. preProcess guarantees that at least one of
// pctx.Changeset/pctx.VersionID is set by the time execute runs; when both
// are set, the changeset is applied and the version id is ignored.
func (p *Pipeline) execute(ctx context.Context, pctx *extensions.Context) *Outcome {
	if pctx.Changeset != nil {
		ares, err := p.Store.ApplyChangeset(ctx, *pctx.Changeset)
		if err != nil {
			return &Outcome{Result: &extensions.Result{Success: false, Message: "Operation failed", Error: err.Error()}}
		}
		if ares.NoOp {
			return &Outcome{
				Result:     &extensions.Result{Success: true, Message: "No changes needed to be applied"},
				OldVersion: ares.OldVersion,
				NewVersion: ares.NewVersion,
			}
		}
		return &Outcome{
			Result:     &extensions.Result{Success: true, Version: ares.NewVersion},
			OldVersion: ares.OldVersion,
			NewVersion: ares.NewVersion,
			Changed:    ares.Changed,
		}
	}

	ares, err := p.Store.ApplyVersion(ctx, pctx.VersionID)
	if err != nil {
		return &Outcome{Result: &extensions.Result{Success: false, Message: "Operation failed", Error: err.Error()}}
	}
	return &Outcome{
		Result:     &extensions.Result{Success: true, Version: ares.NewVersion},
		OldVersion: ares.OldVersion,
		NewVersion: ares.NewVersion,
		Changed:    ares.Changed,
	}
}
