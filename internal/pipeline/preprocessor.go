package pipeline

import (
	"context"
	"fmt"

	"github.com/hashmap-kz/govreg/internal/entry"
	"github.com/hashmap-kz/govreg/internal/extensions"
)

// preProcess runs shape validation followed by the processor chain. The
// bool return reports whether the pipeline must stop here (validation
// rejection or a processor verdict of success=false); in that case the
// *extensions.Result is already the final, client-facing answer.
func (p *Pipeline) preProcess(ctx context.Context, pctx *extensions.Context) (*extensions.Result, bool) {
	fatal, nonFatal, aborted := p.validateShape(ctx, pctx)
	if aborted {
		return fatal, true
	}

	agg := &extensions.Result{Success: true, Details: nonFatal}

	procs, err := p.Extensions.Processors(ctx)
	if err != nil {
		agg.Details = append(agg.Details, extensions.Detail{Type: "processor_failure", Message: err.Error()})
		return &extensions.Result{Success: false, Message: "Operation failed", Error: err.Error(), Details: agg.Details}, true
	}

	origOptions := pctx.Options
	origUserID := pctx.UserID

	for _, proc := range procs {
		res, err := proc.Invoke(ctx, pctx)
		if err != nil {
			agg.Details = append(agg.Details, extensions.Detail{
				ID: proc.ID(), Type: "processor_failure",
				Message: fmt.Sprintf("processor %s errored: %v", proc.ID(), err),
			})
			return &extensions.Result{
				Success: false,
				Message: "Operation failed",
				Error:   err.Error(),
				Details: agg.Details,
			}, true
		}
		if res == nil {
			continue
		}
		if !res.Success {
			agg.Details = append(agg.Details, res.Details...)
			return &extensions.Result{
				Success: false,
				Message: res.Message,
				Error:   res.Error,
				Details: agg.Details,
			}, true
		}

		agg.Details = append(agg.Details, res.Details...)
		mergeIntoContext(pctx, res.Extra)

		// options and user_id are restored after every step: a processor
		// cannot durably override security-relevant context, even if it
		// returned keys by those names.
		pctx.Options = origOptions
		pctx.UserID = origUserID
	}

	agg.Extra = pctx.Extra
	return agg, false
}

// mergeIntoContext folds a processor's returned extra keys into pctx.Extra,
// skipping "options"/"user_id" — those are protected, typed fields on
// Context and are never reachable through Extra.
func mergeIntoContext(pctx *extensions.Context, extra map[string]any) {
	if len(extra) == 0 {
		return
	}
	if pctx.Extra == nil {
		pctx.Extra = make(map[string]any, len(extra))
	}
	for k, v := range extra {
		if k == "options" || k == "user_id" {
			continue
		}
		pctx.Extra[k] = v
	}
}

// validateShape implements spec.md §4.3 (a). For a changeset: reject if
// empty or entirely ill-formed (fatal, aborted=true); otherwise proceed
// with the well-formed subset and return one detail per dropped item
// (non-fatal). For apply_version: confirm the version exists in history.
func (p *Pipeline) validateShape(ctx context.Context, pctx *extensions.Context) (fatal *extensions.Result, nonFatal []extensions.Detail, aborted bool) {
	switch {
	case pctx.Changeset != nil:
		ok, issues := entry.ValidateShape(*pctx.Changeset)
		if len(ok) == 0 {
			return &extensions.Result{
				Success: false,
				Message: "Failed to validate changeset",
				Details: toDetails(issues),
			}, nil, true
		}
		pctx.Changeset = &ok
		return nil, toDetails(issues), false

	case pctx.VersionID != "":
		exists, err := p.Store.VersionExists(ctx, pctx.VersionID)
		if err != nil {
			return &extensions.Result{Success: false, Message: "Operation failed", Error: err.Error()}, nil, true
		}
		if !exists {
			return &extensions.Result{
				Success: false,
				Message: "Failed to validate version ID",
				Details: []extensions.Detail{{
					ID:      "version:" + pctx.VersionID,
					Type:    "validation",
					Message: "Version not found: " + pctx.VersionID,
				}},
			}, nil, true
		}
		return nil, nil, false

	default:
		return &extensions.Result{
			Success: false,
			Message: "Failed to validate changeset",
			Details: []extensions.Detail{{Type: "validation", Message: "neither a changeset nor a version id was provided"}},
		}, nil, true
	}
}

func toDetails(issues []entry.ItemIssue) []extensions.Detail {
	out := make([]extensions.Detail, len(issues))
	for i, iss := range issues {
		out[i] = extensions.Detail{ID: iss.Op.Entry.ID, Type: "validation", Message: iss.Message}
	}
	return out
}
