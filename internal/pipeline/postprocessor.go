package pipeline

import (
	"context"

	"github.com/hashmap-kz/govreg/internal/extensions"
)

// postProcess implements spec.md §4.3's Post-processor stage. On execution
// failure the result is returned untouched save for UserID and RequestID,
// which are set on every result. On success, if
// a changeset was executed, the listener chain runs fire-and-forget:
// listener return values and errors are logged only, never affecting the
// reply.
func (p *Pipeline) postProcess(ctx context.Context, pctx *extensions.Context, exec *Outcome) *extensions.Result {
	res := exec.Result
	res.UserID = pctx.UserID
	res.RequestID = pctx.RequestID

	if !res.Success {
		return res
	}

	if pctx.Changeset != nil {
		p.runListeners(ctx, pctx)
	}

	return res
}

func (p *Pipeline) runListeners(ctx context.Context, pctx *extensions.Context) {
	listeners, err := p.Extensions.Listeners(ctx)
	if err != nil {
		p.Log.Error("listener discovery failed", "error", err)
		return
	}

	for _, l := range listeners {
		res, err := l.Invoke(ctx, pctx)
		if err != nil {
			p.Log.Error("listener failed", "listener", l.ID(), "error", err)
			continue
		}
		if res != nil && !res.Success {
			p.Log.Warn("listener reported failure", "listener", l.ID(), "message", res.Message)
		}
	}
}
