package coordinator

import (
	"context"

	"github.com/hashmap-kz/govreg/internal/pipeline"
)

const errNoResult = "worker_no_result"

// handleWorkerExit is the exit handler of spec.md §4.2: look up the
// worker, remove its pending_operations entry unconditionally (invariant
// 2), then dispatch on stage.
func (c *Coordinator) handleWorkerExit(ctx context.Context, ev workerEvent) {
	pend, ok := c.st.pending[ev.WorkerID]
	if !ok {
		return
	}
	delete(c.st.pending, ev.WorkerID)

	switch pend.Stage {
	case stageUpload:
		c.handleUploadExit(ctx, pend, ev)
	case stageChange:
		c.handlePipelineExit(ctx, pend, ev)
	case stageSingle:
		if pend.Operation == OpDownload {
			c.handleDownloadExit(ctx, pend, ev)
		} else {
			c.handlePipelineExit(ctx, pend, ev)
		}
	}
}

// handleUploadExit implements spec.md §4.2 step 3. On success it chains
// into a change worker and does not reply to the client yet; on failure
// (or a worker that reported neither a result nor an error) it replies
// immediately and clears busy.
func (c *Coordinator) handleUploadExit(ctx context.Context, pend *pendingOperation, ev workerEvent) {
	if ev.Err != nil {
		c.finishBusy()
		c.reply(ctx, pend.RespondTo, &ReplyEnvelope{
			RequestID: pend.RequestID, Success: false, Timestamp: now(),
			Message: "Operation failed", Error: ev.Err.Error(),
		})
		return
	}

	res, ok := ev.Value.(*UploadResult)
	if !ok || res == nil {
		c.finishBusy()
		c.reply(ctx, pend.RespondTo, &ReplyEnvelope{
			RequestID: pend.RequestID, Success: false, Timestamp: now(), Error: errNoResult,
		})
		return
	}

	if !res.Success {
		c.finishBusy()
		c.reply(ctx, pend.RespondTo, &ReplyEnvelope{
			RequestID: pend.RequestID, Success: false, Timestamp: now(), Message: res.Message,
		})
		return
	}

	if pend.CheckOnly {
		c.finishBusy()
		c.reply(ctx, pend.RespondTo, &ReplyEnvelope{
			RequestID: pend.RequestID, Success: true, Timestamp: now(),
			Message:   res.Message,
			Stats:     res.Stats,
			Changeset: res.Changeset,
		})
		return
	}

	c.spawnChainedChange(ctx, pend, res)
}

// handlePipelineExit implements step 4 (stage=change, finalizing the
// upload→change chain) and the apply_changes/apply_version half of step 5
// (stage=single). Both run the same change pipeline and share the same
// *pipeline.Outcome shape, differing only in whether uploader stats are
// carried forward and which last_operation_type/pending flags apply.
func (c *Coordinator) handlePipelineExit(ctx context.Context, pend *pendingOperation, ev workerEvent) {
	c.finishBusy()

	if ev.Err != nil {
		c.reply(ctx, pend.RespondTo, &ReplyEnvelope{
			RequestID: pend.RequestID, Success: false, Timestamp: now(),
			Message: "Operation failed", Error: ev.Err.Error(),
		})
		return
	}

	out, ok := ev.Value.(*pipeline.Outcome)
	if !ok || out == nil {
		c.reply(ctx, pend.RespondTo, &ReplyEnvelope{
			RequestID: pend.RequestID, Success: false, Timestamp: now(), Error: errNoResult,
		})
		return
	}

	rep := &ReplyEnvelope{
		RequestID: pend.RequestID,
		Success:   out.Result.Success,
		Timestamp: now(),
		Message:   out.Result.Message,
		Error:     out.Result.Error,
		Version:   out.Result.Version,
		Details:   out.Result.Details,
		Changeset: out.Changeset,
	}
	if pend.Stage == stageChange && pend.UploadResult != nil {
		rep.Stats = pend.UploadResult.Stats
	}

	if out.Result.Success {
		switch {
		case pend.Stage == stageChange:
			c.st.filesystemChangesPending = false
			c.st.registryChangesPending = true
			c.st.lastOperationType = "upload"
		default:
			c.st.registryChangesPending = true
		}
	}

	if out.Changed {
		c.st.currentVersion = out.NewVersion
		c.st.lastUpdated = now()
		c.emitVersionEvent(ctx, out.OldVersion, out.NewVersion)
	}

	c.reply(ctx, pend.RespondTo, rep)
}

// handleDownloadExit implements the download half of step 5.
func (c *Coordinator) handleDownloadExit(ctx context.Context, pend *pendingOperation, ev workerEvent) {
	c.finishBusy()

	if ev.Err != nil {
		c.reply(ctx, pend.RespondTo, &ReplyEnvelope{
			RequestID: pend.RequestID, Success: false, Timestamp: now(),
			Message: "Operation failed", Error: ev.Err.Error(),
		})
		return
	}

	res, ok := ev.Value.(*DownloadResult)
	if !ok || res == nil {
		c.reply(ctx, pend.RespondTo, &ReplyEnvelope{
			RequestID: pend.RequestID, Success: false, Timestamp: now(), Error: errNoResult,
		})
		return
	}

	if res.Success {
		c.st.registryChangesPending = false
		c.st.lastOperationType = "download"
	}

	c.reply(ctx, pend.RespondTo, &ReplyEnvelope{
		RequestID: pend.RequestID, Success: res.Success, Timestamp: now(),
		Message: res.Message, Stats: res.Stats,
	})
}
