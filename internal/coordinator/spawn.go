package coordinator

import (
	"context"
	"time"

	"github.com/hashmap-kz/govreg/internal/extensions"
)

func (c *Coordinator) spawnUpload(ctx context.Context, env CommandEnvelope) {
	checkOnly, _ := env.Options["check_only"].(bool)

	workerID := newWorkerID()
	c.st.pending[workerID] = &pendingOperation{
		WorkerID:  workerID,
		RespondTo: env.RespondTo,
		RequestID: env.ID,
		Operation: OpUpload,
		Stage:     stageUpload,
		UserID:    env.UserID,
		Options:   env.Options,
		StartTime: time.Now(),
		CheckOnly: checkOnly,
	}
	c.beginBusy(OpUpload)

	go func() {
		defer c.recoverWorker(workerID)()
		var (
			res *UploadResult
			err error
		)
		if checkOnly {
			res, err = c.Uploader.CheckOnly(ctx, env.Options)
		} else {
			res, err = c.Uploader.Upload(ctx, env.Options)
		}
		c.workerDone <- workerEvent{WorkerID: workerID, Value: res, Err: err}
	}()
}

func (c *Coordinator) spawnDownload(ctx context.Context, env CommandEnvelope) {
	workerID := newWorkerID()
	c.st.pending[workerID] = &pendingOperation{
		WorkerID:  workerID,
		RespondTo: env.RespondTo,
		RequestID: env.ID,
		Operation: OpDownload,
		Stage:     stageSingle,
		UserID:    env.UserID,
		Options:   env.Options,
		StartTime: time.Now(),
	}
	c.beginBusy(OpDownload)

	go func() {
		defer c.recoverWorker(workerID)()
		res, err := c.Downloader.Download(ctx, env.Options)
		c.workerDone <- workerEvent{WorkerID: workerID, Value: res, Err: err}
	}()
}

func (c *Coordinator) spawnApply(ctx context.Context, env CommandEnvelope) {
	workerID := newWorkerID()
	op := OpApplyChanges
	if env.VersionID != "" {
		op = OpApplyVersion
	}
	c.st.pending[workerID] = &pendingOperation{
		WorkerID:  workerID,
		RespondTo: env.RespondTo,
		RequestID: env.ID,
		Operation: op,
		Stage:     stageSingle,
		UserID:    env.UserID,
		Options:   env.Options,
		StartTime: time.Now(),
	}
	c.beginBusy(op)

	pctx := &extensions.Context{
		Options:   env.Options,
		UserID:    env.UserID,
		RequestID: env.ID,
		VersionID: env.VersionID,
	}
	if len(env.Changeset) > 0 {
		cs := env.Changeset
		pctx.Changeset = &cs
	}
	c.runPipeline(ctx, workerID, pctx)
}

// spawnChainedChange implements spec.md §4.2 step 3: a successful upload
// chains directly into a change worker carrying the uploader's changeset
// and the original options/user_id, represented as a new pending_operations
// entry with stage=change per the Design Notes' "Upload→change chaining" —
// a two-step work item, not a spawn nested inside a spawn.
func (c *Coordinator) spawnChainedChange(ctx context.Context, upload *pendingOperation, uploadResult *UploadResult) {
	workerID := newWorkerID()
	c.st.pending[workerID] = &pendingOperation{
		WorkerID:     workerID,
		RespondTo:    upload.RespondTo,
		RequestID:    upload.RequestID,
		Operation:    OpUpload,
		Stage:        stageChange,
		UserID:       upload.UserID,
		Options:      upload.Options,
		StartTime:    upload.StartTime,
		UploadResult: uploadResult,
	}

	cs := uploadResult.Changeset
	pctx := &extensions.Context{
		Changeset: &cs,
		Options:   upload.Options,
		UserID:    upload.UserID,
		RequestID: upload.RequestID,
	}
	c.runPipeline(ctx, workerID, pctx)
}

func (c *Coordinator) runPipeline(ctx context.Context, workerID string, pctx *extensions.Context) {
	go func() {
		defer c.recoverWorker(workerID)()
		out, err := c.Pipeline.Run(ctx, pctx)
		c.workerDone <- workerEvent{WorkerID: workerID, Value: out, Err: err}
	}()
}
