// Package coordinator implements C2: the long-lived single-writer actor
// that accepts commands off the command topic, enforces mutual exclusion
// over the one in-flight mutation, spawns and supervises workers, and
// publishes version-change events. Modeled on the single-goroutine actor
// loop shown by the pack's actor/coordinator examples (a message channel
// drained by exactly one goroutine that owns all mutable state), adapted
// from their generic "repo"/"restore" domains to this registry's
// upload/change/download worker set.
//
// The mutual-exclusion invariant (spec.md §5) is enforced by the
// operationInProgress flag on state, not by a mutex: state is read and
// written only inside Run's select loop, so no lock is needed or used.
package coordinator

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/hashmap-kz/govreg/internal/bus"
	"github.com/hashmap-kz/govreg/internal/extensions"
	"github.com/hashmap-kz/govreg/internal/logging"
	"github.com/hashmap-kz/govreg/internal/pipeline"
	"github.com/hashmap-kz/govreg/internal/store"
)

// pendingOperation is one row of spec.md §3's pending_operations map.
type pendingOperation struct {
	WorkerID     string
	RespondTo    string
	RequestID    string
	Operation    operationKind
	Stage        string
	UserID       string
	Options      map[string]any
	StartTime    time.Time
	UploadResult *UploadResult
	// CheckOnly marks an upload worker spawned for spec.md §4.5's
	// check_only mode: handleUploadExit replies with the diff directly
	// instead of chaining into the change pipeline.
	CheckOnly bool
}

// workerEvent is the single terminal event a spawned worker goroutine
// reports. A zero-value Value with a nil Err (neither a result nor an
// error) is the "worker_no_result" case called out in the Design Notes'
// open question: rather than dereferencing a result that doesn't exist,
// it is treated as its own explicit failure kind.
type workerEvent struct {
	WorkerID string
	Value    any
	Err      error
}

// state is the coordinator's process-local, single-writer state.
type state struct {
	currentVersion           string
	lastUpdated              int64
	operationInProgress      bool
	currentOperation         operationKind
	operationStartTime       int64
	pending                  map[string]*pendingOperation
	registryChangesPending   bool
	filesystemChangesPending bool
	lastDownloadVersion      string
	lastOperationType        string
}

// Coordinator is C2. Store/Pipeline/Uploader/Downloader/Relay/Bus/Log are
// all external collaborators reached only through their interfaces.
type Coordinator struct {
	Store       store.EntryStore
	Pipeline    *pipeline.Pipeline
	Uploader    Uploader
	Downloader  Downloader
	Relay       Relay
	Bus         bus.Bus
	Log         logging.Logger
	ProcessHost string

	st         state
	workerDone chan workerEvent
}

// New builds a Coordinator. log may be nil, in which case logging.Nop is
// used. processHost corresponds to APP_HOST (spec.md §6), recorded only
// for diagnostics — this implementation spawns goroutines, not remote
// processes, so it never dials out to it.
func New(
	st store.EntryStore,
	pl *pipeline.Pipeline,
	up Uploader,
	down Downloader,
	rl Relay,
	b bus.Bus,
	log logging.Logger,
	processHost string,
) *Coordinator {
	if log == nil {
		log = logging.Nop{}
	}
	return &Coordinator{
		Store:       st,
		Pipeline:    pl,
		Uploader:    up,
		Downloader:  down,
		Relay:       rl,
		Bus:         b,
		Log:         log,
		ProcessHost: processHost,
		workerDone:  make(chan workerEvent, 8),
		st:          state{pending: make(map[string]*pendingOperation)},
	}
}

func now() int64 { return time.Now().Unix() }

// Run subscribes to the command topic and processes exactly one message
// at a time — a command or a worker's terminal event — until ctx is
// canceled. On cancellation it logs and returns nil without waiting for
// in-flight workers (spec.md §5 "Cancellation & timeouts": in-flight
// workers are allowed to finish naturally, their termination is not
// required).
func (c *Coordinator) Run(ctx context.Context) error {
	cmds, unsubscribe, err := c.Bus.Subscribe(ctx, bus.CommandTopic)
	if err != nil {
		return fmt.Errorf("coordinator: subscribe to command topic: %w", err)
	}
	defer unsubscribe()

	cur, err := c.Store.CurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("coordinator: read current version: %w", err)
	}
	c.st.currentVersion = cur
	c.st.lastUpdated = now()

	for {
		select {
		case <-ctx.Done():
			c.Log.Info("coordinator stopping", "status", "completed", "last_version", c.st.currentVersion)
			return nil
		case msg, ok := <-cmds:
			if !ok {
				return nil
			}
			c.handleCommand(ctx, msg)
		case ev := <-c.workerDone:
			c.handleWorkerExit(ctx, ev)
		}
	}
}

func (c *Coordinator) handleCommand(ctx context.Context, msg bus.Message) {
	var env CommandEnvelope
	if err := json.Unmarshal(msg.Data, &env); err != nil {
		c.Log.Error("malformed command envelope", "error", err)
		return
	}

	if env.Operation == OpGetState {
		c.replyGetState(ctx, env)
		return
	}

	if c.st.operationInProgress {
		c.reply(ctx, env.RespondTo, &ReplyEnvelope{
			RequestID: env.ID,
			Success:   false,
			Timestamp: now(),
			Message:   fmt.Sprintf("Operation already in progress: %s", c.st.currentOperation),
		})
		return
	}

	switch env.Operation {
	case OpUpload:
		c.spawnUpload(ctx, env)
	case OpDownload:
		c.spawnDownload(ctx, env)
	case OpApplyChanges, OpApplyVersion:
		c.spawnApply(ctx, env)
	default:
		c.reply(ctx, env.RespondTo, &ReplyEnvelope{
			RequestID: env.ID,
			Success:   false,
			Timestamp: now(),
			Error:     fmt.Sprintf("Unknown operation: %s", env.Operation),
		})
	}
}

func (c *Coordinator) beginBusy(op operationKind) {
	c.st.operationInProgress = true
	c.st.currentOperation = op
	c.st.operationStartTime = now()
}

func (c *Coordinator) finishBusy() {
	c.st.operationInProgress = false
	c.st.currentOperation = ""
}

func (c *Coordinator) replyGetState(ctx context.Context, env CommandEnvelope) {
	info := &StateInfo{
		Registry: RegistryState{CurrentVersion: c.st.currentVersion, Timestamp: c.st.lastUpdated},
		Governance: GovernanceState{
			Status:              "running",
			PID:                 os.Getpid(),
			OperationInProgress: c.st.operationInProgress,
			CurrentOperation:    string(c.st.currentOperation),
			LastOperationType:   c.st.lastOperationType,
			LastUpdated:         c.st.lastUpdated,
		},
		Changes: ChangesState{
			FilesystemChangesPending: c.st.filesystemChangesPending,
			RegistryChangesPending:   c.st.registryChangesPending,
		},
	}
	c.reply(ctx, env.RespondTo, &ReplyEnvelope{RequestID: env.ID, Success: true, Timestamp: now(), State: info})
}

func (c *Coordinator) reply(ctx context.Context, topic string, rep *ReplyEnvelope) {
	payload, err := json.Marshal(rep)
	if err != nil {
		c.Log.Error("failed to marshal reply", "error", err)
		return
	}
	if err := c.Bus.Publish(ctx, topic, payload); err != nil {
		c.Log.Error("failed to publish reply", "topic", topic, "error", err)
	}
}

func (c *Coordinator) emitVersionEvent(ctx context.Context, oldVersion, newVersion string) {
	if c.Relay == nil || oldVersion == newVersion {
		return
	}
	c.Relay.Publish(ctx, oldVersion, newVersion)
}

// recoverWorker guarantees "exactly one terminal event per spawned
// worker" (spec.md §4.2) even if the worker goroutine panics.
func (c *Coordinator) recoverWorker(workerID string) func() {
	return func() {
		if r := recover(); r != nil {
			c.workerDone <- workerEvent{WorkerID: workerID, Err: fmt.Errorf("worker panic: %v", r)}
		}
	}
}

func newWorkerID() string { return uuid.NewString() }
