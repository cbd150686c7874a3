package client

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashmap-kz/govreg/internal/bus/inproc"
	"github.com/hashmap-kz/govreg/internal/coordinator"
	"github.com/hashmap-kz/govreg/internal/entry"
	"github.com/hashmap-kz/govreg/internal/extensions"
	"github.com/hashmap-kz/govreg/internal/pipeline"
	"github.com/hashmap-kz/govreg/internal/store/memstore"
)

type stubUploader struct{}

func (stubUploader) Upload(context.Context, map[string]any) (*coordinator.UploadResult, error) {
	cs := entry.Changeset{{Kind: entry.OpCreate, Entry: entry.Entry{ID: "a:b", Kind: "function.lua"}}}
	return &coordinator.UploadResult{Success: true, Changeset: cs, Stats: map[string]int{"create": 1}}, nil
}

func (stubUploader) CheckOnly(context.Context, map[string]any) (*coordinator.UploadResult, error) {
	return &coordinator.UploadResult{Success: true}, nil
}

type stubDownloader struct{}

func (stubDownloader) Download(context.Context, map[string]any) (*coordinator.DownloadResult, error) {
	return &coordinator.DownloadResult{Success: true, Stats: map[string]int{"entries": 0}}, nil
}

type stubRelay struct{}

func (stubRelay) Publish(context.Context, string, string) {}

// newRunningCoordinator wires a full in-process stack (matching
// spec.md §8's end-to-end scenarios) so the client can be exercised
// against the real wire protocol rather than a mock transport.
func newRunningCoordinator(t *testing.T) (*Client, *memstore.Store) {
	t.Helper()
	b := inproc.New()
	st := memstore.New()
	reg := extensions.NewRegistry(st)
	pl := pipeline.New(st, reg, nil)
	coord := coordinator.New(st, pl, stubUploader{}, stubDownloader{}, stubRelay{}, b, nil, "app:processes")

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = coord.Run(ctx) }()
	t.Cleanup(cancel)
	time.Sleep(10 * time.Millisecond)

	c := New(b, nil)
	c.Timeout = 2 * time.Second
	return c, st
}

func TestGetStateWhileIdle(t *testing.T) {
	c, _ := newRunningCoordinator(t)
	state, err := c.GetState(context.Background(), "alice")
	require.NoError(t, err)
	assert.False(t, state.Governance.OperationInProgress)
	assert.Equal(t, "", state.Governance.CurrentOperation)
	assert.Equal(t, "v0", state.Registry.CurrentVersion)
}

func TestRequestChangesRoundTrip(t *testing.T) {
	c, _ := newRunningCoordinator(t)
	cs := entry.Changeset{{
		Kind:  entry.OpCreate,
		Entry: entry.Entry{ID: "services:api", Kind: "registry.entry", Meta: map[string]any{"type": "service.api"}, Data: map[string]any{"port": 8080}},
	}}

	rep, err := c.RequestChanges(context.Background(), "alice", cs, nil)
	require.NoError(t, err)
	require.True(t, rep.Success)
	assert.Equal(t, "v1", rep.Version)

	state, err := c.GetState(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "v1", state.Registry.CurrentVersion)
}

type fakeBuilder struct{ ops []entry.ChangeOp }

func (f fakeBuilder) Ops() []entry.ChangeOp { return f.ops }

func TestRequestChangesUnwrapsBuilder(t *testing.T) {
	c, _ := newRunningCoordinator(t)
	b := fakeBuilder{ops: []entry.ChangeOp{{Kind: entry.OpCreate, Entry: entry.Entry{ID: "a:b", Kind: "function.lua"}}}}

	rep, err := c.RequestChanges(context.Background(), "alice", b, nil)
	require.NoError(t, err)
	assert.True(t, rep.Success)
}

func TestRequestVersionNotFound(t *testing.T) {
	c, _ := newRunningCoordinator(t)
	rep, err := c.RequestVersion(context.Background(), "alice", "does-not-exist", nil)
	require.NoError(t, err)
	assert.False(t, rep.Success)
	assert.Equal(t, "Failed to validate version ID", rep.Message)
	require.Len(t, rep.Details, 1)
	assert.Equal(t, "version:does-not-exist", rep.Details[0].ID)
}

func TestPermissionDeniedNeverSendsACommand(t *testing.T) {
	b := inproc.New()
	checker := &StaticChecker{Grants: map[string][]string{"alice": {PermRead}}}
	c := New(b, checker)

	_, err := c.RequestChanges(context.Background(), "alice", entry.Changeset{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
}

func TestRequestUploadChainsToChangeReply(t *testing.T) {
	c, _ := newRunningCoordinator(t)
	rep, err := c.RequestUpload(context.Background(), "alice", nil)
	require.NoError(t, err)
	assert.True(t, rep.Success)
}

func TestRequestDownload(t *testing.T) {
	c, _ := newRunningCoordinator(t)
	rep, err := c.RequestDownload(context.Background(), "alice", nil)
	require.NoError(t, err)
	assert.True(t, rep.Success)
}

func TestCallTimesOutWhenNoReplyArrives(t *testing.T) {
	b := inproc.New() // nothing is subscribed to bus.CommandTopic
	c := New(b, nil)
	c.Timeout = 50 * time.Millisecond

	_, err := c.RequestChanges(context.Background(), "alice", entry.Changeset{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}
