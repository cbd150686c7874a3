package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashmap-kz/govreg/internal/entry"
	"github.com/hashmap-kz/govreg/internal/extensions"
	"github.com/hashmap-kz/govreg/internal/store/memstore"
)

type fnHandler struct {
	id string
	fn func(ctx context.Context, pctx *extensions.Context) (*extensions.Result, error)
}

func (h fnHandler) ID() string { return h.id }
func (h fnHandler) Invoke(ctx context.Context, pctx *extensions.Context) (*extensions.Result, error) {
	return h.fn(ctx, pctx)
}

func newPipeline(t *testing.T) (*Pipeline, *extensions.Registry, *memstore.Store) {
	t.Helper()
	st := memstore.New()
	reg := extensions.NewRegistry(st)
	return New(st, reg, nil), reg, st
}

func TestRunAppliesChangeset(t *testing.T) {
	p, _, _ := newPipeline(t)
	cs := entry.Changeset{{Kind: entry.OpCreate, Entry: entry.Entry{ID: "services:api", Kind: "registry.entry"}}}

	out, err := p.Run(context.Background(), &extensions.Context{Changeset: &cs, RequestID: "req-1"})
	require.NoError(t, err)
	require.True(t, out.Result.Success)
	assert.Equal(t, "v1", out.Result.Version)
	assert.True(t, out.Changed)
	assert.Equal(t, "req-1", out.Result.RequestID)
	assert.Equal(t, cs, out.Changeset)
}

func TestRunRejectsEntirelyMalformedChangeset(t *testing.T) {
	p, _, _ := newPipeline(t)
	cs := entry.Changeset{{Kind: "bogus", Entry: entry.Entry{ID: "a:b"}}}

	out, err := p.Run(context.Background(), &extensions.Context{Changeset: &cs})
	require.NoError(t, err)
	assert.False(t, out.Result.Success)
	assert.Equal(t, "Failed to validate changeset", out.Result.Message)
	assert.Len(t, out.Result.Details, 1)
}

func TestRunKeepsWellFormedSubset(t *testing.T) {
	p, _, _ := newPipeline(t)
	cs := entry.Changeset{
		{Kind: entry.OpCreate, Entry: entry.Entry{ID: "a:b", Kind: "function.lua"}},
		{Kind: "bogus", Entry: entry.Entry{ID: "a:c"}},
	}

	out, err := p.Run(context.Background(), &extensions.Context{Changeset: &cs})
	require.NoError(t, err)
	require.True(t, out.Result.Success)
	require.Len(t, out.Result.Details, 1)
	assert.Equal(t, "a:c", out.Result.Details[0].ID)
}

func TestRunRejectsUnknownVersion(t *testing.T) {
	p, _, _ := newPipeline(t)

	out, err := p.Run(context.Background(), &extensions.Context{VersionID: "does-not-exist"})
	require.NoError(t, err)
	assert.False(t, out.Result.Success)
	assert.Equal(t, "Failed to validate version ID", out.Result.Message)
	require.Len(t, out.Result.Details, 1)
	assert.Equal(t, "version:does-not-exist", out.Result.Details[0].ID)
	assert.Equal(t, "Version not found: does-not-exist", out.Result.Details[0].Message)
}

func TestEmptyChangesetIsRejectedNotNoOp(t *testing.T) {
	p, _, _ := newPipeline(t)
	out, err := p.Run(context.Background(), &extensions.Context{Changeset: &entry.Changeset{}})
	require.NoError(t, err)
	assert.False(t, out.Result.Success) // empty changeset is fully-malformed shape, not a no-op
}

func TestProcessorFailureAbortsWithDetails(t *testing.T) {
	p, reg, st := newPipeline(t)
	ctx := context.Background()

	_, err := st.ApplyChangeset(ctx, entry.Changeset{{Kind: entry.OpCreate, Entry: entry.Entry{
		ID: "proc:reject", Kind: "registry.entry", Meta: map[string]any{"type": extensions.MetaTypeProcessor},
	}}})
	require.NoError(t, err)

	reg.Register("proc:reject", fnHandler{id: "proc:reject", fn: func(context.Context, *extensions.Context) (*extensions.Result, error) {
		return &extensions.Result{Success: false, Message: "rejected by policy", Details: []extensions.Detail{{ID: "x", Type: "processor_failure", Message: "no good"}}}, nil
	}})

	cs := entry.Changeset{{Kind: entry.OpCreate, Entry: entry.Entry{ID: "a:b", Kind: "function.lua"}}}
	out, err := p.Run(ctx, &extensions.Context{Changeset: &cs})
	require.NoError(t, err)
	assert.False(t, out.Result.Success)
	assert.Equal(t, "rejected by policy", out.Result.Message)
	require.Len(t, out.Result.Details, 1)
}

func TestOptionsImmutabilityAcrossProcessors(t *testing.T) {
	p, reg, st := newPipeline(t)
	ctx := context.Background()

	mk := func(id string, prio int) entry.Entry {
		return entry.Entry{ID: id, Kind: "registry.entry", Meta: map[string]any{"type": extensions.MetaTypeProcessor, "priority": prio}}
	}
	_, err := st.ApplyChangeset(ctx, entry.Changeset{
		{Kind: entry.OpCreate, Entry: mk("proc:first", 1)},
		{Kind: entry.OpCreate, Entry: mk("proc:second", 2)},
	})
	require.NoError(t, err)

	var secondSawOptions map[string]any
	var secondSawCustom any

	reg.Register("proc:first", fnHandler{id: "proc:first", fn: func(_ context.Context, pctx *extensions.Context) (*extensions.Result, error) {
		return &extensions.Result{Success: true, Extra: map[string]any{
			"options":    map[string]any{"tampered": true},
			"custom_key": "visible",
		}}, nil
	}})
	reg.Register("proc:second", fnHandler{id: "proc:second", fn: func(_ context.Context, pctx *extensions.Context) (*extensions.Result, error) {
		secondSawOptions = pctx.Options
		secondSawCustom = pctx.Extra["custom_key"]
		return nil, nil
	}})

	cs := entry.Changeset{{Kind: entry.OpCreate, Entry: entry.Entry{ID: "a:b", Kind: "function.lua"}}}
	origOptions := map[string]any{"directory": "/src"}
	out, err := p.Run(ctx, &extensions.Context{Changeset: &cs, Options: origOptions})
	require.NoError(t, err)
	require.True(t, out.Result.Success)

	assert.Equal(t, origOptions, secondSawOptions)
	assert.Equal(t, "visible", secondSawCustom)
}

func TestPostProcessRunsListenersFireAndForget(t *testing.T) {
	p, reg, st := newPipeline(t)
	ctx := context.Background()

	_, err := st.ApplyChangeset(ctx, entry.Changeset{{Kind: entry.OpCreate, Entry: entry.Entry{
		ID: "lst:boom", Kind: "registry.entry", Meta: map[string]any{"type": extensions.MetaTypeListener},
	}}})
	require.NoError(t, err)

	called := false
	reg.Register("lst:boom", fnHandler{id: "lst:boom", fn: func(context.Context, *extensions.Context) (*extensions.Result, error) {
		called = true
		return nil, assertErr
	}})

	cs := entry.Changeset{{Kind: entry.OpCreate, Entry: entry.Entry{ID: "a:b", Kind: "function.lua"}}}
	out, err := p.Run(ctx, &extensions.Context{Changeset: &cs})
	require.NoError(t, err)
	assert.True(t, out.Result.Success)
	assert.True(t, called)
}

var assertErr = errBoom{}

type errBoom struct{}

func (errBoom) Error() string { return "listener boom" }
