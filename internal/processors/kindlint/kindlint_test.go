package kindlint

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashmap-kz/govreg/internal/entry"
	"github.com/hashmap-kz/govreg/internal/extensions"
)

func TestAllowsKnownKinds(t *testing.T) {
	cs := entry.Changeset{{
		Kind:  entry.OpCreate,
		Entry: entry.Entry{ID: "funcs:greet", Kind: "function.lua"},
	}}

	res, err := New().Invoke(context.Background(), &extensions.Context{Changeset: &cs})
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestRejectsUnknownKindWithSuggestion(t *testing.T) {
	cs := entry.Changeset{{
		Kind:  entry.OpCreate,
		Entry: entry.Entry{ID: "funcs:greet", Kind: "function.luau"},
	}}

	res, err := New().Invoke(context.Background(), &extensions.Context{Changeset: &cs})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.False(t, res.Success)
	require.Len(t, res.Details, 1)
	assert.Contains(t, res.Details[0].Message, `unrecognized kind: "function.luau"`)
	assert.Contains(t, res.Details[0].Message, `did you mean "function.lua"?`)
}

func TestRejectsKindWithNoSuggestion(t *testing.T) {
	cs := entry.Changeset{{
		Kind:  entry.OpCreate,
		Entry: entry.Entry{ID: "widgets:one", Kind: "widget.exotic"},
	}}

	res, err := New().Invoke(context.Background(), &extensions.Context{Changeset: &cs})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.False(t, res.Success)
	assert.NotContains(t, res.Details[0].Message, "did you mean")
}

func TestIgnoresDeleteOps(t *testing.T) {
	cs := entry.Changeset{{
		Kind:  entry.OpDelete,
		Entry: entry.Entry{ID: "funcs:old", Kind: "bogus.kind"},
	}}

	res, err := New().Invoke(context.Background(), &extensions.Context{Changeset: &cs})
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestCustomAllowList(t *testing.T) {
	cs := entry.Changeset{{
		Kind:  entry.OpCreate,
		Entry: entry.Entry{ID: "x:y", Kind: "custom.kind"},
	}}

	p := Processor{Allowed: []string{"custom.kind"}}
	res, err := p.Invoke(context.Background(), &extensions.Context{Changeset: &cs})
	require.NoError(t, err)
	assert.Nil(t, res)
}
