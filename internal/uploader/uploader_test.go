package uploader

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashmap-kz/govreg/internal/entry"
	"github.com/hashmap-kz/govreg/internal/store/memstore"
)

type stubLoader struct {
	entries []entry.Entry
	err     error
}

func (s stubLoader) Load(context.Context, string) ([]entry.Entry, error) {
	return s.entries, s.err
}

func TestUploadReportsDelta(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()
	_, err := st.ApplyChangeset(ctx, entry.Changeset{
		{Kind: entry.OpCreate, Entry: entry.Entry{ID: "a:b", Kind: "function.lua", Data: map[string]any{"source": "old"}}},
	})
	require.NoError(t, err)

	loader := stubLoader{entries: []entry.Entry{
		{ID: "a:b", Kind: "function.lua", Data: map[string]any{"source": "new"}},
		{ID: "a:c", Kind: "function.lua", Data: map[string]any{"source": "return 2"}},
	}}

	u := New(st, loader, "/src", nil)
	res, err := u.Upload(ctx, nil)
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, 1, res.Count["create"])
	assert.Equal(t, 1, res.Count["update"])
	assert.Equal(t, 0, res.Count["delete"])
	assert.True(t, res.HasChanges)
	assert.Len(t, res.Changeset, 2)
}

func TestUploadTruncatesLongSourceInFormattedOutput(t *testing.T) {
	st := memstore.New()
	loader := stubLoader{entries: []entry.Entry{
		{ID: "a:big", Kind: "function.lua", Data: map[string]any{"source": strings.Repeat("x", maxInlineSourceBytes+1)}},
	}}

	u := New(st, loader, "", nil)
	res, err := u.Upload(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, res.FormattedChangeset, 1)
	assert.Contains(t, res.FormattedChangeset[0], "truncated")
	assert.NotContains(t, res.FormattedChangeset[0], strings.Repeat("x", maxInlineSourceBytes+1))
}

func TestCheckOnlyReportsNoChangesWhenInSync(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()
	_, err := st.ApplyChangeset(ctx, entry.Changeset{
		{Kind: entry.OpCreate, Entry: entry.Entry{ID: "a:b", Kind: "function.lua", Data: map[string]any{"source": "x"}}},
	})
	require.NoError(t, err)

	loader := stubLoader{entries: []entry.Entry{
		{ID: "a:b", Kind: "function.lua", Data: map[string]any{"source": "x"}},
	}}

	u := New(st, loader, "", nil)
	res, err := u.CheckOnly(ctx, nil)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.False(t, res.HasChanges)
	assert.Nil(t, res.Changeset)
}

func TestUploadOptionsDirectoryOverridesDefault(t *testing.T) {
	st := memstore.New()
	var seen string
	loader := recordingLoader{seen: &seen}

	u := New(st, loader, "/default", nil)
	_, err := u.Upload(context.Background(), map[string]any{"directory": "/override"})
	require.NoError(t, err)
	assert.Equal(t, "/override", seen)
}

type recordingLoader struct {
	seen *string
}

func (r recordingLoader) Load(_ context.Context, directory string) ([]entry.Entry, error) {
	*r.seen = directory
	return nil, nil
}
