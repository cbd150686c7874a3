package entry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitID(t *testing.T) {
	ns, name, err := SplitID("services:api")
	require.NoError(t, err)
	assert.Equal(t, "services", ns)
	assert.Equal(t, "api", name)

	ns, name, err = SplitID("a.b.c:x")
	require.NoError(t, err)
	assert.Equal(t, "a.b.c", ns)
	assert.Equal(t, "x", name)

	_, _, err = SplitID("no-colon")
	assert.Error(t, err)

	_, _, err = SplitID(":noNamespace")
	assert.Error(t, err)

	_, _, err = SplitID("noName:")
	assert.Error(t, err)
}

func TestValidateShape(t *testing.T) {
	cs := Changeset{
		{Kind: OpCreate, Entry: Entry{ID: "a:b", Kind: "function.lua"}},
		{Kind: "bogus", Entry: Entry{ID: "a:c"}},
		{Kind: OpDelete, Entry: Entry{}},
		{Kind: OpDelete, Entry: Entry{ID: "a:d"}},
	}

	ok, issues := ValidateShape(cs)
	assert.Len(t, ok, 2)
	assert.Len(t, issues, 2)
	assert.Contains(t, issues[0].Message, "unrecognized kind")
	assert.Contains(t, issues[1].Message, "missing entry id")
}

func TestKindConfigLookup(t *testing.T) {
	kc := DefaultKindConfig()

	m, ok := kc.Lookup(&Entry{Kind: "function.lua"})
	require.True(t, ok)
	assert.Equal(t, ".lua", m.Extension)

	m, ok = kc.Lookup(&Entry{Kind: "registry.entry", Meta: map[string]any{"type": "view.page"}})
	require.True(t, ok)
	assert.Equal(t, ".html", m.Extension)

	_, ok = kc.Lookup(&Entry{Kind: "registry.entry"})
	assert.False(t, ok)
}
