// Package emptydeps implements spec.md §4.8's empty-deps cleaner: it
// deletes empty "modules" arrays and empty "imports" maps from Lua entry
// data, tidying up whatever luadeps (or an upload) left behind when an
// entry declares dependency fields it no longer needs.
package emptydeps

import (
	"context"

	"github.com/hashmap-kz/govreg/internal/entry"
	"github.com/hashmap-kz/govreg/internal/extensions"
)

// EntryID is the registry.processor entry id.
const EntryID = "processors:lua.empty-deps"

var luaKinds = map[string]bool{
	"function.lua": true, "library.lua": true, "process.lua": true, "workflow.lua": true,
}

// Processor removes empty dependency fields.
type Processor struct{}

var _ extensions.Handler = Processor{}

func (Processor) ID() string { return EntryID }

func (Processor) Invoke(_ context.Context, pctx *extensions.Context) (*extensions.Result, error) {
	if pctx.Changeset == nil {
		return nil, nil
	}
	cs := *pctx.Changeset
	cleaned := 0

	for i := range cs {
		op := &cs[i]
		if op.Kind == entry.OpDelete || !luaKinds[op.Entry.Kind] || op.Entry.Data == nil {
			continue
		}
		if isEmptyList(op.Entry.Data["modules"]) {
			delete(op.Entry.Data, "modules")
			cleaned++
		}
		if isEmptyMap(op.Entry.Data["imports"]) {
			delete(op.Entry.Data, "imports")
			cleaned++
		}
	}

	if cleaned == 0 {
		return nil, nil
	}
	pctx.Changeset = &cs
	return &extensions.Result{Success: true}, nil
}

func isEmptyList(v any) bool {
	list, ok := v.([]any)
	return ok && len(list) == 0
}

func isEmptyMap(v any) bool {
	m, ok := v.(map[string]any)
	return ok && len(m) == 0
}
