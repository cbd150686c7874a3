// Package luasyntax implements the first of spec.md §4.8's illustrative
// example processors: Lua syntax validation plus require-statement
// extraction. It stands in for the tree-sitter-based validator the
// original system uses (spec.md §1 "the tree-sitter parser used by
// Lua-aware processors"); here the front end is
// github.com/yuin/gopher-lua's pure-Go parser, grounded on the stack
// named in SPEC_FULL.md §5 ("Domain stack") — used strictly to detect
// syntax errors, never to execute Lua.
//
// This is an example consumer of the extensions.Handler contract, not
// part of the core (spec.md §1).
package luasyntax

import (
	"context"
	"regexp"
	"strings"

	"github.com/yuin/gopher-lua/parse"

	"github.com/hashmap-kz/govreg/internal/entry"
	"github.com/hashmap-kz/govreg/internal/extensions"
)

// EntryID is the registry.processor entry id this handler advertises
// itself under; install it with a lower priority value than luadeps so it
// runs first, since luadeps depends on its output.
const EntryID = "processors:lua.syntax"

// luaKinds are the source-bearing Lua kinds spec.md §4.8 names.
var luaKinds = map[string]bool{
	"function.lua": true, "library.lua": true, "process.lua": true, "workflow.lua": true,
}

// requirePattern matches a Lua "local x = require(\"mod\")" or bare
// "require('mod')" statement. Extraction works over raw source text rather
// than the parsed AST: the grammar this processor cares about (call
// arguments to a global named require) is regular enough that a pattern
// match is simpler and more robust than coupling to gopher-lua's internal
// ast node shapes.
var requirePattern = regexp.MustCompile(`(?m)^.*\brequire\s*\(\s*["']([\w./:-]+)["']\s*\).*$`)

// Processor validates Lua syntax and extracts require() statements.
type Processor struct{}

var _ extensions.Handler = Processor{}

func (Processor) ID() string { return EntryID }

// Invoke implements spec.md §4.8: parses each Lua-kind entry's source,
// failing the pipeline on the first parse error; on success returns
// requires_by_entry: {entry_id -> {module_name -> original_require_statement}}.
func (Processor) Invoke(_ context.Context, pctx *extensions.Context) (*extensions.Result, error) {
	if pctx.Changeset == nil {
		return nil, nil
	}

	requiresByEntry := map[string]map[string]string{}

	for _, op := range *pctx.Changeset {
		if op.Kind == entry.OpDelete || !luaKinds[op.Entry.Kind] {
			continue
		}
		src := op.Entry.DataString("source")
		if src == "" {
			continue
		}

		if _, err := parse.Parse(strings.NewReader(src), op.Entry.ID); err != nil {
			return &extensions.Result{
				Success: false,
				Message: "Lua syntax error",
				Details: []extensions.Detail{{ID: op.Entry.ID, Type: "processor_failure", Message: err.Error()}},
			}, nil
		}

		requires := extractRequires(src)
		if len(requires) > 0 {
			requiresByEntry[op.Entry.ID] = requires
		}
	}

	if len(requiresByEntry) == 0 {
		return nil, nil
	}
	return &extensions.Result{Success: true, Extra: map[string]any{"requires_by_entry": requiresByEntry}}, nil
}

func extractRequires(src string) map[string]string {
	out := map[string]string{}
	for _, line := range strings.Split(src, "\n") {
		m := requirePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		out[m[1]] = strings.TrimSpace(line)
	}
	return out
}

// RequiresByEntry reads the requires_by_entry key luaDeps and downstream
// processors expect from pctx.Extra, satisfying the "open record" shape
// described in the Design Notes.
func RequiresByEntry(pctx *extensions.Context) (map[string]map[string]string, bool) {
	if pctx.Extra == nil {
		return nil, false
	}
	v, ok := pctx.Extra["requires_by_entry"].(map[string]map[string]string)
	return v, ok
}
