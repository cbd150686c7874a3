// Package luadeps implements spec.md §4.8's Lua dependency resolver: it
// consumes the requires_by_entry carried key luasyntax produces and
// ensures every required module is declared either in data.modules
// (standard module) or data.imports (registry-qualified or local-namespace
// module, identified by a leading "ns:" or "."), generating unique aliases
// on collision and rewriting source via plain (non-regex) substitution of
// the original require() call with a reference to the resolved alias.
package luadeps

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hashmap-kz/govreg/internal/entry"
	"github.com/hashmap-kz/govreg/internal/extensions"
	"github.com/hashmap-kz/govreg/internal/processors/luasyntax"
)

// EntryID is the registry.processor entry id. It must be installed with a
// higher priority value than luasyntax.EntryID (processors run in ascending
// priority, so it runs later) so requires_by_entry is already populated.
const EntryID = "processors:lua.deps"

// Processor is the dependency resolver.
type Processor struct{}

var _ extensions.Handler = Processor{}

func (Processor) ID() string { return EntryID }

func (Processor) Invoke(_ context.Context, pctx *extensions.Context) (*extensions.Result, error) {
	if pctx.Changeset == nil {
		return nil, nil
	}
	requiresByEntry, ok := luasyntax.RequiresByEntry(pctx)
	if !ok || len(requiresByEntry) == 0 {
		return nil, nil
	}

	cs := *pctx.Changeset
	var details []extensions.Detail

	for i := range cs {
		op := &cs[i]
		requires, ok := requiresByEntry[op.Entry.ID]
		if !ok || len(requires) == 0 {
			continue
		}
		details = append(details, resolveEntry(op, requires)...)
	}

	pctx.Changeset = &cs
	return &extensions.Result{Success: true, Details: details}, nil
}

// qualified reports whether mod is registry-qualified ("namespace:name") or
// local-namespace (leading ".") — the two forms that resolve through
// data.imports rather than data.modules.
func qualified(mod string) bool {
	return strings.Contains(mod, ":") || strings.HasPrefix(mod, ".")
}

func aliasBase(mod string) string {
	if idx := strings.LastIndexAny(mod, ":."); idx >= 0 {
		return mod[idx+1:]
	}
	return mod
}

func resolveEntry(op *entry.ChangeOp, requires map[string]string) []extensions.Detail {
	if op.Entry.Data == nil {
		op.Entry.Data = map[string]any{}
	}
	modules := stringSet(op.Entry.Data["modules"])
	importAliases := stringMapKeys(op.Entry.Data["imports"])
	resolvedModules := reverseStringMap(op.Entry.Data["imports"])
	usedAliases := unionSet(modules, importAliases)

	src := op.Entry.DataString("source")
	var details []extensions.Detail

	for _, mod := range sortedKeys(requires) {
		stmt := requires[mod]

		if !qualified(mod) {
			if !modules[mod] {
				addModule(op.Entry.Data, mod)
				modules[mod] = true
			}
			continue
		}

		if resolvedModules[mod] {
			continue // module already resolved to some existing alias; leave source untouched
		}

		alias := uniqueAlias(aliasBase(mod), usedAliases)
		usedAliases[alias] = true
		setImport(op.Entry.Data, alias, mod)

		newSrc := strings.Replace(src, stmt, replaceRequireCall(stmt, alias), 1)
		if newSrc != src {
			src = newSrc
			details = append(details, extensions.Detail{
				ID: op.Entry.ID, Type: "dependency",
				Message: fmt.Sprintf("resolved require %q as import alias %q", mod, alias),
			})
		}
	}

	if src != op.Entry.DataString("source") {
		op.Entry.Data["source"] = src
	}
	return details
}

// uniqueAlias returns base itself if not already used, otherwise base with
// a numeric suffix appended until it is unique (spec.md §4.8 "generating
// unique aliases on collision").
func uniqueAlias(base string, used map[string]bool) string {
	if !used[base] {
		return base
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s_%d", base, i)
		if !used[candidate] {
			return candidate
		}
	}
}

// replaceRequireCall substitutes the require(...) call within stmt with a
// bare reference to alias — a plain substring replace, not a regex
// substitution, per spec.md §4.8.
func replaceRequireCall(stmt, alias string) string {
	start := strings.Index(stmt, "require(")
	if start < 0 {
		return stmt
	}
	end := strings.Index(stmt[start:], ")")
	if end < 0 {
		return stmt
	}
	end += start + 1
	return stmt[:start] + alias + stmt[end:]
}

func setImport(data map[string]any, alias, mod string) {
	imports, _ := data["imports"].(map[string]any)
	if imports == nil {
		imports = map[string]any{}
	}
	imports[alias] = mod
	data["imports"] = imports
}

func addModule(data map[string]any, mod string) {
	raw, _ := data["modules"].([]any)
	data["modules"] = append(raw, mod)
}

func stringSet(v any) map[string]bool {
	out := map[string]bool{}
	list, _ := v.([]any)
	for _, item := range list {
		if s, ok := item.(string); ok {
			out[s] = true
		}
	}
	return out
}

func stringMapKeys(v any) map[string]bool {
	out := map[string]bool{}
	m, _ := v.(map[string]any)
	for k := range m {
		out[k] = true
	}
	return out
}

// reverseStringMap inverts an imports map (alias -> module) into a
// membership set of the module values it already resolves.
func reverseStringMap(v any) map[string]bool {
	out := map[string]bool{}
	m, _ := v.(map[string]any)
	for _, val := range m {
		if s, ok := val.(string); ok {
			out[s] = true
		}
	}
	return out
}

func unionSet(a, b map[string]bool) map[string]bool {
	out := map[string]bool{}
	for k := range a {
		out[k] = true
	}
	for k := range b {
		out[k] = true
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
