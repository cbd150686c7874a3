// Package kindlint implements spec.md §4.8's kind linter: it rejects
// entries whose kind is not in a hard-coded allow-list, with "did you
// mean …" suggestions built from kinds sharing a prefix. Unlike the other
// example processors this one applies to every entry, not just Lua ones —
// it is the only one of the five that directly exercises spec.md §3's
// "unknown kinds are valid at the core level" boundary (the core accepts
// them; this opt-in processor is what actually restricts them).
package kindlint

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hashmap-kz/govreg/internal/entry"
	"github.com/hashmap-kz/govreg/internal/extensions"
)

// EntryID is the registry.processor entry id.
const EntryID = "processors:kind-lint"

// AllowedKinds is the hard-coded allow-list spec.md §4.8 describes.
var AllowedKinds = []string{
	"function.lua", "library.lua", "process.lua", "workflow.lua",
	"template.jet", "agent.gen1", "registry.entry",
	"registry.processor", "registry.listener",
}

// Processor rejects changesets containing an entry whose kind is not in
// AllowedKinds.
type Processor struct {
	Allowed []string
}

var _ extensions.Handler = Processor{}

// New builds a Processor checking against AllowedKinds.
func New() Processor { return Processor{Allowed: AllowedKinds} }

func (Processor) ID() string { return EntryID }

func (p Processor) Invoke(_ context.Context, pctx *extensions.Context) (*extensions.Result, error) {
	if pctx.Changeset == nil {
		return nil, nil
	}
	allowed := p.Allowed
	if allowed == nil {
		allowed = AllowedKinds
	}
	allowedSet := make(map[string]bool, len(allowed))
	for _, k := range allowed {
		allowedSet[k] = true
	}

	var details []extensions.Detail
	for _, op := range *pctx.Changeset {
		if op.Kind == entry.OpDelete || allowedSet[op.Entry.Kind] {
			continue
		}
		msg := fmt.Sprintf("unrecognized kind: %q", op.Entry.Kind)
		if suggestion := suggest(op.Entry.Kind, allowed); suggestion != "" {
			msg += fmt.Sprintf(" (did you mean %q?)", suggestion)
		}
		details = append(details, extensions.Detail{ID: op.Entry.ID, Type: "validation", Message: msg})
	}

	if len(details) == 0 {
		return nil, nil
	}
	return &extensions.Result{Success: false, Message: "Unrecognized entry kind", Details: details}, nil
}

// suggest returns the allowed kind sharing the longest prefix with kind,
// provided they share at least the component before the first ".".
func suggest(kind string, allowed []string) string {
	prefix := kind
	if idx := strings.Index(kind, "."); idx >= 0 {
		prefix = kind[:idx]
	}

	var candidates []string
	for _, k := range allowed {
		if strings.HasPrefix(k, prefix) {
			candidates = append(candidates, k)
		}
	}
	if len(candidates) == 0 {
		return ""
	}
	sort.Strings(candidates)
	best, bestLen := candidates[0], -1
	for _, k := range candidates {
		n := 0
		for n < len(kind) && n < len(k) && kind[n] == k[n] {
			n++
		}
		if n > bestLen {
			best, bestLen = k, n
		}
	}
	return best
}
