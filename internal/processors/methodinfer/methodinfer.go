// Package methodinfer implements spec.md §4.8's method inferrer: for
// function.lua entries missing data.method, it infers the method name from
// the module's final return expression — a bare identifier, or a
// single-field table constructor — emitting a warning detail on success
// or an error when inference fails.
package methodinfer

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/hashmap-kz/govreg/internal/entry"
	"github.com/hashmap-kz/govreg/internal/extensions"
)

// EntryID is the registry.processor entry id.
const EntryID = "processors:lua.method-infer"

// bareReturn matches "return <identifier>" as the final statement.
var bareReturn = regexp.MustCompile(`(?m)^\s*return\s+([A-Za-z_][A-Za-z0-9_.]*)\s*$`)

// tableReturn matches "return { field = <expr> }" with exactly one field.
var tableReturn = regexp.MustCompile(`(?m)^\s*return\s*\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*=\s*[^,{}]+\s*,?\s*\}\s*$`)

// Processor infers data.method for function.lua entries that omit it.
type Processor struct{}

var _ extensions.Handler = Processor{}

func (Processor) ID() string { return EntryID }

func (Processor) Invoke(_ context.Context, pctx *extensions.Context) (*extensions.Result, error) {
	if pctx.Changeset == nil {
		return nil, nil
	}
	cs := *pctx.Changeset
	var details []extensions.Detail

	for i := range cs {
		op := &cs[i]
		if op.Kind == entry.OpDelete || op.Entry.Kind != "function.lua" {
			continue
		}
		if op.Entry.DataString("method") != "" {
			continue
		}

		src := op.Entry.DataString("source")
		method, err := inferMethod(src)
		if err != nil {
			return &extensions.Result{
				Success: false,
				Message: "Failed to infer method name",
				Details: []extensions.Detail{{ID: op.Entry.ID, Type: "processor_failure", Message: err.Error()}},
			}, nil
		}

		if op.Entry.Data == nil {
			op.Entry.Data = map[string]any{}
		}
		op.Entry.Data["method"] = method
		details = append(details, extensions.Detail{
			ID: op.Entry.ID, Type: "warning",
			Message: fmt.Sprintf("inferred method %q from return expression", method),
		})
	}

	pctx.Changeset = &cs
	if len(details) == 0 {
		return nil, nil
	}
	return &extensions.Result{Success: true, Details: details}, nil
}

func inferMethod(src string) (string, error) {
	if m := tableReturn.FindStringSubmatch(lastReturnBlock(src)); m != nil {
		return m[1], nil
	}
	if m := bareReturn.FindStringSubmatch(lastReturnBlock(src)); m != nil {
		parts := strings.Split(m[1], ".")
		return parts[len(parts)-1], nil
	}
	return "", fmt.Errorf("no bare-identifier or single-field table return expression found")
}

// lastReturnBlock returns the trailing "return ..." line(s) the module
// ends with, trimmed of surrounding blank lines, so the patterns above
// only ever need to match the final statement.
func lastReturnBlock(src string) string {
	lines := strings.Split(strings.TrimRight(src, "\n \t"), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.Contains(lines[i], "return") {
			return strings.Join(lines[i:], "\n")
		}
	}
	return src
}
