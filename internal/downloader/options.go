package downloader

import "github.com/hashmap-kz/govreg/internal/entry"

// cleanupOrphanedEnabled reads options.cleanup_orphaned, defaulting to true
// (spec.md §4.6 "opt-out").
func cleanupOrphanedEnabled(options map[string]any) bool {
	if options == nil {
		return true
	}
	v, ok := options["cleanup_orphaned"]
	if !ok {
		return true
	}
	b, ok := v.(bool)
	if !ok {
		return true
	}
	return b
}

// extractDeletedEntries reads options.deleted_entries, accepting either a
// native []entry.Entry (in-process Go callers, e.g. tests and the
// coordinator) or the []any/map[string]any shape a JSON-decoded command
// envelope produces over the wire.
func extractDeletedEntries(options map[string]any) []entry.Entry {
	if options == nil {
		return nil
	}
	raw, ok := options["deleted_entries"]
	if !ok {
		return nil
	}

	switch v := raw.(type) {
	case []entry.Entry:
		return v
	case []any:
		out := make([]entry.Entry, 0, len(v))
		for _, item := range v {
			if e, ok := decodeEntryMap(item); ok {
				out = append(out, e)
			}
		}
		return out
	default:
		return nil
	}
}

func decodeEntryMap(item any) (entry.Entry, bool) {
	m, ok := item.(map[string]any)
	if !ok {
		return entry.Entry{}, false
	}

	var e entry.Entry
	if id, ok := m["id"].(string); ok {
		e.ID = id
	}
	if kind, ok := m["kind"].(string); ok {
		e.Kind = kind
	}
	if meta, ok := m["meta"].(map[string]any); ok {
		e.Meta = meta
	}
	if data, ok := m["data"].(map[string]any); ok {
		e.Data = data
	}
	if e.ID == "" {
		return entry.Entry{}, false
	}
	return e, true
}
