package entry

// KindMaterialization describes how an entry's source-bearing field is
// externalized to a side file by the downloader. This table is policy, not
// mechanism (see Design Notes "File materialization policy"): it is data,
// loaded at startup, and swappable in tests.
type KindMaterialization struct {
	// SourceField is the key in Entry.Data that holds the file content.
	SourceField string
	// Extension is appended to the entry name to build the filename, only
	// if not already present.
	Extension string
}

// KindConfig maps an entry kind, and optionally "kind/meta.type", to its
// materialization rule. Keys of the form "kind/metaType" take precedence
// over a bare "kind" key.
type KindConfig map[string]KindMaterialization

// DefaultKindConfig mirrors the examples given in spec.md §4.6.
func DefaultKindConfig() KindConfig {
	return KindConfig{
		"function.lua":                {SourceField: "source", Extension: ".lua"},
		"library.lua":                 {SourceField: "source", Extension: ".lua"},
		"process.lua":                 {SourceField: "source", Extension: ".lua"},
		"workflow.lua":                {SourceField: "source", Extension: ".lua"},
		"template.jet":                {SourceField: "source", Extension: ".jet"},
		"agent.gen1":                  {SourceField: "source", Extension: ".yml"},
		"registry.entry/view.page":    {SourceField: "source", Extension: ".html"},
		"registry.entry/view.email":   {SourceField: "source", Extension: ".html"},
		"registry.entry/doc.markdown": {SourceField: "source", Extension: ".md"},
	}
}

// Lookup resolves the materialization rule for an entry, consulting the
// "kind/meta.type" key first, then the bare "kind" key. The second return
// value is false when no rule applies — such entries are not materialized
// to a side file.
func (kc KindConfig) Lookup(e *Entry) (KindMaterialization, bool) {
	if t := e.MetaString("type"); t != "" {
		if m, ok := kc[e.Kind+"/"+t]; ok {
			return m, true
		}
	}
	m, ok := kc[e.Kind]
	return m, ok
}

// YAMLFieldOrder is the fixed priority list used when emitting an entry as a
// YAML list element in a namespace index file (spec.md §4.6). Fields not
// named here are emitted afterwards in alphabetical order.
var YAMLFieldOrder = []string{
	"version", "namespace", "name", "kind", "contract", "meta", "type",
	"title", "comment", "group", "tags", "icon", "description", "order",
	"content_type", "prompt", "model", "temperature", "max_tokens", "tools",
	"memory", "delegate", "source", "modules", "imports", "method",
	"depends_on", "router", "set", "resources", "entries",
}
