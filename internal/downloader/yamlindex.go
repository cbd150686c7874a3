package downloader

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"

	"go.yaml.in/yaml/v3"

	"github.com/hashmap-kz/govreg/internal/entry"
)

const indexFileName = "_index.yaml"

// buildIndexDocument renders a namespace's live entries into the
// fixed-field-order "_index.yaml" format described in spec.md §4.6: a
// header, a blank line, the literal "entries:" line, then each entry as a
// list element prefixed by a "# namespace:name" comment and separated from
// its neighbors by a blank line.
func buildIndexDocument(namespace string, entries []entry.Entry) ([]byte, error) {
	sorted := append([]entry.Entry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool {
		_, ni, _ := entry.SplitID(sorted[i].ID)
		_, nj, _ := entry.SplitID(sorted[j].ID)
		return ni < nj
	})

	root := &yaml.Node{Kind: yaml.MappingNode}
	appendField(root, "version", "1.0")
	appendField(root, "namespace", namespace)

	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for _, e := range sorted {
		_, name, err := entry.SplitID(e.ID)
		if err != nil {
			return nil, fmt.Errorf("downloader: malformed entry id %q: %w", e.ID, err)
		}
		node := buildEntryNode(e, name)
		node.HeadComment = namespace + ":" + name
		seq.Content = append(seq.Content, node)
	}
	root.Content = append(root.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: "entries"}, seq)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, fmt.Errorf("downloader: encode index: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("downloader: close encoder: %w", err)
	}

	return []byte(spaceOutIndex(buf.String())), nil
}

func appendField(m *yaml.Node, key string, value any) {
	v := &yaml.Node{}
	_ = v.Encode(value)
	m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: key}, v)
}

// buildEntryNode renders one entry's fields in entry.YAMLFieldOrder
// priority, then any remaining fields alphabetically. Reserved header-only
// fields (version, namespace, entries) never apply to an entry.
func buildEntryNode(e entry.Entry, name string) *yaml.Node {
	fields := map[string]any{"name": name, "kind": e.Kind}
	if len(e.Meta) > 0 {
		fields["meta"] = e.Meta
	}
	for k, v := range e.Data {
		fields[k] = v
	}

	node := &yaml.Node{Kind: yaml.MappingNode}
	seen := make(map[string]bool, len(fields))

	for _, key := range entry.YAMLFieldOrder {
		switch key {
		case "version", "namespace", "entries":
			continue
		}
		if v, ok := fields[key]; ok {
			appendField(node, key, v)
			seen[key] = true
		}
	}

	rest := make([]string, 0, len(fields)-len(seen))
	for k := range fields {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		appendField(node, k, fields[k])
	}

	return node
}

var (
	blankBeforeEntriesKey = regexp.MustCompile(`(?m)^entries:`)
	blankBeforeComment    = regexp.MustCompile(`(?m)^(  #)`)
)

// spaceOutIndex inserts the blank lines spec.md §4.6 requires: one between
// the header and the "entries:" key, and one between consecutive entries
// (each entry is detected by its leading "# namespace:name" comment).
func spaceOutIndex(doc string) string {
	doc = blankBeforeEntriesKey.ReplaceAllString(doc, "\nentries:")

	first := true
	return blankBeforeComment.ReplaceAllStringFunc(doc, func(m string) string {
		if first {
			first = false
			return m
		}
		return "\n" + m
	})
}
