// Package fsloader implements uploader.Loader: it walks a source tree for
// "_index.yaml" namespace files and inlines each entry's externalized
// source-bearing field back from its side file, the exact inverse of what
// the downloader writes (spec.md §4.6). The filesystem itself is an
// external collaborator (spec.md §1 "the underlying filesystem driver"),
// so this reads through the stdlib io/fs.FS contract rather than a
// bespoke one — the serve command passes the downloader's osfs adapter,
// tests pass fstest.MapFS.
package fsloader

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/hashmap-kz/govreg/internal/entry"
)

const indexFileName = "_index.yaml"

type indexFile struct {
	Version   string         `yaml:"version"`
	Namespace string         `yaml:"namespace"`
	Meta      map[string]any `yaml:"meta,omitempty"`
	Entries   []indexEntry   `yaml:"entries"`
}

type indexEntry struct {
	Name string         `yaml:"name"`
	Kind string         `yaml:"kind"`
	Meta map[string]any `yaml:"meta,omitempty"`
	Data map[string]any `yaml:",inline"`
}

// Loader loads target entries from an fs.FS source tree.
type Loader struct {
	FS    fs.FS
	Kinds entry.KindConfig
}

// New builds a Loader. kinds is consulted to know which entry data field
// holds an externalized "file://" reference that must be read back inline.
func New(fsys fs.FS, kinds entry.KindConfig) *Loader {
	return &Loader{FS: fsys, Kinds: kinds}
}

// Load implements uploader.Loader.
func (l *Loader) Load(_ context.Context, directory string) ([]entry.Entry, error) {
	root := "."
	if directory != "" {
		root = directory
	}

	var out []entry.Entry
	err := fs.WalkDir(l.FS, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if d == nil && p == root {
				return nil // the source tree does not exist yet; nothing to load
			}
			return err
		}
		if d.IsDir() || d.Name() != indexFileName {
			return nil
		}

		raw, err := fs.ReadFile(l.FS, p)
		if err != nil {
			return fmt.Errorf("fsloader: read %s: %w", p, err)
		}

		var idx indexFile
		if err := yaml.Unmarshal(raw, &idx); err != nil {
			return fmt.Errorf("fsloader: parse %s: %w", p, err)
		}

		dir := path.Dir(p)
		for _, ie := range idx.Entries {
			e := entry.Entry{
				ID:   entry.JoinID(idx.Namespace, ie.Name),
				Kind: ie.Kind,
				Meta: ie.Meta,
				Data: ie.Data,
			}
			if err := l.inlineSource(&e, dir); err != nil {
				return err
			}
			out = append(out, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// inlineSource reads an entry's side file back into its data field when
// that field holds a "file://<name>" reference, so the loaded entry is
// comparable by content to what build_delta expects.
func (l *Loader) inlineSource(e *entry.Entry, dir string) error {
	cfg, ok := l.Kinds.Lookup(e)
	if !ok {
		return nil
	}
	raw, ok := e.Data[cfg.SourceField].(string)
	if !ok {
		return nil
	}
	name := strings.TrimPrefix(raw, "file://")
	if name == raw {
		return nil
	}

	content, err := fs.ReadFile(l.FS, path.Join(dir, name))
	if err != nil {
		return fmt.Errorf("fsloader: read side file for %s: %w", e.ID, err)
	}
	e.Data[cfg.SourceField] = string(content)
	return nil
}
