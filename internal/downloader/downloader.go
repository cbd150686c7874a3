// Package downloader implements C6: it materializes the live registry
// snapshot onto a directory tree — one namespace directory per dotted
// prefix, one side file per kind-configured entry, one "_index.yaml" per
// namespace — and reconciles that tree with the snapshot on every run
// (spec.md §4.6). It writes the exact shape internal/uploader/fsloader
// reads back: flattened entry data fields and "file://<name>" source
// references.
package downloader

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/hashmap-kz/govreg/internal/coordinator"
	"github.com/hashmap-kz/govreg/internal/entry"
	"github.com/hashmap-kz/govreg/internal/logging"
	"github.com/hashmap-kz/govreg/internal/store"
)

var _ coordinator.Downloader = (*Downloader)(nil)

// Downloader is C6.
type Downloader struct {
	Store store.EntryStore
	FS    FS
	Kinds entry.KindConfig
	Log   logging.Logger
}

// New builds a Downloader. log may be nil, in which case logging.Nop is used.
func New(st store.EntryStore, fsys FS, kinds entry.KindConfig, log logging.Logger) *Downloader {
	if log == nil {
		log = logging.Nop{}
	}
	return &Downloader{Store: st, FS: fsys, Kinds: kinds, Log: log}
}

func namespaceToDir(namespace string) string {
	if namespace == "" {
		return "."
	}
	return strings.ReplaceAll(namespace, ".", "/")
}

func dirToNamespace(dir string) string {
	if dir == "." || dir == "" {
		return ""
	}
	return strings.ReplaceAll(dir, "/", ".")
}

func parentNamespace(ns string) string {
	idx := strings.LastIndex(ns, ".")
	if idx < 0 {
		return ""
	}
	return ns[:idx]
}

func targetFilename(name, ext string) string {
	if ext == "" || strings.HasSuffix(name, ext) {
		return name
	}
	return name + ext
}

func cloneData(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Download implements spec.md §4.6: materialize every live entry, rewrite
// namespace index files, then (unless opted out) sweep orphaned files and
// collapse now-empty namespace directories.
func (d *Downloader) Download(ctx context.Context, options map[string]any) (*coordinator.DownloadResult, error) {
	if err := d.FS.MkdirAll(".", 0o755); err != nil {
		return &coordinator.DownloadResult{Success: false, Message: err.Error()}, nil
	}

	snap, err := d.Store.Snapshot(ctx)
	if err != nil {
		return &coordinator.DownloadResult{Success: false, Message: err.Error()}, nil
	}

	if checkOnly, _ := options["check_for_orphaned_files"].(bool); checkOnly {
		return d.checkOrphaned(snap)
	}

	byNamespace := map[string][]entry.Entry{}
	for _, e := range snap.Entries {
		ns, _, err := entry.SplitID(e.ID)
		if err != nil {
			d.Log.Warn("downloader: skipping malformed entry id", "id", e.ID, "error", err)
			continue
		}
		byNamespace[ns] = append(byNamespace[ns], e)
	}

	stats := map[string]int{
		"namespaces": 0, "entries": 0, "files": 0, "files_skipped": 0,
		"deleted": 0, "orphaned_files_removed": 0,
		"empty_namespaces_removed": 0, "index_files_removed": 0,
	}

	written := map[string]bool{}
	referenced := map[string]map[string]bool{}

	namespaces := make([]string, 0, len(byNamespace))
	for ns := range byNamespace {
		namespaces = append(namespaces, ns)
	}
	sort.Strings(namespaces)

	for _, ns := range namespaces {
		entries := append([]entry.Entry(nil), byNamespace[ns]...)
		sort.Slice(entries, func(i, j int) bool {
			_, ni, _ := entry.SplitID(entries[i].ID)
			_, nj, _ := entry.SplitID(entries[j].ID)
			return ni < nj
		})

		dir := namespaceToDir(ns)
		if err := d.FS.MkdirAll(dir, 0o755); err != nil {
			return &coordinator.DownloadResult{Success: false, Message: err.Error()}, nil
		}

		referenced[ns] = map[string]bool{}
		materialized := make([]entry.Entry, len(entries))
		for i, e := range entries {
			me, wrote, filename, err := d.materialize(dir, e, written)
			if err != nil {
				return &coordinator.DownloadResult{Success: false, Message: err.Error()}, nil
			}
			materialized[i] = me
			if filename != "" {
				referenced[ns][filename] = true
				if wrote {
					stats["files"]++
				} else {
					stats["files_skipped"]++
				}
			}
		}

		stats["namespaces"]++
		stats["entries"] += len(materialized)

		if err := d.writeIndex(dir, ns, materialized, written); err != nil {
			return &coordinator.DownloadResult{Success: false, Message: err.Error()}, nil
		}
	}

	for _, de := range extractDeletedEntries(options) {
		if d.removeDeletedSource(de) {
			stats["deleted"]++
		}
	}

	if cleanupOrphanedEnabled(options) {
		if err := d.cleanupOrphans(byNamespace, written, referenced, stats); err != nil {
			return &coordinator.DownloadResult{Success: false, Message: err.Error()}, nil
		}
	}

	return &coordinator.DownloadResult{Success: true, Message: "Download complete", Stats: stats}, nil
}

// materialize writes (or confirms up to date) an entry's side file per its
// kind's materialization rule, rewriting its in-memory source field to a
// "file://<name>" reference. Entries with no matching rule, or whose source
// field is already a "file://" reference, are passed through unmodified.
func (d *Downloader) materialize(dir string, e entry.Entry, written map[string]bool) (me entry.Entry, wrote bool, filename string, err error) {
	cfg, ok := d.Kinds.Lookup(&e)
	if !ok {
		return e, false, "", nil
	}

	raw, ok := e.Data[cfg.SourceField].(string)
	if !ok {
		return e, false, "", nil
	}

	if strings.HasPrefix(raw, "file://") {
		name := strings.TrimPrefix(raw, "file://")
		written[path.Join(dir, name)] = true
		return e, false, name, nil
	}

	_, name, err := entry.SplitID(e.ID)
	if err != nil {
		return e, false, "", err
	}

	filename = targetFilename(name, cfg.Extension)
	filePath := path.Join(dir, filename)

	existing, statErr := fs.ReadFile(d.FS, filePath)
	if statErr != nil || string(existing) != raw {
		if err := d.FS.WriteFile(filePath, []byte(raw), 0o644); err != nil {
			return e, false, "", fmt.Errorf("downloader: write %s: %w", filePath, err)
		}
		wrote = true
	}
	written[filePath] = true

	me = e
	me.Data = cloneData(e.Data)
	me.Data[cfg.SourceField] = "file://" + filename
	return me, wrote, filename, nil
}

func (d *Downloader) writeIndex(dir, ns string, entries []entry.Entry, written map[string]bool) error {
	doc, err := buildIndexDocument(ns, entries)
	if err != nil {
		return err
	}

	indexPath := path.Join(dir, indexFileName)
	existing, statErr := fs.ReadFile(d.FS, indexPath)
	if statErr != nil || string(existing) != string(doc) {
		if err := d.FS.WriteFile(indexPath, doc, 0o644); err != nil {
			return fmt.Errorf("downloader: write %s: %w", indexPath, err)
		}
	}
	written[indexPath] = true
	return nil
}

// removeDeletedSource removes the side file a just-deleted entry owned, if
// its kind materializes one. Best-effort: a missing file is not an error.
func (d *Downloader) removeDeletedSource(e entry.Entry) bool {
	cfg, ok := d.Kinds.Lookup(&e)
	if !ok {
		return false
	}
	ns, name, err := entry.SplitID(e.ID)
	if err != nil {
		return false
	}
	filePath := path.Join(namespaceToDir(ns), targetFilename(name, cfg.Extension))
	return d.FS.Remove(filePath) == nil
}
