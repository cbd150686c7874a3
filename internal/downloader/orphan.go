package downloader

import (
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/hashmap-kz/govreg/internal/coordinator"
	"github.com/hashmap-kz/govreg/internal/entry"
	"github.com/hashmap-kz/govreg/internal/store"
)

// cleanupOrphans implements spec.md §4.6's reconciliation pass: a general
// sweep of files neither written nor referenced this run, then a
// deepest-first collapse of namespace directories that no longer hold any
// live entry (directly or through a descendant).
func (d *Downloader) cleanupOrphans(
	byNamespace map[string][]entry.Entry,
	written map[string]bool,
	referenced map[string]map[string]bool,
	stats map[string]int,
) error {
	var dirs, files []string
	err := fs.WalkDir(d.FS, ".", func(p string, de fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == "." {
			return nil
		}
		if de.IsDir() {
			dirs = append(dirs, p)
		} else {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, f := range files {
		if path.Base(f) == indexFileName || written[f] {
			continue
		}
		ns := dirToNamespace(path.Dir(f))
		if referenced[ns] != nil && referenced[ns][path.Base(f)] {
			continue
		}
		if err := d.FS.Remove(f); err != nil {
			return err
		}
		stats["orphaned_files_removed"]++
	}

	active := map[string]bool{}
	for ns := range byNamespace {
		active[ns] = true
		for anc := parentNamespace(ns); anc != ""; anc = parentNamespace(anc) {
			active[anc] = true
		}
	}

	sort.Slice(dirs, func(i, j int) bool {
		return strings.Count(dirs[i], "/") > strings.Count(dirs[j], "/")
	})

	for _, dir := range dirs {
		if active[dirToNamespace(dir)] {
			continue
		}

		indexPath := path.Join(dir, indexFileName)
		if _, err := fs.Stat(d.FS, indexPath); err == nil {
			if err := d.FS.Remove(indexPath); err != nil {
				return err
			}
			stats["index_files_removed"]++
		}

		leftover, err := fs.ReadDir(d.FS, dir)
		if err != nil {
			continue
		}
		for _, de := range leftover {
			if de.IsDir() {
				continue
			}
			if d.FS.Remove(path.Join(dir, de.Name())) == nil {
				stats["orphaned_files_removed"]++
			}
		}

		if leftover, err = fs.ReadDir(d.FS, dir); err == nil && len(leftover) == 0 {
			if d.FS.Remove(dir) == nil {
				stats["empty_namespaces_removed"]++
			}
		}
	}

	return nil
}

// checkOrphaned implements spec.md §4.6's check_for_orphaned_files
// read-only variant: it computes the same "referenced file" set
// materialization would produce, then reports what a cleanup pass would
// remove without writing or deleting anything.
func (d *Downloader) checkOrphaned(snap store.Snapshot) (*coordinator.DownloadResult, error) {
	referenced := map[string]map[string]bool{}
	activeNamespaces := 0
	for _, e := range snap.Entries {
		ns, name, err := entry.SplitID(e.ID)
		if err != nil {
			continue
		}
		if referenced[ns] == nil {
			referenced[ns] = map[string]bool{}
			activeNamespaces++
		}

		cfg, ok := d.Kinds.Lookup(&e)
		if !ok {
			continue
		}
		if raw, ok := e.Data[cfg.SourceField].(string); ok {
			if strings.HasPrefix(raw, "file://") {
				referenced[ns][strings.TrimPrefix(raw, "file://")] = true
			} else {
				referenced[ns][targetFilename(name, cfg.Extension)] = true
			}
		}
	}

	var orphaned []string
	err := fs.WalkDir(d.FS, ".", func(p string, de fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if de.IsDir() || path.Base(p) == indexFileName {
			return nil
		}
		ns := dirToNamespace(path.Dir(p))
		if referenced[ns] != nil && referenced[ns][path.Base(p)] {
			return nil
		}
		orphaned = append(orphaned, p)
		return nil
	})
	if err != nil {
		return &coordinator.DownloadResult{Success: false, Message: err.Error()}, nil
	}

	stats := map[string]int{"namespaces": activeNamespaces, "orphaned_files": len(orphaned)}
	return &coordinator.DownloadResult{
		Success: true,
		Message: strings.Join(orphaned, "\n"),
		Stats:   stats,
	}, nil
}
