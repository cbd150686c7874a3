package downloader

import (
	"bytes"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"
)

// memFS is a minimal in-memory double for the downloader.FS contract, used
// so tests can assert on writes, removals and orphan cleanup without
// touching the real filesystem.
type memFS struct {
	files map[string]*memEntry
}

type memEntry struct {
	data  []byte
	isDir bool
}

func newMemFS() *memFS {
	return &memFS{files: map[string]*memEntry{".": {isDir: true}}}
}

func (m *memFS) ensureDirs(p string) {
	p = path.Clean(p)
	for p != "." && p != "/" && p != "" {
		if _, ok := m.files[p]; !ok {
			m.files[p] = &memEntry{isDir: true}
		}
		p = path.Dir(p)
	}
}

func (m *memFS) MkdirAll(name string, _ fs.FileMode) error {
	m.ensureDirs(name)
	return nil
}

func (m *memFS) WriteFile(name string, data []byte, _ fs.FileMode) error {
	name = path.Clean(name)
	m.ensureDirs(path.Dir(name))
	m.files[name] = &memEntry{data: append([]byte(nil), data...)}
	return nil
}

func (m *memFS) Remove(name string) error {
	name = path.Clean(name)
	if _, ok := m.files[name]; !ok {
		return fs.ErrNotExist
	}
	delete(m.files, name)
	return nil
}

func (m *memFS) Stat(name string) (fs.FileInfo, error) {
	name = path.Clean(name)
	e, ok := m.files[name]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return memFileInfo{name: path.Base(name), e: e}, nil
}

func (m *memFS) Open(name string) (fs.File, error) {
	name = path.Clean(name)
	e, ok := m.files[name]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return &openMemFile{info: memFileInfo{name: path.Base(name), e: e}, r: bytes.NewReader(e.data)}, nil
}

func (m *memFS) ReadDir(name string) ([]fs.DirEntry, error) {
	name = path.Clean(name)
	if name != "." {
		if e, ok := m.files[name]; !ok || !e.isDir {
			return nil, fs.ErrNotExist
		}
	}

	prefix := ""
	if name != "." {
		prefix = name + "/"
	}

	seen := map[string]bool{}
	var out []fs.DirEntry
	for p, e := range m.files {
		if p == "." || p == name {
			continue
		}
		if prefix != "" && !strings.HasPrefix(p, prefix) {
			continue
		}
		rest := strings.TrimPrefix(p, prefix)
		seg := rest
		isDir := e.isDir
		if idx := strings.Index(rest, "/"); idx >= 0 {
			seg = rest[:idx]
			isDir = true
		}
		if seen[seg] {
			continue
		}
		seen[seg] = true
		out = append(out, memDirEntry{name: seg, isDir: isDir})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out, nil
}

type memFileInfo struct {
	name string
	e    *memEntry
}

func (i memFileInfo) Name() string       { return i.name }
func (i memFileInfo) Size() int64        { return int64(len(i.e.data)) }
func (i memFileInfo) Mode() fs.FileMode  { return 0o644 }
func (i memFileInfo) ModTime() time.Time { return time.Time{} }
func (i memFileInfo) IsDir() bool        { return i.e.isDir }
func (i memFileInfo) Sys() any           { return nil }

type memDirEntry struct {
	name  string
	isDir bool
}

func (e memDirEntry) Name() string { return e.name }
func (e memDirEntry) IsDir() bool  { return e.isDir }
func (e memDirEntry) Type() fs.FileMode {
	if e.isDir {
		return fs.ModeDir
	}
	return 0
}

func (e memDirEntry) Info() (fs.FileInfo, error) {
	return memFileInfo{name: e.name, e: &memEntry{isDir: e.isDir}}, nil
}

type openMemFile struct {
	info memFileInfo
	r    *bytes.Reader
}

func (f *openMemFile) Stat() (fs.FileInfo, error) { return f.info, nil }
func (f *openMemFile) Read(p []byte) (int, error) { return f.r.Read(p) }
func (f *openMemFile) Close() error                { return nil }
