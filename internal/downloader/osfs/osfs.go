// Package osfs adapts the local operating system's filesystem to the
// downloader.FS contract, rooted at a base directory. The filesystem
// itself is an external collaborator the spec never defines (spec.md §1);
// this is the thin default wiring used outside tests, where
// testing/fstest.MapFS (read) plus an in-memory stub (write) stand in.
package osfs

import (
	"io/fs"
	"os"
	"path/filepath"
)

// OSFS roots every operation under Base.
type OSFS struct {
	Base string
}

// New returns an OSFS rooted at base. New does not create base;
// MkdirAll(".", ...) does.
func New(base string) *OSFS {
	return &OSFS{Base: base}
}

func (o *OSFS) resolve(name string) string {
	return filepath.Join(o.Base, filepath.FromSlash(name))
}

// Open implements fs.FS.
func (o *OSFS) Open(name string) (fs.File, error) {
	return os.Open(o.resolve(name))
}

// ReadDir implements fs.ReadDirFS.
func (o *OSFS) ReadDir(name string) ([]fs.DirEntry, error) {
	return os.ReadDir(o.resolve(name))
}

// Stat implements fs.StatFS.
func (o *OSFS) Stat(name string) (fs.FileInfo, error) {
	return os.Stat(o.resolve(name))
}

// WriteFile writes data to name, creating or truncating it.
func (o *OSFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	return os.WriteFile(o.resolve(name), data, perm)
}

// MkdirAll creates name, and any necessary parents.
func (o *OSFS) MkdirAll(name string, perm fs.FileMode) error {
	return os.MkdirAll(o.resolve(name), perm)
}

// Remove removes name, which must be a file or an empty directory.
func (o *OSFS) Remove(name string) error {
	return os.Remove(o.resolve(name))
}
