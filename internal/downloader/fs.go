package downloader

import "io/fs"

// FS is the filesystem contract the downloader writes through. It extends
// the stdlib io/fs read contract (as fsloader already consumes for reading)
// with the write operations materialization and cleanup require. No
// third-party virtual-filesystem library appears anywhere in the pack for
// this, so — as with fsloader's read side — this stays a stdlib-shaped
// interface; ./osfs is the production adapter, tests use an in-memory stub.
type FS interface {
	fs.FS
	fs.ReadDirFS
	fs.StatFS

	WriteFile(name string, data []byte, perm fs.FileMode) error
	MkdirAll(name string, perm fs.FileMode) error
	Remove(name string) error
}
