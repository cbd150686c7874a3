// Package store declares the entry store contract consumed by the
// governance core. The store itself — the addressable, versioned
// key-value registry — is an external collaborator (spec.md §1); this
// package only fixes the interface the core depends on, plus a reference
// in-memory implementation under ./memstore for tests and single-node use.
package store

import (
	"context"

	"github.com/hashmap-kz/govreg/internal/entry"
)

// Snapshot is an immutable, consistent view of the registry.
type Snapshot struct {
	Version string
	Entries []entry.Entry
}

// VersionInfo is one entry in the registry's version history.
type VersionInfo struct {
	ID        string
	Timestamp int64
	Changeset entry.Changeset
}

// ApplyResult is returned by ApplyChangeset/ApplyVersion.
type ApplyResult struct {
	// Changed is true when the committed version differs from the prior one.
	Changed bool
	// NoOp is true when the store determined there was nothing to apply.
	NoOp bool
	// OldVersion/NewVersion bracket the transition; both are set even when
	// Changed is false (in which case they are equal).
	OldVersion string
	NewVersion string
}

// EntryStore is the contract the coordinator, pipeline, uploader and
// downloader depend on. Implementations must support concurrent reads and
// linearizable deltas (spec.md §5 "Shared resources").
type EntryStore interface {
	// CurrentVersion returns the last committed version id.
	CurrentVersion(ctx context.Context) (string, error)

	// Snapshot returns an immutable view of every entry.
	Snapshot(ctx context.Context) (Snapshot, error)

	// Find looks up a single entry by id.
	Find(ctx context.Context, id string) (*entry.Entry, bool, error)

	// History returns the version log, oldest first.
	History(ctx context.Context) ([]VersionInfo, error)

	// VersionExists reports whether a version id appears in History.
	VersionExists(ctx context.Context, versionID string) (bool, error)

	// BuildDelta computes the minimal changeset transforming current into
	// target, keyed by Entry.ID.
	BuildDelta(ctx context.Context, current, target []entry.Entry) (entry.Changeset, error)

	// ApplyChangeset commits a well-formed changeset atomically.
	ApplyChangeset(ctx context.Context, cs entry.Changeset) (ApplyResult, error)

	// ApplyVersion re-applies a historical version's changeset atomically.
	ApplyVersion(ctx context.Context, versionID string) (ApplyResult, error)
}
