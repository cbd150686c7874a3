// Package memstore is a reference, in-memory EntryStore implementation.
// It exists because the real registry is an external collaborator the spec
// never defines the internals of (spec.md §1) — something is still needed
// to exercise the pipeline in tests and in single-node deployments.
//
// The locking shape — a single sync.RWMutex guarding a map plus a
// monotonic version counter — is adapted from
// r1cht4-envoyage/internal/registry/registry.go, generalized from a single
// Service type to the spec's Entry/Changeset model and from one onChange
// callback to a full version history.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashmap-kz/govreg/internal/entry"
	"github.com/hashmap-kz/govreg/internal/store"
)

// Store is a thread-safe, in-memory EntryStore.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry.Entry
	version uint64
	history []store.VersionInfo
}

// New returns an empty store at version "v0".
func New() *Store {
	return &Store{
		entries: make(map[string]*entry.Entry),
		history: []store.VersionInfo{{ID: "v0"}},
	}
}

func versionStr(n uint64) string { return fmt.Sprintf("v%d", n) }

func (s *Store) CurrentVersion(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return versionStr(s.version), nil
}

func (s *Store) Snapshot(_ context.Context) (store.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entry.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		cp := *e
		out = append(out, cp)
	}
	return store.Snapshot{Version: versionStr(s.version), Entries: out}, nil
}

func (s *Store) Find(_ context.Context, id string) (*entry.Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, false, nil
	}
	cp := *e
	return &cp, true, nil
}

func (s *Store) History(_ context.Context) ([]store.VersionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.VersionInfo, len(s.history))
	copy(out, s.history)
	return out, nil
}

func (s *Store) VersionExists(_ context.Context, versionID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, v := range s.history {
		if v.ID == versionID {
			return true, nil
		}
	}
	return false, nil
}

// BuildDelta diffs current against target by id: entries present in target
// but not current become creates, present in both with differing Kind/Meta/
// Data become updates, present in current but not target become deletes.
func (s *Store) BuildDelta(_ context.Context, current, target []entry.Entry) (entry.Changeset, error) {
	curByID := make(map[string]entry.Entry, len(current))
	for _, e := range current {
		curByID[e.ID] = e
	}
	tgtByID := make(map[string]entry.Entry, len(target))
	for _, e := range target {
		tgtByID[e.ID] = e
	}

	var cs entry.Changeset
	for id, t := range tgtByID {
		if c, ok := curByID[id]; !ok {
			cs = append(cs, entry.ChangeOp{Kind: entry.OpCreate, Entry: t})
		} else if !sameContent(c, t) {
			cs = append(cs, entry.ChangeOp{Kind: entry.OpUpdate, Entry: t})
		}
	}
	for id, c := range curByID {
		if _, ok := tgtByID[id]; !ok {
			cs = append(cs, entry.ChangeOp{Kind: entry.OpDelete, Entry: entry.Entry{ID: c.ID}})
		}
	}
	return cs, nil
}

func sameContent(a, b entry.Entry) bool {
	if a.Kind != b.Kind {
		return false
	}
	return deepEqualMap(a.Meta, b.Meta) && deepEqualMap(a.Data, b.Data)
}

func deepEqualMap(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		bv, ok := b[k]
		if !ok || fmt.Sprint(v) != fmt.Sprint(bv) {
			return false
		}
	}
	return true
}

// ApplyChangeset commits cs atomically, bumping the version unless cs is
// empty, in which case it reports NoOp.
func (s *Store) ApplyChangeset(_ context.Context, cs entry.Changeset) (store.ApplyResult, error) {
	if len(cs) == 0 {
		s.mu.RLock()
		v := versionStr(s.version)
		s.mu.RUnlock()
		return store.ApplyResult{NoOp: true, OldVersion: v, NewVersion: v}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	old := versionStr(s.version)
	for _, op := range cs {
		switch op.Kind {
		case entry.OpCreate, entry.OpUpdate:
			cp := op.Entry
			s.entries[op.Entry.ID] = &cp
		case entry.OpDelete:
			delete(s.entries, op.Entry.ID)
		}
	}
	s.version++
	newV := versionStr(s.version)
	s.history = append(s.history, store.VersionInfo{ID: newV, Changeset: cs})

	return store.ApplyResult{Changed: true, OldVersion: old, NewVersion: newV}, nil
}

// ApplyVersion re-applies a historical version's changeset as a fresh commit.
func (s *Store) ApplyVersion(ctx context.Context, versionID string) (store.ApplyResult, error) {
	s.mu.RLock()
	var target *store.VersionInfo
	for i := range s.history {
		if s.history[i].ID == versionID {
			target = &s.history[i]
			break
		}
	}
	s.mu.RUnlock()

	if target == nil {
		return store.ApplyResult{}, fmt.Errorf("version not found: %s", versionID)
	}
	return s.ApplyChangeset(ctx, target.Changeset)
}
