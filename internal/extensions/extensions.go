// Package extensions implements C4, the Processor/Listener Registry:
// dynamic discovery of processors and listeners by querying the entry
// store for well-known meta-types, ordered by ascending priority (ties
// broken by id), with no caching (spec.md §4.4).
//
// Per the Design Notes "Dynamic-dispatch extensions", actual Go code cannot
// be loaded from a registry entry the way the original dynamically
// resolves interpreted code. The invocable implementation is registered at
// startup, keyed by entry id; the entry store is still re-queried on every
// pipeline run to decide which registered handlers currently apply and in
// what order, so installing (or reordering, or removing) a
// registry.processor/registry.listener entry takes effect on the very next
// run without a process restart.
package extensions

import (
	"context"
	"sort"

	"github.com/hashmap-kz/govreg/internal/entry"
	"github.com/hashmap-kz/govreg/internal/store"
)

const (
	MetaTypeProcessor = "registry.processor"
	MetaTypeListener  = "registry.listener"
)

// Detail is one per-item diagnostic accumulated by the pipeline.
type Detail struct {
	ID      string         `json:"id"`
	Type    string         `json:"type"`
	Message string         `json:"message"`
	Extra   map[string]any `json:"-"`
}

// Context is the open-record argument shape every processor/listener is
// invoked with (spec.md §4.3). Options and UserID are restored by the
// pipeline after every step so a handler cannot permanently override
// security-relevant context; Extra carries whatever custom keys prior
// handlers contributed.
type Context struct {
	Changeset *entry.Changeset
	VersionID string
	Options   map[string]any
	UserID    string
	RequestID string
	Extra     map[string]any
}

// Result is what a processor/listener returns, and also the shape the
// pipeline's own stages produce for the client. A nil *Result from a
// handler means "no change". Extra holds every key other than
// Success/Message, to be merged into the running Context and into the
// eventual client-facing response.
type Result struct {
	Success   bool
	Message   string
	Error     string
	Version   string
	UserID    string
	RequestID string
	Details   []Detail
	Extra     map[string]any
}

// Handler is an invocable processor or listener, identified by the id of
// the registry.processor/registry.listener entry that advertises it.
type Handler interface {
	ID() string
	Invoke(ctx context.Context, pctx *Context) (*Result, error)
}

// Registry discovers and orders processors/listeners. It caches nothing:
// Processors/Listeners re-query the store on every call.
type Registry struct {
	store    store.EntryStore
	handlers map[string]Handler
}

// NewRegistry builds a registry backed by s. Use Register to wire in the
// invocable implementation for each entry id before first use.
func NewRegistry(s store.EntryStore) *Registry {
	return &Registry{store: s, handlers: make(map[string]Handler)}
}

// Register associates an entry id with its invocable implementation.
func (r *Registry) Register(id string, h Handler) {
	r.handlers[id] = h
}

// Processors returns the currently installed processors, ascending
// priority, ties broken by id.
func (r *Registry) Processors(ctx context.Context) ([]Handler, error) {
	return r.discover(ctx, MetaTypeProcessor)
}

// Listeners returns the currently installed listeners, ascending priority,
// ties broken by id.
func (r *Registry) Listeners(ctx context.Context) ([]Handler, error) {
	return r.discover(ctx, MetaTypeListener)
}

func (r *Registry) discover(ctx context.Context, metaType string) ([]Handler, error) {
	snap, err := r.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	type candidate struct {
		priority int
		id       string
		handler  Handler
	}

	var found []candidate
	for _, e := range snap.Entries {
		if e.MetaString("type") != metaType {
			continue
		}
		h, ok := r.handlers[e.ID]
		if !ok {
			continue
		}
		found = append(found, candidate{priority: e.MetaPriority(), id: e.ID, handler: h})
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].priority != found[j].priority {
			return found[i].priority < found[j].priority
		}
		return found[i].id < found[j].id
	})

	out := make([]Handler, len(found))
	for i, c := range found {
		out[i] = c.handler
	}
	return out, nil
}
