// Package synced keeps an entity collection consistent across in-memory
// state, the durable local cache and the remote collection store.
//
// A collection is local-only until an identity arrives. Login triggers a
// single reconciliation: the remote rows are merged over local state by
// identifier (remote wins per id, local-only rows are kept), or the local
// state seeds an empty remote store. After that every mutation writes the
// cache synchronously and pushes deletes and upserts to the remote store
// in the background; remote failures are logged and recovered by the next
// reconciliation, never retried.
package synced

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/hsalif/penna/internal/ledger"
)

// Cache is the durable local mirror for a collection.
type Cache interface {
	Get(key string, out any) (bool, error)
	Set(key string, v any) error
}

// RemoteStore is the cloud table for a collection.
type RemoteStore[T ledger.Entity] interface {
	FetchAll(ctx context.Context, userID string) ([]T, error)
	Upsert(ctx context.Context, userID string, items []T) error
	DeleteByIDs(ctx context.Context, userID string, ids []string) error
}

// Collection is the only write path for an entity collection.
type Collection[T ledger.Entity] struct {
	name   string // cache key and log label
	cache  Cache
	remote RemoteStore[T]

	mu      sync.Mutex
	items   []T
	userID  string // empty while anonymous
	epoch   uint64 // bumped on every identity transition
	syncing bool

	wg sync.WaitGroup
}

func NewCollection[T ledger.Entity](name string, cache Cache, remote RemoteStore[T], defaults []T) *Collection[T] {
	return &Collection[T]{
		name:   name,
		cache:  cache,
		remote: remote,
		items:  slices.Clone(defaults),
	}
}

// Load overlays the persisted cache value over the construction default.
// Missing or corrupt entries keep the default; Load never fails.
func (c *Collection[T]) Load() {
	var persisted []T

	found, err := c.cache.Get(c.name, &persisted)
	if err != nil {
		slog.Error("keeping default collection state", "collection", c.name, "error", err)
		return
	}

	if !found {
		return
	}

	c.mu.Lock()
	c.items = persisted
	c.mu.Unlock()
}

// Items returns a copy of the current collection.
func (c *Collection[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()

	return slices.Clone(c.items)
}

// Syncing reports whether a reconciliation is in flight. Mutations never
// set it.
func (c *Collection[T]) Syncing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.syncing
}

// Set replaces the collection.
func (c *Collection[T]) Set(next []T) {
	c.Update(func([]T) []T { return next })
}

// Update replaces the collection with the result of fn applied to a copy of
// the current state. The cache write completes before Update returns;
// remote pushes run in the background, unordered and unawaited.
func (c *Collection[T]) Update(fn func([]T) []T) {
	c.mu.Lock()

	prev := c.items
	next := fn(slices.Clone(prev))
	c.items = next
	userID := c.userID

	if err := c.cache.Set(c.name, next); err != nil {
		slog.Error("persisting collection", "collection", c.name, "error", err)
	}

	c.mu.Unlock()

	if userID == "" {
		return
	}

	if idsToDelete := missingIDs(prev, next); len(idsToDelete) > 0 {
		c.wg.Add(1)

		go func() {
			defer c.wg.Done()

			if err := c.remote.DeleteByIDs(context.Background(), userID, idsToDelete); err != nil {
				slog.Error("background delete failed", "collection", c.name, "error", err)
			}
		}()
	}

	if len(next) > 0 {
		rows := slices.Clone(next)

		c.wg.Add(1)

		go func() {
			defer c.wg.Done()

			if err := c.remote.Upsert(context.Background(), userID, rows); err != nil {
				slog.Error("background upsert failed", "collection", c.name, "error", err)
			}
		}()
	}
}

// SetIdentity handles a login (non-empty id) or logout (empty id)
// transition. Repeating the current identity is a no-op. A login starts one
// reconciliation; a reconciliation superseded by a later transition discards
// its result instead of clobbering the new session's state.
func (c *Collection[T]) SetIdentity(userID string) {
	c.mu.Lock()

	if c.userID == userID {
		c.mu.Unlock()
		return
	}

	c.epoch++
	epoch := c.epoch
	c.userID = userID

	if userID == "" {
		c.syncing = false
		c.mu.Unlock()

		return
	}

	c.syncing = true
	c.mu.Unlock()

	c.wg.Add(1)

	go c.reconcile(epoch, userID)
}

// Wait blocks until all background remote work has drained. Used during
// shutdown and by tests.
func (c *Collection[T]) Wait() {
	c.wg.Wait()
}

func (c *Collection[T]) reconcile(epoch uint64, userID string) {
	defer c.wg.Done()

	remoteItems, err := c.remote.FetchAll(context.Background(), userID)

	c.mu.Lock()

	if c.epoch != epoch {
		// Superseded by a newer identity transition.
		c.mu.Unlock()
		return
	}

	var seed []T

	switch {
	case err != nil:
		// Degrade to local-only operation; the next reconciliation is the
		// recovery path.
		slog.Error("sync fetch failed, continuing with local data", "collection", c.name, "error", err)
	case len(remoteItems) > 0:
		c.items = mergeByID(c.items, remoteItems)
		if cacheErr := c.cache.Set(c.name, c.items); cacheErr != nil {
			slog.Error("persisting merged collection", "collection", c.name, "error", cacheErr)
		}
	case len(c.items) > 0:
		// First sync from this device: the local collection seeds the
		// empty remote store.
		seed = slices.Clone(c.items)
	}

	if seed == nil {
		c.syncing = false
		c.mu.Unlock()

		return
	}

	c.mu.Unlock()

	if err := c.remote.Upsert(context.Background(), userID, seed); err != nil {
		slog.Error("seed upload failed", "collection", c.name, "error", err)
	}

	c.mu.Lock()

	if c.epoch == epoch {
		c.syncing = false
	}

	c.mu.Unlock()
}

// mergeByID merges remote rows over local ones: a remote row replaces the
// local row with the same identifier in place, unknown remote identifiers
// are appended, and local-only rows (not yet pushed) survive.
func mergeByID[T ledger.Entity](local, remote []T) []T {
	merged := slices.Clone(local)

	index := make(map[string]int, len(merged))
	for i, item := range merged {
		index[item.EntityID()] = i
	}

	for _, item := range remote {
		if i, ok := index[item.EntityID()]; ok {
			merged[i] = item
			continue
		}

		index[item.EntityID()] = len(merged)
		merged = append(merged, item)
	}

	return merged
}

// missingIDs returns the identifiers present in prev but absent from next,
// in prev order.
func missingIDs[T ledger.Entity](prev, next []T) []string {
	keep := make(map[string]struct{}, len(next))
	for _, item := range next {
		keep[item.EntityID()] = struct{}{}
	}

	var missing []string

	for _, item := range prev {
		if _, ok := keep[item.EntityID()]; !ok {
			missing = append(missing, item.EntityID())
		}
	}

	return missing
}
