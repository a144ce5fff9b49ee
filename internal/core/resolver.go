package core

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// EntityResolver maps category and supplier names to IDs, creating the
// entity when no row with that exact name exists.
//
// One resolver serves one batch. Resolved IDs are cached for the batch,
// and concurrent calls for the same name share a single lookup, so a name
// is created at most once even when rows are processed in parallel.
// Writers outside the batch are handled by the store's uniqueness
// constraint: ErrEntityExists from CreateEntity means "look it up again".
type EntityResolver struct {
	store Store
	group singleflight.Group

	mu    sync.RWMutex
	cache map[string]int64

	created int
}

// NewEntityResolver creates a resolver with an empty cache.
func NewEntityResolver(store Store) *EntityResolver {
	return &EntityResolver{
		store: store,
		cache: make(map[string]int64),
	}
}

// Resolve returns the ID of the kind entity named name. Failures are
// returned as *ResolutionError.
func (r *EntityResolver) Resolve(ctx context.Context, kind EntityKind, name string) (int64, error) {
	if name == "" {
		return 0, &ResolutionError{Kind: kind, Name: name, Err: ErrEmptyName}
	}

	key := string(kind) + "\x00" + name

	r.mu.RLock()
	id, ok := r.cache[key]
	r.mu.RUnlock()
	if ok {
		return id, nil
	}

	v, err, _ := r.group.Do(key, func() (interface{}, error) {
		id, err := r.findOrCreate(ctx, kind, name)
		if err != nil {
			return int64(0), err
		}
		r.mu.Lock()
		r.cache[key] = id
		r.mu.Unlock()
		return id, nil
	})
	if err != nil {
		return 0, &ResolutionError{Kind: kind, Name: name, Err: err}
	}
	return v.(int64), nil
}

// Created returns how many entities this resolver inserted.
func (r *EntityResolver) Created() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.created
}

func (r *EntityResolver) findOrCreate(ctx context.Context, kind EntityKind, name string) (int64, error) {
	id, found, err := r.store.FindEntity(ctx, kind, name)
	if err != nil {
		return 0, fmt.Errorf("find: %w", err)
	}
	if found {
		return id, nil
	}

	id, err = r.store.CreateEntity(ctx, kind, name)
	if err == nil {
		r.mu.Lock()
		r.created++
		r.mu.Unlock()
		return id, nil
	}
	if !errors.Is(err, ErrEntityExists) {
		return 0, fmt.Errorf("create: %w", err)
	}

	// Lost a race with another writer; its row is ours.
	id, found, err = r.store.FindEntity(ctx, kind, name)
	if err != nil {
		return 0, fmt.Errorf("find after conflict: %w", err)
	}
	if !found {
		return 0, fmt.Errorf("create reported a conflict but no %s named %q exists", kind, name)
	}
	return id, nil
}
