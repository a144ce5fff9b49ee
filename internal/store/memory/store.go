// Package memory is an in-process materials store. It backs dry-run
// imports in the CLI and the HTTP tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/materials/internal/core"
)

type entity struct {
	id   int64
	name string
}

// Store implements core.Store with mutex-protected maps.
type Store struct {
	mu        sync.RWMutex
	nextID    int64
	entities  map[core.EntityKind]map[string]entity
	materials []material
	now       func() time.Time
}

type material struct {
	core.Material
	id        int64
	uuid      uuid.UUID
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		entities: map[core.EntityKind]map[string]entity{
			core.KindCategory: {},
			core.KindSupplier: {},
		},
		now: time.Now,
	}
}

// FindEntity implements core.Store.
func (s *Store) FindEntity(_ context.Context, kind core.EntityKind, name string) (int64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entities[kind][name]
	return e.id, ok, nil
}

// CreateEntity implements core.Store.
func (s *Store) CreateEntity(_ context.Context, kind core.EntityKind, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entities[kind][name]; ok {
		return 0, core.ErrEntityExists
	}
	s.nextID++
	s.entities[kind][name] = entity{id: s.nextID, name: name}
	return s.nextID, nil
}

// CreateMaterial implements core.Store.
func (s *Store) CreateMaterial(_ context.Context, m core.Material) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	now := s.now()
	s.materials = append(s.materials, material{
		Material:  m,
		id:        s.nextID,
		uuid:      uuid.New(),
		createdAt: now,
		updatedAt: now,
	})
	return s.nextID, nil
}

// ListMaterials implements core.Store. Deleted materials are skipped.
func (s *Store) ListMaterials(context.Context) ([]core.MaterialView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.MaterialView, 0, len(s.materials))
	for _, m := range s.materials {
		if m.deletedAt != nil {
			continue
		}
		created, updated := m.createdAt, m.updatedAt
		out = append(out, core.MaterialView{
			ID:          m.id,
			UUID:        m.uuid,
			Name:        m.Name,
			Category:    s.nameOf(core.KindCategory, m.CategoryID),
			Supplier:    s.nameOf(core.KindSupplier, m.SupplierID),
			Description: m.Description,
			FilePath:    m.FilePath,
			Metadata:    m.Metadata,
			CreatedAt:   &created,
			UpdatedAt:   &updated,
		})
	}
	return out, nil
}

// Delete soft-deletes a material so it no longer exports.
func (s *Store) Delete(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.materials {
		if s.materials[i].id == id && s.materials[i].deletedAt == nil {
			now := s.now()
			s.materials[i].deletedAt = &now
			return true
		}
	}
	return false
}

// Names returns the entity names of a kind, sorted.
func (s *Store) Names(kind core.EntityKind) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.entities[kind]))
	for name := range s.entities[kind] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Store) nameOf(kind core.EntityKind, id int64) *string {
	for _, e := range s.entities[kind] {
		if e.id == id {
			name := e.name
			return &name
		}
	}
	return nil
}
