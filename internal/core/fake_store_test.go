package core

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// fakeStore is an in-memory Store with hooks for failure injection.
type fakeStore struct {
	mu        sync.Mutex
	nextID    int64
	entities  map[EntityKind]map[string]int64
	materials []MaterialView
	creates   map[EntityKind]int

	// findErr fails FindEntity for a given name.
	findErr map[string]error
	// raceOnCreate makes CreateEntity behave as if another writer inserted
	// the name first.
	raceOnCreate bool
	// materialErr fails CreateMaterial for a given material name.
	materialErr map[string]error
	// createDelay widens race windows in concurrency tests.
	createDelay time.Duration
	// listErr fails ListMaterials.
	listErr error
	// pingErr fails Ping.
	pingErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		entities: map[EntityKind]map[string]int64{
			KindCategory: {},
			KindSupplier: {},
		},
		creates:     map[EntityKind]int{},
		findErr:     map[string]error{},
		materialErr: map[string]error{},
	}
}

func (s *fakeStore) FindEntity(_ context.Context, kind EntityKind, name string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.findErr[name]; err != nil {
		return 0, false, err
	}
	id, ok := s.entities[kind][name]
	return id, ok, nil
}

func (s *fakeStore) CreateEntity(_ context.Context, kind EntityKind, name string) (int64, error) {
	if s.createDelay > 0 {
		time.Sleep(s.createDelay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entities[kind][name]; exists {
		return 0, ErrEntityExists
	}
	s.nextID++
	s.entities[kind][name] = s.nextID
	if s.raceOnCreate {
		return 0, ErrEntityExists
	}
	s.creates[kind]++
	return s.nextID, nil
}

func (s *fakeStore) CreateMaterial(_ context.Context, m Material) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.materialErr[m.Name]; err != nil {
		return 0, err
	}

	s.nextID++
	now := time.Now()
	s.materials = append(s.materials, MaterialView{
		ID:          s.nextID,
		UUID:        uuid.New(),
		Name:        m.Name,
		Category:    s.nameOf(KindCategory, m.CategoryID),
		Supplier:    s.nameOf(KindSupplier, m.SupplierID),
		Description: m.Description,
		FilePath:    m.FilePath,
		Metadata:    m.Metadata,
		CreatedAt:   &now,
		UpdatedAt:   &now,
	})
	return s.nextID, nil
}

func (s *fakeStore) ListMaterials(context.Context) ([]MaterialView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]MaterialView, len(s.materials))
	copy(out, s.materials)
	return out, nil
}

func (s *fakeStore) Ping(context.Context) error {
	return s.pingErr
}

func (s *fakeStore) nameOf(kind EntityKind, id int64) *string {
	for name, eid := range s.entities[kind] {
		if eid == id {
			n := name
			return &n
		}
	}
	return nil
}

func (s *fakeStore) entityCount(kind EntityKind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entities[kind])
}

func (s *fakeStore) materialCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.materials)
}
