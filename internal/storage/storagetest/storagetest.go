// Package storagetest provides Store doubles for tests.
package storagetest

import (
	"context"
	"sort"
	"sync"

	"github.com/stretchr/testify/mock"

	"vaultwarden-retention/internal/storage"
)

// MockStore is a testify mock implementing storage.Store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) List(ctx context.Context) ([]storage.Object, error) {
	args := m.Called(ctx)
	objects, _ := args.Get(0).([]storage.Object)
	return objects, args.Error(1)
}

func (m *MockStore) BatchDelete(ctx context.Context, paths []string) error {
	args := m.Called(ctx, paths)
	return args.Error(0)
}

func (m *MockStore) String() string {
	return "mock:"
}

// MemoryStore is an in-memory storage.Store that applies deletions, so a
// second run observes the result of the first.
type MemoryStore struct {
	mu          sync.Mutex
	objects     map[string]storage.Object
	ListErr     error
	DeleteErr   error
	DeleteCalls [][]string
	ListCalls   int
}

// NewMemoryStore creates a MemoryStore holding objects
func NewMemoryStore(objects ...storage.Object) *MemoryStore {
	ms := &MemoryStore{objects: make(map[string]storage.Object)}
	for _, o := range objects {
		ms.objects[o.Path] = o
	}
	return ms
}

func (ms *MemoryStore) List(ctx context.Context) ([]storage.Object, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.ListCalls++
	if ms.ListErr != nil {
		return nil, ms.ListErr
	}

	out := make([]storage.Object, 0, len(ms.objects))
	for _, o := range ms.objects {
		out = append(out, o)
	}
	// Listing order is unspecified for real backends; keep it stable here
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (ms *MemoryStore) BatchDelete(ctx context.Context, paths []string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.DeleteCalls = append(ms.DeleteCalls, append([]string(nil), paths...))
	if ms.DeleteErr != nil {
		return ms.DeleteErr
	}
	for _, p := range paths {
		delete(ms.objects, p)
	}
	return nil
}

func (ms *MemoryStore) String() string {
	return "memory:"
}

// Paths returns the stored paths in sorted order
func (ms *MemoryStore) Paths() []string {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	paths := make([]string, 0, len(ms.objects))
	for p := range ms.objects {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
