package store

import (
	"fmt"
	"os"
	"sync"

	"go.ngs.io/oceanprep/internal/domain"
)

// MemoryBackendName is the name of the in-process backend.
const MemoryBackendName = "memory"

func init() {
	Register(MemoryBackendName, func() Backend { return NewMemory() })
}

// Memory keeps datasets in a map keyed by path. Writes store a deep copy.
type Memory struct {
	mu    sync.RWMutex
	files map[string]*domain.Dataset
}

// NewMemory creates an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{files: make(map[string]*domain.Dataset)}
}

// Name implements Backend.
func (m *Memory) Name() string { return MemoryBackendName }

// Put stores ds under path as-is.
func (m *Memory) Put(path string, ds *domain.Dataset) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = ds
}

// Get returns the dataset stored under path.
func (m *Memory) Get(path string) (*domain.Dataset, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ds, ok := m.files[path]
	return ds, ok
}

// Open implements Backend.
func (m *Memory) Open(path string) (Archive, error) {
	ds, ok := m.Get(path)
	if !ok {
		return nil, fmt.Errorf("failed to open %s: %w", path, os.ErrNotExist)
	}
	return &memoryArchive{ds: ds}, nil
}

// Write implements Backend.
func (m *Memory) Write(path string, ds *domain.Dataset) error {
	m.Put(path, ds.Clone())
	return nil
}

type memoryArchive struct {
	ds *domain.Dataset
}

func (a *memoryArchive) Variables() []string {
	names := make([]string, 0, len(a.ds.Coords())+len(a.ds.Vars()))
	for _, c := range a.ds.Coords() {
		names = append(names, c.Name)
	}
	return append(names, a.ds.VarNames()...)
}

func (a *memoryArchive) Variable(name string) (*domain.Variable, error) {
	if v := a.ds.Var(name); v != nil {
		return v, nil
	}
	if c := a.ds.Coord(name); c != nil {
		data, err := domain.NewArray(c.Values, c.Len())
		if err != nil {
			return nil, err
		}
		return domain.NewVariable(c.Name, []string{c.Name}, data, c.Attrs)
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrVariableNotFound, name)
}

func (a *memoryArchive) Attrs() domain.Attrs { return a.ds.Attrs.Clone() }

func (a *memoryArchive) Close() error { return nil }
