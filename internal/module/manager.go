package module

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Present describes a module found on disk.
type Present struct {
	Name    string `yaml:"name" json:"name"`
	Version string `yaml:"version" json:"version"`
}

// EntityLister lists every stored install record.
type EntityLister interface {
	ListModules(ctx context.Context) ([]Entity, error)
}

type registration struct {
	mu    sync.RWMutex
	id    string
	state State
}

func (r *registration) ID() string { return r.id }

func (r *registration) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

func (r *registration) SetState(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = s
}

// Manager derives module states from install records and the modules present
// on disk, and serves them as a Registry.
type Manager struct {
	mu      sync.RWMutex
	modules map[string]*registration
}

// NewManager builds registrations for every module that is installed or present.
func NewManager(records []Entity, present []Present) *Manager {
	m := &Manager{modules: make(map[string]*registration)}

	onDisk := make(map[string]Present, len(present))
	for _, p := range present {
		onDisk[p.Name] = p
	}

	for _, rec := range records {
		p, found := onDisk[rec.ID]
		m.modules[rec.ID] = &registration{id: rec.ID, state: deriveState(rec, p, found)}
		delete(onDisk, rec.ID)
	}
	for name := range onDisk {
		m.modules[name] = &registration{id: name, state: StateNotInstalled}
	}
	return m
}

// LoadManager reads install records from lister and builds a Manager.
func LoadManager(ctx context.Context, lister EntityLister, present []Present) (*Manager, error) {
	records, err := lister.ListModules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}
	return NewManager(records, present), nil
}

func deriveState(rec Entity, p Present, found bool) State {
	switch {
	case !found:
		return StateNotFound
	case p.Version != "" && rec.Version != "" && p.Version != rec.Version:
		return StateNeedsUpgrade
	case rec.IsActive:
		return StateActive
	default:
		return StateNotActive
	}
}

// Module implements Registry.
func (m *Manager) Module(name string) (Registration, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.modules[name]
	if !ok {
		return nil, false
	}
	return r, true
}

// Register adds or replaces a registration, e.g. for states the manager
// cannot derive itself such as StateInvalidOmekaVersion.
func (m *Manager) Register(name string, state State) Registration {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := &registration{id: name, state: state}
	m.modules[name] = r
	return r
}

// Modules returns all registrations sorted by name.
func (m *Manager) Modules() []Registration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Registration, 0, len(m.modules))
	for _, r := range m.modules {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}
