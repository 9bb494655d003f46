package chem

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

var (
	ErrDuplicateName = errors.New("molecule name already registered")
	ErrNotFound      = errors.New("molecule not found")
)

// Registry owns every molecule of one simulation. Molecules are keyed by
// unique name and iterated in insertion order. It is not safe for concurrent
// use; the simulation goroutine is its only user.
type Registry struct {
	byName   map[string]*Molecule
	byID     map[uuid.UUID]*Molecule
	order    []*Molecule
	onRemove []func(*Molecule)
}

func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*Molecule),
		byID:   make(map[uuid.UUID]*Molecule),
	}
}

// Add registers an already built molecule.
func (r *Registry) Add(m *Molecule) error {
	if _, ok := r.byName[m.Name]; ok {
		return fmt.Errorf("add %q: %w", m.Name, ErrDuplicateName)
	}
	r.byName[m.Name] = m
	r.byID[m.ID] = m
	r.order = append(r.order, m)
	return nil
}

// Create builds a molecule from atoms and bonds, places it and registers it.
func (r *Registry) Create(name string, atoms []Atom, bonds []Bond, position mgl64.Vec3) (*Molecule, error) {
	if _, ok := r.byName[name]; ok {
		return nil, fmt.Errorf("create %q: %w", name, ErrDuplicateName)
	}
	m, err := NewMolecule(name, atoms, bonds)
	if err != nil {
		return nil, err
	}
	m.SetPosition(position)
	if err := r.Add(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *Registry) Get(name string) (*Molecule, bool) {
	m, ok := r.byName[name]
	return m, ok
}

func (r *Registry) GetByID(id uuid.UUID) (*Molecule, bool) {
	m, ok := r.byID[id]
	return m, ok
}

// Remove unregisters the named molecule and runs the removal hooks.
func (r *Registry) Remove(name string) error {
	m, ok := r.byName[name]
	if !ok {
		return fmt.Errorf("remove %q: %w", name, ErrNotFound)
	}
	delete(r.byName, name)
	delete(r.byID, m.ID)
	for i, o := range r.order {
		if o == m {
			r.order = append(r.order[:i:i], r.order[i+1:]...)
			break
		}
	}
	for _, fn := range r.onRemove {
		fn(m)
	}
	return nil
}

// Rename moves a molecule to a new unique name.
func (r *Registry) Rename(old, name string) error {
	m, ok := r.byName[old]
	if !ok {
		return fmt.Errorf("rename %q: %w", old, ErrNotFound)
	}
	if old == name {
		return nil
	}
	if _, ok := r.byName[name]; ok {
		return fmt.Errorf("rename %q to %q: %w", old, name, ErrDuplicateName)
	}
	delete(r.byName, old)
	m.Name = name
	r.byName[name] = m
	return nil
}

// OnRemove registers a hook run after a molecule leaves the registry.
func (r *Registry) OnRemove(fn func(*Molecule)) {
	r.onRemove = append(r.onRemove, fn)
}

// Each calls fn for every molecule in insertion order until fn returns false.
func (r *Registry) Each(fn func(*Molecule) bool) {
	for _, m := range r.order {
		if !fn(m) {
			return
		}
	}
}

// Molecules returns a copy of the insertion-ordered molecule list.
func (r *Registry) Molecules() []*Molecule {
	return append([]*Molecule(nil), r.order...)
}

func (r *Registry) Len() int { return len(r.order) }

// Clear removes every molecule, running the removal hooks for each.
func (r *Registry) Clear() {
	for _, m := range r.Molecules() {
		_ = r.Remove(m.Name)
	}
}

// UniqueName returns base if it is free, otherwise base with the lowest free
// numeric suffix.
func (r *Registry) UniqueName(base string) string {
	if _, ok := r.byName[base]; !ok {
		return base
	}
	for i := 2; ; i++ {
		name := fmt.Sprintf("%s-%d", base, i)
		if _, ok := r.byName[name]; !ok {
			return name
		}
	}
}
