package catalog

import (
	"strings"

	"github.com/zhouzirui/roundtable/backend/internal/model/debate"
)

// Store exposes the catalog to handlers and the agent factory.
type Store interface {
	Get() Catalog
	FindModel(label string) (ModelOption, bool)
	RoleInstructions(role debate.Role) (string, bool)
}

// MemoryStore implements Store over an immutable in-memory catalog.
type MemoryStore struct {
	catalog Catalog
	models  map[string]ModelOption
	roles   map[debate.Role]string
}

// NewMemoryStore indexes the supplied catalog.
func NewMemoryStore(c Catalog) *MemoryStore {
	s := &MemoryStore{
		catalog: clone(c),
		models:  make(map[string]ModelOption, len(c.Models)),
		roles:   make(map[debate.Role]string, len(c.Roles)),
	}
	for _, m := range c.Models {
		s.models[normalizeLabel(m.Label)] = m
	}
	for _, r := range c.Roles {
		s.roles[r.Role] = r.Instructions
	}
	return s
}

// Get returns a copy of the catalog.
func (s *MemoryStore) Get() Catalog {
	return clone(s.catalog)
}

// FindModel looks a card label up, ignoring case and surrounding spaces.
func (s *MemoryStore) FindModel(label string) (ModelOption, bool) {
	m, ok := s.models[normalizeLabel(label)]
	return m, ok
}

// RoleInstructions returns the behavioural text for role.
func (s *MemoryStore) RoleInstructions(role debate.Role) (string, bool) {
	text, ok := s.roles[role]
	return text, ok
}

func normalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

func clone(c Catalog) Catalog {
	return Catalog{
		Models:        append([]ModelOption(nil), c.Models...),
		Expertises:    append([]string(nil), c.Expertises...),
		Personalities: append([]string(nil), c.Personalities...),
		Roles:         append([]RoleSpec(nil), c.Roles...),
	}
}
