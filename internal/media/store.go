package media

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
)

var (
	// ErrNotFound is returned for a relationship id with no registered part.
	ErrNotFound = errors.New("media not found")
	// ErrTooLarge is returned when a payload exceeds MaxPayloadBytes.
	ErrTooLarge = errors.New("media too large")
	// ErrDuplicate is returned when a relationship id is registered twice.
	ErrDuplicate = errors.New("duplicate relationship id")
)

// Part is a stored binary payload.
type Part struct {
	RelID string // Relationship id referencing the part.
	Name  string // Part name, e.g. "media/image1.png".
	Data  []byte
}

// Source is the read side of a part store, keyed by relationship id.
type Source interface {
	Size(relID string) (int64, error)
	Open(relID string) (io.ReadCloser, error)
	Name(relID string) (string, error)
}

// Store is an in-memory part store. It is not safe for concurrent writes;
// a store is owned by one document or one extraction at a time.
type Store struct {
	parts    map[string]*Part
	order    []string
	names    map[string]bool
	reserved map[string]bool
	next     int
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		parts:    make(map[string]*Part),
		names:    make(map[string]bool),
		reserved: make(map[string]bool),
	}
}

// Add registers data under a caller-chosen relationship id, as importers do
// when the id is dictated by the source document.
func (s *Store) Add(relID, name string, data []byte) error {
	if relID == "" {
		return fmt.Errorf("add media: empty relationship id")
	}
	if _, ok := s.parts[relID]; ok || s.reserved[relID] {
		return fmt.Errorf("add media %s: %w", relID, ErrDuplicate)
	}
	if name == "" {
		name = "media/" + relID
	}
	s.put(&Part{RelID: relID, Name: s.uniqueName(name), Data: data})
	return nil
}

// Register stores data under a freshly allocated relationship id and a part
// name derived from name, and returns the new id. Allocated ids and names
// never collide with registered or reserved ones.
func (s *Store) Register(name string, data []byte) string {
	relID := s.nextID()
	if name == "" {
		name = "media/part"
	}
	s.put(&Part{RelID: relID, Name: s.uniqueName(name), Data: data})
	return relID
}

// Reserve marks relationship ids and part names that must never be allocated
// by Register, typically those of another store.
func (s *Store) Reserve(other *Store) {
	for _, id := range other.order {
		s.reserved[id] = true
		s.names[other.parts[id].Name] = true
	}
	for id := range other.reserved {
		s.reserved[id] = true
	}
}

func (s *Store) put(p *Part) {
	s.parts[p.RelID] = p
	s.names[p.Name] = true
	s.order = append(s.order, p.RelID)
}

func (s *Store) nextID() string {
	for {
		s.next++
		id := "rId" + strconv.Itoa(s.next)
		if _, taken := s.parts[id]; !taken && !s.reserved[id] {
			return id
		}
	}
}

// uniqueName returns name, or name with a numeric suffix before the
// extension when it is already taken.
func (s *Store) uniqueName(name string) string {
	if !s.names[name] {
		return name
	}
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 2; ; i++ {
		cand := base + "-" + strconv.Itoa(i) + ext
		if !s.names[cand] {
			return cand
		}
	}
}

// Size returns the byte length of the part behind relID.
func (s *Store) Size(relID string) (int64, error) {
	p, ok := s.parts[relID]
	if !ok {
		return 0, fmt.Errorf("size %s: %w", relID, ErrNotFound)
	}
	return int64(len(p.Data)), nil
}

// Open returns a reader over the payload behind relID.
func (s *Store) Open(relID string) (io.ReadCloser, error) {
	p, ok := s.parts[relID]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", relID, ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(p.Data)), nil
}

// Name returns the part name behind relID.
func (s *Store) Name(relID string) (string, error) {
	p, ok := s.parts[relID]
	if !ok {
		return "", fmt.Errorf("name %s: %w", relID, ErrNotFound)
	}
	return p.Name, nil
}

// Part returns a copy of the part header and its payload.
func (s *Store) Part(relID string) (Part, bool) {
	p, ok := s.parts[relID]
	if !ok {
		return Part{}, false
	}
	return *p, true
}

// Parts returns all parts in registration order.
func (s *Store) Parts() []Part {
	out := make([]Part, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.parts[id])
	}
	return out
}

// Len returns the number of parts.
func (s *Store) Len() int {
	return len(s.order)
}
