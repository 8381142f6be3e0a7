package comments

import (
	"errors"
	"fmt"
)

// ErrDuplicate is returned when a record id is added twice.
var ErrDuplicate = errors.New("duplicate comment id")

// Record is the metadata attached to a range: its id, author and text, and
// the id of the record it replies to, if any.
type Record struct {
	ID       string `json:"id"`
	Author   string `json:"author"`
	Text     string `json:"text"`
	ParentID string `json:"parent_id,omitempty"`
}

// Thread is a record together with its replies.
type Thread struct {
	Record
	Replies []*Thread
}

// Store holds the records of one document.
type Store struct {
	records map[string]Record
	order   []string
}

func NewStore() *Store {
	return &Store{records: make(map[string]Record)}
}

// Add registers r. Records may be added in any order; parent links are
// resolved when threads are built.
func (s *Store) Add(r Record) error {
	if r.ID == "" {
		return fmt.Errorf("add comment: empty id")
	}
	if _, ok := s.records[r.ID]; ok {
		return fmt.Errorf("add comment %s: %w", r.ID, ErrDuplicate)
	}
	s.records[r.ID] = r
	s.order = append(s.order, r.ID)
	return nil
}

// Get returns the record with the given id.
func (s *Store) Get(id string) (Record, bool) {
	r, ok := s.records[id]
	return r, ok
}

// Len returns the number of records.
func (s *Store) Len() int {
	return len(s.order)
}

// Children returns the direct replies to id in insertion order.
func (s *Store) Children(id string) []Record {
	var out []Record
	for _, cid := range s.order {
		if r := s.records[cid]; r.ParentID == id && r.ID != id {
			out = append(out, r)
		}
	}
	return out
}

// Thread returns the record id with all of its replies nested below it.
func (s *Store) Thread(id string) (*Thread, bool) {
	r, ok := s.Get(id)
	if !ok {
		return nil, false
	}
	return s.build(r, map[string]bool{}), true
}

// build nests replies below r. seen guards against parent cycles.
func (s *Store) build(r Record, seen map[string]bool) *Thread {
	seen[r.ID] = true
	th := &Thread{Record: r}
	for _, c := range s.Children(r.ID) {
		if seen[c.ID] {
			continue
		}
		th.Replies = append(th.Replies, s.build(c, seen))
	}
	return th
}

// Flatten lays a forest out breadth-first: every record appears exactly
// once, and every parent appears before all of its descendants.
func Flatten(roots []*Thread) []Record {
	out := make([]Record, 0, len(roots))
	queue := append([]*Thread(nil), roots...)
	for len(queue) > 0 {
		th := queue[0]
		queue = queue[1:]
		out = append(out, th.Record)
		queue = append(queue, th.Replies...)
	}
	return out
}
