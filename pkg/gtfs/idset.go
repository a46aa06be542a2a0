package gtfs

import "encoding/json"

// IDSet is a set of identifiers that remembers insertion order
type IDSet struct {
	order   []string
	members map[string]int
}

// NewIDSet creates a set holding ids in the given order
func NewIDSet(ids ...string) *IDSet {
	s := &IDSet{
		order:   make([]string, 0, len(ids)),
		members: make(map[string]int, len(ids)),
	}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts id and reports whether it was not already present
func (s *IDSet) Add(id string) bool {
	if _, ok := s.members[id]; ok {
		return false
	}
	s.members[id] = len(s.order)
	s.order = append(s.order, id)
	return true
}

// Has reports whether id is present
func (s *IDSet) Has(id string) bool {
	if s == nil {
		return false
	}
	_, ok := s.members[id]
	return ok
}

// Remove deletes id and reports whether it was present
func (s *IDSet) Remove(id string) bool {
	if _, ok := s.members[id]; !ok {
		return false
	}
	delete(s.members, id)
	return true
}

// Len returns the number of identifiers in the set
func (s *IDSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.members)
}

// Values returns the identifiers in insertion order
func (s *IDSet) Values() []string {
	if s == nil {
		return []string{}
	}
	out := make([]string, 0, len(s.members))
	for i, id := range s.order {
		// removed ids and stale positions of re-added ids are skipped
		if pos, ok := s.members[id]; ok && pos == i {
			out = append(out, id)
		}
	}
	return out
}

// Clone returns an independent copy of the set
func (s *IDSet) Clone() *IDSet {
	return NewIDSet(s.Values()...)
}

// MarshalJSON encodes the set as an ordered array
func (s *IDSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Values())
}

// UnmarshalJSON decodes an array into the set
func (s *IDSet) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = *NewIDSet(ids...)
	return nil
}
