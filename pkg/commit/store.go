package commit

// Store is an insertion-ordered collection of commits keyed by oid.
//
// Pagination batches may overlap: Put overwrites an existing entry in place
// without disturbing its position, so feeding the union of all batches back
// through the layout engine stays deterministic. Store is not safe for
// concurrent use; it is owned by the single UI goroutine.
type Store struct {
	order []string
	byOID map[string]*Commit
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{byOID: make(map[string]*Commit)}
}

// Put inserts or replaces a commit. Duplicate oids overwrite the stored
// commit but keep its original position in load order.
func (s *Store) Put(c *Commit) {
	if c == nil || c.OID == "" {
		return
	}
	if _, exists := s.byOID[c.OID]; !exists {
		s.order = append(s.order, c.OID)
	}
	s.byOID[c.OID] = c
}

// PutAll inserts a batch in order.
func (s *Store) PutAll(batch []*Commit) {
	for _, c := range batch {
		s.Put(c)
	}
}

// Get returns the commit with the given oid, or nil and false.
func (s *Store) Get(oid string) (*Commit, bool) {
	c, ok := s.byOID[oid]
	return c, ok
}

// Has reports whether the oid is loaded.
func (s *Store) Has(oid string) bool {
	_, ok := s.byOID[oid]
	return ok
}

// Len returns the number of distinct commits loaded.
func (s *Store) Len() int { return len(s.order) }

// Slice returns all commits in load order. The returned slice is freshly
// allocated; the commit pointers are shared.
func (s *Store) Slice() []*Commit {
	out := make([]*Commit, len(s.order))
	for i, oid := range s.order {
		out[i] = s.byOID[oid]
	}
	return out
}

// Clear removes all commits.
func (s *Store) Clear() {
	s.order = s.order[:0]
	s.byOID = make(map[string]*Commit)
}
