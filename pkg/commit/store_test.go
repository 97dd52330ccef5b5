package commit

import (
	"testing"
	"time"
)

func TestStorePutDeduplicates(t *testing.T) {
	s := NewStore()
	s.Put(&Commit{OID: "a", Summary: "first"})
	s.Put(&Commit{OID: "b", Summary: "second"})
	s.Put(&Commit{OID: "a", Summary: "replaced"})

	if got := s.Len(); got != 2 {
		t.Fatalf("Len = %d, want 2", got)
	}

	c, ok := s.Get("a")
	if !ok {
		t.Fatal("Get(a) missing")
	}
	if c.Summary != "replaced" {
		t.Errorf("Summary = %q, want replaced", c.Summary)
	}

	// Overwrite keeps the original position.
	order := s.Slice()
	if order[0].OID != "a" || order[1].OID != "b" {
		t.Errorf("order = [%s %s], want [a b]", order[0].OID, order[1].OID)
	}
}

func TestStoreIgnoresInvalid(t *testing.T) {
	s := NewStore()
	s.Put(nil)
	s.Put(&Commit{OID: ""})
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}
}

func TestStoreClear(t *testing.T) {
	s := NewStore()
	s.PutAll([]*Commit{{OID: "a"}, {OID: "b"}})
	s.Clear()
	if s.Len() != 0 || s.Has("a") {
		t.Error("Clear did not empty the store")
	}
}

func TestCommitHelpers(t *testing.T) {
	root := &Commit{OID: "r", Timestamp: time.Unix(100, 0)}
	merge := &Commit{OID: "m", Parents: []string{"a", "b"}}

	if root.IsMerge() || root.FirstParent() != "" {
		t.Error("root commit misclassified")
	}
	if !merge.IsMerge() || merge.FirstParent() != "a" {
		t.Error("merge commit misclassified")
	}
}

func TestStatsWeight(t *testing.T) {
	s := Stats{Additions: 10, Deletions: 5}
	if s.Weight() != 15 {
		t.Errorf("Weight = %d, want 15", s.Weight())
	}
}
