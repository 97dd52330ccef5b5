package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gitscape/gitscape/pkg/errors"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "prefs.toml"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	s := tempStore(t)
	p, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Theme != "dark" {
		t.Errorf("Theme = %q, want dark", p.Theme)
	}
	if len(p.Repos) != 0 {
		t.Errorf("Repos = %v, want empty", p.Repos)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := tempStore(t)

	p := Default()
	p.Theme = "light"
	p.StyleVars["graph-background"] = "#ffffff"
	p.Geometry = Geometry{LaneWidth: 28, RowHeight: 48}
	rp := p.Repo("/repos/gitscape")
	rp.HiddenBranches = []string{"wip", "experiments"}
	rp.AllBranches = true
	rp.ColumnWidth = 420

	if err := s.Save(p); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Theme != "light" || got.StyleVars["graph-background"] != "#ffffff" {
		t.Errorf("theme settings lost: %+v", got)
	}
	if got.Geometry.LaneWidth != 28 || got.Geometry.RowHeight != 48 {
		t.Errorf("Geometry = %+v", got.Geometry)
	}
	grp := got.Repo("/repos/gitscape")
	if len(grp.HiddenBranches) != 2 || grp.HiddenBranches[0] != "wip" {
		t.Errorf("HiddenBranches = %v", grp.HiddenBranches)
	}
	if !grp.AllBranches || grp.ColumnWidth != 420 {
		t.Errorf("repo prefs lost: %+v", grp)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	s := tempStore(t)
	if err := os.WriteFile(s.Path(), []byte("theme = [broken"), 0600); err != nil {
		t.Fatal(err)
	}

	p, err := s.Load()
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("err = %v, want INVALID_CONFIG", err)
	}
	if p == nil || p.Theme != "dark" {
		t.Errorf("malformed file should still yield defaults, got %+v", p)
	}
}

func TestRepoCreatesOnFirstAccess(t *testing.T) {
	p := &Prefs{}
	rp := p.Repo("/a")
	rp.ColumnWidth = 10
	if p.Repo("/a").ColumnWidth != 10 {
		t.Error("Repo should return the same entry on repeat access")
	}
}
