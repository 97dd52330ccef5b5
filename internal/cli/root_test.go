package cli

import (
	"testing"
)

func TestSetVersion(t *testing.T) {
	tests := []struct {
		name    string
		v, c, d string
	}{
		{"release", "v1.2.3", "abc123", "2026-08-29"},
		{"empty", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SetVersion(tt.v, tt.c, tt.d)

			if version != tt.v {
				t.Errorf("version = %q, want %q", version, tt.v)
			}
			if commitSHA != tt.c {
				t.Errorf("commitSHA = %q, want %q", commitSHA, tt.c)
			}
			if date != tt.d {
				t.Errorf("date = %q, want %q", date, tt.d)
			}
		})
	}
}

func TestRepoArg(t *testing.T) {
	if got := repoArg(nil); got != "." {
		t.Errorf("repoArg(nil) = %q, want .", got)
	}
	if got := repoArg([]string{"/repos/x"}); got != "/repos/x" {
		t.Errorf("repoArg = %q, want /repos/x", got)
	}
}
