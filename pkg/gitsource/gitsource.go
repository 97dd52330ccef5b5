// Package gitsource loads commit history, refs, and change statistics from a
// local repository through go-git.
//
// It is the production implementation of the view layer's Source dependency.
// All operations are read-only; the repository is never mutated.
package gitsource

import (
	"context"
	"strings"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"github.com/gitscape/gitscape/pkg/commit"
	"github.com/gitscape/gitscape/pkg/errors"
	"github.com/gitscape/gitscape/pkg/observability"
)

// SearchLimit caps the number of matches returned by [Repo.Search].
const SearchLimit = 200

// Repo reads a single repository. Safe for use from one goroutine at a time.
type Repo struct {
	path string
	repo *git.Repository
}

// Open opens the repository whose working directory is at path.
func Open(path string) (*Repo, error) {
	if err := errors.ValidateRepoPath(path); err != nil {
		return nil, err
	}
	r, err := git.PlainOpen(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRepoAccess, err, "opening repository %s", path)
	}
	return &Repo{path: path, repo: r}, nil
}

// FromRepository wraps an already opened go-git repository. In-memory callers
// and tests use this directly.
func FromRepository(r *git.Repository, path string) *Repo {
	return &Repo{path: path, repo: r}
}

// Path returns the path the repository was opened with.
func (r *Repo) Path() string { return r.path }

// HeadOID returns the commit the current HEAD resolves to. Callers compare
// it across async boundaries to detect that the repository changed under
// them.
func (r *Repo) HeadOID() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeRepoAccess, err, "resolving HEAD")
	}
	return head.Hash().String(), nil
}

// Commits returns up to limit commits in committer-time order, newest first,
// skipping the first skip commits. With allBranches the walk starts from
// every ref instead of only HEAD.
func (r *Repo) Commits(ctx context.Context, limit, skip int, allBranches bool) ([]*commit.Commit, error) {
	start := time.Now()
	observability.Fetch().OnFetchStart(ctx, r.path, "")

	iter, err := r.repo.Log(&git.LogOptions{
		Order: git.LogOrderCommitterTime,
		All:   allBranches,
	})
	if err != nil {
		observability.Fetch().OnFetchComplete(ctx, r.path, 0, time.Since(start), err)
		return nil, errors.Wrap(errors.ErrCodeRepoAccess, err, "walking history of %s", r.path)
	}
	defer iter.Close()

	var out []*commit.Commit
	seen := 0
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if seen < skip {
			seen++
			return nil
		}
		out = append(out, convert(c))
		if limit > 0 && len(out) >= limit {
			return storer.ErrStop
		}
		return nil
	})
	if err != nil {
		observability.Fetch().OnFetchComplete(ctx, r.path, len(out), time.Since(start), err)
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.ErrCodeCanceled, err, "commit load canceled")
		}
		return nil, errors.Wrap(errors.ErrCodeRepoAccess, err, "walking history of %s", r.path)
	}

	observability.Fetch().OnFetchComplete(ctx, r.path, len(out), time.Since(start), nil)
	return out, nil
}

func convert(c *object.Commit) *commit.Commit {
	parents := make([]string, 0, len(c.ParentHashes))
	for _, h := range c.ParentHashes {
		parents = append(parents, h.String())
	}
	return &commit.Commit{
		OID:         c.Hash.String(),
		Parents:     parents,
		Timestamp:   c.Committer.When,
		Summary:     summary(c.Message),
		AuthorName:  c.Author.Name,
		AuthorEmail: c.Author.Email,
	}
}

func summary(message string) string {
	first, _, _ := strings.Cut(message, "\n")
	return strings.TrimSpace(first)
}

// RefsByCommit maps commit oids to the branches and tags pointing at them.
// Annotated tags are resolved to their target commit; symbolic refs are
// skipped.
func (r *Repo) RefsByCommit(ctx context.Context) (map[string][]commit.RefInfo, error) {
	var headName plumbing.ReferenceName
	if head, err := r.repo.Head(); err == nil {
		headName = head.Name()
	}

	refs, err := r.repo.References()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRepoAccess, err, "listing refs of %s", r.path)
	}
	defer refs.Close()

	out := map[string][]commit.RefInfo{}
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if ref.Type() != plumbing.HashReference {
			return nil
		}

		info := commit.RefInfo{
			Name:      ref.Name().String(),
			Shorthand: ref.Name().Short(),
		}
		target := ref.Hash()
		switch {
		case ref.Name().IsBranch():
			info.Type = commit.RefLocalBranch
			info.IsHead = ref.Name() == headName
		case ref.Name().IsRemote():
			info.Type = commit.RefRemoteBranch
		case ref.Name().IsTag():
			info.Type = commit.RefTag
			if tag, err := r.repo.TagObject(target); err == nil {
				target = tag.Target
			}
		default:
			return nil
		}

		oid := target.String()
		out[oid] = append(out[oid], info)
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.ErrCodeCanceled, err, "ref load canceled")
		}
		return nil, errors.Wrap(errors.ErrCodeRepoAccess, err, "listing refs of %s", r.path)
	}
	return out, nil
}

// Stats computes per-commit change statistics for the given oids. Oids that
// no longer resolve are silently absent from the result; callers detect a
// swapped-out repository through [Repo.HeadOID], not here.
func (r *Repo) Stats(ctx context.Context, oids []string) (map[string]commit.Stats, error) {
	start := time.Now()
	observability.Fetch().OnFetchStart(ctx, r.path, "stats")

	out := make(map[string]commit.Stats, len(oids))
	for _, oid := range oids {
		if err := ctx.Err(); err != nil {
			observability.Fetch().OnFetchComplete(ctx, r.path, len(out), time.Since(start), err)
			return nil, errors.Wrap(errors.ErrCodeCanceled, err, "stats load canceled")
		}
		if err := errors.ValidateOID(oid); err != nil {
			return nil, err
		}

		c, err := r.repo.CommitObject(plumbing.NewHash(oid))
		if err != nil {
			continue
		}
		fileStats, err := c.Stats()
		if err != nil {
			continue
		}

		st := commit.Stats{
			FilesChanged: len(fileStats),
			Signed:       c.PGPSignature != "",
		}
		for _, fs := range fileStats {
			st.Additions += fs.Addition
			st.Deletions += fs.Deletion
		}
		out[oid] = st
	}

	observability.Fetch().OnFetchComplete(ctx, r.path, len(out), time.Since(start), nil)
	return out, nil
}

// Search returns the oids of commits whose summary, author, or oid prefix
// matches query, case-insensitively, across all refs. Results follow
// committer-time order and are capped at [SearchLimit].
func (r *Repo) Search(ctx context.Context, query string) ([]string, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}

	iter, err := r.repo.Log(&git.LogOptions{
		Order: git.LogOrderCommitterTime,
		All:   true,
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRepoAccess, err, "walking history of %s", r.path)
	}
	defer iter.Close()

	var out []string
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if matches(c, q) {
			out = append(out, c.Hash.String())
			if len(out) >= SearchLimit {
				return storer.ErrStop
			}
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.ErrCodeCanceled, err, "search canceled")
		}
		return nil, errors.Wrap(errors.ErrCodeRepoAccess, err, "searching %s", r.path)
	}
	return out, nil
}

func matches(c *object.Commit, q string) bool {
	if strings.HasPrefix(c.Hash.String(), q) {
		return true
	}
	if strings.Contains(strings.ToLower(summary(c.Message)), q) {
		return true
	}
	return strings.Contains(strings.ToLower(c.Author.Name), q) ||
		strings.Contains(strings.ToLower(c.Author.Email), q)
}
