// Package testutil provides test helpers shared by relnotes packages.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

// GitRepo is a throwaway repository in a temp dir. Each commit is one minute
// after the previous one so history order is deterministic.
type GitRepo struct {
	Dir  string
	Repo *git.Repository

	t    testing.TB
	n    int
	when time.Time
}

// NewGitRepo initializes an empty non-bare repository in t.TempDir().
func NewGitRepo(t testing.TB) *GitRepo {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	return &GitRepo{
		Dir:  dir,
		Repo: repo,
		t:    t,
		when: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

// Signature returns the author/committer used for the next commit.
func (r *GitRepo) Signature() *object.Signature {
	return &object.Signature{Name: "Test User", Email: "test@example.com", When: r.when}
}

// Commit writes a new file and commits it with message.
func (r *GitRepo) Commit(message string) plumbing.Hash {
	r.t.Helper()
	r.n++
	r.when = r.when.Add(time.Minute)

	name := fmt.Sprintf("file%d.txt", r.n)
	require.NoError(r.t, os.WriteFile(filepath.Join(r.Dir, name), []byte(message), 0o644))

	wt, err := r.Repo.Worktree()
	require.NoError(r.t, err)
	_, err = wt.Add(name)
	require.NoError(r.t, err)

	hash, err := wt.Commit(message, &git.CommitOptions{Author: r.Signature(), Committer: r.Signature()})
	require.NoError(r.t, err)
	return hash
}

// Commits commits each message in order and returns the last hash.
func (r *GitRepo) Commits(messages ...string) plumbing.Hash {
	r.t.Helper()
	var last plumbing.Hash
	for _, m := range messages {
		last = r.Commit(m)
	}
	return last
}

// Tag creates a lightweight tag.
func (r *GitRepo) Tag(name string, hash plumbing.Hash) {
	r.t.Helper()
	_, err := r.Repo.CreateTag(name, hash, nil)
	require.NoError(r.t, err)
}

// AnnotatedTag creates an annotated tag.
func (r *GitRepo) AnnotatedTag(name string, hash plumbing.Hash) {
	r.t.Helper()
	_, err := r.Repo.CreateTag(name, hash, &git.CreateTagOptions{
		Tagger:  r.Signature(),
		Message: "release " + name,
	})
	require.NoError(r.t, err)
}

// HasTag reports whether the tag exists.
func (r *GitRepo) HasTag(name string) bool {
	r.t.Helper()
	_, err := r.Repo.Tag(name)
	return err == nil
}

// InitBare creates an empty bare repository usable as a push remote.
func InitBare(t testing.TB) (string, *git.Repository) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, true)
	require.NoError(t, err)
	return dir, repo
}
