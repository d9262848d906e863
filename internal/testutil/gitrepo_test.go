package testutil

import (
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGitRepo(t *testing.T) {
	t.Parallel()

	r := NewGitRepo(t)
	first := r.Commit("feat: one")
	last := r.Commits("fix: two", "chore: three")
	r.Tag("v1.0.0", first)
	r.AnnotatedTag("v1.1.0", last)

	assert.True(t, r.HasTag("v1.0.0"))
	assert.True(t, r.HasTag("v1.1.0"))
	assert.False(t, r.HasTag("v2.0.0"))

	head, err := r.Repo.Head()
	require.NoError(t, err)
	assert.Equal(t, last, head.Hash())

	c, err := r.Repo.CommitObject(last)
	require.NoError(t, err)
	assert.Equal(t, "chore: three", c.Message)

	var times []int64
	iter, err := r.Repo.Log(&git.LogOptions{})
	require.NoError(t, err)
	require.NoError(t, iter.ForEach(func(c *object.Commit) error {
		times = append(times, c.Committer.When.Unix())
		return nil
	}))
	require.Len(t, times, 3)
	assert.Greater(t, times[0], times[1])
	assert.Greater(t, times[1], times[2])
}

func TestInitBare(t *testing.T) {
	t.Parallel()

	dir, repo := InitBare(t)
	assert.NotEmpty(t, dir)

	_, err := repo.Head()
	assert.Error(t, err)
}
