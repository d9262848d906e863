// Package git provides the commit record source for relnotes: resolving a
// commit range, listing the commits in it, finding the latest tag, and
// creating and pushing release tags. It uses the go-git library so that no
// git CLI is required on the CI agent.
package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/ariel-frischer/relnotes/internal/commit"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
)

// DefaultPushTimeout bounds tag push operations so a stuck remote cannot
// hang a pipeline.
const DefaultPushTimeout = 60 * time.Second

var (
	// ErrNoTags is returned when no tag is reachable from HEAD.
	ErrNoTags = errors.New("no tags found")
	// ErrTagExists is returned when creating a tag that already exists.
	ErrTagExists = errors.New("tag already exists")
)

// debugLogger is a function that logs debug messages when debug mode is enabled.
// By default, it's a no-op. Set it via SetDebugLogger to enable debug output.
var debugLogger func(format string, args ...any)

// SetDebugLogger configures the debug logger for git operations.
// Pass nil to disable debug logging.
func SetDebugLogger(logger func(format string, args ...any)) {
	debugLogger = logger
}

// logDebug logs a debug message if the debug logger is set.
func logDebug(format string, args ...any) {
	if debugLogger != nil {
		debugLogger(format, args...)
	}
}

// Repo is an opened git repository.
type Repo struct {
	repo *git.Repository
	path string
}

// Range is a resolved commit range: the commits reachable from To and not
// reachable from From. An empty From means the full history of To.
type Range struct {
	From     string
	To       string
	FromHash string
	ToHash   string
}

// String renders the range the way git rev-list accepts it.
func (r Range) String() string {
	if r.From == "" {
		return r.To
	}
	return r.From + ".." + r.To
}

// Open opens the git repository containing path. It traverses up the
// directory tree to find the repository root. If path is empty, the current
// working directory is used.
func Open(path string) (*Repo, error) {
	if path == "" {
		var err error
		path, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting current directory: %w", err)
		}
	}

	logDebug("[git] opening repository at %s", path)

	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w", path, err)
	}

	return &Repo{repo: repo, path: path}, nil
}

// Root returns the absolute path of the repository worktree.
func (r *Repo) Root() (string, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("getting worktree: %w", err)
	}
	return wt.Filesystem.Root(), nil
}

// resolve turns a revision (tag, branch, HEAD, hash) into a commit hash.
func (r *Repo) resolve(rev string) (plumbing.Hash, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("resolving revision %q: %w", rev, err)
	}
	return *hash, nil
}

// ResolveRange resolves from and to into commit hashes. to defaults to HEAD.
// from defaults to the latest tag reachable from HEAD; without tags the range
// covers the full history of to.
func (r *Repo) ResolveRange(from, to string) (Range, error) {
	if to == "" {
		to = "HEAD"
	}

	toHash, err := r.resolve(to)
	if err != nil {
		return Range{}, err
	}

	if from == "" {
		tag, err := r.LatestTag()
		switch {
		case errors.Is(err, ErrNoTags):
			logDebug("[git] ResolveRange: no tags, using full history of %s", to)
			return Range{To: to, ToHash: toHash.String()}, nil
		case err != nil:
			return Range{}, err
		}
		from = tag
	}

	fromHash, err := r.resolve(from)
	if err != nil {
		return Range{}, err
	}

	rng := Range{From: from, To: to, FromHash: fromHash.String(), ToHash: toHash.String()}
	logDebug("[git] ResolveRange: %s", rng)
	return rng, nil
}

// Commits returns the commits of rng, newest first by committer time.
func (r *Repo) Commits(ctx context.Context, rng Range) ([]commit.Commit, error) {
	if rng.ToHash == "" {
		return nil, fmt.Errorf("range %s is not resolved", rng)
	}

	excluded := make(map[plumbing.Hash]bool)
	if rng.FromHash != "" {
		err := r.walk(ctx, plumbing.NewHash(rng.FromHash), func(c *object.Commit) error {
			excluded[c.Hash] = true
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking history of %s: %w", rng.From, err)
		}
	}

	var commits []commit.Commit
	err := r.walk(ctx, plumbing.NewHash(rng.ToHash), func(c *object.Commit) error {
		if excluded[c.Hash] {
			return nil
		}
		commits = append(commits, toCommit(c))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking range %s: %w", rng, err)
	}

	logDebug("[git] Commits: %d commits in %s", len(commits), rng)
	return commits, nil
}

// walk visits the history of from in committer-time order, newest first.
func (r *Repo) walk(ctx context.Context, from plumbing.Hash, fn func(*object.Commit) error) error {
	iter, err := r.repo.Log(&git.LogOptions{From: from, Order: git.LogOrderCommitterTime})
	if err != nil {
		return err
	}
	defer iter.Close()

	return iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fn(c)
	})
}

// toCommit converts a go-git commit object into a commit record.
func toCommit(c *object.Commit) commit.Commit {
	subject, body := commit.SplitMessage(c.Message)

	parents := make([]string, len(c.ParentHashes))
	for i, p := range c.ParentHashes {
		parents[i] = p.String()
	}

	return commit.Commit{
		Hash:      c.Hash.String(),
		Subject:   subject,
		Body:      body,
		Author:    commit.Signature{Name: c.Author.Name, Email: c.Author.Email, When: c.Author.When},
		Committer: commit.Signature{Name: c.Committer.Name, Email: c.Committer.Email, When: c.Committer.When},
		Parents:   parents,
	}
}

// tagsByCommit maps commit hashes to the names of the tags pointing at them.
// Annotated tags are peeled to their target commit.
func (r *Repo) tagsByCommit() (map[plumbing.Hash][]string, error) {
	iter, err := r.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	defer iter.Close()

	tags := make(map[plumbing.Hash][]string)
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		target := ref.Hash()
		tagObj, err := r.repo.TagObject(ref.Hash())
		switch {
		case err == nil:
			c, err := tagObj.Commit()
			if err != nil {
				logDebug("[git] skipping tag %s: %v", ref.Name().Short(), err)
				return nil
			}
			target = c.Hash
		case !errors.Is(err, plumbing.ErrObjectNotFound):
			return err
		}
		tags[target] = append(tags[target], ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterating tags: %w", err)
	}
	return tags, nil
}

// LatestTag returns the nearest tag reachable from HEAD. When several tags
// point at the same commit, the highest semantic version wins, then the
// lexically greatest name.
func (r *Repo) LatestTag() (string, error) {
	tags, err := r.tagsByCommit()
	if err != nil {
		return "", err
	}
	if len(tags) == 0 {
		return "", ErrNoTags
	}

	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("getting HEAD reference: %w", err)
	}

	var latest string
	err = r.walk(context.Background(), head.Hash(), func(c *object.Commit) error {
		if names, ok := tags[c.Hash]; ok {
			latest = pickTag(names)
			return storer.ErrStop
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("walking history: %w", err)
	}
	if latest == "" {
		return "", ErrNoTags
	}

	logDebug("[git] LatestTag: %s", latest)
	return latest, nil
}

// pickTag chooses one tag among several on the same commit.
func pickTag(names []string) string {
	sorted := append([]string(nil), names...)
	sort.SliceStable(sorted, func(i, j int) bool {
		vi, ei := semver.NewVersion(sorted[i])
		vj, ej := semver.NewVersion(sorted[j])
		switch {
		case ei == nil && ej == nil && !vi.Equal(vj):
			return vi.GreaterThan(vj)
		case ei == nil && ej != nil:
			return true
		case ei != nil && ej == nil:
			return false
		default:
			return sorted[i] > sorted[j]
		}
	})
	return sorted[0]
}

// CreateTag creates a lightweight tag at HEAD.
func (r *Repo) CreateTag(name string) error {
	head, err := r.repo.Head()
	if err != nil {
		return fmt.Errorf("getting HEAD reference: %w", err)
	}

	if _, err := r.repo.CreateTag(name, head.Hash(), nil); err != nil {
		if errors.Is(err, git.ErrTagExists) {
			return fmt.Errorf("%w: %s", ErrTagExists, name)
		}
		return fmt.Errorf("creating tag %s: %w", name, err)
	}

	logDebug("[git] CreateTag: %s at %s", name, head.Hash())
	return nil
}

// PushTags pushes the latest tag, or every tag when latestOnly is false, to
// the named remote. An up-to-date remote is not an error.
func (r *Repo) PushTags(ctx context.Context, remoteName string, latestOnly bool) error {
	if remoteName == "" {
		remoteName = "origin"
	}

	remote, err := r.repo.Remote(remoteName)
	if err != nil {
		return fmt.Errorf("getting remote %q: %w", remoteName, err)
	}

	refSpec := config.RefSpec("refs/tags/*:refs/tags/*")
	if latestOnly {
		tag, err := r.LatestTag()
		if err != nil {
			return err
		}
		refSpec = config.RefSpec(fmt.Sprintf("refs/tags/%s:refs/tags/%s", tag, tag))
	}

	var auth transport.AuthMethod
	if urls := remote.Config().URLs; len(urls) > 0 {
		if isSSHURL(urls[0]) && !isSSHAgentAvailable() {
			return fmt.Errorf("remote %q uses SSH but no SSH agent is available (SSH_AUTH_SOCK unset)", remoteName)
		}
		auth = getAuthForURL(urls[0])
	}

	logDebug("[git] pushing %s to remote '%s'", refSpec, remoteName)
	err = r.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: remoteName,
		RefSpecs:   []config.RefSpec{refSpec},
		Auth:       auth,
	})
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("pushing tags to %s: %w", remoteName, err)
	}
	return nil
}

// getAuthForURL returns the appropriate authentication method for a remote URL.
// SSH URLs use SSH agent auth, HTTPS URLs use environment credentials.
func getAuthForURL(url string) transport.AuthMethod {
	if isSSHURL(url) {
		auth, err := ssh.NewSSHAgentAuth("git")
		if err != nil {
			logDebug("[git] SSH agent auth failed: %v", err)
			return nil
		}
		return auth
	}

	// For HTTPS, try environment credentials
	username := os.Getenv("GIT_USERNAME")
	password := os.Getenv("GIT_PASSWORD")
	if username == "" {
		username = os.Getenv("GITHUB_TOKEN")
		if username != "" {
			password = "" // GitHub token can be used as username with empty password
		}
	}

	if username != "" {
		return &http.BasicAuth{
			Username: username,
			Password: password,
		}
	}

	return nil
}

// isSSHURL checks if a URL is an SSH URL.
// Detects git@ (SCP-style), ssh://, and git+ssh:// schemes.
func isSSHURL(url string) bool {
	return strings.HasPrefix(url, "git@") ||
		strings.HasPrefix(url, "ssh://") ||
		strings.HasPrefix(url, "git+ssh://")
}

// isSSHAgentAvailable checks if an SSH agent is available.
// Returns true only if SSH_AUTH_SOCK is set and non-empty.
func isSSHAgentAvailable() bool {
	sock := strings.TrimSpace(os.Getenv("SSH_AUTH_SOCK"))
	return sock != ""
}
