// relnotes - Release notes from conventional commits
// Author: Ariel Frischer
// Source: https://github.com/ariel-frischer/relnotes

// Package pipeline runs the release notes flow: read the commit range,
// classify, aggregate, compute the next version, render, write, and tag.
// Related: internal/git, internal/commit, internal/notes, internal/bump, internal/render
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ariel-frischer/relnotes/internal/bump"
	"github.com/ariel-frischer/relnotes/internal/commit"
	"github.com/ariel-frischer/relnotes/internal/config"
	"github.com/ariel-frischer/relnotes/internal/git"
	"github.com/ariel-frischer/relnotes/internal/logging"
	"github.com/ariel-frischer/relnotes/internal/notes"
	"github.com/ariel-frischer/relnotes/internal/render"
)

// ErrNoCommits is returned when the resolved range contains no commits.
var ErrNoCommits = errors.New("no commits in range")

// EmptyRangeError reports the resolved range that had no commits. It matches
// ErrNoCommits with errors.Is.
type EmptyRangeError struct {
	Range git.Range
}

func (e *EmptyRangeError) Error() string {
	return fmt.Sprintf("%s %s", ErrNoCommits, e.Range)
}

func (e *EmptyRangeError) Is(target error) bool {
	return target == ErrNoCommits
}

// InitialVersion is the base version of a repository without tags.
const InitialVersion = "0.0.0"

// Repository is the part of git.Repo the pipeline needs.
type Repository interface {
	ResolveRange(from, to string) (git.Range, error)
	Commits(ctx context.Context, rng git.Range) ([]commit.Commit, error)
	LatestTag() (string, error)
	CreateTag(name string) error
}

// Stage reports progress of the individual steps. progress.Display
// implements it; nil disables reporting.
type Stage interface {
	Start(stage string)
	Succeed(detail string)
	Fail(detail string)
}

// Pipeline holds the dependencies of a run.
type Pipeline struct {
	Config *config.Configuration
	Repo   Repository
	Logger logging.Logger
	Stages Stage
}

// Result describes a completed run.
type Result struct {
	Range   git.Range
	Commits int
	Note    notes.ReleaseNote

	// BaseVersion is the bare version the increment started from.
	BaseVersion string
	// Version is the bare computed version; Tag is Version with the
	// configured prefix and suffix.
	Version      string
	Tag          string
	Level        bump.Change
	UsedFallback bool

	Rendered   string
	OutputPath string // empty when written to a writer
	Tagged     bool
}

// New creates a pipeline over repo using cfg.
func New(cfg *config.Configuration, repo Repository) *Pipeline {
	return &Pipeline{
		Config: cfg,
		Repo:   repo,
		Logger: logging.Default(),
	}
}

// RunOptions controls the output side of Run.
type RunOptions struct {
	// Stdout, when set, receives the rendered notes instead of Config.Output.
	Stdout io.Writer
}

// Prepare reads and classifies the range and computes the next version. It
// does not render or write anything.
func (p *Pipeline) Prepare(ctx context.Context) (*Result, error) {
	tax, err := p.Config.Taxonomy()
	if err != nil {
		return nil, fmt.Errorf("building taxonomy: %w", err)
	}

	p.start("Reading commits")
	rng, err := p.Repo.ResolveRange(p.Config.From, p.Config.To)
	if err != nil {
		p.fail("")
		return nil, fmt.Errorf("resolving range: %w", err)
	}
	raw, err := p.Repo.Commits(ctx, rng)
	if err != nil {
		p.fail(rng.String())
		return nil, fmt.Errorf("reading commits: %w", err)
	}
	if len(raw) == 0 {
		p.fail(rng.String())
		return nil, &EmptyRangeError{Range: rng}
	}
	p.succeed(fmt.Sprintf("%s, %d commits", rng, len(raw)))
	p.logger().Debug("commits read", "range", rng.String(), "count", len(raw))
	for _, c := range raw {
		p.logger().Debug("commit", "hash", c.ShortHash(), "merge", c.IsMerge(), "subject", c.Subject)
	}

	p.start("Classifying")
	classified, err := commit.NewClassifier(tax).ClassifyAll(ctx, raw, p.Config.Workers)
	if err != nil {
		p.fail("")
		return nil, fmt.Errorf("classifying commits: %w", err)
	}
	note := notes.Aggregate(classified, tax)
	p.succeed(summarize(note))

	result := &Result{Range: rng, Commits: len(raw)}
	if err := p.computeVersion(result, note); err != nil {
		return nil, err
	}
	note.Version = result.Version
	result.Note = note
	return result, nil
}

// Run executes the full flow. The notes are written to Config.Output, or to
// opts.Stdout when set, and HEAD is tagged when Config.SetTag is true. A
// failed tag returns the result along with the error: the notes are already
// written at that point.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (*Result, error) {
	result, err := p.Prepare(ctx)
	if err != nil {
		return nil, err
	}

	renderer, err := render.New(render.Options{TemplatePath: p.Config.Template})
	if err != nil {
		return nil, fmt.Errorf("loading template: %w", err)
	}

	p.start("Rendering")
	rendered, err := renderer.Render(result.Note)
	if err != nil {
		p.fail(renderer.Name())
		return nil, err
	}
	result.Rendered = rendered
	p.succeed(renderer.Name())

	if opts.Stdout != nil {
		if _, err := io.WriteString(opts.Stdout, rendered); err != nil {
			return nil, fmt.Errorf("writing release notes: %w", err)
		}
	} else {
		if err := WriteFile(p.Config.Output, rendered); err != nil {
			return nil, err
		}
		result.OutputPath = p.Config.Output
		p.logger().Debug("release notes written", "path", p.Config.Output, "version", result.Version)
	}

	if p.Config.SetTag {
		if err := p.Repo.CreateTag(result.Tag); err != nil {
			return result, fmt.Errorf("tagging release %s: %w", result.Tag, err)
		}
		result.Tagged = true
		p.logger().Debug("tag created", "tag", result.Tag)
	}

	return result, nil
}

// computeVersion picks the base version and increments it. A range ending
// at a semver ref uses that ref as the base; otherwise the latest tag does.
// A base that is not valid semver yields Config.FallbackVersion as is.
func (p *Pipeline) computeVersion(result *Result, note notes.ReleaseNote) error {
	base, err := p.baseVersion()
	if err != nil {
		return err
	}
	result.BaseVersion = base

	hasFeatures := note.Has(p.Config.FeatureCategory)
	result.Level = bump.Level(note.HasBreaking(), hasFeatures)

	next, err := bump.Apply(base, result.Level)
	switch {
	case errors.Is(err, bump.ErrInvalidVersion):
		p.logger().Warn("invalid base version, using fallback", "base", base, "fallback", p.Config.FallbackVersion)
		next = p.Config.FallbackVersion
		result.UsedFallback = true
	case err != nil:
		return err
	}

	result.Version = next
	result.Tag = bump.Decorate(next, p.Config.TagPrefix, p.Config.TagSuffix)
	p.logger().Debug("version computed", "base", base, "level", result.Level.String(), "next", next)
	return nil
}

func (p *Pipeline) baseVersion() (string, error) {
	prefix, suffix := p.Config.TagPrefix, p.Config.TagSuffix

	if to := bump.Normalize(p.Config.To, prefix, suffix); bump.Valid(to) {
		return to, nil
	}

	tag, err := p.Repo.LatestTag()
	switch {
	case errors.Is(err, git.ErrNoTags):
		return InitialVersion, nil
	case err != nil:
		return "", fmt.Errorf("finding latest tag: %w", err)
	}
	return bump.Normalize(tag, prefix, suffix), nil
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(path, content string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing release notes: %w", err)
	}
	return nil
}

func summarize(note notes.ReleaseNote) string {
	if note.HasBreaking() {
		return fmt.Sprintf("%d entries, %d breaking", note.Count(), len(note.Breaking))
	}
	return fmt.Sprintf("%d entries", note.Count())
}

func (p *Pipeline) logger() logging.Logger {
	if p.Logger == nil {
		return logging.Default()
	}
	return p.Logger
}

func (p *Pipeline) start(stage string) {
	if p.Stages != nil {
		p.Stages.Start(stage)
	}
}

func (p *Pipeline) succeed(detail string) {
	if p.Stages != nil {
		p.Stages.Succeed(detail)
	}
}

func (p *Pipeline) fail(detail string) {
	if p.Stages != nil {
		p.Stages.Fail(detail)
	}
}
