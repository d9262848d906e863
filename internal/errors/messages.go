package errors

import "fmt"

// Common error messages for the relnotes CLI.

// NotAGitRepository reports that dir is not inside a git repository.
func NotAGitRepository(dir string) *CLIError {
	return NewPrerequisiteError(
		fmt.Sprintf("not a git repository: %s", dir),
		"Run relnotes from inside a git checkout",
		"Or point it at one with --dir <path>",
	)
}

// NoCommitsInRange reports an empty commit range.
func NoCommitsInRange(rng string) *CLIError {
	return NewPrerequisiteError(
		fmt.Sprintf("no commits found in range %s", rng),
		"Check the --from and --to revisions",
		"A shallow CI clone may hide history: fetch with depth 0",
	)
}

// NoTagsFound reports that a command needed a tag and the repository has none.
func NoTagsFound() *CLIError {
	return NewPrerequisiteError(
		"no tags found in repository",
		"Create one with: relnotes generate --set-tag",
		"Or fetch tags from the remote: git fetch --tags",
	)
}

// InvalidTaxonomy reports a category configuration that failed validation.
func InvalidTaxonomy(err error) *CLIError {
	e := NewConfigError(
		fmt.Sprintf("invalid categories: %v", err),
		"Every category needs a unique name and at least one type",
		"Exactly one category must contain the type 'other'",
		"Run 'relnotes config show' to inspect the effective configuration",
	)
	e.Err = err
	return e
}

// InvalidConfig reports a configuration that failed to load or validate.
func InvalidConfig(err error) *CLIError {
	e := NewConfigError(
		fmt.Sprintf("invalid configuration: %v", err),
		"Check .relnotes.yml and RELNOTES_* environment variables",
		"Run 'relnotes config show' to inspect the effective configuration",
	)
	e.Err = err
	return e
}

// TemplateNotFound reports a missing template file.
func TemplateNotFound(path string) *CLIError {
	return NewConfigError(
		fmt.Sprintf("template not found: %s", path),
		"Check the --template flag or the 'template' config key",
		"Omit the template to use the built-in one",
	)
}

// InvalidVersion reports a version argument that is not major.minor.patch.
func InvalidVersion(version string) *CLIError {
	return NewArgumentErrorWithUsage(
		fmt.Sprintf("invalid semantic version: %q", version),
		"relnotes next-version <major.minor.patch> [--breaking] [--feature]",
		"Use a bare version such as 1.2.3 (no 'v' prefix)",
	)
}

// TagExists reports an attempt to create a tag that already exists.
func TagExists(tag string) *CLIError {
	return NewRuntimeError(
		fmt.Sprintf("tag %s already exists", tag),
		"Commit new changes before tagging again",
		"Or remove the stale tag: git tag -d "+tag,
	)
}

// MissingFlag reports a required flag that was not set.
func MissingFlag(flag, usage string) *CLIError {
	return NewArgumentErrorWithUsage(
		fmt.Sprintf("--%s is required", flag),
		usage,
	)
}
