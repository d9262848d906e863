package cli

import (
	"errors"
	"io"
	"path/filepath"

	"github.com/ariel-frischer/relnotes/internal/bump"
	"github.com/ariel-frischer/relnotes/internal/config"
	clierrors "github.com/ariel-frischer/relnotes/internal/errors"
	"github.com/ariel-frischer/relnotes/internal/git"
	"github.com/ariel-frischer/relnotes/internal/output"
	"github.com/ariel-frischer/relnotes/internal/pipeline"
	"github.com/ariel-frischer/relnotes/internal/progress"
	"github.com/ariel-frischer/relnotes/internal/render"
	"github.com/spf13/cobra"
)

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "generate",
		Aliases: []string{"gen"},
		Short:   "Write release notes for a commit range",
		Long: `Read the commits in the range, classify them by conventional-commit type,
compute the next version, and render the release notes.

The range defaults to <latest tag>..HEAD, or the full history when the
repository has no tags. The next version increments the latest tag:
breaking changes bump major, features bump minor, anything else bumps patch.`,
		Example: `  # Write RELEASE_NOTES.md for the commits since the latest tag
  relnotes generate

  # Explicit range, custom template, print instead of writing
  relnotes generate --from v1.2.0 --to HEAD --template notes.tmpl --stdout

  # Tag HEAD with the computed version (v1.3.0-rc)
  relnotes generate --set-tag --tag-prefix v --tag-suffix rc`,
		Args: cobra.NoArgs,
		RunE: runGenerate,
	}
	cmd.GroupID = GroupCore

	addRangeFlags(cmd)
	cmd.Flags().StringP("output", "o", "", "Output file (default RELEASE_NOTES.md)")
	cmd.Flags().StringP("template", "t", "", "Go text/template file (default built-in)")
	cmd.Flags().Bool("set-tag", false, "Tag HEAD with the computed version")
	cmd.Flags().Bool("stdout", false, "Print the notes to stdout instead of writing a file")
	return cmd
}

// addRangeFlags registers the flags shared by generate and preview.
func addRangeFlags(cmd *cobra.Command) {
	cmd.Flags().String("from", "", "Start of the range, exclusive (default latest tag)")
	cmd.Flags().String("to", "", "End of the range, inclusive (default HEAD)")
	cmd.Flags().String("tag-prefix", "", "Tag prefix, e.g. v")
	cmd.Flags().String("tag-suffix", "", "Tag suffix, e.g. rc")
	cmd.Flags().String("fallback-version", "", "Version used when the latest tag is not semver")
	cmd.Flags().IntP("workers", "w", 0, "Concurrent classification workers")
}

// applyFlags copies explicitly set flags over the loaded configuration.
func applyFlags(cmd *cobra.Command, cfg *config.Configuration) error {
	flags := cmd.Flags()
	stringFlags := map[string]*string{
		"from":             &cfg.From,
		"to":               &cfg.To,
		"output":           &cfg.Output,
		"template":         &cfg.Template,
		"tag-prefix":       &cfg.TagPrefix,
		"tag-suffix":       &cfg.TagSuffix,
		"fallback-version": &cfg.FallbackVersion,
	}
	for name, dst := range stringFlags {
		if flags.Lookup(name) != nil && flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	if flags.Lookup("workers") != nil && flags.Changed("workers") {
		cfg.Workers, _ = flags.GetInt("workers")
	}
	if flags.Lookup("set-tag") != nil && flags.Changed("set-tag") {
		cfg.SetTag, _ = flags.GetBool("set-tag")
	}

	cfg.TagSuffix = bump.NormalizeSuffix(cfg.TagSuffix)
	resolvePaths(cfg)
	return validateOverrides(cfg)
}

// resolvePaths makes relative output and template paths relative to the
// working directory, like the repository itself.
func resolvePaths(cfg *config.Configuration) {
	if cfg.WorkingDir == "" {
		return
	}
	if cfg.Output != "" && !filepath.IsAbs(cfg.Output) {
		cfg.Output = filepath.Join(cfg.WorkingDir, cfg.Output)
	}
	if cfg.Template != "" && !filepath.IsAbs(cfg.Template) {
		cfg.Template = filepath.Join(cfg.WorkingDir, cfg.Template)
	}
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}
	toStdout, _ := cmd.Flags().GetBool("stdout")

	repo, err := openRepo(cfg)
	if err != nil {
		return err
	}

	status := cmd.OutOrStdout()
	opts := pipeline.RunOptions{}
	if toStdout {
		status = cmd.ErrOrStderr()
		opts.Stdout = cmd.OutOrStdout()
	}

	p := pipeline.New(cfg, repo)
	p.Stages = progress.NewDisplay(cmd.ErrOrStderr(), progress.DetectTerminalCapabilities())

	result, err := p.Run(cmd.Context(), opts)
	if err != nil {
		return pipelineError(cfg, result, err)
	}

	printSummary(status, result)
	if result.OutputPath != "" {
		output.PrintSuccess(status, "Wrote "+result.OutputPath)
	}
	if result.Tagged {
		output.PrintSuccess(status, "Tagged HEAD as "+result.Tag)
	}
	return nil
}

func printSummary(w io.Writer, result *pipeline.Result) {
	output.PrintRange(w, result.Range.String(), result.Commits)
	output.PrintVersionBump(w, result.BaseVersion, result.Version, result.Level.String())
	if result.UsedFallback {
		output.PrintWarning(w, "base version "+result.BaseVersion+" is not semver, used fallback "+result.Version)
	}
}

// pipelineError turns pipeline failures into CLI errors with remediation.
// result is non-nil only when the notes were written but tagging failed.
func pipelineError(cfg *config.Configuration, result *pipeline.Result, err error) error {
	var emptyRange *pipeline.EmptyRangeError
	switch {
	case errors.As(err, &emptyRange):
		cliErr := clierrors.NoCommitsInRange(emptyRange.Range.String())
		cliErr.Err = err
		return cliErr
	case errors.Is(err, render.ErrTemplateNotFound):
		cliErr := clierrors.TemplateNotFound(cfg.Template)
		cliErr.Err = err
		return cliErr
	case errors.Is(err, git.ErrTagExists) && result != nil:
		cliErr := clierrors.TagExists(result.Tag)
		cliErr.Err = err
		return cliErr
	default:
		return clierrors.Wrap(err, clierrors.Runtime)
	}
}
