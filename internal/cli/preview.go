package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/ariel-frischer/relnotes/internal/config"
	"github.com/ariel-frischer/relnotes/internal/logging"
	"github.com/ariel-frischer/relnotes/internal/output"
	"github.com/ariel-frischer/relnotes/internal/pipeline"
	"github.com/ariel-frischer/relnotes/internal/render"
	"github.com/ariel-frischer/relnotes/internal/watch"
	"github.com/spf13/cobra"
)

func newPreviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show the release notes for a range in the terminal",
		Long: `Classify the commits in the range and print a colored preview of the
release notes together with the computed version. Nothing is written and
no tag is created.

With --watch the preview is printed again whenever the template, a config
file, or HEAD changes. Press Ctrl+C to stop.`,
		Example: `  # Preview the changes since the latest tag
  relnotes preview

  # Preview an older release without colors
  relnotes preview --from v1.0.0 --to v1.1.0 --plain

  # Re-render while editing a custom template
  relnotes preview --template notes.tmpl --watch`,
		Args: cobra.NoArgs,
		RunE: runPreview,
	}
	cmd.GroupID = GroupCore

	addRangeFlags(cmd)
	cmd.Flags().Bool("plain", false, "Plain text output (no colors)")
	cmd.Flags().Bool("watch", false, "Re-render when the template, config, or HEAD changes")
	return cmd
}

func runPreview(cmd *cobra.Command, _ []string) error {
	cfg, err := previewOnce(cmd)
	if err != nil {
		return err
	}

	if w, _ := cmd.Flags().GetBool("watch"); !w {
		return nil
	}
	return watchPreview(cmd.Context(), cmd, watchPaths(cmd, cfg))
}

// previewOnce loads the configuration and prints one preview. The loaded
// configuration is returned even when rendering fails.
func previewOnce(cmd *cobra.Command) (*config.Configuration, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return cfg, err
	}
	plain, _ := cmd.Flags().GetBool("plain")

	repo, err := openRepo(cfg)
	if err != nil {
		return cfg, err
	}

	result, err := pipeline.New(cfg, repo).Prepare(cmd.Context())
	if err != nil {
		return cfg, pipelineError(cfg, nil, err)
	}

	if cfg.Template != "" {
		// Surface template errors in the preview instead of at generate time.
		r, err := render.New(render.Options{TemplatePath: cfg.Template})
		if err == nil {
			_, err = r.Render(result.Note)
		}
		if err != nil {
			return cfg, pipelineError(cfg, nil, err)
		}
	}

	out := cmd.OutOrStdout()
	printSummary(out, result)
	output.PrintSeparator(out, result.Tag)
	return cfg, render.FormatTerminal(out, result.Note, render.FormatOptions{Plain: plain})
}

// watchPaths lists the files whose changes trigger a new preview.
func watchPaths(cmd *cobra.Command, cfg *config.Configuration) []string {
	paths := append([]string{cfg.Template}, cfg.Sources...)

	g := readGlobalFlags(cmd)
	if g.configPath == "" {
		// Pick up a project config created while watching.
		paths = append(paths, filepath.Join(g.dir, config.ProjectConfigPath()))
	}

	// The reflog only exists when commits are made with the git CLI.
	if repo, err := openRepo(cfg); err == nil {
		if root, err := repo.Root(); err == nil {
			logs := filepath.Join(root, ".git", "logs")
			if info, err := os.Stat(logs); err == nil && info.IsDir() {
				paths = append(paths, filepath.Join(logs, "HEAD"))
			}
		}
	}
	return paths
}

// watchPreview re-renders the preview on every settled change until ctx is
// cancelled. Failed renders are reported and watching continues.
func watchPreview(ctx context.Context, cmd *cobra.Command, paths []string) error {
	w, err := watch.New(paths)
	if err != nil {
		return err
	}
	defer w.Close()

	logging.Debug("watching for changes", "paths", w.Paths())
	output.PrintWarning(cmd.ErrOrStderr(), "watching for changes, press Ctrl+C to stop")

	return w.Run(ctx, func(path string) error {
		output.PrintSeparator(cmd.OutOrStdout(), "changed "+filepath.Base(path))
		if _, err := previewOnce(cmd); err != nil {
			reportError(cmd.ErrOrStderr(), err)
		}
		return nil
	})
}
