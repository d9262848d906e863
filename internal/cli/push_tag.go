package cli

import (
	"context"
	"errors"
	"fmt"

	clierrors "github.com/ariel-frischer/relnotes/internal/errors"
	"github.com/ariel-frischer/relnotes/internal/git"
	"github.com/ariel-frischer/relnotes/internal/output"
	"github.com/spf13/cobra"
)

func newPushTagCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "push-tag",
		Short: "Push the latest tag (or all tags) to a remote",
		Long: `Push the latest tag reachable from HEAD to the remote. With --all every
local tag is pushed.

Authentication uses the SSH agent for SSH remotes, and GIT_USERNAME /
GIT_PASSWORD or GITHUB_TOKEN for HTTPS remotes. A remote that already has
the tag is not an error.`,
		Example: `  relnotes push-tag
  relnotes push-tag --remote upstream --all`,
		Args: cobra.NoArgs,
		RunE: runPushTag,
	}
	cmd.GroupID = GroupGit

	cmd.Flags().String("remote", "", "Remote name (default origin)")
	cmd.Flags().Bool("all", false, "Push all tags instead of the latest one")
	cmd.Flags().Duration("timeout", git.DefaultPushTimeout, "Push timeout")
	return cmd
}

func runPushTag(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("remote") {
		cfg.Remote, _ = cmd.Flags().GetString("remote")
	}
	all, _ := cmd.Flags().GetBool("all")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	latestOnly := cfg.PushLatestOnly && !all

	repo, err := openRepo(cfg)
	if err != nil {
		return err
	}

	what := "all tags"
	if latestOnly {
		tag, err := repo.LatestTag()
		if errors.Is(err, git.ErrNoTags) {
			return clierrors.NoTagsFound()
		}
		if err != nil {
			return clierrors.Wrap(err, clierrors.Runtime)
		}
		what = "tag " + tag
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	if err := repo.PushTags(ctx, cfg.Remote, latestOnly); err != nil {
		if errors.Is(err, git.ErrNoTags) {
			return clierrors.NoTagsFound()
		}
		return clierrors.WrapWithMessage(err, clierrors.Runtime, "push failed",
			"Check that the remote exists: git remote -v",
			"For HTTPS remotes set GITHUB_TOKEN or GIT_USERNAME/GIT_PASSWORD")
	}

	output.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Pushed %s to %s", what, cfg.Remote))
	return nil
}
