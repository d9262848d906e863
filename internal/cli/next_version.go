package cli

import (
	"fmt"

	"github.com/ariel-frischer/relnotes/internal/bump"
	clierrors "github.com/ariel-frischer/relnotes/internal/errors"
	"github.com/spf13/cobra"
)

func newNextVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "next-version <base>",
		Short: "Compute the version following a base version",
		Long: `Print the version that follows <base> for a release with the given kind
of changes. Breaking changes bump major, features bump minor, anything else
bumps patch. The tag prefix and suffix are stripped from <base> and added
to the result.`,
		Example: `  relnotes next-version 1.2.3 --feature          # 1.3.0
  relnotes next-version v1.2.3 --tag-prefix v     # v1.2.4
  relnotes next-version 1.2.3 --breaking --level  # major`,
		Args: cobra.ExactArgs(1),
		RunE: runNextVersion,
	}
	cmd.GroupID = GroupCore

	cmd.Flags().Bool("breaking", false, "The release contains breaking changes")
	cmd.Flags().Bool("feature", false, "The release contains features")
	cmd.Flags().String("tag-prefix", "", "Tag prefix, e.g. v")
	cmd.Flags().String("tag-suffix", "", "Tag suffix, e.g. rc")
	cmd.Flags().Bool("level", false, "Print the bump level instead of the version")
	return cmd
}

func runNextVersion(cmd *cobra.Command, args []string) error {
	breaking, _ := cmd.Flags().GetBool("breaking")
	feature, _ := cmd.Flags().GetBool("feature")
	prefix, _ := cmd.Flags().GetString("tag-prefix")
	suffix, _ := cmd.Flags().GetString("tag-suffix")
	levelOnly, _ := cmd.Flags().GetBool("level")
	suffix = bump.NormalizeSuffix(suffix)

	if levelOnly {
		fmt.Fprintln(cmd.OutOrStdout(), bump.Level(breaking, feature))
		return nil
	}

	next, err := bump.Next(bump.Normalize(args[0], prefix, suffix), breaking, feature)
	if err != nil {
		cliErr := clierrors.InvalidVersion(args[0])
		cliErr.Err = err
		return cliErr
	}

	fmt.Fprintln(cmd.OutOrStdout(), bump.Decorate(next, prefix, suffix))
	return nil
}
