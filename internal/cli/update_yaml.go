package cli

import (
	"errors"
	"fmt"

	clierrors "github.com/ariel-frischer/relnotes/internal/errors"
	"github.com/ariel-frischer/relnotes/internal/git"
	"github.com/ariel-frischer/relnotes/internal/logging"
	"github.com/ariel-frischer/relnotes/internal/output"
	relyaml "github.com/ariel-frischer/relnotes/internal/yaml"
	"github.com/spf13/cobra"
)

const updateYAMLUsage = "relnotes update-yaml --file <path> --key <dotted.key> [--value <value>]"

func newUpdateYAMLCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update-yaml",
		Short: "Set a key in a YAML file (defaults to the latest tag)",
		Long: `Set a key in a YAML file to a value, creating intermediate mappings as
needed. Nested keys use dots: image.tag. Without --value the latest git tag
is used, which makes it easy to bump a chart or manifest version after a
release. Comments in the file are kept.

The file is checked for syntax errors before it is rewritten; a broken file
is left untouched.`,
		Example: `  # Set the chart's appVersion to the latest tag
  relnotes update-yaml --file chart/Chart.yaml --key appVersion

  # Set a nested key to an explicit value, keeping a backup
  relnotes update-yaml -f values.yaml -k image.tag --value 1.4.0 --backup`,
		Args: cobra.NoArgs,
		RunE: runUpdateYAML,
	}
	cmd.GroupID = GroupGit

	cmd.Flags().StringP("file", "f", "", "YAML file to update (required)")
	cmd.Flags().StringP("key", "k", "", "Dotted key path (required)")
	cmd.Flags().String("value", "", "Value to set (default latest git tag)")
	cmd.Flags().Bool("backup", false, "Keep the original file as <file>.bak")
	return cmd
}

func runUpdateYAML(cmd *cobra.Command, _ []string) error {
	g := readGlobalFlags(cmd)
	setupLogging(cmd, logging.InfoLevel, g.debug)

	file, _ := cmd.Flags().GetString("file")
	key, _ := cmd.Flags().GetString("key")
	value, _ := cmd.Flags().GetString("value")
	backup, _ := cmd.Flags().GetBool("backup")

	if file == "" {
		return clierrors.MissingFlag("file", updateYAMLUsage)
	}
	if key == "" {
		return clierrors.MissingFlag("key", updateYAMLUsage)
	}
	if _, err := relyaml.ParseKeyPath(key); err != nil {
		return clierrors.NewArgumentErrorWithUsage(fmt.Sprintf("invalid key %q: %v", key, err), updateYAMLUsage)
	}

	if !cmd.Flags().Changed("value") {
		tag, err := latestTag(g.dir)
		if err != nil {
			return err
		}
		value = tag
		logging.Debug("using latest tag as value", "tag", tag)
	}

	data, err := relyaml.UpdateFile(file, relyaml.UpdateOptions{Key: key, Value: value, Backup: backup})
	if err != nil {
		return clierrors.Wrap(err, clierrors.Runtime, "Validate the file: a syntax error leaves it unchanged")
	}

	out := cmd.OutOrStdout()
	output.PrintSuccess(out, fmt.Sprintf("Set %s = %s in %s", key, value, file))
	if g.verbose {
		fmt.Fprintf(out, "\n%s", data)
	}
	return nil
}

func latestTag(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	repo, err := git.Open(dir)
	if err != nil {
		return "", clierrors.NotAGitRepository(dir)
	}
	tag, err := repo.LatestTag()
	if errors.Is(err, git.ErrNoTags) {
		return "", clierrors.NoTagsFound()
	}
	if err != nil {
		return "", clierrors.Wrap(err, clierrors.Runtime)
	}
	return tag, nil
}
