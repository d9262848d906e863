// Package cli implements the relnotes command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/ariel-frischer/relnotes/internal/config"
	clierrors "github.com/ariel-frischer/relnotes/internal/errors"
	"github.com/ariel-frischer/relnotes/internal/git"
	"github.com/ariel-frischer/relnotes/internal/logging"
	"github.com/ariel-frischer/relnotes/internal/version"
	"github.com/spf13/cobra"
)

// Command groups shown in help output.
const (
	GroupCore     = "core"
	GroupGit      = "git"
	GroupInternal = "internal"
)

// NewRootCmd builds the relnotes command tree. Every call returns fresh
// commands and flag state.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "relnotes",
		Short: "Generate release notes and the next version from conventional commits",
		Long: `relnotes reads the commits since the latest tag, sorts them into categories
by their conventional-commit type, and writes release notes along with the
next semantic version.

Configuration is loaded with the following priority (highest to lowest):
  1. Command line flags
  2. Environment variables (RELNOTES_*)
  3. Project config (.relnotes.yml or --config)
  4. User config (~/.config/relnotes/config.yml)
  5. Built-in defaults`,
		Example: `  # Write RELEASE_NOTES.md for the commits since the latest tag
  relnotes generate

  # Preview the notes in the terminal
  relnotes preview

  # Generate, then tag and push the release
  relnotes generate --set-tag --tag-prefix v && relnotes push-tag`,
		Version:       version.String(),
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.AddGroup(
		&cobra.Group{ID: GroupCore, Title: "Release Notes:"},
		&cobra.Group{ID: GroupGit, Title: "Git:"},
		&cobra.Group{ID: GroupInternal, Title: "Configuration & Info:"},
	)

	root.PersistentFlags().StringP("config", "c", "", "Project config file (default .relnotes.yml)")
	root.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	root.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	root.PersistentFlags().StringP("dir", "C", "", "Repository directory (default current directory)")

	root.AddCommand(
		newGenerateCmd(),
		newPreviewCmd(),
		newClassifyCmd(),
		newNextVersionCmd(),
		newPushTagCmd(),
		newUpdateYAMLCmd(),
		newVersionCmd(),
		newConfigCmd(),
	)

	return root
}

// Execute runs the CLI and reports a failed command on stderr.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := NewRootCmd()
	err := root.ExecuteContext(ctx)
	reportError(root.ErrOrStderr(), err)
	return err
}

func reportError(w io.Writer, err error) {
	if err == nil {
		return
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return
	}
	if cliErr := clierrors.AsCLIError(err); cliErr != nil {
		clierrors.FprintError(w, cliErr)
		return
	}
	fmt.Fprint(w, clierrors.FormatSimpleError(err, clierrors.Runtime))
}

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	dir        string
	debug      bool
	verbose    bool
}

func readGlobalFlags(cmd *cobra.Command) globalFlags {
	var g globalFlags
	g.configPath, _ = cmd.Flags().GetString("config")
	g.dir, _ = cmd.Flags().GetString("dir")
	g.debug, _ = cmd.Flags().GetBool("debug")
	g.verbose, _ = cmd.Flags().GetBool("verbose")
	return g
}

// loadConfig loads the layered configuration, applies --dir, and sets up
// logging for the command.
func loadConfig(cmd *cobra.Command) (*config.Configuration, error) {
	g := readGlobalFlags(cmd)

	cfg, err := config.LoadWithOptions(config.LoadOptions{
		ProjectConfigPath: g.configPath,
		Dir:               g.dir,
	})
	if err != nil {
		return nil, clierrors.InvalidConfig(err)
	}
	if g.dir != "" {
		cfg.WorkingDir = g.dir
	}

	level := logging.ParseLevel(cfg.LogLevel)
	setupLogging(cmd, level, g.debug)
	return cfg, nil
}

// setupLogging initializes the default logger on the command's stderr.
func setupLogging(cmd *cobra.Command, level logging.Level, debug bool) logging.Logger {
	if debug {
		level = logging.DebugLevel
	}
	logger := logging.Init(&logging.Config{Level: level, Output: cmd.ErrOrStderr()})
	if debug {
		git.SetDebugLogger(logging.Debugf)
	} else {
		git.SetDebugLogger(nil)
	}
	return logger
}

// validateOverrides re-validates the configuration after flag overrides.
func validateOverrides(cfg *config.Configuration) error {
	if err := cfg.Validate(); err != nil {
		var ve *config.ValidationError
		if errors.As(err, &ve) && ve.Field == "categories" {
			return clierrors.InvalidTaxonomy(err)
		}
		return clierrors.InvalidConfig(err)
	}
	return nil
}

// openRepo opens the repository at the configured working directory.
func openRepo(cfg *config.Configuration) (*git.Repo, error) {
	dir := cfg.WorkingDir
	if dir == "" {
		dir = "."
	}
	repo, err := git.Open(dir)
	if err != nil {
		return nil, clierrors.NotAGitRepository(dir)
	}
	return repo, nil
}
