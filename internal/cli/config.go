package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/ariel-frischer/relnotes/internal/config"
	clierrors "github.com/ariel-frischer/relnotes/internal/errors"
	"github.com/ariel-frischer/relnotes/internal/output"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and initialize relnotes configuration",
		Long: `Inspect and initialize relnotes configuration.

Configuration is loaded with the following priority (highest to lowest):
  1. Command line flags
  2. Environment variables (RELNOTES_*)
  3. Project config (.relnotes.yml, .relnotes.yaml, .relnotes.json or --config)
  4. User config (~/.config/relnotes/config.yml)
  5. Built-in defaults`,
		Example: `  # Show the effective configuration
  relnotes config show

  # Write a commented .relnotes.yml
  relnotes config init

  # List every configuration key
  relnotes config keys`,
	}
	cmd.GroupID = GroupInternal

	cmd.AddCommand(newConfigShowCmd(), newConfigInitCmd(), newConfigKeysCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow,
	}
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	tax, err := cfg.Taxonomy()
	if err != nil {
		return clierrors.InvalidTaxonomy(err)
	}

	// Show the effective categories, built-in ones included.
	view := *cfg
	view.Categories = tax.Categories()

	data, err := yaml.Marshal(view)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	out := cmd.OutOrStdout()
	dim := color.New(color.Faint).SprintFunc()
	fmt.Fprintln(out, dim("# Configuration Sources:"))
	fmt.Fprintln(out, dim("#   defaults"))
	for _, src := range cfg.Sources {
		fmt.Fprintln(out, dim("#   "+src))
	}
	if env := setEnvVars(); len(env) > 0 {
		fmt.Fprintln(out, dim("#   env: "+strings.Join(env, ", ")))
	}
	_, err = out.Write(data)
	return err
}

// setEnvVars lists the RELNOTES_* variables that are set.
func setEnvVars() []string {
	var names []string
	for _, schema := range config.SortedKeys() {
		name := schema.EnvVar()
		if name == "" {
			continue
		}
		if _, ok := os.LookupEnv(name); ok {
			names = append(names, name)
		}
	}
	return names
}

func newConfigInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented .relnotes.yml with the defaults",
		Long: `Write a commented .relnotes.yml to the repository directory. Every key
is listed with its default value. An existing file is left unchanged unless
--force is given.`,
		Args: cobra.NoArgs,
		RunE: runConfigInit,
	}
	cmd.Flags().BoolP("force", "f", false, "Overwrite an existing config file")
	return cmd
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	g := readGlobalFlags(cmd)
	force, _ := cmd.Flags().GetBool("force")

	path := g.configPath
	if path == "" {
		path = filepath.Join(g.dir, config.ProjectConfigPath())
	}

	if _, err := os.Stat(path); err == nil && !force {
		return clierrors.NewArgumentError(
			fmt.Sprintf("config file already exists: %s", path),
			"Use --force to overwrite it with the defaults",
		)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(config.GetDefaultConfigTemplate()), 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	output.PrintSuccess(cmd.OutOrStdout(), "Created "+path)
	return nil
}

func newConfigKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List configuration keys with types and defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tTYPE\tDEFAULT\tENV\tDESCRIPTION")
			for _, schema := range config.SortedKeys() {
				typ := schema.Type.String()
				if len(schema.AllowedValues) > 0 {
					typ = strings.Join(schema.AllowedValues, "|")
				}
				env := schema.EnvVar()
				if env == "" {
					env = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", schema.Path, typ, schema.DefaultString(), env, schema.Description)
			}
			return w.Flush()
		},
	}
}
