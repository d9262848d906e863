package cli

import (
	"fmt"
	"strings"

	"github.com/ariel-frischer/relnotes/internal/commit"
	clierrors "github.com/ariel-frischer/relnotes/internal/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// classification is the YAML shape printed by `relnotes classify`.
type classification struct {
	Type     string `yaml:"type"`
	Scope    string `yaml:"scope,omitempty"`
	Subject  string `yaml:"subject"`
	Breaking bool   `yaml:"breaking"`
	Category string `yaml:"category"`
}

func newClassifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify <subject>",
		Short: "Classify a single commit subject",
		Long: `Print how a commit subject is classified: its type, scope, description,
whether it is a breaking change, and the release note category it lands in.
Uses the categories from the configuration.`,
		Example: `  relnotes classify "feat(auth)!: drop basic auth"
  relnotes classify "update readme"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runClassify,
	}
	cmd.GroupID = GroupCore
	return cmd
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	tax, err := cfg.Taxonomy()
	if err != nil {
		return clierrors.InvalidTaxonomy(err)
	}

	c := commit.NewClassifier(tax).Classify(strings.Join(args, " "))
	category, _ := tax.CategoryOf(c.Type)

	data, err := yaml.Marshal(classification{
		Type:     c.Type,
		Scope:    c.Scope,
		Subject:  c.Subject,
		Breaking: c.Breaking,
		Category: category,
	})
	if err != nil {
		return fmt.Errorf("encoding classification: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
