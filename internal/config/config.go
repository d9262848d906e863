// relnotes - Release notes from conventional commits
// Author: Ariel Frischer
// Source: https://github.com/ariel-frischer/relnotes

// Package config provides hierarchical configuration for relnotes using koanf.
// Configuration is loaded with priority: environment variables (RELNOTES_*) >
// project config (.relnotes.yml or --config) > user config
// (~/.config/relnotes/config.yml) > defaults. CLI flags are applied on top by
// the command layer.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ariel-frischer/relnotes/internal/bump"
	"github.com/ariel-frischer/relnotes/internal/taxonomy"
	relyaml "github.com/ariel-frischer/relnotes/internal/yaml"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variables that override config keys.
const EnvPrefix = "RELNOTES_"

// ConfigSource tracks where a configuration value came from
type ConfigSource string

const (
	SourceUser    ConfigSource = "user"
	SourceProject ConfigSource = "project"
)

// Configuration represents the relnotes configuration.
type Configuration struct {
	// From is the exclusive start of the commit range. Empty means the latest
	// tag, or the whole history when there are no tags.
	From string `koanf:"from" yaml:"from"`
	To   string `koanf:"to" yaml:"to" validate:"required"`

	Output   string `koanf:"output" yaml:"output" validate:"required"`
	Template string `koanf:"template" yaml:"template"`

	TagPrefix string `koanf:"tag_prefix" yaml:"tag_prefix"`
	TagSuffix string `koanf:"tag_suffix" yaml:"tag_suffix"`
	SetTag    bool   `koanf:"set_tag" yaml:"set_tag"`

	Remote         string `koanf:"remote" yaml:"remote" validate:"required"`
	PushLatestOnly bool   `koanf:"push_latest_only" yaml:"push_latest_only"`

	// FallbackVersion replaces a base version that is not valid semver.
	FallbackVersion string `koanf:"fallback_version" yaml:"fallback_version" validate:"required,semver"`

	Workers    int    `koanf:"workers" yaml:"workers" validate:"min=1,max=64"`
	LogLevel   string `koanf:"log_level" yaml:"log_level" validate:"oneof=debug info warn error"`
	WorkingDir string `koanf:"working_dir" yaml:"working_dir"`

	// FeatureCategory names the category whose presence triggers a minor bump.
	FeatureCategory string              `koanf:"feature_category" yaml:"feature_category" validate:"required"`
	Categories      []taxonomy.Category `koanf:"categories" yaml:"categories,omitempty"`

	// Sources lists the config files that were loaded, lowest priority first.
	Sources []string `koanf:"-" yaml:"-"`
}

// LoadOptions configures how configuration is loaded
type LoadOptions struct {
	// ProjectConfigPath overrides the project config lookup. The file must exist.
	ProjectConfigPath string
	// Dir is where the default project config is looked up (default: cwd).
	Dir string
	// UserConfigPath overrides the user config location. "-" disables it.
	UserConfigPath string
}

// LoadWithOptions loads configuration with custom options
func LoadWithOptions(opts LoadOptions) (*Configuration, error) {
	k := koanf.New(".")
	var sources []string

	loadDefaults(k)

	userPath, err := resolveUserConfigPath(opts.UserConfigPath)
	if err != nil {
		return nil, err
	}
	if fileExists(userPath) {
		if err := loadFile(k, userPath, SourceUser); err != nil {
			return nil, err
		}
		sources = append(sources, userPath)
	}

	projectPath, err := resolveProjectConfigPath(opts)
	if err != nil {
		return nil, err
	}
	if projectPath != "" {
		if err := loadFile(k, projectPath, SourceProject); err != nil {
			return nil, err
		}
		sources = append(sources, projectPath)
	}

	if err := loadEnvironmentConfig(k); err != nil {
		return nil, err
	}

	cfg, err := finalizeConfig(k, projectPath)
	if err != nil {
		return nil, err
	}
	cfg.Sources = sources
	return cfg, nil
}

// loadDefaults applies default configuration values
func loadDefaults(k *koanf.Koanf) {
	for key, value := range GetDefaults() {
		k.Set(key, value)
	}
}

func resolveUserConfigPath(override string) (string, error) {
	switch override {
	case "-":
		return "", nil
	case "":
		path, err := UserConfigPath()
		if err != nil {
			// No home directory (e.g. minimal CI containers): skip the user layer.
			return "", nil
		}
		return path, nil
	default:
		return override, nil
	}
}

// resolveProjectConfigPath returns the project config to load, or "" when
// none exists. An explicit path that does not exist is an error.
func resolveProjectConfigPath(opts LoadOptions) (string, error) {
	if opts.ProjectConfigPath != "" {
		if !fileExists(opts.ProjectConfigPath) {
			return "", fmt.Errorf("config file not found: %s", opts.ProjectConfigPath)
		}
		return opts.ProjectConfigPath, nil
	}

	for _, name := range ProjectConfigCandidates() {
		path := filepath.Join(opts.Dir, name)
		if fileExists(path) {
			return path, nil
		}
	}
	return "", nil
}

// loadFile validates and loads a YAML or JSON config file.
func loadFile(k *koanf.Koanf, path string, source ConfigSource) error {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := k.Load(file.Provider(path), json.Parser()); err != nil {
			return &ValidationError{FilePath: path, Message: err.Error()}
		}
		return nil
	}

	if err := ValidateYAMLSyntax(path); err != nil {
		return fmt.Errorf("validating %s config: %w", source, err)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("loading %s config %s: %w", source, path, err)
	}
	return nil
}

// loadEnvironmentConfig loads environment variable overrides
func loadEnvironmentConfig(k *koanf.Koanf) error {
	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return fmt.Errorf("loading environment config: %w", err)
	}
	return nil
}

// finalizeConfig unmarshals and validates the merged layers.
func finalizeConfig(k *koanf.Koanf, filePath string) (*Configuration, error) {
	if filePath == "" {
		filePath = "config"
	}

	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.TagSuffix = bump.NormalizeSuffix(cfg.TagSuffix)
	cfg.WorkingDir = expandHomePath(cfg.WorkingDir)
	cfg.Template = expandHomePath(cfg.Template)

	if err := ValidateConfigValues(&cfg, filePath); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Taxonomy builds the category taxonomy: the configured categories, or the
// built-in ones when none are configured.
func (c *Configuration) Taxonomy() (taxonomy.Taxonomy, error) {
	if len(c.Categories) == 0 {
		return taxonomy.Default(), nil
	}
	return taxonomy.New(c.Categories)
}

// Validate re-runs validation, for callers that changed fields after Load
// (CLI flag overrides).
func (c *Configuration) Validate() error {
	return ValidateConfigValues(c, "flags")
}

// fileExists returns true if path exists and is a regular file.
func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// envTransform converts environment variable names to config keys.
// Example: RELNOTES_TAG_PREFIX -> tag_prefix
func envTransform(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
}

// expandHomePath expands ~ to the user's home directory
func expandHomePath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(homeDir, path[2:])
		}
	}
	return path
}

// ValidateYAMLSyntax checks that a YAML config file parses. A missing file
// is not an error.
func ValidateYAMLSyntax(path string) error {
	err := relyaml.ValidateFile(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}

	var syntaxErr *relyaml.SyntaxError
	if errors.As(err, &syntaxErr) {
		return &ValidationError{
			FilePath: path,
			Line:     syntaxErr.Line,
			Message:  cleanYAMLError(syntaxErr.Message),
		}
	}
	return &ValidationError{FilePath: path, Message: err.Error()}
}
