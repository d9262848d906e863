package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/ariel-frischer/relnotes/internal/taxonomy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func loadIn(t *testing.T, dir string) (*Configuration, error) {
	t.Helper()
	return LoadWithOptions(LoadOptions{Dir: dir, UserConfigPath: "-"})
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := loadIn(t, t.TempDir())
	require.NoError(t, err)

	assert.Empty(t, cfg.From)
	assert.Equal(t, "HEAD", cfg.To)
	assert.Equal(t, "RELEASE_NOTES.md", cfg.Output)
	assert.Empty(t, cfg.Template)
	assert.Empty(t, cfg.TagPrefix)
	assert.Empty(t, cfg.TagSuffix)
	assert.False(t, cfg.SetTag)
	assert.Equal(t, "origin", cfg.Remote)
	assert.True(t, cfg.PushLatestOnly)
	assert.Equal(t, "1.0.0", cfg.FallbackVersion)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "features", cfg.FeatureCategory)
	assert.Empty(t, cfg.Categories)
	assert.Empty(t, cfg.Sources)

	tax, err := cfg.Taxonomy()
	require.NoError(t, err)
	assert.Equal(t, taxonomy.Default().Names(), tax.Names())
}

func TestLoad_ProjectOverridesUser(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	userPath := writeFile(t, filepath.Join(dir, "home", "config.yml"), "tag_prefix: v\nworkers: 2\nremote: upstream\n")
	projectPath := writeFile(t, filepath.Join(dir, "repo", ".relnotes.yml"), "workers: 8\noutput: CHANGES.md\n")

	cfg, err := LoadWithOptions(LoadOptions{Dir: filepath.Join(dir, "repo"), UserConfigPath: userPath})
	require.NoError(t, err)

	assert.Equal(t, "v", cfg.TagPrefix)
	assert.Equal(t, "upstream", cfg.Remote)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, "CHANGES.md", cfg.Output)
	assert.Equal(t, []string{userPath, projectPath}, cfg.Sources)
}

// Note: Cannot use t.Parallel() as this test manipulates environment variables.
func TestLoad_EnvOverridesProject(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".relnotes.yml"), "workers: 8\ntag_suffix: beta\n")

	t.Setenv("RELNOTES_WORKERS", "16")
	t.Setenv("RELNOTES_TAG_SUFFIX", "rc")
	t.Setenv("RELNOTES_SET_TAG", "true")

	cfg, err := loadIn(t, dir)
	require.NoError(t, err)

	assert.Equal(t, 16, cfg.Workers)
	assert.Equal(t, "-rc", cfg.TagSuffix)
	assert.True(t, cfg.SetTag)
}

// Note: Cannot use t.Parallel() as this test manipulates environment variables.
func TestLoad_InvalidEnvValue(t *testing.T) {
	t.Setenv("RELNOTES_WORKERS", "0")

	_, err := loadIn(t, t.TempDir())
	require.Error(t, err)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "workers", ve.Field)
}

func TestLoad_SuffixNormalized(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".relnotes.yml"), "tag_suffix: beta\n")

	cfg, err := loadIn(t, dir)
	require.NoError(t, err)
	assert.Equal(t, "-beta", cfg.TagSuffix)
}

func TestLoad_ExplicitConfigPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".relnotes.yml"), "output: ignored.md\n")
	jsonPath := writeFile(t, filepath.Join(dir, "ci", "relnotes.json"), `{"output": "ci-notes.md", "workers": 12, "push_latest_only": false}`)

	cfg, err := LoadWithOptions(LoadOptions{Dir: dir, ProjectConfigPath: jsonPath, UserConfigPath: "-"})
	require.NoError(t, err)

	assert.Equal(t, "ci-notes.md", cfg.Output)
	assert.Equal(t, 12, cfg.Workers)
	assert.False(t, cfg.PushLatestOnly)
	assert.Equal(t, []string{jsonPath}, cfg.Sources)
}

func TestLoad_ExplicitConfigPathMissing(t *testing.T) {
	t.Parallel()

	_, err := LoadWithOptions(LoadOptions{ProjectConfigPath: filepath.Join(t.TempDir(), "nope.yml"), UserConfigPath: "-"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestLoad_ProjectCandidates(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, filepath.Join(dir, ".relnotes.yaml"), "output: from-yaml-ext.md\n")

	cfg, err := loadIn(t, dir)
	require.NoError(t, err)
	assert.Equal(t, "from-yaml-ext.md", cfg.Output)
	assert.Equal(t, []string{path}, cfg.Sources)
}

func TestLoad_Categories(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".relnotes.yml"), `feature_category: added
categories:
  - name: added
    types: [feat]
  - name: fixed
    types: [fix, hotfix]
  - name: misc
    types: [other]
`)

	cfg, err := loadIn(t, dir)
	require.NoError(t, err)
	require.Len(t, cfg.Categories, 3)

	tax, err := cfg.Taxonomy()
	require.NoError(t, err)
	assert.Equal(t, []string{"added", "fixed", "misc"}, tax.Names())

	name, ok := tax.CategoryOf("hotfix")
	require.True(t, ok)
	assert.Equal(t, "fixed", name)
}

func TestLoad_ValidationErrors(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		content   string
		wantField string
		wantMsg   string
	}{
		"workers too low": {
			content:   "workers: 0\n",
			wantField: "workers",
			wantMsg:   "must be at least 1",
		},
		"workers too high": {
			content:   "workers: 65\n",
			wantField: "workers",
			wantMsg:   "must be at most 64",
		},
		"unknown log level": {
			content:   "log_level: loud\n",
			wantField: "log_level",
			wantMsg:   "must be one of",
		},
		"fallback not semver": {
			content:   "fallback_version: \"1.0\"\n",
			wantField: "fallback_version",
			wantMsg:   "not a semantic version",
		},
		"empty output": {
			content:   "output: \"\"\n",
			wantField: "output",
			wantMsg:   "is required",
		},
		"feature category missing": {
			content:   "feature_category: feats\n",
			wantField: "feature_category",
			wantMsg:   "is not a category",
		},
		"duplicate category": {
			content:   "categories:\n  - name: a\n    types: [feat]\n  - name: a\n    types: [other]\n",
			wantField: "categories",
		},
		"no fallback category": {
			content:   "feature_category: a\ncategories:\n  - name: a\n    types: [feat]\n",
			wantField: "categories",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			path := writeFile(t, filepath.Join(dir, ".relnotes.yml"), tt.content)

			_, err := loadIn(t, dir)
			require.Error(t, err)

			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "got %T: %v", err, err)
			assert.Equal(t, tt.wantField, ve.Field)
			assert.Equal(t, path, ve.FilePath)
			if tt.wantMsg != "" {
				assert.Contains(t, ve.Message, tt.wantMsg)
			}
		})
	}
}

func TestLoad_YAMLSyntaxError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, filepath.Join(dir, ".relnotes.yml"), "output: notes.md\nworkers: 4\n  tag_prefix: v\n")

	_, err := loadIn(t, dir)
	require.Error(t, err)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, path, ve.FilePath)
	assert.Positive(t, ve.Line)
	assert.True(t, strings.HasPrefix(ve.Error(), path+":"))
}

func TestDefaultConfigTemplateLoads(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".relnotes.yml"), GetDefaultConfigTemplate())

	fromTemplate, err := loadIn(t, dir)
	require.NoError(t, err)
	defaults, err := loadIn(t, t.TempDir())
	require.NoError(t, err)

	fromTemplate.Sources = nil
	assert.Equal(t, defaults, fromTemplate)
}

func TestValidate_AfterOverrides(t *testing.T) {
	t.Parallel()

	cfg, err := loadIn(t, t.TempDir())
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	cfg.Workers = 100
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flags: field 'workers'")
}

func TestKnownKeysCoverConfiguration(t *testing.T) {
	t.Parallel()

	typ := reflect.TypeOf(Configuration{})
	for i := 0; i < typ.NumField(); i++ {
		tag := typ.Field(i).Tag.Get("koanf")
		if tag == "-" {
			continue
		}
		_, err := GetKeySchema(tag)
		assert.NoError(t, err, "field %s", typ.Field(i).Name)
	}
	assert.Len(t, KnownKeys, typ.NumField()-1)

	for key, schema := range KnownKeys {
		assert.Equal(t, key, schema.Path)
	}
}

func TestGetKeySchema(t *testing.T) {
	t.Parallel()

	schema, err := GetKeySchema("workers")
	require.NoError(t, err)
	assert.Equal(t, TypeInt, schema.Type)
	assert.Equal(t, "RELNOTES_WORKERS", schema.EnvVar())
	assert.Equal(t, "4", schema.DefaultString())

	_, err = GetKeySchema("agent_preset")
	require.Error(t, err)
	assert.Equal(t, "unknown configuration key: agent_preset", err.Error())

	categories, err := GetKeySchema("categories")
	require.NoError(t, err)
	assert.Empty(t, categories.EnvVar())
	assert.Equal(t, "-", categories.DefaultString())

	keys := SortedKeys()
	require.NotEmpty(t, keys)
	assert.Equal(t, "categories", keys[0].Path)
	assert.Equal(t, "working_dir", keys[len(keys)-1].Path)
}

func TestGetDefaults(t *testing.T) {
	t.Parallel()

	defaults := GetDefaults()
	assert.Equal(t, "HEAD", defaults["to"])
	assert.Equal(t, 4, defaults["workers"])
	assert.NotContains(t, defaults, "categories")
}

func TestToSnakeCase(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"Workers":         "workers",
		"LogLevel":        "log_level",
		"FallbackVersion": "fallback_version",
		"TagPrefix":       "tag_prefix",
	}
	for in, want := range tests {
		assert.Equal(t, want, toSnakeCase(in))
	}
}

func TestUserConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")

	path, err := UserConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/xdg", "relnotes", "config.yml"), path)
	assert.Equal(t, ".relnotes.yml", ProjectConfigPath())
	assert.Equal(t, ProjectConfigPath(), ProjectConfigCandidates()[0])
}
