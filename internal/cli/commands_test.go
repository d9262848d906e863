package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ariel-frischer/relnotes/internal/testutil"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := map[string]struct {
		args []string
		want string
	}{
		"breaking feature with scope": {
			args: []string{"feat(auth)!: drop basic auth"},
			want: "type: feat\nscope: auth\nsubject: drop basic auth\nbreaking: true\ncategory: features\n",
		},
		"unconventional subject": {
			args: []string{"update", "readme"},
			want: "type: other\nsubject: update readme\nbreaking: false\ncategory: other\n",
		},
		"uppercase type": {
			args: []string{"FIX: null check"},
			want: "type: fix\nsubject: null check\nbreaking: false\ncategory: fixes\n",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			args := append([]string{"classify", "--dir", t.TempDir()}, tt.args...)
			stdout, _, err := execute(t, args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, stdout)
		})
	}
}

func TestClassify_RequiresSubject(t *testing.T) {
	_, _, err := execute(t, "classify")
	require.Error(t, err)
}

func TestNextVersion(t *testing.T) {
	tests := map[string]struct {
		args []string
		want string
	}{
		"patch":         {args: []string{"1.2.3"}, want: "1.2.4\n"},
		"feature":       {args: []string{"1.2.3", "--feature"}, want: "1.3.0\n"},
		"breaking wins": {args: []string{"1.2.3", "--breaking", "--feature"}, want: "2.0.0\n"},
		"prefix":        {args: []string{"v1.2.3", "--tag-prefix", "v"}, want: "v1.2.4\n"},
		"suffix":        {args: []string{"1.2.3-rc", "--tag-suffix", "rc", "--feature"}, want: "1.3.0-rc\n"},
		"level only":    {args: []string{"1.2.3", "--breaking", "--level"}, want: "major\n"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			stdout, _, err := execute(t, append([]string{"next-version"}, tt.args...)...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, stdout)
		})
	}
}

func TestNextVersion_Invalid(t *testing.T) {
	_, _, err := execute(t, "next-version", "1.2")
	require.Error(t, err)
	assert.Equal(t, ExitInvalidArguments, ExitCode(err))
	assert.Contains(t, err.Error(), `"1.2"`)
}

func TestUpdateYAML(t *testing.T) {
	tests := map[string]struct {
		original string
		args     []string
		contains []string
	}{
		"nested key": {
			original: "image:\n  repository: app # registry image\n  tag: 1.0.0\n",
			args:     []string{"-k", "image.tag", "--value", "1.4.0"},
			contains: []string{"tag: 1.4.0", "repository: app # registry image"},
		},
		"new key": {
			original: "name: app\n",
			args:     []string{"--key", "release.version", "--value", "2.0.0"},
			contains: []string{"name: app", "release:\n  version: 2.0.0"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "values.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.original), 0o644))

			stdout, _, err := execute(t, append([]string{"update-yaml", "-f", path}, tt.args...)...)
			require.NoError(t, err)
			assert.Contains(t, stdout, "Set ")

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, string(data), want)
			}
		})
	}
}

func TestUpdateYAML_LatestTag(t *testing.T) {
	tr := testutil.NewGitRepo(t)
	tr.Tag("v2.0.0", tr.Commit("feat: initial"))

	path := filepath.Join(t.TempDir(), "Chart.yaml")
	require.NoError(t, os.WriteFile(path, []byte("appVersion: 1.0.0\n"), 0o644))

	stdout, _, err := execute(t, "update-yaml", "--dir", tr.Dir, "-f", path, "-k", "appVersion", "--backup")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Set appVersion = v2.0.0")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "appVersion: v2.0.0\n", string(data))

	backup, err := os.ReadFile(path + ".bak")
	require.NoError(t, err)
	assert.Equal(t, "appVersion: 1.0.0\n", string(backup))
}

func TestUpdateYAML_Errors(t *testing.T) {
	tests := map[string]struct {
		setup    func(t *testing.T) []string
		wantCode int
	}{
		"missing file flag": {
			setup:    func(*testing.T) []string { return []string{"-k", "a"} },
			wantCode: ExitInvalidArguments,
		},
		"missing key flag": {
			setup:    func(*testing.T) []string { return []string{"-f", "values.yaml"} },
			wantCode: ExitInvalidArguments,
		},
		"empty key segment": {
			setup:    func(*testing.T) []string { return []string{"-f", "values.yaml", "-k", "image..tag", "--value", "1"} },
			wantCode: ExitInvalidArguments,
		},
		"no tags": {
			setup: func(t *testing.T) []string {
				tr := testutil.NewGitRepo(t)
				tr.Commit("feat: initial")
				return []string{"--dir", tr.Dir, "-f", "values.yaml", "-k", "version"}
			},
			wantCode: ExitMissingPrerequisite,
		},
		"syntax error": {
			setup: func(t *testing.T) []string {
				path := filepath.Join(t.TempDir(), "broken.yaml")
				require.NoError(t, os.WriteFile(path, []byte("a: [1, 2\n"), 0o644))
				return []string{"-f", path, "-k", "a", "--value", "1"}
			},
			wantCode: ExitFailure,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := execute(t, append([]string{"update-yaml"}, tt.setup(t)...)...)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, ExitCode(err))
		})
	}
}

func TestPushTag(t *testing.T) {
	tr := testutil.NewGitRepo(t)
	tr.Tag("v1.0.0", tr.Commit("chore: initial"))
	tr.Tag("v1.1.0", tr.Commit("feat: a"))

	bareDir, bare := testutil.InitBare(t)
	_, err := tr.Repo.CreateRemote(&gitconfig.RemoteConfig{Name: "origin", URLs: []string{bareDir}})
	require.NoError(t, err)

	stdout, _, err := execute(t, "push-tag", "--dir", tr.Dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Pushed tag v1.1.0 to origin")

	_, err = bare.Tag("v1.1.0")
	require.NoError(t, err)
	_, err = bare.Tag("v1.0.0")
	require.Error(t, err)

	stdout, _, err = execute(t, "push-tag", "--dir", tr.Dir, "--all")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Pushed all tags to origin")
	_, err = bare.Tag("v1.0.0")
	require.NoError(t, err)
}

func TestPushTag_Errors(t *testing.T) {
	tests := map[string]struct {
		setup    func(t *testing.T) []string
		wantCode int
	}{
		"no tags": {
			setup: func(t *testing.T) []string {
				tr := testutil.NewGitRepo(t)
				tr.Commit("feat: initial")
				return []string{"--dir", tr.Dir}
			},
			wantCode: ExitMissingPrerequisite,
		},
		"unknown remote": {
			setup: func(t *testing.T) []string {
				tr := testutil.NewGitRepo(t)
				tr.Tag("v1.0.0", tr.Commit("feat: initial"))
				return []string{"--dir", tr.Dir, "--remote", "upstream"}
			},
			wantCode: ExitFailure,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := execute(t, append([]string{"push-tag"}, tt.setup(t)...)...)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, ExitCode(err))
		})
	}
}

func TestVersionCmd(t *testing.T) {
	tests := map[string]struct {
		args     []string
		contains []string
	}{
		"plain": {
			args:     []string{"version", "--plain"},
			contains: []string{"relnotes ", "commit: ", "built: ", "go: ", "platform: "},
		},
		"pretty": {
			args:     []string{"version"},
			contains: []string{"relnotes", "Commit", "Platform", SourceURL},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			stdout, _, err := execute(t, tt.args...)
			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, stdout, want)
			}
		})
	}
}

func TestConfigShow(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".relnotes.yml"), []byte("workers: 8\n"), 0o644))
	t.Setenv("RELNOTES_TAG_PREFIX", "v")

	stdout, _, err := execute(t, "config", "show", "--dir", dir)
	require.NoError(t, err)

	assert.Contains(t, stdout, "# Configuration Sources:")
	assert.Contains(t, stdout, filepath.Join(dir, ".relnotes.yml"))
	assert.Contains(t, stdout, "RELNOTES_TAG_PREFIX")
	assert.Contains(t, stdout, "workers: 8")
	assert.Contains(t, stdout, "tag_prefix: v")
	assert.Contains(t, stdout, "name: features")
	assert.NotContains(t, stdout, "sources")
}

func TestConfigShow_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".relnotes.yml"), []byte("workers: [\n"), 0o644))

	_, _, err := execute(t, "config", "show", "--dir", dir)
	require.Error(t, err)
	assert.Equal(t, ExitConfigError, ExitCode(err))
}

func TestConfigInit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".relnotes.yml")

	stdout, _, err := execute(t, "config", "init", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Created "+path)
	assert.FileExists(t, path)

	_, _, err = execute(t, "config", "init", "--dir", dir)
	require.Error(t, err)
	assert.Equal(t, ExitInvalidArguments, ExitCode(err))

	require.NoError(t, os.WriteFile(path, []byte("workers: 2\n"), 0o644))
	_, _, err = execute(t, "config", "init", "--dir", dir, "--force")
	require.NoError(t, err)

	// The written file loads back as a valid configuration.
	stdout, _, err = execute(t, "config", "show", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "workers: 4")
}

func TestConfigInit_ExplicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ci", "relnotes.yml")

	_, _, err := execute(t, "config", "init", "--config", path)
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestConfigKeys(t *testing.T) {
	stdout, _, err := execute(t, "config", "keys")
	require.NoError(t, err)

	for _, want := range []string{"KEY", "DESCRIPTION", "tag_prefix", "RELNOTES_TAG_PREFIX", "workers", "debug|info|warn|error"} {
		assert.Contains(t, stdout, want)
	}
}
