package config

// GetDefaultConfigTemplate returns a fully commented project config that
// `relnotes config init` writes to .relnotes.yml.
func GetDefaultConfigTemplate() string {
	return `# relnotes configuration
# Precedence: flags > RELNOTES_* env vars > this file > ~/.config/relnotes/config.yml > defaults
# See 'relnotes config keys' for all options.

# Commit range
from: ""                              # Exclusive start; empty = latest tag (full history if none)
to: HEAD                              # Inclusive end

# Output
output: RELEASE_NOTES.md              # File written by 'relnotes generate'
template: ""                          # Go text/template file; empty = built-in markdown template

# Versioning
tag_prefix: ""                        # e.g. "v" or "release-"
tag_suffix: ""                        # e.g. "rc" (a leading "-" is added)
fallback_version: 1.0.0               # Used when the latest tag is not a valid semver
feature_category: features            # Category that triggers a minor bump
set_tag: false                        # Tag HEAD with the computed version after writing

# Tag push
remote: origin
push_latest_only: true

# Runtime
workers: 4                            # Concurrent classification workers (1-64)
log_level: info                       # debug | info | warn | error

# Categories replace the built-in taxonomy when set. Exactly one category
# must contain the type "other" (unrecognized commits land there).
# categories:
#   - name: chore
#     types: [chore, docs, lint, perf, ref, refactor, style]
#   - name: ci
#     types: [ci, build]
#   - name: features
#     types: [feature, feat]
#   - name: fixes
#     types: [fix]
#   - name: other
#     types: [merge, wip, test, update, other]
`
}

// GetDefaults returns the default configuration values, taken from the key
// schema registry.
func GetDefaults() map[string]any {
	defaults := make(map[string]any, len(KnownKeys))
	for key, schema := range KnownKeys {
		if schema.Default != nil {
			defaults[key] = schema.Default
		}
	}
	return defaults
}
