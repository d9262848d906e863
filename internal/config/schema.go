package config

import (
	"fmt"
	"sort"
	"strings"
)

// ConfigValueType defines the expected type for a configuration value.
type ConfigValueType int

const (
	TypeBool ConfigValueType = iota
	TypeInt
	TypeString
	TypeEnum
	TypeList
)

// String returns the string representation of ConfigValueType.
func (t ConfigValueType) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeString:
		return "string"
	case TypeEnum:
		return "enum"
	case TypeList:
		return "list"
	default:
		return "unknown"
	}
}

// ConfigKeySchema describes a known configuration key.
type ConfigKeySchema struct {
	Path          string          // Key name as used in config files
	Type          ConfigValueType // Expected value type
	AllowedValues []string        // Valid values for enum types
	Description   string          // Human-readable description for help text
	Default       any             // Default value; nil when there is none
}

// EnvVar returns the environment variable that overrides the key.
func (s ConfigKeySchema) EnvVar() string {
	if s.Type == TypeList {
		return ""
	}
	return EnvPrefix + strings.ToUpper(s.Path)
}

// DefaultString formats the default for display.
func (s ConfigKeySchema) DefaultString() string {
	if s.Default == nil {
		return "-"
	}
	if str, ok := s.Default.(string); ok && str == "" {
		return `""`
	}
	return fmt.Sprint(s.Default)
}

// KnownKeys is the registry of all known configuration keys.
var KnownKeys = map[string]ConfigKeySchema{
	"from": {
		Path:        "from",
		Type:        TypeString,
		Description: "Start of the commit range (exclusive); empty = latest tag",
		Default:     "",
	},
	"to": {
		Path:        "to",
		Type:        TypeString,
		Description: "End of the commit range (inclusive)",
		Default:     "HEAD",
	},
	"output": {
		Path:        "output",
		Type:        TypeString,
		Description: "Release notes output file",
		Default:     "RELEASE_NOTES.md",
	},
	"template": {
		Path:        "template",
		Type:        TypeString,
		Description: "Go text/template file; empty = built-in template",
		Default:     "",
	},
	"tag_prefix": {
		Path:        "tag_prefix",
		Type:        TypeString,
		Description: "Prefix stripped from the latest tag and added to new tags",
		Default:     "",
	},
	"tag_suffix": {
		Path:        "tag_suffix",
		Type:        TypeString,
		Description: "Suffix stripped from the latest tag and added to new tags",
		Default:     "",
	},
	"set_tag": {
		Path:        "set_tag",
		Type:        TypeBool,
		Description: "Create a git tag for the computed version",
		Default:     false,
	},
	"remote": {
		Path:        "remote",
		Type:        TypeString,
		Description: "Remote used by push-tag",
		Default:     "origin",
	},
	"push_latest_only": {
		Path:        "push_latest_only",
		Type:        TypeBool,
		Description: "push-tag pushes only the latest tag",
		Default:     true,
	},
	"fallback_version": {
		Path:        "fallback_version",
		Type:        TypeString,
		Description: "Version used when the base version is not valid semver",
		Default:     "1.0.0",
	},
	"workers": {
		Path:        "workers",
		Type:        TypeInt,
		Description: "Concurrent classification workers (1-64)",
		Default:     4,
	},
	"log_level": {
		Path:          "log_level",
		Type:          TypeEnum,
		AllowedValues: []string{"debug", "info", "warn", "error"},
		Description:   "Log level",
		Default:       "info",
	},
	"working_dir": {
		Path:        "working_dir",
		Type:        TypeString,
		Description: "Repository directory; empty = current directory",
		Default:     "",
	},
	"feature_category": {
		Path:        "feature_category",
		Type:        TypeString,
		Description: "Category whose commits trigger a minor version bump",
		Default:     "features",
	},
	"categories": {
		Path:        "categories",
		Type:        TypeList,
		Description: "Category list of {name, types}; replaces the built-in taxonomy",
	},
}

// ErrUnknownKey is returned when trying to access an unknown configuration key.
type ErrUnknownKey struct {
	Key string
}

func (e ErrUnknownKey) Error() string {
	return "unknown configuration key: " + e.Key
}

// GetKeySchema returns the schema for a known configuration key.
func GetKeySchema(path string) (ConfigKeySchema, error) {
	schema, ok := KnownKeys[path]
	if !ok {
		return ConfigKeySchema{}, ErrUnknownKey{Key: path}
	}
	return schema, nil
}

// SortedKeys returns the known key schemas ordered by path.
func SortedKeys() []ConfigKeySchema {
	out := make([]ConfigKeySchema, 0, len(KnownKeys))
	for _, s := range KnownKeys {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

