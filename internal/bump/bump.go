// Package bump computes the next semantic version for a release from the
// kind of changes it contains.
package bump

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ErrInvalidVersion is returned when a base version is not a valid
// major.minor.patch semantic version.
var ErrInvalidVersion = errors.New("invalid semantic version")

// Change is the size of a version increment.
type Change int

const (
	// Patch increments the patch component.
	Patch Change = iota
	// Minor increments the minor component and resets patch.
	Minor
	// Major increments the major component and resets minor and patch.
	Major
)

// String returns the lowercase name of the change.
func (c Change) String() string {
	switch c {
	case Major:
		return "major"
	case Minor:
		return "minor"
	default:
		return "patch"
	}
}

// Level returns the increment implied by the release contents. Breaking
// changes always win over features, features always win over everything else.
func Level(hasBreaking, hasFeatures bool) Change {
	switch {
	case hasBreaking:
		return Major
	case hasFeatures:
		return Minor
	default:
		return Patch
	}
}

// Next returns the version following base. base must be a bare
// major.minor.patch string; callers strip prefixes first (see Normalize).
// An unparsable base is reported as ErrInvalidVersion, never guessed.
func Next(base string, hasBreaking, hasFeatures bool) (string, error) {
	return Apply(base, Level(hasBreaking, hasFeatures))
}

// Apply increments base by change.
func Apply(base string, change Change) (string, error) {
	v, err := parse(base)
	if err != nil {
		return "", err
	}

	var next semver.Version
	switch change {
	case Major:
		next = v.IncMajor()
	case Minor:
		next = v.IncMinor()
	default:
		next = v.IncPatch()
	}

	return next.String(), nil
}

// Valid reports whether v is a bare major.minor.patch version.
func Valid(v string) bool {
	_, err := parse(v)
	return err == nil
}

func parse(v string) (*semver.Version, error) {
	parsed, err := semver.StrictNewVersion(v)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidVersion, v, err)
	}
	// Incrementing drops these, so "1.2.3-rc.1" would bump to itself.
	if parsed.Prerelease() != "" || parsed.Metadata() != "" {
		return nil, fmt.Errorf("%w %q: prerelease and build metadata are not allowed", ErrInvalidVersion, v)
	}
	return parsed, nil
}

// Normalize strips caller decoration from a tag so that it can be passed to
// Next: the prefix, the suffix, and a leading "v". For example with prefix
// "release-" and suffix "-rc", "release-v1.2.3-rc" becomes "1.2.3".
func Normalize(tag, prefix, suffix string) string {
	v := strings.TrimSpace(tag)
	if prefix != "" {
		v = strings.TrimPrefix(v, prefix)
	}
	if suffix != "" {
		v = strings.TrimSuffix(v, suffix)
	}
	if strings.HasPrefix(v, "v") || strings.HasPrefix(v, "V") {
		v = v[1:]
	}
	return v
}

// Decorate applies a tag prefix and suffix to a bare version.
func Decorate(version, prefix, suffix string) string {
	return prefix + version + suffix
}

// NormalizeSuffix prepends a dash to a non-empty suffix that lacks one, so
// "beta" and "-beta" both produce "1.2.3-beta".
func NormalizeSuffix(suffix string) string {
	if suffix == "" || strings.HasPrefix(suffix, "-") {
		return suffix
	}
	return "-" + suffix
}
