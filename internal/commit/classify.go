package commit

import (
	"regexp"
	"strings"

	"github.com/ariel-frischer/relnotes/internal/taxonomy"
)

// BreakingChangeMarker marks a breaking change anywhere in a subject.
const BreakingChangeMarker = "BREAKING CHANGE"

// subjectPattern matches `type(scope)!: description`. It is unanchored: the
// leftmost word token is taken as the type, matching how a subject such as
// "  feat: x" is still read as a feature.
var subjectPattern = regexp.MustCompile(`(?P<type>\w+)(?:\((?P<scope>[^()\r\n]*)\)|(?P<open>\())?(?P<breaking>!)?(?P<desc>:.*)?`)

var (
	groupType     = subjectPattern.SubexpIndex("type")
	groupScope    = subjectPattern.SubexpIndex("scope")
	groupBreaking = subjectPattern.SubexpIndex("breaking")
	groupDesc     = subjectPattern.SubexpIndex("desc")
)

// Classified is the structured form of a conventional commit.
type Classified struct {
	Type     string `json:"type" yaml:"type"`
	Scope    string `json:"scope" yaml:"scope"`
	Subject  string `json:"subject" yaml:"subject"`
	Breaking bool   `json:"breaking" yaml:"breaking"`
	Body     string `json:"body" yaml:"body"`
}

// IsFallback returns true if the subject did not classify as a known type.
func (c Classified) IsFallback() bool {
	return c.Type == taxonomy.FallbackType
}

// Classifier maps commit subjects to Classified records using a taxonomy.
// It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	tax taxonomy.Taxonomy
}

// NewClassifier returns a classifier recognizing the tags of tax.
// A zero taxonomy is replaced by taxonomy.Default().
func NewClassifier(tax taxonomy.Taxonomy) *Classifier {
	if tax.IsZero() {
		tax = taxonomy.Default()
	}
	return &Classifier{tax: tax}
}

// Taxonomy returns the taxonomy used for recognition.
func (c *Classifier) Taxonomy() taxonomy.Taxonomy {
	return c.tax
}

// Classify parses a subject line. It never fails: subjects that do not
// follow the conventional-commit shape, or that use a tag unknown to the
// taxonomy, classify as "other" with the original text as subject.
func (c *Classifier) Classify(subject string) Classified {
	result := Classified{
		Type:    taxonomy.FallbackType,
		Subject: subject,
	}

	m := subjectPattern.FindStringSubmatchIndex(subject)
	if m != nil && m[2*groupDesc] >= 0 {
		// "!" only counts when it sits directly before the colon.
		result.Breaking = m[2*groupBreaking] >= 0

		tag := strings.ToLower(group(subject, m, groupType))
		if c.tax.Recognizes(tag) {
			desc := group(subject, m, groupDesc)
			result.Type = tag
			result.Scope = group(subject, m, groupScope)
			result.Subject = strings.TrimSpace(strings.TrimPrefix(desc, ":"))
		}
	}

	if strings.Contains(subject, BreakingChangeMarker) {
		result.Breaking = true
	}

	return result
}

// ClassifyCommit classifies a raw commit's subject and attaches its body
// with newlines escaped.
func (c *Classifier) ClassifyCommit(raw Commit) Classified {
	result := c.Classify(raw.Subject)
	result.Body = EscapeNewlines(raw.Body)
	return result
}

// group returns the text of a submatch, or "" if it did not participate.
func group(s string, m []int, idx int) string {
	if idx < 0 || m[2*idx] < 0 {
		return ""
	}
	return s[m[2*idx]:m[2*idx+1]]
}
