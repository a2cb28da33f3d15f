// Package sanitize implements the "sanitize(rawHtml) -> sanitizedHtml"
// collaborator that internal/document applies to raw HTML blocks
// before they are diffed. Grounded on
// sam-saffron-jarvis-term-llm's transitive use of bluemonday via
// glamour for sanitizing rendered Markdown HTML.
package sanitize

import "github.com/microcosm-cc/bluemonday"

// Policy identifies which bluemonday policy a Sanitizer enforces.
type Policy string

const (
	// PolicyStrict strips all HTML, keeping only text content.
	PolicyStrict Policy = "strict"
	// PolicyUGC allows the subset of HTML bluemonday considers safe for
	// user-generated content (links, basic formatting, images).
	PolicyUGC Policy = "ugc"
)

// Sanitizer wraps a configured bluemonday policy.
type Sanitizer struct {
	policy Policy
	p      *bluemonday.Policy
}

// New builds a Sanitizer enforcing the named policy.
func New(policy Policy) *Sanitizer {
	switch policy {
	case PolicyUGC:
		return &Sanitizer{policy: policy, p: bluemonday.UGCPolicy()}
	default:
		return &Sanitizer{policy: PolicyStrict, p: bluemonday.StrictPolicy()}
	}
}

// Sanitize returns the sanitized HTML plus the policy name used, which
// internal/document logs to its diagnostics sink.
func (s *Sanitizer) Sanitize(rawHTML string) (sanitized string, policy string) {
	return s.p.Sanitize(rawHTML), string(s.policy)
}
