package client

import "strings"

// PrivacyPolicy defines the input masking and page/selector exclusion rules
// applied to a recording session. A snapshot of the policy is sent with every
// recording upsert so stored sessions keep the rules they were captured under.
type PrivacyPolicy struct {
	MaskAllInputs  bool     `json:"maskAllInputs"`
	BlockSelectors []string `json:"blockSelectors,omitempty"`
	ExcludePages   []string `json:"excludePages,omitempty"`
}

func DefaultPrivacyPolicy() PrivacyPolicy {
	return PrivacyPolicy{MaskAllInputs: true}
}

// ExcludesPage reports whether the given page path matches one of the
// exclusion patterns. Patterns ending in "*" match as prefixes, so "/admin/*"
// excludes "/admin/settings".
func (p PrivacyPolicy) ExcludesPage(page string) bool {
	for _, pattern := range p.ExcludePages {
		if strings.HasSuffix(pattern, "*") {
			if strings.HasPrefix(page, strings.TrimSuffix(pattern, "*")) {
				return true
			}
		} else if page == pattern {
			return true
		}
	}
	return false
}
