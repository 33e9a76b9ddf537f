package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultPrivacyPolicyMasksInputs(t *testing.T) {
	p := DefaultPrivacyPolicy()
	assert.True(t, p.MaskAllInputs)
	assert.Empty(t, p.BlockSelectors)
	assert.Empty(t, p.ExcludePages)
}

func TestExcludesPage(t *testing.T) {
	p := PrivacyPolicy{ExcludePages: []string{"/checkout", "/admin/*"}}

	tests := []struct {
		page string
		want bool
	}{
		{"/checkout", true},
		{"/checkout/step2", false},
		{"/admin/", true},
		{"/admin/settings", true},
		{"/administrator", false},
		{"/home", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, p.ExcludesPage(tt.page), "page %q", tt.page)
	}
}
