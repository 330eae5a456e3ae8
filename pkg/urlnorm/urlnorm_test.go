package urlnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"http://example.com", "https://example.com"},
		{"https://example.com/", "https://example.com"},
		{"example.com", "https://example.com"},
		{"//example.com/me", "https://example.com/me"},
		{"HTTP://WWW.Example.COM:80/a/../b/", "https://example.com/b"},
		{"https://example.com:443/profile", "https://example.com/profile"},
		{"http://example.com:443/", "https://example.com"},
		{"http://example.com:8080/x", "https://example.com:8080/x"},
		{"https://twitter.com//dev?b=2&a=1", "https://twitter.com/dev?a=1&b=2"},
		{"linkedin.com/in/jane-doe/", "https://linkedin.com/in/jane-doe"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := Normalize(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNormalize_Rejects(t *testing.T) {
	_, err := Normalize("https://")
	assert.Error(t, err)

	_, err = Normalize("http://exa mple.com/%zz")
	assert.Error(t, err)
}

func TestNormalizePtr(t *testing.T) {
	got, err := NormalizePtr(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	raw := "instagram.com/dev"
	got, err = NormalizePtr(&raw)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "https://instagram.com/dev", *got)
}
