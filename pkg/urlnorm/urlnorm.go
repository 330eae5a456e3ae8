// Package urlnorm canonicalizes user-supplied links (website, social
// profiles) to a single https form.
package urlnorm

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/purell"
)

const flags = purell.FlagsSafe |
	purell.FlagRemoveDotSegments |
	purell.FlagRemoveDuplicateSlashes |
	purell.FlagRemoveWWW |
	purell.FlagSortQuery |
	purell.FlagRemoveTrailingSlash

// Normalize returns the canonical https form of raw. An empty (or blank)
// value is returned as "" so that a cleared field stays cleared.
func Normalize(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", nil
	}

	switch {
	case strings.HasPrefix(s, "//"):
		s = "https:" + s
	case !strings.Contains(s, "://"):
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid url %q: missing host", raw)
	}

	// default ports are stripped against the original scheme first, then
	// again once the scheme is https so ":443" goes too
	normalized := purell.NormalizeURL(u, flags)
	if rest, ok := strings.CutPrefix(normalized, "http://"); ok {
		secure, err := url.Parse("https://" + rest)
		if err != nil {
			return "", fmt.Errorf("invalid url %q: %w", raw, err)
		}
		normalized = purell.NormalizeURL(secure, flags)
	}
	return normalized, nil
}

// NormalizePtr applies Normalize to an optional value; nil stays nil.
func NormalizePtr(raw *string) (*string, error) {
	if raw == nil {
		return nil, nil
	}
	n, err := Normalize(*raw)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
