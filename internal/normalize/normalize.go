// Package normalize canonicalizes the messy payloads retailers hand back:
// free-form price strings, affiliate-tracked URLs, and stock placeholder
// imagery.
package normalize

import (
	"net/url"
	"regexp"
	"strings"
)

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify returns an SEO-friendly slug for the provided value.
func Slugify(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	value = slugPattern.ReplaceAllString(value, "-")
	value = strings.Trim(value, "-")
	if value == "" {
		return "item"
	}
	return value
}

var placeholderImageHosts = map[string]struct{}{
	"images.unsplash.com": {},
	"picsum.photos":       {},
	"placekitten.com":     {},
	"source.unsplash.com": {},
}

var placeholderImagePrefixes = []string{"/assets/amazon-sitestripe/"}

// IsPlaceholderImage reports whether the image payload is a known placeholder
// rather than a real product shot.
func IsPlaceholderImage(value string) bool {
	text := strings.TrimSpace(value)
	if text == "" {
		return true
	}
	lowered := strings.ToLower(text)
	if strings.HasPrefix(lowered, "data:image/svg") {
		return true
	}
	for _, prefix := range placeholderImagePrefixes {
		if strings.HasPrefix(lowered, prefix) {
			return true
		}
	}
	if strings.HasSuffix(lowered, ".svg") && strings.Contains(lowered, "amazon") {
		return true
	}
	if strings.Contains(lowered, "placeholder") {
		return true
	}
	if strings.HasPrefix(lowered, "http://") || strings.HasPrefix(lowered, "https://") {
		parsed, err := url.Parse(lowered)
		if err != nil {
			return false
		}
		if _, ok := placeholderImageHosts[parsed.Host]; ok {
			return true
		}
	}
	return false
}
