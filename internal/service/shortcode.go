package service

import (
	"regexp"
	"strings"

	appErrors "github.com/unclebandit/cpas-demos/internal/errors"
)

var permalinkPattern = regexp.MustCompile(`(?:https?://)?(?:www\.)?instagram\.com/(?:p|reel|tv)/([A-Za-z0-9_-]+)`)

// ExtractShortcode turns a post, reel or tv permalink into its shortcode.
// Input that is not such a URL is taken as a bare shortcode, minus trailing slashes.
// Story links are rejected with appErrors.ErrStoriesUnsupported.
func ExtractShortcode(permalink string) (string, error) {
	if permalink == "" {
		return "", nil
	}
	if strings.Contains(permalink, "/stories/") {
		return "", appErrors.ErrStoriesUnsupported
	}
	if m := permalinkPattern.FindStringSubmatch(permalink); m != nil {
		return m[1], nil
	}
	return strings.TrimRight(permalink, "/"), nil
}
