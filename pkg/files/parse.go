package files

import (
	"regexp"
	"strings"
)

// Naming conventions consumed from the load directory.
const (
	suffixAnimation = "_animation"
	suffixThumb     = "_thumb"
	suffixCaption   = "_caption"
)

var thumbExts = []string{".jpg", ".jpeg"}

var captionExts = []string{".txt", ".md", ".htm", ".html"}

// bundlePattern matches <base>{<coarse><fine>}.<ext>: a brace-enclosed
// numeric suffix whose last digit is the fine (intra-bundle) index and
// whose leading digits are the coarse index shared by all members.
var bundlePattern = regexp.MustCompile(`^(.*)\{([0-9]*)([0-9])\}\.[a-zA-Z0-9]+$`)

// BundleMatch is the structured result of parsing a bundle member name.
type BundleMatch struct {
	Base   string
	Coarse string
	Fine   int
}

// Key is the bundle identity all members of one album share.
func (m BundleMatch) Key() string {
	return m.Base + "_" + m.Coarse
}

// ParseBundleName parses a file name against the bundle pattern.
func ParseBundleName(name string) (BundleMatch, bool) {
	groups := bundlePattern.FindStringSubmatch(name)
	if groups == nil {
		return BundleMatch{}, false
	}
	return BundleMatch{
		Base:   groups[1],
		Coarse: groups[2],
		Fine:   int(groups[3][0] - '0'),
	}, true
}

// baseName strips the extension from a file name.
func baseName(name, ext string) string {
	return strings.TrimSuffix(name, ext)
}

// hasAnimationSuffix reports whether the name carries the forced-animation
// tag right before its extension.
func hasAnimationSuffix(name, ext string) bool {
	return strings.HasSuffix(baseName(name, ext), suffixAnimation)
}

// thumbNames returns the companion thumbnail names for a file.
func thumbNames(name, ext string) []string {
	out := make([]string, 0, len(thumbExts))
	for _, te := range thumbExts {
		out = append(out, baseName(name, ext)+suffixThumb+te)
	}
	return out
}

// captionNames returns the companion caption names for a file.
func captionNames(name, ext string) []string {
	out := make([]string, 0, len(captionExts))
	for _, ce := range captionExts {
		out = append(out, baseName(name, ext)+suffixCaption+ce)
	}
	return out
}
