package assemble

import (
	"strings"

	"github.com/mymmrac/telego"
)

// mdv2Specials are the characters escaped before sending MarkdownV2 text.
var mdv2Specials = map[rune]bool{
	'>': true, '#': true, '+': true, '-': true, '=': true,
	'|': true, '{': true, '}': true, '.': true, '!': true,
}

// EscapeMarkdownV2 backslash-escapes MarkdownV2 special characters that are
// not already preceded by a backslash.
//
// The escape is context-free and single-pass: applying it to already
// escaped text double-escapes, so callers must escape exactly once.
func EscapeMarkdownV2(contents string) string {
	var sb strings.Builder
	sb.Grow(len(contents))

	prev := rune(0)
	for _, r := range contents {
		if mdv2Specials[r] && prev != '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
		prev = r
	}
	return sb.String()
}

// ParseModeForExt resolves the text-formatting mode for a text or caption
// file from its extension. Plain text gets no parse mode.
func ParseModeForExt(ext string) string {
	switch ext {
	case ".md":
		return telego.ModeMarkdownV2
	case ".htm", ".html":
		return telego.ModeHTML
	}
	return ""
}
